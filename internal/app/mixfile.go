package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tdissana/concrete-compressive-strength-predictor/internal/registry"
)

// LoadMixFile reads a local JSON file holding a top-level object and extracts
// prefill values for the mix fields. Numbers keep their literal form so the
// form submits exactly what the file said; unknown keys are ignored.
func LoadMixFile(path string) (map[string]string, string, error) {
	rawPath := strings.TrimSpace(path)
	if rawPath == "" {
		return nil, "", fmt.Errorf("mix file path is required")
	}
	if strings.Contains(rawPath, "://") {
		return nil, "", fmt.Errorf("only local filesystem paths are supported")
	}

	resolvedPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, "", fmt.Errorf("resolve mix path %q: %w", rawPath, err)
	}

	blob, err := os.ReadFile(resolvedPath)
	if err != nil {
		return nil, resolvedPath, fmt.Errorf("read mix file %q: %w", resolvedPath, err)
	}

	decoder := json.NewDecoder(bytes.NewReader(blob))
	decoder.UseNumber()
	var parsed any
	if err := decoder.Decode(&parsed); err != nil {
		return nil, resolvedPath, fmt.Errorf("parse mix JSON %q: %w", resolvedPath, err)
	}

	obj, ok := parsed.(map[string]any)
	if !ok {
		return nil, resolvedPath, fmt.Errorf("mix JSON must be a top-level object")
	}

	values := make(map[string]string)
	for key, raw := range obj {
		if _, known := registry.Lookup(key); !known {
			continue
		}
		switch v := raw.(type) {
		case string:
			values[key] = strings.TrimSpace(v)
		case json.Number:
			values[key] = v.String()
		default:
			return nil, resolvedPath, fmt.Errorf("mix field %q must be a number or string", key)
		}
	}
	if len(values) == 0 {
		return nil, resolvedPath, fmt.Errorf("no mix fields found in %q", resolvedPath)
	}
	return values, resolvedPath, nil
}

func listJSONFilesInDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.TrimSpace(entry.Name())
		if name == "" {
			continue
		}
		if strings.EqualFold(filepath.Ext(name), ".json") {
			files = append(files, name)
		}
	}

	sort.Slice(files, func(i, j int) bool {
		li := strings.ToLower(files[i])
		lj := strings.ToLower(files[j])
		if li == lj {
			return files[i] < files[j]
		}
		return li < lj
	})
	return files, nil
}

package main

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"github.com/tdissana/concrete-compressive-strength-predictor/internal/api"
	"github.com/tdissana/concrete-compressive-strength-predictor/internal/app"
)

const (
	defaultBackendURL = "http://127.0.0.1:8000"
	defaultLogFile    = "concrete-tui.log"
)

func main() {
	// A missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	backendURL, err := resolveBackendURL(os.Getenv("CONCRETE_BACKEND_URL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid CONCRETE_BACKEND_URL: %v\n", err)
		os.Exit(1)
	}

	timeout, err := resolveTimeout(os.Getenv("CONCRETE_REQUEST_TIMEOUT"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid CONCRETE_REQUEST_TIMEOUT: %v\n", err)
		os.Exit(1)
	}

	logPath := strings.TrimSpace(os.Getenv("CONCRETE_LOG_FILE"))
	if logPath == "" {
		logPath = defaultLogFile
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file %s: %v\n", logPath, err)
		os.Exit(1)
	}
	defer logFile.Close()

	// The TUI owns the terminal, so structured logs go to a file.
	logger := slog.New(tint.NewHandler(logFile, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: "15:04:05",
		NoColor:    true,
	}))
	logger.Info("starting concrete-tui", "backend", backendURL, "timeout", timeout)

	client := api.NewClient(backendURL, logger)
	model := app.NewModel(client, app.Options{Timeout: timeout})
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "tui exited with error: %v\n", err)
		os.Exit(1)
	}
}

// resolveBackendURL validates the deployment-provided backend address,
// falling back to a local development default when unset.
func resolveBackendURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultBackendURL, nil
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", raw, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q (want http or https)", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("missing host in %q", raw)
	}
	return strings.TrimRight(raw, "/"), nil
}

// resolveTimeout parses the client-side request timeout. The default is
// generous because the backend may cold-start.
func resolveTimeout(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 120 * time.Second, nil
	}
	timeout, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", raw, err)
	}
	if timeout <= 0 {
		return 0, fmt.Errorf("timeout must be positive, got %s", timeout)
	}
	return timeout, nil
}

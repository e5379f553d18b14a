package app

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tdissana/concrete-compressive-strength-predictor/internal/api"
)

func sizedModel(t *testing.T) Model {
	t.Helper()
	m := NewModel(nil, Options{})
	nextModel, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return nextModel.(Model)
}

func TestViewShowsFormAndPanels(t *testing.T) {
	t.Parallel()

	m := sizedModel(t)
	view := m.View()

	for _, want := range []string{
		"Concrete Strength Predictor",
		"Mix Design",
		"Prediction",
		"Session Log",
		"Cement",
		"Fine Aggregate",
		"days",
		"KNN",
	} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected view to contain %q", want)
		}
	}
}

func TestViewBeforeFirstWindowSize(t *testing.T) {
	t.Parallel()

	m := NewModel(nil, Options{})
	if !strings.Contains(m.View(), "Booting") {
		t.Fatalf("expected boot placeholder before first resize")
	}
}

func TestErrorOverlayShowsServerMessage(t *testing.T) {
	t.Parallel()

	m := sizedModel(t)
	m.showError = true
	m.failureText = "internal error"
	m.phase = phaseFailed

	view := m.View()
	if !strings.Contains(view, "Request Failed") {
		t.Fatalf("expected error overlay title")
	}
	if !strings.Contains(view, "internal error") {
		t.Fatalf("expected server message in overlay")
	}
}

func TestErrorOverlayFallsBackToGenericMessage(t *testing.T) {
	t.Parallel()

	m := sizedModel(t)
	m.showError = true
	m.phase = phaseFailed

	view := m.View()
	if !strings.Contains(view, "try again later") {
		t.Fatalf("expected generic fallback message, got view without it")
	}
}

func TestMetricsOverlayShowsRoundedValues(t *testing.T) {
	t.Parallel()

	m := sizedModel(t)
	m.metrics = &api.Metrics{
		MAE:         4.51,
		RMSE:        6.03,
		R2:          0.88,
		Correlation: 0.94,
		Description: "KNN predicts the output based on nearest neighbors in the training data.",
	}

	view := m.View()
	for _, want := range []string{"Model Accuracy", "4.51", "6.03", "0.88", "0.94", "nearest neighbors"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected metrics overlay to contain %q", want)
		}
	}
}

func TestPredictionPanelShowsRoundedValue(t *testing.T) {
	t.Parallel()

	m := sizedModel(t)
	value := 42.02
	m.prediction = &value

	if !strings.Contains(m.View(), "42.02 MPa") {
		t.Fatalf("expected prediction value in view")
	}
}

func TestHelpLineToggles(t *testing.T) {
	t.Parallel()

	m := sizedModel(t)
	if !strings.Contains(m.View(), "ctrl+r/enter predict") {
		t.Fatalf("expected help line by default")
	}

	nextModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	next := nextModel.(Model)
	if strings.Contains(next.View(), "ctrl+r/enter predict") {
		t.Fatalf("expected help line hidden after toggle")
	}
}

func TestWrapLineToWidth(t *testing.T) {
	t.Parallel()

	segments := wrapLineToWidth("abcdefghij", 4)
	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %v", segments)
	}
	if segments[0] != "abcd" || segments[2] != "ij" {
		t.Fatalf("unexpected segments: %v", segments)
	}
	if got := wrapLineToWidth("", 4); len(got) != 1 || got[0] != "" {
		t.Fatalf("expected single empty segment, got %v", got)
	}
}

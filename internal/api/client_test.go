package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func sampleRequest() PredictRequest {
	return PredictRequest{
		Cement:           "540.0",
		Slag:             "0.0",
		FlyAsh:           "0.0",
		Water:            "162.0",
		Superplasticizer: "2.5",
		CoarseAgg:        "1040.0",
		FineAgg:          "676.0",
		Age:              "28",
		Model:            "KNN",
	}
}

func TestPredictSerializesExactKeySet(t *testing.T) {
	t.Parallel()

	var captured map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/predict" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type: %q", ct)
		}
		blob, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(blob, &captured); err != nil {
			t.Errorf("request body is not a flat string object: %v", err)
		}
		_, _ = w.Write([]byte(`{"predicted_strength": 42.017}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	value, err := client.Predict(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("Predict returned error: %v", err)
	}
	if value != 42.017 {
		t.Fatalf("expected raw value 42.017, got %v", value)
	}

	want := map[string]string{
		"cement":           "540.0",
		"slag":             "0.0",
		"flyash":           "0.0",
		"water":            "162.0",
		"superplasticizer": "2.5",
		"coarseagg":        "1040.0",
		"fineagg":          "676.0",
		"age":              "28",
		"model":            "KNN",
	}
	if len(captured) != len(want) {
		t.Fatalf("expected %d body keys, got %d (%v)", len(want), len(captured), captured)
	}
	for key, wantValue := range want {
		if captured[key] != wantValue {
			t.Fatalf("body key %q: expected %q, got %q", key, wantValue, captured[key])
		}
	}
}

func TestPredictServerErrorCarriesBodyText(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("internal error"))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	_, err := client.Predict(context.Background(), sampleRequest())

	var srvErr *ServerError
	if !errors.As(err, &srvErr) {
		t.Fatalf("expected *ServerError, got %T (%v)", err, err)
	}
	if srvErr.Status != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %d", srvErr.Status)
	}
	if srvErr.Error() != "internal error" {
		t.Fatalf("expected body text as message, got %q", srvErr.Error())
	}
}

func TestServerErrorFallsBackToStatusLine(t *testing.T) {
	t.Parallel()

	err := &ServerError{Status: 502}
	if err.Error() != "HTTP 502" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestPredictErrorEnvelopeBecomesAPIError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error": "Model SVM not implemented yet."}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	_, err := client.Predict(context.Background(), sampleRequest())

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T (%v)", err, err)
	}
	if apiErr.Message != "Model SVM not implemented yet." {
		t.Fatalf("unexpected message: %q", apiErr.Message)
	}
}

func TestPredictTimeoutIsPlainTransportFailure(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer func() {
		close(release)
		server.Close()
	}()

	client := NewClient(server.URL, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := client.Predict(ctx, sampleRequest())
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	var srvErr *ServerError
	var apiErr *APIError
	if errors.As(err, &srvErr) || errors.As(err, &apiErr) {
		t.Fatalf("expected bare transport failure, got %T (%v)", err, err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded in chain, got %v", err)
	}
}

func TestModelMetricsSuccess(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/model-metrics" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if model := r.URL.Query().Get("model"); model != "KNN" {
			t.Errorf("expected model query param KNN, got %q", model)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"mae": 4.5123, "rmse": 6.029, "r2": 0.8817, "correlation": 0.941, "description": "KNN predicts the output based on nearest neighbors in the training data."}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	metrics, err := client.ModelMetrics(context.Background(), "KNN")
	if err != nil {
		t.Fatalf("ModelMetrics returned error: %v", err)
	}
	if metrics.MAE != 4.5123 || metrics.RMSE != 6.029 || metrics.R2 != 0.8817 || metrics.Correlation != 0.941 {
		t.Fatalf("unexpected metrics: %+v", metrics)
	}
	if metrics.Description == "" {
		t.Fatalf("expected description to be populated")
	}
}

func TestModelMetricsErrorEnvelope(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error": "Metrics for model SVM not implemented yet."}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	_, err := client.ModelMetrics(context.Background(), "SVM")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T (%v)", err, err)
	}
}

func TestHealthProbe(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"message": "Welcome to Concrete Strength Prediction API"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	if err := client.Health(context.Background()); err != nil {
		t.Fatalf("Health returned error: %v", err)
	}
}

func TestBaseURLTrailingSlashTrimmed(t *testing.T) {
	t.Parallel()

	client := NewClient("http://localhost:8000/", nil)
	if client.BaseURL() != "http://localhost:8000" {
		t.Fatalf("unexpected base URL: %q", client.BaseURL())
	}
}

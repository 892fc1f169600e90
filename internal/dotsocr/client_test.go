package dotsocr

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MohmdFo/ocr-gateway/internal/models"
)

func writeTestImage(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test image: %v", err)
	}
	return path
}

func TestProcessImage(t *testing.T) {
	var gotPath, gotPartType, gotFilename, gotLanguage, gotConfidence, gotBoxes string
	var gotContent []byte

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		gotPath = r.URL.Path

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("Missing file part: %v", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer file.Close()

		gotFilename = header.Filename
		gotPartType = header.Header.Get("Content-Type")
		gotContent, _ = io.ReadAll(file)

		gotLanguage = r.FormValue("language")
		gotConfidence = r.FormValue("include_confidence")
		gotBoxes = r.FormValue("include_bounding_boxes")

		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"predictions":[{"text":"hello","confidence":0.95}]}`)); err != nil {
			t.Errorf("Failed to write response: %v", err)
		}
	}))
	defer ts.Close()

	// Trailing slash on the base URL must not produce a //ocr path
	client := NewClient(ts.URL+"/", 5*time.Second)
	imagePath := writeTestImage(t, "scan.png", "fake image bytes")

	payload, err := client.ProcessImage(context.Background(), imagePath, models.Options{
		Language:             "en",
		IncludeConfidence:    true,
		IncludeBoundingBoxes: true,
	})
	if err != nil {
		t.Fatalf("ProcessImage failed: %v", err)
	}

	if gotPath != "/ocr" {
		t.Errorf("Expected path /ocr, got %s", gotPath)
	}
	if gotPartType != "image/*" {
		t.Errorf("Expected image/* part content type, got %s", gotPartType)
	}
	if filepath.Ext(gotFilename) != ".png" {
		t.Errorf("Expected staged filename with .png extension, got %s", gotFilename)
	}
	if string(gotContent) != "fake image bytes" {
		t.Errorf("Image bytes mismatch: %q", string(gotContent))
	}
	if gotLanguage != "en" || gotConfidence != "true" || gotBoxes != "true" {
		t.Errorf("Unexpected form fields: language=%s confidence=%s boxes=%s", gotLanguage, gotConfidence, gotBoxes)
	}

	data, ok := payload.(map[string]any)
	if !ok {
		t.Fatalf("Expected decoded JSON object, got %T", payload)
	}
	if _, ok := data["predictions"]; !ok {
		t.Error("Expected predictions key in payload")
	}
}

func TestProcessImageBackendError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model exploded", http.StatusInternalServerError)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, 5*time.Second)
	imagePath := writeTestImage(t, "scan.png", "x")

	_, err := client.ProcessImage(context.Background(), imagePath, models.DefaultOptions())
	if err == nil {
		t.Fatal("Expected error for 500 response")
	}

	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("Expected *BackendError, got %T: %v", err, err)
	}
	if backendErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", backendErr.StatusCode)
	}
	if !strings.Contains(backendErr.Body, "model exploded") {
		t.Errorf("Expected raw body preserved, got %q", backendErr.Body)
	}
	if backendErr.Err != nil {
		t.Errorf("Expected nil decode error for status failure, got %v", backendErr.Err)
	}
	if !strings.Contains(err.Error(), "status 500") {
		t.Errorf("Expected status in message, got %q", err.Error())
	}
}

func TestProcessImageInvalidJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("<html>not json</html>")); err != nil {
			t.Errorf("Failed to write response: %v", err)
		}
	}))
	defer ts.Close()

	client := NewClient(ts.URL, 5*time.Second)
	imagePath := writeTestImage(t, "scan.png", "x")

	_, err := client.ProcessImage(context.Background(), imagePath, models.DefaultOptions())
	if err == nil {
		t.Fatal("Expected error for invalid JSON response")
	}

	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("Expected *BackendError, got %T: %v", err, err)
	}
	if backendErr.Err == nil {
		t.Error("Expected decode error to be set")
	}
	if !strings.Contains(backendErr.Body, "not json") {
		t.Errorf("Expected raw body preserved, got %q", backendErr.Body)
	}
	if !strings.Contains(err.Error(), "invalid JSON") {
		t.Errorf("Expected invalid JSON message, got %q", err.Error())
	}
}

func TestProcessImageUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close()

	client := NewClient(ts.URL, 1*time.Second)
	imagePath := writeTestImage(t, "scan.png", "x")

	_, err := client.ProcessImage(context.Background(), imagePath, models.DefaultOptions())
	if err == nil {
		t.Fatal("Expected error for unreachable service")
	}

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("Expected *TransportError, got %T: %v", err, err)
	}
}

func TestProcessImageTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, 50*time.Millisecond)
	imagePath := writeTestImage(t, "scan.png", "x")

	_, err := client.ProcessImage(context.Background(), imagePath, models.DefaultOptions())
	if err == nil {
		t.Fatal("Expected timeout error")
	}

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("Expected *TransportError, got %T: %v", err, err)
	}
}

func TestProcessImageMissingStagedFile(t *testing.T) {
	client := NewClient("http://localhost:1", 1*time.Second)

	_, err := client.ProcessImage(context.Background(), "/nonexistent/scan.png", models.DefaultOptions())
	if err == nil {
		t.Fatal("Expected error for missing staged file")
	}

	var transportErr *TransportError
	var backendErr *BackendError
	if errors.As(err, &transportErr) || errors.As(err, &backendErr) {
		t.Errorf("Expected plain error for local I/O failure, got %T", err)
	}
}

func TestCheckHealth(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		want       string
	}{
		{name: "healthy", statusCode: http.StatusOK, want: StatusHealthy},
		{name: "unhealthy", statusCode: http.StatusServiceUnavailable, want: StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath string
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				w.WriteHeader(tt.statusCode)
			}))
			defer ts.Close()

			health := NewClient(ts.URL, time.Second).CheckHealth(context.Background())
			if health.Status != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, health.Status)
			}
			if gotPath != "/health" {
				t.Errorf("Expected /health probe, got %s", gotPath)
			}
			if health.Message == "" {
				t.Error("Expected a health message")
			}
		})
	}
}

func TestCheckHealthUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close()

	health := NewClient(ts.URL, time.Second).CheckHealth(context.Background())
	if health.Status != StatusUnreachable {
		t.Errorf("Expected unreachable, got %s", health.Status)
	}
	if !strings.Contains(health.Message, "Cannot reach dots.ocr service") {
		t.Errorf("Unexpected message: %s", health.Message)
	}
}

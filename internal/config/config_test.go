package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Port != "8000" {
		t.Errorf("Expected port 8000, got %s", cfg.Port)
	}
	if cfg.DotsOCRURL != "http://localhost:8501" {
		t.Errorf("Expected default dots.ocr URL, got %s", cfg.DotsOCRURL)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("Expected 30s timeout, got %v", cfg.RequestTimeout)
	}
	if cfg.MaxUploadSize != 10<<20 {
		t.Errorf("Expected 10MB max upload size, got %d", cfg.MaxUploadSize)
	}
	if cfg.UploadDir != "/tmp/uploads" {
		t.Errorf("Expected /tmp/uploads, got %s", cfg.UploadDir)
	}
	if len(cfg.AllowedTypes) != 7 {
		t.Errorf("Expected 7 allowed types, got %d", len(cfg.AllowedTypes))
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlData := `port: "9000"
dots_ocr_url: http://dots-ocr:9500
request_timeout: 45s
max_upload_size: 5242880
upload_dir: /var/lib/ocr/uploads
allowed_types:
  - image/png
  - image/jpeg
`
	if err := os.WriteFile(configPath, []byte(yamlData), 0644); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("Expected port 9000, got %s", cfg.Port)
	}
	if cfg.DotsOCRURL != "http://dots-ocr:9500" {
		t.Errorf("Expected file URL, got %s", cfg.DotsOCRURL)
	}
	if cfg.RequestTimeout != 45*time.Second {
		t.Errorf("Expected 45s timeout, got %v", cfg.RequestTimeout)
	}
	if cfg.MaxUploadSize != 5242880 {
		t.Errorf("Expected 5MB max upload size, got %d", cfg.MaxUploadSize)
	}
	if cfg.UploadDir != "/var/lib/ocr/uploads" {
		t.Errorf("Expected file upload dir, got %s", cfg.UploadDir)
	}
	if len(cfg.AllowedTypes) != 2 {
		t.Errorf("Expected 2 allowed types, got %d", len(cfg.AllowedTypes))
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("port: \"3000\"\n"), 0644); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "3000" {
		t.Errorf("Expected port 3000, got %s", cfg.Port)
	}
	if cfg.DotsOCRURL != "http://localhost:8501" {
		t.Errorf("Expected default dots.ocr URL, got %s", cfg.DotsOCRURL)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("Expected default timeout, got %v", cfg.RequestTimeout)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("dots_ocr_url: http://from-file:8501\n"), 0644); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}

	t.Setenv("DOTS_OCR_URL", "http://from-env:8501")
	t.Setenv("OCR_REQUEST_TIMEOUT", "10s")
	t.Setenv("OCR_MAX_UPLOAD_SIZE", "1048576")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.DotsOCRURL != "http://from-env:8501" {
		t.Errorf("Expected env URL to win, got %s", cfg.DotsOCRURL)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("Expected 10s timeout from env, got %v", cfg.RequestTimeout)
	}
	if cfg.MaxUploadSize != 1048576 {
		t.Errorf("Expected 1MB max upload size from env, got %d", cfg.MaxUploadSize)
	}
}

func TestLoadAllowedTypesFromEnv(t *testing.T) {
	t.Setenv("OCR_ALLOWED_TYPES", "image/png, image/jpeg ,")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.AllowedTypes) != 2 {
		t.Fatalf("Expected 2 allowed types, got %d", len(cfg.AllowedTypes))
	}
	if cfg.AllowedTypes[0] != "image/png" || cfg.AllowedTypes[1] != "image/jpeg" {
		t.Errorf("Unexpected allowed types: %v", cfg.AllowedTypes)
	}
}

func TestLoadTrimsTrailingSlash(t *testing.T) {
	t.Setenv("DOTS_OCR_URL", "http://dots-ocr:8501/")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.DotsOCRURL != "http://dots-ocr:8501" {
		t.Errorf("Expected trailing slash trimmed, got %s", cfg.DotsOCRURL)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("port: [unclosed\n"), 0644); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("request_timeout: thirty\n"), 0644); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("Expected error for invalid duration")
	}
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for every tunable. Environment variables and an optional YAML
// file override these, env winning over file.
const (
	DefaultPort           = "8000"
	DefaultDotsOCRURL     = "http://localhost:8501"
	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxUploadSize  = 10 << 20 // 10MB
	DefaultUploadDir      = "/tmp/uploads"
)

// DefaultAllowedTypes is the stock allow-set of image MIME types the
// gateway accepts.
var DefaultAllowedTypes = []string{
	"image/jpeg",
	"image/jpg",
	"image/png",
	"image/gif",
	"image/bmp",
	"image/tiff",
	"image/webp",
}

// Config carries everything the gateway needs at runtime.
type Config struct {
	Port           string
	DotsOCRURL     string
	RequestTimeout time.Duration
	MaxUploadSize  int64
	UploadDir      string
	AllowedTypes   []string
}

// fileConfig is the YAML schema. Durations are Go duration strings
// (e.g. "30s"), sizes are bytes.
type fileConfig struct {
	Port           string   `yaml:"port"`
	DotsOCRURL     string   `yaml:"dots_ocr_url"`
	RequestTimeout string   `yaml:"request_timeout"`
	MaxUploadSize  int64    `yaml:"max_upload_size"`
	UploadDir      string   `yaml:"upload_dir"`
	AllowedTypes   []string `yaml:"allowed_types"`
}

// Default returns a fully populated config with stock values.
func Default() *Config {
	return &Config{
		Port:           DefaultPort,
		DotsOCRURL:     DefaultDotsOCRURL,
		RequestTimeout: DefaultRequestTimeout,
		MaxUploadSize:  DefaultMaxUploadSize,
		UploadDir:      DefaultUploadDir,
		AllowedTypes:   append([]string(nil), DefaultAllowedTypes...),
	}
}

// Load builds the runtime config: defaults, then the YAML file at path
// (if path is non-empty), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	cfg.DotsOCRURL = strings.TrimRight(cfg.DotsOCRURL, "/")

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.Port != "" {
		c.Port = fc.Port
	}
	if fc.DotsOCRURL != "" {
		c.DotsOCRURL = fc.DotsOCRURL
	}
	if fc.RequestTimeout != "" {
		d, err := time.ParseDuration(fc.RequestTimeout)
		if err != nil {
			return fmt.Errorf("parse request_timeout %q: %w", fc.RequestTimeout, err)
		}
		c.RequestTimeout = d
	}
	if fc.MaxUploadSize > 0 {
		c.MaxUploadSize = fc.MaxUploadSize
	}
	if fc.UploadDir != "" {
		c.UploadDir = fc.UploadDir
	}
	if len(fc.AllowedTypes) > 0 {
		c.AllowedTypes = fc.AllowedTypes
	}

	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.DotsOCRURL = getEnv("DOTS_OCR_URL", c.DotsOCRURL)
	c.RequestTimeout = getEnvAsDuration("OCR_REQUEST_TIMEOUT", c.RequestTimeout)
	c.MaxUploadSize = getEnvAsInt64("OCR_MAX_UPLOAD_SIZE", c.MaxUploadSize)
	c.UploadDir = getEnv("OCR_UPLOAD_DIR", c.UploadDir)

	if v := os.Getenv("OCR_ALLOWED_TYPES"); v != "" {
		var types []string
		for _, t := range strings.Split(v, ",") {
			t = strings.TrimSpace(t)
			if t != "" {
				types = append(types, t)
			}
		}
		if len(types) > 0 {
			c.AllowedTypes = types
		}
	}
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getEnvAsInt64(key string, fallback int64) int64 {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

// Package dotsocr is the HTTP client for the dots.ocr inference service.
// The service is opaque to the gateway: requests go out as multipart
// uploads and whatever JSON comes back is handed to the normalizer as-is.
package dotsocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/MohmdFo/ocr-gateway/internal/models"
)

// Backend probe states reported by Health.
const (
	StatusHealthy     = "healthy"
	StatusUnhealthy   = "unhealthy"
	StatusUnreachable = "unreachable"
)

// TransportError means the dots.ocr service could not be reached at all:
// connection refused, DNS failure, timeout, or a canceled request.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("failed to connect to dots.ocr service: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// BackendError means the dots.ocr service answered, but with a non-OK
// status or with a 200 body that is not valid JSON. Body holds the raw
// response body; Err is non-nil only for the invalid-JSON case.
type BackendError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *BackendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dots.ocr service returned invalid JSON: %v", e.Err)
	}
	return fmt.Sprintf("dots.ocr service returned status %d", e.StatusCode)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Health is the result of probing the service's health endpoint.
type Health struct {
	Status  string
	Message string
}

// Client talks to a single dots.ocr service. One HTTP client is shared
// across requests so connections get reused.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client for the service at baseURL. The timeout
// bounds every request including the health probe.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL returns the configured service URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// ProcessImage sends the staged image to the service's /ocr endpoint and
// returns the decoded JSON payload without interpreting it. Failures are
// reported as *TransportError or *BackendError so callers can tell an
// unreachable service from a misbehaving one.
func (c *Client) ProcessImage(ctx context.Context, imagePath string, opts models.Options) (any, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return nil, fmt.Errorf("open staged image: %w", err)
	}
	defer f.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	// The service only cares that the part is an image, so the part
	// advertises image/* rather than a sniffed subtype.
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filepath.Base(imagePath))))
	header.Set("Content-Type", "image/*")

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("create multipart file part: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("copy staged image into request: %w", err)
	}

	fields := map[string]string{
		"language":               opts.Language,
		"include_confidence":     strconv.FormatBool(opts.IncludeConfidence),
		"include_bounding_boxes": strconv.FormatBool(opts.IncludeBoundingBoxes),
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("write multipart field %s: %w", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize multipart request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ocr", body)
	if err != nil {
		return nil, fmt.Errorf("create OCR request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &BackendError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &BackendError{StatusCode: resp.StatusCode, Body: string(raw), Err: err}
	}

	return payload, nil
}

// CheckHealth probes the service's /health endpoint. It never returns an
// error; unreachable and unhealthy are ordinary states for an opaque
// backend.
func (c *Client) CheckHealth(ctx context.Context) Health {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return Health{Status: StatusUnreachable, Message: "Cannot reach dots.ocr service: " + err.Error()}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("Health check failed", "error", err)
		return Health{Status: StatusUnreachable, Message: "Cannot reach dots.ocr service: " + err.Error()}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusOK {
		return Health{Status: StatusHealthy, Message: "dots.ocr service is running"}
	}
	return Health{Status: StatusUnhealthy, Message: fmt.Sprintf("Service returned status %d", resp.StatusCode)}
}

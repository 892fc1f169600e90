// Package ocr runs the gateway's processing pipeline: send a staged
// image to the dots.ocr backend, normalize whatever comes back, and
// assemble the stable result contract.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MohmdFo/ocr-gateway/internal/dotsocr"
	"github.com/MohmdFo/ocr-gateway/internal/models"
)

// Service handles OCR processing against a dots.ocr backend.
type Service struct {
	client *dotsocr.Client
}

// NewService creates a new OCR service on top of the given client.
func NewService(client *dotsocr.Client) *Service {
	return &Service{client: client}
}

// ProcessImage runs the full pipeline for one staged image. It always
// returns a result: pipeline failures from the backend call onward are
// reported inside the result with Success false, never as an error. The
// filename in the result is the caller's original filename, not the
// staged name.
func (s *Service) ProcessImage(ctx context.Context, imagePath, filename string, opts models.Options) models.OCRResponse {
	start := time.Now()
	slog.Info("Sending OCR request to dots.ocr service", "filename", filename)

	payload, err := s.client.ProcessImage(ctx, imagePath, opts)
	elapsed := float64(time.Since(start)) / float64(time.Millisecond)
	if err != nil {
		return s.failureResult(err, filename, elapsed)
	}

	detected := parsePredictions(payload, opts.IncludeBoundingBoxes)
	slog.Info("OCR processing completed", "filename", filename, "blocks", len(detected), "elapsed_ms", elapsed)

	return Assemble(filename, detected, elapsed, map[string]any{
		"language":          opts.Language,
		"text_blocks_count": len(detected),
		"dots_ocr_response": payload,
	}, true, "OCR processing completed successfully")
}

// CheckHealth probes the backing dots.ocr service.
func (s *Service) CheckHealth(ctx context.Context) dotsocr.Health {
	return s.client.CheckHealth(ctx)
}

// failureResult turns a backend call error into a structured result. The
// message distinguishes an unreachable service from one that answered
// badly, and the raw backend response is kept in the metadata for
// debugging.
func (s *Service) failureResult(err error, filename string, elapsed float64) models.OCRResponse {
	var backendErr *dotsocr.BackendError
	var transportErr *dotsocr.TransportError

	switch {
	case errors.As(err, &backendErr):
		message := fmt.Sprintf("dots.ocr service returned status %d", backendErr.StatusCode)
		if backendErr.Err != nil {
			message = fmt.Sprintf("dots.ocr service returned invalid JSON: %v", backendErr.Err)
		}
		slog.Error("dots.ocr service request failed", "filename", filename, "status", backendErr.StatusCode, "error", err)
		return Failure(filename, message, elapsed, map[string]any{"error": backendErr.Body})

	case errors.As(err, &transportErr):
		slog.Error("Failed to connect to dots.ocr service", "filename", filename, "error", transportErr.Err)
		return Failure(filename, fmt.Sprintf("Failed to connect to dots.ocr service: %v", transportErr.Err),
			elapsed, map[string]any{"error": transportErr.Err.Error()})

	default:
		slog.Error("Unexpected error during OCR processing", "filename", filename, "error", err)
		return Failure(filename, fmt.Sprintf("Unexpected error during OCR processing: %v", err),
			elapsed, map[string]any{"error": err.Error()})
	}
}

// Assemble builds the externally visible result. The full text is always
// the space-joined text of the entries in backend order, and the entry
// list is never null in the encoded response.
func Assemble(filename string, detected []models.DetectedText, elapsedMs float64, metadata map[string]any, success bool, message string) models.OCRResponse {
	if detected == nil {
		detected = []models.DetectedText{}
	}
	if metadata == nil {
		metadata = map[string]any{}
	}

	texts := make([]string, 0, len(detected))
	for _, d := range detected {
		texts = append(texts, d.Text)
	}

	return models.OCRResponse{
		Success:          success,
		Message:          message,
		Filename:         filename,
		DetectedText:     detected,
		FullText:         strings.Join(texts, " "),
		Metadata:         metadata,
		ProcessingTimeMs: elapsedMs,
	}
}

// Failure assembles a failed result: no detected text, no full text,
// with the failure detail under the metadata error key.
func Failure(filename, message string, elapsedMs float64, metadata map[string]any) models.OCRResponse {
	return Assemble(filename, nil, elapsedMs, metadata, false, message)
}

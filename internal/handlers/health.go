package handlers

import (
	"net/http"
	"time"

	"github.com/MohmdFo/ocr-gateway/internal/dotsocr"
	"github.com/MohmdFo/ocr-gateway/internal/models"
)

// supportedLanguages is advisory; the language hint is forwarded to the
// backend as-is.
var supportedLanguages = []string{
	"auto", "en", "es", "fr", "de", "it", "pt", "ru", "zh", "ja", "ko",
}

// HandleOCRHealth reports the pipeline's health, including the backing
// dots.ocr service. The gateway is degraded, not down, when the backend
// is unreachable.
func (h *Handler) HandleOCRHealth(w http.ResponseWriter, r *http.Request) {
	backend := h.service.CheckHealth(r.Context())

	status := "degraded"
	if backend.Status == dotsocr.StatusHealthy {
		status = "healthy"
	}

	h.writeJSON(w, models.HealthResponse{
		Status:        status,
		Timestamp:     time.Now().Format(time.RFC3339),
		Version:       h.version,
		DotsOCRStatus: backend.Status,
	})
}

// HandleSupportedFormats lists the accepted image types and limits.
func (h *Handler) HandleSupportedFormats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]any{
		"supported_formats":   h.validator.AllowedTypes(),
		"max_file_size_mb":    h.cfg.MaxUploadSize / (1024 * 1024),
		"max_file_size_bytes": h.cfg.MaxUploadSize,
		"supported_languages": supportedLanguages,
	})
}

// HandleStats reports service status and the endpoint map.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	backend := h.service.CheckHealth(r.Context())

	h.writeJSON(w, map[string]any{
		"service_status":  "operational",
		"dots_ocr_status": backend.Status,
		"timestamp":       time.Now().Format(time.RFC3339),
		"version":         h.version,
		"endpoints": map[string]string{
			"health":            "/v1/ocr/health",
			"upload":            "/v1/ocr/upload",
			"process":           "/v1/ocr/process",
			"supported_formats": "/v1/ocr/supported-formats",
			"stats":             "/v1/ocr/stats",
		},
	})
}

// HandleHealth is the liveness check for the gateway itself. It answers
// without touching the backend.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "ocr-gateway",
		"version":   h.version,
	})
}

// HandleWelcome greets callers hitting the root path.
func (h *Handler) HandleWelcome(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]any{
		"message": "Welcome to the OCR gateway!",
		"status":  "healthy",
		"version": h.version,
	})
}

// HandleVersion reports the gateway version.
func (h *Handler) HandleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]any{
		"version": h.version,
	})
}

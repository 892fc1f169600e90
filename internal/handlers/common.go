package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/MohmdFo/ocr-gateway/internal/config"
	"github.com/MohmdFo/ocr-gateway/internal/models"
	"github.com/MohmdFo/ocr-gateway/internal/ocr"
	"github.com/MohmdFo/ocr-gateway/internal/upload"
)

// Handler holds the wired components every endpoint needs.
type Handler struct {
	cfg       *config.Config
	service   *ocr.Service
	validator *upload.Validator
	store     *upload.Store
	version   string
}

// New builds a handler from the runtime config and the OCR service.
func New(cfg *config.Config, service *ocr.Service, version string) *Handler {
	return &Handler{
		cfg:       cfg,
		service:   service,
		validator: upload.NewValidator(cfg.MaxUploadSize, cfg.AllowedTypes),
		store:     upload.NewStore(cfg.UploadDir),
		version:   version,
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, errType, message string) {
	slog.Error(message, "status", status)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(models.ErrorResponse{Error: errType, Message: message}); err != nil {
		slog.Error("Unable to encode error response", "err", err)
	}
}

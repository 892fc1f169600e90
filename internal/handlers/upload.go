package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/MohmdFo/ocr-gateway/internal/models"
	"github.com/MohmdFo/ocr-gateway/internal/ocr"
	"github.com/MohmdFo/ocr-gateway/internal/upload"
)

// HandleUpload accepts a multipart image upload with the processing
// options as individual form fields.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	opts := models.DefaultOptions()
	if v := r.FormValue("language"); v != "" {
		opts.Language = v
	}
	opts.IncludeConfidence = formBool(r, "include_confidence", opts.IncludeConfidence)
	opts.IncludeBoundingBoxes = formBool(r, "include_bounding_boxes", opts.IncludeBoundingBoxes)

	h.processUpload(w, r, opts)
}

// HandleProcess accepts the same upload with the options pre-encoded as
// a single JSON form field. Unknown keys are ignored; missing keys keep
// their defaults. Malformed JSON is rejected before the file is touched.
func (h *Handler) HandleProcess(w http.ResponseWriter, r *http.Request) {
	opts := models.DefaultOptions()
	if raw := r.FormValue("options"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &opts); err != nil {
			h.writeError(w, http.StatusBadRequest, "malformed_options",
				"Invalid JSON in options parameter: "+err.Error())
			return
		}
	}

	h.processUpload(w, r, opts)
}

// processUpload runs one upload through admission, staging, and the OCR
// pipeline. Admission failures are HTTP errors; anything after admission
// answers 200 with a structured result so callers always get the same
// contract back. The staged file is released after the response is
// written, whether the pipeline succeeded or not.
func (h *Handler) processUpload(w http.ResponseWriter, r *http.Request, opts models.Options) {
	start := time.Now()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "missing_file", "Failed to read file: "+err.Error())
		return
	}
	defer file.Close()

	desc := upload.Descriptor{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	}
	if err := h.validator.Validate(desc); err != nil {
		h.writeAdmissionError(w, err)
		return
	}

	staged, err := h.store.Stage(desc, file)
	if err != nil {
		slog.Error("Failed to save uploaded file", "filename", header.Filename, "error", err)
		elapsed := float64(time.Since(start)) / float64(time.Millisecond)
		h.writeJSON(w, ocr.Failure(header.Filename, "Failed to save uploaded file: "+err.Error(),
			elapsed, map[string]any{"error": err.Error()}))
		return
	}
	defer h.store.Release(staged)

	result := h.service.ProcessImage(r.Context(), staged.Path, header.Filename, opts)
	h.writeJSON(w, result)
}

// writeAdmissionError maps admission failures onto distinct statuses so
// clients can tell them apart without parsing the message.
func (h *Handler) writeAdmissionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, upload.ErrFileTooLarge):
		h.writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", err.Error())
	case errors.Is(err, upload.ErrUnsupportedType):
		h.writeError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", err.Error())
	case errors.Is(err, upload.ErrMissingFilename):
		h.writeError(w, http.StatusBadRequest, "missing_filename", err.Error())
	default:
		h.writeError(w, http.StatusBadRequest, "bad_request", err.Error())
	}
}

func formBool(r *http.Request, field string, fallback bool) bool {
	v := r.FormValue(field)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

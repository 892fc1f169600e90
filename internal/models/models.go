package models

// ConfidenceLevel buckets a numeric OCR confidence score into a coarse band.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

// BoundingBox locates a detected text block on the source image.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DetectedText is a single normalized text block from the OCR backend.
type DetectedText struct {
	Text            string          `json:"text"`
	Confidence      float64         `json:"confidence"`
	ConfidenceLevel ConfidenceLevel `json:"confidence_level"`
	BoundingBox     *BoundingBox    `json:"bounding_box,omitempty"`
}

// Options controls a single OCR request. They are forwarded to the
// dots.ocr backend as form fields.
type Options struct {
	Language             string `json:"language"`
	IncludeConfidence    bool   `json:"include_confidence"`
	IncludeBoundingBoxes bool   `json:"include_bounding_boxes"`
}

// DefaultOptions returns the options used when a caller supplies none.
func DefaultOptions() Options {
	return Options{
		Language:          "auto",
		IncludeConfidence: true,
	}
}

// OCRResponse is the stable result contract returned for every upload that
// makes it past admission, whether the pipeline succeeded or not.
type OCRResponse struct {
	Success          bool           `json:"success"`
	Message          string         `json:"message"`
	Filename         string         `json:"filename"`
	DetectedText     []DetectedText `json:"detected_text"`
	FullText         string         `json:"full_text"`
	Metadata         map[string]any `json:"metadata"`
	ProcessingTimeMs float64        `json:"processing_time_ms"`
}

// ErrorResponse is the body for requests rejected before the pipeline runs.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse reports gateway health including the backing OCR service.
type HealthResponse struct {
	Status        string `json:"status"`
	Timestamp     string `json:"timestamp"`
	Version       string `json:"version"`
	DotsOCRStatus string `json:"dots_ocr_status"`
}

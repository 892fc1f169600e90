package ocr

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/MohmdFo/ocr-gateway/internal/models"
)

// defaultConfidence is assumed when an entry carries no confidence or
// score field at all.
const defaultConfidence = 0.9

// Confidence band thresholds.
const (
	highConfidenceMin   = 0.8
	mediumConfidenceMin = 0.5
)

// parsePredictions normalizes whatever JSON the dots.ocr service sent
// into a flat list of detected text blocks. Backends disagree about the
// envelope, so the payload is matched against known shapes in priority
// order: a predictions field, then results, then text_blocks, then the
// payload itself as a single entry (or as the entry list when the top
// level is already an array). Normalization never fails outright; at
// worst it yields zero entries.
func parsePredictions(payload any, includeBoxes bool) []models.DetectedText {
	var entries []any

	switch data := payload.(type) {
	case map[string]any:
		raw, ok := data["predictions"]
		if !ok {
			raw, ok = data["results"]
		}
		if !ok {
			raw, ok = data["text_blocks"]
		}
		if ok {
			// A matched field that is not an array has no usable entries
			entries, _ = raw.([]any)
		} else {
			entries = []any{data}
		}
	case []any:
		entries = data
	}

	detected := make([]models.DetectedText, 0, len(entries))
	for _, item := range entries {
		entry, ok := item.(map[string]any)
		if !ok {
			slog.Warn("Failed to parse prediction", "error", "entry is not an object")
			continue
		}

		text := entryText(entry)
		if text == "" {
			continue
		}

		confidence, ok := entryConfidence(entry)
		if !ok {
			slog.Warn("Failed to parse prediction", "error", "confidence is not numeric")
			continue
		}
		if confidence < 0 {
			confidence = 0
		} else if confidence > 1 {
			confidence = 1
		}

		var box *models.BoundingBox
		if includeBoxes {
			box = entryBoundingBox(entry)
		}

		detected = append(detected, models.DetectedText{
			Text:            text,
			Confidence:      confidence,
			ConfidenceLevel: confidenceLevel(confidence),
			BoundingBox:     box,
		})
	}

	return detected
}

// confidenceLevel maps a clamped score onto the coarse band reported
// alongside it.
func confidenceLevel(confidence float64) models.ConfidenceLevel {
	switch {
	case confidence >= highConfidenceMin:
		return models.ConfidenceHigh
	case confidence >= mediumConfidenceMin:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

// entryText pulls the block's text from a text field, falling back to
// content. A present field only counts when it holds a string.
func entryText(entry map[string]any) string {
	if v, ok := entry["text"]; ok {
		s, _ := v.(string)
		return s
	}
	if v, ok := entry["content"]; ok {
		s, _ := v.(string)
		return s
	}
	return ""
}

// entryConfidence pulls the confidence score from a confidence field,
// falling back to score, then to the default. The second return is false
// when a present value cannot be read as a number.
func entryConfidence(entry map[string]any) (float64, bool) {
	raw, ok := entry["confidence"]
	if !ok {
		raw, ok = entry["score"]
	}
	if !ok {
		return defaultConfidence, true
	}
	return toFloat(raw)
}

// entryBoundingBox pulls the block's box from a bbox field, falling back
// to bounding_box. A malformed box is logged and dropped; the entry
// itself survives without one.
func entryBoundingBox(entry map[string]any) *models.BoundingBox {
	raw, ok := entry["bbox"]
	if !ok {
		raw, ok = entry["bounding_box"]
	}
	if !ok || raw == nil {
		return nil
	}

	fields, ok := raw.(map[string]any)
	if !ok {
		slog.Warn("Could not parse bounding box", "box", raw)
		return nil
	}
	if len(fields) == 0 {
		return nil
	}

	x, okX := boxField(fields, "x")
	y, okY := boxField(fields, "y")
	width, okW := boxField(fields, "width", "w")
	height, okH := boxField(fields, "height", "h")
	if !okX || !okY || !okW || !okH {
		slog.Warn("Could not parse bounding box", "box", fields)
		return nil
	}

	return &models.BoundingBox{X: x, Y: y, Width: width, Height: height}
}

// boxField reads the first present field among names, defaulting to 0
// when none exist. A present but non-numeric value fails the box.
func boxField(fields map[string]any, names ...string) (float64, bool) {
	for _, name := range names {
		if v, ok := fields[name]; ok {
			return toFloat(v)
		}
	}
	return 0, true
}

// toFloat accepts JSON numbers and numeric strings, which some backends
// emit for scores and box coordinates.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

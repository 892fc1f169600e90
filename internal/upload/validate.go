// Package upload admits and stages inbound image uploads. Admission is a
// pure check over the upload's declared attributes; staging copies the
// bytes to local disk so the OCR backend client can stream them out again.
package upload

import (
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

// Admission failures. Handlers map these to distinct HTTP statuses.
var (
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrMissingFilename = errors.New("no filename provided")
)

// Descriptor describes an inbound upload before any disk or network I/O
// happens. Size <= 0 means the size is not known yet.
type Descriptor struct {
	Filename    string
	ContentType string
	Size        int64
}

// Validator rejects uploads that should never reach the staging area or
// the OCR backend. It never reads the upload's bytes.
type Validator struct {
	maxSize int64
	allowed map[string]bool
	types   []string
}

// NewValidator builds a validator enforcing maxSize bytes and the given
// MIME allow-set.
func NewValidator(maxSize int64, allowedTypes []string) *Validator {
	allowed := make(map[string]bool, len(allowedTypes))
	types := make([]string, 0, len(allowedTypes))
	for _, t := range allowedTypes {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || allowed[t] {
			continue
		}
		allowed[t] = true
		types = append(types, t)
	}
	return &Validator{maxSize: maxSize, allowed: allowed, types: types}
}

// AllowedTypes returns the effective MIME allow-set.
func (v *Validator) AllowedTypes() []string {
	return append([]string(nil), v.types...)
}

// Validate checks size, then content type, then filename, and returns the
// first failure. A declared content type outside the allow-set is still
// accepted when the type guessed from the filename extension is allowed,
// which covers clients that send application/octet-stream for images.
func (v *Validator) Validate(d Descriptor) error {
	if d.Size > 0 && d.Size > v.maxSize {
		return fmt.Errorf("%w: maximum size is %dMB", ErrFileTooLarge, v.maxSize/(1024*1024))
	}

	if !v.allowed[normalizeType(d.ContentType)] {
		guessed := mime.TypeByExtension(strings.ToLower(filepath.Ext(d.Filename)))
		if !v.allowed[normalizeType(guessed)] {
			return fmt.Errorf("%w: supported types are %s", ErrUnsupportedType, strings.Join(v.types, ", "))
		}
	}

	if d.Filename == "" {
		return ErrMissingFilename
	}

	return nil
}

// normalizeType strips parameters like charset and lowercases the media
// type so lookups against the allow-set are exact.
func normalizeType(contentType string) string {
	if contentType == "" {
		return ""
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		return mediaType
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

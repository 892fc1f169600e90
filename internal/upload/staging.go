package upload

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	stagePrefix      = "ocr_upload_"
	defaultExtension = ".jpg"
)

// StagedFile is a request-scoped copy of an upload on local disk. It
// exists from a successful Stage until Release.
type StagedFile struct {
	Path string
}

// Store stages uploads under a scratch root and removes them afterwards.
type Store struct {
	root string
}

// NewStore returns a store writing under root.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Dir returns the scratch root.
func (s *Store) Dir() string {
	return s.root
}

// Stage copies the upload to a collision-free file under the scratch
// root. The staged name keeps only the lowercased extension of the
// original filename. Either the copy completes fully or nothing is left
// on disk.
func (s *Store) Stage(d Descriptor, r io.Reader) (*StagedFile, error) {
	if err := os.MkdirAll(s.root, 0755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(d.Filename))
	if ext == "" {
		ext = defaultExtension
	}
	path := filepath.Join(s.root, stagePrefix+uuid.NewString()+ext)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("create staged file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("write staged file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write staged file: %w", err)
	}

	slog.Info("File saved", "filename", d.Filename, "path", path)
	return &StagedFile{Path: path}, nil
}

// Release deletes the staged file. Releasing twice, or releasing a file
// something else already removed, is a no-op.
func (s *Store) Release(f *StagedFile) {
	if f == nil || f.Path == "" {
		return
	}

	err := os.Remove(f.Path)
	switch {
	case err == nil:
		slog.Debug("Cleaned up staged file", "path", f.Path)
	case errors.Is(err, fs.ErrNotExist):
		// already gone
	default:
		slog.Warn("Failed to clean up staged file", "path", f.Path, "error", err)
	}
}

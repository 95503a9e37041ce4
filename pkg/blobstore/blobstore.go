// Package blobstore keeps uploaded listing images behind opaque references.
package blobstore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"harvestiq/internal/apperrors"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// Store saves blobs as flat files on an afero filesystem.
type Store struct {
	fs afero.Fs
}

// New returns a Store backed by fs.
func New(fs afero.Fs) *Store {
	return &Store{fs: fs}
}

// NewOS returns a Store rooted at dir on the local disk, creating dir if needed.
func NewOS(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media directory %s: %w", dir, err)
	}
	return New(afero.NewBasePathFs(afero.NewOsFs(), dir)), nil
}

// Save writes r under a fresh reference that keeps filename's extension.
func (s *Store) Save(filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return "", apperrors.Validation("unsupported image type %q", ext)
	}
	ref := uuid.New().String() + ext
	if err := afero.WriteReader(s.fs, ref, r); err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}
	return ref, nil
}

// Open returns the blob stored under ref.
func (s *Store) Open(ref string) (afero.File, error) {
	if !validRef(ref) {
		return nil, apperrors.NotFound("image %q not found", ref)
	}
	f, err := s.fs.Open(ref)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NotFound("image %q not found", ref)
		}
		return nil, fmt.Errorf("failed to open image %s: %w", ref, err)
	}
	return f, nil
}

// Delete removes the blob stored under ref. Missing blobs are not an error.
func (s *Store) Delete(ref string) error {
	if !validRef(ref) {
		return nil
	}
	if err := s.fs.Remove(ref); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete image %s: %w", ref, err)
	}
	return nil
}

// validRef rejects anything that is not a bare file name.
func validRef(ref string) bool {
	return ref != "" && ref != "." && ref != ".." && !strings.ContainsAny(ref, `/\`)
}

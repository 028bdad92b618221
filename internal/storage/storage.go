// Package storage persists uploaded attachments on local disk.
// Stored paths are relative to the base directory so records stay valid
// if the directory is relocated.
package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/armansyah-dev/inventaris/internal/apperr"
)

// Constraints limit what Save accepts
type Constraints struct {
	MaxSize     int64 // bytes
	AllowedExts []string
}

// Store writes and removes attachment files under a base directory
type Store struct {
	baseDir string
}

// New creates a Store rooted at baseDir, creating it if needed
func New(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

// Save validates the upload against c and writes it under subdir with a
// generated filename. Returns the path relative to the base directory.
func (s *Store) Save(file multipart.File, header *multipart.FileHeader, subdir string, c Constraints) (string, error) {
	if header.Size > c.MaxSize {
		return "", &apperr.AttachmentRejected{
			Reason: fmt.Sprintf("file exceeds the %d KB limit", c.MaxSize/1024),
		}
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !extAllowed(ext, c.AllowedExts) {
		return "", &apperr.AttachmentRejected{
			Reason: fmt.Sprintf("file type %q is not allowed (expected one of %s)", ext, strings.Join(c.AllowedExts, ", ")),
		}
	}

	dir := filepath.Join(s.baseDir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}

	name := uuid.New().String() + ext
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return filepath.ToSlash(filepath.Join(subdir, name)), nil
}

// Remove deletes a previously stored file by its relative path.
// Removing a path that no longer exists is not an error.
func (s *Store) Remove(relPath string) error {
	clean := filepath.Clean(filepath.FromSlash(relPath))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return fmt.Errorf("invalid attachment path: %s", relPath)
	}

	err := os.Remove(filepath.Join(s.baseDir, clean))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func extAllowed(ext string, allowed []string) bool {
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}

package catalog

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/pixelvault/pixelvault-backend/pkg/config"
)

// FileUpload is an uploaded asset held in memory.
type FileUpload struct {
	Filename string
	Content  []byte
}

// Storage writes product assets to disk. Download files live outside the
// public tree; images live under it so the storefront can serve them.
type Storage struct {
	filesDir  string
	imagesDir string
}

// NewStorage builds the asset writer from configuration.
func NewStorage(cfg config.StorageConfig) (*Storage, error) {
	if cfg.FilesDir == "" {
		return nil, fmt.Errorf("files dir required")
	}
	if cfg.ImagesDir == "" {
		return nil, fmt.Errorf("images dir required")
	}
	return &Storage{filesDir: cfg.FilesDir, imagesDir: cfg.ImagesDir}, nil
}

// SaveFile stores the downloadable asset and returns its path.
func (s *Storage) SaveFile(upload FileUpload) (string, error) {
	return writeAsset(s.filesDir, upload)
}

// SaveImage stores the product image and returns its path.
func (s *Storage) SaveImage(upload FileUpload) (string, error) {
	return writeAsset(s.imagesDir, upload)
}

// Remove deletes a stored asset. Missing files are not an error so a
// half-cleaned product can still be deleted.
func (s *Storage) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func writeAsset(dir string, upload FileUpload) (string, error) {
	if upload.Filename == "" {
		return "", fmt.Errorf("upload filename required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating asset dir: %w", err)
	}
	name := fmt.Sprintf("%s-%s", uuid.NewString(), filepath.Base(upload.Filename))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, upload.Content, 0o644); err != nil {
		return "", fmt.Errorf("writing asset: %w", err)
	}
	return path, nil
}

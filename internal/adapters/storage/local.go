// internal/adapters/storage/local.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/ammerola/stockroom/internal/core/domain"
	"github.com/ammerola/stockroom/internal/core/ports"
)

// LocalPhotoStorage keeps photos as plain files in a single directory. The
// reference handed back for a photo is its filesystem path.
type LocalPhotoStorage struct {
	dir    string
	logger *slog.Logger
}

// Statically assert that *LocalPhotoStorage implements the PhotoStorage interface.
var _ ports.PhotoStorage = (*LocalPhotoStorage)(nil)

// NewLocalPhotoStorage creates the upload directory if needed
func NewLocalPhotoStorage(dir string, logger *slog.Logger) (*LocalPhotoStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	return &LocalPhotoStorage{
		dir:    dir,
		logger: logger.With(slog.String("storage", "local")),
	}, nil
}

// Dir returns the upload directory
func (s *LocalPhotoStorage) Dir() string {
	return s.dir
}

// Save writes the photo under a generated name
func (s *LocalPhotoStorage) Save(ctx context.Context, filename, contentType string, data io.Reader) (string, error) {
	path := filepath.Join(s.dir, objectName(filename))

	dst, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("%w: create photo file: %v", domain.ErrStorageWrite, err)
	}

	written, err := io.Copy(dst, data)
	if err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("%w: write photo file: %v", domain.ErrStorageWrite, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("%w: close photo file: %v", domain.ErrStorageWrite, err)
	}

	s.logger.DebugContext(ctx, "photo stored",
		slog.String("path", path),
		slog.Int64("size", written))

	return path, nil
}

// Open opens a stored photo for reading
func (s *LocalPhotoStorage) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	f, err := os.Open(ref)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: photo file %s", domain.ErrNotFound, ref)
		}
		return nil, fmt.Errorf("failed to open photo: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat photo: %w", err)
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%w: photo file %s", domain.ErrNotFound, ref)
	}

	return f, nil
}

// Delete removes a stored photo. Removing a photo that is already gone is not an error.
func (s *LocalPhotoStorage) Delete(ctx context.Context, ref string) error {
	if err := os.Remove(ref); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete photo: %w", err)
	}

	s.logger.DebugContext(ctx, "photo deleted", slog.String("path", ref))
	return nil
}

// List returns every regular file in the upload directory
func (s *LocalPhotoStorage) List(ctx context.Context) ([]ports.StoredPhoto, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload directory: %w", err)
	}

	photos := make([]ports.StoredPhoto, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		photos = append(photos, ports.StoredPhoto{
			Ref:     filepath.Join(s.dir, entry.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return photos, nil
}

// objectName generates a collision-free name that keeps the original extension
func objectName(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if len(ext) > 10 || strings.ContainsAny(ext, `/\`) {
		ext = ""
	}
	return uuid.New().String() + ext
}

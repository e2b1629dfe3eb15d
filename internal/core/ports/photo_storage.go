// internal/core/ports/photo_storage.go
package ports

import (
	"context"
	"io"
	"time"
)

// PhotoStorage stores uploaded photo bytes and hands back an opaque reference
// that is persisted on the inventory item.
type PhotoStorage interface {
	Save(ctx context.Context, filename, contentType string, data io.Reader) (string, error)
	// Open returns domain.ErrNotFound when the referenced photo no longer exists.
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	Delete(ctx context.Context, ref string) error
	List(ctx context.Context) ([]StoredPhoto, error)
}

// Photo is an opened photo stream ready to be sent to a client
type Photo struct {
	Body        io.ReadCloser
	ContentType string
}

// StoredPhoto describes an object held by a PhotoStorage
type StoredPhoto struct {
	Ref     string
	Size    int64
	ModTime time.Time
}

// internal/core/ports/inventory_service.go
package ports

import (
	"context"

	"github.com/ammerola/stockroom/internal/core/domain"
)

// InventoryService defines the application service port for inventory.
// This interface is implemented by the application service.
type InventoryService interface {
	Register(ctx context.Context, input domain.RegisterInput) (*domain.InventoryItem, error)
	List(ctx context.Context) ([]domain.InventoryItem, error)
	Get(ctx context.Context, id string) (*domain.InventoryItem, error)
	OpenPhoto(ctx context.Context, id string) (*Photo, error)
	UpdatePhoto(ctx context.Context, id string, photo *domain.PhotoUpload) (*domain.InventoryItem, error)
	UpdateFields(ctx context.Context, id string, patch domain.InventoryPatch) (*domain.InventoryItem, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, id string, includePhoto bool) (*domain.SearchResult, error)
}

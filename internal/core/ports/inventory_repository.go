// internal/core/ports/inventory_repository.go
package ports

import (
	"context"

	"github.com/ammerola/stockroom/internal/core/domain"
)

// InventoryRepository defines the persistence port for inventory.
// This interface is implemented by the JSON file adapter.
type InventoryRepository interface {
	List(ctx context.Context) ([]domain.InventoryItem, error)
	FindByID(ctx context.Context, id string) (*domain.InventoryItem, error)
	Save(ctx context.Context, item *domain.InventoryItem) error
	// Update applies mutate to the stored item and persists the result
	// atomically. The returned item is a copy of the persisted state.
	Update(ctx context.Context, id string, mutate func(*domain.InventoryItem) error) (*domain.InventoryItem, error)
	Delete(ctx context.Context, id string) (*domain.InventoryItem, error)
	Count(ctx context.Context) (int, error)
}

// internal/adapters/jsonstore/inventory_repository.go
package jsonstore

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/ammerola/stockroom/internal/core/domain"
	"github.com/ammerola/stockroom/internal/core/ports"
)

// InventoryRepository keeps the inventory in memory and mirrors every
// mutation to a single pretty-printed JSON file.
type InventoryRepository struct {
	path   string
	logger *slog.Logger

	mu    sync.RWMutex
	items []domain.InventoryItem
	// digest of the file content last read or written by this process
	digest [sha256.Size]byte
}

// Statically assert that *InventoryRepository implements the InventoryRepository interface.
var _ ports.InventoryRepository = (*InventoryRepository)(nil)

// NewInventoryRepository creates a repository backed by path and loads its
// current content.
func NewInventoryRepository(ctx context.Context, path string, logger *slog.Logger) *InventoryRepository {
	r := &InventoryRepository{
		path:   path,
		logger: logger.With(slog.String("repository", "inventory"), slog.String("file", path)),
		items:  []domain.InventoryItem{},
	}
	r.Load(ctx)
	return r
}

// Path returns the inventory file location
func (r *InventoryRepository) Path() string {
	return r.path
}

// Load replaces the in-memory inventory with the file content. A missing
// file yields an empty inventory; unreadable or malformed content is logged
// and also yields an empty inventory.
func (r *InventoryRepository) Load(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, digest, err := r.read()
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to read inventory file, starting empty",
			slog.String("error", err.Error()))
		r.items = []domain.InventoryItem{}
		return
	}

	r.items = items
	r.digest = digest
	r.logger.InfoContext(ctx, "inventory loaded", slog.Int("count", len(items)))
}

// Reload re-reads the file when its content differs from what this process
// last saw. It reports whether the in-memory inventory changed.
func (r *InventoryRepository) Reload(ctx context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, digest, err := r.read()
	if err != nil {
		return false, fmt.Errorf("failed to reload inventory: %w", err)
	}
	if digest == r.digest {
		return false, nil
	}

	r.items = items
	r.digest = digest
	r.logger.InfoContext(ctx, "inventory reloaded from disk", slog.Int("count", len(items)))
	return true, nil
}

// List returns a copy of all items in insertion order
func (r *InventoryRepository) List(ctx context.Context) ([]domain.InventoryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.InventoryItem, len(r.items))
	for i := range r.items {
		out[i] = r.items[i].Clone()
	}
	return out, nil
}

// FindByID returns a copy of the item with an exactly matching id
func (r *InventoryRepository) FindByID(ctx context.Context, id string) (*domain.InventoryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	item := r.items[idx].Clone()
	return &item, nil
}

// Save appends a new item and persists the inventory
func (r *InventoryRepository) Save(ctx context.Context, item *domain.InventoryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.snapshot()
	next = append(next, item.Clone())

	if err := r.commit(next); err != nil {
		return err
	}

	r.logger.DebugContext(ctx, "inventory item saved", slog.String("id", item.ID))
	return nil
}

// Update applies mutate to a copy of the stored item and persists the
// result. Nothing changes in memory unless the write succeeds.
func (r *InventoryRepository) Update(ctx context.Context, id string, mutate func(*domain.InventoryItem) error) (*domain.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}

	next := r.snapshot()
	if err := mutate(&next[idx]); err != nil {
		return nil, err
	}
	next[idx].ID = id

	if err := r.commit(next); err != nil {
		return nil, err
	}

	r.logger.DebugContext(ctx, "inventory item updated", slog.String("id", id))
	updated := next[idx].Clone()
	return &updated, nil
}

// Delete removes an item, persists the inventory and returns the removed item
func (r *InventoryRepository) Delete(ctx context.Context, id string) (*domain.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}

	removed := r.items[idx].Clone()
	next := make([]domain.InventoryItem, 0, len(r.items)-1)
	next = append(next, r.items[:idx]...)
	next = append(next, r.items[idx+1:]...)

	if err := r.commit(next); err != nil {
		return nil, err
	}

	r.logger.DebugContext(ctx, "inventory item deleted", slog.String("id", id))
	return &removed, nil
}

// Count returns the number of items
func (r *InventoryRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items), nil
}

// Helper methods. Callers hold r.mu.

func (r *InventoryRepository) indexOf(id string) int {
	for i := range r.items {
		if r.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *InventoryRepository) snapshot() []domain.InventoryItem {
	next := make([]domain.InventoryItem, len(r.items), len(r.items)+1)
	for i := range r.items {
		next[i] = r.items[i].Clone()
	}
	return next
}

// commit persists next and, only on success, makes it the current inventory
func (r *InventoryRepository) commit(next []domain.InventoryItem) error {
	digest, err := r.persist(next)
	if err != nil {
		return err
	}
	r.items = next
	r.digest = digest
	return nil
}

// persist serializes the full list and replaces the inventory file
func (r *InventoryRepository) persist(items []domain.InventoryItem) ([sha256.Size]byte, error) {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return [sha256.Size]byte{}, fmt.Errorf("%w: marshal inventory: %v", domain.ErrStorageWrite, err)
	}

	if err := writeFileAtomic(r.path, data); err != nil {
		r.logger.Error("failed to write inventory file", slog.String("error", err.Error()))
		return [sha256.Size]byte{}, fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
	}

	return sha256.Sum256(data), nil
}

func (r *InventoryRepository) read() ([]domain.InventoryItem, [sha256.Size]byte, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.InventoryItem{}, [sha256.Size]byte{}, nil
		}
		return nil, [sha256.Size]byte{}, err
	}

	var items []domain.InventoryItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, [sha256.Size]byte{}, fmt.Errorf("parse %s: %w", r.path, err)
	}
	if items == nil {
		items = []domain.InventoryItem{}
	}

	return items, sha256.Sum256(data), nil
}

// writeFileAtomic writes data to a temp file next to path and renames it into
// place so readers never observe a partially written inventory.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace inventory file: %w", err)
	}
	return nil
}

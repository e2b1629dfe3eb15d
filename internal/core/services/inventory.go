// internal/core/services/inventory.go
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ammerola/stockroom/internal/core/domain"
	"github.com/ammerola/stockroom/internal/core/ports"
	"github.com/ammerola/stockroom/internal/pkg/metrics"
)

// DefaultPhotoContentType is served when a stored photo cannot be sniffed as an image
const DefaultPhotoContentType = "image/jpeg"

const sniffLen = 512

// InventoryService handles inventory business logic
type InventoryService struct {
	repo    ports.InventoryRepository
	photos  ports.PhotoStorage
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Statically assert that *InventoryService implements the InventoryService interface.
var _ ports.InventoryService = (*InventoryService)(nil)

// NewInventoryService creates a new inventory service. m may be nil.
func NewInventoryService(repo ports.InventoryRepository, photos ports.PhotoStorage, m *metrics.Metrics, logger *slog.Logger) *InventoryService {
	return &InventoryService{
		repo:    repo,
		photos:  photos,
		metrics: m,
		logger:  logger.With(slog.String("service", "inventory")),
	}
}

// Register stores the optional photo and appends a new item
func (s *InventoryService) Register(ctx context.Context, input domain.RegisterInput) (*domain.InventoryItem, error) {
	if input.InventoryName == "" {
		return nil, fmt.Errorf("%w: inventory_name", domain.ErrMissingRequiredField)
	}

	item := domain.NewInventoryItem(input.InventoryName, input.Description)

	if input.Photo != nil {
		ref, err := s.storePhoto(ctx, input.Photo)
		if err != nil {
			return nil, err
		}
		item.Photo = &ref
	}

	if err := s.repo.Save(ctx, item); err != nil {
		if item.Photo != nil {
			s.discardPhoto(ctx, *item.Photo, "register_rollback")
		}
		return nil, fmt.Errorf("failed to save item: %w", err)
	}

	s.refreshCount(ctx)
	s.logger.InfoContext(ctx, "registered inventory item",
		slog.String("item_id", item.ID),
		slog.String("inventory_name", item.InventoryName),
		slog.Bool("has_photo", item.HasPhoto()))

	return item, nil
}

// List returns every item in insertion order
func (s *InventoryService) List(ctx context.Context) ([]domain.InventoryItem, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

// Get retrieves an inventory item by ID
func (s *InventoryService) Get(ctx context.Context, id string) (*domain.InventoryItem, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory item: %w", err)
	}
	return item, nil
}

// OpenPhoto opens the item's stored photo and determines its content type
func (s *InventoryService) OpenPhoto(ctx context.Context, id string) (*ports.Photo, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !item.HasPhoto() {
		return nil, fmt.Errorf("%w: item %s has no photo", domain.ErrNotFound, id)
	}

	body, err := s.photos.Open(ctx, *item.Photo)
	if err != nil {
		return nil, fmt.Errorf("failed to open photo: %w", err)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		body.Close()
		return nil, fmt.Errorf("failed to read photo: %w", err)
	}
	head = head[:n]

	return &ports.Photo{
		Body: readCloser{
			Reader: io.MultiReader(bytes.NewReader(head), body),
			Closer: body,
		},
		ContentType: sniffImageType(head),
	}, nil
}

// UpdatePhoto replaces the item's photo. The previous photo is removed only
// after the new reference has been persisted.
func (s *InventoryService) UpdatePhoto(ctx context.Context, id string, photo *domain.PhotoUpload) (*domain.InventoryItem, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if photo == nil {
		return nil, fmt.Errorf("%w: photo", domain.ErrMissingRequiredField)
	}

	ref, err := s.storePhoto(ctx, photo)
	if err != nil {
		return nil, err
	}

	var previous *string
	updated, err := s.repo.Update(ctx, id, func(item *domain.InventoryItem) error {
		previous = item.Photo
		item.Photo = &ref
		return nil
	})
	if err != nil {
		s.discardPhoto(ctx, ref, "replace_rollback")
		return nil, fmt.Errorf("failed to update photo: %w", err)
	}

	if previous != nil && *previous != "" && *previous != ref {
		s.discardPhoto(ctx, *previous, "replace")
	}

	s.logger.InfoContext(ctx, "replaced item photo", slog.String("item_id", id))
	return updated, nil
}

// UpdateFields applies a partial update of the item's name and description
func (s *InventoryService) UpdateFields(ctx context.Context, id string, patch domain.InventoryPatch) (*domain.InventoryItem, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, func(item *domain.InventoryItem) error {
		patch.Apply(item)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	s.logger.InfoContext(ctx, "updated inventory item",
		slog.String("item_id", id),
		slog.Bool("inventory_name", patch.InventoryName.Set),
		slog.Bool("description", patch.Description.Set))

	return updated, nil
}

// Delete removes the item, then its photo
func (s *InventoryService) Delete(ctx context.Context, id string) error {
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	if removed.HasPhoto() {
		s.discardPhoto(ctx, *removed.Photo, "delete")
	}

	s.refreshCount(ctx)
	s.logger.InfoContext(ctx, "deleted inventory item", slog.String("item_id", id))
	return nil
}

// Search looks an item up by id and returns the reduced projection
func (s *InventoryService) Search(ctx context.Context, id string, includePhoto bool) (*domain.SearchResult, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id", domain.ErrMissingRequiredField)
	}

	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	result := item.Project(includePhoto)
	return &result, nil
}

func (s *InventoryService) storePhoto(ctx context.Context, photo *domain.PhotoUpload) (string, error) {
	ref, err := s.photos.Save(ctx, photo.Filename, photo.ContentType, photo.Body)
	s.metrics.PhotoOperation("save", err)
	if err != nil {
		return "", fmt.Errorf("failed to store photo: %w", err)
	}
	return ref, nil
}

// discardPhoto deletes a stored photo. Failures are logged and counted but
// never returned.
func (s *InventoryService) discardPhoto(ctx context.Context, ref, reason string) {
	err := s.photos.Delete(ctx, ref)
	s.metrics.PhotoOperation("delete", err)
	if err != nil {
		s.metrics.CleanupFailed(reason)
		s.logger.WarnContext(ctx, "failed to delete photo",
			slog.String("ref", ref),
			slog.String("reason", reason),
			slog.String("error", err.Error()))
	}
}

func (s *InventoryService) refreshCount(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	if n, err := s.repo.Count(ctx); err == nil {
		s.metrics.SetInventoryItems(n)
	}
}

func sniffImageType(head []byte) string {
	contentType := http.DetectContentType(head)
	if strings.HasPrefix(contentType, "image/") {
		return contentType
	}
	return DefaultPhotoContentType
}

type readCloser struct {
	io.Reader
	io.Closer
}

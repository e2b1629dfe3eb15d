// internal/workers/cleanup_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/ammerola/stockroom/internal/core/ports"
	"github.com/ammerola/stockroom/internal/pkg/metrics"
)

// CleanupProcessor removes stored photos that no inventory item references.
// A photo is written before the item that points at it is persisted, so
// photos younger than the grace period are always left alone.
type CleanupProcessor struct {
	repo        ports.InventoryRepository
	photos      ports.PhotoStorage
	interval    time.Duration
	gracePeriod time.Duration
	metrics     *metrics.Metrics
	logger      *slog.Logger
	now         func() time.Time
}

// NewCleanupProcessor creates a new cleanup processor
func NewCleanupProcessor(
	repo ports.InventoryRepository,
	photos ports.PhotoStorage,
	interval, gracePeriod time.Duration,
	m *metrics.Metrics,
	logger *slog.Logger,
) *CleanupProcessor {
	return &CleanupProcessor{
		repo:        repo,
		photos:      photos,
		interval:    interval,
		gracePeriod: gracePeriod,
		metrics:     m,
		logger:      logger.With(slog.String("processor", "cleanup")),
		now:         time.Now,
	}
}

// Run sweeps once immediately and then on every interval until ctx is done.
// A non-positive interval disables the worker.
func (p *CleanupProcessor) Run(ctx context.Context) {
	if p.interval <= 0 {
		p.logger.InfoContext(ctx, "orphan photo cleanup disabled")
		return
	}

	p.logger.InfoContext(ctx, "orphan photo cleanup started",
		slog.Duration("interval", p.interval),
		slog.Duration("grace_period", p.gracePeriod))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if _, err := p.CleanupOrphanPhotos(ctx); err != nil && ctx.Err() == nil {
			p.logger.ErrorContext(ctx, "orphan photo cleanup failed", slog.String("error", err.Error()))
		}

		select {
		case <-ctx.Done():
			p.logger.InfoContext(ctx, "orphan photo cleanup stopped")
			return
		case <-ticker.C:
		}
	}
}

// CleanupOrphanPhotos deletes unreferenced photos older than the grace
// period and returns how many were removed
func (p *CleanupProcessor) CleanupOrphanPhotos(ctx context.Context) (int, error) {
	items, err := p.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list inventory: %w", err)
	}

	referenced := make(map[string]struct{}, len(items)*2)
	for i := range items {
		if !items[i].HasPhoto() {
			continue
		}
		ref := *items[i].Photo
		referenced[ref] = struct{}{}
		referenced[path.Base(ref)] = struct{}{}
	}

	stored, err := p.photos.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list photos: %w", err)
	}

	cutoff := p.now().Add(-p.gracePeriod)
	var deletedCount int
	for _, photo := range stored {
		if isReferenced(referenced, photo.Ref) || photo.ModTime.After(cutoff) {
			continue
		}

		if err := p.photos.Delete(ctx, photo.Ref); err != nil {
			p.metrics.CleanupFailed("orphan")
			p.logger.WarnContext(ctx, "failed to delete orphan photo",
				slog.String("photo", photo.Ref),
				slog.String("error", err.Error()))
			continue
		}
		deletedCount++
	}

	p.metrics.OrphansRemoved(deletedCount)
	p.logger.InfoContext(ctx, "orphan photos cleaned up",
		slog.Int("photos_seen", len(stored)),
		slog.Int("photos_deleted", deletedCount))

	return deletedCount, nil
}

func isReferenced(referenced map[string]struct{}, ref string) bool {
	if _, ok := referenced[ref]; ok {
		return true
	}
	_, ok := referenced[path.Base(ref)]
	return ok
}

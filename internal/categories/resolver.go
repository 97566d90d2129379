package categories

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/receipt-parser/constants"
	"github.com/joseph-ayodele/receipt-parser/internal/entity"
	"github.com/joseph-ayodele/receipt-parser/internal/repository"
)

// Resolver maps free-text category labels onto stored categories.
type Resolver struct {
	repo   repository.CategoryRepository
	logger *slog.Logger
}

func NewResolver(repo repository.CategoryRepository, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{repo: repo, logger: logger}
}

// Resolve finds or creates one category per distinct label. The result is keyed by
// constants.NormalizeCategoryName; blank labels are skipped.
func (r *Resolver) Resolve(ctx context.Context, labels []string) (map[string]*entity.Category, error) {
	resolved := make(map[string]*entity.Category, len(labels))
	for _, label := range labels {
		key := constants.NormalizeCategoryName(label)
		if key == "" {
			continue
		}
		if _, ok := resolved[key]; ok {
			continue
		}
		c, err := r.repo.FindOrCreate(ctx, label)
		if err != nil {
			r.logger.Error("categories.resolve.failed", "label", label, "error", err)
			return nil, fmt.Errorf("resolve category %q: %w", label, err)
		}
		resolved[key] = c
	}
	r.logger.Debug("categories.resolve.ok", "labels", len(labels), "distinct", len(resolved))
	return resolved, nil
}

// Fallback returns the default category for items without a usable label.
func (r *Resolver) Fallback(ctx context.Context) (*entity.Category, error) {
	c, err := r.repo.FindOrCreate(ctx, constants.DefaultCategory)
	if err != nil {
		return nil, fmt.Errorf("resolve fallback category: %w", err)
	}
	return c, nil
}

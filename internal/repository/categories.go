package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/receipt-parser/constants"
	"github.com/joseph-ayodele/receipt-parser/internal/common"
	"github.com/joseph-ayodele/receipt-parser/internal/entity"
)

type CategoryRepository interface {
	ListCategories(ctx context.Context) ([]*entity.Category, error)
	// FindByName matches case-insensitively through constants.NormalizeCategoryName.
	FindByName(ctx context.Context, name string) (*entity.Category, error)
	// Create fails with common.ErrCategoryConflict when the normalized name already exists.
	Create(ctx context.Context, name string) (*entity.Category, error)
	// FindOrCreate returns the category for name, creating it on first use.
	// A concurrent creation of the same name is resolved by re-reading it.
	FindOrCreate(ctx context.Context, name string) (*entity.Category, error)
}

type categoryRepository struct {
	client *Client
	logger *slog.Logger
}

func NewCategoryRepository(client *Client, logger *slog.Logger) CategoryRepository {
	return &categoryRepository{
		client: client,
		logger: logger,
	}
}

func (r *categoryRepository) ListCategories(ctx context.Context) ([]*entity.Category, error) {
	b := entsql.Dialect(r.client.Dialect())
	q := b.Select("id", "name").From(b.Table(tableCategories)).OrderBy("name")
	rows, err := queryRows(ctx, r.client.drv, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*entity.Category
	for rows.Next() {
		c := &entity.Category{}
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *categoryRepository) FindByName(ctx context.Context, name string) (*entity.Category, error) {
	key := constants.NormalizeCategoryName(name)
	b := entsql.Dialect(r.client.Dialect())
	q := b.Select("id", "name").
		From(b.Table(tableCategories)).
		Where(entsql.EQ("name_key", key)).
		Limit(1)
	rows, err := queryRows(ctx, r.client.drv, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, common.NewAppError(common.CodeNotFound, fmt.Sprintf("category %q", name), common.ErrNotFound)
	}
	c := &entity.Category{}
	if err := rows.Scan(&c.ID, &c.Name); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *categoryRepository) Create(ctx context.Context, name string) (*entity.Category, error) {
	c := &entity.Category{ID: uuid.New(), Name: constants.DisplayCategoryName(name)}
	q := entsql.Dialect(r.client.Dialect()).
		Insert(tableCategories).
		Columns("id", "name", "name_key").
		Values(c.ID, c.Name, constants.NormalizeCategoryName(c.Name))
	if _, err := execQuery(ctx, r.client.drv, q); err != nil {
		if isUniqueViolation(err) {
			return nil, common.NewAppError(common.CodeCategoryConflict, fmt.Sprintf("category %q", c.Name), errors.Join(common.ErrCategoryConflict, err))
		}
		return nil, err
	}
	r.logger.Info("category created", "category_id", c.ID, "name", c.Name)
	return c, nil
}

func (r *categoryRepository) FindOrCreate(ctx context.Context, name string) (*entity.Category, error) {
	c, err := r.FindByName(ctx, name)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	c, err = r.Create(ctx, name)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, common.ErrCategoryConflict) {
		return nil, err
	}

	r.logger.Warn("categories.resolve.conflict", "name", name)
	return r.FindByName(ctx, name)
}

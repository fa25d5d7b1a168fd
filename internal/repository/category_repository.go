package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/tricode/magnolia-blog/internal/domain/models"
	"github.com/tricode/magnolia-blog/internal/storage"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
)

const categoryTable = "categories"

var categoryColumns = []string{
	"id", "name", "path", "display_name", "kind", "parent_id", "created_at",
}

type CategoryRepo struct {
	db DB
	sb sq.StatementBuilderType
}

func NewCategoryRepository(db DB) *CategoryRepo {
	return &CategoryRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (c *CategoryRepo) ByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	const op = "repository.category_repository.ByID"
	return c.one(ctx, op, sq.Eq{"id": id})
}

func (c *CategoryRepo) ByPath(ctx context.Context, path string, kind models.CategoryKind) (*models.Category, error) {
	const op = "repository.category_repository.ByPath"
	return c.one(ctx, op, sq.Eq{"path": path, "kind": kind})
}

func (c *CategoryRepo) ByName(ctx context.Context, name string, kind models.CategoryKind) (*models.Category, error) {
	const op = "repository.category_repository.ByName"
	return c.one(ctx, op, sq.Eq{"name": name, "kind": kind})
}

func (c *CategoryRepo) All(ctx context.Context, kind models.CategoryKind) ([]models.Category, error) {
	const op = "repository.category_repository.All"

	query, args, err := c.sb.Select(categoryColumns...).
		From(categoryTable).
		Where(sq.Eq{"kind": kind}).
		OrderBy("path ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := c.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var cat models.Category
		if err := scanCategory(rows, &cat); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		categories = append(categories, cat)
	}

	return categories, nil
}

// DescendantIDs walks the category tree from the given node and returns its
// id together with every descendant id. Listings by category expand the tree
// once and query with the resulting set.
func (c *CategoryRepo) DescendantIDs(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	const op = "repository.category_repository.DescendantIDs"

	ids := []uuid.UUID{id}
	frontier := []uuid.UUID{id}

	for len(frontier) > 0 {
		query, args, err := c.sb.Select("id").
			From(categoryTable).
			Where(sq.Eq{"parent_id": frontier}).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		rows, err := c.db.Query(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		var next []uuid.UUID
		for rows.Next() {
			var child uuid.UUID
			if err := rows.Scan(&child); err != nil {
				rows.Close()
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			next = append(next, child)
		}
		rows.Close()

		ids = append(ids, next...)
		frontier = next
	}

	return ids, nil
}

func (c *CategoryRepo) one(ctx context.Context, op string, where sq.Sqlizer) (*models.Category, error) {
	query, args, err := c.sb.Select(categoryColumns...).
		From(categoryTable).
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var cat models.Category
	if err := scanCategory(c.db.QueryRow(ctx, query, args...), &cat); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrCategoryNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cat, nil
}

func scanCategory(row pgx.Row, cat *models.Category) error {
	return row.Scan(
		&cat.ID, &cat.Name, &cat.Path, &cat.DisplayName, &cat.Kind,
		&cat.ParentID, &cat.CreatedAt,
	)
}

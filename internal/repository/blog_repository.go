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

const blogTable = "blog_items"

// OrderByCreated is the default listing order; latest-blogs listings prefer
// the initial activation date when set.
var (
	OrderByCreated    = []string{"created_at DESC"}
	OrderByActivation = []string{"initial_activation_date DESC NULLS LAST", "created_at DESC"}
)

var blogColumns = []string{
	"id", "name", "path", "title", "summary", "message", "author",
	"comments_enabled", "categories", "tags", "permalink",
	"initial_activation_date", "publish_date", "created_at", "updated_at",
}

type BlogRepo struct {
	db DB
	sb sq.StatementBuilderType
}

func NewBlogRepository(db DB) *BlogRepo {
	return &BlogRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (b *BlogRepo) Find(ctx context.Context, q BlogQuery) ([]models.BlogItem, error) {
	const op = "repository.blog_repository.Find"

	builder := b.sb.Select(blogColumns...).
		From(blogTable).
		Where(DescendantPredicate(q.Scope))

	for _, f := range q.Filters {
		builder = builder.Where(f)
	}

	orderBy := q.OrderBy
	if len(orderBy) == 0 {
		orderBy = OrderByCreated
	}
	builder = builder.OrderBy(orderBy...)

	if q.Limit > 0 {
		builder = builder.Limit(q.Limit).Offset(q.Offset)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := b.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, storage.ErrBlogListUnavailable, err)
	}
	defer rows.Close()

	var items []models.BlogItem
	for rows.Next() {
		item, err := scanBlogItem(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		items = append(items, item)
	}

	return items, nil
}

// Count runs the separate count pass listings use for totals. It is always a
// second query, never derived from a windowed page.
func (b *BlogRepo) Count(ctx context.Context, scope string, filters []sq.Sqlizer) (int, error) {
	const op = "repository.blog_repository.Count"

	builder := b.sb.Select("COUNT(*)").
		From(blogTable).
		Where(DescendantPredicate(scope))

	for _, f := range filters {
		builder = builder.Where(f)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var count int
	if err := b.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w: %v", op, storage.ErrBlogListUnavailable, err)
	}

	return count, nil
}

func (b *BlogRepo) ByID(ctx context.Context, id uuid.UUID) (*models.BlogItem, error) {
	const op = "repository.blog_repository.ByID"

	query, args, err := b.sb.Select(blogColumns...).
		From(blogTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	item, err := scanBlogItem(b.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrBlogNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &item, nil
}

func (b *BlogRepo) ByName(ctx context.Context, name string) (*models.BlogItem, error) {
	const op = "repository.blog_repository.ByName"

	query, args, err := b.sb.Select(blogColumns...).
		From(blogTable).
		Where(sq.Eq{"name": name}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	item, err := scanBlogItem(b.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrBlogNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &item, nil
}

func (b *BlogRepo) NameExists(ctx context.Context, name string) (bool, error) {
	const op = "repository.blog_repository.NameExists"

	query, args, err := b.sb.Select("1").
		From(blogTable).
		Where(sq.Eq{"name": name}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	var one int
	if err := b.db.QueryRow(ctx, query, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return true, nil
}

// Related runs the weighted fuzzy search, ordered by relevance.
func (b *BlogRepo) Related(ctx context.Context, match RelatedMatch, limit uint64) ([]models.BlogItem, error) {
	const op = "repository.blog_repository.Related"

	builder := b.sb.Select(blogColumns...).
		Column(sq.Alias(match.Score, "score")).
		From(blogTable).
		Where(match.Where).
		OrderBy("score DESC").
		Limit(limit)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := b.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, storage.ErrBlogListUnavailable, err)
	}
	defer rows.Close()

	var items []models.BlogItem
	for rows.Next() {
		var (
			item  models.BlogItem
			score int
		)
		if err := rows.Scan(
			&item.ID, &item.Name, &item.Path, &item.Title, &item.Summary,
			&item.Message, &item.Author, &item.CommentsEnabled, &item.Categories,
			&item.Tags, &item.Permalink, &item.InitialActivationDate,
			&item.PublishDate, &item.CreatedAt, &item.UpdatedAt, &score,
		); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		items = append(items, item)
	}

	return items, nil
}

// Search returns the best-matching page of blog items under scope, ordered by
// match score descending. Limit 0 means no window.
func (b *BlogRepo) Search(ctx context.Context, scope string, match RelatedMatch, limit, offset uint64) ([]models.BlogItem, error) {
	const op = "repository.blog_repository.Search"

	builder := b.sb.Select(blogColumns...).
		Column(sq.Alias(match.Score, "score")).
		From(blogTable).
		Where(DescendantPredicate(scope)).
		Where(match.Where).
		OrderBy("score DESC")

	if limit > 0 {
		builder = builder.Limit(limit).Offset(offset)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := b.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, storage.ErrBlogListUnavailable, err)
	}
	defer rows.Close()

	var items []models.BlogItem
	for rows.Next() {
		var (
			item  models.BlogItem
			score int
		)
		if err := rows.Scan(
			&item.ID, &item.Name, &item.Path, &item.Title, &item.Summary,
			&item.Message, &item.Author, &item.CommentsEnabled, &item.Categories,
			&item.Tags, &item.Permalink, &item.InitialActivationDate,
			&item.PublishDate, &item.CreatedAt, &item.UpdatedAt, &score,
		); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		items = append(items, item)
	}

	return items, nil
}

// CountReferencing counts blog items referencing the given node through the
// given field, feeding the cloud score calculation.
func (b *BlogRepo) CountReferencing(ctx context.Context, field string, id uuid.UUID) (int, error) {
	const op = "repository.blog_repository.CountReferencing"

	var predicate sq.Sqlizer
	switch field {
	case "author":
		predicate = AuthorPredicate(id)
	case "categories":
		predicate = CategoryPredicate(id)
	case "tags":
		predicate = TagPredicate(id)
	default:
		return 0, fmt.Errorf("%s: field %q is not a reference field", op, field)
	}

	return b.Count(ctx, "/", []sq.Sqlizer{predicate})
}

// ArchiveDates lists the distinct year/month pairs with blog items, newest
// first. Months are zero padded for rendering.
func (b *BlogRepo) ArchiveDates(ctx context.Context) ([]models.ArchiveDate, error) {
	const op = "repository.blog_repository.ArchiveDates"

	query, args, err := b.sb.
		Select("DISTINCT to_char(created_at, 'YYYY') AS year", "to_char(created_at, 'MM') AS month").
		From(blogTable).
		OrderBy("year DESC", "month DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := b.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, storage.ErrBlogListUnavailable, err)
	}
	defer rows.Close()

	var dates []models.ArchiveDate
	for rows.Next() {
		var d models.ArchiveDate
		if err := rows.Scan(&d.Year, &d.Month); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		dates = append(dates, d)
	}

	return dates, nil
}

func (b *BlogRepo) Create(ctx context.Context, item models.BlogItem) (uuid.UUID, error) {
	const op = "repository.blog_repository.Create"

	query, args, err := b.sb.Insert(blogTable).
		Columns(
			"name", "path", "title", "summary", "message", "author",
			"comments_enabled", "categories", "tags", "permalink",
			"initial_activation_date", "publish_date", "created_at", "updated_at",
		).
		Values(
			item.Name, item.Path, item.Title, item.Summary, item.Message,
			item.Author, item.CommentsEnabled, item.Categories, item.Tags,
			item.Permalink, item.InitialActivationDate, item.PublishDate,
			item.CreatedAt, item.UpdatedAt,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	var id uuid.UUID
	if err := b.db.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func scanBlogItem(row pgx.Row) (models.BlogItem, error) {
	var item models.BlogItem
	err := row.Scan(
		&item.ID, &item.Name, &item.Path, &item.Title, &item.Summary,
		&item.Message, &item.Author, &item.CommentsEnabled, &item.Categories,
		&item.Tags, &item.Permalink, &item.InitialActivationDate,
		&item.PublishDate, &item.CreatedAt, &item.UpdatedAt,
	)
	return item, err
}

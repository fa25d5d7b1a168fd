package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/tricode/magnolia-blog/internal/domain/models"
	"github.com/tricode/magnolia-blog/internal/lib/logger/sl"
	"github.com/tricode/magnolia-blog/internal/repository"
	"github.com/tricode/magnolia-blog/internal/storage"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// BlogService answers the read side of the blog module: paged listings,
// single-item lookups and related-item search.
type BlogService struct {
	log        *slog.Logger
	blogs      repository.BlogRepository
	categories repository.CategoryRepository
	contacts   repository.ContactRepository
}

func NewBlogService(
	log *slog.Logger,
	blogs repository.BlogRepository,
	categories repository.CategoryRepository,
	contacts repository.ContactRepository,
) *BlogService {
	return &BlogService{
		log:        log,
		blogs:      blogs,
		categories: categories,
		contacts:   contacts,
	}
}

// LatestBlogs returns one page of blog items under scope, newest activation
// first, optionally narrowed to a single category reference.
func (s *BlogService) LatestBlogs(ctx context.Context, scope string, page, perPage int, categoryID *uuid.UUID) (*models.BlogResult, error) {
	const op = "blog_service.LatestBlogs"

	var filters []sq.Sqlizer
	if categoryID != nil {
		filters = append(filters, repository.CategoryPredicate(*categoryID))
	}

	return s.page(ctx, op, scope, filters, page, perPage)
}

// LatestBlogsByCategoryName narrows the listing to the named category or tag.
// An unknown name degrades to the unfiltered listing rather than failing the
// page.
func (s *BlogService) LatestBlogsByCategoryName(ctx context.Context, scope string, page, perPage int, name string, kind models.CategoryKind) (*models.BlogResult, error) {
	const op = "blog_service.LatestBlogsByCategoryName"
	log := s.log.With(slog.String("op", op), slog.String("category", name))

	var filters []sq.Sqlizer
	category, err := s.categories.ByName(ctx, name, kind)
	if err != nil {
		log.Warn("category not resolved, listing unfiltered", sl.Err(err))
	} else {
		filters = append(filters, repository.CategoryPredicate(category.ID))
	}

	return s.page(ctx, op, scope, filters, page, perPage)
}

// ListBlogs applies a parsed request filter: author, category, tag and date
// narrow the listing, the page parameter selects the window. Unresolvable
// author or taxonomy values are dropped silently so stale links still render
// a page.
func (s *BlogService) ListBlogs(ctx context.Context, scope string, filter models.QueryFilter, perPage int) (*models.BlogResult, error) {
	const op = "blog_service.ListBlogs"
	log := s.log.With(slog.String("op", op))

	var filters []sq.Sqlizer

	if authorPath, ok := filter.Author(); ok {
		contact, err := s.contacts.ByPath(ctx, authorPath)
		if err != nil {
			log.Warn("author filter not resolved", slog.String("author", authorPath), sl.Err(err))
		} else {
			filters = append(filters, repository.AuthorPredicate(contact.ID))
		}
	}

	if name, ok := filter.Category(); ok {
		if p := s.taxonomyPredicate(ctx, log, name, models.KindCategory); p != nil {
			filters = append(filters, p)
		}
	}

	if name, ok := filter.Tag(); ok {
		if p := s.taxonomyPredicate(ctx, log, name, models.KindTag); p != nil {
			filters = append(filters, p)
		}
	}

	if year, ok := filter.Year(); ok {
		month, hasMonth := filter.Month()
		filters = append(filters, repository.DateRangePredicate(year, month, hasMonth))
	}

	return s.page(ctx, op, scope, filters, filter.Page(), perPage)
}

func (s *BlogService) taxonomyPredicate(ctx context.Context, log *slog.Logger, name string, kind models.CategoryKind) sq.Sqlizer {
	category, err := s.categories.ByName(ctx, name, kind)
	if err != nil {
		log.Warn("taxonomy filter not resolved",
			slog.String("name", name), slog.String("kind", string(kind)), sl.Err(err))
		return nil
	}
	if kind == models.KindTag {
		return repository.TagPredicate(category.ID)
	}
	return repository.CategoryPredicate(category.ID)
}

// page runs the windowed query plus the separate count pass and derives the
// page arithmetic.
func (s *BlogService) page(ctx context.Context, op, scope string, filters []sq.Sqlizer, page, perPage int) (*models.BlogResult, error) {
	if perPage <= 0 {
		perPage = math.MaxInt32
	}
	if page < 1 {
		page = 1
	}

	total, err := s.blogs.Count(ctx, scope, filters)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, storage.ErrBlogListUnavailable, err)
	}

	items, err := s.blogs.Find(ctx, repository.BlogQuery{
		Scope:   scope,
		Filters: filters,
		OrderBy: repository.OrderByActivation,
		Limit:   uint64(perPage),
		Offset:  uint64(perPage) * uint64(page-1),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, storage.ErrBlogListUnavailable, err)
	}

	return &models.BlogResult{
		TotalCount: total,
		NumPages:   (total + perPage - 1) / perPage,
		Results:    items,
	}, nil
}

// SearchBlogs runs a full-text search over blog items under scope. Each word
// of the query matches against title, summary and message with descending
// field weights, best matches first. A blank query returns an empty page
// without touching the store.
func (s *BlogService) SearchBlogs(ctx context.Context, scope, query string, page, perPage int) (*models.BlogResult, error) {
	const op = "blog_service.SearchBlogs"

	terms := strings.Fields(query)
	if len(terms) == 0 {
		return &models.BlogResult{}, nil
	}

	if perPage <= 0 {
		perPage = math.MaxInt32
	}
	if page < 1 {
		page = 1
	}

	match := repository.SearchMatch(terms)

	total, err := s.blogs.Count(ctx, scope, []sq.Sqlizer{match.Where})
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, storage.ErrBlogListUnavailable, err)
	}

	items, err := s.blogs.Search(ctx, scope, match, uint64(perPage), uint64(perPage)*uint64(page-1))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, storage.ErrBlogListUnavailable, err)
	}

	return &models.BlogResult{
		TotalCount: total,
		NumPages:   (total + perPage - 1) / perPage,
		Results:    items,
	}, nil
}

// BlogByID returns a single blog item.
func (s *BlogService) BlogByID(ctx context.Context, id uuid.UUID) (*models.BlogItem, error) {
	const op = "blog_service.BlogByID"

	item, err := s.blogs.ByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return item, nil
}

// BlogByName resolves a blog item by its node name. A blank name is a
// not-found, never a full-store match.
func (s *BlogService) BlogByName(ctx context.Context, name string) (*models.BlogItem, error) {
	const op = "blog_service.BlogByName"

	if name == "" {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrBlogNotFound)
	}

	item, err := s.blogs.ByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return item, nil
}

// BlogCount counts blog items under scope without fetching them.
func (s *BlogService) BlogCount(ctx context.Context, scope string) (int, error) {
	const op = "blog_service.BlogCount"

	total, err := s.blogs.Count(ctx, scope, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return total, nil
}

// RelatedBlogsByID finds items related to the given one: the source's
// category and tag names are matched against title, summary and message with
// descending field weights, best matches first.
func (s *BlogService) RelatedBlogsByID(ctx context.Context, id uuid.UUID, maxResults int) ([]models.BlogItem, error) {
	const op = "blog_service.RelatedBlogsByID"

	source, err := s.blogs.ByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.related(ctx, op, source, maxResults)
}

// RelatedBlogsByName is RelatedBlogsByID keyed by node name.
func (s *BlogService) RelatedBlogsByName(ctx context.Context, name string, maxResults int) ([]models.BlogItem, error) {
	const op = "blog_service.RelatedBlogsByName"

	if name == "" {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrBlogNotFound)
	}

	source, err := s.blogs.ByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.related(ctx, op, source, maxResults)
}

func (s *BlogService) related(ctx context.Context, op string, source *models.BlogItem, maxResults int) ([]models.BlogItem, error) {
	log := s.log.With(slog.String("op", op), slog.String("blog", source.Name))

	terms := s.termNames(ctx, log, source)

	if maxResults <= 0 {
		maxResults = math.MaxInt32
	}

	items, err := s.blogs.Related(ctx, repository.RelatedPredicate(source.Name, terms), uint64(maxResults))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, storage.ErrBlogListUnavailable, err)
	}

	return items, nil
}

// termNames resolves the source item's category and tag references to their
// display names. References that no longer resolve are skipped.
func (s *BlogService) termNames(ctx context.Context, log *slog.Logger, source *models.BlogItem) []string {
	var terms []string
	for _, id := range append(source.CategoryIDs(), source.TagIDs()...) {
		category, err := s.categories.ByID(ctx, id)
		if err != nil {
			log.Warn("dangling taxonomy reference", slog.Any("ref", id), sl.Err(err))
			continue
		}
		terms = append(terms, category.DisplayName)
	}
	return terms
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"time"

	"github.com/tricode/magnolia-blog/internal/domain/models"
	"github.com/tricode/magnolia-blog/internal/lib/logger/sl"
	"github.com/tricode/magnolia-blog/internal/repository"
	"github.com/tricode/magnolia-blog/internal/storage"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

const (
	cacheKeyCategoryCloud = "cloud:categories"
	cacheKeyTagCloud      = "cloud:tags"
	cacheKeyAuthorCloud   = "cloud:authors"
)

// RenderService backs the public blog pages: request-filter parsing, term
// clouds, archive navigation and published-only listings.
type RenderService struct {
	log        *slog.Logger
	blogs      repository.BlogRepository
	categories repository.CategoryRepository
	contacts   repository.ContactRepository
	cache      *gocache.Cache
	now        func() time.Time
}

func NewRenderService(
	log *slog.Logger,
	blogs repository.BlogRepository,
	categories repository.CategoryRepository,
	contacts repository.ContactRepository,
	cloudTTL time.Duration,
) *RenderService {
	return &RenderService{
		log:        log,
		blogs:      blogs,
		categories: categories,
		contacts:   contacts,
		cache:      gocache.New(cloudTTL, 2*cloudTTL),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// FilterFromParams keeps only the whitelisted request parameters; everything
// else a visitor appends to the URL is ignored.
func (s *RenderService) FilterFromParams(params url.Values) models.QueryFilter {
	filter := models.QueryFilter{}
	for _, name := range models.WhitelistedParameters {
		if v := params.Get(name); v != "" {
			filter[name] = v
		}
	}
	return filter
}

// PublishedBlogs lists one page of publicly visible items: the parsed filter
// applies and scheduled items stay hidden until their publish date passes.
func (s *RenderService) PublishedBlogs(ctx context.Context, scope string, filter models.QueryFilter, perPage int) (*models.BlogResult, error) {
	const op = "render_service.PublishedBlogs"
	log := s.log.With(slog.String("op", op))

	filters := []sq.Sqlizer{repository.PublishedPredicate(s.now())}

	if authorPath, ok := filter.Author(); ok {
		contact, err := s.contacts.ByPath(ctx, authorPath)
		if err != nil {
			log.Warn("author filter not resolved", slog.String("author", authorPath), sl.Err(err))
		} else {
			filters = append(filters, repository.AuthorPredicate(contact.ID))
		}
	}

	if name, ok := filter.Category(); ok {
		if p, ok := s.categoryTreePredicate(ctx, name); ok {
			filters = append(filters, p)
		}
	}

	if name, ok := filter.Tag(); ok {
		tag, err := s.categories.ByName(ctx, name, models.KindTag)
		if err != nil {
			log.Warn("tag filter not resolved", slog.String("tag", name), sl.Err(err))
		} else {
			filters = append(filters, repository.TagPredicate(tag.ID))
		}
	}

	if year, ok := filter.Year(); ok {
		month, hasMonth := filter.Month()
		filters = append(filters, repository.DateRangePredicate(year, month, hasMonth))
	}

	return s.page(ctx, op, scope, filters, filter.Page(), perPage)
}

// LatestBlogsByCategoryTree lists items referencing the named category or any
// category below it in the taxonomy tree. An unknown name lists nothing.
func (s *RenderService) LatestBlogsByCategoryTree(ctx context.Context, scope, categoryName string, page, perPage int) (*models.BlogResult, error) {
	const op = "render_service.LatestBlogsByCategoryTree"

	p, ok := s.categoryTreePredicate(ctx, categoryName)
	if !ok {
		return &models.BlogResult{}, nil
	}

	return s.page(ctx, op, scope, []sq.Sqlizer{p}, page, perPage)
}

// categoryTreePredicate expands the named category to itself plus all
// descendants and matches items referencing any of them.
func (s *RenderService) categoryTreePredicate(ctx context.Context, name string) (sq.Sqlizer, bool) {
	const op = "render_service.categoryTreePredicate"
	log := s.log.With(slog.String("op", op), slog.String("category", name))

	category, err := s.categories.ByName(ctx, name, models.KindCategory)
	if err != nil {
		log.Warn("category not resolved", sl.Err(err))
		return nil, false
	}

	ids, err := s.categories.DescendantIDs(ctx, category.ID)
	if err != nil {
		log.Warn("descendant walk failed", sl.Err(err))
		ids = []uuid.UUID{category.ID}
	}

	return repository.AnyCategoryPredicate(ids), true
}

func (s *RenderService) page(ctx context.Context, op, scope string, filters []sq.Sqlizer, page, perPage int) (*models.BlogResult, error) {
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

// HasOlderPosts reports whether pages beyond the current one exist.
func (s *RenderService) HasOlderPosts(result *models.BlogResult, page int) bool {
	return page < result.NumPages
}

func (s *RenderService) PageOlderPosts(result *models.BlogResult, page int) int {
	if s.HasOlderPosts(result, page) {
		return page + 1
	}
	return result.NumPages
}

// HasNewerPosts reports whether the current page has a preceding one.
func (s *RenderService) HasNewerPosts(page int) bool {
	return page > 1
}

func (s *RenderService) PageNewerPosts(page int) int {
	if s.HasNewerPosts(page) {
		return page - 1
	}
	return 1
}

// ArchivedDates lists the distinct year/month pairs that have blog items,
// newest first, for archive navigation.
func (s *RenderService) ArchivedDates(ctx context.Context) ([]models.ArchiveDate, error) {
	const op = "render_service.ArchivedDates"

	dates, err := s.blogs.ArchiveDates(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return dates, nil
}

// MonthName renders a 1-based month number as its English name. Out-of-range
// numbers render empty.
func (s *RenderService) MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return time.Month(month).String()
}

// BlogCategories resolves a blog item's category references to category
// nodes, skipping references that no longer exist.
func (s *RenderService) BlogCategories(ctx context.Context, item *models.BlogItem) ([]models.Category, error) {
	const op = "render_service.BlogCategories"
	log := s.log.With(slog.String("op", op), slog.String("blog", item.Name))

	var categories []models.Category
	for _, id := range item.CategoryIDs() {
		category, err := s.categories.ByID(ctx, id)
		if err != nil {
			log.Warn("dangling category reference", slog.Any("ref", id), sl.Err(err))
			continue
		}
		categories = append(categories, *category)
	}

	return categories, nil
}

// CategoryCloud sizes every category by how many blog items reference it.
func (s *RenderService) CategoryCloud(ctx context.Context) ([]models.CloudEntry, error) {
	const op = "render_service.CategoryCloud"
	return s.taxonomyCloud(ctx, op, cacheKeyCategoryCloud, models.KindCategory, "categories")
}

// TagCloud sizes every tag by how many blog items reference it.
func (s *RenderService) TagCloud(ctx context.Context) ([]models.CloudEntry, error) {
	const op = "render_service.TagCloud"
	return s.taxonomyCloud(ctx, op, cacheKeyTagCloud, models.KindTag, "tags")
}

func (s *RenderService) taxonomyCloud(ctx context.Context, op, cacheKey string, kind models.CategoryKind, field string) ([]models.CloudEntry, error) {
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached.([]models.CloudEntry), nil
	}

	terms, err := s.categories.All(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	max, err := s.blogs.Count(ctx, "", nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	entries := make([]models.CloudEntry, 0, len(terms))
	for _, term := range terms {
		count, err := s.blogs.CountReferencing(ctx, field, term.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		entries = append(entries, models.CloudEntry{
			ID:    term.ID,
			Name:  term.Name,
			Title: term.DisplayName,
			Count: count,
			Scale: cloudScale(count, max),
		})
	}

	s.cache.Set(cacheKey, entries, gocache.DefaultExpiration)

	return entries, nil
}

// AuthorCloud sizes every contact by post count. Contacts without posts are
// left out.
func (s *RenderService) AuthorCloud(ctx context.Context) ([]models.CloudEntry, error) {
	const op = "render_service.AuthorCloud"

	if cached, ok := s.cache.Get(cacheKeyAuthorCloud); ok {
		return cached.([]models.CloudEntry), nil
	}

	authors, err := s.contacts.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	max, err := s.blogs.Count(ctx, "", nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var entries []models.CloudEntry
	for _, author := range authors {
		count, err := s.blogs.CountReferencing(ctx, "author", author.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if count == 0 {
			continue
		}
		entries = append(entries, models.CloudEntry{
			ID:    author.ID,
			Name:  author.Name,
			Title: author.FullName(),
			Count: count,
			Scale: cloudScale(count, max),
		})
	}

	s.cache.Set(cacheKeyAuthorCloud, entries, gocache.DefaultExpiration)

	return entries, nil
}

// cloudScale maps a term's post count to a display bucket 0..9 relative to
// the total number of posts. No posts at all means every term lands on 0.
func cloudScale(count, max int) int {
	if max == 0 {
		return 0
	}
	scale := count * 10 / max
	if scale > 9 {
		scale = 9
	}
	if scale < 0 {
		scale = 0
	}
	return scale
}

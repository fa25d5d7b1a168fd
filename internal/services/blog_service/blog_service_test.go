package services

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/tricode/magnolia-blog/internal/domain/models"
	"github.com/tricode/magnolia-blog/internal/repository"
	"github.com/tricode/magnolia-blog/internal/storage"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBlogRepository struct {
	mock.Mock
}

func (m *MockBlogRepository) Find(ctx context.Context, q repository.BlogQuery) ([]models.BlogItem, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BlogItem), args.Error(1)
}

func (m *MockBlogRepository) Count(ctx context.Context, scope string, filters []sq.Sqlizer) (int, error) {
	args := m.Called(ctx, scope, filters)
	return args.Int(0), args.Error(1)
}

func (m *MockBlogRepository) ByID(ctx context.Context, id uuid.UUID) (*models.BlogItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BlogItem), args.Error(1)
}

func (m *MockBlogRepository) ByName(ctx context.Context, name string) (*models.BlogItem, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BlogItem), args.Error(1)
}

func (m *MockBlogRepository) NameExists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockBlogRepository) Related(ctx context.Context, match repository.RelatedMatch, limit uint64) ([]models.BlogItem, error) {
	args := m.Called(ctx, match, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BlogItem), args.Error(1)
}

func (m *MockBlogRepository) Search(ctx context.Context, scope string, match repository.RelatedMatch, limit, offset uint64) ([]models.BlogItem, error) {
	args := m.Called(ctx, scope, match, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BlogItem), args.Error(1)
}

func (m *MockBlogRepository) CountReferencing(ctx context.Context, field string, id uuid.UUID) (int, error) {
	args := m.Called(ctx, field, id)
	return args.Int(0), args.Error(1)
}

func (m *MockBlogRepository) ArchiveDates(ctx context.Context) ([]models.ArchiveDate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ArchiveDate), args.Error(1)
}

func (m *MockBlogRepository) Create(ctx context.Context, item models.BlogItem) (uuid.UUID, error) {
	args := m.Called(ctx, item)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) ByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockCategoryRepository) ByPath(ctx context.Context, path string, kind models.CategoryKind) (*models.Category, error) {
	args := m.Called(ctx, path, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockCategoryRepository) ByName(ctx context.Context, name string, kind models.CategoryKind) (*models.Category, error) {
	args := m.Called(ctx, name, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockCategoryRepository) All(ctx context.Context, kind models.CategoryKind) ([]models.Category, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *MockCategoryRepository) DescendantIDs(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type MockContactRepository struct {
	mock.Mock
}

func (m *MockContactRepository) ByID(ctx context.Context, id uuid.UUID) (*models.Contact, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Contact), args.Error(1)
}

func (m *MockContactRepository) ByPath(ctx context.Context, path string) (*models.Contact, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Contact), args.Error(1)
}

func (m *MockContactRepository) ByEmail(ctx context.Context, email string) (*models.Contact, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Contact), args.Error(1)
}

func (m *MockContactRepository) All(ctx context.Context) ([]models.Contact, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Contact), args.Error(1)
}

func (m *MockContactRepository) NameExists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockContactRepository) Create(ctx context.Context, contact models.Contact) (uuid.UUID, error) {
	args := m.Called(ctx, contact)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func newTestService() (*BlogService, *MockBlogRepository, *MockCategoryRepository, *MockContactRepository) {
	blogs := new(MockBlogRepository)
	categories := new(MockCategoryRepository)
	contacts := new(MockContactRepository)
	return NewBlogService(slog.Default(), blogs, categories, contacts), blogs, categories, contacts
}

func TestBlogService_LatestBlogs_Pagination(t *testing.T) {
	ctx := context.Background()
	service, blogs, _, _ := newTestService()

	items := []models.BlogItem{{Name: "a"}, {Name: "b"}}

	blogs.On("Count", ctx, "/blogs", mock.Anything).Return(12, nil)
	blogs.On("Find", ctx, mock.MatchedBy(func(q repository.BlogQuery) bool {
		return q.Scope == "/blogs" && q.Limit == 5 && q.Offset == 5
	})).Return(items, nil)

	result, err := service.LatestBlogs(ctx, "/blogs", 2, 5, nil)

	require.NoError(t, err)
	assert.Equal(t, 12, result.TotalCount)
	assert.Equal(t, 3, result.NumPages)
	assert.Equal(t, items, result.Results)
	blogs.AssertExpectations(t)
}

func TestBlogService_LatestBlogs_PageBeyondEnd(t *testing.T) {
	ctx := context.Background()
	service, blogs, _, _ := newTestService()

	blogs.On("Count", ctx, "/blogs", mock.Anything).Return(3, nil)
	blogs.On("Find", ctx, mock.MatchedBy(func(q repository.BlogQuery) bool {
		return q.Offset == 10
	})).Return([]models.BlogItem{}, nil)

	result, err := service.LatestBlogs(ctx, "/blogs", 3, 5, nil)

	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalCount)
	assert.Equal(t, 1, result.NumPages)
	assert.Empty(t, result.Results)
}

func TestBlogService_LatestBlogs_NonPositivePageSize(t *testing.T) {
	ctx := context.Background()
	service, blogs, _, _ := newTestService()

	blogs.On("Count", ctx, "/blogs", mock.Anything).Return(2, nil)
	blogs.On("Find", ctx, mock.MatchedBy(func(q repository.BlogQuery) bool {
		return q.Limit == math.MaxInt32 && q.Offset == 0
	})).Return([]models.BlogItem{{Name: "a"}, {Name: "b"}}, nil)

	result, err := service.LatestBlogs(ctx, "/blogs", 1, 0, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, result.NumPages)
	assert.Len(t, result.Results, 2)
}

func TestBlogService_LatestBlogs_CountFailure(t *testing.T) {
	ctx := context.Background()
	service, blogs, _, _ := newTestService()

	cause := errors.New("connection reset")
	blogs.On("Count", ctx, "/blogs", mock.Anything).Return(0, cause)

	_, err := service.LatestBlogs(ctx, "/blogs", 1, 10, nil)

	assert.ErrorIs(t, err, storage.ErrBlogListUnavailable)
	// the repository failure stays in the chain for the logs
	assert.ErrorIs(t, err, cause)
}

func TestBlogService_SearchBlogs(t *testing.T) {
	ctx := context.Background()

	t.Run("pages the matches best first", func(t *testing.T) {
		service, blogs, _, _ := newTestService()

		items := []models.BlogItem{{Name: "brew-guide"}, {Name: "roast-notes"}}

		blogs.On("Count", ctx, "/blogs", mock.MatchedBy(func(filters []sq.Sqlizer) bool {
			return len(filters) == 1
		})).Return(7, nil)
		blogs.On("Search", ctx, "/blogs", mock.MatchedBy(func(match repository.RelatedMatch) bool {
			where, args, err := match.Where.ToSql()
			return err == nil && strings.Contains(where, "ILIKE") && len(args) == 6
		}), uint64(5), uint64(5)).Return(items, nil)

		result, err := service.SearchBlogs(ctx, "/blogs", "coffee brewing", 2, 5)

		require.NoError(t, err)
		assert.Equal(t, 7, result.TotalCount)
		assert.Equal(t, 2, result.NumPages)
		assert.Equal(t, items, result.Results)
		blogs.AssertExpectations(t)
	})

	t.Run("blank query returns an empty page without querying", func(t *testing.T) {
		service, blogs, _, _ := newTestService()

		result, err := service.SearchBlogs(ctx, "/blogs", "   ", 1, 10)

		require.NoError(t, err)
		assert.Zero(t, result.TotalCount)
		assert.Empty(t, result.Results)
		blogs.AssertNotCalled(t, "Count")
		blogs.AssertNotCalled(t, "Search")
	})

	t.Run("store failure keeps the cause", func(t *testing.T) {
		service, blogs, _, _ := newTestService()

		cause := errors.New("connection reset")
		blogs.On("Count", ctx, "/blogs", mock.Anything).Return(0, cause)

		_, err := service.SearchBlogs(ctx, "/blogs", "coffee", 1, 10)

		assert.ErrorIs(t, err, storage.ErrBlogListUnavailable)
		assert.ErrorIs(t, err, cause)
	})
}

func TestBlogService_ListBlogs_UnresolvedAuthorDegrades(t *testing.T) {
	ctx := context.Background()
	service, blogs, _, contacts := newTestService()

	contacts.On("ByPath", ctx, "/contacts/ghost").Return(nil, storage.ErrContactNotFound)
	blogs.On("Count", ctx, "/blogs", mock.Anything).Return(1, nil)
	blogs.On("Find", ctx, mock.MatchedBy(func(q repository.BlogQuery) bool {
		return len(q.Filters) == 0
	})).Return([]models.BlogItem{{Name: "a"}}, nil)

	result, err := service.ListBlogs(ctx, "/blogs", models.QueryFilter{
		models.ParamAuthor: "/contacts/ghost",
	}, 10)

	require.NoError(t, err)
	assert.Len(t, result.Results, 1)
	contacts.AssertExpectations(t)
}

func TestBlogService_ListBlogs_ResolvedFilters(t *testing.T) {
	ctx := context.Background()
	service, blogs, categories, contacts := newTestService()

	authorID := uuid.New()
	categoryID := uuid.New()

	contacts.On("ByPath", ctx, "/contacts/jdoe").
		Return(&models.Contact{ID: authorID}, nil)
	categories.On("ByName", ctx, "coffee", models.KindCategory).
		Return(&models.Category{ID: categoryID}, nil)
	blogs.On("Count", ctx, "/blogs", mock.Anything).Return(4, nil)
	blogs.On("Find", ctx, mock.MatchedBy(func(q repository.BlogQuery) bool {
		// author + category + date range
		return len(q.Filters) == 3
	})).Return([]models.BlogItem{}, nil)

	_, err := service.ListBlogs(ctx, "/blogs", models.QueryFilter{
		models.ParamAuthor:   "/contacts/jdoe",
		models.ParamCategory: "coffee",
		models.ParamYear:     "2011",
		models.ParamMonth:    "2",
	}, 10)

	require.NoError(t, err)
	blogs.AssertExpectations(t)
}

func TestBlogService_BlogByName(t *testing.T) {
	ctx := context.Background()

	t.Run("blank name is not found", func(t *testing.T) {
		service, blogs, _, _ := newTestService()

		_, err := service.BlogByName(ctx, "")

		assert.ErrorIs(t, err, storage.ErrBlogNotFound)
		blogs.AssertNotCalled(t, "ByName")
	})

	t.Run("existing name", func(t *testing.T) {
		service, blogs, _, _ := newTestService()
		item := &models.BlogItem{Name: "first-post"}
		blogs.On("ByName", ctx, "first-post").Return(item, nil)

		got, err := service.BlogByName(ctx, "first-post")

		require.NoError(t, err)
		assert.Equal(t, item, got)
	})
}

func TestBlogService_RelatedBlogsByID(t *testing.T) {
	ctx := context.Background()
	service, blogs, categories, _ := newTestService()

	coffeeID := uuid.New()
	danglingID := uuid.New()
	source := &models.BlogItem{
		ID:         uuid.New(),
		Name:       "source-post",
		Categories: coffeeID.String() + ";" + danglingID.String(),
	}

	blogs.On("ByID", ctx, source.ID).Return(source, nil)
	categories.On("ByID", ctx, coffeeID).
		Return(&models.Category{ID: coffeeID, DisplayName: "Coffee"}, nil)
	categories.On("ByID", ctx, danglingID).
		Return(nil, storage.ErrCategoryNotFound)
	blogs.On("Related", ctx, mock.Anything, uint64(5)).
		Return([]models.BlogItem{{Name: "other-post"}}, nil)

	related, err := service.RelatedBlogsByID(ctx, source.ID, 5)

	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, "other-post", related[0].Name)
	categories.AssertExpectations(t)
}

package http_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/tricode/magnolia-blog/internal/domain/models"
	"github.com/tricode/magnolia-blog/internal/storage"
	"github.com/tricode/magnolia-blog/internal/transport/http/dto"
	httprouters "github.com/tricode/magnolia-blog/internal/transport/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testValidator struct {
	validate *validator.Validate
}

func (v *testValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

type stubBlogService struct {
	byID    func(ctx context.Context, id uuid.UUID) (*models.BlogItem, error)
	byName  func(ctx context.Context, name string) (*models.BlogItem, error)
	related func(ctx context.Context, id uuid.UUID, max int) ([]models.BlogItem, error)
	search  func(ctx context.Context, scope, query string, page, perPage int) (*models.BlogResult, error)
}

func (s *stubBlogService) ListBlogs(ctx context.Context, scope string, filter models.QueryFilter, perPage int) (*models.BlogResult, error) {
	return &models.BlogResult{}, nil
}

func (s *stubBlogService) BlogByID(ctx context.Context, id uuid.UUID) (*models.BlogItem, error) {
	return s.byID(ctx, id)
}

func (s *stubBlogService) BlogByName(ctx context.Context, name string) (*models.BlogItem, error) {
	return s.byName(ctx, name)
}

func (s *stubBlogService) RelatedBlogsByID(ctx context.Context, id uuid.UUID, max int) ([]models.BlogItem, error) {
	return s.related(ctx, id, max)
}

func (s *stubBlogService) SearchBlogs(ctx context.Context, scope, query string, page, perPage int) (*models.BlogResult, error) {
	return s.search(ctx, scope, query, page, perPage)
}

type stubRenderService struct {
	published func(ctx context.Context, scope string, filter models.QueryFilter, perPage int) (*models.BlogResult, error)
}

func (s *stubRenderService) FilterFromParams(params url.Values) models.QueryFilter {
	filter := models.QueryFilter{}
	for _, name := range models.WhitelistedParameters {
		if v := params.Get(name); v != "" {
			filter[name] = v
		}
	}
	return filter
}

func (s *stubRenderService) PublishedBlogs(ctx context.Context, scope string, filter models.QueryFilter, perPage int) (*models.BlogResult, error) {
	return s.published(ctx, scope, filter, perPage)
}

func (s *stubRenderService) CategoryCloud(ctx context.Context) ([]models.CloudEntry, error) {
	return nil, nil
}

func (s *stubRenderService) TagCloud(ctx context.Context) ([]models.CloudEntry, error) {
	return nil, nil
}

func (s *stubRenderService) AuthorCloud(ctx context.Context) ([]models.CloudEntry, error) {
	return nil, nil
}

func (s *stubRenderService) ArchivedDates(ctx context.Context) ([]models.ArchiveDate, error) {
	return nil, nil
}

func (s *stubRenderService) BlogCategories(ctx context.Context, item *models.BlogItem) ([]models.Category, error) {
	return nil, nil
}

type stubImportService struct {
	run func(ctx context.Context, req dto.WordpressImportRequest) (*dto.ImportReport, error)
}

func (s *stubImportService) Run(ctx context.Context, req dto.WordpressImportRequest) (*dto.ImportReport, error) {
	return s.run(ctx, req)
}

func newTestRouter(blog *stubBlogService, render *stubRenderService, imp *stubImportService) (*echo.Echo, *httprouters.Routers) {
	e := echo.New()
	e.Validator = &testValidator{validate: validator.New()}

	routers := httprouters.NewRouter(
		slog.Default(),
		httprouters.Config{BlogsRoot: "/blogs", PageSize: 10},
		blog,
		render,
		imp,
		nil,
		nil,
	)
	return e, routers
}

func TestListBlogs(t *testing.T) {
	t.Run("renders the page", func(t *testing.T) {
		render := &stubRenderService{
			published: func(ctx context.Context, scope string, filter models.QueryFilter, perPage int) (*models.BlogResult, error) {
				assert.Equal(t, "/blogs", scope)
				assert.Equal(t, "coffee", filter[models.ParamCategory])
				return &models.BlogResult{TotalCount: 1, NumPages: 1, Results: []models.BlogItem{{Name: "first-post"}}}, nil
			},
		}
		e, routers := newTestRouter(nil, render, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/blogs?category=coffee", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		require.NoError(t, routers.ListBlogs(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
		assert.Contains(t, rec.Body.String(), "first-post")
	})

	t.Run("storage failure renders an empty page", func(t *testing.T) {
		render := &stubRenderService{
			published: func(ctx context.Context, scope string, filter models.QueryFilter, perPage int) (*models.BlogResult, error) {
				return nil, storage.ErrBlogListUnavailable
			},
		}
		e, routers := newTestRouter(nil, render, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/blogs", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		require.NoError(t, routers.ListBlogs(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"total_count":0`)
	})
}

func TestSearchBlogs(t *testing.T) {
	t.Run("passes the query and page through", func(t *testing.T) {
		blog := &stubBlogService{
			search: func(ctx context.Context, scope, query string, page, perPage int) (*models.BlogResult, error) {
				assert.Equal(t, "/blogs", scope)
				assert.Equal(t, "coffee brewing", query)
				assert.Equal(t, 2, page)
				return &models.BlogResult{TotalCount: 1, NumPages: 1, Results: []models.BlogItem{{Name: "brew-guide"}}}, nil
			},
		}
		e, routers := newTestRouter(blog, nil, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/blogs/search?s=coffee+brewing&p=2", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		require.NoError(t, routers.SearchBlogs(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
		assert.Contains(t, rec.Body.String(), "brew-guide")
	})

	t.Run("storage failure renders an empty page", func(t *testing.T) {
		blog := &stubBlogService{
			search: func(ctx context.Context, scope, query string, page, perPage int) (*models.BlogResult, error) {
				return nil, storage.ErrBlogListUnavailable
			},
		}
		e, routers := newTestRouter(blog, nil, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/blogs/search?s=coffee", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		require.NoError(t, routers.SearchBlogs(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"total_count":0`)
	})
}

func TestGetBlog(t *testing.T) {
	t.Run("unknown id is 404", func(t *testing.T) {
		blog := &stubBlogService{
			byID: func(ctx context.Context, id uuid.UUID) (*models.BlogItem, error) {
				return nil, storage.ErrBlogNotFound
			},
		}
		e, routers := newTestRouter(blog, nil, nil)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues(uuid.NewString())

		require.NoError(t, routers.GetBlog(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed id is 400", func(t *testing.T) {
		e, routers := newTestRouter(&stubBlogService{}, nil, nil)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("not-a-uuid")

		require.NoError(t, routers.GetBlog(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestImportWordpress(t *testing.T) {
	newRequest := func(body string) (*httptest.ResponseRecorder, echo.Context) {
		e := echo.New()
		e.Validator = &testValidator{validate: validator.New()}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/import/wordpress", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		return rec, e.NewContext(req, rec)
	}

	t.Run("missing endpoint is rejected", func(t *testing.T) {
		imp := &stubImportService{
			run: func(ctx context.Context, req dto.WordpressImportRequest) (*dto.ImportReport, error) {
				t.Fatal("import must not run on an invalid request")
				return nil, nil
			},
		}
		_, routers := newTestRouter(nil, nil, imp)

		rec, c := newRequest(`{"blog_id":1,"username":"u","password":"p"}`)

		require.NoError(t, routers.ImportWordpress(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("remote failure is a bad gateway", func(t *testing.T) {
		imp := &stubImportService{
			run: func(ctx context.Context, req dto.WordpressImportRequest) (*dto.ImportReport, error) {
				return nil, errors.New("xmlrpc: connection refused")
			},
		}
		_, routers := newTestRouter(nil, nil, imp)

		rec, c := newRequest(`{"endpoint":"https://example.com/xmlrpc.php","blog_id":1,"username":"u","password":"p"}`)

		require.NoError(t, routers.ImportWordpress(c))
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, rec.Body.String(), "wordpress_import_failed")
		assert.Contains(t, rec.Body.String(), "xmlrpc: connection refused")
	})

	t.Run("successful run returns the report", func(t *testing.T) {
		imp := &stubImportService{
			run: func(ctx context.Context, req dto.WordpressImportRequest) (*dto.ImportReport, error) {
				return &dto.ImportReport{PostsImported: 3, ContactsCreated: 1}, nil
			},
		}
		_, routers := newTestRouter(nil, nil, imp)

		rec, c := newRequest(`{"endpoint":"https://example.com/xmlrpc.php","blog_id":1,"username":"u","password":"p","import_authors":true}`)

		require.NoError(t, routers.ImportWordpress(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"posts_imported":3`)
	})
}

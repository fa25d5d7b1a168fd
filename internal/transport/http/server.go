package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tricode/magnolia-blog/internal/domain/models"
	"github.com/tricode/magnolia-blog/internal/lib/logger/sl"
	"github.com/tricode/magnolia-blog/internal/storage"
	"github.com/tricode/magnolia-blog/internal/transport/http/dto"
	"github.com/tricode/magnolia-blog/internal/transport/http/dto/request"
	"github.com/tricode/magnolia-blog/internal/transport/http/dto/response"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

type BlogService interface {
	ListBlogs(ctx context.Context, scope string, filter models.QueryFilter, perPage int) (*models.BlogResult, error)
	BlogByID(ctx context.Context, id uuid.UUID) (*models.BlogItem, error)
	BlogByName(ctx context.Context, name string) (*models.BlogItem, error)
	RelatedBlogsByID(ctx context.Context, id uuid.UUID, maxResults int) ([]models.BlogItem, error)
	SearchBlogs(ctx context.Context, scope, query string, page, perPage int) (*models.BlogResult, error)
}

type RenderService interface {
	FilterFromParams(params url.Values) models.QueryFilter
	PublishedBlogs(ctx context.Context, scope string, filter models.QueryFilter, perPage int) (*models.BlogResult, error)
	CategoryCloud(ctx context.Context) ([]models.CloudEntry, error)
	TagCloud(ctx context.Context) ([]models.CloudEntry, error)
	AuthorCloud(ctx context.Context) ([]models.CloudEntry, error)
	ArchivedDates(ctx context.Context) ([]models.ArchiveDate, error)
	BlogCategories(ctx context.Context, item *models.BlogItem) ([]models.Category, error)
}

type ImportService interface {
	Run(ctx context.Context, req dto.WordpressImportRequest) (*dto.ImportReport, error)
}

type UserService interface {
	Login(ctx context.Context, email, password string) (*models.TokenPair, error)
	RegisterNewUser(ctx context.Context, input dto.UserRegisterInput) (uuid.UUID, error)
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
}

type AuthService interface {
	RefreshTokens(refreshToken string) (*models.TokenPair, error)
}

type Config struct {
	BlogsRoot string
	PageSize  int
}

type Routers struct {
	log           *slog.Logger
	cfg           Config
	BlogService   BlogService
	RenderService RenderService
	ImportService ImportService
	UserService   UserService
	AuthService   AuthService
}

func NewRouter(
	log *slog.Logger,
	cfg Config,
	blogService BlogService,
	renderService RenderService,
	importService ImportService,
	userService UserService,
	authService AuthService,
) *Routers {
	return &Routers{
		log:           log,
		cfg:           cfg,
		BlogService:   blogService,
		RenderService: renderService,
		ImportService: importService,
		UserService:   userService,
		AuthService:   authService,
	}
}

// ListBlogs serves one page of published posts. A failing listing renders an
// empty page rather than an error, so the surrounding site keeps working when
// the store is down.
func (r *Routers) ListBlogs(c echo.Context) error {
	const op = "http.routers.ListBlogs"

	log := r.log.With(slog.String("op", op))

	filter := r.RenderService.FilterFromParams(c.QueryParams())

	result, err := r.RenderService.PublishedBlogs(c.Request().Context(), r.cfg.BlogsRoot, filter, r.cfg.PageSize)
	if err != nil {
		log.Error("listing unavailable, rendering empty page", sl.Err(err))
		result = &models.BlogResult{Results: []models.BlogItem{}}
	}

	c.Response().Header().Set("Cache-Control", "no-cache")
	return c.JSON(http.StatusOK, response.SuccessResponse(result))
}

func (r *Routers) GetBlog(c echo.Context) error {
	const op = "http.routers.GetBlog"

	log := r.log.With(slog.String("op", op))

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	item, err := r.BlogService.BlogByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrBlogNotFound) {
			return c.JSON(http.StatusNotFound, response.ErrBlogNotFound)
		}
		log.Error("failed to load blog", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrorResponseWithDetails("internal_error", "failed to load blog"))
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(item))
}

func (r *Routers) GetBlogByName(c echo.Context) error {
	const op = "http.routers.GetBlogByName"

	log := r.log.With(slog.String("op", op))

	item, err := r.BlogService.BlogByName(c.Request().Context(), c.Param("name"))
	if err != nil {
		if errors.Is(err, storage.ErrBlogNotFound) {
			return c.JSON(http.StatusNotFound, response.ErrBlogNotFound)
		}
		log.Error("failed to load blog", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrorResponseWithDetails("internal_error", "failed to load blog"))
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(item))
}

// RelatedBlogs lists posts similar to the given one, best match first. Like
// listings, failures degrade to an empty result.
func (r *Routers) RelatedBlogs(c echo.Context) error {
	const op = "http.routers.RelatedBlogs"

	log := r.log.With(slog.String("op", op))

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	maxResults := r.cfg.PageSize
	if raw := c.QueryParam("max"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			maxResults = parsed
		}
	}

	items, err := r.BlogService.RelatedBlogsByID(c.Request().Context(), id, maxResults)
	if err != nil {
		if errors.Is(err, storage.ErrBlogNotFound) {
			return c.JSON(http.StatusNotFound, response.ErrBlogNotFound)
		}
		log.Error("related search unavailable", sl.Err(err))
		items = []models.BlogItem{}
	}

	c.Response().Header().Set("Cache-Control", "no-cache")
	return c.JSON(http.StatusOK, response.SuccessResponse(items))
}

// SearchBlogs serves a page of posts matching the visitor's query, best match
// first. A blank query is an empty page, and failures degrade like listings.
func (r *Routers) SearchBlogs(c echo.Context) error {
	const op = "http.routers.SearchBlogs"

	log := r.log.With(slog.String("op", op))

	query := c.QueryParam("s")

	page := 1
	if raw := c.QueryParam("p"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			page = parsed
		}
	}

	result, err := r.BlogService.SearchBlogs(c.Request().Context(), r.cfg.BlogsRoot, query, page, r.cfg.PageSize)
	if err != nil {
		log.Error("search unavailable, rendering empty page", sl.Err(err))
		result = &models.BlogResult{Results: []models.BlogItem{}}
	}

	c.Response().Header().Set("Cache-Control", "no-cache")
	return c.JSON(http.StatusOK, response.SuccessResponse(result))
}

func (r *Routers) GetBlogCategories(c echo.Context) error {
	const op = "http.routers.GetBlogCategories"

	log := r.log.With(slog.String("op", op))

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	item, err := r.BlogService.BlogByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrBlogNotFound) {
			return c.JSON(http.StatusNotFound, response.ErrBlogNotFound)
		}
		log.Error("failed to load blog", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrorResponseWithDetails("internal_error", "failed to load blog"))
	}

	categories, err := r.RenderService.BlogCategories(c.Request().Context(), item)
	if err != nil {
		log.Error("failed to resolve categories", sl.Err(err))
		categories = []models.Category{}
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(categories))
}

func (r *Routers) CategoryCloud(c echo.Context) error {
	return r.cloud(c, "http.routers.CategoryCloud", r.RenderService.CategoryCloud)
}

func (r *Routers) TagCloud(c echo.Context) error {
	return r.cloud(c, "http.routers.TagCloud", r.RenderService.TagCloud)
}

func (r *Routers) AuthorCloud(c echo.Context) error {
	return r.cloud(c, "http.routers.AuthorCloud", r.RenderService.AuthorCloud)
}

func (r *Routers) cloud(c echo.Context, op string, fetch func(context.Context) ([]models.CloudEntry, error)) error {
	log := r.log.With(slog.String("op", op))

	entries, err := fetch(c.Request().Context())
	if err != nil {
		log.Error("cloud unavailable, rendering empty", sl.Err(err))
		entries = []models.CloudEntry{}
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(entries))
}

func (r *Routers) Archive(c echo.Context) error {
	const op = "http.routers.Archive"

	log := r.log.With(slog.String("op", op))

	dates, err := r.RenderService.ArchivedDates(c.Request().Context())
	if err != nil {
		log.Error("archive unavailable, rendering empty", sl.Err(err))
		dates = []models.ArchiveDate{}
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(dates))
}

// ImportWordpress runs one import against a remote WordPress site. Admin
// only; wired behind the admin middleware in the server.
func (r *Routers) ImportWordpress(c echo.Context) error {
	const op = "http.routers.ImportWordpress"

	log := r.log.With(slog.String("op", op))

	var req dto.WordpressImportRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(req); err != nil {
		log.Warn("invalid import request", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", err.Error()))
	}

	report, err := r.ImportService.Run(c.Request().Context(), req)
	if err != nil {
		log.Error("import failed", sl.Err(err))
		resp := response.ErrImportFailed
		resp.Details = err.Error()
		return c.JSON(http.StatusBadGateway, resp)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(report))
}

func (r *Routers) Login(c echo.Context) error {
	const op = "http.routers.Login"

	log := r.log.With(slog.String("op", op))

	var req request.LoginRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(req); err != nil {
		log.Warn("invalid login request", slog.String("email", req.Email))
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	pair, err := r.UserService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, response.ErrAuthenticationFailed)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(map[string]string{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	}))
}

func (r *Routers) Register(c echo.Context) error {
	const op = "http.routers.Register"

	log := r.log.With(slog.String("op", op))

	var input dto.UserRegisterInput

	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(input); err != nil {
		log.Warn("invalid register request", slog.String("email", input.Email))
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRegisterRequest)
	}

	id, err := r.UserService.RegisterNewUser(c.Request().Context(), input)
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			return c.JSON(http.StatusConflict, response.ErrUserAlreadyExists)
		}
		log.Error("failed to register user", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrorResponseWithDetails("internal_error", "registration failed"))
	}

	return c.JSON(http.StatusCreated, response.SuccessResponse(map[string]string{
		"user_id": id.String(),
	}))
}

func (r *Routers) Refresh(c echo.Context) error {
	const op = "http.routers.Refresh"

	log := r.log.With(slog.String("op", op))

	var req struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	pair, err := r.AuthService.RefreshTokens(req.RefreshToken)
	if err != nil {
		log.Warn("refresh rejected", sl.Err(err))
		return c.JSON(http.StatusUnauthorized, response.ErrAuthenticationFailed)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(map[string]string{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	}))
}

// IsAdminPermission answers the admin check and binds the caller's session to
// the user id, which the admin-only middleware reads.
func (r *Routers) IsAdminPermission(c echo.Context) error {
	const op = "http.routers.IsAdminPermission"

	log := r.log.With(slog.String("op", op))

	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		log.Error("error parse uuid", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Error: "invalid user ID format",
		})
	}

	isAdmin, err := r.UserService.IsAdmin(c.Request().Context(), userID)
	if err != nil {
		log.Error("failed to check admin status", sl.Err(err), slog.Any("user_id", userID))
		return c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Error: "failed to check admin status",
		})
	}

	sess, _ := session.Get("session", c)
	sess.Values["user_id"] = userID.String()
	sess.Save(c.Request(), c.Response())

	return c.JSON(http.StatusOK, map[string]bool{
		"is_admin": isAdmin,
	})
}

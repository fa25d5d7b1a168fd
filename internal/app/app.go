package app

import (
	"context"
	"log/slog"
	"net/http"

	httpapp "github.com/tricode/magnolia-blog/internal/app/http"
	"github.com/tricode/magnolia-blog/internal/config"
	"github.com/tricode/magnolia-blog/internal/repository"
	blogservice "github.com/tricode/magnolia-blog/internal/services/blog_service"
	importservice "github.com/tricode/magnolia-blog/internal/services/import_service"
	renderservice "github.com/tricode/magnolia-blog/internal/services/render_service"
	tokenservice "github.com/tricode/magnolia-blog/internal/services/token_service"
	userservice "github.com/tricode/magnolia-blog/internal/services/user_service"
	"github.com/tricode/magnolia-blog/internal/storage/postgresql"
	redisapp "github.com/tricode/magnolia-blog/internal/storage/redis"
	httprouters "github.com/tricode/magnolia-blog/internal/transport/http"
	"github.com/tricode/magnolia-blog/internal/wordpress"
)

type App struct {
	HTTPServer *httpapp.Server
	Storage    *postgresql.Storage
	Redis      *redisapp.Client
}

func New(log *slog.Logger, cfg *config.Config) *App {
	storage, err := postgresql.New(context.Background(), cfg.DSN)
	if err != nil {
		panic(err)
	}

	if err := storage.Migrate(context.Background()); err != nil {
		panic(err)
	}

	redisClient := redisapp.NewClient(cfg.Redis.RedisAddr, cfg.Redis.RedisPassword, cfg.Redis.RedisDB)

	pool := storage.Pool()
	blogRepo := repository.NewBlogRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	contactRepo := repository.NewContactRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	tokenRepo := repository.NewRedisTokenRepo(redisClient)

	tokenService := tokenservice.NewTokenService(tokenRepo, cfg.Token)
	userService := userservice.NewUserService(log, userRepo, tokenService)
	blogService := blogservice.NewBlogService(log, blogRepo, categoryRepo, contactRepo)
	renderService := renderservice.NewRenderService(log, blogRepo, categoryRepo, contactRepo, cfg.Blogs.CloudTTL)

	images := importservice.NewImageImporter(
		log,
		&http.Client{Timeout: cfg.Wordpress.HTTPTimeout},
		cfg.Wordpress.MediaMarker,
	)
	importService := importservice.NewImportService(
		log,
		importservice.NewPgSessionFactory(pool),
		func(endpoint string) (importservice.WordpressClient, error) {
			return wordpress.NewClient(endpoint, cfg.Wordpress.HTTPTimeout)
		},
		images,
		importservice.ImportConfig{
			BlogsRoot:    cfg.Blogs.BlogsRoot,
			ContactsRoot: cfg.Blogs.ContactsRoot,
		},
	)

	routers := httprouters.NewRouter(
		log,
		httprouters.Config{
			BlogsRoot: cfg.Blogs.BlogsRoot,
			PageSize:  cfg.Blogs.PageSize,
		},
		blogService,
		renderService,
		importService,
		userService,
		tokenService,
	)

	server := httpapp.New(log, cfg.Token, cfg.HTTP.Host, cfg.HTTP.Port, routers)

	return &App{
		HTTPServer: server,
		Storage:    storage,
		Redis:      redisClient,
	}
}

func (a *App) Stop() {
	if err := a.HTTPServer.Stop(); err != nil {
		panic(err)
	}
	a.Storage.Stop()
	a.Redis.Close()
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tricode/magnolia-blog/internal/domain/models"
	"github.com/tricode/magnolia-blog/internal/lib/logger/sl"
	"github.com/tricode/magnolia-blog/internal/lib/nodename"
	"github.com/tricode/magnolia-blog/internal/metrics"
	"github.com/tricode/magnolia-blog/internal/repository"
	"github.com/tricode/magnolia-blog/internal/storage"
	"github.com/tricode/magnolia-blog/internal/transport/http/dto"
	"github.com/tricode/magnolia-blog/internal/wordpress"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
)

// WordpressClient is the slice of the XML-RPC API an import run needs.
type WordpressClient interface {
	Posts(blogID int, username, password string) ([]wordpress.Post, error)
	User(blogID int, username, password, userID string) (wordpress.Profile, error)
	Close() error
}

// ClientFactory dials the remote site once per run.
type ClientFactory func(endpoint string) (WordpressClient, error)

// Tx is the commit/rollback slice of a store transaction the run tracks.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// SessionFactory opens one writable session per store. A run opens the blog
// session up front, the contact and asset sessions only when a post first
// needs them, and commits or rolls back everything it opened as a unit.
type SessionFactory interface {
	BlogSession(ctx context.Context) (repository.BlogRepository, Tx, error)
	ContactSession(ctx context.Context) (repository.ContactRepository, Tx, error)
	AssetSession(ctx context.Context) (repository.AssetRepository, Tx, error)
}

type ImportConfig struct {
	BlogsRoot    string
	ContactsRoot string
}

// ImportService drives one WordPress import run: fetch every post over
// XML-RPC, create blog items, resolve authors to contacts and pull media
// into the asset store. Any failure rolls the whole run back.
type ImportService struct {
	log       *slog.Logger
	sessions  SessionFactory
	newClient ClientFactory
	images    *ImageImporter
	validate  *validator.Validate
	cfg       ImportConfig
}

func NewImportService(
	log *slog.Logger,
	sessions SessionFactory,
	newClient ClientFactory,
	images *ImageImporter,
	cfg ImportConfig,
) *ImportService {
	return &ImportService{
		log:       log,
		sessions:  sessions,
		newClient: newClient,
		images:    images,
		validate:  validator.New(),
		cfg:       cfg,
	}
}

// importRun is the state of one run: the open store sessions and the caches
// that keep a repeated image URL or author from being imported twice. The
// caches live and die with the run.
type importRun struct {
	client   WordpressClient
	req      dto.WordpressImportRequest
	sessions SessionFactory

	blogs     repository.BlogRepository
	blogTx    Tx
	contacts  repository.ContactRepository
	contactTx Tx
	assets    repository.AssetRepository
	assetTx   Tx

	processedURLs   map[string]string
	createdContacts map[string]uuid.UUID
	report          dto.ImportReport
}

func (r *importRun) contactRepo(ctx context.Context) (repository.ContactRepository, error) {
	if r.contacts == nil {
		contacts, tx, err := r.sessions.ContactSession(ctx)
		if err != nil {
			return nil, err
		}
		r.contacts, r.contactTx = contacts, tx
	}
	return r.contacts, nil
}

func (r *importRun) assetRepo(ctx context.Context) (repository.AssetRepository, error) {
	if r.assets == nil {
		assets, tx, err := r.sessions.AssetSession(ctx)
		if err != nil {
			return nil, err
		}
		r.assets, r.assetTx = assets, tx
	}
	return r.assets, nil
}

func (r *importRun) openTxs() []Tx {
	var txs []Tx
	for _, tx := range []Tx{r.blogTx, r.contactTx, r.assetTx} {
		if tx != nil {
			txs = append(txs, tx)
		}
	}
	return txs
}

// Run executes one import. The returned report says what was created; a nil
// report with an error means nothing was kept.
func (s *ImportService) Run(ctx context.Context, req dto.WordpressImportRequest) (*dto.ImportReport, error) {
	const op = "import_service.Run"
	log := s.log.With(slog.String("op", op), slog.String("endpoint", req.Endpoint))

	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	client, err := s.newClient(req.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer client.Close()

	posts, err := client.Posts(req.BlogID, req.Username, req.Password)
	if err != nil {
		metrics.ImportRunsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(posts) == 0 {
		log.Info("remote blog has no posts, nothing to import")
		return &dto.ImportReport{}, nil
	}

	run := &importRun{
		client:          client,
		req:             req,
		sessions:        s.sessions,
		processedURLs:   make(map[string]string),
		createdContacts: make(map[string]uuid.UUID),
	}

	run.blogs, run.blogTx, err = s.sessions.BlogSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, post := range posts {
		if err := s.importPost(ctx, run, post); err != nil {
			s.abort(ctx, run)
			metrics.ImportRunsTotal.WithLabelValues("aborted").Inc()
			return nil, fmt.Errorf("%s: post %q: %w", op, post.Name, err)
		}
	}

	if err := s.commit(ctx, run); err != nil {
		s.abort(ctx, run)
		metrics.ImportRunsTotal.WithLabelValues("aborted").Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	metrics.ImportRunsTotal.WithLabelValues("completed").Inc()
	metrics.ImportedPostsTotal.Add(float64(run.report.PostsImported))

	log.Info("import finished",
		slog.Int("posts", run.report.PostsImported),
		slog.Int("contacts", run.report.ContactsCreated),
		slog.Int("images", run.report.ImagesImported),
	)

	return &run.report, nil
}

func (s *ImportService) importPost(ctx context.Context, run *importRun, post wordpress.Post) error {
	name := post.Name
	if name == "" {
		name = nodename.Validated(post.Title)
	}
	if name == "" {
		name = "untitled"
	}
	name, err := nodename.Unique(ctx, name, run.blogs.NameExists)
	if err != nil {
		return err
	}

	message := post.Content
	if run.req.ImportImages {
		rewritten, imported, err := s.images.Rewrite(ctx, run, message)
		if err != nil {
			return err
		}
		message = rewritten
		run.report.ImagesImported += imported
	}

	item := models.BlogItem{
		Name:                  name,
		Path:                  joinPath(s.cfg.BlogsRoot, name),
		Title:                 post.Title,
		Message:               message,
		CommentsEnabled:       true,
		CreatedAt:             post.Date,
		UpdatedAt:             post.Modified,
		InitialActivationDate: &post.Date,
	}

	if run.req.ImportAuthors && post.AuthorID != "" {
		authorID, err := s.resolveAuthor(ctx, run, post.AuthorID)
		if err != nil {
			return err
		}
		item.Author = &authorID
	}

	if _, err := run.blogs.Create(ctx, item); err != nil {
		return err
	}
	run.report.PostsImported++

	return nil
}

// resolveAuthor maps a WordPress user id to a contact: existing contacts are
// matched by email, new ones get a generated label unique among contacts.
// The per-run cache keeps two posts by the same author from creating two
// contacts.
func (s *ImportService) resolveAuthor(ctx context.Context, run *importRun, wpUserID string) (uuid.UUID, error) {
	profile, err := run.client.User(run.req.BlogID, run.req.Username, run.req.Password, wpUserID)
	if err != nil {
		return uuid.Nil, err
	}

	email := strings.ToLower(strings.TrimSpace(profile.Email))
	if id, ok := run.createdContacts[email]; ok {
		return id, nil
	}

	contacts, err := run.contactRepo(ctx)
	if err != nil {
		return uuid.Nil, err
	}

	existing, err := contacts.ByEmail(ctx, email)
	if err == nil {
		run.createdContacts[email] = existing.ID
		return existing.ID, nil
	}
	if !errors.Is(err, storage.ErrContactNotFound) {
		return uuid.Nil, err
	}

	name, err := nodename.Unique(ctx, nodename.ForContact(profile.FirstName, profile.LastName), contacts.NameExists)
	if err != nil {
		return uuid.Nil, err
	}

	id, err := contacts.Create(ctx, models.Contact{
		Name:      name,
		Path:      joinPath(s.cfg.ContactsRoot, name),
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		Email:     email,
		Website:   profile.Website,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return uuid.Nil, err
	}

	run.createdContacts[email] = id
	run.report.ContactsCreated++

	return id, nil
}

func (s *ImportService) commit(ctx context.Context, run *importRun) error {
	for _, tx := range run.openTxs() {
		if err := tx.Commit(ctx); err != nil {
			return err
		}
	}
	run.blogTx, run.contactTx, run.assetTx = nil, nil, nil
	run.processedURLs = nil
	run.createdContacts = nil
	return nil
}

func (s *ImportService) abort(ctx context.Context, run *importRun) {
	const op = "import_service.abort"

	for _, tx := range run.openTxs() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			s.log.Error("rollback failed", slog.String("op", op), sl.Err(err))
		}
	}
	run.blogTx, run.contactTx, run.assetTx = nil, nil, nil
	run.processedURLs = nil
	run.createdContacts = nil
}

func joinPath(root, name string) string {
	return strings.TrimSuffix(root, "/") + "/" + name
}

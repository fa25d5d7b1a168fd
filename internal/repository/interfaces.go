package repository

import (
	"context"
	"time"

	"github.com/tricode/magnolia-blog/internal/domain/models"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
)

// DB is satisfied by both *pgxpool.Pool and pgx.Tx, so the same repositories
// serve request-scoped reads and transaction-scoped import writes.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// BlogQuery describes one listing query: path scope, extra filter predicates
// and ordering. Limit 0 means no window.
type BlogQuery struct {
	Scope   string
	Filters []sq.Sqlizer
	OrderBy []string
	Limit   uint64
	Offset  uint64
}

type BlogRepository interface {
	Find(ctx context.Context, q BlogQuery) ([]models.BlogItem, error)
	Count(ctx context.Context, scope string, filters []sq.Sqlizer) (int, error)
	ByID(ctx context.Context, id uuid.UUID) (*models.BlogItem, error)
	ByName(ctx context.Context, name string) (*models.BlogItem, error)
	NameExists(ctx context.Context, name string) (bool, error)
	Related(ctx context.Context, match RelatedMatch, limit uint64) ([]models.BlogItem, error)
	Search(ctx context.Context, scope string, match RelatedMatch, limit, offset uint64) ([]models.BlogItem, error)
	CountReferencing(ctx context.Context, field string, id uuid.UUID) (int, error)
	ArchiveDates(ctx context.Context) ([]models.ArchiveDate, error)
	Create(ctx context.Context, item models.BlogItem) (uuid.UUID, error)
}

type CategoryRepository interface {
	ByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	ByPath(ctx context.Context, path string, kind models.CategoryKind) (*models.Category, error)
	ByName(ctx context.Context, name string, kind models.CategoryKind) (*models.Category, error)
	All(ctx context.Context, kind models.CategoryKind) ([]models.Category, error)
	// DescendantIDs returns the id plus every descendant category id, the
	// explicit tree traversal behind by-category listings.
	DescendantIDs(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error)
}

type ContactRepository interface {
	ByID(ctx context.Context, id uuid.UUID) (*models.Contact, error)
	ByPath(ctx context.Context, path string) (*models.Contact, error)
	ByEmail(ctx context.Context, email string) (*models.Contact, error)
	All(ctx context.Context) ([]models.Contact, error)
	NameExists(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, contact models.Contact) (uuid.UUID, error)
}

type AssetRepository interface {
	NameExists(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, asset models.Asset) (uuid.UUID, error)
}

type UserRepository interface {
	SaveUser(ctx context.Context, user models.User) (uuid.UUID, error)
	UserByEmail(ctx context.Context, email string) (models.User, error)
	GetUserById(ctx context.Context, userID uuid.UUID) (models.User, error)
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
}

type TokenRepository interface {
	SaveRefreshToken(ctx context.Context, userID, token string, exp time.Duration) error
	GetRefreshToken(ctx context.Context, userID, token string) (bool, error)
	DeleteRefreshToken(ctx context.Context, userID, token string) error
	DeleteAllUserTokens(ctx context.Context, userID string) error
}

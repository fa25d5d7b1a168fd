package services

import (
	"context"
	"fmt"

	"github.com/tricode/magnolia-blog/internal/repository"

	"github.com/jackc/pgx/v4/pgxpool"
)

// PgSessionFactory opens store sessions as database transactions, so an
// aborted run leaves no trace in any store.
type PgSessionFactory struct {
	pool *pgxpool.Pool
}

func NewPgSessionFactory(pool *pgxpool.Pool) *PgSessionFactory {
	return &PgSessionFactory{pool: pool}
}

func (f *PgSessionFactory) BlogSession(ctx context.Context) (repository.BlogRepository, Tx, error) {
	const op = "import_service.PgSessionFactory.BlogSession"

	tx, err := f.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	return repository.NewBlogRepository(tx), tx, nil
}

func (f *PgSessionFactory) ContactSession(ctx context.Context) (repository.ContactRepository, Tx, error) {
	const op = "import_service.PgSessionFactory.ContactSession"

	tx, err := f.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	return repository.NewContactRepository(tx), tx, nil
}

func (f *PgSessionFactory) AssetSession(ctx context.Context) (repository.AssetRepository, Tx, error) {
	const op = "import_service.PgSessionFactory.AssetSession"

	tx, err := f.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	return repository.NewAssetRepository(tx), tx, nil
}

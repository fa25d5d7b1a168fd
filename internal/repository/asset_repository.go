package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/tricode/magnolia-blog/internal/domain/models"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
)

const assetTable = "assets"

type AssetRepo struct {
	db DB
	sb sq.StatementBuilderType
}

func NewAssetRepository(db DB) *AssetRepo {
	return &AssetRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (a *AssetRepo) NameExists(ctx context.Context, name string) (bool, error) {
	const op = "repository.asset_repository.NameExists"

	query, args, err := a.sb.Select("1").
		From(assetTable).
		Where(sq.Eq{"name": name}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	var one int
	if err := a.db.QueryRow(ctx, query, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return true, nil
}

func (a *AssetRepo) Create(ctx context.Context, asset models.Asset) (uuid.UUID, error) {
	const op = "repository.asset_repository.Create"

	query, args, err := a.sb.Insert(assetTable).
		Columns(
			"name", "extension", "file_name", "size",
			"width", "height", "mime_type", "data", "created_at",
		).
		Values(
			asset.Name, asset.Extension, asset.FileName, asset.Size,
			asset.Width, asset.Height, asset.MimeType, asset.Data, asset.CreatedAt,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	var id uuid.UUID
	if err := a.db.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

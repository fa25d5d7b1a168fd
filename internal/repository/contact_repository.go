package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/tricode/magnolia-blog/internal/domain/models"
	"github.com/tricode/magnolia-blog/internal/storage"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
)

const contactTable = "contacts"

var contactColumns = []string{
	"id", "name", "path", "first_name", "last_name", "email", "website", "created_at",
}

type ContactRepo struct {
	db DB
	sb sq.StatementBuilderType
}

func NewContactRepository(db DB) *ContactRepo {
	return &ContactRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (c *ContactRepo) ByID(ctx context.Context, id uuid.UUID) (*models.Contact, error) {
	const op = "repository.contact_repository.ByID"
	return c.one(ctx, op, sq.Eq{"id": id})
}

func (c *ContactRepo) ByPath(ctx context.Context, path string) (*models.Contact, error) {
	const op = "repository.contact_repository.ByPath"
	return c.one(ctx, op, sq.Eq{"path": path})
}

// ByEmail returns the first contact with the given email address. Matching is
// case-insensitive so re-imports find contacts stored with mixed-case mail.
func (c *ContactRepo) ByEmail(ctx context.Context, email string) (*models.Contact, error) {
	const op = "repository.contact_repository.ByEmail"
	return c.one(ctx, op, EmailPredicate(email))
}

func (c *ContactRepo) All(ctx context.Context) ([]models.Contact, error) {
	const op = "repository.contact_repository.All"

	query, args, err := c.sb.Select(contactColumns...).
		From(contactTable).
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := c.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var contacts []models.Contact
	for rows.Next() {
		var contact models.Contact
		if err := scanContact(rows, &contact); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		contacts = append(contacts, contact)
	}

	return contacts, nil
}

func (c *ContactRepo) NameExists(ctx context.Context, name string) (bool, error) {
	const op = "repository.contact_repository.NameExists"

	query, args, err := c.sb.Select("1").
		From(contactTable).
		Where(sq.Eq{"name": name}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	var one int
	if err := c.db.QueryRow(ctx, query, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return true, nil
}

func (c *ContactRepo) Create(ctx context.Context, contact models.Contact) (uuid.UUID, error) {
	const op = "repository.contact_repository.Create"

	query, args, err := c.sb.Insert(contactTable).
		Columns("name", "path", "first_name", "last_name", "email", "website", "created_at").
		Values(
			contact.Name, contact.Path, contact.FirstName, contact.LastName,
			contact.Email, contact.Website, contact.CreatedAt,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	var id uuid.UUID
	if err := c.db.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (c *ContactRepo) one(ctx context.Context, op string, where sq.Sqlizer) (*models.Contact, error) {
	query, args, err := c.sb.Select(contactColumns...).
		From(contactTable).
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var contact models.Contact
	if err := scanContact(c.db.QueryRow(ctx, query, args...), &contact); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrContactNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &contact, nil
}

func scanContact(row pgx.Row, contact *models.Contact) error {
	return row.Scan(
		&contact.ID, &contact.Name, &contact.Path, &contact.FirstName,
		&contact.LastName, &contact.Email, &contact.Website, &contact.CreatedAt,
	)
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// CategoryKind separates categories from tags inside the taxonomy store.
type CategoryKind string

const (
	KindCategory CategoryKind = "category"
	KindTag      CategoryKind = "tag"
)

// Category is a taxonomy node referenced by blog items through its id.
type Category struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	Path        string     `db:"path" json:"path"`
	DisplayName string     `db:"display_name" json:"display_name"`
	Kind        CategoryKind `db:"kind" json:"kind"`
	ParentID    *uuid.UUID `db:"parent_id" json:"parent_id,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// Contact is an author node in the contacts store.
type Contact struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Path      string    `db:"path" json:"path"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Email     string    `db:"email" json:"email"`
	Website   string    `db:"website" json:"website,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// FullName joins first and last name for display.
func (c Contact) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	default:
		return c.FirstName + " " + c.LastName
	}
}

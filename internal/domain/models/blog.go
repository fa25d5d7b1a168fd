package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReferenceListSeparator delimits reference ids stored inside a single node
// property (categories, tags).
const ReferenceListSeparator = ";"

// BlogItem is a content node in the blogs store. Categories and Tags hold
// delimited reference ids into the taxonomy store, Author a reference id into
// the contacts store.
type BlogItem struct {
	ID                    uuid.UUID  `db:"id" json:"id"`
	Name                  string     `db:"name" json:"name"`
	Path                  string     `db:"path" json:"path"`
	Title                 string     `db:"title" json:"title"`
	Summary               string     `db:"summary" json:"summary,omitempty"`
	Message               string     `db:"message" json:"message"`
	Author                *uuid.UUID `db:"author" json:"author,omitempty"`
	CommentsEnabled       bool       `db:"comments_enabled" json:"comments_enabled"`
	Categories            string     `db:"categories" json:"categories,omitempty"`
	Tags                  string     `db:"tags" json:"tags,omitempty"`
	Permalink             string     `db:"permalink" json:"permalink,omitempty"`
	InitialActivationDate *time.Time `db:"initial_activation_date" json:"initial_activation_date,omitempty"`
	PublishDate           *time.Time `db:"publish_date" json:"publish_date,omitempty"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
}

// CategoryIDs splits the delimited categories property into reference ids.
// Malformed entries are skipped.
func (b BlogItem) CategoryIDs() []uuid.UUID {
	return splitReferenceList(b.Categories)
}

// TagIDs splits the delimited tags property into reference ids.
func (b BlogItem) TagIDs() []uuid.UUID {
	return splitReferenceList(b.Tags)
}

func splitReferenceList(list string) []uuid.UUID {
	var ids []uuid.UUID
	for _, part := range strings.Split(list, ReferenceListSeparator) {
		id, err := uuid.Parse(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// JoinReferenceList renders reference ids back into the stored property form.
func JoinReferenceList(ids []uuid.UUID) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, id.String())
	}
	return strings.Join(parts, ReferenceListSeparator)
}

// BlogResult is one window of an ordered listing.
// NumPages = ceil(TotalCount / pageSize); Results holds at most pageSize items
// starting at (page-1)*pageSize.
type BlogResult struct {
	TotalCount int        `json:"total_count"`
	NumPages   int        `json:"num_pages"`
	Results    []BlogItem `json:"results"`
}

// CloudEntry is one taxonomy term (or author) with its usage score.
// Scale is clamped to [0,9].
type CloudEntry struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Title string    `json:"title"`
	Count int       `json:"count"`
	Scale int       `json:"scale"`
}

// ArchiveDate is one distinct year/month pair with at least one blog item.
type ArchiveDate struct {
	Year  string `json:"year"`
	Month string `json:"month"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Asset is a binary node in the media store, created by the import pipeline
// for embedded blog images.
type Asset struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Extension string    `db:"extension" json:"extension"`
	FileName  string    `db:"file_name" json:"file_name"`
	Size      int64     `db:"size" json:"size"`
	Width     int       `db:"width" json:"width"`
	Height    int       `db:"height" json:"height"`
	MimeType  string    `db:"mime_type" json:"mime_type"`
	Data      []byte    `db:"data" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Link is the canonical render-time URL of the asset.
func (a Asset) Link() string {
	return "/dam/" + a.Name
}

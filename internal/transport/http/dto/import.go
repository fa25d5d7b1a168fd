package dto

// WordpressImportRequest describes one import run against a WordPress site's
// XML-RPC endpoint.
type WordpressImportRequest struct {
	Endpoint      string `json:"endpoint" validate:"required,url"`
	BlogID        int    `json:"blog_id" validate:"required,min=1"`
	Username      string `json:"username" validate:"required"`
	Password      string `json:"password" validate:"required"`
	ImportAuthors bool   `json:"import_authors"`
	ImportImages  bool   `json:"import_images"`
}

// ImportReport summarizes what a completed run created.
type ImportReport struct {
	PostsImported   int `json:"posts_imported"`
	ContactsCreated int `json:"contacts_created"`
	ImagesImported  int `json:"images_imported"`
}

package documents

import "time"

// Document captures the host-provided metadata for one editable document.
type Document struct {
	DocumentID string    `gorm:"column:document_id;primaryKey;size:190;not null"`
	AuthorID   string    `gorm:"column:author_id;size:190;not null"`
	Title      string    `gorm:"column:title;size:320"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Document) TableName() string {
	return "documents"
}

// MetaRecord is one named slot of per-document metadata with a JSON payload.
// It models the host's post-meta storage explicitly: comment snapshots and the
// contributor set live in named slots keyed by document.
type MetaRecord struct {
	DocumentID       string `gorm:"column:document_id;primaryKey;size:190;not null"`
	MetaKey          string `gorm:"column:meta_key;primaryKey;size:64;not null"`
	PayloadJSON      string `gorm:"column:payload_json;type:text;not null"`
	UpdatedAtSeconds int64  `gorm:"column:updated_at_s;not null"`
}

// TableName provides the explicit table binding for GORM.
func (MetaRecord) TableName() string {
	return "document_meta"
}

// Meta slot names. The previous snapshot always lags the current one by
// exactly one save cycle; it is the diff baseline for notifications.
const (
	MetaKeyCommentsCurrent  = "comments_current"
	MetaKeyCommentsPrevious = "comments_previous"
	MetaKeyContributors     = "contributors"
	MetaKeyLastUpdated      = "comments_last_updated"
)

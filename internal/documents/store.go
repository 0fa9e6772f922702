package documents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/draftroomhq/draftroom/backend/internal/comments"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrDocumentNotFound indicates the requested document has no record.
var ErrDocumentNotFound = errors.New("documents: document not found")

// StoreConfig describes the dependencies for the document meta store.
type StoreConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
}

// Store persists documents and their meta slots.
type Store struct {
	db    *gorm.DB
	clock func() time.Time
}

// NewStore constructs the document store.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("documents: database connection required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Store{db: cfg.Database, clock: clock}, nil
}

// Get returns the document record for the given identifier.
func (s *Store) Get(ctx context.Context, documentID string) (Document, error) {
	var document Document
	err := s.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Take(&document).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Document{}, ErrDocumentNotFound
	}
	if err != nil {
		return Document{}, err
	}
	return document, nil
}

// Upsert records the host-provided document metadata.
func (s *Store) Upsert(ctx context.Context, document Document) error {
	return UpsertDocument(s.db.WithContext(ctx), document)
}

// CurrentComments returns the current comment snapshot for the document.
func (s *Store) CurrentComments(ctx context.Context, documentID string) (comments.Collection, error) {
	return ReadSnapshot(s.db.WithContext(ctx), documentID, MetaKeyCommentsCurrent)
}

// Contributors returns the append-only set of users who have ever saved the
// document, in first-seen order.
func (s *Store) Contributors(ctx context.Context, documentID string) ([]string, error) {
	return ReadContributors(s.db.WithContext(ctx), documentID)
}

// The package-level helpers below take an explicit database handle so the
// save pipeline can run them inside its own transaction.

// UpsertDocument writes the document record, updating author and title on
// conflict.
func UpsertDocument(db *gorm.DB, document Document) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "document_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"author_id", "title", "updated_at"}),
	}).Create(&document).Error
}

// ReadSnapshot loads and decodes the comment collection stored under the
// given meta slot. A missing slot reads as an empty collection.
func ReadSnapshot(db *gorm.DB, documentID, metaKey string) (comments.Collection, error) {
	payload, found, err := readMeta(db, documentID, metaKey)
	if err != nil {
		return nil, err
	}
	if !found || payload == "" {
		return nil, nil
	}

	var collection comments.Collection
	if err := json.Unmarshal([]byte(payload), &collection); err != nil {
		return nil, fmt.Errorf("documents: decode %s: %w", metaKey, err)
	}
	return collection, nil
}

// WriteSnapshot encodes and stores the comment collection under the given
// meta slot.
func WriteSnapshot(db *gorm.DB, documentID, metaKey string, collection comments.Collection, now time.Time) error {
	if collection == nil {
		collection = comments.Collection{}
	}
	payload, err := json.Marshal(collection)
	if err != nil {
		return fmt.Errorf("documents: encode %s: %w", metaKey, err)
	}
	return writeMeta(db, documentID, metaKey, string(payload), now)
}

// TouchLastUpdated records the save time in the last-updated meta slot.
func TouchLastUpdated(db *gorm.DB, documentID string, now time.Time) error {
	payload, err := json.Marshal(now.UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}
	return writeMeta(db, documentID, MetaKeyLastUpdated, string(payload), now)
}

// ReadContributors loads the contributor set for the document.
func ReadContributors(db *gorm.DB, documentID string) ([]string, error) {
	payload, found, err := readMeta(db, documentID, MetaKeyContributors)
	if err != nil {
		return nil, err
	}
	if !found || payload == "" {
		return nil, nil
	}

	var contributors []string
	if err := json.Unmarshal([]byte(payload), &contributors); err != nil {
		return nil, fmt.Errorf("documents: decode contributors: %w", err)
	}
	return contributors, nil
}

// AddContributor appends the user to the document's contributor set if absent
// and returns the resulting set. The set never shrinks.
func AddContributor(db *gorm.DB, documentID, userID string, now time.Time) ([]string, error) {
	contributors, err := ReadContributors(db, documentID)
	if err != nil {
		return nil, err
	}
	for _, existing := range contributors {
		if existing == userID {
			return contributors, nil
		}
	}

	contributors = append(contributors, userID)
	payload, err := json.Marshal(contributors)
	if err != nil {
		return nil, err
	}
	if err := writeMeta(db, documentID, MetaKeyContributors, string(payload), now); err != nil {
		return nil, err
	}
	return contributors, nil
}

func readMeta(db *gorm.DB, documentID, metaKey string) (string, bool, error) {
	var record MetaRecord
	err := db.
		Where("document_id = ? AND meta_key = ?", documentID, metaKey).
		Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return record.PayloadJSON, true, nil
}

func writeMeta(db *gorm.DB, documentID, metaKey, payload string, now time.Time) error {
	record := MetaRecord{
		DocumentID:       documentID,
		MetaKey:          metaKey,
		PayloadJSON:      payload,
		UpdatedAtSeconds: now.UTC().Unix(),
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "document_id"}, {Name: "meta_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload_json", "updated_at_s"}),
	}).Create(&record).Error
}

package publishing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/draftroomhq/draftroom/backend/internal/comments"
	"github.com/draftroomhq/draftroom/backend/internal/documents"
	"github.com/draftroomhq/draftroom/backend/internal/notify"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errMissingDatabase   = errors.New("database handle is required")
	errMissingResolver   = errors.New("recipient resolver is required")
	errMissingDispatcher = errors.New("notification dispatcher is required")
	errMissingIDProvider = errors.New("id provider is required")
	errMissingDocumentID = errors.New("document identifier is required")
	errMissingActorID    = errors.New("actor identifier is required")
	noOpLogger           = zap.NewNop()
)

// ServiceError carries an operation-scoped error code alongside its cause.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew = "publishing.service.new"
	opHandleSave = "publishing.handle_save"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// IDProvider issues identifiers for notification log rows.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig describes the dependencies of the save pipeline.
type ServiceConfig struct {
	Database   *gorm.DB
	Resolver   *notify.Resolver
	Dispatcher *notify.Dispatcher
	IDProvider IDProvider
	Clock      func() time.Time
	Logger     *zap.Logger
}

// Service runs the per-save pipeline: contributor tracking, snapshot diff,
// thread classification, recipient resolution, and email dispatch. The
// snapshot rotation is transactional; dispatch runs after commit and is
// best-effort, so notification failures never fail the save itself.
type Service struct {
	db         *gorm.DB
	resolver   *notify.Resolver
	dispatcher *notify.Dispatcher
	idProvider IDProvider
	clock      func() time.Time
	logger     *zap.Logger
}

// NewService constructs the save pipeline service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}
	if cfg.Resolver == nil {
		return nil, newServiceError(opServiceNew, "missing_resolver", errMissingResolver)
	}
	if cfg.Dispatcher == nil {
		return nil, newServiceError(opServiceNew, "missing_dispatcher", errMissingDispatcher)
	}
	if cfg.IDProvider == nil {
		return nil, newServiceError(opServiceNew, "missing_id_provider", errMissingIDProvider)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{
		db:         cfg.Database,
		resolver:   cfg.Resolver,
		dispatcher: cfg.Dispatcher,
		idProvider: cfg.IDProvider,
		clock:      clock,
		logger:     logger,
	}, nil
}

// SaveRequest is one document save submitted by the host editor.
type SaveRequest struct {
	DocumentID string
	AuthorID   string
	Title      string
	ActorID    string
	// Comments is the full current comment collection; the service diffs it
	// against the persisted baseline from the last save. A nil collection
	// means the save carried no comment payload at all, which records the
	// contributor but leaves the stored snapshots alone; an empty non-nil
	// collection replaces the snapshot as usual.
	Comments comments.Collection
}

// SaveResult reports what one save cycle did.
type SaveResult struct {
	NewComments       int
	NotificationsSent int
}

// HandleSave runs one save cycle. Concurrent saves of the same document are
// last-write-wins; no cross-request lock is taken.
func (s *Service) HandleSave(ctx context.Context, request SaveRequest) (SaveResult, error) {
	if request.DocumentID == "" {
		return SaveResult{}, newServiceError(opHandleSave, "missing_document_id", errMissingDocumentID)
	}
	if request.ActorID == "" {
		return SaveResult{}, newServiceError(opHandleSave, "missing_actor_id", errMissingActorID)
	}
	if err := request.Comments.Validate(); err != nil {
		s.logError(opHandleSave, "invalid_collection", err, zap.String("document_id", request.DocumentID))
		return SaveResult{}, newServiceError(opHandleSave, "invalid_collection", err)
	}

	now := s.clock().UTC()
	var previous comments.Collection
	var contributors []string

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := documents.UpsertDocument(tx, documents.Document{
			DocumentID: request.DocumentID,
			AuthorID:   request.AuthorID,
			Title:      request.Title,
		}); err != nil {
			return newServiceError(opHandleSave, "document_upsert_failed", err)
		}

		// The editor is a contributor even when the save carries no comments.
		tracked, err := documents.AddContributor(tx, request.DocumentID, request.ActorID, now)
		if err != nil {
			return newServiceError(opHandleSave, "contributor_update_failed", err)
		}
		contributors = tracked

		// A save without a comment payload (title-only edits, autosaves)
		// stops here: the snapshots and the diff baseline stay untouched. A
		// present-but-empty collection still rotates, because it means every
		// comment was deleted.
		if request.Comments == nil {
			return nil
		}

		// The diff baseline is read before it is rotated; after this save the
		// submitted collection becomes the baseline for the next one.
		previous, err = documents.ReadSnapshot(tx, request.DocumentID, documents.MetaKeyCommentsPrevious)
		if err != nil {
			return newServiceError(opHandleSave, "baseline_read_failed", err)
		}

		if err := documents.WriteSnapshot(tx, request.DocumentID, documents.MetaKeyCommentsCurrent, request.Comments, now); err != nil {
			return newServiceError(opHandleSave, "snapshot_write_failed", err)
		}
		if err := documents.WriteSnapshot(tx, request.DocumentID, documents.MetaKeyCommentsPrevious, request.Comments, now); err != nil {
			return newServiceError(opHandleSave, "baseline_write_failed", err)
		}
		return documents.TouchLastUpdated(tx, request.DocumentID, now)
	})
	if txErr != nil {
		s.logError(opHandleSave, "transaction_failed", txErr, zap.String("document_id", request.DocumentID))
		return SaveResult{}, txErr
	}
	if request.Comments == nil {
		return SaveResult{}, nil
	}

	fresh := comments.Diff(previous, request.Comments)

	// Empty comments persist in the snapshot (drafts in progress) but are
	// invisible to notification.
	batch := make(comments.Collection, 0, len(fresh))
	for _, comment := range fresh {
		if !comment.IsEmpty() {
			batch = append(batch, comment)
		}
	}
	if len(batch) == 0 {
		return SaveResult{}, nil
	}

	document := notify.DocumentInfo{
		DocumentID: request.DocumentID,
		AuthorID:   request.AuthorID,
		Title:      request.Title,
	}
	index := comments.NewThreadIndex(request.Comments)

	var events []notify.Event
	for _, comment := range batch {
		classification := index.Classify(comment)
		events = append(events, s.resolver.Resolve(ctx, document, classification, contributors, batch)...)
	}

	sent := s.dispatchAll(ctx, events, now)

	return SaveResult{
		NewComments:       len(batch),
		NotificationsSent: sent,
	}, nil
}

// dispatchAll delivers resolved events best-effort: every failure is logged
// and the remaining recipients still get their mail. Each delivered message
// appends one audit row.
func (s *Service) dispatchAll(ctx context.Context, events []notify.Event, now time.Time) int {
	sent := 0
	for _, event := range events {
		delivered, err := s.dispatcher.Dispatch(ctx, event)
		if err != nil {
			s.logger.Warn("notification dispatch failed",
				zap.String("document_id", event.Document.DocumentID),
				zap.String("recipient_id", event.RecipientID),
				zap.String("category", event.Category.String()),
				zap.Error(err))
			continue
		}
		if !delivered {
			continue
		}
		sent++

		notificationID, err := s.idProvider.NewID()
		if err != nil {
			s.logError(opHandleSave, "id_generation_failed", err, zap.String("document_id", event.Document.DocumentID))
			continue
		}
		record := NotificationRecord{
			NotificationID: notificationID,
			DocumentID:     event.Document.DocumentID,
			RecipientID:    event.RecipientID,
			ActorID:        event.ActorID,
			Category:       event.Category.String(),
			CommentKey:     event.Comment.CreatedAt.Int64(),
			SentAtSeconds:  now.Unix(),
		}
		if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
			s.logError(opHandleSave, "audit_insert_failed", err,
				zap.String("document_id", event.Document.DocumentID),
				zap.String("recipient_id", event.RecipientID))
		}
	}
	return sent
}

func (s *Service) loggerOrDefault() *zap.Logger {
	if s == nil || s.logger == nil {
		return noOpLogger
	}
	return s.logger
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.loggerOrDefault().Error("publishing service error", attrs...)
}

package notify

import (
	"context"

	"github.com/draftroomhq/draftroom/backend/internal/comments"
	"go.uber.org/zap"
)

// PreferenceSource answers per-user category opt-out lookups. Absence of an
// explicit setting reads as enabled.
type PreferenceSource interface {
	CategoryEnabled(ctx context.Context, userID, category string) (bool, error)
}

// DocumentInfo is the document context a resolution runs against.
type DocumentInfo struct {
	DocumentID string
	AuthorID   string
	Title      string
}

// Event is one pending notification: exactly one email per (recipient,
// comment) pair. Events are ephemeral; they exist only between resolution and
// dispatch.
type Event struct {
	RecipientID string
	ActorID     string
	Document    DocumentInfo
	Category    Category
	Comment     comments.Comment
	// Batch carries every new comment of the save for quoted display.
	Batch comments.Collection
}

// Resolver computes the deduplicated recipient set for each new comment.
type Resolver struct {
	preferences PreferenceSource
	logger      *zap.Logger
}

// NewResolver constructs a Resolver. A nil logger is replaced with a no-op.
func NewResolver(preferences PreferenceSource, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{preferences: preferences, logger: logger}
}

// Resolve walks the notification rules for one classified new comment and
// returns the events to dispatch, ordered by discovery. More specific
// relationships resolve first and suppress broader ones for the same person:
// no recipient appears twice for one comment, and the actor never receives
// anything. The per-comment notified set starts seeded with the actor.
func (r *Resolver) Resolve(
	ctx context.Context,
	document DocumentInfo,
	classification comments.Classification,
	contributors []string,
	batch comments.Collection,
) []Event {
	comment := classification.Comment
	actorID := comment.AuthorID.String()

	notified := map[string]struct{}{actorID: {}}
	var events []Event

	emit := func(recipientID string, category Category) {
		if recipientID == "" || recipientID == actorID {
			return
		}
		if _, done := notified[recipientID]; done {
			return
		}
		notified[recipientID] = struct{}{}

		enabled, err := r.preferences.CategoryEnabled(ctx, recipientID, category.String())
		if err != nil {
			// Preference lookup failures fall back to the default (enabled)
			// rather than silently dropping the notification.
			r.logger.Warn("preference lookup failed",
				zap.String("recipient_id", recipientID),
				zap.String("category", category.String()),
				zap.Error(err))
			enabled = true
		}
		if !enabled {
			return
		}

		events = append(events, Event{
			RecipientID: recipientID,
			ActorID:     actorID,
			Document:    document,
			Category:    category,
			Comment:     comment,
			Batch:       batch,
		})
	}

	switch classification.Role {
	case comments.RoleRoot:
		emit(document.AuthorID, CategoryRootAuthor)
	case comments.RoleReply:
		emit(document.AuthorID, CategoryDirectReply)
		parentAuthor := classification.Parent.AuthorID.String()
		if parentAuthor != document.AuthorID {
			emit(parentAuthor, CategoryDirectReply)
		}
		for _, sibling := range classification.Siblings {
			siblingAuthor := sibling.AuthorID.String()
			if siblingAuthor == document.AuthorID || siblingAuthor == parentAuthor {
				continue
			}
			emit(siblingAuthor, CategoryThreadParticipant)
		}
	case comments.RoleOrphan:
		// Parent is gone; the parent-author and thread paths are
		// unresolvable, but the document author and contributors still hear
		// about the reply.
		emit(document.AuthorID, CategoryDirectReply)
	}

	for _, contributorID := range contributors {
		emit(contributorID, CategoryContributor)
	}

	return events
}

package comments

import (
	"errors"
	"fmt"
	"strings"
)

const maxIdentifierLength = 190

// RootSentinel is the ParentKey value marking a comment as a thread root.
const RootSentinel CommentKey = 0

var (
	// ErrInvalidCommentKey indicates a comment identity key that is not positive.
	ErrInvalidCommentKey = errors.New("comments: invalid comment key")
	// ErrInvalidAuthorID indicates an author identifier that is empty or exceeds storage bounds.
	ErrInvalidAuthorID = errors.New("comments: invalid author id")
	// ErrDuplicateKey indicates two comments in one collection sharing an identity key.
	ErrDuplicateKey = errors.New("comments: duplicate comment key")
)

// CommentKey is the identity of a comment within a document: the creation
// timestamp assigned by the editor. Keys are unique per document and double
// as the reply-parent reference, so there is no separate id column.
type CommentKey int64

// NewCommentKey validates the raw timestamp value and returns a CommentKey.
func NewCommentKey(value int64) (CommentKey, error) {
	if value <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidCommentKey, value)
	}
	return CommentKey(value), nil
}

// Int64 exposes the raw key value.
func (k CommentKey) Int64() int64 {
	return int64(k)
}

// AuthorID identifies the user who wrote a comment.
type AuthorID string

// NewAuthorID validates raw input and returns an AuthorID.
func NewAuthorID(rawInput string) (AuthorID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidAuthorID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidAuthorID, maxIdentifierLength)
	}
	return AuthorID(trimmed), nil
}

// String returns the underlying string identifier.
func (id AuthorID) String() string {
	return string(id)
}

// Comment is one entry in a document's flat block-comment collection.
type Comment struct {
	AuthorID  AuthorID   `json:"authorId"`
	Text      string     `json:"text"`
	CreatedAt CommentKey `json:"createdAt"`
	ParentKey CommentKey `json:"parentId"`
	BlockID   string     `json:"blockId,omitempty"`
}

// IsRoot reports whether the comment starts a thread.
func (c Comment) IsRoot() bool {
	return c.ParentKey == RootSentinel
}

// IsEmpty reports whether the comment carries no visible text. Empty comments
// persist in storage (they may be drafts in progress) but are excluded from
// diffing and notification.
func (c Comment) IsEmpty() bool {
	return strings.TrimSpace(c.Text) == ""
}

// Collection is a full comment snapshot for one document at one point in time.
// Order is not significant.
type Collection []Comment

// Validate checks key uniqueness across the collection.
func (col Collection) Validate() error {
	seen := make(map[CommentKey]struct{}, len(col))
	for _, comment := range col {
		if comment.CreatedAt <= 0 {
			return fmt.Errorf("%w: %d", ErrInvalidCommentKey, comment.CreatedAt.Int64())
		}
		if _, exists := seen[comment.CreatedAt]; exists {
			return fmt.Errorf("%w: %d", ErrDuplicateKey, comment.CreatedAt.Int64())
		}
		seen[comment.CreatedAt] = struct{}{}
	}
	return nil
}

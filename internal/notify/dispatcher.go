package notify

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/draftroomhq/draftroom/backend/internal/users"
	"go.uber.org/zap"
)

var (
	errMissingMailer        = errors.New("notify: mailer is required")
	errMissingUserDirectory = errors.New("notify: user directory is required")
)

// Mailer delivers one rendered message. Implementations are synchronous; the
// dispatcher treats a returned error as a transport failure to log, never to
// retry.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// UserDirectory resolves recipient and actor profiles.
type UserDirectory interface {
	GetUser(ctx context.Context, userID string) (users.User, error)
}

// OptOutTokenSource mints the signed token embedded in unsubscribe links.
type OptOutTokenSource interface {
	IssueOptOutToken(userID, category string) (string, error)
}

// DispatcherConfig describes the dependencies for the dispatcher.
type DispatcherConfig struct {
	Mailer        Mailer
	Users         UserDirectory
	Tokens        OptOutTokenSource
	BaseURL       string
	EditorBaseURL string
	Logger        *zap.Logger
}

// Dispatcher renders and sends one email per resolved event.
type Dispatcher struct {
	mailer        Mailer
	users         UserDirectory
	tokens        OptOutTokenSource
	baseURL       string
	editorBaseURL string
	logger        *zap.Logger
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(cfg DispatcherConfig) (*Dispatcher, error) {
	if cfg.Mailer == nil {
		return nil, errMissingMailer
	}
	if cfg.Users == nil {
		return nil, errMissingUserDirectory
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	editorBaseURL := cfg.EditorBaseURL
	if editorBaseURL == "" {
		editorBaseURL = cfg.BaseURL
	}
	return &Dispatcher{
		mailer:        cfg.Mailer,
		users:         cfg.Users,
		tokens:        cfg.Tokens,
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		editorBaseURL: strings.TrimRight(editorBaseURL, "/"),
		logger:        logger,
	}, nil
}

// Dispatch sends exactly one email for the event. It no-ops silently when the
// recipient is the actor or when either user record cannot be resolved, and
// returns an error only for render or transport failures.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) (bool, error) {
	if event.RecipientID == event.ActorID {
		return false, nil
	}
	if event.Document.DocumentID == "" {
		return false, nil
	}

	recipient, err := d.users.GetUser(ctx, event.RecipientID)
	if errors.Is(err, users.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	actor, err := d.users.GetUser(ctx, event.ActorID)
	if errors.Is(err, users.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	subject := headline(event.Category, actor.FullName())
	body, err := d.renderBody(subject, event, recipient)
	if err != nil {
		return false, fmt.Errorf("notify: render message: %w", err)
	}

	if err := d.mailer.Send(recipient.Email, subject, body); err != nil {
		return false, fmt.Errorf("notify: send to %s: %w", event.RecipientID, err)
	}

	d.logger.Debug("notification sent",
		zap.String("recipient_id", event.RecipientID),
		zap.String("document_id", event.Document.DocumentID),
		zap.String("category", event.Category.String()))
	return true, nil
}

// headline builds the category-specific message with the actor's name
// substituted in.
func headline(category Category, actorName string) string {
	if actorName == "" {
		actorName = "Someone"
	}
	switch category {
	case CategoryRootAuthor:
		return fmt.Sprintf("%s has commented on your post.", actorName)
	case CategoryDirectReply:
		return fmt.Sprintf("%s has replied to your comment.", actorName)
	case CategoryThreadParticipant:
		return fmt.Sprintf("%s has replied to a comment.", actorName)
	case CategoryContributor:
		return fmt.Sprintf("%s has commented on a post.", actorName)
	}
	return fmt.Sprintf("%s has commented.", actorName)
}

func (d *Dispatcher) renderBody(subject string, event Event, recipient users.User) (string, error) {
	quoted := make([]string, 0, len(event.Batch))
	for _, comment := range event.Batch {
		if comment.IsEmpty() {
			continue
		}
		quoted = append(quoted, comment.Text)
	}

	data := messageData{
		AppName:  appName,
		Headline: subject,
		Title:    event.Document.Title,
		Comments: quoted,
		EditURL:  fmt.Sprintf("%s/documents/%s/edit", d.editorBaseURL, url.PathEscape(event.Document.DocumentID)),
		ViewURL:  fmt.Sprintf("%s/documents/%s", d.editorBaseURL, url.PathEscape(event.Document.DocumentID)),
	}

	if d.tokens != nil {
		token, err := d.tokens.IssueOptOutToken(recipient.UserID, event.Category.String())
		if err != nil {
			return "", err
		}
		data.OptOutURL = fmt.Sprintf("%s/unsubscribe?token=%s", d.baseURL, url.QueryEscape(token))
	}

	return renderNotificationEmail(data)
}

package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/draftroomhq/draftroom/backend/internal/comments"
	"github.com/draftroomhq/draftroom/backend/internal/users"
)

type recordedMail struct {
	To      string
	Subject string
	Body    string
}

type stubMailer struct {
	sent []recordedMail
	fail bool
}

func (m *stubMailer) Send(to, subject, htmlBody string) error {
	if m.fail {
		return errors.New("smtp connection refused")
	}
	m.sent = append(m.sent, recordedMail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

type stubDirectory struct {
	profiles map[string]users.User
}

func (d *stubDirectory) GetUser(_ context.Context, userID string) (users.User, error) {
	user, ok := d.profiles[userID]
	if !ok {
		return users.User{}, users.ErrUserNotFound
	}
	return user, nil
}

type stubTokens struct{}

func (stubTokens) IssueOptOutToken(userID, category string) (string, error) {
	return "token-" + userID + "-" + category, nil
}

func newTestDispatcher(t *testing.T, mailer *stubMailer, directory *stubDirectory) *Dispatcher {
	t.Helper()
	dispatcher, err := NewDispatcher(DispatcherConfig{
		Mailer:        mailer,
		Users:         directory,
		Tokens:        stubTokens{},
		BaseURL:       "https://draftroom.example",
		EditorBaseURL: "https://edit.draftroom.example",
	})
	if err != nil {
		t.Fatalf("failed to construct dispatcher: %v", err)
	}
	return dispatcher
}

func testEvent(t *testing.T) Event {
	t.Helper()
	comment := makeComment(t, "user-2", "hello there", 100, 0)
	return Event{
		RecipientID: "user-1",
		ActorID:     "user-2",
		Document:    DocumentInfo{DocumentID: "doc-1", AuthorID: "user-1", Title: "Launch plan"},
		Category:    CategoryRootAuthor,
		Comment:     comment,
		Batch:       comments.Collection{comment, makeComment(t, "user-2", "  ", 101, 0)},
	}
}

func TestDispatchSendsRenderedMail(t *testing.T) {
	mailer := &stubMailer{}
	directory := &stubDirectory{profiles: map[string]users.User{
		"user-1": {UserID: "user-1", Email: "author@example.com", DisplayName: "Doc Author"},
		"user-2": {UserID: "user-2", Email: "commenter@example.com", FirstName: "Ada", LastName: "Lovelace"},
	}}
	dispatcher := newTestDispatcher(t, mailer, directory)

	delivered, err := dispatcher.Dispatch(context.Background(), testEvent(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !delivered {
		t.Fatalf("expected mail to be delivered")
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected 1 mail, got %d", len(mailer.sent))
	}

	mail := mailer.sent[0]
	if mail.To != "author@example.com" {
		t.Fatalf("unexpected recipient: %s", mail.To)
	}
	if mail.Subject != "Ada Lovelace has commented on your post." {
		t.Fatalf("unexpected subject: %s", mail.Subject)
	}
	if !strings.Contains(mail.Body, "hello there") {
		t.Fatalf("expected quoted comment in body")
	}
	if !strings.Contains(mail.Body, "https://edit.draftroom.example/documents/doc-1/edit") {
		t.Fatalf("expected edit link in body")
	}
	if !strings.Contains(mail.Body, "unsubscribe?token=token-user-1-root_author") {
		t.Fatalf("expected opt-out link in body, got: %s", mail.Body)
	}
}

func TestDispatchSkipsEmptyCommentsInBody(t *testing.T) {
	mailer := &stubMailer{}
	directory := &stubDirectory{profiles: map[string]users.User{
		"user-1": {UserID: "user-1", Email: "author@example.com"},
		"user-2": {UserID: "user-2", Email: "commenter@example.com", DisplayName: "Commenter"},
	}}
	dispatcher := newTestDispatcher(t, mailer, directory)

	if _, err := dispatcher.Dispatch(context.Background(), testEvent(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Count(mailer.sent[0].Body, "<blockquote>") != 1 {
		t.Fatalf("whitespace-only comment must not be quoted")
	}
}

func TestDispatchFallsBackToDisplayName(t *testing.T) {
	mailer := &stubMailer{}
	directory := &stubDirectory{profiles: map[string]users.User{
		"user-1": {UserID: "user-1", Email: "author@example.com"},
		"user-2": {UserID: "user-2", Email: "commenter@example.com", DisplayName: "wordsmith"},
	}}
	dispatcher := newTestDispatcher(t, mailer, directory)

	if _, err := dispatcher.Dispatch(context.Background(), testEvent(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mailer.sent[0].Subject != "wordsmith has commented on your post." {
		t.Fatalf("unexpected subject: %s", mailer.sent[0].Subject)
	}
}

func TestDispatchNoOpsWhenRecipientIsActor(t *testing.T) {
	mailer := &stubMailer{}
	dispatcher := newTestDispatcher(t, mailer, &stubDirectory{})

	event := testEvent(t)
	event.RecipientID = event.ActorID

	delivered, err := dispatcher.Dispatch(context.Background(), event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if delivered || len(mailer.sent) != 0 {
		t.Fatalf("expected silent no-op")
	}
}

func TestDispatchSkipsUnresolvableRecipient(t *testing.T) {
	mailer := &stubMailer{}
	directory := &stubDirectory{profiles: map[string]users.User{
		"user-2": {UserID: "user-2", Email: "commenter@example.com"},
	}}
	dispatcher := newTestDispatcher(t, mailer, directory)

	delivered, err := dispatcher.Dispatch(context.Background(), testEvent(t))
	if err != nil {
		t.Fatalf("unresolvable recipient must not be an error: %v", err)
	}
	if delivered || len(mailer.sent) != 0 {
		t.Fatalf("expected silent skip")
	}
}

func TestDispatchReportsTransportFailure(t *testing.T) {
	mailer := &stubMailer{fail: true}
	directory := &stubDirectory{profiles: map[string]users.User{
		"user-1": {UserID: "user-1", Email: "author@example.com"},
		"user-2": {UserID: "user-2", Email: "commenter@example.com"},
	}}
	dispatcher := newTestDispatcher(t, mailer, directory)

	delivered, err := dispatcher.Dispatch(context.Background(), testEvent(t))
	if err == nil {
		t.Fatalf("expected transport failure error")
	}
	if delivered {
		t.Fatalf("failed send must not count as delivered")
	}
}

package notify

import (
	"context"
	"testing"

	"github.com/draftroomhq/draftroom/backend/internal/comments"
)

type stubPreferences struct {
	disabled map[string]map[string]bool
}

func (s *stubPreferences) CategoryEnabled(_ context.Context, userID, category string) (bool, error) {
	if s.disabled == nil {
		return true, nil
	}
	if categories, ok := s.disabled[userID]; ok && categories[category] {
		return false, nil
	}
	return true, nil
}

func disablePreference(prefs *stubPreferences, userID string, category Category) {
	if prefs.disabled == nil {
		prefs.disabled = map[string]map[string]bool{}
	}
	if prefs.disabled[userID] == nil {
		prefs.disabled[userID] = map[string]bool{}
	}
	prefs.disabled[userID][category.String()] = true
}

func makeComment(t *testing.T, author, text string, createdAt, parent int64) comments.Comment {
	t.Helper()
	authorID, err := comments.NewAuthorID(author)
	if err != nil {
		t.Fatalf("unexpected author id error: %v", err)
	}
	key, err := comments.NewCommentKey(createdAt)
	if err != nil {
		t.Fatalf("unexpected comment key error: %v", err)
	}
	comment := comments.Comment{AuthorID: authorID, Text: text, CreatedAt: key}
	if parent != 0 {
		parentKey, err := comments.NewCommentKey(parent)
		if err != nil {
			t.Fatalf("unexpected parent key error: %v", err)
		}
		comment.ParentKey = parentKey
	}
	return comment
}

func resolveOne(t *testing.T, prefs *stubPreferences, document DocumentInfo, collection comments.Collection, newComment comments.Comment, contributors []string) []Event {
	t.Helper()
	index := comments.NewThreadIndex(collection)
	resolver := NewResolver(prefs, nil)
	return resolver.Resolve(context.Background(), document, index.Classify(newComment), contributors, comments.Collection{newComment})
}

func expectEvents(t *testing.T, events []Event, expected [][2]string) {
	t.Helper()
	if len(events) != len(expected) {
		t.Fatalf("expected %d events, got %d: %+v", len(expected), len(events), events)
	}
	for i, pair := range expected {
		if events[i].RecipientID != pair[0] || events[i].Category.String() != pair[1] {
			t.Fatalf("event %d: expected (%s, %s), got (%s, %s)",
				i, pair[0], pair[1], events[i].RecipientID, events[i].Category)
		}
	}
}

func TestResolveRootCommentNotifiesDocumentAuthor(t *testing.T) {
	document := DocumentInfo{DocumentID: "doc-1", AuthorID: "user-1"}
	root := makeComment(t, "user-2", "hello", 100, 0)

	events := resolveOne(t, &stubPreferences{}, document, comments.Collection{root}, root, nil)
	expectEvents(t, events, [][2]string{{"user-1", "root_author"}})
}

func TestResolveRootCommentByDocumentAuthorNotifiesNobody(t *testing.T) {
	document := DocumentInfo{DocumentID: "doc-1", AuthorID: "user-1"}
	root := makeComment(t, "user-1", "note to self", 100, 0)

	events := resolveOne(t, &stubPreferences{}, document, comments.Collection{root}, root, nil)
	if len(events) != 0 {
		t.Fatalf("expected no events, got %+v", events)
	}
}

func TestResolveReplyNotifiesDocumentAuthorAndParentAuthor(t *testing.T) {
	document := DocumentInfo{DocumentID: "doc-1", AuthorID: "user-1"}
	root := makeComment(t, "user-2", "hello", 100, 0)
	reply := makeComment(t, "user-3", "reply", 200, 100)

	events := resolveOne(t, &stubPreferences{}, document, comments.Collection{root, reply}, reply, nil)
	expectEvents(t, events, [][2]string{
		{"user-1", "direct_reply"},
		{"user-2", "direct_reply"},
	})
}

func TestResolveReplyIncludesThreadParticipants(t *testing.T) {
	document := DocumentInfo{DocumentID: "doc-1", AuthorID: "user-1"}
	root := makeComment(t, "user-2", "hello", 100, 0)
	earlier := makeComment(t, "user-3", "first reply", 200, 100)
	reply := makeComment(t, "user-4", "second reply", 300, 100)

	events := resolveOne(t, &stubPreferences{}, document, comments.Collection{root, earlier, reply}, reply, nil)
	expectEvents(t, events, [][2]string{
		{"user-1", "direct_reply"},
		{"user-2", "direct_reply"},
		{"user-3", "thread_participant"},
	})
}

func TestResolveRespectsDisabledCategory(t *testing.T) {
	prefs := &stubPreferences{}
	disablePreference(prefs, "user-3", CategoryThreadParticipant)

	document := DocumentInfo{DocumentID: "doc-1", AuthorID: "user-1"}
	root := makeComment(t, "user-2", "hello", 100, 0)
	earlier := makeComment(t, "user-3", "first reply", 200, 100)
	reply := makeComment(t, "user-4", "second reply", 300, 100)

	events := resolveOne(t, prefs, document, comments.Collection{root, earlier, reply}, reply, nil)
	expectEvents(t, events, [][2]string{
		{"user-1", "direct_reply"},
		{"user-2", "direct_reply"},
	})
}

func TestResolveOrphanReplySkipsParentPaths(t *testing.T) {
	document := DocumentInfo{DocumentID: "doc-1", AuthorID: "user-1"}
	reply := makeComment(t, "user-3", "reply to deleted", 200, 999)

	events := resolveOne(t, &stubPreferences{}, document, comments.Collection{reply}, reply, []string{"user-5"})
	expectEvents(t, events, [][2]string{
		{"user-1", "direct_reply"},
		{"user-5", "contributor"},
	})
}

func TestResolveContributorsAreNotDoubleNotified(t *testing.T) {
	document := DocumentInfo{DocumentID: "doc-1", AuthorID: "user-1"}
	root := makeComment(t, "user-2", "hello", 100, 0)
	contributors := []string{"user-1", "user-2", "user-5", "user-5"}

	events := resolveOne(t, &stubPreferences{}, document, comments.Collection{root}, root, contributors)
	expectEvents(t, events, [][2]string{
		{"user-1", "root_author"},
		{"user-5", "contributor"},
	})
}

func TestResolveActorNeverReceivesAnything(t *testing.T) {
	document := DocumentInfo{DocumentID: "doc-1", AuthorID: "user-1"}
	root := makeComment(t, "user-2", "hello", 100, 0)
	contributors := []string{"user-2"}

	events := resolveOne(t, &stubPreferences{}, document, comments.Collection{root}, root, contributors)
	for _, event := range events {
		if event.RecipientID == "user-2" {
			t.Fatalf("actor must not be a recipient: %+v", event)
		}
	}
}

func TestResolveNoRecipientAppearsTwice(t *testing.T) {
	document := DocumentInfo{DocumentID: "doc-1", AuthorID: "user-1"}
	root := makeComment(t, "user-2", "hello", 100, 0)
	repliesByOneUser := comments.Collection{
		root,
		makeComment(t, "user-3", "first", 200, 100),
		makeComment(t, "user-3", "second", 300, 100),
		makeComment(t, "user-4", "third", 400, 100),
	}
	newReply := repliesByOneUser[3]
	contributors := []string{"user-1", "user-2", "user-3"}

	events := resolveOne(t, &stubPreferences{}, document, repliesByOneUser, newReply, contributors)
	seen := map[string]bool{}
	for _, event := range events {
		if seen[event.RecipientID] {
			t.Fatalf("recipient %s resolved twice", event.RecipientID)
		}
		seen[event.RecipientID] = true
	}
}

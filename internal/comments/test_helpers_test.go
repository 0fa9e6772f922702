package comments

import "testing"

func mustAuthorID(t *testing.T, value string) AuthorID {
	t.Helper()
	id, err := NewAuthorID(value)
	if err != nil {
		t.Fatalf("unexpected author id error: %v", err)
	}
	return id
}

func mustCommentKey(t *testing.T, value int64) CommentKey {
	t.Helper()
	key, err := NewCommentKey(value)
	if err != nil {
		t.Fatalf("unexpected comment key error: %v", err)
	}
	return key
}

func makeComment(t *testing.T, author string, text string, createdAt, parent int64) Comment {
	t.Helper()
	comment := Comment{
		AuthorID:  mustAuthorID(t, author),
		Text:      text,
		CreatedAt: mustCommentKey(t, createdAt),
	}
	if parent != 0 {
		comment.ParentKey = mustCommentKey(t, parent)
	}
	return comment
}

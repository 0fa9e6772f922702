package comments

import "testing"

func TestDiffEmptyPreviousMarksEverythingNew(t *testing.T) {
	current := Collection{
		makeComment(t, "user-2", "hello", 100, 0),
		makeComment(t, "user-3", "reply", 200, 100),
	}

	fresh := Diff(nil, current)
	if len(fresh) != 2 {
		t.Fatalf("expected 2 new comments, got %d", len(fresh))
	}
}

func TestDiffReturnsSetDifferenceByIdentityKey(t *testing.T) {
	previous := Collection{
		makeComment(t, "user-2", "hello", 100, 0),
	}
	current := Collection{
		makeComment(t, "user-2", "hello", 100, 0),
		makeComment(t, "user-3", "reply", 200, 100),
		makeComment(t, "user-4", "another", 300, 100),
	}

	fresh := Diff(previous, current)
	if len(fresh) != 2 {
		t.Fatalf("expected 2 new comments, got %d", len(fresh))
	}
	seen := map[int64]bool{}
	for _, comment := range fresh {
		seen[comment.CreatedAt.Int64()] = true
	}
	if !seen[200] || !seen[300] {
		t.Fatalf("expected keys 200 and 300, got %v", seen)
	}
}

func TestDiffIgnoresTextEdits(t *testing.T) {
	previous := Collection{
		makeComment(t, "user-2", "original wording", 100, 0),
	}
	current := Collection{
		makeComment(t, "user-2", "edited wording", 100, 0),
	}

	fresh := Diff(previous, current)
	if len(fresh) != 0 {
		t.Fatalf("text edit must not produce a new comment, got %d", len(fresh))
	}
}

func TestDiffRoundTripYieldsEmptySet(t *testing.T) {
	current := Collection{
		makeComment(t, "user-2", "hello", 100, 0),
		makeComment(t, "user-3", "reply", 200, 100),
	}

	fresh := Diff(nil, current)
	if len(fresh) != 2 {
		t.Fatalf("expected 2 new comments on first save, got %d", len(fresh))
	}

	// The processed snapshot becomes the baseline; a second save with no
	// additions diffs to nothing.
	again := Diff(current, current)
	if len(again) != 0 {
		t.Fatalf("expected empty diff after baseline rotation, got %d", len(again))
	}
}

func TestDiffEmptyCurrent(t *testing.T) {
	previous := Collection{
		makeComment(t, "user-2", "hello", 100, 0),
	}
	if fresh := Diff(previous, nil); len(fresh) != 0 {
		t.Fatalf("expected no new comments, got %d", len(fresh))
	}
}

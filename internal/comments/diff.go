package comments

// Diff returns the comments present in current but not in previous, compared
// by identity key only. Edits to the text of an existing comment are invisible
// to the diff: a comment is new iff no previous comment shares its CreatedAt
// key. An empty previous snapshot marks every current comment as new.
func Diff(previous, current Collection) Collection {
	if len(current) == 0 {
		return nil
	}
	if len(previous) == 0 {
		fresh := make(Collection, len(current))
		copy(fresh, current)
		return fresh
	}

	known := make(map[CommentKey]struct{}, len(previous))
	for _, comment := range previous {
		known[comment.CreatedAt] = struct{}{}
	}

	var fresh Collection
	for _, comment := range current {
		if _, exists := known[comment.CreatedAt]; !exists {
			fresh = append(fresh, comment)
		}
	}
	return fresh
}

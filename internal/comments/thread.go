package comments

// Role describes a comment's position in its reply tree.
type Role string

const (
	// RoleRoot marks a comment with no parent, anchored to a content block.
	RoleRoot Role = "root"
	// RoleReply marks a comment whose parent is present in the collection.
	RoleReply Role = "reply"
	// RoleOrphan marks a reply whose parent key resolves to nothing, e.g.
	// the parent was deleted in a concurrent edit.
	RoleOrphan Role = "orphan"
)

// ThreadIndex is the adjacency model over one comment collection: a lookup by
// identity key plus a children index keyed by parent. Built once per save so
// classification does not re-scan the collection per comment.
type ThreadIndex struct {
	byKey    map[CommentKey]Comment
	children map[CommentKey][]CommentKey
}

// NewThreadIndex builds the adjacency model for the given collection.
func NewThreadIndex(collection Collection) *ThreadIndex {
	index := &ThreadIndex{
		byKey:    make(map[CommentKey]Comment, len(collection)),
		children: make(map[CommentKey][]CommentKey),
	}
	for _, comment := range collection {
		index.byKey[comment.CreatedAt] = comment
		if !comment.IsRoot() {
			index.children[comment.ParentKey] = append(index.children[comment.ParentKey], comment.CreatedAt)
		}
	}
	return index
}

// Lookup returns the comment stored under the given key.
func (ti *ThreadIndex) Lookup(key CommentKey) (Comment, bool) {
	comment, ok := ti.byKey[key]
	return comment, ok
}

// Classification captures the resolved tree position of one comment.
type Classification struct {
	Role    Role
	Comment Comment
	// Parent is set for RoleReply only.
	Parent Comment
	// Siblings holds the other replies to the same parent, excluding the
	// classified comment itself. Set for RoleReply only.
	Siblings []Comment
}

// Classify determines the tree position of the given comment relative to the
// indexed collection. A reply whose parent cannot be resolved degrades to
// RoleOrphan rather than failing; the caller skips the parent and sibling
// notification paths for orphans.
func (ti *ThreadIndex) Classify(comment Comment) Classification {
	if comment.IsRoot() {
		return Classification{Role: RoleRoot, Comment: comment}
	}

	parent, ok := ti.byKey[comment.ParentKey]
	if !ok {
		return Classification{Role: RoleOrphan, Comment: comment}
	}

	return Classification{
		Role:     RoleReply,
		Comment:  comment,
		Parent:   parent,
		Siblings: ti.siblings(comment, parent),
	}
}

// siblings collects the other replies to the same parent. Trees are two
// levels deep in practice, so the parent is normally the thread root and the
// sibling set is the rest of the thread; deeper parent references still
// resolve because the children index tolerates any parent key.
func (ti *ThreadIndex) siblings(comment, parent Comment) []Comment {
	var siblings []Comment
	for _, key := range ti.children[parent.CreatedAt] {
		if key == comment.CreatedAt {
			continue
		}
		sibling, ok := ti.byKey[key]
		if !ok {
			continue
		}
		siblings = append(siblings, sibling)
	}
	return siblings
}

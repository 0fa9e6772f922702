package notify

// Category names one independently toggleable notification stream.
type Category string

const (
	// CategoryRootAuthor notifies the document author about new root comments.
	CategoryRootAuthor Category = "root_author"
	// CategoryDirectReply notifies the document author and the parent comment
	// author about new replies.
	CategoryDirectReply Category = "direct_reply"
	// CategoryThreadParticipant notifies other authors in the same thread.
	CategoryThreadParticipant Category = "thread_participant"
	// CategoryContributor notifies everyone who has ever saved the document.
	CategoryContributor Category = "contributor"
)

// Categories lists every known category in resolution order.
func Categories() []Category {
	return []Category{
		CategoryRootAuthor,
		CategoryDirectReply,
		CategoryThreadParticipant,
		CategoryContributor,
	}
}

// ValidCategory reports whether the raw value names a known category.
func ValidCategory(raw string) bool {
	switch Category(raw) {
	case CategoryRootAuthor, CategoryDirectReply, CategoryThreadParticipant, CategoryContributor:
		return true
	}
	return false
}

// String returns the category's wire value.
func (c Category) String() string {
	return string(c)
}

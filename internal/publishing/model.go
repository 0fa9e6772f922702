package publishing

// NotificationRecord is one row of the append-only dispatch audit trail:
// exactly one row per email handed to the mail transport.
type NotificationRecord struct {
	NotificationID string `gorm:"column:notification_id;primaryKey;size:190;not null"`
	DocumentID     string `gorm:"column:document_id;size:190;not null;index:idx_notification_log_document,priority:1"`
	RecipientID    string `gorm:"column:recipient_id;size:190;not null;index"`
	ActorID        string `gorm:"column:actor_id;size:190;not null"`
	Category       string `gorm:"column:category;size:64;not null"`
	CommentKey     int64  `gorm:"column:comment_key;not null"`
	SentAtSeconds  int64  `gorm:"column:sent_at_s;not null;index:idx_notification_log_document,priority:2"`
}

// TableName provides the explicit table binding for GORM.
func (NotificationRecord) TableName() string {
	return "notification_log"
}

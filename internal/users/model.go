package users

import (
	"strings"
	"time"
)

// User captures the profile fields the notification engine needs: an email
// address to deliver to and the name components used in message headlines.
type User struct {
	UserID      string    `gorm:"column:user_id;primaryKey;size:190;not null"`
	Email       string    `gorm:"column:user_email;size:320;not null"`
	DisplayName string    `gorm:"column:user_display_name;size:320"`
	FirstName   string    `gorm:"column:first_name;size:190"`
	LastName    string    `gorm:"column:last_name;size:190"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName exposes the table backing user profiles.
func (User) TableName() string {
	return "users"
}

// FullName returns the first and last name joined, falling back to the
// profile display name when both are blank.
func (u User) FullName() string {
	joined := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if joined != "" {
		return joined
	}
	return strings.TrimSpace(u.DisplayName)
}

// NotificationSetting stores one per-user, per-category toggle. No row means
// the category is enabled; rows exist only once a user has made a choice.
type NotificationSetting struct {
	UserID    string    `gorm:"column:user_id;primaryKey;size:190;not null"`
	Category  string    `gorm:"column:category;primaryKey;size:64;not null"`
	Enabled   bool      `gorm:"column:enabled;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName exposes the table backing notification settings.
func (NotificationSetting) TableName() string {
	return "user_notification_settings"
}

// normalize value helper used across service implementation.
func normalize(value string) string {
	return strings.TrimSpace(value)
}

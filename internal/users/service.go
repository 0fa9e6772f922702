package users

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrUserNotFound indicates no profile exists for the requested id.
	ErrUserNotFound = errors.New("users: user not found")
	// ErrInvalidProfile indicates a profile payload missing required fields.
	ErrInvalidProfile = errors.New("users: invalid profile")
)

// ServiceConfig describes the dependencies for the user service.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
}

// Service manages user profiles and notification settings.
type Service struct {
	db    *gorm.DB
	now   func() time.Time
	cache sync.Map
}

// NewService constructs the user service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("users: database connection required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		db:  cfg.Database,
		now: clock,
	}, nil
}

// GetUser returns the profile stored under the given id. Profiles are cached
// per process; SaveProfile invalidates the cache entry.
func (s *Service) GetUser(ctx context.Context, userID string) (User, error) {
	if normalize(userID) == "" {
		return User{}, ErrUserNotFound
	}

	if cached, ok := s.cache.Load(userID); ok {
		if user, ok := cached.(User); ok {
			return user, nil
		}
	}

	var user User
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}

	s.cache.Store(userID, user)
	return user, nil
}

// SaveProfile upserts the host-provided profile fields.
func (s *Service) SaveProfile(ctx context.Context, user User) error {
	if normalize(user.UserID) == "" || normalize(user.Email) == "" {
		return fmt.Errorf("%w: user id and email are required", ErrInvalidProfile)
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_email", "user_display_name", "first_name", "last_name", "updated_at"}),
	}).Create(&user).Error
	if err != nil {
		return err
	}

	s.cache.Delete(user.UserID)
	return nil
}

// CategoryEnabled reports whether the user receives notifications of the
// given category. A missing setting row reads as enabled.
func (s *Service) CategoryEnabled(ctx context.Context, userID, category string) (bool, error) {
	var setting NotificationSetting
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND category = ?", userID, category).
		Take(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return setting.Enabled, nil
}

// SetCategory records the user's toggle for one notification category.
func (s *Service) SetCategory(ctx context.Context, userID, category string, enabled bool) error {
	if normalize(userID) == "" || normalize(category) == "" {
		return fmt.Errorf("%w: user id and category are required", ErrInvalidProfile)
	}

	setting := NotificationSetting{
		UserID:    userID,
		Category:  category,
		Enabled:   enabled,
		UpdatedAt: s.now(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "category"}},
		DoUpdates: clause.AssignmentColumns([]string{"enabled", "updated_at"}),
	}).Create(&setting).Error
}

// Settings returns the user's explicit toggles keyed by category. Categories
// without a row are absent from the map and default to enabled.
func (s *Service) Settings(ctx context.Context, userID string) (map[string]bool, error) {
	var settings []NotificationSetting
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&settings).Error; err != nil {
		return nil, err
	}

	result := make(map[string]bool, len(settings))
	for _, setting := range settings {
		result[setting.Category] = setting.Enabled
	}
	return result, nil
}

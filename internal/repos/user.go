package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/glowplan/selfcare-backend/internal/logger"
	"github.com/glowplan/selfcare-backend/internal/types"
)

type UserRepo interface {
	Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error)
	// ListWithEmailReminders returns users whose email channel is switched on,
	// flat switch or any category. Category maps live in JSON so the broad
	// flat-switch query runs in SQL and the category check happens in Go.
	ListWithEmailReminders(ctx context.Context, tx *gorm.DB) ([]*types.User, error)
	ListWithMobilePush(ctx context.Context, tx *gorm.DB) ([]*types.User, error)
	SavePrefs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, prefs types.NotificationPrefs) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (ur *userRepo) Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	if len(users) == 0 {
		return []*types.User{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (ur *userRepo) GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	var results []*types.User
	if len(userIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", userIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ur *userRepo) ListWithEmailReminders(ctx context.Context, tx *gorm.DB) ([]*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	var results []*types.User
	if err := transaction.WithContext(ctx).
		Where("notif_email_reminders = ? OR notif_email_categories IS NOT NULL", true).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return filterByChannel(results, func(u *types.User) bool { return u.NotificationPrefs.EmailEnabled() }), nil
}

func (ur *userRepo) ListWithMobilePush(ctx context.Context, tx *gorm.DB) ([]*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	var results []*types.User
	if err := transaction.WithContext(ctx).
		Where("notif_mobile_push = ? OR notif_push_categories IS NOT NULL", true).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return filterByChannel(results, func(u *types.User) bool { return u.NotificationPrefs.PushEnabled() }), nil
}

func (ur *userRepo) SavePrefs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, prefs types.NotificationPrefs) error {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	return transaction.WithContext(ctx).
		Model(&types.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"notif_email_reminders":  prefs.EmailReminders,
			"notif_mobile_push":      prefs.MobilePush,
			"notif_weekly_email":     prefs.WeeklyEmail,
			"notif_email_categories": prefs.EmailCategories,
			"notif_push_categories":  prefs.PushCategories,
		}).Error
}

func filterByChannel(users []*types.User, enabled func(*types.User) bool) []*types.User {
	out := users[:0]
	for _, u := range users {
		if enabled(u) {
			out = append(out, u)
		}
	}
	return out
}

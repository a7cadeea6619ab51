package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/glowplan/selfcare-backend/internal/logger"
	"github.com/glowplan/selfcare-backend/internal/types"
)

type AchievementProgressRepo interface {
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.AchievementProgress, error)
	// Upsert merges the recomputed progress into the stored document; it
	// never removes level unlock dates already present in the row being
	// written (the caller carries them forward).
	Upsert(ctx context.Context, tx *gorm.DB, progress *types.AchievementProgress) error
	SetLastSeenLevel(ctx context.Context, tx *gorm.DB, userID uuid.UUID, level int) error
}

type achievementProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAchievementProgressRepo(db *gorm.DB, baseLog *logger.Logger) AchievementProgressRepo {
	return &achievementProgressRepo{db: db, log: baseLog.With("repo", "AchievementProgressRepo")}
}

func (r *achievementProgressRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.AchievementProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if userID == uuid.Nil {
		return nil, nil
	}

	var result types.AchievementProgress
	err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&result).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *achievementProgressRepo) Upsert(ctx context.Context, tx *gorm.DB, progress *types.AchievementProgress) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if progress == nil || progress.UserID == uuid.Nil {
		return nil
	}

	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"total_completed_activities",
				"current_level",
				"level_unlock_dates",
				"last_updated",
			}),
		}).
		Create(progress).Error
}

func (r *achievementProgressRepo) SetLastSeenLevel(ctx context.Context, tx *gorm.DB, userID uuid.UUID, level int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&types.AchievementProgress{}).
		Where("user_id = ?", userID).
		Update("last_seen_level", level).Error
}

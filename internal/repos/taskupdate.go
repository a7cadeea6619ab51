package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/glowplan/selfcare-backend/internal/logger"
	"github.com/glowplan/selfcare-backend/internal/types"
)

// TaskUpdateRepo is the append-only update-event store. Events are never
// edited in place; reconciliation picks winners at read time.
type TaskUpdateRepo interface {
	Create(ctx context.Context, tx *gorm.DB, updates []*types.TaskUpdate) ([]*types.TaskUpdate, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.TaskUpdate, error)
	GetByUserAndDate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, date string) ([]*types.TaskUpdate, error)
	GetPendingByUserAndDate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, date string) ([]*types.TaskUpdate, error)
	CountCompletedByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
}

type taskUpdateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTaskUpdateRepo(db *gorm.DB, baseLog *logger.Logger) TaskUpdateRepo {
	return &taskUpdateRepo{db: db, log: baseLog.With("repo", "TaskUpdateRepo")}
}

func (r *taskUpdateRepo) Create(ctx context.Context, tx *gorm.DB, updates []*types.TaskUpdate) ([]*types.TaskUpdate, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(updates) == 0 {
		return []*types.TaskUpdate{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&updates).Error; err != nil {
		return nil, err
	}
	return updates, nil
}

func (r *taskUpdateRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.TaskUpdate, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.TaskUpdate
	if userID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *taskUpdateRepo) GetByUserAndDate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, date string) ([]*types.TaskUpdate, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.TaskUpdate
	if userID == uuid.Nil || date == "" {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *taskUpdateRepo) GetPendingByUserAndDate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, date string) ([]*types.TaskUpdate, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.TaskUpdate
	if userID == uuid.Nil || date == "" {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND date = ? AND status = ?", userID, date, types.TaskStatusPending).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *taskUpdateRepo) CountCompletedByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	// Distinct on slot: the stream is append-only, so the same completion can
	// be recorded more than once and must still count as one activity.
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.TaskUpdate{}).
		Where("user_id = ? AND status = ?", userID, types.TaskStatusCompleted).
		Distinct("slot_id").
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

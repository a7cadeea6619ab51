package repos

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/glowplan/selfcare-backend/internal/logger"
	"github.com/glowplan/selfcare-backend/internal/types"
)

type DeviceTokenRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, token *types.DeviceToken) error
	Delete(ctx context.Context, tx *gorm.DB, userID uuid.UUID, token string) error
	// GetMobileTokensByUserID returns registered push tokens whose platform
	// is a mobile one; web tokens are not pushed to.
	GetMobileTokensByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]string, error)
}

type deviceTokenRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDeviceTokenRepo(db *gorm.DB, baseLog *logger.Logger) DeviceTokenRepo {
	return &deviceTokenRepo{db: db, log: baseLog.With("repo", "DeviceTokenRepo")}
}

func (r *deviceTokenRepo) Upsert(ctx context.Context, tx *gorm.DB, token *types.DeviceToken) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if token == nil || token.Token == "" {
		return nil
	}

	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id", "platform", "user_agent", "updated_at"}),
		}).
		Create(token).Error
}

func (r *deviceTokenRepo) Delete(ctx context.Context, tx *gorm.DB, userID uuid.UUID, token string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if token == "" {
		return nil
	}

	return transaction.WithContext(ctx).
		Where("user_id = ? AND token = ?", userID, token).
		Delete(&types.DeviceToken{}).Error
}

func (r *deviceTokenRepo) GetMobileTokensByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]string, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var rows []*types.DeviceToken
	if userID == uuid.Nil {
		return nil, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	tokens := make([]string, 0, len(rows))
	for _, row := range rows {
		platform := strings.ToLower(row.Platform)
		if strings.Contains(platform, "android") || strings.Contains(platform, "ios") {
			tokens = append(tokens, row.Token)
		}
	}
	return tokens, nil
}

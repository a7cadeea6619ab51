package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/glowplan/selfcare-backend/internal/logger"
	"github.com/glowplan/selfcare-backend/internal/repos"
	"github.com/glowplan/selfcare-backend/internal/types"
)

// UserService covers the notification-facing user surface: channel
// preferences and device token registration.
type UserService interface {
	GetPrefs(ctx context.Context, userID uuid.UUID) (*types.NotificationPrefs, error)
	SavePrefs(ctx context.Context, userID uuid.UUID, prefs types.NotificationPrefs) error
	RegisterToken(ctx context.Context, userID uuid.UUID, token, platform, userAgent string) error
	RemoveToken(ctx context.Context, userID uuid.UUID, token string) error
}

type userService struct {
	log       *logger.Logger
	userRepo  repos.UserRepo
	tokenRepo repos.DeviceTokenRepo
}

func NewUserService(baseLog *logger.Logger, userRepo repos.UserRepo, tokenRepo repos.DeviceTokenRepo) UserService {
	return &userService{
		log:       baseLog.With("service", "UserService"),
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
	}
}

func (s *userService) GetPrefs(ctx context.Context, userID uuid.UUID) (*types.NotificationPrefs, error) {
	users, err := s.userRepo.GetByIDs(ctx, nil, []uuid.UUID{userID})
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user %s not found", userID)
	}
	return &users[0].NotificationPrefs, nil
}

func (s *userService) SavePrefs(ctx context.Context, userID uuid.UUID, prefs types.NotificationPrefs) error {
	if userID == uuid.Nil {
		return fmt.Errorf("user id required")
	}
	return s.userRepo.SavePrefs(ctx, nil, userID, prefs)
}

func (s *userService) RegisterToken(ctx context.Context, userID uuid.UUID, token, platform, userAgent string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token required")
	}
	return s.tokenRepo.Upsert(ctx, nil, &types.DeviceToken{
		Token:     token,
		UserID:    userID,
		Platform:  strings.ToLower(strings.TrimSpace(platform)),
		UserAgent: userAgent,
	})
}

func (s *userService) RemoveToken(ctx context.Context, userID uuid.UUID, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token required")
	}
	return s.tokenRepo.Delete(ctx, nil, userID, token)
}

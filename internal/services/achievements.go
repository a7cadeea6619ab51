package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/glowplan/selfcare-backend/internal/logger"
	"github.com/glowplan/selfcare-backend/internal/repos"
	"github.com/glowplan/selfcare-backend/internal/types"
)

// UpdateConsumer is the event-bus side the achievement recompute subscribes
// to.
type UpdateConsumer interface {
	StartConsumer(ctx context.Context, onAppend func(userID uuid.UUID)) error
}

// AchievementService derives progress from the update stream. Every recompute
// is a full recount, so a missed trigger is healed by the next one.
type AchievementService interface {
	Recompute(ctx context.Context, userID uuid.UUID) (*types.AchievementProgress, error)
	// StartConsumer wires Recompute to the update bus. Consumer failures are
	// logged and never surface to the writer that triggered them.
	StartConsumer(ctx context.Context, bus UpdateConsumer) error
	MarkLevelSeen(ctx context.Context, userID uuid.UUID, level int) error
}

type achievementService struct {
	log          *logger.Logger
	updateRepo   repos.TaskUpdateRepo
	progressRepo repos.AchievementProgressRepo
	now          func() time.Time
}

func NewAchievementService(
	baseLog *logger.Logger,
	updateRepo repos.TaskUpdateRepo,
	progressRepo repos.AchievementProgressRepo,
) AchievementService {
	return &achievementService{
		log:          baseLog.With("service", "AchievementService"),
		updateRepo:   updateRepo,
		progressRepo: progressRepo,
		now:          time.Now,
	}
}

func (s *achievementService) Recompute(ctx context.Context, userID uuid.UUID) (*types.AchievementProgress, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id required")
	}

	count, err := s.updateRepo.CountCompletedByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("count completed: %w", err)
	}
	total := int(count)
	level := types.LevelForCount(total)

	existing, err := s.progressRepo.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}

	now := s.now().UTC()
	unlocks := datatypes.JSONMap{}
	lastSeen := 0
	if existing != nil {
		lastSeen = existing.LastSeenLevel
		for k, v := range existing.LevelUnlockDates {
			unlocks[k] = v
		}
	}
	// Unlock stamps are write-once: only levels reached for the first time
	// get the current instant.
	for _, tier := range types.AchievementLevels {
		if tier.Level > level {
			break
		}
		key := strconv.Itoa(tier.Level)
		if _, ok := unlocks[key]; !ok {
			unlocks[key] = now.Format(time.RFC3339)
		}
	}

	progress := &types.AchievementProgress{
		UserID:                   userID,
		TotalCompletedActivities: total,
		CurrentLevel:             level,
		LevelUnlockDates:         unlocks,
		LastSeenLevel:            lastSeen,
		LastUpdated:              now,
	}
	if err := s.progressRepo.Upsert(ctx, nil, progress); err != nil {
		return nil, fmt.Errorf("save progress: %w", err)
	}
	return progress, nil
}

func (s *achievementService) StartConsumer(ctx context.Context, bus UpdateConsumer) error {
	return bus.StartConsumer(ctx, func(userID uuid.UUID) {
		if _, err := s.Recompute(ctx, userID); err != nil {
			s.log.Error("achievement recompute failed", "user_id", userID.String(), "error", err)
		}
	})
}

func (s *achievementService) MarkLevelSeen(ctx context.Context, userID uuid.UUID, level int) error {
	if userID == uuid.Nil {
		return fmt.Errorf("user id required")
	}
	if level < 1 || level > types.AchievementLevels[len(types.AchievementLevels)-1].Level {
		return fmt.Errorf("level %d out of range", level)
	}
	return s.progressRepo.SetLastSeenLevel(ctx, nil, userID, level)
}

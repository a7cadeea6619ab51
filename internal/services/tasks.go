package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/glowplan/selfcare-backend/internal/localtime"
	"github.com/glowplan/selfcare-backend/internal/logger"
	"github.com/glowplan/selfcare-backend/internal/reconcile"
	"github.com/glowplan/selfcare-backend/internal/repos"
	"github.com/glowplan/selfcare-backend/internal/types"
)

// UpdatePublisher is the fire-and-forget side channel that tells derived-state
// consumers an update event landed.
type UpdatePublisher interface {
	PublishUpdateAppended(ctx context.Context, userID uuid.UUID) error
}

// UpdateInput is one status-change event as upstream writers submit it.
type UpdateInput struct {
	ActivityID string           `json:"activity_id" binding:"required"`
	Date       string           `json:"date" binding:"required"`
	Time       *types.ClockTime `json:"time,omitempty"`
	Status     string           `json:"status"`
	UpdatedAt  *time.Time       `json:"updated_at,omitempty"`
}

type TaskService interface {
	// RecordUpdates validates and appends update events, then notifies
	// derived-state consumers. All-or-nothing on validation: one malformed
	// event rejects the whole batch before anything is written.
	RecordUpdates(ctx context.Context, userID uuid.UUID, inputs []UpdateInput) ([]*types.TaskUpdate, error)
	// DayView reconciles the scheduled projection for one day with the
	// recorded update events and optional optimistic overrides.
	DayView(ctx context.Context, userID uuid.UUID, date string, overrides map[string]types.TaskStatus) ([]types.TaskInstance, error)
	// SaveActivities upserts the caller's activity definitions.
	SaveActivities(ctx context.Context, userID uuid.UUID, activities []*types.Activity) ([]*types.Activity, error)
	// UpdateHistory returns every update event ever recorded for the caller.
	UpdateHistory(ctx context.Context, userID uuid.UUID) ([]*types.TaskUpdate, error)
}

type taskService struct {
	log          *logger.Logger
	updateRepo   repos.TaskUpdateRepo
	activityRepo repos.ActivityRepo
	publisher    UpdatePublisher
	now          func() time.Time
}

func NewTaskService(
	baseLog *logger.Logger,
	updateRepo repos.TaskUpdateRepo,
	activityRepo repos.ActivityRepo,
	publisher UpdatePublisher,
) TaskService {
	return &taskService{
		log:          baseLog.With("service", "TaskService"),
		updateRepo:   updateRepo,
		activityRepo: activityRepo,
		publisher:    publisher,
		now:          time.Now,
	}
}

func (s *taskService) RecordUpdates(ctx context.Context, userID uuid.UUID, inputs []UpdateInput) ([]*types.TaskUpdate, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id required")
	}
	if len(inputs) == 0 {
		return []*types.TaskUpdate{}, nil
	}

	now := s.now().UTC()
	events := make([]*types.TaskUpdate, 0, len(inputs))
	for i, in := range inputs {
		activityID := strings.TrimSpace(in.ActivityID)
		if activityID == "" {
			return nil, fmt.Errorf("update %d: activity id required", i)
		}
		if _, _, _, err := localtime.ParseYMD(in.Date); err != nil {
			return nil, fmt.Errorf("update %d: %w", i, err)
		}
		if in.Time != nil {
			if in.Time.Hour < 0 || in.Time.Hour > 23 || in.Time.Minute < 0 || in.Time.Minute > 59 {
				return nil, fmt.Errorf("update %d: time %02d:%02d out of range", i, in.Time.Hour, in.Time.Minute)
			}
		}

		updatedAt := now
		if in.UpdatedAt != nil {
			updatedAt = in.UpdatedAt.UTC()
		}
		event := &types.TaskUpdate{
			SlotID:     types.SlotID(activityID, in.Date, in.Time),
			UserID:     userID,
			ActivityID: activityID,
			Date:       in.Date,
			Status:     types.NormalizeStatus(in.Status),
			UpdatedAt:  updatedAt,
		}
		if in.Time != nil {
			h, m := in.Time.Hour, in.Time.Minute
			event.Hour, event.Minute = &h, &m
		}
		events = append(events, event)
	}

	created, err := s.updateRepo.Create(ctx, nil, events)
	if err != nil {
		return nil, fmt.Errorf("append updates: %w", err)
	}

	// Derived state converges on its own; a failed publish only delays it.
	if s.publisher != nil {
		if err := s.publisher.PublishUpdateAppended(ctx, userID); err != nil {
			s.log.Warn("update publish failed", "user_id", userID.String(), "error", err)
		}
	}
	return created, nil
}

func (s *taskService) UpdateHistory(ctx context.Context, userID uuid.UUID) ([]*types.TaskUpdate, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id required")
	}
	return s.updateRepo.GetByUserID(ctx, nil, userID)
}

func (s *taskService) SaveActivities(ctx context.Context, userID uuid.UUID, activities []*types.Activity) ([]*types.Activity, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id required")
	}
	for i, a := range activities {
		if a == nil || strings.TrimSpace(a.ID) == "" {
			return nil, fmt.Errorf("activity %d: id required", i)
		}
		a.UserID = userID
		if a.Type == "" {
			a.Type = types.ActivityTypeRegular
		}
	}
	return s.activityRepo.Upsert(ctx, nil, activities)
}

func (s *taskService) DayView(ctx context.Context, userID uuid.UUID, date string, overrides map[string]types.TaskStatus) ([]types.TaskInstance, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id required")
	}
	if _, _, _, err := localtime.ParseYMD(date); err != nil {
		return nil, err
	}

	activities, err := s.activityRepo.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("load activities: %w", err)
	}
	events, err := s.updateRepo.GetByUserAndDate(ctx, nil, userID, date)
	if err != nil {
		return nil, fmt.Errorf("load updates: %w", err)
	}

	scheduled := ProjectDay(activities, date, s.now().UTC())
	updates := make([]types.TaskInstance, 0, len(events))
	for _, e := range events {
		updates = append(updates, e.Instance())
	}
	known := make(map[string]struct{}, len(activities))
	for _, a := range activities {
		known[a.ID] = struct{}{}
	}

	return reconcile.Merge(scheduled, updates, overrides, known), nil
}

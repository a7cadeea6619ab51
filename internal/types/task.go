package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusSkipped   TaskStatus = "skipped"
	TaskStatusMissed    TaskStatus = "missed"
	TaskStatusDeleted   TaskStatus = "deleted"
)

// statusStrength orders statuses by authority. Terminal states (completed,
// skipped) outrank everything else regardless of recency: once a user has
// acted on a slot, a later pending write for the same slot is treated as a
// stale or duplicate event, not intent to reset. New statuses slot in here
// without touching the merge logic.
var statusStrength = map[TaskStatus]int{
	TaskStatusCompleted: 3,
	TaskStatusSkipped:   3,
	TaskStatusMissed:    2,
	TaskStatusPending:   1,
}

func (s TaskStatus) Strength() int {
	return statusStrength[s]
}

// NormalizeStatus maps legacy upstream synonyms onto canonical statuses.
// Unrecognized values default to pending.
func NormalizeStatus(raw string) TaskStatus {
	switch TaskStatus(raw) {
	case TaskStatusPending, TaskStatusCompleted, TaskStatusSkipped, TaskStatusMissed, TaskStatusDeleted:
		return TaskStatus(raw)
	}
	switch raw {
	case "planned":
		return TaskStatusPending
	case "done":
		return TaskStatusCompleted
	default:
		return TaskStatusPending
	}
}

type ClockTime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// TaskInstance is one occurrence of an activity on a calendar day. ID is the
// composite slot id (activityId-YYYY-MM-DD[-HHMM]); Date is the intended
// local day, timezone-naive.
type TaskInstance struct {
	ID         string     `json:"id"`
	ActivityID string     `json:"activity_id"`
	Date       string     `json:"date"`
	Time       *ClockTime `json:"time,omitempty"`
	Status     TaskStatus `json:"status"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func SlotID(activityID, date string, t *ClockTime) string {
	if t == nil {
		return fmt.Sprintf("%s-%s", activityID, date)
	}
	return fmt.Sprintf("%s-%s-%02d%02d", activityID, date, t.Hour, t.Minute)
}

// TaskUpdate is one durably recorded status-change event. The stream is
// append-only; several events may exist for the same slot and reconciliation
// collapses them at read time.
type TaskUpdate struct {
	EventID    uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"event_id"`
	SlotID     string     `gorm:"not null;index" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index:idx_task_update_user_date" json:"user_id"`
	ActivityID string     `gorm:"not null;index" json:"activity_id"`
	Date       string     `gorm:"not null;index:idx_task_update_user_date" json:"date"`
	Hour       *int       `json:"hour,omitempty"`
	Minute     *int       `json:"minute,omitempty"`
	Status     TaskStatus `gorm:"not null;index" json:"status"`
	UpdatedAt  time.Time  `gorm:"not null" json:"updated_at"`
	CreatedAt  time.Time  `gorm:"not null;default:now()" json:"created_at"`
}

func (TaskUpdate) TableName() string { return "task_update" }

func (u *TaskUpdate) Clock() *ClockTime {
	if u.Hour == nil || u.Minute == nil {
		return nil
	}
	return &ClockTime{Hour: *u.Hour, Minute: *u.Minute}
}

func (u *TaskUpdate) Instance() TaskInstance {
	return TaskInstance{
		ID:         u.SlotID,
		ActivityID: u.ActivityID,
		Date:       u.Date,
		Time:       u.Clock(),
		Status:     u.Status,
		UpdatedAt:  u.UpdatedAt,
	}
}

package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	ActivityTypeRegular = "regular"
	ActivityTypeOneTime = "one_time"

	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
)

// Activity is a user-owned recurring definition. Its id is client-assigned
// and immutable once referenced by task updates; updates may outlive the
// activity itself.
type Activity struct {
	ID                    string                  `gorm:"primaryKey" json:"id"`
	UserID                uuid.UUID               `gorm:"type:uuid;primaryKey" json:"user_id"`
	Name                  string                  `gorm:"not null" json:"name"`
	Category              string                  `json:"category"`
	Type                  string                  `gorm:"not null;default:regular" json:"type"`
	ActiveStatus          bool                    `gorm:"not null;default:false" json:"active_status"`
	Hour                  *int                    `json:"hour,omitempty"`
	Minute                *int                    `json:"minute,omitempty"`
	NotifyBefore          string                  `json:"notify_before"`
	Frequency             string                  `json:"frequency"`
	SelectedDays          datatypes.JSONSlice[int] `json:"selected_days"`
	WeeksInterval         int                     `gorm:"not null;default:1" json:"weeks_interval"`
	SelectedMonthDays     datatypes.JSONSlice[int] `json:"selected_month_days"`
	EnabledAt             *time.Time              `json:"enabled_at,omitempty"`
	EndBeforeType         string                  `json:"end_before_type"`
	EndBeforeUnit         string                  `json:"end_before_unit"`
	SelectedEndBeforeDate *time.Time              `json:"selected_end_before_date,omitempty"`
	CreatedAt             time.Time               `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt             time.Time               `gorm:"not null;default:now()" json:"updated_at"`
}

func (Activity) TableName() string { return "activity" }

func (a *Activity) Clock() *ClockTime {
	if a.Hour == nil || a.Minute == nil {
		return nil
	}
	return &ClockTime{Hour: *a.Hour, Minute: *a.Minute}
}

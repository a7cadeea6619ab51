package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	ChannelEmail = "email"
	ChannelPush  = "push"

	CategoryProcedures = "procedures"
	CategoryMood       = "mood"
)

// NotificationPrefs carries the flat per-channel switches plus per-category
// enablement maps (category name -> bool). A channel counts as enabled when
// its flat switch or any category entry is on.
type NotificationPrefs struct {
	EmailReminders  bool              `gorm:"not null;default:false" json:"email_reminders"`
	MobilePush      bool              `gorm:"not null;default:false" json:"mobile_push"`
	WeeklyEmail     bool              `gorm:"not null;default:false" json:"weekly_email"`
	EmailCategories datatypes.JSONMap `json:"email_categories"`
	PushCategories  datatypes.JSONMap `json:"push_categories"`
}

func anyCategoryOn(m datatypes.JSONMap) bool {
	for _, v := range m {
		if b, ok := v.(bool); ok && b {
			return true
		}
	}
	return false
}

func (p NotificationPrefs) EmailEnabled() bool {
	return p.EmailReminders || anyCategoryOn(p.EmailCategories)
}

func (p NotificationPrefs) PushEnabled() bool {
	return p.MobilePush || anyCategoryOn(p.PushCategories)
}

// EnabledFor reports whether a channel should fire for an activity in the
// given category. The flat switch covers every category; otherwise the
// category map decides. Uncategorized activities count as procedures.
func (p NotificationPrefs) EnabledFor(channel, category string) bool {
	if category == "" {
		category = CategoryProcedures
	}
	var flat bool
	var m datatypes.JSONMap
	switch channel {
	case ChannelEmail:
		flat, m = p.EmailReminders, p.EmailCategories
	case ChannelPush:
		flat, m = p.MobilePush, p.PushCategories
	default:
		return false
	}
	if flat {
		return true
	}
	b, ok := m[category].(bool)
	return ok && b
}

type User struct {
	ID                uuid.UUID         `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Email             string            `gorm:"uniqueIndex;not null" json:"email"`
	Timezone          string            `json:"timezone"`
	TzOffsetMinutes   int               `gorm:"not null;default:0" json:"tz_offset_minutes"`
	NotificationPrefs NotificationPrefs `gorm:"embedded;embeddedPrefix:notif_" json:"notification_prefs"`
	CreatedAt         time.Time         `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt         time.Time         `gorm:"not null;default:now()" json:"updated_at"`
}

func (User) TableName() string { return "user" }

type DeviceToken struct {
	Token     string    `gorm:"primaryKey" json:"token"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Platform  string    `json:"platform"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (DeviceToken) TableName() string { return "device_token" }

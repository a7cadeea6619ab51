package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AchievementLevel struct {
	Level              int `json:"level"`
	RequiredActivities int `json:"required_activities"`
}

// AchievementLevels is the static threshold table: ascending, non-overlapping.
// The derived level is the highest tier whose requirement is met.
var AchievementLevels = []AchievementLevel{
	{Level: 1, RequiredActivities: 0},
	{Level: 2, RequiredActivities: 5},
	{Level: 3, RequiredActivities: 15},
	{Level: 4, RequiredActivities: 30},
	{Level: 5, RequiredActivities: 60},
	{Level: 6, RequiredActivities: 100},
	{Level: 7, RequiredActivities: 150},
	{Level: 8, RequiredActivities: 220},
	{Level: 9, RequiredActivities: 300},
}

func LevelForCount(completed int) int {
	level := 1
	for i := len(AchievementLevels) - 1; i >= 0; i-- {
		if completed >= AchievementLevels[i].RequiredActivities {
			level = AchievementLevels[i].Level
			break
		}
	}
	return level
}

// AchievementProgress is derived state, mutated exclusively by the
// achievement recompute. LevelUnlockDates maps level (as a string key) to the
// RFC3339 instant the level was first reached; entries are write-once.
type AchievementProgress struct {
	UserID                   uuid.UUID         `gorm:"type:uuid;primaryKey" json:"user_id"`
	TotalCompletedActivities int               `gorm:"not null;default:0" json:"total_completed_activities"`
	CurrentLevel             int               `gorm:"not null;default:1" json:"current_level"`
	LevelUnlockDates         datatypes.JSONMap `json:"level_unlock_dates"`
	LastSeenLevel            int               `gorm:"not null;default:0" json:"last_seen_level"`
	LastUpdated              time.Time         `gorm:"not null;default:now()" json:"last_updated"`
}

func (AchievementProgress) TableName() string { return "achievement_progress" }

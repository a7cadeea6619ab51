package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/glowplan/selfcare-backend/internal/logger"
	"github.com/glowplan/selfcare-backend/internal/types"
)

type fakeCountingUpdateRepo struct {
	fakeUpdateRepo
	completed int64
}

func (f *fakeCountingUpdateRepo) CountCompletedByUserID(context.Context, *gorm.DB, uuid.UUID) (int64, error) {
	return f.completed, nil
}

type fakeProgressRepo struct {
	stored *types.AchievementProgress
}

func (f *fakeProgressRepo) GetByUserID(context.Context, *gorm.DB, uuid.UUID) (*types.AchievementProgress, error) {
	return f.stored, nil
}

func (f *fakeProgressRepo) Upsert(_ context.Context, _ *gorm.DB, p *types.AchievementProgress) error {
	f.stored = p
	return nil
}

func (f *fakeProgressRepo) SetLastSeenLevel(_ context.Context, _ *gorm.DB, _ uuid.UUID, level int) error {
	if f.stored != nil {
		f.stored.LastSeenLevel = level
	}
	return nil
}

func newAchievementFixture(t *testing.T, now time.Time) (*achievementService, *fakeCountingUpdateRepo, *fakeProgressRepo) {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	updates := &fakeCountingUpdateRepo{}
	progress := &fakeProgressRepo{}
	svc := NewAchievementService(log, updates, progress).(*achievementService)
	svc.now = func() time.Time { return now }
	return svc, updates, progress
}

func TestLevelForCount(t *testing.T) {
	cases := []struct {
		count int
		want  int
	}{
		{count: 0, want: 1},
		{count: 4, want: 1},
		{count: 5, want: 2},
		{count: 29, want: 3},
		{count: 30, want: 4},
		{count: 299, want: 8},
		{count: 300, want: 9},
		{count: 100000, want: 9},
	}
	for _, tc := range cases {
		if got := types.LevelForCount(tc.count); got != tc.want {
			t.Errorf("LevelForCount(%d) = %d, want %d", tc.count, got, tc.want)
		}
	}
}

func TestRecomputeStampsNewLevels(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	svc, updates, _ := newAchievementFixture(t, now)
	updates.completed = 16 // level 3

	got, err := svc.Recompute(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if got.TotalCompletedActivities != 16 {
		t.Errorf("total = %d, want 16", got.TotalCompletedActivities)
	}
	if got.CurrentLevel != 3 {
		t.Errorf("level = %d, want 3", got.CurrentLevel)
	}
	for _, lvl := range []string{"1", "2", "3"} {
		if got.LevelUnlockDates[lvl] != now.Format(time.RFC3339) {
			t.Errorf("unlock date for level %s = %v, want stamp at now", lvl, got.LevelUnlockDates[lvl])
		}
	}
	if _, ok := got.LevelUnlockDates["4"]; ok {
		t.Error("unreached level must not be stamped")
	}
}

func TestRecomputeUnlockDatesAreWriteOnce(t *testing.T) {
	first := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	svc, updates, progress := newAchievementFixture(t, first)
	userID := uuid.New()

	updates.completed = 5
	if _, err := svc.Recompute(context.Background(), userID); err != nil {
		t.Fatalf("first recompute: %v", err)
	}

	// more completions later must stamp only the new level
	later := first.Add(48 * time.Hour)
	svc.now = func() time.Time { return later }
	updates.completed = 15

	got, err := svc.Recompute(context.Background(), userID)
	if err != nil {
		t.Fatalf("second recompute: %v", err)
	}
	if got.CurrentLevel != 3 {
		t.Fatalf("level = %d, want 3", got.CurrentLevel)
	}
	if got.LevelUnlockDates["2"] != first.Format(time.RFC3339) {
		t.Errorf("level 2 stamp changed to %v, want original %s", got.LevelUnlockDates["2"], first.Format(time.RFC3339))
	}
	if got.LevelUnlockDates["3"] != later.Format(time.RFC3339) {
		t.Errorf("level 3 stamp = %v, want %s", got.LevelUnlockDates["3"], later.Format(time.RFC3339))
	}
	_ = progress
}

func TestRecomputeLevelIsMonotonic(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	svc, updates, _ := newAchievementFixture(t, now)
	userID := uuid.New()

	prev := 0
	for _, count := range []int64{0, 5, 14, 15, 60, 299, 300} {
		updates.completed = count
		got, err := svc.Recompute(context.Background(), userID)
		if err != nil {
			t.Fatalf("recompute at %d: %v", count, err)
		}
		if got.CurrentLevel < prev {
			t.Fatalf("level decreased from %d to %d at count %d", prev, got.CurrentLevel, count)
		}
		prev = got.CurrentLevel
	}
}

func TestRecomputePreservesLastSeenLevel(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	svc, updates, progress := newAchievementFixture(t, now)
	userID := uuid.New()

	updates.completed = 5
	if _, err := svc.Recompute(context.Background(), userID); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if err := svc.MarkLevelSeen(context.Background(), userID, 2); err != nil {
		t.Fatalf("mark seen: %v", err)
	}

	got, err := svc.Recompute(context.Background(), userID)
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if got.LastSeenLevel != 2 {
		t.Errorf("last seen level = %d, want 2 after recompute", got.LastSeenLevel)
	}
	_ = progress
}

func TestMarkLevelSeenValidatesRange(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	svc, _, _ := newAchievementFixture(t, now)

	if err := svc.MarkLevelSeen(context.Background(), uuid.New(), 0); err == nil {
		t.Error("level 0 must be rejected")
	}
	if err := svc.MarkLevelSeen(context.Background(), uuid.New(), 10); err == nil {
		t.Error("level above the table must be rejected")
	}
}

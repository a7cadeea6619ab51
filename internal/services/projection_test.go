package services

import (
	"testing"
	"time"

	"github.com/glowplan/selfcare-backend/internal/types"
)

func timePtr(t time.Time) *time.Time { return &t }

func intPtr(n int) *int { return &n }

func activeDaily(id string, enabled time.Time) *types.Activity {
	return &types.Activity{
		ID:           id,
		Name:         id,
		Type:         types.ActivityTypeRegular,
		ActiveStatus: true,
		Frequency:    types.FrequencyDaily,
		EnabledAt:    timePtr(enabled),
	}
}

func TestProjectDayDaily(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	enabled := time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)

	a := activeDaily("wash", enabled)
	a.Hour, a.Minute = intPtr(9), intPtr(15)

	got := ProjectDay([]*types.Activity{a}, "2025-06-10", now)
	if len(got) != 1 {
		t.Fatalf("got %d instances, want 1", len(got))
	}
	inst := got[0]
	if inst.ID != "wash-2025-06-10" {
		t.Errorf("slot id = %q, want %q", inst.ID, "wash-2025-06-10")
	}
	if inst.Status != types.TaskStatusPending {
		t.Errorf("status = %q, want pending", inst.Status)
	}
	if inst.Time == nil || inst.Time.Hour != 9 || inst.Time.Minute != 15 {
		t.Errorf("time = %+v, want 09:15", inst.Time)
	}

	if got := ProjectDay([]*types.Activity{a}, "2025-05-31", now); len(got) != 0 {
		t.Fatalf("day before enablement: got %d instances, want 0", len(got))
	}
}

func TestProjectDayInactiveOrUnenabled(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	inactive := activeDaily("a", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	inactive.ActiveStatus = false
	unenabled := activeDaily("b", time.Time{})
	unenabled.EnabledAt = nil

	got := ProjectDay([]*types.Activity{inactive, unenabled}, "2025-06-10", now)
	if len(got) != 0 {
		t.Fatalf("got %d instances, want 0", len(got))
	}
}

func TestProjectDayWeekly(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	// Monday 2025-06-02; weekday index 2 in Sunday-first 1..7
	enabled := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	a := activeDaily("yoga", enabled)
	a.Frequency = types.FrequencyWeekly
	a.SelectedDays = []int{2, 4} // Monday, Wednesday
	a.WeeksInterval = 2

	cases := []struct {
		date string
		want bool
	}{
		{date: "2025-06-02", want: true},  // Monday, week 0
		{date: "2025-06-04", want: true},  // Wednesday, week 0
		{date: "2025-06-09", want: false}, // Monday, week 1 skipped by interval
		{date: "2025-06-16", want: true},  // Monday, week 2
		{date: "2025-06-05", want: false}, // Thursday not selected
	}
	for _, tc := range cases {
		t.Run(tc.date, func(t *testing.T) {
			got := ProjectDay([]*types.Activity{a}, tc.date, now)
			if (len(got) == 1) != tc.want {
				t.Fatalf("%s: got %d instances, want scheduled=%v", tc.date, len(got), tc.want)
			}
		})
	}
}

func TestProjectDayWeeklyDefaultsToEnableWeekday(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	enabled := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC) // Tuesday

	a := activeDaily("mask", enabled)
	a.Frequency = types.FrequencyWeekly

	if got := ProjectDay([]*types.Activity{a}, "2025-06-10", now); len(got) != 1 {
		t.Fatalf("next Tuesday: got %d instances, want 1", len(got))
	}
	if got := ProjectDay([]*types.Activity{a}, "2025-06-11", now); len(got) != 0 {
		t.Fatalf("Wednesday: got %d instances, want 0", len(got))
	}
}

func TestProjectDayMonthly(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	enabled := time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)

	a := activeDaily("facial", enabled)
	a.Frequency = types.FrequencyMonthly
	a.SelectedMonthDays = []int{1, 15}

	if got := ProjectDay([]*types.Activity{a}, "2025-06-15", now); len(got) != 1 {
		t.Fatalf("selected month day: got %d instances, want 1", len(got))
	}
	if got := ProjectDay([]*types.Activity{a}, "2025-06-14", now); len(got) != 0 {
		t.Fatalf("unselected month day: got %d instances, want 0", len(got))
	}
	// day 15 of the enable month is before the enable date
	if got := ProjectDay([]*types.Activity{a}, "2025-05-15", now); len(got) != 0 {
		t.Fatalf("before enablement: got %d instances, want 0", len(got))
	}
}

func TestProjectDayOneTime(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	a := activeDaily("appt", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	a.Type = types.ActivityTypeOneTime
	a.SelectedEndBeforeDate = timePtr(time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC))
	a.Hour, a.Minute = intPtr(14), intPtr(30)

	got := ProjectDay([]*types.Activity{a}, "2025-06-20", now)
	if len(got) != 1 {
		t.Fatalf("got %d instances, want 1", len(got))
	}
	if got[0].ID != "appt-2025-06-20-1430" {
		t.Errorf("one-time slot id = %q, want time-qualified id", got[0].ID)
	}
	if got := ProjectDay([]*types.Activity{a}, "2025-06-21", now); len(got) != 0 {
		t.Fatalf("day after: got %d instances, want 0", len(got))
	}
}

func TestProjectDayEndBefore(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	enabled := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	byDate := activeDaily("serum", enabled)
	byDate.EndBeforeType = "date"
	byDate.SelectedEndBeforeDate = timePtr(time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC))

	if got := ProjectDay([]*types.Activity{byDate}, "2025-06-05", now); len(got) != 1 {
		t.Fatalf("end date inclusive: got %d instances, want 1", len(got))
	}
	if got := ProjectDay([]*types.Activity{byDate}, "2025-06-06", now); len(got) != 0 {
		t.Fatalf("past end date: got %d instances, want 0", len(got))
	}

	byDays := activeDaily("scrub", enabled)
	byDays.EndBeforeType = "days"
	byDays.EndBeforeUnit = "3"

	if got := ProjectDay([]*types.Activity{byDays}, "2025-06-04", now); len(got) != 1 {
		t.Fatalf("within day window: got %d instances, want 1", len(got))
	}
	if got := ProjectDay([]*types.Activity{byDays}, "2025-06-05", now); len(got) != 0 {
		t.Fatalf("past day window: got %d instances, want 0", len(got))
	}
}

func TestProjectDayOrdering(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	enabled := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	late := activeDaily("late", enabled)
	late.Hour, late.Minute = intPtr(21), intPtr(0)
	early := activeDaily("early", enabled)
	early.Hour, early.Minute = intPtr(7), intPtr(45)
	untimed := activeDaily("untimed", enabled)

	got := ProjectDay([]*types.Activity{late, untimed, early}, "2025-06-10", now)
	if len(got) != 3 {
		t.Fatalf("got %d instances, want 3", len(got))
	}
	order := []string{got[0].ActivityID, got[1].ActivityID, got[2].ActivityID}
	want := []string{"early", "late", "untimed"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

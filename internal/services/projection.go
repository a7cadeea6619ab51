package services

import (
	"sort"
	"strconv"
	"time"

	"github.com/glowplan/selfcare-backend/internal/localtime"
	"github.com/glowplan/selfcare-backend/internal/types"
)

// projectionHorizonDays bounds how far into the future an open-ended
// recurrence is considered scheduled.
const projectionHorizonDays = 730

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// weekdayIndex maps Go weekdays onto the 1..7 Sunday-first indexing the
// stored selected-days arrays use.
func weekdayIndex(t time.Time) int {
	return int(t.Weekday()) + 1
}

func recurrenceEnd(a *types.Activity, start time.Time) (time.Time, bool) {
	switch a.EndBeforeType {
	case "date":
		if a.SelectedEndBeforeDate != nil {
			return dateOnly(*a.SelectedEndBeforeDate), true
		}
	case "days":
		if days, err := strconv.Atoi(a.EndBeforeUnit); err == nil {
			return start.AddDate(0, 0, days), true
		}
	}
	return time.Time{}, false
}

// occursOn reports whether the activity's recurrence schedules an occurrence
// on the target day. target must be a date-only UTC value.
func occursOn(a *types.Activity, target time.Time, now time.Time) bool {
	if !a.ActiveStatus || a.EnabledAt == nil {
		return false
	}
	start := dateOnly(*a.EnabledAt)

	if a.Type == types.ActivityTypeOneTime || a.Frequency == types.ActivityTypeOneTime {
		oneTime := start
		if a.SelectedEndBeforeDate != nil {
			oneTime = dateOnly(*a.SelectedEndBeforeDate)
		}
		return target.Equal(oneTime)
	}

	end := dateOnly(now).AddDate(0, 0, projectionHorizonDays)
	if explicit, ok := recurrenceEnd(a, start); ok && explicit.Before(end) {
		end = explicit
	}
	if target.Before(start) || target.After(end) {
		return false
	}

	switch a.Frequency {
	case types.FrequencyWeekly:
		interval := a.WeeksInterval
		if interval < 1 {
			interval = 1
		}
		selected := map[int]bool{}
		for _, d := range a.SelectedDays {
			selected[d] = true
		}
		// no selection means the start day's weekday repeats
		if len(selected) == 0 {
			selected[weekdayIndex(start)] = true
		}
		if !selected[weekdayIndex(target)] {
			return false
		}
		// weeks are 7-day blocks anchored at the enable date, every
		// interval-th block is active
		daysSince := int(target.Sub(start).Hours() / 24)
		return (daysSince/7)%interval == 0
	case types.FrequencyMonthly:
		if len(a.SelectedMonthDays) == 0 {
			return false
		}
		for _, d := range a.SelectedMonthDays {
			if target.Day() == d {
				return true
			}
		}
		return false
	default:
		// daily, and unknown frequencies degrade to daily
		return true
	}
}

// ProjectDay builds the scheduled pending instances for one calendar day
// from the user's activity definitions. The result carries no history; the
// merge step overlays recorded updates on top of it.
func ProjectDay(activities []*types.Activity, date string, now time.Time) []types.TaskInstance {
	year, month, day, err := localtime.ParseYMD(date)
	if err != nil {
		return nil
	}
	target := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)

	out := make([]types.TaskInstance, 0, len(activities))
	for _, a := range activities {
		if a == nil || !occursOn(a, target, now) {
			continue
		}
		var slotTime *types.ClockTime
		if a.Type == types.ActivityTypeOneTime {
			slotTime = a.Clock()
		}
		out = append(out, types.TaskInstance{
			ID:         types.SlotID(a.ID, date, slotTime),
			ActivityID: a.ID,
			Date:       date,
			Time:       a.Clock(),
			Status:     types.TaskStatusPending,
			UpdatedAt:  now,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return minutesOfDay(out[i].Time) < minutesOfDay(out[j].Time)
	})
	return out
}

func minutesOfDay(t *types.ClockTime) int {
	if t == nil {
		return 24 * 60
	}
	return t.Hour*60 + t.Minute
}

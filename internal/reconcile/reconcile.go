// Package reconcile collapses the unordered stream of task update events and
// the recurring-schedule projection for a day into one canonical task list.
// Everything here is pure: no I/O, safe for concurrent and repeated calls.
package reconcile

import (
	"fmt"
	"sort"

	"github.com/glowplan/selfcare-backend/internal/types"
)

// SlotKey identifies one occurrence of an activity: activityId|date|HHMM.
// Instances without a clock time use an empty trailing component, which also
// serves as the legacy fallback key for updates recorded before times were
// stored on events.
func SlotKey(i types.TaskInstance) string {
	t := ""
	if i.Time != nil {
		t = fmt.Sprintf("%02d%02d", i.Time.Hour, i.Time.Minute)
	}
	return i.ActivityID + "|" + i.Date + "|" + t
}

func SlotKeyWithoutTime(i types.TaskInstance) string {
	return i.ActivityID + "|" + i.Date + "|"
}

// PickLatestUpdates selects one winning update per slot key. The winner is
// chosen by status strength first and updatedAt second; among equal rank and
// equal timestamp the later-seen event wins. A completed or skipped event is
// never displaced by a later pending event for the same slot.
func PickLatestUpdates(updates []types.TaskInstance) map[string]types.TaskInstance {
	latest := make(map[string]types.TaskInstance, len(updates))
	for _, u := range updates {
		key := SlotKey(u)
		prev, ok := latest[key]
		if !ok {
			latest[key] = u
			continue
		}
		prevRank := prev.Status.Strength()
		curRank := u.Status.Strength()
		if curRank > prevRank {
			latest[key] = u
			continue
		}
		if curRank == prevRank && !u.UpdatedAt.Before(prev.UpdatedAt) {
			latest[key] = u
		}
	}
	return latest
}

// Merge produces the conflict-resolved task list for a day.
//
// Scheduled instances adopt the winning update for their slot (exact key
// first, date-only key as the legacy fallback) while keeping the scheduled
// occurrence's identity; unmatched updates are admitted as standalone one-off
// instances; overrides win unconditionally (optimistic UI state whose backing
// event may not have landed yet); pending instances whose activity no longer
// exists are dropped; output is ordered by clock time with untimed entries
// last.
func Merge(
	scheduled []types.TaskInstance,
	updates []types.TaskInstance,
	overrides map[string]types.TaskStatus,
	knownActivityIDs map[string]struct{},
) []types.TaskInstance {
	for _, i := range scheduled {
		mustHaveDate(i)
	}
	for _, i := range updates {
		mustHaveDate(i)
	}
	latestByKey := PickLatestUpdates(updates)

	out := make([]types.TaskInstance, 0, len(scheduled)+len(updates))
	for _, t := range scheduled {
		upd, ok := latestByKey[SlotKey(t)]
		if !ok {
			upd, ok = latestByKey[SlotKeyWithoutTime(t)]
		}
		if ok {
			t.Status = upd.Status
			t.UpdatedAt = upd.UpdatedAt
		}
		out = append(out, t)
	}

	claimed := make(map[string]struct{}, 2*len(out))
	for _, t := range out {
		claimed[SlotKey(t)] = struct{}{}
		claimed[SlotKeyWithoutTime(t)] = struct{}{}
	}
	for _, u := range updates {
		key := SlotKey(u)
		if _, ok := claimed[key]; ok {
			continue
		}
		if _, ok := claimed[SlotKeyWithoutTime(u)]; ok {
			continue
		}
		// Admit the slot's winner, not the raw event, so the one-status
		// invariant holds for orphans too.
		out = append(out, latestByKey[key])
		claimed[key] = struct{}{}
	}

	if len(overrides) > 0 {
		for i := range out {
			if status, ok := overrides[out[i].ID]; ok {
				out[i].Status = status
			}
		}
	}

	// Only pending orphans are suppressed; recorded history on a deleted
	// activity is kept.
	filtered := out[:0]
	for _, t := range out {
		if t.Status == types.TaskStatusPending {
			if _, known := knownActivityIDs[t.ActivityID]; !known {
				continue
			}
		}
		filtered = append(filtered, t)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return sortKey(filtered[i]) < sortKey(filtered[j])
	})
	return filtered
}

// A dateless instance would collapse into a wrong-looking slot key and merge
// into the wrong slot. That is a caller bug, not a runtime condition.
func mustHaveDate(i types.TaskInstance) {
	if i.Date == "" {
		panic(fmt.Sprintf("reconcile: instance %q has no date", i.ID))
	}
}

func sortKey(i types.TaskInstance) int {
	if i.Time == nil {
		return 24 * 60
	}
	return i.Time.Hour*60 + i.Time.Minute
}

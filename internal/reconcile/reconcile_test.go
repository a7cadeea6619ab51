package reconcile

import (
	"reflect"
	"testing"
	"time"

	"github.com/glowplan/selfcare-backend/internal/types"
)

func clock(h, m int) *types.ClockTime {
	return &types.ClockTime{Hour: h, Minute: m}
}

func inst(activityID, date string, t *types.ClockTime, status types.TaskStatus, updatedAt time.Time) types.TaskInstance {
	return types.TaskInstance{
		ID:         types.SlotID(activityID, date, t),
		ActivityID: activityID,
		Date:       date,
		Time:       t,
		Status:     status,
		UpdatedAt:  updatedAt,
	}
}

var (
	t0 = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	t1 = t0.Add(1 * time.Hour)
	t2 = t0.Add(2 * time.Hour)
)

func known(ids ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

func TestMergeIsIdempotent(t *testing.T) {
	scheduled := []types.TaskInstance{
		inst("wash", "2025-03-10", clock(7, 30), types.TaskStatusPending, t0),
		inst("mask", "2025-03-10", nil, types.TaskStatusPending, t0),
	}
	updates := []types.TaskInstance{
		inst("wash", "2025-03-10", clock(7, 30), types.TaskStatusCompleted, t1),
		inst("serum", "2025-03-10", clock(21, 0), types.TaskStatusCompleted, t1),
	}
	ids := known("wash", "mask")

	first := Merge(scheduled, updates, nil, ids)
	second := Merge(scheduled, updates, nil, ids)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("merge not idempotent:\nfirst  %+v\nsecond %+v", first, second)
	}
}

func TestTerminalStateStickiness(t *testing.T) {
	cases := []struct {
		name   string
		first  types.TaskStatus
		second types.TaskStatus
		want   types.TaskStatus
	}{
		{name: "completed_beats_later_pending", first: types.TaskStatusCompleted, second: types.TaskStatusPending, want: types.TaskStatusCompleted},
		{name: "skipped_beats_later_pending", first: types.TaskStatusSkipped, second: types.TaskStatusPending, want: types.TaskStatusSkipped},
		{name: "completed_beats_later_missed", first: types.TaskStatusCompleted, second: types.TaskStatusMissed, want: types.TaskStatusCompleted},
		{name: "missed_beats_later_pending", first: types.TaskStatusMissed, second: types.TaskStatusPending, want: types.TaskStatusMissed},
		{name: "equal_rank_recency_wins", first: types.TaskStatusCompleted, second: types.TaskStatusSkipped, want: types.TaskStatusSkipped},
		{name: "pending_upgraded_by_later_completed", first: types.TaskStatusPending, second: types.TaskStatusCompleted, want: types.TaskStatusCompleted},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			scheduled := []types.TaskInstance{
				inst("wash", "2025-03-10", clock(7, 30), types.TaskStatusPending, t0),
			}
			updates := []types.TaskInstance{
				inst("wash", "2025-03-10", clock(7, 30), tc.first, t1),
				inst("wash", "2025-03-10", clock(7, 30), tc.second, t2),
			}
			got := Merge(scheduled, updates, nil, known("wash"))
			if len(got) != 1 {
				t.Fatalf("expected 1 instance, got %d", len(got))
			}
			if got[0].Status != tc.want {
				t.Fatalf("status = %q, want %q", got[0].Status, tc.want)
			}
		})
	}
}

func TestLegacySlotFallback(t *testing.T) {
	// Update recorded without a time component still resolves against the
	// timed scheduled slot for the same activity and day.
	scheduled := []types.TaskInstance{
		inst("wash", "2025-03-10", clock(6, 0), types.TaskStatusPending, t0),
	}
	updates := []types.TaskInstance{
		inst("wash", "2025-03-10", nil, types.TaskStatusCompleted, t1),
	}
	got := Merge(scheduled, updates, nil, known("wash"))
	if len(got) != 1 {
		t.Fatalf("expected 1 instance, got %d", len(got))
	}
	if got[0].Status != types.TaskStatusCompleted {
		t.Fatalf("status = %q, want completed", got[0].Status)
	}
	if got[0].Time == nil || got[0].Time.Hour != 6 {
		t.Fatalf("merged instance lost the scheduled occurrence identity: %+v", got[0])
	}
}

func TestOrphanAdmission(t *testing.T) {
	scheduled := []types.TaskInstance{
		inst("wash", "2025-03-10", clock(7, 30), types.TaskStatusPending, t0),
	}
	updates := []types.TaskInstance{
		inst("facial", "2025-03-10", clock(18, 0), types.TaskStatusCompleted, t1),
	}
	got := Merge(scheduled, updates, nil, known("wash"))
	if len(got) != 2 {
		t.Fatalf("expected 2 instances, got %d: %+v", len(got), got)
	}
	if got[1].ActivityID != "facial" || got[1].Status != types.TaskStatusCompleted {
		t.Fatalf("orphan not admitted: %+v", got[1])
	}
}

func TestOrphanAdmissionCollapsesDuplicates(t *testing.T) {
	updates := []types.TaskInstance{
		inst("facial", "2025-03-10", clock(18, 0), types.TaskStatusCompleted, t1),
		inst("facial", "2025-03-10", clock(18, 0), types.TaskStatusPending, t2),
	}
	got := Merge(nil, updates, nil, known("facial"))
	if len(got) != 1 {
		t.Fatalf("expected 1 instance, got %d: %+v", len(got), got)
	}
	if got[0].Status != types.TaskStatusCompleted {
		t.Fatalf("orphan winner = %q, want completed", got[0].Status)
	}
}

func TestOrphanSuppression(t *testing.T) {
	// Pending work for a deleted activity is phantom and dropped; recorded
	// history (completed) for the same activity is never discarded.
	updates := []types.TaskInstance{
		inst("ghost", "2025-03-10", clock(8, 0), types.TaskStatusPending, t1),
		inst("ghost", "2025-03-11", clock(8, 0), types.TaskStatusCompleted, t1),
	}
	got := Merge(nil, updates, nil, known())
	if len(got) != 1 {
		t.Fatalf("expected 1 instance, got %d: %+v", len(got), got)
	}
	if got[0].Status != types.TaskStatusCompleted {
		t.Fatalf("kept instance = %+v, want the completed one", got[0])
	}
}

func TestOptimisticOverrides(t *testing.T) {
	scheduled := []types.TaskInstance{
		inst("wash", "2025-03-10", clock(7, 30), types.TaskStatusPending, t0),
	}
	overrides := map[string]types.TaskStatus{
		types.SlotID("wash", "2025-03-10", clock(7, 30)): types.TaskStatusCompleted,
	}
	got := Merge(scheduled, nil, overrides, known("wash"))
	if len(got) != 1 || got[0].Status != types.TaskStatusCompleted {
		t.Fatalf("override not applied: %+v", got)
	}
}

func TestDeterministicOrdering(t *testing.T) {
	scheduled := []types.TaskInstance{
		inst("mask", "2025-03-10", nil, types.TaskStatusPending, t0),
		inst("serum", "2025-03-10", clock(21, 0), types.TaskStatusPending, t0),
		inst("wash", "2025-03-10", clock(7, 30), types.TaskStatusPending, t0),
	}
	got := Merge(scheduled, nil, nil, known("mask", "serum", "wash"))
	wantOrder := []string{"wash", "serum", "mask"}
	if len(got) != 3 {
		t.Fatalf("expected 3 instances, got %d", len(got))
	}
	for i, want := range wantOrder {
		if got[i].ActivityID != want {
			t.Fatalf("position %d = %q, want %q (untimed sorts last)", i, got[i].ActivityID, want)
		}
	}
}

func TestMergePanicsOnMissingDate(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for dateless instance")
		}
	}()
	Merge([]types.TaskInstance{{ID: "broken", ActivityID: "wash"}}, nil, nil, known("wash"))
}

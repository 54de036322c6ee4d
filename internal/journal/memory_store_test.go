package journal

import (
	"errors"
	"testing"
	"time"

	"github.com/tohenk/go-work/pkg/api"
)

func TestMemoryStore_SaveGetUpdate(t *testing.T) {
	store := NewMemoryStore()

	rec := &api.RunRecord{
		ID:        "run-1",
		Status:    api.StatusRunning,
		Steps:     3,
		StartedAt: time.Now(),
	}
	if err := store.SaveRun(rec); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := store.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Status != api.StatusRunning || got.Steps != 3 {
		t.Fatalf("got %+v", got)
	}

	rec.Status = api.StatusCompleted
	rec.CurrentStep = 3
	rec.Output = "done"
	rec.FinishedAt = time.Now()
	if err := store.UpdateRun(rec); err != nil {
		t.Fatalf("UpdateRun: %v", err)
	}

	got, err = store.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun after update: %v", err)
	}
	if got.Status != api.StatusCompleted || got.Output != "done" {
		t.Fatalf("got %+v", got)
	}
}

func TestMemoryStore_NotFound(t *testing.T) {
	store := NewMemoryStore()

	if _, err := store.GetRun("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("GetRun err = %v, want %v", err, ErrRunNotFound)
	}
	if err := store.UpdateRun(&api.RunRecord{ID: "nope"}); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("UpdateRun err = %v, want %v", err, ErrRunNotFound)
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore()

	rec := &api.RunRecord{ID: "run-1", Status: api.StatusRunning}
	if err := store.SaveRun(rec); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, _ := store.GetRun("run-1")
	got.Status = api.StatusFailed

	again, _ := store.GetRun("run-1")
	if again.Status != api.StatusRunning {
		t.Fatal("mutating a returned record leaked into the store")
	}
}

func TestMemoryStore_ListFiltersAndOrders(t *testing.T) {
	store := NewMemoryStore()

	base := time.Now()
	records := []*api.RunRecord{
		{ID: "c", Status: api.StatusCompleted, StartedAt: base.Add(2 * time.Second)},
		{ID: "a", Status: api.StatusCompleted, StartedAt: base},
		{ID: "b", Status: api.StatusFailed, StartedAt: base.Add(time.Second)},
	}
	for _, rec := range records {
		if err := store.SaveRun(rec); err != nil {
			t.Fatalf("SaveRun(%s): %v", rec.ID, err)
		}
	}

	all, err := store.ListRuns(Filter{})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len(all) = %d, want 3", len(all))
	}
	for i, want := range []string{"a", "b", "c"} {
		if all[i].ID != want {
			t.Fatalf("all[%d].ID = %s, want %s", i, all[i].ID, want)
		}
	}

	failed, err := store.ListRuns(Filter{Status: api.StatusFailed})
	if err != nil {
		t.Fatalf("ListRuns(failed): %v", err)
	}
	if len(failed) != 1 || failed[0].ID != "b" {
		t.Fatalf("failed = %+v", failed)
	}
}

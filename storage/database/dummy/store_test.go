package dummydb

import (
	"context"
	"testing"
	"time"

	"github.com/nm2tech/classroom/core"
)

func TestInsertSelectOrdering(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, title := range []string{"Week 1", "Week 2", "Week 3"} {
		if _, err := store.Insert(ctx, core.TableNewsletters, core.Record{
			"title":      title,
			"created_at": base.Add(time.Duration(i) * time.Hour),
		}); err != nil {
			t.Fatalf("Insert(%s) failed: %v", title, err)
		}
	}

	recs, err := store.Select(ctx, core.TableNewsletters, nil, core.DBOrdering{Field: "created_at"})
	if err != nil {
		t.Fatalf("Select() failed: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("Select() returned %d rows, want 3", len(recs))
	}
	if got := recs[0].Str("title"); got != "Week 3" {
		t.Errorf("newest first = %q, want %q", got, "Week 3")
	}
}

func TestFilters(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	store.Seed(core.TableAssignments,
		core.Record{"title": "Spelling", "due_date": "2026-01-10"},
		core.Record{"title": "Verse", "due_date": "2026-05-10"},
	)

	recs, err := store.Select(ctx, core.TableAssignments, []core.Filter{core.Gte("due_date", "2026-02-01")})
	if err != nil {
		t.Fatalf("Select() failed: %v", err)
	}
	if len(recs) != 1 || recs[0].Str("title") != "Verse" {
		t.Errorf("Select(gte) = %v, want single Verse row", recs)
	}

	n, err := store.Count(ctx, core.TableAssignments, []core.Filter{core.Eq("title", "Spelling")})
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}
}

func TestUpdateDelete(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	id, err := store.Insert(ctx, core.TableEvents, core.Record{"title": "Picnic", "created_at": time.Now().UTC()})
	if err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}

	n, err := store.Update(ctx, core.TableEvents, core.Record{"title": "Class Picnic"}, []core.Filter{core.Eq("id", id)})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Update() = %d, want 1", n)
	}

	n, err = store.Delete(ctx, core.TableEvents, []core.Filter{core.Eq("id", id)})
	if err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Delete() = %d, want 1", n)
	}
	n, _ = store.Count(ctx, core.TableEvents, nil)
	if n != 0 {
		t.Errorf("Count() after delete = %d, want 0", n)
	}
}

func TestUpsertMerges(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	cols := []string{"student_id", "assignment_id"}

	if err := store.Upsert(ctx, core.TableStudentProgress, core.Record{
		"student_id":         "s1",
		"assignment_id":      "a1",
		"word_list_progress": "started",
		"created_at":         time.Now().UTC(),
	}, cols); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}
	if err := store.Upsert(ctx, core.TableStudentProgress, core.Record{
		"student_id":    "s1",
		"assignment_id": "a1",
		"completed":     true,
		"created_at":    time.Now().UTC(),
	}, cols); err != nil {
		t.Fatalf("Upsert() second call failed: %v", err)
	}

	recs, _ := store.Select(ctx, core.TableStudentProgress, nil)
	if len(recs) != 1 {
		t.Fatalf("got %d rows, want 1", len(recs))
	}
	if !recs[0].Bool("completed") {
		t.Error("completed = false, want true")
	}
}

func TestDuplicateUsernameRejected(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if _, err := store.Insert(ctx, core.TableUsers, core.Record{"username": "parent1"}); err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}
	if _, err := store.Insert(ctx, core.TableUsers, core.Record{"username": "parent1"}); err == nil {
		t.Error("Insert() duplicate username succeeded, want error")
	}
}

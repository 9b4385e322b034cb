package assignment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/nm2tech/classroom/core"
)

var ErrNotFound = errors.New("assignment not found")

// progressConflictCols is the logical identity of a progress row; the storage
// engines enforce a real uniqueness constraint over it so concurrent writes
// for the same pair cannot produce duplicate rows.
var progressConflictCols = []string{"student_id", "assignment_id"}

type Service struct {
	store core.Store
}

func NewService(store core.Store) *Service {
	return &Service{store: store}
}

func (svc *Service) Create(ctx context.Context, na NewAssignment, teacherID string) (Assignment, error) {
	a := Assignment{
		ID:          uuid.New().String(),
		Title:       na.Title,
		Description: na.Description,
		Subject:     na.Subject,
		DueDate:     na.DueDate,
		WordList:    na.WordList,
		MemoryVerse: na.MemoryVerse,
		TeacherID:   teacherID,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := svc.store.Insert(ctx, core.TableAssignments, toRecord(a)); err != nil {
		return Assignment{}, err
	}
	return a, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Assignment, error) {
	recs, err := svc.store.Select(ctx, core.TableAssignments, []core.Filter{core.Eq("id", id)})
	if err != nil {
		return Assignment{}, err
	}
	if len(recs) == 0 {
		return Assignment{}, ErrNotFound
	}
	return fromRecord(recs[0]), nil
}

// Upcoming returns assignments with due_date >= today, earliest due first.
func (svc *Service) Upcoming(ctx context.Context) ([]Assignment, error) {
	today := time.Now().UTC().Format("2006-01-02")
	recs, err := svc.store.Select(ctx, core.TableAssignments,
		[]core.Filter{core.Gte("due_date", today)},
		core.DBOrdering{Field: "due_date", Ascending: true},
	)
	if err != nil {
		return nil, err
	}

	assignments := make([]Assignment, 0, len(recs))
	for _, rec := range recs {
		assignments = append(assignments, fromRecord(rec))
	}
	return assignments, nil
}

func (svc *Service) Delete(ctx context.Context, id string) (int, error) {
	return svc.store.Delete(ctx, core.TableAssignments, []core.Filter{core.Eq("id", id)})
}

func (svc *Service) Count(ctx context.Context) (int, error) {
	return svc.store.Count(ctx, core.TableAssignments, nil)
}

// SaveProgress upserts the progress row for (studentID, assignmentID).
// Repeated saves for the same pair leave exactly one row reflecting the
// latest patch.
func (svc *Service) SaveProgress(ctx context.Context, studentID, assignmentID string, patch ProgressPatch) (Progress, error) {
	return svc.upsertProgress(ctx, studentID, assignmentID, patch, false)
}

// MarkCompleted is SaveProgress with completed=true and submitted_at stamped.
func (svc *Service) MarkCompleted(ctx context.Context, studentID, assignmentID string, patch ProgressPatch) (Progress, error) {
	return svc.upsertProgress(ctx, studentID, assignmentID, patch, true)
}

func (svc *Service) upsertProgress(ctx context.Context, studentID, assignmentID string, patch ProgressPatch, completed bool) (Progress, error) {
	if _, err := svc.Get(ctx, assignmentID); err != nil {
		return Progress{}, err
	}

	rec := core.Record{
		"id":                    uuid.New().String(),
		"student_id":            studentID,
		"assignment_id":         assignmentID,
		"word_list_progress":    patch.WordListProgress,
		"memory_verse_progress": patch.MemoryVerseProgress,
		"created_at":            time.Now().UTC(),
	}
	// a plain save leaves any prior completion mark untouched
	if completed {
		rec["completed"] = true
		rec["submitted_at"] = time.Now().UTC()
	}

	if err := svc.store.Upsert(ctx, core.TableStudentProgress, rec, progressConflictCols); err != nil {
		return Progress{}, err
	}
	return svc.progressFor(ctx, studentID, assignmentID)
}

func (svc *Service) progressFor(ctx context.Context, studentID, assignmentID string) (Progress, error) {
	recs, err := svc.store.Select(ctx, core.TableStudentProgress, []core.Filter{
		core.Eq("student_id", studentID),
		core.Eq("assignment_id", assignmentID),
	})
	if err != nil {
		return Progress{}, err
	}
	if len(recs) == 0 {
		return Progress{}, ErrNotFound
	}
	return progressFromRecord(recs[0]), nil
}

// ProgressForStudent returns all progress rows for a student.
func (svc *Service) ProgressForStudent(ctx context.Context, studentID string) ([]Progress, error) {
	recs, err := svc.store.Select(ctx, core.TableStudentProgress,
		[]core.Filter{core.Eq("student_id", studentID)},
		core.DBOrdering{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}

	progress := make([]Progress, 0, len(recs))
	for _, rec := range recs {
		progress = append(progress, progressFromRecord(rec))
	}
	return progress, nil
}

package assignment

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/nm2tech/classroom/core"
)

// Subjects taught in the classroom; the assignment subject must be one of these.
var Subjects = []string{"Bible/TFT", "Language Arts", "Math", "Science", "Social Studies"}

type Assignment struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Subject     string    `json:"subject"`
	DueDate     string    `json:"due_date"` // YYYY-MM-DD
	WordList    string    `json:"word_list"`
	MemoryVerse string    `json:"memory_verse"`
	TeacherID   string    `json:"teacher_id"`
	CreatedAt   time.Time `json:"created_at"` // UTC
}

// Progress tracks one student's work on one assignment. At most one row
// exists per (student, assignment) pair; writes go through an atomic upsert.
type Progress struct {
	ID                  string    `json:"id"`
	StudentID           string    `json:"student_id"`
	AssignmentID        string    `json:"assignment_id"`
	WordListProgress    string    `json:"word_list_progress"`
	MemoryVerseProgress string    `json:"memory_verse_progress"`
	Completed           bool      `json:"completed"`
	SubmittedAt         null.Time `json:"submitted_at"`
	CreatedAt           time.Time `json:"created_at"` // UTC
}

type NewAssignment struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Subject     string `json:"subject" validate:"required,subject"`
	DueDate     string `json:"due_date" validate:"required,datetime=2006-01-02"`
	WordList    string `json:"word_list"`
	MemoryVerse string `json:"memory_verse"`
}

func (na *NewAssignment) Validate() error {
	na.Title = core.CleanString(na.Title)
	return core.Validate.Struct(na)
}

// ProgressPatch is the caller-supplied part of a progress upsert.
type ProgressPatch struct {
	WordListProgress    string `json:"word_list_progress"`
	MemoryVerseProgress string `json:"memory_verse_progress"`
}

func fromRecord(rec core.Record) Assignment {
	return Assignment{
		ID:          rec.Str("id"),
		Title:       rec.Str("title"),
		Description: rec.Str("description"),
		Subject:     rec.Str("subject"),
		DueDate:     rec.Str("due_date"),
		WordList:    rec.Str("word_list"),
		MemoryVerse: rec.Str("memory_verse"),
		TeacherID:   rec.Str("teacher_id"),
		CreatedAt:   rec.Time("created_at"),
	}
}

func toRecord(a Assignment) core.Record {
	return core.Record{
		"id":           a.ID,
		"title":        a.Title,
		"description":  a.Description,
		"subject":      a.Subject,
		"due_date":     a.DueDate,
		"word_list":    a.WordList,
		"memory_verse": a.MemoryVerse,
		"teacher_id":   a.TeacherID,
		"created_at":   a.CreatedAt,
	}
}

func progressFromRecord(rec core.Record) Progress {
	p := Progress{
		ID:                  rec.Str("id"),
		StudentID:           rec.Str("student_id"),
		AssignmentID:        rec.Str("assignment_id"),
		WordListProgress:    rec.Str("word_list_progress"),
		MemoryVerseProgress: rec.Str("memory_verse_progress"),
		Completed:           rec.Bool("completed"),
		CreatedAt:           rec.Time("created_at"),
	}
	if rec.Str("submitted_at") != "" {
		p.SubmittedAt = null.TimeFrom(rec.Time("submitted_at"))
	}
	return p
}

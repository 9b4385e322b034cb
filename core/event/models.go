package event

import (
	"time"

	"github.com/nm2tech/classroom/core"
)

type Event struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	EventDate    string    `json:"event_date"` // YYYY-MM-DD
	EventTime    string    `json:"event_time"` // HH:MM
	Location     string    `json:"location"`
	MaxAttendees int       `json:"max_attendees"`
	TeacherID    string    `json:"teacher_id"`
	CreatedAt    time.Time `json:"created_at"` // UTC
}

// RSVP is a parent's response to an event. Multiple RSVPs per event (and per
// parent) are allowed; there is no uniqueness constraint.
type RSVP struct {
	ID             string    `json:"id"`
	EventID        string    `json:"event_id"`
	ParentID       string    `json:"parent_id"`
	ParentUsername string    `json:"parent_username,omitempty"` // resolved on read
	AttendeesCount int       `json:"attendees_count"`
	Notes          string    `json:"notes"`
	CreatedAt      time.Time `json:"created_at"` // UTC
}

type NewEvent struct {
	Title        string `json:"title" validate:"required"`
	Description  string `json:"description"`
	EventDate    string `json:"event_date" validate:"required,datetime=2006-01-02"`
	EventTime    string `json:"event_time" validate:"required"`
	Location     string `json:"location"`
	MaxAttendees int    `json:"max_attendees" validate:"omitempty,min=1"`
}

func (ne *NewEvent) Validate() error {
	ne.Title = core.CleanString(ne.Title)
	ne.Location = core.CleanString(ne.Location)
	return core.Validate.Struct(ne)
}

type NewRSVP struct {
	EventID        string `json:"event_id" validate:"required"`
	AttendeesCount int    `json:"attendees_count" validate:"required,min=1"`
	Notes          string `json:"notes"`
}

func (nr *NewRSVP) Validate() error { return core.Validate.Struct(nr) }

func fromRecord(rec core.Record) Event {
	return Event{
		ID:           rec.Str("id"),
		Title:        rec.Str("title"),
		Description:  rec.Str("description"),
		EventDate:    rec.Str("event_date"),
		EventTime:    rec.Str("event_time"),
		Location:     rec.Str("location"),
		MaxAttendees: rec.Int("max_attendees"),
		TeacherID:    rec.Str("teacher_id"),
		CreatedAt:    rec.Time("created_at"),
	}
}

func toRecord(ev Event) core.Record {
	return core.Record{
		"id":            ev.ID,
		"title":         ev.Title,
		"description":   ev.Description,
		"event_date":    ev.EventDate,
		"event_time":    ev.EventTime,
		"location":      ev.Location,
		"max_attendees": ev.MaxAttendees,
		"teacher_id":    ev.TeacherID,
		"created_at":    ev.CreatedAt,
	}
}

func rsvpFromRecord(rec core.Record) RSVP {
	return RSVP{
		ID:             rec.Str("id"),
		EventID:        rec.Str("event_id"),
		ParentID:       rec.Str("parent_id"),
		AttendeesCount: rec.Int("attendees_count"),
		Notes:          rec.Str("notes"),
		CreatedAt:      rec.Time("created_at"),
	}
}

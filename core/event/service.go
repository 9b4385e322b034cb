package event

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/nm2tech/classroom/core"
)

var ErrNotFound = errors.New("event not found")

type Service struct {
	store core.Store
}

func NewService(store core.Store) *Service {
	return &Service{store: store}
}

func (svc *Service) Create(ctx context.Context, ne NewEvent, teacherID string) (Event, error) {
	ev := Event{
		ID:           uuid.New().String(),
		Title:        ne.Title,
		Description:  ne.Description,
		EventDate:    ne.EventDate,
		EventTime:    ne.EventTime,
		Location:     ne.Location,
		MaxAttendees: ne.MaxAttendees,
		TeacherID:    teacherID,
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := svc.store.Insert(ctx, core.TableEvents, toRecord(ev)); err != nil {
		return Event{}, err
	}
	return ev, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Event, error) {
	recs, err := svc.store.Select(ctx, core.TableEvents, []core.Filter{core.Eq("id", id)})
	if err != nil {
		return Event{}, err
	}
	if len(recs) == 0 {
		return Event{}, ErrNotFound
	}
	return fromRecord(recs[0]), nil
}

// Upcoming returns events with event_date >= today, soonest first.
func (svc *Service) Upcoming(ctx context.Context) ([]Event, error) {
	today := time.Now().UTC().Format("2006-01-02")
	recs, err := svc.store.Select(ctx, core.TableEvents,
		[]core.Filter{core.Gte("event_date", today)},
		core.DBOrdering{Field: "event_date", Ascending: true},
	)
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(recs))
	for _, rec := range recs {
		events = append(events, fromRecord(rec))
	}
	return events, nil
}

func (svc *Service) Update(ctx context.Context, id string, ne NewEvent) (Event, error) {
	ev, err := svc.Get(ctx, id)
	if err != nil {
		return Event{}, err
	}
	ev.Title = ne.Title
	ev.Description = ne.Description
	ev.EventDate = ne.EventDate
	ev.EventTime = ne.EventTime
	ev.Location = ne.Location
	ev.MaxAttendees = ne.MaxAttendees

	rec := toRecord(ev)
	delete(rec, "id")
	delete(rec, "created_at")
	if _, err := svc.store.Update(ctx, core.TableEvents, rec, []core.Filter{core.Eq("id", id)}); err != nil {
		return Event{}, err
	}
	return ev, nil
}

// Delete removes an event and its RSVPs.
func (svc *Service) Delete(ctx context.Context, id string) (int, error) {
	n, err := svc.store.Delete(ctx, core.TableEvents, []core.Filter{core.Eq("id", id)})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		if _, err := svc.store.Delete(ctx, core.TableEventRSVPs, []core.Filter{core.Eq("event_id", id)}); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (svc *Service) Count(ctx context.Context) (int, error) {
	return svc.store.Count(ctx, core.TableEvents, nil)
}

// Respond records a parent's RSVP for an event.
func (svc *Service) Respond(ctx context.Context, nr NewRSVP, parentID string) (RSVP, error) {
	if _, err := svc.Get(ctx, nr.EventID); err != nil {
		return RSVP{}, err
	}
	r := RSVP{
		ID:             uuid.New().String(),
		EventID:        nr.EventID,
		ParentID:       parentID,
		AttendeesCount: nr.AttendeesCount,
		Notes:          nr.Notes,
		CreatedAt:      time.Now().UTC(),
	}
	rec := core.Record{
		"id":              r.ID,
		"event_id":        r.EventID,
		"parent_id":       r.ParentID,
		"attendees_count": r.AttendeesCount,
		"notes":           r.Notes,
		"created_at":      r.CreatedAt,
	}
	if _, err := svc.store.Insert(ctx, core.TableEventRSVPs, rec); err != nil {
		return RSVP{}, err
	}
	return r, nil
}

// RSVPs returns the responses for an event with responder usernames resolved.
func (svc *Service) RSVPs(ctx context.Context, eventID string) ([]RSVP, error) {
	recs, err := svc.store.Select(ctx, core.TableEventRSVPs, []core.Filter{core.Eq("event_id", eventID)})
	if err != nil {
		return nil, err
	}

	// resolve responder usernames in one pass
	usernames := make(map[string]string)
	usrRecs, err := svc.store.Select(ctx, core.TableUsers, nil)
	if err != nil {
		return nil, err
	}
	for _, rec := range usrRecs {
		usernames[rec.Str("id")] = rec.Str("username")
	}

	rsvps := make([]RSVP, 0, len(recs))
	for _, rec := range recs {
		r := rsvpFromRecord(rec)
		r.ParentUsername = usernames[r.ParentID]
		rsvps = append(rsvps, r)
	}
	return rsvps, nil
}

// RSVPCount returns the number of responses for an event.
func (svc *Service) RSVPCount(ctx context.Context, eventID string) (int, error) {
	return svc.store.Count(ctx, core.TableEventRSVPs, []core.Filter{core.Eq("event_id", eventID)})
}

// TotalRSVPs returns the response count across all events (reports view).
func (svc *Service) TotalRSVPs(ctx context.Context) (int, error) {
	return svc.store.Count(ctx, core.TableEventRSVPs, nil)
}

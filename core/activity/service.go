package activity

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nm2tech/classroom/core"
)

type Service struct {
	store core.Store
}

func NewService(store core.Store) *Service {
	return &Service{store: store}
}

// Log appends one activity row. Callers treat failures as best-effort: a
// logging failure must never fail the login/logout that triggered it.
func (svc *Service) Log(ctx context.Context, userID, username, role, typ string, meta Meta) error {
	rec := core.Record{
		"id":            uuid.New().String(),
		"user_id":       userID,
		"username":      username,
		"role":          role,
		"activity_type": typ,
		"ip_address":    meta.IPAddress,
		"user_agent":    meta.UserAgent,
		"created_at":    time.Now().UTC(),
	}
	_, err := svc.store.Insert(ctx, core.TableUserActivity, rec)
	return err
}

// Query returns activity rows, most recent first, optionally filtered by user.
func (svc *Service) Query(ctx context.Context, userID string) ([]Activity, error) {
	var filters []core.Filter
	if userID != "" {
		filters = append(filters, core.Eq("user_id", userID))
	}
	recs, err := svc.store.Select(ctx, core.TableUserActivity, filters, core.DBOrdering{Field: "created_at"})
	if err != nil {
		return nil, err
	}

	acts := make([]Activity, 0, len(recs))
	for _, rec := range recs {
		acts = append(acts, fromRecord(rec))
	}
	return acts, nil
}

func fromRecord(rec core.Record) Activity {
	return Activity{
		ID:        rec.Str("id"),
		UserID:    rec.Str("user_id"),
		Username:  rec.Str("username"),
		Role:      rec.Str("role"),
		Type:      rec.Str("activity_type"),
		IPAddress: rec.Str("ip_address"),
		UserAgent: rec.Str("user_agent"),
		CreatedAt: rec.Time("created_at"),
	}
}

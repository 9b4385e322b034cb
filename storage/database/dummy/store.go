// Package dummydb provides an in-memory Store for tests.
package dummydb

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/nm2tech/classroom/core"
)

type Store struct {
	mu     sync.Mutex
	tables map[string][]core.Record
}

var _ core.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{tables: make(map[string][]core.Record)}
}

func (s *Store) EnsureSchema(ctx context.Context) error { return nil }
func (s *Store) Close() error                           { return nil }

func clone(rec core.Record) core.Record {
	cp := make(core.Record, len(rec))
	for k, v := range rec {
		cp[k] = v
	}
	return cp
}

// compareValue renders values in a totally ordered form. Times get a
// fixed-width fraction so their text order agrees with chronological order.
func compareValue(v interface{}) string {
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format("2006-01-02T15:04:05.000000000")
	}
	rec := core.Record{"v": v}
	return rec.Str("v")
}

func match(rec core.Record, filters []core.Filter) bool {
	for _, f := range filters {
		got, want := compareValue(rec[f.Field]), compareValue(f.Value)
		switch f.Op {
		case core.FilterEq:
			if got != want {
				return false
			}
		case core.FilterGte:
			if got < want {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func (s *Store) Insert(ctx context.Context, table string, rec core.Record) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec = clone(rec)
	id := rec.Str("id")
	if id == "" {
		id = uuid.New().String()
		rec["id"] = id
	}
	if table == core.TableUsers {
		for _, existing := range s.tables[table] {
			if existing.Str("username") == rec.Str("username") {
				return "", core.NewStorageError("insert", table, errors.New("UNIQUE constraint failed: users.username"))
			}
		}
	}
	s.tables[table] = append(s.tables[table], rec)
	return id, nil
}

func (s *Store) Select(ctx context.Context, table string, filters []core.Filter, ordering ...core.DBOrdering) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var recs []core.Record
	for _, rec := range s.tables[table] {
		if match(rec, filters) {
			recs = append(recs, clone(rec))
		}
	}
	if len(ordering) > 0 {
		sort.SliceStable(recs, func(i, j int) bool {
			for _, ord := range ordering {
				a, b := compareValue(recs[i][ord.Field]), compareValue(recs[j][ord.Field])
				if a == b {
					continue
				}
				if ord.Ascending {
					return a < b
				}
				return a > b
			}
			return false
		})
	}
	return recs, nil
}

func (s *Store) Update(ctx context.Context, table string, patch core.Record, filters []core.Filter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	for _, rec := range s.tables[table] {
		if match(rec, filters) {
			for k, v := range patch {
				rec[k] = v
			}
			n++
		}
	}
	return n, nil
}

func (s *Store) Delete(ctx context.Context, table string, filters []core.Filter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.tables[table][:0]
	var n int
	for _, rec := range s.tables[table] {
		if match(rec, filters) {
			n++
			continue
		}
		kept = append(kept, rec)
	}
	s.tables[table] = kept
	return n, nil
}

func (s *Store) Count(ctx context.Context, table string, filters []core.Filter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	for _, rec := range s.tables[table] {
		if match(rec, filters) {
			n++
		}
	}
	return n, nil
}

func (s *Store) Upsert(ctx context.Context, table string, rec core.Record, conflictCols []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(conflictCols) == 0 {
		return core.NewStorageError("upsert", table, errors.New("no conflict columns"))
	}
	rec = clone(rec)
	if !rec.Has("id") {
		rec["id"] = uuid.New().String()
	}

	for _, existing := range s.tables[table] {
		if conflictKey(existing, conflictCols) == conflictKey(rec, conflictCols) {
			for k, v := range rec {
				if k == "id" || k == "created_at" {
					continue
				}
				existing[k] = v
			}
			return nil
		}
	}
	s.tables[table] = append(s.tables[table], rec)
	return nil
}

func conflictKey(rec core.Record, cols []string) string {
	parts := make([]string, 0, len(cols))
	for _, col := range cols {
		parts = append(parts, rec.Str(col))
	}
	return strings.Join(parts, "\x00")
}

// Seed inserts rows directly, stamping created_at when absent.
func (s *Store) Seed(table string, recs ...core.Record) {
	for _, rec := range recs {
		rec = clone(rec)
		if !rec.Has("created_at") {
			rec["created_at"] = time.Now().UTC()
		}
		_, _ = s.Insert(context.Background(), table, rec)
	}
}

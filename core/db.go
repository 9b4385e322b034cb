package core

import (
	"context"
	"strconv"
	"time"
)

// Persisted tables. Both engines expose the same logical tables; the remote
// engine's schema is managed out of band.
const (
	TableUsers           = "users"
	TableNewsletters     = "newsletters"
	TableEvents          = "events"
	TableEventRSVPs      = "event_rsvps"
	TableAssignments     = "assignments"
	TableStudentProgress = "student_progress"
	TableUserActivity    = "user_activity"
)

// Record is the engine-independent shape of a table row: a mapping from
// column name to value. Accessors normalize engine differences (the embedded
// engine yields []byte/int64, the remote engine strings/float64).
type Record map[string]interface{}

func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

func (r Record) Str(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case *string:
		if v == nil {
			return ""
		}
		return *v
	case []byte:
		return string(v)
	case nil:
		return ""
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case *time.Time:
		if v == nil {
			return ""
		}
		return v.UTC().Format(time.RFC3339)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func (r Record) Int(key string) int {
	switch v := r[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	case []byte:
		n, _ := strconv.Atoi(string(v))
		return n
	}
	return 0
}

func (r Record) Bool(key string) bool {
	switch v := r[key].(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case int:
		return v != 0
	case float64:
		return v != 0
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	case []byte:
		b, _ := strconv.ParseBool(string(v))
		return b
	}
	return false
}

func (r Record) Time(key string) time.Time {
	switch v := r[key].(type) {
	case time.Time:
		return v.UTC()
	case *time.Time:
		if v == nil {
			return time.Time{}
		}
		return v.UTC()
	case string:
		return parseTime(v)
	case []byte:
		return parseTime(string(v))
	}
	return time.Time{}
}

func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// FilterOp is a predicate operator. Only equality and >= (date range queries)
// are supported; filters compose with implicit AND.
type FilterOp string

const (
	FilterEq  FilterOp = "eq"
	FilterGte FilterOp = "gte"
)

type Filter struct {
	Field string
	Op    FilterOp
	Value interface{}
}

func Eq(field string, value interface{}) Filter {
	return Filter{Field: field, Op: FilterEq, Value: value}
}

func Gte(field string, value interface{}) Filter {
	return Filter{Field: field, Op: FilterGte, Value: value}
}

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// Store presents one uniform query contract over the active storage engine.
// Callers must not know which engine answers; every failure is reported as a
// *StorageError.
type Store interface {
	// Insert stores rec and returns its id, generating one if absent.
	Insert(ctx context.Context, table string, rec Record) (string, error)
	Select(ctx context.Context, table string, filters []Filter, ordering ...DBOrdering) ([]Record, error)
	// Update applies patch to all rows matching filters and returns the
	// number of rows affected.
	Update(ctx context.Context, table string, patch Record, filters []Filter) (int, error)
	Delete(ctx context.Context, table string, filters []Filter) (int, error)
	Count(ctx context.Context, table string, filters []Filter) (int, error)
	// Upsert inserts rec or, on a conflict over conflictCols, updates the
	// existing row in place. The operation is atomic within the engine.
	Upsert(ctx context.Context, table string, rec Record, conflictCols []string) error
	// EnsureSchema performs idempotent schema setup: DDL + ad hoc column
	// addition on the embedded engine, a no-op on the remote engine.
	EnsureSchema(ctx context.Context) error
	Close() error
}

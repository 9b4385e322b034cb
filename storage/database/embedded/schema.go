package embedded

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/nm2tech/classroom/core"
)

var tableDDL = []string{
	`CREATE TABLE IF NOT EXISTS ` + core.TableUsers + ` (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		role TEXT NOT NULL,
		email TEXT,
		phone TEXT,
		name TEXT,
		parent_id TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ` + core.TableNewsletters + ` (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		date TEXT,
		teacher_id TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ` + core.TableEvents + ` (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		event_date TEXT NOT NULL,
		event_time TEXT,
		location TEXT,
		max_attendees INTEGER,
		teacher_id TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ` + core.TableEventRSVPs + ` (
		id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL,
		parent_id TEXT NOT NULL,
		attendees_count INTEGER NOT NULL DEFAULT 1,
		notes TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ` + core.TableAssignments + ` (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		subject TEXT,
		due_date TEXT NOT NULL,
		word_list TEXT,
		memory_verse TEXT,
		teacher_id TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ` + core.TableStudentProgress + ` (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		assignment_id TEXT NOT NULL,
		word_list_progress TEXT,
		memory_verse_progress TEXT,
		completed INTEGER NOT NULL DEFAULT 0,
		submitted_at TEXT,
		created_at TEXT NOT NULL,
		UNIQUE (student_id, assignment_id)
	)`,
	`CREATE TABLE IF NOT EXISTS ` + core.TableUserActivity + ` (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		username TEXT,
		role TEXT,
		activity_type TEXT NOT NULL,
		ip_address TEXT,
		user_agent TEXT,
		created_at TEXT NOT NULL
	)`,
}

// addedColumns are columns introduced after the initial schema shipped.
// They are added one by one so databases created by older builds upgrade
// in place.
var addedColumns = []struct {
	table, column, ddl string
}{
	{core.TableUsers, "name", "ALTER TABLE " + core.TableUsers + " ADD COLUMN name TEXT"},
	{core.TableUsers, "parent_id", "ALTER TABLE " + core.TableUsers + " ADD COLUMN parent_id TEXT"},
}

// EnsureSchema creates the tables and absorbs the incremental column
// additions. It is safe to call on every startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, ddl := range tableDDL {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return core.NewStorageError("ensure-schema", "", err)
		}
	}
	for _, ac := range addedColumns {
		if _, err := s.db.ExecContext(ctx, ac.ddl); err != nil {
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return core.NewStorageError("ensure-schema", ac.table, errors.Wrapf(err, "adding column %s", ac.column))
		}
	}
	return nil
}

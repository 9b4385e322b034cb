package embedded

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/nm2tech/classroom/core"
)

// Store is the embedded file-backed engine.
type Store struct {
	db *sqlx.DB
}

var _ core.Store = (*Store)(nil)

func Open(conf *core.Config) (*Store, error) {
	db, err := sqlx.Open("sqlite3", conf.Database.Path+"?_fk=1&_busy_timeout=5000")
	if err != nil {
		return nil, errors.Wrap(err, "opening sqlite file")
	}
	// sqlite serializes writers; a single connection avoids SQLITE_BUSY
	// races between them.
	db.SetMaxOpenConns(1)
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

var identRx = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// checkIdent guards table and column names interpolated into SQL text.
// Values always travel as bind parameters.
func checkIdent(names ...string) error {
	for _, n := range names {
		if !identRx.MatchString(n) {
			return errors.Errorf("invalid identifier %q", n)
		}
	}
	return nil
}

// timeLayout is RFC3339 with a fixed-width fraction: text ordering of two
// UTC timestamps then agrees with their chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// bindValue converts Record values to driver-friendly types. Times are
// stored as RFC3339 text so both engines read them back the same way.
func bindValue(v interface{}) interface{} {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format(timeLayout)
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.UTC().Format(timeLayout)
	}
	return v
}

func whereClause(filters []core.Filter) (string, []interface{}, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}
	conds := make([]string, 0, len(filters))
	args := make([]interface{}, 0, len(filters))
	for _, f := range filters {
		if err := checkIdent(f.Field); err != nil {
			return "", nil, err
		}
		switch f.Op {
		case core.FilterEq:
			conds = append(conds, f.Field+" = ?")
		case core.FilterGte:
			conds = append(conds, f.Field+" >= ?")
		default:
			return "", nil, errors.Errorf("unsupported filter op %q", f.Op)
		}
		args = append(args, bindValue(f.Value))
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

func (s *Store) Insert(ctx context.Context, table string, rec core.Record) (string, error) {
	if err := checkIdent(table); err != nil {
		return "", core.NewStorageError("insert", table, err)
	}
	id := rec.Str("id")
	if id == "" {
		id = uuid.New().String()
		rec["id"] = id
	}

	cols := make([]string, 0, len(rec))
	for col := range rec {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	marks := make([]string, 0, len(cols))
	args := make([]interface{}, 0, len(cols))
	for _, col := range cols {
		if err := checkIdent(col); err != nil {
			return "", core.NewStorageError("insert", table, err)
		}
		marks = append(marks, "?")
		args = append(args, bindValue(rec[col]))
	}

	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), strings.Join(marks, ", "))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return "", core.NewStorageError("insert", table, err)
	}
	return id, nil
}

func (s *Store) Select(ctx context.Context, table string, filters []core.Filter, ordering ...core.DBOrdering) ([]core.Record, error) {
	if err := checkIdent(table); err != nil {
		return nil, core.NewStorageError("select", table, err)
	}
	where, args, err := whereClause(filters)
	if err != nil {
		return nil, core.NewStorageError("select", table, err)
	}

	q := "SELECT * FROM " + table + where
	if len(ordering) > 0 {
		clauses := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			if err := checkIdent(ord.Field); err != nil {
				return nil, core.NewStorageError("select", table, err)
			}
			clauses = append(clauses, ord.String())
		}
		q += " ORDER BY " + strings.Join(clauses, ", ")
	}

	rows, err := s.db.QueryxContext(ctx, q, args...)
	if err != nil {
		return nil, core.NewStorageError("select", table, err)
	}
	defer func() { _ = rows.Close() }()

	var recs []core.Record
	for rows.Next() {
		rec := make(core.Record)
		if err := rows.MapScan(rec); err != nil {
			return nil, core.NewStorageError("select", table, err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewStorageError("select", table, err)
	}
	return recs, nil
}

func (s *Store) Update(ctx context.Context, table string, patch core.Record, filters []core.Filter) (int, error) {
	if err := checkIdent(table); err != nil {
		return 0, core.NewStorageError("update", table, err)
	}
	if len(patch) == 0 {
		return 0, nil
	}

	cols := make([]string, 0, len(patch))
	for col := range patch {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	sets := make([]string, 0, len(cols))
	args := make([]interface{}, 0, len(cols))
	for _, col := range cols {
		if err := checkIdent(col); err != nil {
			return 0, core.NewStorageError("update", table, err)
		}
		sets = append(sets, col+" = ?")
		args = append(args, bindValue(patch[col]))
	}

	where, whereArgs, err := whereClause(filters)
	if err != nil {
		return 0, core.NewStorageError("update", table, err)
	}
	args = append(args, whereArgs...)

	res, err := s.db.ExecContext(ctx, "UPDATE "+table+" SET "+strings.Join(sets, ", ")+where, args...)
	if err != nil {
		return 0, core.NewStorageError("update", table, err)
	}
	return rowsAffected(res, "update", table)
}

func (s *Store) Delete(ctx context.Context, table string, filters []core.Filter) (int, error) {
	if err := checkIdent(table); err != nil {
		return 0, core.NewStorageError("delete", table, err)
	}
	where, args, err := whereClause(filters)
	if err != nil {
		return 0, core.NewStorageError("delete", table, err)
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM "+table+where, args...)
	if err != nil {
		return 0, core.NewStorageError("delete", table, err)
	}
	return rowsAffected(res, "delete", table)
}

func (s *Store) Count(ctx context.Context, table string, filters []core.Filter) (int, error) {
	if err := checkIdent(table); err != nil {
		return 0, core.NewStorageError("count", table, err)
	}
	where, args, err := whereClause(filters)
	if err != nil {
		return 0, core.NewStorageError("count", table, err)
	}
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+table+where, args...); err != nil {
		return 0, core.NewStorageError("count", table, err)
	}
	return n, nil
}

func (s *Store) Upsert(ctx context.Context, table string, rec core.Record, conflictCols []string) error {
	if err := checkIdent(table); err != nil {
		return core.NewStorageError("upsert", table, err)
	}
	if len(conflictCols) == 0 {
		return core.NewStorageError("upsert", table, errors.New("no conflict columns"))
	}
	if err := checkIdent(conflictCols...); err != nil {
		return core.NewStorageError("upsert", table, err)
	}
	if !rec.Has("id") {
		rec["id"] = uuid.New().String()
	}

	conflictSet := make(map[string]bool, len(conflictCols))
	for _, col := range conflictCols {
		conflictSet[col] = true
	}

	cols := make([]string, 0, len(rec))
	for col := range rec {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	marks := make([]string, 0, len(cols))
	args := make([]interface{}, 0, len(cols))
	updates := make([]string, 0, len(cols))
	for _, col := range cols {
		if err := checkIdent(col); err != nil {
			return core.NewStorageError("upsert", table, err)
		}
		marks = append(marks, "?")
		args = append(args, bindValue(rec[col]))
		// the row identity and creation time survive the update
		if !conflictSet[col] && col != "id" && col != "created_at" {
			updates = append(updates, col+" = excluded."+col)
		}
	}

	q := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		table, strings.Join(cols, ", "), strings.Join(marks, ", "),
		strings.Join(conflictCols, ", "), strings.Join(updates, ", "),
	)
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return core.NewStorageError("upsert", table, err)
	}
	return nil
}

func rowsAffected(res sql.Result, op, table string) (int, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, core.NewStorageError(op, table, err)
	}
	return int(n), nil
}

package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/nm2tech/classroom/core"
)

// Store is the remote engine. It speaks the PostgREST dialect served by
// hosted Postgres providers: filters and ordering map to query parameters,
// writes return the affected rows via the Prefer header.
type Store struct {
	baseURL string // https://<project>/rest/v1
	key     string

	// send is swappable in tests.
	send func(rest.Request) (*rest.Response, error)
}

var _ core.Store = (*Store)(nil)

func Open(conf *core.Config) (*Store, error) {
	return &Store{
		baseURL: strings.TrimRight(conf.Database.RemoteURL, "/"),
		key:     conf.Database.RemoteKey,
		send:    rest.Send,
	}, nil
}

// EnsureSchema is a no-op: the remote schema is managed by the provider.
func (s *Store) EnsureSchema(ctx context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) request(method rest.Method, table string, params map[string]string, prefer string, body []byte) rest.Request {
	headers := map[string]string{
		"apikey":        s.key,
		"Authorization": "Bearer " + s.key,
		"Content-Type":  "application/json",
	}
	if prefer != "" {
		headers["Prefer"] = prefer
	}
	return rest.Request{
		Method:      method,
		BaseURL:     s.baseURL + "/" + table,
		Headers:     headers,
		QueryParams: params,
		Body:        body,
	}
}

// paramValue renders a filter value in query parameter form.
func paramValue(v interface{}) string {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

func filterParams(filters []core.Filter) (map[string]string, error) {
	params := make(map[string]string, len(filters))
	for _, f := range filters {
		switch f.Op {
		case core.FilterEq:
			params[f.Field] = "eq." + paramValue(f.Value)
		case core.FilterGte:
			params[f.Field] = "gte." + paramValue(f.Value)
		default:
			return nil, errors.Errorf("unsupported filter op %q", f.Op)
		}
	}
	return params, nil
}

func (s *Store) do(req rest.Request, op, table string) (*rest.Response, error) {
	resp, err := s.send(req)
	if err != nil {
		return nil, core.NewStorageError(op, table, err)
	}
	if resp.StatusCode >= 400 {
		return nil, core.NewStorageError(op, table, errors.Errorf("remote responded %d: %s", resp.StatusCode, strings.TrimSpace(resp.Body)))
	}
	return resp, nil
}

func decodeRows(body, op, table string) ([]core.Record, error) {
	var recs []core.Record
	if strings.TrimSpace(body) == "" {
		return recs, nil
	}
	if err := json.Unmarshal([]byte(body), &recs); err != nil {
		return nil, core.NewStorageError(op, table, errors.Wrap(err, "decoding response"))
	}
	return recs, nil
}

func (s *Store) Insert(ctx context.Context, table string, rec core.Record) (string, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return "", core.NewStorageError("insert", table, err)
	}
	resp, err := s.do(s.request(rest.Post, table, nil, "return=representation", body), "insert", table)
	if err != nil {
		return "", err
	}
	rows, err := decodeRows(resp.Body, "insert", table)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", core.NewStorageError("insert", table, errors.New("no row returned"))
	}
	return rows[0].Str("id"), nil
}

func (s *Store) Select(ctx context.Context, table string, filters []core.Filter, ordering ...core.DBOrdering) ([]core.Record, error) {
	params, err := filterParams(filters)
	if err != nil {
		return nil, core.NewStorageError("select", table, err)
	}
	if len(ordering) > 0 {
		clauses := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			direction := "desc"
			if ord.Ascending {
				direction = "asc"
			}
			clauses = append(clauses, ord.Field+"."+direction)
		}
		params["order"] = strings.Join(clauses, ",")
	}
	resp, err := s.do(s.request(rest.Get, table, params, "", nil), "select", table)
	if err != nil {
		return nil, err
	}
	return decodeRows(resp.Body, "select", table)
}

func (s *Store) Update(ctx context.Context, table string, patch core.Record, filters []core.Filter) (int, error) {
	if len(patch) == 0 {
		return 0, nil
	}
	params, err := filterParams(filters)
	if err != nil {
		return 0, core.NewStorageError("update", table, err)
	}
	body, err := json.Marshal(patch)
	if err != nil {
		return 0, core.NewStorageError("update", table, err)
	}
	resp, err := s.do(s.request(rest.Patch, table, params, "return=representation", body), "update", table)
	if err != nil {
		return 0, err
	}
	rows, err := decodeRows(resp.Body, "update", table)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (s *Store) Delete(ctx context.Context, table string, filters []core.Filter) (int, error) {
	params, err := filterParams(filters)
	if err != nil {
		return 0, core.NewStorageError("delete", table, err)
	}
	resp, err := s.do(s.request(rest.Delete, table, params, "return=representation", nil), "delete", table)
	if err != nil {
		return 0, err
	}
	rows, err := decodeRows(resp.Body, "delete", table)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (s *Store) Count(ctx context.Context, table string, filters []core.Filter) (int, error) {
	params, err := filterParams(filters)
	if err != nil {
		return 0, core.NewStorageError("count", table, err)
	}
	resp, err := s.do(s.request(rest.Method("HEAD"), table, params, "count=exact", nil), "count", table)
	if err != nil {
		return 0, err
	}
	return parseContentRange(resp.Headers["Content-Range"], table)
}

// parseContentRange extracts the total from a "0-24/3051" style header.
func parseContentRange(values []string, table string) (int, error) {
	if len(values) == 0 {
		return 0, core.NewStorageError("count", table, errors.New("missing Content-Range header"))
	}
	parts := strings.SplitN(values[0], "/", 2)
	if len(parts) != 2 {
		return 0, core.NewStorageError("count", table, errors.Errorf("malformed Content-Range %q", values[0]))
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, core.NewStorageError("count", table, errors.Wrapf(err, "malformed Content-Range %q", values[0]))
	}
	return n, nil
}

func (s *Store) Upsert(ctx context.Context, table string, rec core.Record, conflictCols []string) error {
	if len(conflictCols) == 0 {
		return core.NewStorageError("upsert", table, errors.New("no conflict columns"))
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return core.NewStorageError("upsert", table, err)
	}
	params := map[string]string{"on_conflict": strings.Join(conflictCols, ",")}
	req := s.request(rest.Post, table, params, "resolution=merge-duplicates,return=representation", body)
	if _, err := s.do(req, "upsert", table); err != nil {
		return err
	}
	return nil
}

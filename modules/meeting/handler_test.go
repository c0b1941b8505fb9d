package meeting_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/followupbot/tenantkit/modules/meeting"
	"github.com/followupbot/tenantkit/pkg/tenant"
)

type fakeDB struct {
	rowSQL  string
	rowArgs []any
	rowID   uuid.UUID
	rowErr  error

	querySQL string
	rows     *fakeRows
}

func (f *fakeDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (f *fakeDB) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	f.querySQL = sql
	if f.rows == nil {
		return &fakeRows{}, nil
	}
	return f.rows, nil
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.rowSQL = sql
	f.rowArgs = args
	return fakeRow{id: f.rowID, err: f.rowErr}
}

type fakeRow struct {
	id  uuid.UUID
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) == 1 {
		if p, ok := dest[0].(*uuid.UUID); ok {
			*p = r.id
		}
	}
	return nil
}

// fakeRows replays canned rows through the pgx.Rows surface so the row
// collection path can run without a database.
type fakeRows struct {
	cols   []string
	values [][]any
	idx    int
}

func (r *fakeRows) Close()                        {}
func (r *fakeRows) Err() error                    { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }
func (r *fakeRows) Values() ([]any, error)        { return r.values[r.idx-1], nil }
func (r *fakeRows) RawValues() [][]byte           { return nil }
func (r *fakeRows) Conn() *pgx.Conn               { return nil }

func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription {
	fds := make([]pgconn.FieldDescription, len(r.cols))
	for i, col := range r.cols {
		fds[i].Name = col
	}
	return fds
}

func (r *fakeRows) Next() bool {
	r.idx++
	return r.idx <= len(r.values)
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.values[r.idx-1]
	for i, d := range dest {
		target := reflect.ValueOf(d).Elem()
		if row[i] == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		target.Set(reflect.ValueOf(row[i]))
	}
	return nil
}

func boundRequest(t *testing.T, path string, form url.Values) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	tn := &tenant.Tenant{ID: uuid.New(), WorkspaceID: "T0001", Status: tenant.StatusActive}
	return r.WithContext(tenant.Bind(r.Context(), tn))
}

func slackText(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		ResponseType string `json:"response_type"`
		Text         string `json:"text"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ephemeral", resp.ResponseType)
	return resp.Text
}

func newTestHandler(t *testing.T, db *fakeDB) *meeting.Handler {
	t.Helper()
	h, err := meeting.NewHandler(db, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	return h
}

func TestHandleSlashCommand(t *testing.T) {
	t.Parallel()

	t.Run("note records a session for the bound tenant", func(t *testing.T) {
		t.Parallel()

		db := &fakeDB{rowID: uuid.New()}
		h := newTestHandler(t, db)

		form := url.Values{
			"command":    {"/followup"},
			"text":       {"note Standup recap"},
			"channel_id": {"C123"},
		}
		rec := httptest.NewRecorder()
		h.Router().ServeHTTP(rec, boundRequest(t, "/commands", form))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, slackText(t, rec), "Standup recap")

		assert.Contains(t, db.rowSQL, "INSERT INTO meeting_sessions")
		assert.Contains(t, db.rowSQL, "tenant_id")
	})

	t.Run("list returns recent sessions for the workspace", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
		tenantID := uuid.New()
		sessionCols := []string{"id", "tenant_id", "channel_id", "title", "notes", "created_at", "updated_at", "deleted_at"}
		db := &fakeDB{rows: &fakeRows{
			cols: sessionCols,
			values: [][]any{
				{uuid.New(), tenantID, "C123", "Standup recap", "", now, now, nil},
				{uuid.New(), tenantID, "C123", "Q3 planning", "", now.Add(-time.Hour), now.Add(-time.Hour), nil},
			},
		}}
		h := newTestHandler(t, db)

		form := url.Values{"command": {"/followup"}, "text": {"list"}}
		rec := httptest.NewRecorder()
		h.Router().ServeHTTP(rec, boundRequest(t, "/commands", form))

		require.Equal(t, http.StatusOK, rec.Code)
		text := slackText(t, rec)
		assert.Contains(t, text, "Standup recap")
		assert.Contains(t, text, "Q3 planning")

		assert.Contains(t, db.querySQL, "FROM meeting_sessions")
		assert.Contains(t, db.querySQL, "tenant_id = $1")
		assert.Contains(t, db.querySQL, "ORDER BY created_at DESC")
	})

	t.Run("list with no sessions reports empty", func(t *testing.T) {
		t.Parallel()

		h := newTestHandler(t, &fakeDB{})

		form := url.Values{"command": {"/followup"}, "text": {"list"}}
		rec := httptest.NewRecorder()
		h.Router().ServeHTTP(rec, boundRequest(t, "/commands", form))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, slackText(t, rec), "No follow-ups recorded yet")
	})

	t.Run("note without a title reports usage", func(t *testing.T) {
		t.Parallel()

		h := newTestHandler(t, &fakeDB{})

		form := url.Values{"command": {"/followup"}, "text": {"note"}}
		rec := httptest.NewRecorder()
		h.Router().ServeHTTP(rec, boundRequest(t, "/commands", form))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, slackText(t, rec), "Usage")
	})

	t.Run("unknown subcommand reports help", func(t *testing.T) {
		t.Parallel()

		h := newTestHandler(t, &fakeDB{})

		form := url.Values{"command": {"/followup"}, "text": {"frobnicate"}}
		rec := httptest.NewRecorder()
		h.Router().ServeHTTP(rec, boundRequest(t, "/commands", form))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, slackText(t, rec), "Unknown subcommand")
	})
}

func TestHandleEvent(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, &fakeDB{})

	body := `{"type":"event_callback","team_id":"T0001","event":{"type":"message","channel":"C123"}}`
	r := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	tn := &tenant.Tenant{ID: uuid.New(), WorkspaceID: "T0001", Status: tenant.StatusActive}
	r = r.WithContext(tenant.Bind(r.Context(), tn))

	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleInteraction(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, &fakeDB{})

	payload := `{"type":"block_actions","team":{"id":"T0001"}}`
	form := url.Values{"payload": {payload}}
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, boundRequest(t, "/interactions", form))

	assert.Equal(t, http.StatusOK, rec.Code)
}

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/NordCoder/ordotrack/internal/domain/prescription"
	"github.com/NordCoder/ordotrack/internal/repository"
	"github.com/NordCoder/ordotrack/internal/repository/memory"
	pg "github.com/NordCoder/ordotrack/internal/repository/postgres"
	"github.com/NordCoder/ordotrack/internal/services/notifier"
	"github.com/NordCoder/ordotrack/internal/services/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type stubAlerter struct {
	perm  prescription.Permission
	shown int
}

func (a *stubAlerter) Permission() prescription.Permission { return a.perm }

func (a *stubAlerter) RequestPermission(context.Context) (prescription.Permission, error) {
	if a.perm == prescription.PermissionUnset {
		a.perm = prescription.PermissionGranted
	}
	return a.perm, nil
}

func (a *stubAlerter) Show(context.Context, prescription.Alert) error {
	a.shown++
	return nil
}

type stubAlertLog struct {
	got     pg.AlertFilter
	entries []*prescription.JournalEntry
}

func (s *stubAlertLog) List(_ context.Context, f pg.AlertFilter) ([]*prescription.JournalEntry, error) {
	s.got = f
	return s.entries, nil
}

type testAPI struct {
	srv     http.Handler
	alerter *stubAlerter
	log     *stubAlertLog
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	ctx := context.Background()
	clock := fixedClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	al := &stubAlerter{perm: prescription.PermissionUnset}
	store := repository.NewStore(memory.New(), "", nil)
	tr := tracker.New(ctx, store, clock, notifier.NewUC(al, clock, nil, nil), nil)
	alerts := &stubAlertLog{}
	return &testAPI{srv: NewHandler(tr, clock, alerts, nil).Router(), alerter: al, log: alerts}
}

func (a *testAPI) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	a.srv.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorDetail {
	t.Helper()
	var body errorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}

func TestAddAndListPrescriptions(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/v1/prescriptions", `{"name":"Alice","label":"Insuline","days":5}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = a.do(t, http.MethodPost, "/v1/prescriptions", `{"name":"Bob","label":"Ventoline","days":"30"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = a.do(t, http.MethodGet, "/v1/prescriptions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []tracker.Row
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "Bob", rows[0].Name)
	assert.False(t, rows[0].Flagged)
	assert.Equal(t, "Alice", rows[1].Name)
	assert.Equal(t, 5, rows[1].DaysLeft)
	assert.True(t, rows[1].Flagged)
	assert.Equal(t, "06/01/2024", rows[1].Expiry)
}

func TestAddRejectsInvalidInput(t *testing.T) {
	a := newTestAPI(t)

	for _, body := range []string{
		`{"name":"","label":"X","days":1}`,
		`{"name":"A","label":"X","days":-2}`,
		`{"name":"A","label":"X","days":"abc"}`,
		`not json`,
	} {
		rec := a.do(t, http.MethodPost, "/v1/prescriptions", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, CodeValidationError, decodeError(t, rec).Code, body)
	}
}

func TestDeletePrescription(t *testing.T) {
	a := newTestAPI(t)
	rec := a.do(t, http.MethodPost, "/v1/prescriptions", `{"name":"Alice","label":"Insuline","days":5}`)
	var r prescription.Record
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&r))

	rec = a.do(t, http.MethodDelete, "/v1/prescriptions/"+r.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = a.do(t, http.MethodDelete, "/v1/prescriptions/"+r.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, CodeNotFound, decodeError(t, rec).Code)
}

func TestResetPrescriptions(t *testing.T) {
	a := newTestAPI(t)
	a.do(t, http.MethodPost, "/v1/prescriptions", `{"name":"Alice","label":"Insuline","days":5}`)

	rec := a.do(t, http.MethodDelete, "/v1/prescriptions", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = a.do(t, http.MethodGet, "/v1/prescriptions", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestBackupExportAndImport(t *testing.T) {
	a := newTestAPI(t)
	a.do(t, http.MethodPost, "/v1/prescriptions", `{"name":"Alice","label":"Insuline","days":5}`)

	rec := a.do(t, http.MethodGet, "/v1/backup", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "ordonnances_backup.json")
	exported := rec.Body.String()
	assert.Contains(t, exported, "\n  {")

	a.do(t, http.MethodDelete, "/v1/prescriptions", "")
	rec = a.do(t, http.MethodPost, "/v1/backup", exported)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"imported":1}`, rec.Body.String())
}

func TestBackupImportInvalid(t *testing.T) {
	a := newTestAPI(t)
	a.do(t, http.MethodPost, "/v1/prescriptions", `{"name":"Alice","label":"Insuline","days":5}`)

	rec := a.do(t, http.MethodPost, "/v1/backup", `"not json"`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeInvalidBackupFormat, decodeError(t, rec).Code)
	rec = a.do(t, http.MethodGet, "/v1/prescriptions", "")
	var rows []tracker.Row
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rows))
	assert.Len(t, rows, 1)
}

func TestPermissionAndCheck(t *testing.T) {
	a := newTestAPI(t)
	a.do(t, http.MethodPost, "/v1/prescriptions", `{"name":"Alice","label":"Insuline","days":5}`)

	rec := a.do(t, http.MethodGet, "/v1/notifications/permission", "")
	assert.JSONEq(t, `{"permission":"unset"}`, rec.Body.String())

	rec = a.do(t, http.MethodPost, "/v1/notifications/check", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"checked":1,"due":1,"sent":0,"failed":0}`, rec.Body.String())

	rec = a.do(t, http.MethodPost, "/v1/notifications/permission", `{"granted":true}`)
	assert.JSONEq(t, `{"permission":"granted"}`, rec.Body.String())

	rec = a.do(t, http.MethodPost, "/v1/notifications/check", "")
	assert.JSONEq(t, `{"checked":1,"due":1,"sent":1,"failed":0}`, rec.Body.String())
	rec = a.do(t, http.MethodPost, "/v1/notifications/check", "")
	assert.JSONEq(t, `{"checked":1,"due":0,"sent":0,"failed":0}`, rec.Body.String())
	assert.Equal(t, 1, a.alerter.shown)
}

func TestPermissionRejectsMalformedBody(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/v1/notifications/permission", `{`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListAlerts(t *testing.T) {
	a := newTestAPI(t)
	sent := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	a.log.entries = []*prescription.JournalEntry{{RecordID: "r1", Name: "Alice", Label: "Insuline", DaysLeft: 5, SentAt: sent, Payload: "body"}}

	rec := a.do(t, http.MethodGet, "/v1/alerts?record_id=r1&limit=10&since=2024-01-01T00:00:00Z", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "r1", a.log.got.RecordID)
	assert.Equal(t, uint64(10), a.log.got.Limit)
	assert.True(t, a.log.got.Since.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.JSONEq(t, `[{"record_id":"r1","name":"Alice","ordonnance":"Insuline","days_left":5,"sent_at":"2024-01-01T12:00:00Z","message":"body"}]`, rec.Body.String())

	rec = a.do(t, http.MethodGet, "/v1/alerts?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListAlertsWithoutJournal(t *testing.T) {
	clock := fixedClock{now: time.Now()}
	tr := tracker.New(context.Background(), repository.NewStore(memory.New(), "", nil), clock, nil, nil)
	srv := NewHandler(tr, clock, nil, nil).Router()

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/alerts", nil))

	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

// Package api serves the tracker over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/NordCoder/ordotrack/internal/alert"
	"github.com/NordCoder/ordotrack/internal/backup"
	"github.com/NordCoder/ordotrack/internal/domain/prescription"
	"github.com/NordCoder/ordotrack/internal/obs"
	pg "github.com/NordCoder/ordotrack/internal/repository/postgres"
	"github.com/NordCoder/ordotrack/internal/services/tracker"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxBackupBytes = 10 << 20

type AlertLog interface {
	List(ctx context.Context, f pg.AlertFilter) ([]*prescription.JournalEntry, error)
}

type Handler struct {
	tr     *tracker.Tracker
	clock  prescription.Clock
	alerts AlertLog // nil when no journal is configured
	log    *zap.Logger
}

func NewHandler(tr *tracker.Tracker, clock prescription.Clock, alerts AlertLog, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{tr: tr, clock: clock, alerts: alerts, log: log.With(zap.String("component", "api"))}
}

// Router builds the chi router with metrics, logging and tracing around every route.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(metrics, requestLogger(h.log))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/prescriptions", h.listPrescriptions)
		r.Post("/prescriptions", h.addPrescription)
		r.Delete("/prescriptions", h.resetPrescriptions)
		r.Delete("/prescriptions/{id}", h.deletePrescription)

		r.Get("/backup", h.exportBackup)
		r.Post("/backup", h.importBackup)

		r.Get("/notifications/permission", h.getPermission)
		r.Post("/notifications/permission", h.requestPermission)
		r.Post("/notifications/check", h.check)

		r.Get("/alerts", h.listAlerts)
	})
	return obs.HTTPHandler(r, "ordotrack.api")
}

func (h *Handler) storeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, prescription.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, CodeValidationError, err.Error())
	case errors.Is(err, prescription.ErrInvalidBackupFormat):
		WriteError(w, http.StatusBadRequest, CodeInvalidBackupFormat, err.Error())
	case errors.Is(err, prescription.ErrNotFound):
		WriteError(w, http.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, prescription.ErrStorageUnavailable):
		obs.WithTrace(r.Context(), h.log).Error("storage failure", zap.Error(err))
		WriteError(w, http.StatusServiceUnavailable, CodeStorageUnavailable, "storage unavailable")
	default:
		obs.WithTrace(r.Context(), h.log).Error("request failed", zap.Error(err))
		WriteError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
	}
}

func (h *Handler) listPrescriptions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.tr.Rows(h.clock.Now()))
}

type addRequest struct {
	Name  string          `json:"name"`
	Label string          `json:"label"`
	Days  json.RawMessage `json:"days"`
}

// days accepts a JSON number or a numeric string, as typed into a form.
func (a addRequest) days() (int, error) {
	var n int
	if err := json.Unmarshal(a.Days, &n); err == nil {
		if n < 0 {
			return 0, prescription.ErrInvalidInput
		}
		return n, nil
	}
	var s string
	if err := json.Unmarshal(a.Days, &s); err != nil {
		return 0, prescription.ErrInvalidInput
	}
	return prescription.ParseDays(s)
}

func (h *Handler) addPrescription(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, CodeValidationError, "malformed request body")
		return
	}
	days, err := req.days()
	if err != nil {
		WriteError(w, http.StatusBadRequest, CodeValidationError, "days must be a non-negative integer")
		return
	}
	rec, err := h.tr.Add(r.Context(), req.Name, req.Label, days)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) deletePrescription(w http.ResponseWriter, r *http.Request) {
	if err := h.tr.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) resetPrescriptions(w http.ResponseWriter, r *http.Request) {
	if err := h.tr.Reset(r.Context()); err != nil {
		h.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) exportBackup(w http.ResponseWriter, r *http.Request) {
	b, err := h.tr.Export()
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+backup.FileName+`"`)
	_, _ = w.Write(b)
}

func (h *Handler) importBackup(w http.ResponseWriter, r *http.Request) {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBackupBytes))
	if err != nil {
		WriteError(w, http.StatusRequestEntityTooLarge, CodeValidationError, "backup too large")
		return
	}
	n, err := h.tr.Import(r.Context(), b)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": n})
}

func (h *Handler) getPermission(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"permission": string(h.tr.Permission())})
}

type permissionRequest struct {
	Granted *bool `json:"granted"`
}

// requestPermission resolves an unset permission with the caller's answer, if the body carries one.
func (h *Handler) requestPermission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req permissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, http.StatusBadRequest, CodeValidationError, "malformed request body")
		return
	}
	if req.Granted != nil {
		ctx = alert.WithAnswer(ctx, *req.Granted)
	}
	p, err := h.tr.RequestPermission(ctx)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"permission": string(p)})
}

type checkResponse struct {
	Checked int `json:"checked"`
	Due     int `json:"due"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	res, err := h.tr.CheckAndNotify(r.Context())
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, checkResponse{Checked: res.Checked, Due: res.Due, Sent: res.Sent, Failed: res.Failed})
}

type alertView struct {
	RecordID string    `json:"record_id"`
	Name     string    `json:"name"`
	Label    string    `json:"ordonnance"`
	DaysLeft int       `json:"days_left"`
	SentAt   time.Time `json:"sent_at"`
	Message  string    `json:"message"`
}

func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	if h.alerts == nil {
		WriteError(w, http.StatusNotImplemented, CodeNotConfigured, "alert journal not configured")
		return
	}
	q := r.URL.Query()
	f := pg.AlertFilter{RecordID: q.Get("record_id")}
	if s := q.Get("since"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			WriteError(w, http.StatusBadRequest, CodeValidationError, "since must be RFC 3339")
			return
		}
		f.Since = t
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			WriteError(w, http.StatusBadRequest, CodeValidationError, "limit must be a positive integer")
			return
		}
		f.Limit = n
	}

	entries, err := h.alerts.List(r.Context(), f)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	out := make([]alertView, 0, len(entries))
	for _, e := range entries {
		out = append(out, alertView{
			RecordID: e.RecordID,
			Name:     e.Name,
			Label:    e.Label,
			DaysLeft: e.DaysLeft,
			SentAt:   e.SentAt,
			Message:  e.Payload,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// Package tracker owns the in-memory prescription collection and keeps it in step with the store.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/NordCoder/ordotrack/internal/backup"
	"github.com/NordCoder/ordotrack/internal/domain/prescription"
	"github.com/NordCoder/ordotrack/internal/services/notifier"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errNoNotifier = errors.New("notifier not configured")

// DateLayout formats expiry dates for display (dd/mm/yyyy).
const DateLayout = "02/01/2006"

type Tracker struct {
	store    prescription.Store
	clock    prescription.Clock
	notifier *notifier.Usecase
	newID    func() (string, error)
	log      *zap.Logger

	mu    sync.Mutex
	items prescription.Collection

	// checkMu keeps two checks from alerting on the same record.
	checkMu sync.Mutex
}

type Option func(*Tracker)

func WithIDGenerator(f func() (string, error)) Option {
	return func(t *Tracker) { t.newID = f }
}

func newUUID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// New loads the stored collection. uc may be nil when alerts are not needed.
func New(ctx context.Context, store prescription.Store, clock prescription.Clock, uc *notifier.Usecase, log *zap.Logger, opts ...Option) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	t := &Tracker{
		store:    store,
		clock:    clock,
		notifier: uc,
		newID:    newUUID,
		log:      log.With(zap.String("component", "tracker")),
	}
	for _, o := range opts {
		o(t)
	}
	t.items = store.Load(ctx)
	t.log.Debug("collection loaded", zap.Int("records", len(t.items)))
	return t
}

// commit saves next and only then makes it the current collection. Callers hold mu.
func (t *Tracker) commit(ctx context.Context, next prescription.Collection) error {
	if err := t.store.Save(ctx, next); err != nil {
		return fmt.Errorf("%w: %w", prescription.ErrStorageUnavailable, err)
	}
	t.items = next
	return nil
}

func (t *Tracker) List() prescription.Collection {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.items.Clone()
}

type Row struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Label    string `json:"ordonnance"`
	Expiry   string `json:"expiry"`
	DaysLeft int    `json:"days_left"`
	Flagged  bool   `json:"flagged"`
	Notified bool   `json:"notified"`
}

// Rows renders the collection as display rows, evaluated at now.
func (t *Tracker) Rows(now time.Time) []Row {
	items := t.List()
	rows := make([]Row, 0, len(items))
	for _, r := range items {
		dl := prescription.DaysLeft(now, r.Expiry)
		rows = append(rows, Row{
			ID:       r.ID,
			Name:     r.Name,
			Label:    r.Label,
			Expiry:   r.Expiry.In(now.Location()).Format(DateLayout),
			DaysLeft: dl,
			Flagged:  prescription.InWindow(dl),
			Notified: r.Notified,
		})
	}
	return rows
}

func (t *Tracker) Add(ctx context.Context, name, label string, days int) (prescription.Record, error) {
	id, err := t.newID()
	if err != nil {
		return prescription.Record{}, fmt.Errorf("generate id: %w", err)
	}
	r, err := prescription.NewRecord(id, name, label, days, t.clock.Now())
	if err != nil {
		return prescription.Record{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.commit(ctx, t.items.Prepend(r)); err != nil {
		return prescription.Record{}, err
	}
	t.log.Info("prescription added", zap.String("id", r.ID), zap.Time("expiry", r.Expiry))
	return r, nil
}

func (t *Tracker) Delete(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	next, ok := t.items.Without(id)
	if !ok {
		return fmt.Errorf("prescription %q: %w", id, prescription.ErrNotFound)
	}
	if err := t.commit(ctx, next); err != nil {
		return err
	}
	t.log.Info("prescription deleted", zap.String("id", id))
	return nil
}

func (t *Tracker) Reset(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.commit(ctx, prescription.Collection{}); err != nil {
		return err
	}
	t.log.Info("collection reset")
	return nil
}

func (t *Tracker) Export() ([]byte, error) {
	return backup.Export(t.List())
}

// Import replaces the whole collection. On any error the current one is kept.
func (t *Tracker) Import(ctx context.Context, b []byte) (int, error) {
	c, err := backup.Import(b)
	if err != nil {
		return 0, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.commit(ctx, c); err != nil {
		return 0, err
	}
	t.log.Info("collection imported", zap.Int("records", len(c)))
	return len(c), nil
}

// CheckAndNotify alerts on records entering the expiry window and saves the result.
// Alerts are delivered without holding mu; the notified flags are then merged into
// whatever the collection has become. Records marked notified stay marked in memory
// even if the save fails.
func (t *Tracker) CheckAndNotify(ctx context.Context) (notifier.Result, error) {
	if t.notifier == nil {
		return notifier.Result{}, errNoNotifier
	}

	t.checkMu.Lock()
	defer t.checkMu.Unlock()

	res := t.notifier.Check(ctx, t.List())

	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = mergeNotified(t.items, res.Collection)
	res.Collection = t.items.Clone()
	if err := t.store.Save(ctx, t.items); err != nil {
		return res, fmt.Errorf("%w: %w", prescription.ErrStorageUnavailable, err)
	}
	return res, nil
}

// mergeNotified copies notified flags from checked onto current. A record only
// inherits the flag if it is still the one that was checked: deleted records stay
// gone and records replaced under the same id keep their own state.
func mergeNotified(current, checked prescription.Collection) prescription.Collection {
	out := current.Clone()
	for i, r := range out {
		if r.Notified {
			continue
		}
		c, ok := checked.Find(r.ID)
		if ok && c.Notified && sameRecord(r, c) {
			out[i].Notified = true
		}
	}
	return out
}

func sameRecord(a, b prescription.Record) bool {
	return a.ID == b.ID && a.Name == b.Name && a.Label == b.Label && a.Expiry.Equal(b.Expiry)
}

// Permission exposes the alert permission held by the notifier.
func (t *Tracker) Permission() prescription.Permission {
	if t.notifier == nil {
		return prescription.PermissionUnset
	}
	return t.notifier.Alerter.Permission()
}

func (t *Tracker) RequestPermission(ctx context.Context) (prescription.Permission, error) {
	if t.notifier == nil {
		return prescription.PermissionUnset, nil
	}
	return t.notifier.Alerter.RequestPermission(ctx)
}

// Package alert delivers expiry alerts behind a tri-state permission.
package alert

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/NordCoder/ordotrack/internal/domain/prescription"
	"go.uber.org/zap"
)

// PermissionStore remembers the user's answer across runs.
type PermissionStore interface {
	LoadPermission(ctx context.Context) prescription.Permission
	SavePermission(ctx context.Context, p prescription.Permission) error
}

var _ prescription.Alerter = (*Gate)(nil)

// Gate only lets alerts through once permission has been granted.
type Gate struct {
	sink     Sink
	prompter Prompter
	store    PermissionStore
	log      *zap.Logger

	mu   sync.Mutex
	perm prescription.Permission
}

func NewGate(ctx context.Context, sink Sink, prompter Prompter, store PermissionStore, log *zap.Logger) *Gate {
	if log == nil {
		log = zap.NewNop()
	}
	perm := prescription.PermissionUnset
	if store != nil {
		perm = store.LoadPermission(ctx)
	}
	return &Gate{
		sink:     sink,
		prompter: prompter,
		store:    store,
		log:      log.With(zap.String("component", "alert.gate")),
		perm:     perm,
	}
}

func (g *Gate) Permission() prescription.Permission {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.perm
}

// RequestPermission asks the prompter when no decision exists yet.
// A decided permission is returned as is; without a prompter it stays unset.
func (g *Gate) RequestPermission(ctx context.Context) (prescription.Permission, error) {
	if p := g.Permission(); p != prescription.PermissionUnset || g.prompter == nil {
		return p, nil
	}

	ok, err := g.prompter.Prompt(ctx)
	if errors.Is(err, ErrNoAnswer) {
		return prescription.PermissionUnset, nil
	}
	if err != nil {
		return prescription.PermissionUnset, fmt.Errorf("prompt permission: %w", err)
	}
	decided := prescription.PermissionDenied
	if ok {
		decided = prescription.PermissionGranted
	}

	g.mu.Lock()
	if g.perm == prescription.PermissionUnset {
		g.perm = decided
	}
	decided = g.perm
	g.mu.Unlock()

	if g.store != nil {
		if err := g.store.SavePermission(ctx, decided); err != nil {
			g.log.Warn("permission not persisted", zap.Error(err))
		}
	}
	g.log.Info("alert permission decided", zap.String("permission", string(decided)))
	return decided, nil
}

// Show is a no-op unless permission is granted.
func (g *Gate) Show(ctx context.Context, a prescription.Alert) error {
	if g.Permission() != prescription.PermissionGranted {
		g.log.Debug("alert suppressed, permission not granted", zap.String("record_id", a.RecordID))
		return nil
	}
	return g.sink.Send(ctx, a)
}

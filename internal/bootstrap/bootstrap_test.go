package bootstrap

import (
	"context"
	"testing"

	"github.com/NordCoder/ordotrack/internal/alert"
	config "github.com/NordCoder/ordotrack/internal/config/tracker"
	"github.com/NordCoder/ordotrack/internal/domain/prescription"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpenBackendFile(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{Store: config.Store{Backend: config.BackendFile, Dir: t.TempDir()}}

	b, err := OpenBackend(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, b.Store.Save(ctx, prescription.Collection{{ID: "1", Name: "A", Label: "X"}}))
	assert.Len(t, b.Store.Load(ctx), 1)
	assert.Nil(t, b.JournalOrNil())
	assert.NoError(t, b.Health(ctx))
}

func TestOpenBackendUnknown(t *testing.T) {
	_, err := OpenBackend(context.Background(), &config.Config{Store: config.Store{Backend: "tape"}}, zap.NewNop())
	assert.Error(t, err)
}

func TestSinkRejectsBadRecipient(t *testing.T) {
	cfg := &config.Config{SMTP: config.SMTP{Enable: true, To: "nobody"}}

	_, _, err := Sink(context.Background(), cfg, zap.NewNop())

	assert.Error(t, err)
}

func TestSinkLogOnly(t *testing.T) {
	s, closeFn, err := Sink(context.Background(), &config.Config{}, zap.NewNop())
	require.NoError(t, err)
	defer closeFn()

	assert.NoError(t, s.Send(context.Background(), prescription.Alert{RecordID: "1"}))
}

func TestPrompterFromConfig(t *testing.T) {
	ask := alert.ContextPrompter{}
	cases := map[string]alert.Prompter{
		"granted": alert.StaticPrompter(true),
		"denied":  alert.StaticPrompter(false),
		"unset":   ask,
		"":        ask,
	}
	for perm, want := range cases {
		cfg := &config.Config{Notifier: config.Notifier{Permission: perm}}
		assert.Equal(t, want, Prompter(cfg, ask), perm)
	}
}

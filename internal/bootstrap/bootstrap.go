// Package bootstrap assembles storage and alert delivery from configuration.
// It is shared by the daemon and the CLI.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/NordCoder/ordotrack/internal/alert"
	config "github.com/NordCoder/ordotrack/internal/config/tracker"
	"github.com/NordCoder/ordotrack/internal/domain/prescription"
	"github.com/NordCoder/ordotrack/internal/obs"
	"github.com/NordCoder/ordotrack/internal/obs/retry"
	"github.com/NordCoder/ordotrack/internal/repository"
	"github.com/NordCoder/ordotrack/internal/repository/file"
	kafkaRepo "github.com/NordCoder/ordotrack/internal/repository/kafka"
	"github.com/NordCoder/ordotrack/internal/repository/memory"
	pg "github.com/NordCoder/ordotrack/internal/repository/postgres"
	"go.uber.org/zap"
)

type Backend struct {
	Store   *repository.Store
	Journal *pg.AlertLogRepo // nil unless the postgres backend is used
	Health  obs.HealthFunc
	closers []func()
}

func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// JournalOrNil returns the journal as an interface value that is nil when absent.
func (b *Backend) JournalOrNil() prescription.Journal {
	if b.Journal == nil {
		return nil
	}
	return b.Journal
}

func OpenBackend(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Backend, error) {
	b := &Backend{Health: func(context.Context) error { return nil }}
	var m repository.Medium

	switch cfg.Store.Backend {
	case config.BackendMemory:
		m = memory.New()
	case config.BackendFile:
		fm, err := file.New(cfg.Store.Dir)
		if err != nil {
			return nil, fmt.Errorf("open store dir: %w", err)
		}
		m = fm
	case config.BackendPostgres:
		db, err := pg.New(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		b.closers = append(b.closers, db.Close)
		b.Health = func(ctx context.Context) error {
			hctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
			defer cancel()
			return db.Ping(hctx)
		}
		m = pg.NewKVStore(db)
		b.Journal = pg.NewAlertLogRepo(db)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	b.Store = repository.NewStore(m, cfg.Store.Namespace, log)
	log.Info("store ready", zap.String("backend", cfg.Store.Backend), zap.String("namespace", cfg.Store.Namespace))
	return b, nil
}

// Sink fans alerts out to the log and to every enabled channel.
// The returned func releases channel resources.
func Sink(ctx context.Context, cfg *config.Config, log *zap.Logger) (alert.Sink, func(), error) {
	targets := []alert.Target{{Name: "log", Sink: alert.NewLogSink(log)}}
	closeFn := func() {}

	if cfg.SMTP.Enable {
		ms, err := alert.NewMailSink(alert.NewMailer(cfg.SMTP).WithLogger(log), cfg.SMTP.To)
		if err != nil {
			return nil, nil, err
		}
		targets = append(targets, alert.Target{
			Name: "mail",
			Sink: alert.NewRetrying(ms, retry.AlertPolicy("mail", log)),
		})
	}

	if cfg.Kafka.Enable {
		prod := kafkaRepo.BootstrapProducer(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		closeFn = func() { _ = prod.Close() }
		targets = append(targets, alert.Target{
			Name: "kafka",
			Sink: alert.NewRetrying(alert.NewKafkaSink(kafkaRepo.NewAlertEvents(prod)), retry.AlertPolicy("kafka", log)),
		})
	}

	return alert.NewFanout(log, targets...), closeFn, nil
}

// Prompter maps notifier.permission to a prompter. An undecided permission
// falls back to ask.
func Prompter(cfg *config.Config, ask alert.Prompter) alert.Prompter {
	switch prescription.ParsePermission(cfg.Notifier.Permission) {
	case prescription.PermissionGranted:
		return alert.StaticPrompter(true)
	case prescription.PermissionDenied:
		return alert.StaticPrompter(false)
	default:
		return ask
	}
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

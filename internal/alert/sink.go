package alert

import (
	"context"
	"errors"
	"fmt"

	"github.com/NordCoder/ordotrack/internal/domain/prescription"
	"github.com/NordCoder/ordotrack/internal/obs/retry"
	"go.uber.org/zap"
)

type Sink interface {
	Send(ctx context.Context, a prescription.Alert) error
}

type SinkFunc func(ctx context.Context, a prescription.Alert) error

func (f SinkFunc) Send(ctx context.Context, a prescription.Alert) error { return f(ctx, a) }

// LogSink writes the alert as a log line.
type LogSink struct{ log *zap.Logger }

func NewLogSink(log *zap.Logger) *LogSink {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogSink{log: log.With(zap.String("component", "alert.log"))}
}

func (s *LogSink) Send(_ context.Context, a prescription.Alert) error {
	s.log.Info(a.Title,
		zap.String("body", a.Body),
		zap.String("record_id", a.RecordID),
		zap.Int("days_left", a.DaysLeft),
	)
	return nil
}

type Target struct {
	Name string
	Sink Sink
}

// Fanout delivers to every target. It fails only when no target accepted the alert.
type Fanout struct {
	targets []Target
	log     *zap.Logger
}

func NewFanout(log *zap.Logger, targets ...Target) *Fanout {
	if log == nil {
		log = zap.NewNop()
	}
	return &Fanout{targets: targets, log: log.With(zap.String("component", "alert.fanout"))}
}

func (f *Fanout) Send(ctx context.Context, a prescription.Alert) error {
	if len(f.targets) == 0 {
		return errors.New("no alert sinks configured")
	}
	var errs []error
	delivered := 0
	for _, t := range f.targets {
		if err := t.Sink.Send(ctx, a); err != nil {
			f.log.Warn("sink failed", zap.String("sink", t.Name), zap.String("record_id", a.RecordID), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", t.Name, err))
			continue
		}
		delivered++
	}
	if delivered == 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Retrying retries a flaky sink according to policy.
type Retrying struct {
	sink   Sink
	policy retry.Policy
}

func NewRetrying(sink Sink, policy retry.Policy) *Retrying {
	return &Retrying{sink: sink, policy: policy}
}

func (r *Retrying) Send(ctx context.Context, a prescription.Alert) error {
	return retry.Do(ctx, func(ctx context.Context) error { return r.sink.Send(ctx, a) }, r.policy)
}

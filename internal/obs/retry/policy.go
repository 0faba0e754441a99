package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// AlertPolicy retries an alert delivery a few times before giving up until the next check.
func AlertPolicy(name string, log *zap.Logger) Policy {
	return Policy{
		Name:     name,
		Attempts: 3,
		Backoff:  ExpoJitter{Base: 250 * time.Millisecond, Max: 5 * time.Second, Jitter: 0.2},
		Retryable: func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("alert delivery retry", zap.String("sink", name), zap.Int("attempt", i+1), zap.Error(err))
			}
		},
		OnExhaust: func(err error) {
			if log != nil && !errors.Is(err, context.Canceled) {
				log.Error("alert delivery retries exhausted", zap.String("sink", name), zap.Error(err))
			}
		},
	}
}

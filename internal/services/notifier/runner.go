package notifier

import (
	"context"
	"time"

	"github.com/NordCoder/ordotrack/internal/domain/prescription"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Checker runs one notification pass over the stored collection.
type Checker interface {
	CheckAndNotify(ctx context.Context) (Result, error)
}

type PermissionRequester interface {
	RequestPermission(ctx context.Context) (prescription.Permission, error)
}

type Runner struct {
	Log      *zap.Logger
	Checker  Checker
	Perm     PermissionRequester
	Interval time.Duration

	mChecks  prometheus.Counter
	mSent    prometheus.Counter
	mErr     prometheus.Counter
	mLoopDur prometheus.Histogram
}

var (
	mChecks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ordotrack_notifier_checks_total", Help: "Notification checks run",
	})
	mSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ordotrack_notifier_alerts_sent_total", Help: "Expiry alerts delivered",
	})
	mErr = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ordotrack_notifier_errors_total", Help: "Failed deliveries and saves in the notifier loop",
	})
	mLoopDur = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "ordotrack_notifier_tick_duration_seconds", Help: "Notifier tick duration",
		Buckets: prometheus.DefBuckets,
	})
)

func NewRunner(log *zap.Logger, checker Checker, perm PermissionRequester, interval time.Duration) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &Runner{
		Log:      log.With(zap.String("component", "notifier.runner")),
		Checker:  checker,
		Perm:     perm,
		Interval: interval,
		mChecks:  mChecks,
		mSent:    mSent,
		mErr:     mErr,
		mLoopDur: mLoopDur,
	}
}

func (r *Runner) tick(ctx context.Context) {
	start := time.Now()
	res, err := r.Checker.CheckAndNotify(ctx)
	r.mChecks.Inc()
	if err != nil {
		r.mErr.Inc()
		r.Log.Warn("check error", zap.Error(err))
	}
	if res.Sent > 0 {
		r.mSent.Add(float64(res.Sent))
	}
	if res.Failed > 0 {
		r.mErr.Add(float64(res.Failed))
	}
	if res.Due > 0 {
		r.Log.Debug("checked", zap.Int("records", res.Checked), zap.Int("due", res.Due), zap.Int("sent", res.Sent), zap.Int("failed", res.Failed))
	}
	r.mLoopDur.Observe(time.Since(start).Seconds())
}

// Run asks for alert permission, checks once right away and then every Interval until ctx ends.
func (r *Runner) Run(ctx context.Context) error {
	if r.Perm != nil {
		perm, err := r.Perm.RequestPermission(ctx)
		if err != nil {
			r.Log.Warn("permission request failed", zap.Error(err))
		} else {
			r.Log.Info("alert permission", zap.String("permission", string(perm)))
		}
	}

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	r.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

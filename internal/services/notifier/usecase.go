package notifier

import (
	"context"
	"time"

	"github.com/NordCoder/ordotrack/internal/domain/prescription"
	"github.com/NordCoder/ordotrack/internal/obs"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Usecase struct {
	Alerter prescription.Alerter
	Clock   prescription.Clock
	Journal prescription.Journal // optional
	Log     *zap.Logger
}

func NewUC(alerter prescription.Alerter, clock prescription.Clock, journal prescription.Journal, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{Alerter: alerter, Clock: clock, Journal: journal, Log: log.With(zap.String("component", "notifier.uc"))}
}

type Result struct {
	Collection prescription.Collection
	Checked    int
	Due        int
	Sent       int
	Failed     int
}

// Changed reports whether any record was marked notified.
func (r Result) Changed() bool { return r.Sent > 0 }

// Check alerts once for every pending record within the expiry window.
// The input is not modified; marked records are in Result.Collection.
func (u *Usecase) Check(ctx context.Context, c prescription.Collection) Result {
	tr := otel.Tracer("notifier.uc")
	ctx, span := tr.Start(ctx, "notifier.check",
		trace.WithAttributes(attribute.Int("records", len(c))),
	)
	defer span.End()

	res := Result{Collection: c.Clone(), Checked: len(c)}
	now := u.Clock.Now()
	granted := u.Alerter.Permission() == prescription.PermissionGranted
	log := obs.WithTrace(ctx, u.Log)

	for i := range res.Collection {
		r := &res.Collection[i]
		dl := prescription.DaysLeft(now, r.Expiry)
		if !prescription.InWindow(dl) || r.Notified {
			continue
		}
		res.Due++
		if !granted {
			continue
		}

		a := prescription.NewAlert(*r, dl)
		sctx, sp := tr.Start(ctx, "notifier.show",
			trace.WithAttributes(
				attribute.String("record.id", r.ID),
				attribute.Int("record.days_left", dl),
			),
		)
		if err := u.Alerter.Show(sctx, a); err != nil {
			res.Failed++
			sp.RecordError(err)
			sp.SetStatus(codes.Error, "show failed")
			sp.End()
			log.Warn("alert not delivered", zap.String("record_id", r.ID), zap.Error(err))
			continue
		}
		sp.End()

		r.Notified = true
		res.Sent++
		u.journal(ctx, log, a, now)
	}

	span.SetAttributes(
		attribute.Int("alerts.due", res.Due),
		attribute.Int("alerts.sent", res.Sent),
		attribute.Int("alerts.failed", res.Failed),
		attribute.Bool("permission.granted", granted),
	)
	return res
}

func (u *Usecase) journal(ctx context.Context, log *zap.Logger, a prescription.Alert, at time.Time) {
	if u.Journal == nil {
		return
	}
	e := &prescription.JournalEntry{
		RecordID: a.RecordID,
		Name:     a.Name,
		Label:    a.Label,
		DaysLeft: a.DaysLeft,
		SentAt:   at,
		Payload:  a.Body,
	}
	if err := u.Journal.Append(ctx, e); err != nil {
		log.Warn("alert journal append failed", zap.String("record_id", a.RecordID), zap.Error(err))
	}
}

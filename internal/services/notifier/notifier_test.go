package notifier

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NordCoder/ordotrack/internal/domain/prescription"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (c fakeClock) Now() time.Time { return c.now }

type recordingAlerter struct {
	mu   sync.Mutex
	perm prescription.Permission
	fail error
	got  []prescription.Alert
}

func (a *recordingAlerter) Permission() prescription.Permission { return a.perm }

func (a *recordingAlerter) RequestPermission(context.Context) (prescription.Permission, error) {
	return a.perm, nil
}

func (a *recordingAlerter) Show(_ context.Context, al prescription.Alert) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fail != nil {
		return a.fail
	}
	a.got = append(a.got, al)
	return nil
}

type memJournal struct{ entries []*prescription.JournalEntry }

func (j *memJournal) Append(_ context.Context, e *prescription.JournalEntry) error {
	j.entries = append(j.entries, e)
	return nil
}

var today = time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

func record(id string, days int, notified bool) prescription.Record {
	return prescription.Record{
		ID:       id,
		Name:     "Alice",
		Label:    "Insuline",
		Expiry:   prescription.ComputeExpiry(today, days),
		Notified: notified,
	}
}

func TestCheckAlertsOnlyPendingRecordsInWindow(t *testing.T) {
	al := &recordingAlerter{perm: prescription.PermissionGranted}
	j := &memJournal{}
	uc := NewUC(al, fakeClock{today}, j, nil)
	in := prescription.Collection{
		record("soon", 5, false),
		record("later", 8, false),
		record("done", 3, true),
		record("past", -1, false),
		record("today", 0, false),
	}

	res := uc.Check(context.Background(), in)

	require.Len(t, al.got, 2)
	assert.Equal(t, "soon", al.got[0].RecordID)
	assert.Equal(t, `L'ordonnance "Insuline" expire dans 5 jour(s)`, al.got[0].Body)
	assert.Equal(t, "Ordonnance proche d’échéance: Alice", al.got[0].Title)
	assert.Equal(t, "today", al.got[1].RecordID)
	assert.Equal(t, 0, al.got[1].DaysLeft)

	assert.True(t, res.Collection[0].Notified)
	assert.False(t, res.Collection[1].Notified)
	assert.True(t, res.Collection[2].Notified)
	assert.False(t, res.Collection[3].Notified)
	assert.True(t, res.Collection[4].Notified)
	assert.Equal(t, 2, res.Sent)
	assert.True(t, res.Changed())

	assert.False(t, in[0].Notified, "input must not be modified")
	require.Len(t, j.entries, 2)
	assert.Equal(t, today, j.entries[0].SentAt)
}

func TestCheckIsIdempotent(t *testing.T) {
	al := &recordingAlerter{perm: prescription.PermissionGranted}
	uc := NewUC(al, fakeClock{today}, nil, nil)

	first := uc.Check(context.Background(), prescription.Collection{record("a", 2, false)})
	second := uc.Check(context.Background(), first.Collection)

	assert.Len(t, al.got, 1)
	assert.Zero(t, second.Sent)
	assert.False(t, second.Changed())
}

func TestCheckWithoutPermissionKeepsRecordsPending(t *testing.T) {
	for _, perm := range []prescription.Permission{prescription.PermissionUnset, prescription.PermissionDenied} {
		al := &recordingAlerter{perm: perm}
		uc := NewUC(al, fakeClock{today}, nil, nil)

		res := uc.Check(context.Background(), prescription.Collection{record("a", 2, false)})

		assert.Empty(t, al.got)
		assert.False(t, res.Collection[0].Notified)
		assert.Equal(t, 1, res.Due)
	}
}

func TestCheckFailedDeliveryKeepsRecordPending(t *testing.T) {
	al := &recordingAlerter{perm: prescription.PermissionGranted, fail: errors.New("smtp down")}
	j := &memJournal{}
	uc := NewUC(al, fakeClock{today}, j, nil)

	res := uc.Check(context.Background(), prescription.Collection{record("a", 2, false)})

	assert.False(t, res.Collection[0].Notified)
	assert.Equal(t, 1, res.Failed)
	assert.Empty(t, j.entries)
}

func TestCheckBoundaryIsSevenDays(t *testing.T) {
	al := &recordingAlerter{perm: prescription.PermissionGranted}
	uc := NewUC(al, fakeClock{today}, nil, nil)

	res := uc.Check(context.Background(), prescription.Collection{record("seven", 7, false), record("eight", 8, false)})

	assert.True(t, res.Collection[0].Notified)
	assert.False(t, res.Collection[1].Notified)
}

type countingChecker struct{ n atomic.Int32 }

func (c *countingChecker) CheckAndNotify(context.Context) (Result, error) {
	c.n.Add(1)
	return Result{}, nil
}

type countingRequester struct{ n atomic.Int32 }

func (r *countingRequester) RequestPermission(context.Context) (prescription.Permission, error) {
	r.n.Add(1)
	return prescription.PermissionGranted, nil
}

func TestRunnerChecksImmediatelyThenOnInterval(t *testing.T) {
	c := &countingChecker{}
	p := &countingRequester{}
	r := NewRunner(nil, c, p, 20*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	assert.Eventually(t, func() bool { return c.n.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, int32(1), p.n.Load())
}

func TestRunnerFirstCheckDoesNotWaitForInterval(t *testing.T) {
	c := &countingChecker{}
	r := NewRunner(nil, c, nil, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = r.Run(ctx) }()

	assert.Eventually(t, func() bool { return c.n.Load() == 1 }, time.Second, 5*time.Millisecond)
}

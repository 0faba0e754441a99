package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/NordCoder/ordotrack/internal/domain/prescription"

	sq "github.com/Masterminds/squirrel"
)

var _ prescription.Journal = (*AlertLogRepo)(nil)

// AlertLogRepo records every delivered expiry alert.
type AlertLogRepo struct{ db *DB }

func NewAlertLogRepo(db *DB) *AlertLogRepo { return &AlertLogRepo{db: db} }

const qAlertInsert = `
INSERT INTO alert_log (record_id, name, label, days_left, sent_at, payload)
VALUES ($1, $2, $3, $4, COALESCE($5, now()), $6)
RETURNING sent_at;
`

func (r *AlertLogRepo) Append(ctx context.Context, e *prescription.JournalEntry) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if err := r.db.Pool.QueryRow(ctx, qAlertInsert,
		e.RecordID,
		e.Name,
		e.Label,
		e.DaysLeft,
		nullTime(e.SentAt),
		e.Payload,
	).Scan(&e.SentAt); err != nil {
		return fmt.Errorf("insert alert log: %w", err)
	}
	return nil
}

type AlertFilter struct {
	RecordID string
	Since    time.Time
	Limit    uint64
}

func listQuery(f AlertFilter) (string, []any, error) {
	if f.Limit == 0 {
		f.Limit = 50
	}
	q := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Select("record_id", "name", "label", "days_left", "sent_at", "payload").
		From("alert_log").
		OrderBy("sent_at DESC").
		Limit(f.Limit)
	if f.RecordID != "" {
		q = q.Where(sq.Eq{"record_id": f.RecordID})
	}
	if !f.Since.IsZero() {
		q = q.Where(sq.GtOrEq{"sent_at": f.Since})
	}
	return q.ToSql()
}

func (r *AlertLogRepo) List(ctx context.Context, f AlertFilter) ([]*prescription.JournalEntry, error) {
	query, args, err := listQuery(f)
	if err != nil {
		return nil, fmt.Errorf("build alert log query: %w", err)
	}

	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query alert log: %w", err)
	}
	defer rows.Close()

	out := make([]*prescription.JournalEntry, 0)
	for rows.Next() {
		var e prescription.JournalEntry
		if err := rows.Scan(&e.RecordID, &e.Name, &e.Label, &e.DaysLeft, &e.SentAt, &e.Payload); err != nil {
			return nil, fmt.Errorf("scan alert log: %w", err)
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

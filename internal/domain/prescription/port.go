package prescription

import (
	"context"
	"time"
)

type Clock interface {
	Now() time.Time
}

type Store interface {
	Load(ctx context.Context) Collection
	Save(ctx context.Context, c Collection) error
	LoadPermission(ctx context.Context) Permission
	SavePermission(ctx context.Context, p Permission) error
}

// Alerter is the capability to show a desktop-style alert, gated by a permission.
type Alerter interface {
	Permission() Permission
	RequestPermission(ctx context.Context) (Permission, error)
	Show(ctx context.Context, a Alert) error
}

type JournalEntry struct {
	RecordID string
	Name     string
	Label    string
	DaysLeft int
	SentAt   time.Time
	Payload  string
}

type Journal interface {
	Append(ctx context.Context, e *JournalEntry) error
}

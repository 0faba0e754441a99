package prescription

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// expiryLayout matches what a browser's Date.toISOString produces.
const expiryLayout = "2006-01-02T15:04:05.000Z07:00"

const (
	// MaxDays caps the day count a user may enter, roughly a century.
	MaxDays = 36500

	// maxExpiryYear is the last year expiryLayout can write and read back.
	maxExpiryYear = 9999
)

// Record is one tracked prescription.
type Record struct {
	// ID is unique within a Collection.
	ID string `json:"id"`
	// Name is the patient the prescription belongs to.
	Name string `json:"name"`
	// Label names the prescription itself.
	Label  string    `json:"ordonnance"`
	Expiry time.Time `json:"expiry"`
	// Notified is set once the expiry alert has been delivered.
	Notified bool `json:"notified"`
}

type recordJSON struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Label    string `json:"ordonnance"`
	Expiry   string `json:"expiry"`
	Notified bool   `json:"notified"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	exp := r.Expiry.UTC()
	if y := exp.Year(); y < 0 || y > maxExpiryYear {
		return nil, fmt.Errorf("record %q: expiry year %d out of range", r.ID, y)
	}
	return json.Marshal(recordJSON{
		ID:       r.ID,
		Name:     r.Name,
		Label:    r.Label,
		Expiry:   exp.Format(expiryLayout),
		Notified: r.Notified,
	})
}

func (r *Record) UnmarshalJSON(b []byte) error {
	var in recordJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	exp, err := time.Parse(time.RFC3339Nano, in.Expiry)
	if err != nil {
		return fmt.Errorf("expiry %q: %w", in.Expiry, err)
	}
	*r = Record{
		ID:       in.ID,
		Name:     in.Name,
		Label:    in.Label,
		Expiry:   exp,
		Notified: in.Notified,
	}
	return nil
}

// NewRecord builds a pending record expiring days calendar days after now.
func NewRecord(id, name, label string, days int, now time.Time) (Record, error) {
	name = strings.TrimSpace(name)
	label = strings.TrimSpace(label)
	switch {
	case name == "":
		return Record{}, fmt.Errorf("%w: name is empty", ErrInvalidInput)
	case label == "":
		return Record{}, fmt.Errorf("%w: label is empty", ErrInvalidInput)
	case days < 0:
		return Record{}, fmt.Errorf("%w: negative day count %d", ErrInvalidInput, days)
	case days > MaxDays:
		return Record{}, fmt.Errorf("%w: day count %d above %d", ErrInvalidInput, days, MaxDays)
	}
	exp := ComputeExpiry(now, days)
	if exp.UTC().Year() > maxExpiryYear {
		return Record{}, fmt.Errorf("%w: expiry %s out of range", ErrInvalidInput, exp.Format(time.DateOnly))
	}
	return Record{
		ID:     id,
		Name:   name,
		Label:  label,
		Expiry: exp,
	}, nil
}

// ParseDays parses a user supplied day count.
func ParseDays(s string) (int, error) {
	d, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: day count %q is not a number", ErrInvalidInput, s)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: negative day count %d", ErrInvalidInput, d)
	}
	if d > MaxDays {
		return 0, fmt.Errorf("%w: day count %d above %d", ErrInvalidInput, d, MaxDays)
	}
	return d, nil
}

// Collection is ordered newest first.
type Collection []Record

func (c Collection) Clone() Collection {
	out := make(Collection, len(c))
	copy(out, c)
	return out
}

func (c Collection) Prepend(r Record) Collection {
	out := make(Collection, 0, len(c)+1)
	out = append(out, r)
	return append(out, c...)
}

// Without returns the collection minus the record with the given id, keeping order.
// ok is false when no record matched.
func (c Collection) Without(id string) (out Collection, ok bool) {
	out = make(Collection, 0, len(c))
	for _, r := range c {
		if r.ID == id {
			ok = true
			continue
		}
		out = append(out, r)
	}
	return out, ok
}

// Find returns the record with the given id.
func (c Collection) Find(id string) (Record, bool) {
	for _, r := range c {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}

// Permission is the user's answer to whether expiry alerts may be shown.
type Permission string

const (
	PermissionUnset   Permission = "unset"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

func ParsePermission(s string) Permission {
	switch Permission(strings.ToLower(strings.TrimSpace(s))) {
	case PermissionGranted:
		return PermissionGranted
	case PermissionDenied:
		return PermissionDenied
	default:
		return PermissionUnset
	}
}

// Alert is the message shown when a record enters the expiry window.
type Alert struct {
	RecordID string
	Name     string
	Label    string
	DaysLeft int
	Title    string
	Body     string
}

func NewAlert(r Record, daysLeft int) Alert {
	return Alert{
		RecordID: r.ID,
		Name:     r.Name,
		Label:    r.Label,
		DaysLeft: daysLeft,
		Title:    fmt.Sprintf("Ordonnance proche d’échéance: %s", r.Name),
		Body:     fmt.Sprintf("L'ordonnance \"%s\" expire dans %d jour(s)", r.Label, daysLeft),
	}
}

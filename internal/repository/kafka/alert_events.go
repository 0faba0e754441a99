package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/NordCoder/ordotrack/internal/domain/prescription"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// AlertEvents publishes expiry alerts as protobuf Struct messages keyed by record id.
type AlertEvents struct {
	p   *Producer
	now func() time.Time
}

func NewAlertEvents(p *Producer) *AlertEvents {
	return &AlertEvents{p: p, now: time.Now}
}

func (e *AlertEvents) PublishAlert(ctx context.Context, a prescription.Alert) error {
	msg, err := EncodeAlert(a, e.now())
	if err != nil {
		return err
	}
	return e.p.PublishProto(ctx, []byte(a.RecordID), msg)
}

func EncodeAlert(a prescription.Alert, at time.Time) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(map[string]any{
		"record_id": a.RecordID,
		"name":      a.Name,
		"label":     a.Label,
		"days_left": a.DaysLeft,
		"title":     a.Title,
		"body":      a.Body,
		"ts":        at.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("encode alert: %w", err)
	}
	return s, nil
}

func DecodeAlert(value []byte) (prescription.Alert, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(value, &s); err != nil {
		return prescription.Alert{}, fmt.Errorf("decode alert: %w", err)
	}
	f := s.GetFields()
	return prescription.Alert{
		RecordID: f["record_id"].GetStringValue(),
		Name:     f["name"].GetStringValue(),
		Label:    f["label"].GetStringValue(),
		DaysLeft: int(f["days_left"].GetNumberValue()),
		Title:    f["title"].GetStringValue(),
		Body:     f["body"].GetStringValue(),
	}, nil
}

// AlertHandler adapts a typed alert callback to a consumer Handler.
func AlertHandler(handle func(context.Context, prescription.Alert) error) Handler {
	return func(ctx context.Context, _ []byte, value []byte) error {
		a, err := DecodeAlert(value)
		if err != nil {
			return err
		}
		return handle(ctx, a)
	}
}

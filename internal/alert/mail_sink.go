package alert

import (
	"context"
	"fmt"

	"github.com/NordCoder/ordotrack/internal/domain/prescription"
	"github.com/mcnijman/go-emailaddress"
)

type MailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// MailSink mails every alert to a single recipient.
type MailSink struct {
	sender MailSender
	to     string
}

func NewMailSink(sender MailSender, to string) (*MailSink, error) {
	addr, err := emailaddress.Parse(to)
	if err != nil {
		return nil, fmt.Errorf("alert recipient %q: %w", to, err)
	}
	return &MailSink{sender: sender, to: addr.String()}, nil
}

func (s *MailSink) Send(ctx context.Context, a prescription.Alert) error {
	return s.sender.Send(ctx, s.to, a.Title, a.Body)
}

// AlertPublisher puts alerts on a message bus.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, a prescription.Alert) error
}

type KafkaSink struct{ pub AlertPublisher }

func NewKafkaSink(pub AlertPublisher) *KafkaSink { return &KafkaSink{pub: pub} }

func (s *KafkaSink) Send(ctx context.Context, a prescription.Alert) error {
	if err := s.pub.PublishAlert(ctx, a); err != nil {
		return fmt.Errorf("publish alert: %w", err)
	}
	return nil
}

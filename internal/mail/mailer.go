package mail

import (
	"context"

	gomail "github.com/wneessen/go-mail"

	"github.com/namann16/support-tickets/internal/config"
)

// Mailer delivers a single transactional message.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPMailer sends mail through a configured SMTP relay.
type SMTPMailer struct {
	cfg config.SMTPConfig
}

// NewSMTPMailer constructs the mailer.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// Send connects, delivers and closes per message. Callers treat
// delivery as best-effort, so no connection is kept warm.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	opts := []gomail.Option{
		gomail.WithPort(m.cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.cfg.Username),
			gomail.WithPassword(m.cfg.Password),
		)
	}

	client, err := gomail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return err
	}

	msg := gomail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlBody)

	return client.DialAndSendWithContext(ctx, msg)
}

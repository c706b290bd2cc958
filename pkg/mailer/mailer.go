package mailer

import (
	"context"
	"fmt"

	"satbridge/internal/models"

	"github.com/wneessen/go-mail"
)

// Sender delivers a composed email with attachments and custom headers.
type Sender interface {
	Send(ctx context.Context, recipients []string, subject, body string, attachments []string, headers map[string]string) error
}

type smtpSender struct {
	cfg models.EmailConfig
}

// NewSMTPSender builds a Sender from the email configuration. Missing
// transport settings are a hard error; the caller decides whether the email
// path is enabled at all.
func NewSMTPSender(cfg models.EmailConfig) (Sender, error) {
	if cfg.Host == "" || cfg.User == "" || cfg.Password == "" || cfg.From == "" {
		return nil, fmt.Errorf("incomplete SMTP configuration: host, user, password and from are required")
	}
	return &smtpSender{cfg: cfg}, nil
}

func (s *smtpSender) Send(ctx context.Context, recipients []string, subject, body string, attachments []string, headers map[string]string) error {
	if len(recipients) == 0 {
		return fmt.Errorf("no recipients given")
	}

	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(recipients...); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	for k, v := range headers {
		msg.SetGenHeader(mail.Header(k), v)
	}
	for _, path := range attachments {
		msg.AttachFile(path)
	}

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.User),
		mail.WithPassword(s.cfg.Password),
	}
	if s.cfg.UseTLS != nil && *s.cfg.UseTLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

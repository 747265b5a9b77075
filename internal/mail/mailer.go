package mail

import (
	"context"
	"fmt"

	"github.com/kartuli-app/kartuli-backend/internal/domain"
	"go.elastic.co/apm"
	"gopkg.in/gomail.v2"
)

// Message a contact-form submission to be relayed to the support inbox
type Message struct {
	Name    string
	Email   string
	Subject string
	Body    string
}

// Mailer delivers contact messages
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

// SMTPConfig plain SMTP relay settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// SMTPMailer sends through a plain SMTP relay, one connection per message
type SMTPMailer struct {
	cfg SMTPConfig
}

// NewSMTPMailer ...
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

var _ Mailer = (*SMTPMailer)(nil)

func (m *SMTPMailer) Send(ctx context.Context, msg *Message) error {
	apmSpan, _ := apm.StartSpan(ctx, "mail.SMTPMailer.Send", "mail")
	defer apmSpan.End()

	mail := gomail.NewMessage()
	mail.SetHeader("From", m.cfg.From)
	mail.SetHeader("To", m.cfg.To)
	mail.SetHeader("Reply-To", mail.FormatAddress(msg.Email, msg.Name))
	mail.SetHeader("Subject", msg.Subject)
	mail.SetBody("text/plain", fmt.Sprintf("From: %s <%s>\n\n%s", msg.Name, msg.Email, msg.Body))

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	if err := dialer.DialAndSend(mail); err != nil {
		return &domain.RemoteError{Op: "mail.send", Err: err}
	}
	return nil
}

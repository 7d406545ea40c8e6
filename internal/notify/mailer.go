package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"gradewatch/internal/config"
	"io"
	"net/smtp"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("gradewatch/notify")

type Message struct {
	Subject string
	Text    string
	// optional
	HTML string
}

// Mailer delivers a message to the configured receiver.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer sends mail through an SMTP submission server, upgrading the
// connection with STARTTLS and authenticating when the server offers it.
type SMTPMailer struct {
	config config.Email
}

func NewSMTPMailer(cfg config.Email) SMTPMailer {
	return SMTPMailer{config: cfg}
}

func (m SMTPMailer) Send(ctx context.Context, msg Message) error {
	ctx, span := tracer.Start(ctx, "SMTPMailer.Send")
	defer span.End()

	err := m.config.Validate()
	if err != nil {
		return err
	}
	err = ctx.Err()
	if err != nil {
		return err
	}

	mail := email.NewEmail()
	mail.From = m.config.Sender
	mail.To = []string{m.config.Receiver}
	mail.Subject = msg.Subject
	mail.Text = []byte(msg.Text)
	if msg.HTML != "" {
		mail.HTML = []byte(msg.HTML)
	}

	err = mail.SendWithStartTLS(
		fmt.Sprintf("%s:%d", m.config.SmtpServer, m.config.SmtpPort),
		smtp.PlainAuth("", m.config.Sender, m.config.Password, m.config.SmtpServer),
		&tls.Config{ServerName: m.config.SmtpServer},
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}
	return nil
}

// WriterMailer writes messages to a writer instead of sending them.
type WriterMailer struct {
	Writer io.Writer
}

func (m WriterMailer) Send(ctx context.Context, msg Message) error {
	_, err := fmt.Fprintf(m.Writer, "Subject: %s\n\n%s", msg.Subject, msg.Text)
	return err
}

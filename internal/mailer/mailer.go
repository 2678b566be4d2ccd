// Package mailer delivers application emails over SMTP.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/spigell/jobai/internal/apperr"
)

const implicitTLSPort = 465

// Credentials are the decrypted SMTP settings.
type Credentials struct {
	Host      string
	Port      int
	User      string
	Password  string
	FromEmail string
	FromName  string
}

// Attachment is a file sent with the message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is one outgoing email.
type Message struct {
	To          string
	Subject     string
	HTMLBody    string
	Attachments []Attachment
}

// Sender sends a message with the given credentials.
type Sender interface {
	Send(ctx context.Context, creds Credentials, msg Message) error
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTP is the gomail-backed Sender.
type SMTP struct {
	logger    *zap.Logger
	newDialer func(creds Credentials) dialer
}

func NewSMTP(logger *zap.Logger) *SMTP {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SMTP{logger: logger, newDialer: defaultDialer}
}

func defaultDialer(creds Credentials) dialer {
	d := gomail.NewDialer(creds.Host, creds.Port, creds.User, creds.Password)
	// Port 465 speaks TLS from the first byte; other ports upgrade with STARTTLS.
	d.SSL = creds.Port == implicitTLSPort
	d.TLSConfig = &tls.Config{ServerName: creds.Host, MinVersion: tls.VersionTLS12}
	return d
}

// Send delivers msg. Failures wrap apperr.ErrTransport.
func (s *SMTP) Send(ctx context.Context, creds Credentials, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if creds.Host == "" || msg.To == "" {
		return fmt.Errorf("smtp host and recipient are required: %w", apperr.ErrTransport)
	}

	m := buildMessage(creds, msg)

	if err := s.newDialer(creds).DialAndSend(m); err != nil {
		return fmt.Errorf("send to %s: %w: %w", msg.To, apperr.ErrTransport, err)
	}

	s.logger.Debug("email sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

func buildMessage(creds Credentials, msg Message) *gomail.Message {
	m := gomail.NewMessage()

	from := creds.FromEmail
	if from == "" {
		from = creds.User
	}
	m.SetAddressHeader("From", from, creds.FromName)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTMLBody)

	for _, att := range msg.Attachments {
		data := att.Data
		settings := []gomail.FileSetting{
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
		}
		if att.ContentType != "" {
			settings = append(settings, gomail.SetHeader(map[string][]string{
				"Content-Type": {att.ContentType},
			}))
		}
		m.Attach(att.Filename, settings...)
	}

	return m
}

package profile

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/jobai/internal/apperr"
	"github.com/spigell/jobai/internal/mailer"
)

const testSubject = "JobAI - Test Email"

// SendTestEmail sends a short message to to with the stored SMTP settings.
func SendTestEmail(ctx context.Context, sender mailer.Sender, p *Profile, to string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return fmt.Errorf("test email address is required: %w", apperr.ErrValidation)
	}
	if err := p.CanSend(); err != nil {
		return err
	}

	body := fmt.Sprintf(`This is a test email from JobAI.

If you received this email, your SMTP settings are configured correctly!

Email Settings:
- SMTP Host: %s
- SMTP Port: %d
- From Email: %s
- From Name: %s

You can now use JobAI to send job applications.`, p.SMTPHost, p.SMTPPort, p.FromEmail, p.FromName)

	return sender.Send(ctx, p.Credentials(), mailer.Message{
		To:       to,
		Subject:  testSubject,
		HTMLBody: mailer.LetterToHTML(body),
	})
}

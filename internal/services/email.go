package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"html/template"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/foxxcyber/family-organizer/internal/config"
)

var ErrEmailDisabled = errors.New("SMTP is not configured")

// Mailer sends a single email with HTML and plain text bodies
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody, textBody string) error
}

// SMTPMailer sends email through the configured SMTP server
type SMTPMailer struct {
	cfg    *config.Config
	dialer *gomail.Dialer
}

// NewSMTPMailer creates a mailer, or returns ErrEmailDisabled when SMTP is off
func NewSMTPMailer(cfg *config.Config) (*SMTPMailer, error) {
	if !cfg.SMTPConfigured() {
		return nil, ErrEmailDisabled
	}

	d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	d.TLSConfig = &tls.Config{ServerName: cfg.SMTPHost, MinVersion: tls.VersionTLS12}
	// Port 465 is implicit TLS; anything else negotiates STARTTLS
	d.SSL = cfg.SMTPPort == 465

	return &SMTPMailer{cfg: cfg, dialer: d}, nil
}

// Send delivers one message
func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.cfg.SMTPFromAddr, m.cfg.SMTPFromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", textBody)
	msg.AddAlternative("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// InviteEmail holds what goes into a family invite
type InviteEmail struct {
	FamilyName  string
	InviterName string
	InviteCode  string
	Expiry      time.Time
}

var inviteHTML = template.Must(template.New("invite").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: linear-gradient(135deg, #10b981 0%, #0ea5e9 100%); color: white; padding: 30px; text-align: center; border-radius: 8px 8px 0 0; }
        .content { background: #f9fafb; padding: 30px; border: 1px solid #e5e7eb; border-top: none; border-radius: 0 0 8px 8px; }
        .code { font-family: monospace; font-size: 28px; letter-spacing: 4px; text-align: center; background: white; border: 1px dashed #10b981; padding: 15px; border-radius: 6px; margin: 20px 0; }
        .footer { text-align: center; color: #6b7280; font-size: 12px; margin-top: 20px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1 style="margin: 0;">Join {{.FamilyName}}</h1>
        </div>
        <div class="content">
            <p>{{.InviterName}} invited you to join <strong>{{.FamilyName}}</strong> on Family Organizer.</p>
            <p>Enter this code when joining a family:</p>
            <div class="code">{{.InviteCode}}</div>
            <p>The code expires on {{.Expiry.Format "Monday, January 2, 2006"}}.</p>
        </div>
        <div class="footer">
            <p>If you weren't expecting this invitation, you can ignore this email.</p>
        </div>
    </div>
</body>
</html>`))

// Render returns the subject and both bodies of the invite
func (e InviteEmail) Render() (subject, htmlBody, textBody string, err error) {
	var buf bytes.Buffer
	if err := inviteHTML.Execute(&buf, e); err != nil {
		return "", "", "", fmt.Errorf("failed to render invite email: %w", err)
	}

	subject = fmt.Sprintf("%s invited you to join %s", e.InviterName, e.FamilyName)
	textBody = fmt.Sprintf(`%s invited you to join %s on Family Organizer.

Enter this code when joining a family: %s

The code expires on %s.

If you weren't expecting this invitation, you can ignore this email.`,
		e.InviterName, e.FamilyName, e.InviteCode, e.Expiry.Format("Monday, January 2, 2006"))

	return subject, buf.String(), textBody, nil
}

// SendInvite renders and sends the invite to one address
func SendInvite(ctx context.Context, m Mailer, to string, invite InviteEmail) error {
	if m == nil {
		return ErrEmailDisabled
	}
	subject, htmlBody, textBody, err := invite.Render()
	if err != nil {
		return err
	}
	return m.Send(ctx, to, subject, htmlBody, textBody)
}

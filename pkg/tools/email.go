package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/awb-bank/audit-agent/pkg/agent"
	"github.com/awb-bank/audit-agent/pkg/config"
)

// EmailMessage is a rendered outbound notification.
type EmailMessage struct {
	From    string
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers notification emails. Tests substitute a fake.
type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// SMTPMailer delivers mail over SMTP. Port 465 uses implicit TLS;
// localhost relays (mail catchers like MailHog) skip TLS entirely;
// everything else uses STARTTLS with plain auth when a password is set.
type SMTPMailer struct {
	cfg config.SMTPConfig
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(ctx context.Context, msg EmailMessage) error {
	mm := mail.NewMsg()
	if err := mm.From(msg.From); err != nil {
		return fmt.Errorf("invalid sender %q: %w", msg.From, err)
	}
	if err := mm.To(msg.To); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	mm.Subject(msg.Subject)
	mm.SetBodyString(mail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		mm.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	}

	opts := []mail.Option{mail.WithPort(m.cfg.Port)}
	switch {
	case m.cfg.Port == 465:
		opts = append(opts, mail.WithSSL())
		if m.cfg.Password != "" {
			opts = append(opts,
				mail.WithSMTPAuth(mail.SMTPAuthPlain),
				mail.WithUsername(m.cfg.Username),
				mail.WithPassword(m.cfg.Password))
		}
	case m.cfg.Host == "localhost" || m.cfg.Host == "127.0.0.1":
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		if m.cfg.Password != "" {
			opts = append(opts,
				mail.WithSMTPAuth(mail.SMTPAuthPlain),
				mail.WithUsername(m.cfg.Username),
				mail.WithPassword(m.cfg.Password))
		}
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, mm); err != nil {
		return fmt.Errorf("send to %s: %w", msg.To, err)
	}
	return nil
}

// EmailTool sends an alert email about a user and logs a copy to disk.
type EmailTool struct {
	mailer Mailer
	users  UserIndex
	sender string
	logDir string
	now    func() time.Time
}

func NewEmailTool(mailer Mailer, users UserIndex, sender, logDir string) *EmailTool {
	return &EmailTool{mailer: mailer, users: users, sender: sender, logDir: logDir, now: time.Now}
}

func (t *EmailTool) Name() string { return "send_email_alert" }

func (t *EmailTool) Description() string {
	return "Email an alert about a user to the audit team."
}

func (t *EmailTool) Call(ctx context.Context, args []agent.Value, kwargs map[string]agent.Value) (string, error) {
	bound, err := bindArgs([]string{"recipient", "user_id", "subject", "body_text", "body_html"}, 4, args, kwargs)
	if err != nil {
		return "", err
	}
	recipient, err := textArg(bound, "recipient")
	if err != nil {
		return "", err
	}
	userID, err := textArg(bound, "user_id")
	if err != nil {
		return "", err
	}
	subject, err := textArg(bound, "subject")
	if err != nil {
		return "", err
	}
	bodyText, err := textArg(bound, "body_text")
	if err != nil {
		return "", err
	}
	bodyHTML, err := optionalStringArg(bound, "body_html")
	if err != nil {
		return "", err
	}

	if !t.users.UserExists(ctx, userID) {
		return fmt.Sprintf("Cannot send email: User %s has no audit events.", userID), nil
	}

	msg := EmailMessage{
		From:    t.sender,
		To:      recipient,
		Subject: subject,
		Text:    bodyText,
		HTML:    bodyHTML,
	}
	if err := t.mailer.Send(ctx, msg); err != nil {
		return "Failed to send email: " + err.Error(), nil
	}

	ts := t.now()
	log := fmt.Sprintf("To: %s\nSubject: %s\nTime: %s\nBody:\n%s\n",
		recipient, subject, ts.Format(time.RFC3339), bodyText)
	if err := writeArtifact(t.logDir, "sent_"+ts.Format("20060102_150405")+".txt", []byte(log)); err != nil {
		return "Failed to send email: " + err.Error(), nil
	}

	return fmt.Sprintf("Email sent to %s - Subject: %s", recipient, subject), nil
}

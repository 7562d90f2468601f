package mail

import (
	"fmt"
	"time"

	gomail "gopkg.in/gomail.v2"

	"authd/internal/config"
)

// Mailer sends account e-mails over SMTP. Message bodies embed the signed
// token in a URL pointing at the client application.
type Mailer struct {
	dialer        *gomail.Dialer
	from          string
	activationURL string
	resetURL      string
}

func NewMailer(cfg config.MailConfig) *Mailer {
	return &Mailer{
		dialer:        gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password),
		from:          cfg.From,
		activationURL: cfg.ActivationURL,
		resetURL:      cfg.ResetURL,
	}
}

func (m *Mailer) SendActivation(to, token string, expiresAt time.Time) error {
	subject, body := ActivationMessage(m.activationURL, token, expiresAt)
	return m.send(to, subject, body)
}

func (m *Mailer) SendPasswordReset(to, token string) error {
	subject, body := PasswordResetMessage(m.resetURL, token)
	return m.send(to, subject, body)
}

func (m *Mailer) send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// ActivationMessage renders the account activation e-mail.
func ActivationMessage(baseURL, token string, expiresAt time.Time) (subject, body string) {
	link := fmt.Sprintf("%s?token=%s", baseURL, token)
	subject = "Activate your account"
	body = fmt.Sprintf(
		`<p>Welcome! Click the link below to activate your account:</p>
<p><a href="%s">Activate Account</a></p>
<p>This link expires on <strong>%s</strong>.</p>
<p>If you did not sign up, please ignore this e-mail.</p>`,
		link, expiresAt.UTC().Format(time.RFC1123),
	)
	return subject, body
}

// PasswordResetMessage renders the password reset e-mail.
func PasswordResetMessage(baseURL, token string) (subject, body string) {
	link := fmt.Sprintf("%s?token=%s", baseURL, token)
	subject = "Reset your password"
	body = fmt.Sprintf(
		`<p>You requested a password reset. Click <a href="%s">here</a> to choose a new password.</p>
<p>If you did not request this, please ignore this e-mail.</p>`,
		link,
	)
	return subject, body
}

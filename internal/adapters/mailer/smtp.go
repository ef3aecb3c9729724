package mailer

import (
	"fmt"
	"net/url"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/doable/api/internal/logging"
)

// Sender delivers a single verification mail synchronously.
type Sender interface {
	SendVerification(to, token string) error
}

type SMTPConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	From        string
	FrontendURL string
}

type SMTPMailer struct {
	dialer      *gomail.Dialer
	from        string
	frontendURL string
	log         *zap.SugaredLogger
}

func NewSMTPMailer(cfg SMTPConfig, log *zap.SugaredLogger) *SMTPMailer {
	return &SMTPMailer{
		dialer:      gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:        cfg.From,
		frontendURL: cfg.FrontendURL,
		log:         log,
	}
}

func (m *SMTPMailer) SendVerification(to, token string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", m.frontendURL, url.QueryEscape(token))

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Verify your email address")
	msg.SetBody("text/plain", fmt.Sprintf(
		"Welcome!\n\nPlease verify your email address by opening the link below:\n\n%s\n\nThe link expires soon, so verify promptly. If you did not create an account, you can ignore this message.\n", link))
	msg.AddAlternative("text/html", fmt.Sprintf(
		`<p>Welcome!</p><p>Please verify your email address by clicking the link below:</p><p><a href="%s">Verify email</a></p><p>If you did not create an account, you can ignore this message.</p>`, link))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send verification mail: %w", err)
	}
	return nil
}

// NoopSender stands in when SMTP is not configured. It logs the link so
// local setups can still complete verification by hand.
type NoopSender struct {
	frontendURL string
	log         *zap.SugaredLogger
}

func NewNoopSender(frontendURL string, log *zap.SugaredLogger) *NoopSender {
	log.Warn("smtp not configured, verification mails will only be logged")
	return &NoopSender{frontendURL: frontendURL, log: log}
}

func (s *NoopSender) SendVerification(to, token string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", s.frontendURL, url.QueryEscape(token))
	s.log.Infow("verification mail suppressed", "to", logging.RedactEmail(to), "link", link)
	return nil
}

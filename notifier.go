package identity

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// SMTPConfig holds the delivery channel settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string

	// FrontendURL is the base for the confirm/reset links embedded in the
	// message body.
	FrontendURL string
	CompanyName string
}

// SMTPNotifier delivers verification and reset tokens over email. The
// lifecycle calls Send on its own goroutine, so a slow or failing SMTP
// server never blocks a registration or reset request.
type SMTPNotifier struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
}

// NewSMTPNotifier builds a notifier over a gomail dialer
func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// Send emails the token link for the given purpose
func (n *SMTPNotifier) Send(ctx context.Context, recipient string, purpose TokenPurpose, token string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	subject, link := n.compose(purpose, token)

	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(n.cfg.From, n.cfg.FromName))
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", fmt.Sprintf(
		`<p>%s</p><p><a href="%s">%s</a></p><p>%s</p>`,
		subject, link, link, n.cfg.CompanyName,
	))

	return n.dialer.DialAndSend(m)
}

func (n *SMTPNotifier) compose(purpose TokenPurpose, token string) (subject, link string) {
	switch purpose {
	case PurposeResetPassword:
		return "Reset your password", fmt.Sprintf("%s/reset_password/%s", n.cfg.FrontendURL, token)
	default:
		return "Confirm your email", fmt.Sprintf("%s/confirm_email/%s", n.cfg.FrontendURL, token)
	}
}

// LogNotifier writes deliveries to the logger instead of sending them.
// Useful in development and as the default sink in examples.
type LogNotifier struct {
	Logger Logger
}

func (n LogNotifier) Send(_ context.Context, recipient string, purpose TokenPurpose, token string) error {
	logger := n.Logger
	if logger == nil {
		logger = defLogger{}
	}
	logger.Info("notification to %s purpose %s token %s", recipient, purpose, token)
	return nil
}

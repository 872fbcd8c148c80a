package notifications

import (
	"fmt"
	"net/smtp"
	"strings"
)

// EmailNotifier delivers alerts over SMTP. Intended for the loss-limit and
// drawdown alerts that warrant more than a chat message.
type EmailNotifier struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       []string
}

// NewEmailNotifier creates an SMTP notifier.
func NewEmailNotifier(host string, port int, username, password, from string, to []string) *EmailNotifier {
	return &EmailNotifier{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		to:       to,
	}
}

func (e *EmailNotifier) SendAlert(level, message string) error {
	if len(e.to) == 0 {
		return fmt.Errorf("no recipients configured")
	}

	subject := fmt.Sprintf("Risk Engine Alert [%s]", strings.ToUpper(level))
	body := fmt.Sprintf("To: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		strings.Join(e.to, ", "), subject, message)

	addr := fmt.Sprintf("%s:%d", e.host, e.port)
	auth := smtp.PlainAuth("", e.username, e.password, e.host)

	if err := smtp.SendMail(addr, auth, e.from, e.to, []byte(body)); err != nil {
		return fmt.Errorf("failed to send alert email: %w", err)
	}
	return nil
}

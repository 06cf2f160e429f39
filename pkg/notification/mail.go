package notification

import (
	"fmt"
	"net/smtp"

	log "github.com/sirupsen/logrus"
)

// Mail reports operator alerts by email
type Mail struct {
	auth              smtp.Auth
	smtpServerPort    int
	smtpServerAddress string
	to                string
	from              string
	send              func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// MailParams contains all parameters needed to initialize a Mail instance
type MailParams struct {
	SMTPServerPort    int
	SMTPServerAddress string
	To                string
	From              string
	Password          string
}

// NewMail creates a new Mail instance with the provided parameters
func NewMail(params MailParams) *Mail {
	return &Mail{
		from:              params.From,
		to:                params.To,
		smtpServerPort:    params.SMTPServerPort,
		smtpServerAddress: params.SMTPServerAddress,
		auth:              smtp.PlainAuth("", params.From, params.Password, params.SMTPServerAddress),
		send:              smtp.SendMail,
	}
}

// Notify sends an email with the given text as body
func (m *Mail) Notify(text string) {
	m.deliver("Price alert bot", text)
}

// OnError sends an error report
func (m *Mail) OnError(err error) {
	m.deliver("🛑 ERROR", err.Error())
}

func (m *Mail) deliver(subject, body string) {
	serverAddress := fmt.Sprintf("%s:%d", m.smtpServerAddress, m.smtpServerPort)
	message := fmt.Sprintf("To: <%s>\r\nFrom: \"Price Alert\" <%s>\r\nSubject: %s\r\n\r\n%s\r\n",
		m.to, m.from, subject, body)

	if err := m.send(serverAddress, m.auth, m.from, []string{m.to}, []byte(message)); err != nil {
		log.WithError(err).Error("notification/mail: failed to send email")
	}
}

package alert

import (
	"context"

	"gopkg.in/gomail.v2"

	"github.com/warden-lab/warden/pkg/config"
)

type smtpAlerter struct {
	dialer *gomail.Dialer
	from   string
}

func newSMTPAlerter() alertHandlerInterface {
	smtpConfig := config.GetConfig().SMTP
	return &smtpAlerter{
		dialer: gomail.NewDialer(smtpConfig.Host, smtpConfig.Port, smtpConfig.User, smtpConfig.Password),
		from:   smtpConfig.User,
	}
}

func (sa *smtpAlerter) SendMessage(_ context.Context, receiver, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", sa.from)
	m.SetHeader("To", receiver)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	return sa.dialer.DialAndSend(m)
}

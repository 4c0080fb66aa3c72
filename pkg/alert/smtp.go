package alert

import (
	"context"

	"gopkg.in/gomail.v2"

	"github.com/build-lab/girder/pkg/config"
	"github.com/build-lab/girder/pkg/event"
	"github.com/build-lab/girder/pkg/logutils"
)

type smtpSender struct {
	dialer *gomail.Dialer
	from   string
}

func newSMTPSender() senderInterface {
	smtpConfig := config.GetConfig().SMTP
	return &smtpSender{
		dialer: gomail.NewDialer(smtpConfig.Host, smtpConfig.Port, smtpConfig.User, smtpConfig.Password),
		from:   smtpConfig.From,
	}
}

func (s *smtpSender) SendMessageTo(_ context.Context, recipient *event.Recipient, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", recipient.Email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return err
	}
	logutils.Log.Infof("sent email to %s", recipient.Email)
	return nil
}

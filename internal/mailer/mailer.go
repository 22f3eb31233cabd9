// Package mailer delivers invoice e-mails over SMTP.
package mailer

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

var ErrNoRecipient = errors.New("mail has no recipient")

type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Message struct {
	To          []string
	ReplyTo     string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Sender delivers a message.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Enabled reports whether an SMTP host is configured.
func (c Config) Enabled() bool { return c.Host != "" }

// SMTPSender opens one SMTP connection per message.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
	log    zerolog.Logger
}

func NewSMTPSender(cfg Config, log zerolog.Logger) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		log:    log,
	}
}

// Compose builds the MIME message without sending it.
func (s *SMTPSender) Compose(m Message) (*gomail.Message, error) {
	if len(m.To) == 0 {
		return nil, ErrNoRecipient
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", m.To...)
	if m.ReplyTo != "" {
		msg.SetHeader("Reply-To", m.ReplyTo)
	}
	msg.SetHeader("Subject", m.Subject)
	msg.SetBody("text/plain", m.Body)
	for _, a := range m.Attachments {
		data := a.Data
		msg.Attach(a.Filename,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
			gomail.SetHeader(map[string][]string{"Content-Type": {a.ContentType}}),
		)
	}
	return msg, nil
}

func (s *SMTPSender) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := s.Compose(m)
	if err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(msg); err != nil {
		s.log.Error().Err(err).Strs("to", m.To).Msg("send mail")
		return err
	}
	s.log.Info().Strs("to", m.To).Str("subject", m.Subject).Int("attachments", len(m.Attachments)).Msg("mail sent")
	return nil
}

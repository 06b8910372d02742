package email

import (
	"bytes"
	"context"
	"log/slog"
	"strconv"

	"github.com/wneessen/go-mail"

	"github.com/listora/listora/internal/usecase"
)

func NewEmailProvider(smtpHost, smtpUser, smtpPassword, smtpPort string, logger *slog.Logger) *EmailProvider {
	if smtpHost == "" || smtpUser == "" || smtpPassword == "" || smtpPort == "" {
		panic("email: SMTP host, user, password and port must be provided")
	}

	smtpPortInt, err := strconv.Atoi(smtpPort)
	if err != nil {
		panic("email: invalid SMTP port: " + err.Error())
	}

	client, err := mail.NewClient(
		smtpHost,
		mail.WithPort(smtpPortInt),
		mail.WithUsername(smtpUser),
		mail.WithPassword(smtpPassword),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
	)
	if err != nil {
		panic("email: failed to create SMTP client: " + err.Error())
	}

	provider := &EmailProvider{
		c:      make(chan *mail.Msg, 100),
		client: client,
		logger: logger,
	}
	go provider.sendEmailWorker()

	return provider
}

// EmailProvider queues outgoing mail onto a channel so alert sends
// never block the request path.
type EmailProvider struct {
	c      chan *mail.Msg
	client *mail.Client
	logger *slog.Logger
}

func (e *EmailProvider) SendEmail(_ context.Context, email usecase.Email) error {
	msg := mail.NewMsg()
	msg.From(email.From)
	msg.To(email.To...)
	msg.Cc(email.CC...)
	msg.Bcc(email.BCC...)
	msg.Subject(email.Subject)
	msg.SetBodyString(mail.TypeTextHTML, email.Body)
	for _, file := range email.Attachments {
		if err := msg.AttachReader(
			file.Name,
			bytes.NewReader(file.Content),
			mail.WithFileContentType(mail.ContentType(file.ContentType)),
		); err != nil {
			e.logger.Error("email attach file", "name", file.Name, "error", err)
		}
	}

	e.c <- msg

	return nil
}

func (e *EmailProvider) sendEmailWorker() {
	for msg := range e.c {
		if err := e.client.DialAndSend(msg); err != nil {
			e.logger.Error("email send", "error", err)
		}
	}
}

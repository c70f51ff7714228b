// Package sender реализует отправку писем активации из очереди уведомлений.
package sender

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/discount-club/internal/lib/sl"
	"github.com/magabrotheeeer/discount-club/internal/lib/smtp"
	"github.com/magabrotheeeer/discount-club/internal/models"
)

// SenderService отправляет письма через SMTP транспорт.
type SenderService struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(transport smtp.TransportInterface, log *slog.Logger) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// SendActivationEmail обрабатывает сообщение очереди с письмом активации.
func (s *SenderService) SendActivationEmail(body []byte) error {
	var message models.ActivationEmail
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	to := []string{message.Email}
	subject := "Активация аккаунта дисконт-клуба"
	htmlBody := fmt.Sprintf(`<p>Здравствуйте, %s!</p>
<p>Ваша покупка подтверждена, аккаунт дисконт-клуба создан.</p>
<p>Чтобы подтвердить адрес электронной почты, перейдите по ссылке в течение 24 часов:</p>
<p><a href="%s">%s</a></p>`,
		message.Name, message.ActivationURL, message.ActivationURL)

	return s.sendEmail(to, subject, htmlBody)
}

func (s *SenderService) sendEmail(to []string, subject, htmlBody string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=\"UTF-8\"",
		"",
		htmlBody,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() { _ = client.Close() }()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", "from", s.transport.GetSMTPUser(), "error", sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", "recipient", addr, "error", sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}
	return nil
}

// Package sender собирает письма из заданий очереди и отправляет их по SMTP.
package sender

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/remedyhub/remedy-api/internal/lib/sl"
	"github.com/remedyhub/remedy-api/internal/lib/smtp"
	"github.com/remedyhub/remedy-api/internal/models"
)

// Transport описывает подключение к SMTP-серверу.
type Transport interface {
	Connect() (smtp.Client, error)
	GetSMTPUser() string
}

// Service отправляет письма по заданиям из очереди.
type Service struct {
	transport Transport
	log       *slog.Logger
}

// New создает новый экземпляр Service.
func New(transport Transport, log *slog.Logger) *Service {
	return &Service{transport: transport, log: log}
}

// SendEmailJob разбирает задание очереди, подбирает текст письма по виду
// и отправляет его адресату.
func (s *Service) SendEmailJob(body []byte) error {
	var job models.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		s.log.Error("failed to unmarshal message body", "error", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	subject, bodyText := composeEmail(job)
	return s.sendEmail([]string{job.Email}, subject, bodyText)
}

// composeEmail возвращает тему и текст письма для задания.
// Для неизвестного вида используются Subject и Body из самого задания.
func composeEmail(job models.EmailJob) (string, string) {
	switch job.Kind {
	case models.EmailKindVerification:
		subject := "Confirm your RemedyHub email"
		body := fmt.Sprintf("Hello, %s!\n\nPlease confirm your email address by following the link:\n%s\n\nThe link is valid for 48 hours.",
			job.Username, job.Link)
		return subject, body
	case models.EmailKindPasswordReset:
		subject := "Reset your RemedyHub password"
		body := fmt.Sprintf("Hello, %s!\n\nTo set a new password, follow the link:\n%s\n\nIf you did not request a reset, ignore this message. The link is valid for one hour.",
			job.Username, job.Link)
		return subject, body
	case models.EmailKindContentDisabled:
		subject := job.Subject
		if subject == "" {
			subject = "Your content was hidden"
		}
		body := fmt.Sprintf("Hello, %s!\n\n%s", job.Username, job.Body)
		return subject, body
	default:
		return job.Subject, job.Body
	}
}

func (s *Service) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", "error", sl.Err(err))
		return err
	}
	defer client.Close()

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
		s.log.Error("failed to get Data writer", "error", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", "error", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", "error", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", "error", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", "to", to)
	return nil
}

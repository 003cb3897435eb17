package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/healthbook/healthbook-api/internal/config"
)

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPService creates a gomail-backed sender.
func NewSMTPService(cfg config.SMTPConfig) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) SendAppointmentConfirmation(ctx context.Context, to, userName, doctorName, date, time string) error {
	body := appointmentConfirmationBody(userName, doctorName, date, time)
	return s.send(ctx, to, "Appointment Confirmation - Healthbook", body)
}

func (s *smtpService) SendPasswordReset(ctx context.Context, to, token string) error {
	body := passwordResetBody(token)
	return s.send(ctx, to, "Password Reset - Healthbook", body)
}

func (s *smtpService) send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

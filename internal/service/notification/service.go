package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/healthbook/healthbook-api/internal/email"
	"github.com/healthbook/healthbook-api/internal/model"
	"github.com/healthbook/healthbook-api/internal/repository"
	"github.com/healthbook/healthbook-api/pkg/logger"
)

// Service dispatches email notifications and records every attempt.
type Service interface {
	SendAppointmentConfirmation(ctx context.Context, apt *model.Appointment, recipient, userName string) error
	SendPasswordReset(ctx context.Context, recipient, token string) error
}

type service struct {
	repo     repository.NotificationRepository
	emailSvc email.Service
	log      *logger.Logger
}

func NewService(repo repository.NotificationRepository, emailSvc email.Service, log *logger.Logger) Service {
	return &service{repo: repo, emailSvc: emailSvc, log: log}
}

func (s *service) SendAppointmentConfirmation(ctx context.Context, apt *model.Appointment, recipient, userName string) error {
	n := &model.Notification{
		ID:            uuid.New(),
		AppointmentID: &apt.ID,
		Recipient:     recipient,
		Subject:       "Appointment Confirmation - Healthbook",
		Status:        model.NotificationStatusPending,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}

	sendErr := s.emailSvc.SendAppointmentConfirmation(ctx, recipient, userName, apt.DoctorName, apt.Date, apt.Time)
	s.finish(ctx, n, sendErr)
	return sendErr
}

func (s *service) SendPasswordReset(ctx context.Context, recipient, token string) error {
	n := &model.Notification{
		ID:        uuid.New(),
		Recipient: recipient,
		Subject:   "Password Reset - Healthbook",
		Status:    model.NotificationStatusPending,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}

	sendErr := s.emailSvc.SendPasswordReset(ctx, recipient, token)
	s.finish(ctx, n, sendErr)
	return sendErr
}

// finish updates the dispatch record. A failure to update is logged only;
// the send outcome is what the caller cares about.
func (s *service) finish(ctx context.Context, n *model.Notification, sendErr error) {
	if sendErr != nil {
		n.Status = model.NotificationStatusFailed
		n.LastError = sendErr.Error()
	} else {
		now := time.Now()
		n.Status = model.NotificationStatusSent
		n.SentAt = &now
	}

	if err := s.repo.Update(ctx, n); err != nil {
		s.log.Error(err, "failed to update notification record")
	}
}

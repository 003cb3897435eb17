package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/healthbook/healthbook-api/internal/model"
)

// ErrNotFound is returned by repositories when no row matches. Services map
// it to the caller-facing not-found error for their resource.
var ErrNotFound = errors.New("record not found")

type (
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
	}

	DoctorRepository interface {
		Create(ctx context.Context, doctor *model.Doctor) error
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		List(ctx context.Context) ([]*model.Doctor, error)
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		List(ctx context.Context, userID *uuid.UUID) ([]*model.Appointment, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) (*model.Appointment, error)
	}

	NotificationRepository interface {
		Create(ctx context.Context, notification *model.Notification) error
		Update(ctx context.Context, notification *model.Notification) error
	}

	TokenRepository interface {
		Create(ctx context.Context, token *model.PasswordResetToken) error
		Get(ctx context.Context, token string) (*model.PasswordResetToken, error)
		// Redeem consumes an unused token and sets the user's password hash
		// in one transaction.
		Redeem(ctx context.Context, token string, userID uuid.UUID, passwordHash string) error
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
	}
)

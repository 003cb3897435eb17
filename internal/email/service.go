package email

import (
	"context"
)

// Service sends transactional email.
type Service interface {
	SendAppointmentConfirmation(ctx context.Context, to, userName, doctorName, date, time string) error
	SendPasswordReset(ctx context.Context, to, token string) error
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/healthbook/healthbook-api/internal/model"
	"github.com/healthbook/healthbook-api/internal/repository"
)

type notificationRepository struct {
	BaseRepository
}

func NewNotificationRepository(db *sqlx.DB) repository.NotificationRepository {
	return &notificationRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *notificationRepository) Create(ctx context.Context, notification *model.Notification) error {
	query := `
		INSERT INTO notifications (
			id, appointment_id, recipient, subject, status, last_error,
			sent_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	notification.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		notification.ID,
		notification.AppointmentID,
		notification.Recipient,
		notification.Subject,
		notification.Status,
		notification.LastError,
		notification.SentAt,
		notification.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) Update(ctx context.Context, notification *model.Notification) error {
	query := `
		UPDATE notifications
		SET status = $1, last_error = $2, sent_at = $3
		WHERE id = $4
	`
	result, err := r.db.ExecContext(ctx, query,
		notification.Status,
		notification.LastError,
		notification.SentAt,
		notification.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

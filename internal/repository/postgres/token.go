package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/healthbook/healthbook-api/internal/model"
	"github.com/healthbook/healthbook-api/internal/repository"
)

type tokenRepository struct {
	BaseRepository
}

func NewTokenRepository(db *sqlx.DB) repository.TokenRepository {
	return &tokenRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *tokenRepository) Create(ctx context.Context, token *model.PasswordResetToken) error {
	query := `
		INSERT INTO password_reset_tokens (token, user_id, expires_at, used, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	token.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		token.Token,
		token.UserID,
		token.ExpiresAt,
		token.Used,
		token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}
	return nil
}

func (r *tokenRepository) Get(ctx context.Context, token string) (*model.PasswordResetToken, error) {
	query := `
		SELECT token, user_id, expires_at, used, created_at
		FROM password_reset_tokens
		WHERE token = $1
	`
	var t model.PasswordResetToken
	err := r.db.GetContext(ctx, &t, query, token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reset token: %w", err)
	}
	return &t, nil
}

// Redeem marks the token used and updates the user's password hash in a
// single transaction, so a failure on either write rolls back both.
func (r *tokenRepository) Redeem(ctx context.Context, token string, userID uuid.UUID, passwordHash string) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE password_reset_tokens SET used = true WHERE token = $1 AND used = false`,
			token,
		)
		if err != nil {
			return fmt.Errorf("failed to mark reset token used: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return repository.ErrNotFound
		}

		result, err = tx.ExecContext(ctx,
			`UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`,
			passwordHash, time.Now(), userID,
		)
		if err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}
		rows, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// PasswordResetToken is a single-use token emailed to a user.
type PasswordResetToken struct {
	Token     string    `db:"token" json:"token"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	Used      bool      `db:"used" json:"used"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

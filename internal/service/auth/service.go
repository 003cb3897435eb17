package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/healthbook/healthbook-api/internal/model"
	"github.com/healthbook/healthbook-api/internal/repository"
	"github.com/healthbook/healthbook-api/internal/service/notification"
	"github.com/healthbook/healthbook-api/pkg/apperror"
	"github.com/healthbook/healthbook-api/pkg/auth"
	"github.com/healthbook/healthbook-api/pkg/logger"
	"github.com/healthbook/healthbook-api/pkg/security"
)

const resetTokenExpiry = time.Hour

type Service struct {
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
	jwtSvc    auth.JWTService
	hasher    security.PasswordHasher
	notifSvc  notification.Service
	expiry    time.Duration
	log       *logger.Logger
}

func NewService(
	userRepo repository.UserRepository,
	tokenRepo repository.TokenRepository,
	jwtSvc auth.JWTService,
	hasher security.PasswordHasher,
	notifSvc notification.Service,
	tokenExpiry time.Duration,
	log *logger.Logger,
) *Service {
	return &Service{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		jwtSvc:    jwtSvc,
		hasher:    hasher,
		notifSvc:  notifSvc,
		expiry:    tokenExpiry,
		log:       log,
	}
}

func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	if _, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil {
		return nil, apperror.Validation("email already registered")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.Internal(err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperror.Validation("password must be at least 8 characters")
	}

	user := &model.User{
		ID:           uuid.New(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Age:          req.Age,
		Gender:       req.Gender,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, apperror.Persistence(err)
	}
	return user, nil
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid credentials")
		}
		return nil, apperror.Internal(err)
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, apperror.Unauthorized("invalid credentials")
	}

	token, err := s.jwtSvc.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	return &model.TokenResponse{
		AccessToken: token,
		ExpiresAt:   time.Now().Add(s.expiry),
		User:        user,
	}, nil
}

// RequestPasswordReset issues a single-use token and emails it. An unknown
// email returns success without sending, so the endpoint does not leak which
// addresses have accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return apperror.Internal(err)
	}

	raw, err := generateResetToken()
	if err != nil {
		return apperror.Internal(err)
	}

	token := &model.PasswordResetToken{
		Token:     raw,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(resetTokenExpiry),
	}
	if err := s.tokenRepo.Create(ctx, token); err != nil {
		return apperror.Persistence(err)
	}

	if err := s.notifSvc.SendPasswordReset(ctx, user.Email, token.Token); err != nil {
		s.log.Warn(err, "password reset email failed")
	}
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, req *model.ResetPasswordConfirm) error {
	token, err := s.tokenRepo.Get(ctx, req.Token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.Validation("invalid or expired reset token")
		}
		return apperror.Internal(err)
	}

	if token.Used || time.Now().After(token.ExpiresAt) {
		return apperror.Validation("invalid or expired reset token")
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return apperror.Validation("password must be at least 8 characters")
	}

	// The password update and the token consumption commit together; a
	// failure leaves both the old password and the unused token in place.
	if err := s.tokenRepo.Redeem(ctx, token.Token, token.UserID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.Validation("invalid or expired reset token")
		}
		return apperror.Persistence(err)
	}
	return nil
}

func (s *Service) ValidateToken(token string) (*auth.TokenClaims, error) {
	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return nil, apperror.Unauthorized("invalid or expired token")
	}
	return claims, nil
}

func generateResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

package auth

import (
	"context"
	"encoding/hex"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthbook/healthbook-api/internal/model"
	"github.com/healthbook/healthbook-api/internal/repository"
	"github.com/healthbook/healthbook-api/pkg/apperror"
	"github.com/healthbook/healthbook-api/pkg/auth"
	"github.com/healthbook/healthbook-api/pkg/logger"
	"github.com/healthbook/healthbook-api/pkg/security"
)

type memUserRepo struct {
	users map[uuid.UUID]*model.User
}

func (r *memUserRepo) Create(_ context.Context, u *model.User) error { r.users[u.ID] = u; return nil }
func (r *memUserRepo) Update(_ context.Context, u *model.User) error { r.users[u.ID] = u; return nil }

func (r *memUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

type memTokenRepo struct {
	tokens    map[string]*model.PasswordResetToken
	users     *memUserRepo
	redeemErr error
}

func (r *memTokenRepo) Create(_ context.Context, t *model.PasswordResetToken) error {
	r.tokens[t.Token] = t
	return nil
}

func (r *memTokenRepo) Get(_ context.Context, token string) (*model.PasswordResetToken, error) {
	t, ok := r.tokens[token]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return t, nil
}

// Redeem mimics the transactional repository: on failure neither the token
// nor the password changes.
func (r *memTokenRepo) Redeem(_ context.Context, token string, userID uuid.UUID, passwordHash string) error {
	if r.redeemErr != nil {
		return r.redeemErr
	}

	t, ok := r.tokens[token]
	if !ok || t.Used {
		return repository.ErrNotFound
	}
	u, ok := r.users.users[userID]
	if !ok {
		return repository.ErrNotFound
	}

	t.Used = true
	u.PasswordHash = passwordHash
	return nil
}

type captureNotifier struct {
	resetTokens []string
	err         error
}

func (n *captureNotifier) SendAppointmentConfirmation(_ context.Context, _ *model.Appointment, _, _ string) error {
	return n.err
}

func (n *captureNotifier) SendPasswordReset(_ context.Context, _, token string) error {
	if n.err != nil {
		return n.err
	}
	n.resetTokens = append(n.resetTokens, token)
	return nil
}

func newService(t *testing.T) (*Service, *memUserRepo, *memTokenRepo, *captureNotifier) {
	t.Helper()

	users := &memUserRepo{users: make(map[uuid.UUID]*model.User)}
	tokens := &memTokenRepo{tokens: make(map[string]*model.PasswordResetToken), users: users}
	notifier := &captureNotifier{}

	svc := NewService(
		users, tokens,
		auth.NewJWTService("test-secret", time.Hour),
		security.NewBcryptHasher(4),
		notifier,
		time.Hour,
		logger.New(logger.Config{Output: io.Discard}),
	)
	return svc, users, tokens, notifier
}

func registerReq() *model.RegisterRequest {
	return &model.RegisterRequest{
		Name:     "Asha Rao",
		Email:    "asha@example.com",
		Password: "hunter2hunter2",
		Age:      30,
		Gender:   "F",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _, _ := newService(t)

	user, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2hunter2", user.PasswordHash)

	resp, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "asha@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, user.ID, resp.User.ID)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "asha@example.com", claims.Email)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _, _ := newService(t)

	_, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), registerReq())
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestRegisterShortPassword(t *testing.T) {
	svc, _, _, _ := newService(t)

	req := registerReq()
	req.Password = "short"
	_, err := svc.Register(context.Background(), req)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _, _ := newService(t)

	_, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), &model.LoginRequest{
		Email:    "asha@example.com",
		Password: "wrong-password",
	})
	assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))

	_, err = svc.Login(context.Background(), &model.LoginRequest{
		Email:    "nobody@example.com",
		Password: "hunter2hunter2",
	})
	assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))
}

func TestPasswordResetFlow(t *testing.T) {
	svc, _, _, notifier := newService(t)

	user, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(context.Background(), user.Email))
	require.Len(t, notifier.resetTokens, 1)
	token := notifier.resetTokens[0]

	err = svc.ResetPassword(context.Background(), &model.ResetPasswordConfirm{
		Token:       token,
		NewPassword: "correct-horse-battery",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), &model.LoginRequest{
		Email:    user.Email,
		Password: "correct-horse-battery",
	})
	assert.NoError(t, err)

	_, err = svc.Login(context.Background(), &model.LoginRequest{
		Email:    user.Email,
		Password: "hunter2hunter2",
	})
	assert.Error(t, err)
}

func TestPasswordResetTokenSingleUse(t *testing.T) {
	svc, _, _, notifier := newService(t)

	user, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(context.Background(), user.Email))
	token := notifier.resetTokens[0]

	confirm := &model.ResetPasswordConfirm{Token: token, NewPassword: "another-password"}
	require.NoError(t, svc.ResetPassword(context.Background(), confirm))

	err = svc.ResetPassword(context.Background(), confirm)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestPasswordResetFailureLeavesCredentialsIntact(t *testing.T) {
	svc, _, tokens, notifier := newService(t)

	user, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(context.Background(), user.Email))
	token := notifier.resetTokens[0]

	tokens.redeemErr = errors.New("connection reset by peer")
	err = svc.ResetPassword(context.Background(), &model.ResetPasswordConfirm{
		Token:       token,
		NewPassword: "another-password",
	})
	assert.True(t, apperror.IsKind(err, apperror.KindPersistence))

	// The old password still works and the token is still redeemable.
	_, err = svc.Login(context.Background(), &model.LoginRequest{
		Email:    user.Email,
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	tokens.redeemErr = nil
	require.NoError(t, svc.ResetPassword(context.Background(), &model.ResetPasswordConfirm{
		Token:       token,
		NewPassword: "another-password",
	}))

	_, err = svc.Login(context.Background(), &model.LoginRequest{
		Email:    user.Email,
		Password: "another-password",
	})
	assert.NoError(t, err)
}

func TestPasswordResetExpiredToken(t *testing.T) {
	svc, _, tokens, notifier := newService(t)

	user, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(context.Background(), user.Email))
	token := notifier.resetTokens[0]
	tokens.tokens[token].ExpiresAt = time.Now().Add(-time.Minute)

	err = svc.ResetPassword(context.Background(), &model.ResetPasswordConfirm{
		Token:       token,
		NewPassword: "another-password",
	})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestPasswordResetUnknownEmailSucceedsQuietly(t *testing.T) {
	svc, _, _, notifier := newService(t)

	require.NoError(t, svc.RequestPasswordReset(context.Background(), "nobody@example.com"))
	assert.Empty(t, notifier.resetTokens)
}

func TestResetTokenGeneration(t *testing.T) {
	a, err := generateResetToken()
	require.NoError(t, err)
	b, err := generateResetToken()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	_, err = hex.DecodeString(a)
	assert.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestPasswordResetUnknownToken(t *testing.T) {
	svc, _, _, _ := newService(t)

	err := svc.ResetPassword(context.Background(), &model.ResetPasswordConfirm{
		Token:       "deadbeef",
		NewPassword: "another-password",
	})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

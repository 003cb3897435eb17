package user

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/healthbook/healthbook-api/internal/model"
	"github.com/healthbook/healthbook-api/internal/repository"
	"github.com/healthbook/healthbook-api/pkg/apperror"
)

type Service struct {
	repo repository.UserRepository
}

func NewService(repo repository.UserRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NotFound("user")
		}
		return nil, apperror.Internal(err)
	}
	return user, nil
}

// SetAvatar stores the uploaded avatar URL on the user profile.
func (s *Service) SetAvatar(ctx context.Context, id uuid.UUID, url string) (*model.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	user.AvatarURL = url
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, apperror.Persistence(err)
	}
	return user, nil
}

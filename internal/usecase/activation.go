package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/newsline/accounts-service/internal/core/domain"
	"github.com/newsline/accounts-service/internal/core/port"
	"github.com/newsline/accounts-service/internal/repository"
)

// ActivationService redeems activation codes. Checks run in a fixed
// order so the caller always learns the most specific failure:
// unknown user, already active, missing code, expired code, then
// mismatched code.
type ActivationService struct {
	users port.UserRepository
	codes port.ActivationCodeRepository
	now   func() time.Time
}

func NewActivationService(users port.UserRepository, codes port.ActivationCodeRepository) *ActivationService {
	return &ActivationService{
		users: users,
		codes: codes,
		now:   time.Now,
	}
}

// Activate flips the account to active when the submitted code matches
// the live one and is inside its redemption window. The flip and the
// code deletion commit atomically; a concurrent activation that loses
// the race surfaces as ErrAlreadyActive.
func (s *ActivationService) Activate(ctx context.Context, email, submitted string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	if user.IsActive {
		return nil, ErrAlreadyActive
	}

	code, err := s.codes.GetByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, fmt.Errorf("get activation code: %w", err)
	}

	if code.IsExpired(s.now()) {
		return nil, ErrCodeExpired
	}

	if !code.Matches(submitted) {
		return nil, ErrCodeMismatch
	}

	if err := s.users.Activate(ctx, user.ID); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrAlreadyActive
		}
		return nil, fmt.Errorf("activate user: %w", err)
	}

	user.IsActive = true
	user.PasswordHash = ""
	return user, nil
}

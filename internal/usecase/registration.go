package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/newsline/accounts-service/internal/core/domain"
	"github.com/newsline/accounts-service/internal/core/port"
	"github.com/newsline/accounts-service/internal/infra/logger"
	"github.com/newsline/accounts-service/internal/repository"
)

const maxNameLength = 150

// PasswordHasher hashes and verifies login passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

// PasswordValidator rejects weak passwords before hashing.
type PasswordValidator interface {
	Validate(password string, userInputs ...string) error
}

// CodeGenerator produces a fresh activation code.
type CodeGenerator func() (string, error)

// RegistrationService creates accounts in the inactive state and issues
// their activation codes.
type RegistrationService struct {
	users           port.UserRepository
	codes           port.ActivationCodeRepository
	publisher       port.EmailPublisher
	hasher          PasswordHasher
	validator       PasswordValidator
	generateCode    CodeGenerator
	dispatchTimeout time.Duration
	now             func() time.Time
}

func NewRegistrationService(
	users port.UserRepository,
	codes port.ActivationCodeRepository,
	publisher port.EmailPublisher,
	hasher PasswordHasher,
	validator PasswordValidator,
	generateCode CodeGenerator,
	dispatchTimeout time.Duration,
) *RegistrationService {
	return &RegistrationService{
		users:           users,
		codes:           codes,
		publisher:       publisher,
		hasher:          hasher,
		validator:       validator,
		generateCode:    generateCode,
		dispatchTimeout: dispatchTimeout,
		now:             time.Now,
	}
}

// RegisterInput is the validated request to create an account.
type RegisterInput struct {
	Email           string
	FirstName       string
	LastName        string
	Password        string
	PasswordConfirm string
}

// Register creates an inactive account, stores a fresh activation code
// and hands the activation email to the delivery collaborator. Email
// delivery failures are logged, not returned: the account exists either
// way and the code can be resent.
func (s *RegistrationService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	email, err := validateRegisterInput(input)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(input.Password, email, input.FirstName, input.LastName); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: hash,
		IsActive:     false,
		DateJoined:   s.now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.issueCode(ctx, &user); err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return &user, nil
}

// ResendCode replaces the pending user's activation code with a fresh
// one and re-dispatches the email. The replacement resets the 24h
// redemption window.
func (s *RegistrationService) ResendCode(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("get user by email: %w", err)
	}

	if user.IsActive {
		return ErrAlreadyActive
	}

	return s.issueCode(ctx, user)
}

// CreateSuperuser provisions an administrative account that is active
// immediately. No activation code is issued and no email is sent.
func (s *RegistrationService) CreateSuperuser(ctx context.Context, input RegisterInput) (*domain.User, error) {
	email, err := validateRegisterInput(input)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(input.Password, email, input.FirstName, input.LastName); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: hash,
		IsActive:     true,
		IsStaff:      true,
		IsSuperuser:  true,
		DateJoined:   s.now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create superuser: %w", err)
	}

	user.PasswordHash = ""
	return &user, nil
}

func (s *RegistrationService) issueCode(ctx context.Context, user *domain.User) error {
	value, err := s.generateCode()
	if err != nil {
		return fmt.Errorf("generate activation code: %w", err)
	}

	code := domain.ActivationCode{
		UserID:    user.ID,
		Code:      value,
		CreatedAt: s.now().UTC(),
	}

	if err := s.codes.Replace(ctx, code); err != nil {
		return fmt.Errorf("store activation code: %w", err)
	}

	dispatchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.dispatchTimeout)
	defer cancel()

	emailPayload := domain.ActivationEmail{
		Email:     user.Email,
		FirstName: user.FirstName,
		Code:      code.Code,
		ExpiresAt: code.CreatedAt.Add(domain.ActivationCodeTTL),
	}

	if err := s.publisher.PublishActivationEmail(dispatchCtx, emailPayload); err != nil {
		logger.WithContext(ctx).Error("activation email dispatch failed",
			zap.String("email", logger.MaskEmail(user.Email)),
			zap.Error(err),
		)
	}

	return nil
}

func validateRegisterInput(input RegisterInput) (string, error) {
	email := domain.NormalizeEmail(input.Email)
	if email == "" {
		return "", ErrInvalidEmail
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}

	if len(input.FirstName) > maxNameLength || len(input.LastName) > maxNameLength {
		return "", ErrNameTooLong
	}

	if input.Password != input.PasswordConfirm {
		return "", ErrPasswordConfirmMismatch
	}

	return email, nil
}

package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/newsline/accounts-service/internal/core/domain"
	"github.com/newsline/accounts-service/internal/repository"
)

// stubUserRepo is an in-memory port.UserRepository mirroring the
// conditional-activation contract of the PostgreSQL implementation.
type stubUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User // keyed by id
	codes *stubCodeRepo          // activation deletes the code like the SQL transaction does
}

func newStubUserRepo(codes *stubCodeRepo) *stubUserRepo {
	return &stubUserRepo{users: make(map[string]domain.User), codes: codes}
}

func (s *stubUserRepo) Create(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}

	s.users[user.ID] = user
	return nil
}

func (s *stubUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	normalized := domain.NormalizeEmail(email)
	for _, user := range s.users {
		if user.Email == normalized {
			u := user
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *stubUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u := user
	return &u, nil
}

func (s *stubUserRepo) Activate(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	if user.IsActive {
		return repository.ErrConflict
	}

	user.IsActive = true
	s.users[id] = user

	if s.codes != nil {
		delete(s.codes.codes, id)
	}
	return nil
}

type stubCodeRepo struct {
	mu    sync.Mutex
	codes map[string]domain.ActivationCode // keyed by user id
}

func newStubCodeRepo() *stubCodeRepo {
	return &stubCodeRepo{codes: make(map[string]domain.ActivationCode)}
}

func (s *stubCodeRepo) Replace(_ context.Context, code domain.ActivationCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[code.UserID] = code
	return nil
}

func (s *stubCodeRepo) GetByUserID(_ context.Context, userID string) (*domain.ActivationCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, ok := s.codes[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := code
	return &c, nil
}

func (s *stubCodeRepo) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.codes[userID]; !ok {
		return repository.ErrNotFound
	}
	delete(s.codes, userID)
	return nil
}

type stubRevocationStore struct {
	mu      sync.Mutex
	revoked map[string]string // jti -> reason
}

func newStubRevocationStore() *stubRevocationStore {
	return &stubRevocationStore{revoked: make(map[string]string)}
}

func (s *stubRevocationStore) MarkRevoked(_ context.Context, jti, reason string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[jti] = reason
	return nil
}

func (s *stubRevocationStore) IsRevoked(_ context.Context, jti string) (bool, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reason, ok := s.revoked[jti]
	return ok, reason, nil
}

type stubPublisher struct {
	mu       sync.Mutex
	sent     []domain.ActivationEmail
	failWith error
}

func (s *stubPublisher) PublishActivationEmail(_ context.Context, email domain.ActivationEmail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	s.sent = append(s.sent, email)
	return nil
}

func (s *stubPublisher) lastSent() (domain.ActivationEmail, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return domain.ActivationEmail{}, false
	}
	return s.sent[len(s.sent)-1], true
}

// stubHasher keeps registration tests fast; argon2 has its own tests.
type stubHasher struct{}

func (stubHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (stubHasher) Verify(password, encoded string) (bool, error) {
	return encoded == "hashed:"+password, nil
}

type stubValidator struct{}

func (stubValidator) Validate(password string, _ ...string) error {
	if strings.Contains(password, "weak") {
		return errStubWeakPassword
	}
	return nil
}

var errStubWeakPassword = errStub("password rejected by validator")

type errStub string

func (e errStub) Error() string { return string(e) }

func fixedCodeGenerator(code string) CodeGenerator {
	return func() (string, error) { return code, nil }
}

package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/newsline/accounts-service/internal/core/domain"
	"github.com/newsline/accounts-service/internal/core/port"
	"github.com/newsline/accounts-service/internal/infra/config"
	"github.com/newsline/accounts-service/internal/infra/security"
	"github.com/newsline/accounts-service/internal/repository"
	"github.com/newsline/accounts-service/internal/transport/http/handlers"
	"github.com/newsline/accounts-service/internal/usecase"
)

// In-memory store implementations backing the full HTTP stack.

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
	codes *memCodeRepo
}

func (m *memUserRepo) Create(_ context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	normalized := domain.NormalizeEmail(email)
	for _, u := range m.users {
		if u.Email == normalized {
			user := u
			return &user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	user := u
	return &user, nil
}

func (m *memUserRepo) Activate(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	if u.IsActive {
		return repository.ErrConflict
	}
	u.IsActive = true
	m.users[id] = u
	delete(m.codes.codes, id)
	return nil
}

type memCodeRepo struct {
	mu    sync.Mutex
	codes map[string]domain.ActivationCode
}

func (m *memCodeRepo) Replace(_ context.Context, code domain.ActivationCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[code.UserID] = code
	return nil
}

func (m *memCodeRepo) GetByUserID(_ context.Context, userID string) (*domain.ActivationCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.codes[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	code := c
	return &code, nil
}

func (m *memCodeRepo) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.codes[userID]; !ok {
		return repository.ErrNotFound
	}
	delete(m.codes, userID)
	return nil
}

type memRevocation struct {
	mu      sync.Mutex
	revoked map[string]string
}

func (m *memRevocation) MarkRevoked(_ context.Context, jti, reason string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[jti] = reason
	return nil
}

func (m *memRevocation) IsRevoked(_ context.Context, jti string) (bool, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reason, ok := m.revoked[jti]
	return ok, reason, nil
}

type memRateLimits struct{}

func (memRateLimits) TrimWindow(context.Context, string, time.Duration, time.Time) error { return nil }
func (memRateLimits) CountAttempts(context.Context, string, time.Duration, time.Time) (int, error) {
	return 0, nil
}
func (memRateLimits) RecordAttempt(context.Context, string, time.Time) error { return nil }
func (memRateLimits) OldestAttempt(context.Context, string, time.Duration, time.Time) (time.Time, bool, error) {
	return time.Time{}, false, nil
}

var _ port.RateLimitStore = memRateLimits{}

type memPublisher struct{}

func (memPublisher) PublishActivationEmail(context.Context, domain.ActivationEmail) error {
	return nil
}

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	codes := &memCodeRepo{codes: make(map[string]domain.ActivationCode)}
	users := &memUserRepo{users: make(map[string]domain.User), codes: codes}

	issuer := security.NewTokenIssuer("test-secret", "accounts-service", 15*time.Minute, 168*time.Hour)

	registration := usecase.NewRegistrationService(
		users, codes, memPublisher{},
		security.NewPasswordHasher(security.DefaultArgon2Params()),
		security.NewPasswordValidator(),
		func() (string, error) { return "271828", nil },
		time.Second,
	)
	activation := usecase.NewActivationService(users, codes)
	auth := usecase.NewAuthService(users, issuer, &memRevocation{revoked: make(map[string]string)},
		security.NewPasswordHasher(security.DefaultArgon2Params()))

	health := handlers.NewHealthHandler(map[string]handlers.DependencyCheck{
		"self": func(context.Context) error { return nil },
	})

	return New(Deps{
		Registration: handlers.NewRegistrationHandler(registration, activation),
		Auth:         handlers.NewAuthHandler(auth),
		Health:       health,
		Tokens:       issuer,
		RateLimits:   memRateLimits{},
		Limits: config.RateLimitSettings{
			WindowDuration:      time.Minute,
			LoginMaxAttempts:    100,
			RegisterMaxAttempts: 100,
			ActivateMaxAttempts: 100,
			ResendMaxAttempts:   100,
		},
		Env: "test",
	})
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	decoded := map[string]any{}
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	}
	return rec, decoded
}

func registerBody() map[string]string {
	return map[string]string{
		"email":            "reader@example.com",
		"first_name":       "Pat",
		"last_name":        "Reader",
		"password":         "tr0ub4dor-and-three",
		"password_confirm": "tr0ub4dor-and-three",
	}
}

func TestAPIAccountLifecycle(t *testing.T) {
	engine := newTestServer(t)

	rec, body := doJSON(t, engine, http.MethodPost, "/api/v1/auth/register", registerBody(), nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d (%v)", rec.Code, body)
	}
	if active, _ := body["is_active"].(bool); active {
		t.Fatal("registered account must start inactive")
	}

	// Login before activation is forbidden.
	rec, body = doJSON(t, engine, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "reader@example.com", "password": "tr0ub4dor-and-three",
	}, nil)
	if rec.Code != http.StatusUnauthorized || body["code"] != "not_activated" {
		t.Fatalf("pre-activation login = %d %v", rec.Code, body)
	}

	// Wrong code is rejected without consuming the live one.
	rec, body = doJSON(t, engine, http.MethodPost, "/api/v1/auth/activate", map[string]string{
		"email": "reader@example.com", "code": "000000",
	}, nil)
	if rec.Code != http.StatusBadRequest || body["code"] != "code_mismatch" {
		t.Fatalf("wrong code = %d %v", rec.Code, body)
	}

	rec, body = doJSON(t, engine, http.MethodPost, "/api/v1/auth/activate", map[string]string{
		"email": "reader@example.com", "code": "271828",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("activate status = %d (%v)", rec.Code, body)
	}

	rec, body = doJSON(t, engine, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "reader@example.com", "password": "tr0ub4dor-and-three",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d (%v)", rec.Code, body)
	}
	accessToken, _ := body["access_token"].(string)
	refreshToken, _ := body["refresh_token"].(string)
	if accessToken == "" || refreshToken == "" {
		t.Fatal("login must return both tokens")
	}

	rec, body = doJSON(t, engine, http.MethodGet, "/api/v1/auth/profile", nil, map[string]string{
		"Authorization": "Bearer " + accessToken,
	})
	if rec.Code != http.StatusOK || body["email"] != "reader@example.com" {
		t.Fatalf("profile = %d %v", rec.Code, body)
	}

	rec, body = doJSON(t, engine, http.MethodPost, "/api/v1/auth/refresh", map[string]string{
		"refresh_token": refreshToken,
	}, nil)
	refreshed, _ := body["access_token"].(string)
	if rec.Code != http.StatusOK || refreshed == "" {
		t.Fatalf("refresh = %d %v", rec.Code, body)
	}

	// Logout requires a live access token alongside the refresh token.
	rec, body = doJSON(t, engine, http.MethodPost, "/api/v1/auth/logout", map[string]string{
		"refresh_token": refreshToken,
	}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("logout without bearer = %d %v", rec.Code, body)
	}

	rec, body = doJSON(t, engine, http.MethodPost, "/api/v1/auth/logout", map[string]string{
		"refresh_token": refreshToken,
	}, map[string]string{"Authorization": "Bearer " + accessToken})
	if rec.Code != http.StatusOK {
		t.Fatalf("logout = %d %v", rec.Code, body)
	}

	rec, body = doJSON(t, engine, http.MethodPost, "/api/v1/auth/refresh", map[string]string{
		"refresh_token": refreshToken,
	}, nil)
	if rec.Code != http.StatusUnauthorized || body["code"] != "token_revoked" {
		t.Fatalf("post-logout refresh = %d %v", rec.Code, body)
	}
}

func TestAPIValidationAndConflicts(t *testing.T) {
	engine := newTestServer(t)

	rec, body := doJSON(t, engine, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email": "reader@example.com",
	}, nil)
	if rec.Code != http.StatusBadRequest || body["code"] != "bad_request" {
		t.Fatalf("missing fields = %d %v", rec.Code, body)
	}

	if rec, _ := doJSON(t, engine, http.MethodPost, "/api/v1/auth/register", registerBody(), nil); rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d", rec.Code)
	}

	rec, body = doJSON(t, engine, http.MethodPost, "/api/v1/auth/register", registerBody(), nil)
	if rec.Code != http.StatusBadRequest || body["code"] != "email_taken" {
		t.Fatalf("duplicate register = %d %v", rec.Code, body)
	}

	weak := registerBody()
	weak["email"] = "other@example.com"
	weak["password"] = "password1"
	weak["password_confirm"] = "password1"
	rec, body = doJSON(t, engine, http.MethodPost, "/api/v1/auth/register", weak, nil)
	if rec.Code != http.StatusBadRequest || body["code"] != "password_too_weak" {
		t.Fatalf("weak password = %d %v", rec.Code, body)
	}

	rec, body = doJSON(t, engine, http.MethodPost, "/api/v1/auth/activate", map[string]string{
		"email": "ghost@example.com", "code": "271828",
	}, nil)
	if rec.Code != http.StatusNotFound || body["code"] != "user_not_found" {
		t.Fatalf("unknown user activate = %d %v", rec.Code, body)
	}

	rec, body = doJSON(t, engine, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "ghost@example.com", "password": "whatever-7x",
	}, nil)
	if rec.Code != http.StatusUnauthorized || body["code"] != "invalid_credentials" {
		t.Fatalf("unknown login = %d %v", rec.Code, body)
	}

	rec, _ = doJSON(t, engine, http.MethodGet, "/api/v1/auth/profile", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("profile without token = %d", rec.Code)
	}
}

func TestAPIResendCode(t *testing.T) {
	engine := newTestServer(t)

	if rec, _ := doJSON(t, engine, http.MethodPost, "/api/v1/auth/register", registerBody(), nil); rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d", rec.Code)
	}

	rec, body := doJSON(t, engine, http.MethodPost, "/api/v1/auth/activate/resend", map[string]string{
		"email": "reader@example.com",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("resend = %d %v", rec.Code, body)
	}

	// Activation still succeeds with the (re-issued) code.
	rec, body = doJSON(t, engine, http.MethodPost, "/api/v1/auth/activate", map[string]string{
		"email": "reader@example.com", "code": "271828",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("activate = %d %v", rec.Code, body)
	}

	rec, body = doJSON(t, engine, http.MethodPost, "/api/v1/auth/activate/resend", map[string]string{
		"email": "reader@example.com",
	}, nil)
	if rec.Code != http.StatusBadRequest || body["code"] != "already_active" {
		t.Fatalf("resend after activation = %d %v", rec.Code, body)
	}
}

func TestHealthEndpoints(t *testing.T) {
	engine := newTestServer(t)

	rec, _ := doJSON(t, engine, http.MethodGet, "/healthz", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d", rec.Code)
	}

	rec, _ = doJSON(t, engine, http.MethodGet, "/readyz", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("readyz = %d", rec.Code)
	}

	rec, _ = doJSON(t, engine, http.MethodGet, "/metrics", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics = %d", rec.Code)
	}
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pixelcraft/internal/model"
	"github.com/pixelcraft/internal/repository"
)

type fakeAdmins struct {
	admins map[string]*model.Admin
}

func newFakeAdmins(admins ...*model.Admin) *fakeAdmins {
	f := &fakeAdmins{admins: make(map[string]*model.Admin)}
	for _, a := range admins {
		f.admins[a.Email] = a
	}
	return f
}

func (f *fakeAdmins) GetByEmail(ctx context.Context, email string) (*model.Admin, error) {
	a, ok := f.admins[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return a, nil
}

func (f *fakeAdmins) Create(ctx context.Context, a *model.Admin) error {
	f.admins[a.Email] = a
	return nil
}

func (f *fakeAdmins) Count(ctx context.Context) (int, error) {
	return len(f.admins), nil
}

type fakeSessions struct {
	sessions map[string]*model.AdminSession
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: make(map[string]*model.AdminSession)}
}

func (f *fakeSessions) Create(ctx context.Context, s *model.AdminSession) error {
	f.sessions[s.Token] = s
	return nil
}

func (f *fakeSessions) GetByToken(ctx context.Context, token string) (*model.AdminSession, error) {
	s, ok := f.sessions[token]
	if !ok || s.RevokedAt != nil || !time.Now().Before(s.ExpiresAt) {
		return nil, repository.ErrNotFound
	}
	return s, nil
}

func (f *fakeSessions) RevokeByToken(ctx context.Context, token string) (bool, error) {
	s, ok := f.sessions[token]
	if !ok || s.RevokedAt != nil {
		return false, nil
	}
	now := time.Now()
	s.RevokedAt = &now
	return true, nil
}

type fakeTokens struct {
	tokens       map[string]string
	limitReached bool
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{tokens: make(map[string]string)}
}

func (f *fakeTokens) SetToken(ctx context.Context, token, email string, ttl time.Duration) error {
	f.tokens[token] = email
	return nil
}

func (f *fakeTokens) GetToken(ctx context.Context, token string) (string, error) {
	return f.tokens[token], nil
}

func (f *fakeTokens) DeleteToken(ctx context.Context, token string) error {
	delete(f.tokens, token)
	return nil
}

func (f *fakeTokens) CheckLoginRateLimit(ctx context.Context, key string) (bool, error) {
	return !f.limitReached, nil
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newTestService(t *testing.T, admins *fakeAdmins) (*AdminAuthService, *fakeSessions, *fakeTokens) {
	t.Helper()
	sessions := newFakeSessions()
	tokens := newFakeTokens()
	svc := NewAdminAuthService(admins, sessions, tokens, "seed@example.com", "seed-pass", time.Hour)
	return svc, sessions, tokens
}

func TestLoginSuccess(t *testing.T) {
	admins := newFakeAdmins(&model.Admin{Email: "admin@example.com", PasswordHash: mustHash(t, "secret")})
	svc, sessions, tokens := newTestService(t, admins)

	session, err := svc.Login(context.Background(), "Admin@Example.com ", "secret")
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)
	require.Equal(t, "admin@example.com", session.Email)
	require.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, time.Minute)

	require.Contains(t, sessions.sessions, session.Token)
	require.Equal(t, "admin@example.com", tokens.tokens[session.Token])
}

func TestLoginNoAdminsYet(t *testing.T) {
	svc, _, _ := newTestService(t, newFakeAdmins())
	_, err := svc.Login(context.Background(), "admin@example.com", "secret")
	require.ErrorIs(t, err, ErrAdminNotSetup)
}

func TestLoginWrongPassword(t *testing.T) {
	admins := newFakeAdmins(&model.Admin{Email: "admin@example.com", PasswordHash: mustHash(t, "secret")})
	svc, _, _ := newTestService(t, admins)
	_, err := svc.Login(context.Background(), "admin@example.com", "nope")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	admins := newFakeAdmins(&model.Admin{Email: "admin@example.com", PasswordHash: mustHash(t, "secret")})
	svc, _, _ := newTestService(t, admins)
	_, err := svc.Login(context.Background(), "other@example.com", "secret")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginEmptyFields(t *testing.T) {
	svc, _, _ := newTestService(t, newFakeAdmins())
	_, err := svc.Login(context.Background(), "", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginRateLimited(t *testing.T) {
	admins := newFakeAdmins(&model.Admin{Email: "admin@example.com", PasswordHash: mustHash(t, "secret")})
	sessions := newFakeSessions()
	tokens := newFakeTokens()
	tokens.limitReached = true
	svc := NewAdminAuthService(admins, sessions, tokens, "seed@example.com", "seed-pass", time.Hour)

	_, err := svc.Login(context.Background(), "admin@example.com", "secret")
	require.ErrorIs(t, err, ErrRateLimitExceeded)
}

func TestValidateCacheFastPath(t *testing.T) {
	svc, _, tokens := newTestService(t, newFakeAdmins())
	tokens.tokens["tok"] = "admin@example.com"

	email, err := svc.Validate(context.Background(), "tok")
	require.NoError(t, err)
	require.Equal(t, "admin@example.com", email)
}

func TestValidateFallsBackToDBAndRewarms(t *testing.T) {
	svc, sessions, tokens := newTestService(t, newFakeAdmins())
	sessions.sessions["tok"] = &model.AdminSession{
		Token:     "tok",
		Email:     "admin@example.com",
		ExpiresAt: time.Now().Add(time.Hour),
	}

	email, err := svc.Validate(context.Background(), "tok")
	require.NoError(t, err)
	require.Equal(t, "admin@example.com", email)
	require.Equal(t, "admin@example.com", tokens.tokens["tok"], "cache must be re-warmed from the database")
}

func TestValidateUnknownToken(t *testing.T) {
	svc, _, _ := newTestService(t, newFakeAdmins())
	_, err := svc.Validate(context.Background(), "stale")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateEmptyToken(t *testing.T) {
	svc, _, _ := newTestService(t, newFakeAdmins())
	_, err := svc.Validate(context.Background(), "  ")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateExpiredSession(t *testing.T) {
	svc, sessions, _ := newTestService(t, newFakeAdmins())
	sessions.sessions["tok"] = &model.AdminSession{
		Token:     "tok",
		Email:     "admin@example.com",
		ExpiresAt: time.Now().Add(-time.Minute),
	}

	_, err := svc.Validate(context.Background(), "tok")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogoutRevokesAndForgets(t *testing.T) {
	admins := newFakeAdmins(&model.Admin{Email: "admin@example.com", PasswordHash: mustHash(t, "secret")})
	svc, _, tokens := newTestService(t, admins)
	session, err := svc.Login(context.Background(), "admin@example.com", "secret")
	require.NoError(t, err)

	require.True(t, svc.Logout(context.Background(), session.Token))
	require.NotContains(t, tokens.tokens, session.Token)

	// Повторный logout — не ошибка, просто false.
	require.False(t, svc.Logout(context.Background(), session.Token))
	require.False(t, svc.Logout(context.Background(), ""))
}

func TestAdminExists(t *testing.T) {
	svc, _, _ := newTestService(t, newFakeAdmins())
	exists, err := svc.AdminExists(context.Background())
	require.NoError(t, err)
	require.False(t, exists)

	svcWith, _, _ := newTestService(t, newFakeAdmins(&model.Admin{Email: "a@b.c"}))
	exists, err = svcWith.AdminExists(context.Background())
	require.NoError(t, err)
	require.True(t, exists)
}

func TestCreateDefaultAdmin(t *testing.T) {
	admins := newFakeAdmins()
	svc, _, _ := newTestService(t, admins)

	created, err := svc.CreateDefaultAdmin(context.Background())
	require.NoError(t, err)
	require.True(t, created)

	seeded, ok := admins.admins["seed@example.com"]
	require.True(t, ok)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(seeded.PasswordHash), []byte("seed-pass")))

	// Второй вызов — no-op без ошибки.
	created, err = svc.CreateDefaultAdmin(context.Background())
	require.NoError(t, err)
	require.False(t, created)
}

func TestSeededCredentialsLogin(t *testing.T) {
	admins := newFakeAdmins()
	svc, _, _ := newTestService(t, admins)

	_, err := svc.CreateDefaultAdmin(context.Background())
	require.NoError(t, err)

	session, err := svc.Login(context.Background(), "seed@example.com", "seed-pass")
	require.NoError(t, err)
	require.Equal(t, "seed@example.com", session.Email)
}

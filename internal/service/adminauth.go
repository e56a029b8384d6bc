package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/pixelcraft/internal/logger"
	"github.com/pixelcraft/internal/model"
	"github.com/pixelcraft/internal/repository"
)

// Формулировки ошибок авторизации — контракт с админ-клиентом: классификатор
// на клиенте матчит их по подстрокам, менять текст нельзя без изменения клиента.
const (
	MsgInvalidToken       = "Invalid or expired admin session token"
	MsgNoAdminRole        = "Unauthorized: no admin role"
	MsgAdminNotSetup      = "Admin not set up: no admin account exists yet"
	MsgInvalidCredentials = "Invalid credentials"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAdminNotSetup      = errors.New("admin not set up")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrRateLimitExceeded  = errors.New("rate limit exceeded")
)

// AdminStore — срез AdminRepository, нужный сервису.
type AdminStore interface {
	GetByEmail(ctx context.Context, email string) (*model.Admin, error)
	Create(ctx context.Context, a *model.Admin) error
	Count(ctx context.Context) (int, error)
}

// SessionStore — срез SessionRepository.
type SessionStore interface {
	Create(ctx context.Context, s *model.AdminSession) error
	GetByToken(ctx context.Context, token string) (*model.AdminSession, error)
	RevokeByToken(ctx context.Context, token string) (bool, error)
}

// TokenCache — быстрый путь token → email (Redis/memory/devstore).
type TokenCache interface {
	SetToken(ctx context.Context, token, email string, ttl time.Duration) error
	GetToken(ctx context.Context, token string) (string, error)
	DeleteToken(ctx context.Context, token string) error
	CheckLoginRateLimit(ctx context.Context, key string) (bool, error)
}

// AdminAuthService — серверная авторизация админа: логин за токен, проверка
// токена, logout, бутстрап seed-учётки.
type AdminAuthService struct {
	admins     AdminStore
	sessions   SessionStore
	tokens     TokenCache
	seedEmail  string
	seedPass   string
	sessionTTL time.Duration
	now        func() time.Time
}

func NewAdminAuthService(admins AdminStore, sessions SessionStore, tokens TokenCache, seedEmail, seedPassword string, sessionTTL time.Duration) *AdminAuthService {
	return &AdminAuthService{
		admins: admins, sessions: sessions, tokens: tokens,
		seedEmail: strings.ToLower(strings.TrimSpace(seedEmail)), seedPass: seedPassword,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// Login обменивает email/пароль на токен сессии.
// Возвращает ErrAdminNotSetup, если ни одного админа ещё нет — клиент по этой
// ошибке предлагает создать seed-учётку.
func (s *AdminAuthService) Login(ctx context.Context, email, password string) (*model.AdminSession, error) {
	emailNorm := strings.ToLower(strings.TrimSpace(email))
	if emailNorm == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	allowed, err := s.tokens.CheckLoginRateLimit(ctx, emailNorm)
	if err != nil {
		logger.Errorf("login: rate limit check email=%s: %v", emailNorm, err)
	} else if !allowed {
		return nil, ErrRateLimitExceeded
	}

	n, err := s.admins.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("login: count admins: %w", err)
	}
	if n == 0 {
		return nil, ErrAdminNotSetup
	}

	admin, err := s.admins.GetByEmail(ctx, emailNorm)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: get admin: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.now().UTC()
	session := &model.AdminSession{
		Token:     uuid.New().String(),
		Email:     admin.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("login: create session: %w", err)
	}
	if err := s.tokens.SetToken(ctx, session.Token, session.Email, s.sessionTTL); err != nil {
		// Токен без быстрого пути бесполезен частично, но сессия валидна через БД — не откатываем.
		logger.Errorf("login: set token cache: %v", err)
	}
	return session, nil
}

// Validate возвращает email владельца токена или ErrInvalidToken.
// Сначала быстрый путь (token store), затем БД с прогревом кеша.
func (s *AdminAuthService) Validate(ctx context.Context, token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", ErrInvalidToken
	}
	email, err := s.tokens.GetToken(ctx, token)
	if err != nil {
		logger.Errorf("validate: token cache: %v", err)
	}
	if email != "" {
		return email, nil
	}
	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidToken
		}
		return "", fmt.Errorf("validate: get session: %w", err)
	}
	if !session.Active(s.now().UTC()) {
		return "", ErrInvalidToken
	}
	if ttl := time.Until(session.ExpiresAt); ttl > 0 {
		if err := s.tokens.SetToken(ctx, token, session.Email, ttl); err != nil {
			logger.Errorf("validate: re-warm token cache: %v", err)
		}
	}
	return session.Email, nil
}

// Logout отзывает сессию. Возвращает false, если активной сессии не было;
// ошибок наружу не отдаёт — logout должен быть идемпотентным.
func (s *AdminAuthService) Logout(ctx context.Context, token string) bool {
	if strings.TrimSpace(token) == "" {
		return false
	}
	revoked, err := s.sessions.RevokeByToken(ctx, token)
	if err != nil {
		logger.Errorf("logout: revoke session: %v", err)
	}
	if err := s.tokens.DeleteToken(ctx, token); err != nil {
		logger.Errorf("logout: delete token cache: %v", err)
	}
	return revoked
}

// AdminExists сообщает, создан ли хотя бы один админ.
func (s *AdminAuthService) AdminExists(ctx context.Context) (bool, error) {
	n, err := s.admins.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("adminExists: %w", err)
	}
	return n > 0, nil
}

// CreateDefaultAdmin создаёт seed-учётку из конфигурации.
// Возвращает false без ошибки, если админ уже существует (не считаем это сбоем).
func (s *AdminAuthService) CreateDefaultAdmin(ctx context.Context) (bool, error) {
	n, err := s.admins.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("createDefaultAdmin: count: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(s.seedPass), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("createDefaultAdmin: hash: %w", err)
	}
	admin := &model.Admin{
		Email:        s.seedEmail,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		return false, fmt.Errorf("createDefaultAdmin: create: %w", err)
	}
	logger.Infof("createDefaultAdmin: seed admin %s created", admin.Email)
	return true, nil
}

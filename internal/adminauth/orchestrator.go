// Package adminauth — клиентская оркестрация входа админа: обмен учётных
// данных на токен, верификационный probe, commit-or-rollback сессии,
// классификация ошибок бэкенда.
package adminauth

import (
	"context"
	"errors"
	"time"

	"github.com/pixelcraft/internal/adminsession"
	"github.com/pixelcraft/internal/logger"
	"github.com/pixelcraft/internal/model"
)

// ErrUnsupported возвращают реализации Backend для операций, которых
// у конкретного бэкенда нет (старые версии без /exists и /bootstrap).
var ErrUnsupported = errors.New("operation not supported by backend")

// LoginReply — нормализованный успешный ответ логина.
type LoginReply struct {
	Token     string
	ExpiresAt time.Time // нулевое время — бэкенд срок не сообщил
}

// Backend — операции удалённого бэкенда, нужные оркестратору. Ошибка логина
// (включая Result с err) приходит как обычная error с текстом бэкенда —
// её разбирает Classify.
type Backend interface {
	AdminLogin(ctx context.Context, email, password string) (*LoginReply, error)
	AdminLogout(ctx context.Context, token string) error
	AdminExists(ctx context.Context) (bool, error)
	CreateDefaultAdmin(ctx context.Context) (bool, error)
	GetAllOrders(ctx context.Context, token string) ([]model.Order, error)
}

// Invalidator — локальный кеш серверных данных, сбрасываемый при logout,
// чтобы анонимному зрителю не достались админские данные.
type Invalidator interface {
	Clear()
}

// Orchestrator проводит полный протокол входа: credential exchange →
// предварительный commit сессии → верификационный probe → commit или
// rollback. Сам логин не доказывает админских прав, поэтому после него
// обязательно выполняется настоящий авторизованный вызов.
type Orchestrator struct {
	backend  Backend
	sessions *adminsession.Store
	cache    Invalidator
}

func NewOrchestrator(backend Backend, sessions *adminsession.Store, cache Invalidator) *Orchestrator {
	return &Orchestrator{backend: backend, sessions: sessions, cache: cache}
}

// Login обменивает email/пароль на сессию. Полученный токен сначала
// предварительно сохраняется, затем проверяется probe-вызовом (список
// заказов); при неудаче probe сессия откатывается с человекочитаемой
// причиной, и та же причина возвращается вызывающему.
func (o *Orchestrator) Login(ctx context.Context, email, password string) error {
	reply, err := o.backend.AdminLogin(ctx, email, password)
	if err != nil {
		return err
	}
	if reply == nil || reply.Token == "" {
		return errors.New("no token received")
	}

	// Предварительный commit: probe ниже должен идти уже с токеном из сессии.
	o.sessions.Set(adminsession.Session{
		Token:     reply.Token,
		Username:  email,
		ExpiresAt: reply.ExpiresAt,
	})

	if _, err := o.backend.GetAllOrders(ctx, reply.Token); err != nil {
		ce := Classify(err)
		o.sessions.ClearWithReason(ce.Message)
		return ce
	}
	return nil
}

// Logout уведомляет бэкенд (best-effort: сбой только логируется), затем
// безусловно чистит локальную сессию и кеш.
func (o *Orchestrator) Logout(ctx context.Context) {
	if token := o.sessions.Token(); token != "" {
		if err := o.backend.AdminLogout(ctx, token); err != nil {
			logger.Errorf("logout: remote notify failed: %v", err)
		}
	}
	o.sessions.Clear()
	if o.cache != nil {
		o.cache.Clear()
	}
}

// AdminExists спрашивает бэкенд, есть ли хоть один админ. Если бэкенд
// операцию не поддерживает или недоступен, считаем, что админ есть —
// иначе консоль зациклится на предложении бутстрапа.
func (o *Orchestrator) AdminExists(ctx context.Context) bool {
	exists, err := o.backend.AdminExists(ctx)
	if err != nil {
		if !errors.Is(err, ErrUnsupported) {
			logger.Errorf("adminExists: %v", err)
		}
		return true
	}
	return exists
}

// CreateDefaultAdmin просит бэкенд создать seed-учётку.
// false без ошибки — админ уже существует.
func (o *Orchestrator) CreateDefaultAdmin(ctx context.Context) (bool, error) {
	return o.backend.CreateDefaultAdmin(ctx)
}

// NoteBackendError применяет политику недействительного токена к ошибке
// любого авторизованного вызова: токен отвергнут — сессия сбрасывается
// с причиной; любая другая ошибка сессию не трогает.
func (o *Orchestrator) NoteBackendError(err error) {
	if err == nil || !IsInvalidTokenError(err) {
		return
	}
	o.sessions.ClearWithReason(Classify(err).Message)
}

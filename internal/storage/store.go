package storage

import (
	"context"
	"time"
)

// AdminTokenStore — быстрый путь token → email для админ-сессий и rate limit логина.
// Реализации: redis.Client, memory.Client (для -dev без Redis), devstore.Client
// (токены в БД, переживают перезапуск в -dev).
type AdminTokenStore interface {
	SetToken(ctx context.Context, token, email string, ttl time.Duration) error
	// GetToken возвращает email владельца токена или "" если токена нет/истёк.
	GetToken(ctx context.Context, token string) (string, error)
	DeleteToken(ctx context.Context, token string) error
	// CheckLoginRateLimit увеличивает счётчик попыток логина по ключу (email или IP).
	CheckLoginRateLimit(ctx context.Context, key string) (allowed bool, err error)
	Close() error
}

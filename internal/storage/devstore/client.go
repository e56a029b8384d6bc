// Package devstore — AdminTokenStore для -dev без Redis: токены резолвятся
// напрямую из Postgres (переживают перезапуск), rate limit — в памяти.
package devstore

import (
	"context"
	"errors"
	"time"

	"github.com/pixelcraft/internal/repository"
	"github.com/pixelcraft/internal/storage/memory"
)

type Client struct {
	repo *repository.SessionRepository
	mem  *memory.Client
}

func New(repo *repository.SessionRepository) *Client {
	return &Client{repo: repo, mem: memory.New()}
}

func (c *Client) Close() error { return c.mem.Close() }

// SetToken — no-op: строка сессии уже создана в БД сервисом авторизации.
func (c *Client) SetToken(ctx context.Context, token, email string, ttl time.Duration) error {
	return nil
}

func (c *Client) GetToken(ctx context.Context, token string) (string, error) {
	s, err := c.repo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return s.Email, nil
}

// DeleteToken — no-op: отзыв делает RevokeByToken в БД.
func (c *Client) DeleteToken(ctx context.Context, token string) error {
	return nil
}

func (c *Client) CheckLoginRateLimit(ctx context.Context, key string) (bool, error) {
	return c.mem.CheckLoginRateLimit(ctx, key)
}

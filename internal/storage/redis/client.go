package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Rate limit логина: 10 попыток / 10 минут на ключ (email или IP).
const (
	LoginRateLimitWindow = 600
	LoginRateLimitMax    = 10
)

type Client struct {
	cli *redis.Client
}

func New(ctx context.Context, url string) (*Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis parse url: %w", err)
	}
	cli := redis.NewClient(opts)
	if err := cli.Ping(ctx).Err(); err != nil {
		if closeErr := cli.Close(); closeErr != nil {
			return nil, fmt.Errorf("redis ping: %w (close: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Client{cli: cli}, nil
}

func (c *Client) Close() error {
	return c.cli.Close()
}

// SetToken сохраняет email по ключу admin_token:{token} с TTL сессии.
func (c *Client) SetToken(ctx context.Context, token, email string, ttl time.Duration) error {
	return c.cli.Set(ctx, "admin_token:"+token, email, ttl).Err()
}

// GetToken возвращает email владельца токена ("" если ключа нет — токен истёк или отозван).
func (c *Client) GetToken(ctx context.Context, token string) (string, error) {
	val, err := c.cli.Get(ctx, "admin_token:"+token).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

// DeleteToken удаляет токен при logout/отзыве.
func (c *Client) DeleteToken(ctx context.Context, token string) error {
	return c.cli.Del(ctx, "admin_token:"+token).Err()
}

// CheckLoginRateLimit проверяет login_limit:{key}: макс. LoginRateLimitMax попыток за окно.
func (c *Client) CheckLoginRateLimit(ctx context.Context, key string) (allowed bool, err error) {
	k := "login_limit:" + key
	n, err := c.cli.Incr(ctx, k).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		c.cli.Expire(ctx, k, LoginRateLimitWindow*time.Second)
	}
	return n <= int64(LoginRateLimitMax), nil
}

// FlushDB очищает текущую БД Redis (сброс токенов и rate limit при тестах).
func (c *Client) FlushDB(ctx context.Context) error {
	return c.cli.FlushDB(ctx).Err()
}

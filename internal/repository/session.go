package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pixelcraft/internal/logger"
	"github.com/pixelcraft/internal/model"
)

type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func (r *SessionRepository) Create(ctx context.Context, s *model.AdminSession) error {
	defer logger.DeferLogDuration("adminSession.Create", time.Now())()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO admin_sessions (token, email, created_at, expires_at, revoked_at)
		 VALUES ($1, $2, $3, $4, NULL)`,
		s.Token, s.Email, s.CreatedAt, s.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("sessionRepo.Create: %w", err)
	}
	return nil
}

// GetByToken возвращает сессию только если она не отозвана и не истекла.
func (r *SessionRepository) GetByToken(ctx context.Context, token string) (*model.AdminSession, error) {
	defer logger.DeferLogDuration("adminSession.GetByToken", time.Now())()
	s := &model.AdminSession{}
	row := r.pool.QueryRow(ctx,
		`SELECT token, email, created_at, expires_at, revoked_at
		 FROM admin_sessions WHERE token = $1 AND revoked_at IS NULL AND expires_at > NOW()`, token)
	if err := row.Scan(&s.Token, &s.Email, &s.CreatedAt, &s.ExpiresAt, &s.RevokedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("sessionRepo.GetByToken: %w", err)
	}
	return s, nil
}

// RevokeByToken помечает сессию отозванной. Возвращает false, если активной сессии не было.
func (r *SessionRepository) RevokeByToken(ctx context.Context, token string) (bool, error) {
	defer logger.DeferLogDuration("adminSession.RevokeByToken", time.Now())()
	tag, err := r.pool.Exec(ctx,
		`UPDATE admin_sessions SET revoked_at = NOW() WHERE token = $1 AND revoked_at IS NULL`, token)
	if err != nil {
		return false, fmt.Errorf("sessionRepo.RevokeByToken: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteExpired чистит давно истёкшие строки (housekeeping при старте).
func (r *SessionRepository) DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	defer logger.DeferLogDuration("adminSession.DeleteExpired", time.Now())()
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM admin_sessions WHERE expires_at < NOW() - $1::interval`,
		fmt.Sprintf("%d seconds", int(olderThan.Seconds())))
	if err != nil {
		return 0, fmt.Errorf("sessionRepo.DeleteExpired: %w", err)
	}
	return tag.RowsAffected(), nil
}

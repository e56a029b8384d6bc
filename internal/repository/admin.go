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

type AdminRepository struct {
	pool *pgxpool.Pool
}

func NewAdminRepository(pool *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{pool: pool}
}

func (r *AdminRepository) Create(ctx context.Context, a *model.Admin) error {
	defer logger.DeferLogDuration("admin.Create", time.Now())()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO admins (email, password_hash, created_at) VALUES ($1, $2, $3)`,
		a.Email, a.PasswordHash, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("adminRepo.Create: %w", err)
	}
	return nil
}

func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (*model.Admin, error) {
	defer logger.DeferLogDuration("admin.GetByEmail", time.Now())()
	a := &model.Admin{}
	row := r.pool.QueryRow(ctx,
		`SELECT email, password_hash, created_at FROM admins WHERE email = $1`, email)
	if err := row.Scan(&a.Email, &a.PasswordHash, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("adminRepo.GetByEmail: %w", err)
	}
	return a, nil
}

// Count возвращает число админов (0 = бутстрап ещё не выполнен).
func (r *AdminRepository) Count(ctx context.Context) (int, error) {
	defer logger.DeferLogDuration("admin.Count", time.Now())()
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM admins`).Scan(&n); err != nil {
		return 0, fmt.Errorf("adminRepo.Count: %w", err)
	}
	return n, nil
}

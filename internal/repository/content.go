package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pixelcraft/internal/logger"
)

// ContentRepository хранит секции контента сайта как JSON в site_content.
// Формат секций описан в model/content.go; репозиторий работает с сырыми байтами,
// валидация структуры — на уровне handler.
type ContentRepository struct {
	pool *pgxpool.Pool
}

func NewContentRepository(pool *pgxpool.Pool) *ContentRepository {
	return &ContentRepository{pool: pool}
}

func (r *ContentRepository) Get(ctx context.Context, section string) ([]byte, error) {
	defer logger.DeferLogDuration("content.Get", time.Now())()
	var data []byte
	err := r.pool.QueryRow(ctx,
		`SELECT value FROM site_content WHERE section = $1`, section).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("contentRepo.Get: %w", err)
	}
	return data, nil
}

// Set сохраняет секцию (upsert) и запоминает, кто её правил.
func (r *ContentRepository) Set(ctx context.Context, section string, value []byte, updatedBy string) error {
	defer logger.DeferLogDuration("content.Set", time.Now())()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO site_content (section, value, updated_by, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (section) DO UPDATE SET
		   value = EXCLUDED.value,
		   updated_by = EXCLUDED.updated_by,
		   updated_at = NOW()`,
		section, value, updatedBy,
	)
	if err != nil {
		return fmt.Errorf("contentRepo.Set: %w", err)
	}
	return nil
}

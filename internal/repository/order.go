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

var ErrNotFound = errors.New("not found")

const orderCols = `id, service, full_name, email, whatsapp, description, budget, delivery_time, COALESCE(file_key,''), COALESCE(file_name,''), COALESCE(file_size,0), created_at`

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// scanOrder сканирует строку в model.Order (порядок соответствует orderCols).
func scanOrder(s interface{ Scan(dest ...any) error }, o *model.Order) error {
	return s.Scan(&o.ID, &o.Service, &o.FullName, &o.Email, &o.Whatsapp, &o.Description,
		&o.Budget, &o.DeliveryTime, &o.FileKey, &o.FileName, &o.FileSize, &o.CreatedAt)
}

// Create вставляет заказ и возвращает присвоенный id.
func (r *OrderRepository) Create(ctx context.Context, o *model.Order) (int64, error) {
	defer logger.DeferLogDuration("order.Create", time.Now())()
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO orders (service, full_name, email, whatsapp, description, budget, delivery_time, file_key, file_name, file_size, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8,''), NULLIF($9,''), $10, $11)
		 RETURNING id`,
		o.Service, o.FullName, o.Email, o.Whatsapp, o.Description, o.Budget, o.DeliveryTime,
		o.FileKey, o.FileName, o.FileSize, o.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("orderRepo.Create: %w", err)
	}
	return id, nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	defer logger.DeferLogDuration("order.GetByID", time.Now())()
	o := &model.Order{}
	row := r.pool.QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE id = $1`, id)
	if err := scanOrder(row, o); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("orderRepo.GetByID: %w", err)
	}
	return o, nil
}

// ListAll возвращает заказы, новые первыми.
func (r *OrderRepository) ListAll(ctx context.Context, limit int) ([]model.Order, error) {
	defer logger.DeferLogDuration("order.ListAll", time.Now())()
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderCols+` FROM orders ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("orderRepo.ListAll: %w", err)
	}
	defer rows.Close()
	orders := make([]model.Order, 0, limit)
	for rows.Next() {
		var o model.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, fmt.Errorf("orderRepo.ListAll scan: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("orderRepo.ListAll rows: %w", err)
	}
	return orders, nil
}

// Delete удаляет заказ. Возвращает false, если заказа не было.
func (r *OrderRepository) Delete(ctx context.Context, id int64) (bool, error) {
	defer logger.DeferLogDuration("order.Delete", time.Now())()
	tag, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("orderRepo.Delete: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/example/animal-store/internal/order"
)

// PostgresOrderStore implements order.Store. Line items and shipping info are
// stored as JSONB documents alongside the order row.
type PostgresOrderStore struct {
	db *sql.DB
}

func NewPostgresOrderStore(db *sql.DB) *PostgresOrderStore {
	return &PostgresOrderStore{db: db}
}

func (s *PostgresOrderStore) CreateOrder(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	shippingJSON, err := json.Marshal(o.ShippingInfo)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, items, shipping_info, total, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		o.ID, o.UserID, itemsJSON, shippingJSON, o.Total, o.Status, o.CreatedAt, o.UpdatedAt,
	)
	return err
}

func (s *PostgresOrderStore) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, items, shipping_info, total, status, created_at, updated_at
		FROM orders WHERE id = $1`, id)

	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, order.ErrOrderNotFound
	}
	return o, err
}

func (s *PostgresOrderStore) ListOrdersByUser(ctx context.Context, userID string) ([]*order.Order, error) {
	return s.queryOrders(ctx, `
		SELECT id, user_id, items, shipping_info, total, status, created_at, updated_at
		FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (s *PostgresOrderStore) ListAllOrders(ctx context.Context) ([]*order.Order, error) {
	return s.queryOrders(ctx, `
		SELECT id, user_id, items, shipping_info, total, status, created_at, updated_at
		FROM orders ORDER BY created_at DESC`)
}

func (s *PostgresOrderStore) UpdateOrderStatus(ctx context.Context, id string, status order.Status, updatedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, updatedAt,
	)
	if err != nil {
		return err
	}
	return requireRow(res, order.ErrOrderNotFound)
}

func (s *PostgresOrderStore) UpdateOrderShipping(ctx context.Context, id string, info order.ShippingInfo, updatedAt time.Time) error {
	shippingJSON, err := json.Marshal(info)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE orders SET shipping_info = $2, updated_at = $3 WHERE id = $1`,
		id, shippingJSON, updatedAt,
	)
	if err != nil {
		return err
	}
	return requireRow(res, order.ErrOrderNotFound)
}

func (s *PostgresOrderStore) queryOrders(ctx context.Context, query string, args ...any) ([]*order.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func scanOrder(row interface{ Scan(...any) error }) (*order.Order, error) {
	var (
		o            order.Order
		itemsJSON    []byte
		shippingJSON []byte
	)
	err := row.Scan(&o.ID, &o.UserID, &itemsJSON, &shippingJSON, &o.Total, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(shippingJSON, &o.ShippingInfo); err != nil {
		return nil, err
	}
	return &o, nil
}

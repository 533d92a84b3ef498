package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
)

const uniqueViolation = "23505"

// OrderRepository persists orders in postgres. Item and address snapshots
// are stored as jsonb since they are immutable and only ever read back
// whole; the order number carries a unique constraint so generation
// collisions surface as ErrConflict.
type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

type itemRecord struct {
	ProductID       string `json:"product_id"`
	ProductName     string `json:"product_name"`
	ProductImageURL string `json:"product_image_url"`
	Quantity        int    `json:"quantity"`
	UnitPrice       string `json:"unit_price"`
}

func (r *OrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	if order == nil || order.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}

	items, addr, err := encodeSnapshots(order)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO orders (id, order_number, user_id, items, total_amount, status, payment_id, shipping_address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		order.ID, order.Number, order.UserID, items, order.TotalAmount.String(),
		string(order.Status), nullable(order.PaymentID), addr, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	row := r.pool.QueryRow(ctx, selectOrder+` WHERE id = $1`, id)
	return scanOrder(row)
}

func (r *OrderRepository) FindByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	rows, err := r.pool.Query(ctx, selectOrder+` WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders by user: %w", err)
	}
	defer rows.Close()
	return collectOrders(rows)
}

func (r *OrderRepository) FindAll(ctx context.Context) ([]*domain.Order, error) {
	rows, err := r.pool.Query(ctx, selectOrder+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()
	return collectOrders(rows)
}

func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	if order == nil || order.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}

	items, addr, err := encodeSnapshots(order)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE orders
		SET items = $2, total_amount = $3, status = $4, payment_id = $5, shipping_address = $6, updated_at = $7
		WHERE id = $1`,
		order.ID, items, order.TotalAmount.String(), string(order.Status),
		nullable(order.PaymentID), addr, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

const selectOrder = `
	SELECT id, order_number, user_id, items, total_amount::text, status, COALESCE(payment_id, ''), shipping_address, created_at, updated_at
	FROM orders`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o         domain.Order
		items     []byte
		total     string
		status    string
		addr      []byte
		createdAt time.Time
		updatedAt time.Time
	)

	err := row.Scan(&o.ID, &o.Number, &o.UserID, &items, &total, &status, &o.PaymentID, &addr, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan order: %w", err)
	}

	o.TotalAmount, err = decimal.NewFromString(total)
	if err != nil {
		return nil, fmt.Errorf("parse total amount: %w", err)
	}
	o.Status = domain.Status(status)
	o.CreatedAt = createdAt
	o.UpdatedAt = updatedAt

	var records []itemRecord
	if err := json.Unmarshal(items, &records); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	o.Items = make([]domain.ItemSnapshot, 0, len(records))
	for _, rec := range records {
		price, err := decimal.NewFromString(rec.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("parse item price: %w", err)
		}
		o.Items = append(o.Items, domain.ItemSnapshot{
			ProductID:       rec.ProductID,
			ProductName:     rec.ProductName,
			ProductImageURL: rec.ProductImageURL,
			Quantity:        rec.Quantity,
			UnitPrice:       price,
		})
	}

	if err := json.Unmarshal(addr, &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("unmarshal shipping address: %w", err)
	}
	return &o, nil
}

func collectOrders(rows pgx.Rows) ([]*domain.Order, error) {
	var out []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return out, nil
}

func encodeSnapshots(order *domain.Order) ([]byte, []byte, error) {
	records := make([]itemRecord, 0, len(order.Items))
	for _, item := range order.Items {
		records = append(records, itemRecord{
			ProductID:       item.ProductID,
			ProductName:     item.ProductName,
			ProductImageURL: item.ProductImageURL,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice.String(),
		})
	}

	items, err := json.Marshal(records)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal order items: %w", err)
	}
	addr, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal shipping address: %w", err)
	}
	return items, addr, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

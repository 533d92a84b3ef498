package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/cart"
)

// CartRepository keeps each user's cart in one redis hash keyed
// cart:{userID}, with the line id as the hash field and the line encoded as
// JSON. Clear is a single DEL, matching the bulk-delete cart semantics.
type CartRepository struct {
	rdb *redis.Client
}

func NewCartRepository(rdb *redis.Client) *CartRepository {
	return &CartRepository{rdb: rdb}
}

func cartKey(userID string) string { return "cart:" + userID }

type lineRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	UnitPrice string    `json:"unit_price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *CartRepository) FindByUser(ctx context.Context, userID string) ([]*domain.Line, error) {
	values, err := r.rdb.HGetAll(ctx, cartKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall: %w", err)
	}

	out := make([]*domain.Line, 0, len(values))
	for _, raw := range values {
		line, err := decodeLine([]byte(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, line)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *CartRepository) FindOne(ctx context.Context, userID, lineID string) (*domain.Line, error) {
	raw, err := r.rdb.HGet(ctx, cartKey(userID), lineID).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis hget: %w", err)
	}
	return decodeLine(raw)
}

func (r *CartRepository) FindByProduct(ctx context.Context, userID, productID string) (*domain.Line, error) {
	lines, err := r.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, line := range lines {
		if line.ProductID == productID {
			return line, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *CartRepository) Save(ctx context.Context, line *domain.Line) error {
	if line == nil || line.ID == "" {
		return fmt.Errorf("cart repository: line id is required")
	}

	raw, err := json.Marshal(lineRecord{
		ID:        line.ID,
		UserID:    line.UserID,
		ProductID: line.ProductID,
		Quantity:  line.Quantity,
		UnitPrice: line.UnitPrice.String(),
		CreatedAt: line.CreatedAt,
		UpdatedAt: line.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal cart line: %w", err)
	}

	if err := r.rdb.HSet(ctx, cartKey(line.UserID), line.ID, raw).Err(); err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	return nil
}

func (r *CartRepository) Delete(ctx context.Context, userID, lineID string) error {
	removed, err := r.rdb.HDel(ctx, cartKey(userID), lineID).Result()
	if err != nil {
		return fmt.Errorf("redis hdel: %w", err)
	}
	if removed == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	if err := r.rdb.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func decodeLine(raw []byte) (*domain.Line, error) {
	var rec lineRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal cart line: %w", err)
	}
	price, err := decimal.NewFromString(rec.UnitPrice)
	if err != nil {
		return nil, fmt.Errorf("parse cart line price: %w", err)
	}
	return &domain.Line{
		ID:        rec.ID,
		UserID:    rec.UserID,
		ProductID: rec.ProductID,
		Quantity:  rec.Quantity,
		UnitPrice: price,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

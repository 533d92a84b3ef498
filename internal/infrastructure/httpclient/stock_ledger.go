package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/apperr"
	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
)

// StockLedger talks to the product service over HTTP/JSON. The product
// service owns the stock count; its stock endpoint performs the atomic
// floor-checked adjustment, so a 400 on decrease means insufficient stock.
type StockLedger struct {
	baseURL string
	secret  string
	client  *http.Client
	log     observability.Logger
	obs     instruments
}

func NewStockLedger(cfg Config, tel observability.Telemetry) *StockLedger {
	if tel == nil {
		tel = observability.NopTelemetry()
	}
	return &StockLedger{
		baseURL: cfg.BaseURL,
		secret:  cfg.Secret,
		client:  newHTTPClient(cfg.Timeout),
		log:     tel.Logger().With(observability.F("component", "stock_ledger_client")),
		obs:     newInstruments(tel),
	}
}

type productPayload struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	ImageURL string          `json:"imageUrl"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
}

func (c *StockLedger) Get(ctx context.Context, productID string) (_ *domain.Product, err error) {
	start := time.Now()
	defer func() { c.obs.observe("product_service", "fetch_product", start, err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/products/%s", c.baseURL, productID), nil)
	if err != nil {
		return nil, fmt.Errorf("build product request: %w", err)
	}
	c.decorate(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperr.Upstream(err, "product service unavailable")
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, apperr.NotFoundf("product %s not found", productID)
	default:
		return nil, c.unexpected(resp, "fetch product")
	}

	var payload productPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperr.Upstream(err, "product service returned a malformed response")
	}
	return payload.toDomain(productID), nil
}

func (c *StockLedger) Adjust(ctx context.Context, productID string, quantity int, direction domain.Direction) (_ *domain.Product, err error) {
	start := time.Now()
	defer func() { c.obs.observe("product_service", "adjust_stock", start, err) }()

	body, err := json.Marshal(map[string]any{
		"quantity": quantity,
		"type":     string(direction),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal stock adjustment: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		fmt.Sprintf("%s/products/%s/internal/stock", c.baseURL, productID), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build stock request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.decorate(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperr.Upstream(err, "product service unavailable")
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, apperr.NotFoundf("product %s not found", productID)
	case http.StatusBadRequest:
		if direction == domain.DirectionDecrease {
			return nil, apperr.Wrap(apperr.KindConflict, domain.ErrInsufficientStock,
				fmt.Sprintf("insufficient stock for product %s", productID))
		}
		return nil, apperr.Validationf("stock adjustment rejected for product %s", productID)
	default:
		return nil, c.unexpected(resp, "adjust stock")
	}

	var payload productPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperr.Upstream(err, "product service returned a malformed response")
	}
	return payload.toDomain(productID), nil
}

func (c *StockLedger) decorate(req *http.Request) {
	if c.secret != "" {
		req.Header.Set(headerInternalSecret, c.secret)
	}
}

func (c *StockLedger) unexpected(resp *http.Response, op string) error {
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	c.log.Error("stock_ledger_unexpected_status",
		observability.F("op", op),
		observability.F("status", resp.StatusCode),
		observability.F("body", string(detail)),
	)
	return apperr.Upstream(fmt.Errorf("%s: status %d", op, resp.StatusCode), "product service request failed")
}

func (p productPayload) toDomain(fallbackID string) *domain.Product {
	id := p.ID
	if id == "" {
		id = fallbackID
	}
	return &domain.Product{
		ID:       id,
		Name:     p.Name,
		ImageURL: p.ImageURL,
		Price:    p.Price,
		Stock:    p.Stock,
	}
}

package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/apperr"
	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/address"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
)

// AddressSource reads a user's saved addresses from the user service's
// internal endpoint. This is the only read the orchestrator needs; the
// snapshot embedded into an order is taken from this response and never
// refreshed.
type AddressSource struct {
	baseURL string
	secret  string
	client  *http.Client
	log     observability.Logger
	obs     instruments
}

func NewAddressSource(cfg Config, tel observability.Telemetry) *AddressSource {
	if tel == nil {
		tel = observability.NopTelemetry()
	}
	return &AddressSource{
		baseURL: cfg.BaseURL,
		secret:  cfg.Secret,
		client:  newHTTPClient(cfg.Timeout),
		log:     tel.Logger().With(observability.F("component", "address_source_client")),
		obs:     newInstruments(tel),
	}
}

type addressPayload struct {
	ID            string `json:"id"`
	Label         string `json:"label"`
	RecipientName string `json:"recipientName"`
	PhoneNumber   string `json:"phoneNumber"`
	Street        string `json:"street"`
	City          string `json:"city"`
	Province      string `json:"province"`
	PostalCode    string `json:"postalCode"`
	IsDefault     bool   `json:"isDefault"`
}

func (c *AddressSource) FetchByUser(ctx context.Context, userID string) (_ []domain.Address, err error) {
	start := time.Now()
	defer func() { c.obs.observe("user_service", "fetch_addresses", start, err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/users/%s/internal/addresses", c.baseURL, userID), nil)
	if err != nil {
		return nil, fmt.Errorf("build address request: %w", err)
	}
	if c.secret != "" {
		req.Header.Set(headerInternalSecret, c.secret)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperr.Upstream(err, "user service unavailable")
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest, http.StatusNotFound:
		// The user service answers 400 when the user has no address book.
		return nil, nil
	default:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Error("address_source_unexpected_status",
			observability.F("status", resp.StatusCode),
			observability.F("body", string(detail)),
		)
		return nil, apperr.Upstream(fmt.Errorf("fetch addresses: status %d", resp.StatusCode), "user service request failed")
	}

	var payload []addressPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperr.Upstream(err, "user service returned a malformed response")
	}

	out := make([]domain.Address, 0, len(payload))
	for _, a := range payload {
		out = append(out, domain.Address{
			ID:            a.ID,
			Label:         a.Label,
			RecipientName: a.RecipientName,
			PhoneNumber:   a.PhoneNumber,
			Street:        a.Street,
			City:          a.City,
			Province:      a.Province,
			PostalCode:    a.PostalCode,
			IsDefault:     a.IsDefault,
		})
	}
	return out, nil
}

package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/rewardengine/internal/domain/model"
	"github.com/polkiloo/rewardengine/internal/metrics"
)

// ErrOrderNotFound indicates the storefront doesn't know the order.
var ErrOrderNotFound = errors.New("order not found")

// ErrOrderNotFinalized indicates the order exists but can't earn points yet.
var ErrOrderNotFinalized = errors.New("order not finalized")

// TooManyRequestsError represents rate limiting signal from the storefront.
type TooManyRequestsError struct {
	RetryAfter time.Duration
}

func (e TooManyRequestsError) Error() string {
	return fmt.Sprintf("too many requests, retry after %s", e.RetryAfter)
}

// Client fetches authoritative order snapshots.
type Client interface {
	FetchOrder(ctx context.Context, orderID int64) (*model.OrderSnapshot, error)
}

// HTTPClient implements Client via the storefront HTTP API.
type HTTPClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

const statusFinalized = "FINALIZED"

type lineResponse struct {
	ProductID  int64           `json:"product_id"`
	CategoryID *int64          `json:"category_id,omitempty"`
	Quantity   int64           `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
}

// orderResponse mirrors JSON payload of GET /api/orders/{id}.
type orderResponse struct {
	UserID   int64           `json:"user_id"`
	OrderID  int64           `json:"order_id"`
	Status   string          `json:"status,omitempty"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Lines    []lineResponse  `json:"lines"`
}

// NewHTTPClient creates storefront client with default timeout.
func NewHTTPClient(baseURL string, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse storefront url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("storefront url must be absolute")
	}
	return &HTTPClient{
		baseURL: parsed,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// FetchOrder loads the order snapshot used for retried accruals.
func (c *HTTPClient) FetchOrder(ctx context.Context, orderID int64) (*model.OrderSnapshot, error) {
	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, "/api/orders/", strconv.FormatInt(orderID, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	metrics.ObserveStorefrontResponse(resp.StatusCode)

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		var data orderResponse
		if err := json.Unmarshal(body, &data); err != nil {
			return nil, fmt.Errorf("decode order %d: %w", orderID, err)
		}
		if data.Status != "" && data.Status != statusFinalized {
			return nil, fmt.Errorf("%w: order %d is %s", ErrOrderNotFinalized, orderID, data.Status)
		}
		return data.snapshot(orderID), nil
	case http.StatusNoContent, http.StatusNotFound:
		return nil, ErrOrderNotFound
	case http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, TooManyRequestsError{RetryAfter: retryAfter}
	default:
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("storefront request failed", slog.Int("status", resp.StatusCode), slog.String("body", string(body)))
		return nil, fmt.Errorf("storefront error: %s", resp.Status)
	}
}

func (r orderResponse) snapshot(orderID int64) *model.OrderSnapshot {
	if r.OrderID == 0 {
		r.OrderID = orderID
	}
	lines := make([]model.OrderLine, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = model.OrderLine{
			ProductID:  l.ProductID,
			CategoryID: l.CategoryID,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice,
		}
	}
	return &model.OrderSnapshot{
		UserID:   r.UserID,
		OrderID:  r.OrderID,
		Subtotal: r.Subtotal,
		Lines:    lines,
	}
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 5 * time.Second
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return 5 * time.Second
}

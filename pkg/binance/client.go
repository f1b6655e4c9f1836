// Package binance places orders on Binance USDⓈ-M futures over the signed REST API.
package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/joripage/futures-order-bot/pkg/logging"
	"github.com/joripage/futures-order-bot/pkg/oms"
	"github.com/joripage/futures-order-bot/pkg/oms/model"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	MainnetURL = "https://fapi.binance.com"
	TestnetURL = "https://testnet.binancefuture.com"

	orderPath = "/fapi/v1/order"

	// codeUnknownStatus is returned when the matching engine did not answer in time.
	codeUnknownStatus = -1007
)

type Config struct {
	APIKey    string `yaml:"api_key"`
	SecretKey string `yaml:"secret_key"`
	Testnet   bool   `yaml:"testnet"`
	// BaseURL overrides the mainnet/testnet endpoint.
	BaseURL            string  `yaml:"base_url"`
	RecvWindowMs       int64   `yaml:"recv_window_ms"`
	TimeoutMs          int64   `yaml:"timeout_ms"`
	RateLimitPerSecond float64 `yaml:"rate_limit_per_second"`
	RateLimitBurst     int     `yaml:"rate_limit_burst"`
	BreakerFailures    uint32  `yaml:"breaker_failures"`
	BreakerOpenSeconds int     `yaml:"breaker_open_seconds"`
}

func (c *Config) baseURL() string {
	switch {
	case c.BaseURL != "":
		return c.BaseURL
	case c.Testnet:
		return TestnetURL
	}
	return MainnetURL
}

type orderResponse struct {
	OrderID       int64  `json:"orderId"`
	ClientOrderID string `json:"clientOrderId"`
	Symbol        string `json:"symbol"`
	Status        string `json:"status"`
}

type errorResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// Client is an oms.ExchangeGateway for Binance futures.
type Client struct {
	http    *resty.Client
	signer  *Signer
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	logger  *logging.Logger

	recvWindow int64
	now        func() time.Time
}

func NewClient(cfg *Config, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	if cfg.RecvWindowMs <= 0 {
		cfg.RecvWindowMs = 5000
	}
	if cfg.TimeoutMs <= 0 {
		cfg.TimeoutMs = 10000
	}
	if cfg.RateLimitPerSecond <= 0 {
		cfg.RateLimitPerSecond = 10
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 1
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerOpenSeconds <= 0 {
		cfg.BreakerOpenSeconds = 30
	}

	httpClient := resty.New().
		SetBaseURL(cfg.baseURL()).
		SetTimeout(time.Duration(cfg.TimeoutMs) * time.Millisecond).
		SetHeader("Accept", "application/json")

	failures := cfg.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "binance-order",
		MaxRequests: 1,
		Timeout:     time.Duration(cfg.BreakerOpenSeconds) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Exchange rejections mean the venue is healthy.
		IsSuccessful: func(err error) bool {
			var apiErr *oms.APIError
			return err == nil || errors.As(err, &apiErr)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn(context.Background(), "circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	c := &Client{
		http:       httpClient,
		signer:     NewSigner(cfg.APIKey, cfg.SecretKey),
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), cfg.RateLimitBurst),
		breaker:    breaker,
		logger:     logger,
		recvWindow: cfg.RecvWindowMs,
		now:        time.Now,
	}

	logger.Info(context.Background(), "binance gateway initialized",
		zap.String("base_url", cfg.baseURL()),
		zap.Bool("testnet", cfg.Testnet),
	)
	return c
}

// CreateOrder sends one signed order. It never retries: a resend could
// create a second order.
func (c *Client) CreateOrder(ctx context.Context, spec model.OrderSpec) (*model.ExchangeResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		// Wait refuses early when the next token lands past the deadline.
		if ctx.Err() == nil {
			if _, ok := ctx.Deadline(); ok {
				return nil, fmt.Errorf("%w: rate limiter: %w: %w", oms.ErrNotDispatched, oms.ErrTimeout, err)
			}
		}
		return nil, fmt.Errorf("%w: rate limiter: %w", oms.ErrNotDispatched, err)
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.postOrder(ctx, spec)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", oms.ErrNotDispatched, err)
	}
	if err != nil {
		return nil, err
	}
	return out.(*model.ExchangeResponse), nil
}

func (c *Client) postOrder(ctx context.Context, spec model.OrderSpec) (*model.ExchangeResponse, error) {
	payload := c.signedPayload(orderParams(spec))

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-MBX-APIKEY", c.signer.APIKey()).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetBody(payload).
		Post(orderPath)
	if err != nil {
		if isDialError(err) {
			return nil, fmt.Errorf("%w: %w", oms.ErrNotDispatched, err)
		}
		return nil, fmt.Errorf("post order: %w", err)
	}

	return parseOrderResponse(resp.StatusCode(), resp.Body())
}

func orderParams(spec model.OrderSpec) url.Values {
	params := url.Values{}
	params.Set("symbol", spec.Symbol)
	params.Set("side", string(spec.Side))
	params.Set("type", string(spec.Type))
	params.Set("quantity", spec.Quantity.String())
	if spec.Price.Valid {
		params.Set("price", spec.Price.Decimal.String())
	}
	if spec.StopPrice.Valid {
		params.Set("stopPrice", spec.StopPrice.Decimal.String())
	}
	if spec.TimeInForce != model.OrderTimeInForceNone {
		params.Set("timeInForce", string(spec.TimeInForce))
	}
	if spec.ClientOrderID != "" {
		params.Set("newClientOrderId", spec.ClientOrderID)
	}
	return params
}

func (c *Client) signedPayload(params url.Values) string {
	params.Set("recvWindow", strconv.FormatInt(c.recvWindow, 10))
	params.Set("timestamp", strconv.FormatInt(c.now().UnixMilli(), 10))
	query := params.Encode()
	return query + "&signature=" + c.signer.Sign(query)
}

func parseOrderResponse(status int, body []byte) (*model.ExchangeResponse, error) {
	raw := rawBody(body)

	if status >= http.StatusInternalServerError {
		return nil, &oms.ResponseError{Raw: raw, Err: fmt.Errorf("%w: http %d: %s", oms.ErrUnknownStatus, status, body)}
	}

	if status >= http.StatusBadRequest {
		var apiErr errorResponse
		if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Code == 0 {
			return nil, &oms.ResponseError{Raw: raw, Err: fmt.Errorf("%w: http %d: %s", oms.ErrMalformedResponse, status, body)}
		}
		if apiErr.Code == codeUnknownStatus {
			return nil, &oms.ResponseError{Raw: raw, Err: fmt.Errorf("%w: code %d: %s", oms.ErrUnknownStatus, apiErr.Code, apiErr.Msg)}
		}
		return nil, &oms.APIError{Code: apiErr.Code, Message: apiErr.Msg, Raw: raw}
	}

	var order orderResponse
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, &oms.ResponseError{Raw: raw, Err: fmt.Errorf("%w: %w", oms.ErrMalformedResponse, err)}
	}
	if order.OrderID == 0 {
		return nil, &oms.ResponseError{Raw: raw, Err: fmt.Errorf("%w: missing orderId", oms.ErrMalformedResponse)}
	}

	return &model.ExchangeResponse{
		OrderID:       strconv.FormatInt(order.OrderID, 10),
		ClientOrderID: order.ClientOrderID,
		Status:        order.Status,
		Raw:           raw,
	}, nil
}

// rawBody keeps a reply as JSON. Bodies that are not JSON, such as proxy
// error pages, are kept as a JSON string.
func rawBody(body []byte) json.RawMessage {
	if json.Valid(body) {
		return append(json.RawMessage(nil), body...)
	}
	quoted, _ := json.Marshal(string(body))
	return quoted
}

// isDialError reports failures that happened before any byte reached the exchange.
func isDialError(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

func (c *Client) Close() {
	c.signer.Wipe()
}

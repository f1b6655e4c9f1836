package binance

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/joripage/futures-order-bot/pkg/oms"
	"github.com/joripage/futures-order-bot/pkg/oms/model"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

const (
	testAPIKey    = "test-key"
	testSecretKey = "test-secret"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(&Config{
		APIKey:             testAPIKey,
		SecretKey:          testSecretKey,
		BaseURL:            srv.URL,
		TimeoutMs:          500,
		RateLimitPerSecond: 1000,
		RateLimitBurst:     100,
		BreakerFailures:    2,
		BreakerOpenSeconds: 60,
	}, nil)
	c.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return c
}

func limitSpec() model.OrderSpec {
	return model.NewOrderSpec("cid-1", model.OrderRequest{
		Symbol:   "BTCUSDT",
		Side:     model.OrderSideSell,
		Type:     model.OrderTypeLimit,
		Quantity: decimal.RequireFromString("0.010"),
		Price:    decimal.NewNullDecimal(decimal.RequireFromString("65000.5")),
	})
}

// readSignedForm checks the signature and returns the decoded parameters.
func readSignedForm(t *testing.T, r *http.Request) url.Values {
	t.Helper()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	payload, sig, ok := strings.Cut(string(body), "&signature=")
	if !ok {
		t.Fatalf("missing signature in %q", body)
	}
	if want := NewSigner(testAPIKey, testSecretKey).Sign(payload); sig != want {
		t.Errorf("bad signature %s, want %s", sig, want)
	}
	if r.Header.Get("X-MBX-APIKEY") != testAPIKey {
		t.Errorf("missing api key header")
	}
	values, err := url.ParseQuery(payload)
	if err != nil {
		t.Fatalf("parse payload: %v", err)
	}
	return values
}

func TestCreateOrderPlaced(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != orderPath {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		form := readSignedForm(t, r)
		want := map[string]string{
			"symbol":           "BTCUSDT",
			"side":             "SELL",
			"type":             "LIMIT",
			"quantity":         "0.01",
			"price":            "65000.5",
			"timeInForce":      "GTC",
			"newClientOrderId": "cid-1",
			"recvWindow":       "5000",
			"timestamp":        "1700000000000",
		}
		for k, v := range want {
			if form.Get(k) != v {
				t.Errorf("param %s = %q, want %q", k, form.Get(k), v)
			}
		}
		if form.Has("stopPrice") {
			t.Errorf("limit order must not send stopPrice")
		}
		_, _ = io.WriteString(w, `{"orderId":12345,"clientOrderId":"cid-1","symbol":"BTCUSDT","status":"NEW"}`)
	})

	resp, err := c.CreateOrder(context.Background(), limitSpec())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.OrderID != "12345" || resp.ClientOrderID != "cid-1" || resp.Status != "NEW" {
		t.Errorf("unexpected response %+v", resp)
	}
	if !strings.Contains(string(resp.Raw), `"orderId":12345`) {
		t.Errorf("raw body not kept: %s", resp.Raw)
	}
}

func TestCreateOrderMarketOmitsTimeInForce(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		form := readSignedForm(t, r)
		if form.Has("timeInForce") || form.Has("price") {
			t.Errorf("market order must not send timeInForce or price: %v", form)
		}
		_, _ = io.WriteString(w, `{"orderId":1,"status":"NEW"}`)
	})

	spec := model.NewOrderSpec("cid-2", model.OrderRequest{
		Symbol: "BTCUSDT", Side: model.OrderSideBuy, Type: model.OrderTypeMarket,
		Quantity: decimal.RequireFromString("0.01"),
	})
	if _, err := c.CreateOrder(context.Background(), spec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateOrderErrors(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		check   func(err error) bool
		keepRaw bool
	}{
		{
			name:   "business rejection",
			status: http.StatusBadRequest,
			body:   `{"code":-2019,"msg":"Margin is insufficient."}`,
			check: func(err error) bool {
				var apiErr *oms.APIError
				return errors.As(err, &apiErr) && apiErr.Code == -2019 && apiErr.Message == "Margin is insufficient."
			},
		},
		{
			name:    "unknown status code",
			keepRaw: true,
			status:  http.StatusBadRequest,
			body:    `{"code":-1007,"msg":"Timeout waiting for response from backend server."}`,
			check:   func(err error) bool { return errors.Is(err, oms.ErrUnknownStatus) },
		},
		{
			name:    "server error",
			keepRaw: true,
			status:  http.StatusServiceUnavailable,
			body:    `Service Unavailable`,
			check:   func(err error) bool { return errors.Is(err, oms.ErrUnknownStatus) },
		},
		{
			name:    "malformed success",
			keepRaw: true,
			status:  http.StatusOK,
			body:    `{"orderId":`,
			check:   func(err error) bool { return errors.Is(err, oms.ErrMalformedResponse) },
		},
		{
			name:    "malformed error",
			keepRaw: true,
			status:  http.StatusBadRequest,
			body:    `<html>bad gateway</html>`,
			check:   func(err error) bool { return errors.Is(err, oms.ErrMalformedResponse) },
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})
			_, err := c.CreateOrder(context.Background(), limitSpec())
			if !tc.check(err) {
				t.Errorf("unexpected error %v", err)
			}
			if tc.keepRaw {
				var respErr *oms.ResponseError
				if !errors.As(err, &respErr) || string(respErr.Raw) != wantRaw(tc.body) {
					t.Errorf("expected body %q kept as raw response, got %v", tc.body, err)
				}
			}
		})
	}
}

func wantRaw(body string) string {
	if json.Valid([]byte(body)) {
		return body
	}
	quoted, _ := json.Marshal(body)
	return string(quoted)
}

func TestCreateOrderTimeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	})

	_, err := c.CreateOrder(context.Background(), limitSpec())
	var netErr net.Error
	if !errors.As(err, &netErr) || !netErr.Timeout() {
		t.Errorf("expected timeout error, got %v", err)
	}
}

func TestCreateOrderRateLimitCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("request must not be sent")
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.CreateOrder(ctx, limitSpec())
	if !errors.Is(err, oms.ErrNotDispatched) {
		t.Errorf("expected ErrNotDispatched, got %v", err)
	}
}

func TestCreateOrderRateLimitWouldExceedDeadline(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("request must not be sent")
	})
	c.limiter = rate.NewLimiter(rate.Every(time.Hour), 1)
	c.limiter.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := c.CreateOrder(ctx, limitSpec())
	if !errors.Is(err, oms.ErrNotDispatched) || !errors.Is(err, oms.ErrTimeout) {
		t.Errorf("expected not dispatched timeout, got %v", err)
	}
}

func TestCreateOrderBreakerOpens(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	for i := 0; i < 2; i++ {
		if _, err := c.CreateOrder(context.Background(), limitSpec()); !errors.Is(err, oms.ErrUnknownStatus) {
			t.Fatalf("call %d: expected unknown status, got %v", i, err)
		}
	}

	_, err := c.CreateOrder(context.Background(), limitSpec())
	if !errors.Is(err, oms.ErrNotDispatched) {
		t.Errorf("expected open breaker to refuse dispatch, got %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("expected 2 requests to reach the server, got %d", hits.Load())
	}
}

func TestBusinessRejectionsDoNotTripBreaker(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"code":-1121,"msg":"Invalid symbol."}`)
	})

	for i := 0; i < 5; i++ {
		var apiErr *oms.APIError
		if _, err := c.CreateOrder(context.Background(), limitSpec()); !errors.As(err, &apiErr) {
			t.Fatalf("call %d: expected api error, got %v", i, err)
		}
	}
}

func TestCreateOrderDialFailureNotDispatched(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	c := NewClient(&Config{BaseURL: "http://" + addr, TimeoutMs: 500}, nil)
	_, err = c.CreateOrder(context.Background(), limitSpec())
	if !errors.Is(err, oms.ErrNotDispatched) {
		t.Errorf("expected ErrNotDispatched for refused connection, got %v", err)
	}
}

func TestConfigBaseURL(t *testing.T) {
	if (&Config{}).baseURL() != MainnetURL {
		t.Errorf("expected mainnet by default")
	}
	if (&Config{Testnet: true}).baseURL() != TestnetURL {
		t.Errorf("expected testnet url")
	}
	if (&Config{Testnet: true, BaseURL: "http://x"}).baseURL() != "http://x" {
		t.Errorf("explicit base url must win")
	}
}

package payments_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"alxtravel.com/app/internal/config"
	"alxtravel.com/app/internal/modules/payments"
)

func newChapa(t *testing.T, h http.HandlerFunc, retries int) *payments.ChapaGateway {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return payments.NewChapaGateway(config.ChapaConfig{
		SecretKey:  "CHASECK_TEST",
		BaseURL:    srv.URL + "/",
		Timeout:    2 * time.Second,
		MaxRetries: retries,
	}, payments.WithRetryInterval(time.Millisecond))
}

func TestChapaInitialize(t *testing.T) {
	var body map[string]string
	gw := newChapa(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/transaction/initialize" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer CHASECK_TEST" {
			t.Errorf("authorization = %q", got)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = w.Write([]byte(`{"status":"success","data":{"transaction_id":"tx123","checkout_url":"https://pay/x"}}`))
	}, 0)

	resp, err := gw.Initialize(context.Background(), payments.InitializeRequest{
		Amount:   decimal.RequireFromString("150"),
		Currency: "ETB",
		Email:    "guest@example.com",
		TxRef:    "ref-1",
	})
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if resp.TransactionID != "tx123" || resp.CheckoutURL != "https://pay/x" {
		t.Fatalf("resp = %+v", resp)
	}
	if body["amount"] != "150.00" || body["tx_ref"] != "ref-1" || body["currency"] != "ETB" {
		t.Fatalf("request body = %v", body)
	}
}

func TestChapaInitializeMissingFields(t *testing.T) {
	gw := newChapa(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success","data":{"checkout_url":"https://pay/x"}}`))
	}, 0)
	_, err := gw.Initialize(context.Background(), payments.InitializeRequest{Amount: decimal.NewFromInt(1)})
	if !errors.Is(err, payments.ErrGatewayInvalidResponse) {
		t.Fatalf("err = %v", err)
	}
}

func TestChapaRejectedIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	gw := newChapa(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}, 3)
	_, err := gw.Initialize(context.Background(), payments.InitializeRequest{Amount: decimal.NewFromInt(1)})
	if !errors.Is(err, payments.ErrGatewayFailed) {
		t.Fatalf("err = %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}

func TestChapaRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	gw := newChapa(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		if r.URL.Path != "/transaction/verify/tx123" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"status":"success","data":{"status":"successful"}}`))
	}, 3)

	resp, err := gw.Verify(context.Background(), "tx123")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if resp.Status != payments.GatewaySuccessful || calls.Load() != 3 {
		t.Fatalf("status=%s calls=%d", resp.Status, calls.Load())
	}
}

func TestChapaRetryBudgetExhausted(t *testing.T) {
	var calls atomic.Int32
	gw := newChapa(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, 2)
	if _, err := gw.Verify(context.Background(), "tx123"); !errors.Is(err, payments.ErrGatewayFailed) {
		t.Fatalf("err = %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3", calls.Load())
	}
}

func TestChapaNotConfigured(t *testing.T) {
	gw := payments.NewChapaGateway(config.ChapaConfig{BaseURL: "http://127.0.0.1:1"})
	if _, err := gw.Initialize(context.Background(), payments.InitializeRequest{}); !errors.Is(err, payments.ErrGatewayNotConfigured) {
		t.Fatalf("Initialize err = %v", err)
	}
	if _, err := gw.Verify(context.Background(), "tx"); !errors.Is(err, payments.ErrGatewayNotConfigured) {
		t.Fatalf("Verify err = %v", err)
	}
}

package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"alxtravel.com/app/internal/config"
)

// ChapaGateway talks to the Chapa REST API.
type ChapaGateway struct {
	secretKey     string
	baseURL       string
	client        *http.Client
	maxRetries    int
	retryInterval time.Duration
}

type ChapaOption func(*ChapaGateway)

func WithHTTPClient(c *http.Client) ChapaOption {
	return func(g *ChapaGateway) { g.client = c }
}

func WithRetryInterval(d time.Duration) ChapaOption {
	return func(g *ChapaGateway) { g.retryInterval = d }
}

func NewChapaGateway(cfg config.ChapaConfig, opts ...ChapaOption) *ChapaGateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	g := &ChapaGateway{
		secretKey:     cfg.SecretKey,
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		client:        &http.Client{Timeout: timeout},
		maxRetries:    cfg.MaxRetries,
		retryInterval: 300 * time.Millisecond,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

type chapaInitializeBody struct {
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	TxRef       string `json:"tx_ref"`
	CallbackURL string `json:"callback_url"`
}

type chapaEnvelope struct {
	Message any    `json:"message"`
	Status  string `json:"status"`
	Data    struct {
		TransactionID string `json:"transaction_id"`
		CheckoutURL   string `json:"checkout_url"`
		Status        string `json:"status"`
	} `json:"data"`
}

func (g *ChapaGateway) Initialize(ctx context.Context, req InitializeRequest) (InitializeResponse, error) {
	if g.secretKey == "" {
		return InitializeResponse{}, ErrGatewayNotConfigured
	}
	body, err := json.Marshal(chapaInitializeBody{
		Amount:      req.Amount.StringFixed(2),
		Currency:    req.Currency,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		TxRef:       req.TxRef,
		CallbackURL: req.CallbackURL,
	})
	if err != nil {
		return InitializeResponse{}, err
	}

	env, err := g.do(ctx, http.MethodPost, g.baseURL+"/transaction/initialize", body)
	if err != nil {
		return InitializeResponse{}, err
	}
	if env.Data.TransactionID == "" || env.Data.CheckoutURL == "" {
		return InitializeResponse{}, ErrGatewayInvalidResponse
	}
	return InitializeResponse{TransactionID: env.Data.TransactionID, CheckoutURL: env.Data.CheckoutURL}, nil
}

func (g *ChapaGateway) Verify(ctx context.Context, transactionID string) (VerifyResponse, error) {
	if g.secretKey == "" {
		return VerifyResponse{}, ErrGatewayNotConfigured
	}
	env, err := g.do(ctx, http.MethodGet, g.baseURL+"/transaction/verify/"+url.PathEscape(transactionID), nil)
	if err != nil {
		return VerifyResponse{}, err
	}
	return VerifyResponse{Status: env.Data.Status}, nil
}

// do sends one logical request, retrying transport errors, 429 and 5xx.
// Other non-2xx responses are returned immediately.
func (g *ChapaGateway) do(ctx context.Context, method, endpoint string, body []byte) (chapaEnvelope, error) {
	op := func() (chapaEnvelope, error) {
		var rdr io.Reader
		if body != nil {
			rdr = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, rdr)
		if err != nil {
			return chapaEnvelope{}, backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+g.secretKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		res, err := g.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return chapaEnvelope{}, backoff.Permanent(ctx.Err())
			}
			return chapaEnvelope{}, err
		}
		defer res.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
		if err != nil {
			return chapaEnvelope{}, err
		}

		switch {
		case res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500:
			return chapaEnvelope{}, fmt.Errorf("chapa %s: status %d", req.URL.Path, res.StatusCode)
		case res.StatusCode < 200 || res.StatusCode > 299:
			return chapaEnvelope{}, backoff.Permanent(fmt.Errorf("chapa %s: status %d", req.URL.Path, res.StatusCode))
		}

		var env chapaEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return chapaEnvelope{}, backoff.Permanent(ErrGatewayInvalidResponse)
		}
		return env, nil
	}

	env, err := backoff.RetryWithData(op, g.backOff(ctx))
	if err != nil {
		if errors.Is(err, ErrGatewayInvalidResponse) {
			return chapaEnvelope{}, err
		}
		return chapaEnvelope{}, fmt.Errorf("%w: %v", ErrGatewayFailed, err)
	}
	return env, nil
}

func (g *ChapaGateway) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = g.retryInterval
	exp.MaxInterval = 5 * time.Second
	exp.MaxElapsedTime = 0

	retries := g.maxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(retries)), ctx)
}

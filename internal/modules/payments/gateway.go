package payments

import (
	"context"

	"github.com/shopspring/decimal"
)

type InitializeRequest struct {
	Amount      decimal.Decimal
	Currency    string
	Email       string
	FirstName   string
	LastName    string
	TxRef       string
	CallbackURL string
}

type InitializeResponse struct {
	TransactionID string
	CheckoutURL   string
}

type VerifyResponse struct {
	// Status is the gateway's own status string, e.g. "successful".
	Status string
}

const GatewaySuccessful = "successful"

// Gateway is a hosted-checkout payment provider.
//
// Implementations return ErrGatewayNotConfigured when credentials are missing,
// ErrGatewayInvalidResponse for a success response lacking required fields and
// ErrGatewayFailed for any other failure.
type Gateway interface {
	Initialize(ctx context.Context, req InitializeRequest) (InitializeResponse, error)
	Verify(ctx context.Context, transactionID string) (VerifyResponse, error)
}

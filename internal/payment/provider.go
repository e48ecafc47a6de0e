package payment

import (
	"context"
	"net/http"
)

// Payment status values stored on the payments table.
const (
	StatusPending  = "pending"
	StatusPaid     = "paid"
	StatusFailed   = "failed"
	StatusExpired  = "expired"
	StatusRefunded = "refunded"
)

// IntentRequest carries everything a provider needs to open a payment
// session for an order.
type IntentRequest struct {
	OrderID     string
	OrderNumber string
	AmountMinor int64
	Currency    string
	CustomerRef string
}

// IntentResponse is the provider-side handle for a created payment.
type IntentResponse struct {
	Provider    string
	ProviderRef string
	ClientToken string
	RedirectURL string
	ExpiresAt   int64
}

// WebhookResult is the normalized outcome of a verified provider callback.
type WebhookResult struct {
	EventID     string
	ProviderRef string
	OrderID     string
	Status      string
	AmountMinor int64
	Payload     []byte
}

// Provider abstracts an upstream payment gateway. Implementations must
// authenticate the webhook themselves; the handler trusts a non-error result.
type Provider interface {
	Name() string
	CreateIntent(ctx context.Context, req IntentRequest) (IntentResponse, error)
	VerifyWebhook(r *http.Request, body []byte) (WebhookResult, error)
}

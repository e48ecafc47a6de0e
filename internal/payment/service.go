package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pustaka/internal/order"
	"github.com/noah-isme/backend-pustaka/internal/store"
)

// ErrNotPayable is returned when an order is not in a state that accepts
// new payment intents.
var ErrNotPayable = errors.New("order does not accept payment")

// ErrAmountMismatch is returned when a caller-supplied amount disagrees with
// the order total.
var ErrAmountMismatch = errors.New("amount does not match order total")

// Querier captures the database methods the intent service needs.
type Querier interface {
	GetOrder(ctx context.Context, id pgtype.UUID) (store.Order, error)
	GetPendingPaymentByOrder(ctx context.Context, orderID pgtype.UUID) (store.Payment, error)
	InsertPayment(ctx context.Context, arg store.InsertPaymentParams) (store.Payment, error)
}

// Service creates payment intents against the configured provider.
type Service struct {
	Q        Querier
	Provider Provider
	Log      zerolog.Logger
}

// Intent is what the API returns to a client wanting to pay an order.
type Intent struct {
	PaymentID   string `json:"paymentId"`
	Provider    string `json:"provider"`
	ProviderRef string `json:"providerRef"`
	ClientToken string `json:"clientToken,omitempty"`
	RedirectURL string `json:"redirectUrl,omitempty"`
	AmountMinor int64  `json:"amountMinor"`
	Currency    string `json:"currency"`
	ExpiresAt   int64  `json:"expiresAt,omitempty"`
}

// CreateIntent opens (or reuses) a payment intent for a pending order owned
// by userID. A non-zero amountMinor must equal the order total; zero means
// "charge the order total".
func (s *Service) CreateIntent(ctx context.Context, orderID, userID pgtype.UUID, amountMinor int64) (Intent, error) {
	var zero Intent
	if s == nil || s.Q == nil || s.Provider == nil {
		return zero, errors.New("payment service not configured")
	}

	ord, err := s.Q.GetOrder(ctx, orderID)
	if err != nil {
		return zero, err
	}
	if ord.UserID != userID {
		return zero, pgx.ErrNoRows
	}
	if order.Status(ord.Status) != order.StatusPending {
		return zero, fmt.Errorf("%w: status %s", ErrNotPayable, ord.Status)
	}
	if amountMinor > 0 && amountMinor != ord.TotalMinor {
		return zero, fmt.Errorf("%w: got %d expected %d", ErrAmountMismatch, amountMinor, ord.TotalMinor)
	}

	// Reuse the newest pending intent instead of stacking duplicates.
	existing, err := s.Q.GetPendingPaymentByOrder(ctx, orderID)
	if err == nil {
		return Intent{
			PaymentID:   store.FromUUID(existing.ID).String(),
			Provider:    existing.Provider,
			ProviderRef: existing.ProviderRef,
			AmountMinor: existing.AmountMinor,
			Currency:    existing.Currency,
		}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return zero, err
	}

	resp, err := s.Provider.CreateIntent(ctx, IntentRequest{
		OrderID:     store.FromUUID(orderID).String(),
		OrderNumber: ord.OrderNumber,
		AmountMinor: ord.TotalMinor,
		Currency:    ord.Currency,
		CustomerRef: store.FromUUID(userID).String(),
	})
	if err != nil {
		return zero, fmt.Errorf("provider create intent: %w", err)
	}

	p, err := s.Q.InsertPayment(ctx, store.InsertPaymentParams{
		OrderID:     orderID,
		Provider:    s.Provider.Name(),
		ProviderRef: resp.ProviderRef,
		AmountMinor: ord.TotalMinor,
		Currency:    ord.Currency,
	})
	if err != nil {
		return zero, err
	}

	s.Log.Info().
		Str("order_id", store.FromUUID(orderID).String()).
		Str("provider", s.Provider.Name()).
		Str("provider_ref", resp.ProviderRef).
		Int64("amount_minor", ord.TotalMinor).
		Msg("payment intent created")

	return Intent{
		PaymentID:   store.FromUUID(p.ID).String(),
		Provider:    p.Provider,
		ProviderRef: p.ProviderRef,
		ClientToken: resp.ClientToken,
		RedirectURL: resp.RedirectURL,
		AmountMinor: p.AmountMinor,
		Currency:    p.Currency,
		ExpiresAt:   resp.ExpiresAt,
	}, nil
}

package payment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pustaka/internal/common"
	"github.com/noah-isme/backend-pustaka/internal/events"
	"github.com/noah-isme/backend-pustaka/internal/money"
	"github.com/noah-isme/backend-pustaka/internal/order"
	"github.com/noah-isme/backend-pustaka/internal/store"
)

// PromoSettler records promo usage once an order is paid.
type PromoSettler interface {
	Settle(ctx context.Context, code string, orderID, userID pgtype.UUID, subtotal money.Money) error
}

// RoyaltyEnqueuer hands a paid order to the background royalty settlement.
type RoyaltyEnqueuer interface {
	EnqueueSettle(ctx context.Context, orderID string) error
}

// Webhook handles provider callbacks: signature verification, replay
// protection, payment bookkeeping and the order status side effects.
type Webhook struct {
	Q         *store.Queries
	Pool      *pgxpool.Pool
	Providers map[string]Provider
	Replay    *redis.Client
	ReplayTTL time.Duration
	Promo     PromoSettler
	Royalty   RoyaltyEnqueuer
	Events    *events.Bus
	Log       zerolog.Logger
}

// Handle processes a single provider callback.
func (h Webhook) Handle(w http.ResponseWriter, r *http.Request) {
	if h.Q == nil || h.Providers == nil {
		common.JSONError(w, http.StatusInternalServerError, "PAYMENT_NOT_CONFIGURED", "webhook unavailable", nil)
		return
	}
	providerKey := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "provider")))
	provider, ok := h.Providers[providerKey]
	if !ok {
		common.JSONError(w, http.StatusNotFound, "PROVIDER_NOT_SUPPORTED", "unknown provider", nil)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "unable to read payload", nil)
		return
	}
	result, err := provider.VerifyWebhook(r, body)
	if err != nil {
		common.JSONError(w, http.StatusUnauthorized, "INVALID_SIGNATURE", err.Error(), nil)
		return
	}
	if result.Payload == nil {
		result.Payload = body
	}

	ctx := r.Context()
	if h.Replay != nil && h.ReplayTTL > 0 {
		key := fmt.Sprintf("wh:%s:%s", providerKey, common.Sha256Hex(string(body)))
		fresh, err := h.Replay.SetNX(ctx, key, "1", h.ReplayTTL).Result()
		if err != nil {
			common.JSONError(w, http.StatusInternalServerError, "REPLAY_STORE_ERROR", err.Error(), nil)
			return
		}
		if !fresh {
			common.JSONError(w, http.StatusConflict, "REPLAY", "duplicate webhook", nil)
			return
		}
	}

	orderID, err := store.ParseUUID(result.OrderID)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_ORDER_ID", "invalid order identifier", nil)
		return
	}

	tx, err := h.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "TX_ERROR", err.Error(), nil)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()
	q := h.Q.WithTx(tx)

	payment, err := h.lookupPayment(ctx, q, providerKey, result, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "PAYMENT_NOT_FOUND", "payment not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "PAYMENT_FETCH_ERROR", err.Error(), nil)
		return
	}
	if result.AmountMinor > 0 && result.AmountMinor != payment.AmountMinor {
		common.JSONError(w, http.StatusBadRequest, "AMOUNT_MISMATCH", "provider amount mismatch", nil)
		return
	}

	// The unique (provider, event_id) constraint backs the redis replay
	// guard, so a replayed event is rejected even after the key expires.
	if err := q.InsertPaymentEvent(ctx, store.InsertPaymentEventParams{
		Provider:      providerKey,
		EventID:       result.EventID,
		SignatureHash: common.Sha256Hex(string(body)),
		Kind:          result.Status,
		Payload:       result.Payload,
	}); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			common.JSONError(w, http.StatusConflict, "REPLAY", "duplicate webhook", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "EVENT_STORE_ERROR", err.Error(), nil)
		return
	}

	newStatus := result.Status
	firstPaid := newStatus == StatusPaid && payment.Status != StatusPaid
	if err := q.UpdatePaymentStatus(ctx, payment.ID, newStatus); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "PAYMENT_UPDATE_ERROR", err.Error(), nil)
		return
	}

	ord, err := q.GetOrder(ctx, payment.OrderID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "ORDER_FETCH_ERROR", err.Error(), nil)
		return
	}

	orderCancelled := false
	orderRefunded := false
	switch newStatus {
	case StatusPaid:
		if firstPaid {
			ok, err := q.UpdateOrderStatus(ctx, ord.ID,
				string(order.StatusPending), string(order.StatusProcessing))
			if err != nil {
				common.JSONError(w, http.StatusInternalServerError, "ORDER_UPDATE_ERROR", err.Error(), nil)
				return
			}
			if !ok && order.Status(ord.Status) != order.StatusProcessing {
				common.JSONError(w, http.StatusConflict, "INVALID_STATE", "order not payable", nil)
				return
			}
		}
	case StatusFailed, StatusExpired:
		ok, err := q.UpdateOrderStatus(ctx, ord.ID,
			string(order.StatusPending), string(order.StatusCancelled))
		if err != nil {
			common.JSONError(w, http.StatusInternalServerError, "ORDER_UPDATE_ERROR", err.Error(), nil)
			return
		}
		orderCancelled = ok
	case StatusRefunded:
		ok, err := q.UpdateOrderStatus(ctx, ord.ID,
			string(order.StatusCompleted), string(order.StatusRefunded))
		if err != nil {
			common.JSONError(w, http.StatusInternalServerError, "ORDER_UPDATE_ERROR", err.Error(), nil)
			return
		}
		orderRefunded = ok
	}

	if err := tx.Commit(ctx); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "TX_COMMIT_ERROR", err.Error(), nil)
		return
	}

	if firstPaid {
		h.afterPaid(ctx, ord)
	}
	h.emit(ctx, newStatus, ord, payment, orderCancelled, orderRefunded)

	w.WriteHeader(http.StatusNoContent)
}

// lookupPayment resolves the payment row for a webhook, preferring the
// provider's own reference over the order's newest pending intent.
func (h Webhook) lookupPayment(ctx context.Context, q *store.Queries, providerKey string, result WebhookResult, orderID pgtype.UUID) (store.Payment, error) {
	if strings.TrimSpace(result.ProviderRef) != "" {
		p, err := q.GetPaymentByProviderRef(ctx, providerKey, result.ProviderRef)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return store.Payment{}, err
		}
	}
	return q.GetPendingPaymentByOrder(ctx, orderID)
}

// afterPaid runs the post-commit settlement side effects. Both are
// idempotent, so webhook retries cannot double-apply them.
func (h Webhook) afterPaid(ctx context.Context, ord store.Order) {
	orderID := store.FromUUID(ord.ID).String()
	if h.Promo != nil && ord.PromoCode.Valid {
		code := strings.TrimSpace(ord.PromoCode.String)
		if code != "" {
			subtotal := money.New(ord.SubtotalMinor, ord.Currency)
			if err := h.Promo.Settle(ctx, code, ord.ID, ord.UserID, subtotal); err != nil {
				h.Log.Error().Err(err).
					Str("order_id", orderID).
					Str("promo_code", code).
					Msg("promo settlement failed")
			}
		}
	}
	if h.Royalty != nil {
		if err := h.Royalty.EnqueueSettle(ctx, orderID); err != nil {
			h.Log.Error().Err(err).
				Str("order_id", orderID).
				Msg("royalty settlement enqueue failed")
		}
	}
}

func (h Webhook) emit(ctx context.Context, status string, ord store.Order, payment store.Payment, cancelled, refunded bool) {
	if h.Events == nil {
		return
	}
	payload := map[string]any{
		"orderId":   store.FromUUID(ord.ID).String(),
		"paymentId": store.FromUUID(payment.ID).String(),
		"userId":    store.FromUUID(ord.UserID).String(),
		"status":    status,
	}
	switch status {
	case StatusFailed, StatusExpired:
		_, _ = h.Events.Emit(ctx, events.TopicPaymentFailed, payload)
		if cancelled {
			_, _ = h.Events.Emit(ctx, events.TopicOrderCancelled, payload)
		}
	case StatusRefunded:
		if refunded {
			_, _ = h.Events.Emit(ctx, events.TopicOrderRefunded, payload)
		}
	}
}

package order

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pustaka/internal/store"
)

// Querier captures the database methods required by the order service.
type Querier interface {
	GetOrder(ctx context.Context, id pgtype.UUID) (store.Order, error)
	UpdateOrderStatus(ctx context.Context, id pgtype.UUID, from, to string) (bool, error)
}

// Service guards order status changes behind the transition table.
type Service struct {
	Q   Querier
	Log zerolog.Logger
}

// Transition moves an order into the target status after validating the move
// against the current status. The underlying update re-checks the source
// status so a concurrent writer cannot double-apply the same transition.
func (s *Service) Transition(ctx context.Context, id pgtype.UUID, to Status) (store.Order, error) {
	ord, err := s.Q.GetOrder(ctx, id)
	if err != nil {
		return store.Order{}, err
	}
	from := Status(ord.Status)
	if !CanTransition(from, to) {
		s.Log.Error().
			Str("order_id", store.FromUUID(id).String()).
			Str("from", string(from)).
			Str("to", string(to)).
			Msg("rejected order status transition")
		return store.Order{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	ok, err := s.Q.UpdateOrderStatus(ctx, id, string(from), string(to))
	if err != nil {
		return store.Order{}, err
	}
	if !ok {
		// someone else moved the order first
		return store.Order{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	ord.Status = string(to)
	return ord, nil
}

// NewOrderNumber builds a unique human-readable order number. Uniqueness is
// ultimately enforced by the orders.order_number constraint.
func NewOrderNumber(now time.Time) string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("PU-%s-%s", now.UTC().Format("20060102"), hex.EncodeToString(buf))
}

package royalty

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pustaka/internal/events"
	"github.com/noah-isme/backend-pustaka/internal/lock"
	"github.com/noah-isme/backend-pustaka/internal/money"
	"github.com/noah-isme/backend-pustaka/internal/order"
	"github.com/noah-isme/backend-pustaka/internal/store"
)

// ErrNotSettleable is returned when the order is not in a state royalties can
// settle from.
var ErrNotSettleable = errors.New("order not ready for royalty settlement")

// Service settles royalties for paid orders. Settlement is serialized per
// order through a redis lock, and the royalty rows, wallet credits, and the
// order transition into completed all commit in one transaction.
type Service struct {
	Q       *store.Queries
	Pool    *pgxpool.Pool
	Rates   RateProvider
	Locker  lock.Locker
	LockTTL time.Duration
	Events  *events.Bus
	Log     zerolog.Logger
}

// Settle computes and persists the royalties for the order, credits each
// author's pending wallet balance, and completes the order. Replays and
// concurrent invocations are no-ops.
func (s *Service) Settle(ctx context.Context, orderID string) error {
	if s == nil || s.Q == nil || s.Pool == nil {
		return errors.New("royalty service not configured")
	}
	key := "royalty:settle:" + orderID
	return s.Locker.WithLock(ctx, key, s.LockTTL, func(ctx context.Context) error {
		return s.settleLocked(ctx, orderID)
	})
}

func (s *Service) settleLocked(ctx context.Context, orderID string) error {
	oID, err := store.ParseUUID(orderID)
	if err != nil {
		return fmt.Errorf("invalid order id: %w", err)
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	qtx := s.Q.WithTx(tx)

	ord, err := qtx.GetOrderForUpdate(ctx, oID)
	if err != nil {
		return err
	}
	switch order.Status(ord.Status) {
	case order.StatusProcessing:
		// settle below
	case order.StatusCompleted:
		// already settled by an earlier delivery
		return nil
	default:
		return fmt.Errorf("%w: status %s", ErrNotSettleable, ord.Status)
	}

	rows, err := qtx.ListOrderItems(ctx, oID)
	if err != nil {
		return err
	}
	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, Item{
			OrderItemID: store.FromUUID(row.ID),
			OrderID:     store.FromUUID(row.OrderID),
			BookID:      store.FromUUID(row.BookID),
			AuthorID:    store.FromUUID(row.AuthorID),
			Qty:         row.Qty,
			ListPrice:   money.New(row.ListPriceMinor, row.Currency),
		})
	}
	entries, err := Compute(ctx, items, s.Rates)
	if err != nil {
		return err
	}

	perAuthor := map[string]int64{}
	currency := ord.Currency
	for _, e := range entries {
		err := qtx.InsertRoyalty(ctx, store.InsertRoyaltyParams{
			OrderItemID:    store.UUID(e.OrderItemID),
			OrderID:        store.UUID(e.OrderID),
			BookID:         store.UUID(e.BookID),
			AuthorID:       store.UUID(e.AuthorID),
			Qty:            e.Qty,
			ListPriceMinor: e.ListPrice.MinorUnits(),
			RateBps:        e.RateBps,
			AmountMinor:    e.Amount.MinorUnits(),
			Currency:       e.Amount.Currency(),
		})
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
				// this line was settled by a previous partial run
				continue
			}
			return err
		}
		perAuthor[e.AuthorID.String()] += e.Amount.MinorUnits()
	}
	for author, amount := range perAuthor {
		aID, err := store.ParseUUID(author)
		if err != nil {
			return err
		}
		if err := qtx.CreditWalletPending(ctx, aID, amount, currency); err != nil {
			return err
		}
	}

	ok, err := qtx.UpdateOrderStatus(ctx, oID, string(order.StatusProcessing), string(order.StatusCompleted))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: concurrent status change", ErrNotSettleable)
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.Log.Info().
		Str("order_id", orderID).
		Int("entries", len(entries)).
		Msg("royalties settled")
	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicOrderCompleted, map[string]any{
			"orderId":     orderID,
			"orderNumber": ord.OrderNumber,
			"userId":      store.FromUUID(ord.UserID).String(),
		})
	}
	return nil
}

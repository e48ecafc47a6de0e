package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pustaka/internal/common"
	"github.com/noah-isme/backend-pustaka/internal/events"
	"github.com/noah-isme/backend-pustaka/internal/money"
	"github.com/noah-isme/backend-pustaka/internal/order"
	"github.com/noah-isme/backend-pustaka/internal/pricing"
	"github.com/noah-isme/backend-pustaka/internal/promo"
	"github.com/noah-isme/backend-pustaka/internal/store"
)

// Input is the checkout request body.
type Input struct {
	CartID       string  `json:"cartId" validate:"required,uuid4"`
	PromoCode    *string `json:"promoCode"`
	Jurisdiction string  `json:"jurisdiction"`
}

// Output describes the created order.
type Output struct {
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
	Status      string `json:"status"`
	Subtotal    int64  `json:"subtotalMinor"`
	Discount    int64  `json:"discountMinor"`
	Tax         int64  `json:"taxMinor"`
	Total       int64  `json:"totalMinor"`
	Currency    string `json:"currency"`
}

// Service turns a cart into a pending order. Unit prices are resolved at the
// checkout instant and snapshotted into the order items; the promo counter is
// not consumed here, only previewed.
type Service struct {
	Q        *store.Queries
	Pool     *pgxpool.Pool
	Promo    *promo.Service
	Tax      TaxCalculator
	Events   *events.Bus
	Currency string
	Now      func() time.Time
	Log      zerolog.Logger
}

// Create runs the checkout for the given user and cart.
func (s *Service) Create(ctx context.Context, userID string, in Input) (Output, error) {
	if s == nil || s.Q == nil || s.Pool == nil {
		return Output{}, errors.New("checkout service not configured")
	}
	if s.Tax == nil {
		return Output{}, errors.New("tax calculator not configured")
	}
	uID, err := uuid.Parse(userID)
	if err != nil {
		return Output{}, common.NewAppError("BAD_REQUEST", "invalid user id", http.StatusBadRequest, err)
	}
	cID, err := uuid.Parse(in.CartID)
	if err != nil {
		return Output{}, common.NewAppError("BAD_REQUEST", "invalid cart id", http.StatusBadRequest, err)
	}
	now := s.now()

	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Output{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	qtx := s.Q.WithTx(tx)

	cartRow, err := qtx.GetCartByUser(ctx, store.UUID(uID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Output{}, common.NewAppError("NOT_FOUND", "cart not found", http.StatusNotFound, err)
		}
		return Output{}, err
	}
	if store.FromUUID(cartRow.ID) != cID {
		return Output{}, common.NewAppError("NOT_FOUND", "cart not found", http.StatusNotFound, nil)
	}
	items, err := qtx.ListCartItems(ctx, cartRow.ID)
	if err != nil {
		return Output{}, err
	}
	if len(items) == 0 {
		return Output{}, common.NewAppError("EMPTY_CART", "cart is empty", http.StatusUnprocessableEntity, nil)
	}

	lines := make([]pricing.Line, 0, len(items))
	snapshots := make([]store.InsertOrderItemParams, 0, len(items))
	for _, it := range items {
		book, err := qtx.GetBook(ctx, it.BookID)
		if err != nil {
			return Output{}, fmt.Errorf("load book for cart line: %w", err)
		}
		unit := pricing.EffectivePrice(bookPrice(book), now)
		lines = append(lines, pricing.Line{
			BookID:    store.FromUUID(book.ID),
			AuthorID:  store.FromUUID(book.AuthorID),
			Qty:       int(it.Qty),
			UnitPrice: unit,
		})
		snapshots = append(snapshots, store.InsertOrderItemParams{
			BookID:         book.ID,
			AuthorID:       book.AuthorID,
			Title:          book.Title,
			Qty:            it.Qty,
			UnitPriceMinor: unit.MinorUnits(),
			ListPriceMinor: book.PriceMinor,
			Currency:       unit.Currency(),
		})
	}

	subtotal := money.Zero(s.Currency)
	for _, ln := range lines {
		subtotal, err = subtotal.Add(ln.UnitPrice.MulInt(int64(ln.Qty)))
		if err != nil {
			return Output{}, err
		}
	}

	code := promoCode(cartRow, in.PromoCode)
	discount := money.Zero(s.Currency)
	if code != "" {
		preview, err := s.Promo.Preview(ctx, code, subtotal)
		if err != nil {
			return Output{}, err
		}
		discount = preview.Discount
		code = preview.Code
	}

	taxable, err := subtotal.Sub(money.Min(discount, subtotal))
	if err != nil {
		return Output{}, err
	}
	tax, err := s.Tax.Tax(ctx, taxable, in.Jurisdiction)
	if err != nil {
		return Output{}, fmt.Errorf("compute tax: %w", err)
	}

	summary, err := pricing.Compute(lines, discount, tax)
	if err != nil {
		return Output{}, err
	}
	if summary.Clamped {
		s.Log.Error().
			Str("cart_id", in.CartID).
			Int64("subtotal", summary.Subtotal.MinorUnits()).
			Int64("discount", summary.Discount.MinorUnits()).
			Int64("tax", summary.Tax.MinorUnits()).
			Msg("order total clamped to zero")
	}

	ord, err := qtx.InsertOrder(ctx, store.InsertOrderParams{
		OrderNumber:   order.NewOrderNumber(now),
		UserID:        store.UUID(uID),
		Status:        string(order.StatusPending),
		Currency:      s.Currency,
		SubtotalMinor: summary.Subtotal.MinorUnits(),
		DiscountMinor: summary.Discount.MinorUnits(),
		TaxMinor:      summary.Tax.MinorUnits(),
		TotalMinor:    summary.Total.MinorUnits(),
		PromoCode:     optionalText(code),
	})
	if err != nil {
		return Output{}, err
	}
	for _, snap := range snapshots {
		snap.OrderID = ord.ID
		if _, err := qtx.InsertOrderItem(ctx, snap); err != nil {
			return Output{}, err
		}
	}
	if err := qtx.ClearCartItems(ctx, cartRow.ID); err != nil {
		return Output{}, err
	}
	if err := qtx.SetCartPromo(ctx, cartRow.ID, pgtype.Text{}); err != nil {
		return Output{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Output{}, err
	}

	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicOrderCreated, map[string]any{
			"orderId":     store.FromUUID(ord.ID).String(),
			"orderNumber": ord.OrderNumber,
			"userId":      userID,
			"totalMinor":  ord.TotalMinor,
			"currency":    ord.Currency,
		})
	}
	return Output{
		OrderID:     store.FromUUID(ord.ID).String(),
		OrderNumber: ord.OrderNumber,
		Status:      ord.Status,
		Subtotal:    ord.SubtotalMinor,
		Discount:    ord.DiscountMinor,
		Tax:         ord.TaxMinor,
		Total:       ord.TotalMinor,
		Currency:    ord.Currency,
	}, nil
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func bookPrice(b store.Book) pricing.BookPrice {
	bp := pricing.BookPrice{
		Base:   money.New(b.PriceMinor, b.Currency),
		IsFree: b.IsFree,
	}
	if b.DiscountMinor.Valid {
		d := money.New(b.DiscountMinor.Int64, b.Currency)
		bp.Discount = &d
	}
	bp.DiscountStart = store.TimePtr(b.DiscountStart)
	bp.DiscountEnd = store.TimePtr(b.DiscountEnd)
	return bp
}

func promoCode(cartRow store.Cart, override *string) string {
	if override != nil {
		return strings.TrimSpace(*override)
	}
	if cartRow.PromoCode.Valid {
		return strings.TrimSpace(cartRow.PromoCode.String)
	}
	return ""
}

func optionalText(v string) pgtype.Text {
	if v == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: v, Valid: true}
}

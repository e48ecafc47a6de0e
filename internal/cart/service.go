package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-pustaka/internal/catalog"
	"github.com/noah-isme/backend-pustaka/internal/money"
	"github.com/noah-isme/backend-pustaka/internal/pricing"
	"github.com/noah-isme/backend-pustaka/internal/promo"
	"github.com/noah-isme/backend-pustaka/internal/store"
)

// ErrNotFound indicates the requested cart or line could not be located.
var ErrNotFound = errors.New("cart not found")

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// Querier captures the database methods the cart service needs.
type Querier interface {
	GetCartByUser(ctx context.Context, userID pgtype.UUID) (store.Cart, error)
	GetCartByToken(ctx context.Context, token string) (store.Cart, error)
	InsertCart(ctx context.Context, arg store.InsertCartParams) (store.Cart, error)
	TouchCart(ctx context.Context, id pgtype.UUID, expiresAt pgtype.Timestamptz) error
	SetCartPromo(ctx context.Context, id pgtype.UUID, code pgtype.Text) error
	DeleteCart(ctx context.Context, id pgtype.UUID) error
	ListCartItems(ctx context.Context, cartID pgtype.UUID) ([]store.CartItem, error)
	UpsertCartItem(ctx context.Context, arg store.UpsertCartItemParams) (store.CartItem, error)
	SetCartItemQty(ctx context.Context, cartID, bookID pgtype.UUID, qty int32) (bool, error)
	DeleteCartItem(ctx context.Context, cartID, bookID pgtype.UUID) error
	MergeCartItems(ctx context.Context, fromCartID, toCartID pgtype.UUID) error
	GetBook(ctx context.Context, id pgtype.UUID) (store.Book, error)
}

// Previewer evaluates a promo code against a subtotal without consuming uses.
type Previewer interface {
	Preview(ctx context.Context, code string, subtotal money.Money) (promo.PreviewResult, error)
}

// Service encapsulates cart domain operations. Carts belong either to a user
// account or to an anonymous session token, never both.
type Service struct {
	Q     Querier
	Promo Previewer
	TTL   time.Duration
	Now   func() time.Time
}

// Quote summarises the priced cart, including the previewed promo effect.
type Quote struct {
	Currency       string
	SubtotalMinor  int64
	DiscountMinor  int64
	TotalMinor     int64
	PromoCode      string
	PromoRejection promo.Reason
	ItemCount      int
}

func (s *Service) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.TTL
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// EnsureCart loads or creates the cart for the given identity. A valid user
// id wins over the anonymous token.
func (s *Service) EnsureCart(ctx context.Context, userID pgtype.UUID, anonToken string) (store.Cart, error) {
	if s == nil || s.Q == nil {
		return store.Cart{}, errors.New("cart service not configured")
	}
	expires := pgtype.Timestamptz{Time: s.now().Add(s.ttl()), Valid: true}

	if userID.Valid {
		cart, err := s.Q.GetCartByUser(ctx, userID)
		if err == nil {
			_ = s.Q.TouchCart(ctx, cart.ID, expires)
			return cart, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return store.Cart{}, err
		}
		return s.Q.InsertCart(ctx, store.InsertCartParams{
			UserID:    userID,
			ExpiresAt: expires,
		})
	}

	if anonToken != "" {
		cart, err := s.Q.GetCartByToken(ctx, anonToken)
		if err == nil {
			_ = s.Q.TouchCart(ctx, cart.ID, expires)
			return cart, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return store.Cart{}, err
		}
	}
	if anonToken == "" {
		anonToken = uuid.NewString()
	}
	return s.Q.InsertCart(ctx, store.InsertCartParams{
		AnonToken: pgtype.Text{String: anonToken, Valid: true},
		ExpiresAt: expires,
	})
}

// AddItem puts a published book into the cart, snapshotting its effective
// price at add time. Repeat adds accumulate quantity.
func (s *Service) AddItem(ctx context.Context, cart store.Cart, bookID pgtype.UUID, qty int32) (store.CartItem, error) {
	if qty <= 0 {
		return store.CartItem{}, fmt.Errorf("%w: qty must be positive", ErrInvalidInput)
	}
	book, err := s.Q.GetBook(ctx, bookID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.CartItem{}, ErrNotFound
		}
		return store.CartItem{}, err
	}
	if !book.Published {
		return store.CartItem{}, ErrNotFound
	}
	effective := pricing.EffectivePrice(catalog.BookPrice(book), s.now())
	return s.Q.UpsertCartItem(ctx, store.UpsertCartItemParams{
		CartID:         cart.ID,
		BookID:         bookID,
		Qty:            qty,
		UnitPriceMinor: effective.MinorUnits(),
		Currency:       book.Currency,
	})
}

// SetItemQty replaces a line's quantity; zero or less removes the line.
func (s *Service) SetItemQty(ctx context.Context, cart store.Cart, bookID pgtype.UUID, qty int32) error {
	if qty <= 0 {
		return s.Q.DeleteCartItem(ctx, cart.ID, bookID)
	}
	ok, err := s.Q.SetCartItemQty(ctx, cart.ID, bookID, qty)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// RemoveItem drops a line from the cart.
func (s *Service) RemoveItem(ctx context.Context, cart store.Cart, bookID pgtype.UUID) error {
	return s.Q.DeleteCartItem(ctx, cart.ID, bookID)
}

// ApplyPromo previews a promo code against the current subtotal and, when it
// is redeemable, remembers it on the cart for checkout.
func (s *Service) ApplyPromo(ctx context.Context, cart store.Cart, code string) (Quote, error) {
	if s.Promo == nil {
		return Quote{}, errors.New("promo preview not configured")
	}
	items, err := s.Q.ListCartItems(ctx, cart.ID)
	if err != nil {
		return Quote{}, err
	}
	subtotal, currency := subtotalOf(items)
	result, err := s.Promo.Preview(ctx, code, money.New(subtotal, currency))
	if err != nil {
		return Quote{}, err
	}
	if err := s.Q.SetCartPromo(ctx, cart.ID, pgtype.Text{String: result.Code, Valid: true}); err != nil {
		return Quote{}, err
	}
	cart.PromoCode = pgtype.Text{String: result.Code, Valid: true}
	return s.quote(ctx, cart, items)
}

// RemovePromo clears the remembered promo code.
func (s *Service) RemovePromo(ctx context.Context, cart store.Cart) error {
	return s.Q.SetCartPromo(ctx, cart.ID, pgtype.Text{})
}

// GetQuote prices the cart as it stands. A remembered promo that has since
// become invalid is reported in the quote instead of failing the read.
func (s *Service) GetQuote(ctx context.Context, cart store.Cart) (Quote, []store.CartItem, error) {
	items, err := s.Q.ListCartItems(ctx, cart.ID)
	if err != nil {
		return Quote{}, nil, err
	}
	q, err := s.quote(ctx, cart, items)
	return q, items, err
}

func (s *Service) quote(ctx context.Context, cart store.Cart, items []store.CartItem) (Quote, error) {
	subtotal, currency := subtotalOf(items)
	q := Quote{
		Currency:      currency,
		SubtotalMinor: subtotal,
		TotalMinor:    subtotal,
		ItemCount:     len(items),
	}
	if !cart.PromoCode.Valid || cart.PromoCode.String == "" || s.Promo == nil {
		return q, nil
	}
	q.PromoCode = cart.PromoCode.String
	result, err := s.Promo.Preview(ctx, cart.PromoCode.String, money.New(subtotal, currency))
	if err != nil {
		var rejected *promo.RejectedError
		if errors.As(err, &rejected) {
			q.PromoRejection = rejected.Reason
			return q, nil
		}
		if errors.Is(err, promo.ErrUnknownCode) {
			q.PromoRejection = "unknown_code"
			return q, nil
		}
		return Quote{}, err
	}
	q.DiscountMinor = result.Discount.MinorUnits()
	q.TotalMinor = subtotal - q.DiscountMinor
	return q, nil
}

// MergeOnLogin folds an anonymous cart into the user's cart. Quantities for
// books present in both accumulate. The anonymous cart is deleted; its promo
// code carries over only when the user cart has none.
func (s *Service) MergeOnLogin(ctx context.Context, userID pgtype.UUID, anonToken string) (store.Cart, error) {
	if anonToken == "" {
		return s.EnsureCart(ctx, userID, "")
	}
	anon, err := s.Q.GetCartByToken(ctx, anonToken)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.EnsureCart(ctx, userID, "")
		}
		return store.Cart{}, err
	}
	target, err := s.EnsureCart(ctx, userID, "")
	if err != nil {
		return store.Cart{}, err
	}
	if err := s.Q.MergeCartItems(ctx, anon.ID, target.ID); err != nil {
		return store.Cart{}, err
	}
	if !target.PromoCode.Valid && anon.PromoCode.Valid {
		if err := s.Q.SetCartPromo(ctx, target.ID, anon.PromoCode); err != nil {
			return store.Cart{}, err
		}
		target.PromoCode = anon.PromoCode
	}
	if err := s.Q.DeleteCart(ctx, anon.ID); err != nil {
		return store.Cart{}, err
	}
	return target, nil
}

func subtotalOf(items []store.CartItem) (int64, string) {
	var subtotal int64
	currency := "USD"
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		subtotal += it.UnitPriceMinor * int64(it.Qty)
		currency = it.Currency
	}
	return subtotal, currency
}

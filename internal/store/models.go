package store

import (
	"github.com/jackc/pgx/v5/pgtype"
)

// Author is a row in the authors table.
type Author struct {
	ID             pgtype.UUID
	UserID         pgtype.UUID
	Name           string
	Slug           string
	Bio            string
	RoyaltyRateBps pgtype.Int4
	CreatedAt      pgtype.Timestamptz
	UpdatedAt      pgtype.Timestamptz
}

// Category is a row in the categories table.
type Category struct {
	ID   pgtype.UUID
	Name string
	Slug string
}

// Book is a row in the books table.
type Book struct {
	ID             pgtype.UUID
	AuthorID       pgtype.UUID
	CategoryID     pgtype.UUID
	Title          string
	Slug           string
	Description    string
	Currency       string
	PriceMinor     int64
	IsFree         bool
	DiscountMinor  pgtype.Int8
	DiscountStart  pgtype.Timestamptz
	DiscountEnd    pgtype.Timestamptz
	RoyaltyRateBps pgtype.Int4
	Published      bool
	PublishedAt    pgtype.Timestamptz
	CoverURL       string
	FileKey        string
	CreatedAt      pgtype.Timestamptz
	UpdatedAt      pgtype.Timestamptz
}

// Cart is a row in the carts table.
type Cart struct {
	ID        pgtype.UUID
	UserID    pgtype.UUID
	AnonToken pgtype.Text
	PromoCode pgtype.Text
	ExpiresAt pgtype.Timestamptz
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

// CartItem is a row in the cart_items table.
type CartItem struct {
	ID             pgtype.UUID
	CartID         pgtype.UUID
	BookID         pgtype.UUID
	Qty            int32
	UnitPriceMinor int64
	Currency       string
	CreatedAt      pgtype.Timestamptz
}

// PromoCode is a row in the promo_codes table.
type PromoCode struct {
	ID            pgtype.UUID
	Code          string
	Kind          string
	AmountMinor   int64
	PercentBps    int32
	MinOrderMinor int64
	MaxUses       int32
	CurrentUses   int32
	IsActive      bool
	ValidFrom     pgtype.Timestamptz
	ValidTo       pgtype.Timestamptz
	CreatedAt     pgtype.Timestamptz
	UpdatedAt     pgtype.Timestamptz
}

// Order is a row in the orders table.
type Order struct {
	ID            pgtype.UUID
	OrderNumber   string
	UserID        pgtype.UUID
	Status        string
	Currency      string
	SubtotalMinor int64
	DiscountMinor int64
	TaxMinor      int64
	TotalMinor    int64
	PromoCode     pgtype.Text
	CreatedAt     pgtype.Timestamptz
	UpdatedAt     pgtype.Timestamptz
}

// OrderItem is a row in the order_items table.
type OrderItem struct {
	ID             pgtype.UUID
	OrderID        pgtype.UUID
	BookID         pgtype.UUID
	AuthorID       pgtype.UUID
	Title          string
	Qty            int32
	UnitPriceMinor int64
	ListPriceMinor int64
	Currency       string
	CreatedAt      pgtype.Timestamptz
}

// Payment is a row in the payments table.
type Payment struct {
	ID          pgtype.UUID
	OrderID     pgtype.UUID
	Provider    string
	ProviderRef string
	Status      string
	AmountMinor int64
	Currency    string
	CreatedAt   pgtype.Timestamptz
	UpdatedAt   pgtype.Timestamptz
}

// PaymentEvent is a row in the payment_events table.
type PaymentEvent struct {
	ID            pgtype.UUID
	Provider      string
	EventID       string
	SignatureHash string
	Kind          string
	Payload       []byte
	ReceivedAt    pgtype.Timestamptz
}

// PromoRedemption is a row in the promo_redemptions table.
type PromoRedemption struct {
	ID          pgtype.UUID
	PromoID     pgtype.UUID
	OrderID     pgtype.UUID
	UserID      pgtype.UUID
	AmountMinor int64
	CreatedAt   pgtype.Timestamptz
}

// Royalty is a row in the royalties table.
type Royalty struct {
	ID             pgtype.UUID
	OrderItemID    pgtype.UUID
	OrderID        pgtype.UUID
	BookID         pgtype.UUID
	AuthorID       pgtype.UUID
	Qty            int32
	ListPriceMinor int64
	RateBps        int32
	AmountMinor    int64
	Currency       string
	CreatedAt      pgtype.Timestamptz
}

// Wallet is a row in the wallets table.
type Wallet struct {
	ID           pgtype.UUID
	AuthorID     pgtype.UUID
	BalanceMinor int64
	PendingMinor int64
	Currency     string
	UpdatedAt    pgtype.Timestamptz
}

// Review is a row in the reviews table.
type Review struct {
	ID        pgtype.UUID
	BookID    pgtype.UUID
	UserID    pgtype.UUID
	Rating    int32
	Body      string
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

// ReadingProgress is a row in the reading_progress table.
type ReadingProgress struct {
	ID        pgtype.UUID
	UserID    pgtype.UUID
	BookID    pgtype.UUID
	Percent   int32
	Location  string
	UpdatedAt pgtype.Timestamptz
}

// DomainEvent is a row in the domain_events table.
type DomainEvent struct {
	ID        int64
	Topic     string
	Payload   []byte
	CreatedAt pgtype.Timestamptz
}

// Notification is a row in the notifications table.
type Notification struct {
	ID        pgtype.UUID
	UserID    pgtype.UUID
	Kind      string
	Title     string
	Body      string
	ReadAt    pgtype.Timestamptz
	CreatedAt pgtype.Timestamptz
}

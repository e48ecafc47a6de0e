package promo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-pustaka/internal/money"
	"github.com/noah-isme/backend-pustaka/internal/store"
)

// ErrUnknownCode is returned when no promo code matches the given code.
var ErrUnknownCode = errors.New("unknown promo code")

// Querier captures the database methods required by the promo service.
type Querier interface {
	GetPromoByCode(ctx context.Context, code string) (store.PromoCode, error)
	RedeemPromo(ctx context.Context, id pgtype.UUID) (bool, error)
	GetRedemptionByOrder(ctx context.Context, orderID pgtype.UUID) (store.PromoRedemption, error)
	InsertRedemption(ctx context.Context, arg store.InsertRedemptionParams) error
}

// PreviewResult describes the outcome of evaluating a promo code without
// mutating state.
type PreviewResult struct {
	Code     string
	Discount money.Money
}

// Service evaluates and settles promo codes.
type Service struct {
	Q   Querier
	Now func() time.Time
}

// Preview performs a dry-run evaluation against the given subtotal. The usage
// counter is not touched; exhaustion is still reported so the client learns
// early.
func (s *Service) Preview(ctx context.Context, code string, subtotal money.Money) (PreviewResult, error) {
	if s == nil || s.Q == nil {
		return PreviewResult{}, errors.New("promo service not configured")
	}
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return PreviewResult{}, ErrUnknownCode
	}
	model, err := s.Q.GetPromoByCode(ctx, trimmed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PreviewResult{}, ErrUnknownCode
		}
		return PreviewResult{}, err
	}
	rule := RuleFromModel(model, subtotal.Currency())
	if err := rule.Redeemable(s.now(), subtotal); err != nil {
		return PreviewResult{}, err
	}
	return PreviewResult{Code: model.Code, Discount: rule.Discount(subtotal)}, nil
}

// Settle consumes one use of the promo code for a paid order. The counter
// update is a single guarded statement so two orders racing for the last use
// cannot both win; the loser gets a RejectedError. A second settle for the
// same order is a no-op.
func (s *Service) Settle(ctx context.Context, code string, orderID, userID pgtype.UUID, subtotal money.Money) error {
	if s == nil || s.Q == nil {
		return errors.New("promo service not configured")
	}
	trimmed := strings.TrimSpace(code)
	if trimmed == "" || !orderID.Valid {
		return nil
	}
	model, err := s.Q.GetPromoByCode(ctx, trimmed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUnknownCode
		}
		return err
	}
	if _, err := s.Q.GetRedemptionByOrder(ctx, orderID); err == nil {
		return nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	rule := RuleFromModel(model, subtotal.Currency())
	if err := rule.Redeemable(s.now(), subtotal); err != nil {
		return err
	}
	ok, err := s.Q.RedeemPromo(ctx, model.ID)
	if err != nil {
		return err
	}
	if !ok {
		// lost the race for the last remaining use
		return &RejectedError{Code: model.Code, Reason: ReasonExhausted}
	}
	discount := rule.Discount(subtotal)
	return s.Q.InsertRedemption(ctx, store.InsertRedemptionParams{
		PromoID:     model.ID,
		OrderID:     orderID,
		UserID:      userID,
		AmountMinor: discount.MinorUnits(),
	})
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// RuleFromModel converts a stored promo code into the evaluation rule.
func RuleFromModel(p store.PromoCode, currency string) Rule {
	rule := Rule{
		Code:        p.Code,
		Kind:        p.Kind,
		AmountMinor: p.AmountMinor,
		PercentBps:  p.PercentBps,
		MinOrder:    money.New(p.MinOrderMinor, currency),
		MaxUses:     p.MaxUses,
		CurrentUses: p.CurrentUses,
		Active:      p.IsActive,
	}
	rule.ValidFrom = store.TimePtr(p.ValidFrom)
	rule.ValidTo = store.TimePtr(p.ValidTo)
	return rule
}

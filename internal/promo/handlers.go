package promo

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/noah-isme/backend-pustaka/internal/common"
	"github.com/noah-isme/backend-pustaka/internal/money"
	"github.com/noah-isme/backend-pustaka/internal/store"
)

// Handler exposes promo code management and preview endpoints.
type Handler struct {
	Q        *store.Queries
	Svc      *Service
	Validate *validator.Validate
}

type promoPayload struct {
	Code          string     `json:"code" validate:"required,min=3,max=64"`
	Kind          string     `json:"kind" validate:"required,oneof=percentage fixed"`
	AmountMinor   int64      `json:"amountMinor" validate:"min=0"`
	PercentBps    int32      `json:"percentBps" validate:"min=0,max=10000"`
	MinOrderMinor int64      `json:"minOrderMinor" validate:"min=0"`
	MaxUses       int32      `json:"maxUses" validate:"min=0"`
	IsActive      *bool      `json:"isActive"`
	ValidFrom     *time.Time `json:"validFrom"`
	ValidTo       *time.Time `json:"validTo"`
}

type promoView struct {
	ID          string     `json:"id"`
	Code        string     `json:"code"`
	Kind        string     `json:"kind"`
	AmountMinor int64      `json:"amountMinor"`
	PercentBps  int32      `json:"percentBps"`
	MinOrder    int64      `json:"minOrderMinor"`
	MaxUses     int32      `json:"maxUses"`
	CurrentUses int32      `json:"currentUses"`
	IsActive    bool       `json:"isActive"`
	ValidFrom   *time.Time `json:"validFrom,omitempty"`
	ValidTo     *time.Time `json:"validTo,omitempty"`
}

func toView(p store.PromoCode) promoView {
	return promoView{
		ID:          store.FromUUID(p.ID).String(),
		Code:        p.Code,
		Kind:        p.Kind,
		AmountMinor: p.AmountMinor,
		PercentBps:  p.PercentBps,
		MinOrder:    p.MinOrderMinor,
		MaxUses:     p.MaxUses,
		CurrentUses: p.CurrentUses,
		IsActive:    p.IsActive,
		ValidFrom:   store.TimePtr(p.ValidFrom),
		ValidTo:     store.TimePtr(p.ValidTo),
	}
}

func (h *Handler) validatePayload(p promoPayload) error {
	if h.Validate != nil {
		if err := h.Validate.Struct(p); err != nil {
			return err
		}
	}
	switch p.Kind {
	case KindPercent:
		if p.PercentBps <= 0 {
			return errors.New("percentBps must be positive for percentage promos")
		}
	case KindFixed:
		if p.AmountMinor <= 0 {
			return errors.New("amountMinor must be positive for fixed promos")
		}
	}
	if p.ValidFrom != nil && p.ValidTo != nil && p.ValidTo.Before(*p.ValidFrom) {
		return errors.New("validTo must not precede validFrom")
	}
	return nil
}

// Create inserts a new promo code.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var payload promoPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.validatePayload(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}
	active := true
	if payload.IsActive != nil {
		active = *payload.IsActive
	}
	created, err := h.Q.InsertPromo(r.Context(), store.InsertPromoParams{
		Code:          strings.ToUpper(strings.TrimSpace(payload.Code)),
		Kind:          payload.Kind,
		AmountMinor:   payload.AmountMinor,
		PercentBps:    payload.PercentBps,
		MinOrderMinor: payload.MinOrderMinor,
		MaxUses:       payload.MaxUses,
		IsActive:      active,
		ValidFrom:     store.TimestamptzPtr(payload.ValidFrom),
		ValidTo:       store.TimestamptzPtr(payload.ValidTo),
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			common.JSONError(w, http.StatusConflict, "CONFLICT", "promo code already exists", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create promo code", nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": toView(created)})
}

// Update rewrites an existing promo code identified by its code.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	if code == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "code is required", nil)
		return
	}
	existing, err := h.Q.GetPromoByCode(r.Context(), strings.ToUpper(code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "promo code not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load promo code", nil)
		return
	}
	var payload promoPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	payload.Code = existing.Code
	if err := h.validatePayload(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}
	active := existing.IsActive
	if payload.IsActive != nil {
		active = *payload.IsActive
	}
	updated, err := h.Q.UpdatePromo(r.Context(), store.UpdatePromoParams{
		ID:            existing.ID,
		Kind:          payload.Kind,
		AmountMinor:   payload.AmountMinor,
		PercentBps:    payload.PercentBps,
		MinOrderMinor: payload.MinOrderMinor,
		MaxUses:       payload.MaxUses,
		IsActive:      active,
		ValidFrom:     store.TimestamptzPtr(payload.ValidFrom),
		ValidTo:       store.TimestamptzPtr(payload.ValidTo),
	})
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update promo code", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toView(updated)})
}

type previewRequest struct {
	Code          string `json:"code" validate:"required"`
	SubtotalMinor int64  `json:"subtotalMinor" validate:"min=0"`
	Currency      string `json:"currency"`
}

// Preview returns the simulated discount for a promo code without persisting
// state.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
			return
		}
	}
	subtotal := money.New(req.SubtotalMinor, req.Currency)
	result, err := h.Svc.Preview(r.Context(), req.Code, subtotal)
	if err != nil {
		RenderRejection(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"code":          result.Code,
		"discountMinor": result.Discount.MinorUnits(),
		"currency":      result.Discount.Currency(),
	}})
}

// RenderRejection maps promo evaluation errors onto the API error shape.
func RenderRejection(w http.ResponseWriter, err error) {
	var rejected *RejectedError
	switch {
	case errors.As(err, &rejected):
		common.JSONError(w, http.StatusUnprocessableEntity, "PROMO_REJECTED",
			"promo code not applicable", map[string]any{"reason": string(rejected.Reason)})
	case errors.Is(err, ErrUnknownCode):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "promo code not found", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "promo evaluation failed", nil)
	}
}

package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-pustaka/internal/common"
	"github.com/noah-isme/backend-pustaka/internal/store"
)

// AdminHandler exposes the pricing management endpoint.
type AdminHandler struct {
	Q        *store.Queries
	Svc      *Service
	Validate *validator.Validate
}

type pricingPayload struct {
	PriceMinor    int64      `json:"priceMinor" validate:"min=0"`
	IsFree        bool       `json:"isFree"`
	DiscountMinor *int64     `json:"discountMinor,omitempty"`
	DiscountStart *time.Time `json:"discountStart,omitempty"`
	DiscountEnd   *time.Time `json:"discountEnd,omitempty"`
}

// A discount is stored only when the amount and both window bounds are
// present together; anything partial is rejected rather than silently
// ignored at read time.
func validateDiscount(p pricingPayload) *common.AppError {
	set := 0
	if p.DiscountMinor != nil {
		set++
	}
	if p.DiscountStart != nil {
		set++
	}
	if p.DiscountEnd != nil {
		set++
	}
	if set == 0 {
		return nil
	}
	if set != 3 {
		return &common.AppError{
			Code:       "VALIDATION",
			Message:    "discountMinor, discountStart and discountEnd must be set together",
			HTTPStatus: http.StatusUnprocessableEntity,
		}
	}
	if *p.DiscountMinor <= 0 || *p.DiscountMinor >= p.PriceMinor {
		return &common.AppError{
			Code:       "VALIDATION",
			Message:    "discountMinor must be positive and below priceMinor",
			HTTPStatus: http.StatusUnprocessableEntity,
		}
	}
	if !p.DiscountEnd.After(*p.DiscountStart) {
		return &common.AppError{
			Code:       "VALIDATION",
			Message:    "discountEnd must be after discountStart",
			HTTPStatus: http.StatusUnprocessableEntity,
		}
	}
	return nil
}

// UpdatePricing handles PATCH /api/v1/admin/books/{bookId}/pricing.
func (h *AdminHandler) UpdatePricing(w http.ResponseWriter, r *http.Request) {
	id, err := store.ParseUUID(chi.URLParam(r, "bookId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid book id", nil)
		return
	}
	var payload pricingPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid body", nil)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", "invalid pricing payload", err.Error())
		return
	}
	if appErr := validateDiscount(payload); appErr != nil {
		common.RenderError(w, appErr)
		return
	}

	arg := store.UpdateBookPricingParams{
		ID:         id,
		PriceMinor: payload.PriceMinor,
		IsFree:     payload.IsFree,
	}
	if payload.DiscountMinor != nil {
		arg.DiscountMinor = pgtype.Int8{Int64: *payload.DiscountMinor, Valid: true}
		arg.DiscountStart = pgtype.Timestamptz{Time: *payload.DiscountStart, Valid: true}
		arg.DiscountEnd = pgtype.Timestamptz{Time: *payload.DiscountEnd, Valid: true}
	}
	book, err := h.Q.UpdateBookPricing(r.Context(), arg)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "book not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update pricing", nil)
		return
	}
	if h.Svc != nil {
		h.Svc.InvalidateBook(r.Context(), book.Slug)
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"id":         store.FromUUID(book.ID).String(),
		"priceMinor": book.PriceMinor,
		"isFree":     book.IsFree,
	}})
}

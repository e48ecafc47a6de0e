package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-pustaka/internal/common"
	"github.com/noah-isme/backend-pustaka/internal/promo"
	"github.com/noah-isme/backend-pustaka/internal/store"
)

// TokenHeader carries the anonymous cart token for guests.
const TokenHeader = "X-Cart-Token"

// Handler wires the cart service to HTTP.
type Handler struct {
	Svc *Service
}

type cartItemView struct {
	BookID    string `json:"bookId"`
	Qty       int32  `json:"qty"`
	UnitPrice int64  `json:"unitPriceMinor"`
	Currency  string `json:"currency"`
}

type cartView struct {
	CartID         string         `json:"cartId"`
	AnonToken      string         `json:"anonToken,omitempty"`
	Items          []cartItemView `json:"items"`
	Currency       string         `json:"currency"`
	Subtotal       int64          `json:"subtotalMinor"`
	Discount       int64          `json:"discountMinor"`
	Total          int64          `json:"totalMinor"`
	PromoCode      string         `json:"promoCode,omitempty"`
	PromoRejection string         `json:"promoRejection,omitempty"`
}

// identity resolves the caller to a user id or an anonymous cart token.
func identity(r *http.Request) (pgtype.UUID, string) {
	if raw, ok := common.UserID(r.Context()); ok && raw != "" {
		if parsed, err := uuid.Parse(raw); err == nil {
			return store.UUID(parsed), ""
		}
	}
	return pgtype.UUID{}, strings.TrimSpace(r.Header.Get(TokenHeader))
}

func (h *Handler) ensure(w http.ResponseWriter, r *http.Request) (store.Cart, bool) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return store.Cart{}, false
	}
	userID, token := identity(r)
	cart, err := h.Svc.EnsureCart(r.Context(), userID, token)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load cart", nil)
		return store.Cart{}, false
	}
	if cart.AnonToken.Valid {
		w.Header().Set(TokenHeader, cart.AnonToken.String)
	}
	return cart, true
}

func (h *Handler) renderCart(w http.ResponseWriter, r *http.Request, cart store.Cart, status int) {
	quote, items, err := h.Svc.GetQuote(r.Context(), cart)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to price cart", nil)
		return
	}
	view := cartView{
		CartID:         store.FromUUID(cart.ID).String(),
		Items:          make([]cartItemView, 0, len(items)),
		Currency:       quote.Currency,
		Subtotal:       quote.SubtotalMinor,
		Discount:       quote.DiscountMinor,
		Total:          quote.TotalMinor,
		PromoCode:      quote.PromoCode,
		PromoRejection: string(quote.PromoRejection),
	}
	if cart.AnonToken.Valid {
		view.AnonToken = cart.AnonToken.String
	}
	for _, it := range items {
		view.Items = append(view.Items, cartItemView{
			BookID:    store.FromUUID(it.BookID).String(),
			Qty:       it.Qty,
			UnitPrice: it.UnitPriceMinor,
			Currency:  it.Currency,
		})
	}
	common.JSON(w, status, map[string]any{"data": view})
}

// Get handles GET /api/v1/cart.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.ensure(w, r)
	if !ok {
		return
	}
	h.renderCart(w, r, cart, http.StatusOK)
}

type addItemReq struct {
	BookID string `json:"bookId"`
	Qty    int32  `json:"qty"`
}

// AddItem handles POST /api/v1/cart/items.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.ensure(w, r)
	if !ok {
		return
	}
	var req addItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid body", nil)
		return
	}
	if req.Qty == 0 {
		req.Qty = 1
	}
	bookID, err := store.ParseUUID(req.BookID)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid bookId", nil)
		return
	}
	if _, err := h.Svc.AddItem(r.Context(), cart, bookID, req.Qty); err != nil {
		h.writeError(w, err)
		return
	}
	h.renderCart(w, r, cart, http.StatusCreated)
}

type setQtyReq struct {
	Qty int32 `json:"qty"`
}

// SetItemQty handles PATCH /api/v1/cart/items/{bookId}.
func (h *Handler) SetItemQty(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.ensure(w, r)
	if !ok {
		return
	}
	bookID, err := store.ParseUUID(chi.URLParam(r, "bookId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid bookId", nil)
		return
	}
	var req setQtyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid body", nil)
		return
	}
	if err := h.Svc.SetItemQty(r.Context(), cart, bookID, req.Qty); err != nil {
		h.writeError(w, err)
		return
	}
	h.renderCart(w, r, cart, http.StatusOK)
}

// RemoveItem handles DELETE /api/v1/cart/items/{bookId}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.ensure(w, r)
	if !ok {
		return
	}
	bookID, err := store.ParseUUID(chi.URLParam(r, "bookId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid bookId", nil)
		return
	}
	if err := h.Svc.RemoveItem(r.Context(), cart, bookID); err != nil {
		h.writeError(w, err)
		return
	}
	h.renderCart(w, r, cart, http.StatusOK)
}

type applyPromoReq struct {
	Code string `json:"code"`
}

// ApplyPromo handles POST /api/v1/cart/promo.
func (h *Handler) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.ensure(w, r)
	if !ok {
		return
	}
	var req applyPromoReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Code) == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "code is required", nil)
		return
	}
	if _, err := h.Svc.ApplyPromo(r.Context(), cart, req.Code); err != nil {
		var rejected *promo.RejectedError
		if errors.As(err, &rejected) || errors.Is(err, promo.ErrUnknownCode) {
			promo.RenderRejection(w, err)
			return
		}
		h.writeError(w, err)
		return
	}
	cart.PromoCode = pgtype.Text{String: strings.ToUpper(strings.TrimSpace(req.Code)), Valid: true}
	h.renderCart(w, r, cart, http.StatusOK)
}

// RemovePromo handles DELETE /api/v1/cart/promo.
func (h *Handler) RemovePromo(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.ensure(w, r)
	if !ok {
		return
	}
	if err := h.Svc.RemovePromo(r.Context(), cart); err != nil {
		h.writeError(w, err)
		return
	}
	cart.PromoCode = pgtype.Text{}
	h.renderCart(w, r, cart, http.StatusOK)
}

type mergeReq struct {
	AnonToken string `json:"anonToken"`
}

// Merge handles POST /api/v1/cart/merge after login.
func (h *Handler) Merge(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	raw, ok := common.UserID(r.Context())
	if !ok || raw == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid user id", nil)
		return
	}
	var req mergeReq
	_ = json.NewDecoder(r.Body).Decode(&req)
	token := strings.TrimSpace(req.AnonToken)
	if token == "" {
		token = strings.TrimSpace(r.Header.Get(TokenHeader))
	}
	cart, err := h.Svc.MergeOnLogin(r.Context(), store.UUID(parsed), token)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.renderCart(w, r, cart, http.StatusOK)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "not found", nil)
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}

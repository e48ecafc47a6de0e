package order

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-pustaka/internal/common"
	"github.com/noah-isme/backend-pustaka/internal/store"
)

// Handler exposes the order endpoints for authenticated customers.
type Handler struct {
	Q   *store.Queries
	Svc *Service
}

type orderView struct {
	ID          string          `json:"id"`
	OrderNumber string          `json:"orderNumber"`
	Status      string          `json:"status"`
	Currency    string          `json:"currency"`
	Subtotal    int64           `json:"subtotalMinor"`
	Discount    int64           `json:"discountMinor"`
	Tax         int64           `json:"taxMinor"`
	Total       int64           `json:"totalMinor"`
	PromoCode   *string         `json:"promoCode,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	Items       []orderItemView `json:"items,omitempty"`
}

type orderItemView struct {
	ID        string `json:"id"`
	BookID    string `json:"bookId"`
	Title     string `json:"title"`
	Qty       int32  `json:"qty"`
	UnitPrice int64  `json:"unitPriceMinor"`
	ListPrice int64  `json:"listPriceMinor"`
}

func toOrderView(o store.Order) orderView {
	v := orderView{
		ID:          store.FromUUID(o.ID).String(),
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
		Currency:    o.Currency,
		Subtotal:    o.SubtotalMinor,
		Discount:    o.DiscountMinor,
		Tax:         o.TaxMinor,
		Total:       o.TotalMinor,
		CreatedAt:   o.CreatedAt.Time,
	}
	if o.PromoCode.Valid {
		code := o.PromoCode.String
		v.PromoCode = &code
	}
	return v
}

func authedUserID(w http.ResponseWriter, r *http.Request) (pgtype.UUID, bool) {
	raw, ok := common.UserID(r.Context())
	if !ok || raw == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return pgtype.UUID{}, false
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid user id", nil)
		return pgtype.UUID{}, false
	}
	return store.UUID(parsed), true
}

// List returns the caller's orders, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r)
	if !ok {
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	total, err := h.Q.CountOrdersByUser(r.Context(), userID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to count orders", nil)
		return
	}
	orders, err := h.Q.ListOrdersByUser(r.Context(), userID, int32(perPage), int32(common.Offset(page, perPage)))
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list orders", nil)
		return
	}
	views := make([]orderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, toOrderView(o))
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	common.JSONList(w, http.StatusOK, views, common.Pagination{
		Page: page, PerPage: perPage, TotalItems: int(total),
	})
}

func (h *Handler) loadOwnedOrder(w http.ResponseWriter, r *http.Request) (store.Order, bool) {
	userID, ok := authedUserID(w, r)
	if !ok {
		return store.Order{}, false
	}
	parsed, err := uuid.Parse(chi.URLParam(r, "orderId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return store.Order{}, false
	}
	ord, err := h.Q.GetOrder(r.Context(), store.UUID(parsed))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return store.Order{}, false
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order", nil)
		return store.Order{}, false
	}
	if store.FromUUID(ord.UserID) != store.FromUUID(userID) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		return store.Order{}, false
	}
	return ord, true
}

// Get returns one of the caller's orders with its line items.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ord, ok := h.loadOwnedOrder(w, r)
	if !ok {
		return
	}
	items, err := h.Q.ListOrderItems(r.Context(), ord.ID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order items", nil)
		return
	}
	view := toOrderView(ord)
	view.Items = make([]orderItemView, 0, len(items))
	for _, it := range items {
		view.Items = append(view.Items, orderItemView{
			ID:        store.FromUUID(it.ID).String(),
			BookID:    store.FromUUID(it.BookID).String(),
			Title:     it.Title,
			Qty:       it.Qty,
			UnitPrice: it.UnitPriceMinor,
			ListPrice: it.ListPriceMinor,
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

// Cancel moves one of the caller's pending orders to cancelled.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	ord, ok := h.loadOwnedOrder(w, r)
	if !ok {
		return
	}
	updated, err := h.Svc.Transition(r.Context(), ord.ID, StatusCancelled)
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			common.JSONError(w, http.StatusConflict, "INVALID_STATE", "only pending orders can be cancelled", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to cancel order", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"status": updated.Status}})
}

package payment

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-pustaka/internal/common"
	"github.com/noah-isme/backend-pustaka/internal/store"
)

// Handler exposes the payment intent endpoint.
type Handler struct {
	Svc *Service
}

type intentReq struct {
	OrderID     string `json:"orderId"`
	AmountMinor int64  `json:"amountMinor"`
}

// CreateIntent opens (or reuses) a payment intent for the authenticated
// user's pending order.
func (h *Handler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "PAYMENT_NOT_CONFIGURED", "payment handler unavailable", nil)
		return
	}
	rawUser, ok := common.UserID(r.Context())
	if !ok || rawUser == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	userParsed, err := uuid.Parse(rawUser)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid user id", nil)
		return
	}
	var req intentReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid body", nil)
		return
	}
	orderParsed, err := uuid.Parse(strings.TrimSpace(req.OrderID))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid orderId", nil)
		return
	}
	intent, err := h.Svc.CreateIntent(r.Context(), store.UUID(orderParsed), store.UUID(userParsed), req.AmountMinor)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		case errors.Is(err, ErrNotPayable):
			common.JSONError(w, http.StatusConflict, "INVALID_STATE", "order does not accept payment", nil)
		case errors.Is(err, ErrAmountMismatch):
			common.JSONError(w, http.StatusUnprocessableEntity, "AMOUNT_MISMATCH", "amount does not match order total", nil)
		default:
			common.JSONError(w, http.StatusInternalServerError, "INTENT_FAILED", "failed to create payment intent", nil)
		}
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": intent})
}

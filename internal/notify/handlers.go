package notify

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-pustaka/internal/common"
	"github.com/noah-isme/backend-pustaka/internal/store"
)

// Handler exposes the user's notification inbox.
type Handler struct {
	Q *store.Queries
}

type notificationView struct {
	ID        string     `json:"id"`
	Kind      string     `json:"kind"`
	Title     string     `json:"title"`
	Body      string     `json:"body,omitempty"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

func authedUser(w http.ResponseWriter, r *http.Request) (pgtype.UUID, bool) {
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

// List handles GET /api/v1/notifications.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	rows, err := h.Q.ListNotificationsByUser(r.Context(), userID,
		int32(perPage), int32(common.Offset(page, perPage)))
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list notifications", nil)
		return
	}
	views := make([]notificationView, 0, len(rows))
	for _, n := range rows {
		v := notificationView{
			ID:        store.FromUUID(n.ID).String(),
			Kind:      n.Kind,
			Title:     n.Title,
			Body:      n.Body,
			CreatedAt: n.CreatedAt.Time,
		}
		if n.ReadAt.Valid {
			t := n.ReadAt.Time
			v.ReadAt = &t
		}
		views = append(views, v)
	}
	common.JSONList(w, http.StatusOK, views, common.Pagination{
		Page: page, PerPage: perPage, TotalItems: len(views),
	})
}

// MarkRead handles POST /api/v1/notifications/{notificationId}/read.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	id, err := store.ParseUUID(chi.URLParam(r, "notificationId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid notification id", nil)
		return
	}
	if err := h.Q.MarkNotificationRead(r.Context(), id, userID); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to mark read", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

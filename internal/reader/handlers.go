package reader

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-pustaka/internal/common"
	"github.com/noah-isme/backend-pustaka/internal/store"
)

// Handler exposes reading progress endpoints.
type Handler struct {
	Q        *store.Queries
	Validate *validator.Validate
}

type progressPayload struct {
	Percent  int32  `json:"percent" validate:"min=0,max=100"`
	Location string `json:"location" validate:"max=512"`
}

type progressView struct {
	BookID    string    `json:"bookId"`
	Percent   int32     `json:"percent"`
	Location  string    `json:"location,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
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

// Put handles PUT /api/v1/books/{bookId}/progress.
func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	bookID, err := store.ParseUUID(chi.URLParam(r, "bookId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid book id", nil)
		return
	}
	var payload progressPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid body", nil)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", "percent must be between 0 and 100", nil)
		return
	}
	p, err := h.Q.UpsertProgress(r.Context(), store.UpsertProgressParams{
		UserID:   userID,
		BookID:   bookID,
		Percent:  payload.Percent,
		Location: payload.Location,
	})
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to save progress", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": progressView{
		BookID:    store.FromUUID(p.BookID).String(),
		Percent:   p.Percent,
		Location:  p.Location,
		UpdatedAt: p.UpdatedAt.Time,
	}})
}

// Get handles GET /api/v1/books/{bookId}/progress.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	bookID, err := store.ParseUUID(chi.URLParam(r, "bookId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid book id", nil)
		return
	}
	p, err := h.Q.GetProgress(r.Context(), userID, bookID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSON(w, http.StatusOK, map[string]any{"data": progressView{
				BookID: store.FromUUID(bookID).String(),
			}})
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load progress", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": progressView{
		BookID:    store.FromUUID(p.BookID).String(),
		Percent:   p.Percent,
		Location:  p.Location,
		UpdatedAt: p.UpdatedAt.Time,
	}})
}

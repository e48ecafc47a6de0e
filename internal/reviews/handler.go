package reviews

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-pustaka/internal/common"
	"github.com/noah-isme/backend-pustaka/internal/events"
	"github.com/noah-isme/backend-pustaka/internal/store"
)

// Handler exposes book review endpoints. A user keeps a single review per
// book; posting again replaces it.
type Handler struct {
	Q        *store.Queries
	Events   *events.Bus
	Validate *validator.Validate
}

type reviewPayload struct {
	Rating int32  `json:"rating" validate:"required,min=1,max=5"`
	Body   string `json:"body" validate:"max=4000"`
}

type reviewView struct {
	ID     string `json:"id"`
	BookID string `json:"bookId"`
	UserID string `json:"userId"`
	Rating int32  `json:"rating"`
	Body   string `json:"body,omitempty"`
}

func toView(r store.Review) reviewView {
	return reviewView{
		ID:     store.FromUUID(r.ID).String(),
		BookID: store.FromUUID(r.BookID).String(),
		UserID: store.FromUUID(r.UserID).String(),
		Rating: r.Rating,
		Body:   r.Body,
	}
}

// Upsert handles PUT /api/v1/books/{bookId}/review.
func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	raw, ok := common.UserID(r.Context())
	if !ok || raw == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	userParsed, err := uuid.Parse(raw)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid user id", nil)
		return
	}
	bookID, err := store.ParseUUID(chi.URLParam(r, "bookId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid book id", nil)
		return
	}
	var payload reviewPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid body", nil)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", "rating must be between 1 and 5", nil)
		return
	}

	book, err := h.Q.GetBook(r.Context(), bookID)
	if err != nil || !book.Published {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "book not found", nil)
		return
	}

	review, err := h.Q.UpsertReview(r.Context(), store.UpsertReviewParams{
		BookID: bookID,
		UserID: store.UUID(userParsed),
		Rating: payload.Rating,
		Body:   strings.TrimSpace(payload.Body),
	})
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to save review", nil)
		return
	}
	if h.Events != nil {
		_, _ = h.Events.Emit(r.Context(), events.TopicReviewCreated, map[string]any{
			"bookId": store.FromUUID(bookID).String(),
			"userId": raw,
			"rating": payload.Rating,
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toView(review)})
}

// List handles GET /api/v1/books/{bookId}/reviews.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	bookID, err := store.ParseUUID(chi.URLParam(r, "bookId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid book id", nil)
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	rows, err := h.Q.ListReviewsByBook(r.Context(), bookID,
		int32(perPage), int32(common.Offset(page, perPage)))
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list reviews", nil)
		return
	}
	count, avg, err := h.Q.GetReviewStats(r.Context(), bookID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load review stats", nil)
		return
	}
	views := make([]reviewView, 0, len(rows))
	for _, row := range rows {
		views = append(views, toView(row))
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": views,
		"stats": map[string]any{
			"count":   count,
			"average": avg,
		},
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: int(count)},
	})
}

package wallet

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-pustaka/internal/common"
	"github.com/noah-isme/backend-pustaka/internal/store"
)

// Handler exposes the author earnings wallet to its owner.
type Handler struct {
	Q *store.Queries
}

type walletView struct {
	AuthorID  string    `json:"authorId"`
	Currency  string    `json:"currency"`
	Balance   int64     `json:"balanceMinor"`
	Pending   int64     `json:"pendingMinor"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type royaltyView struct {
	OrderID string `json:"orderId"`
	RateBps int32  `json:"rateBps"`
	Amount  int64  `json:"amountMinor"`
}

// Get handles GET /api/v1/author/wallet. The author profile is looked up
// from the authenticated user; users without one get a 404.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	author, ok := h.resolveAuthor(w, r)
	if !ok {
		return
	}
	wal, err := h.Q.GetWalletByAuthor(r.Context(), author.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// no settled sales yet; report an empty wallet
			common.JSON(w, http.StatusOK, map[string]any{"data": walletView{
				AuthorID: store.FromUUID(author.ID).String(),
				Currency: "USD",
			}})
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load wallet", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": walletView{
		AuthorID:  store.FromUUID(wal.AuthorID).String(),
		Currency:  wal.Currency,
		Balance:   wal.BalanceMinor,
		Pending:   wal.PendingMinor,
		UpdatedAt: wal.UpdatedAt.Time,
	}})
}

// Royalties handles GET /api/v1/author/royalties, newest first.
func (h *Handler) Royalties(w http.ResponseWriter, r *http.Request) {
	author, ok := h.resolveAuthor(w, r)
	if !ok {
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	rows, err := h.Q.ListRoyaltiesByAuthor(r.Context(), author.ID,
		int32(perPage), int32(common.Offset(page, perPage)))
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list royalties", nil)
		return
	}
	views := make([]royaltyView, 0, len(rows))
	for _, row := range rows {
		views = append(views, royaltyView{
			OrderID: store.FromUUID(row.OrderID).String(),
			RateBps: row.RateBps,
			Amount:  row.AmountMinor,
		})
	}
	common.JSONList(w, http.StatusOK, views, common.Pagination{
		Page: page, PerPage: perPage, TotalItems: len(views),
	})
}

func (h *Handler) resolveAuthor(w http.ResponseWriter, r *http.Request) (store.Author, bool) {
	raw, ok := common.UserID(r.Context())
	if !ok || raw == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return store.Author{}, false
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid user id", nil)
		return store.Author{}, false
	}
	author, err := h.Q.GetAuthorByUser(r.Context(), store.UUID(parsed))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "no author profile", nil)
			return store.Author{}, false
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load author", nil)
		return store.Author{}, false
	}
	return author, true
}

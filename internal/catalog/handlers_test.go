package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pustaka/internal/catalog"
	"github.com/noah-isme/backend-pustaka/internal/store"
)

type booksResponse struct {
	Data       []catalog.BookListItem `json:"data"`
	Pagination struct {
		Page       int `json:"page"`
		PerPage    int `json:"per_page"`
		TotalItems int `json:"total_items"`
	} `json:"pagination"`
}

type bookDetailResponse struct {
	Data catalog.BookDetail `json:"data"`
}

type categoriesResponse struct {
	Data []catalog.Category `json:"data"`
}

type fakeCatalogQueries struct {
	books      []store.Book
	author     store.Author
	categories []store.Category
}

func (f *fakeCatalogQueries) ListBooks(_ context.Context, arg store.ListBooksParams) ([]store.Book, error) {
	end := int(arg.Offset + arg.Limit)
	if end > len(f.books) {
		end = len(f.books)
	}
	start := int(arg.Offset)
	if start > end {
		start = end
	}
	return f.books[start:end], nil
}

func (f *fakeCatalogQueries) CountBooks(_ context.Context, _ store.ListBooksParams) (int64, error) {
	return int64(len(f.books)), nil
}

func (f *fakeCatalogQueries) GetBookBySlug(_ context.Context, slug string) (store.Book, error) {
	for _, b := range f.books {
		if b.Slug == slug {
			return b, nil
		}
	}
	return store.Book{}, pgx.ErrNoRows
}

func (f *fakeCatalogQueries) GetAuthor(_ context.Context, id pgtype.UUID) (store.Author, error) {
	if f.author.ID == id {
		return f.author, nil
	}
	return store.Author{}, pgx.ErrNoRows
}

func (f *fakeCatalogQueries) ListCategories(_ context.Context) ([]store.Category, error) {
	return f.categories, nil
}

func (f *fakeCatalogQueries) GetReviewStats(_ context.Context, _ pgtype.UUID) (int64, float64, error) {
	return 3, 4.5, nil
}

func newFakeCatalogQueries(now time.Time) *fakeCatalogQueries {
	author := store.Author{
		ID:   store.UUID(uuid.New()),
		Name: "Nadia Rahma",
		Slug: "nadia-rahma",
	}
	discounted := store.Book{
		ID:            store.UUID(uuid.New()),
		AuthorID:      author.ID,
		Title:         "Laut Bercerita",
		Slug:          "laut-bercerita",
		Currency:      "USD",
		PriceMinor:    2500,
		DiscountMinor: pgtype.Int8{Int64: 1900, Valid: true},
		DiscountStart: pgtype.Timestamptz{Time: now.Add(-time.Hour), Valid: true},
		DiscountEnd:   pgtype.Timestamptz{Time: now.Add(time.Hour), Valid: true},
		Published:     true,
	}
	free := store.Book{
		ID:         store.UUID(uuid.New()),
		AuthorID:   author.ID,
		Title:      "Panduan Menulis",
		Slug:       "panduan-menulis",
		Currency:   "USD",
		PriceMinor: 1500,
		IsFree:     true,
		Published:  true,
	}
	return &fakeCatalogQueries{
		books:  []store.Book{discounted, free},
		author: author,
		categories: []store.Category{
			{ID: store.UUID(uuid.New()), Name: "Fiction", Slug: "fiction"},
		},
	}
}

func TestCatalogHandlers(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	queries := newFakeCatalogQueries(now)
	svc, err := catalog.NewService(catalog.ServiceConfig{
		Queries:      queries,
		DefaultPage:  1,
		DefaultLimit: 20,
		MaxLimit:     100,
		Now:          func() time.Time { return now },
	})
	require.NoError(t, err)

	handler := catalog.NewHandler(catalog.HandlerConfig{Service: svc})

	t.Run("categories", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil)
		rec := httptest.NewRecorder()
		handler.Categories(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp categoriesResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		require.Equal(t, "fiction", resp.Data[0].Slug)
	})

	t.Run("books list resolves effective prices", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/books", nil)
		rec := httptest.NewRecorder()
		handler.Books(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "2", rec.Header().Get("X-Total-Count"))

		var resp booksResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 2)

		require.Equal(t, int64(2500), resp.Data[0].ListPrice)
		require.Equal(t, int64(1900), resp.Data[0].EffectivePrice)
		require.True(t, resp.Data[0].DiscountActive)

		require.True(t, resp.Data[1].IsFree)
		require.Equal(t, int64(0), resp.Data[1].EffectivePrice)
	})

	t.Run("books list pagination", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/books?limit=1&page=2", nil)
		rec := httptest.NewRecorder()
		handler.Books(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp booksResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		require.Equal(t, "panduan-menulis", resp.Data[0].Slug)
		require.Equal(t, 2, resp.Pagination.Page)
	})

	t.Run("book detail", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/books/laut-bercerita", nil)
		routeCtx := chi.NewRouteContext()
		routeCtx.URLParams.Add("slug", "laut-bercerita")
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
		rec := httptest.NewRecorder()
		handler.BookDetail(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp bookDetailResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "Laut Bercerita", resp.Data.Title)
		require.NotNil(t, resp.Data.Author)
		require.Equal(t, "nadia-rahma", resp.Data.Author.Slug)
		require.Equal(t, int64(3), resp.Data.RatingCount)
		require.InDelta(t, 4.5, resp.Data.RatingAvg, 0.001)
		require.NotNil(t, resp.Data.DiscountEnds)
	})

	t.Run("book detail not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/books/missing", nil)
		routeCtx := chi.NewRouteContext()
		routeCtx.URLParams.Add("slug", "missing")
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
		rec := httptest.NewRecorder()
		handler.BookDetail(rec, req)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("rejects bad filter", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/books?authorId=nope", nil)
		rec := httptest.NewRecorder()
		handler.Books(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestEffectivePriceFallsBackOutsideWindow(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	queries := newFakeCatalogQueries(now)
	svc, err := catalog.NewService(catalog.ServiceConfig{
		Queries: queries,
		// two hours past the discount window end
		Now: func() time.Time { return now.Add(3 * time.Hour) },
	})
	require.NoError(t, err)

	detail, err := svc.GetBookDetail(context.Background(), "laut-bercerita")
	require.NoError(t, err)
	require.Equal(t, int64(2500), detail.EffectivePrice)
	require.False(t, detail.DiscountActive)
	require.Nil(t, detail.DiscountEnds)
}

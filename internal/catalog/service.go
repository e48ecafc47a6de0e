package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-pustaka/internal/common"
	"github.com/noah-isme/backend-pustaka/internal/money"
	"github.com/noah-isme/backend-pustaka/internal/pricing"
	"github.com/noah-isme/backend-pustaka/internal/store"
)

type queryProvider interface {
	ListBooks(ctx context.Context, arg store.ListBooksParams) ([]store.Book, error)
	CountBooks(ctx context.Context, arg store.ListBooksParams) (int64, error)
	GetBookBySlug(ctx context.Context, slug string) (store.Book, error)
	GetAuthor(ctx context.Context, id pgtype.UUID) (store.Author, error)
	ListCategories(ctx context.Context) ([]store.Category, error)
	GetReviewStats(ctx context.Context, bookID pgtype.UUID) (int64, float64, error)
}

// Service orchestrates catalog queries, price resolution, and caching.
type Service struct {
	queries      queryProvider
	cache        *Cache
	defaultPage  int
	defaultLimit int
	maxLimit     int
	now          func() time.Time
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Queries      queryProvider
	Cache        *Cache
	DefaultPage  int
	DefaultLimit int
	MaxLimit     int
	Now          func() time.Time
}

// ListParams captures filters for the public book listing.
type ListParams struct {
	Query      string
	AuthorID   pgtype.UUID
	CategoryID pgtype.UUID
	Sort       string
	Page       int
	Limit      int
}

// BookListItem represents an entry in list responses. Prices are the
// effective minor-unit amounts at request time.
type BookListItem struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Slug           string  `json:"slug"`
	Currency       string  `json:"currency"`
	ListPrice      int64   `json:"listPriceMinor"`
	EffectivePrice int64   `json:"effectivePriceMinor"`
	IsFree         bool    `json:"isFree"`
	DiscountActive bool    `json:"discountActive"`
	CoverURL       *string `json:"coverUrl,omitempty"`
}

// BookDetail aggregates the full detail payload.
type BookDetail struct {
	BookListItem
	Description  string     `json:"description"`
	Author       *Mini      `json:"author,omitempty"`
	RatingCount  int64      `json:"ratingCount"`
	RatingAvg    float64    `json:"ratingAvg"`
	DiscountEnds *time.Time `json:"discountEnds,omitempty"`
	PublishedAt  *time.Time `json:"publishedAt,omitempty"`
}

// Mini is a minimal representation for author metadata.
type Mini struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Category represents the public category payload.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// BookListResult contains list data and pagination metadata.
type BookListResult struct {
	Items []BookListItem
	Total int64
	Page  int
	Limit int
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("catalog: queries provider is required")
	}
	defaultPage := cfg.DefaultPage
	if defaultPage < 1 {
		defaultPage = 1
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 {
		defaultLimit = 20
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		queries:      cfg.Queries,
		cache:        cfg.Cache,
		defaultPage:  defaultPage,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		now:          now,
	}, nil
}

// ParseListParams normalises raw query values into strongly typed filters.
func (s *Service) ParseListParams(values url.Values) (ListParams, error) {
	params := ListParams{
		Page:  s.defaultPage,
		Limit: s.defaultLimit,
	}
	params.Query = strings.TrimSpace(values.Get("q"))

	if v := strings.TrimSpace(values.Get("authorId")); v != "" {
		id, err := store.ParseUUID(v)
		if err != nil {
			return params, badRequest("authorId", "authorId must be a valid uuid", err)
		}
		params.AuthorID = id
	}
	if v := strings.TrimSpace(values.Get("categoryId")); v != "" {
		id, err := store.ParseUUID(v)
		if err != nil {
			return params, badRequest("categoryId", "categoryId must be a valid uuid", err)
		}
		params.CategoryID = id
	}

	if v := strings.TrimSpace(values.Get("page")); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return params, badRequest("page", "page must be a positive integer", err)
		}
		params.Page = page
	}

	limit := s.defaultLimit
	if v := strings.TrimSpace(values.Get("limit")); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 1 {
			return params, badRequest("limit", "limit must be a positive integer", err)
		}
		limit = l
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	params.Limit = limit

	params.Sort = normalizeSort(values.Get("sort"))
	return params, nil
}

// ListBooks returns a filtered page of the published catalog.
func (s *Service) ListBooks(ctx context.Context, params ListParams) (BookListResult, error) {
	key, cacheable := s.listCacheKey(params)
	if cacheable {
		var cached cachedList
		ok, err := s.cache.GetJSON(ctx, key, &cached)
		if err == nil && ok {
			return BookListResult{Items: cached.Items, Total: cached.Total, Page: params.Page, Limit: params.Limit}, nil
		}
	}

	arg := store.ListBooksParams{
		AuthorID:   params.AuthorID,
		CategoryID: params.CategoryID,
		Search:     params.Query,
		Sort:       params.Sort,
		Limit:      int32(params.Limit),
		Offset:     int32((params.Page - 1) * params.Limit),
	}
	total, err := s.queries.CountBooks(ctx, arg)
	if err != nil {
		return BookListResult{}, fmt.Errorf("count books: %w", err)
	}
	rows, err := s.queries.ListBooks(ctx, arg)
	if err != nil {
		return BookListResult{}, fmt.Errorf("list books: %w", err)
	}
	at := s.now()
	items := make([]BookListItem, 0, len(rows))
	for _, b := range rows {
		items = append(items, s.toListItem(b, at))
	}
	result := BookListResult{Items: items, Total: total, Page: params.Page, Limit: params.Limit}
	if cacheable {
		_ = s.cache.SetJSON(ctx, key, cachedList{Items: items, Total: total})
	}
	return result, nil
}

// GetBookDetail returns a published book with author, rating stats and the
// resolved effective price.
func (s *Service) GetBookDetail(ctx context.Context, slug string) (BookDetail, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return BookDetail{}, badRequest("slug", "slug is required", nil)
	}
	cacheKey := detailCacheKey(slug)
	if s.cache != nil {
		var cached BookDetail
		ok, err := s.cache.GetJSON(ctx, cacheKey, &cached)
		if err == nil && ok {
			return cached, nil
		}
	}
	book, err := s.queries.GetBookBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BookDetail{}, &common.AppError{Code: "NOT_FOUND", Message: "book not found", HTTPStatus: http.StatusNotFound, Err: err}
		}
		return BookDetail{}, fmt.Errorf("get book by slug: %w", err)
	}
	at := s.now()
	detail := BookDetail{
		BookListItem: s.toListItem(book, at),
		Description:  book.Description,
	}
	if book.PublishedAt.Valid {
		t := book.PublishedAt.Time
		detail.PublishedAt = &t
	}
	if detail.DiscountActive && book.DiscountEnd.Valid {
		t := book.DiscountEnd.Time
		detail.DiscountEnds = &t
	}
	if author, err := s.queries.GetAuthor(ctx, book.AuthorID); err == nil {
		detail.Author = &Mini{
			ID:   store.FromUUID(author.ID).String(),
			Name: author.Name,
			Slug: author.Slug,
		}
	}
	if count, avg, err := s.queries.GetReviewStats(ctx, book.ID); err == nil {
		detail.RatingCount = count
		detail.RatingAvg = avg
	}
	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, cacheKey, detail)
	}
	return detail, nil
}

// ListCategories returns all categories sorted by name.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.queries.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	result := make([]Category, 0, len(rows))
	for _, row := range rows {
		result = append(result, Category{
			ID:   store.FromUUID(row.ID).String(),
			Name: row.Name,
			Slug: row.Slug,
		})
	}
	return result, nil
}

// InvalidateBook drops the cached detail for a slug plus the popular list.
func (s *Service) InvalidateBook(ctx context.Context, slug string) {
	s.cache.Invalidate(ctx, detailCacheKey(slug), listCacheKeyPopular)
}

func (s *Service) toListItem(b store.Book, at time.Time) BookListItem {
	bp := BookPrice(b)
	effective := pricing.EffectivePrice(bp, at)
	item := BookListItem{
		ID:             store.FromUUID(b.ID).String(),
		Title:          b.Title,
		Slug:           b.Slug,
		Currency:       b.Currency,
		ListPrice:      b.PriceMinor,
		EffectivePrice: effective.MinorUnits(),
		IsFree:         b.IsFree,
		DiscountActive: pricing.DiscountActive(bp, at),
	}
	if b.CoverURL != "" {
		cover := b.CoverURL
		item.CoverURL = &cover
	}
	return item
}

// BookPrice maps a book row onto the price resolver's input.
func BookPrice(b store.Book) pricing.BookPrice {
	bp := pricing.BookPrice{
		Base:   money.New(b.PriceMinor, b.Currency),
		IsFree: b.IsFree,
	}
	if b.DiscountMinor.Valid {
		d := money.New(b.DiscountMinor.Int64, b.Currency)
		bp.Discount = &d
	}
	if b.DiscountStart.Valid {
		t := b.DiscountStart.Time
		bp.DiscountStart = &t
	}
	if b.DiscountEnd.Valid {
		t := b.DiscountEnd.Time
		bp.DiscountEnd = &t
	}
	return bp
}

type cachedList struct {
	Items []BookListItem `json:"items"`
	Total int64          `json:"total"`
}

const listCacheKeyPopular = "catalog:books:list:latest"

func (s *Service) listCacheKey(params ListParams) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	if params.Page != s.defaultPage || params.Limit != s.defaultLimit {
		return "", false
	}
	if params.Query != "" || params.AuthorID.Valid || params.CategoryID.Valid || params.Sort != "" {
		return "", false
	}
	return listCacheKeyPopular, true
}

func detailCacheKey(slug string) string {
	return "catalog:books:detail:" + slug
}

func normalizeSort(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "title", "price":
		return s
	default:
		return ""
	}
}

func badRequest(field, message string, err error) *common.AppError {
	return &common.AppError{
		Code:       "BAD_REQUEST",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
		Details: map[string]any{
			"field": field,
		},
	}
}

package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/noah-isme/backend-pustaka/internal/config"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("ping database: %v", err)
	}

	seedAuthors(ctx, pool)
	seedCategories(ctx, pool)
	seedBooks(ctx, pool)
	seedPromos(ctx, pool)

	log.Println("Seeding completed successfully!")
}

func seedAuthors(ctx context.Context, pool *pgxpool.Pool) {
	authors := []struct {
		Name    string
		Slug    string
		Bio     string
		RateBps *int32
	}{
		{"Maya Chen", "maya-chen", "Writes about distributed systems for working engineers.", nil},
		{"Jonas Berg", "jonas-berg", "Novelist and essayist.", rate(7500)},
		{"Priya Nair", "priya-nair", "Cookbooks and food history.", nil},
		{"Tomasz Kowal", "tomasz-kowal", "Short fiction.", rate(6500)},
	}

	fmt.Println("Seeding Authors...")
	for _, a := range authors {
		_, err := pool.Exec(ctx, `
			INSERT INTO authors (name, slug, bio, royalty_rate_bps)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name, bio = EXCLUDED.bio;
		`, a.Name, a.Slug, a.Bio, a.RateBps)
		if err != nil {
			log.Printf("Failed to seed author %s: %v", a.Slug, err)
		}
	}
}

func seedCategories(ctx context.Context, pool *pgxpool.Pool) {
	categories := []struct {
		Name string
		Slug string
	}{
		{"Fiction", "fiction"},
		{"Non-fiction", "non-fiction"},
		{"Technology", "technology"},
		{"Cooking", "cooking"},
		{"History", "history"},
		{"Self-help", "self-help"},
	}

	fmt.Println("Seeding Categories...")
	for _, c := range categories {
		_, err := pool.Exec(ctx, `
			INSERT INTO categories (name, slug)
			VALUES ($1, $2)
			ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name;
		`, c.Name, c.Slug)
		if err != nil {
			log.Printf("Failed to upsert category %s: %v", c.Name, err)
		}
	}
}

func seedBooks(ctx context.Context, pool *pgxpool.Pool) {
	books := []struct {
		Title      string
		Slug       string
		Author     string
		Category   string
		PriceMinor int64
		IsFree     bool
		Discounted bool
	}{
		{"Queues at Scale", "queues-at-scale", "maya-chen", "technology", 3400, false, true},
		{"The Harbour House", "the-harbour-house", "jonas-berg", "fiction", 1900, false, false},
		{"Midnight Crossing", "midnight-crossing", "jonas-berg", "fiction", 2200, false, false},
		{"Spice Routes", "spice-routes", "priya-nair", "cooking", 2800, false, true},
		{"Weeknight Curries", "weeknight-curries", "priya-nair", "cooking", 1500, false, false},
		{"Field Notes", "field-notes", "tomasz-kowal", "fiction", 0, true, false},
		{"Consensus in Practice", "consensus-in-practice", "maya-chen", "technology", 4100, false, false},
	}

	fmt.Println("Seeding Books...")
	for _, b := range books {
		query := `
			INSERT INTO books (author_id, category_id, title, slug, description, price_minor, is_free,
				published, published_at)
			SELECT a.id, c.id, $3, $4, '', $5, $6, TRUE, now()
			FROM authors a, categories c
			WHERE a.slug = $1 AND c.slug = $2
			ON CONFLICT (slug) DO UPDATE SET price_minor = EXCLUDED.price_minor, is_free = EXCLUDED.is_free;
		`
		if _, err := pool.Exec(ctx, query, b.Author, b.Category, b.Title, b.Slug, b.PriceMinor, b.IsFree); err != nil {
			log.Printf("Failed to seed book %s: %v", b.Slug, err)
			continue
		}
		if b.Discounted {
			_, err := pool.Exec(ctx, `
				UPDATE books
				SET discount_minor = price_minor / 2,
				    discount_start = now() - INTERVAL '1 day',
				    discount_end = now() + INTERVAL '30 days'
				WHERE slug = $1;
			`, b.Slug)
			if err != nil {
				log.Printf("Failed to discount book %s: %v", b.Slug, err)
			}
		}
	}
}

func seedPromos(ctx context.Context, pool *pgxpool.Pool) {
	promos := []struct {
		Code       string
		Kind       string
		Amount     int64
		PercentBps int32
		MinOrder   int64
		MaxUses    int32
	}{
		{"WELCOME10", "percentage", 0, 1000, 0, 0},
		{"READMORE", "fixed", 500, 0, 2000, 1000},
	}

	fmt.Println("Seeding Promo Codes...")
	for _, p := range promos {
		_, err := pool.Exec(ctx, `
			INSERT INTO promo_codes (code, kind, amount_minor, percent_bps, min_order_minor, max_uses,
				is_active, valid_from, valid_to)
			VALUES ($1, $2, $3, $4, $5, $6, TRUE, now(), now() + INTERVAL '1 year')
			ON CONFLICT (code) DO NOTHING;
		`, p.Code, p.Kind, p.Amount, p.PercentBps, p.MinOrder, p.MaxUses)
		if err != nil {
			log.Printf("Failed to seed promo %s: %v", p.Code, err)
		}
	}
}

func rate(bps int32) *int32 { return &bps }

// Package tools - каталог инструментов и категорий (источник записей для наборов выбора).
package tools

import (
	"context"
	"time"

	"ezcode-server/internal/selection"
)

// Tool - запись каталога.
type Tool struct {
	ID           string    `db:"id" json:"id"`
	Title        string    `db:"title" json:"title"`
	Slug         string    `db:"slug" json:"slug"`
	Tagline      string    `db:"tagline" json:"tagline"`
	Description  string    `db:"description" json:"description"`
	CategoryName string    `db:"category_name" json:"category"`
	CategorySlug string    `db:"category_slug" json:"category_slug"`
	LogoURL      string    `db:"logo_url" json:"logo_url"`
	WebsiteURL   string    `db:"website_url" json:"website_url"`
	PricingModel string    `db:"pricing_model" json:"pricing_model"`
	Price        string    `db:"price" json:"price"`
	Rating       float64   `db:"rating" json:"rating"`
	ReviewCount  int       `db:"review_count" json:"review_count"`
	IsFeatured   bool      `db:"is_featured" json:"is_featured"`
	IsTrending   bool      `db:"is_trending" json:"is_trending"`
	IsNew        bool      `db:"is_new" json:"is_new"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Entry - проекция инструмента для наборов сравнения и избранного.
func (t *Tool) Entry() selection.Entry {
	return selection.Entry{
		ID:       t.ID,
		Name:     t.Title,
		Category: t.CategoryName,
		Rating:   t.Rating,
		Price:    t.Price,
	}
}

type Category struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Slug        string `db:"slug" json:"slug"`
	Description string `db:"description" json:"description"`
	Color       string `db:"color" json:"color"`
	SortOrder   int    `db:"sort_order" json:"sort_order"`
}

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Filter - параметры выборки каталога. Пустые поля не фильтруют.
type Filter struct {
	Category string
	Search   string
	Featured bool
	Trending bool
	New      bool
	Limit    int
	Offset   int
}

// Normalize приводит лимиты к допустимым значениям.
func (f Filter) Normalize() Filter {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// Repository - доступ к каталогу.
type Repository interface {
	List(ctx context.Context, f Filter) ([]Tool, error)
	GetByID(ctx context.Context, id string) (*Tool, error)
	GetBySlug(ctx context.Context, slug string) (*Tool, error)
	ListCategories(ctx context.Context) ([]Category, error)
}

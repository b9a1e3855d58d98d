package tools

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"ezcode-server/internal/database"
	"ezcode-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const toolColumns = `
    t.id::text AS id, t.title, t.slug, t.tagline, t.description,
    COALESCE(c.name, '') AS category_name, COALESCE(c.slug, '') AS category_slug,
    t.logo_url, t.website_url, t.pricing_model, t.price, t.rating, t.review_count,
    t.is_featured, t.is_trending, t.is_new, t.created_at`

const (
	baseToolQuery = `SELECT` + toolColumns + `
FROM tools t
LEFT JOIN categories c ON c.id = t.category_id
WHERE t.is_active`

	listCategoriesQuery = `
SELECT id::text AS id, name, slug, description, color, sort_order
FROM categories
WHERE is_active
ORDER BY sort_order, name`
)

type pgRepository struct {
	db     database.DBTX
	logger *zap.Logger
}

var _ Repository = (*pgRepository)(nil)

func NewPgRepository(db database.DBTX, logger *zap.Logger) Repository {
	return &pgRepository{
		db:     db,
		logger: logger.Named("PgToolRepo"),
	}
}

// List возвращает активные инструменты, новые первыми.
func (r *pgRepository) List(ctx context.Context, f Filter) ([]Tool, error) {
	f = f.Normalize()
	query, args := buildListQuery(f)

	tools := make([]Tool, 0)
	if err := pgxscan.Select(ctx, r.db, &tools, query, args...); err != nil {
		r.logger.Error("Failed to list tools", zap.Any("filter", f), zap.Error(err))
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}
	return tools, nil
}

func buildListQuery(f Filter) (string, []any) {
	var sb strings.Builder
	sb.WriteString(baseToolQuery)
	args := make([]any, 0, 4)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.Category != "" {
		sb.WriteString(" AND c.slug = " + arg(f.Category))
	}
	if f.Featured {
		sb.WriteString(" AND t.is_featured")
	}
	if f.Trending {
		sb.WriteString(" AND t.is_trending")
	}
	if f.New {
		sb.WriteString(" AND t.is_new")
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		p := arg("%" + escapeLike(s) + "%")
		sb.WriteString(" AND (t.title ILIKE " + p + " OR t.description ILIKE " + p + " OR t.tagline ILIKE " + p + ")")
	}
	sb.WriteString(" ORDER BY t.created_at DESC, t.title")
	sb.WriteString(" LIMIT " + arg(f.Limit) + " OFFSET " + arg(f.Offset))
	return sb.String(), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *pgRepository) GetByID(ctx context.Context, id string) (*Tool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, models.ErrNotFound
	}
	return r.getOne(ctx, baseToolQuery+" AND t.id = $1", id)
}

func (r *pgRepository) GetBySlug(ctx context.Context, slug string) (*Tool, error) {
	return r.getOne(ctx, baseToolQuery+" AND t.slug = $1", slug)
}

func (r *pgRepository) getOne(ctx context.Context, query string, key string) (*Tool, error) {
	var tool Tool
	if err := pgxscan.Get(ctx, r.db, &tool, query, key); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get tool", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("failed to get tool %s: %w", key, err)
	}
	return &tool, nil
}

func (r *pgRepository) ListCategories(ctx context.Context) ([]Category, error) {
	categories := make([]Category, 0)
	if err := pgxscan.Select(ctx, r.db, &categories, listCategoriesQuery); err != nil {
		r.logger.Error("Failed to list categories", zap.Error(err))
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// Resolve находит инструмент по id или slug.
func Resolve(ctx context.Context, repo Repository, idOrSlug string) (*Tool, error) {
	if _, err := uuid.Parse(idOrSlug); err == nil {
		return repo.GetByID(ctx, idOrSlug)
	}
	return repo.GetBySlug(ctx, idOrSlug)
}

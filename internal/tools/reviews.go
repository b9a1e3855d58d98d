package tools

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

var ErrDuplicateReview = errors.New("user has already reviewed this tool")

const (
	MinReviewRating     = 1
	MaxReviewRating     = 5
	MaxReviewTitleLen   = 120
	MaxReviewContentLen = 5000
)

// Порядок выдачи отзывов.
const (
	ReviewSortNewest  = "newest"
	ReviewSortOldest  = "oldest"
	ReviewSortHighest = "highest"
	ReviewSortLowest  = "lowest"
)

// Review - отзыв пользователя об инструменте. Один отзыв на пользователя.
type Review struct {
	ID         string    `db:"id" json:"id"`
	ToolID     string    `db:"tool_id" json:"tool_id"`
	UserID     string    `db:"user_id" json:"user_id"`
	AuthorName string    `db:"author_name" json:"author_name"`
	Rating     int       `db:"rating" json:"rating"`
	Title      string    `db:"title" json:"title"`
	Content    string    `db:"content" json:"content"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// ReviewInput - тело запроса на создание или правку отзыва.
type ReviewInput struct {
	Rating     int    `json:"rating"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	AuthorName string `json:"author_name"`
}

// Validate возвращает ошибки по полям. Пустой результат - отзыв корректен.
func (in ReviewInput) Validate() map[string]string {
	errs := map[string]string{}
	if in.Rating < MinReviewRating || in.Rating > MaxReviewRating {
		errs["rating"] = "Rating must be between 1 and 5"
	}
	if utf8.RuneCountInString(in.Title) > MaxReviewTitleLen {
		errs["title"] = "Title must be at most 120 characters"
	}
	content := strings.TrimSpace(in.Content)
	switch {
	case content == "":
		errs["content"] = "Review text is required"
	case utf8.RuneCountInString(content) > MaxReviewContentLen:
		errs["content"] = "Review text must be at most 5000 characters"
	}
	return errs
}

// Apply переносит поля ввода в отзыв.
func (in ReviewInput) Apply(r *Review) {
	r.Rating = in.Rating
	r.Title = strings.TrimSpace(in.Title)
	r.Content = strings.TrimSpace(in.Content)
	if name := strings.TrimSpace(in.AuthorName); name != "" {
		r.AuthorName = name
	}
}

// ReviewFilter - параметры списка отзывов. Rating 0 - все оценки.
type ReviewFilter struct {
	Rating int
	Sort   string
	Limit  int
	Offset int
}

const DefaultReviewLimit = 10

func (f ReviewFilter) Normalize() ReviewFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultReviewLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.Rating < MinReviewRating || f.Rating > MaxReviewRating {
		f.Rating = 0
	}
	switch f.Sort {
	case ReviewSortOldest, ReviewSortHighest, ReviewSortLowest:
	default:
		f.Sort = ReviewSortNewest
	}
	return f
}

// ReviewSummary - сводка оценок инструмента.
type ReviewSummary struct {
	Count        int         `json:"count"`
	Average      float64     `json:"average"`
	Distribution map[int]int `json:"distribution"`
}

// ReviewRepository - хранилище отзывов.
type ReviewRepository interface {
	ListReviews(ctx context.Context, toolID string, f ReviewFilter) ([]Review, error)
	SummarizeReviews(ctx context.Context, toolID string) (*ReviewSummary, error)
	GetReview(ctx context.Context, id string) (*Review, error)
	// CreateReview возвращает ErrDuplicateReview, если пользователь уже оставил отзыв.
	CreateReview(ctx context.Context, r *Review) error
	UpdateReview(ctx context.Context, r *Review) error
	DeleteReview(ctx context.Context, id string) error
}

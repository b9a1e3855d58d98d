package tools

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReviewInputValidate(t *testing.T) {
	assert.Empty(t, ReviewInput{Rating: 5, Content: "Great completions"}.Validate())

	errs := ReviewInput{Rating: 0, Content: "   "}.Validate()
	assert.Equal(t, map[string]string{
		"rating":  "Rating must be between 1 and 5",
		"content": "Review text is required",
	}, errs)

	errs = ReviewInput{Rating: 6, Title: strings.Repeat("t", MaxReviewTitleLen+1), Content: strings.Repeat("c", MaxReviewContentLen+1)}.Validate()
	assert.Len(t, errs, 3)
}

func TestReviewInputApply(t *testing.T) {
	r := Review{AuthorName: "Ada"}
	ReviewInput{Rating: 4, Title: " Solid ", Content: " Works well \n", AuthorName: " "}.Apply(&r)
	assert.Equal(t, Review{AuthorName: "Ada", Rating: 4, Title: "Solid", Content: "Works well"}, r)

	ReviewInput{Rating: 3, Content: "ok", AuthorName: "Grace"}.Apply(&r)
	assert.Equal(t, "Grace", r.AuthorName)
}

func TestReviewFilterNormalize(t *testing.T) {
	assert.Equal(t, ReviewFilter{Sort: ReviewSortNewest, Limit: DefaultReviewLimit}, ReviewFilter{Rating: 9, Sort: "random", Offset: -1}.Normalize())
	assert.Equal(t, ReviewFilter{Rating: 4, Sort: ReviewSortLowest, Limit: MaxLimit}, ReviewFilter{Rating: 4, Sort: ReviewSortLowest, Limit: 500}.Normalize())
	for _, sort := range []string{ReviewSortNewest, ReviewSortOldest, ReviewSortHighest, ReviewSortLowest} {
		assert.Contains(t, reviewOrder, sort)
	}
}

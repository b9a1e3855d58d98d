package handler

import (
	"net/http"

	"ezcode-server/internal/models"
	"ezcode-server/internal/tools"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type reviewListResponse struct {
	Data    []tools.Review       `json:"data"`
	Summary *tools.ReviewSummary `json:"summary"`
	Limit   int                  `json:"limit"`
	Offset  int                  `json:"offset"`
}

func (h *Handler) listReviews(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		badRequest(c, "limit must be a number")
		return
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		badRequest(c, "offset must be a number")
		return
	}
	rating, err := queryInt(c, "rating")
	if err != nil {
		badRequest(c, "rating must be a number")
		return
	}

	ctx := c.Request.Context()
	tool, err := tools.Resolve(ctx, h.tools, c.Param("slug"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	f := tools.ReviewFilter{Rating: rating, Sort: c.Query("sort"), Limit: limit, Offset: offset}.Normalize()
	items, err := h.reviews.ListReviews(ctx, tool.ID, f)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	summary, err := h.reviews.SummarizeReviews(ctx, tool.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, reviewListResponse{Data: items, Summary: summary, Limit: f.Limit, Offset: f.Offset})
}

func (h *Handler) createReview(c *gin.Context) {
	userID, ok := models.GetUserIDFromContext(c.Request.Context())
	if !ok {
		handleServiceError(c, models.ErrUnauthorized)
		return
	}
	var in tools.ReviewInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if errs := in.Validate(); len(errs) > 0 {
		validationFailed(c, errs)
		return
	}

	ctx := c.Request.Context()
	tool, err := tools.Resolve(ctx, h.tools, c.Param("slug"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	review := &tools.Review{ToolID: tool.ID, UserID: userID}
	in.Apply(review)
	if err := h.reviews.CreateReview(ctx, review); err != nil {
		handleServiceError(c, err)
		return
	}
	h.logger.Info("Review created", zap.String("reviewID", review.ID), zap.String("toolID", tool.ID), zap.String("userID", userID))
	c.JSON(http.StatusCreated, review)
}

func (h *Handler) updateReview(c *gin.Context) {
	var in tools.ReviewInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if errs := in.Validate(); len(errs) > 0 {
		validationFailed(c, errs)
		return
	}
	review, ok := h.ownedReview(c, false)
	if !ok {
		return
	}
	in.Apply(review)
	if err := h.reviews.UpdateReview(c.Request.Context(), review); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

func (h *Handler) deleteReview(c *gin.Context) {
	review, ok := h.ownedReview(c, true)
	if !ok {
		return
	}
	if err := h.reviews.DeleteReview(c.Request.Context(), review.ID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ownedReview загружает отзыв и проверяет, что его правит автор.
// allowAdmin разрешает модератору действовать над чужим отзывом.
func (h *Handler) ownedReview(c *gin.Context, allowAdmin bool) (*tools.Review, bool) {
	ctx := c.Request.Context()
	userID, ok := models.GetUserIDFromContext(ctx)
	if !ok {
		handleServiceError(c, models.ErrUnauthorized)
		return nil, false
	}
	review, err := h.reviews.GetReview(ctx, c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return nil, false
	}
	if review.UserID == userID {
		return review, true
	}
	if roles, _ := models.GetRolesFromContext(ctx); allowAdmin && models.HasRole(roles, models.RoleAdmin) {
		h.logger.Info("Admin acting on review", zap.String("adminID", userID), zap.String("reviewID", review.ID))
		return review, true
	}
	h.logger.Warn("User tried to modify another user's review", zap.String("userID", userID), zap.String("reviewID", review.ID))
	handleServiceError(c, models.ErrForbidden)
	return nil, false
}

package handler

import (
	"net/http"

	"ezcode-server/internal/models"
	"ezcode-server/internal/submission"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handler) listSubmissions(c *gin.Context) {
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
	f := submission.ListFilter{Status: c.Query("status"), Limit: limit, Offset: offset}.Normalize()

	items, err := h.submissions.List(c.Request.Context(), f)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.PaginatedResponse{Data: items, Limit: f.Limit, Offset: f.Offset})
}

// listMySubmissions - заявки текущего пользователя.
func (h *Handler) listMySubmissions(c *gin.Context) {
	userID, ok := models.GetUserIDFromContext(c.Request.Context())
	if !ok {
		handleServiceError(c, models.ErrUnauthorized)
		return
	}
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
	f := submission.ListFilter{Status: c.Query("status"), UserID: userID, Limit: limit, Offset: offset}.Normalize()

	items, err := h.submissions.List(c.Request.Context(), f)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.PaginatedResponse{Data: items, Limit: f.Limit, Offset: f.Offset})
}

func (h *Handler) getSubmission(c *gin.Context) {
	sub, err := h.submissions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *Handler) reviewSubmission(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required")
		return
	}
	sub, err := h.submissions.Review(c.Request.Context(), c.Param("id"), req.Status, req.Note)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	adminID, _ := models.GetUserIDFromContext(c.Request.Context())
	h.logger.Info("Submission reviewed by admin",
		zap.String("adminID", adminID),
		zap.String("submissionID", sub.ID),
		zap.String("status", sub.Status))
	c.JSON(http.StatusOK, sub)
}

func (h *Handler) listNotifications(c *gin.Context) {
	if h.notifications == nil {
		c.JSON(http.StatusOK, gin.H{"data": []any{}})
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		badRequest(c, "limit must be a number")
		return
	}
	items, err := h.notifications.Recent(c.Request.Context(), int64(limit))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

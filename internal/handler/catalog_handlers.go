package handler

import (
	"net/http"
	"strconv"

	"ezcode-server/internal/models"
	"ezcode-server/internal/tools"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listTools(c *gin.Context) {
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

	f := tools.Filter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Featured: c.Query("featured") == "true",
		Trending: c.Query("trending") == "true",
		New:      c.Query("new") == "true",
		Limit:    limit,
		Offset:   offset,
	}.Normalize()

	items, err := h.tools.List(c.Request.Context(), f)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.PaginatedResponse{Data: items, Limit: f.Limit, Offset: f.Offset})
}

func (h *Handler) getTool(c *gin.Context) {
	tool, err := tools.Resolve(c.Request.Context(), h.tools, c.Param("slug"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, tool)
}

func (h *Handler) listCategories(c *gin.Context) {
	categories, err := h.tools.ListCategories(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": categories})
}

func (h *Handler) getSubmissionFee(c *gin.Context) {
	c.JSON(http.StatusOK, h.submissions.Quote())
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

package handler

import (
	"context"
	"errors"
	"net/http"

	"ezcode-server/internal/models"
	"ezcode-server/internal/selection"
	"ezcode-server/internal/tools"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// setFromPath достает набор :set сессии :sid.
func (h *Handler) setFromPath(c *gin.Context) (*selection.Store, bool) {
	sc, ok := h.sessionFromPath(c)
	if !ok {
		return nil, false
	}
	name, err := selection.ParseName(c.Param("set"))
	if err != nil {
		handleServiceError(c, err)
		return nil, false
	}
	store, err := sc.Set(name)
	if err != nil {
		handleServiceError(c, err)
		return nil, false
	}
	return store, true
}

func setResponse(store *selection.Store) selectionResponse {
	return selectionResponse{Set: store.Name(), Capacity: store.Capacity(), Entries: store.Entries()}
}

func (h *Handler) listSet(c *gin.Context) {
	store, ok := h.setFromPath(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, setResponse(store))
}

// entryFromBody находит инструмент каталога по tool_id (id или slug).
func (h *Handler) entryFromBody(c *gin.Context) (selection.Entry, bool) {
	var req selectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "tool_id is required")
		return selection.Entry{}, false
	}
	tool, err := tools.Resolve(c.Request.Context(), h.tools, req.ToolID)
	if err != nil {
		handleServiceError(c, err)
		return selection.Entry{}, false
	}
	return tool.Entry(), true
}

func (h *Handler) addToSet(c *gin.Context) {
	store, ok := h.setFromPath(c)
	if !ok {
		return
	}
	entry, ok := h.entryFromBody(c)
	if !ok {
		return
	}
	if err := store.Add(c.Request.Context(), entry); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, setResponse(store))
}

func (h *Handler) toggleInSet(c *gin.Context) {
	store, ok := h.setFromPath(c)
	if !ok {
		return
	}
	entry, ok := h.entryFromBody(c)
	if !ok {
		return
	}
	selected, err := store.Toggle(c.Request.Context(), entry)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toggleResponse{selectionResponse: setResponse(store), Selected: selected})
}

func (h *Handler) containsInSet(c *gin.Context) {
	store, ok := h.setFromPath(c)
	if !ok {
		return
	}
	id, err := h.entryID(c.Request.Context(), c.Param("toolId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, containsResponse{ToolID: id, Selected: store.Contains(id)})
}

func (h *Handler) removeFromSet(c *gin.Context) {
	store, ok := h.setFromPath(c)
	if !ok {
		return
	}
	id, err := h.entryID(c.Request.Context(), c.Param("toolId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	store.Remove(c.Request.Context(), id)
	c.JSON(http.StatusOK, setResponse(store))
}

func (h *Handler) clearSet(c *gin.Context) {
	store, ok := h.setFromPath(c)
	if !ok {
		return
	}
	store.Clear(c.Request.Context())
	c.JSON(http.StatusOK, setResponse(store))
}

// entryID переводит slug в id. Неизвестный slug остается как есть: удалять нечего.
func (h *Handler) entryID(ctx context.Context, idOrSlug string) (string, error) {
	if _, err := uuid.Parse(idOrSlug); err == nil {
		return idOrSlug, nil
	}
	tool, err := h.tools.GetBySlug(ctx, idOrSlug)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return idOrSlug, nil
		}
		return "", err
	}
	return tool.ID, nil
}

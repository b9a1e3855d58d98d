package handler

import (
	"errors"
	"net/http"

	"ezcode-server/internal/auth"
	"ezcode-server/internal/realtime"
	"ezcode-server/internal/selection"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handler) createSession(c *gin.Context) {
	userID, _ := auth.UserID(c)
	sc, err := h.sessions.Create(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sc.Summary())
}

func (h *Handler) getSession(c *gin.Context) {
	sc, ok := h.sessionFromPath(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sc.Summary())
}

func (h *Handler) closeSession(c *gin.Context) {
	if err := h.sessions.Close(c.Request.Context(), c.Param("sid")); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// serveWS открывает поток событий наборов сессии. Первыми уходят текущие снимки наборов.
func (h *Handler) serveWS(c *gin.Context) {
	if h.realtime == nil {
		c.AbortWithStatus(http.StatusNotImplemented)
		return
	}
	sc, ok := h.sessionFromPath(c)
	if !ok {
		return
	}

	// Снимки строятся уже после регистрации клиента в хабе.
	initial := func() []realtime.Message {
		msgs := make([]realtime.Message, 0, 2)
		for _, store := range []*selection.Store{sc.Comparison, sc.Favorites} {
			msgs = append(msgs, realtime.Message{
				Type:  realtime.MessageTypeSelection,
				Topic: string(store.Name()),
				Payload: selection.Event{
					Set:     store.Name(),
					Kind:    selection.EventLoaded,
					Entries: store.Entries(),
				},
			})
		}
		return msgs
	}

	if err := h.realtime.ServeWS(c.Writer, c.Request, sc.ID, initial); err != nil {
		if errors.Is(err, realtime.ErrHubStopped) {
			h.logger.Info("Realtime hub stopped, rejecting connection", zap.String("sessionID", sc.ID))
			return
		}
		// Upgrader сам отвечает клиенту при ошибке рукопожатия.
		h.logger.Warn("WebSocket upgrade failed", zap.String("sessionID", sc.ID), zap.Error(err))
	}
}

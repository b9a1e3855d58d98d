// Package handler - HTTP API сервера (gin).
package handler

import (
	"context"
	"net/http"

	"ezcode-server/internal/auth"
	"ezcode-server/internal/models"
	"ezcode-server/internal/notification"
	"ezcode-server/internal/realtime"
	"ezcode-server/internal/session"
	"ezcode-server/internal/submission"
	"ezcode-server/internal/tools"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SubmissionService - операции с заявками, доступные через API.
type SubmissionService interface {
	Quote() submission.Quote
	List(ctx context.Context, f submission.ListFilter) ([]submission.Submission, error)
	Get(ctx context.Context, id string) (*submission.Submission, error)
	Review(ctx context.Context, id, status, note string) (*submission.Submission, error)
}

// NotificationReader читает ленту модератора.
type NotificationReader interface {
	Recent(ctx context.Context, count int64) ([]notification.Notification, error)
}

// RealtimeServer переводит запрос в WebSocket-подписку на события сессии.
type RealtimeServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request, sessionID string, initial func() []realtime.Message) error
}

var (
	_ SubmissionService  = (*submission.Service)(nil)
	_ NotificationReader = (*notification.Store)(nil)
	_ RealtimeServer     = (*realtime.Hub)(nil)
)

// Deps - зависимости обработчиков.
type Deps struct {
	Sessions      *session.Manager
	Tools         tools.Repository
	Reviews       tools.ReviewRepository
	Submissions   SubmissionService
	Notifications NotificationReader
	Realtime      RealtimeServer
	Auth          *auth.Middleware
	// SubmitLimiter ограничивает частоту отправки заявок. nil - без ограничения.
	SubmitLimiter gin.HandlerFunc
}

type Handler struct {
	sessions      *session.Manager
	tools         tools.Repository
	reviews       tools.ReviewRepository
	submissions   SubmissionService
	notifications NotificationReader
	realtime      RealtimeServer
	auth          *auth.Middleware
	submitLimiter gin.HandlerFunc
	logger        *zap.Logger
}

func New(deps Deps, logger *zap.Logger) *Handler {
	return &Handler{
		sessions:      deps.Sessions,
		tools:         deps.Tools,
		reviews:       deps.Reviews,
		submissions:   deps.Submissions,
		notifications: deps.Notifications,
		realtime:      deps.Realtime,
		auth:          deps.Auth,
		submitLimiter: deps.SubmitLimiter,
		logger:        logger.Named("HTTPHandler"),
	}
}

// RegisterRoutes регистрирует /api/v1.
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/api/v1")

	optionalAuth := []gin.HandlerFunc{}
	if h.auth != nil {
		optionalAuth = append(optionalAuth, h.auth.Optional())
	}

	sessions := api.Group("/sessions")
	{
		sessions.POST("", append(optionalAuth, h.createSession)...)
		sessions.GET("/:sid", h.getSession)
		sessions.DELETE("/:sid", h.closeSession)
		sessions.GET("/:sid/ws", h.serveWS)
	}

	wizardGroup := sessions.Group("/:sid/wizard")
	{
		wizardGroup.GET("", h.getWizardState)
		wizardGroup.PUT("/fields/:field", h.updateField)
		wizardGroup.PATCH("/fields", h.updateFields)
		wizardGroup.GET("/steps/:step/validation", h.validateStep)
		wizardGroup.POST("/next", h.goNext)
		wizardGroup.POST("/previous", h.goPrevious)
		wizardGroup.POST("/jump", h.jumpToStep)
		wizardGroup.POST("/reset", h.resetWizard)

		submit := append([]gin.HandlerFunc{}, optionalAuth...)
		if h.submitLimiter != nil {
			submit = append(submit, h.submitLimiter)
		}
		wizardGroup.POST("/submit", append(submit, h.submitWizard)...)
	}

	sets := sessions.Group("/:sid/sets/:set")
	{
		sets.GET("", h.listSet)
		sets.POST("", h.addToSet)
		sets.DELETE("", h.clearSet)
		sets.POST("/toggle", h.toggleInSet)
		sets.GET("/:toolId", h.containsInSet)
		sets.DELETE("/:toolId", h.removeFromSet)
	}

	api.GET("/tools", h.listTools)
	api.GET("/tools/:slug", h.getTool)
	api.GET("/categories", h.listCategories)
	api.GET("/submission-fee", h.getSubmissionFee)

	// Без auth-middleware маршруты пользователя отвечают 401.
	requireUser := []gin.HandlerFunc{}
	if h.auth != nil {
		requireUser = append(requireUser, h.auth.Require())
	}
	if h.reviews != nil {
		api.GET("/tools/:slug/reviews", h.listReviews)
		api.POST("/tools/:slug/reviews", append(requireUser, h.createReview)...)
		api.PUT("/reviews/:id", append(requireUser, h.updateReview)...)
		api.DELETE("/reviews/:id", append(requireUser, h.deleteReview)...)
	}
	api.GET("/me/submissions", append(requireUser, h.listMySubmissions)...)

	admin := api.Group("/admin")
	if h.auth != nil {
		admin.Use(h.auth.Require(models.RoleAdmin))
	}
	{
		admin.GET("/submissions", h.listSubmissions)
		admin.GET("/submissions/:id", h.getSubmission)
		admin.PATCH("/submissions/:id/status", h.reviewSubmission)
		admin.GET("/notifications", h.listNotifications)
	}
}

// sessionFromPath загружает сессию из :sid. При ошибке ответ уже отправлен.
func (h *Handler) sessionFromPath(c *gin.Context) (*session.Context, bool) {
	sc, err := h.sessions.Get(c.Request.Context(), c.Param("sid"))
	if err != nil {
		handleServiceError(c, err)
		return nil, false
	}
	return sc, true
}

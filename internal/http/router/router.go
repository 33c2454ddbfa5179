package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/immo-backend/internal/config"
	"github.com/ignatzorin/immo-backend/internal/http/handlers"
	"github.com/ignatzorin/immo-backend/internal/http/middleware"
	"github.com/ignatzorin/immo-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	contractHandler *handlers.ContractHandler,
	paymentHandler *handlers.PaymentHandler,
	notificationHandler *handlers.NotificationHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")

	// WebSocket авторизуется по query токену, общий middleware не нужен
	api.GET("/ws", wsHandler.Handle)

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))

	// Лимит на мутирующие операции, чтение не ограничиваем
	writeRateLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)

	contracts := protected.Group("/contracts")
	{
		contracts.POST("", writeRateLimit, contractHandler.Create)
		contracts.GET("/:id", contractHandler.Get)
		contracts.PATCH("/:id/terms", writeRateLimit, contractHandler.UpdateTerms)
		contracts.GET("/:id/signatures", contractHandler.Signatures)
		contracts.POST("/:id/signatures", writeRateLimit, contractHandler.Sign)
		contracts.POST("/:id/cancel", writeRateLimit, contractHandler.Cancel)
		contracts.POST("/:id/activate", writeRateLimit, contractHandler.Activate)
		contracts.POST("/:id/lock", writeRateLimit, contractHandler.Lock)
		contracts.POST("/:id/terminate", writeRateLimit, contractHandler.Terminate)
		contracts.POST("/:id/renew", writeRateLimit, contractHandler.Renew)
		contracts.POST("/:id/archive", writeRateLimit, contractHandler.Archive)
		contracts.GET("/:id/payment", paymentHandler.GetByContract)
	}

	payments := protected.Group("/payments")
	{
		payments.POST("", writeRateLimit, paymentHandler.Create)
		payments.GET("/commission", paymentHandler.Commission)
		payments.GET("/:id", paymentHandler.Get)
		payments.POST("/:id/escrow", writeRateLimit, paymentHandler.Escrow)
		payments.POST("/:id/confirm", writeRateLimit, paymentHandler.Confirm)
		payments.POST("/:id/release", writeRateLimit, paymentHandler.Release)
		payments.POST("/:id/refund", writeRateLimit, paymentHandler.Refund)
		payments.POST("/:id/fail", writeRateLimit, paymentHandler.Fail)
	}

	notifications := protected.Group("/notifications")
	{
		notifications.GET("", notificationHandler.List)
		notifications.POST("/:id/read", notificationHandler.MarkRead)
		notifications.POST("/read-all", notificationHandler.MarkAllRead)
	}

	return r
}

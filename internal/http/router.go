package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func NewRouter(handler *Handler, authMiddleware gin.HandlerFunc, env string) *gin.Engine {
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"*"},
		ExposeHeaders:   []string{"Content-Type"},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Signature-verified, not token-authenticated.
	router.POST("/api/v1/webhooks/payments", handler.paymentsWebhook)

	protected := router.Group("/api/v1")
	protected.Use(authMiddleware)
	{
		protected.GET("/orders", handler.listOrders)
		protected.GET("/orders/:id", handler.getOrder)
		protected.POST("/orders", handler.createOrder)
		protected.POST("/orders/:id/accept", handler.acceptOrder)
		protected.POST("/orders/:id/start", handler.startOrder)
		protected.POST("/orders/:id/complete", handler.completeOrder)
		protected.POST("/orders/:id/cancel", handler.cancelOrder)
		protected.POST("/orders/:id/rating", handler.rateOrder)

		protected.GET("/agency-requests", handler.listAgencyRequests)
		protected.POST("/agency-requests", handler.createAgencyRequest)
		protected.POST("/agency-requests/:id/respond", handler.respondAgencyRequest)
		protected.POST("/agency-requests/:id/cancel", handler.cancelAgencyRequest)
		protected.POST("/agency/leave", handler.leaveAgency)

		protected.GET("/notifications", handler.listNotifications)
		protected.PUT("/notifications/:id/read", handler.markNotificationRead)

		protected.GET("/compliance/report", handler.complianceReport)
	}

	return router
}

package api

import (
	"net/http"

	"outreach-backend/internal/auth/delivery"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, h *Handler) {
	requireAuth := delivery.AuthMiddleware(h.authUsecase)

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		auth := api.Group("/auth")
		{
			auth.POST("/login", h.authHandler.Login)
			auth.POST("/register", h.authHandler.Register)
			auth.POST("/refresh", h.authHandler.RefreshToken)
			auth.GET("/me", requireAuth, h.authHandler.Me)
			auth.POST("/logout", h.authHandler.Logout)
		}

		fcm := api.Group("/fcm")
		fcm.Use(requireAuth)
		{
			fcm.POST("/register", h.authHandler.RegisterFCMToken)
			fcm.DELETE("/:token", h.authHandler.UnregisterFCMToken)
		}

		brokers := api.Group("/brokers")
		brokers.Use(requireAuth)
		{
			brokers.GET("", h.brokerHandler.GetBrokers)
			brokers.POST("", h.brokerHandler.UpsertBroker)
			brokers.POST("/reindex", h.brokerHandler.ReindexSearch)
			brokers.GET("/:id", h.brokerHandler.GetBroker)
			brokers.POST("/:id/emails", h.brokerHandler.AttachEmail)
			brokers.GET("/:id/history", h.emailHandler.GetBrokerHistory)
		}

		listings := api.Group("/listings")
		listings.Use(requireAuth)
		{
			listings.GET("", h.listingHandler.GetListings)
			listings.GET("/:id", h.listingHandler.GetListing)
			listings.POST("/import", h.listingHandler.ImportListings)
			listings.POST("/alerts/fetch", h.listingHandler.FetchAlerts)
		}

		outreach := api.Group("/outreach")
		outreach.Use(requireAuth)
		{
			outreach.POST("/run", h.outreachHandler.RunPipeline)
			outreach.POST("/evaluate/:brokerId", h.outreachHandler.EvaluateBroker)
		}

		queue := api.Group("/queue")
		queue.Use(requireAuth)
		{
			queue.GET("", h.outreachHandler.GetQueue)
			queue.GET("/:id", h.outreachHandler.GetSuggestedEmail)
			queue.PATCH("/:id", h.outreachHandler.EditSuggestedEmail)
			queue.POST("/:id/approve", h.outreachHandler.Approve)
			queue.POST("/:id/skip", h.outreachHandler.Skip)
			queue.POST("/:id/send", h.outreachHandler.Send)
		}

		api.GET("/suppressions", requireAuth, h.outreachHandler.GetSuppressions)
		api.GET("/sent", requireAuth, h.outreachHandler.GetSentLogs)

		threads := api.Group("/threads")
		threads.Use(requireAuth)
		{
			threads.GET("", h.emailHandler.GetThreads)
			threads.GET("/:id", h.emailHandler.GetThread)
			threads.PATCH("/:id/close", h.emailHandler.CloseThread)
		}

		sync := api.Group("/sync")
		sync.Use(requireAuth)
		{
			sync.POST("/bootstrap", h.emailHandler.BootstrapSync)
			sync.POST("/incremental", h.emailHandler.IncrementalSync)
			sync.POST("/watch", h.emailHandler.WatchMailbox)
			sync.GET("/state", h.emailHandler.GetSyncState)
		}

		settings := api.Group("/settings")
		settings.Use(requireAuth)
		{
			settings.GET("/delegate", h.settingsHandler.GetDelegateSettings)
			settings.PUT("/delegate", h.settingsHandler.UpdateDelegateSettings)
			settings.POST("/delegate/test", h.settingsHandler.TestDelegateConnection)
		}
	}
}

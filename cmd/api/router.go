package api

import (
	"net/http"

	inboxDelivery "email-insight-backend/internal/inbox/delivery"
	preferencesDelivery "email-insight-backend/internal/preferences/delivery"
	sessionDelivery "email-insight-backend/internal/session/delivery"
	sessionUsecase "email-insight-backend/internal/session/usecase"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, sessionUc sessionUsecase.SessionUsecase, sessionHandler *sessionDelivery.SessionHandler, inboxHandler *inboxDelivery.InboxHandler, preferencesHandler *preferencesDelivery.PreferencesHandler, settingsHandler *SettingsHandler, admins []string) {
	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Session routes
		session := api.Group("/session")
		{
			session.POST("", sessionHandler.Connect)
			session.GET("/me", sessionDelivery.SessionMiddleware(sessionUc), sessionHandler.Me)
			session.DELETE("", sessionDelivery.SessionMiddleware(sessionUc), sessionHandler.Disconnect)
		}

		// Inbox routes (protected)
		inbox := api.Group("/inbox")
		inbox.Use(sessionDelivery.SessionMiddleware(sessionUc))
		{
			inbox.POST("/refresh", inboxHandler.Refresh)
			inbox.POST("/load-more", inboxHandler.LoadMore)
			inbox.GET("/items", inboxHandler.GetItems)
			inbox.GET("/items/:id", inboxHandler.GetItem)
			inbox.POST("/items/:id/read", inboxHandler.MarkAsRead)
			inbox.POST("/items/:id/reply/draft", inboxHandler.DraftReply)
			inbox.POST("/items/:id/reply/send", inboxHandler.SendReply)
		}

		// Preferences routes (protected)
		preferences := api.Group("/preferences")
		preferences.Use(sessionDelivery.SessionMiddleware(sessionUc))
		{
			preferences.GET("", preferencesHandler.GetPreferences)
			preferences.PUT("/classification", preferencesHandler.UpdateClassification)
			preferences.PUT("/reply", preferencesHandler.UpdateReply)
		}

		// Settings routes (admin only) - Runtime configuration
		settings := api.Group("/settings")
		settings.Use(sessionDelivery.SessionMiddleware(sessionUc), sessionDelivery.RequireIdentity(admins))
		{
			settings.GET("/ollama", settingsHandler.GetOllama)
			settings.PUT("/ollama", settingsHandler.UpdateOllama)
			settings.POST("/ollama/test", settingsHandler.TestOllama)
		}
	}
}

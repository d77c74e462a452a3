package handler

import "github.com/gin-gonic/gin"

// Handlers groups every HTTP handler of the API
type Handlers struct {
	Search   *SearchHandler
	Chat     *ChatHandler
	Rankings *RankingsHandler
	System   *SystemHandler
}

// RegisterRoutes mounts the API on router
func RegisterRoutes(router *gin.Engine, h Handlers) {
	router.GET("/health", h.System.Health)
	router.GET("/version", h.System.Version)

	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/meta", h.System.Meta)

		// Filter cascade
		catalog := apiV1.Group("/catalog")
		catalog.GET("/:type/years", h.Search.Years)
		catalog.GET("/:type/makes", h.Search.Makes)
		catalog.GET("/:type/classes", h.Search.Classes)
		catalog.GET("/:type/models", h.Search.Models)
		catalog.GET("/:type/vehicle", h.Search.Vehicle)
		catalog.POST("/cascade", h.Search.Cascade)

		// Estimator and advisory
		apiV1.POST("/estimate", h.Search.Estimate)
		apiV1.GET("/energy-pricing/:type", h.Search.EnergyPricing)
		apiV1.POST("/advisory/report", h.Search.Report)

		// Chat
		chat := apiV1.Group("/chat/sessions")
		chat.POST("", h.Chat.CreateSession)
		chat.GET("/:id", h.Chat.GetSession)
		chat.POST("/:id/messages", h.Chat.SendMessage)
		chat.POST("/:id/messages/stream", h.Chat.SendMessageStream) // Streaming turn

		// Rankings
		apiV1.GET("/rankings", h.Rankings.ByYear)
		apiV1.GET("/rankings/years", h.Rankings.Years)
	}
}

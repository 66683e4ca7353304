package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"buspass/internal/handler"
	"buspass/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	UserHandler   *handler.UserHandler
	RouteHandler  *handler.RouteHandler
	TripHandler   *handler.TripHandler
	WalletHandler *handler.WalletHandler
	LiveHandler   *handler.LiveHandler
	MapHandler    *handler.MapHandler
	RedisClient   *redis.Client
	NewRelicApp   *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	if deps.RedisClient != nil {
		router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// User routes.
		users := v1.Group("/users")
		{
			users.POST("/register", deps.UserHandler.Register)
			users.GET("/:id/balance", deps.UserHandler.GetBalance)
		}

		// Route catalogue.
		routes := v1.Group("/routes")
		{
			routes.GET("", deps.RouteHandler.GetAll)
			routes.GET("/:id", deps.RouteHandler.GetRoute)
		}

		// Trip routes.
		trips := v1.Group("/trips")
		{
			trips.POST("", deps.TripHandler.BookTrip)
			trips.GET("/:id", deps.TripHandler.GetTrip)
			trips.GET("/:id/live", deps.LiveHandler.StreamTrip)
			trips.GET("/:id/position", deps.MapHandler.GetTripPosition)
			trips.POST("/:id/cancel", deps.TripHandler.CancelTrip)
		}

		// Live map reads from the position mirror.
		buses := v1.Group("/buses")
		{
			buses.GET("/nearby", deps.MapHandler.GetNearbyBuses)
		}

		// Rider history.
		riders := v1.Group("/riders")
		{
			riders.GET("/:id/history", deps.TripHandler.GetHistory)
		}

		// Wallet routes.
		wallet := v1.Group("/wallet")
		{
			wallet.POST("/recharge", deps.WalletHandler.Recharge)
			wallet.GET("/:id/transactions", deps.WalletHandler.GetTransactions)
		}
	}

	return router
}

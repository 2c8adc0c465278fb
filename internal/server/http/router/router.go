package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/polkiloo/rewardengine/internal/server/http/handlers"
	"github.com/polkiloo/rewardengine/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.RewardsFacade, health handlers.HealthChecker, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithDecompressFn(gzip.DefaultDecompressHandle)))

	engine.GET("/healthz", handlers.Health(health))
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	accrualHandler := handlers.NewAccrualHandler(facade)
	balanceHandler := handlers.NewBalanceHandler(facade)

	api := engine.Group("/api")
	api.Use(middleware.AuthRequired(facade))
	api.POST("/accruals", accrualHandler.Submit)

	user := api.Group("/user")
	user.GET("/balance", balanceHandler.Summary)
	user.GET("/ledger", balanceHandler.Ledger)

	return engine
}

package router

import (
	"github.com/gin-gonic/gin"

	"housingreview/internal/domain"
	"housingreview/internal/handler"
	"housingreview/internal/middleware"
	"housingreview/internal/service"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	tokens service.TokenService,
	reviewH *handler.ReviewHandler,
	ruleH *handler.RuleHandler,
	statsH *handler.StatsHandler,
	healthH *handler.HealthHandler,
	corsOrigins []string,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(corsOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(tokens))

	reviews := v1.Group("/reviews")
	reviews.POST("", middleware.RequireRole(domain.RoleAdmin, domain.RoleOfficer), reviewH.Submit)
	reviews.GET("", reviewH.List)
	reviews.GET("/export", reviewH.ExportAll)
	reviews.GET("/:id", reviewH.GetByID)
	reviews.GET("/:id/verdict", reviewH.GetVerdict)
	reviews.GET("/:id/files/:index", reviewH.GetFileURL)
	reviews.GET("/:id/export", reviewH.Export)

	v1.GET("/rules", ruleH.List)
	v1.GET("/stats", statsH.GetStats)

	return r
}

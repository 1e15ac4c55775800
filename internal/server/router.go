package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/zypocare/governance-backend/internal/handlers"
	"github.com/zypocare/governance-backend/internal/middleware"
)

type RouterConfig struct {
	AllowOrigins      []string
	AuthMiddleware    *middleware.AuthMiddleware
	CatalogHandler    *handlers.CatalogHandler
	VersionHandler    *handlers.VersionHandler
	ResolutionHandler *handlers.ResolutionHandler
	AuditHandler      *handlers.AuditHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware("governance-backend"))

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)

	// ===============
	// || Protected ||
	// ===============
	gov := router.Group("/api/governance")
	gov.Use(cfg.AuthMiddleware.RequireAuth())

	// Dashboard
	gov.GET("/summary", cfg.CatalogHandler.GetSummary)
	gov.GET("/branches", cfg.CatalogHandler.ListBranches)

	// Catalog
	gov.POST("/policies", cfg.CatalogHandler.CreateDefinition)
	gov.GET("/policies", cfg.CatalogHandler.ListOverview)
	gov.GET("/policies/:code", cfg.CatalogHandler.GetDetail)
	gov.PATCH("/policies/:code", cfg.CatalogHandler.UpdateDefinition)

	// Drafting
	gov.POST("/policies/:code/drafts", cfg.VersionHandler.CreateGlobalDraft)
	gov.POST("/policies/:code/override-drafts", cfg.VersionHandler.CreateOverrideDraft)
	gov.GET("/policies/:code/history", cfg.VersionHandler.ListHistory)

	// Resolution
	gov.GET("/policies/:code/effective", cfg.ResolutionHandler.GetEffective)
	gov.GET("/effective-policies", cfg.ResolutionHandler.GetSnapshot)

	// Lifecycle
	gov.GET("/policy-versions/:id", cfg.VersionHandler.GetVersion)
	gov.PATCH("/policy-versions/:id", cfg.VersionHandler.UpdateDraft)
	gov.DELETE("/policy-versions/:id", cfg.VersionHandler.WithdrawDraft)
	gov.POST("/policy-versions/:id/submit", cfg.VersionHandler.Submit)
	gov.POST("/policy-versions/:id/approve", cfg.VersionHandler.Approve)
	gov.POST("/policy-versions/:id/reject", cfg.VersionHandler.Reject)

	// Review
	gov.GET("/approvals", cfg.VersionHandler.ListApprovals)
	gov.GET("/audit", cfg.AuditHandler.ListPolicyEvents)

	return router
}

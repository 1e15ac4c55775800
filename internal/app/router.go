package app

import (
	"github.com/gin-gonic/gin"

	"github.com/zypocare/governance-backend/internal/server"
)

func wireRouter(cfg Config, handlerset Handlers, mw Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AllowOrigins:      cfg.AllowOrigins,
		AuthMiddleware:    mw.Auth,
		CatalogHandler:    handlerset.Catalog,
		VersionHandler:    handlerset.Version,
		ResolutionHandler: handlerset.Resolution,
		AuditHandler:      handlerset.Audit,
	})
}

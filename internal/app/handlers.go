package app

import (
	"github.com/zypocare/governance-backend/internal/handlers"
	"github.com/zypocare/governance-backend/internal/platform/logger"
)

type Handlers struct {
	Catalog    *handlers.CatalogHandler
	Version    *handlers.VersionHandler
	Resolution *handlers.ResolutionHandler
	Audit      *handlers.AuditHandler
}

func wireHandlers(log *logger.Logger, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Catalog:    handlers.NewCatalogHandler(log, serviceset.Catalog),
		Version:    handlers.NewVersionHandler(log, serviceset.Lifecycle),
		Resolution: handlers.NewResolutionHandler(log, serviceset.Resolution),
		Audit:      handlers.NewAuditHandler(log, serviceset.Audit),
	}
}

package app

import (
	"gorm.io/gorm"

	"github.com/zypocare/governance-backend/internal/platform/logger"
	"github.com/zypocare/governance-backend/internal/services"
)

type Services struct {
	Audit      services.AuditService
	Catalog    services.CatalogService
	Lifecycle  services.LifecycleService
	Resolution services.ResolutionService
}

func wireServices(db *gorm.DB, log *logger.Logger, reposet Repos, clients Clients) Services {
	log.Info("Wiring services...")
	audit := services.NewAuditService(db, log, reposet.AuditEvent)
	return Services{
		Audit:   audit,
		Catalog: services.NewCatalogService(db, log, reposet.PolicyDefinition, reposet.PolicyVersion, reposet.Branch, audit),
		Lifecycle: services.NewLifecycleService(
			db, log,
			reposet.PolicyDefinition,
			reposet.PolicyVersion,
			reposet.Branch,
			clients.Registry,
			audit,
			clients.EventBus,
		),
		Resolution: services.NewResolutionService(db, log, reposet.PolicyDefinition, reposet.PolicyVersion),
	}
}

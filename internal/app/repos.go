package app

import (
	"gorm.io/gorm"

	"github.com/zypocare/governance-backend/internal/platform/logger"
	"github.com/zypocare/governance-backend/internal/repos"
)

type Repos struct {
	Branch           repos.BranchRepo
	PolicyDefinition repos.PolicyDefinitionRepo
	PolicyVersion    repos.PolicyVersionRepo
	AuditEvent       repos.AuditEventRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Branch:           repos.NewBranchRepo(db, log),
		PolicyDefinition: repos.NewPolicyDefinitionRepo(db, log),
		PolicyVersion:    repos.NewPolicyVersionRepo(db, log),
		AuditEvent:       repos.NewAuditEventRepo(db, log),
	}
}

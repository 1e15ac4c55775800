package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/zypocare/governance-backend/internal/platform/logger"
	"github.com/zypocare/governance-backend/internal/types"
	"github.com/zypocare/governance-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "governance", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	serviceLog.Info("Connecting to Postgres...")
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating governance tables...")
	if err := s.db.AutoMigrate(
		&types.Branch{},
		&types.PolicyDefinition{},
		&types.PolicyVersion{},
		&types.PolicyVersionBranch{},
		&types.AuditEvent{},
	); err != nil {
		return fmt.Errorf("auto migrate governance tables: %w", err)
	}
	return EnsureIndexes(s.db)
}

// EnsureIndexes creates the constraints GORM tags cannot express. Shared with
// the sqlite-backed tests, so only portable SQL belongs here.
func EnsureIndexes(gdb *gorm.DB) error {
	// Invariant: a lineage (policy, scope, branch) holds at most one open
	// draft. The zero uuid stands in for the NULL branch of GLOBAL rows so
	// NULL-distinct unique semantics cannot admit a second draft. Withdrawn
	// (soft-deleted) drafts no longer block the lineage.
	if err := gdb.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uniq_policy_version_open_draft
		ON policy_version (policy_id, scope, COALESCE(branch_id, '00000000-0000-0000-0000-000000000000'))
		WHERE status = 'DRAFT' AND deleted_at IS NULL
	`).Error; err != nil {
		return fmt.Errorf("create open-draft unique index: %w", err)
	}
	// Resolution scans APPROVED rows per policy ordered by effective_at.
	if err := gdb.Exec(`
		CREATE INDEX IF NOT EXISTS idx_policy_version_resolution
		ON policy_version (policy_id, effective_at)
		WHERE status = 'APPROVED'
	`).Error; err != nil {
		return fmt.Errorf("create resolution index: %w", err)
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}

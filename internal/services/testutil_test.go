package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	redisclient "github.com/zypocare/governance-backend/internal/clients/redis"
	"github.com/zypocare/governance-backend/internal/db"
	"github.com/zypocare/governance-backend/internal/platform/logger"
	"github.com/zypocare/governance-backend/internal/repos"
	"github.com/zypocare/governance-backend/internal/requestdata"
	"github.com/zypocare/governance-backend/internal/templates"
	"github.com/zypocare/governance-backend/internal/types"
)

// fakeBus records published events instead of hitting redis.
type fakeBus struct {
	mu     sync.Mutex
	events []redisclient.Event
}

func (b *fakeBus) Publish(_ context.Context, event redisclient.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return nil
}

func (b *fakeBus) Close() error { return nil }

func (b *fakeBus) actions() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.Action)
	}
	return out
}

type testEnv struct {
	gdb        *gorm.DB
	log        *logger.Logger
	defRepo    repos.PolicyDefinitionRepo
	verRepo    repos.PolicyVersionRepo
	branchRepo repos.BranchRepo
	registry   *templates.Registry
	bus        *fakeBus
	audit      AuditService
	lifecycle  LifecycleService
	resolution ResolutionService
	catalog    CatalogService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(
		&types.Branch{},
		&types.PolicyDefinition{},
		&types.PolicyVersion{},
		&types.PolicyVersionBranch{},
		&types.AuditEvent{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.EnsureIndexes(gdb); err != nil {
		t.Fatalf("indexes: %v", err)
	}

	env := &testEnv{
		gdb:        gdb,
		log:        log,
		defRepo:    repos.NewPolicyDefinitionRepo(gdb, log),
		verRepo:    repos.NewPolicyVersionRepo(gdb, log),
		branchRepo: repos.NewBranchRepo(gdb, log),
		registry:   templates.NewRegistry(log),
		bus:        &fakeBus{},
	}
	env.audit = NewAuditService(gdb, log, repos.NewAuditEventRepo(gdb, log))
	env.lifecycle = NewLifecycleService(gdb, log, env.defRepo, env.verRepo, env.branchRepo, env.registry, env.audit, env.bus)
	env.resolution = NewResolutionService(gdb, log, env.defRepo, env.verRepo)
	env.catalog = NewCatalogService(gdb, log, env.defRepo, env.verRepo, env.branchRepo, env.audit)
	return env
}

func (env *testEnv) seedDefinition(t *testing.T, code string) *types.PolicyDefinition {
	t.Helper()
	now := time.Now()
	def := &types.PolicyDefinition{
		ID:        uuid.New(),
		Code:      code,
		Name:      code,
		Type:      "OPERATIONAL",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := env.defRepo.Create(context.Background(), nil, def); err != nil {
		t.Fatalf("seed definition %s: %v", code, err)
	}
	return def
}

func (env *testEnv) seedBranch(t *testing.T, code string) *types.Branch {
	t.Helper()
	now := time.Now()
	branch := &types.Branch{
		ID:        uuid.New(),
		Code:      code,
		Name:      code,
		City:      "Lagos",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := env.branchRepo.Upsert(context.Background(), nil, []*types.Branch{branch}); err != nil {
		t.Fatalf("seed branch %s: %v", code, err)
	}
	return branch
}

func superCtx(userID uuid.UUID) context.Context {
	return requestdata.WithActor(context.Background(), &requestdata.Actor{
		UserID: userID,
		Role:   requestdata.RoleSuperAdmin,
	})
}

func branchCtx(userID, branchID uuid.UUID) context.Context {
	return requestdata.WithActor(context.Background(), &requestdata.Actor{
		UserID:   userID,
		Role:     "BRANCH_ADMIN",
		BranchID: &branchID,
	})
}

// approveAs walks a draft through submit (as its creator) and approval (as
// a second super admin).
func (env *testEnv) approveAs(t *testing.T, creatorCtx context.Context, approverID uuid.UUID, versionID uuid.UUID) *types.PolicyVersion {
	t.Helper()
	if _, err := env.lifecycle.Submit(creatorCtx, versionID); err != nil {
		t.Fatalf("submit %s: %v", versionID, err)
	}
	v, err := env.lifecycle.Approve(superCtx(approverID), versionID, nil)
	if err != nil {
		t.Fatalf("approve %s: %v", versionID, err)
	}
	return v
}

// setEffectiveAt backdoors a version's effective date without touching the
// draft-edit path, for shaping resolution fixtures.
func (env *testEnv) setEffectiveAt(t *testing.T, versionID uuid.UUID, at time.Time) {
	t.Helper()
	if err := env.gdb.Model(&types.PolicyVersion{}).Where("id = ?", versionID).
		Update("effective_at", at).Error; err != nil {
		t.Fatalf("set effective_at: %v", err)
	}
}

package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/zypocare/governance-backend/internal/platform/apierr"
	"github.com/zypocare/governance-backend/internal/types"
)

// approveGlobal drives one global version from draft to approved with the
// given payload.
func approveGlobal(t *testing.T, env *testEnv, code, payload string) *types.PolicyVersion {
	t.Helper()
	maker, checker := uuid.New(), uuid.New()
	ctx := superCtx(maker)
	v, err := env.lifecycle.CreateGlobalDraft(ctx, code)
	if err != nil {
		t.Fatalf("global draft: %v", err)
	}
	if _, err := env.lifecycle.UpdateDraft(ctx, v.ID, DraftPatch{
		Payload:           json.RawMessage(payload),
		ExpectedUpdatedAt: v.UpdatedAt,
	}); err != nil {
		t.Fatalf("fill global draft: %v", err)
	}
	return env.approveAs(t, ctx, checker, v.ID)
}

func approveOverride(t *testing.T, env *testEnv, code string, branchID uuid.UUID, payload string) *types.PolicyVersion {
	t.Helper()
	maker, checker := uuid.New(), uuid.New()
	ctx := branchCtx(maker, branchID)
	v, err := env.lifecycle.CreateBranchOverrideDraft(ctx, code, branchID)
	if err != nil {
		t.Fatalf("override draft: %v", err)
	}
	if _, err := env.lifecycle.UpdateDraft(ctx, v.ID, DraftPatch{
		Payload:           json.RawMessage(payload),
		ExpectedUpdatedAt: v.UpdatedAt,
	}); err != nil {
		t.Fatalf("fill override draft: %v", err)
	}
	return env.approveAs(t, ctx, checker, v.ID)
}

func TestResolveOverrideBeatsGlobal(t *testing.T) {
	env := newTestEnv(t)
	env.seedDefinition(t, "RETENTION_CLINICAL_RECORDS")
	branch := env.seedBranch(t, "LAG01")
	plain := env.seedBranch(t, "ABJ01")

	approveGlobal(t, env, "RETENTION_CLINICAL_RECORDS", `{"retention_years":7}`)
	approveOverride(t, env, "RETENTION_CLINICAL_RECORDS", branch.ID, `{"retention_years":10}`)

	reader := superCtx(uuid.New())
	got, err := env.resolution.Resolve(reader, "RETENTION_CLINICAL_RECORDS", branch.ID, time.Now())
	if err != nil {
		t.Fatalf("resolve override branch: %v", err)
	}
	if got.Scope != types.ScopeBranchOverride {
		t.Fatalf("override branch scope: want=%s got=%s", types.ScopeBranchOverride, got.Scope)
	}
	if string(got.Payload) != `{"retention_years":10}` {
		t.Fatalf("override payload: got %s", got.Payload)
	}

	got, err = env.resolution.Resolve(reader, "RETENTION_CLINICAL_RECORDS", plain.ID, time.Now())
	if err != nil {
		t.Fatalf("resolve plain branch: %v", err)
	}
	if got.Scope != types.ScopeGlobal {
		t.Fatalf("plain branch scope: want=%s got=%s", types.ScopeGlobal, got.Scope)
	}
	if string(got.Payload) != `{"retention_years":7}` {
		t.Fatalf("global payload: got %s", got.Payload)
	}
}

func TestResolveEffectiveDating(t *testing.T) {
	env := newTestEnv(t)
	env.seedDefinition(t, "CONSENT_DEFAULTS")
	branch := env.seedBranch(t, "LAG01")
	reader := superCtx(uuid.New())

	v1 := approveGlobal(t, env, "CONSENT_DEFAULTS", `{"mode":"opt-in"}`)
	env.setEffectiveAt(t, v1.ID, time.Now().Add(-48*time.Hour))

	v2 := approveGlobal(t, env, "CONSENT_DEFAULTS", `{"mode":"opt-out"}`)
	future := time.Now().Add(24 * time.Hour)
	env.setEffectiveAt(t, v2.ID, future)

	// Before v2's effective date, v1 still wins.
	got, err := env.resolution.Resolve(reader, "CONSENT_DEFAULTS", branch.ID, time.Now())
	if err != nil {
		t.Fatalf("resolve now: %v", err)
	}
	if got.Version != v1.Version {
		t.Fatalf("pre-cutover: want=v%d got=v%d", v1.Version, got.Version)
	}

	// At and after the cutover, v2 wins.
	got, err = env.resolution.Resolve(reader, "CONSENT_DEFAULTS", branch.ID, future.Add(time.Minute))
	if err != nil {
		t.Fatalf("resolve future: %v", err)
	}
	if got.Version != v2.Version {
		t.Fatalf("post-cutover: want=v%d got=v%d", v2.Version, got.Version)
	}

	// Before anything was effective there is no answer, but the code is
	// still a real one: nil result, no error.
	got, err = env.resolution.Resolve(reader, "CONSENT_DEFAULTS", branch.ID, time.Now().Add(-30*24*time.Hour))
	if err != nil {
		t.Fatalf("pre-history resolve: %v", err)
	}
	if got != nil {
		t.Fatalf("pre-history resolve: want=nil got=v%d", got.Version)
	}
}

func TestResolveTieBreakByVersion(t *testing.T) {
	env := newTestEnv(t)
	env.seedDefinition(t, "AUDIT_LOGGING")
	branch := env.seedBranch(t, "LAG01")
	reader := superCtx(uuid.New())

	cutover := time.Now().Add(-time.Hour).Truncate(time.Second)
	v1 := approveGlobal(t, env, "AUDIT_LOGGING", `{"sink":"siem"}`)
	env.setEffectiveAt(t, v1.ID, cutover)
	v2 := approveGlobal(t, env, "AUDIT_LOGGING", `{"sink":"s3"}`)
	env.setEffectiveAt(t, v2.ID, cutover)

	got, err := env.resolution.Resolve(reader, "AUDIT_LOGGING", branch.ID, time.Now())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.Version != v2.Version {
		t.Fatalf("equal effective_at breaks by greatest version: want=v%d got=v%d", v2.Version, got.Version)
	}
}

func TestResolveHonorsRolloutSubset(t *testing.T) {
	env := newTestEnv(t)
	env.seedDefinition(t, "EXPORT_GUARDRAILS")
	in := env.seedBranch(t, "LAG01")
	out := env.seedBranch(t, "ABJ01")
	maker, checker := uuid.New(), uuid.New()
	ctx := superCtx(maker)
	reader := superCtx(uuid.New())

	v, err := env.lifecycle.CreateGlobalDraft(ctx, "EXPORT_GUARDRAILS")
	if err != nil {
		t.Fatalf("draft: %v", err)
	}
	off := false
	if _, err := env.lifecycle.UpdateDraft(ctx, v.ID, DraftPatch{
		Payload:            json.RawMessage(`{"max_rows":5000}`),
		ApplyToAllBranches: &off,
		BranchIDs:          []uuid.UUID{in.ID},
		ExpectedUpdatedAt:  v.UpdatedAt,
	}); err != nil {
		t.Fatalf("target subset: %v", err)
	}
	env.approveAs(t, ctx, checker, v.ID)

	got, err := env.resolution.Resolve(reader, "EXPORT_GUARDRAILS", in.ID, time.Now())
	if err != nil || got == nil {
		t.Fatalf("targeted branch: got=%v err=%v", got, err)
	}
	got, err = env.resolution.Resolve(reader, "EXPORT_GUARDRAILS", out.ID, time.Now())
	if err != nil {
		t.Fatalf("untargeted branch: %v", err)
	}
	if got != nil {
		t.Fatalf("untargeted branch sees nothing in force: got v%d", got.Version)
	}
}

func TestResolveNoneInForceIsNotUnknownCode(t *testing.T) {
	env := newTestEnv(t)
	env.seedDefinition(t, "CONSENT_DEFAULTS")
	branch := env.seedBranch(t, "LAG01")
	reader := superCtx(uuid.New())

	// A cataloged policy with no approved version resolves to nothing,
	// without an error.
	got, err := env.resolution.Resolve(reader, "CONSENT_DEFAULTS", branch.ID, time.Now())
	if err != nil {
		t.Fatalf("none in force: %v", err)
	}
	if got != nil {
		t.Fatalf("none in force: want=nil got=v%d", got.Version)
	}
	payload, err := env.resolution.ResolvePayload(reader, "CONSENT_DEFAULTS", branch.ID, time.Now())
	if err != nil {
		t.Fatalf("none in force payload: %v", err)
	}
	if payload != nil {
		t.Fatalf("none in force payload: want=nil got=%v", payload)
	}

	// A code that is not in the catalog is a NotFound error.
	if _, err := env.resolution.Resolve(reader, "NO_SUCH_POLICY", branch.ID, time.Now()); !apierr.IsKind(err, apierr.KindNotFound) {
		t.Fatalf("unknown code: want=%s got=%v", apierr.KindNotFound, err)
	}
	if _, err := env.resolution.ResolvePayload(reader, "NO_SUCH_POLICY", branch.ID, time.Now()); !apierr.IsKind(err, apierr.KindNotFound) {
		t.Fatalf("unknown code payload: want=%s got=%v", apierr.KindNotFound, err)
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	env := newTestEnv(t)
	env.seedDefinition(t, "BREAK_GLASS")
	branch := env.seedBranch(t, "LAG01")
	reader := superCtx(uuid.New())

	approveGlobal(t, env, "BREAK_GLASS", `{"ttl_minutes":15}`)
	approveOverride(t, env, "BREAK_GLASS", branch.ID, `{"ttl_minutes":5}`)

	asOf := time.Now()
	first, err := env.resolution.Resolve(reader, "BREAK_GLASS", branch.ID, asOf)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := env.resolution.Resolve(reader, "BREAK_GLASS", branch.ID, asOf)
		if err != nil {
			t.Fatalf("resolve round %d: %v", i, err)
		}
		if again.VersionID != first.VersionID {
			t.Fatalf("round %d picked %s, first pick was %s", i, again.VersionID, first.VersionID)
		}
	}
}

func TestResolvePayloadDeepMerge(t *testing.T) {
	env := newTestEnv(t)
	env.seedDefinition(t, "EXPORT_GUARDRAILS")
	branch := env.seedBranch(t, "LAG01")
	reader := superCtx(uuid.New())

	approveGlobal(t, env, "EXPORT_GUARDRAILS", `{"max_rows":5000,"formats":{"csv":true,"pdf":true}}`)
	approveOverride(t, env, "EXPORT_GUARDRAILS", branch.ID, `{"formats":{"pdf":false}}`)

	merged, err := env.resolution.ResolvePayload(reader, "EXPORT_GUARDRAILS", branch.ID, time.Now())
	if err != nil {
		t.Fatalf("resolve payload: %v", err)
	}
	m, ok := merged.(map[string]interface{})
	if !ok {
		t.Fatalf("merged payload type: %T", merged)
	}
	if m["max_rows"] != float64(5000) {
		t.Fatalf("global key survives: got %v", m["max_rows"])
	}
	formats, ok := m["formats"].(map[string]interface{})
	if !ok {
		t.Fatalf("formats type: %T", m["formats"])
	}
	if formats["csv"] != true || formats["pdf"] != false {
		t.Fatalf("merge result: csv=%v pdf=%v", formats["csv"], formats["pdf"])
	}
}

func TestSnapshot(t *testing.T) {
	env := newTestEnv(t)
	env.seedDefinition(t, "AUDIT_LOGGING")
	env.seedDefinition(t, "CONSENT_DEFAULTS")
	env.seedDefinition(t, "BREAK_GLASS") // stays empty
	branch := env.seedBranch(t, "LAG01")

	approveGlobal(t, env, "AUDIT_LOGGING", `{"sink":"siem"}`)
	approveGlobal(t, env, "CONSENT_DEFAULTS", `{"mode":"opt-in"}`)
	approveOverride(t, env, "CONSENT_DEFAULTS", branch.ID, `{"mode":"opt-out"}`)

	branchUser := branchCtx(uuid.New(), branch.ID)
	snap, err := env.resolution.Snapshot(branchUser, branch.ID, time.Now())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap) != 2 {
		t.Fatalf("snapshot length: want=2 got=%d", len(snap))
	}
	byCode := map[string]*Effective{}
	for _, e := range snap {
		byCode[e.PolicyCode] = e
	}
	if byCode["AUDIT_LOGGING"] == nil || byCode["AUDIT_LOGGING"].Scope != types.ScopeGlobal {
		t.Fatalf("audit entry: %+v", byCode["AUDIT_LOGGING"])
	}
	if byCode["CONSENT_DEFAULTS"] == nil || byCode["CONSENT_DEFAULTS"].Scope != types.ScopeBranchOverride {
		t.Fatalf("consent entry: %+v", byCode["CONSENT_DEFAULTS"])
	}

	// Branch staff cannot snapshot another branch.
	other := env.seedBranch(t, "ABJ01")
	if _, err := env.resolution.Snapshot(branchUser, other.ID, time.Now()); !apierr.IsKind(err, apierr.KindForbidden) {
		t.Fatalf("cross-branch snapshot: want=%s got=%v", apierr.KindForbidden, err)
	}
}

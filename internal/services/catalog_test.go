package services

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"github.com/zypocare/governance-backend/internal/platform/apierr"
)

func TestCreateDefinition(t *testing.T) {
	env := newTestEnv(t)
	admin := superCtx(uuid.New())

	def, err := env.catalog.CreateDefinition(admin, "visit_window", "Visit Window", "", "Max booking horizon")
	if err != nil {
		t.Fatalf("create definition: %v", err)
	}
	if def.Code != "VISIT_WINDOW" {
		t.Fatalf("code should be normalized: got %s", def.Code)
	}
	if def.Type != "OPERATIONAL" {
		t.Fatalf("type should default: got %s", def.Type)
	}

	if _, err := env.catalog.CreateDefinition(admin, "VISIT_WINDOW", "Dup", "", ""); !apierr.IsKind(err, apierr.KindInvalidArgument) {
		t.Fatalf("duplicate code: want=%s got=%v", apierr.KindInvalidArgument, err)
	}
	if _, err := env.catalog.CreateDefinition(admin, "ab", "Too Short", "", ""); !apierr.IsKind(err, apierr.KindInvalidArgument) {
		t.Fatalf("short code: want=%s got=%v", apierr.KindInvalidArgument, err)
	}
	if _, err := env.catalog.CreateDefinition(admin, "BAD-CODE", "Hyphens", "", ""); !apierr.IsKind(err, apierr.KindInvalidArgument) {
		t.Fatalf("bad charset: want=%s got=%v", apierr.KindInvalidArgument, err)
	}

	branch := env.seedBranch(t, "LAG01")
	if _, err := env.catalog.CreateDefinition(branchCtx(uuid.New(), branch.ID), "NEW_ONE", "New", "", ""); !apierr.IsKind(err, apierr.KindForbidden) {
		t.Fatalf("branch admin create: want=%s got=%v", apierr.KindForbidden, err)
	}
}

func TestUpdateDescription(t *testing.T) {
	env := newTestEnv(t)
	admin := superCtx(uuid.New())
	env.seedDefinition(t, "AUDIT_LOGGING")

	def, err := env.catalog.UpdateDescription(admin, "AUDIT_LOGGING", "Who accessed what, and when")
	if err != nil {
		t.Fatalf("update description: %v", err)
	}
	if def.Description != "Who accessed what, and when" {
		t.Fatalf("description not applied: %s", def.Description)
	}

	reread, err := env.catalog.GetDefinition(admin, "AUDIT_LOGGING")
	if err != nil {
		t.Fatalf("get definition: %v", err)
	}
	if reread.Description != def.Description {
		t.Fatalf("description not persisted: %s", reread.Description)
	}

	if _, err := env.catalog.UpdateDescription(admin, "NOPE_NOPE", "x"); !apierr.IsKind(err, apierr.KindNotFound) {
		t.Fatalf("unknown code: want=%s got=%v", apierr.KindNotFound, err)
	}
}

func TestListOverviewAndSummary(t *testing.T) {
	env := newTestEnv(t)
	env.seedDefinition(t, "AUDIT_LOGGING")
	env.seedDefinition(t, "CONSENT_DEFAULTS")
	env.seedBranch(t, "LAG01")
	env.seedBranch(t, "ABJ01")
	maker, checker := uuid.New(), uuid.New()
	ctx := superCtx(maker)

	v1, _ := env.lifecycle.CreateGlobalDraft(ctx, "AUDIT_LOGGING")
	if _, err := env.lifecycle.UpdateDraft(ctx, v1.ID, DraftPatch{
		Payload:           json.RawMessage(`{"sink":"siem"}`),
		ExpectedUpdatedAt: v1.UpdatedAt,
	}); err != nil {
		t.Fatalf("fill draft: %v", err)
	}
	env.approveAs(t, ctx, checker, v1.ID)

	v2, _ := env.lifecycle.CreateGlobalDraft(ctx, "AUDIT_LOGGING")
	if _, err := env.lifecycle.Submit(ctx, v2.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	rows, err := env.catalog.ListOverview(ctx)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("overview rows: want=2 got=%d", len(rows))
	}
	var audit *PolicyOverview
	for _, r := range rows {
		if r.Definition.Code == "AUDIT_LOGGING" {
			audit = r
		}
	}
	if audit == nil {
		t.Fatalf("AUDIT_LOGGING row missing")
	}
	if audit.LatestApproved == nil || audit.LatestApproved.Version != 1 {
		t.Fatalf("latest approved: %+v", audit.LatestApproved)
	}
	if audit.OpenDraft != nil {
		t.Fatalf("v2 is submitted, not an open draft")
	}
	if audit.PendingCount != 1 {
		t.Fatalf("pending count: want=1 got=%d", audit.PendingCount)
	}

	summary, err := env.catalog.GetSummary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.DefinitionCount != 2 {
		t.Fatalf("definition count: want=2 got=%d", summary.DefinitionCount)
	}
	if summary.PendingApprovals != 1 {
		t.Fatalf("pending approvals: want=1 got=%d", summary.PendingApprovals)
	}
	if summary.BranchCount != 2 {
		t.Fatalf("branch count: want=2 got=%d", summary.BranchCount)
	}
	if summary.EventsLast7Days == 0 {
		t.Fatalf("lifecycle activity should leave audit events")
	}

	detail, err := env.catalog.GetDetail(ctx, "AUDIT_LOGGING")
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if len(detail.History) != 2 {
		t.Fatalf("detail history: want=2 got=%d", len(detail.History))
	}
}

func TestDraftPayloadValidatedAgainstTemplate(t *testing.T) {
	env := newTestEnv(t)
	env.seedDefinition(t, "EXPORT_GUARDRAILS")
	if err := env.registry.Register("EXPORT_GUARDRAILS", map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"max_rows"},
		"properties": map[string]interface{}{
			"max_rows": map[string]interface{}{"type": "integer", "minimum": 1},
		},
	}); err != nil {
		t.Fatalf("register template: %v", err)
	}
	ctx := superCtx(uuid.New())

	v, err := env.lifecycle.CreateGlobalDraft(ctx, "EXPORT_GUARDRAILS")
	if err != nil {
		t.Fatalf("draft: %v", err)
	}
	if _, err := env.lifecycle.UpdateDraft(ctx, v.ID, DraftPatch{
		Payload:           json.RawMessage(`{"max_rows":"plenty"}`),
		ExpectedUpdatedAt: v.UpdatedAt,
	}); !apierr.IsKind(err, apierr.KindInvalidArgument) {
		t.Fatalf("bad payload edit: want=%s got=%v", apierr.KindInvalidArgument, err)
	}
	if _, err := env.lifecycle.UpdateDraft(ctx, v.ID, DraftPatch{
		Payload:           json.RawMessage(`{"max_rows":5000}`),
		ExpectedUpdatedAt: v.UpdatedAt,
	}); err != nil {
		t.Fatalf("good payload edit: %v", err)
	}
}

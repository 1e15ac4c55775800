package seed

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/zypocare/governance-backend/internal/platform/logger"
	"github.com/zypocare/governance-backend/internal/repos"
	"github.com/zypocare/governance-backend/internal/types"
)

type policySeed struct {
	Code        string
	Name        string
	Type        string
	Description string
	Baseline    string
}

var catalog = []policySeed{
	{
		Code:        "RETENTION_CLINICAL_RECORDS",
		Name:        "Clinical record retention",
		Type:        "COMPLIANCE",
		Description: "How long clinical records are kept before archival",
		Baseline:    `{"opdYears":7,"ipdYears":10,"labYears":5,"imagingYears":7,"medicoLegalHold":{"enabled":true,"minYears":15}}`,
	},
	{
		Code:        "CONSENT_DEFAULTS",
		Name:        "Consent defaults",
		Type:        "COMPLIANCE",
		Description: "Default consent posture for new patient registrations",
		Baseline:    `{"defaultScope":["VIEW","STORE"],"defaultStatus":"GRANTED","shareToPatientPortal":false,"smsConsentRequired":true}`,
	},
	{
		Code:        "AUDIT_LOGGING",
		Name:        "Audit logging",
		Type:        "SECURITY",
		Description: "What access is recorded and where it is shipped",
		Baseline:    `{"enabled":true,"logPHIAccess":true,"logExports":true,"logBreakGlass":true,"retentionDays":365}`,
	},
	{
		Code:        "EXPORT_GUARDRAILS",
		Name:        "Export guardrails",
		Type:        "SECURITY",
		Description: "Limits on bulk data export from branch consoles",
		Baseline:    `{"maxRows":5000,"requireReason":true,"watermark":true,"allowPHIExport":false,"approvalRequiredAboveRows":1000}`,
	},
	{
		Code:        "BREAK_GLASS",
		Name:        "Break-glass access",
		Type:        "SECURITY",
		Description: "Emergency access window and review requirements",
		Baseline:    `{"enabled":true,"requireJustification":true,"autoExpireMinutes":30,"notifySecurity":true}`,
	},
}

var branches = []struct {
	Code string
	Name string
	City string
}{
	{Code: "LAG01", Name: "Lagos Island Clinic", City: "Lagos"},
	{Code: "ABJ01", Name: "Abuja Central Hospital", City: "Abuja"},
	{Code: "PHC01", Name: "Port Harcourt Annex", City: "Port Harcourt"},
}

// Run installs the starter catalog, demo branches, and an approved v1
// global baseline per policy. It is idempotent: lineages that already
// have any version are left alone.
func Run(ctx context.Context, db *gorm.DB, log *logger.Logger,
	defRepo repos.PolicyDefinitionRepo, versionRepo repos.PolicyVersionRepo, branchRepo repos.BranchRepo) error {

	log = log.With("component", "seed")
	now := time.Now()

	rows := make([]*types.Branch, 0, len(branches))
	for _, b := range branches {
		rows = append(rows, &types.Branch{
			ID:        uuid.New(),
			Code:      b.Code,
			Name:      b.Name,
			City:      b.City,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	if err := branchRepo.Upsert(ctx, nil, rows); err != nil {
		return err
	}

	systemUser := uuid.NameSpaceOID // stable marker for seeded rows

	for _, p := range catalog {
		def, err := defRepo.GetByCode(ctx, nil, p.Code)
		if err != nil {
			return err
		}
		if def == nil {
			def = &types.PolicyDefinition{
				ID:          uuid.New(),
				Code:        p.Code,
				Name:        p.Name,
				Type:        p.Type,
				Description: p.Description,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := defRepo.Create(ctx, nil, def); err != nil {
				return err
			}
			log.Info("Seeded policy definition", "code", p.Code)
		}

		max, err := versionRepo.MaxVersion(ctx, nil, def.ID, types.ScopeGlobal, nil)
		if err != nil {
			return err
		}
		if max > 0 {
			continue
		}
		approvedAt := now
		baseline := &types.PolicyVersion{
			ID:                 uuid.New(),
			PolicyID:           def.ID,
			Scope:              types.ScopeGlobal,
			Version:            1,
			Status:             types.StatusApproved,
			EffectiveAt:        now,
			Payload:            datatypes.JSON(p.Baseline),
			ApplyToAllBranches: true,
			CreatedByUserID:    systemUser,
			ApprovedAt:         &approvedAt,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := versionRepo.Create(ctx, nil, baseline); err != nil {
			return err
		}
		log.Info("Seeded baseline policy version", "code", p.Code, "version", 1)
	}
	return nil
}

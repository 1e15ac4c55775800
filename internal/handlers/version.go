package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/zypocare/governance-backend/internal/platform/logger"
	"github.com/zypocare/governance-backend/internal/services"
	"github.com/zypocare/governance-backend/internal/types"
)

type VersionHandler struct {
	log          *logger.Logger
	lifecycleSvc services.LifecycleService
}

func NewVersionHandler(log *logger.Logger, lifecycleSvc services.LifecycleService) *VersionHandler {
	return &VersionHandler{
		log:          log.With("handler", "VersionHandler"),
		lifecycleSvc: lifecycleSvc,
	}
}

// POST /api/governance/policies/:code/drafts
func (h *VersionHandler) CreateGlobalDraft(c *gin.Context) {
	v, err := h.lifecycleSvc.CreateGlobalDraft(c.Request.Context(), c.Param("code"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, v)
}

type createOverrideDraftRequest struct {
	BranchID uuid.UUID `json:"branch_id" binding:"required"`
}

// POST /api/governance/policies/:code/override-drafts
func (h *VersionHandler) CreateOverrideDraft(c *gin.Context) {
	var req createOverrideDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ARGUMENT", fmt.Errorf("invalid request body: %w", err))
		return
	}
	v, err := h.lifecycleSvc.CreateBranchOverrideDraft(c.Request.Context(), c.Param("code"), req.BranchID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, v)
}

type updateDraftRequest struct {
	Payload            json.RawMessage `json:"payload,omitempty"`
	Notes              *string         `json:"notes,omitempty"`
	EffectiveAt        *time.Time      `json:"effective_at,omitempty"`
	ApplyToAllBranches *bool           `json:"apply_to_all_branches,omitempty"`
	BranchIDs          []uuid.UUID     `json:"branch_ids,omitempty"`
	ExpectedUpdatedAt  time.Time       `json:"expected_updated_at" binding:"required"`
}

// PATCH /api/governance/policy-versions/:id
func (h *VersionHandler) UpdateDraft(c *gin.Context) {
	versionID, err := parseVersionID(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ARGUMENT", err)
		return
	}
	var req updateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ARGUMENT", fmt.Errorf("invalid request body: %w", err))
		return
	}
	v, err := h.lifecycleSvc.UpdateDraft(c.Request.Context(), versionID, services.DraftPatch{
		Payload:            req.Payload,
		Notes:              req.Notes,
		EffectiveAt:        req.EffectiveAt,
		ApplyToAllBranches: req.ApplyToAllBranches,
		BranchIDs:          req.BranchIDs,
		ExpectedUpdatedAt:  req.ExpectedUpdatedAt,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, v)
}

// DELETE /api/governance/policy-versions/:id
func (h *VersionHandler) WithdrawDraft(c *gin.Context) {
	versionID, err := parseVersionID(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ARGUMENT", err)
		return
	}
	if err := h.lifecycleSvc.DeleteDraft(c.Request.Context(), versionID); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/governance/policy-versions/:id
func (h *VersionHandler) GetVersion(c *gin.Context) {
	versionID, err := parseVersionID(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ARGUMENT", err)
		return
	}
	v, err := h.lifecycleSvc.GetVersion(c.Request.Context(), versionID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, v)
}

// POST /api/governance/policy-versions/:id/submit
func (h *VersionHandler) Submit(c *gin.Context) {
	versionID, err := parseVersionID(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ARGUMENT", err)
		return
	}
	v, err := h.lifecycleSvc.Submit(c.Request.Context(), versionID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, v)
}

type approveRequest struct {
	Note *string `json:"note,omitempty"`
}

// POST /api/governance/policy-versions/:id/approve
func (h *VersionHandler) Approve(c *gin.Context) {
	versionID, err := parseVersionID(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ARGUMENT", err)
		return
	}
	var req approveRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_ARGUMENT", fmt.Errorf("invalid request body: %w", err))
			return
		}
	}
	v, err := h.lifecycleSvc.Approve(c.Request.Context(), versionID, req.Note)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, v)
}

type rejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// POST /api/governance/policy-versions/:id/reject
func (h *VersionHandler) Reject(c *gin.Context) {
	versionID, err := parseVersionID(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ARGUMENT", err)
		return
	}
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ARGUMENT", fmt.Errorf("invalid request body: %w", err))
		return
	}
	v, err := h.lifecycleSvc.Reject(c.Request.Context(), versionID, req.Reason)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, v)
}

// GET /api/governance/policies/:code/history?scope=&branchId=
func (h *VersionHandler) ListHistory(c *gin.Context) {
	scope := types.PolicyScope(c.DefaultQuery("scope", string(types.ScopeGlobal)))
	var branchID *uuid.UUID
	if raw := c.Query("branchId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_ARGUMENT", fmt.Errorf("branchId is not a uuid"))
			return
		}
		branchID = &id
	}
	history, err := h.lifecycleSvc.ListHistory(c.Request.Context(), c.Param("code"), scope, branchID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"versions": history})
}

// GET /api/governance/approvals
func (h *VersionHandler) ListApprovals(c *gin.Context) {
	pending, err := h.lifecycleSvc.ListApprovals(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"versions": pending})
}

func parseVersionID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("version id is not a uuid")
	}
	return id, nil
}

package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/zypocare/governance-backend/internal/platform/logger"
	"github.com/zypocare/governance-backend/internal/services"
)

type ResolutionHandler struct {
	log           *logger.Logger
	resolutionSvc services.ResolutionService
}

func NewResolutionHandler(log *logger.Logger, resolutionSvc services.ResolutionService) *ResolutionHandler {
	return &ResolutionHandler{
		log:           log.With("handler", "ResolutionHandler"),
		resolutionSvc: resolutionSvc,
	}
}

// GET /api/governance/policies/:code/effective?branchId=&asOf=&merged=
// With merged=true the response is the override payload deep-merged over
// the global baseline instead of the single winning version.
func (h *ResolutionHandler) GetEffective(c *gin.Context) {
	branchID, asOf, err := resolutionQuery(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ARGUMENT", err)
		return
	}
	if c.Query("merged") == "true" {
		payload, rErr := h.resolutionSvc.ResolvePayload(c.Request.Context(), c.Param("code"), branchID, asOf)
		if rErr != nil {
			RespondServiceError(c, rErr)
			return
		}
		if payload == nil {
			RespondOK(c, noneInForce(c.Param("code"), branchID, asOf))
			return
		}
		RespondOK(c, gin.H{"policy_code": c.Param("code"), "branch_id": branchID, "in_force": true, "payload": payload})
		return
	}
	effective, err := h.resolutionSvc.Resolve(c.Request.Context(), c.Param("code"), branchID, asOf)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if effective == nil {
		RespondOK(c, noneInForce(c.Param("code"), branchID, asOf))
		return
	}
	RespondOK(c, gin.H{"in_force": true, "effective": effective})
}

// GET /api/governance/effective-policies?branchId=&asOf=
func (h *ResolutionHandler) GetSnapshot(c *gin.Context) {
	branchID, asOf, err := resolutionQuery(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ARGUMENT", err)
		return
	}
	snapshot, err := h.resolutionSvc.Snapshot(c.Request.Context(), branchID, asOf)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"branch_id": branchID, "policies": snapshot})
}

// noneInForce is the body for a known policy with no approved version
// applying to the branch at the requested instant. Distinct from the 404
// an unknown code produces.
func noneInForce(code string, branchID uuid.UUID, asOf time.Time) gin.H {
	return gin.H{"policy_code": code, "branch_id": branchID, "as_of": asOf, "in_force": false}
}

func resolutionQuery(c *gin.Context) (uuid.UUID, time.Time, error) {
	branchID, err := uuid.Parse(c.Query("branchId"))
	if err != nil {
		return uuid.Nil, time.Time{}, fmt.Errorf("branchId query parameter is required and must be a uuid")
	}
	asOf := time.Now()
	if raw := c.Query("asOf"); raw != "" {
		asOf, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return uuid.Nil, time.Time{}, fmt.Errorf("asOf must be RFC3339")
		}
	}
	return branchID, asOf, nil
}

package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/zypocare/governance-backend/internal/platform/logger"
	"github.com/zypocare/governance-backend/internal/services"
)

type AuditHandler struct {
	log      *logger.Logger
	auditSvc services.AuditService
}

func NewAuditHandler(log *logger.Logger, auditSvc services.AuditService) *AuditHandler {
	return &AuditHandler{
		log:      log.With("handler", "AuditHandler"),
		auditSvc: auditSvc,
	}
}

// GET /api/governance/audit
func (h *AuditHandler) ListPolicyEvents(c *gin.Context) {
	events, err := h.auditSvc.ListPolicyEvents(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"events": events})
}

package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zypocare/governance-backend/internal/platform/logger"
	"github.com/zypocare/governance-backend/internal/services"
)

type CatalogHandler struct {
	log        *logger.Logger
	catalogSvc services.CatalogService
}

func NewCatalogHandler(log *logger.Logger, catalogSvc services.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		log:        log.With("handler", "CatalogHandler"),
		catalogSvc: catalogSvc,
	}
}

// GET /api/governance/summary
func (h *CatalogHandler) GetSummary(c *gin.Context) {
	summary, err := h.catalogSvc.GetSummary(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, summary)
}

// GET /api/governance/branches
func (h *CatalogHandler) ListBranches(c *gin.Context) {
	branches, err := h.catalogSvc.ListBranches(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"branches": branches})
}

type createDefinitionRequest struct {
	Code        string `json:"code" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// POST /api/governance/policies
func (h *CatalogHandler) CreateDefinition(c *gin.Context) {
	var req createDefinitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ARGUMENT", fmt.Errorf("invalid request body: %w", err))
		return
	}
	def, err := h.catalogSvc.CreateDefinition(c.Request.Context(), req.Code, req.Name, req.Type, req.Description)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, def)
}

// GET /api/governance/policies
func (h *CatalogHandler) ListOverview(c *gin.Context) {
	rows, err := h.catalogSvc.ListOverview(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"policies": rows})
}

// GET /api/governance/policies/:code
func (h *CatalogHandler) GetDetail(c *gin.Context) {
	detail, err := h.catalogSvc.GetDetail(c.Request.Context(), c.Param("code"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, detail)
}

type updateDefinitionRequest struct {
	Description string `json:"description"`
}

// PATCH /api/governance/policies/:code
func (h *CatalogHandler) UpdateDefinition(c *gin.Context) {
	var req updateDefinitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ARGUMENT", fmt.Errorf("invalid request body: %w", err))
		return
	}
	def, err := h.catalogSvc.UpdateDescription(c.Request.Context(), c.Param("code"), req.Description)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, def)
}

package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jcastellanos/credifacil-api/internal/repository"
	"github.com/jcastellanos/credifacil-api/internal/services"
)

type AuditHandler struct {
	auditService *services.AuditService
}

func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// @Summary List Audit Entries
// @Description Get a paginated view of the audit trail
// @Tags Audit
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param entity query string false "Filter by entity"
// @Param action query string false "Filter by action"
// @Param user_id query int false "Filter by user"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /audit [get]
func (h *AuditHandler) Index(c *gin.Context) {
	query := &repository.AuditQuery{ListQuery: parseListQuery(c)}
	query.Entity = c.Query("entity")
	query.Action = c.Query("action")
	query.Filters["start_date"] = c.Query("start_date")
	query.Filters["end_date"] = c.Query("end_date")

	if userID, err := strconv.ParseUint(c.Query("user_id"), 10, 32); err == nil {
		query.UserID = uint(userID)
	}

	entries, total, err := h.auditService.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"pagination": gin.H{
			"page":     query.Page,
			"per_page": query.PerPage,
			"total":    total,
		},
	})
}

// @Summary Entity History
// @Description Get the audit trail of a single entity
// @Tags Audit
// @Produce json
// @Param entity path string true "Entity name"
// @Param id path int true "Entity ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /audit/{entity}/{id} [get]
func (h *AuditHandler) History(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("entity_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	entries, err := h.auditService.HistoryFor(c.Request.Context(), c.Param("entity"), uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

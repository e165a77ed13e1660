package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jcastellanos/credifacil-api/internal/services"
)

type JobHandler struct {
	jobService       *services.JobService
	reconcileService *services.ReconcileService
	paymentService   *services.PaymentService
	backupService    *services.BackupService
}

func NewJobHandler(
	jobService *services.JobService,
	reconcileService *services.ReconcileService,
	paymentService *services.PaymentService,
	backupService *services.BackupService,
) *JobHandler {
	return &JobHandler{
		jobService:       jobService,
		reconcileService: reconcileService,
		paymentService:   paymentService,
		backupService:    backupService,
	}
}

// @Summary Worker Status
// @Description Get the background worker's counters
// @Tags Jobs
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /jobs/status [get]
func (h *JobHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.jobService.GetStatus())
}

// @Summary Resync All Loans
// @Description Queue a full portfolio reconciliation
// @Tags Jobs
// @Produce json
// @Success 202 {object} map[string]string
// @Security BearerAuth
// @Router /jobs/resync [post]
func (h *JobHandler) Resync(c *gin.Context) {
	h.jobService.Enqueue(func(ctx context.Context) error {
		_, err := h.reconcileService.ResyncAll(ctx)
		return err
	})
	c.JSON(http.StatusAccepted, gin.H{"message": "Reconciliación en cola"})
}

// @Summary Sweep Overdue Loans
// @Description Queue an overdue sweep over the open portfolio
// @Tags Jobs
// @Produce json
// @Success 202 {object} map[string]string
// @Security BearerAuth
// @Router /jobs/sweep-overdue [post]
func (h *JobHandler) SweepOverdue(c *gin.Context) {
	h.jobService.Enqueue(func(ctx context.Context) error {
		_, err := h.paymentService.SweepOverdue(ctx)
		return err
	})
	c.JSON(http.StatusAccepted, gin.H{"message": "Barrido de vencidos en cola"})
}

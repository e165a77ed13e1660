package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jcastellanos/credifacil-api/internal/repository"
	"github.com/jcastellanos/credifacil-api/internal/services"
)

type LoanHandler struct {
	loanService      *services.LoanService
	scheduleService  *services.ScheduleService
	reconcileService *services.ReconcileService
}

func NewLoanHandler(loanService *services.LoanService, scheduleService *services.ScheduleService, reconcileService *services.ReconcileService) *LoanHandler {
	return &LoanHandler{
		loanService:      loanService,
		scheduleService:  scheduleService,
		reconcileService: reconcileService,
	}
}

// @Summary List Loans
// @Description Get a paginated list of loans
// @Tags Loans
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param status query string false "Filter by status (comma-separated)"
// @Param customer_id query int false "Filter by customer"
// @Param search query string false "Search by customer name, identity or phone"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /loans [get]
func (h *LoanHandler) Index(c *gin.Context) {
	query := &repository.LoanQuery{ListQuery: parseListQuery(c)}
	query.Status = c.Query("status")
	query.Filters["start_date"] = c.Query("start_date")
	query.Filters["end_date"] = c.Query("end_date")

	if customerID, err := strconv.ParseUint(c.Query("customer_id"), 10, 32); err == nil {
		query.CustomerID = uint(customerID)
	}

	loans, total, err := h.loanService.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []interface{}
	for _, loan := range loans {
		responses = append(responses, loan.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"loans": responses,
		"pagination": gin.H{
			"page":     query.Page,
			"per_page": query.PerPage,
			"total":    total,
		},
	})
}

// @Summary Get Loan
// @Description Get a loan with its schedule and payment ledger
// @Tags Loans
// @Produce json
// @Param id path int true "Loan ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /loans/{id} [get]
func (h *LoanHandler) Show(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("loan_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	loan, err := h.loanService.GetByID(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"loan": loan.ToResponse()})
}

// @Summary Issue Loan
// @Description Issue a new loan with its repayment schedule
// @Tags Loans
// @Accept json
// @Produce json
// @Param request body services.IssueLoanInput true "Loan terms"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /loans [post]
func (h *LoanHandler) Create(c *gin.Context) {
	var input services.IssueLoanInput
	if err := BindNestedOrFlat(c, "loan", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	loan, err := h.loanService.Issue(c.Request.Context(), &input, actor(c))
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, services.ErrCustomerNotFound):
			status = http.StatusNotFound
		case errors.Is(err, services.ErrInvalidPrincipal),
			errors.Is(err, services.ErrInvalidTerm),
			errors.Is(err, services.ErrInvalidRate):
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"loan": loan.ToResponse()})
}

// @Summary Loan Statistics
// @Description Get portfolio counts by status
// @Tags Loans
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /loans/stats [get]
func (h *LoanHandler) Stats(c *gin.Context) {
	stats, err := h.loanService.GetStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

type ExtendDueDateRequest struct {
	DueDate time.Time `json:"due_date" binding:"required"`
}

// @Summary Extend Due Date
// @Description Push a loan's due date forward and re-evaluate its status
// @Tags Loans
// @Accept json
// @Produce json
// @Param id path int true "Loan ID"
// @Param request body ExtendDueDateRequest true "New due date"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /loans/{id}/extend [post]
func (h *LoanHandler) ExtendDueDate(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("loan_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	var req ExtendDueDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	loan, err := h.loanService.ExtendDueDate(c.Request.Context(), uint(id), req.DueDate, actor(c))
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, services.ErrLoanNotFound):
			status = http.StatusNotFound
		case errors.Is(err, services.ErrLoanAlreadyPaid):
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"loan": loan.ToResponse()})
}

// @Summary Reconcile Loan
// @Description Rerun allocation, aggregation and status for one loan
// @Tags Loans
// @Produce json
// @Param id path int true "Loan ID"
// @Success 200 {object} services.ReconcileResult
// @Security BearerAuth
// @Router /loans/{id}/reconcile [post]
func (h *LoanHandler) Reconcile(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("loan_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	result, err := h.reconcileService.ReconcileLoan(c.Request.Context(), uint(id))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrLoanNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// @Summary Delete Loan
// @Description Soft-delete a loan without recorded payments
// @Tags Loans
// @Produce json
// @Param id path int true "Loan ID"
// @Success 200 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /loans/{id} [delete]
func (h *LoanHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("loan_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	if err := h.loanService.Discard(c.Request.Context(), uint(id), actor(c)); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, services.ErrLoanNotFound):
			status = http.StatusNotFound
		case errors.Is(err, services.ErrLoanHasPayments):
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Préstamo eliminado exitosamente"})
}

type UpdateNoteRequest struct {
	Note *string `json:"note"`
}

// @Summary Update Loan Note
// @Description Replace a loan's free-form note
// @Tags Loans
// @Accept json
// @Produce json
// @Param id path int true "Loan ID"
// @Param request body UpdateNoteRequest true "Note"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /loans/{id}/note [patch]
func (h *LoanHandler) UpdateNote(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("loan_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	var req UpdateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	loan, err := h.loanService.UpdateNote(c.Request.Context(), uint(id), req.Note, actor(c))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrLoanNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"loan": loan.ToResponse()})
}

// @Summary Regenerate Schedule
// @Description Rebuild a loan's installment schedule from its current terms and reallocate recorded payments
// @Tags Loans
// @Produce json
// @Param id path int true "Loan ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /loans/{id}/regenerate-schedule [post]
func (h *LoanHandler) RegenerateSchedule(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("loan_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	schedule, err := h.scheduleService.Regenerate(c.Request.Context(), uint(id))
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, services.ErrLoanNotFound):
			status = http.StatusNotFound
		case errors.Is(err, services.ErrInvalidPrincipal),
			errors.Is(err, services.ErrInvalidTerm),
			errors.Is(err, services.ErrInvalidRate):
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	// Fresh rows start out Pending; reconciling replays the ledger over them.
	result, err := h.reconcileService.ReconcileLoan(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"schedule": schedule,
		"loan":     result,
	})
}

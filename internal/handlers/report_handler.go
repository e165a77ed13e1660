package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jcastellanos/credifacil-api/internal/services"
)

type ReportHandler struct {
	reportService *services.ReportService
	exportService *services.ExportService
}

func NewReportHandler(reportService *services.ReportService, exportService *services.ExportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		exportService: exportService,
	}
}

// @Summary Overdue Loans Report
// @Description Download the overdue loans report as CSV
// @Tags Reports
// @Produce text/csv
// @Success 200 {file} file
// @Security BearerAuth
// @Router /reports/overdue [get]
func (h *ReportHandler) OverdueCSV(c *gin.Context) {
	buf, err := h.reportService.GenerateOverdueLoansCSV(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	filename := fmt.Sprintf("vencidos_%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

// @Summary Collections Report
// @Description Download the collections report for a date range as CSV
// @Tags Reports
// @Produce text/csv
// @Param start_date query string true "Start date (YYYY-MM-DD)"
// @Param end_date query string true "End date (YYYY-MM-DD)"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /reports/collections [get]
func (h *ReportHandler) CollectionsCSV(c *gin.Context) {
	startDate := c.Query("start_date")
	endDate := c.Query("end_date")
	if startDate == "" || endDate == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_date y end_date son requeridos"})
		return
	}

	buf, err := h.reportService.GenerateCollectionsCSV(c.Request.Context(), startDate, endDate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	filename := fmt.Sprintf("cobros_%s_%s.csv", startDate, endDate)
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

// @Summary Loan Statement
// @Description Download a loan's statement of account as PDF
// @Tags Reports
// @Produce application/pdf
// @Param id path int true "Loan ID"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /reports/loans/{id}/statement [get]
func (h *ReportHandler) LoanStatementPDF(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("loan_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	buf, err := h.reportService.GenerateLoanStatementPDF(c.Request.Context(), uint(id))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrLoanNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=estado_cuenta_%d.pdf", id))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// @Summary Loan Agreement
// @Description Download a loan's agreement document as PDF
// @Tags Reports
// @Produce application/pdf
// @Param id path int true "Loan ID"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /reports/loans/{id}/agreement [get]
func (h *ReportHandler) LoanAgreementPDF(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("loan_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	buf, err := h.reportService.GenerateLoanAgreementPDF(c.Request.Context(), uint(id))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrLoanNotFound) || errors.Is(err, services.ErrCustomerNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=contrato_%d.pdf", id))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// @Summary Export Portfolio
// @Description Download the loan portfolio as CSV or XLSX
// @Tags Reports
// @Produce application/octet-stream
// @Param format query string false "csv or xlsx" default(xlsx)
// @Param status query string false "Filter by status"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /reports/portfolio [get]
func (h *ReportHandler) ExportPortfolio(c *gin.Context) {
	status := c.Query("status")

	var data []byte
	var filename string
	var contentType string
	var err error

	switch c.DefaultQuery("format", "xlsx") {
	case "csv":
		data, filename, err = h.exportService.ExportPortfolioCSV(c.Request.Context(), status)
		contentType = "text/csv"
	default:
		data, filename, err = h.exportService.ExportPortfolioXLSX(c.Request.Context(), status)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, contentType, data)
}

// @Summary Export Customers
// @Description Download the customer list with rollups as CSV
// @Tags Reports
// @Produce text/csv
// @Success 200 {file} file
// @Security BearerAuth
// @Router /reports/customers [get]
func (h *ReportHandler) ExportCustomers(c *gin.Context) {
	data, filename, err := h.exportService.ExportCustomersCSV(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv", data)
}

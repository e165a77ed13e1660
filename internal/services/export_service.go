package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/jcastellanos/credifacil-api/internal/models"
	"github.com/jcastellanos/credifacil-api/internal/repository"
	"github.com/xuri/excelize/v2"
)

// ExportService produces downloadable snapshots of the loan portfolio
type ExportService struct {
	loanRepo     repository.LoanRepository
	customerRepo repository.CustomerRepository
}

// NewExportService creates a new export service
func NewExportService(repos *repository.Repositories) *ExportService {
	return &ExportService{
		loanRepo:     repos.Loan,
		customerRepo: repos.Customer,
	}
}

func (s *ExportService) loadPortfolio(ctx context.Context, status string) ([]models.Loan, *repository.LoanStats, error) {
	query := &repository.LoanQuery{
		ListQuery: repository.NewListQuery(),
		Status:    status,
	}
	query.PerPage = 0

	loans, _, err := s.loanRepo.List(ctx, query)
	if err != nil {
		return nil, nil, err
	}

	stats, err := s.loanRepo.GetStats(ctx)
	if err != nil {
		return nil, nil, err
	}
	return loans, stats, nil
}

// ExportPortfolioCSV writes the loan portfolio as CSV
func (s *ExportService) ExportPortfolioCSV(ctx context.Context, status string) ([]byte, string, error) {
	loans, _, err := s.loadPortfolio(ctx, status)
	if err != nil {
		return nil, "", err
	}

	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	_ = writer.Write([]string{"Préstamo", "Cliente", "Identidad", "Capital", "Tasa", "Plazo", "Total", "Pagado", "Saldo", "Estado", "Inicio", "Vencimiento"})

	for i := range loans {
		loan := &loans[i]
		name, identity := "", ""
		if loan.Customer != nil {
			name = loan.Customer.FullName
			identity = loan.Customer.Identity
		}
		_ = writer.Write([]string{
			fmt.Sprintf("%d", loan.ID),
			name,
			identity,
			fmt.Sprintf("%.2f", loan.Principal),
			fmt.Sprintf("%.2f", loan.InterestRate),
			fmt.Sprintf("%d", loan.TermMonths),
			fmt.Sprintf("%.2f", loan.TotalWithInterest),
			fmt.Sprintf("%.2f", loan.AmountPaid),
			fmt.Sprintf("%.2f", loan.AmountRemaining),
			loan.Status,
			loan.StartDate.Format("2006-01-02"),
			loan.EffectiveDueDate().Format("2006-01-02"),
		})
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("cartera_%s.csv", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// ExportPortfolioXLSX writes the loan portfolio as a styled Excel workbook
// with a summary block and one row per loan.
func (s *ExportService) ExportPortfolioXLSX(ctx context.Context, status string) ([]byte, string, error) {
	loans, stats, err := s.loadPortfolio(ctx, status)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Cartera"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	columnStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#F5F5F5"}, Pattern: 1},
	})

	_ = f.SetCellValue(sheet, "A1", "Cartera de Préstamos")
	_ = f.SetCellStyle(sheet, "A1", "A1", headerStyle)

	_ = f.SetCellValue(sheet, "A3", "Resumen")
	_ = f.SetCellValue(sheet, "A4", "Total de préstamos")
	_ = f.SetCellValue(sheet, "B4", stats.Total)
	_ = f.SetCellValue(sheet, "A5", "Pendientes")
	_ = f.SetCellValue(sheet, "B5", stats.Pending)
	_ = f.SetCellValue(sheet, "A6", "Activos")
	_ = f.SetCellValue(sheet, "B6", stats.Active)
	_ = f.SetCellValue(sheet, "A7", "Vencidos")
	_ = f.SetCellValue(sheet, "B7", stats.Overdue)
	_ = f.SetCellValue(sheet, "A8", "Pagados")
	_ = f.SetCellValue(sheet, "B8", stats.Paid)

	headers := []string{"Préstamo", "Cliente", "Identidad", "Capital", "Total", "Pagado", "Saldo", "Estado", "Vencimiento"}
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 10)
		_ = f.SetCellValue(sheet, cell, h)
		_ = f.SetCellStyle(sheet, cell, cell, columnStyle)
	}

	for i := range loans {
		loan := &loans[i]
		row := 11 + i
		name, identity := "", ""
		if loan.Customer != nil {
			name = loan.Customer.FullName
			identity = loan.Customer.Identity
		}
		values := []interface{}{
			loan.ID,
			name,
			identity,
			loan.Principal,
			loan.TotalWithInterest,
			loan.AmountPaid,
			loan.AmountRemaining,
			loan.Status,
			loan.EffectiveDueDate().Format("2006-01-02"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("cartera_%s.xlsx", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// ExportCustomersCSV writes the customer list with their rollups as CSV
func (s *ExportService) ExportCustomersCSV(ctx context.Context) ([]byte, string, error) {
	query := repository.NewListQuery()
	query.PerPage = 0

	customers, _, err := s.customerRepo.List(ctx, query)
	if err != nil {
		return nil, "", err
	}

	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	_ = writer.Write([]string{"Cliente", "Identidad", "Teléfono", "Estado", "Préstamos", "Abiertos", "Pagado", "Saldo"})

	for i := range customers {
		c := &customers[i]
		_ = writer.Write([]string{
			c.FullName,
			c.Identity,
			c.Phone,
			c.Status,
			fmt.Sprintf("%.2f", c.TotalLoans),
			fmt.Sprintf("%d", c.ActiveLoansCount),
			fmt.Sprintf("%.2f", c.TotalPaid),
			fmt.Sprintf("%.2f", c.TotalRemaining),
		})
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("clientes_%s.csv", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

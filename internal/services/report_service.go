package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"html/template"
	"os"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/jcastellanos/credifacil-api/internal/models"
	"github.com/jcastellanos/credifacil-api/internal/repository"
	"github.com/jung-kurt/gofpdf"
)

// ReportService produces portfolio reports and customer-facing documents
type ReportService struct {
	loanRepo     repository.LoanRepository
	paymentRepo  repository.PaymentRepository
	customerRepo repository.CustomerRepository
}

// NewReportService creates a new report service
func NewReportService(repos *repository.Repositories) *ReportService {
	return &ReportService{
		loanRepo:     repos.Loan,
		paymentRepo:  repos.Payment,
		customerRepo: repos.Customer,
	}
}

// GenerateOverdueLoansCSV lists every overdue loan with its balance
func (s *ReportService) GenerateOverdueLoansCSV(ctx context.Context) (*bytes.Buffer, error) {
	query := &repository.LoanQuery{
		ListQuery: repository.NewListQuery(),
		Status:    models.LoanStatusOverdue,
	}
	query.PerPage = 0

	loans, _, err := s.loanRepo.List(ctx, query)
	if err != nil {
		return nil, err
	}

	b := &bytes.Buffer{}
	w := csv.NewWriter(b)

	_ = w.Write([]string{"Préstamo", "Cliente", "Identidad", "Teléfono", "Capital", "Total", "Pagado", "Saldo", "Vencimiento", "Días vencido"})

	now := time.Now()
	for i := range loans {
		loan := &loans[i]
		name, identity, phone := "", "", ""
		if loan.Customer != nil {
			name = loan.Customer.FullName
			identity = loan.Customer.Identity
			phone = loan.Customer.Phone
		}
		due := loan.EffectiveDueDate()
		daysOverdue := int(now.Sub(due).Hours() / 24)
		_ = w.Write([]string{
			fmt.Sprintf("%d", loan.ID),
			name,
			identity,
			phone,
			fmt.Sprintf("%.2f", loan.Principal),
			fmt.Sprintf("%.2f", loan.TotalWithInterest),
			fmt.Sprintf("%.2f", loan.AmountPaid),
			fmt.Sprintf("%.2f", loan.AmountRemaining),
			due.Format("2006-01-02"),
			fmt.Sprintf("%d", daysOverdue),
		})
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return b, nil
}

// GenerateCollectionsCSV lists payments recorded in a date range
func (s *ReportService) GenerateCollectionsCSV(ctx context.Context, startDate, endDate string) (*bytes.Buffer, error) {
	query := &repository.PaymentQuery{ListQuery: repository.NewListQuery()}
	query.PerPage = 0
	query.Filters["start_date"] = startDate
	query.Filters["end_date"] = endDate

	payments, _, err := s.paymentRepo.List(ctx, query)
	if err != nil {
		return nil, err
	}

	b := &bytes.Buffer{}
	w := csv.NewWriter(b)

	_ = w.Write([]string{"Fecha", "Préstamo", "Cliente", "Monto", "Método", "Referencia"})

	var total float64
	for i := range payments {
		p := &payments[i]
		name := ""
		if p.Loan != nil && p.Loan.Customer != nil {
			name = p.Loan.Customer.FullName
		}
		_ = w.Write([]string{
			p.PaidAt.Format("2006-01-02"),
			fmt.Sprintf("%d", p.LoanID),
			name,
			fmt.Sprintf("%.2f", p.Amount),
			p.Method,
			p.Reference,
		})
		total += p.Amount
	}

	_ = w.Write([]string{})
	_ = w.Write([]string{"Total", "", "", fmt.Sprintf("%.2f", total), "", ""})

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return b, nil
}

// GenerateLoanStatementPDF builds a statement of account for one loan:
// terms, schedule with allocation, and the payment ledger.
func (s *ReportService) GenerateLoanStatementPDF(ctx context.Context, loanID uint) (*bytes.Buffer, error) {
	loan, err := s.loanRepo.FindByIDWithDetails(ctx, loanID)
	if err != nil {
		return nil, ErrLoanNotFound
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Estado de Cuenta")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	if loan.Customer != nil {
		pdf.Cell(60, 8, "Cliente:")
		pdf.Cell(80, 8, loan.Customer.FullName)
		pdf.Ln(6)
		pdf.Cell(60, 8, "Identidad:")
		pdf.Cell(80, 8, loan.Customer.Identity)
		pdf.Ln(6)
	}
	pdf.Cell(60, 8, "Prestamo:")
	pdf.Cell(80, 8, fmt.Sprintf("#%d", loan.ID))
	pdf.Ln(6)
	pdf.Cell(60, 8, "Capital:")
	pdf.Cell(80, 8, fmt.Sprintf("%.2f %s", loan.Principal, loan.Currency))
	pdf.Ln(6)
	pdf.Cell(60, 8, "Total a pagar:")
	pdf.Cell(80, 8, fmt.Sprintf("%.2f %s", loan.TotalWithInterest, loan.Currency))
	pdf.Ln(6)
	pdf.Cell(60, 8, "Pagado:")
	pdf.Cell(80, 8, fmt.Sprintf("%.2f %s", loan.AmountPaid, loan.Currency))
	pdf.Ln(6)
	pdf.Cell(60, 8, "Saldo:")
	pdf.Cell(80, 8, fmt.Sprintf("%.2f %s", loan.AmountRemaining, loan.Currency))
	pdf.Ln(6)
	pdf.Cell(60, 8, "Estado:")
	pdf.Cell(80, 8, loan.Status)
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(40, 10, "Plan de Pagos")
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 9)
	pdf.Cell(15, 8, "Cuota")
	pdf.Cell(35, 8, "Vencimiento")
	pdf.Cell(30, 8, "Monto")
	pdf.Cell(30, 8, "Pagado")
	pdf.Cell(30, 8, "Pendiente")
	pdf.Cell(40, 8, "Estado")
	pdf.Ln(7)

	pdf.SetFont("Arial", "", 9)
	for i := range loan.Installments {
		inst := &loan.Installments[i]
		pdf.Cell(15, 7, fmt.Sprintf("%d", inst.Seq))
		pdf.Cell(35, 7, inst.DueDate.Format("2006-01-02"))
		pdf.Cell(30, 7, fmt.Sprintf("%.2f", inst.AmountDue))
		pdf.Cell(30, 7, fmt.Sprintf("%.2f", inst.AmountPaid))
		pdf.Cell(30, 7, fmt.Sprintf("%.2f", inst.AmountLeft))
		pdf.Cell(40, 7, inst.Note)
		pdf.Ln(6)
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(40, 10, "Pagos Registrados")
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 9)
	pdf.Cell(35, 8, "Fecha")
	pdf.Cell(30, 8, "Monto")
	pdf.Cell(30, 8, "Metodo")
	pdf.Cell(80, 8, "Referencia")
	pdf.Ln(7)

	pdf.SetFont("Arial", "", 9)
	for i := range loan.Payments {
		p := &loan.Payments[i]
		pdf.Cell(35, 7, p.PaidAt.Format("2006-01-02"))
		pdf.Cell(30, 7, fmt.Sprintf("%.2f", p.Amount))
		pdf.Cell(30, 7, p.Method)
		pdf.Cell(80, 7, p.Reference)
		pdf.Ln(6)
	}

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// GenerateLoanAgreementPDF renders the signed loan agreement document
func (s *ReportService) GenerateLoanAgreementPDF(ctx context.Context, loanID uint) (*bytes.Buffer, error) {
	loan, err := s.loanRepo.FindByIDWithDetails(ctx, loanID)
	if err != nil {
		return nil, ErrLoanNotFound
	}
	if loan.Customer == nil {
		return nil, ErrCustomerNotFound
	}

	data := map[string]interface{}{
		"CustomerName": loan.Customer.FullName,
		"Identity":     loan.Customer.Identity,
		"Address":      loan.Customer.Address,
		"LoanID":       loan.ID,
		"Principal":    fmt.Sprintf("%.2f", loan.Principal),
		"Total":        fmt.Sprintf("%.2f", loan.TotalWithInterest),
		"TermMonths":   loan.TermMonths,
		"Currency":     loan.Currency,
		"StartDate":    loan.StartDate.Format("02/01/2006"),
		"DueDate":      loan.EffectiveDueDate().Format("02/01/2006"),
		"Schedule":     loan.Installments,
		"Today":        time.Now().Format("02/01/2006"),
	}

	return s.generatePDF("loan_agreement.html", data)
}

// Helper to generate PDF from HTML template
func (s *ReportService) generatePDF(templateName string, data interface{}) (*bytes.Buffer, error) {
	tmplPath := fmt.Sprintf("internal/services/templates/reports/%s", templateName)
	if _, err := os.Stat(tmplPath); os.IsNotExist(err) {
		// Path relative to the package, used when running tests
		tmplPath = fmt.Sprintf("templates/reports/%s", templateName)
	}

	tmpl, err := template.ParseFiles(tmplPath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", templateName, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create pdf generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.Grayscale.Set(false)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader(buf.Bytes()))
	page.EnableLocalFileAccess.Set(true)
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create pdf: %w", err)
	}

	return pdfg.Buffer(), nil
}

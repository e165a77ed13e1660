package services

import (
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/jcastellanos/credifacil-api/internal/models"
	"github.com/jcastellanos/credifacil-api/internal/repository"
	"github.com/stretchr/testify/assert"
)

// Mock LoanRepository (embedding to avoid implementing all methods)
type mockLoanRepository struct {
	repository.LoanRepository
	mockList                func(ctx context.Context, query *repository.LoanQuery) ([]models.Loan, int64, error)
	mockFindByIDWithDetails func(ctx context.Context, id uint) (*models.Loan, error)
}

func (m *mockLoanRepository) List(ctx context.Context, query *repository.LoanQuery) ([]models.Loan, int64, error) {
	if m.mockList != nil {
		return m.mockList(ctx, query)
	}
	return nil, 0, nil
}

func (m *mockLoanRepository) FindByIDWithDetails(ctx context.Context, id uint) (*models.Loan, error) {
	if m.mockFindByIDWithDetails != nil {
		return m.mockFindByIDWithDetails(ctx, id)
	}
	return nil, ErrLoanNotFound
}

// Mock PaymentRepository
type mockPaymentRepository struct {
	repository.PaymentRepository
	mockList func(ctx context.Context, query *repository.PaymentQuery) ([]models.Payment, int64, error)
}

func (m *mockPaymentRepository) List(ctx context.Context, query *repository.PaymentQuery) ([]models.Payment, int64, error) {
	if m.mockList != nil {
		return m.mockList(ctx, query)
	}
	return nil, 0, nil
}

func TestGenerateOverdueLoansCSV(t *testing.T) {
	loanRepo := &mockLoanRepository{}
	service := NewReportService(&repository.Repositories{Loan: loanRepo})

	due := time.Now().AddDate(0, 0, -10)
	loanRepo.mockList = func(ctx context.Context, query *repository.LoanQuery) ([]models.Loan, int64, error) {
		assert.Equal(t, models.LoanStatusOverdue, query.Status)
		return []models.Loan{
			{
				ID:                7,
				Principal:         1000,
				TotalWithInterest: 1425,
				AmountPaid:        500,
				AmountRemaining:   925,
				DueDate:           &due,
				Customer: &models.Customer{
					FullName: "María López",
					Identity: "0801-1992-45678",
					Phone:    "+50499887766",
				},
			},
		}, 1, nil
	}

	buf, err := service.GenerateOverdueLoansCSV(context.Background())
	assert.NoError(t, err)

	records, err := csv.NewReader(buf).ReadAll()
	assert.NoError(t, err)
	assert.Len(t, records, 2)

	assert.Equal(t, "Préstamo", records[0][0])
	assert.Equal(t, "7", records[1][0])
	assert.Equal(t, "María López", records[1][1])
	assert.Equal(t, "925.00", records[1][7])
	assert.Equal(t, "10", records[1][9])
}

func TestGenerateCollectionsCSV(t *testing.T) {
	paymentRepo := &mockPaymentRepository{}
	service := NewReportService(&repository.Repositories{Payment: paymentRepo})

	paidAt := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
	paymentRepo.mockList = func(ctx context.Context, query *repository.PaymentQuery) ([]models.Payment, int64, error) {
		assert.Equal(t, "2026-02-01", query.Filters["start_date"])
		assert.Equal(t, "2026-02-28", query.Filters["end_date"])
		return []models.Payment{
			{
				ID: 1, LoanID: 7, Amount: 500, PaidAt: paidAt, Method: models.PaymentMethodCash, Reference: "REF-001",
				Loan: &models.Loan{ID: 7, Customer: &models.Customer{FullName: "Juan Pérez"}},
			},
			{
				ID: 2, LoanID: 8, Amount: 250.50, PaidAt: paidAt, Method: models.PaymentMethodTransfer, Reference: "REF-002",
			},
		}, 2, nil
	}

	buf, err := service.GenerateCollectionsCSV(context.Background(), "2026-02-01", "2026-02-28")
	assert.NoError(t, err)

	records, err := csv.NewReader(buf).ReadAll()
	assert.NoError(t, err)
	// header, two rows, total row (the reader skips the blank separator)
	assert.Len(t, records, 4)

	assert.Equal(t, "Juan Pérez", records[1][2])
	assert.Equal(t, "500.00", records[1][3])
	assert.Equal(t, "REF-002", records[2][5])
	assert.Equal(t, "Total", records[3][0])
	assert.Equal(t, "750.50", records[3][3])
}

func TestGenerateLoanStatementPDF(t *testing.T) {
	loanRepo := &mockLoanRepository{}
	paymentRepo := &mockPaymentRepository{}
	service := NewReportService(&repository.Repositories{Loan: loanRepo, Payment: paymentRepo})

	_, err := service.GenerateLoanStatementPDF(context.Background(), 99)
	assert.ErrorIs(t, err, ErrLoanNotFound)
}

package services

import (
	"context"
	"testing"

	"github.com/jcastellanos/credifacil-api/internal/models"
	"github.com/jcastellanos/credifacil-api/internal/repository"
	"github.com/jcastellanos/credifacil-api/pkg/logger"
	"github.com/stretchr/testify/assert"
)

type discardLoanRepo struct {
	repository.LoanRepository
	loan        *models.Loan
	softDeleted []uint
}

func (m *discardLoanRepo) FindByID(ctx context.Context, id uint) (*models.Loan, error) {
	return m.loan, nil
}

func (m *discardLoanRepo) SoftDelete(ctx context.Context, id uint) error {
	m.softDeleted = append(m.softDeleted, id)
	return nil
}

type discardPaymentRepo struct {
	repository.PaymentRepository
	total float64
}

func (m *discardPaymentRepo) SumByLoan(ctx context.Context, loanID uint) (float64, error) {
	return m.total, nil
}

type discardInstallmentRepo struct {
	repository.InstallmentRepository
	deleted []uint
}

func (m *discardInstallmentRepo) DeleteByLoan(ctx context.Context, loanID uint) error {
	m.deleted = append(m.deleted, loanID)
	return nil
}

func newDiscardFixture(loan *models.Loan, ledgerTotal float64) (*LoanService, *discardLoanRepo, *discardInstallmentRepo) {
	logger.Setup("test")
	loanRepo := &discardLoanRepo{loan: loan}
	installmentRepo := &discardInstallmentRepo{}
	repos := &repository.Repositories{
		Loan:        loanRepo,
		Payment:     &discardPaymentRepo{total: ledgerTotal},
		Installment: installmentRepo,
	}
	return NewLoanService(nil, repos, nil, nil, nil, nil), loanRepo, installmentRepo
}

func TestLoanService_Discard_RemovesScheduleWithLoan(t *testing.T) {
	loan := &models.Loan{ID: 7, Status: models.LoanStatusPending}
	svc, loanRepo, installmentRepo := newDiscardFixture(loan, 0)

	err := svc.Discard(context.Background(), 7, nil)

	assert.NoError(t, err)
	assert.Equal(t, []uint{7}, loanRepo.softDeleted)
	assert.Equal(t, []uint{7}, installmentRepo.deleted)
}

func TestLoanService_Discard_RefusedWithPayments(t *testing.T) {
	loan := &models.Loan{ID: 7, Status: models.LoanStatusActive}
	svc, loanRepo, installmentRepo := newDiscardFixture(loan, 250)

	err := svc.Discard(context.Background(), 7, nil)

	assert.ErrorIs(t, err, ErrLoanHasPayments)
	assert.Empty(t, loanRepo.softDeleted)
	assert.Empty(t, installmentRepo.deleted)
}

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jcastellanos/credifacil-api/internal/models"
	"github.com/jcastellanos/credifacil-api/internal/repository"
	"github.com/jcastellanos/credifacil-api/pkg/logger"
	"gorm.io/gorm"
)

// LoanService handles loan issuance and lifecycle operations
type LoanService struct {
	db              *gorm.DB
	loanRepo        repository.LoanRepository
	paymentRepo     repository.PaymentRepository
	customerRepo    repository.CustomerRepository
	installmentRepo repository.InstallmentRepository
	schedule        *ScheduleService
	reconcile       *ReconcileService
	notifications   *NotificationService
	audit           *AuditService
}

// NewLoanService creates a new loan service
func NewLoanService(
	db *gorm.DB,
	repos *repository.Repositories,
	schedule *ScheduleService,
	reconcile *ReconcileService,
	notifications *NotificationService,
	audit *AuditService,
) *LoanService {
	return &LoanService{
		db:              db,
		loanRepo:        repos.Loan,
		paymentRepo:     repos.Payment,
		customerRepo:    repos.Customer,
		installmentRepo: repos.Installment,
		schedule:        schedule,
		reconcile:       reconcile,
		notifications:   notifications,
		audit:           audit,
	}
}

// IssueLoanInput carries the terms for a new loan
type IssueLoanInput struct {
	CustomerID   uint      `json:"customer_id" binding:"required"`
	Principal    float64   `json:"principal" binding:"required,gt=0"`
	InterestRate float64   `json:"interest_rate" binding:"gte=0"`
	TermMonths   int       `json:"term_months" binding:"required,gte=1"`
	StartDate    time.Time `json:"start_date"`
	Note         *string   `json:"note"`
}

// Issue creates a loan with its full repayment schedule in one transaction,
// then refreshes the customer's rollups and notifies staff and customer.
func (s *LoanService) Issue(ctx context.Context, input *IssueLoanInput, issuedBy *models.User) (*models.Loan, error) {
	if input.Principal <= 0 {
		return nil, ErrInvalidPrincipal
	}
	if input.TermMonths < 1 {
		return nil, ErrInvalidTerm
	}
	if input.InterestRate < 0 {
		return nil, ErrInvalidRate
	}

	customer, err := s.customerRepo.FindByID(ctx, input.CustomerID)
	if err != nil {
		return nil, ErrCustomerNotFound
	}

	startDate := input.StartDate
	if startDate.IsZero() {
		startDate = time.Now().Truncate(24 * time.Hour)
	}

	customerID := customer.ID
	dueDate := startDate.AddDate(0, input.TermMonths, 0)
	loan := &models.Loan{
		CustomerID:        &customerID,
		Principal:         input.Principal,
		InterestRate:      input.InterestRate,
		TermMonths:        input.TermMonths,
		StartDate:         startDate,
		DueDate:           &dueDate,
		Status:            models.LoanStatusPending,
		TotalWithInterest: TotalWithInterest(input.Principal, input.TermMonths, input.InterestRate),
		Currency:          "HNL",
		Note:              input.Note,
	}
	loan.AmountRemaining = loan.TotalWithInterest
	if issuedBy != nil {
		loan.IssuedByUserID = &issuedBy.ID
	}

	installments := BuildSchedule(input.Principal, input.TermMonths, input.InterestRate, startDate)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(loan).Error; err != nil {
			return err
		}
		for i := range installments {
			installments[i].LoanID = loan.ID
			if err := tx.Create(&installments[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	loan.Installments = installments

	if err := s.reconcile.ProjectCustomer(ctx, customer.ID); err != nil {
		logger.Error("customer projection failed after issuance",
			"customer_id", customer.ID, "error", err)
	}

	s.notifications.NotifyLoanIssued(ctx, loan, customer)
	if issuedBy != nil {
		s.audit.Record(ctx, issuedBy.ID, AuditActionCreate, AuditEntityLoan, loan.ID,
			fmt.Sprintf("préstamo de %s %.2f a %d meses para %s",
				loan.Currency, loan.Principal, loan.TermMonths, customer.FullName))
	}

	logger.Info("loan issued",
		"loan_id", loan.ID,
		"customer_id", customer.ID,
		"principal", loan.Principal,
		"total", loan.TotalWithInterest,
		"term_months", loan.TermMonths)

	return loan, nil
}

// GetByID returns a loan with its customer, schedule and ledger loaded
func (s *LoanService) GetByID(ctx context.Context, id uint) (*models.Loan, error) {
	loan, err := s.loanRepo.FindByIDWithDetails(ctx, id)
	if err != nil {
		return nil, ErrLoanNotFound
	}
	return loan, nil
}

// List returns loans matching the query
func (s *LoanService) List(ctx context.Context, query *repository.LoanQuery) ([]models.Loan, int64, error) {
	return s.loanRepo.List(ctx, query)
}

// GetStats returns portfolio counts by status
func (s *LoanService) GetStats(ctx context.Context) (*repository.LoanStats, error) {
	return s.loanRepo.GetStats(ctx)
}

// ExtendDueDate pushes a loan's due date forward and reconciles so an
// overdue loan with the pressure removed flips back to active.
func (s *LoanService) ExtendDueDate(ctx context.Context, loanID uint, newDueDate time.Time, user *models.User) (*models.Loan, error) {
	loan, err := s.loanRepo.FindByID(ctx, loanID)
	if err != nil {
		return nil, ErrLoanNotFound
	}
	if !loan.IsOpen() {
		return nil, ErrLoanAlreadyPaid
	}

	loan.DueDate = &newDueDate
	if err := s.loanRepo.Update(ctx, loan); err != nil {
		return nil, err
	}

	if _, err := s.reconcile.ReconcileLoan(ctx, loan.ID); err != nil {
		return nil, err
	}

	if user != nil {
		s.audit.Record(ctx, user.ID, AuditActionUpdate, AuditEntityLoan, loan.ID,
			fmt.Sprintf("fecha de vencimiento extendida a %s", newDueDate.Format("2006-01-02")))
	}

	return s.loanRepo.FindByID(ctx, loan.ID)
}

// UpdateNote replaces the loan's free-form note
func (s *LoanService) UpdateNote(ctx context.Context, loanID uint, note *string, user *models.User) (*models.Loan, error) {
	loan, err := s.loanRepo.FindByID(ctx, loanID)
	if err != nil {
		return nil, ErrLoanNotFound
	}

	loan.Note = note
	if err := s.loanRepo.Update(ctx, loan); err != nil {
		return nil, err
	}

	if user != nil {
		s.audit.Record(ctx, user.ID, AuditActionUpdate, AuditEntityLoan, loan.ID, "nota actualizada")
	}

	return loan, nil
}

// Discard soft-deletes a loan and drops its installment schedule with it.
// Loans with recorded payments cannot be discarded; the ledger is
// append-only and must stay explicable.
func (s *LoanService) Discard(ctx context.Context, loanID uint, user *models.User) error {
	loan, err := s.loanRepo.FindByID(ctx, loanID)
	if err != nil {
		return ErrLoanNotFound
	}

	total, err := s.paymentRepo.SumByLoan(ctx, loan.ID)
	if err != nil {
		return err
	}
	if total > models.MoneyEpsilon {
		return ErrLoanHasPayments
	}

	if err := s.loanRepo.SoftDelete(ctx, loan.ID); err != nil {
		return err
	}
	// Payment-free by the guard above, so the schedule rows carry nothing
	// the ledger cannot rebuild.
	if err := s.installmentRepo.DeleteByLoan(ctx, loan.ID); err != nil {
		return err
	}

	if loan.CustomerID != nil {
		if err := s.reconcile.ProjectCustomer(ctx, *loan.CustomerID); err != nil {
			logger.Error("customer projection failed after discard",
				"customer_id", *loan.CustomerID, "error", err)
		}
	}

	if user != nil {
		s.audit.Record(ctx, user.ID, AuditActionDelete, AuditEntityLoan, loan.ID, "préstamo eliminado")
	}

	return nil
}

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcastellanos/credifacil-api/internal/models"
	"github.com/jcastellanos/credifacil-api/internal/repository"
	"github.com/jcastellanos/credifacil-api/pkg/logger"
	"gorm.io/gorm"
)

// PaymentService records ledger entries and keeps loans in sync with them
type PaymentService struct {
	db            *gorm.DB
	loanRepo      repository.LoanRepository
	paymentRepo   repository.PaymentRepository
	customerRepo  repository.CustomerRepository
	reconcile     *ReconcileService
	notifications *NotificationService
	audit         *AuditService
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	db *gorm.DB,
	repos *repository.Repositories,
	reconcile *ReconcileService,
	notifications *NotificationService,
	audit *AuditService,
) *PaymentService {
	return &PaymentService{
		db:            db,
		loanRepo:      repos.Loan,
		paymentRepo:   repos.Payment,
		customerRepo:  repos.Customer,
		reconcile:     reconcile,
		notifications: notifications,
		audit:         audit,
	}
}

// RecordPaymentInput carries the data for a new ledger entry
type RecordPaymentInput struct {
	LoanID    uint       `json:"loan_id" binding:"required"`
	Amount    float64    `json:"amount" binding:"required,gt=0"`
	PaidAt    *time.Time `json:"paid_at"`
	Reference string     `json:"reference"`
	Method    string     `json:"method"`
	Metadata  *string    `json:"metadata"`
}

// Record appends a payment to the ledger and reconciles the loan in the
// same transaction: either both land or neither does. Notifications go out
// afterwards, best-effort.
func (s *PaymentService) Record(ctx context.Context, input *RecordPaymentInput, recordedBy *models.User) (*models.Payment, *ReconcileResult, error) {
	if input.Amount <= 0 {
		return nil, nil, ErrInvalidAmount
	}

	loan, err := s.loanRepo.FindByID(ctx, input.LoanID)
	if err != nil {
		return nil, nil, ErrLoanNotFound
	}
	if !loan.IsOpen() {
		return nil, nil, ErrLoanAlreadyPaid
	}
	if input.Amount > loan.AmountRemaining+models.MoneyEpsilon {
		return nil, nil, ErrOverpayment
	}

	paidAt := time.Now()
	if input.PaidAt != nil {
		paidAt = *input.PaidAt
	}
	reference := input.Reference
	if reference == "" {
		reference = uuid.NewString()
	}
	method := input.Method
	if method == "" {
		method = models.PaymentMethodCash
	}

	payment := &models.Payment{
		LoanID:    loan.ID,
		Amount:    input.Amount,
		PaidAt:    paidAt,
		Reference: reference,
		Method:    method,
		Metadata:  input.Metadata,
	}
	if recordedBy != nil {
		payment.RecordedByUserID = &recordedBy.ID
	}

	var result *ReconcileResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewPaymentRepository(tx).Create(ctx, payment); err != nil {
			return err
		}
		var txErr error
		result, txErr = s.reconcile.reconcileInTx(ctx, tx, loan.ID)
		return txErr
	})
	if err != nil {
		return nil, nil, err
	}

	if loan.CustomerID != nil {
		if err := s.reconcile.ProjectCustomer(ctx, *loan.CustomerID); err != nil {
			logger.Error("customer projection failed after payment",
				"customer_id", *loan.CustomerID, "error", err)
		}
	}

	// Reload the reconciled loan for notifications
	loan, err = s.loanRepo.FindByID(ctx, loan.ID)
	if err == nil && loan.CustomerID != nil {
		if customer, cErr := s.customerRepo.FindByID(ctx, *loan.CustomerID); cErr == nil {
			s.notifications.NotifyPaymentRecorded(ctx, loan, customer, payment)
			if result.Status == models.LoanStatusPaid && result.StatusChanged {
				s.notifications.NotifyLoanPaid(ctx, loan, customer)
			}
		}
	}

	if recordedBy != nil {
		s.audit.Record(ctx, recordedBy.ID, AuditActionCreate, AuditEntityPayment, payment.ID,
			fmt.Sprintf("pago de %.2f al préstamo %d (ref %s)", payment.Amount, payment.LoanID, payment.Reference))
	}

	logger.Info("payment recorded",
		"payment_id", payment.ID,
		"loan_id", payment.LoanID,
		"amount", payment.Amount,
		"status", result.Status)

	return payment, result, nil
}

// GetByID returns a single ledger entry
func (s *PaymentService) GetByID(ctx context.Context, id uint) (*models.Payment, error) {
	payment, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrPaymentNotFound
	}
	return payment, nil
}

// List returns ledger entries matching the query
func (s *PaymentService) List(ctx context.Context, query *repository.PaymentQuery) ([]models.Payment, int64, error) {
	return s.paymentRepo.List(ctx, query)
}

// SweepOverdue flips past-due loans to overdue and sends reminders. Run
// daily by the job scheduler; each loan reconciles in its own transaction
// so one failure cannot block the sweep.
func (s *PaymentService) SweepOverdue(ctx context.Context) (int, error) {
	candidates, err := s.loanRepo.FindOverdueCandidates(ctx)
	if err != nil {
		return 0, err
	}

	flipped := 0
	for i := range candidates {
		loan := &candidates[i]
		result, err := s.reconcile.ReconcileLoan(ctx, loan.ID)
		if err != nil {
			logger.Error("overdue sweep skipped loan", "loan_id", loan.ID, "error", err)
			continue
		}
		if result.Status == models.LoanStatusOverdue && result.StatusChanged {
			flipped++
			if loan.Customer != nil {
				s.notifications.NotifyLoanOverdue(ctx, loan, loan.Customer)
			}
		}
	}

	if flipped > 0 {
		logger.Info("overdue sweep completed", "checked", len(candidates), "flipped", flipped)
	}
	return flipped, nil
}

// SendOverdueReminders re-sends reminders for loans already marked overdue
func (s *PaymentService) SendOverdueReminders(ctx context.Context) (int, error) {
	query := &repository.LoanQuery{
		ListQuery: repository.NewListQuery(),
		Status:    models.LoanStatusOverdue,
	}
	query.PerPage = 0 // no pagination, reminders cover the whole portfolio

	loans, _, err := s.loanRepo.List(ctx, query)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range loans {
		loan := &loans[i]
		if loan.Customer == nil {
			continue
		}
		s.notifications.NotifyLoanOverdue(ctx, loan, loan.Customer)
		sent++
	}
	return sent, nil
}

// CollectionStats summarizes money collected today and so far this month.
// Backed by ledger sums, so it matches the payment list exactly.
type CollectionStats struct {
	CollectedToday     float64 `json:"collected_today"`
	CollectedThisMonth float64 `json:"collected_this_month"`
}

// GetCollectionStats returns the collections dashboard figures
func (s *PaymentService) GetCollectionStats(ctx context.Context) (*CollectionStats, error) {
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	today, err := s.paymentRepo.CollectedBetween(ctx, startOfDay, now)
	if err != nil {
		return nil, err
	}
	month, err := s.paymentRepo.CollectedBetween(ctx, startOfMonth, now)
	if err != nil {
		return nil, err
	}

	return &CollectionStats{
		CollectedToday:     today,
		CollectedThisMonth: month,
	}, nil
}

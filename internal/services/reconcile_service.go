package services

import (
	"context"
	"math"
	"time"

	"github.com/jcastellanos/credifacil-api/internal/models"
	"github.com/jcastellanos/credifacil-api/internal/repository"
	"github.com/jcastellanos/credifacil-api/internal/statemachine"
	"github.com/jcastellanos/credifacil-api/pkg/logger"
	"gorm.io/gorm"
)

// ReconcileService rederives a loan's installment allocation, aggregates and
// status from its payment ledger. The ledger sum is the single source of
// truth: installment and loan columns are always recomputed from it, never
// trusted.
type ReconcileService struct {
	db *gorm.DB
}

// NewReconcileService creates a new reconcile service
func NewReconcileService(db *gorm.DB) *ReconcileService {
	return &ReconcileService{db: db}
}

// ReconcileResult describes the outcome of reconciling a single loan
type ReconcileResult struct {
	LoanID          uint    `json:"loan_id"`
	Status          string  `json:"status"`
	AmountPaid      float64 `json:"amount_paid"`
	AmountRemaining float64 `json:"amount_remaining"`
	StatusChanged   bool    `json:"status_changed"`
	Repaired        bool    `json:"repaired"`
}

// ResyncSummary describes the outcome of a batch resync run
type ResyncSummary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Repaired  int `json:"repaired"`
}

// AllocatePayments spreads the ledger total over the schedule in waterfall
// order: each installment is filled up to its amount due before any money
// reaches the next one. The comparisons are exact so the allocated amounts
// conserve the ledger total to the centavo; the 0.01 tolerance applies only
// to the paid status, never to these amounts. Installments are expected
// sorted by seq.
func AllocatePayments(installments []models.Installment, totalPaid float64) []models.Installment {
	remaining := totalPaid
	for i := range installments {
		inst := &installments[i]
		switch {
		case remaining >= inst.AmountDue:
			inst.AmountPaid = inst.AmountDue
			inst.AmountLeft = 0
			inst.Note = models.InstallmentNoteFull
			remaining -= inst.AmountDue
		case remaining > 0:
			inst.AmountPaid = round2(remaining)
			inst.AmountLeft = round2(inst.AmountDue - remaining)
			inst.Note = models.InstallmentNotePartial
			remaining = 0
		default:
			inst.AmountPaid = 0
			inst.AmountLeft = inst.AmountDue
			inst.Note = models.InstallmentNotePending
			remaining = 0
		}
	}
	return installments
}

// ClassifyStatus derives the status a loan should hold given its ledger
// total. Paid wins over everything and is terminal; overdue wins over active
// and pending while any balance is outstanding past the due date. A loan
// that already left pending never goes back: extending an overdue loan's
// due date lands it on active even with nothing paid, since pending is
// unreachable from overdue.
func ClassifyStatus(loan *models.Loan, totalPaid float64, now time.Time) string {
	if loan.TotalWithInterest-totalPaid <= models.MoneyEpsilon {
		return models.LoanStatusPaid
	}
	if now.After(loan.EffectiveDueDate()) {
		return models.LoanStatusOverdue
	}
	if totalPaid > models.MoneyEpsilon ||
		loan.Status == models.LoanStatusActive ||
		loan.Status == models.LoanStatusOverdue {
		return models.LoanStatusActive
	}
	return models.LoanStatusPending
}

// AggregateLoan recomputes the loan's derived money columns from the ledger
// total. Interest only counts as earned once the principal is recovered.
func AggregateLoan(loan *models.Loan, totalPaid float64) {
	loan.AmountPaid = round2(totalPaid)
	loan.AmountRemaining = round2(math.Max(0, loan.TotalWithInterest-totalPaid))

	totalInterest := loan.TotalWithInterest - loan.Principal
	earned := totalPaid - loan.Principal
	if earned < 0 {
		earned = 0
	}
	if earned > totalInterest {
		earned = totalInterest
	}
	loan.InterestEarned = round2(earned)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ReconcileLoan reruns allocation, aggregation and status classification for
// one loan inside a single transaction. Safe to call any number of times;
// with an unchanged ledger it is a no-op.
func (s *ReconcileService) ReconcileLoan(ctx context.Context, loanID uint) (*ReconcileResult, error) {
	var result *ReconcileResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		result, txErr = s.reconcileInTx(ctx, tx, loanID)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	if result != nil {
		if err := s.projectCustomerForLoan(ctx, loanID); err != nil {
			logger.Error("customer projection failed after reconcile",
				"loan_id", loanID, "error", err)
		}
	}

	return result, nil
}

// reconcileInTx is the reconciliation body, run over whatever transaction
// the caller already holds so payment recording and reconciliation commit
// together.
func (s *ReconcileService) reconcileInTx(ctx context.Context, tx *gorm.DB, loanID uint) (*ReconcileResult, error) {
	loanRepo := repository.NewLoanRepository(tx)
	installmentRepo := repository.NewInstallmentRepository(tx)
	paymentRepo := repository.NewPaymentRepository(tx)

	loan, err := loanRepo.FindByID(ctx, loanID)
	if err != nil {
		return nil, ErrLoanNotFound
	}

	totalPaid, err := paymentRepo.SumByLoan(ctx, loan.ID)
	if err != nil {
		return nil, err
	}

	installments, err := installmentRepo.FindByLoan(ctx, loan.ID)
	if err != nil {
		return nil, err
	}

	repaired := math.Abs(loan.AmountPaid-totalPaid) > models.MoneyEpsilon
	storedPaid := loan.AmountPaid

	allocated := AllocatePayments(installments, totalPaid)
	for i := range allocated {
		if err := installmentRepo.UpdateAmounts(ctx, &allocated[i]); err != nil {
			return nil, err
		}
	}

	AggregateLoan(loan, totalPaid)

	previousStatus := loan.Status
	target := ClassifyStatus(loan, totalPaid, time.Now())
	if target != loan.Status {
		fsm := statemachine.NewLoanFSM(loan)
		if err := fsm.TransitionTo(ctx, target); err != nil {
			return nil, err
		}
	}

	if err := loanRepo.Update(ctx, loan); err != nil {
		return nil, err
	}

	if repaired {
		logger.Warn("loan columns drifted from ledger, repaired",
			"loan_id", loan.ID,
			"stored_paid", storedPaid,
			"ledger_paid", totalPaid)
	}

	return &ReconcileResult{
		LoanID:          loan.ID,
		Status:          loan.Status,
		AmountPaid:      loan.AmountPaid,
		AmountRemaining: loan.AmountRemaining,
		StatusChanged:   loan.Status != previousStatus,
		Repaired:        repaired,
	}, nil
}

// ResyncAll reconciles every open loan, one transaction per loan so a single
// bad loan never rolls back the whole batch.
func (s *ReconcileService) ResyncAll(ctx context.Context) (*ResyncSummary, error) {
	loanRepo := repository.NewLoanRepository(s.db)
	ids, err := loanRepo.FindOpenIDs(ctx)
	if err != nil {
		return nil, err
	}

	summary := &ResyncSummary{Total: len(ids)}
	for _, id := range ids {
		res, err := s.ReconcileLoan(ctx, id)
		if err != nil {
			summary.Failed++
			logger.Error("resync skipped loan", "loan_id", id, "error", err)
			continue
		}
		summary.Succeeded++
		if res.Repaired {
			summary.Repaired++
		}
	}

	logger.Info("resync completed",
		"total", summary.Total,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"repaired", summary.Repaired)

	return summary, nil
}

// ProjectCustomer recomputes a customer's portfolio rollups from their loans
// and writes them back in one column-level update. A customer with loans but
// none open is flipped to inactive; one with open loans is kept active.
func (s *ReconcileService) ProjectCustomer(ctx context.Context, customerID uint) error {
	customerRepo := repository.NewCustomerRepository(s.db)
	loanRepo := repository.NewLoanRepository(s.db)

	customer, err := customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return ErrCustomerNotFound
	}

	loans, err := loanRepo.FindByCustomer(ctx, customer.ID)
	if err != nil {
		return err
	}

	rollups := BuildCustomerRollups(loans)
	if err := customerRepo.UpdateRollups(ctx, customer.ID, rollups); err != nil {
		return err
	}

	status := models.CustomerStatusActive
	if len(loans) > 0 && rollups.ActiveLoansCount == 0 {
		status = models.CustomerStatusInactive
	}
	if status != customer.Status {
		if err := customerRepo.SetStatus(ctx, customer.ID, status); err != nil {
			return err
		}
	}

	return nil
}

// BuildCustomerRollups folds a customer's loans into their portfolio figures
func BuildCustomerRollups(loans []models.Loan) *repository.CustomerRollups {
	rollups := &repository.CustomerRollups{}
	for i := range loans {
		loan := &loans[i]
		rollups.TotalLoans = round2(rollups.TotalLoans + loan.Principal)
		rollups.TotalPaid = round2(rollups.TotalPaid + loan.AmountPaid)
		if loan.IsOpen() {
			rollups.ActiveLoansCount++
			rollups.TotalRemaining = round2(rollups.TotalRemaining + loan.AmountRemaining)
		}
		if rollups.LastLoanDate == nil || loan.CreatedAt.After(*rollups.LastLoanDate) {
			created := loan.CreatedAt
			rollups.LastLoanDate = &created
		}
	}
	return rollups
}

func (s *ReconcileService) projectCustomerForLoan(ctx context.Context, loanID uint) error {
	loanRepo := repository.NewLoanRepository(s.db)
	loan, err := loanRepo.FindByID(ctx, loanID)
	if err != nil {
		return err
	}
	if loan.CustomerID == nil {
		return nil
	}
	return s.ProjectCustomer(ctx, *loan.CustomerID)
}

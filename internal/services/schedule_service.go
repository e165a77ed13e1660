package services

import (
	"context"
	"time"

	"github.com/jcastellanos/credifacil-api/internal/models"
	"github.com/jcastellanos/credifacil-api/internal/repository"
	"github.com/jcastellanos/credifacil-api/pkg/logger"
	"github.com/shopspring/decimal"
)

// termMultipliers maps a term in months to the flat financing multiplier
// applied over the principal. Terms outside the table fall back to
// 1 + rate/100.
var termMultipliers = map[int]float64{
	1: 1.20,
	2: 1.31,
	3: 1.425,
	4: 1.56,
	5: 1.67,
	6: 1.83,
}

// ScheduleService builds and persists loan repayment schedules
type ScheduleService struct {
	loanRepo        repository.LoanRepository
	installmentRepo repository.InstallmentRepository
}

// NewScheduleService creates a new schedule service
func NewScheduleService(loanRepo repository.LoanRepository, installmentRepo repository.InstallmentRepository) *ScheduleService {
	return &ScheduleService{
		loanRepo:        loanRepo,
		installmentRepo: installmentRepo,
	}
}

// MultiplierFor returns the financing multiplier for a term and annualized
// rate. Table terms ignore the rate entirely.
func MultiplierFor(termMonths int, rate float64) float64 {
	if m, ok := termMultipliers[termMonths]; ok {
		return m
	}
	return 1 + rate/100
}

// TotalWithInterest computes the full amount a borrower owes for a loan,
// rounded to centavos.
func TotalWithInterest(principal float64, termMonths int, rate float64) float64 {
	p := decimal.NewFromFloat(principal)
	m := decimal.NewFromFloat(MultiplierFor(termMonths, rate))
	total, _ := p.Mul(m).Round(2).Float64()
	return total
}

// BuildSchedule produces the installment rows for a loan. The monthly amount
// is total/term rounded to centavos; whatever rounding leaves over lands on
// the last installment, so the schedule always sums to the total exactly.
func BuildSchedule(principal float64, termMonths int, rate float64, startDate time.Time) []models.Installment {
	total := decimal.NewFromFloat(TotalWithInterest(principal, termMonths, rate))
	monthly := total.Div(decimal.NewFromInt(int64(termMonths))).Round(2)

	installments := make([]models.Installment, 0, termMonths)
	for seq := 1; seq <= termMonths; seq++ {
		amount := monthly
		if seq == termMonths {
			amount = total.Sub(monthly.Mul(decimal.NewFromInt(int64(termMonths - 1))))
		}
		due, _ := amount.Float64()
		installments = append(installments, models.Installment{
			Seq:        seq,
			AmountDue:  due,
			AmountPaid: 0,
			AmountLeft: due,
			DueDate:    startDate.AddDate(0, seq, 0),
			Note:       models.InstallmentNotePending,
		})
	}
	return installments
}

// Generate validates the loan terms and builds its schedule without touching
// the database.
func (s *ScheduleService) Generate(loan *models.Loan) ([]models.Installment, error) {
	if loan.Principal <= 0 {
		return nil, ErrInvalidPrincipal
	}
	if loan.TermMonths < 1 {
		return nil, ErrInvalidTerm
	}
	if loan.InterestRate < 0 {
		return nil, ErrInvalidRate
	}
	return BuildSchedule(loan.Principal, loan.TermMonths, loan.InterestRate, loan.StartDate), nil
}

// Regenerate rebuilds a loan's schedule from its current terms, replacing
// any existing installments. Callers are expected to reconcile afterwards so
// recorded payments get reallocated over the new rows.
func (s *ScheduleService) Regenerate(ctx context.Context, loanID uint) ([]models.Installment, error) {
	loan, err := s.loanRepo.FindByID(ctx, loanID)
	if err != nil {
		return nil, ErrLoanNotFound
	}

	schedule, err := s.Generate(loan)
	if err != nil {
		return nil, err
	}

	if err := s.installmentRepo.ReplaceForLoan(ctx, loan.ID, schedule); err != nil {
		return nil, err
	}

	logger.Info("schedule regenerated",
		"loan_id", loan.ID,
		"term_months", loan.TermMonths,
		"installments", len(schedule))

	return schedule, nil
}

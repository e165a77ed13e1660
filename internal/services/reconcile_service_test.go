package services

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/jcastellanos/credifacil-api/internal/models"
	"github.com/jcastellanos/credifacil-api/internal/statemachine"
	"github.com/stretchr/testify/assert"
)

func scheduleOf(amounts ...float64) []models.Installment {
	installments := make([]models.Installment, 0, len(amounts))
	for i, due := range amounts {
		installments = append(installments, models.Installment{
			Seq:        i + 1,
			AmountDue:  due,
			AmountLeft: due,
			Note:       models.InstallmentNotePending,
		})
	}
	return installments
}

func TestAllocatePayments_Waterfall(t *testing.T) {
	// 500 over a 475x3 schedule: first row filled, 25 lands on the second
	installments := AllocatePayments(scheduleOf(475, 475, 475), 500)

	assert.Equal(t, 475.0, installments[0].AmountPaid)
	assert.Equal(t, 0.0, installments[0].AmountLeft)
	assert.Equal(t, models.InstallmentNoteFull, installments[0].Note)

	assert.Equal(t, 25.0, installments[1].AmountPaid)
	assert.Equal(t, 450.0, installments[1].AmountLeft)
	assert.Equal(t, models.InstallmentNotePartial, installments[1].Note)

	assert.Equal(t, 0.0, installments[2].AmountPaid)
	assert.Equal(t, 475.0, installments[2].AmountLeft)
	assert.Equal(t, models.InstallmentNotePending, installments[2].Note)
}

func TestAllocatePayments_NothingPaid(t *testing.T) {
	installments := AllocatePayments(scheduleOf(475, 475, 475), 0)

	for _, inst := range installments {
		assert.Equal(t, 0.0, inst.AmountPaid)
		assert.Equal(t, inst.AmountDue, inst.AmountLeft)
		assert.Equal(t, models.InstallmentNotePending, inst.Note)
	}
}

func TestAllocatePayments_FullyPaid(t *testing.T) {
	installments := AllocatePayments(scheduleOf(475, 475, 475), 1425)

	for _, inst := range installments {
		assert.Equal(t, inst.AmountDue, inst.AmountPaid)
		assert.Equal(t, 0.0, inst.AmountLeft)
		assert.Equal(t, models.InstallmentNoteFull, inst.Note)
	}
}

func TestAllocatePayments_CentavoPrecision(t *testing.T) {
	// one centavo short of the full amount stays partial; nothing is
	// fabricated to close the gap
	installments := AllocatePayments(scheduleOf(475), 474.99)
	assert.Equal(t, models.InstallmentNotePartial, installments[0].Note)
	assert.Equal(t, 474.99, installments[0].AmountPaid)
	assert.Equal(t, 0.01, installments[0].AmountLeft)

	// one centavo past an installment opens a partial on the next
	installments = AllocatePayments(scheduleOf(475, 475), 475.01)
	assert.Equal(t, models.InstallmentNoteFull, installments[0].Note)
	assert.Equal(t, models.InstallmentNotePartial, installments[1].Note)
	assert.Equal(t, 0.01, installments[1].AmountPaid)
	assert.Equal(t, 474.99, installments[1].AmountLeft)
}

func TestAllocatePayments_ConservesLedgerTotal(t *testing.T) {
	// sum(amount_paid) must equal min(total_paid, sum(amount_due)) for any
	// ledger total
	for _, paid := range []float64{0, 0.01, 25.5, 474.99, 475, 475.01, 950, 1424.99, 1425, 2000} {
		installments := AllocatePayments(scheduleOf(475, 475, 475), paid)
		sum := 0.0
		for _, inst := range installments {
			sum += inst.AmountPaid
		}
		assert.InDelta(t, math.Min(paid, 1425), sum, 0.001, "total paid %v", paid)
	}
}

func TestAllocatePayments_Idempotent(t *testing.T) {
	first := AllocatePayments(scheduleOf(475, 475, 475), 600)

	again := make([]models.Installment, len(first))
	copy(again, first)
	second := AllocatePayments(again, 600)

	for i := range first {
		assert.Equal(t, first[i].AmountPaid, second[i].AmountPaid)
		assert.Equal(t, first[i].AmountLeft, second[i].AmountLeft)
		assert.Equal(t, first[i].Note, second[i].Note)
	}
}

func TestClassifyStatus(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	future := now.AddDate(0, 1, 0)
	past := now.AddDate(0, -1, 0)

	tests := []struct {
		name      string
		dueDate   time.Time
		totalPaid float64
		expected  string
	}{
		{"Nothing paid, not due", future, 0, models.LoanStatusPending},
		{"Partially paid, not due", future, 500, models.LoanStatusActive},
		{"Nothing paid, past due", past, 0, models.LoanStatusOverdue},
		{"Partially paid, past due", past, 1000, models.LoanStatusOverdue},
		{"Fully paid", future, 1425, models.LoanStatusPaid},
		{"Fully paid past due still paid", past, 1425, models.LoanStatusPaid},
		{"Within epsilon of full", future, 1424.995, models.LoanStatusPaid},
		{"Overpaid", past, 1500, models.LoanStatusPaid},
		{"Epsilon of money paid is still pending", future, 0.005, models.LoanStatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			due := tt.dueDate
			loan := &models.Loan{
				Status:            models.LoanStatusPending,
				Principal:         1000,
				TotalWithInterest: 1425,
				DueDate:           &due,
			}
			assert.Equal(t, tt.expected, ClassifyStatus(loan, tt.totalPaid, now))
		})
	}
}

func TestClassifyStatus_ExtendedOverdueLoanGoesActive(t *testing.T) {
	// an overdue loan with nothing paid whose due date is pushed out must
	// classify as active: the state machine has no way back to pending
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	due := now.AddDate(0, 2, 0)
	loan := &models.Loan{
		Status:            models.LoanStatusOverdue,
		Principal:         1000,
		TotalWithInterest: 1425,
		DueDate:           &due,
	}

	target := ClassifyStatus(loan, 0, now)
	assert.Equal(t, models.LoanStatusActive, target)

	fsm := statemachine.NewLoanFSM(loan)
	assert.NoError(t, fsm.TransitionTo(context.Background(), target))
	assert.Equal(t, models.LoanStatusActive, loan.Status)
}

func TestClassifyStatus_ActiveLoanStaysActiveAtZeroPaid(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	due := now.AddDate(0, 1, 0)
	loan := &models.Loan{
		Status:            models.LoanStatusActive,
		Principal:         1000,
		TotalWithInterest: 1425,
		DueDate:           &due,
	}

	assert.Equal(t, models.LoanStatusActive, ClassifyStatus(loan, 0, now))
}

func TestClassifyStatus_FallsBackToTermDueDate(t *testing.T) {
	// no explicit due date: start date plus term decides overdue
	loan := &models.Loan{
		Principal:         1000,
		TotalWithInterest: 1425,
		TermMonths:        3,
		StartDate:         time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	beforeDue := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	afterDue := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, models.LoanStatusActive, ClassifyStatus(loan, 500, beforeDue))
	assert.Equal(t, models.LoanStatusOverdue, ClassifyStatus(loan, 500, afterDue))
}

func TestAggregateLoan(t *testing.T) {
	tests := []struct {
		name              string
		totalPaid         float64
		expectedPaid      float64
		expectedRemaining float64
		expectedInterest  float64
	}{
		{"Nothing paid", 0, 0, 1425, 0},
		{"Below principal earns no interest", 800, 800, 625, 0},
		{"Exactly principal earns no interest", 1000, 1000, 425, 0},
		{"Past principal earns the excess", 1100, 1100, 325, 100},
		{"Fully paid earns all interest", 1425, 1425, 0, 425},
		{"Overpayment clamps both figures", 1500, 1500, 0, 425},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loan := &models.Loan{Principal: 1000, TotalWithInterest: 1425}
			AggregateLoan(loan, tt.totalPaid)
			assert.Equal(t, tt.expectedPaid, loan.AmountPaid)
			assert.Equal(t, tt.expectedRemaining, loan.AmountRemaining)
			assert.Equal(t, tt.expectedInterest, loan.InterestEarned)
		})
	}
}

func TestBuildCustomerRollups(t *testing.T) {
	older := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)

	loans := []models.Loan{
		{Status: models.LoanStatusPaid, Principal: 1000, AmountPaid: 1425, AmountRemaining: 0, CreatedAt: older},
		{Status: models.LoanStatusActive, Principal: 1000, AmountPaid: 500, AmountRemaining: 925, CreatedAt: newer},
		{Status: models.LoanStatusOverdue, Principal: 1000, AmountPaid: 100, AmountRemaining: 1325, CreatedAt: older},
	}

	rollups := BuildCustomerRollups(loans)

	// total_loans is money lent, not a count
	assert.Equal(t, 3000.0, rollups.TotalLoans)
	assert.Equal(t, 2025.0, rollups.TotalPaid)
	// only open loans carry an outstanding balance
	assert.Equal(t, 2250.0, rollups.TotalRemaining)
	assert.Equal(t, 2, rollups.ActiveLoansCount)
	assert.NotNil(t, rollups.LastLoanDate)
	assert.Equal(t, newer, *rollups.LastLoanDate)
}

func TestBuildCustomerRollups_Empty(t *testing.T) {
	rollups := BuildCustomerRollups(nil)

	assert.Equal(t, 0.0, rollups.TotalLoans)
	assert.Equal(t, 0.0, rollups.TotalPaid)
	assert.Equal(t, 0, rollups.ActiveLoansCount)
	assert.Nil(t, rollups.LastLoanDate)
}

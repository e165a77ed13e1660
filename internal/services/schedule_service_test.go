package services

import (
	"testing"
	"time"

	"github.com/jcastellanos/credifacil-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestMultiplierFor(t *testing.T) {
	tests := []struct {
		name       string
		termMonths int
		rate       float64
		expected   float64
	}{
		{"One month", 1, 20, 1.20},
		{"Two months", 2, 20, 1.31},
		{"Three months", 3, 20, 1.425},
		{"Four months", 4, 20, 1.56},
		{"Five months", 5, 20, 1.67},
		{"Six months", 6, 20, 1.83},
		{"Table term ignores rate", 3, 99, 1.425},
		{"Fallback uses rate", 12, 50, 1.50},
		{"Fallback zero rate", 9, 0, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, MultiplierFor(tt.termMonths, tt.rate), 0.0001)
		})
	}
}

func TestTotalWithInterest(t *testing.T) {
	assert.Equal(t, 1425.0, TotalWithInterest(1000, 3, 20))
	assert.Equal(t, 1670.0, TotalWithInterest(1000, 5, 20))
	assert.Equal(t, 1830.0, TotalWithInterest(1000, 6, 20))
	// fallback multiplier, rounded to centavos
	assert.Equal(t, 1500.0, TotalWithInterest(1000, 12, 50))
	assert.Equal(t, 1421.51, TotalWithInterest(997.55, 3, 20))
}

func TestBuildSchedule_EvenSplit(t *testing.T) {
	start := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	installments := BuildSchedule(1000, 3, 20, start)

	assert.Len(t, installments, 3)
	for i, inst := range installments {
		assert.Equal(t, i+1, inst.Seq)
		assert.Equal(t, 475.0, inst.AmountDue)
		assert.Equal(t, 0.0, inst.AmountPaid)
		assert.Equal(t, 475.0, inst.AmountLeft)
		assert.Equal(t, models.InstallmentNotePending, inst.Note)
		assert.Equal(t, start.AddDate(0, i+1, 0), inst.DueDate)
	}
}

func TestBuildSchedule_LastInstallmentAbsorbsRemainder(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	installments := BuildSchedule(997.55, 3, 20, start)

	// total 1421.51, monthly 473.84, last row takes what rounding left over
	assert.Len(t, installments, 3)
	assert.Equal(t, 473.84, installments[0].AmountDue)
	assert.Equal(t, 473.84, installments[1].AmountDue)
	assert.Equal(t, 473.83, installments[2].AmountDue)

	sum := 0.0
	for _, inst := range installments {
		sum += inst.AmountDue
	}
	assert.InDelta(t, 1421.51, sum, 0.001)
}

func TestBuildSchedule_SingleInstallment(t *testing.T) {
	start := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	installments := BuildSchedule(500, 1, 20, start)

	assert.Len(t, installments, 1)
	assert.Equal(t, 600.0, installments[0].AmountDue)
	assert.Equal(t, start.AddDate(0, 1, 0), installments[0].DueDate)
}

func TestScheduleService_Generate_Validation(t *testing.T) {
	svc := NewScheduleService(nil, nil)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		loan *models.Loan
		err  error
	}{
		{"Zero principal", &models.Loan{Principal: 0, TermMonths: 3, InterestRate: 20, StartDate: start}, ErrInvalidPrincipal},
		{"Negative principal", &models.Loan{Principal: -100, TermMonths: 3, InterestRate: 20, StartDate: start}, ErrInvalidPrincipal},
		{"Zero term", &models.Loan{Principal: 1000, TermMonths: 0, InterestRate: 20, StartDate: start}, ErrInvalidTerm},
		{"Negative rate", &models.Loan{Principal: 1000, TermMonths: 3, InterestRate: -5, StartDate: start}, ErrInvalidRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Generate(tt.loan)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	installments, err := svc.Generate(&models.Loan{Principal: 1000, TermMonths: 3, InterestRate: 20, StartDate: start})
	assert.NoError(t, err)
	assert.Len(t, installments, 3)
}

package statemachine

import (
	"context"
	"testing"

	"github.com/jcastellanos/credifacil-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestLoanFSM_LegalTransitions(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		from   string
		target string
	}{
		{"Pending to active", models.LoanStatusPending, models.LoanStatusActive},
		{"Pending to overdue", models.LoanStatusPending, models.LoanStatusOverdue},
		{"Pending to paid", models.LoanStatusPending, models.LoanStatusPaid},
		{"Active to overdue", models.LoanStatusActive, models.LoanStatusOverdue},
		{"Active to paid", models.LoanStatusActive, models.LoanStatusPaid},
		{"Overdue to active", models.LoanStatusOverdue, models.LoanStatusActive},
		{"Overdue to paid", models.LoanStatusOverdue, models.LoanStatusPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loan := &models.Loan{ID: 1, Status: tt.from}
			err := NewLoanFSM(loan).TransitionTo(ctx, tt.target)
			assert.NoError(t, err)
			assert.Equal(t, tt.target, loan.Status)
		})
	}
}

func TestLoanFSM_PaidIsTerminal(t *testing.T) {
	ctx := context.Background()

	for _, target := range []string{models.LoanStatusActive, models.LoanStatusOverdue, models.LoanStatusPending} {
		loan := &models.Loan{ID: 1, Status: models.LoanStatusPaid}
		err := NewLoanFSM(loan).TransitionTo(ctx, target)
		assert.Error(t, err)
		assert.Equal(t, models.LoanStatusPaid, loan.Status)
	}
}

func TestLoanFSM_SameStateIsNoOp(t *testing.T) {
	ctx := context.Background()
	loan := &models.Loan{ID: 1, Status: models.LoanStatusActive}

	err := NewLoanFSM(loan).TransitionTo(ctx, models.LoanStatusActive)
	assert.NoError(t, err)
	assert.Equal(t, models.LoanStatusActive, loan.Status)
}

func TestLoanFSM_NoPathBackToPending(t *testing.T) {
	ctx := context.Background()
	loan := &models.Loan{ID: 1, Status: models.LoanStatusActive}

	err := NewLoanFSM(loan).TransitionTo(ctx, models.LoanStatusPending)
	assert.Error(t, err)
	assert.Equal(t, models.LoanStatusActive, loan.Status)
}

func TestLoanFSM_Can(t *testing.T) {
	pending := NewLoanFSM(&models.Loan{Status: models.LoanStatusPending})
	assert.True(t, pending.Can("activate"))
	assert.True(t, pending.Can("mark_overdue"))
	assert.True(t, pending.Can("mark_paid"))
	assert.False(t, pending.Can("reactivate"))

	paid := NewLoanFSM(&models.Loan{Status: models.LoanStatusPaid})
	assert.False(t, paid.Can("activate"))
	assert.False(t, paid.Can("mark_overdue"))
	assert.False(t, paid.Can("mark_paid"))
}

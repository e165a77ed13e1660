package statemachine

import (
	"context"
	"fmt"

	"github.com/jcastellanos/credifacil-api/internal/models"
	"github.com/looplab/fsm"
)

// LoanFSM wraps a loan with its lifecycle state machine. The status
// classifier decides the target state from the loan's numbers; the FSM
// guards that only legal transitions are applied. paid is terminal.
type LoanFSM struct {
	loan *models.Loan
	fsm  *fsm.FSM
}

// NewLoanFSM creates a new loan state machine
func NewLoanFSM(loan *models.Loan) *LoanFSM {
	lfsm := &LoanFSM{
		loan: loan,
	}

	lfsm.fsm = fsm.NewFSM(
		loan.Status,
		fsm.Events{
			// pending → active (first payment recorded)
			{Name: "activate", Src: []string{models.LoanStatusPending}, Dst: models.LoanStatusActive},

			// pending/active → overdue (past due date, balance outstanding)
			{Name: "mark_overdue", Src: []string{models.LoanStatusPending, models.LoanStatusActive}, Dst: models.LoanStatusOverdue},

			// overdue → active (due date extended)
			{Name: "reactivate", Src: []string{models.LoanStatusOverdue}, Dst: models.LoanStatusActive},

			// any open state → paid (terminal)
			{Name: "mark_paid", Src: []string{models.LoanStatusPending, models.LoanStatusActive, models.LoanStatusOverdue}, Dst: models.LoanStatusPaid},
		},
		fsm.Callbacks{},
	)

	return lfsm
}

// TransitionTo moves the loan to the target status, picking the event that
// connects the current state to it. Re-deriving the same state is a no-op so
// reconciliation stays idempotent.
func (l *LoanFSM) TransitionTo(ctx context.Context, target string) error {
	if l.fsm.Current() == target {
		return nil
	}

	var event string
	switch target {
	case models.LoanStatusActive:
		if l.fsm.Current() == models.LoanStatusOverdue {
			event = "reactivate"
		} else {
			event = "activate"
		}
	case models.LoanStatusOverdue:
		event = "mark_overdue"
	case models.LoanStatusPaid:
		event = "mark_paid"
	default:
		return fmt.Errorf("no transition from %s to %s", l.fsm.Current(), target)
	}

	if err := l.fsm.Event(ctx, event); err != nil {
		return fmt.Errorf("loan %d cannot move from %s to %s: %w", l.loan.ID, l.loan.Status, target, err)
	}

	l.loan.Status = l.fsm.Current()
	return nil
}

// Current returns the current state
func (l *LoanFSM) Current() string {
	return l.fsm.Current()
}

// Can checks if a transition event is possible
func (l *LoanFSM) Can(event string) bool {
	return l.fsm.Can(event)
}

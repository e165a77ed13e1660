package models

import (
	"time"
)

// Installment is one scheduled repayment line item belonging to a loan.
// Rows are generated as a whole batch per loan and mutated only by the
// payment allocator; regeneration always replaces the entire batch.
type Installment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	LoanID     uint      `gorm:"not null;index" json:"loan_id"`
	Seq        int       `gorm:"not null" json:"seq"`
	AmountDue  float64   `gorm:"type:decimal(15,2);not null" json:"amount_due"`
	AmountPaid float64   `gorm:"type:decimal(15,2);default:0" json:"amount_paid"`
	AmountLeft float64   `gorm:"type:decimal(15,2);default:0" json:"amount_left"`
	DueDate    time.Time `gorm:"type:date;not null;index" json:"due_date"`
	Note       string    `gorm:"default:Pending" json:"note"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Associations
	Loan *Loan `gorm:"foreignKey:LoanID" json:"-"`
}

// TableName specifies the table name for Installment
func (Installment) TableName() string {
	return "installments"
}

// Installment note constants (status hints shown in the schedule)
const (
	InstallmentNotePending  = "Pending"
	InstallmentNotePartial  = "Partially paid"
	InstallmentNoteFull     = "Fully paid"
	InstallmentNoteAutoSync = "Auto-synced"
)

// IsPaid returns true once the outstanding amount is within the epsilon
func (i *Installment) IsPaid() bool {
	return i.AmountLeft <= MoneyEpsilon
}

// IsOverdue returns true for an unpaid installment past its due date
func (i *Installment) IsOverdue() bool {
	return !i.IsPaid() && time.Now().After(i.DueDate)
}

// InstallmentResponse is the JSON response format for installments
type InstallmentResponse struct {
	ID         uint      `json:"id"`
	LoanID     uint      `json:"loan_id"`
	Seq        int       `json:"seq"`
	AmountDue  float64   `json:"amount_due"`
	AmountPaid float64   `json:"amount_paid"`
	AmountLeft float64   `json:"amount_left"`
	DueDate    time.Time `json:"due_date"`
	Paid       bool      `json:"paid"`
	Note       string    `json:"note"`
}

// ToResponse converts Installment to InstallmentResponse
func (i *Installment) ToResponse() InstallmentResponse {
	return InstallmentResponse{
		ID:         i.ID,
		LoanID:     i.LoanID,
		Seq:        i.Seq,
		AmountDue:  i.AmountDue,
		AmountPaid: i.AmountPaid,
		AmountLeft: i.AmountLeft,
		DueDate:    i.DueDate,
		Paid:       i.IsPaid(),
		Note:       i.Note,
	}
}

package models

import (
	"time"
)

// Payment is an append-only ledger entry for a loan. The sum of a loan's
// payments is the authoritative amount-paid figure that reconciliation
// converges installments and loan totals to. Rows are never mutated by
// background reconciliation.
type Payment struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	LoanID           uint      `gorm:"not null;index" json:"loan_id"`
	Amount           float64   `gorm:"type:decimal(15,2);not null" json:"amount"`
	PaidAt           time.Time `gorm:"not null;index" json:"paid_at"`
	Reference        string    `gorm:"uniqueIndex;not null" json:"reference"`
	Method           string    `gorm:"default:cash;not null" json:"method"`
	RecordedByUserID *uint     `gorm:"index" json:"recorded_by_user_id"`
	Metadata         *string   `gorm:"type:text" json:"metadata"`
	CreatedAt        time.Time `gorm:"index" json:"created_at"`

	// Associations
	Loan       *Loan `gorm:"foreignKey:LoanID" json:"-"`
	RecordedBy *User `gorm:"foreignKey:RecordedByUserID" json:"recorded_by,omitempty"`
}

// TableName specifies the table name for Payment
func (Payment) TableName() string {
	return "payments"
}

// Payment method constants
const (
	PaymentMethodCash     = "cash"
	PaymentMethodTransfer = "transfer"
	PaymentMethodMobile   = "mobile"
)

// PaymentResponse is the JSON response format for payments
type PaymentResponse struct {
	ID           uint      `json:"id"`
	LoanID       uint      `json:"loan_id"`
	Amount       float64   `json:"amount"`
	PaidAt       time.Time `json:"paid_at"`
	Reference    string    `json:"reference"`
	Method       string    `json:"method"`
	RecordedBy   string    `json:"recorded_by,omitempty"`
	CustomerName string    `json:"customer_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ToResponse converts Payment to PaymentResponse
func (p *Payment) ToResponse() PaymentResponse {
	resp := PaymentResponse{
		ID:        p.ID,
		LoanID:    p.LoanID,
		Amount:    p.Amount,
		PaidAt:    p.PaidAt,
		Reference: p.Reference,
		Method:    p.Method,
		CreatedAt: p.CreatedAt,
	}
	if p.RecordedBy != nil {
		resp.RecordedBy = p.RecordedBy.FullName
	}
	if p.Loan != nil && p.Loan.Customer != nil {
		resp.CustomerName = p.Loan.Customer.FullName
	}
	return resp
}

package models

import (
	"time"
)

// MoneyEpsilon is the tolerance used for all money comparisons. Amounts whose
// difference is at or below this value are considered equal.
const MoneyEpsilon = 0.01

// Loan represents a micro-credit loan issued to a customer
type Loan struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	CustomerID        *uint      `gorm:"index" json:"customer_id"`
	Principal         float64    `gorm:"type:decimal(15,2);not null" json:"principal"`
	InterestRate      float64    `gorm:"type:decimal(8,4);not null" json:"interest_rate"`
	TermMonths        int        `gorm:"not null" json:"term_months"`
	StartDate         time.Time  `gorm:"type:date;not null" json:"start_date"`
	DueDate           *time.Time `gorm:"type:date;index" json:"due_date"`
	Status            string     `gorm:"default:pending;not null;index" json:"status"`
	AmountPaid        float64    `gorm:"type:decimal(15,2);default:0" json:"amount_paid"`
	AmountRemaining   float64    `gorm:"type:decimal(15,2);default:0" json:"amount_remaining"`
	InterestEarned    float64    `gorm:"type:decimal(15,2);default:0" json:"interest_earned"`
	TotalWithInterest float64    `gorm:"type:decimal(15,2);not null" json:"total_with_interest"`
	Currency          string     `gorm:"default:HNL;not null" json:"currency"`
	IssuedByUserID    *uint      `gorm:"index" json:"issued_by_user_id"`
	Note              *string    `gorm:"type:text" json:"note"`
	DiscardedAt       *time.Time `gorm:"index" json:"-"`
	CreatedAt         time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	// Associations
	Customer     *Customer     `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Installments []Installment `gorm:"foreignKey:LoanID" json:"installments,omitempty"`
	Payments     []Payment     `gorm:"foreignKey:LoanID" json:"payments,omitempty"`
	IssuedBy     *User         `gorm:"foreignKey:IssuedByUserID" json:"issued_by,omitempty"`
}

// TableName specifies the table name for Loan
func (Loan) TableName() string {
	return "loans"
}

// Loan status constants
const (
	LoanStatusPending = "pending"
	LoanStatusActive  = "active"
	LoanStatusOverdue = "overdue"
	LoanStatusPaid    = "paid"
)

// IsOpen returns true while the loan still has an outstanding balance
func (l *Loan) IsOpen() bool {
	return l.Status == LoanStatusPending ||
		l.Status == LoanStatusActive ||
		l.Status == LoanStatusOverdue
}

// IsPaid returns true if the remaining balance is within the money epsilon
func (l *Loan) IsPaid() bool {
	return l.AmountRemaining <= MoneyEpsilon
}

// IsDiscarded returns true if the loan is soft-deleted
func (l *Loan) IsDiscarded() bool {
	return l.DiscardedAt != nil
}

// EffectiveDueDate returns the explicit due date, or start date plus term
// when none was recorded.
func (l *Loan) EffectiveDueDate() time.Time {
	if l.DueDate != nil {
		return *l.DueDate
	}
	return l.StartDate.AddDate(0, l.TermMonths, 0)
}

// LoanResponse is the JSON response format for loans
type LoanResponse struct {
	ID                uint                  `json:"id"`
	CustomerID        *uint                 `json:"customer_id"`
	CustomerName      string                `json:"customer_name,omitempty"`
	CustomerPhone     string                `json:"customer_phone,omitempty"`
	Principal         float64               `json:"principal"`
	InterestRate      float64               `json:"interest_rate"`
	TermMonths        int                   `json:"term_months"`
	StartDate         time.Time             `json:"start_date"`
	DueDate           time.Time             `json:"due_date"`
	Status            string                `json:"status"`
	AmountPaid        float64               `json:"amount_paid"`
	AmountRemaining   float64               `json:"amount_remaining"`
	InterestEarned    float64               `json:"interest_earned"`
	TotalWithInterest float64               `json:"total_with_interest"`
	Currency          string                `json:"currency"`
	Note              *string               `json:"note"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
	Schedule          []InstallmentResponse `json:"schedule,omitempty"`
	Payments          []PaymentResponse     `json:"payments,omitempty"`
}

// ToResponse converts Loan to LoanResponse
func (l *Loan) ToResponse() LoanResponse {
	resp := LoanResponse{
		ID:                l.ID,
		CustomerID:        l.CustomerID,
		Principal:         l.Principal,
		InterestRate:      l.InterestRate,
		TermMonths:        l.TermMonths,
		StartDate:         l.StartDate,
		DueDate:           l.EffectiveDueDate(),
		Status:            l.Status,
		AmountPaid:        l.AmountPaid,
		AmountRemaining:   l.AmountRemaining,
		InterestEarned:    l.InterestEarned,
		TotalWithInterest: l.TotalWithInterest,
		Currency:          l.Currency,
		Note:              l.Note,
		CreatedAt:         l.CreatedAt,
		UpdatedAt:         l.UpdatedAt,
	}

	if l.Customer != nil {
		resp.CustomerName = l.Customer.FullName
		resp.CustomerPhone = l.Customer.Phone
	}

	for _, inst := range l.Installments {
		resp.Schedule = append(resp.Schedule, inst.ToResponse())
	}
	for _, p := range l.Payments {
		resp.Payments = append(resp.Payments, p.ToResponse())
	}

	return resp
}

package models

import (
	"time"
)

// Customer represents a borrower. The rollup fields are denormalized
// aggregates over the customer's loans; they carry no independent state and
// are recomputed by the summary projector whenever an owned loan changes.
type Customer struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	FullName    string     `gorm:"not null" json:"full_name"`
	Identity    string     `gorm:"uniqueIndex;not null" json:"identity"`
	Phone       string     `gorm:"not null" json:"phone"`
	Email       *string    `gorm:"index" json:"email"`
	Address     *string    `json:"address"`
	Status      string     `gorm:"default:active;index" json:"status"`
	Note        *string    `gorm:"type:text" json:"note"`
	CreatedBy   *uint      `json:"created_by"`
	DiscardedAt *time.Time `gorm:"index" json:"-"`

	// Rollups (derived from loans). TotalLoans is money, not a count: the
	// sum of every loan's principal.
	TotalLoans       float64    `gorm:"type:decimal(15,2);default:0" json:"total_loans"`
	TotalPaid        float64    `gorm:"type:decimal(15,2);default:0" json:"total_paid"`
	TotalRemaining   float64    `gorm:"type:decimal(15,2);default:0" json:"total_remaining"`
	ActiveLoansCount int        `gorm:"default:0" json:"active_loans_count"`
	LastLoanDate     *time.Time `json:"last_loan_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Loans   []Loan `gorm:"foreignKey:CustomerID" json:"loans,omitempty"`
	Creator *User  `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
}

// TableName specifies the table name for Customer
func (Customer) TableName() string {
	return "customers"
}

// Customer status constants
const (
	CustomerStatusActive   = "active"
	CustomerStatusInactive = "inactive"
)

// IsActive returns true if the customer is active and not soft-deleted
func (c *Customer) IsActive() bool {
	return c.Status == CustomerStatusActive && c.DiscardedAt == nil
}

// IsDiscarded returns true if the customer is soft-deleted
func (c *Customer) IsDiscarded() bool {
	return c.DiscardedAt != nil
}

// CustomerResponse is the JSON response format for customers
type CustomerResponse struct {
	ID               uint           `json:"id"`
	FullName         string         `json:"full_name"`
	Identity         string         `json:"identity"`
	Phone            string         `json:"phone"`
	Email            *string        `json:"email"`
	Address          *string        `json:"address"`
	Status           string         `json:"status"`
	Note             *string        `json:"note"`
	TotalLoans       float64        `json:"total_loans"`
	TotalPaid        float64        `json:"total_paid"`
	TotalRemaining   float64        `json:"total_remaining"`
	ActiveLoansCount int            `json:"active_loans_count"`
	LastLoanDate     *time.Time     `json:"last_loan_date"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	Loans            []LoanResponse `json:"loans,omitempty"`
}

// ToResponse converts Customer to CustomerResponse
func (c *Customer) ToResponse() CustomerResponse {
	resp := CustomerResponse{
		ID:               c.ID,
		FullName:         c.FullName,
		Identity:         c.Identity,
		Phone:            c.Phone,
		Email:            c.Email,
		Address:          c.Address,
		Status:           c.Status,
		Note:             c.Note,
		TotalLoans:       c.TotalLoans,
		TotalPaid:        c.TotalPaid,
		TotalRemaining:   c.TotalRemaining,
		ActiveLoansCount: c.ActiveLoansCount,
		LastLoanDate:     c.LastLoanDate,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
	for _, loan := range c.Loans {
		resp.Loans = append(resp.Loans, loan.ToResponse())
	}
	return resp
}

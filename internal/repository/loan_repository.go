package repository

import (
	"context"
	"strings"
	"time"

	"github.com/jcastellanos/credifacil-api/internal/models"
	"gorm.io/gorm"
)

// LoanRepository defines the interface for loan data access
type LoanRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Loan, error)
	FindByIDWithDetails(ctx context.Context, id uint) (*models.Loan, error)
	FindByCustomer(ctx context.Context, customerID uint) ([]models.Loan, error)
	Create(ctx context.Context, loan *models.Loan) error
	Update(ctx context.Context, loan *models.Loan) error
	SoftDelete(ctx context.Context, id uint) error
	List(ctx context.Context, query *LoanQuery) ([]models.Loan, int64, error)
	FindOpenIDs(ctx context.Context) ([]uint, error)
	FindOverdueCandidates(ctx context.Context) ([]models.Loan, error)
	HasOpenLoans(ctx context.Context, customerID uint, excludeLoanID uint) (bool, error)
	GetStats(ctx context.Context) (*LoanStats, error)
}

// LoanQuery extends ListQuery with loan-specific filters
type LoanQuery struct {
	*ListQuery
	CustomerID uint
	Status     string
}

// LoanStats holds the count of loans by status
type LoanStats struct {
	Total   int64 `json:"total"`
	Pending int64 `json:"pending"`
	Active  int64 `json:"active"`
	Overdue int64 `json:"overdue"`
	Paid    int64 `json:"paid"`
}

type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) FindByID(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Where("discarded_at IS NULL").
		First(&loan, id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) FindByIDWithDetails(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Where("discarded_at IS NULL").
		Preload("Customer").
		Preload("Installments", func(db *gorm.DB) *gorm.DB {
			return db.Order("seq ASC")
		}).
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("paid_at ASC, id ASC")
		}).
		First(&loan, id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) FindByCustomer(ctx context.Context, customerID uint) ([]models.Loan, error) {
	var loans []models.Loan
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND discarded_at IS NULL", customerID).
		Order("created_at ASC").
		Find(&loans).Error
	return loans, err
}

func (r *loanRepository) Create(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Create(loan).Error
}

func (r *loanRepository) Update(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Save(loan).Error
}

func (r *loanRepository) SoftDelete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("id = ?", id).
		Update("discarded_at", time.Now()).Error
}

func (r *loanRepository) List(ctx context.Context, query *LoanQuery) ([]models.Loan, int64, error) {
	var loans []models.Loan
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Loan{}).Where("loans.discarded_at IS NULL")

	if query.CustomerID > 0 {
		db = db.Where("loans.customer_id = ?", query.CustomerID)
	}

	// Status filter, single or comma-separated
	if query.Status != "" {
		if strings.Contains(query.Status, ",") {
			statuses := strings.Split(query.Status, ",")
			for i, s := range statuses {
				statuses[i] = strings.TrimSpace(s)
			}
			db = db.Where("loans.status IN ?", statuses)
		} else {
			db = db.Where("loans.status = ?", query.Status)
		}
	}

	if query.Filters != nil {
		if val, ok := query.Filters["start_date"]; ok && val != "" {
			db = db.Where("loans.created_at >= ?", val)
		}
		if val, ok := query.Filters["end_date"]; ok && val != "" {
			if len(val) == 10 { // YYYY-MM-DD
				val += " 23:59:59"
			}
			db = db.Where("loans.created_at <= ?", val)
		}
	}

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Joins("LEFT JOIN customers ON customers.id = loans.customer_id").
			Where("customers.full_name ILIKE ? OR customers.identity ILIKE ? OR customers.phone ILIKE ?",
				search, search, search)
	}

	// Count on a separate session so the main query is not altered by Count()
	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if query.SortBy != "" {
		order := query.SortBy
		if query.SortDir == "desc" {
			order += " DESC"
		}
		db = db.Order(order)
	} else {
		db = db.Order("loans.created_at DESC")
	}

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.
		Select("loans.*").
		Preload("Customer").
		Find(&loans).Error
	if err != nil {
		return nil, 0, err
	}

	return loans, total, nil
}

// FindOpenIDs returns the IDs of all loans that still carry a balance.
// Used by the batch resync job, which loads each loan inside its own
// transaction rather than holding all rows in memory.
func (r *loanRepository) FindOpenIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("status IN ? AND discarded_at IS NULL",
			[]string{models.LoanStatusPending, models.LoanStatusActive, models.LoanStatusOverdue}).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// FindOverdueCandidates returns unpaid loans whose due date has passed but
// whose status has not yet been flipped to overdue.
func (r *loanRepository) FindOverdueCandidates(ctx context.Context) ([]models.Loan, error) {
	var loans []models.Loan
	err := r.db.WithContext(ctx).
		Where("status IN ? AND discarded_at IS NULL",
			[]string{models.LoanStatusPending, models.LoanStatusActive}).
		Where("COALESCE(due_date, start_date + (term_months || ' months')::interval) < CURRENT_DATE").
		Preload("Customer").
		Order("due_date ASC").
		Find(&loans).Error
	return loans, err
}

func (r *loanRepository) HasOpenLoans(ctx context.Context, customerID uint, excludeLoanID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("customer_id = ? AND discarded_at IS NULL", customerID).
		Where("status IN ?", []string{models.LoanStatusPending, models.LoanStatusActive, models.LoanStatusOverdue}).
		Where("id <> ?", excludeLoanID).
		Count(&count).Error
	return count > 0, err
}

func (r *loanRepository) GetStats(ctx context.Context) (*LoanStats, error) {
	stats := &LoanStats{}

	rows, err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("discarded_at IS NULL").
		Select("status, count(*) as count").
		Group("status").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.Total += count
		switch status {
		case models.LoanStatusPending:
			stats.Pending = count
		case models.LoanStatusActive:
			stats.Active = count
		case models.LoanStatusOverdue:
			stats.Overdue = count
		case models.LoanStatusPaid:
			stats.Paid = count
		}
	}

	return stats, nil
}

// InstallmentRepository defines the interface for installment data access
type InstallmentRepository interface {
	FindByLoan(ctx context.Context, loanID uint) ([]models.Installment, error)
	ReplaceForLoan(ctx context.Context, loanID uint, batch []models.Installment) error
	UpdateAmounts(ctx context.Context, inst *models.Installment) error
	DeleteByLoan(ctx context.Context, loanID uint) error
}

type installmentRepository struct {
	db *gorm.DB
}

// NewInstallmentRepository creates a new installment repository
func NewInstallmentRepository(db *gorm.DB) InstallmentRepository {
	return &installmentRepository{db: db}
}

func (r *installmentRepository) FindByLoan(ctx context.Context, loanID uint) ([]models.Installment, error) {
	var installments []models.Installment
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("seq ASC").
		Find(&installments).Error
	return installments, err
}

// ReplaceForLoan swaps a loan's schedule for a new batch atomically. If any
// insert fails the delete rolls back too, so the old schedule stays intact.
func (r *installmentRepository) ReplaceForLoan(ctx context.Context, loanID uint, batch []models.Installment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("loan_id = ?", loanID).Delete(&models.Installment{}).Error; err != nil {
			return err
		}
		for i := range batch {
			batch[i].LoanID = loanID
			if err := tx.Create(&batch[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateAmounts persists the allocator's changes to a single installment row
func (r *installmentRepository) UpdateAmounts(ctx context.Context, inst *models.Installment) error {
	return r.db.WithContext(ctx).
		Model(&models.Installment{}).
		Where("id = ?", inst.ID).
		Updates(map[string]interface{}{
			"amount_paid": inst.AmountPaid,
			"amount_left": inst.AmountLeft,
			"note":        inst.Note,
		}).Error
}

func (r *installmentRepository) DeleteByLoan(ctx context.Context, loanID uint) error {
	return r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Delete(&models.Installment{}).Error
}

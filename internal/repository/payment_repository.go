package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jcastellanos/credifacil-api/internal/models"
	"gorm.io/gorm"
)

// ErrDuplicateReference is returned when a payment with the same external
// reference has already been recorded
var ErrDuplicateReference = errors.New("ya existe un pago con esa referencia")

// PaymentRepository defines the interface for the payment ledger. The ledger
// is append-only: rows are created and read, never updated or deleted.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, id uint) (*models.Payment, error)
	FindByLoan(ctx context.Context, loanID uint) ([]models.Payment, error)
	SumByLoan(ctx context.Context, loanID uint) (float64, error)
	List(ctx context.Context, query *PaymentQuery) ([]models.Payment, int64, error)
	CollectedBetween(ctx context.Context, from, to time.Time) (float64, error)
}

// PaymentQuery extends ListQuery with payment-specific filters
type PaymentQuery struct {
	*ListQuery
	LoanID     uint
	CustomerID uint
	Method     string
}

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	err := r.db.WithContext(ctx).Create(payment).Error
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateReference
		}
		return err
	}
	return nil
}

func (r *paymentRepository) FindByID(ctx context.Context, id uint) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Preload("Loan").
		Preload("RecordedBy").
		First(&payment, id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) FindByLoan(ctx context.Context, loanID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("paid_at ASC, id ASC").
		Find(&payments).Error
	return payments, err
}

// SumByLoan totals the ledger for a loan. This figure, not the installment
// rows, is what the reconciler treats as the amount actually paid.
func (r *paymentRepository) SumByLoan(ctx context.Context, loanID uint) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("loan_id = ?", loanID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

func (r *paymentRepository) List(ctx context.Context, query *PaymentQuery) ([]models.Payment, int64, error) {
	var payments []models.Payment
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Payment{})

	if query.LoanID > 0 {
		db = db.Where("payments.loan_id = ?", query.LoanID)
	}
	if query.CustomerID > 0 {
		db = db.Joins("JOIN loans ON loans.id = payments.loan_id").
			Where("loans.customer_id = ?", query.CustomerID)
	}
	if query.Method != "" {
		db = db.Where("payments.method = ?", query.Method)
	}

	if query.Filters != nil {
		if val, ok := query.Filters["start_date"]; ok && val != "" {
			db = db.Where("payments.paid_at >= ?", val)
		}
		if val, ok := query.Filters["end_date"]; ok && val != "" {
			if len(val) == 10 {
				val += " 23:59:59"
			}
			db = db.Where("payments.paid_at <= ?", val)
		}
	}

	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = db.Order("payments.paid_at DESC, payments.id DESC")

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.
		Select("payments.*").
		Preload("Loan").
		Preload("Loan.Customer").
		Find(&payments).Error
	if err != nil {
		return nil, 0, err
	}

	return payments, total, nil
}

func (r *paymentRepository) CollectedBetween(ctx context.Context, from, to time.Time) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("paid_at >= ? AND paid_at < ?", from, to).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

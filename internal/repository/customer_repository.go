package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jcastellanos/credifacil-api/internal/models"
	"gorm.io/gorm"
)

// ErrDuplicateIdentity is returned when a customer with the same identity
// document already exists
var ErrDuplicateIdentity = errors.New("ya existe un cliente con esa identidad")

// CustomerRepository defines the interface for customer data access
type CustomerRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Customer, error)
	FindByIdentity(ctx context.Context, identity string) (*models.Customer, error)
	Create(ctx context.Context, customer *models.Customer) error
	Update(ctx context.Context, customer *models.Customer) error
	SoftDelete(ctx context.Context, id uint) error
	Restore(ctx context.Context, id uint) (*models.Customer, error)
	List(ctx context.Context, query *ListQuery) ([]models.Customer, int64, error)
	UpdateRollups(ctx context.Context, customerID uint, rollups *CustomerRollups) error
	SetStatus(ctx context.Context, customerID uint, status string) error
	CountByStatus(ctx context.Context, status string) (int64, error)
}

// CustomerRollups holds the derived portfolio figures written back to the
// customer row by the summary projector.
type CustomerRollups struct {
	TotalLoans       float64
	TotalPaid        float64
	TotalRemaining   float64
	ActiveLoansCount int
	LastLoanDate     *time.Time
}

type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) FindByID(ctx context.Context, id uint) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Where("discarded_at IS NULL").
		First(&customer, id).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) FindByIdentity(ctx context.Context, identity string) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Where("identity = ? AND discarded_at IS NULL", identity).
		First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) Create(ctx context.Context, customer *models.Customer) error {
	err := r.db.WithContext(ctx).Create(customer).Error
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateIdentity
		}
		return err
	}
	return nil
}

func (r *customerRepository) Update(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Save(customer).Error
}

func (r *customerRepository) SoftDelete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ?", id).
		Update("discarded_at", time.Now()).Error
}

// Restore clears a soft-deleted customer's discard mark and returns the row
func (r *customerRepository) Restore(ctx context.Context, id uint) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Where("discarded_at IS NOT NULL").
		First(&customer, id).Error
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).
		Model(&customer).
		Update("discarded_at", nil).Error
	if err != nil {
		return nil, err
	}
	customer.DiscardedAt = nil
	return &customer, nil
}

func (r *customerRepository) List(ctx context.Context, query *ListQuery) ([]models.Customer, int64, error) {
	var customers []models.Customer
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Customer{}).Where("discarded_at IS NULL")

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("full_name ILIKE ? OR identity ILIKE ? OR phone ILIKE ? OR email ILIKE ?",
			search, search, search, search)
	}

	if query.Filters != nil {
		if val, ok := query.Filters["status"]; ok && val != "" {
			db = db.Where("status = ?", val)
		}
	}

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
		db = db.Order("full_name ASC")
	}

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	if err := db.Find(&customers).Error; err != nil {
		return nil, 0, err
	}

	return customers, total, nil
}

// UpdateRollups writes the projector's figures with a column-level Updates
// call so model hooks never fire for derived data.
func (r *customerRepository) UpdateRollups(ctx context.Context, customerID uint, rollups *CustomerRollups) error {
	return r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ?", customerID).
		Updates(map[string]interface{}{
			"total_loans":        rollups.TotalLoans,
			"total_paid":         rollups.TotalPaid,
			"total_remaining":    rollups.TotalRemaining,
			"active_loans_count": rollups.ActiveLoansCount,
			"last_loan_date":     rollups.LastLoanDate,
		}).Error
}

func (r *customerRepository) SetStatus(ctx context.Context, customerID uint, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ?", customerID).
		Update("status", status).Error
}

func (r *customerRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("status = ? AND discarded_at IS NULL", status).
		Count(&count).Error
	return count, err
}

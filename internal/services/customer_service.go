package services

import (
	"context"
	"fmt"

	"github.com/jcastellanos/credifacil-api/internal/models"
	"github.com/jcastellanos/credifacil-api/internal/repository"
	"github.com/jcastellanos/credifacil-api/pkg/logger"
)

// CustomerService handles customer onboarding and management
type CustomerService struct {
	customerRepo  repository.CustomerRepository
	loanRepo      repository.LoanRepository
	notifications *NotificationService
	audit         *AuditService
}

// NewCustomerService creates a new customer service
func NewCustomerService(
	repos *repository.Repositories,
	notifications *NotificationService,
	audit *AuditService,
) *CustomerService {
	return &CustomerService{
		customerRepo:  repos.Customer,
		loanRepo:      repos.Loan,
		notifications: notifications,
		audit:         audit,
	}
}

// CreateCustomerInput carries the data for onboarding a customer
type CreateCustomerInput struct {
	FullName string  `json:"full_name" binding:"required"`
	Identity string  `json:"identity" binding:"required"`
	Phone    string  `json:"phone" binding:"required"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Address  *string `json:"address"`
	Note     *string `json:"note"`
}

// UpdateCustomerInput carries partial customer updates
type UpdateCustomerInput struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Address  *string `json:"address"`
	Note     *string `json:"note"`
}

// Create onboards a new customer. Identity documents are unique; a second
// registration with the same document is rejected.
func (s *CustomerService) Create(ctx context.Context, input *CreateCustomerInput, createdBy *models.User) (*models.Customer, error) {
	customer := &models.Customer{
		FullName: input.FullName,
		Identity: input.Identity,
		Phone:    input.Phone,
		Email:    input.Email,
		Address:  input.Address,
		Note:     input.Note,
		Status:   models.CustomerStatusActive,
	}
	if createdBy != nil {
		customer.CreatedBy = &createdBy.ID
	}

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, err
	}

	if createdBy != nil {
		s.audit.Record(ctx, createdBy.ID, AuditActionCreate, AuditEntityCustomer, customer.ID,
			fmt.Sprintf("cliente %s (%s)", customer.FullName, customer.Identity))
		s.notifications.Create(ctx, createdBy.ID, "Cliente registrado",
			fmt.Sprintf("Cliente %s registrado exitosamente", customer.FullName),
			models.NotificationTypeCustomerCreated)
	}

	logger.Info("customer created", "customer_id", customer.ID, "identity", customer.Identity)
	return customer, nil
}

// GetByID returns a customer by ID
func (s *CustomerService) GetByID(ctx context.Context, id uint) (*models.Customer, error) {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrCustomerNotFound
	}
	return customer, nil
}

// GetByIdentity returns a customer by their national identity number.
// Used at the counter, where staff look customers up by ID card.
func (s *CustomerService) GetByIdentity(ctx context.Context, identity string) (*models.Customer, error) {
	customer, err := s.customerRepo.FindByIdentity(ctx, identity)
	if err != nil {
		return nil, ErrCustomerNotFound
	}
	return customer, nil
}

// GetWithLoans returns a customer with their full loan portfolio loaded
func (s *CustomerService) GetWithLoans(ctx context.Context, id uint) (*models.Customer, error) {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrCustomerNotFound
	}
	loans, err := s.loanRepo.FindByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, err
	}
	customer.Loans = loans
	return customer, nil
}

// List returns customers matching the query
func (s *CustomerService) List(ctx context.Context, query *repository.ListQuery) ([]models.Customer, int64, error) {
	return s.customerRepo.List(ctx, query)
}

// Update applies partial changes to a customer's contact data. Identity is
// immutable once set.
func (s *CustomerService) Update(ctx context.Context, id uint, input *UpdateCustomerInput, updatedBy *models.User) (*models.Customer, error) {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrCustomerNotFound
	}

	if input.FullName != nil {
		customer.FullName = *input.FullName
	}
	if input.Phone != nil {
		customer.Phone = *input.Phone
	}
	if input.Email != nil {
		customer.Email = input.Email
	}
	if input.Address != nil {
		customer.Address = input.Address
	}
	if input.Note != nil {
		customer.Note = input.Note
	}

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, err
	}

	if updatedBy != nil {
		s.audit.Record(ctx, updatedBy.ID, AuditActionUpdate, AuditEntityCustomer, customer.ID, "datos de contacto actualizados")
	}

	return customer, nil
}

// Delete soft-deletes a customer. Customers with open loans cannot be
// removed.
func (s *CustomerService) Delete(ctx context.Context, id uint, deletedBy *models.User) error {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return ErrCustomerNotFound
	}

	hasOpen, err := s.loanRepo.HasOpenLoans(ctx, customer.ID, 0)
	if err != nil {
		return err
	}
	if hasOpen {
		return ErrCustomerHasLoans
	}

	if err := s.customerRepo.SoftDelete(ctx, customer.ID); err != nil {
		return err
	}

	if deletedBy != nil {
		s.audit.Record(ctx, deletedBy.ID, AuditActionDelete, AuditEntityCustomer, customer.ID,
			fmt.Sprintf("cliente %s eliminado", customer.FullName))
	}

	return nil
}

// Restore brings back a soft-deleted customer
func (s *CustomerService) Restore(ctx context.Context, id uint, restoredBy *models.User) (*models.Customer, error) {
	customer, err := s.customerRepo.Restore(ctx, id)
	if err != nil {
		return nil, ErrCustomerNotFound
	}

	if restoredBy != nil {
		s.audit.Record(ctx, restoredBy.ID, AuditActionUpdate, AuditEntityCustomer, customer.ID,
			fmt.Sprintf("cliente %s restaurado", customer.FullName))
	}

	return customer, nil
}

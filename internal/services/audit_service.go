package services

import (
	"context"

	"github.com/jcastellanos/credifacil-api/internal/models"
	"github.com/jcastellanos/credifacil-api/internal/repository"
	"github.com/jcastellanos/credifacil-api/pkg/logger"
)

// Audit action constants
const (
	AuditActionCreate    = "CREATE"
	AuditActionUpdate    = "UPDATE"
	AuditActionDelete    = "DELETE"
	AuditActionLogin     = "LOGIN"
	AuditActionReconcile = "RECONCILE"
	AuditActionBackup    = "BACKUP"
)

// Audit entity constants
const (
	AuditEntityLoan     = "Loan"
	AuditEntityCustomer = "Customer"
	AuditEntityPayment  = "Payment"
	AuditEntityUser     = "User"
	AuditEntityBackup   = "Backup"
)

// AuditService records who did what to which entity
type AuditService struct {
	auditRepo repository.AuditRepository
}

// NewAuditService creates a new audit service
func NewAuditService(auditRepo repository.AuditRepository) *AuditService {
	return &AuditService{auditRepo: auditRepo}
}

// Record writes an audit entry. Audit failures are logged but never bubble
// up; an unrecorded entry must not abort the operation it describes.
func (s *AuditService) Record(ctx context.Context, userID uint, action, entity string, entityID uint, details string) {
	entry := &models.AuditLog{
		UserID:   userID,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Details:  details,
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		logger.Error("failed to write audit entry",
			"action", action,
			"entity", entity,
			"entity_id", entityID,
			"error", err)
	}
}

// RecordWithRequest writes an audit entry including request metadata
func (s *AuditService) RecordWithRequest(ctx context.Context, userID uint, action, entity string, entityID uint, details, ip, userAgent string) {
	entry := &models.AuditLog{
		UserID:    userID,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		Details:   details,
		IPAddress: ip,
		UserAgent: userAgent,
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		logger.Error("failed to write audit entry",
			"action", action,
			"entity", entity,
			"entity_id", entityID,
			"error", err)
	}
}

// List returns audit entries matching the query
func (s *AuditService) List(ctx context.Context, query *repository.AuditQuery) ([]models.AuditLog, int64, error) {
	return s.auditRepo.List(ctx, query)
}

// HistoryFor returns the audit trail of a single entity
func (s *AuditService) HistoryFor(ctx context.Context, entity string, entityID uint) ([]models.AuditLog, error) {
	return s.auditRepo.FindByEntity(ctx, entity, entityID)
}

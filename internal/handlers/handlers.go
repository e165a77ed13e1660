package handlers

import (
	"github.com/jcastellanos/credifacil-api/internal/services"
)

// Handlers holds all handler instances
type Handlers struct {
	Health       *HealthHandler
	Auth         *AuthHandler
	User         *UserHandler
	Customer     *CustomerHandler
	Loan         *LoanHandler
	Payment      *PaymentHandler
	Notification *NotificationHandler
	Audit        *AuditHandler
	Report       *ReportHandler
	Backup       *BackupHandler
	Job          *JobHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(),
		Auth:         NewAuthHandler(svcs.Auth),
		User:         NewUserHandler(svcs.User),
		Customer:     NewCustomerHandler(svcs.Customer),
		Loan:         NewLoanHandler(svcs.Loan, svcs.Schedule, svcs.Reconcile),
		Payment:      NewPaymentHandler(svcs.Payment),
		Notification: NewNotificationHandler(svcs.Notification),
		Audit:        NewAuditHandler(svcs.Audit),
		Report:       NewReportHandler(svcs.Report, svcs.Export),
		Backup:       NewBackupHandler(svcs.Backup),
		Job:          NewJobHandler(svcs.Job, svcs.Reconcile, svcs.Payment, svcs.Backup),
	}
}

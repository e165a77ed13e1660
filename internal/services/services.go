package services

import (
	"github.com/jcastellanos/credifacil-api/internal/config"
	"github.com/jcastellanos/credifacil-api/internal/jobs"
	"github.com/jcastellanos/credifacil-api/internal/repository"
	"github.com/jcastellanos/credifacil-api/internal/storage"
	"gorm.io/gorm"
)

// Services holds all service instances
type Services struct {
	Auth         *AuthService
	User         *UserService
	Customer     *CustomerService
	Loan         *LoanService
	Schedule     *ScheduleService
	Payment      *PaymentService
	Reconcile    *ReconcileService
	Notification *NotificationService
	Email        *EmailService
	SMS          *SMSService
	Audit        *AuditService
	Report       *ReportService
	Export       *ExportService
	Backup       *BackupService
	Job          *JobService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, store *storage.LocalStorage, cfg *config.Config, db *gorm.DB) *Services {
	auditSvc := NewAuditService(repos.Audit)
	emailSvc := NewEmailService(cfg)
	smsSvc := NewSMSService(cfg)
	notificationSvc := NewNotificationService(repos.Notification, repos.User, emailSvc, smsSvc, worker)

	scheduleSvc := NewScheduleService(repos.Loan, repos.Installment)
	reconcileSvc := NewReconcileService(db)

	loanSvc := NewLoanService(db, repos, scheduleSvc, reconcileSvc, notificationSvc, auditSvc)
	paymentSvc := NewPaymentService(db, repos, reconcileSvc, notificationSvc, auditSvc)
	customerSvc := NewCustomerService(repos, notificationSvc, auditSvc)

	authSvc := NewAuthService(repos, auditSvc, cfg)
	userSvc := NewUserService(repos, auditSvc)

	reportSvc := NewReportService(repos)
	exportSvc := NewExportService(repos)
	backupSvc := NewBackupService(cfg, store, notificationSvc, auditSvc)
	jobSvc := NewJobService(worker)

	return &Services{
		Auth:         authSvc,
		User:         userSvc,
		Customer:     customerSvc,
		Loan:         loanSvc,
		Schedule:     scheduleSvc,
		Payment:      paymentSvc,
		Reconcile:    reconcileSvc,
		Notification: notificationSvc,
		Email:        emailSvc,
		SMS:          smsSvc,
		Audit:        auditSvc,
		Report:       reportSvc,
		Export:       exportSvc,
		Backup:       backupSvc,
		Job:          jobSvc,
	}
}

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jcastellanos/credifacil-api/internal/jobs"
	"github.com/jcastellanos/credifacil-api/internal/models"
	"github.com/jcastellanos/credifacil-api/internal/repository"
	"github.com/jcastellanos/credifacil-api/pkg/logger"
)

// NotificationService fans domain events out as in-app notifications for
// staff and email/SMS for customers. Delivery failures are logged, never
// returned: a lost notification must not fail the operation behind it.
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	email            *EmailService
	sms              *SMSService
	worker           *jobs.Worker
}

// NewNotificationService creates a new notification service
func NewNotificationService(
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	email *EmailService,
	sms *SMSService,
	worker *jobs.Worker,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		email:            email,
		sms:              sms,
		worker:           worker,
	}
}

// dispatch hands outbound delivery (email, SMS) to the worker pool so the
// operation that triggered it does not wait on external providers. Without
// a worker the job runs inline.
func (s *NotificationService) dispatch(job jobs.Job) {
	if s.worker == nil {
		_ = job(context.Background())
		return
	}
	s.worker.EnqueueAsync(job)
}

// Create stores a single in-app notification for a staff user
func (s *NotificationService) Create(ctx context.Context, userID uint, title, message, notificationType string) {
	n := &models.Notification{
		UserID:           userID,
		Title:            title,
		Message:          message,
		NotificationType: &notificationType,
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		logger.Error("failed to create notification",
			"user_id", userID, "type", notificationType, "error", err)
	}
}

// NotifyAdmins stores the same in-app notification for every active admin
func (s *NotificationService) NotifyAdmins(ctx context.Context, title, message, notificationType string) {
	admins, err := s.userRepo.FindActiveByRoles(ctx, []string{models.RoleAdmin, models.RoleSuperadmin})
	if err != nil {
		logger.Error("failed to load admins for notification", "error", err)
		return
	}
	for _, admin := range admins {
		s.Create(ctx, admin.ID, title, message, notificationType)
	}
}

// NotifyLoanIssued announces a newly issued loan to staff and the customer
func (s *NotificationService) NotifyLoanIssued(ctx context.Context, loan *models.Loan, customer *models.Customer) {
	title := "Préstamo emitido"
	message := fmt.Sprintf("Préstamo #%d de %s %.2f emitido a %s a %d meses",
		loan.ID, loan.Currency, loan.Principal, customer.FullName, loan.TermMonths)

	if loan.IssuedByUserID != nil {
		s.Create(ctx, *loan.IssuedByUserID, title, message, models.NotificationTypeLoanIssued)
	}
	s.NotifyAdmins(ctx, title, message, models.NotificationTypeLoanIssued)

	s.dispatch(func(_ context.Context) error {
		if err := s.email.SendLoanIssued(customer, loan); err != nil {
			logger.Error("failed to email loan issuance", "loan_id", loan.ID, "error", err)
		}
		return nil
	})
}

// NotifyPaymentRecorded announces a recorded payment to staff and the customer
func (s *NotificationService) NotifyPaymentRecorded(ctx context.Context, loan *models.Loan, customer *models.Customer, payment *models.Payment) {
	title := "Pago registrado"
	message := fmt.Sprintf("Pago de %s %.2f registrado para el préstamo #%d de %s (saldo: %s %.2f)",
		loan.Currency, payment.Amount, loan.ID, customer.FullName, loan.Currency, loan.AmountRemaining)

	if payment.RecordedByUserID != nil {
		s.Create(ctx, *payment.RecordedByUserID, title, message, models.NotificationTypePaymentRecorded)
	}
	s.NotifyAdmins(ctx, title, message, models.NotificationTypePaymentRecorded)

	s.dispatch(func(jobCtx context.Context) error {
		if err := s.email.SendPaymentReceipt(customer, loan, payment); err != nil {
			logger.Error("failed to email payment receipt", "payment_id", payment.ID, "error", err)
		}
		if err := s.sms.SendPaymentConfirmation(jobCtx, customer.Phone, payment.Amount, loan.AmountRemaining, loan.Currency); err != nil {
			logger.Error("failed to text payment confirmation", "payment_id", payment.ID, "error", err)
		}
		return nil
	})
}

// NotifyLoanPaid announces that a loan was fully repaid
func (s *NotificationService) NotifyLoanPaid(ctx context.Context, loan *models.Loan, customer *models.Customer) {
	title := "Préstamo pagado"
	message := fmt.Sprintf("El préstamo #%d de %s fue pagado en su totalidad (%s %.2f)",
		loan.ID, customer.FullName, loan.Currency, loan.TotalWithInterest)
	s.NotifyAdmins(ctx, title, message, models.NotificationTypeLoanPaid)
}

// NotifyLoanOverdue warns staff and the customer about a past-due loan
func (s *NotificationService) NotifyLoanOverdue(ctx context.Context, loan *models.Loan, customer *models.Customer) {
	title := "Préstamo vencido"
	message := fmt.Sprintf("El préstamo #%d de %s está vencido con saldo de %s %.2f",
		loan.ID, customer.FullName, loan.Currency, loan.AmountRemaining)
	s.NotifyAdmins(ctx, title, message, models.NotificationTypeLoanOverdue)

	s.dispatch(func(jobCtx context.Context) error {
		if err := s.email.SendOverdueReminder(customer, loan); err != nil {
			logger.Error("failed to email overdue reminder", "loan_id", loan.ID, "error", err)
		}
		if err := s.sms.SendOverdueReminder(jobCtx, customer.Phone, loan.AmountRemaining, loan.Currency); err != nil {
			logger.Error("failed to text overdue reminder", "loan_id", loan.ID, "error", err)
		}
		return nil
	})
}

// ListForUser returns a user's notifications with pagination
func (s *NotificationService) ListForUser(ctx context.Context, userID uint, query *repository.ListQuery) ([]models.Notification, int64, error) {
	return s.notificationRepo.FindByUser(ctx, userID, query)
}

// CountUnread returns how many unread notifications a user has
func (s *NotificationService) CountUnread(ctx context.Context, userID uint) (int64, error) {
	return s.notificationRepo.CountUnread(ctx, userID)
}

// MarkRead marks one of the user's notifications as read
func (s *NotificationService) MarkRead(ctx context.Context, id, userID uint) error {
	return s.notificationRepo.MarkRead(ctx, id, userID)
}

// MarkAllRead marks all of the user's notifications as read
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) error {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}

// notificationRetentionDays is how long read and unread notifications are
// kept before the nightly purge removes them.
const notificationRetentionDays = 90

// PurgeOld deletes notifications older than the retention window
func (s *NotificationService) PurgeOld(ctx context.Context) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -notificationRetentionDays)
	deleted, err := s.notificationRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		logger.Info("old notifications purged", "deleted", deleted, "cutoff", cutoff.Format("2006-01-02"))
	}
	return deleted, nil
}

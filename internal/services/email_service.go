package services

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/jcastellanos/credifacil-api/internal/config"
	"github.com/jcastellanos/credifacil-api/internal/models"
	"github.com/jcastellanos/credifacil-api/pkg/logger"
	"github.com/resend/resend-go/v2"
)

//go:embed templates/email/*.html
var emailTemplates embed.FS

// EmailService sends transactional emails through Resend
type EmailService struct {
	client    *resend.Client
	from      string
	enabled   bool
	templates *template.Template
}

// NewEmailService creates a new email service. Without an API key the
// service stays disabled and every send becomes a logged no-op, which keeps
// development environments working without credentials.
func NewEmailService(cfg *config.Config) *EmailService {
	tmpl := template.Must(template.ParseFS(emailTemplates, "templates/email/*.html"))

	return &EmailService{
		client:    resend.NewClient(cfg.ResendAPIKey),
		from:      cfg.FromEmail,
		enabled:   cfg.ResendAPIKey != "",
		templates: tmpl,
	}
}

func (s *EmailService) send(to, subject, templateName string, data any) error {
	if !s.enabled {
		logger.Info("email delivery disabled, skipping", "to", to, "subject", subject)
		return nil
	}

	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		return fmt.Errorf("rendering %s: %w", templateName, err)
	}

	_, err := s.client.Emails.Send(&resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    body.String(),
	})
	if err != nil {
		return fmt.Errorf("sending email to %s: %w", to, err)
	}

	logger.Info("email sent", "to", to, "template", templateName)
	return nil
}

// SendLoanIssued notifies a customer that their loan was approved and issued
func (s *EmailService) SendLoanIssued(customer *models.Customer, loan *models.Loan) error {
	if customer.Email == nil {
		return nil
	}
	data := map[string]any{
		"CustomerName": customer.FullName,
		"Principal":    fmt.Sprintf("%.2f", loan.Principal),
		"Total":        fmt.Sprintf("%.2f", loan.TotalWithInterest),
		"TermMonths":   loan.TermMonths,
		"DueDate":      loan.EffectiveDueDate().Format("02/01/2006"),
		"Currency":     loan.Currency,
	}
	return s.send(*customer.Email, "Su préstamo ha sido aprobado", "loan_issued.html", data)
}

// SendPaymentReceipt sends the customer a receipt for a recorded payment
func (s *EmailService) SendPaymentReceipt(customer *models.Customer, loan *models.Loan, payment *models.Payment) error {
	if customer.Email == nil {
		return nil
	}
	data := map[string]any{
		"CustomerName": customer.FullName,
		"Amount":       fmt.Sprintf("%.2f", payment.Amount),
		"Reference":    payment.Reference,
		"PaidAt":       payment.PaidAt.Format("02/01/2006"),
		"Remaining":    fmt.Sprintf("%.2f", loan.AmountRemaining),
		"Currency":     loan.Currency,
	}
	return s.send(*customer.Email, "Comprobante de pago recibido", "payment_receipt.html", data)
}

// SendOverdueReminder warns a customer that their loan is past due
func (s *EmailService) SendOverdueReminder(customer *models.Customer, loan *models.Loan) error {
	if customer.Email == nil {
		return nil
	}
	data := map[string]any{
		"CustomerName": customer.FullName,
		"Remaining":    fmt.Sprintf("%.2f", loan.AmountRemaining),
		"DueDate":      loan.EffectiveDueDate().Format("02/01/2006"),
		"Currency":     loan.Currency,
	}
	return s.send(*customer.Email, "Su préstamo está vencido", "overdue_reminder.html", data)
}

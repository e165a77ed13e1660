package services

import (
	"bytes"
	"testing"
	"time"

	"github.com/jcastellanos/credifacil-api/internal/config"
	"github.com/jcastellanos/credifacil-api/internal/models"
	"github.com/jcastellanos/credifacil-api/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func TestEmailService_DisabledWithoutAPIKey(t *testing.T) {
	logger.Setup("test")

	service := NewEmailService(&config.Config{})
	assert.False(t, service.enabled)

	email := "cliente@example.com"
	customer := &models.Customer{FullName: "María López", Email: &email}
	loan := &models.Loan{Principal: 1000, TotalWithInterest: 1425, TermMonths: 3, Currency: "HNL", StartDate: time.Now()}

	// disabled service swallows sends without error
	assert.NoError(t, service.SendLoanIssued(customer, loan))
	assert.NoError(t, service.SendOverdueReminder(customer, loan))
}

func TestEmailService_SkipsCustomersWithoutEmail(t *testing.T) {
	logger.Setup("test")

	service := NewEmailService(&config.Config{ResendAPIKey: "test_key", FromEmail: "from@example.com"})
	customer := &models.Customer{FullName: "Juan Pérez"}
	loan := &models.Loan{Principal: 1000, TotalWithInterest: 1425, Currency: "HNL", StartDate: time.Now()}

	assert.NoError(t, service.SendLoanIssued(customer, loan))
	assert.NoError(t, service.SendPaymentReceipt(customer, loan, &models.Payment{Amount: 100, PaidAt: time.Now()}))
	assert.NoError(t, service.SendOverdueReminder(customer, loan))
}

func TestEmailService_TemplatesRender(t *testing.T) {
	service := NewEmailService(&config.Config{})

	tests := []struct {
		template string
		data     map[string]any
		contains string
	}{
		{
			"loan_issued.html",
			map[string]any{"CustomerName": "María López", "Principal": "1000.00", "Total": "1425.00", "TermMonths": 3, "DueDate": "01/04/2026", "Currency": "HNL"},
			"María López",
		},
		{
			"payment_receipt.html",
			map[string]any{"CustomerName": "Juan Pérez", "Amount": "500.00", "Reference": "REF-123", "PaidAt": "15/02/2026", "Remaining": "925.00", "Currency": "HNL"},
			"REF-123",
		},
		{
			"overdue_reminder.html",
			map[string]any{"CustomerName": "Juan Pérez", "Remaining": "925.00", "DueDate": "01/04/2026", "Currency": "HNL"},
			"925.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.template, func(t *testing.T) {
			var body bytes.Buffer
			err := service.templates.ExecuteTemplate(&body, tt.template, tt.data)
			assert.NoError(t, err)
			assert.Contains(t, body.String(), tt.contains)
		})
	}
}

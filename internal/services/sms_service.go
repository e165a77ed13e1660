package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jcastellanos/credifacil-api/internal/config"
	"github.com/jcastellanos/credifacil-api/pkg/logger"
)

// SMSService delivers short messages through the configured HTTP gateway.
// Without a gateway URL the service stays disabled and sends become logged
// no-ops.
type SMSService struct {
	gatewayURL string
	apiKey     string
	senderID   string
	client     *http.Client
}

// NewSMSService creates a new SMS service
func NewSMSService(cfg *config.Config) *SMSService {
	return &SMSService{
		gatewayURL: cfg.SMSGatewayURL,
		apiKey:     cfg.SMSAPIKey,
		senderID:   cfg.SMSSenderID,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type smsPayload struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Message string `json:"message"`
}

// Send posts a single message to the gateway
func (s *SMSService) Send(ctx context.Context, phone, message string) error {
	if s.gatewayURL == "" {
		logger.Info("sms delivery disabled, skipping", "to", phone)
		return nil
	}

	body, err := json.Marshal(smsPayload{
		To:      phone,
		From:    s.senderID,
		Message: message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.gatewayURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned %d for %s", resp.StatusCode, phone)
	}

	logger.Info("sms sent", "to", phone)
	return nil
}

// SendPaymentConfirmation texts the customer that their payment was recorded
func (s *SMSService) SendPaymentConfirmation(ctx context.Context, phone string, amount, remaining float64, currency string) error {
	msg := fmt.Sprintf("CrediFacil: recibimos su pago de %s %.2f. Saldo pendiente: %s %.2f.",
		currency, amount, currency, remaining)
	return s.Send(ctx, phone, msg)
}

// SendOverdueReminder texts the customer that their loan is past due
func (s *SMSService) SendOverdueReminder(ctx context.Context, phone string, remaining float64, currency string) error {
	msg := fmt.Sprintf("CrediFacil: su prestamo esta vencido. Saldo pendiente: %s %.2f. Comuniquese con su oficial de credito.",
		currency, remaining)
	return s.Send(ctx, phone, msg)
}

package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jcastellanos/credifacil-api/internal/config"
	"github.com/jcastellanos/credifacil-api/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func TestSMSService_Send(t *testing.T) {
	logger.Setup("test")

	var received smsPayload
	var authHeader string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewSMSService(&config.Config{
		SMSGatewayURL: server.URL,
		SMSAPIKey:     "test-key",
		SMSSenderID:   "CREDIFACIL",
	})

	err := svc.Send(context.Background(), "+50499887766", "hola")
	assert.NoError(t, err)
	assert.Equal(t, "Bearer test-key", authHeader)
	assert.Equal(t, "+50499887766", received.To)
	assert.Equal(t, "CREDIFACIL", received.From)
	assert.Equal(t, "hola", received.Message)
}

func TestSMSService_Send_GatewayError(t *testing.T) {
	logger.Setup("test")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	svc := NewSMSService(&config.Config{SMSGatewayURL: server.URL})

	err := svc.Send(context.Background(), "+50499887766", "hola")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestSMSService_DisabledWithoutGateway(t *testing.T) {
	logger.Setup("test")

	svc := NewSMSService(&config.Config{})

	// no gateway configured: sends are silent no-ops
	err := svc.Send(context.Background(), "+50499887766", "hola")
	assert.NoError(t, err)
}

func TestSMSService_PaymentConfirmation(t *testing.T) {
	logger.Setup("test")

	var received smsPayload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewSMSService(&config.Config{SMSGatewayURL: server.URL, SMSSenderID: "CREDIFACIL"})

	err := svc.SendPaymentConfirmation(context.Background(), "+50499887766", 500, 925, "HNL")
	assert.NoError(t, err)
	assert.Contains(t, received.Message, "HNL 500.00")
	assert.Contains(t, received.Message, "HNL 925.00")
}

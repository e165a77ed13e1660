package handlers

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type testPayload struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

func TestBindNestedOrFlat(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name        string
		key         string
		body        string
		expected    testPayload
		expectError bool
	}{
		{
			name:     "Nested structure",
			key:      "loan",
			body:     `{"loan": {"name": "Personal", "amount": 1000}}`,
			expected: testPayload{Name: "Personal", Amount: 1000},
		},
		{
			name:     "Flat structure",
			key:      "loan",
			body:     `{"name": "Personal", "amount": 1000}`,
			expected: testPayload{Name: "Personal", Amount: 1000},
		},
		{
			name:     "Missing key falls back to flat",
			key:      "loan",
			body:     `{"other": "value", "name": "Comercial", "amount": 2500}`,
			expected: testPayload{Name: "Comercial", Amount: 2500},
		},
		{
			name:     "Different entity key",
			key:      "payment",
			body:     `{"payment": {"name": "Abono", "amount": 475}}`,
			expected: testPayload{Name: "Abono", Amount: 475},
		},
		{
			name:        "Invalid field type",
			key:         "loan",
			body:        `{"name": "Personal", "amount": "mucho"}`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("POST", "/", bytes.NewBufferString(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var got testPayload
			err := BindNestedOrFlat(c, tt.key, &got)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	SetupValidator()
}

type quantityPayload struct {
	Quantity decimal.Decimal `json:"quantity" binding:"required,dgt0"`
}

func bindQuantity(t *testing.T, body string) error {
	t.Helper()
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("POST", "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	var payload quantityPayload
	return c.ShouldBindJSON(&payload)
}

func TestDecimalGreaterThanZero(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"positive integer string", `{"quantity": "5"}`, false},
		{"positive fraction", `{"quantity": "0.001"}`, false},
		{"zero", `{"quantity": "0"}`, true},
		{"negative", `{"quantity": "-3"}`, true},
		{"missing", `{}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := bindQuantity(t, tt.body)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidationErrorsUseJSONFieldNames(t *testing.T) {
	err := bindQuantity(t, `{"quantity": "-1"}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quantity")
}

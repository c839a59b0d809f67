package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeConcurrencyConflict, http.StatusConflict},
		{ErrCodeDuplicateReceipt, http.StatusConflict},
		{ErrCodeInsufficientStock, http.StatusBadRequest},
		{ErrCodeInvalidState, http.StatusBadRequest},
		{ErrCodeBusinessRule, http.StatusBadRequest},
		{ErrCodeInternal, http.StatusInternalServerError},
		{"SOMETHING_UNMAPPED", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode("NOT_FOUND"))
	assert.Equal(t, ErrCodeInsufficientStock, NormalizeErrorCode("INSUFFICIENT_STOCK"))
	assert.Equal(t, ErrCodeDuplicateReceipt, NormalizeErrorCode("DUPLICATE_RECEIPT"))
	assert.Equal(t, ErrCodeInvalidInput, NormalizeErrorCode("INVALID_QUANTITY"))
	// Already normalized codes pass through
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode(ErrCodeNotFound))
	// Unknown domain codes fall back to a business rule violation
	assert.Equal(t, ErrCodeBusinessRule, NormalizeErrorCode("CUSTOM_CODE"))
}

func TestBusinessRuleCodesMapToBadRequest(t *testing.T) {
	codes := []string{
		"INVALID_LOCATION",
		"DUPLICATE_LINE",
		"EMPTY_TRANSFER",
		"EMPTY_ORDER",
		"EMPTY_RECEIVE",
		"INVALID_RELEASE",
		"LINE_NOT_FOUND",
		"SUPPLIER_INACTIVE",
		"LOCATION_INACTIVE",
		"RECEIVE_EXCEEDS_ORDERED",
		"RETURN_EXCEEDS_OUTSTANDING",
		"ORDER_PARTIALLY_RECEIVED",
		"INVALID_STATE",
		"INSUFFICIENT_STOCK",
	}

	for _, code := range codes {
		t.Run(code, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, GetHTTPStatus(NormalizeErrorCode(code)))
		})
	}
}

func TestConflictCodesMapToConflict(t *testing.T) {
	for _, code := range []string{"DUPLICATE_CODE", "LOCATION_IN_USE", "CONCURRENCY_CONFLICT", "DUPLICATE_RECEIPT"} {
		t.Run(code, func(t *testing.T) {
			assert.Equal(t, http.StatusConflict, GetHTTPStatus(NormalizeErrorCode(code)))
		})
	}
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]string{"a", "b"}, 45, 2, 20)

	assert.True(t, resp.Success)
	assert.Equal(t, int64(45), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestListRequest_ApplyDefaults(t *testing.T) {
	var req ListRequest
	req.ApplyDefaults()

	assert.Equal(t, 1, req.Page)
	assert.Equal(t, 20, req.PageSize)
	assert.Equal(t, "desc", req.OrderDir)

	filled := ListRequest{Page: 3, PageSize: 50, OrderDir: "asc"}
	filled.ApplyDefaults()
	assert.Equal(t, 3, filled.Page)
	assert.Equal(t, 50, filled.PageSize)
	assert.Equal(t, "asc", filled.OrderDir)
}

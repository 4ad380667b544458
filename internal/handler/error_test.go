package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/airkicks/internal/domain"
	"github.com/dukerupert/airkicks/internal/shop"
)

type errorEnvelope struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func TestErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{domain.EINVALID, http.StatusBadRequest},
		{domain.EUNAUTHORIZED, http.StatusUnauthorized},
		{domain.EFORBIDDEN, http.StatusForbidden},
		{domain.ENOTFOUND, http.StatusNotFound},
		{domain.ECONFLICT, http.StatusConflict},
		{domain.ETOOLARGE, http.StatusRequestEntityTooLarge},
		{domain.EUNPROCESSABLE, http.StatusUnprocessableEntity},
		{domain.ERATELIMIT, http.StatusTooManyRequests},
		{domain.EINTERNAL, http.StatusInternalServerError},
		{domain.EUNAVAILABLE, http.StatusBadGateway},
		{"unknown_code", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, ErrorCodeToHTTPStatus(tt.code))
		})
	}
}

func TestErrorResponse_JSON(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "not found error",
			err:            domain.NotFound("product.details", "product", "42"),
			expectedStatus: http.StatusNotFound,
			expectedCode:   domain.ENOTFOUND,
		},
		{
			name:           "invalid input",
			err:            domain.Invalid("cart.adjust", "Unknown cart action"),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   domain.EINVALID,
		},
		{
			name:           "shop unreachable",
			err:            &shop.Failure{Op: shop.OpAddToCart, Reason: shop.ReasonTransport},
			expectedStatus: http.StatusBadGateway,
			expectedCode:   domain.EUNAVAILABLE,
		},
		{
			name:           "shop rejected with 404",
			err:            &shop.Failure{Op: shop.OpRemoveCartItem, Reason: shop.ReasonRejected, StatusCode: 404, Message: "Item not found in your cart."},
			expectedStatus: http.StatusNotFound,
			expectedCode:   domain.ENOTFOUND,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set("Accept", "application/json")
			rec := httptest.NewRecorder()

			ErrorResponse(rec, req, tt.err)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var response errorEnvelope
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
			assert.Equal(t, tt.expectedCode, response.Error.Code)
		})
	}
}

func TestErrorResponse_ShopMessageReachesShopper(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/cart/items/1/remove", nil)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	rec := httptest.NewRecorder()

	ErrorResponse(rec, req, &shop.Failure{Reason: shop.ReasonRejected, StatusCode: 404, Message: "Item not found in your cart."})

	var response errorEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, "Item not found in your cart.", response.Error.Message)
}

func TestErrorResponse_PlainText(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()

	ErrorResponse(rec, req, domain.NotFound("product.details", "product", "42"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.NotEmpty(t, rec.Body.String())
}

func TestErrorResponse_InternalHidesDetails(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()

	err := domain.Internal(nil, "db.query", "failed to connect to database at 192.168.1.100:5432")
	ErrorResponse(rec, req, err)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var response errorEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, "An internal error occurred. Please try again later.", response.Error.Message)
}

func TestValidationErrorResponse_JSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()

	err := &domain.ValidationError{Op: "checkout.validate", Fields: map[string]string{
		"card_number": "Valid 16-digit card required",
		"cvv":         "Valid CVV required",
	}}

	ValidationErrorResponse(rec, req, err)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var response errorEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, domain.EUNPROCESSABLE, response.Error.Code)
	assert.Len(t, response.Error.Fields, 2)
	assert.Equal(t, "Valid 16-digit card required", response.Error.Fields["card_number"])
}

func TestValidationErrorResponse_NonValidationError(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()

	ValidationErrorResponse(rec, req, domain.NotFound("product.details", "product", "123"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestValidationErrorResponse_PlainText(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
	req.Header.Set("Accept", "text/plain")
	rec := httptest.NewRecorder()

	ValidationErrorResponse(rec, req, &domain.ValidationError{Fields: map[string]string{
		"expiry":      "Expiry MM/YY required",
		"card_number": "Valid 16-digit card required",
	}})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Validation failed\ncard_number: Valid 16-digit card required\nexpiry: Expiry MM/YY required\n", rec.Body.String())
}

func TestAcceptsJSON(t *testing.T) {
	tests := []struct {
		name        string
		accept      string
		contentType string
		xhr         bool
		path        string
		expected    bool
	}{
		{name: "application/json in Accept", accept: "application/json", expected: true},
		{name: "application/json with charset in Accept", accept: "application/json; charset=utf-8", expected: true},
		{name: "application/json in Content-Type", contentType: "application/json", expected: true},
		{name: "page script request", xhr: true, expected: true},
		{name: ".json extension in path", path: "/notices.json", expected: true},
		{name: "text/html Accept", accept: "text/html", path: "/checkout"},
		{name: "no headers", path: "/checkout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.path
			if path == "" {
				path = "/test"
			}

			req := httptest.NewRequest(http.MethodGet, path, nil)
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			if tt.xhr {
				req.Header.Set("X-Requested-With", "XMLHttpRequest")
			}

			assert.Equal(t, tt.expected, AcceptsJSON(req))
		})
	}
}

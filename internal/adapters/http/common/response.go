// Package common holds the shared types of the HTTP layer.
//
// Separate package so handlers and the router avoid a circular import.
package common

import (
	goerrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	domainerrors "github.com/commercekit/walletpay/internal/domain/errors"
)

// APIResponse is the envelope of every API response.
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Meta      *APIMeta    `json:"meta,omitempty"`
	RequestID string      `json:"request_id"`
	Timestamp time.Time   `json:"timestamp"`
}

// APIMeta carries pagination info.
type APIMeta struct {
	Page    int `json:"page,omitempty"`
	PerPage int `json:"per_page,omitempty"`
	Count   int `json:"count,omitempty"`
}

// APIError is the error body of a failed response.
type APIError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Fields     []FieldError           `json:"fields,omitempty"`
	RetryAfter int                    `json:"retry_after,omitempty"`
}

// FieldError reports one invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error codes.
const (
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeConflict        = "CONFLICT"
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS"
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeConcurrency     = "CONCURRENCY_ERROR"
	ErrCodeGateway         = "GATEWAY_ERROR"

	// Wallet business rules
	ErrCodeGuestWallet       = "GUEST_WALLET"
	ErrCodeInsufficientFunds = "INSUFFICIENT_WALLET_FUNDS"
	ErrCodeWalletNotLinked   = "WALLET_NOT_LINKED"
	ErrCodeBalanceBelowZero  = "BALANCE_BELOW_ZERO"
	ErrCodeInvalidTransition = "INVALID_STATE_TRANSITION"
	ErrCodeNotVoidable       = "PAYMENT_NOT_VOIDABLE"
	ErrCodeNotCreditable     = "PAYMENT_NOT_CREDITABLE"
)

// RequestIDKey is both the header and the gin-context key of the request id.
const RequestIDKey = "X-Request-ID"

// GetRequestID returns the request id from the gin context.
func GetRequestID(c *gin.Context) string {
	if id, exists := c.Get(RequestIDKey); exists {
		return id.(string)
	}
	return ""
}

// SetRequestID stores the request id in the gin context and response header.
func SetRequestID(c *gin.Context, id string) {
	c.Set(RequestIDKey, id)
	c.Header(RequestIDKey, id)
}

// Success sends a successful response.
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, APIResponse{
		Success:   true,
		Data:      data,
		RequestID: GetRequestID(c),
		Timestamp: time.Now().UTC(),
	})
}

// SuccessWithMeta sends a successful response with pagination info.
func SuccessWithMeta(c *gin.Context, statusCode int, data interface{}, meta *APIMeta) {
	c.JSON(statusCode, APIResponse{
		Success:   true,
		Data:      data,
		Meta:      meta,
		RequestID: GetRequestID(c),
		Timestamp: time.Now().UTC(),
	})
}

// Error sends a failed response.
func Error(c *gin.Context, statusCode int, apiError *APIError) {
	c.JSON(statusCode, APIResponse{
		Success:   false,
		Error:     apiError,
		RequestID: GetRequestID(c),
		Timestamp: time.Now().UTC(),
	})
}

// ValidationErrorResponse sends a 400 with field errors.
func ValidationErrorResponse(c *gin.Context, fields []FieldError) {
	Error(c, http.StatusBadRequest, &APIError{
		Code:    ErrCodeValidation,
		Message: "Request validation failed",
		Fields:  fields,
	})
}

// NotFoundResponse sends a 404.
func NotFoundResponse(c *gin.Context, resource string) {
	Error(c, http.StatusNotFound, &APIError{
		Code:    ErrCodeNotFound,
		Message: resource + " not found",
		Details: map[string]interface{}{
			"resource": resource,
		},
	})
}

// BadRequestResponse sends a 400.
func BadRequestResponse(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, &APIError{
		Code:    ErrCodeBadRequest,
		Message: message,
	})
}

// UnauthorizedResponse sends a 401.
func UnauthorizedResponse(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, &APIError{
		Code:    ErrCodeUnauthorized,
		Message: message,
	})
}

// ForbiddenResponse sends a 403.
func ForbiddenResponse(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, &APIError{
		Code:    ErrCodeForbidden,
		Message: message,
	})
}

// ConflictResponse sends a 409.
func ConflictResponse(c *gin.Context, message string) {
	Error(c, http.StatusConflict, &APIError{
		Code:    ErrCodeConflict,
		Message: message,
	})
}

// TooManyRequestsResponse sends a 429.
func TooManyRequestsResponse(c *gin.Context, retryAfter int) {
	Error(c, http.StatusTooManyRequests, &APIError{
		Code:       ErrCodeTooManyRequests,
		Message:    "Too many requests, please try again later",
		RetryAfter: retryAfter,
	})
}

// InternalErrorResponse sends a 500.
func InternalErrorResponse(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, &APIError{
		Code:    ErrCodeInternal,
		Message: message,
	})
}

// businessRuleCodes maps the wallet's sentinel errors to API codes. All of
// them are semantic failures of a well-formed request, hence 422.
var businessRuleCodes = map[error]string{
	domainerrors.ErrGuestWallet:             ErrCodeGuestWallet,
	domainerrors.ErrInsufficientWalletFunds: ErrCodeInsufficientFunds,
	domainerrors.ErrWalletNotLinked:         ErrCodeWalletNotLinked,
	domainerrors.ErrBalanceBelowZero:        ErrCodeBalanceBelowZero,
	domainerrors.ErrInvalidStateTransition:  ErrCodeInvalidTransition,
	domainerrors.ErrPaymentNotVoidable:      ErrCodeNotVoidable,
	domainerrors.ErrPaymentNotCreditable:    ErrCodeNotCreditable,
	domainerrors.ErrTransactionIDExhausted:  ErrCodeConflict,
}

// HandleDomainError maps a domain error to an HTTP response.
func HandleDomainError(c *gin.Context, err error) {
	if domainerrors.IsValidation(err) {
		ValidationErrorResponse(c, fieldErrorsOf(err))
		return
	}

	for sentinel, code := range businessRuleCodes {
		if goerrors.Is(err, sentinel) {
			Error(c, http.StatusUnprocessableEntity, &APIError{
				Code:    code,
				Message: sentinel.Error(),
			})
			return
		}
	}

	if domainerrors.IsStaleWrite(err) {
		Error(c, http.StatusConflict, &APIError{
			Code:    ErrCodeConcurrency,
			Message: "Resource was modified by another request, please retry",
			Details: map[string]interface{}{
				"retryable": true,
			},
		})
		return
	}

	if domainerrors.IsGatewayError(err) {
		var ge *domainerrors.GatewayError
		goerrors.As(err, &ge)
		Error(c, http.StatusBadGateway, &APIError{
			Code:    ErrCodeGateway,
			Message: ge.Message,
			Details: map[string]interface{}{
				"gateway_code": ge.Code,
			},
		})
		return
	}

	if domainerrors.IsNotFound(err) {
		NotFoundResponse(c, "Resource")
		return
	}

	InternalErrorResponse(c, "An unexpected error occurred")
}

// fieldErrorsOf flattens ValidationError / ValidationErrors into the API
// shape.
func fieldErrorsOf(err error) []FieldError {
	var many domainerrors.ValidationErrors
	if goerrors.As(err, &many) {
		fields := make([]FieldError, 0, len(many))
		for _, v := range many {
			fields = append(fields, FieldError{Field: v.Field, Message: v.Message, Code: "invalid"})
		}
		return fields
	}

	var one domainerrors.ValidationError
	if goerrors.As(err, &one) {
		return []FieldError{{Field: one.Field, Message: one.Message, Code: "invalid"}}
	}

	return nil
}

// Package http wires handlers, middleware and the server into the REST API.
//
// The response envelope and error mapping live in the common subpackage so
// handlers and middleware can share them without an import cycle; this file
// re-exports the names callers of this package actually use.
package http

import (
	"github.com/commercekit/walletpay/internal/adapters/http/common"
)

// Response envelope types.
type (
	// APIResponse is the envelope of every API response.
	APIResponse = common.APIResponse
	// APIMeta carries pagination info.
	APIMeta = common.APIMeta
	// APIError is the error body of a failed response.
	APIError = common.APIError
	// FieldError reports one invalid field.
	FieldError = common.FieldError
)

// Error codes.
const (
	ErrCodeValidation      = common.ErrCodeValidation
	ErrCodeNotFound        = common.ErrCodeNotFound
	ErrCodeBadRequest      = common.ErrCodeBadRequest
	ErrCodeUnauthorized    = common.ErrCodeUnauthorized
	ErrCodeForbidden       = common.ErrCodeForbidden
	ErrCodeConflict        = common.ErrCodeConflict
	ErrCodeTooManyRequests = common.ErrCodeTooManyRequests
	ErrCodeInternal        = common.ErrCodeInternal
	ErrCodeConcurrency     = common.ErrCodeConcurrency
	ErrCodeGateway         = common.ErrCodeGateway

	ErrCodeGuestWallet       = common.ErrCodeGuestWallet
	ErrCodeInsufficientFunds = common.ErrCodeInsufficientFunds
	ErrCodeWalletNotLinked   = common.ErrCodeWalletNotLinked
	ErrCodeBalanceBelowZero  = common.ErrCodeBalanceBelowZero
	ErrCodeInvalidTransition = common.ErrCodeInvalidTransition
	ErrCodeNotVoidable       = common.ErrCodeNotVoidable
	ErrCodeNotCreditable     = common.ErrCodeNotCreditable
)

// RequestIDKey is both the header and the gin-context key of the request id.
const RequestIDKey = common.RequestIDKey

// Response helpers.
var (
	GetRequestID = common.GetRequestID
	SetRequestID = common.SetRequestID

	Success         = common.Success
	SuccessWithMeta = common.SuccessWithMeta
	Error           = common.Error

	ValidationErrorResponse = common.ValidationErrorResponse
	NotFoundResponse        = common.NotFoundResponse
	BadRequestResponse      = common.BadRequestResponse
	UnauthorizedResponse    = common.UnauthorizedResponse
	ForbiddenResponse       = common.ForbiddenResponse
	ConflictResponse        = common.ConflictResponse
	TooManyRequestsResponse = common.TooManyRequestsResponse
	InternalErrorResponse   = common.InternalErrorResponse

	HandleDomainError = common.HandleDomainError
)

package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/commercekit/walletpay/internal/adapters/http/common"
	"github.com/commercekit/walletpay/internal/adapters/http/middleware"
	"github.com/commercekit/walletpay/internal/application/dtos"
	"github.com/commercekit/walletpay/internal/domain/entities"
	"github.com/commercekit/walletpay/internal/domain/valueobjects"
)

// BuildPaymentsUseCase splits an order's due amount across submitted
// payment rows.
type BuildPaymentsUseCase interface {
	Execute(ctx context.Context, cmd dtos.BuildPaymentsCommand) ([]dtos.PaymentLineItem, error)
}

// ValidatePaymentsUseCase runs the pre-split checkout gate.
type ValidatePaymentsUseCase interface {
	Execute(ctx context.Context, cmd dtos.ValidatePaymentsCommand) error
}

// CreatePaymentUseCase creates one payment on an order.
type CreatePaymentUseCase interface {
	Execute(ctx context.Context, cmd dtos.CreatePaymentCommand) (*dtos.PaymentDTO, error)
}

// ProcessPaymentsUseCase processes an order's checkout payments.
type ProcessPaymentsUseCase interface {
	Execute(ctx context.Context, orderID uuid.UUID) (*dtos.OrderDTO, error)
}

// CheckoutHandler serves the checkout reconciliation endpoints.
type CheckoutHandler struct {
	buildPayments    BuildPaymentsUseCase
	validatePayments ValidatePaymentsUseCase
	createPayment    CreatePaymentUseCase
	processPayments  ProcessPaymentsUseCase
}

// NewCheckoutHandler creates a CheckoutHandler.
func NewCheckoutHandler(
	buildPayments BuildPaymentsUseCase,
	validatePayments ValidatePaymentsUseCase,
	createPayment CreatePaymentUseCase,
	processPayments ProcessPaymentsUseCase,
) *CheckoutHandler {
	return &CheckoutHandler{
		buildPayments:    buildPayments,
		validatePayments: validatePayments,
		createPayment:    createPayment,
		processPayments:  processPayments,
	}
}

// PaymentItemRequest is one submitted payment row.
type PaymentItemRequest struct {
	Method string `json:"payment_method" binding:"required,payment_method"`
	Amount string `json:"amount" binding:"required,money_amount"`
}

// SubmitPaymentsRequest carries the payment rows a checkout submits.
type SubmitPaymentsRequest struct {
	Payments []PaymentItemRequest `json:"payments" binding:"required,min=1,dive"`
}

// CreatePaymentRequest adds a single payment to an order.
type CreatePaymentRequest struct {
	Method string `json:"payment_method" binding:"required,payment_method"`
	Amount string `json:"amount" binding:"required,money_amount"`
}

// OrderIDParam is the order id path parameter.
type OrderIDParam struct {
	OrderID string `uri:"order_id" binding:"required,uuid"`
}

// PaymentItemResponse is one reconciled payment row.
type PaymentItemResponse struct {
	Method string `json:"payment_method"`
	Amount string `json:"amount"`
}

// BuildPayments splits the order's remaining total across the submitted
// rows and returns the resulting amounts without creating payments.
//
// @Summary Build checkout payments
// @Tags Checkout
// @Accept json
// @Produce json
// @Param order_id path string true "Order ID" format(uuid)
// @Param request body SubmitPaymentsRequest true "Submitted payment rows"
// @Success 200 {object} common.APIResponse{data=[]PaymentItemResponse}
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse "Order not found"
// @Failure 422 {object} common.APIResponse "Wallet rules violated"
// @Router /api/v1/orders/{order_id}/payments/build [post]
func (h *CheckoutHandler) BuildPayments(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	var req SubmitPaymentsRequest
	if !BindJSON(c, &req) {
		return
	}

	items, ok := parsePaymentItems(c, req.Payments)
	if !ok {
		return
	}

	result, err := h.buildPayments.Execute(c.Request.Context(), dtos.BuildPaymentsCommand{
		OrderID: orderID,
		UserID:  authUserIDPtr(c),
		Items:   items,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	resp := make([]PaymentItemResponse, 0, len(result))
	for _, item := range result {
		resp = append(resp, PaymentItemResponse{
			Method: string(item.MethodKind),
			Amount: item.Amount.String(),
		})
	}

	common.Success(c, http.StatusOK, resp)
}

// ValidatePayments checks the submitted rows against the wallet rules
// without changing anything.
//
// @Summary Validate checkout payments
// @Tags Checkout
// @Accept json
// @Produce json
// @Param order_id path string true "Order ID" format(uuid)
// @Param request body SubmitPaymentsRequest true "Submitted payment rows"
// @Success 200 {object} common.APIResponse
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse "Order not found"
// @Failure 422 {object} common.APIResponse "Wallet rules violated"
// @Router /api/v1/orders/{order_id}/payments/validate [post]
func (h *CheckoutHandler) ValidatePayments(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	var req SubmitPaymentsRequest
	if !BindJSON(c, &req) {
		return
	}

	items, ok := parsePaymentItems(c, req.Payments)
	if !ok {
		return
	}

	err := h.validatePayments.Execute(c.Request.Context(), dtos.ValidatePaymentsCommand{
		OrderID: orderID,
		UserID:  authUserIDPtr(c),
		Items:   items,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, gin.H{"valid": true})
}

// CreatePayment creates one payment on the order. Wallet payments
// complete immediately, consuming store credit.
//
// @Summary Create an order payment
// @Tags Checkout
// @Accept json
// @Produce json
// @Param order_id path string true "Order ID" format(uuid)
// @Param request body CreatePaymentRequest true "Payment data"
// @Success 201 {object} common.APIResponse{data=dtos.PaymentDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse "Order not found"
// @Failure 409 {object} common.APIResponse "Concurrent balance update"
// @Failure 422 {object} common.APIResponse "Insufficient wallet funds"
// @Router /api/v1/orders/{order_id}/payments [post]
func (h *CheckoutHandler) CreatePayment(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	var req CreatePaymentRequest
	if !BindJSON(c, &req) {
		return
	}

	amount, err := valueobjects.NewMoney(req.Amount)
	if err != nil {
		common.ValidationErrorResponse(c, []common.FieldError{
			{Field: "amount", Message: "Invalid amount", Code: "money_amount"},
		})
		return
	}

	result, err := h.createPayment.Execute(c.Request.Context(), dtos.CreatePaymentCommand{
		OrderID:    orderID,
		MethodKind: entities.MethodKind(req.Method),
		Amount:     amount,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusCreated, result)
}

// ProcessPayments captures the order's checkout payments, wallet first.
//
// @Summary Process checkout payments
// @Tags Checkout
// @Produce json
// @Param order_id path string true "Order ID" format(uuid)
// @Success 200 {object} common.APIResponse{data=dtos.OrderDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse "Order not found"
// @Failure 409 {object} common.APIResponse "Concurrent balance update"
// @Failure 502 {object} common.APIResponse "Gateway failure"
// @Router /api/v1/orders/{order_id}/payments/process [post]
func (h *CheckoutHandler) ProcessPayments(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	result, err := h.processPayments.Execute(c.Request.Context(), orderID)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

func (h *CheckoutHandler) orderID(c *gin.Context) (uuid.UUID, bool) {
	var params OrderIDParam
	if !BindURI(c, &params) {
		return uuid.Nil, false
	}

	orderID, err := uuid.Parse(params.OrderID)
	if err != nil {
		common.ValidationErrorResponse(c, []common.FieldError{
			{Field: "order_id", Message: "Invalid UUID format", Code: "uuid"},
		})
		return uuid.Nil, false
	}

	return orderID, true
}

// parsePaymentItems converts request rows to line items. On a bad amount
// the error response has already been written.
func parsePaymentItems(c *gin.Context, rows []PaymentItemRequest) ([]dtos.PaymentLineItem, bool) {
	items := make([]dtos.PaymentLineItem, 0, len(rows))
	for _, row := range rows {
		amount, err := valueobjects.NewMoney(row.Amount)
		if err != nil {
			common.ValidationErrorResponse(c, []common.FieldError{
				{Field: "amount", Message: "Invalid amount", Code: "money_amount"},
			})
			return nil, false
		}
		items = append(items, dtos.PaymentLineItem{
			MethodKind: entities.MethodKind(row.Method),
			Amount:     amount,
		})
	}
	return items, true
}

// authUserIDPtr returns the authenticated user id, or nil for guests.
func authUserIDPtr(c *gin.Context) *uuid.UUID {
	if id := middleware.GetAuthUserID(c); id != uuid.Nil {
		return &id
	}
	return nil
}

// RegisterRoutes registers the checkout routes.
//
// Routes:
//   - POST /orders/:order_id/payments           - Create payment
//   - POST /orders/:order_id/payments/build     - Build payment split
//   - POST /orders/:order_id/payments/validate  - Validate payment split
//   - POST /orders/:order_id/payments/process   - Process payments
func (h *CheckoutHandler) RegisterRoutes(router *gin.RouterGroup) {
	payments := router.Group("/orders/:order_id/payments")
	{
		payments.POST("", h.CreatePayment)
		payments.POST("/build", h.BuildPayments)
		payments.POST("/validate", h.ValidatePayments)
		payments.POST("/process", h.ProcessPayments)
	}
}

package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/commercekit/walletpay/internal/adapters/http/common"
	"github.com/commercekit/walletpay/internal/application/dtos"
	"github.com/commercekit/walletpay/internal/domain/valueobjects"
)

// CompletePaymentUseCase captures a payment.
type CompletePaymentUseCase interface {
	Execute(ctx context.Context, paymentID uuid.UUID) (*dtos.PaymentDTO, error)
}

// VoidPaymentUseCase reverses a payment.
type VoidPaymentUseCase interface {
	Execute(ctx context.Context, paymentID uuid.UUID) (*dtos.PaymentDTO, error)
}

// CreditPaymentUseCase refunds part of a completed payment.
type CreditPaymentUseCase interface {
	Execute(ctx context.Context, cmd dtos.RefundPaymentCommand) error
}

// PaymentHandler serves the payment lifecycle endpoints.
type PaymentHandler struct {
	completePayment CompletePaymentUseCase
	voidPayment     VoidPaymentUseCase
	creditPayment   CreditPaymentUseCase
}

// NewPaymentHandler creates a PaymentHandler.
func NewPaymentHandler(
	completePayment CompletePaymentUseCase,
	voidPayment VoidPaymentUseCase,
	creditPayment CreditPaymentUseCase,
) *PaymentHandler {
	return &PaymentHandler{
		completePayment: completePayment,
		voidPayment:     voidPayment,
		creditPayment:   creditPayment,
	}
}

// PaymentIDParam is the payment id path parameter.
type PaymentIDParam struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// CreditPaymentRequest refunds part of a payment.
type CreditPaymentRequest struct {
	Amount string `json:"amount" binding:"required,money_amount"`
}

// Complete captures a payment. Wallet payments consume store credit.
//
// @Summary Complete a payment
// @Tags Payments
// @Produce json
// @Param id path string true "Payment ID" format(uuid)
// @Success 200 {object} common.APIResponse{data=dtos.PaymentDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse "Payment not found"
// @Failure 409 {object} common.APIResponse "Concurrent balance update"
// @Failure 422 {object} common.APIResponse "Invalid state transition"
// @Router /api/v1/payments/{id}/complete [post]
func (h *PaymentHandler) Complete(c *gin.Context) {
	paymentID, ok := h.paymentID(c)
	if !ok {
		return
	}

	result, err := h.completePayment.Execute(c.Request.Context(), paymentID)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// Void reverses a payment. A completed wallet payment releases its funds
// back to the user.
//
// @Summary Void a payment
// @Tags Payments
// @Produce json
// @Param id path string true "Payment ID" format(uuid)
// @Success 200 {object} common.APIResponse{data=dtos.PaymentDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse "Payment not found"
// @Failure 422 {object} common.APIResponse "Payment not voidable"
// @Router /api/v1/payments/{id}/void [post]
func (h *PaymentHandler) Void(c *gin.Context) {
	paymentID, ok := h.paymentID(c)
	if !ok {
		return
	}

	result, err := h.voidPayment.Execute(c.Request.Context(), paymentID)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// Credit refunds part of a completed payment to the user's wallet.
//
// @Summary Credit (refund) a payment
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Payment ID" format(uuid)
// @Param request body CreditPaymentRequest true "Refund amount"
// @Success 200 {object} common.APIResponse
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse "Payment not found"
// @Failure 422 {object} common.APIResponse "Payment not creditable"
// @Router /api/v1/payments/{id}/credit [post]
func (h *PaymentHandler) Credit(c *gin.Context) {
	paymentID, ok := h.paymentID(c)
	if !ok {
		return
	}

	var req CreditPaymentRequest
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

	err = h.creditPayment.Execute(c.Request.Context(), dtos.RefundPaymentCommand{
		PaymentID:   paymentID,
		AmountCents: amount.Cents(),
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, gin.H{"credited": amount.String()})
}

func (h *PaymentHandler) paymentID(c *gin.Context) (uuid.UUID, bool) {
	var params PaymentIDParam
	if !BindURI(c, &params) {
		return uuid.Nil, false
	}

	paymentID, err := uuid.Parse(params.ID)
	if err != nil {
		common.ValidationErrorResponse(c, []common.FieldError{
			{Field: "id", Message: "Invalid UUID format", Code: "uuid"},
		})
		return uuid.Nil, false
	}

	return paymentID, true
}

// RegisterRoutes registers the payment routes.
//
// Routes:
//   - POST /payments/:id/complete - Complete payment
//   - POST /payments/:id/void     - Void payment
//   - POST /payments/:id/credit   - Credit (refund) payment
func (h *PaymentHandler) RegisterRoutes(router *gin.RouterGroup) {
	payments := router.Group("/payments")
	{
		payments.POST("/:id/complete", h.Complete)
		payments.POST("/:id/void", h.Void)
		payments.POST("/:id/credit", h.Credit)
	}
}

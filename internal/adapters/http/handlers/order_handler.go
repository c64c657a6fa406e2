package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/commercekit/walletpay/internal/adapters/http/common"
	"github.com/commercekit/walletpay/internal/application/dtos"
)

// CompleteOrderUseCase finalizes an order.
type CompleteOrderUseCase interface {
	Execute(ctx context.Context, orderID uuid.UUID) (*dtos.OrderDTO, error)
}

// CancelOrderUseCase cancels an order and reverses its payments.
type CancelOrderUseCase interface {
	Execute(ctx context.Context, orderID uuid.UUID) (*dtos.OrderDTO, error)
}

// OrderHandler serves the order lifecycle endpoints.
type OrderHandler struct {
	completeOrder CompleteOrderUseCase
	cancelOrder   CancelOrderUseCase
}

// NewOrderHandler creates an OrderHandler.
func NewOrderHandler(completeOrder CompleteOrderUseCase, cancelOrder CancelOrderUseCase) *OrderHandler {
	return &OrderHandler{completeOrder: completeOrder, cancelOrder: cancelOrder}
}

// Complete finalizes an order after its payments are processed.
//
// @Summary Complete an order
// @Tags Orders
// @Produce json
// @Param order_id path string true "Order ID" format(uuid)
// @Success 200 {object} common.APIResponse{data=dtos.OrderDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse "Order not found"
// @Failure 422 {object} common.APIResponse "Invalid state transition"
// @Router /api/v1/orders/{order_id}/complete [post]
func (h *OrderHandler) Complete(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	result, err := h.completeOrder.Execute(c.Request.Context(), orderID)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// Cancel cancels an order. Completed wallet payments are voided and the
// funds returned.
//
// @Summary Cancel an order
// @Tags Orders
// @Produce json
// @Param order_id path string true "Order ID" format(uuid)
// @Success 200 {object} common.APIResponse{data=dtos.OrderDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse "Order not found"
// @Failure 422 {object} common.APIResponse "Invalid state transition"
// @Router /api/v1/orders/{order_id}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	result, err := h.cancelOrder.Execute(c.Request.Context(), orderID)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

func (h *OrderHandler) orderID(c *gin.Context) (uuid.UUID, bool) {
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

// RegisterRoutes registers the order routes.
//
// Routes:
//   - POST /orders/:order_id/complete - Complete order
//   - POST /orders/:order_id/cancel   - Cancel order
func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/orders/:order_id")
	{
		orders.POST("/complete", h.Complete)
		orders.POST("/cancel", h.Cancel)
	}
}

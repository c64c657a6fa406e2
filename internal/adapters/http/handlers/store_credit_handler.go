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

// CreateEntryUseCase records one ledger entry.
type CreateEntryUseCase interface {
	Execute(ctx context.Context, cmd dtos.CreateEntryCommand) (*dtos.StoreCreditDTO, error)
}

// ListEntriesUseCase lists ledger entries.
type ListEntriesUseCase interface {
	Execute(ctx context.Context, query dtos.ListEntriesQuery) ([]dtos.StoreCreditDTO, error)
}

// UpdateReasonUseCase edits the reason of an entry.
type UpdateReasonUseCase interface {
	Execute(ctx context.Context, cmd dtos.UpdateReasonCommand) (*dtos.StoreCreditDTO, error)
}

// GetBalanceUseCase reports a user's current balance.
type GetBalanceUseCase interface {
	Execute(ctx context.Context, userID uuid.UUID) (*dtos.BalanceDTO, error)
}

// StoreCreditHandler serves the wallet ledger endpoints.
type StoreCreditHandler struct {
	createEntry  CreateEntryUseCase
	listEntries  ListEntriesUseCase
	updateReason UpdateReasonUseCase
	getBalance   GetBalanceUseCase
}

// NewStoreCreditHandler creates a StoreCreditHandler.
func NewStoreCreditHandler(
	createEntry CreateEntryUseCase,
	listEntries ListEntriesUseCase,
	updateReason UpdateReasonUseCase,
	getBalance GetBalanceUseCase,
) *StoreCreditHandler {
	return &StoreCreditHandler{
		createEntry:  createEntry,
		listEntries:  listEntries,
		updateReason: updateReason,
		getBalance:   getBalance,
	}
}

// CreateEntryRequest is the body of a manual ledger entry.
type CreateEntryRequest struct {
	Type        string `json:"type" binding:"required,entry_type"`
	Amount      string `json:"amount" binding:"required,money_amount"`
	PaymentMode *int   `json:"payment_mode" binding:"required"`
	Reason      string `json:"reason" binding:"required,max=500"`
}

// UpdateReasonRequest edits the reason text of an entry.
type UpdateReasonRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// UserIDParam is the user id path parameter.
type UserIDParam struct {
	UserID string `uri:"user_id" binding:"required,uuid"`
}

// EntryIDParam is the entry id path parameter.
type EntryIDParam struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// ListEntriesParams filters a ledger listing.
type ListEntriesParams struct {
	Type string `form:"type" binding:"omitempty,entry_type"`
}

// CreateEntry records a manual CREDIT or DEBIT for a user.
//
// @Summary Create a ledger entry
// @Tags StoreCredits
// @Accept json
// @Produce json
// @Param user_id path string true "User ID" format(uuid)
// @Param request body CreateEntryRequest true "Entry data"
// @Success 201 {object} common.APIResponse{data=dtos.StoreCreditDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse "User not found"
// @Failure 409 {object} common.APIResponse "Concurrent balance update"
// @Failure 422 {object} common.APIResponse "Balance would go below zero"
// @Router /api/v1/users/{user_id}/store_credits [post]
func (h *StoreCreditHandler) CreateEntry(c *gin.Context) {
	var params UserIDParam
	if !BindURI(c, &params) {
		return
	}

	var req CreateEntryRequest
	if !BindJSON(c, &req) {
		return
	}

	userID, err := uuid.Parse(params.UserID)
	if err != nil {
		common.ValidationErrorResponse(c, []common.FieldError{
			{Field: "user_id", Message: "Invalid UUID format", Code: "uuid"},
		})
		return
	}

	amount, err := valueobjects.NewMoney(req.Amount)
	if err != nil {
		common.ValidationErrorResponse(c, []common.FieldError{
			{Field: "amount", Message: "Invalid amount", Code: "money_amount"},
		})
		return
	}

	cmd := dtos.CreateEntryCommand{
		UserID:      userID,
		Type:        entities.EntryType(req.Type),
		Amount:      amount,
		AmountSet:   true,
		PaymentMode: entities.PaymentMode(*req.PaymentMode),
		Reason:      req.Reason,

		// Entries created over HTTP come from staff input, so the
		// reserved system modes are off limits.
		RestrictNegativeModes: true,
	}

	if actor := middleware.GetAuthUserID(c); actor != uuid.Nil {
		cmd.Transactioner = &actor
	}

	result, err := h.createEntry.Execute(c.Request.Context(), cmd)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusCreated, result)
}

// ListUserEntries returns a user's ledger, newest first.
//
// @Summary List a user's ledger entries
// @Tags StoreCredits
// @Produce json
// @Param user_id path string true "User ID" format(uuid)
// @Param type query string false "Filter by entry type" Enums(CREDIT, DEBIT)
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20) maximum(100)
// @Success 200 {object} common.APIResponse{data=[]dtos.StoreCreditDTO}
// @Failure 400 {object} common.APIResponse
// @Router /api/v1/users/{user_id}/store_credits [get]
func (h *StoreCreditHandler) ListUserEntries(c *gin.Context) {
	var params UserIDParam
	if !BindURI(c, &params) {
		return
	}

	userID, err := uuid.Parse(params.UserID)
	if err != nil {
		common.ValidationErrorResponse(c, []common.FieldError{
			{Field: "user_id", Message: "Invalid UUID format", Code: "uuid"},
		})
		return
	}

	h.list(c, &userID)
}

// ListEntries returns ledger entries across all users.
//
// @Summary List ledger entries
// @Tags StoreCredits
// @Produce json
// @Param type query string false "Filter by entry type" Enums(CREDIT, DEBIT)
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20) maximum(100)
// @Success 200 {object} common.APIResponse{data=[]dtos.StoreCreditDTO}
// @Failure 400 {object} common.APIResponse
// @Router /api/v1/store_credits [get]
func (h *StoreCreditHandler) ListEntries(c *gin.Context) {
	h.list(c, nil)
}

func (h *StoreCreditHandler) list(c *gin.Context, userID *uuid.UUID) {
	pagination := ParsePagination(c)

	var filters ListEntriesParams
	if !BindQuery(c, &filters) {
		return
	}

	query := dtos.ListEntriesQuery{
		UserID:  userID,
		Page:    pagination.Page,
		PerPage: pagination.PerPage,
	}
	if filters.Type != "" {
		entryType := entities.EntryType(filters.Type)
		query.Type = &entryType
	}

	result, err := h.listEntries.Execute(c.Request.Context(), query)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.SuccessWithMeta(c, http.StatusOK, result, BuildMeta(pagination, len(result)))
}

// UpdateReason edits the free-text reason of an entry.
//
// @Summary Update the reason of a ledger entry
// @Tags StoreCredits
// @Accept json
// @Produce json
// @Param id path string true "Entry ID" format(uuid)
// @Param request body UpdateReasonRequest true "New reason"
// @Success 200 {object} common.APIResponse{data=dtos.StoreCreditDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse "Entry not found"
// @Router /api/v1/store_credits/{id} [patch]
func (h *StoreCreditHandler) UpdateReason(c *gin.Context) {
	var params EntryIDParam
	if !BindURI(c, &params) {
		return
	}

	var req UpdateReasonRequest
	if !BindJSON(c, &req) {
		return
	}

	entryID, err := uuid.Parse(params.ID)
	if err != nil {
		common.ValidationErrorResponse(c, []common.FieldError{
			{Field: "id", Message: "Invalid UUID format", Code: "uuid"},
		})
		return
	}

	result, err := h.updateReason.Execute(c.Request.Context(), dtos.UpdateReasonCommand{
		EntryID: entryID,
		Reason:  req.Reason,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// GetBalance returns a user's current store-credit total.
//
// @Summary Get a user's wallet balance
// @Tags StoreCredits
// @Produce json
// @Param user_id path string true "User ID" format(uuid)
// @Success 200 {object} common.APIResponse{data=dtos.BalanceDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse "User not found"
// @Router /api/v1/users/{user_id}/wallet [get]
func (h *StoreCreditHandler) GetBalance(c *gin.Context) {
	var params UserIDParam
	if !BindURI(c, &params) {
		return
	}

	userID, err := uuid.Parse(params.UserID)
	if err != nil {
		common.ValidationErrorResponse(c, []common.FieldError{
			{Field: "user_id", Message: "Invalid UUID format", Code: "uuid"},
		})
		return
	}

	result, err := h.getBalance.Execute(c.Request.Context(), userID)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// GetMyBalance returns the authenticated user's balance.
//
// @Summary Get my wallet balance
// @Tags StoreCredits
// @Produce json
// @Security BearerAuth
// @Success 200 {object} common.APIResponse{data=dtos.BalanceDTO}
// @Failure 401 {object} common.APIResponse
// @Router /api/v1/wallet [get]
func (h *StoreCreditHandler) GetMyBalance(c *gin.Context) {
	userID := middleware.GetAuthUserID(c)
	if userID == uuid.Nil {
		common.UnauthorizedResponse(c, "User not authenticated")
		return
	}

	result, err := h.getBalance.Execute(c.Request.Context(), userID)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// RegisterRoutes registers the ledger routes.
//
// Routes:
//   - GET    /wallet                          - My balance (authenticated)
//   - GET    /users/:user_id/wallet           - Balance of a user
//   - POST   /users/:user_id/store_credits    - Create entry
//   - GET    /users/:user_id/store_credits    - List a user's entries
//   - GET    /store_credits                   - List entries
//   - PATCH  /store_credits/:id               - Update entry reason
func (h *StoreCreditHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/wallet", h.GetMyBalance)

	users := router.Group("/users/:user_id")
	{
		users.GET("/wallet", h.GetBalance)
		users.POST("/store_credits", h.CreateEntry)
		users.GET("/store_credits", h.ListUserEntries)
	}

	credits := router.Group("/store_credits")
	{
		credits.GET("", h.ListEntries)
		credits.PATCH("/:id", h.UpdateReason)
	}
}

package handler

import (
	"github.com/crm/backend/internal/application/finance"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TransactionHandler handles deposit, withdrawal and credit records
type TransactionHandler struct {
	BaseHandler
	txService *finance.TransactionService
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(txService *finance.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		txService: txService,
	}
}

// Create godoc
// @Summary      Create transaction
// @Description  Records a pending deposit, withdrawal or credit adjustment.
// @Description  With approve=true the record is processed right away.
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateTransactionRequest true "Transaction"
// @Success      201 {object} APIResponse[finance.TransactionResponse]
// @Failure      422 {object} ErrorResponse
// @Router       /transactions [post]
func (h *TransactionHandler) Create(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	gatewayID, _ := parseOptionalUUID(req.GatewayID)

	tx, err := h.txService.Create(c.Request.Context(), finance.CreateTransactionInput{
		EntityID:  uuid.MustParse(req.EntityID),
		Type:      req.Type,
		Amount:    req.Amount,
		Currency:  req.Currency,
		GatewayID: gatewayID,
		Reference: req.Reference,
		Comment:   req.Comment,
		CreatedBy: &userID,
		Approve:   req.Approve,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, tx)
}

// List godoc
// @Summary      List transactions
// @Tags         transactions
// @Produce      json
// @Security     BearerAuth
// @Param        entity_id query string false "Client ID"
// @Param        type query string false "Transaction type"
// @Param        status query string false "pending, approved or rejected"
// @Success      200 {object} APIResponse[[]finance.TransactionResponse]
// @Router       /transactions [get]
func (h *TransactionHandler) List(c *gin.Context) {
	var q TransactionListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	page := pageOf(q.ListRequest)
	entityID, _ := parseOptionalUUID(q.EntityID)

	txs, total, err := h.txService.List(c.Request.Context(), finance.TransactionListFilter{
		Page:     page.Page,
		PageSize: page.PageSize,
		OrderBy:  page.OrderBy,
		OrderDir: page.OrderDir,
		Search:   page.Search,
		EntityID: entityID,
		Type:     q.Type,
		Status:   q.Status,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, txs, total, page.Page, page.PageSize)
}

// GetByID godoc
// @Summary      Get transaction
// @Tags         transactions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Transaction ID"
// @Success      200 {object} APIResponse[finance.TransactionResponse]
// @Router       /transactions/{id} [get]
func (h *TransactionHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	tx, err := h.txService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tx)
}

// Approve godoc
// @Summary      Approve transaction
// @Description  Applies the amount to the client balance or credit
// @Tags         transactions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Transaction ID"
// @Success      200 {object} APIResponse[finance.TransactionResponse]
// @Failure      422 {object} ErrorResponse
// @Router       /transactions/{id}/approve [post]
func (h *TransactionHandler) Approve(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	tx, err := h.txService.Approve(c.Request.Context(), id, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tx)
}

// Reject godoc
// @Summary      Reject transaction
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Transaction ID"
// @Param        request body RejectTransactionRequest true "Reason"
// @Success      200 {object} APIResponse[finance.TransactionResponse]
// @Router       /transactions/{id}/reject [post]
func (h *TransactionHandler) Reject(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req RejectTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	tx, err := h.txService.Reject(c.Request.Context(), id, userID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tx)
}

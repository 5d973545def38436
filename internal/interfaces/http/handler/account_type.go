package handler

import (
	"github.com/crm/backend/internal/application/accounttype"
	"github.com/gin-gonic/gin"
)

// AccountTypeHandler handles account types and their asset rules
type AccountTypeHandler struct {
	BaseHandler
	accountTypeService *accounttype.AccountTypeService
}

// NewAccountTypeHandler creates a new account type handler
func NewAccountTypeHandler(accountTypeService *accounttype.AccountTypeService) *AccountTypeHandler {
	return &AccountTypeHandler{
		accountTypeService: accountTypeService,
	}
}

// List godoc
// @Summary      List account types
// @Tags         account-types
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} APIResponse[[]accounttype.AccountTypeResponse]
// @Router       /account-types [get]
func (h *AccountTypeHandler) List(c *gin.Context) {
	types, err := h.accountTypeService.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, types)
}

// GetByID godoc
// @Summary      Get account type
// @Tags         account-types
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Account type ID"
// @Success      200 {object} APIResponse[accounttype.AccountTypeResponse]
// @Router       /account-types/{id} [get]
func (h *AccountTypeHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	h.respond(c)(h.accountTypeService.GetByID(c.Request.Context(), id))
}

// Create godoc
// @Summary      Create account type
// @Tags         account-types
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body AccountTypeRequestBody true "Account type"
// @Success      201 {object} APIResponse[accounttype.AccountTypeResponse]
// @Failure      409 {object} ErrorResponse
// @Router       /account-types [post]
func (h *AccountTypeHandler) Create(c *gin.Context) {
	var req AccountTypeRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	at, err := h.accountTypeService.Create(c.Request.Context(), req.toRequest())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, at)
}

// Update godoc
// @Summary      Update account type
// @Tags         account-types
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Account type ID"
// @Param        request body AccountTypeRequestBody true "Account type"
// @Success      200 {object} APIResponse[accounttype.AccountTypeResponse]
// @Router       /account-types/{id} [put]
func (h *AccountTypeHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req AccountTypeRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	h.respond(c)(h.accountTypeService.Update(c.Request.Context(), id, req.toRequest()))
}

// SetDefault godoc
// @Summary      Make account type the default
// @Description  New leads get the default account type; the previous default is cleared
// @Tags         account-types
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Account type ID"
// @Success      200 {object} APIResponse[accounttype.AccountTypeResponse]
// @Router       /account-types/{id}/default [post]
func (h *AccountTypeHandler) SetDefault(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	h.respond(c)(h.accountTypeService.SetDefault(c.Request.Context(), id))
}

// Enable godoc
// @Summary      Enable account type
// @Tags         account-types
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Account type ID"
// @Success      200 {object} APIResponse[accounttype.AccountTypeResponse]
// @Router       /account-types/{id}/enable [post]
func (h *AccountTypeHandler) Enable(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	h.respond(c)(h.accountTypeService.Enable(c.Request.Context(), id))
}

// Disable godoc
// @Summary      Disable account type
// @Tags         account-types
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Account type ID"
// @Success      200 {object} APIResponse[accounttype.AccountTypeResponse]
// @Router       /account-types/{id}/disable [post]
func (h *AccountTypeHandler) Disable(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	h.respond(c)(h.accountTypeService.Disable(c.Request.Context(), id))
}

// UpsertRule godoc
// @Summary      Set the rule of an asset class
// @Tags         account-types
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Account type ID"
// @Param        asset_class path string true "forex, crypto, stocks, indices, commodities or metals"
// @Param        request body AssetRuleRequestBody true "Rule"
// @Success      200 {object} APIResponse[accounttype.AccountTypeResponse]
// @Router       /account-types/{id}/rules/{asset_class} [put]
func (h *AccountTypeHandler) UpsertRule(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req AssetRuleRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	h.respond(c)(h.accountTypeService.UpsertRule(c.Request.Context(), id, c.Param("asset_class"), accounttype.AssetRuleRequest{
		Leverage:         req.Leverage,
		SpreadMarkup:     req.SpreadMarkup,
		CommissionPerLot: req.CommissionPerLot,
		MaxVolume:        req.MaxVolume,
		Enabled:          req.Enabled,
	}))
}

// RemoveRule godoc
// @Summary      Remove the rule of an asset class
// @Tags         account-types
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Account type ID"
// @Param        asset_class path string true "Asset class"
// @Success      200 {object} APIResponse[accounttype.AccountTypeResponse]
// @Router       /account-types/{id}/rules/{asset_class} [delete]
func (h *AccountTypeHandler) RemoveRule(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	h.respond(c)(h.accountTypeService.RemoveRule(c.Request.Context(), id, c.Param("asset_class")))
}

// Delete godoc
// @Summary      Delete account type
// @Description  The default type and types still assigned to clients cannot be deleted
// @Tags         account-types
// @Security     BearerAuth
// @Param        id path string true "Account type ID"
// @Success      204
// @Router       /account-types/{id} [delete]
func (h *AccountTypeHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.accountTypeService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *AccountTypeHandler) respond(c *gin.Context) func(*accounttype.AccountTypeResponse, error) {
	return func(at *accounttype.AccountTypeResponse, err error) {
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, at)
	}
}

func (r AccountTypeRequestBody) toRequest() accounttype.AccountTypeRequest {
	return accounttype.AccountTypeRequest{
		Name:            r.Name,
		Description:     r.Description,
		Currency:        r.Currency,
		MinDeposit:      r.MinDeposit,
		DefaultLeverage: r.DefaultLeverage,
	}
}

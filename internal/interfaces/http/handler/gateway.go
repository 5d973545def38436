package handler

import (
	"github.com/crm/backend/internal/application/finance"
	"github.com/gin-gonic/gin"
)

// GatewayHandler handles payment gateway configuration
type GatewayHandler struct {
	BaseHandler
	gatewayService *finance.GatewayService
}

// NewGatewayHandler creates a new gateway handler
func NewGatewayHandler(gatewayService *finance.GatewayService) *GatewayHandler {
	return &GatewayHandler{
		gatewayService: gatewayService,
	}
}

// List godoc
// @Summary      List gateways
// @Tags         gateways
// @Produce      json
// @Security     BearerAuth
// @Param        enabled query bool false "Only enabled gateways"
// @Success      200 {object} APIResponse[[]finance.GatewayResponse]
// @Router       /gateways [get]
func (h *GatewayHandler) List(c *gin.Context) {
	gateways, err := h.gatewayService.List(c.Request.Context(), parseBoolQuery(c, "enabled", false))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gateways)
}

// GetByID godoc
// @Summary      Get gateway
// @Tags         gateways
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Gateway ID"
// @Success      200 {object} APIResponse[finance.GatewayResponse]
// @Router       /gateways/{id} [get]
func (h *GatewayHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	gateway, err := h.gatewayService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gateway)
}

// Create godoc
// @Summary      Create gateway
// @Tags         gateways
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body GatewayRequestBody true "Gateway"
// @Success      201 {object} APIResponse[finance.GatewayResponse]
// @Router       /gateways [post]
func (h *GatewayHandler) Create(c *gin.Context) {
	var req GatewayRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	gateway, err := h.gatewayService.Create(c.Request.Context(), req.toRequest())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, gateway)
}

// Update godoc
// @Summary      Update gateway
// @Tags         gateways
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Gateway ID"
// @Param        request body GatewayRequestBody true "Gateway"
// @Success      200 {object} APIResponse[finance.GatewayResponse]
// @Router       /gateways/{id} [put]
func (h *GatewayHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req GatewayRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	gateway, err := h.gatewayService.Update(c.Request.Context(), id, req.toRequest())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gateway)
}

// Delete godoc
// @Summary      Delete gateway
// @Tags         gateways
// @Security     BearerAuth
// @Param        id path string true "Gateway ID"
// @Success      204
// @Router       /gateways/{id} [delete]
func (h *GatewayHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.gatewayService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func (r GatewayRequestBody) toRequest() finance.GatewayRequest {
	return finance.GatewayRequest{
		Name:               r.Name,
		Provider:           r.Provider,
		Currencies:         r.Currencies,
		SupportsDeposit:    r.SupportsDeposit,
		SupportsWithdrawal: r.SupportsWithdrawal,
		MinAmount:          r.MinAmount,
		MaxAmount:          r.MaxAmount,
		Enabled:            r.Enabled,
	}
}

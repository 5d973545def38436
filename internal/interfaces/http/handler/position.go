package handler

import (
	"github.com/crm/backend/internal/application/trading"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PositionHandler handles trading position HTTP requests
type PositionHandler struct {
	BaseHandler
	positionService *trading.PositionService
}

// NewPositionHandler creates a new position handler
func NewPositionHandler(positionService *trading.PositionService) *PositionHandler {
	return &PositionHandler{
		positionService: positionService,
	}
}

// Open godoc
// @Summary      Open position
// @Description  Leverage, commission and volume limits come from the asset
// @Description  rule of the client's account type
// @Tags         positions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body OpenPositionRequest true "Position"
// @Success      201 {object} APIResponse[trading.PositionResponse]
// @Failure      422 {object} ErrorResponse
// @Router       /positions [post]
func (h *PositionHandler) Open(c *gin.Context) {
	var req OpenPositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	position, err := h.positionService.Open(c.Request.Context(), trading.OpenPositionInput{
		EntityID:     uuid.MustParse(req.EntityID),
		Symbol:       req.Symbol,
		AssetClass:   req.AssetClass,
		Side:         req.Side,
		Volume:       req.Volume,
		OpenPrice:    req.OpenPrice,
		ContractSize: req.ContractSize,
		StopLoss:     req.StopLoss,
		TakeProfit:   req.TakeProfit,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, position)
}

// List godoc
// @Summary      List positions of a client
// @Tags         positions
// @Produce      json
// @Security     BearerAuth
// @Param        entity_id query string true "Client ID"
// @Param        status query string false "open or closed"
// @Success      200 {object} APIResponse[[]trading.PositionResponse]
// @Router       /positions [get]
func (h *PositionHandler) List(c *gin.Context) {
	var q PositionListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	page := pageOf(q.ListRequest)

	positions, total, err := h.positionService.ListByEntity(c.Request.Context(), trading.PositionListFilter{
		EntityID: uuid.MustParse(q.EntityID),
		Status:   q.Status,
		Page:     page.Page,
		PageSize: page.PageSize,
		OrderBy:  page.OrderBy,
		OrderDir: page.OrderDir,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, positions, total, page.Page, page.PageSize)
}

// GetByID godoc
// @Summary      Get position
// @Tags         positions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Position ID"
// @Success      200 {object} APIResponse[trading.PositionResponse]
// @Router       /positions/{id} [get]
func (h *PositionHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	h.respond(c)(h.positionService.GetByID(c.Request.Context(), id))
}

// UpdatePrice godoc
// @Summary      Mark position to market
// @Description  Closes the position when the price crosses its stop loss or take profit
// @Tags         positions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Position ID"
// @Param        request body PriceRequest true "Market price"
// @Success      200 {object} APIResponse[trading.PositionResponse]
// @Router       /positions/{id}/price [put]
func (h *PositionHandler) UpdatePrice(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req PriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	h.respond(c)(h.positionService.UpdatePrice(c.Request.Context(), id, req.Price))
}

// ApplySymbolPrice godoc
// @Summary      Price feed tick
// @Description  Marks every open position of the symbol and reports the ones closed by exits
// @Tags         positions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body SymbolPriceRequest true "Symbol price"
// @Success      200 {object} APIResponse[trading.PriceFeedResult]
// @Router       /positions/prices [post]
func (h *PositionHandler) ApplySymbolPrice(c *gin.Context) {
	var req SymbolPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	result, err := h.positionService.ApplySymbolPrice(c.Request.Context(), req.Symbol, req.Price)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// SetExits godoc
// @Summary      Set stop loss and take profit
// @Tags         positions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Position ID"
// @Param        request body SetExitsRequest true "Exit levels"
// @Success      200 {object} APIResponse[trading.PositionResponse]
// @Router       /positions/{id}/exits [put]
func (h *PositionHandler) SetExits(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req SetExitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	h.respond(c)(h.positionService.SetExits(c.Request.Context(), id, req.StopLoss, req.TakeProfit))
}

// ChargeSwap godoc
// @Summary      Book swap
// @Tags         positions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Position ID"
// @Param        request body ChargeSwapRequest true "Swap amount"
// @Success      200 {object} APIResponse[trading.PositionResponse]
// @Router       /positions/{id}/swap [post]
func (h *PositionHandler) ChargeSwap(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req ChargeSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	h.respond(c)(h.positionService.ChargeSwap(c.Request.Context(), id, req.Amount))
}

// Close godoc
// @Summary      Close position
// @Description  Realizes the profit or loss into the client balance
// @Tags         positions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Position ID"
// @Param        request body PriceRequest true "Close price"
// @Success      200 {object} APIResponse[trading.PositionResponse]
// @Router       /positions/{id}/close [post]
func (h *PositionHandler) Close(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req PriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	h.respond(c)(h.positionService.Close(c.Request.Context(), id, req.Price))
}

func (h *PositionHandler) respond(c *gin.Context) func(*trading.PositionResponse, error) {
	return func(position *trading.PositionResponse, err error) {
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, position)
	}
}

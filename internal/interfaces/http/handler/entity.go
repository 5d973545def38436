package handler

import (
	"github.com/crm/backend/internal/application/lead"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EntityHandler handles lead and client HTTP requests
type EntityHandler struct {
	BaseHandler
	entityService *lead.EntityService
}

// NewEntityHandler creates a new entity handler
func NewEntityHandler(entityService *lead.EntityService) *EntityHandler {
	return &EntityHandler{
		entityService: entityService,
	}
}

// Fields godoc
// @Summary      Editable entity fields
// @Description  Field keys, labels, kinds and options used by forms and imports
// @Tags         entities
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} APIResponse[[]fieldkit.Spec]
// @Router       /entities/fields [get]
func (h *EntityHandler) Fields(c *gin.Context) {
	h.Success(c, h.entityService.Fields())
}

// Create godoc
// @Summary      Create lead
// @Tags         entities
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateEntityRequest true "New lead"
// @Success      201 {object} APIResponse[lead.EntityResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /entities [post]
func (h *EntityHandler) Create(c *gin.Context) {
	var req CreateEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	ownerID, _ := parseOptionalUUID(req.OwnerID)
	accountTypeID, _ := parseOptionalUUID(req.AccountTypeID)

	entity, err := h.entityService.Create(c.Request.Context(), lead.CreateEntityInput{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		Phone:         req.Phone,
		Country:       req.Country,
		Language:      req.Language,
		Campaign:      req.Campaign,
		Source:        req.Source,
		Notes:         req.Notes,
		OwnerID:       ownerID,
		AccountTypeID: accountTypeID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, entity)
}

// List godoc
// @Summary      List entities
// @Tags         entities
// @Produce      json
// @Security     BearerAuth
// @Param        stage query string false "lead or client"
// @Param        status query string false "Sales status"
// @Param        owner_id query string false "Owning agent"
// @Param        search query string false "Name, email or phone"
// @Success      200 {object} APIResponse[[]lead.EntityResponse]
// @Router       /entities [get]
func (h *EntityHandler) List(c *gin.Context) {
	var q EntityListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	page := pageOf(q.ListRequest)
	ownerID, _ := parseOptionalUUID(q.OwnerID)

	entities, total, err := h.entityService.List(c.Request.Context(), lead.EntityListFilter{
		Page:     page.Page,
		PageSize: page.PageSize,
		OrderBy:  page.OrderBy,
		OrderDir: page.OrderDir,
		Search:   page.Search,
		Stage:    q.Stage,
		Status:   q.Status,
		OwnerID:  ownerID,
		Campaign: q.Campaign,
		Source:   q.Source,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, entities, total, page.Page, page.PageSize)
}

// GetByID godoc
// @Summary      Get entity
// @Tags         entities
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Entity ID"
// @Success      200 {object} APIResponse[lead.EntityResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /entities/{id} [get]
func (h *EntityHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	entity, err := h.entityService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entity)
}

// Update godoc
// @Summary      Update entity fields
// @Description  Applies every field or none; values go through field normalization
// @Tags         entities
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Entity ID"
// @Param        request body UpdateEntityRequest true "Field values by key"
// @Success      200 {object} APIResponse[lead.EntityResponse]
// @Router       /entities/{id} [put]
func (h *EntityHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	h.respond(c)(h.entityService.Update(c.Request.Context(), id, req.Fields))
}

// SetField godoc
// @Summary      Set one entity field
// @Tags         entities
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Entity ID"
// @Param        request body SetFieldRequest true "Field key and raw value"
// @Success      200 {object} APIResponse[lead.EntityResponse]
// @Router       /entities/{id}/fields [patch]
func (h *EntityHandler) SetField(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req SetFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	h.respond(c)(h.entityService.SetField(c.Request.Context(), id, req.Key, req.Value))
}

// Assign godoc
// @Summary      Assign entity to an agent
// @Tags         entities
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Entity ID"
// @Param        request body AssignEntityRequest true "Owner; empty unassigns"
// @Success      200 {object} APIResponse[lead.EntityResponse]
// @Router       /entities/{id}/assign [post]
func (h *EntityHandler) Assign(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req AssignEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	ownerID, _ := parseOptionalUUID(req.OwnerID)
	h.respond(c)(h.entityService.Assign(c.Request.Context(), id, ownerID))
}

// ChangeStatus godoc
// @Summary      Change sales status
// @Tags         entities
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Entity ID"
// @Param        request body ChangeStatusRequest true "New status"
// @Success      200 {object} APIResponse[lead.EntityResponse]
// @Router       /entities/{id}/status [post]
func (h *EntityHandler) ChangeStatus(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	h.respond(c)(h.entityService.ChangeStatus(c.Request.Context(), id, req.Status))
}

// Convert godoc
// @Summary      Convert lead to client
// @Tags         entities
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Entity ID"
// @Success      200 {object} APIResponse[lead.EntityResponse]
// @Failure      422 {object} ErrorResponse
// @Router       /entities/{id}/convert [post]
func (h *EntityHandler) Convert(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	h.respond(c)(h.entityService.Convert(c.Request.Context(), id))
}

// RecordContact godoc
// @Summary      Record a contact attempt
// @Tags         entities
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Entity ID"
// @Param        request body RecordContactRequest false "Outcome status"
// @Success      200 {object} APIResponse[lead.EntityResponse]
// @Router       /entities/{id}/contact [post]
func (h *EntityHandler) RecordContact(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req RecordContactRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BindError(c, err)
			return
		}
	}
	h.respond(c)(h.entityService.RecordContact(c.Request.Context(), id, req.Outcome))
}

// SetAccountType godoc
// @Summary      Set account type
// @Tags         entities
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Entity ID"
// @Param        request body SetAccountTypeRequest true "Account type"
// @Success      200 {object} APIResponse[lead.EntityResponse]
// @Router       /entities/{id}/account-type [put]
func (h *EntityHandler) SetAccountType(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req SetAccountTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	h.respond(c)(h.entityService.SetAccountType(c.Request.Context(), id, uuid.MustParse(req.AccountTypeID)))
}

// Delete godoc
// @Summary      Delete entity
// @Description  Clients holding balance or credit cannot be deleted
// @Tags         entities
// @Security     BearerAuth
// @Param        id path string true "Entity ID"
// @Success      204
// @Router       /entities/{id} [delete]
func (h *EntityHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.entityService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// respond writes the entity or the error of a mutating call
func (h *EntityHandler) respond(c *gin.Context) func(*lead.EntityResponse, error) {
	return func(entity *lead.EntityResponse, err error) {
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, entity)
	}
}

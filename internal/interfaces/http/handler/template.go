package handler

import (
	"github.com/crm/backend/internal/application/settings"
	"github.com/gin-gonic/gin"
)

// TemplateHandler handles email template HTTP requests
type TemplateHandler struct {
	BaseHandler
	templateService *settings.TemplateService
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(templateService *settings.TemplateService) *TemplateHandler {
	return &TemplateHandler{
		templateService: templateService,
	}
}

// List godoc
// @Summary      List email templates
// @Tags         email-templates
// @Produce      json
// @Security     BearerAuth
// @Param        category query string false "Category filter"
// @Success      200 {object} APIResponse[[]settings.TemplateResponse]
// @Router       /email-templates [get]
func (h *TemplateHandler) List(c *gin.Context) {
	templates, err := h.templateService.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, templates)
}

// GetByID godoc
// @Summary      Get email template
// @Tags         email-templates
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Template ID"
// @Success      200 {object} APIResponse[settings.TemplateResponse]
// @Router       /email-templates/{id} [get]
func (h *TemplateHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	template, err := h.templateService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, template)
}

// Create godoc
// @Summary      Create email template
// @Tags         email-templates
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body TemplateRequestBody true "Template"
// @Success      201 {object} APIResponse[settings.TemplateResponse]
// @Failure      409 {object} ErrorResponse
// @Router       /email-templates [post]
func (h *TemplateHandler) Create(c *gin.Context) {
	var req TemplateRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	template, err := h.templateService.Create(c.Request.Context(), req.toRequest())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, template)
}

// Update godoc
// @Summary      Update email template
// @Tags         email-templates
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Template ID"
// @Param        request body TemplateRequestBody true "Template"
// @Success      200 {object} APIResponse[settings.TemplateResponse]
// @Router       /email-templates/{id} [put]
func (h *TemplateHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req TemplateRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	template, err := h.templateService.Update(c.Request.Context(), id, req.toRequest())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, template)
}

// Delete godoc
// @Summary      Delete email template
// @Tags         email-templates
// @Security     BearerAuth
// @Param        id path string true "Template ID"
// @Success      204
// @Router       /email-templates/{id} [delete]
func (h *TemplateHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.templateService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Preview godoc
// @Summary      Render a template preview
// @Description  Fills {{ key }} placeholders from the contact and the given
// @Description  variables. Unknown placeholders stay as written and are listed in missing.
// @Tags         email-templates
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Template ID"
// @Param        request body PreviewTemplateRequest false "Contact and variables"
// @Success      200 {object} APIResponse[settings.Rendered]
// @Router       /email-templates/{id}/preview [post]
func (h *TemplateHandler) Preview(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req PreviewTemplateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BindError(c, err)
			return
		}
	}
	entityID, _ := parseOptionalUUID(req.EntityID)

	rendered, err := h.templateService.Preview(c.Request.Context(), id, settings.PreviewInput{
		EntityID:  entityID,
		Variables: req.Variables,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rendered)
}

func (r TemplateRequestBody) toRequest() settings.TemplateRequest {
	return settings.TemplateRequest{
		Name:     r.Name,
		Category: r.Category,
		Subject:  r.Subject,
		Body:     r.Body,
		Enabled:  r.Enabled,
	}
}

package handler

import (
	"net/http"

	"github.com/crm/backend/internal/application/lead"
	"github.com/crm/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// ImportHandler handles CSV lead imports
type ImportHandler struct {
	BaseHandler
	importService *lead.ImportService
}

// NewImportHandler creates a new import handler
func NewImportHandler(importService *lead.ImportService) *ImportHandler {
	return &ImportHandler{
		importService: importService,
	}
}

// Columns godoc
// @Summary      Accepted import columns
// @Tags         entities
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} APIResponse[[]fieldkit.Spec]
// @Router       /entities/import/columns [get]
func (h *ImportHandler) Columns(c *gin.Context) {
	h.Success(c, h.importService.Columns())
}

// Import godoc
// @Summary      Import leads from CSV
// @Description  The header row names fields by key or label. Rows failing
// @Description  validation are reported and the others imported.
// @Tags         entities
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file formData file true "CSV file"
// @Param        delimiter formData string false "Field delimiter, default comma"
// @Param        skip_duplicates formData bool false "Skip rows whose email already exists"
// @Param        owner_id formData string false "Agent to assign imported leads to"
// @Success      200 {object} APIResponse[lead.ImportResult]
// @Failure      400 {object} ErrorResponse
// @Router       /entities/import [post]
func (h *ImportHandler) Import(c *gin.Context) {
	var form ImportLeadsForm
	if err := c.ShouldBind(&form); err != nil {
		h.BindError(c, err)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeValidationRequired, "A CSV file is required in the 'file' field")
		return
	}
	file, err := header.Open()
	if err != nil {
		h.BadRequest(c, "Unable to read the uploaded file")
		return
	}
	defer file.Close()

	opts := lead.ImportOptions{
		SkipDuplicates: form.SkipDuplicates,
		Campaign:       form.Campaign,
		Source:         form.Source,
	}
	if form.Delimiter != "" {
		opts.Delimiter = []rune(form.Delimiter)[0]
	}
	opts.OwnerID, _ = parseOptionalUUID(form.OwnerID)

	result, err := h.importService.Import(c.Request.Context(), file, opts)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

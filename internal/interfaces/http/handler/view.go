package handler

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/crm/backend/internal/application/listview"
	"github.com/gin-gonic/gin"
)

// ViewHandler serves the list tables: column layouts, saved views,
// queries and CSV exports
type ViewHandler struct {
	BaseHandler
	viewService *listview.ListViewService
}

// NewViewHandler creates a new view handler
func NewViewHandler(viewService *listview.ListViewService) *ViewHandler {
	return &ViewHandler{
		viewService: viewService,
	}
}

// Tables godoc
// @Summary      List tables
// @Tags         views
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} APIResponse[[]listview.TableResponse]
// @Router       /tables [get]
func (h *ViewHandler) Tables(c *gin.Context) {
	h.Success(c, h.viewService.Tables())
}

// Table godoc
// @Summary      Table columns and filter operators
// @Tags         views
// @Produce      json
// @Security     BearerAuth
// @Param        table path string true "Table key"
// @Success      200 {object} APIResponse[listview.TableResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /tables/{table} [get]
func (h *ViewHandler) Table(c *gin.Context) {
	table, err := h.viewService.Table(c.Param("table"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, table)
}

// GetColumns godoc
// @Summary      Column layout of the caller
// @Description  Unknown columns in the stored layout are dropped and reported
// @Tags         views
// @Produce      json
// @Security     BearerAuth
// @Param        table path string true "Table key"
// @Success      200 {object} APIResponse[listview.ColumnsResponse]
// @Router       /tables/{table}/columns [get]
func (h *ViewHandler) GetColumns(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	h.columns(c)(h.viewService.GetColumns(c.Request.Context(), userID, c.Param("table")))
}

// SaveColumns godoc
// @Summary      Save column layout
// @Tags         views
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        table path string true "Table key"
// @Param        request body ColumnStateRequest true "Order and hidden columns"
// @Success      200 {object} APIResponse[listview.ColumnsResponse]
// @Router       /tables/{table}/columns [put]
func (h *ViewHandler) SaveColumns(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req ColumnStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	h.columns(c)(h.viewService.SaveColumns(c.Request.Context(), userID, c.Param("table"), req.toState()))
}

// MoveColumn godoc
// @Summary      Move a column
// @Tags         views
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        table path string true "Table key"
// @Param        request body MoveColumnRequest true "Column and target index"
// @Success      200 {object} APIResponse[listview.ColumnsResponse]
// @Router       /tables/{table}/columns/move [post]
func (h *ViewHandler) MoveColumn(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req MoveColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	h.columns(c)(h.viewService.MoveColumn(c.Request.Context(), userID, c.Param("table"), req.Column, req.ToIndex))
}

// SetColumnVisibility godoc
// @Summary      Show or hide a column
// @Tags         views
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        table path string true "Table key"
// @Param        request body ColumnVisibilityRequest true "Column and visibility"
// @Success      200 {object} APIResponse[listview.ColumnsResponse]
// @Router       /tables/{table}/columns/visibility [post]
func (h *ViewHandler) SetColumnVisibility(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req ColumnVisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	h.columns(c)(h.viewService.SetColumnHidden(c.Request.Context(), userID, c.Param("table"), req.Column, req.Hidden))
}

// ResetColumns godoc
// @Summary      Reset column layout to the table default
// @Tags         views
// @Produce      json
// @Security     BearerAuth
// @Param        table path string true "Table key"
// @Success      200 {object} APIResponse[listview.ColumnsResponse]
// @Router       /tables/{table}/columns [delete]
func (h *ViewHandler) ResetColumns(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	h.columns(c)(h.viewService.ResetColumns(c.Request.Context(), userID, c.Param("table")))
}

// ListViews godoc
// @Summary      Saved views of a table
// @Description  The caller's own views plus views shared by others
// @Tags         views
// @Produce      json
// @Security     BearerAuth
// @Param        table path string true "Table key"
// @Success      200 {object} APIResponse[[]listview.ViewResponse]
// @Router       /tables/{table}/views [get]
func (h *ViewHandler) ListViews(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	views, err := h.viewService.ListViews(c.Request.Context(), userID, c.Param("table"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, views)
}

// CreateView godoc
// @Summary      Save a view
// @Tags         views
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        table path string true "Table key"
// @Param        request body ViewRequestBody true "View"
// @Success      201 {object} APIResponse[listview.ViewResponse]
// @Router       /tables/{table}/views [post]
func (h *ViewHandler) CreateView(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req ViewRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	view, err := h.viewService.CreateView(c.Request.Context(), userID, c.Param("table"), req.toRequest())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, view)
}

// GetView godoc
// @Summary      Get a saved view
// @Tags         views
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "View ID"
// @Success      200 {object} APIResponse[listview.ViewResponse]
// @Router       /views/{id} [get]
func (h *ViewHandler) GetView(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	view, err := h.viewService.GetView(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// UpdateView godoc
// @Summary      Update a saved view
// @Description  Only the owner can change a view
// @Tags         views
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "View ID"
// @Param        request body ViewRequestBody true "View"
// @Success      200 {object} APIResponse[listview.ViewResponse]
// @Router       /views/{id} [put]
func (h *ViewHandler) UpdateView(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req ViewRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	view, err := h.viewService.UpdateView(c.Request.Context(), userID, id, req.toRequest())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// DeleteView godoc
// @Summary      Delete a saved view
// @Tags         views
// @Security     BearerAuth
// @Param        id path string true "View ID"
// @Success      204
// @Router       /views/{id} [delete]
func (h *ViewHandler) DeleteView(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.viewService.DeleteView(c.Request.Context(), userID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Query godoc
// @Summary      Query a table
// @Description  Filters, sorts and pages the rows; incomplete conditions are skipped and listed in ignored
// @Tags         views
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        table path string true "Table key"
// @Param        request body QueryRequestBody false "Conditions, sort and page"
// @Success      200 {object} APIResponse[listview.QueryResult]
// @Router       /tables/{table}/query [post]
func (h *ViewHandler) Query(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req QueryRequestBody
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BindError(c, err)
			return
		}
	}
	result, err := h.viewService.Query(c.Request.Context(), userID, c.Param("table"), req.toRequest())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Export godoc
// @Summary      Export a table as CSV
// @Description  delivery=stream returns the file; delivery=stored uploads it
// @Description  and returns a presigned download link
// @Tags         views
// @Accept       json
// @Produce      text/csv
// @Produce      json
// @Security     BearerAuth
// @Param        table path string true "Table key"
// @Param        request body ExportRequestBody false "Query and delivery"
// @Success      200 {file} file
// @Router       /tables/{table}/export [post]
func (h *ViewHandler) Export(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req ExportRequestBody
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BindError(c, err)
			return
		}
	}

	file, err := h.viewService.Export(c.Request.Context(), userID, c.Param("table"), listview.ExportRequest{
		QueryRequest: req.toRequest(),
		Delivery:     req.Delivery,
		BOM:          req.BOM,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if file.URL != "" {
		h.Success(c, file)
		return
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	c.Header("X-Export-Rows", strconv.Itoa(file.Rows))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

func (h *ViewHandler) columns(c *gin.Context) func(*listview.ColumnsResponse, error) {
	return func(cols *listview.ColumnsResponse, err error) {
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, cols)
	}
}

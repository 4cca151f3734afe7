package handler

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pharmacy/analytics/internal/application/report"
	"github.com/pharmacy/analytics/internal/interfaces/http/dto"
)

// ExportIDHeader carries the ID of a rendered export
const ExportIDHeader = "X-Export-ID"

// ExportHandler renders xlsx reports
type ExportHandler struct {
	BaseHandler
	service *report.ExportService
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(service *report.ExportService) *ExportHandler {
	return &ExportHandler{service: service}
}

// Export handles GET /api/v1/exports/:kind and answers with the workbook as an attachment.
// The inventory-search kind honors the inventory search parameters.
func (h *ExportHandler) Export(c *gin.Context) {
	kind, err := report.ParseKind(c.Param("kind"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	var q dto.SearchQuery
	if !h.BindQuery(c, &q) {
		return
	}

	out, err := h.service.Export(c.Request.Context(), report.ExportRequest{
		Kind:   kind,
		Filter: q.ToRequest(),
		Search: q.ToSearch(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": out.Filename}))
	c.Header(ExportIDHeader, out.ID)
	c.Data(http.StatusOK, out.ContentType, out.Body)
}

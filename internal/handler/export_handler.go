package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/camp-registry-api/internal/service"
	"github.com/noah-isme/camp-registry-api/pkg/response"
)

// ExportHandler streams rendered registration exports.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler creates a new handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Download godoc
// @Summary Export registrations
// @Description Render the camp's classified history as CSV or a PDF summary report
// @Tags Registrations
// @Produce octet-stream
// @Param campID path string true "Camp ID"
// @Param format query string false "Export format (csv or pdf)" default(csv)
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /camps/{campID}/registrations/export [get]
func (h *ExportHandler) Download(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", string(service.ExportFormatCSV)))

	result, err := h.service.Generate(c.Request.Context(), c.Param("campID"), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(200, result.ContentType, result.Payload)
}

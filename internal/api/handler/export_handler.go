package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"hall-dispatch/backend/internal/dto"
	"hall-dispatch/backend/internal/service"
	"hall-dispatch/backend/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportMorningSheet 导出晨派单
// GET /api/v1/export/morning-sheet?target_date=2026-02-09
func (h *ExportHandler) ExportMorningSheet(c *gin.Context) {
	var req dto.MorningQueueQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 18001, "参数校验失败")
		return
	}

	buf, filename, err := h.exportSvc.ExportMorningSheet(c.Request.Context(), &req)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidTargetDate):
		response.BadRequest(c, 17002, "目标日期格式无效，应为 YYYY-MM-DD")
	case errors.Is(err, service.ErrExportNoRequests):
		response.NotFound(c, 18101, "目标日无待处理用工申请")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		response.InternalError(c)
	}
}


package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"hall-dispatch/backend/internal/dto"
	"hall-dispatch/backend/internal/service"
	"hall-dispatch/backend/pkg/response"
)

// MorningHandler 晨派处理模块 HTTP 处理器
type MorningHandler struct {
	morningSvc service.MorningService
}

// NewMorningHandler 创建 MorningHandler
func NewMorningHandler(morningSvc service.MorningService) *MorningHandler {
	return &MorningHandler{morningSvc: morningSvc}
}

// GetQueue 晨派处理队列快照
// GET /api/v1/morning/queue?target_date=2026-02-09&candidate_count=5
func (h *MorningHandler) GetQueue(c *gin.Context) {
	var req dto.MorningQueueQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 17001, "参数校验失败")
		return
	}

	queue, err := h.morningSvc.BuildProcessingQueue(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidTargetDate) {
			response.BadRequest(c, 17002, "目标日期格式无效，应为 YYYY-MM-DD")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, queue)
}


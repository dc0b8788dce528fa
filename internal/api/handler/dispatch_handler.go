package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"hall-dispatch/backend/internal/dto"
	"hall-dispatch/backend/internal/service"
	pkgerrors "hall-dispatch/backend/pkg/errors"
	"hall-dispatch/backend/pkg/response"
)

// DispatchHandler 派工模块 HTTP 处理器
type DispatchHandler struct {
	dispatchSvc service.DispatchService
}

// NewDispatchHandler 创建 DispatchHandler
func NewDispatchHandler(dispatchSvc service.DispatchService) *DispatchHandler {
	return &DispatchHandler{dispatchSvc: dispatchSvc}
}

// Get 派工详情
// GET /api/v1/dispatches/:id
func (h *DispatchHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 15001, "派工ID不能为空")
		return
	}

	dispatch, err := h.dispatchSvc.Get(c.Request.Context(), id)
	if err != nil {
		h.handleDispatchError(c, err)
		return
	}

	response.OK(c, dispatch)
}

// GetActiveByWorker 工人当前在岗派工
// GET /api/v1/dispatches/active?worker_id=xxx
func (h *DispatchHandler) GetActiveByWorker(c *gin.Context) {
	workerID := c.Query("worker_id")
	if workerID == "" {
		response.BadRequest(c, 15001, "worker_id不能为空")
		return
	}

	dispatch, err := h.dispatchSvc.GetActiveByWorker(c.Request.Context(), workerID)
	if err != nil {
		h.handleDispatchError(c, err)
		return
	}

	response.OK(c, dispatch)
}

// ListActive 全部在岗派工
// GET /api/v1/dispatches
func (h *DispatchHandler) ListActive(c *gin.Context) {
	dispatches, err := h.dispatchSvc.ListActive(c.Request.Context())
	if err != nil {
		h.handleDispatchError(c, err)
		return
	}

	response.OK(c, gin.H{"list": dispatches})
}

// ListByWorker 工人派工历史
// GET /api/v1/dispatches/history?worker_id=xxx&page=1
func (h *DispatchHandler) ListByWorker(c *gin.Context) {
	workerID := c.Query("worker_id")
	if workerID == "" {
		response.BadRequest(c, 15001, "worker_id不能为空")
		return
	}

	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, 15001, "参数校验失败")
		return
	}

	list, total, err := h.dispatchSvc.ListByWorker(c.Request.Context(), workerID, &page)
	if err != nil {
		h.handleDispatchError(c, err)
		return
	}

	response.OKPage(c, list, total, page.GetPage(), page.GetPageSize())
}

// Complete 记录派工结果
// POST /api/v1/dispatches/:id/complete
func (h *DispatchHandler) Complete(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 15001, "派工ID不能为空")
		return
	}

	var req dto.CompleteDispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 15001, "参数校验失败")
		return
	}

	callerID, ok := MustGetStaffID(c)
	if !ok {
		return
	}

	dispatch, err := h.dispatchSvc.Complete(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleDispatchError(c, err)
		return
	}

	response.OK(c, dispatch)
}

// ConvertShortCall 短工转正
// POST /api/v1/dispatches/:id/convert
func (h *DispatchHandler) ConvertShortCall(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 15001, "派工ID不能为空")
		return
	}

	callerID, ok := MustGetStaffID(c)
	if !ok {
		return
	}

	dispatch, err := h.dispatchSvc.ConvertShortCall(c.Request.Context(), id, callerID)
	if err != nil {
		h.handleDispatchError(c, err)
		return
	}

	response.OK(c, dispatch)
}

// handleDispatchError 统一处理派工模块业务错误
func (h *DispatchHandler) handleDispatchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDispatchNotFound):
		response.NotFound(c, 15101, "派工记录不存在")
	case errors.Is(err, service.ErrNoActiveDispatch):
		response.NotFound(c, 15102, "该工人当前无在岗派工")
	case errors.Is(err, service.ErrDispatchTerminal):
		response.Conflict(c, 15103, "派工已终结，不可再变更")
	case errors.Is(err, service.ErrInvalidOutcome):
		response.BadRequest(c, 15104, "无效的派工结果")
	case errors.Is(err, service.ErrDispatchNotShortCall):
		response.BadRequest(c, 15105, "非短工派工，不可转正")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 15106, "派工已被并发修改，请重试")
	default:
		response.InternalError(c)
	}
}


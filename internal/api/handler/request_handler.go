package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"hall-dispatch/backend/internal/dto"
	"hall-dispatch/backend/internal/service"
	pkgerrors "hall-dispatch/backend/pkg/errors"
	"hall-dispatch/backend/pkg/response"
)

// RequestHandler 用工申请模块 HTTP 处理器
type RequestHandler struct {
	requestSvc service.RequestService
}

// NewRequestHandler 创建 RequestHandler
func NewRequestHandler(requestSvc service.RequestService) *RequestHandler {
	return &RequestHandler{requestSvc: requestSvc}
}

// Submit 提交用工申请
// POST /api/v1/requests
// 幂等键从请求头 X-Idempotency-Key 读取，重放返回首次创建的申请单
func (h *RequestHandler) Submit(c *gin.Context) {
	var req dto.SubmitLaborRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 14001, "参数校验失败")
		return
	}
	req.IdempotencyKey = c.GetHeader("X-Idempotency-Key")

	callerID, ok := MustGetStaffID(c)
	if !ok {
		return
	}

	result, err := h.requestSvc.Submit(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}

	response.Created(c, result)
}

// Get 申请详情
// GET /api/v1/requests/:id
func (h *RequestHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 14001, "申请ID不能为空")
		return
	}

	result, err := h.requestSvc.Get(c.Request.Context(), id)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}

	response.OK(c, result)
}

// ListByEmployer 雇主申请列表
// GET /api/v1/requests?employer_id=xxx&page=1&page_size=20
func (h *RequestHandler) ListByEmployer(c *gin.Context) {
	employerID := c.Query("employer_id")
	if employerID == "" {
		response.BadRequest(c, 14001, "employer_id不能为空")
		return
	}

	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, 14001, "参数校验失败")
		return
	}

	list, total, err := h.requestSvc.ListByEmployer(c.Request.Context(), employerID, &page)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}

	response.OKPage(c, list, total, page.GetPage(), page.GetPageSize())
}

// Match 撮合派工
// POST /api/v1/requests/:id/match
func (h *RequestHandler) Match(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 14001, "申请ID不能为空")
		return
	}

	callerID, ok := MustGetStaffID(c)
	if !ok {
		return
	}

	result, err := h.requestSvc.MatchAndDispatch(c.Request.Context(), id, callerID)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}

	response.OK(c, result)
}

// Cancel 取消申请
// POST /api/v1/requests/:id/cancel
func (h *RequestHandler) Cancel(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 14001, "申请ID不能为空")
		return
	}

	var req dto.CancelLaborRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 14001, "参数校验失败")
		return
	}

	callerID, ok := MustGetStaffID(c)
	if !ok {
		return
	}

	result, err := h.requestSvc.Cancel(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}

	response.OK(c, result)
}

// ExpireStale 过期清理
// POST /api/v1/requests/expire-stale
func (h *RequestHandler) ExpireStale(c *gin.Context) {
	callerID, ok := MustGetStaffID(c)
	if !ok {
		return
	}

	expired, err := h.requestSvc.ExpireStale(c.Request.Context(), callerID)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}

	response.OK(c, gin.H{"expired": expired})
}

// handleRequestError 统一处理用工申请模块业务错误
func (h *RequestHandler) handleRequestError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRequestNotFound):
		response.NotFound(c, 14101, "用工申请不存在")
	case errors.Is(err, service.ErrBookNotFound):
		response.NotFound(c, 12101, "名册不存在")
	case errors.Is(err, service.ErrRequestTerminal):
		response.Conflict(c, 14102, "用工申请已终结，不可再变更")
	case errors.Is(err, service.ErrRequestNotOpen):
		response.BadRequest(c, 14103, "用工申请不在受理状态")
	case errors.Is(err, service.ErrNamedWorkersMissing):
		response.BadRequest(c, 14104, "点名申请必须指定工人")
	case errors.Is(err, service.ErrNamedWorkerNotRegistered):
		response.BadRequest(c, 14105, "被点名工人在该名册无在册登记")
	case errors.Is(err, service.ErrNamedWorkerUnavailable):
		response.Conflict(c, 14106, "被点名工人当前不可派")
	case errors.Is(err, pkgerrors.ErrClaimConflict),
		errors.Is(err, pkgerrors.ErrActiveDispatchExists):
		response.Conflict(c, 14107, "候选工人已被并发派出，请重试")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 14108, "申请已被并发修改，请重试")
	default:
		response.InternalError(c)
	}
}


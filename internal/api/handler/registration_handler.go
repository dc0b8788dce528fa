package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"hall-dispatch/backend/internal/dto"
	"hall-dispatch/backend/internal/service"
	pkgerrors "hall-dispatch/backend/pkg/errors"
	"hall-dispatch/backend/pkg/response"
)

// RegistrationHandler 名册登记模块 HTTP 处理器
type RegistrationHandler struct {
	regSvc service.RegistrationService
}

// NewRegistrationHandler 创建 RegistrationHandler
func NewRegistrationHandler(regSvc service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{regSvc: regSvc}
}

// Register 登记入册（分配优先号）
// POST /api/v1/registrations
func (h *RegistrationHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	callerID, ok := MustGetStaffID(c)
	if !ok {
		return
	}

	reg, err := h.regSvc.Register(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleRegistrationError(c, err)
		return
	}

	response.Created(c, reg)
}

// Get 登记详情
// GET /api/v1/registrations/:id
func (h *RegistrationHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 13001, "登记ID不能为空")
		return
	}

	reg, err := h.regSvc.Get(c.Request.Context(), id)
	if err != nil {
		h.handleRegistrationError(c, err)
		return
	}

	response.OK(c, reg)
}

// ListByWorker 工人的登记列表
// GET /api/v1/registrations?worker_id=xxx
func (h *RegistrationHandler) ListByWorker(c *gin.Context) {
	workerID := c.Query("worker_id")
	if workerID == "" {
		response.BadRequest(c, 13001, "worker_id不能为空")
		return
	}

	regs, err := h.regSvc.ListByWorker(c.Request.Context(), workerID)
	if err != nil {
		h.handleRegistrationError(c, err)
		return
	}

	response.OK(c, gin.H{"list": regs})
}

// NextInQueue 名册队首候选
// GET /api/v1/registrations/queue?book_id=xxx&count=5
func (h *RegistrationHandler) NextInQueue(c *gin.Context) {
	var req dto.QueueQueryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	regs, err := h.regSvc.NextInQueue(c.Request.Context(), &req)
	if err != nil {
		h.handleRegistrationError(c, err)
		return
	}

	response.OK(c, gin.H{"list": regs})
}

// IssueCheckMark 打记号（拒派登记）
// POST /api/v1/registrations/:id/check-marks
func (h *RegistrationHandler) IssueCheckMark(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 13001, "登记ID不能为空")
		return
	}

	callerID, ok := MustGetStaffID(c)
	if !ok {
		return
	}

	mark, err := h.regSvc.IssueCheckMark(c.Request.Context(), id, callerID)
	if err != nil {
		h.handleRegistrationError(c, err)
		return
	}

	response.OK(c, mark)
}

// Remove 除名（幂等）
// DELETE /api/v1/registrations/:id
func (h *RegistrationHandler) Remove(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 13001, "登记ID不能为空")
		return
	}

	var req dto.RemoveRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	callerID, ok := MustGetStaffID(c)
	if !ok {
		return
	}

	reg, err := h.regSvc.Remove(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleRegistrationError(c, err)
		return
	}

	response.OK(c, reg)
}

// ListActivities 登记活动日志
// GET /api/v1/registrations/:id/activities
func (h *RegistrationHandler) ListActivities(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 13001, "登记ID不能为空")
		return
	}

	activities, err := h.regSvc.ListActivities(c.Request.Context(), id)
	if err != nil {
		h.handleRegistrationError(c, err)
		return
	}

	response.OK(c, gin.H{"list": activities})
}

// handleRegistrationError 统一处理登记模块业务错误
func (h *RegistrationHandler) handleRegistrationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRegistrationNotFound):
		response.NotFound(c, 13101, "登记不存在")
	case errors.Is(err, service.ErrBookNotFound):
		response.NotFound(c, 12101, "名册不存在")
	case errors.Is(err, service.ErrAlreadyRegistered):
		response.Conflict(c, 13102, "该工人在此名册已有在册登记")
	case errors.Is(err, service.ErrRegistrationNotActive):
		response.BadRequest(c, 13103, "登记不在在册状态，不可执行此操作")
	case errors.Is(err, service.ErrInvalidAtTime):
		response.BadRequest(c, 13104, "登记时间格式无效，应为 RFC3339")
	case errors.Is(err, service.ErrDailySequenceExhausted):
		response.Conflict(c, 13105, "该名册当日登记序号已用尽")
	case errors.Is(err, service.ErrDateBeforeEpoch):
		response.BadRequest(c, 13106, "登记日期早于优先号起算日")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 13107, "登记已被并发修改，请重试")
	default:
		response.InternalError(c)
	}
}


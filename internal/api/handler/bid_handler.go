package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"hall-dispatch/backend/internal/dto"
	"hall-dispatch/backend/internal/service"
	"hall-dispatch/backend/pkg/response"
)

// BidHandler 投标模块 HTTP 处理器
type BidHandler struct {
	bidSvc service.BidService
}

// NewBidHandler 创建 BidHandler
func NewBidHandler(bidSvc service.BidService) *BidHandler {
	return &BidHandler{bidSvc: bidSvc}
}

// Submit 提交投标
// POST /api/v1/bids
func (h *BidHandler) Submit(c *gin.Context) {
	var req dto.SubmitBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 16001, "参数校验失败")
		return
	}

	bid, err := h.bidSvc.Submit(c.Request.Context(), &req)
	if err != nil {
		h.handleBidError(c, err)
		return
	}

	response.Created(c, bid)
}

// ListByRequest 申请的投标列表
// GET /api/v1/bids?request_id=xxx
func (h *BidHandler) ListByRequest(c *gin.Context) {
	requestID := c.Query("request_id")
	if requestID == "" {
		response.BadRequest(c, 16001, "request_id不能为空")
		return
	}

	bids, err := h.bidSvc.ListByRequest(c.Request.Context(), requestID)
	if err != nil {
		h.handleBidError(c, err)
		return
	}

	response.OK(c, gin.H{"list": bids})
}

// handleBidError 统一处理投标模块业务错误
func (h *BidHandler) handleBidError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRequestNotFound):
		response.NotFound(c, 14101, "用工申请不存在")
	case errors.Is(err, service.ErrRequestNotOpen):
		response.BadRequest(c, 14103, "用工申请不在受理状态")
	case errors.Is(err, service.ErrDuplicateBid):
		response.Conflict(c, 16101, "该工人已对此申请投标")
	case errors.Is(err, service.ErrBidderNotRegistered):
		response.BadRequest(c, 16102, "工人在该申请对应名册无在册登记")
	default:
		response.InternalError(c)
	}
}


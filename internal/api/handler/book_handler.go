package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"hall-dispatch/backend/internal/dto"
	"hall-dispatch/backend/internal/service"
	pkgerrors "hall-dispatch/backend/pkg/errors"
	"hall-dispatch/backend/pkg/response"
)

// BookHandler 名册模块 HTTP 处理器
type BookHandler struct {
	bookSvc service.BookService
}

// NewBookHandler 创建 BookHandler
func NewBookHandler(bookSvc service.BookService) *BookHandler {
	return &BookHandler{bookSvc: bookSvc}
}

// Create 创建名册
// POST /api/v1/books
func (h *BookHandler) Create(c *gin.Context) {
	var req dto.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 12001, "参数校验失败")
		return
	}

	callerID, ok := MustGetStaffID(c)
	if !ok {
		return
	}

	book, err := h.bookSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleBookError(c, err)
		return
	}

	response.Created(c, book)
}

// Get 名册详情
// GET /api/v1/books/:id
func (h *BookHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 12001, "名册ID不能为空")
		return
	}

	book, err := h.bookSvc.Get(c.Request.Context(), id)
	if err != nil {
		h.handleBookError(c, err)
		return
	}

	response.OK(c, book)
}

// List 名册列表（按晨派处理顺序）
// GET /api/v1/books
func (h *BookHandler) List(c *gin.Context) {
	books, err := h.bookSvc.List(c.Request.Context())
	if err != nil {
		h.handleBookError(c, err)
		return
	}

	response.OK(c, gin.H{"list": books})
}

// Update 更新名册属性与晨派处理顺序
// PUT /api/v1/books/:id
func (h *BookHandler) Update(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 12001, "名册ID不能为空")
		return
	}

	var req dto.UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 12001, "参数校验失败")
		return
	}

	callerID, ok := MustGetStaffID(c)
	if !ok {
		return
	}

	book, err := h.bookSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleBookError(c, err)
		return
	}

	response.OK(c, book)
}

// handleBookError 统一处理名册模块业务错误
func (h *BookHandler) handleBookError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrBookNotFound):
		response.NotFound(c, 12101, "名册不存在")
	case errors.Is(err, service.ErrBookNameDuplicate):
		response.Conflict(c, 12102, "名册名称已存在")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 12103, "名册已被并发修改，请重试")
	default:
		response.InternalError(c)
	}
}


package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"hall-dispatch/backend/internal/dto"
	"hall-dispatch/backend/internal/model"
	"hall-dispatch/backend/internal/repository"
)

// ── 名册模块业务错误 ──

var (
	ErrBookNotFound      = errors.New("名册不存在")
	ErrBookNameDuplicate = errors.New("名册名称已存在")
)

// BookService 名册业务接口
type BookService interface {
	Create(ctx context.Context, req *dto.CreateBookRequest, callerID string) (*dto.BookResponse, error)
	Get(ctx context.Context, bookID string) (*dto.BookResponse, error)
	List(ctx context.Context) ([]dto.BookResponse, error)
	// 更新名册属性与晨派处理顺序配置
	Update(ctx context.Context, bookID string, req *dto.UpdateBookRequest, callerID string) (*dto.BookResponse, error)
}

type bookService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewBookService 创建 BookService 实例
func NewBookService(repo *repository.Repository, logger *zap.Logger) BookService {
	return &bookService{repo: repo, logger: logger}
}

func (s *bookService) Create(ctx context.Context, req *dto.CreateBookRequest, callerID string) (*dto.BookResponse, error) {
	book := &model.ReferralBook{
		Name:           req.Name,
		ContractCode:   req.ContractCode,
		ProcessingSlot: req.ProcessingSlot,
		ProcessingRank: req.ProcessingRank,
	}
	if book.ProcessingSlot == 0 {
		book.ProcessingSlot = 1
	}
	book.CreatedBy = &callerID
	book.UpdatedBy = &callerID

	if err := s.repo.Book.Create(ctx, book); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrBookNameDuplicate
		}
		s.logger.Error("创建名册失败", zap.Error(err))
		return nil, err
	}

	resp := toBookResponse(book)
	return &resp, nil
}

func (s *bookService) Get(ctx context.Context, bookID string) (*dto.BookResponse, error) {
	book, err := s.repo.Book.GetByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		s.logger.Error("查询名册失败", zap.Error(err))
		return nil, err
	}
	resp := toBookResponse(book)
	return &resp, nil
}

func (s *bookService) List(ctx context.Context) ([]dto.BookResponse, error) {
	books, err := s.repo.Book.List(ctx)
	if err != nil {
		s.logger.Error("查询名册列表失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.BookResponse, 0, len(books))
	for i := range books {
		result = append(result, toBookResponse(&books[i]))
	}
	return result, nil
}

func (s *bookService) Update(ctx context.Context, bookID string, req *dto.UpdateBookRequest, callerID string) (*dto.BookResponse, error) {
	book, err := s.repo.Book.GetByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		s.logger.Error("查询名册失败", zap.Error(err))
		return nil, err
	}

	if req.Name != nil {
		book.Name = *req.Name
	}
	if req.ContractCode != nil {
		book.ContractCode = req.ContractCode
	}
	if req.ProcessingSlot != nil {
		book.ProcessingSlot = *req.ProcessingSlot
	}
	if req.ProcessingRank != nil {
		book.ProcessingRank = *req.ProcessingRank
	}
	book.UpdatedBy = &callerID

	if err := s.repo.Book.Update(ctx, book); err != nil {
		s.logger.Error("更新名册失败", zap.Error(err))
		return nil, err
	}

	resp := toBookResponse(book)
	return &resp, nil
}

// toBookResponse 转换名册为响应
func toBookResponse(book *model.ReferralBook) dto.BookResponse {
	return dto.BookResponse{
		ID:             book.BookID,
		Name:           book.Name,
		ContractCode:   book.ContractCode,
		ProcessingSlot: book.ProcessingSlot,
		ProcessingRank: book.ProcessingRank,
		CreatedAt:      book.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:      book.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// toBookBrief 转换名册为简要信息
func toBookBrief(book *model.ReferralBook) *dto.BookBrief {
	if book == nil {
		return nil
	}
	return &dto.BookBrief{
		ID:           book.BookID,
		Name:         book.Name,
		ContractCode: book.ContractCode,
	}
}


package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"hall-dispatch/backend/internal/dto"
	"hall-dispatch/backend/internal/model"
	"hall-dispatch/backend/internal/repository"
)

// ── 投标模块业务错误 ──

var (
	ErrBidNotFound         = errors.New("投标不存在")
	ErrDuplicateBid        = errors.New("该工人已对此申请投标")
	ErrBidderNotRegistered = errors.New("工人在该申请对应名册无在册登记，不可投标")
)

// BidService 投标业务接口
// 投标随时可提交，是否落在网上投标窗口内在晨派投影时标注
type BidService interface {
	Submit(ctx context.Context, req *dto.SubmitBidRequest) (*dto.BidResponse, error)
	ListByRequest(ctx context.Context, requestID string) ([]dto.BidResponse, error)
}

type bidService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewBidService 创建 BidService 实例
func NewBidService(repo *repository.Repository, logger *zap.Logger) BidService {
	return &bidService{repo: repo, logger: logger}
}

func (s *bidService) Submit(ctx context.Context, req *dto.SubmitBidRequest) (*dto.BidResponse, error) {
	// 1. 申请必须仍在受理
	request, err := s.repo.Request.GetByID(ctx, req.RequestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		s.logger.Error("查询用工申请失败", zap.Error(err))
		return nil, err
	}
	if request.Status != model.RequestOpen {
		return nil, ErrRequestNotOpen
	}

	// 2. 投标人必须在对应名册在册
	if _, err := s.repo.Registration.GetActive(ctx, req.WorkerID, request.BookID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBidderNotRegistered
		}
		s.logger.Error("查询投标人登记失败", zap.Error(err))
		return nil, err
	}

	bid := &model.JobBid{
		WorkerID:    req.WorkerID,
		RequestID:   req.RequestID,
		SubmittedAt: time.Now(),
	}
	if err := s.repo.Bid.Create(ctx, bid); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateBid
		}
		s.logger.Error("创建投标失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("投标已提交",
		zap.String("worker_id", bid.WorkerID),
		zap.String("request_id", bid.RequestID),
	)

	resp := toBidResponse(bid)
	return &resp, nil
}

func (s *bidService) ListByRequest(ctx context.Context, requestID string) ([]dto.BidResponse, error) {
	if _, err := s.repo.Request.GetByID(ctx, requestID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}

	bids, err := s.repo.Bid.ListByRequest(ctx, requestID)
	if err != nil {
		s.logger.Error("查询投标列表失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.BidResponse, 0, len(bids))
	for i := range bids {
		result = append(result, toBidResponse(&bids[i]))
	}
	return result, nil
}

// toBidResponse 转换投标为响应
func toBidResponse(bid *model.JobBid) dto.BidResponse {
	return dto.BidResponse{
		ID:          bid.BidID,
		WorkerID:    bid.WorkerID,
		RequestID:   bid.RequestID,
		SubmittedAt: bid.SubmittedAt.Format("2006-01-02T15:04:05Z"),
	}
}


package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"hall-dispatch/backend/internal/model"
)

// JobBidRepository 投标数据访问接口
type JobBidRepository interface {
	Create(ctx context.Context, bid *model.JobBid) error
	GetByWorkerAndRequest(ctx context.Context, workerID, requestID string) (*model.JobBid, error)
	ListByRequest(ctx context.Context, requestID string) ([]model.JobBid, error)
	// ExistsInWindow 查询工人对申请是否在指定时间窗内提交过投标
	ExistsInWindow(ctx context.Context, workerID, requestID string, from, to time.Time) (bool, error)
}

type jobBidRepo struct {
	db *gorm.DB
}

func NewJobBidRepo(db *gorm.DB) JobBidRepository {
	return &jobBidRepo{db: db}
}

func (r *jobBidRepo) Create(ctx context.Context, bid *model.JobBid) error {
	return r.db.WithContext(ctx).Create(bid).Error
}

func (r *jobBidRepo) GetByWorkerAndRequest(ctx context.Context, workerID, requestID string) (*model.JobBid, error) {
	var bid model.JobBid
	err := r.db.WithContext(ctx).
		Where("worker_id = ? AND request_id = ?", workerID, requestID).
		First(&bid).Error
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

func (r *jobBidRepo) ListByRequest(ctx context.Context, requestID string) ([]model.JobBid, error) {
	var bids []model.JobBid
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("submitted_at ASC").
		Find(&bids).Error
	return bids, err
}

func (r *jobBidRepo) ExistsInWindow(ctx context.Context, workerID, requestID string, from, to time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.JobBid{}).
		Where("worker_id = ? AND request_id = ? AND submitted_at >= ? AND submitted_at < ?",
			workerID, requestID, from, to).
		Count(&count).Error
	return count > 0, err
}

package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"hall-dispatch/backend/internal/model"
	pkgerrors "hall-dispatch/backend/pkg/errors"
)

// LaborRequestRepository 用工申请数据访问接口
type LaborRequestRepository interface {
	Create(ctx context.Context, request *model.LaborRequest) error
	GetByID(ctx context.Context, id string) (*model.LaborRequest, error)
	// ListOpenCreatedBefore 查询创建时间严格早于 cutoff 的 open 申请（晨派投影用）
	ListOpenCreatedBefore(ctx context.Context, cutoff time.Time) ([]model.LaborRequest, error)
	ListByEmployer(ctx context.Context, employerID string, offset, limit int) ([]model.LaborRequest, int64, error)
	Update(ctx context.Context, request *model.LaborRequest) error
}

type laborRequestRepo struct {
	db *gorm.DB
}

func NewLaborRequestRepo(db *gorm.DB) LaborRequestRepository {
	return &laborRequestRepo{db: db}
}

func (r *laborRequestRepo) Create(ctx context.Context, request *model.LaborRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *laborRequestRepo) GetByID(ctx context.Context, id string) (*model.LaborRequest, error) {
	var request model.LaborRequest
	err := r.db.WithContext(ctx).
		Preload("Book").
		Where("request_id = ?", id).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *laborRequestRepo) ListOpenCreatedBefore(ctx context.Context, cutoff time.Time) ([]model.LaborRequest, error) {
	var requests []model.LaborRequest
	err := r.db.WithContext(ctx).
		Preload("Book").
		Where("status = ? AND created_at < ?", model.RequestOpen, cutoff).
		Order("created_at ASC").
		Find(&requests).Error
	return requests, err
}

func (r *laborRequestRepo) ListByEmployer(ctx context.Context, employerID string, offset, limit int) ([]model.LaborRequest, int64, error) {
	var requests []model.LaborRequest
	var total int64

	db := r.db.WithContext(ctx).Model(&model.LaborRequest{}).
		Where("employer_id = ?", employerID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, total, err
}

func (r *laborRequestRepo) Update(ctx context.Context, request *model.LaborRequest) error {
	oldVersion := request.Version
	result := r.db.WithContext(ctx).
		Model(request).
		Where("request_id = ? AND version = ?", request.RequestID, oldVersion).
		Updates(map[string]interface{}{
			"workers_filled": request.WorkersFilled,
			"status":         request.Status,
			"filled_at":      request.FilledAt,
			"updated_by":     request.UpdatedBy,
			"version":        oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	request.Version = oldVersion + 1
	return nil
}

package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"hall-dispatch/backend/internal/model"
	pkgerrors "hall-dispatch/backend/pkg/errors"
)

// DispatchRepository 派工数据访问接口
type DispatchRepository interface {
	// Create 落库派工记录
	// "每工人至多一条 active 派工" 由部分唯一索引兜底，
	// 命中唯一冲突时返回 ErrActiveDispatchExists
	Create(ctx context.Context, dispatch *model.Dispatch) error
	GetByID(ctx context.Context, id string) (*model.Dispatch, error)
	GetActiveByWorker(ctx context.Context, workerID string) (*model.Dispatch, error)
	ListActive(ctx context.Context) ([]model.Dispatch, error)
	ListByWorker(ctx context.Context, workerID string, offset, limit int) ([]model.Dispatch, int64, error)
	ListByRequest(ctx context.Context, requestID string) ([]model.Dispatch, error)
	Update(ctx context.Context, dispatch *model.Dispatch) error
}

type dispatchRepo struct {
	db *gorm.DB
}

func NewDispatchRepo(db *gorm.DB) DispatchRepository {
	return &dispatchRepo{db: db}
}

// uniqueViolation 唯一约束冲突（PostgreSQL 错误码 23505）
// 兼容 gorm TranslateError 开关的两种错误形态
func uniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *dispatchRepo) Create(ctx context.Context, dispatch *model.Dispatch) error {
	if err := r.db.WithContext(ctx).Create(dispatch).Error; err != nil {
		if uniqueViolation(err) {
			return pkgerrors.ErrActiveDispatchExists
		}
		return err
	}
	return nil
}

func (r *dispatchRepo) GetByID(ctx context.Context, id string) (*model.Dispatch, error) {
	var dispatch model.Dispatch
	err := r.db.WithContext(ctx).
		Preload("Request").
		Preload("Book").
		Where("dispatch_id = ?", id).
		First(&dispatch).Error
	if err != nil {
		return nil, err
	}
	return &dispatch, nil
}

func (r *dispatchRepo) GetActiveByWorker(ctx context.Context, workerID string) (*model.Dispatch, error) {
	var dispatch model.Dispatch
	err := r.db.WithContext(ctx).
		Where("worker_id = ? AND status = ?", workerID, model.DispatchActive).
		First(&dispatch).Error
	if err != nil {
		return nil, err
	}
	return &dispatch, nil
}

func (r *dispatchRepo) ListActive(ctx context.Context) ([]model.Dispatch, error) {
	var dispatches []model.Dispatch
	err := r.db.WithContext(ctx).
		Preload("Book").
		Where("status = ?", model.DispatchActive).
		Order("dispatched_at ASC").
		Find(&dispatches).Error
	return dispatches, err
}

func (r *dispatchRepo) ListByWorker(ctx context.Context, workerID string, offset, limit int) ([]model.Dispatch, int64, error) {
	var dispatches []model.Dispatch
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Dispatch{}).
		Where("worker_id = ?", workerID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Offset(offset).Limit(limit).
		Order("dispatched_at DESC").
		Find(&dispatches).Error
	return dispatches, total, err
}

func (r *dispatchRepo) ListByRequest(ctx context.Context, requestID string) ([]model.Dispatch, error) {
	var dispatches []model.Dispatch
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("dispatched_at ASC").
		Find(&dispatches).Error
	return dispatches, err
}

func (r *dispatchRepo) Update(ctx context.Context, dispatch *model.Dispatch) error {
	oldVersion := dispatch.Version
	result := r.db.WithContext(ctx).
		Model(dispatch).
		Where("dispatch_id = ? AND version = ?", dispatch.DispatchID, oldVersion).
		Updates(map[string]interface{}{
			"status":        dispatch.Status,
			"dispatch_type": dispatch.DispatchType,
			"completed_at":  dispatch.CompletedAt,
			"updated_by":    dispatch.UpdatedBy,
			"version":       oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	dispatch.Version = oldVersion + 1
	return nil
}

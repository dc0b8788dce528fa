package repository

import (
	"context"

	"gorm.io/gorm"

	"hall-dispatch/backend/internal/model"
	pkgerrors "hall-dispatch/backend/pkg/errors"
)

// BookRegistrationRepository 名册登记数据访问接口
type BookRegistrationRepository interface {
	Create(ctx context.Context, reg *model.BookRegistration) error
	GetByID(ctx context.Context, id string) (*model.BookRegistration, error)
	// GetActive 查询（工人, 名册）上的 active 登记
	GetActive(ctx context.Context, workerID, bookID string) (*model.BookRegistration, error)
	// ListNextInQueue 按优先号升序取名册队首的 count 条 active 登记
	// includeAtLimit=false 时排除记号数达到 checkMarkLimit 的登记
	ListNextInQueue(ctx context.Context, bookID string, count int, includeAtLimit bool, checkMarkLimit int) ([]model.BookRegistration, error)
	ListByWorker(ctx context.Context, workerID string) ([]model.BookRegistration, error)
	// Claim 原子抢占：active → dispatched 的条件更新
	// 登记已被并发派工占用或已不在册时返回 ErrClaimConflict
	Claim(ctx context.Context, reg *model.BookRegistration) error
	// Release 回滚抢占：dispatched → active（派工落库失败时的补偿）
	Release(ctx context.Context, reg *model.BookRegistration) error
	Update(ctx context.Context, reg *model.BookRegistration) error
}

type bookRegistrationRepo struct {
	db *gorm.DB
}

func NewBookRegistrationRepo(db *gorm.DB) BookRegistrationRepository {
	return &bookRegistrationRepo{db: db}
}

func (r *bookRegistrationRepo) Create(ctx context.Context, reg *model.BookRegistration) error {
	return r.db.WithContext(ctx).Create(reg).Error
}

func (r *bookRegistrationRepo) GetByID(ctx context.Context, id string) (*model.BookRegistration, error) {
	var reg model.BookRegistration
	err := r.db.WithContext(ctx).
		Preload("Book").
		Where("registration_id = ?", id).
		First(&reg).Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *bookRegistrationRepo) GetActive(ctx context.Context, workerID, bookID string) (*model.BookRegistration, error) {
	var reg model.BookRegistration
	err := r.db.WithContext(ctx).
		Where("worker_id = ? AND book_id = ? AND status = ?", workerID, bookID, model.RegistrationActive).
		First(&reg).Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *bookRegistrationRepo) ListNextInQueue(ctx context.Context, bookID string, count int, includeAtLimit bool, checkMarkLimit int) ([]model.BookRegistration, error) {
	var regs []model.BookRegistration
	db := r.db.WithContext(ctx).
		Where("book_id = ? AND status = ?", bookID, model.RegistrationActive)
	if !includeAtLimit {
		db = db.Where("check_mark_count < ?", checkMarkLimit)
	}
	// 优先号理论上不会相等，时间戳与工人ID仅作防御性次序键
	err := db.
		Order("priority ASC, registered_at ASC, worker_id ASC").
		Limit(count).
		Find(&regs).Error
	return regs, err
}

func (r *bookRegistrationRepo) ListByWorker(ctx context.Context, workerID string) ([]model.BookRegistration, error) {
	var regs []model.BookRegistration
	err := r.db.WithContext(ctx).
		Preload("Book").
		Where("worker_id = ?", workerID).
		Order("registered_at DESC").
		Find(&regs).Error
	return regs, err
}

func (r *bookRegistrationRepo) Claim(ctx context.Context, reg *model.BookRegistration) error {
	oldVersion := reg.Version
	result := r.db.WithContext(ctx).
		Model(reg).
		Where("registration_id = ? AND status = ? AND version = ?",
			reg.RegistrationID, model.RegistrationActive, oldVersion).
		Updates(map[string]interface{}{
			"status":     model.RegistrationDispatched,
			"updated_by": reg.UpdatedBy,
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrClaimConflict
	}
	reg.Status = model.RegistrationDispatched
	reg.Version = oldVersion + 1
	return nil
}

func (r *bookRegistrationRepo) Release(ctx context.Context, reg *model.BookRegistration) error {
	oldVersion := reg.Version
	result := r.db.WithContext(ctx).
		Model(reg).
		Where("registration_id = ? AND status = ? AND version = ?",
			reg.RegistrationID, model.RegistrationDispatched, oldVersion).
		Updates(map[string]interface{}{
			"status":     model.RegistrationActive,
			"updated_by": reg.UpdatedBy,
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	reg.Status = model.RegistrationActive
	reg.Version = oldVersion + 1
	return nil
}

func (r *bookRegistrationRepo) Update(ctx context.Context, reg *model.BookRegistration) error {
	oldVersion := reg.Version
	result := r.db.WithContext(ctx).
		Model(reg).
		Where("registration_id = ? AND version = ?", reg.RegistrationID, oldVersion).
		Updates(map[string]interface{}{
			"status":           reg.Status,
			"check_mark_count": reg.CheckMarkCount,
			"removed_reason":   reg.RemovedReason,
			"updated_by":       reg.UpdatedBy,
			"version":          oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	reg.Version = oldVersion + 1
	return nil
}

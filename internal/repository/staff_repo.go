package repository

import (
	"context"

	"gorm.io/gorm"

	"hall-dispatch/backend/internal/model"
)

// StaffRepository 调度员账号数据访问接口
type StaffRepository interface {
	GetByID(ctx context.Context, id string) (*model.Staff, error)
	GetByUsername(ctx context.Context, username string) (*model.Staff, error)
}

type staffRepo struct {
	db *gorm.DB
}

func NewStaffRepo(db *gorm.DB) StaffRepository {
	return &staffRepo{db: db}
}

func (r *staffRepo) GetByID(ctx context.Context, id string) (*model.Staff, error) {
	var staff model.Staff
	err := r.db.WithContext(ctx).
		Where("staff_id = ?", id).
		First(&staff).Error
	if err != nil {
		return nil, err
	}
	return &staff, nil
}

func (r *staffRepo) GetByUsername(ctx context.Context, username string) (*model.Staff, error) {
	var staff model.Staff
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		First(&staff).Error
	if err != nil {
		return nil, err
	}
	return &staff, nil
}

package repository

import (
	"context"

	"gorm.io/gorm"

	"hall-dispatch/backend/internal/model"
)

// RegistrationActivityRepository 登记活动日志数据访问接口
// 只增不改：日志是申诉仲裁的审计依据
type RegistrationActivityRepository interface {
	Create(ctx context.Context, activity *model.RegistrationActivity) error
	ListByRegistration(ctx context.Context, registrationID string) ([]model.RegistrationActivity, error)
}

type registrationActivityRepo struct {
	db *gorm.DB
}

func NewRegistrationActivityRepo(db *gorm.DB) RegistrationActivityRepository {
	return &registrationActivityRepo{db: db}
}

func (r *registrationActivityRepo) Create(ctx context.Context, activity *model.RegistrationActivity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *registrationActivityRepo) ListByRegistration(ctx context.Context, registrationID string) ([]model.RegistrationActivity, error) {
	var activities []model.RegistrationActivity
	err := r.db.WithContext(ctx).
		Where("registration_id = ?", registrationID).
		Order("occurred_at ASC").
		Find(&activities).Error
	return activities, err
}

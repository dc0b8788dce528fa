package repository

import (
	"context"

	"gorm.io/gorm"

	"hall-dispatch/backend/internal/model"
	pkgerrors "hall-dispatch/backend/pkg/errors"
)

// ReferralBookRepository 名册数据访问接口
type ReferralBookRepository interface {
	Create(ctx context.Context, book *model.ReferralBook) error
	GetByID(ctx context.Context, id string) (*model.ReferralBook, error)
	List(ctx context.Context) ([]model.ReferralBook, error)
	// ListByProcessingOrder 按晨派处理顺序返回全部名册（时段 → 组内序号 → 名称）
	ListByProcessingOrder(ctx context.Context) ([]model.ReferralBook, error)
	Update(ctx context.Context, book *model.ReferralBook) error
}

type referralBookRepo struct {
	db *gorm.DB
}

func NewReferralBookRepo(db *gorm.DB) ReferralBookRepository {
	return &referralBookRepo{db: db}
}

func (r *referralBookRepo) Create(ctx context.Context, book *model.ReferralBook) error {
	return r.db.WithContext(ctx).Create(book).Error
}

func (r *referralBookRepo) GetByID(ctx context.Context, id string) (*model.ReferralBook, error) {
	var book model.ReferralBook
	err := r.db.WithContext(ctx).
		Where("book_id = ?", id).
		First(&book).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *referralBookRepo) List(ctx context.Context) ([]model.ReferralBook, error) {
	var books []model.ReferralBook
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&books).Error
	return books, err
}

func (r *referralBookRepo) ListByProcessingOrder(ctx context.Context) ([]model.ReferralBook, error) {
	var books []model.ReferralBook
	err := r.db.WithContext(ctx).
		Order("processing_slot ASC, processing_rank ASC, name ASC").
		Find(&books).Error
	return books, err
}

func (r *referralBookRepo) Update(ctx context.Context, book *model.ReferralBook) error {
	oldVersion := book.Version
	result := r.db.WithContext(ctx).
		Model(book).
		Where("book_id = ? AND version = ?", book.BookID, oldVersion).
		Updates(map[string]interface{}{
			"name":            book.Name,
			"contract_code":   book.ContractCode,
			"processing_slot": book.ProcessingSlot,
			"processing_rank": book.ProcessingRank,
			"updated_by":      book.UpdatedBy,
			"version":         oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	book.Version = oldVersion + 1
	return nil
}

package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// APNSequenceRepository 优先号当日顺序计数器数据访问接口
type APNSequenceRepository interface {
	// Next 原子分配（名册, 日期）的下一个顺序号，从 0 开始
	// 单条 upsert 语句完成，并发同日登记不会拿到重复序号
	Next(ctx context.Context, bookID string, date time.Time) (int, error)
}

type apnSequenceRepo struct {
	db *gorm.DB
}

func NewAPNSequenceRepo(db *gorm.DB) APNSequenceRepository {
	return &apnSequenceRepo{db: db}
}

func (r *apnSequenceRepo) Next(ctx context.Context, bookID string, date time.Time) (int, error) {
	var seq int
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO apn_sequences (book_id, seq_date, last_seq)
		VALUES (?, ?, 0)
		ON CONFLICT (book_id, seq_date)
		DO UPDATE SET last_seq = apn_sequences.last_seq + 1
		RETURNING last_seq`,
		bookID, date.Format("2006-01-02"),
	).Scan(&seq).Error
	if err != nil {
		return 0, err
	}
	return seq, nil
}

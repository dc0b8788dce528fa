package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"hall-dispatch/backend/internal/model"
	"hall-dispatch/backend/internal/repository"
)

// ── 优先号台账 ──
//
// 优先号是名册排队的唯一排序键：整数部分为登记日的序列日号
// （1899-12-30 起算的天数），小数两位为当日顺序号 00-99。
// 同一（名册, 日期）内顺序号由数据库计数器原子分配，
// 并发登记不经过读-改-写，不会产生重号。

var (
	ErrDateBeforeEpoch        = errors.New("登记日期早于序列日号起算日")
	ErrDailySequenceExhausted = errors.New("当日登记顺序号已用尽（上限100），请联系管理员人工处理")
)

// apnEpoch 序列日号起算日
var apnEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// maxDailySequence 单名册单日登记上限
const maxDailySequence = 100

// serialDayNumber 计算 at 所在日期的序列日号
func serialDayNumber(at time.Time) int64 {
	y, m, d := at.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return int64(day.Sub(apnEpoch).Hours() / 24)
}

// PriorityLedger 优先号分配器
type PriorityLedger struct {
	seq    repository.APNSequenceRepository
	logger *zap.Logger
}

// NewPriorityLedger 创建 PriorityLedger 实例
func NewPriorityLedger(seq repository.APNSequenceRepository, logger *zap.Logger) *PriorityLedger {
	return &PriorityLedger{seq: seq, logger: logger}
}

// Assign 为（名册, 登记时刻）分配下一个优先号
// 分配即占用：即便后续登记落库失败，号码也不回收、不复用
func (l *PriorityLedger) Assign(ctx context.Context, bookID string, at time.Time) (model.APN, error) {
	day := serialDayNumber(at)
	if day < 0 {
		return model.APN{}, ErrDateBeforeEpoch
	}

	seq, err := l.seq.Next(ctx, bookID, at)
	if err != nil {
		l.logger.Error("分配当日顺序号失败", zap.String("book_id", bookID), zap.Error(err))
		return model.APN{}, err
	}
	if seq >= maxDailySequence {
		return model.APN{}, ErrDailySequenceExhausted
	}

	return model.NewAPN(day, seq), nil
}


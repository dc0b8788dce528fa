package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrClaimConflict 抢占冲突：候选登记已被并发派工占用
var ErrClaimConflict = errors.New("登记已被其他派工操作占用")

// ErrActiveDispatchExists 工人已有在岗派工（部分唯一索引兜底）
var ErrActiveDispatchExists = errors.New("该工人已有在岗派工")

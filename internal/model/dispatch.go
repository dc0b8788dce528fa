package model

import "time"

// DispatchType 派工类型
type DispatchType string

const (
	DispatchRegular   DispatchType = "regular"
	DispatchShortCall DispatchType = "short_call" // 工期上限 10 个工作日，除非显式转正
	DispatchByName    DispatchType = "by_name"    // 点名派工：绕过排队顺序
)

// Valid 是否为已知派工类型
func (t DispatchType) Valid() bool {
	switch t {
	case DispatchRegular, DispatchShortCall, DispatchByName:
		return true
	}
	return false
}

// DispatchStatus 派工状态（封闭枚举）
// active 为唯一初始态，其余均为终态
type DispatchStatus string

const (
	DispatchActive     DispatchStatus = "active"
	DispatchCompleted  DispatchStatus = "completed"
	DispatchQuit       DispatchStatus = "quit"
	DispatchDischarged DispatchStatus = "discharged"
	DispatchLaidOff    DispatchStatus = "laid_off"
)

// dispatchTransitions 派工状态流转表
var dispatchTransitions = map[DispatchStatus][]DispatchStatus{
	DispatchActive:     {DispatchCompleted, DispatchQuit, DispatchDischarged, DispatchLaidOff},
	DispatchCompleted:  {},
	DispatchQuit:       {},
	DispatchDischarged: {},
	DispatchLaidOff:    {},
}

// Valid 是否为已知状态
func (s DispatchStatus) Valid() bool {
	_, ok := dispatchTransitions[s]
	return ok
}

// Terminal 是否为终态
func (s DispatchStatus) Terminal() bool {
	ts, ok := dispatchTransitions[s]
	return ok && len(ts) == 0
}

// CanTransitionTo 是否允许流转到目标状态
func (s DispatchStatus) CanTransitionTo(to DispatchStatus) bool {
	for _, t := range dispatchTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// Dispatch 派工表 — 对应 dispatches
// 撮合结果实体。BidID 为可空软关联：派工不必经由投标产生，
// 不能用强制外键把派工绑死在投标路径上。
type Dispatch struct {
	DispatchID   string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"dispatch_id"`
	WorkerID     string         `gorm:"type:uuid;not null"                             json:"worker_id"`
	RequestID    string         `gorm:"type:uuid;not null"                             json:"request_id"`
	BidID        *string        `gorm:"type:uuid"                                      json:"bid_id,omitempty"`
	BookID       string         `gorm:"type:uuid;not null"                             json:"book_id"`
	EmployerID   string         `gorm:"type:uuid;not null"                             json:"employer_id"`
	DispatchType DispatchType   `gorm:"type:varchar(20);not null;default:'regular'"    json:"dispatch_type"`
	Status       DispatchStatus `gorm:"type:varchar(20);not null;default:'active'"     json:"status"`
	DispatchedAt time.Time      `gorm:"not null"                                       json:"dispatched_at"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	VersionedModel

	// 关联
	Request *LaborRequest `gorm:"foreignKey:RequestID;references:RequestID" json:"request,omitempty"`
	Book    *ReferralBook `gorm:"foreignKey:BookID;references:BookID"       json:"book,omitempty"`
}

// TableName 指定表名
func (Dispatch) TableName() string { return "dispatches" }

// [自证通过] internal/model/dispatch.go

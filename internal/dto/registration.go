package dto

// ── 名册登记模块 DTO ──

// RegisterRequest 登记入册请求
// at_time 缺省时取服务器当前时间；显式传入用于窗口补录
type RegisterRequest struct {
	WorkerID string  `json:"worker_id" binding:"required,uuid"`
	BookID   string  `json:"book_id"   binding:"required,uuid"`
	AtTime   *string `json:"at_time"   binding:"omitempty"` // RFC3339
}

// RemoveRegistrationRequest 除名请求
type RemoveRegistrationRequest struct {
	Reason string `json:"reason" binding:"required,min=2,max=200"`
}

// QueueQueryRequest 队列查询参数
type QueueQueryRequest struct {
	BookID         string `form:"book_id"          binding:"required,uuid"`
	Count          int    `form:"count"            binding:"omitempty,min=1,max=200"`
	IncludeAtLimit bool   `form:"include_at_limit"`
}

// RegistrationResponse 登记响应
type RegistrationResponse struct {
	ID             string     `json:"id"`
	WorkerID       string     `json:"worker_id"`
	Book           *BookBrief `json:"book,omitempty"`
	Priority       string     `json:"priority"` // 定点两位小数文本
	RegisteredAt   string     `json:"registered_at"`
	Status         string     `json:"status"`
	CheckMarkCount int        `json:"check_mark_count"`
	AtLimit        bool       `json:"at_limit"`
	RemovedReason  *string    `json:"removed_reason,omitempty"`
}

// CheckMarkResponse 记号响应
type CheckMarkResponse struct {
	RegistrationID string `json:"registration_id"`
	CheckMarkCount int    `json:"check_mark_count"`
	AtLimit        bool   `json:"at_limit"`
}

// ActivityResponse 登记活动日志响应
type ActivityResponse struct {
	ID           string `json:"id"`
	ActivityType string `json:"activity_type"`
	Detail       string `json:"detail,omitempty"`
	OccurredAt   string `json:"occurred_at"`
}

package dto

// ── 用工申请模块 DTO ──

// SubmitLaborRequest 提交用工申请
// idempotency_key 由调用方自定；重放时返回首次创建的申请单
type SubmitLaborRequest struct {
	EmployerID       string   `json:"employer_id"       binding:"required,uuid"`
	BookID           string   `json:"book_id"           binding:"required,uuid"`
	WorkersRequested int      `json:"workers_requested" binding:"required,min=1"`
	IsShortCall      bool     `json:"is_short_call"`
	IsByName         bool     `json:"is_by_name"`
	AgreementType    *string  `json:"agreement_type"    binding:"omitempty,max=50"`
	NamedWorkerIDs   []string `json:"named_worker_ids"  binding:"omitempty,dive,uuid"` // 点名申请必填
	IdempotencyKey   string   `json:"idempotency_key"   binding:"omitempty,max=100"`
}

// CancelLaborRequest 取消用工申请
type CancelLaborRequest struct {
	Reason string `json:"reason" binding:"required,min=2,max=200"`
}

// LaborRequestResponse 用工申请响应
type LaborRequestResponse struct {
	ID               string     `json:"id"`
	EmployerID       string     `json:"employer_id"`
	Book             *BookBrief `json:"book,omitempty"`
	WorkersRequested int        `json:"workers_requested"`
	WorkersFilled    int        `json:"workers_filled"`
	Status           string     `json:"status"`
	IsShortCall      bool       `json:"is_short_call"`
	IsByName         bool       `json:"is_by_name"`
	AgreementType    *string    `json:"agreement_type,omitempty"`
	NamedWorkerIDs   []string   `json:"named_worker_ids,omitempty"`
	CreatedAt        string     `json:"created_at"`
	FilledAt         *string    `json:"filled_at,omitempty"`
}

// ── 投标 DTO ──

// SubmitBidRequest 网上投标请求
type SubmitBidRequest struct {
	WorkerID  string `json:"worker_id"  binding:"required,uuid"`
	RequestID string `json:"request_id" binding:"required,uuid"`
}

// BidResponse 投标响应
type BidResponse struct {
	ID          string `json:"id"`
	WorkerID    string `json:"worker_id"`
	RequestID   string `json:"request_id"`
	SubmittedAt string `json:"submitted_at"`
}

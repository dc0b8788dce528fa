package dto

// ── 派工模块 DTO ──

// CompleteDispatchRequest 记录派工结果
// outcome: completed | quit | discharged | laid_off
type CompleteDispatchRequest struct {
	Outcome string `json:"outcome" binding:"required,oneof=completed quit discharged laid_off"`
}

// DispatchResponse 派工响应
type DispatchResponse struct {
	ID           string     `json:"id"`
	WorkerID     string     `json:"worker_id"`
	RequestID    string     `json:"request_id"`
	BidID        *string    `json:"bid_id,omitempty"`
	Book         *BookBrief `json:"book,omitempty"`
	EmployerID   string     `json:"employer_id"`
	DispatchType string     `json:"dispatch_type"`
	Status       string     `json:"status"`
	DispatchedAt string     `json:"dispatched_at"`
	CompletedAt  *string    `json:"completed_at,omitempty"`
	// 在岗日历天数（终结派工截至终结日）
	DaysOnJob int `json:"days_on_job"`
	// 短工派工附带剩余工作日（as_of 当前时间，下限为 0）
	ShortCallDaysRemaining *int `json:"short_call_days_remaining,omitempty"`
}

// MatchResultResponse 撮合结果响应
type MatchResultResponse struct {
	Request    LaborRequestResponse `json:"request"`
	Dispatches []DispatchResponse   `json:"dispatches"`
}

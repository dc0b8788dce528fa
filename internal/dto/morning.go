package dto

// ── 晨派处理模块 DTO ──

// MorningQueueQuery 晨派队列查询参数
// target_date 缺省为今天（YYYY-MM-DD）
// candidate_count 缺省按各申请尚缺人数展示候选
type MorningQueueQuery struct {
	TargetDate     string `form:"target_date"     binding:"omitempty,datetime=2006-01-02"`
	CandidateCount int    `form:"candidate_count" binding:"omitempty,min=1,max=50"`
}

// MorningCandidate 候选工人条目（按优先号升序）
type MorningCandidate struct {
	RegistrationID string `json:"registration_id"`
	WorkerID       string `json:"worker_id"`
	Priority       string `json:"priority"`
	CheckMarkCount int    `json:"check_mark_count"`
	AtLimit        bool   `json:"at_limit"`
	HasWebBid      bool   `json:"has_web_bid"` // 投标窗口内提交过投标
}

// MorningRequestEntry 待处理申请条目
type MorningRequestEntry struct {
	Request    LaborRequestResponse `json:"request"`
	Remaining  int                  `json:"remaining"`
	Candidates []MorningCandidate   `json:"candidates"`
}

// MorningBookGroup 名册分组（组内按名册处理序号排列）
type MorningBookGroup struct {
	Book     BookBrief             `json:"book"`
	Requests []MorningRequestEntry `json:"requests"`
}

// MorningSlotGroup 时段分组
type MorningSlotGroup struct {
	Slot  int                `json:"slot"`
	Books []MorningBookGroup `json:"books"`
}

// MorningQueueResponse 晨派处理队列快照
type MorningQueueResponse struct {
	TargetDate string             `json:"target_date"`
	Cutoff     string             `json:"cutoff"` // 截单时刻（上一工作日 15:00）
	Groups     []MorningSlotGroup `json:"groups"`
}

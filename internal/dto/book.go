package dto

// ── 名册模块 DTO ──

// CreateBookRequest 创建名册请求
type CreateBookRequest struct {
	Name           string  `json:"name"            binding:"required,min=1,max=100"`
	ContractCode   *string `json:"contract_code"   binding:"omitempty,max=50"`
	ProcessingSlot int     `json:"processing_slot" binding:"omitempty,min=1"`
	ProcessingRank int     `json:"processing_rank" binding:"omitempty,min=0"`
}

// UpdateBookRequest 更新名册请求（含晨派处理顺序配置）
type UpdateBookRequest struct {
	Name           *string `json:"name"            binding:"omitempty,min=1,max=100"`
	ContractCode   *string `json:"contract_code"   binding:"omitempty,max=50"`
	ProcessingSlot *int    `json:"processing_slot" binding:"omitempty,min=1"`
	ProcessingRank *int    `json:"processing_rank" binding:"omitempty,min=0"`
}

// BookResponse 名册响应
type BookResponse struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	ContractCode   *string `json:"contract_code,omitempty"`
	ProcessingSlot int     `json:"processing_slot"`
	ProcessingRank int     `json:"processing_rank"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

// BookBrief 名册简要信息
type BookBrief struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	ContractCode *string `json:"contract_code,omitempty"`
}

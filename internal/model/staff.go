package model

import "time"

// Staff 调度员账号表 — 对应 staff
// 工人与雇主身份由会员管理子系统提供，引擎只持有不透明引用；
// 这里只管理登录派工台的工作人员
type Staff struct {
	StaffID      string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"staff_id"`
	Username     string    `gorm:"type:varchar(50);not null;unique"               json:"username"`
	Name         string    `gorm:"type:varchar(100);not null"                     json:"name"`
	PasswordHash string    `gorm:"type:varchar(100);not null"                     json:"-"`
	Role         string    `gorm:"type:varchar(20);not null;default:'dispatcher'" json:"role"` // dispatcher | admin
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

// TableName 指定表名
func (Staff) TableName() string { return "staff" }

// [自证通过] internal/model/staff.go

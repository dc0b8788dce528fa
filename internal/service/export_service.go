package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"hall-dispatch/backend/internal/dto"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoRequests   = errors.New("目标日无待处理用工申请")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 晨派单导出为 Excel (.xlsx)，供调度员打印后在窗口叫号使用
//   - 数据来源即晨派处理队列快照，不单独查库
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportMorningSheet 导出目标日的晨派单
	ExportMorningSheet(ctx context.Context, req *dto.MorningQueueQuery) (*bytes.Buffer, string, error)
}

type exportService struct {
	morning MorningService
	logger  *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(morning MorningService, logger *zap.Logger) ExportService {
	return &exportService{morning: morning, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportMorningSheet — 导出晨派单
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 单 Sheet "晨派单"
//   - 每个候选一行；同申请的首行带申请信息，其余行留白
//   - 列: 时段 | 名册 | 申请单号 | 类型 | 需求 | 尚缺 | 候选工人 | 优先号 | 记号 | 窗口投标

func (s *exportService) ExportMorningSheet(ctx context.Context, req *dto.MorningQueueQuery) (*bytes.Buffer, string, error) {
	queue, err := s.morning.BuildProcessingQueue(ctx, req)
	if err != nil {
		return nil, "", err
	}
	if len(queue.Groups) == 0 {
		return nil, "", ErrExportNoRequests
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "晨派单"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	// 列宽
	widths := []float64{8, 16, 38, 10, 8, 8, 38, 12, 8, 10}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, w)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("晨派单 — %s（截单 %s）", queue.TargetDate, queue.Cutoff))
	f.MergeCell(sheetName, "A1", "J1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	headers := []string{"时段", "名册", "申请单号", "类型", "需求", "尚缺", "候选工人", "优先号", "记号", "窗口投标"}
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetCellValue(sheetName, cell(col, 2), h)
	}

	row := 3
	for _, slotGroup := range queue.Groups {
		for _, bookGroup := range slotGroup.Books {
			for _, entry := range bookGroup.Requests {
				request := entry.Request
				f.SetCellValue(sheetName, cell("A", row), slotGroup.Slot)
				f.SetCellValue(sheetName, cell("B", row), bookGroup.Book.Name)
				f.SetCellValue(sheetName, cell("C", row), request.ID)
				f.SetCellValue(sheetName, cell("D", row), requestTypeText(request))
				f.SetCellValue(sheetName, cell("E", row), request.WorkersRequested)
				f.SetCellValue(sheetName, cell("F", row), entry.Remaining)

				if len(entry.Candidates) == 0 {
					f.SetCellValue(sheetName, cell("G", row), "（队列无候选）")
					row++
					continue
				}

				for i, c := range entry.Candidates {
					// 同申请的后续候选行不重复申请信息
					if i > 0 {
						f.SetCellValue(sheetName, cell("A", row), "")
					}
					f.SetCellValue(sheetName, cell("G", row), c.WorkerID)
					f.SetCellValue(sheetName, cell("H", row), c.Priority)
					f.SetCellValue(sheetName, cell("I", row), checkMarkText(c))
					f.SetCellValue(sheetName, cell("J", row), boolText(c.HasWebBid))
					row++
				}
			}
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("晨派单_%s.xlsx", queue.TargetDate)
	return buf, filename, nil
}

// ── 辅助函数 ──

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func requestTypeText(r dto.LaborRequestResponse) string {
	switch {
	case r.IsByName:
		return "点名"
	case r.IsShortCall:
		return "短工"
	default:
		return "普通"
	}
}

func checkMarkText(c dto.MorningCandidate) string {
	if c.AtLimit {
		return fmt.Sprintf("%d ⚠", c.CheckMarkCount)
	}
	return fmt.Sprintf("%d", c.CheckMarkCount)
}

func boolText(b bool) string {
	if b {
		return "是"
	}
	return "否"
}


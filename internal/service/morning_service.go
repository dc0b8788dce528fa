package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"hall-dispatch/backend/config"
	"hall-dispatch/backend/internal/dto"
	"hall-dispatch/backend/internal/model"
	"hall-dispatch/backend/internal/repository"
)

// ── 晨派处理模块 ──
//
// 每个工作日早晨，调度员按固定顺序处理截单前收到的用工申请：
// 先按名册配置的时段分组，组内按名册处理序号排列。
// 截单时刻为目标日上一工作日的 15:00（可配置）——
// 周一处理上周五 15:00 前的单，跨周末不顺延截单点。

var ErrInvalidTargetDate = errors.New("目标日期格式无效，应为 YYYY-MM-DD")

// MorningService 晨派处理业务接口
type MorningService interface {
	// BuildProcessingQueue 构建晨派处理队列快照（只读投影，不产生派工）
	BuildProcessingQueue(ctx context.Context, req *dto.MorningQueueQuery) (*dto.MorningQueueResponse, error)
}

type morningService struct {
	cfg    *config.Config
	repo   *repository.Repository
	logger *zap.Logger
}

// NewMorningService 创建 MorningService 实例
func NewMorningService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) MorningService {
	return &morningService{cfg: cfg, repo: repo, logger: logger}
}

// cutoffFor 计算目标派工日的截单时刻
func cutoffFor(targetDate time.Time, hour, minute int) time.Time {
	prev := previousWorkingDay(targetDate)
	return time.Date(prev.Year(), prev.Month(), prev.Day(), hour, minute, 0, 0, targetDate.Location())
}

// webBidWindow 计算目标派工日的网上投标窗口 [前一日开窗, 当日关窗)
func webBidWindow(targetDate time.Time, openHHMM, closeHHMM string) (time.Time, time.Time) {
	openAt, _ := time.Parse("15:04", openHHMM)
	closeAt, _ := time.Parse("15:04", closeHHMM)
	d := dateOf(targetDate)
	from := d.AddDate(0, 0, -1).
		Add(time.Duration(openAt.Hour())*time.Hour + time.Duration(openAt.Minute())*time.Minute)
	to := d.
		Add(time.Duration(closeAt.Hour())*time.Hour + time.Duration(closeAt.Minute())*time.Minute)
	return from, to
}

func (s *morningService) BuildProcessingQueue(ctx context.Context, req *dto.MorningQueueQuery) (*dto.MorningQueueResponse, error) {
	targetDate := dateOf(time.Now())
	if req.TargetDate != "" {
		parsed, err := time.ParseInLocation("2006-01-02", req.TargetDate, time.Local)
		if err != nil {
			return nil, ErrInvalidTargetDate
		}
		targetDate = parsed
	}
	cutoff := cutoffFor(targetDate, s.cfg.Dispatch.CutoffHour, s.cfg.Dispatch.CutoffMinute)
	bidFrom, bidTo := webBidWindow(targetDate, s.cfg.Dispatch.WebBidOpen, s.cfg.Dispatch.WebBidClose)

	// 1. 截单前收到、仍在受理的申请
	requests, err := s.repo.Request.ListOpenCreatedBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("查询待处理申请失败", zap.Error(err))
		return nil, err
	}

	byBook := make(map[string][]model.LaborRequest)
	for _, r := range requests {
		byBook[r.BookID] = append(byBook[r.BookID], r)
	}

	// 2. 名册按处理顺序排列
	books, err := s.repo.Book.ListByProcessingOrder(ctx)
	if err != nil {
		s.logger.Error("查询名册处理顺序失败", zap.Error(err))
		return nil, err
	}

	// 3. 按时段 → 名册 → 申请组装快照
	resp := &dto.MorningQueueResponse{
		TargetDate: targetDate.Format("2006-01-02"),
		Cutoff:     cutoff.Format("2006-01-02T15:04:05Z07:00"),
		Groups:     []dto.MorningSlotGroup{},
	}

	var current *dto.MorningSlotGroup
	for i := range books {
		book := &books[i]
		bookRequests := byBook[book.BookID]
		if len(bookRequests) == 0 {
			continue
		}

		if current == nil || current.Slot != book.ProcessingSlot {
			resp.Groups = append(resp.Groups, dto.MorningSlotGroup{Slot: book.ProcessingSlot})
			current = &resp.Groups[len(resp.Groups)-1]
		}

		group := dto.MorningBookGroup{
			Book:     *toBookBrief(book),
			Requests: make([]dto.MorningRequestEntry, 0, len(bookRequests)),
		}
		for j := range bookRequests {
			request := &bookRequests[j]
			// 候选数默认取该申请尚缺人数，查询可显式放宽
			count := request.Remaining()
			if req.CandidateCount > 0 {
				count = req.CandidateCount
			}
			candidates, err := s.buildCandidates(ctx, request, count, bidFrom, bidTo)
			if err != nil {
				return nil, err
			}
			group.Requests = append(group.Requests, dto.MorningRequestEntry{
				Request:    toLaborRequestResponse(request),
				Remaining:  request.Remaining(),
				Candidates: candidates,
			})
		}
		current.Books = append(current.Books, group)
	}

	return resp, nil
}

// buildCandidates 为申请组装队首候选，标注记号上限与窗口内投标
// 达到记号上限的候选仍然展示（只标记，除名是另一个显式动作）
func (s *morningService) buildCandidates(ctx context.Context, request *model.LaborRequest, count int, bidFrom, bidTo time.Time) ([]dto.MorningCandidate, error) {
	regs, err := s.repo.Registration.ListNextInQueue(ctx, request.BookID, count,
		true, s.cfg.Dispatch.CheckMarkLimit)
	if err != nil {
		s.logger.Error("查询候选队列失败", zap.Error(err))
		return nil, err
	}

	candidates := make([]dto.MorningCandidate, 0, len(regs))
	for i := range regs {
		reg := &regs[i]
		hasBid, err := s.repo.Bid.ExistsInWindow(ctx, reg.WorkerID, request.RequestID, bidFrom, bidTo)
		if err != nil {
			s.logger.Warn("查询窗口内投标失败",
				zap.String("worker_id", reg.WorkerID),
				zap.String("request_id", request.RequestID),
				zap.Error(err),
			)
		}
		candidates = append(candidates, dto.MorningCandidate{
			RegistrationID: reg.RegistrationID,
			WorkerID:       reg.WorkerID,
			Priority:       reg.Priority.String(),
			CheckMarkCount: reg.CheckMarkCount,
			AtLimit:        reg.AtCheckMarkLimit(s.cfg.Dispatch.CheckMarkLimit),
			HasWebBid:      hasBid,
		})
	}
	return candidates, nil
}


package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"hall-dispatch/backend/config"
	"hall-dispatch/backend/internal/dto"
	"hall-dispatch/backend/internal/model"
	"hall-dispatch/backend/internal/repository"
)

// ── 派工模块业务错误 ──

var (
	ErrDispatchNotFound     = errors.New("派工记录不存在")
	ErrDispatchTerminal     = errors.New("派工已终结，不可再变更")
	ErrInvalidOutcome       = errors.New("无效的派工结果")
	ErrDispatchNotShortCall = errors.New("非短工派工，不可转正")
	ErrNoActiveDispatch     = errors.New("该工人当前无在岗派工")
)

// DispatchService 派工生命周期业务接口
type DispatchService interface {
	Get(ctx context.Context, dispatchID string) (*dto.DispatchResponse, error)
	GetActiveByWorker(ctx context.Context, workerID string) (*dto.DispatchResponse, error)
	ListActive(ctx context.Context) ([]dto.DispatchResponse, error)
	ListByWorker(ctx context.Context, workerID string, page *dto.PaginationRequest) ([]dto.DispatchResponse, int64, error)
	// 记录派工结果并处理登记回流
	Complete(ctx context.Context, dispatchID string, req *dto.CompleteDispatchRequest, callerID string) (*dto.DispatchResponse, error)
	// 短工转正：显式解除工期上限
	ConvertShortCall(ctx context.Context, dispatchID, callerID string) (*dto.DispatchResponse, error)
}

type dispatchService struct {
	cfg    *config.Config
	repo   *repository.Repository
	logger *zap.Logger
}

// NewDispatchService 创建 DispatchService 实例
func NewDispatchService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) DispatchService {
	return &dispatchService{cfg: cfg, repo: repo, logger: logger}
}

// ════════════════════════════════════════════════════════════
// 查询
// ════════════════════════════════════════════════════════════

func (s *dispatchService) Get(ctx context.Context, dispatchID string) (*dto.DispatchResponse, error) {
	dispatch, err := s.getDispatch(ctx, dispatchID)
	if err != nil {
		return nil, err
	}
	resp := toDispatchResponse(dispatch, s.cfg.Dispatch.ShortCallBusinessDays, time.Now())
	return &resp, nil
}

func (s *dispatchService) GetActiveByWorker(ctx context.Context, workerID string) (*dto.DispatchResponse, error) {
	dispatch, err := s.repo.Dispatch.GetActiveByWorker(ctx, workerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveDispatch
		}
		s.logger.Error("查询在岗派工失败", zap.Error(err))
		return nil, err
	}
	resp := toDispatchResponse(dispatch, s.cfg.Dispatch.ShortCallBusinessDays, time.Now())
	return &resp, nil
}

func (s *dispatchService) ListActive(ctx context.Context) ([]dto.DispatchResponse, error) {
	dispatches, err := s.repo.Dispatch.ListActive(ctx)
	if err != nil {
		s.logger.Error("查询在岗派工列表失败", zap.Error(err))
		return nil, err
	}
	now := time.Now()
	result := make([]dto.DispatchResponse, 0, len(dispatches))
	for i := range dispatches {
		result = append(result, toDispatchResponse(&dispatches[i], s.cfg.Dispatch.ShortCallBusinessDays, now))
	}
	return result, nil
}

func (s *dispatchService) ListByWorker(ctx context.Context, workerID string, page *dto.PaginationRequest) ([]dto.DispatchResponse, int64, error) {
	dispatches, total, err := s.repo.Dispatch.ListByWorker(ctx, workerID, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("查询工人派工历史失败", zap.Error(err))
		return nil, 0, err
	}
	now := time.Now()
	result := make([]dto.DispatchResponse, 0, len(dispatches))
	for i := range dispatches {
		result = append(result, toDispatchResponse(&dispatches[i], s.cfg.Dispatch.ShortCallBusinessDays, now))
	}
	return result, total, nil
}

// ════════════════════════════════════════════════════════════
// Complete — 记录派工结果
// ════════════════════════════════════════════════════════════

func (s *dispatchService) Complete(ctx context.Context, dispatchID string, req *dto.CompleteDispatchRequest, callerID string) (*dto.DispatchResponse, error) {
	dispatch, err := s.getDispatch(ctx, dispatchID)
	if err != nil {
		return nil, err
	}

	target := model.DispatchStatus(req.Outcome)
	if !target.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidOutcome, req.Outcome)
	}
	if dispatch.Status.Terminal() {
		return nil, fmt.Errorf("%w（当前状态 %s）", ErrDispatchTerminal, dispatch.Status)
	}
	if !dispatch.Status.CanTransitionTo(target) {
		return nil, fmt.Errorf("%w: %s → %s", ErrInvalidOutcome, dispatch.Status, target)
	}

	now := time.Now()
	dispatch.Status = target
	dispatch.CompletedAt = &now
	dispatch.UpdatedBy = &callerID
	if err := s.repo.Dispatch.Update(ctx, dispatch); err != nil {
		s.logger.Error("记录派工结果失败", zap.Error(err))
		return nil, err
	}

	// 登记回流：默认派出即离册，结束后需重新登记拿新优先号；
	// 开启 requeue_on_completion 时保留原优先号回到名册
	s.settleRegistration(ctx, dispatch, target, now, callerID)

	s.logger.Info("派工已终结",
		zap.String("dispatch_id", dispatch.DispatchID),
		zap.String("worker_id", dispatch.WorkerID),
		zap.String("outcome", string(target)),
	)

	resp := toDispatchResponse(dispatch, s.cfg.Dispatch.ShortCallBusinessDays, now)
	return &resp, nil
}

// settleRegistration 派工终结后处理对应登记
// 登记处理失败不回滚派工结果，告警留人工处理
func (s *dispatchService) settleRegistration(ctx context.Context, dispatch *model.Dispatch, outcome model.DispatchStatus, at time.Time, callerID string) {
	reg, err := s.findDispatchedRegistration(ctx, dispatch.WorkerID, dispatch.BookID)
	if err != nil {
		s.logger.Warn("查找派出登记失败",
			zap.String("dispatch_id", dispatch.DispatchID),
			zap.Error(err),
		)
		return
	}
	if reg == nil {
		return
	}
	reg.UpdatedBy = &callerID

	if s.cfg.Dispatch.RequeueOnCompletion {
		if err := s.repo.Registration.Release(ctx, reg); err != nil {
			s.logger.Warn("登记回册失败", zap.String("registration_id", reg.RegistrationID), zap.Error(err))
			return
		}
		s.recordActivity(ctx, reg.RegistrationID, model.ActivityReturned,
			fmt.Sprintf("派工结束（%s），保留优先号 %s 回册", outcome, reg.Priority.String()), at, callerID)
		return
	}

	reason := fmt.Sprintf("派工结束（%s），需重新登记", outcome)
	reg.Status = model.RegistrationRemoved
	reg.RemovedReason = &reason
	if err := s.repo.Registration.Update(ctx, reg); err != nil {
		s.logger.Warn("登记离册失败", zap.String("registration_id", reg.RegistrationID), zap.Error(err))
		return
	}
	s.recordActivity(ctx, reg.RegistrationID, model.ActivityRemoved, reason, at, callerID)
}

// findDispatchedRegistration 查找工人在名册上处于已派出状态的登记
func (s *dispatchService) findDispatchedRegistration(ctx context.Context, workerID, bookID string) (*model.BookRegistration, error) {
	regs, err := s.repo.Registration.ListByWorker(ctx, workerID)
	if err != nil {
		return nil, err
	}
	for i := range regs {
		if regs[i].BookID == bookID && regs[i].Status == model.RegistrationDispatched {
			return &regs[i], nil
		}
	}
	return nil, nil
}

// ════════════════════════════════════════════════════════════
// ConvertShortCall — 短工转正
// ════════════════════════════════════════════════════════════

func (s *dispatchService) ConvertShortCall(ctx context.Context, dispatchID, callerID string) (*dto.DispatchResponse, error) {
	dispatch, err := s.getDispatch(ctx, dispatchID)
	if err != nil {
		return nil, err
	}
	if dispatch.Status.Terminal() {
		return nil, fmt.Errorf("%w（当前状态 %s）", ErrDispatchTerminal, dispatch.Status)
	}
	if dispatch.DispatchType != model.DispatchShortCall {
		return nil, ErrDispatchNotShortCall
	}

	dispatch.DispatchType = model.DispatchRegular
	dispatch.UpdatedBy = &callerID
	if err := s.repo.Dispatch.Update(ctx, dispatch); err != nil {
		s.logger.Error("短工转正失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("短工转正",
		zap.String("dispatch_id", dispatch.DispatchID),
		zap.String("worker_id", dispatch.WorkerID),
	)

	resp := toDispatchResponse(dispatch, s.cfg.Dispatch.ShortCallBusinessDays, time.Now())
	return &resp, nil
}

// ════════════════════════════════════════════════════════════
// 内部辅助方法
// ════════════════════════════════════════════════════════════

func (s *dispatchService) getDispatch(ctx context.Context, dispatchID string) (*model.Dispatch, error) {
	dispatch, err := s.repo.Dispatch.GetByID(ctx, dispatchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDispatchNotFound
		}
		s.logger.Error("查询派工失败", zap.Error(err))
		return nil, err
	}
	return dispatch, nil
}

// recordActivity 写活动日志；失败只告警
func (s *dispatchService) recordActivity(ctx context.Context, registrationID string, typ model.ActivityType, detail string, at time.Time, callerID string) {
	activity := &model.RegistrationActivity{
		RegistrationID: registrationID,
		ActivityType:   typ,
		Detail:         detail,
		OccurredAt:     at,
		CreatedBy:      &callerID,
	}
	if err := s.repo.Activity.Create(ctx, activity); err != nil {
		s.logger.Warn("写入活动日志失败", zap.Error(err))
	}
}

// shortCallDaysRemaining 短工剩余工作日（下限 0，不得为负）
func shortCallDaysRemaining(dispatchedAt, asOf time.Time, limit int) int {
	remaining := limit - businessDaysBetween(dispatchedAt, asOf)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// toDispatchResponse 转换派工为响应
func toDispatchResponse(dispatch *model.Dispatch, shortCallLimit int, asOf time.Time) dto.DispatchResponse {
	resp := dto.DispatchResponse{
		ID:           dispatch.DispatchID,
		WorkerID:     dispatch.WorkerID,
		RequestID:    dispatch.RequestID,
		BidID:        dispatch.BidID,
		Book:         toBookBrief(dispatch.Book),
		EmployerID:   dispatch.EmployerID,
		DispatchType: string(dispatch.DispatchType),
		Status:       string(dispatch.Status),
		DispatchedAt: dispatch.DispatchedAt.Format("2006-01-02T15:04:05Z"),
	}
	endAt := asOf
	if dispatch.CompletedAt != nil {
		t := dispatch.CompletedAt.Format("2006-01-02T15:04:05Z")
		resp.CompletedAt = &t
		endAt = *dispatch.CompletedAt
	}
	// 在岗天数按日历天计；工作日口径只用于短工工期
	resp.DaysOnJob = calendarDaysBetween(dispatch.DispatchedAt, endAt)
	if dispatch.DispatchType == model.DispatchShortCall && dispatch.Status == model.DispatchActive {
		days := shortCallDaysRemaining(dispatch.DispatchedAt, asOf, shortCallLimit)
		resp.ShortCallDaysRemaining = &days
	}
	return resp
}


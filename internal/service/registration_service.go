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

// ── 名册登记模块业务错误 ──

var (
	ErrRegistrationNotFound  = errors.New("登记记录不存在")
	ErrAlreadyRegistered     = errors.New("该工人在此名册已有在册登记")
	ErrRegistrationNotActive = errors.New("登记不在在册状态，不可执行此操作")
	ErrInvalidAtTime         = errors.New("登记时刻格式无效，应为 RFC3339")
)

// RegistrationService 名册登记业务接口
type RegistrationService interface {
	// 登记入册：分配优先号并创建在册登记
	Register(ctx context.Context, req *dto.RegisterRequest, callerID string) (*dto.RegistrationResponse, error)
	Get(ctx context.Context, registrationID string) (*dto.RegistrationResponse, error)
	ListByWorker(ctx context.Context, workerID string) ([]dto.RegistrationResponse, error)
	// 队首查询：按优先号升序返回待派候选
	NextInQueue(ctx context.Context, req *dto.QueueQueryRequest) ([]dto.RegistrationResponse, error)
	// 记号：达到上限只标记，不自动除名
	IssueCheckMark(ctx context.Context, registrationID, callerID string) (*dto.CheckMarkResponse, error)
	// 除名：幂等，重复除名返回当前状态不报错
	Remove(ctx context.Context, registrationID string, req *dto.RemoveRegistrationRequest, callerID string) (*dto.RegistrationResponse, error)
	// 登记活动日志
	ListActivities(ctx context.Context, registrationID string) ([]dto.ActivityResponse, error)
}

type registrationService struct {
	cfg    *config.Config
	repo   *repository.Repository
	ledger *PriorityLedger
	logger *zap.Logger
}

// NewRegistrationService 创建 RegistrationService 实例
func NewRegistrationService(
	cfg *config.Config,
	repo *repository.Repository,
	ledger *PriorityLedger,
	logger *zap.Logger,
) RegistrationService {
	return &registrationService{
		cfg:    cfg,
		repo:   repo,
		ledger: ledger,
		logger: logger,
	}
}

// ════════════════════════════════════════════════════════════
// Register — 登记入册
// ════════════════════════════════════════════════════════════

func (s *registrationService) Register(ctx context.Context, req *dto.RegisterRequest, callerID string) (*dto.RegistrationResponse, error) {
	at := time.Now()
	if req.AtTime != nil {
		parsed, err := time.Parse(time.RFC3339, *req.AtTime)
		if err != nil {
			return nil, ErrInvalidAtTime
		}
		at = parsed
	}

	// 1. 校验名册
	book, err := s.repo.Book.GetByID(ctx, req.BookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		s.logger.Error("查询名册失败", zap.Error(err))
		return nil, err
	}

	// 2. 同一（工人, 名册）至多一条在册登记
	_, err = s.repo.Registration.GetActive(ctx, req.WorkerID, req.BookID)
	if err == nil {
		return nil, ErrAlreadyRegistered
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询在册登记失败", zap.Error(err))
		return nil, err
	}

	// 3. 分配优先号（分配即占用，失败也不回收）
	priority, err := s.ledger.Assign(ctx, req.BookID, at)
	if err != nil {
		return nil, err
	}

	// 4. 落库登记
	reg := &model.BookRegistration{
		WorkerID:     req.WorkerID,
		BookID:       req.BookID,
		Priority:     priority,
		RegisteredAt: at,
		Status:       model.RegistrationActive,
	}
	reg.CreatedBy = &callerID
	reg.UpdatedBy = &callerID

	if err := s.repo.Registration.Create(ctx, reg); err != nil {
		// 并发重复登记会撞 uq_active_registration 部分唯一索引
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyRegistered
		}
		s.logger.Error("创建登记失败", zap.Error(err))
		return nil, err
	}

	// 5. 活动日志
	s.recordActivity(ctx, reg.RegistrationID, model.ActivityRegistered,
		fmt.Sprintf("登记入册，优先号 %s", priority.String()), at, callerID)

	s.logger.Info("登记入册",
		zap.String("worker_id", req.WorkerID),
		zap.String("book_id", req.BookID),
		zap.String("priority", priority.String()),
	)

	reg.Book = book
	resp := s.toRegistrationResponse(reg)
	return &resp, nil
}

// ════════════════════════════════════════════════════════════
// Get / ListByWorker / NextInQueue
// ════════════════════════════════════════════════════════════

func (s *registrationService) Get(ctx context.Context, registrationID string) (*dto.RegistrationResponse, error) {
	reg, err := s.getRegistration(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	resp := s.toRegistrationResponse(reg)
	return &resp, nil
}

func (s *registrationService) ListByWorker(ctx context.Context, workerID string) ([]dto.RegistrationResponse, error) {
	regs, err := s.repo.Registration.ListByWorker(ctx, workerID)
	if err != nil {
		s.logger.Error("查询工人登记失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.RegistrationResponse, 0, len(regs))
	for i := range regs {
		result = append(result, s.toRegistrationResponse(&regs[i]))
	}
	return result, nil
}

func (s *registrationService) NextInQueue(ctx context.Context, req *dto.QueueQueryRequest) ([]dto.RegistrationResponse, error) {
	if _, err := s.repo.Book.GetByID(ctx, req.BookID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}

	count := req.Count
	if count <= 0 {
		count = 1
	}

	regs, err := s.repo.Registration.ListNextInQueue(ctx, req.BookID, count,
		req.IncludeAtLimit, s.cfg.Dispatch.CheckMarkLimit)
	if err != nil {
		s.logger.Error("查询名册队列失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.RegistrationResponse, 0, len(regs))
	for i := range regs {
		result = append(result, s.toRegistrationResponse(&regs[i]))
	}
	return result, nil
}

// ════════════════════════════════════════════════════════════
// IssueCheckMark — 记号
// ════════════════════════════════════════════════════════════

func (s *registrationService) IssueCheckMark(ctx context.Context, registrationID, callerID string) (*dto.CheckMarkResponse, error) {
	reg, err := s.getRegistration(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if reg.Status != model.RegistrationActive {
		return nil, ErrRegistrationNotActive
	}

	reg.CheckMarkCount++
	reg.UpdatedBy = &callerID
	if err := s.repo.Registration.Update(ctx, reg); err != nil {
		s.logger.Error("记号更新失败", zap.Error(err))
		return nil, err
	}

	now := time.Now()
	s.recordActivity(ctx, reg.RegistrationID, model.ActivityCheckMarkIssued,
		fmt.Sprintf("记号，累计 %d 次", reg.CheckMarkCount), now, callerID)

	return &dto.CheckMarkResponse{
		RegistrationID: reg.RegistrationID,
		CheckMarkCount: reg.CheckMarkCount,
		AtLimit:        reg.AtCheckMarkLimit(s.cfg.Dispatch.CheckMarkLimit),
	}, nil
}

// ════════════════════════════════════════════════════════════
// Remove — 除名（幂等）
// ════════════════════════════════════════════════════════════

func (s *registrationService) Remove(ctx context.Context, registrationID string, req *dto.RemoveRegistrationRequest, callerID string) (*dto.RegistrationResponse, error) {
	reg, err := s.getRegistration(ctx, registrationID)
	if err != nil {
		return nil, err
	}

	// 已除名：幂等返回，不报错、不追加日志
	if reg.Status == model.RegistrationRemoved {
		resp := s.toRegistrationResponse(reg)
		return &resp, nil
	}

	reg.Status = model.RegistrationRemoved
	reg.RemovedReason = &req.Reason
	reg.UpdatedBy = &callerID
	if err := s.repo.Registration.Update(ctx, reg); err != nil {
		s.logger.Error("除名更新失败", zap.Error(err))
		return nil, err
	}

	now := time.Now()
	s.recordActivity(ctx, reg.RegistrationID, model.ActivityRemoved, req.Reason, now, callerID)

	s.logger.Info("登记除名",
		zap.String("registration_id", reg.RegistrationID),
		zap.String("reason", req.Reason),
	)

	resp := s.toRegistrationResponse(reg)
	return &resp, nil
}

// ════════════════════════════════════════════════════════════
// ListActivities — 活动日志
// ════════════════════════════════════════════════════════════

func (s *registrationService) ListActivities(ctx context.Context, registrationID string) ([]dto.ActivityResponse, error) {
	if _, err := s.getRegistration(ctx, registrationID); err != nil {
		return nil, err
	}

	activities, err := s.repo.Activity.ListByRegistration(ctx, registrationID)
	if err != nil {
		s.logger.Error("查询活动日志失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.ActivityResponse, 0, len(activities))
	for _, a := range activities {
		result = append(result, dto.ActivityResponse{
			ID:           a.ActivityID,
			ActivityType: string(a.ActivityType),
			Detail:       a.Detail,
			OccurredAt:   a.OccurredAt.Format("2006-01-02T15:04:05Z"),
		})
	}
	return result, nil
}

// ════════════════════════════════════════════════════════════
// 内部辅助方法
// ════════════════════════════════════════════════════════════

func (s *registrationService) getRegistration(ctx context.Context, registrationID string) (*model.BookRegistration, error) {
	reg, err := s.repo.Registration.GetByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRegistrationNotFound
		}
		s.logger.Error("查询登记失败", zap.Error(err))
		return nil, err
	}
	return reg, nil
}

// recordActivity 写活动日志；日志失败不阻断主流程，只告警
func (s *registrationService) recordActivity(ctx context.Context, registrationID string, typ model.ActivityType, detail string, at time.Time, callerID string) {
	activity := &model.RegistrationActivity{
		RegistrationID: registrationID,
		ActivityType:   typ,
		Detail:         detail,
		OccurredAt:     at,
		CreatedBy:      &callerID,
	}
	if err := s.repo.Activity.Create(ctx, activity); err != nil {
		s.logger.Warn("写入活动日志失败",
			zap.String("registration_id", registrationID),
			zap.String("activity_type", string(typ)),
			zap.Error(err),
		)
	}
}

// toRegistrationResponse 转换登记为响应
func (s *registrationService) toRegistrationResponse(reg *model.BookRegistration) dto.RegistrationResponse {
	return dto.RegistrationResponse{
		ID:             reg.RegistrationID,
		WorkerID:       reg.WorkerID,
		Book:           toBookBrief(reg.Book),
		Priority:       reg.Priority.String(),
		RegisteredAt:   reg.RegisteredAt.Format("2006-01-02T15:04:05Z"),
		Status:         string(reg.Status),
		CheckMarkCount: reg.CheckMarkCount,
		AtLimit:        reg.AtCheckMarkLimit(s.cfg.Dispatch.CheckMarkLimit),
		RemovedReason:  reg.RemovedReason,
	}
}


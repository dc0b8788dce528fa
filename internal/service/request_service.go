package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hall-dispatch/backend/config"
	"hall-dispatch/backend/internal/dto"
	"hall-dispatch/backend/internal/model"
	"hall-dispatch/backend/internal/repository"
	pkgerrors "hall-dispatch/backend/pkg/errors"
	"hall-dispatch/backend/pkg/redis"
)

// ── 用工申请模块业务错误 ──

var (
	ErrRequestNotFound          = errors.New("用工申请不存在")
	ErrRequestNotOpen           = errors.New("用工申请不在受理状态")
	ErrRequestTerminal          = errors.New("用工申请已终结，不可再变更")
	ErrNamedWorkersMissing      = errors.New("点名申请必须指定工人")
	ErrNamedWorkerNotRegistered = errors.New("被点名工人在该名册无在册登记")
	ErrNamedWorkerUnavailable   = errors.New("被点名工人当前不可派")
)

// fillRetryLimit 成交计数 CAS 更新的重试上限
const fillRetryLimit = 3

// RequestService 用工申请业务接口
type RequestService interface {
	// 提交申请；携带幂等键时重放返回首次创建的申请单
	Submit(ctx context.Context, req *dto.SubmitLaborRequest, callerID string) (*dto.LaborRequestResponse, error)
	Get(ctx context.Context, requestID string) (*dto.LaborRequestResponse, error)
	ListByEmployer(ctx context.Context, employerID string, page *dto.PaginationRequest) ([]dto.LaborRequestResponse, int64, error)
	// 撮合派工：点名申请直派指定工人，普通申请按名册队列顺序派出
	MatchAndDispatch(ctx context.Context, requestID, callerID string) (*dto.MatchResultResponse, error)
	Cancel(ctx context.Context, requestID string, req *dto.CancelLaborRequest, callerID string) (*dto.LaborRequestResponse, error)
	// 过期清理：将超过保留期仍未成交的申请标记为 expired，返回处理条数
	ExpireStale(ctx context.Context, callerID string) (int, error)
}

type requestService struct {
	cfg    *config.Config
	repo   *repository.Repository
	rdb    *redis.Client
	logger *zap.Logger
}

// NewRequestService 创建 RequestService 实例
// rdb 可为 nil（Redis 降级运行时幂等键检查被跳过）
func NewRequestService(
	cfg *config.Config,
	repo *repository.Repository,
	rdb *redis.Client,
	logger *zap.Logger,
) RequestService {
	return &requestService{
		cfg:    cfg,
		repo:   repo,
		rdb:    rdb,
		logger: logger,
	}
}

// ════════════════════════════════════════════════════════════
// Submit — 提交用工申请
// ════════════════════════════════════════════════════════════

func (s *requestService) Submit(ctx context.Context, req *dto.SubmitLaborRequest, callerID string) (*dto.LaborRequestResponse, error) {
	if req.IsByName && len(req.NamedWorkerIDs) == 0 {
		return nil, ErrNamedWorkersMissing
	}

	if _, err := s.repo.Book.GetByID(ctx, req.BookID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		s.logger.Error("查询名册失败", zap.Error(err))
		return nil, err
	}

	// 先占幂等键再建单：SetNX 失败说明同键申请已在处理，直接返回首单
	requestID := uuid.New().String()
	useIdemKey := req.IdempotencyKey != "" && s.rdb != nil
	if useIdemKey {
		ok, err := s.rdb.PutIdempotencyKey(ctx, req.IdempotencyKey, requestID, s.cfg.Dispatch.IdempotencyKeyTTL)
		if err != nil {
			// Redis 故障时放弃幂等保护，照常建单
			s.logger.Warn("幂等键写入失败，跳过幂等检查", zap.Error(err))
			useIdemKey = false
		} else if !ok {
			existingID, err := s.rdb.GetIdempotencyKey(ctx, req.IdempotencyKey)
			if err != nil || existingID == "" {
				s.logger.Warn("幂等键读取失败", zap.Error(err))
				return nil, ErrRequestNotFound
			}
			return s.Get(ctx, existingID)
		}
	}

	request := &model.LaborRequest{
		RequestID:        requestID,
		EmployerID:       req.EmployerID,
		BookID:           req.BookID,
		WorkersRequested: req.WorkersRequested,
		Status:           model.RequestOpen,
		IsShortCall:      req.IsShortCall,
		IsByName:         req.IsByName,
		AgreementType:    req.AgreementType,
		NamedWorkers:     model.UUIDArray(req.NamedWorkerIDs),
	}
	request.CreatedBy = &callerID
	request.UpdatedBy = &callerID

	if err := s.repo.Request.Create(ctx, request); err != nil {
		if useIdemKey {
			// 建单失败时释放幂等键，允许调用方重试
			if delErr := s.rdb.DeleteIdempotencyKey(ctx, req.IdempotencyKey); delErr != nil {
				s.logger.Warn("释放幂等键失败", zap.Error(delErr))
			}
		}
		s.logger.Error("创建用工申请失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("用工申请已提交",
		zap.String("request_id", request.RequestID),
		zap.String("book_id", request.BookID),
		zap.Int("workers_requested", request.WorkersRequested),
		zap.Bool("is_short_call", request.IsShortCall),
		zap.Bool("is_by_name", request.IsByName),
	)

	resp := toLaborRequestResponse(request)
	return &resp, nil
}

// ════════════════════════════════════════════════════════════
// Get / ListByEmployer
// ════════════════════════════════════════════════════════════

func (s *requestService) Get(ctx context.Context, requestID string) (*dto.LaborRequestResponse, error) {
	request, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	resp := toLaborRequestResponse(request)
	return &resp, nil
}

func (s *requestService) ListByEmployer(ctx context.Context, employerID string, page *dto.PaginationRequest) ([]dto.LaborRequestResponse, int64, error) {
	requests, total, err := s.repo.Request.ListByEmployer(ctx, employerID, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("查询雇主申请列表失败", zap.Error(err))
		return nil, 0, err
	}
	result := make([]dto.LaborRequestResponse, 0, len(requests))
	for i := range requests {
		result = append(result, toLaborRequestResponse(&requests[i]))
	}
	return result, total, nil
}

// ════════════════════════════════════════════════════════════
// MatchAndDispatch — 撮合派工
// ════════════════════════════════════════════════════════════

func (s *requestService) MatchAndDispatch(ctx context.Context, requestID, callerID string) (*dto.MatchResultResponse, error) {
	request, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != model.RequestOpen {
		if request.Status.Terminal() {
			return nil, fmt.Errorf("%w（当前状态 %s）", ErrRequestTerminal, request.Status)
		}
		return nil, fmt.Errorf("%w（当前状态 %s）", ErrRequestNotOpen, request.Status)
	}

	var dispatches []model.Dispatch
	if request.IsByName {
		dispatches, err = s.dispatchByName(ctx, request, callerID)
	} else {
		dispatches, err = s.dispatchFromQueue(ctx, request, callerID)
	}
	// 已派出的岗位必须入账，即便撮合中途失败
	if len(dispatches) > 0 {
		if fillErr := s.applyFill(ctx, request, len(dispatches), callerID); fillErr != nil {
			s.logger.Error("更新成交计数失败",
				zap.String("request_id", request.RequestID),
				zap.Int("dispatched", len(dispatches)),
				zap.Error(fillErr),
			)
			if err == nil {
				err = fillErr
			}
		}
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("撮合完成",
		zap.String("request_id", request.RequestID),
		zap.Int("dispatched", len(dispatches)),
		zap.Int("workers_filled", request.WorkersFilled),
	)

	result := &dto.MatchResultResponse{
		Request:    toLaborRequestResponse(request),
		Dispatches: make([]dto.DispatchResponse, 0, len(dispatches)),
	}
	for i := range dispatches {
		result.Dispatches = append(result.Dispatches,
			toDispatchResponse(&dispatches[i], s.cfg.Dispatch.ShortCallBusinessDays, time.Now()))
	}
	return result, nil
}

// dispatchFromQueue 队列派工：按优先号升序逐个抢占候选
// 抢占失败（并发占用、别处在岗）的候选跳过，队列耗尽或配满为止
func (s *requestService) dispatchFromQueue(ctx context.Context, request *model.LaborRequest, callerID string) ([]model.Dispatch, error) {
	dispatchType := model.DispatchRegular
	if request.IsShortCall {
		dispatchType = model.DispatchShortCall
	}

	var created []model.Dispatch
	tried := make(map[string]bool)

	for request.Remaining()-len(created) > 0 {
		remaining := request.Remaining() - len(created)
		batch, err := s.repo.Registration.ListNextInQueue(ctx, request.BookID,
			remaining+len(tried), false, s.cfg.Dispatch.CheckMarkLimit)
		if err != nil {
			s.logger.Error("查询名册队列失败", zap.Error(err))
			return created, err
		}

		progressed := false
		for i := range batch {
			if request.Remaining()-len(created) <= 0 {
				break
			}
			reg := &batch[i]
			if tried[reg.RegistrationID] {
				continue
			}
			tried[reg.RegistrationID] = true
			progressed = true

			dispatch, err := s.dispatchOne(ctx, request, reg, dispatchType, callerID)
			if err != nil {
				if errors.Is(err, pkgerrors.ErrClaimConflict) || errors.Is(err, pkgerrors.ErrActiveDispatchExists) {
					// 并发抢占或别处在岗：跳过该候选
					continue
				}
				return created, err
			}
			created = append(created, *dispatch)
		}

		// 本批次无未尝试的候选，队列已耗尽
		if !progressed {
			break
		}
	}

	return created, nil
}

// dispatchByName 点名派工：直派申请指定的工人，绕过排队顺序
// 点名是显式指派，任一指定工人不可派都按错误上抛（已派出的保留）
func (s *requestService) dispatchByName(ctx context.Context, request *model.LaborRequest, callerID string) ([]model.Dispatch, error) {
	if len(request.NamedWorkers) == 0 {
		return nil, ErrNamedWorkersMissing
	}

	var created []model.Dispatch
	for _, workerID := range request.NamedWorkers {
		if request.Remaining()-len(created) <= 0 {
			break
		}

		reg, err := s.repo.Registration.GetActive(ctx, workerID, request.BookID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return created, fmt.Errorf("%w: %s", ErrNamedWorkerNotRegistered, workerID)
			}
			s.logger.Error("查询被点名工人登记失败", zap.Error(err))
			return created, err
		}

		dispatch, err := s.dispatchOne(ctx, request, reg, model.DispatchByName, callerID)
		if err != nil {
			if errors.Is(err, pkgerrors.ErrClaimConflict) || errors.Is(err, pkgerrors.ErrActiveDispatchExists) {
				return created, fmt.Errorf("%w: %s", ErrNamedWorkerUnavailable, workerID)
			}
			return created, err
		}
		created = append(created, *dispatch)
	}

	return created, nil
}

// dispatchOne 对单个候选执行 抢占 → 落库派工 → 记日志
// 抢占成功而落库失败时回滚抢占，登记回到在册状态
func (s *requestService) dispatchOne(ctx context.Context, request *model.LaborRequest, reg *model.BookRegistration, dispatchType model.DispatchType, callerID string) (*model.Dispatch, error) {
	reg.UpdatedBy = &callerID
	if err := s.repo.Registration.Claim(ctx, reg); err != nil {
		return nil, err
	}

	now := time.Now()
	dispatch := &model.Dispatch{
		WorkerID:     reg.WorkerID,
		RequestID:    request.RequestID,
		BidID:        s.findBidRef(ctx, reg.WorkerID, request.RequestID),
		BookID:       request.BookID,
		EmployerID:   request.EmployerID,
		DispatchType: dispatchType,
		Status:       model.DispatchActive,
		DispatchedAt: now,
	}
	dispatch.CreatedBy = &callerID
	dispatch.UpdatedBy = &callerID

	if err := s.repo.Dispatch.Create(ctx, dispatch); err != nil {
		// 回滚抢占；回滚失败只能告警留给人工对账
		if relErr := s.repo.Registration.Release(ctx, reg); relErr != nil {
			s.logger.Error("回滚登记抢占失败",
				zap.String("registration_id", reg.RegistrationID),
				zap.Error(relErr),
			)
		}
		return nil, err
	}

	activity := &model.RegistrationActivity{
		RegistrationID: reg.RegistrationID,
		ActivityType:   model.ActivityDispatched,
		Detail:         fmt.Sprintf("派往申请 %s（%s）", request.RequestID, dispatchType),
		OccurredAt:     now,
		CreatedBy:      &callerID,
	}
	if err := s.repo.Activity.Create(ctx, activity); err != nil {
		s.logger.Warn("写入派工活动日志失败", zap.Error(err))
	}

	return dispatch, nil
}

// findBidRef 查找工人对该申请的投标，作为派工的可空软关联
func (s *requestService) findBidRef(ctx context.Context, workerID, requestID string) *string {
	bid, err := s.repo.Bid.GetByWorkerAndRequest(ctx, workerID, requestID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("查询投标失败", zap.Error(err))
		}
		return nil
	}
	return &bid.BidID
}

// applyFill 累加成交计数；配满时流转为 filled
// 并发撮合撞 CAS 时重读重试
func (s *requestService) applyFill(ctx context.Context, request *model.LaborRequest, delta int, callerID string) error {
	for attempt := 0; attempt < fillRetryLimit; attempt++ {
		request.WorkersFilled += delta
		if request.WorkersFilled >= request.WorkersRequested {
			request.WorkersFilled = request.WorkersRequested
			request.Status = model.RequestFilled
			now := time.Now()
			request.FilledAt = &now
		}
		request.UpdatedBy = &callerID

		err := s.repo.Request.Update(ctx, request)
		if err == nil {
			return nil
		}
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return err
		}

		fresh, getErr := s.repo.Request.GetByID(ctx, request.RequestID)
		if getErr != nil {
			return getErr
		}
		*request = *fresh
	}
	return pkgerrors.ErrOptimisticLock
}

// ════════════════════════════════════════════════════════════
// Cancel — 取消申请
// ════════════════════════════════════════════════════════════

func (s *requestService) Cancel(ctx context.Context, requestID string, req *dto.CancelLaborRequest, callerID string) (*dto.LaborRequestResponse, error) {
	request, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status.Terminal() {
		return nil, fmt.Errorf("%w（当前状态 %s）", ErrRequestTerminal, request.Status)
	}
	if !request.Status.CanTransitionTo(model.RequestCancelled) {
		return nil, fmt.Errorf("%w: %s → %s", ErrRequestNotOpen, request.Status, model.RequestCancelled)
	}

	request.Status = model.RequestCancelled
	request.UpdatedBy = &callerID
	if err := s.repo.Request.Update(ctx, request); err != nil {
		s.logger.Error("取消申请失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("用工申请已取消",
		zap.String("request_id", request.RequestID),
		zap.String("reason", req.Reason),
	)

	resp := toLaborRequestResponse(request)
	return &resp, nil
}

// ════════════════════════════════════════════════════════════
// ExpireStale — 过期清理
// ════════════════════════════════════════════════════════════

func (s *requestService) ExpireStale(ctx context.Context, callerID string) (int, error) {
	cutoff := time.Now().AddDate(0, 0, -s.cfg.Dispatch.RequestExpiryDays)
	stale, err := s.repo.Request.ListOpenCreatedBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("查询过期申请失败", zap.Error(err))
		return 0, err
	}

	expired := 0
	for i := range stale {
		request := &stale[i]
		request.Status = model.RequestExpired
		request.UpdatedBy = &callerID
		if err := s.repo.Request.Update(ctx, request); err != nil {
			// 并发状态变化的单子跳过，下一轮再看
			if errors.Is(err, pkgerrors.ErrOptimisticLock) {
				continue
			}
			return expired, err
		}
		expired++
	}

	if expired > 0 {
		s.logger.Info("过期申请清理完成", zap.Int("expired", expired))
	}
	return expired, nil
}

// ════════════════════════════════════════════════════════════
// 内部辅助方法
// ════════════════════════════════════════════════════════════

func (s *requestService) getRequest(ctx context.Context, requestID string) (*model.LaborRequest, error) {
	request, err := s.repo.Request.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		s.logger.Error("查询用工申请失败", zap.Error(err))
		return nil, err
	}
	return request, nil
}

// toLaborRequestResponse 转换申请为响应
func toLaborRequestResponse(request *model.LaborRequest) dto.LaborRequestResponse {
	resp := dto.LaborRequestResponse{
		ID:               request.RequestID,
		EmployerID:       request.EmployerID,
		Book:             toBookBrief(request.Book),
		WorkersRequested: request.WorkersRequested,
		WorkersFilled:    request.WorkersFilled,
		Status:           string(request.Status),
		IsShortCall:      request.IsShortCall,
		IsByName:         request.IsByName,
		AgreementType:    request.AgreementType,
		NamedWorkerIDs:   []string(request.NamedWorkers),
		CreatedAt:        request.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if request.FilledAt != nil {
		t := request.FilledAt.Format("2006-01-02T15:04:05Z")
		resp.FilledAt = &t
	}
	return resp
}


package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"hall-dispatch/backend/config"
	"hall-dispatch/backend/internal/dto"
	"hall-dispatch/backend/internal/model"
)

// ── 测试辅助 ──

func setupMorningService(cfg *config.Config) (MorningService, RegistrationService, *testRepos) {
	repos := newTestRepos()
	repoAgg := repos.toRepository()
	logger := zap.NewNop()
	ledger := NewPriorityLedger(repos.apnSequence, logger)
	morning := NewMorningService(cfg, repoAgg, logger)
	reg := NewRegistrationService(cfg, repoAgg, ledger, logger)
	return morning, reg, repos
}

// seedBookAt 按指定时段与序号预置名册
func seedBookAt(repos *testRepos, id, name string, slot, rank int) {
	repos.book.books[id] = &model.ReferralBook{
		BookID:         id,
		Name:           name,
		ProcessingSlot: slot,
		ProcessingRank: rank,
		VersionedModel: model.VersionedModel{Version: 1},
	}
}

// seedOpenRequest 预置受理中的申请并指定创建时间与需求人数
func seedOpenRequest(t *testing.T, repos *testRepos, bookID string, workers int, createdAt time.Time) *model.LaborRequest {
	t.Helper()
	r := &model.LaborRequest{
		EmployerID:       "emp-1",
		BookID:           bookID,
		WorkersRequested: workers,
		Status:           model.RequestOpen,
	}
	r.CreatedAt = createdAt
	if err := repos.request.Create(context.Background(), r); err != nil {
		t.Fatalf("seed 申请失败: %v", err)
	}
	return r
}

// ── 截单时刻 ──

func TestCutoffFor(t *testing.T) {
	tests := []struct {
		name     string
		target   time.Time
		expected time.Time
	}{
		// 周一处理上周五 15:00 前的单，截单点不因周末顺延
		{"周一截上周五", time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC), time.Date(2026, 2, 6, 15, 0, 0, 0, time.UTC)},
		{"周二截周一", time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), time.Date(2026, 2, 9, 15, 0, 0, 0, time.UTC)},
		{"周日截周五", time.Date(2026, 2, 8, 0, 0, 0, 0, time.UTC), time.Date(2026, 2, 6, 15, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cutoffFor(tt.target, 15, 0)
			if !got.Equal(tt.expected) {
				t.Errorf("cutoffFor(%v) = %v, 期望 %v", tt.target, got, tt.expected)
			}
		})
	}
}

// ── 投标窗口 ──

func TestWebBidWindow(t *testing.T) {
	target := time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)
	from, to := webBidWindow(target, "17:30", "07:00")

	expectedFrom := time.Date(2026, 2, 8, 17, 30, 0, 0, time.UTC)
	expectedTo := time.Date(2026, 2, 9, 7, 0, 0, 0, time.UTC)
	if !from.Equal(expectedFrom) {
		t.Errorf("开窗 = %v, 期望 %v", from, expectedFrom)
	}
	if !to.Equal(expectedTo) {
		t.Errorf("关窗 = %v, 期望 %v", to, expectedTo)
	}
}

// ── BuildProcessingQueue ──

func TestBuildProcessingQueue_CutoffFilter(t *testing.T) {
	svc, regSvc, repos := setupMorningService(newTestConfig())
	seedBookAt(repos, "book-A", "名册A", 1, 0)
	registerWorkers(t, regSvc, "book-A", "worker-1")

	// 截单点为上周五 15:00：14:59 的单进队列，15:01 的单不进
	inTime := time.Date(2026, 2, 6, 14, 59, 0, 0, time.Local)
	outTime := time.Date(2026, 2, 6, 15, 1, 0, 0, time.Local)
	included := seedOpenRequest(t, repos, "book-A", 1, inTime)
	seedOpenRequest(t, repos, "book-A", 1, outTime)

	resp, err := svc.BuildProcessingQueue(context.Background(), &dto.MorningQueueQuery{
		TargetDate: "2026-02-09",
	})
	if err != nil {
		t.Fatalf("BuildProcessingQueue 失败: %v", err)
	}
	if resp.TargetDate != "2026-02-09" {
		t.Errorf("目标日期 = %s, 期望 2026-02-09", resp.TargetDate)
	}
	if len(resp.Groups) != 1 || len(resp.Groups[0].Books) != 1 {
		t.Fatalf("分组结构 = %+v, 期望 1 时段 1 名册", resp.Groups)
	}
	requests := resp.Groups[0].Books[0].Requests
	if len(requests) != 1 {
		t.Fatalf("队列申请数 = %d, 期望仅截单前的 1 单", len(requests))
	}
	if requests[0].Request.ID != included.RequestID {
		t.Errorf("入队申请 = %s, 期望 %s", requests[0].Request.ID, included.RequestID)
	}
	if requests[0].Remaining != 1 {
		t.Errorf("尚缺人数 = %d, 期望 1", requests[0].Remaining)
	}
}

func TestBuildProcessingQueue_SlotAndRankOrder(t *testing.T) {
	svc, regSvc, repos := setupMorningService(newTestConfig())
	// 名册乱序预置：时段2/序1、时段1/序2、时段1/序1
	seedBookAt(repos, "book-C", "名册C", 2, 1)
	seedBookAt(repos, "book-B", "名册B", 1, 2)
	seedBookAt(repos, "book-A", "名册A", 1, 1)
	registerWorkers(t, regSvc, "book-A", "worker-1")

	created := time.Date(2026, 2, 6, 9, 0, 0, 0, time.Local)
	seedOpenRequest(t, repos, "book-A", 1, created)
	seedOpenRequest(t, repos, "book-B", 1, created)
	seedOpenRequest(t, repos, "book-C", 1, created)

	resp, err := svc.BuildProcessingQueue(context.Background(), &dto.MorningQueueQuery{
		TargetDate: "2026-02-09",
	})
	if err != nil {
		t.Fatalf("BuildProcessingQueue 失败: %v", err)
	}
	if len(resp.Groups) != 2 {
		t.Fatalf("时段组数 = %d, 期望 2", len(resp.Groups))
	}
	if resp.Groups[0].Slot != 1 || resp.Groups[1].Slot != 2 {
		t.Errorf("时段顺序 = %d, %d, 期望 1, 2", resp.Groups[0].Slot, resp.Groups[1].Slot)
	}
	slot1 := resp.Groups[0].Books
	if len(slot1) != 2 || slot1[0].Book.Name != "名册A" || slot1[1].Book.Name != "名册B" {
		t.Errorf("时段1名册顺序 = %+v, 期望 名册A, 名册B", slot1)
	}
	if len(resp.Groups[1].Books) != 1 || resp.Groups[1].Books[0].Book.Name != "名册C" {
		t.Errorf("时段2名册 = %+v, 期望 名册C", resp.Groups[1].Books)
	}
}

func TestBuildProcessingQueue_SkipsBooksWithoutRequests(t *testing.T) {
	svc, _, repos := setupMorningService(newTestConfig())
	seedBookAt(repos, "book-A", "名册A", 1, 1)
	seedBookAt(repos, "book-B", "名册B", 1, 2)
	seedOpenRequest(t, repos, "book-B", 1, time.Date(2026, 2, 6, 9, 0, 0, 0, time.Local))

	resp, err := svc.BuildProcessingQueue(context.Background(), &dto.MorningQueueQuery{
		TargetDate: "2026-02-09",
	})
	if err != nil {
		t.Fatalf("BuildProcessingQueue 失败: %v", err)
	}
	if len(resp.Groups) != 1 || len(resp.Groups[0].Books) != 1 {
		t.Fatalf("分组结构 = %+v", resp.Groups)
	}
	if resp.Groups[0].Books[0].Book.Name != "名册B" {
		t.Errorf("无单名册不应出现在队列中")
	}
}

func TestBuildProcessingQueue_CandidateAnnotations(t *testing.T) {
	svc, regSvc, repos := setupMorningService(newTestConfig())
	seedBookAt(repos, "book-A", "名册A", 1, 0)
	registerWorkers(t, regSvc, "book-A", "worker-1", "worker-2")
	ctx := context.Background()

	// worker-2 打满记号（上限 2）：候选中仍展示但标注 at_limit
	regs, err := regSvc.ListByWorker(ctx, "worker-2")
	if err != nil {
		t.Fatalf("ListByWorker 失败: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := regSvc.IssueCheckMark(ctx, regs[0].ID, "staff-1"); err != nil {
			t.Fatalf("IssueCheckMark 失败: %v", err)
		}
	}

	request := seedOpenRequest(t, repos, "book-A", 2, time.Date(2026, 2, 6, 9, 0, 0, 0, time.Local))

	// worker-1 在窗口内投标（2026-02-08 17:30 起），worker-2 在窗口外
	repos.bid.bids["worker-1|"+request.RequestID] = &model.JobBid{
		BidID: "bid-1", WorkerID: "worker-1", RequestID: request.RequestID,
		SubmittedAt: time.Date(2026, 2, 8, 20, 0, 0, 0, time.Local),
	}
	repos.bid.bids["worker-2|"+request.RequestID] = &model.JobBid{
		BidID: "bid-2", WorkerID: "worker-2", RequestID: request.RequestID,
		SubmittedAt: time.Date(2026, 2, 7, 12, 0, 0, 0, time.Local),
	}

	resp, err := svc.BuildProcessingQueue(ctx, &dto.MorningQueueQuery{TargetDate: "2026-02-09"})
	if err != nil {
		t.Fatalf("BuildProcessingQueue 失败: %v", err)
	}
	candidates := resp.Groups[0].Books[0].Requests[0].Candidates
	if len(candidates) != 2 {
		t.Fatalf("候选数 = %d, 期望 2（含满记号者）", len(candidates))
	}
	if candidates[0].WorkerID != "worker-1" || candidates[1].WorkerID != "worker-2" {
		t.Fatalf("候选顺序 = %+v, 期望按优先号 worker-1, worker-2", candidates)
	}
	if !candidates[0].HasWebBid {
		t.Errorf("worker-1 窗口内投标应标注 has_web_bid")
	}
	if candidates[1].HasWebBid {
		t.Errorf("worker-2 窗口外投标不应标注 has_web_bid")
	}
	if candidates[0].AtLimit {
		t.Errorf("worker-1 未满记号不应标注 at_limit")
	}
	if !candidates[1].AtLimit || candidates[1].CheckMarkCount != 2 {
		t.Errorf("worker-2 应标注 at_limit 且记号数为 2, 实际 %+v", candidates[1])
	}
}

func TestBuildProcessingQueue_CandidateCountMatchesRemaining(t *testing.T) {
	svc, regSvc, repos := setupMorningService(newTestConfig())
	seedBookAt(repos, "book-A", "名册A", 1, 0)
	registerWorkers(t, regSvc, "book-A", "worker-1", "worker-2", "worker-3")
	ctx := context.Background()

	created := time.Date(2026, 2, 6, 9, 0, 0, 0, time.Local)
	seedOpenRequest(t, repos, "book-A", 2, created)

	// 默认候选数取申请尚缺人数：需 2 人只列队首 2 名
	resp, err := svc.BuildProcessingQueue(ctx, &dto.MorningQueueQuery{TargetDate: "2026-02-09"})
	if err != nil {
		t.Fatalf("BuildProcessingQueue 失败: %v", err)
	}
	candidates := resp.Groups[0].Books[0].Requests[0].Candidates
	if len(candidates) != 2 {
		t.Fatalf("候选数 = %d, 期望与尚缺人数 2 一致", len(candidates))
	}
	if candidates[0].WorkerID != "worker-1" || candidates[1].WorkerID != "worker-2" {
		t.Errorf("候选顺序 = %+v, 期望队首 worker-1, worker-2", candidates)
	}

	// 查询显式放宽时按指定数量展示
	resp, err = svc.BuildProcessingQueue(ctx, &dto.MorningQueueQuery{
		TargetDate: "2026-02-09", CandidateCount: 3,
	})
	if err != nil {
		t.Fatalf("BuildProcessingQueue 失败: %v", err)
	}
	candidates = resp.Groups[0].Books[0].Requests[0].Candidates
	if len(candidates) != 3 {
		t.Errorf("放宽后候选数 = %d, 期望 3", len(candidates))
	}
}

func TestBuildProcessingQueue_InvalidTargetDate(t *testing.T) {
	svc, _, _ := setupMorningService(newTestConfig())
	_, err := svc.BuildProcessingQueue(context.Background(), &dto.MorningQueueQuery{
		TargetDate: "09/02/2026",
	})
	if !errors.Is(err, ErrInvalidTargetDate) {
		t.Errorf("期望 ErrInvalidTargetDate, 实际 %v", err)
	}
}


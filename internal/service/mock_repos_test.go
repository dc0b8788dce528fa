package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"hall-dispatch/backend/internal/model"
	"hall-dispatch/backend/internal/repository"
	pkgerrors "hall-dispatch/backend/pkg/errors"
)

// ── Mock ReferralBookRepository ──

type mockBookRepo struct {
	books map[string]*model.ReferralBook
}

func newMockBookRepo() *mockBookRepo {
	return &mockBookRepo{books: make(map[string]*model.ReferralBook)}
}

func (m *mockBookRepo) Create(_ context.Context, book *model.ReferralBook) error {
	if book.BookID == "" {
		book.BookID = "book-" + book.Name
	}
	for _, b := range m.books {
		if b.Name == book.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	if book.Version == 0 {
		book.Version = 1
	}
	c := *book
	m.books[book.BookID] = &c
	return nil
}

func (m *mockBookRepo) GetByID(_ context.Context, id string) (*model.ReferralBook, error) {
	if b, ok := m.books[id]; ok {
		c := *b
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockBookRepo) List(_ context.Context) ([]model.ReferralBook, error) {
	result := m.all()
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockBookRepo) ListByProcessingOrder(_ context.Context) ([]model.ReferralBook, error) {
	result := m.all()
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.ProcessingSlot != b.ProcessingSlot {
			return a.ProcessingSlot < b.ProcessingSlot
		}
		if a.ProcessingRank != b.ProcessingRank {
			return a.ProcessingRank < b.ProcessingRank
		}
		return a.Name < b.Name
	})
	return result, nil
}

func (m *mockBookRepo) Update(_ context.Context, book *model.ReferralBook) error {
	stored, ok := m.books[book.BookID]
	if !ok || stored.Version != book.Version {
		return pkgerrors.ErrOptimisticLock
	}
	book.Version++
	c := *book
	m.books[book.BookID] = &c
	return nil
}

func (m *mockBookRepo) all() []model.ReferralBook {
	result := make([]model.ReferralBook, 0, len(m.books))
	for _, b := range m.books {
		result = append(result, *b)
	}
	return result
}

// ── Mock BookRegistrationRepository ──
// 返回副本、按 version 判 CAS，模拟数据库的并发语义

type mockRegistrationRepo struct {
	regs    map[string]*model.BookRegistration
	nextSeq int
}

func newMockRegistrationRepo() *mockRegistrationRepo {
	return &mockRegistrationRepo{regs: make(map[string]*model.BookRegistration)}
}

func (m *mockRegistrationRepo) Create(_ context.Context, reg *model.BookRegistration) error {
	if reg.RegistrationID == "" {
		m.nextSeq++
		reg.RegistrationID = fmt.Sprintf("reg-%d", m.nextSeq)
	}
	for _, r := range m.regs {
		// uq_active_registration
		if r.WorkerID == reg.WorkerID && r.BookID == reg.BookID && r.Status == model.RegistrationActive &&
			reg.Status == model.RegistrationActive {
			return gorm.ErrDuplicatedKey
		}
		// uq_book_priority
		if r.BookID == reg.BookID && r.Priority.Cmp(reg.Priority) == 0 {
			return gorm.ErrDuplicatedKey
		}
	}
	if reg.Version == 0 {
		reg.Version = 1
	}
	c := *reg
	m.regs[reg.RegistrationID] = &c
	return nil
}

func (m *mockRegistrationRepo) GetByID(_ context.Context, id string) (*model.BookRegistration, error) {
	if r, ok := m.regs[id]; ok {
		c := *r
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRegistrationRepo) GetActive(_ context.Context, workerID, bookID string) (*model.BookRegistration, error) {
	for _, r := range m.regs {
		if r.WorkerID == workerID && r.BookID == bookID && r.Status == model.RegistrationActive {
			c := *r
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRegistrationRepo) ListNextInQueue(_ context.Context, bookID string, count int, includeAtLimit bool, checkMarkLimit int) ([]model.BookRegistration, error) {
	var result []model.BookRegistration
	for _, r := range m.regs {
		if r.BookID != bookID || r.Status != model.RegistrationActive {
			continue
		}
		if !includeAtLimit && r.CheckMarkCount >= checkMarkLimit {
			continue
		}
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool {
		if c := result[i].Priority.Cmp(result[j].Priority); c != 0 {
			return c < 0
		}
		if !result[i].RegisteredAt.Equal(result[j].RegisteredAt) {
			return result[i].RegisteredAt.Before(result[j].RegisteredAt)
		}
		return result[i].WorkerID < result[j].WorkerID
	})
	if len(result) > count {
		result = result[:count]
	}
	return result, nil
}

func (m *mockRegistrationRepo) ListByWorker(_ context.Context, workerID string) ([]model.BookRegistration, error) {
	var result []model.BookRegistration
	for _, r := range m.regs {
		if r.WorkerID == workerID {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].RegisteredAt.After(result[j].RegisteredAt)
	})
	return result, nil
}

func (m *mockRegistrationRepo) Claim(_ context.Context, reg *model.BookRegistration) error {
	stored, ok := m.regs[reg.RegistrationID]
	if !ok || stored.Status != model.RegistrationActive || stored.Version != reg.Version {
		return pkgerrors.ErrClaimConflict
	}
	stored.Status = model.RegistrationDispatched
	stored.Version++
	reg.Status = stored.Status
	reg.Version = stored.Version
	return nil
}

func (m *mockRegistrationRepo) Release(_ context.Context, reg *model.BookRegistration) error {
	stored, ok := m.regs[reg.RegistrationID]
	if !ok || stored.Status != model.RegistrationDispatched || stored.Version != reg.Version {
		return pkgerrors.ErrOptimisticLock
	}
	stored.Status = model.RegistrationActive
	stored.Version++
	reg.Status = stored.Status
	reg.Version = stored.Version
	return nil
}

func (m *mockRegistrationRepo) Update(_ context.Context, reg *model.BookRegistration) error {
	stored, ok := m.regs[reg.RegistrationID]
	if !ok || stored.Version != reg.Version {
		return pkgerrors.ErrOptimisticLock
	}
	stored.Status = reg.Status
	stored.CheckMarkCount = reg.CheckMarkCount
	stored.RemovedReason = reg.RemovedReason
	stored.UpdatedBy = reg.UpdatedBy
	stored.Version++
	reg.Version = stored.Version
	return nil
}

// ── Mock RegistrationActivityRepository ──

type mockActivityRepo struct {
	activities []model.RegistrationActivity
	nextSeq    int
}

func newMockActivityRepo() *mockActivityRepo {
	return &mockActivityRepo{}
}

func (m *mockActivityRepo) Create(_ context.Context, activity *model.RegistrationActivity) error {
	if activity.ActivityID == "" {
		m.nextSeq++
		activity.ActivityID = fmt.Sprintf("act-%d", m.nextSeq)
	}
	m.activities = append(m.activities, *activity)
	return nil
}

func (m *mockActivityRepo) ListByRegistration(_ context.Context, registrationID string) ([]model.RegistrationActivity, error) {
	var result []model.RegistrationActivity
	for _, a := range m.activities {
		if a.RegistrationID == registrationID {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].OccurredAt.Before(result[j].OccurredAt)
	})
	return result, nil
}

// ── Mock LaborRequestRepository ──

type mockRequestRepo struct {
	requests map[string]*model.LaborRequest
	nextSeq  int
}

func newMockRequestRepo() *mockRequestRepo {
	return &mockRequestRepo{requests: make(map[string]*model.LaborRequest)}
}

func (m *mockRequestRepo) Create(_ context.Context, request *model.LaborRequest) error {
	if request.RequestID == "" {
		m.nextSeq++
		request.RequestID = fmt.Sprintf("req-%d", m.nextSeq)
	}
	if request.Version == 0 {
		request.Version = 1
	}
	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now()
	}
	c := *request
	m.requests[request.RequestID] = &c
	return nil
}

func (m *mockRequestRepo) GetByID(_ context.Context, id string) (*model.LaborRequest, error) {
	if r, ok := m.requests[id]; ok {
		c := *r
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRequestRepo) ListOpenCreatedBefore(_ context.Context, cutoff time.Time) ([]model.LaborRequest, error) {
	var result []model.LaborRequest
	for _, r := range m.requests {
		if r.Status == model.RequestOpen && r.CreatedAt.Before(cutoff) {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (m *mockRequestRepo) ListByEmployer(_ context.Context, employerID string, offset, limit int) ([]model.LaborRequest, int64, error) {
	var filtered []model.LaborRequest
	for _, r := range m.requests {
		if r.EmployerID == employerID {
			filtered = append(filtered, *r)
		}
	}
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})
	total := int64(len(filtered))
	if offset >= len(filtered) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[offset:end], total, nil
}

func (m *mockRequestRepo) Update(_ context.Context, request *model.LaborRequest) error {
	stored, ok := m.requests[request.RequestID]
	if !ok || stored.Version != request.Version {
		return pkgerrors.ErrOptimisticLock
	}
	stored.WorkersFilled = request.WorkersFilled
	stored.Status = request.Status
	stored.FilledAt = request.FilledAt
	stored.UpdatedBy = request.UpdatedBy
	stored.Version++
	request.Version = stored.Version
	return nil
}

// ── Mock JobBidRepository ──

type mockBidRepo struct {
	bids    map[string]*model.JobBid // key: workerID|requestID
	nextSeq int
}

func newMockBidRepo() *mockBidRepo {
	return &mockBidRepo{bids: make(map[string]*model.JobBid)}
}

func bidKey(workerID, requestID string) string {
	return workerID + "|" + requestID
}

func (m *mockBidRepo) Create(_ context.Context, bid *model.JobBid) error {
	key := bidKey(bid.WorkerID, bid.RequestID)
	if _, exists := m.bids[key]; exists {
		return gorm.ErrDuplicatedKey
	}
	if bid.BidID == "" {
		m.nextSeq++
		bid.BidID = fmt.Sprintf("bid-%d", m.nextSeq)
	}
	c := *bid
	m.bids[key] = &c
	return nil
}

func (m *mockBidRepo) GetByWorkerAndRequest(_ context.Context, workerID, requestID string) (*model.JobBid, error) {
	if b, ok := m.bids[bidKey(workerID, requestID)]; ok {
		c := *b
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockBidRepo) ListByRequest(_ context.Context, requestID string) ([]model.JobBid, error) {
	var result []model.JobBid
	for key, b := range m.bids {
		if strings.HasSuffix(key, "|"+requestID) {
			result = append(result, *b)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].SubmittedAt.Before(result[j].SubmittedAt)
	})
	return result, nil
}

func (m *mockBidRepo) ExistsInWindow(_ context.Context, workerID, requestID string, from, to time.Time) (bool, error) {
	b, ok := m.bids[bidKey(workerID, requestID)]
	if !ok {
		return false, nil
	}
	return !b.SubmittedAt.Before(from) && b.SubmittedAt.Before(to), nil
}

// ── Mock DispatchRepository ──
// 唯一索引 uq_active_dispatch 的语义在 Create 中模拟

type mockDispatchRepo struct {
	dispatches map[string]*model.Dispatch
	nextSeq    int
}

func newMockDispatchRepo() *mockDispatchRepo {
	return &mockDispatchRepo{dispatches: make(map[string]*model.Dispatch)}
}

func (m *mockDispatchRepo) Create(_ context.Context, dispatch *model.Dispatch) error {
	if dispatch.Status == model.DispatchActive {
		for _, d := range m.dispatches {
			if d.WorkerID == dispatch.WorkerID && d.Status == model.DispatchActive {
				return pkgerrors.ErrActiveDispatchExists
			}
		}
	}
	if dispatch.DispatchID == "" {
		m.nextSeq++
		dispatch.DispatchID = fmt.Sprintf("disp-%d", m.nextSeq)
	}
	if dispatch.Version == 0 {
		dispatch.Version = 1
	}
	c := *dispatch
	m.dispatches[dispatch.DispatchID] = &c
	return nil
}

func (m *mockDispatchRepo) GetByID(_ context.Context, id string) (*model.Dispatch, error) {
	if d, ok := m.dispatches[id]; ok {
		c := *d
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDispatchRepo) GetActiveByWorker(_ context.Context, workerID string) (*model.Dispatch, error) {
	for _, d := range m.dispatches {
		if d.WorkerID == workerID && d.Status == model.DispatchActive {
			c := *d
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDispatchRepo) ListActive(_ context.Context) ([]model.Dispatch, error) {
	var result []model.Dispatch
	for _, d := range m.dispatches {
		if d.Status == model.DispatchActive {
			result = append(result, *d)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].DispatchedAt.Before(result[j].DispatchedAt)
	})
	return result, nil
}

func (m *mockDispatchRepo) ListByWorker(_ context.Context, workerID string, offset, limit int) ([]model.Dispatch, int64, error) {
	var filtered []model.Dispatch
	for _, d := range m.dispatches {
		if d.WorkerID == workerID {
			filtered = append(filtered, *d)
		}
	}
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].DispatchedAt.After(filtered[j].DispatchedAt)
	})
	total := int64(len(filtered))
	if offset >= len(filtered) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[offset:end], total, nil
}

func (m *mockDispatchRepo) ListByRequest(_ context.Context, requestID string) ([]model.Dispatch, error) {
	var result []model.Dispatch
	for _, d := range m.dispatches {
		if d.RequestID == requestID {
			result = append(result, *d)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].DispatchedAt.Before(result[j].DispatchedAt)
	})
	return result, nil
}

func (m *mockDispatchRepo) Update(_ context.Context, dispatch *model.Dispatch) error {
	stored, ok := m.dispatches[dispatch.DispatchID]
	if !ok || stored.Version != dispatch.Version {
		return pkgerrors.ErrOptimisticLock
	}
	stored.Status = dispatch.Status
	stored.DispatchType = dispatch.DispatchType
	stored.CompletedAt = dispatch.CompletedAt
	stored.UpdatedBy = dispatch.UpdatedBy
	stored.Version++
	dispatch.Version = stored.Version
	return nil
}

// ── Mock APNSequenceRepository ──

type mockAPNSequenceRepo struct {
	counters map[string]int
}

func newMockAPNSequenceRepo() *mockAPNSequenceRepo {
	return &mockAPNSequenceRepo{counters: make(map[string]int)}
}

func (m *mockAPNSequenceRepo) Next(_ context.Context, bookID string, date time.Time) (int, error) {
	key := bookID + "|" + date.Format("2006-01-02")
	if _, ok := m.counters[key]; !ok {
		m.counters[key] = 0
		return 0, nil
	}
	m.counters[key]++
	return m.counters[key], nil
}

// ── Mock StaffRepository ──

type mockStaffRepo struct {
	staff map[string]*model.Staff
}

func newMockStaffRepo() *mockStaffRepo {
	return &mockStaffRepo{staff: make(map[string]*model.Staff)}
}

func (m *mockStaffRepo) GetByID(_ context.Context, id string) (*model.Staff, error) {
	if s, ok := m.staff[id]; ok {
		c := *s
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStaffRepo) GetByUsername(_ context.Context, username string) (*model.Staff, error) {
	for _, s := range m.staff {
		if s.Username == username {
			c := *s
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── 聚合辅助 ──

// testRepos 聚合所有 mock repo 便于 seed 数据
type testRepos struct {
	book         *mockBookRepo
	registration *mockRegistrationRepo
	activity     *mockActivityRepo
	request      *mockRequestRepo
	bid          *mockBidRepo
	dispatch     *mockDispatchRepo
	apnSequence  *mockAPNSequenceRepo
	staff        *mockStaffRepo
}

func newTestRepos() *testRepos {
	return &testRepos{
		book:         newMockBookRepo(),
		registration: newMockRegistrationRepo(),
		activity:     newMockActivityRepo(),
		request:      newMockRequestRepo(),
		bid:          newMockBidRepo(),
		dispatch:     newMockDispatchRepo(),
		apnSequence:  newMockAPNSequenceRepo(),
		staff:        newMockStaffRepo(),
	}
}

func (r *testRepos) toRepository() *repository.Repository {
	return &repository.Repository{
		Book:         r.book,
		Registration: r.registration,
		Activity:     r.activity,
		Request:      r.request,
		Bid:          r.bid,
		Dispatch:     r.dispatch,
		APNSequence:  r.apnSequence,
		Staff:        r.staff,
	}
}

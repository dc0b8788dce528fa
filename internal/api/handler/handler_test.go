package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"hall-dispatch/backend/internal/dto"
	"hall-dispatch/backend/internal/service"
	pkgerrors "hall-dispatch/backend/pkg/errors"
	"hall-dispatch/backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	loginResult   *dto.TokenResponse
	loginErr      error
	refreshResult *dto.TokenResponse
	refreshErr    error
	logoutErr     error
	meResult      *dto.StaffResponse
	meErr         error
}

func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.TokenResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) Refresh(_ context.Context, _ string) (*dto.TokenResponse, error) {
	return m.refreshResult, m.refreshErr
}
func (m *mockAuthService) Logout(_ context.Context, _ string) error {
	return m.logoutErr
}
func (m *mockAuthService) Me(_ context.Context, _ string) (*dto.StaffResponse, error) {
	return m.meResult, m.meErr
}

// ── Mock RegistrationService ──

type mockRegistrationService struct {
	registerResult *dto.RegistrationResponse
	registerErr    error
	getResult      *dto.RegistrationResponse
	getErr         error
	listResult     []dto.RegistrationResponse
	listErr        error
	queueResult    []dto.RegistrationResponse
	queueErr       error
	markResult     *dto.CheckMarkResponse
	markErr        error
	removeResult   *dto.RegistrationResponse
	removeErr      error
	activities     []dto.ActivityResponse
	activitiesErr  error
}

func (m *mockRegistrationService) Register(_ context.Context, _ *dto.RegisterRequest, _ string) (*dto.RegistrationResponse, error) {
	return m.registerResult, m.registerErr
}
func (m *mockRegistrationService) Get(_ context.Context, _ string) (*dto.RegistrationResponse, error) {
	return m.getResult, m.getErr
}
func (m *mockRegistrationService) ListByWorker(_ context.Context, _ string) ([]dto.RegistrationResponse, error) {
	return m.listResult, m.listErr
}
func (m *mockRegistrationService) NextInQueue(_ context.Context, _ *dto.QueueQueryRequest) ([]dto.RegistrationResponse, error) {
	return m.queueResult, m.queueErr
}
func (m *mockRegistrationService) IssueCheckMark(_ context.Context, _, _ string) (*dto.CheckMarkResponse, error) {
	return m.markResult, m.markErr
}
func (m *mockRegistrationService) Remove(_ context.Context, _ string, _ *dto.RemoveRegistrationRequest, _ string) (*dto.RegistrationResponse, error) {
	return m.removeResult, m.removeErr
}
func (m *mockRegistrationService) ListActivities(_ context.Context, _ string) ([]dto.ActivityResponse, error) {
	return m.activities, m.activitiesErr
}

// ── Mock RequestService ──

type mockRequestService struct {
	submitResult *dto.LaborRequestResponse
	submitErr    error
	getResult    *dto.LaborRequestResponse
	getErr       error
	listResult   []dto.LaborRequestResponse
	listTotal    int64
	listErr      error
	matchResult  *dto.MatchResultResponse
	matchErr     error
	cancelResult *dto.LaborRequestResponse
	cancelErr    error
	expired      int
	expireErr    error
}

func (m *mockRequestService) Submit(_ context.Context, _ *dto.SubmitLaborRequest, _ string) (*dto.LaborRequestResponse, error) {
	return m.submitResult, m.submitErr
}
func (m *mockRequestService) Get(_ context.Context, _ string) (*dto.LaborRequestResponse, error) {
	return m.getResult, m.getErr
}
func (m *mockRequestService) ListByEmployer(_ context.Context, _ string, _ *dto.PaginationRequest) ([]dto.LaborRequestResponse, int64, error) {
	return m.listResult, m.listTotal, m.listErr
}
func (m *mockRequestService) MatchAndDispatch(_ context.Context, _, _ string) (*dto.MatchResultResponse, error) {
	return m.matchResult, m.matchErr
}
func (m *mockRequestService) Cancel(_ context.Context, _ string, _ *dto.CancelLaborRequest, _ string) (*dto.LaborRequestResponse, error) {
	return m.cancelResult, m.cancelErr
}
func (m *mockRequestService) ExpireStale(_ context.Context, _ string) (int, error) {
	return m.expired, m.expireErr
}

// ── Mock DispatchService ──

type mockDispatchService struct {
	getResult     *dto.DispatchResponse
	getErr        error
	activeResult  *dto.DispatchResponse
	activeErr     error
	listResult    []dto.DispatchResponse
	listErr       error
	historyResult []dto.DispatchResponse
	historyTotal  int64
	historyErr    error
	completeRes   *dto.DispatchResponse
	completeErr   error
	convertRes    *dto.DispatchResponse
	convertErr    error
}

func (m *mockDispatchService) Get(_ context.Context, _ string) (*dto.DispatchResponse, error) {
	return m.getResult, m.getErr
}
func (m *mockDispatchService) GetActiveByWorker(_ context.Context, _ string) (*dto.DispatchResponse, error) {
	return m.activeResult, m.activeErr
}
func (m *mockDispatchService) ListActive(_ context.Context) ([]dto.DispatchResponse, error) {
	return m.listResult, m.listErr
}
func (m *mockDispatchService) ListByWorker(_ context.Context, _ string, _ *dto.PaginationRequest) ([]dto.DispatchResponse, int64, error) {
	return m.historyResult, m.historyTotal, m.historyErr
}
func (m *mockDispatchService) Complete(_ context.Context, _ string, _ *dto.CompleteDispatchRequest, _ string) (*dto.DispatchResponse, error) {
	return m.completeRes, m.completeErr
}
func (m *mockDispatchService) ConvertShortCall(_ context.Context, _, _ string) (*dto.DispatchResponse, error) {
	return m.convertRes, m.convertErr
}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportMorningSheet(_ context.Context, _ *dto.MorningQueueQuery) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func setupGin() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

func setAuth(c *gin.Context) {
	c.Set("staff_id", "test-staff-id")
	c.Set("role", "admin")
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Login_Success(t *testing.T) {
	mock := &mockAuthService{
		loginResult: &dto.TokenResponse{
			AccessToken:  "test-access-token",
			RefreshToken: "test-refresh-token",
			ExpiresIn:    900,
		},
	}
	h := NewAuthHandler(mock)

	w := setupGin()
	req := httptest.NewRequest("POST", "/auth/login", jsonBody(dto.LoginRequest{
		Username: "dispatcher01",
		Password: "Test1234",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
}

func TestAuthHandler_Login_BadJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := setupGin()
	req := httptest.NewRequest("POST", "/auth/login", bytes.NewReader([]byte("invalid json")))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{loginErr: service.ErrInvalidCredentials})

	w := setupGin()
	req := httptest.NewRequest("POST", "/auth/login", jsonBody(dto.LoginRequest{
		Username: "dispatcher01",
		Password: "wrong-pass",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 11001 {
		t.Errorf("expected error code 11001, got %d", resp.Code)
	}
}

func TestAuthHandler_Me_Unauthenticated(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := setupGin()
	req := httptest.NewRequest("GET", "/auth/me", nil)

	r := gin.New()
	r.GET("/auth/me", h.Me)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// RegistrationHandler Tests
// ═══════════════════════════════════════════════════════════

func TestRegistrationHandler_Register_Success(t *testing.T) {
	mock := &mockRegistrationService{
		registerResult: &dto.RegistrationResponse{ID: "reg-1", Priority: "45678.00"},
	}
	h := NewRegistrationHandler(mock)

	w := setupGin()
	req := httptest.NewRequest("POST", "/registrations", jsonBody(dto.RegisterRequest{
		WorkerID: "11111111-1111-1111-1111-111111111111",
		BookID:   "22222222-2222-2222-2222-222222222222",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/registrations", func(c *gin.Context) {
		setAuth(c)
		h.Register(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
}

func TestRegistrationHandler_Register_Duplicate(t *testing.T) {
	h := NewRegistrationHandler(&mockRegistrationService{registerErr: service.ErrAlreadyRegistered})

	w := setupGin()
	req := httptest.NewRequest("POST", "/registrations", jsonBody(dto.RegisterRequest{
		WorkerID: "11111111-1111-1111-1111-111111111111",
		BookID:   "22222222-2222-2222-2222-222222222222",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/registrations", func(c *gin.Context) {
		setAuth(c)
		h.Register(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 13102 {
		t.Errorf("expected error code 13102, got %d", resp.Code)
	}
}

func TestRegistrationHandler_NextInQueue_MissingBookID(t *testing.T) {
	h := NewRegistrationHandler(&mockRegistrationService{})

	w := setupGin()
	req := httptest.NewRequest("GET", "/registrations/queue", nil) // no book_id

	r := gin.New()
	r.GET("/registrations/queue", h.NextInQueue)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestRegistrationHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"NotFound", service.ErrRegistrationNotFound, 404, 13101},
		{"BookNotFound", service.ErrBookNotFound, 404, 12101},
		{"Duplicate", service.ErrAlreadyRegistered, 409, 13102},
		{"NotActive", service.ErrRegistrationNotActive, 400, 13103},
		{"SequenceExhausted", service.ErrDailySequenceExhausted, 409, 13105},
		{"OptimisticLock", pkgerrors.ErrOptimisticLock, 409, 13107},
		{"InternalError", errors.New("unknown"), 500, 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewRegistrationHandler(&mockRegistrationService{getErr: tt.err})

			w := setupGin()
			req := httptest.NewRequest("GET", "/registrations/reg-1", nil)

			r := gin.New()
			r.GET("/registrations/:id", h.Get)
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			resp := parseResponse(w)
			if resp.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

// ═══════════════════════════════════════════════════════════
// RequestHandler Tests
// ═══════════════════════════════════════════════════════════

func TestRequestHandler_Submit_Success(t *testing.T) {
	mock := &mockRequestService{
		submitResult: &dto.LaborRequestResponse{ID: "req-1", Status: "open"},
	}
	h := NewRequestHandler(mock)

	w := setupGin()
	req := httptest.NewRequest("POST", "/requests", jsonBody(dto.SubmitLaborRequest{
		EmployerID:       "33333333-3333-3333-3333-333333333333",
		BookID:           "22222222-2222-2222-2222-222222222222",
		WorkersRequested: 3,
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/requests", func(c *gin.Context) {
		setAuth(c)
		h.Submit(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
}

func TestRequestHandler_Match_ClaimConflict(t *testing.T) {
	h := NewRequestHandler(&mockRequestService{matchErr: pkgerrors.ErrClaimConflict})

	w := setupGin()
	req := httptest.NewRequest("POST", "/requests/req-1/match", nil)

	r := gin.New()
	r.POST("/requests/:id/match", func(c *gin.Context) {
		setAuth(c)
		h.Match(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 14107 {
		t.Errorf("expected error code 14107, got %d", resp.Code)
	}
}

func TestRequestHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"NotFound", service.ErrRequestNotFound, 404, 14101},
		{"Terminal", service.ErrRequestTerminal, 409, 14102},
		{"NotOpen", service.ErrRequestNotOpen, 400, 14103},
		{"NamedMissing", service.ErrNamedWorkersMissing, 400, 14104},
		{"NamedNotRegistered", service.ErrNamedWorkerNotRegistered, 400, 14105},
		{"NamedUnavailable", service.ErrNamedWorkerUnavailable, 409, 14106},
		{"ActiveDispatch", pkgerrors.ErrActiveDispatchExists, 409, 14107},
		{"InternalError", errors.New("unknown"), 500, 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewRequestHandler(&mockRequestService{getErr: tt.err})

			w := setupGin()
			req := httptest.NewRequest("GET", "/requests/req-1", nil)

			r := gin.New()
			r.GET("/requests/:id", h.Get)
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			resp := parseResponse(w)
			if resp.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

// ═══════════════════════════════════════════════════════════
// DispatchHandler Tests
// ═══════════════════════════════════════════════════════════

func TestDispatchHandler_Complete_Success(t *testing.T) {
	mock := &mockDispatchService{
		completeRes: &dto.DispatchResponse{ID: "disp-1", Status: "completed"},
	}
	h := NewDispatchHandler(mock)

	w := setupGin()
	req := httptest.NewRequest("POST", "/dispatches/disp-1/complete", jsonBody(dto.CompleteDispatchRequest{
		Outcome: "completed",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/dispatches/:id/complete", func(c *gin.Context) {
		setAuth(c)
		h.Complete(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestDispatchHandler_Complete_BadOutcome(t *testing.T) {
	h := NewDispatchHandler(&mockDispatchService{})

	w := setupGin()
	// binding oneof 校验在 Handler 层拦截
	req := httptest.NewRequest("POST", "/dispatches/disp-1/complete", jsonBody(dto.CompleteDispatchRequest{
		Outcome: "vanished",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/dispatches/:id/complete", func(c *gin.Context) {
		setAuth(c)
		h.Complete(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestDispatchHandler_Complete_Terminal(t *testing.T) {
	h := NewDispatchHandler(&mockDispatchService{completeErr: service.ErrDispatchTerminal})

	w := setupGin()
	req := httptest.NewRequest("POST", "/dispatches/disp-1/complete", jsonBody(dto.CompleteDispatchRequest{
		Outcome: "quit",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/dispatches/:id/complete", func(c *gin.Context) {
		setAuth(c)
		h.Complete(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 15103 {
		t.Errorf("expected error code 15103, got %d", resp.Code)
	}
}

func TestDispatchHandler_GetActive_NotFound(t *testing.T) {
	h := NewDispatchHandler(&mockDispatchService{activeErr: service.ErrNoActiveDispatch})

	w := setupGin()
	req := httptest.NewRequest("GET", "/dispatches/active?worker_id=w-1", nil)

	r := gin.New()
	r.GET("/dispatches/active", h.GetActiveByWorker)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_Success(t *testing.T) {
	buf := bytes.NewBufferString("excel content")
	mock := &mockExportService{
		buf:      buf,
		filename: "晨派单_2026-02-09.xlsx",
	}
	h := NewExportHandler(mock)

	w := setupGin()
	req := httptest.NewRequest("GET", "/export/morning-sheet?target_date=2026-02-09", nil)

	r := gin.New()
	r.GET("/export/morning-sheet", h.ExportMorningSheet)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	ct := w.Header().Get("Content-Type")
	if ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("unexpected content type: %s", ct)
	}
	cd := w.Header().Get("Content-Disposition")
	if cd == "" {
		t.Error("expected Content-Disposition header")
	}
}

func TestExportHandler_NoRequests(t *testing.T) {
	h := NewExportHandler(&mockExportService{err: service.ErrExportNoRequests})

	w := setupGin()
	req := httptest.NewRequest("GET", "/export/morning-sheet?target_date=2026-02-09", nil)

	r := gin.New()
	r.GET("/export/morning-sheet", h.ExportMorningSheet)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

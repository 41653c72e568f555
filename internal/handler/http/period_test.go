package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agilabus/ftms-backend-go/internal/domain/period"
	"github.com/agilabus/ftms-backend-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPeriodID  = "01923e4d-5a6b-7c8d-9e0f-112233445566"
	testPayrollID = "01923e4d-5a6b-7f00-8a11-223344556677"
	missingID     = "01923e4d-5a6b-7c8d-9e0f-ffffffffffff"
)

// stubPeriodService lets each test script one service call.
type stubPeriodService struct {
	createFn  func(ctx context.Context, req period.CreatePeriodRequest) (period.PeriodResponse, error)
	listFn    func(ctx context.Context, filter period.PeriodFilter) (period.ListPeriodResponse, error)
	getFn     func(ctx context.Context, id string) (period.PeriodDetailResponse, error)
	updateFn  func(ctx context.Context, req period.UpdatePeriodRequest) (period.PeriodResponse, error)
	deleteFn  func(ctx context.Context, req period.DeletePeriodRequest) error
	processFn func(ctx context.Context, req period.ProcessPeriodRequest) (period.ProcessResult, error)
	releaseFn func(ctx context.Context, id string) (period.PeriodResponse, error)
	payslipFn func(ctx context.Context, periodID, payrollID string) (period.PayslipResponse, error)
}

func (s *stubPeriodService) Create(ctx context.Context, req period.CreatePeriodRequest) (period.PeriodResponse, error) {
	return s.createFn(ctx, req)
}

func (s *stubPeriodService) List(ctx context.Context, filter period.PeriodFilter) (period.ListPeriodResponse, error) {
	return s.listFn(ctx, filter)
}

func (s *stubPeriodService) Get(ctx context.Context, id string) (period.PeriodDetailResponse, error) {
	return s.getFn(ctx, id)
}

func (s *stubPeriodService) Update(ctx context.Context, req period.UpdatePeriodRequest) (period.PeriodResponse, error) {
	return s.updateFn(ctx, req)
}

func (s *stubPeriodService) Delete(ctx context.Context, req period.DeletePeriodRequest) error {
	return s.deleteFn(ctx, req)
}

func (s *stubPeriodService) Process(ctx context.Context, req period.ProcessPeriodRequest) (period.ProcessResult, error) {
	return s.processFn(ctx, req)
}

func (s *stubPeriodService) Release(ctx context.Context, id string) (period.PeriodResponse, error) {
	return s.releaseFn(ctx, id)
}

func (s *stubPeriodService) Payslip(ctx context.Context, periodID, payrollID string) (period.PayslipResponse, error) {
	return s.payslipFn(ctx, periodID, payrollID)
}

func testRouter(svc period.Service) *chi.Mux {
	h := NewPeriodHandler(svc)
	r := chi.NewRouter()
	r.Route("/api/v1/admin/payroll-periods", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Post("/{id}/process", h.Process)
		r.Post("/{id}/release", h.Release)
		r.Get("/{id}/payrolls/{payrollId}/payslip", h.Payslip)
	})
	return r
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

func doRequest(t *testing.T, router *chi.Mux, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestCreatePeriodHandler_Created(t *testing.T) {
	svc := &stubPeriodService{
		createFn: func(ctx context.Context, req period.CreatePeriodRequest) (period.PeriodResponse, error) {
			assert.Equal(t, "2026-01A", req.Code)
			return period.PeriodResponse{ID: testPeriodID, Code: req.Code, Status: "DRAFT"}, nil
		},
	}

	rec, env := doRequest(t, testRouter(svc), http.MethodPost, "/api/v1/admin/payroll-periods", map[string]string{
		"code":         "2026-01A",
		"period_start": "2026-01-01",
		"period_end":   "2026-01-15",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)

	var data period.PeriodResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, testPeriodID, data.ID)
}

func TestCreatePeriodHandler_InvalidBody(t *testing.T) {
	svc := &stubPeriodService{}
	router := testRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/payroll-periods", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreatePeriodHandler_StatusMapping(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation error", validator.ValidationErrors{{Field: "code", Message: "required"}}, http.StatusUnprocessableEntity},
		{"overlap", period.ErrPeriodOverlap, http.StatusBadRequest},
		{"duplicate code", period.ErrCodeExists, http.StatusConflict},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubPeriodService{
				createFn: func(ctx context.Context, req period.CreatePeriodRequest) (period.PeriodResponse, error) {
					return period.PeriodResponse{}, tc.err
				},
			}

			rec, env := doRequest(t, testRouter(svc), http.MethodPost, "/api/v1/admin/payroll-periods", map[string]string{"code": "x"})
			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.False(t, env.Success)
		})
	}
}

func TestListPeriodsHandler_ParsesQuery(t *testing.T) {
	var captured period.PeriodFilter
	svc := &stubPeriodService{
		listFn: func(ctx context.Context, filter period.PeriodFilter) (period.ListPeriodResponse, error) {
			captured = filter
			return period.ListPeriodResponse{
				Data:       []period.PeriodResponse{{ID: testPeriodID}},
				TotalCount: 1,
				Page:       filter.Page,
				Limit:      filter.Limit,
				TotalPages: 1,
			}, nil
		},
	}

	rec, env := doRequest(t, testRouter(svc), http.MethodGet,
		"/api/v1/admin/payroll-periods?page=2&limit=5&status=DRAFT&start_from=2026-01-01&search=2026&include_deleted=true", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, 2, captured.Page)
	assert.Equal(t, 5, captured.Limit)
	require.NotNil(t, captured.Status)
	assert.Equal(t, "DRAFT", *captured.Status)
	require.NotNil(t, captured.StartFrom)
	assert.Equal(t, "2026", captured.Search)
	assert.True(t, captured.IncludeDeleted)
}

func TestListPeriodsHandler_IgnoresBadPaging(t *testing.T) {
	svc := &stubPeriodService{
		listFn: func(ctx context.Context, filter period.PeriodFilter) (period.ListPeriodResponse, error) {
			assert.Equal(t, 1, filter.Page)
			assert.Equal(t, 20, filter.Limit)
			return period.ListPeriodResponse{}, nil
		},
	}

	rec, _ := doRequest(t, testRouter(svc), http.MethodGet, "/api/v1/admin/payroll-periods?page=-1&limit=abc", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetPeriodHandler_NotFound(t *testing.T) {
	svc := &stubPeriodService{
		getFn: func(ctx context.Context, id string) (period.PeriodDetailResponse, error) {
			return period.PeriodDetailResponse{}, period.ErrPeriodNotFound
		},
	}

	rec, env := doRequest(t, testRouter(svc), http.MethodGet, "/api/v1/admin/payroll-periods/"+missingID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)
}

func TestGetPeriodHandler_RejectsMalformedID(t *testing.T) {
	// The stub has no getFn wired, so reaching the service would panic.
	svc := &stubPeriodService{}

	rec, env := doRequest(t, testRouter(svc), http.MethodGet, "/api/v1/admin/payroll-periods/period-404", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
}

func TestUpdatePeriodHandler_ReleasedIsBadRequest(t *testing.T) {
	svc := &stubPeriodService{
		updateFn: func(ctx context.Context, req period.UpdatePeriodRequest) (period.PeriodResponse, error) {
			assert.Equal(t, testPeriodID, req.ID)
			return period.PeriodResponse{}, period.ErrPeriodReleased
		},
	}

	rec, _ := doRequest(t, testRouter(svc), http.MethodPatch, "/api/v1/admin/payroll-periods/"+testPeriodID, map[string]string{"code": "2026-01X"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeletePeriodHandler_PassesReason(t *testing.T) {
	svc := &stubPeriodService{
		deleteFn: func(ctx context.Context, req period.DeletePeriodRequest) error {
			assert.Equal(t, testPeriodID, req.ID)
			assert.Equal(t, "duplicate entry", req.Reason)
			return nil
		},
	}

	rec, env := doRequest(t, testRouter(svc), http.MethodDelete, "/api/v1/admin/payroll-periods/"+testPeriodID, map[string]string{"reason": "duplicate entry"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
}

func TestProcessPeriodHandler_EmptyBody(t *testing.T) {
	svc := &stubPeriodService{
		processFn: func(ctx context.Context, req period.ProcessPeriodRequest) (period.ProcessResult, error) {
			assert.Equal(t, testPeriodID, req.ID)
			assert.Nil(t, req.EmployeeNumber)
			return period.ProcessResult{Attempted: 2, Processed: 2, Status: "PARTIAL"}, nil
		},
	}

	rec, env := doRequest(t, testRouter(svc), http.MethodPost, "/api/v1/admin/payroll-periods/"+testPeriodID+"/process", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	var result period.ProcessResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 2, result.Processed)
}

func TestProcessPeriodHandler_EmployeeFilter(t *testing.T) {
	svc := &stubPeriodService{
		processFn: func(ctx context.Context, req period.ProcessPeriodRequest) (period.ProcessResult, error) {
			require.NotNil(t, req.EmployeeNumber)
			assert.Equal(t, "EMP-002", *req.EmployeeNumber)
			return period.ProcessResult{Attempted: 1, Processed: 1, Status: "PARTIAL"}, nil
		},
	}

	rec, _ := doRequest(t, testRouter(svc), http.MethodPost, "/api/v1/admin/payroll-periods/"+testPeriodID+"/process",
		map[string]string{"employee_number": "EMP-002"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProcessPeriodHandler_MalformedBody(t *testing.T) {
	svc := &stubPeriodService{}
	router := testRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/payroll-periods/"+testPeriodID+"/process",
		bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// An empty body is fine, a broken one is the caller's mistake.
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReleasePeriodHandler_StatusMapping(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"success", nil, http.StatusOK},
		{"still draft", period.ErrPeriodNotProcessed, http.StatusBadRequest},
		{"already released", period.ErrPeriodReleased, http.StatusBadRequest},
		{"lost race", period.ErrConcurrentUpdate, http.StatusConflict},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubPeriodService{
				releaseFn: func(ctx context.Context, id string) (period.PeriodResponse, error) {
					if tc.err != nil {
						return period.PeriodResponse{}, tc.err
					}
					return period.PeriodResponse{ID: id, Status: "RELEASED"}, nil
				},
			}

			rec, _ := doRequest(t, testRouter(svc), http.MethodPost, "/api/v1/admin/payroll-periods/"+testPeriodID+"/release", nil)
			assert.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}

func TestPayslipHandler(t *testing.T) {
	svc := &stubPeriodService{
		payslipFn: func(ctx context.Context, periodID, payrollID string) (period.PayslipResponse, error) {
			assert.Equal(t, testPeriodID, periodID)
			assert.Equal(t, testPayrollID, payrollID)
			return period.PayslipResponse{PeriodCode: "2026-01A", EmployeeNumber: "EMP-001"}, nil
		},
	}

	rec, env := doRequest(t, testRouter(svc), http.MethodGet, "/api/v1/admin/payroll-periods/"+testPeriodID+"/payrolls/"+testPayrollID+"/payslip", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var slip period.PayslipResponse
	require.NoError(t, json.Unmarshal(env.Data, &slip))
	assert.Equal(t, "2026-01A", slip.PeriodCode)
}

func TestPayslipHandler_NotFound(t *testing.T) {
	svc := &stubPeriodService{
		payslipFn: func(ctx context.Context, periodID, payrollID string) (period.PayslipResponse, error) {
			return period.PayslipResponse{}, period.ErrPayrollNotFound
		},
	}

	rec, _ := doRequest(t, testRouter(svc), http.MethodGet, "/api/v1/admin/payroll-periods/"+testPeriodID+"/payrolls/"+missingID+"/payslip", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPayslipHandler_RejectsMalformedPayrollID(t *testing.T) {
	svc := &stubPeriodService{}

	rec, env := doRequest(t, testRouter(svc), http.MethodGet, "/api/v1/admin/payroll-periods/"+testPeriodID+"/payrolls/payroll-9/payslip", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
}

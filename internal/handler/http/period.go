package http

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"

	"github.com/agilabus/ftms-backend-go/internal/domain/audit"
	"github.com/agilabus/ftms-backend-go/internal/domain/period"
	"github.com/agilabus/ftms-backend-go/internal/handler/http/response"
	"github.com/agilabus/ftms-backend-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type PeriodHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
	Process(w http.ResponseWriter, r *http.Request)
	Release(w http.ResponseWriter, r *http.Request)
	Payslip(w http.ResponseWriter, r *http.Request)
}

type periodHandlerImpl struct {
	periodService period.Service
}

func NewPeriodHandler(periodService period.Service) PeriodHandler {
	return &periodHandlerImpl{periodService: periodService}
}

// periodID validates the {id} URL param before it reaches the repository.
// IDs are UUIDv7, so anything else can be rejected without a round trip.
func periodID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if !validator.IsValidUUID(id) {
		response.BadRequest(w, "Invalid period ID", nil)
		return "", false
	}
	return id, true
}

// withRequestMeta captures IP and user agent for the audit trail.
func withRequestMeta(r *http.Request) *http.Request {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ip = host
	}
	ctx := audit.WithRequestMeta(r.Context(), audit.RequestMeta{
		IP:        ip,
		UserAgent: r.UserAgent(),
	})
	return r.WithContext(ctx)
}

func (h *periodHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	r = withRequestMeta(r)

	var req period.CreatePeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.periodService.Create(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Payroll period created", result)
}

func (h *periodHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := period.PeriodFilter{
		Page:  1,
		Limit: 20,
	}

	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		if page, err := strconv.Atoi(pageStr); err == nil && page > 0 {
			filter.Page = page
		}
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = &status
	}
	if fromStr := r.URL.Query().Get("start_from"); fromStr != "" {
		if from, ok := validator.IsValidDate(fromStr); ok {
			filter.StartFrom = &from
		}
	}
	if toStr := r.URL.Query().Get("start_to"); toStr != "" {
		if to, ok := validator.IsValidDate(toStr); ok {
			filter.StartTo = &to
		}
	}
	filter.Search = r.URL.Query().Get("search")
	filter.IncludeDeleted = r.URL.Query().Get("include_deleted") == "true"

	result, err := h.periodService.List(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Data, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalCount,
		TotalPages: result.TotalPages,
	})
}

func (h *periodHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := periodID(w, r)
	if !ok {
		return
	}

	result, err := h.periodService.Get(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *periodHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	r = withRequestMeta(r)

	id, ok := periodID(w, r)
	if !ok {
		return
	}

	var req period.UpdatePeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = id

	result, err := h.periodService.Update(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *periodHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	r = withRequestMeta(r)

	id, ok := periodID(w, r)
	if !ok {
		return
	}

	var req period.DeletePeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = id

	if err := h.periodService.Delete(r.Context(), req); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll period deleted successfully", nil)
}

func (h *periodHandlerImpl) Process(w http.ResponseWriter, r *http.Request) {
	r = withRequestMeta(r)

	id, ok := periodID(w, r)
	if !ok {
		return
	}

	req := period.ProcessPeriodRequest{ID: id}
	// Body is optional: an empty body processes all eligible employees. A
	// non-empty body that fails to decode is still a caller error.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.periodService.Process(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll period processed", result)
}

func (h *periodHandlerImpl) Release(w http.ResponseWriter, r *http.Request) {
	r = withRequestMeta(r)

	id, ok := periodID(w, r)
	if !ok {
		return
	}

	result, err := h.periodService.Release(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll period released", result)
}

func (h *periodHandlerImpl) Payslip(w http.ResponseWriter, r *http.Request) {
	id, ok := periodID(w, r)
	if !ok {
		return
	}
	payrollID := chi.URLParam(r, "payrollId")
	if !validator.IsValidUUID(payrollID) {
		response.BadRequest(w, "Invalid payroll ID", nil)
		return
	}

	result, err := h.periodService.Payslip(r.Context(), id, payrollID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

package period

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/agilabus/ftms-backend-go/internal/domain/audit"
	"github.com/agilabus/ftms-backend-go/internal/domain/hrsync"
	"github.com/agilabus/ftms-backend-go/internal/domain/period"
	"github.com/agilabus/ftms-backend-go/internal/pkg/validator"
	"github.com/go-chi/jwtauth/v5"
)

const auditModule = "payroll_period"

type PeriodServiceImpl struct {
	repo       period.Repository
	hrSource   hrsync.Source
	hrNotifier hrsync.Notifier
	auditLog   audit.Logger
}

func NewPeriodService(
	repo period.Repository,
	hrSource hrsync.Source,
	hrNotifier hrsync.Notifier,
	auditLog audit.Logger,
) period.Service {
	return &PeriodServiceImpl{
		repo:       repo,
		hrSource:   hrSource,
		hrNotifier: hrNotifier,
		auditLog:   auditLog,
	}
}

// Helper to get the acting user from JWT context
func actorFromContext(ctx context.Context) (audit.Actor, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return audit.Actor{}, fmt.Errorf("failed to extract claims from context: %w", err)
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return audit.Actor{}, fmt.Errorf("user_id claim is missing or invalid")
	}

	name, _ := claims["name"].(string)
	role, _ := claims["role"].(string)

	return audit.Actor{ID: userID, Name: name, Role: role}, nil
}

func (s *PeriodServiceImpl) audit(ctx context.Context, actor audit.Actor, action audit.Action, recordID string, before, after any, reason string) {
	s.auditLog.Log(ctx, audit.Event{
		Module:     auditModule,
		Action:     action,
		Actor:      actor,
		RecordID:   recordID,
		Before:     before,
		After:      after,
		Reason:     reason,
		Meta:       audit.RequestMetaFromContext(ctx),
		OccurredAt: time.Now(),
	})
}

// ========== CREATE ==========

func (s *PeriodServiceImpl) Create(ctx context.Context, req period.CreatePeriodRequest) (period.PeriodResponse, error) {
	if err := req.Validate(); err != nil {
		return period.PeriodResponse{}, err
	}

	actor, err := actorFromContext(ctx)
	if err != nil {
		return period.PeriodResponse{}, err
	}

	start, end, _ := validator.IsValidDateRange(req.PeriodStart, req.PeriodEnd)

	if err := s.checkOverlap(ctx, start, end, ""); err != nil {
		return period.PeriodResponse{}, err
	}

	created, err := s.repo.Create(ctx, period.PayrollPeriod{
		Code:        req.Code,
		PeriodStart: start,
		PeriodEnd:   end,
		Status:      period.StatusDraft,
		CreatedBy:   actor.ID,
	})
	if err != nil {
		return period.PeriodResponse{}, err
	}

	resp := mapToPeriodResponse(created)
	s.audit(ctx, actor, audit.ActionCreate, created.ID, nil, resp, "")
	return resp, nil
}

// checkOverlap fails when [start, end] intersects any non-deleted period
// other than excludeID. Both bounds are inclusive:
// existing.start <= new.end AND new.start <= existing.end.
func (s *PeriodServiceImpl) checkOverlap(ctx context.Context, start, end time.Time, excludeID string) error {
	existing, err := s.repo.ListActive(ctx)
	if err != nil {
		return err
	}
	for _, p := range existing {
		if p.ID == excludeID {
			continue
		}
		if validator.RangesOverlap(p.PeriodStart, p.PeriodEnd, start, end) {
			return fmt.Errorf("%w: %s", period.ErrPeriodOverlap, p.Code)
		}
	}
	return nil
}

// ========== LIST ==========

func (s *PeriodServiceImpl) List(ctx context.Context, filter period.PeriodFilter) (period.ListPeriodResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}

	periods, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return period.ListPeriodResponse{}, err
	}

	data := make([]period.PeriodResponse, 0, len(periods))
	for _, p := range periods {
		data = append(data, mapToPeriodResponse(p))
	}

	return period.ListPeriodResponse{
		Data:       data,
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
	}, nil
}

// ========== GET ==========

func (s *PeriodServiceImpl) Get(ctx context.Context, id string) (period.PeriodDetailResponse, error) {
	p, err := s.repo.GetDetail(ctx, id)
	if err != nil {
		return period.PeriodDetailResponse{}, err
	}

	detail := period.PeriodDetailResponse{
		PeriodResponse: mapToPeriodResponse(p),
		Payrolls:       make([]period.PayrollResponse, 0, len(p.Payrolls)),
	}
	for _, payroll := range p.Payrolls {
		detail.Payrolls = append(detail.Payrolls, mapToPayrollResponse(payroll))
	}
	return detail, nil
}

// ========== UPDATE ==========

func (s *PeriodServiceImpl) Update(ctx context.Context, req period.UpdatePeriodRequest) (period.PeriodResponse, error) {
	if err := req.Validate(); err != nil {
		return period.PeriodResponse{}, err
	}

	actor, err := actorFromContext(ctx)
	if err != nil {
		return period.PeriodResponse{}, err
	}

	current, err := s.repo.GetByID(ctx, req.ID)
	if err != nil {
		return period.PeriodResponse{}, err
	}
	if current.Status == period.StatusReleased {
		return period.PeriodResponse{}, period.ErrPeriodReleased
	}

	before := mapToPeriodResponse(current)

	patched := current
	if req.Code != nil {
		patched.Code = *req.Code
	}
	if req.PeriodStart != nil {
		start, _ := validator.IsValidDate(*req.PeriodStart)
		patched.PeriodStart = start
	}
	if req.PeriodEnd != nil {
		end, _ := validator.IsValidDate(*req.PeriodEnd)
		patched.PeriodEnd = end
	}
	if req.Status != nil {
		next := period.Status(*req.Status)
		if current.Status == period.StatusPartial && next == period.StatusDraft {
			return period.PeriodResponse{}, period.ErrStatusRegression
		}
		patched.Status = next
	}

	if patched.PeriodEnd.Before(patched.PeriodStart) {
		return period.PeriodResponse{}, validator.ValidationErrors{
			{Field: "period_end", Message: "must not be before period_start"},
		}
	}

	datesChanged := !patched.PeriodStart.Equal(current.PeriodStart) || !patched.PeriodEnd.Equal(current.PeriodEnd)
	if datesChanged {
		if err := s.checkOverlap(ctx, patched.PeriodStart, patched.PeriodEnd, current.ID); err != nil {
			return period.PeriodResponse{}, err
		}
	}

	updated, err := s.repo.Update(ctx, patched)
	if err != nil {
		return period.PeriodResponse{}, err
	}

	resp := mapToPeriodResponse(updated)
	s.audit(ctx, actor, audit.ActionUpdate, updated.ID, before, resp, "")
	return resp, nil
}

// ========== DELETE ==========

func (s *PeriodServiceImpl) Delete(ctx context.Context, req period.DeletePeriodRequest) error {
	if validator.IsEmpty(req.Reason) {
		return period.ErrDeleteReasonRequired
	}

	actor, err := actorFromContext(ctx)
	if err != nil {
		return err
	}

	current, err := s.repo.GetByID(ctx, req.ID)
	if err != nil {
		return err
	}
	if current.Status == period.StatusReleased {
		return period.ErrPeriodReleased
	}

	if err := s.repo.SoftDelete(ctx, req.ID); err != nil {
		return err
	}

	s.audit(ctx, actor, audit.ActionDelete, req.ID, mapToPeriodResponse(current), nil, req.Reason)
	return nil
}

// ========== PROCESS ==========

func (s *PeriodServiceImpl) Process(ctx context.Context, req period.ProcessPeriodRequest) (period.ProcessResult, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return period.ProcessResult{}, err
	}

	p, err := s.repo.GetByID(ctx, req.ID)
	if err != nil {
		return period.ProcessResult{}, err
	}
	if p.Status != period.StatusDraft && p.Status != period.StatusPartial {
		return period.ProcessResult{}, period.ErrPeriodNotProcessable
	}

	records, fetchErrs, err := s.hrSource.FetchEmployees(ctx, p.PeriodStart, p.PeriodEnd, req.EmployeeNumber)
	if err != nil {
		return period.ProcessResult{}, fmt.Errorf("failed to fetch hr employees: %w", err)
	}

	// Per-employee failures never abort the batch. Records the source could
	// not decode count as attempted and surface in the same error map.
	result := period.ProcessResult{
		Attempted: len(records) + len(fetchErrs),
		Errors:    make(map[string]string),
	}
	for employee, msg := range fetchErrs {
		result.Errors[employee] = msg
	}
	for _, rec := range records {
		payroll, err := buildPayroll(p.ID, rec, p.PeriodStart, p.PeriodEnd)
		if err != nil {
			result.Errors[rec.EmployeeNumber] = err.Error()
			continue
		}
		if _, err := s.repo.UpsertPayroll(ctx, payroll); err != nil {
			result.Errors[rec.EmployeeNumber] = err.Error()
			continue
		}
		result.Processed++
	}

	totals, err := s.repo.RecalculateTotals(ctx, p.ID)
	if err != nil {
		return period.ProcessResult{}, err
	}
	result.TotalEmployees = totals.TotalEmployees
	result.TotalGross = totals.TotalGross
	result.TotalDeductions = totals.TotalDeductions
	result.TotalNet = totals.TotalNet

	// Status-guarded transition so a concurrent release cannot be overwritten.
	ok, err := s.repo.TransitionStatus(ctx, p.ID, []period.Status{period.StatusDraft, period.StatusPartial}, period.StatusPartial)
	if err != nil {
		return period.ProcessResult{}, err
	}
	if !ok {
		return period.ProcessResult{}, period.ErrConcurrentUpdate
	}
	result.Status = string(period.StatusPartial)

	if len(result.Errors) == 0 {
		result.Errors = nil
	}

	s.audit(ctx, actor, audit.ActionUpdate, p.ID, nil, result, "")
	return result, nil
}

// ========== RELEASE ==========

func (s *PeriodServiceImpl) Release(ctx context.Context, id string) (period.PeriodResponse, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return period.PeriodResponse{}, err
	}

	p, err := s.repo.GetDetail(ctx, id)
	if err != nil {
		return period.PeriodResponse{}, err
	}
	if p.Status == period.StatusDraft {
		return period.PeriodResponse{}, period.ErrPeriodNotProcessed
	}
	if p.Status == period.StatusReleased {
		return period.PeriodResponse{}, period.ErrPeriodReleased
	}

	released, err := s.repo.Release(ctx, id, actor.ID, time.Now())
	if err != nil {
		return period.PeriodResponse{}, err
	}

	// Notified only once the release is committed, so a lost race or failed
	// update can never leak a phantom payload to HR. Delivery itself is best
	// effort: failures are retried and logged by the notifier, never failing
	// the release.
	notice := hrsync.DisbursementNotice{
		PeriodCode:  p.Code,
		PeriodStart: p.PeriodStart.Format("2006-01-02"),
		PeriodEnd:   p.PeriodEnd.Format("2006-01-02"),
		ReleasedBy:  actor.ID,
	}
	for _, payroll := range p.Payrolls {
		notice.Lines = append(notice.Lines, disbursementLine(payroll))
	}
	_ = s.hrNotifier.NotifyDisbursement(ctx, notice)

	resp := mapToPeriodResponse(released)
	s.audit(ctx, actor, audit.ActionApprove, id, mapToPeriodResponse(p), resp, "")
	return resp, nil
}

// ========== PAYSLIP ==========

func (s *PeriodServiceImpl) Payslip(ctx context.Context, periodID, payrollID string) (period.PayslipResponse, error) {
	p, err := s.repo.GetDetail(ctx, periodID)
	if err != nil {
		return period.PayslipResponse{}, err
	}

	for _, payroll := range p.Payrolls {
		if payroll.ID != payrollID {
			continue
		}

		slip := period.PayslipResponse{
			PeriodCode:     p.Code,
			PeriodStart:    p.PeriodStart.Format("2006-01-02"),
			PeriodEnd:      p.PeriodEnd.Format("2006-01-02"),
			EmployeeNumber: payroll.EmployeeNumber,
			EmployeeName:   payroll.EmployeeName,
			RateType:       payroll.RateType,
			BasicRate:      payroll.BasicRate,
			Attendance:     period.ComputeAttendanceStats(payroll.Attendance),
			GrossPay:       payroll.GrossPay,
			TotalDeduction: payroll.TotalDeductions,
			NetPay:         payroll.NetPay,
			Status:         string(payroll.Status),
		}
		for _, item := range payroll.Items {
			mapped := mapToItemResponse(item)
			if item.Category == period.ItemCategoryBenefit {
				slip.Benefits = append(slip.Benefits, mapped)
			} else {
				slip.Deductions = append(slip.Deductions, mapped)
			}
		}
		return slip, nil
	}

	return period.PayslipResponse{}, period.ErrPayrollNotFound
}

// ========== HELPERS ==========

func mapToPeriodResponse(p period.PayrollPeriod) period.PeriodResponse {
	var approvedAt *string
	if p.ApprovedAt != nil {
		str := p.ApprovedAt.Format(time.RFC3339)
		approvedAt = &str
	}

	return period.PeriodResponse{
		ID:              p.ID,
		Code:            p.Code,
		PeriodStart:     p.PeriodStart.Format("2006-01-02"),
		PeriodEnd:       p.PeriodEnd.Format("2006-01-02"),
		Status:          string(p.Status),
		TotalEmployees:  p.TotalEmployees,
		TotalGross:      p.TotalGross,
		TotalDeductions: p.TotalDeductions,
		TotalNet:        p.TotalNet,
		ApprovedBy:      p.ApprovedBy,
		ApprovedAt:      approvedAt,
		CreatedBy:       p.CreatedBy,
		CreatedAt:       p.CreatedAt.Format(time.RFC3339),
	}
}

func mapToPayrollResponse(p period.Payroll) period.PayrollResponse {
	resp := period.PayrollResponse{
		ID:              p.ID,
		EmployeeNumber:  p.EmployeeNumber,
		EmployeeName:    p.EmployeeName,
		RateType:        p.RateType,
		BasicRate:       p.BasicRate,
		TotalBenefits:   p.TotalBenefits,
		TotalDeductions: p.TotalDeductions,
		GrossPay:        p.GrossPay,
		NetPay:          p.NetPay,
		Status:          string(p.Status),
		Attendance:      period.ComputeAttendanceStats(p.Attendance),
	}
	for _, item := range p.Items {
		resp.Items = append(resp.Items, mapToItemResponse(item))
	}
	return resp
}

func mapToItemResponse(item period.PayrollItem) period.PayrollItemResponse {
	return period.PayrollItemResponse{
		Category: string(item.Category),
		TypeName: item.TypeName,
		Amount:   item.Amount,
		Quantity: item.Quantity,
		Rate:     item.Rate,
	}
}

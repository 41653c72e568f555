package period

import (
	"context"
)

// Service defines the payroll period lifecycle operations.
//
// State machine:
//
//	DRAFT --Process--> PARTIAL --Process (repeatable)--> PARTIAL
//	PARTIAL --Release--> RELEASED (terminal; update/delete forbidden)
type Service interface {
	// Create validates the date range, rejects overlaps with any non-deleted
	// period, and inserts a DRAFT period.
	Create(ctx context.Context, req CreatePeriodRequest) (PeriodResponse, error)

	// List supports status, period_start range, code-substring search and
	// soft-delete visibility filters, sorted by period_start descending.
	List(ctx context.Context, filter PeriodFilter) (ListPeriodResponse, error)

	// Get loads the period with nested payroll lines and attendance stats.
	Get(ctx context.Context, id string) (PeriodDetailResponse, error)

	// Update patches a DRAFT or PARTIAL period. RELEASED periods are immutable.
	Update(ctx context.Context, req UpdatePeriodRequest) (PeriodResponse, error)

	// Delete soft-deletes a non-released period. The reason becomes part of
	// the audit trail, not just a log line.
	Delete(ctx context.Context, req DeletePeriodRequest) error

	// Process syncs eligible employees from HR, computes payroll lines and
	// persists them. Per-employee failures are collected, never fatal.
	Process(ctx context.Context, req ProcessPeriodRequest) (ProcessResult, error)

	// Release finalizes the period, notifies HR for disbursement (best
	// effort) and locks the totals.
	Release(ctx context.Context, id string) (PeriodResponse, error)

	// Payslip renders one employee's payslip data for a released or
	// processed period.
	Payslip(ctx context.Context, periodID, payrollID string) (PayslipResponse, error)
}

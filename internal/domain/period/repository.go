package period

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PeriodTotals is the aggregate re-derived from child payroll rows after a
// processing pass.
type PeriodTotals struct {
	TotalEmployees  int
	TotalGross      decimal.Decimal
	TotalDeductions decimal.Decimal
	TotalNet        decimal.Decimal
}

// Repository defines data access for payroll periods and their child rows.
// Every read path excludes soft-deleted periods unless stated otherwise.
type Repository interface {
	Create(ctx context.Context, p PayrollPeriod) (PayrollPeriod, error)
	GetByID(ctx context.Context, id string) (PayrollPeriod, error)
	// GetDetail loads the period with all payroll rows, items and attendance.
	GetDetail(ctx context.Context, id string) (PayrollPeriod, error)
	// ListActive returns all non-deleted periods; used for overlap checks.
	ListActive(ctx context.Context) ([]PayrollPeriod, error)
	List(ctx context.Context, filter PeriodFilter) ([]PayrollPeriod, int64, error)
	Update(ctx context.Context, p PayrollPeriod) (PayrollPeriod, error)
	SoftDelete(ctx context.Context, id string) error

	// TransitionStatus moves a period from any of the given statuses to the
	// target in a single guarded update. Returns false when the stored status
	// no longer matched, i.e. a concurrent writer won.
	TransitionStatus(ctx context.Context, id string, from []Status, to Status) (bool, error)

	// UpsertPayroll writes one employee's line and replaces its item and
	// attendance children, atomically.
	UpsertPayroll(ctx context.Context, p Payroll) (Payroll, error)

	// RecalculateTotals re-derives the period totals from the child rows and
	// persists them, returning the new values.
	RecalculateTotals(ctx context.Context, id string) (PeriodTotals, error)

	// Release stamps approval, moves the period to RELEASED and bulk-updates
	// child payrolls to RELEASED in one transaction. Returns
	// ErrConcurrentUpdate when the period is no longer releasable.
	Release(ctx context.Context, id, approvedBy string, approvedAt time.Time) (PayrollPeriod, error)
}

package period

import (
	"time"

	"github.com/agilabus/ftms-backend-go/internal/domain/hrsync"
	"github.com/shopspring/decimal"
)

// Status enum for the period lifecycle
type Status string

const (
	StatusDraft    Status = "DRAFT"
	StatusPartial  Status = "PARTIAL"
	StatusReleased Status = "RELEASED"
)

// PayrollStatus enum for per-employee lines; mirrors the period lifecycle
type PayrollStatus string

const (
	PayrollStatusProcessed PayrollStatus = "PROCESSED"
	PayrollStatusReleased  PayrollStatus = "RELEASED"
)

// ItemCategory enum
type ItemCategory string

const (
	ItemCategoryBenefit   ItemCategory = "BENEFIT"
	ItemCategoryDeduction ItemCategory = "DEDUCTION"
)

// PayrollPeriod is the aggregate root: a bounded date range over which
// employee compensation is computed and eventually disbursed. Non-deleted
// periods never overlap; totals always equal the sum of the child payroll
// rows once processing has run.
type PayrollPeriod struct {
	ID              string
	Code            string
	PeriodStart     time.Time
	PeriodEnd       time.Time
	Status          Status
	TotalEmployees  int
	TotalGross      decimal.Decimal
	TotalDeductions decimal.Decimal
	TotalNet        decimal.Decimal
	ApprovedBy      *string
	ApprovedAt      *time.Time
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	IsDeleted       bool

	// Loaded on detail reads only
	Payrolls []Payroll
}

// Payroll is one employee's line inside a period. Rows are created by
// processing only, never directly by a user.
type Payroll struct {
	ID              string
	PeriodID        string
	EmployeeNumber  string
	EmployeeName    string
	RateType        string
	BasicRate       decimal.Decimal
	TotalBenefits   decimal.Decimal
	TotalDeductions decimal.Decimal
	GrossPay        decimal.Decimal
	NetPay          decimal.Decimal
	Status          PayrollStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Items      []PayrollItem
	Attendance []PayrollAttendance
}

// PayrollItem is a single benefit or deduction line item. TypeName references
// an externally defined item-type taxonomy.
type PayrollItem struct {
	ID       string
	Payroll  string
	Category ItemCategory
	TypeName string
	Amount   decimal.Decimal
	Quantity *int
	Rate     *decimal.Decimal
}

// PayrollAttendance is one daily attendance record kept for statistics.
type PayrollAttendance struct {
	ID          string
	Payroll     string
	Date        time.Time
	Status      hrsync.AttendanceStatus
	HoursWorked float64
}

// AttendanceStats are the per-employee counts derived on detail reads.
type AttendanceStats struct {
	Present       int     `json:"present"`
	Absent        int     `json:"absent"`
	Late          int     `json:"late"`
	OvertimeHours float64 `json:"overtime_hours"`
}

// ComputeAttendanceStats counts rows by status and sums hours worked on
// Overtime rows.
func ComputeAttendanceStats(rows []PayrollAttendance) AttendanceStats {
	var stats AttendanceStats
	for _, row := range rows {
		switch row.Status {
		case hrsync.AttendancePresent:
			stats.Present++
		case hrsync.AttendanceAbsent:
			stats.Absent++
		case hrsync.AttendanceLate:
			stats.Late++
		case hrsync.AttendanceOvertime:
			stats.OvertimeHours += row.HoursWorked
		}
	}
	return stats
}

package hrsync

import (
	"time"

	"github.com/shopspring/decimal"
)

// AttendanceStatus enum, as reported by the HR service
type AttendanceStatus string

const (
	AttendancePresent  AttendanceStatus = "Present"
	AttendanceAbsent   AttendanceStatus = "Absent"
	AttendanceLate     AttendanceStatus = "Late"
	AttendanceOvertime AttendanceStatus = "Overtime"
)

// EmployeeRecord is one eligible employee with everything needed to compute
// a payroll line for a period window.
type EmployeeRecord struct {
	EmployeeNumber   string
	FirstName        string
	LastName         string
	EmploymentStatus string
	RateType         string
	BasicRate        decimal.Decimal
	Attendance       []AttendanceEntry
	Benefits         []CompensationEntry
	Deductions       []CompensationEntry
}

func (e EmployeeRecord) FullName() string {
	if e.FirstName == "" {
		return e.LastName
	}
	if e.LastName == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

type AttendanceEntry struct {
	Date        time.Time
	Status      AttendanceStatus
	HoursWorked float64
}

// CompensationEntry is a single benefit or deduction assignment. The same
// shape covers both; the owning slice decides which side of the ledger it is.
type CompensationEntry struct {
	TypeName      string
	Value         decimal.Decimal
	Frequency     string
	EffectiveDate *time.Time
	EndDate       *time.Time
	IsActive      bool
}

// ActiveInWindow reports whether the entry counts toward a period. Inactive
// entries are excluded, as are entries whose effective/end window does not
// intersect [start, end].
func (c CompensationEntry) ActiveInWindow(start, end time.Time) bool {
	if !c.IsActive {
		return false
	}
	if c.EffectiveDate != nil && c.EffectiveDate.After(end) {
		return false
	}
	if c.EndDate != nil && c.EndDate.Before(start) {
		return false
	}
	return true
}

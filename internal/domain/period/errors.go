package period

import "errors"

// Payroll period domain errors
var (
	ErrPeriodNotFound  = errors.New("payroll period not found")
	ErrPayrollNotFound = errors.New("payroll record not found")

	// Overlap violations wrap this sentinel with the conflicting code:
	// "period overlaps with existing period: 2026-01A"
	ErrPeriodOverlap = errors.New("period overlaps with existing period")

	ErrCodeExists = errors.New("period code already exists")

	// Lifecycle violations
	ErrPeriodReleased       = errors.New("released period cannot be modified")
	ErrPeriodNotProcessed   = errors.New("period has not been processed yet")
	ErrPeriodNotProcessable = errors.New("period can no longer be processed")
	ErrStatusRegression     = errors.New("period status cannot move backwards")

	ErrDeleteReasonRequired = errors.New("a reason is required to delete a period")

	// Returned when a guarded status transition loses to a concurrent writer.
	ErrConcurrentUpdate = errors.New("period was modified concurrently, retry the operation")
)

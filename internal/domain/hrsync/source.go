package hrsync

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Source is the HR collaborator contract: given a period window and an
// optional employee-number narrowing, return zero or more employee records.
// Implementations exist for the live HTTP service and for a locally
// materialized SQLite read cache of the same shape.
//
// Malformed records never fail the fetch: implementations skip them and
// report them in the second return value, keyed by employee number, so one
// broken record cannot sink the rest of the batch. The error return is
// reserved for whole-fetch failures such as an unreachable source.
type Source interface {
	FetchEmployees(ctx context.Context, start, end time.Time, employeeNumber *string) ([]EmployeeRecord, map[string]string, error)
}

// Notifier delivers the disbursement payload built on period release back to
// the HR system.
type Notifier interface {
	NotifyDisbursement(ctx context.Context, notice DisbursementNotice) error
}

// DisbursementNotice is the payload HR receives when a period is released.
type DisbursementNotice struct {
	PeriodCode  string             `json:"period_code"`
	PeriodStart string             `json:"period_start"`
	PeriodEnd   string             `json:"period_end"`
	ReleasedBy  string             `json:"released_by"`
	Lines       []DisbursementLine `json:"lines"`
}

type DisbursementLine struct {
	EmployeeNumber  string          `json:"employee_number"`
	BasicRate       decimal.Decimal `json:"basic_rate"`
	RateType        string          `json:"rate_type"`
	DaysPresent     int             `json:"days_present"`
	BasicPay        decimal.Decimal `json:"basic_pay"`
	TotalBenefits   decimal.Decimal `json:"total_benefits"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	GrossPay        decimal.Decimal `json:"gross_pay"`
	NetPay          decimal.Decimal `json:"net_pay"`
}

var (
	ErrSourceUnavailable = errors.New("hr data source unavailable")
	ErrMalformedRecord   = errors.New("malformed hr employee record")
)

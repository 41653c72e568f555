package period

import (
	"time"

	"github.com/agilabus/ftms-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== REQUEST DTOs ==========

type CreatePeriodRequest struct {
	Code        string `json:"code"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
}

func (r *CreatePeriodRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Code) {
		errs = append(errs, validator.ValidationError{Field: "code", Message: "is required"})
	} else if !validator.IsValidPeriodCode(r.Code) {
		errs = append(errs, validator.ValidationError{Field: "code", Message: "must be 2-32 letters, digits or dashes"})
	}
	if _, ok := validator.IsValidDate(r.PeriodStart); !ok {
		errs = append(errs, validator.ValidationError{Field: "period_start", Message: "must be a valid date (YYYY-MM-DD)"})
	}
	if _, ok := validator.IsValidDate(r.PeriodEnd); !ok {
		errs = append(errs, validator.ValidationError{Field: "period_end", Message: "must be a valid date (YYYY-MM-DD)"})
	}
	if len(errs) == 0 {
		if _, _, ok := validator.IsValidDateRange(r.PeriodStart, r.PeriodEnd); !ok {
			errs = append(errs, validator.ValidationError{Field: "period_end", Message: "must not be before period_start"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type UpdatePeriodRequest struct {
	ID          string  `json:"-"`
	Code        *string `json:"code,omitempty"`
	PeriodStart *string `json:"period_start,omitempty"`
	PeriodEnd   *string `json:"period_end,omitempty"`
	Status      *string `json:"status,omitempty"`
}

func (r *UpdatePeriodRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Code != nil && !validator.IsValidPeriodCode(*r.Code) {
		errs = append(errs, validator.ValidationError{Field: "code", Message: "must be 2-32 letters, digits or dashes"})
	}
	if r.PeriodStart != nil {
		if _, ok := validator.IsValidDate(*r.PeriodStart); !ok {
			errs = append(errs, validator.ValidationError{Field: "period_start", Message: "must be a valid date (YYYY-MM-DD)"})
		}
	}
	if r.PeriodEnd != nil {
		if _, ok := validator.IsValidDate(*r.PeriodEnd); !ok {
			errs = append(errs, validator.ValidationError{Field: "period_end", Message: "must be a valid date (YYYY-MM-DD)"})
		}
	}
	if r.Status != nil && !validator.IsInSlice(*r.Status, []string{string(StatusDraft), string(StatusPartial)}) {
		errs = append(errs, validator.ValidationError{Field: "status", Message: "must be DRAFT or PARTIAL"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type DeletePeriodRequest struct {
	ID     string `json:"-"`
	Reason string `json:"reason"`
}

type ProcessPeriodRequest struct {
	ID             string  `json:"-"`
	EmployeeNumber *string `json:"employee_number,omitempty"`
}

// PeriodFilter drives list queries. Zero values mean "no filter".
type PeriodFilter struct {
	Status         *string
	StartFrom      *time.Time
	StartTo        *time.Time
	Search         string
	IncludeDeleted bool
	Page           int
	Limit          int
}

// ========== RESPONSE DTOs ==========

type PeriodResponse struct {
	ID              string          `json:"id"`
	Code            string          `json:"code"`
	PeriodStart     string          `json:"period_start"`
	PeriodEnd       string          `json:"period_end"`
	Status          string          `json:"status"`
	TotalEmployees  int             `json:"total_employees"`
	TotalGross      decimal.Decimal `json:"total_gross"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	TotalNet        decimal.Decimal `json:"total_net"`
	ApprovedBy      *string         `json:"approved_by,omitempty"`
	ApprovedAt      *string         `json:"approved_at,omitempty"`
	CreatedBy       string          `json:"created_by"`
	CreatedAt       string          `json:"created_at"`
}

type ListPeriodResponse struct {
	Data       []PeriodResponse `json:"data"`
	TotalCount int64            `json:"total_count"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"total_pages"`
}

type PeriodDetailResponse struct {
	PeriodResponse
	Payrolls []PayrollResponse `json:"payrolls"`
}

type PayrollResponse struct {
	ID              string                `json:"id"`
	EmployeeNumber  string                `json:"employee_number"`
	EmployeeName    string                `json:"employee_name"`
	RateType        string                `json:"rate_type"`
	BasicRate       decimal.Decimal       `json:"basic_rate"`
	TotalBenefits   decimal.Decimal       `json:"total_benefits"`
	TotalDeductions decimal.Decimal       `json:"total_deductions"`
	GrossPay        decimal.Decimal       `json:"gross_pay"`
	NetPay          decimal.Decimal       `json:"net_pay"`
	Status          string                `json:"status"`
	Attendance      AttendanceStats       `json:"attendance"`
	Items           []PayrollItemResponse `json:"items,omitempty"`
}

type PayrollItemResponse struct {
	Category string           `json:"category"`
	TypeName string           `json:"type_name"`
	Amount   decimal.Decimal  `json:"amount"`
	Quantity *int             `json:"quantity,omitempty"`
	Rate     *decimal.Decimal `json:"rate,omitempty"`
}

// ProcessResult summarizes one processing pass. Errors is keyed by employee
// number; a non-empty map does not mean the pass failed.
type ProcessResult struct {
	Attempted       int               `json:"attempted"`
	Processed       int               `json:"processed"`
	TotalEmployees  int               `json:"total_employees"`
	TotalGross      decimal.Decimal   `json:"total_gross"`
	TotalDeductions decimal.Decimal   `json:"total_deductions"`
	TotalNet        decimal.Decimal   `json:"total_net"`
	Status          string            `json:"status"`
	Errors          map[string]string `json:"errors,omitempty"`
}

type PayslipResponse struct {
	PeriodCode     string                `json:"period_code"`
	PeriodStart    string                `json:"period_start"`
	PeriodEnd      string                `json:"period_end"`
	EmployeeNumber string                `json:"employee_number"`
	EmployeeName   string                `json:"employee_name"`
	RateType       string                `json:"rate_type"`
	BasicRate      decimal.Decimal       `json:"basic_rate"`
	Benefits       []PayrollItemResponse `json:"benefits"`
	Deductions     []PayrollItemResponse `json:"deductions"`
	Attendance     AttendanceStats       `json:"attendance"`
	GrossPay       decimal.Decimal       `json:"gross_pay"`
	TotalDeduction decimal.Decimal       `json:"total_deductions"`
	NetPay         decimal.Decimal       `json:"net_pay"`
	Status         string                `json:"status"`
}

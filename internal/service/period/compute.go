package period

import (
	"time"

	"github.com/agilabus/ftms-backend-go/internal/domain/hrsync"
	"github.com/agilabus/ftms-backend-go/internal/domain/period"
	"github.com/shopspring/decimal"
)

// buildPayroll derives one employee's payroll line from the synced HR record:
// gross_pay = basic_rate + active benefits, net_pay = gross_pay - active
// deductions. Inactive entries and entries outside the period window are
// excluded.
func buildPayroll(periodID string, rec hrsync.EmployeeRecord, start, end time.Time) (period.Payroll, error) {
	if rec.EmployeeNumber == "" {
		return period.Payroll{}, hrsync.ErrMalformedRecord
	}
	if rec.BasicRate.IsNegative() {
		return period.Payroll{}, hrsync.ErrMalformedRecord
	}

	p := period.Payroll{
		PeriodID:       periodID,
		EmployeeNumber: rec.EmployeeNumber,
		EmployeeName:   rec.FullName(),
		RateType:       rec.RateType,
		BasicRate:      rec.BasicRate,
		Status:         period.PayrollStatusProcessed,
	}

	totalBenefits := decimal.Zero
	for _, b := range rec.Benefits {
		if !b.ActiveInWindow(start, end) {
			continue
		}
		totalBenefits = totalBenefits.Add(b.Value)
		p.Items = append(p.Items, period.PayrollItem{
			Category: period.ItemCategoryBenefit,
			TypeName: b.TypeName,
			Amount:   b.Value,
		})
	}

	totalDeductions := decimal.Zero
	for _, d := range rec.Deductions {
		if !d.ActiveInWindow(start, end) {
			continue
		}
		totalDeductions = totalDeductions.Add(d.Value)
		p.Items = append(p.Items, period.PayrollItem{
			Category: period.ItemCategoryDeduction,
			TypeName: d.TypeName,
			Amount:   d.Value,
		})
	}

	for _, a := range rec.Attendance {
		p.Attendance = append(p.Attendance, period.PayrollAttendance{
			Date:        a.Date,
			Status:      a.Status,
			HoursWorked: a.HoursWorked,
		})
	}

	p.TotalBenefits = totalBenefits
	p.TotalDeductions = totalDeductions
	p.GrossPay = rec.BasicRate.Add(totalBenefits)
	p.NetPay = p.GrossPay.Sub(totalDeductions)
	return p, nil
}

// disbursementLine maps a persisted payroll row to the HR webhook payload.
// Basic pay is approximate: daily-rated employees are paid per present day,
// everyone else receives the flat basic rate.
func disbursementLine(p period.Payroll) hrsync.DisbursementLine {
	stats := period.ComputeAttendanceStats(p.Attendance)

	basicPay := p.BasicRate
	if p.RateType == "Daily" {
		basicPay = p.BasicRate.Mul(decimal.NewFromInt(int64(stats.Present)))
	}

	return hrsync.DisbursementLine{
		EmployeeNumber:  p.EmployeeNumber,
		BasicRate:       p.BasicRate,
		RateType:        p.RateType,
		DaysPresent:     stats.Present,
		BasicPay:        basicPay,
		TotalBenefits:   p.TotalBenefits,
		TotalDeductions: p.TotalDeductions,
		GrossPay:        p.GrossPay,
		NetPay:          p.NetPay,
	}
}

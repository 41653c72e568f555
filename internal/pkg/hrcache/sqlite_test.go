package hrcache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/agilabus/ftms-backend-go/internal/domain/hrsync"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededCache(t *testing.T) *ReadCache {
	t.Helper()
	cache, err := NewReadCache(filepath.Join(t.TempDir(), "hr_cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	statements := []string{
		`INSERT INTO hr_employees (employee_number, first_name, last_name, employment_status, rate_type, basic_rate)
		 VALUES ('EMP-001', 'Budi', 'Santoso', 'Active', 'Monthly', '20000')`,
		`INSERT INTO hr_employees (employee_number, first_name, last_name, employment_status, rate_type, basic_rate)
		 VALUES ('EMP-002', 'Siti', 'Rahma', 'Active', 'Daily', '1000')`,
		`INSERT INTO hr_attendance (employee_number, date, status, hours_worked)
		 VALUES ('EMP-001', '2026-01-05', 'Present', 8)`,
		`INSERT INTO hr_attendance (employee_number, date, status, hours_worked)
		 VALUES ('EMP-001', '2026-01-07', 'Overtime', 2.5)`,
		`INSERT INTO hr_attendance (employee_number, date, status, hours_worked)
		 VALUES ('EMP-001', '2026-02-01', 'Present', 8)`,
		`INSERT INTO hr_compensations (employee_number, category, type_name, value, frequency, is_active)
		 VALUES ('EMP-001', 'BENEFIT', 'Transport Allowance', '2000', 'Monthly', 1)`,
		`INSERT INTO hr_compensations (employee_number, category, type_name, value, frequency, end_date, is_active)
		 VALUES ('EMP-001', 'DEDUCTION', 'Health Insurance', '1500', 'Monthly', '2026-06-30', 1)`,
	}
	for _, stmt := range statements {
		_, err := cache.db.Exec(stmt)
		require.NoError(t, err)
	}
	return cache
}

func cacheWindow() (time.Time, time.Time) {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
}

func TestReadCache_FetchEmployees(t *testing.T) {
	cache := seededCache(t)
	start, end := cacheWindow()

	records, fetchErrs, err := cache.FetchEmployees(context.Background(), start, end, nil)
	require.NoError(t, err)
	assert.Empty(t, fetchErrs)
	require.Len(t, records, 2)

	rec := records[0]
	assert.Equal(t, "EMP-001", rec.EmployeeNumber)
	assert.Equal(t, "Budi Santoso", rec.FullName())
	assert.True(t, rec.BasicRate.Equal(decimal.NewFromInt(20000)))

	// The February row falls outside the window.
	require.Len(t, rec.Attendance, 2)
	assert.Equal(t, hrsync.AttendancePresent, rec.Attendance[0].Status)
	assert.Equal(t, 2.5, rec.Attendance[1].HoursWorked)

	require.Len(t, rec.Benefits, 1)
	assert.Equal(t, "Transport Allowance", rec.Benefits[0].TypeName)
	require.Len(t, rec.Deductions, 1)
	require.NotNil(t, rec.Deductions[0].EndDate)
	assert.Equal(t, "2026-06-30", rec.Deductions[0].EndDate.Format("2006-01-02"))
}

func TestReadCache_NarrowsToEmployee(t *testing.T) {
	cache := seededCache(t)
	start, end := cacheWindow()

	target := "EMP-002"
	records, _, err := cache.FetchEmployees(context.Background(), start, end, &target)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "EMP-002", records[0].EmployeeNumber)
	assert.Equal(t, "Daily", records[0].RateType)
	assert.Empty(t, records[0].Attendance)
}

func TestReadCache_UnknownEmployee(t *testing.T) {
	cache := seededCache(t)
	start, end := cacheWindow()

	target := "EMP-404"
	records, _, err := cache.FetchEmployees(context.Background(), start, end, &target)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReadCache_BadBasicRate(t *testing.T) {
	cache := seededCache(t)
	_, err := cache.db.Exec(`INSERT INTO hr_employees (employee_number, basic_rate) VALUES ('EMP-BAD', 'abc')`)
	require.NoError(t, err)

	start, end := cacheWindow()
	records, fetchErrs, err := cache.FetchEmployees(context.Background(), start, end, nil)
	require.NoError(t, err)

	// The broken row is skipped and flagged; the healthy rows survive.
	require.Len(t, records, 2)
	assert.Equal(t, "EMP-001", records[0].EmployeeNumber)
	assert.Equal(t, "EMP-002", records[1].EmployeeNumber)
	require.Contains(t, fetchErrs, "EMP-BAD")
	assert.Contains(t, fetchErrs["EMP-BAD"], "basic rate")
}

func TestReadCache_BadAttendanceDate(t *testing.T) {
	cache := seededCache(t)
	// Sorts inside the query window but does not parse as a date.
	_, err := cache.db.Exec(`INSERT INTO hr_attendance (employee_number, date, status, hours_worked)
		VALUES ('EMP-002', '2026-01-0X', 'Present', 8)`)
	require.NoError(t, err)

	start, end := cacheWindow()
	records, fetchErrs, err := cache.FetchEmployees(context.Background(), start, end, nil)
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "EMP-001", records[0].EmployeeNumber)
	require.Contains(t, fetchErrs, "EMP-002")
}

package hrcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/agilabus/ftms-backend-go/internal/domain/hrsync"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// ReadCache is a locally materialized copy of the HR payroll-data shape,
// kept in a SQLite file and refreshed out of band. It implements
// hrsync.Source for environments where the live HR service is unreachable.
type ReadCache struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS hr_employees (
	employee_number   TEXT PRIMARY KEY,
	first_name        TEXT NOT NULL DEFAULT '',
	last_name         TEXT NOT NULL DEFAULT '',
	employment_status TEXT NOT NULL DEFAULT '',
	rate_type         TEXT NOT NULL DEFAULT '',
	basic_rate        TEXT NOT NULL DEFAULT '0'
);
CREATE TABLE IF NOT EXISTS hr_attendance (
	employee_number TEXT NOT NULL,
	date            TEXT NOT NULL,
	status          TEXT NOT NULL,
	hours_worked    REAL NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_hr_attendance_employee_date ON hr_attendance (employee_number, date);
CREATE TABLE IF NOT EXISTS hr_compensations (
	employee_number TEXT NOT NULL,
	category        TEXT NOT NULL,
	type_name       TEXT NOT NULL,
	value           TEXT NOT NULL DEFAULT '0',
	frequency       TEXT NOT NULL DEFAULT '',
	effective_date  TEXT,
	end_date        TEXT,
	is_active       INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_hr_compensations_employee ON hr_compensations (employee_number);
`

func NewReadCache(path string) (*ReadCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open hr cache: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure hr cache schema: %w", err)
	}
	return &ReadCache{db: db}, nil
}

func (c *ReadCache) Close() error {
	return c.db.Close()
}

// FetchEmployees reads the cached employees, their attendance inside the
// window and all compensation assignments. Activity filtering is left to the
// computation layer, same as with the live source. Rows that fail to parse
// are skipped and reported per employee; only infrastructure failures error.
func (c *ReadCache) FetchEmployees(ctx context.Context, start, end time.Time, employeeNumber *string) ([]hrsync.EmployeeRecord, map[string]string, error) {
	query := `
		SELECT employee_number, first_name, last_name, employment_status, rate_type, basic_rate
		FROM hr_employees
	`
	var args []any
	if employeeNumber != nil {
		query += " WHERE employee_number = ?"
		args = append(args, *employeeNumber)
	}
	query += " ORDER BY employee_number"

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", hrsync.ErrSourceUnavailable, err)
	}
	defer rows.Close()

	var records []hrsync.EmployeeRecord
	var malformed map[string]string
	flag := func(employee string, err error) {
		if malformed == nil {
			malformed = make(map[string]string)
		}
		malformed[employee] = err.Error()
	}

	for rows.Next() {
		var rec hrsync.EmployeeRecord
		var rate string
		if err := rows.Scan(&rec.EmployeeNumber, &rec.FirstName, &rec.LastName, &rec.EmploymentStatus, &rec.RateType, &rate); err != nil {
			return nil, nil, fmt.Errorf("scan cached employee: %w", err)
		}
		rec.BasicRate, err = decimal.NewFromString(rate)
		if err != nil {
			flag(rec.EmployeeNumber, fmt.Errorf("%w: bad basic rate %q", hrsync.ErrMalformedRecord, rate))
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate cached employees: %w", err)
	}

	kept := records[:0]
	for i := range records {
		if records[i].Attendance, err = c.attendance(ctx, records[i].EmployeeNumber, start, end); err != nil {
			if errors.Is(err, hrsync.ErrMalformedRecord) {
				flag(records[i].EmployeeNumber, err)
				continue
			}
			return nil, nil, err
		}
		if records[i].Benefits, err = c.compensations(ctx, records[i].EmployeeNumber, "BENEFIT"); err != nil {
			if errors.Is(err, hrsync.ErrMalformedRecord) {
				flag(records[i].EmployeeNumber, err)
				continue
			}
			return nil, nil, err
		}
		if records[i].Deductions, err = c.compensations(ctx, records[i].EmployeeNumber, "DEDUCTION"); err != nil {
			if errors.Is(err, hrsync.ErrMalformedRecord) {
				flag(records[i].EmployeeNumber, err)
				continue
			}
			return nil, nil, err
		}
		kept = append(kept, records[i])
	}
	return kept, malformed, nil
}

func (c *ReadCache) attendance(ctx context.Context, employeeNumber string, start, end time.Time) ([]hrsync.AttendanceEntry, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT date, status, hours_worked
		FROM hr_attendance
		WHERE employee_number = ? AND date >= ? AND date <= ?
		ORDER BY date
	`, employeeNumber, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("query cached attendance: %w", err)
	}
	defer rows.Close()

	var entries []hrsync.AttendanceEntry
	for rows.Next() {
		var dateStr, status string
		var hours float64
		if err := rows.Scan(&dateStr, &status, &hours); err != nil {
			return nil, fmt.Errorf("scan cached attendance: %w", err)
		}
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, fmt.Errorf("%w: bad attendance date %q", hrsync.ErrMalformedRecord, dateStr)
		}
		entries = append(entries, hrsync.AttendanceEntry{
			Date:        date,
			Status:      hrsync.AttendanceStatus(status),
			HoursWorked: hours,
		})
	}
	return entries, rows.Err()
}

func (c *ReadCache) compensations(ctx context.Context, employeeNumber, category string) ([]hrsync.CompensationEntry, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT type_name, value, frequency, effective_date, end_date, is_active
		FROM hr_compensations
		WHERE employee_number = ? AND category = ?
		ORDER BY type_name
	`, employeeNumber, category)
	if err != nil {
		return nil, fmt.Errorf("query cached compensations: %w", err)
	}
	defer rows.Close()

	var entries []hrsync.CompensationEntry
	for rows.Next() {
		var entry hrsync.CompensationEntry
		var value string
		var effective, endDate sql.NullString
		var active int
		if err := rows.Scan(&entry.TypeName, &value, &entry.Frequency, &effective, &endDate, &active); err != nil {
			return nil, fmt.Errorf("scan cached compensation: %w", err)
		}
		entry.Value, err = decimal.NewFromString(value)
		if err != nil {
			return nil, fmt.Errorf("%w: bad compensation value %q", hrsync.ErrMalformedRecord, value)
		}
		entry.IsActive = active != 0
		if effective.Valid {
			d, err := time.Parse("2006-01-02", effective.String)
			if err != nil {
				return nil, fmt.Errorf("%w: bad effective date %q", hrsync.ErrMalformedRecord, effective.String)
			}
			entry.EffectiveDate = &d
		}
		if endDate.Valid {
			d, err := time.Parse("2006-01-02", endDate.String)
			if err != nil {
				return nil, fmt.Errorf("%w: bad end date %q", hrsync.ErrMalformedRecord, endDate.String)
			}
			entry.EndDate = &d
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

package postgresql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/agilabus/ftms-backend-go/internal/domain/period"
	"github.com/agilabus/ftms-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type periodRepository struct {
	db *database.DB
}

func NewPeriodRepository(db *database.DB) period.Repository {
	return &periodRepository{db: db}
}

const periodColumns = `
	id, code, period_start, period_end, status,
	total_employees, total_gross, total_deductions, total_net,
	approved_by, approved_at, created_by, created_at, updated_at, is_deleted
`

func scanPeriod(row pgx.Row) (period.PayrollPeriod, error) {
	var p period.PayrollPeriod
	err := row.Scan(
		&p.ID, &p.Code, &p.PeriodStart, &p.PeriodEnd, &p.Status,
		&p.TotalEmployees, &p.TotalGross, &p.TotalDeductions, &p.TotalNet,
		&p.ApprovedBy, &p.ApprovedAt, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt, &p.IsDeleted,
	)
	return p, err
}

func (r *periodRepository) Create(ctx context.Context, p period.PayrollPeriod) (period.PayrollPeriod, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_periods (code, period_start, period_end, status, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + periodColumns

	created, err := scanPeriod(q.QueryRow(ctx, query, p.Code, p.PeriodStart, p.PeriodEnd, p.Status, p.CreatedBy))
	if err != nil {
		if strings.Contains(err.Error(), "uk_payroll_periods_code") {
			return period.PayrollPeriod{}, period.ErrCodeExists
		}
		return period.PayrollPeriod{}, fmt.Errorf("failed to create payroll period: %w", err)
	}
	return created, nil
}

func (r *periodRepository) GetByID(ctx context.Context, id string) (period.PayrollPeriod, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + periodColumns + ` FROM payroll_periods WHERE id = $1 AND is_deleted = false`

	p, err := scanPeriod(q.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return period.PayrollPeriod{}, period.ErrPeriodNotFound
		}
		return period.PayrollPeriod{}, fmt.Errorf("failed to get payroll period: %w", err)
	}
	return p, nil
}

func (r *periodRepository) GetDetail(ctx context.Context, id string) (period.PayrollPeriod, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return period.PayrollPeriod{}, err
	}

	p.Payrolls, err = r.payrollsForPeriod(ctx, id)
	if err != nil {
		return period.PayrollPeriod{}, err
	}
	return p, nil
}

func (r *periodRepository) payrollsForPeriod(ctx context.Context, periodID string) ([]period.Payroll, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, period_id, employee_number, employee_name, rate_type,
			   basic_rate, total_benefits, total_deductions, gross_pay, net_pay,
			   status, created_at, updated_at
		FROM payrolls
		WHERE period_id = $1
		ORDER BY employee_number
	`, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payrolls: %w", err)
	}
	defer rows.Close()

	var payrolls []period.Payroll
	for rows.Next() {
		var p period.Payroll
		if err := rows.Scan(
			&p.ID, &p.PeriodID, &p.EmployeeNumber, &p.EmployeeName, &p.RateType,
			&p.BasicRate, &p.TotalBenefits, &p.TotalDeductions, &p.GrossPay, &p.NetPay,
			&p.Status, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payroll: %w", err)
		}
		payrolls = append(payrolls, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payrolls: %w", err)
	}

	for i := range payrolls {
		if payrolls[i].Items, err = r.itemsForPayroll(ctx, payrolls[i].ID); err != nil {
			return nil, err
		}
		if payrolls[i].Attendance, err = r.attendanceForPayroll(ctx, payrolls[i].ID); err != nil {
			return nil, err
		}
	}
	return payrolls, nil
}

func (r *periodRepository) itemsForPayroll(ctx context.Context, payrollID string) ([]period.PayrollItem, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, payroll_id, category, type_name, amount, quantity, rate
		FROM payroll_items
		WHERE payroll_id = $1
		ORDER BY category, type_name
	`, payrollID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll items: %w", err)
	}
	defer rows.Close()

	var items []period.PayrollItem
	for rows.Next() {
		var item period.PayrollItem
		if err := rows.Scan(&item.ID, &item.Payroll, &item.Category, &item.TypeName, &item.Amount, &item.Quantity, &item.Rate); err != nil {
			return nil, fmt.Errorf("failed to scan payroll item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *periodRepository) attendanceForPayroll(ctx context.Context, payrollID string) ([]period.PayrollAttendance, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, payroll_id, date, status, hours_worked
		FROM payroll_attendance
		WHERE payroll_id = $1
		ORDER BY date
	`, payrollID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll attendance: %w", err)
	}
	defer rows.Close()

	var entries []period.PayrollAttendance
	for rows.Next() {
		var a period.PayrollAttendance
		if err := rows.Scan(&a.ID, &a.Payroll, &a.Date, &a.Status, &a.HoursWorked); err != nil {
			return nil, fmt.Errorf("failed to scan payroll attendance: %w", err)
		}
		entries = append(entries, a)
	}
	return entries, rows.Err()
}

func (r *periodRepository) ListActive(ctx context.Context) ([]period.PayrollPeriod, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+periodColumns+` FROM payroll_periods WHERE is_deleted = false`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active periods: %w", err)
	}
	defer rows.Close()

	return collectPeriods(rows)
}

func (r *periodRepository) List(ctx context.Context, filter period.PeriodFilter) ([]period.PayrollPeriod, int64, error) {
	q := GetQuerier(ctx, r.db)

	where := []string{}
	args := []interface{}{}
	argIdx := 1

	if !filter.IncludeDeleted {
		where = append(where, "is_deleted = false")
	}
	if filter.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.StartFrom != nil {
		where = append(where, fmt.Sprintf("period_start >= $%d", argIdx))
		args = append(args, *filter.StartFrom)
		argIdx++
	}
	if filter.StartTo != nil {
		where = append(where, fmt.Sprintf("period_start <= $%d", argIdx))
		args = append(args, *filter.StartTo)
		argIdx++
	}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("code ILIKE $%d", argIdx))
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM payroll_periods"+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count payroll periods: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT %s FROM payroll_periods%s ORDER BY period_start DESC LIMIT $%d OFFSET $%d",
		periodColumns, whereClause, argIdx, argIdx+1,
	)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payroll periods: %w", err)
	}
	defer rows.Close()

	periods, err := collectPeriods(rows)
	if err != nil {
		return nil, 0, err
	}
	return periods, total, nil
}

func collectPeriods(rows pgx.Rows) ([]period.PayrollPeriod, error) {
	var periods []period.PayrollPeriod
	for rows.Next() {
		var p period.PayrollPeriod
		if err := rows.Scan(
			&p.ID, &p.Code, &p.PeriodStart, &p.PeriodEnd, &p.Status,
			&p.TotalEmployees, &p.TotalGross, &p.TotalDeductions, &p.TotalNet,
			&p.ApprovedBy, &p.ApprovedAt, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt, &p.IsDeleted,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payroll period: %w", err)
		}
		periods = append(periods, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payroll periods: %w", err)
	}
	return periods, nil
}

func (r *periodRepository) Update(ctx context.Context, p period.PayrollPeriod) (period.PayrollPeriod, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_periods
		SET code = $2, period_start = $3, period_end = $4, status = $5, updated_at = NOW()
		WHERE id = $1 AND is_deleted = false
		RETURNING ` + periodColumns

	updated, err := scanPeriod(q.QueryRow(ctx, query, p.ID, p.Code, p.PeriodStart, p.PeriodEnd, p.Status))
	if err != nil {
		if err == pgx.ErrNoRows {
			return period.PayrollPeriod{}, period.ErrPeriodNotFound
		}
		if strings.Contains(err.Error(), "uk_payroll_periods_code") {
			return period.PayrollPeriod{}, period.ErrCodeExists
		}
		return period.PayrollPeriod{}, fmt.Errorf("failed to update payroll period: %w", err)
	}
	return updated, nil
}

func (r *periodRepository) SoftDelete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_periods
		SET is_deleted = true, updated_at = NOW()
		WHERE id = $1 AND is_deleted = false
		RETURNING id
	`

	var deletedID string
	if err := q.QueryRow(ctx, query, id).Scan(&deletedID); err != nil {
		if err == pgx.ErrNoRows {
			return period.ErrPeriodNotFound
		}
		return fmt.Errorf("failed to soft-delete payroll period: %w", err)
	}
	return nil
}

func (r *periodRepository) TransitionStatus(ctx context.Context, id string, from []period.Status, to period.Status) (bool, error) {
	q := GetQuerier(ctx, r.db)

	fromStrs := make([]string, 0, len(from))
	for _, s := range from {
		fromStrs = append(fromStrs, string(s))
	}

	query := `
		UPDATE payroll_periods
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = ANY($2) AND is_deleted = false
		RETURNING id
	`

	var updatedID string
	err := q.QueryRow(ctx, query, id, fromStrs, string(to)).Scan(&updatedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to transition period status: %w", err)
	}
	return true, nil
}

func (r *periodRepository) UpsertPayroll(ctx context.Context, p period.Payroll) (period.Payroll, error) {
	err := WithTransaction(ctx, r.db, func(txCtx context.Context) error {
		q := GetQuerier(txCtx, r.db)

		query := `
			INSERT INTO payrolls (
				period_id, employee_number, employee_name, rate_type,
				basic_rate, total_benefits, total_deductions, gross_pay, net_pay, status
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (period_id, employee_number) DO UPDATE SET
				employee_name = EXCLUDED.employee_name,
				rate_type = EXCLUDED.rate_type,
				basic_rate = EXCLUDED.basic_rate,
				total_benefits = EXCLUDED.total_benefits,
				total_deductions = EXCLUDED.total_deductions,
				gross_pay = EXCLUDED.gross_pay,
				net_pay = EXCLUDED.net_pay,
				status = EXCLUDED.status,
				updated_at = NOW()
			RETURNING id, created_at, updated_at
		`
		if err := q.QueryRow(txCtx, query,
			p.PeriodID, p.EmployeeNumber, p.EmployeeName, p.RateType,
			p.BasicRate, p.TotalBenefits, p.TotalDeductions, p.GrossPay, p.NetPay, p.Status,
		).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return fmt.Errorf("failed to upsert payroll: %w", err)
		}

		// Children are replaced wholesale on every processing pass.
		if _, err := q.Exec(txCtx, `DELETE FROM payroll_items WHERE payroll_id = $1`, p.ID); err != nil {
			return fmt.Errorf("failed to clear payroll items: %w", err)
		}
		if _, err := q.Exec(txCtx, `DELETE FROM payroll_attendance WHERE payroll_id = $1`, p.ID); err != nil {
			return fmt.Errorf("failed to clear payroll attendance: %w", err)
		}

		for i := range p.Items {
			p.Items[i].Payroll = p.ID
			if err := q.QueryRow(txCtx, `
				INSERT INTO payroll_items (payroll_id, category, type_name, amount, quantity, rate)
				VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING id
			`, p.ID, p.Items[i].Category, p.Items[i].TypeName, p.Items[i].Amount, p.Items[i].Quantity, p.Items[i].Rate,
			).Scan(&p.Items[i].ID); err != nil {
				return fmt.Errorf("failed to insert payroll item: %w", err)
			}
		}

		for i := range p.Attendance {
			p.Attendance[i].Payroll = p.ID
			if err := q.QueryRow(txCtx, `
				INSERT INTO payroll_attendance (payroll_id, date, status, hours_worked)
				VALUES ($1, $2, $3, $4)
				RETURNING id
			`, p.ID, p.Attendance[i].Date, p.Attendance[i].Status, p.Attendance[i].HoursWorked,
			).Scan(&p.Attendance[i].ID); err != nil {
				return fmt.Errorf("failed to insert payroll attendance: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return period.Payroll{}, err
	}
	return p, nil
}

func (r *periodRepository) RecalculateTotals(ctx context.Context, id string) (period.PeriodTotals, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_periods SET
			total_employees = agg.cnt,
			total_gross = agg.gross,
			total_deductions = agg.deductions,
			total_net = agg.net,
			updated_at = NOW()
		FROM (
			SELECT COUNT(*) AS cnt,
				   COALESCE(SUM(gross_pay), 0) AS gross,
				   COALESCE(SUM(total_deductions), 0) AS deductions,
				   COALESCE(SUM(net_pay), 0) AS net
			FROM payrolls WHERE period_id = $1
		) agg
		WHERE id = $1
		RETURNING total_employees, total_gross, total_deductions, total_net
	`

	var totals period.PeriodTotals
	err := q.QueryRow(ctx, query, id).Scan(
		&totals.TotalEmployees, &totals.TotalGross, &totals.TotalDeductions, &totals.TotalNet,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return period.PeriodTotals{}, period.ErrPeriodNotFound
		}
		return period.PeriodTotals{}, fmt.Errorf("failed to recalculate period totals: %w", err)
	}
	return totals, nil
}

func (r *periodRepository) Release(ctx context.Context, id, approvedBy string, approvedAt time.Time) (period.PayrollPeriod, error) {
	var released period.PayrollPeriod
	err := WithTransaction(ctx, r.db, func(txCtx context.Context) error {
		q := GetQuerier(txCtx, r.db)

		query := `
			UPDATE payroll_periods
			SET status = $2, approved_by = $3, approved_at = $4, updated_at = NOW()
			WHERE id = $1 AND status = $5 AND is_deleted = false
			RETURNING ` + periodColumns

		var err error
		released, err = scanPeriod(q.QueryRow(txCtx, query, id, period.StatusReleased, approvedBy, approvedAt, period.StatusPartial))
		if err != nil {
			if err == pgx.ErrNoRows {
				return period.ErrConcurrentUpdate
			}
			return fmt.Errorf("failed to release payroll period: %w", err)
		}

		if _, err := q.Exec(txCtx, `
			UPDATE payrolls SET status = $2, updated_at = NOW() WHERE period_id = $1
		`, id, period.PayrollStatusReleased); err != nil {
			return fmt.Errorf("failed to release payrolls: %w", err)
		}
		return nil
	})
	if err != nil {
		return period.PayrollPeriod{}, err
	}
	return released, nil
}

package hrclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/agilabus/ftms-backend-go/internal/domain/hrsync"
	"github.com/shopspring/decimal"
)

// Client talks to the external HR service over HTTP with an API key. It
// implements both hrsync.Source (employee payroll data for a period window)
// and hrsync.Notifier (disbursement webhook on release).
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// APIError is a non-2xx reply from the HR service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("hr API error [%d]: %s", e.StatusCode, e.Message)
}

// Wire DTOs, matching the HR service's payroll-data endpoint.

type employeeDTO struct {
	EmployeeNumber   string            `json:"employee_number"`
	FirstName        string            `json:"first_name"`
	LastName         string            `json:"last_name"`
	EmploymentStatus string            `json:"employment_status"`
	RateType         string            `json:"rate_type"`
	BasicRate        decimal.Decimal   `json:"basic_rate"`
	Attendance       []attendanceDTO   `json:"attendances"`
	Benefits         []compensationDTO `json:"benefits"`
	Deductions       []compensationDTO `json:"deductions"`
}

type attendanceDTO struct {
	Date        string  `json:"date"`
	Status      string  `json:"status"`
	HoursWorked float64 `json:"hours_worked"`
}

type compensationDTO struct {
	TypeName      string          `json:"type_name"`
	Value         decimal.Decimal `json:"value"`
	Frequency     string          `json:"frequency"`
	EffectiveDate *string         `json:"effective_date"`
	EndDate       *string         `json:"end_date"`
	IsActive      bool            `json:"is_active"`
}

type payrollDataResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Data    []employeeDTO `json:"data"`
}

// FetchEmployees returns the eligible employees for the period window,
// optionally narrowed to a single employee number. Records that fail to
// decode are skipped and reported per employee, never failing the fetch.
func (c *Client) FetchEmployees(ctx context.Context, start, end time.Time, employeeNumber *string) ([]hrsync.EmployeeRecord, map[string]string, error) {
	q := url.Values{}
	q.Set("period_start", start.Format("2006-01-02"))
	q.Set("period_end", end.Format("2006-01-02"))
	if employeeNumber != nil {
		q.Set("employee_number", *employeeNumber)
	}

	endpoint := fmt.Sprintf("%s/api/v1/employees/payroll-data?%s", c.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build hr request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", hrsync.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, &APIError{StatusCode: resp.StatusCode, Message: "payroll-data request failed"}
	}

	var body payrollDataResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, nil, fmt.Errorf("decode hr response: %w", err)
	}

	records := make([]hrsync.EmployeeRecord, 0, len(body.Data))
	var malformed map[string]string
	for i, dto := range body.Data {
		rec, err := toRecord(dto)
		if err != nil {
			if malformed == nil {
				malformed = make(map[string]string)
			}
			key := dto.EmployeeNumber
			if key == "" {
				key = fmt.Sprintf("record-%d", i+1)
			}
			malformed[key] = err.Error()
			continue
		}
		records = append(records, rec)
	}
	return records, malformed, nil
}

// NotifyDisbursement posts the release payload to HR.
func (c *Client) NotifyDisbursement(ctx context.Context, notice hrsync.DisbursementNotice) error {
	body, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("marshal disbursement notice: %w", err)
	}

	endpoint := c.baseURL + "/api/v1/payroll/disbursements"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build disbursement request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send disbursement notice: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: "disbursement webhook rejected"}
	}
	return nil
}

func toRecord(dto employeeDTO) (hrsync.EmployeeRecord, error) {
	if dto.EmployeeNumber == "" {
		return hrsync.EmployeeRecord{}, hrsync.ErrMalformedRecord
	}

	rec := hrsync.EmployeeRecord{
		EmployeeNumber:   dto.EmployeeNumber,
		FirstName:        dto.FirstName,
		LastName:         dto.LastName,
		EmploymentStatus: dto.EmploymentStatus,
		RateType:         dto.RateType,
		BasicRate:        dto.BasicRate,
	}

	for _, a := range dto.Attendance {
		date, err := time.Parse("2006-01-02", a.Date)
		if err != nil {
			return hrsync.EmployeeRecord{}, fmt.Errorf("%w: bad attendance date %q", hrsync.ErrMalformedRecord, a.Date)
		}
		rec.Attendance = append(rec.Attendance, hrsync.AttendanceEntry{
			Date:        date,
			Status:      hrsync.AttendanceStatus(a.Status),
			HoursWorked: a.HoursWorked,
		})
	}

	var err error
	rec.Benefits, err = toCompensation(dto.Benefits)
	if err != nil {
		return hrsync.EmployeeRecord{}, err
	}
	rec.Deductions, err = toCompensation(dto.Deductions)
	if err != nil {
		return hrsync.EmployeeRecord{}, err
	}
	return rec, nil
}

func toCompensation(dtos []compensationDTO) ([]hrsync.CompensationEntry, error) {
	entries := make([]hrsync.CompensationEntry, 0, len(dtos))
	for _, dto := range dtos {
		entry := hrsync.CompensationEntry{
			TypeName:  dto.TypeName,
			Value:     dto.Value,
			Frequency: dto.Frequency,
			IsActive:  dto.IsActive,
		}
		if dto.EffectiveDate != nil {
			d, err := time.Parse("2006-01-02", *dto.EffectiveDate)
			if err != nil {
				return nil, fmt.Errorf("%w: bad effective date %q", hrsync.ErrMalformedRecord, *dto.EffectiveDate)
			}
			entry.EffectiveDate = &d
		}
		if dto.EndDate != nil {
			d, err := time.Parse("2006-01-02", *dto.EndDate)
			if err != nil {
				return nil, fmt.Errorf("%w: bad end date %q", hrsync.ErrMalformedRecord, *dto.EndDate)
			}
			entry.EndDate = &d
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Employees:
    EmployeeDTO, SaveEmployeeRequest

  Rates:
    RateEntryDTO, SetRateRequest

  Presence:
    PresenceRecordDTO, RecordPresenceRequest, BulkPresenceRequest,
    BulkPresenceResultDTO

  Overtime:
    OvertimeEntryDTO, RecordOvertimeRequest

  Periods:
    PeriodStatusDTO, ArchiveDTO, PeriodEventDTO

AMOUNTS:
  All monetary fields are decimal strings ("15000"), never floats. The
  shopspring/decimal JSON encoding produces exact string values and the
  handlers parse them back with decimal.NewFromString.

VALIDATION:
  Validation is done in the domain services, not in DTOs. DTOs are pure
  data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - ../payroll/types.go: Domain model these map from
*/
package api

import (
	"time"

	"github.com/Faraleno2022/guineegest-sub000/payroll"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID                  string  `json:"id"`
	Matricule           string  `json:"matricule"`
	Name                string  `json:"name"`
	Function            string  `json:"function"`
	Status              string  `json:"status"`
	BaseSalary          string  `json:"base_salary"`
	HourlyRate          *string `json:"hourly_rate,omitempty"`
	OvertimeWeekdayRate string  `json:"overtime_weekday_rate"`
	OvertimeSundayRate  string  `json:"overtime_sunday_rate"`
	CreatedAt           string  `json:"created_at,omitempty"`
}

// SaveEmployeeRequest creates or updates an employee. An empty ID creates
// a new one.
type SaveEmployeeRequest struct {
	ID                  string  `json:"id"`
	Matricule           string  `json:"matricule"`
	Name                string  `json:"name"`
	Function            string  `json:"function"`
	BaseSalary          string  `json:"base_salary"`
	HourlyRate          *string `json:"hourly_rate"`
	OvertimeWeekdayRate string  `json:"overtime_weekday_rate"`
	OvertimeSundayRate  string  `json:"overtime_sunday_rate"`
}

// =============================================================================
// RATES
// =============================================================================

// RateEntryDTO represents an active rate entry in API responses.
type RateEntryDTO struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id,omitempty"`
	Code       string `json:"code"`
	Amount     string `json:"amount"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// SetRateRequest configures a rate. An empty employee_id sets the tenant
// default; a non-empty one sets a per-employee override.
type SetRateRequest struct {
	EmployeeID string `json:"employee_id"`
	Code       string `json:"code"`
	Amount     string `json:"amount"`
}

// =============================================================================
// PRESENCE
// =============================================================================

// RecordPresenceRequest marks one employee's status for one date.
type RecordPresenceRequest struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
	Code       string `json:"code"`
}

// BulkPresenceRequest marks many employees for a single date.
type BulkPresenceRequest struct {
	Date  string            `json:"date"`
	Marks map[string]string `json:"marks"` // employee_id -> status code
}

// BulkPresenceResultDTO reports the outcome of a bulk mark.
type BulkPresenceResultDTO struct {
	Created int               `json:"created"`
	Updated int               `json:"updated"`
	Errors  map[string]string `json:"errors,omitempty"` // employee_id -> message
}

// =============================================================================
// OVERTIME
// =============================================================================

// RecordOvertimeRequest logs overtime hours for one employee and date.
type RecordOvertimeRequest struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
	Hours      string `json:"hours"`
	Class      string `json:"class"` // "weekday" or "sunday"
}

// =============================================================================
// PERIODS AND ARCHIVES
// =============================================================================

// PeriodStatusDTO reports where a period sits in the lifecycle.
type PeriodStatusDTO struct {
	Period string `json:"period"` // "2026-08"
	Status string `json:"status"` // open | closed | archived
}

// ArchiveTotalsDTO carries the frozen totals of an archive.
type ArchiveTotalsDTO struct {
	Gross      string `json:"gross"`
	Deductions string `json:"deductions"`
	Net        string `json:"net"`
}

// ArchiveDTO represents a monthly archive in API responses. The full
// snapshot is included only on single-archive GETs, not on lists.
type ArchiveDTO struct {
	ID                string            `json:"id"`
	Period            string            `json:"period"`
	Status            string            `json:"status"`
	ActiveEmployees   int               `json:"active_employees"`
	InactiveEmployees int               `json:"inactive_employees"`
	Totals            ArchiveTotalsDTO  `json:"totals"`
	ClosedAt          string            `json:"closed_at"`
	ArchivedAt        *string           `json:"archived_at,omitempty"`
	Snapshot          *payroll.Snapshot `json:"snapshot,omitempty"`
}

// PeriodEventDTO is one entry of the transition audit trail.
type PeriodEventDTO struct {
	ID     string `json:"id"`
	Period string `json:"period"`
	Action string `json:"action"`
	Actor  string `json:"actor,omitempty"`
	At     string `json:"at"`
}

// TransitionRequest carries the actor for close/archive/restore calls.
type TransitionRequest struct {
	Actor string `json:"actor"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toEmployeeDTO(emp payroll.Employee) EmployeeDTO {
	dto := EmployeeDTO{
		ID:                  string(emp.ID),
		Matricule:           emp.Matricule,
		Name:                emp.Name,
		Function:            emp.Function,
		Status:              string(emp.Status),
		BaseSalary:          emp.BaseSalary.String(),
		OvertimeWeekdayRate: emp.OvertimeWeekdayRate.String(),
		OvertimeSundayRate:  emp.OvertimeSundayRate.String(),
	}
	if emp.HourlyRate != nil {
		v := emp.HourlyRate.String()
		dto.HourlyRate = &v
	}
	if !emp.CreatedAt.IsZero() {
		dto.CreatedAt = emp.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

func toRateEntryDTO(entry payroll.RateEntry) RateEntryDTO {
	dto := RateEntryDTO{
		ID:         entry.ID,
		EmployeeID: string(entry.EmployeeID),
		Code:       string(entry.Code),
		Amount:     entry.Amount.String(),
	}
	if !entry.CreatedAt.IsZero() {
		dto.CreatedAt = entry.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

func toArchiveDTO(arch payroll.MonthlyArchive, includeSnapshot bool) ArchiveDTO {
	dto := ArchiveDTO{
		ID:                string(arch.ID),
		Period:            arch.Period.Key(),
		Status:            string(arch.Status),
		ActiveEmployees:   arch.ActiveEmployees,
		InactiveEmployees: arch.InactiveEmployees,
		Totals: ArchiveTotalsDTO{
			Gross:      arch.Totals.Gross.String(),
			Deductions: arch.Totals.Deductions.String(),
			Net:        arch.Totals.Net.String(),
		},
		ClosedAt: arch.ClosedAt.Format(time.RFC3339),
	}
	if arch.ArchivedAt != nil {
		v := arch.ArchivedAt.Format(time.RFC3339)
		dto.ArchivedAt = &v
	}
	if includeSnapshot {
		snapshot := arch.Snapshot
		dto.Snapshot = &snapshot
	}
	return dto
}

func toPeriodEventDTO(ev payroll.PeriodEvent) PeriodEventDTO {
	return PeriodEventDTO{
		ID:     ev.ID,
		Period: ev.Period.Key(),
		Action: string(ev.Action),
		Actor:  ev.Actor,
		At:     ev.At.Format(time.RFC3339),
	}
}

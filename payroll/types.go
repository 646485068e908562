/*
Package payroll provides the presence-to-payroll aggregation engine.

PURPOSE:
  This package contains the tenant-scoped types and algorithms that turn a
  calendar of daily attendance status codes into monetary payroll breakdowns,
  and that manage the monthly archival state machine (open periods are
  editable and recomputable, closed periods are immutable snapshots).

KEY CONCEPTS IN THIS FILE (types.go):
  - StatusCode: A closed enumeration of daily attendance outcomes, grouped
    into reporting families but always PRICED per exact code
  - Employee: Reference data, soft-deactivated, never hard-deleted
  - PresenceRecord: One row per (employee, calendar date)
  - RateEntry: Tenant default or per-employee override amount for one code
  - Breakdown: The derived payroll result for one employee in one period
  - MonthlyArchive: The immutable snapshot of a closed period

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal for every amount, never float64
  2. Tenant isolation: Every record carries a TenantID; nothing crosses it
  3. Exact-code pricing: Sub-variants of a family are priced individually
     before any bucket summation (the primary correctness invariant)
  4. Derivability: Breakdowns are recomputed on demand while a period is
     open; only archives persist them

SEE ALSO:
  - rates.go: Rate resolution (override > default > zero)
  - aggregator.go: Breakdown computation
  - archive.go: Period close/archive/restore state machine
*/
package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type TenantID string
type EmployeeID string
type ArchiveID string

// =============================================================================
// STATUS CODES - Closed enumeration, grouped into pricing-independent families
// =============================================================================

// StatusCode is one daily attendance outcome for one employee.
//
// Codes are grouped into families for REPORTING only. Every code is priced
// independently via the rate configuration: three Sunday mornings are never
// priced as 1.5 Sunday full-days, no matter how the UI groups them.
type StatusCode string

const (
	// Presence family
	StatusPresentAM      StatusCode = "present_am"
	StatusPresentPM      StatusCode = "present_pm"
	StatusPresentFullDay StatusCode = "present_full_day"

	// Sunday/holiday-presence family
	StatusSundayAM      StatusCode = "sunday_present_am"
	StatusSundayPM      StatusCode = "sunday_present_pm"
	StatusSundayFullDay StatusCode = "sunday_present_full_day"

	// Absence family
	StatusAbsent   StatusCode = "absent"
	StatusSick     StatusCode = "sick"
	StatusSickPaid StatusCode = "sick_paid"

	// Leave family
	StatusLeave          StatusCode = "leave"
	StatusTraining       StatusCode = "training"
	StatusRestAuthorized StatusCode = "rest_authorized"
	StatusPublicHoliday  StatusCode = "public_holiday"
)

// Family is a reporting bucket for status codes.
type Family string

const (
	FamilyPresence Family = "presence"
	FamilySunday   Family = "sunday_presence"
	FamilyAbsence  Family = "absence"
	FamilyLeave    Family = "leave"
)

// statusFamilies maps every code to its reporting family. Also serves as the
// registry of valid codes.
var statusFamilies = map[StatusCode]Family{
	StatusPresentAM:      FamilyPresence,
	StatusPresentPM:      FamilyPresence,
	StatusPresentFullDay: FamilyPresence,
	StatusSundayAM:       FamilySunday,
	StatusSundayPM:       FamilySunday,
	StatusSundayFullDay:  FamilySunday,
	StatusAbsent:         FamilyAbsence,
	StatusSick:           FamilyAbsence,
	StatusSickPaid:       FamilyAbsence,
	StatusLeave:          FamilyLeave,
	StatusTraining:       FamilyLeave,
	StatusRestAuthorized: FamilyLeave,
	StatusPublicHoliday:  FamilyLeave,
}

// allStatusCodes lists every code in taxonomy order. Iteration over the map
// would be non-deterministic; breakdown lines and consistency reports must be
// stable.
var allStatusCodes = []StatusCode{
	StatusPresentAM, StatusPresentPM, StatusPresentFullDay,
	StatusSundayAM, StatusSundayPM, StatusSundayFullDay,
	StatusAbsent, StatusSick, StatusSickPaid,
	StatusLeave, StatusTraining, StatusRestAuthorized, StatusPublicHoliday,
}

// AllStatusCodes returns every valid status code in taxonomy order.
func AllStatusCodes() []StatusCode {
	out := make([]StatusCode, len(allStatusCodes))
	copy(out, allStatusCodes)
	return out
}

// AllFamilies returns the reporting families in taxonomy order.
func AllFamilies() []Family {
	return []Family{FamilyPresence, FamilySunday, FamilyAbsence, FamilyLeave}
}

// Family returns the reporting bucket this code belongs to.
func (c StatusCode) Family() Family { return statusFamilies[c] }

// Valid reports whether c is part of the closed enumeration.
func (c StatusCode) Valid() bool {
	_, ok := statusFamilies[c]
	return ok
}

// =============================================================================
// EMPLOYEE - Reference data, stable across period boundaries
// =============================================================================

type EmploymentStatus string

const (
	EmploymentActive   EmploymentStatus = "active"
	EmploymentInactive EmploymentStatus = "inactive"
)

// Employee is tenant-owned reference data. Employees are soft-deactivated,
// never hard-deleted, while transactional history references them.
type Employee struct {
	ID       EmployeeID
	TenantID TenantID

	// Matricule is the HR identity string, unique per tenant.
	Matricule string
	Name      string
	Function  string
	Status    EmploymentStatus

	// BaseSalary is the daily base salary.
	BaseSalary decimal.Decimal

	// HourlyRate optionally overrides the derived hourly rate.
	HourlyRate *decimal.Decimal

	// Overtime rates per hour: weekdays vs Sundays/holidays.
	OvertimeWeekdayRate decimal.Decimal
	OvertimeSundayRate  decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive reports whether the employee participates in period closing.
func (e *Employee) IsActive() bool { return e.Status == EmploymentActive }

// =============================================================================
// PRESENCE & OVERTIME - Transactional data, purged at period close
// =============================================================================

// PresenceRecord is one attendance outcome for one employee on one date.
// Unique per (employee, date); corrections overwrite in place.
type PresenceRecord struct {
	ID         string      `json:"id"`
	TenantID   TenantID    `json:"tenant_id"`
	EmployeeID EmployeeID  `json:"employee_id"`
	Date       Date        `json:"date"`
	Code       StatusCode  `json:"code"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// OvertimeClass selects which of the employee's two overtime rates applies.
type OvertimeClass string

const (
	OvertimeWeekday OvertimeClass = "weekday"
	OvertimeSunday  OvertimeClass = "sunday"
)

func (c OvertimeClass) Valid() bool {
	return c == OvertimeWeekday || c == OvertimeSunday
}

// OvertimeEntry records extra hours worked on one date. Overtime lives in a
// record set distinct from presence and is purged/restored with the period.
type OvertimeEntry struct {
	ID         string          `json:"id"`
	TenantID   TenantID        `json:"tenant_id"`
	EmployeeID EmployeeID      `json:"employee_id"`
	Date       Date            `json:"date"`
	Hours      decimal.Decimal `json:"hours"`
	Class      OvertimeClass   `json:"class"`
	CreatedAt  time.Time       `json:"created_at"`
}

// =============================================================================
// RATE CONFIGURATION - Two tiers: tenant default, per-employee override
// =============================================================================

// RateEntry prices one status code. EmployeeID empty means tenant default;
// set means per-employee override. At most one ACTIVE entry exists per
// (tenant, employee, code) key: setting a new amount deactivates the prior
// row rather than deleting it, preserving the audit trail.
type RateEntry struct {
	ID            string
	TenantID      TenantID
	EmployeeID    EmployeeID // empty = tenant-level default
	Code          StatusCode
	Amount        decimal.Decimal
	Active        bool
	CreatedAt     time.Time
	DeactivatedAt *time.Time
}

// IsDefault reports whether this is a tenant-level default entry.
func (r *RateEntry) IsDefault() bool { return r.EmployeeID == "" }

// =============================================================================
// BREAKDOWN - Derived payroll result, recomputable while the period is open
// =============================================================================

// CodeLine is the priced count of one exact status code.
type CodeLine struct {
	Code     StatusCode      `json:"code"`
	Count    int             `json:"count"`
	Rate     decimal.Decimal `json:"rate"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// Breakdown is the full payroll result for one employee in one period.
// It is purely a function of presence records, rate configuration, and
// overtime entries; it is never stored until the period is archived.
type Breakdown struct {
	EmployeeID EmployeeID `json:"employee_id"`
	Matricule  string     `json:"matricule"`
	Period     Period     `json:"period"`

	// Lines holds one priced entry per exact code with count > 0,
	// in taxonomy order. Pricing happens here, per exact code.
	Lines []CodeLine `json:"lines"`

	// Buckets sums line subtotals per reporting family.
	// Grouping happens strictly AFTER pricing.
	Buckets map[Family]decimal.Decimal `json:"buckets"`

	OvertimeWeekdayHours decimal.Decimal `json:"overtime_weekday_hours"`
	OvertimeSundayHours  decimal.Decimal `json:"overtime_sunday_hours"`
	OvertimeTotal        decimal.Decimal `json:"overtime_total"`

	GrandTotal decimal.Decimal `json:"grand_total"`
}

// =============================================================================
// MONTHLY ARCHIVE - Immutable snapshot of a closed period
// =============================================================================

// PeriodStatus is the archival state of one (tenant, month, year).
// An Open period has no archive row; Closed and Archived do.
type PeriodStatus string

const (
	PeriodOpen     PeriodStatus = "open"
	PeriodClosed   PeriodStatus = "closed"
	PeriodArchived PeriodStatus = "archived"
)

// ArchiveTotals are the rollup figures across all breakdowns in a snapshot.
type ArchiveTotals struct {
	Gross      decimal.Decimal `json:"gross"`
	Deductions decimal.Decimal `json:"deductions"`
	Net        decimal.Decimal `json:"net"`
}

// Snapshot is the serialized payload of a MonthlyArchive: every breakdown
// plus the raw transactional rows, so a restore can re-materialize them.
// Stored as a JSON blob rather than normalized rows to keep closed-period
// reads cheap and immune to later schema drift in the live tables.
type Snapshot struct {
	Breakdowns []Breakdown      `json:"breakdowns"`
	Presence   []PresenceRecord `json:"presence"`
	Overtime   []OvertimeEntry  `json:"overtime"`
}

// MonthlyArchive is the persisted record of a closed period.
// Unique per (tenant, month, year).
type MonthlyArchive struct {
	ID       ArchiveID
	TenantID TenantID
	Period   Period
	Status   PeriodStatus // PeriodClosed or PeriodArchived

	ActiveEmployees   int
	InactiveEmployees int
	Totals            ArchiveTotals
	Snapshot          Snapshot

	ClosedAt   time.Time
	ArchivedAt *time.Time
}

// =============================================================================
// PERIOD EVENTS - Audit trail of state-machine transitions
// =============================================================================

type PeriodAction string

const (
	ActionClose   PeriodAction = "close"
	ActionArchive PeriodAction = "archive"
	ActionRestore PeriodAction = "restore"
)

// PeriodEvent logs one explicit close/archive/restore transition.
type PeriodEvent struct {
	ID       string
	TenantID TenantID
	Period   Period
	Action   PeriodAction
	Actor    string
	At       time.Time
}

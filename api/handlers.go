/*
handlers.go - HTTP API handlers for the payroll engine

PURPOSE:
  Exposes the presence-to-payroll engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Employees:
    GET    /api/tenants/{tenant}/employees               List roster
    POST   /api/tenants/{tenant}/employees               Create/update employee
    GET    /api/tenants/{tenant}/employees/{id}          Get employee
    POST   /api/tenants/{tenant}/employees/{id}/deactivate
    POST   /api/tenants/{tenant}/employees/{id}/reactivate
    GET    /api/tenants/{tenant}/employees/{id}/breakdown?month=&year=

  Rates:
    GET    /api/tenants/{tenant}/rates                   List active entries
    POST   /api/tenants/{tenant}/rates                   Set default/override

  Presence and overtime:
    POST   /api/tenants/{tenant}/presence                Record one status
    POST   /api/tenants/{tenant}/presence/bulk           Quick-mark a date
    GET    /api/tenants/{tenant}/presence?employee_id=&month=&year=
    POST   /api/tenants/{tenant}/overtime                Record overtime
    GET    /api/tenants/{tenant}/overtime?employee_id=&month=&year=

  Periods:
    GET    /api/tenants/{tenant}/consistency             Coherence report
    GET    /api/tenants/{tenant}/periods/{period}        Lifecycle status
    GET    /api/tenants/{tenant}/periods/{period}/events Audit trail
    POST   /api/tenants/{tenant}/periods/{period}/close
    POST   /api/tenants/{tenant}/periods/{period}/archive
    POST   /api/tenants/{tenant}/periods/{period}/restore

  Archives:
    GET    /api/tenants/{tenant}/archives                List (no snapshots)
    GET    /api/tenants/{tenant}/archives/{period}       Full snapshot

  Taxonomy:
    GET    /api/status-codes                             Code/family listing

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access
  - Domain services: rates, ledger, overtime, aggregator, checker, archiver

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (closed period, concurrent transition, restore conflict)
  - 422: Close precondition failed (body carries the consistency report)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. Tenancy is taken from the
  URL; a production deployment derives it from the auth context instead.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Faraleno2022/guineegest-sub000/payroll"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store payroll.TxStore

	Rates      *payroll.Rates
	Ledger     *payroll.Ledger
	Overtime   *payroll.OvertimeBook
	Aggregator *payroll.Aggregator
	Checker    *payroll.Checker
	Archiver   *payroll.Archiver
}

// NewHandler creates a new handler with the given store. Archiver options
// (deduction rate, worker count, close timeout) pass through.
func NewHandler(store payroll.TxStore, opts ...payroll.ArchiverOption) *Handler {
	return &Handler{
		Store:      store,
		Rates:      payroll.NewRates(store),
		Ledger:     payroll.NewLedger(store),
		Overtime:   payroll.NewOvertimeBook(store),
		Aggregator: payroll.NewAggregator(store),
		Checker:    payroll.NewChecker(store),
		Archiver:   payroll.NewArchiver(store, opts...),
	}
}

// =============================================================================
// EMPLOYEE ENDPOINTS
// =============================================================================

// ListEmployees returns the tenant's roster.
// GET /api/tenants/{tenant}/employees
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)

	employees, err := h.Store.ListEmployees(r.Context(), tenant)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]EmployeeDTO, 0, len(employees))
	for _, emp := range employees {
		dtos = append(dtos, toEmployeeDTO(emp))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveEmployee creates or updates an employee.
// POST /api/tenants/{tenant}/employees
func (h *Handler) SaveEmployee(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)

	var req SaveEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Matricule == "" {
		writeError(w, http.StatusBadRequest, "matricule is required", nil)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	baseSalary, err := decimal.NewFromString(req.BaseSalary)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid base_salary", err)
		return
	}
	weekdayRate, err := parseDecimalOrZero(req.OvertimeWeekdayRate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid overtime_weekday_rate", err)
		return
	}
	sundayRate, err := parseDecimalOrZero(req.OvertimeSundayRate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid overtime_sunday_rate", err)
		return
	}

	emp := payroll.Employee{
		ID:                  payroll.EmployeeID(req.ID),
		TenantID:            tenant,
		Matricule:           req.Matricule,
		Name:                req.Name,
		Function:            req.Function,
		Status:              payroll.EmploymentActive,
		BaseSalary:          baseSalary,
		OvertimeWeekdayRate: weekdayRate,
		OvertimeSundayRate:  sundayRate,
		CreatedAt:           time.Now().UTC(),
	}
	if req.HourlyRate != nil {
		hourly, err := decimal.NewFromString(*req.HourlyRate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid hourly_rate", err)
			return
		}
		emp.HourlyRate = &hourly
	}

	status := http.StatusCreated
	if emp.ID == "" {
		emp.ID = payroll.EmployeeID(uuid.NewString())
	} else if existing, err := h.Store.GetEmployee(r.Context(), tenant, emp.ID); err == nil {
		// Updates keep the current employment status and creation time.
		emp.Status = existing.Status
		emp.CreatedAt = existing.CreatedAt
		status = http.StatusOK
	}

	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, status, toEmployeeDTO(emp))
}

// GetEmployee returns one employee.
// GET /api/tenants/{tenant}/employees/{id}
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)
	id := payroll.EmployeeID(chi.URLParam(r, "id"))

	emp, err := h.Store.GetEmployee(r.Context(), tenant, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// DeactivateEmployee soft-deactivates an employee. The row is kept so
// archived periods can still reference it.
// POST /api/tenants/{tenant}/employees/{id}/deactivate
func (h *Handler) DeactivateEmployee(w http.ResponseWriter, r *http.Request) {
	h.setEmploymentStatus(w, r, payroll.EmploymentInactive)
}

// ReactivateEmployee returns a deactivated employee to the active roster.
// POST /api/tenants/{tenant}/employees/{id}/reactivate
func (h *Handler) ReactivateEmployee(w http.ResponseWriter, r *http.Request) {
	h.setEmploymentStatus(w, r, payroll.EmploymentActive)
}

func (h *Handler) setEmploymentStatus(w http.ResponseWriter, r *http.Request, status payroll.EmploymentStatus) {
	tenant := tenantFrom(r)
	id := payroll.EmployeeID(chi.URLParam(r, "id"))

	emp, err := h.Store.GetEmployee(r.Context(), tenant, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	emp.Status = status
	if err := h.Store.SaveEmployee(r.Context(), *emp); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// GetBreakdown computes the payroll breakdown for one employee and period.
// GET /api/tenants/{tenant}/employees/{id}/breakdown?month=8&year=2026
func (h *Handler) GetBreakdown(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)
	id := payroll.EmployeeID(chi.URLParam(r, "id"))

	p, err := periodFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	breakdown, err := h.Aggregator.ComputeBreakdown(r.Context(), tenant, id, p)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}

// =============================================================================
// RATE ENDPOINTS
// =============================================================================

// ListRates returns every active rate entry of the tenant.
// GET /api/tenants/{tenant}/rates
func (h *Handler) ListRates(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)

	entries, err := h.Rates.ListActive(r.Context(), tenant)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]RateEntryDTO, 0, len(entries))
	for _, entry := range entries {
		dtos = append(dtos, toRateEntryDTO(entry))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SetRate sets a tenant default (empty employee_id) or a per-employee
// override. The prior active entry for the key is deactivated, not deleted.
// POST /api/tenants/{tenant}/rates
func (h *Handler) SetRate(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)

	var req SetRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}

	code := payroll.StatusCode(req.Code)
	var entry payroll.RateEntry
	if req.EmployeeID == "" {
		entry, err = h.Rates.SetDefault(r.Context(), tenant, code, amount)
	} else {
		entry, err = h.Rates.SetOverride(r.Context(), tenant, payroll.EmployeeID(req.EmployeeID), code, amount)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRateEntryDTO(entry))
}

// =============================================================================
// PRESENCE ENDPOINTS
// =============================================================================

// RecordPresence marks one employee's daily status. A second mark for the
// same (employee, date) overwrites the first.
// POST /api/tenants/{tenant}/presence
func (h *Handler) RecordPresence(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)

	var req RecordPresenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := payroll.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	rec, err := h.Ledger.RecordStatus(r.Context(), tenant,
		payroll.EmployeeID(req.EmployeeID), date, payroll.StatusCode(req.Code))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// BulkRecordPresence marks many employees for a single date. Failures are
// per-employee; successful writes are kept.
// POST /api/tenants/{tenant}/presence/bulk
func (h *Handler) BulkRecordPresence(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)

	var req BulkPresenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := payroll.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	marks := make(map[payroll.EmployeeID]payroll.StatusCode, len(req.Marks))
	for id, code := range req.Marks {
		marks[payroll.EmployeeID(id)] = payroll.StatusCode(code)
	}

	result, err := h.Ledger.BulkRecord(r.Context(), tenant, date, marks)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dto := BulkPresenceResultDTO{Created: result.Created, Updated: result.Updated}
	if len(result.Errors) > 0 {
		dto.Errors = make(map[string]string, len(result.Errors))
		for id, err := range result.Errors {
			dto.Errors[string(id)] = err.Error()
		}
	}
	writeJSON(w, http.StatusOK, dto)
}

// QueryPresence returns one employee's presence rows for a period.
// GET /api/tenants/{tenant}/presence?employee_id=X&month=8&year=2026
func (h *Handler) QueryPresence(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)

	employeeID := r.URL.Query().Get("employee_id")
	if employeeID == "" {
		writeError(w, http.StatusBadRequest, "employee_id is required", nil)
		return
	}
	p, err := periodFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	records, err := h.Ledger.QueryPeriod(r.Context(), tenant, payroll.EmployeeID(employeeID), p)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if records == nil {
		records = []payroll.PresenceRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// =============================================================================
// OVERTIME ENDPOINTS
// =============================================================================

// RecordOvertime logs overtime hours for one employee and date.
// POST /api/tenants/{tenant}/overtime
func (h *Handler) RecordOvertime(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)

	var req RecordOvertimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := payroll.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}
	hours, err := decimal.NewFromString(req.Hours)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid hours", err)
		return
	}

	entry, err := h.Overtime.Record(r.Context(), tenant,
		payroll.EmployeeID(req.EmployeeID), date, hours, payroll.OvertimeClass(req.Class))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// QueryOvertime returns one employee's overtime entries for a period.
// GET /api/tenants/{tenant}/overtime?employee_id=X&month=8&year=2026
func (h *Handler) QueryOvertime(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)

	employeeID := r.URL.Query().Get("employee_id")
	if employeeID == "" {
		writeError(w, http.StatusBadRequest, "employee_id is required", nil)
		return
	}
	p, err := periodFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	entries, err := h.Overtime.QueryPeriod(r.Context(), tenant, payroll.EmployeeID(employeeID), p)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []payroll.OvertimeEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// =============================================================================
// PERIOD AND ARCHIVE ENDPOINTS
// =============================================================================

// GetConsistency returns the tenant's reference-data coherence report.
// Close is refused until it is coherent.
// GET /api/tenants/{tenant}/consistency
func (h *Handler) GetConsistency(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)

	report, err := h.Checker.CheckReferenceData(r.Context(), tenant)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// GetPeriodStatus reports where a period sits in the lifecycle.
// GET /api/tenants/{tenant}/periods/{period}
func (h *Handler) GetPeriodStatus(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)
	p, err := periodFromURL(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	status, err := h.Archiver.Status(r.Context(), tenant, p)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PeriodStatusDTO{Period: p.Key(), Status: string(status)})
}

// ListPeriodEvents returns the transition audit trail for a period.
// GET /api/tenants/{tenant}/periods/{period}/events
func (h *Handler) ListPeriodEvents(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)
	p, err := periodFromURL(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	events, err := h.Archiver.Events(r.Context(), tenant, p)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]PeriodEventDTO, 0, len(events))
	for _, ev := range events {
		dtos = append(dtos, toPeriodEventDTO(ev))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ClosePeriod runs the month-end close: consistency gate, breakdown
// computation for the active roster, snapshot persist, ledger purge.
// Closing an already-closed period returns the existing archive (200).
// POST /api/tenants/{tenant}/periods/{period}/close
func (h *Handler) ClosePeriod(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(tenant payroll.TenantID, p payroll.Period, actor string) (*payroll.MonthlyArchive, error) {
		return h.Archiver.Close(r.Context(), tenant, p, actor)
	})
}

// ArchivePeriod promotes a closed period to archived.
// POST /api/tenants/{tenant}/periods/{period}/archive
func (h *Handler) ArchivePeriod(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(tenant payroll.TenantID, p payroll.Period, actor string) (*payroll.MonthlyArchive, error) {
		return h.Archiver.Archive(r.Context(), tenant, p, actor)
	})
}

// RestorePeriod re-materializes a closed/archived period's rows and
// reopens it for editing.
// POST /api/tenants/{tenant}/periods/{period}/restore
func (h *Handler) RestorePeriod(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)
	p, err := periodFromURL(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	if err := h.Archiver.Restore(r.Context(), tenant, p, actorFrom(r)); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PeriodStatusDTO{Period: p.Key(), Status: string(payroll.PeriodOpen)})
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request,
	fn func(payroll.TenantID, payroll.Period, string) (*payroll.MonthlyArchive, error)) {

	tenant := tenantFrom(r)
	p, err := periodFromURL(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	arch, err := fn(tenant, p, actorFrom(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toArchiveDTO(*arch, false))
}

// ListArchives returns the tenant's archives, newest first, without
// snapshots.
// GET /api/tenants/{tenant}/archives
func (h *Handler) ListArchives(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)

	archives, err := h.Store.ListArchives(r.Context(), tenant)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]ArchiveDTO, 0, len(archives))
	for _, arch := range archives {
		dtos = append(dtos, toArchiveDTO(arch, false))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetArchive returns one archive with its full snapshot.
// GET /api/tenants/{tenant}/archives/{period}
func (h *Handler) GetArchive(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)
	p, err := periodFromURL(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	arch, err := h.Store.GetArchive(r.Context(), tenant, p)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if arch == nil {
		writeError(w, http.StatusNotFound, "Archive not found", payroll.ErrArchiveNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toArchiveDTO(*arch, true))
}

// =============================================================================
// TAXONOMY ENDPOINT
// =============================================================================

// ListStatusCodes returns the full status taxonomy with families.
// GET /api/status-codes
func (h *Handler) ListStatusCodes(w http.ResponseWriter, r *http.Request) {
	type codeDTO struct {
		Code   string `json:"code"`
		Family string `json:"family"`
	}
	codes := payroll.AllStatusCodes()
	dtos := make([]codeDTO, 0, len(codes))
	for _, code := range codes {
		dtos = append(dtos, codeDTO{Code: string(code), Family: string(code.Family())})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

func tenantFrom(r *http.Request) payroll.TenantID {
	return payroll.TenantID(chi.URLParam(r, "tenant"))
}

// actorFrom reads the optional transition actor from the request body.
func actorFrom(r *http.Request) string {
	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return ""
	}
	return req.Actor
}

// periodFromURL parses the {period} path segment, "YYYY-MM".
func periodFromURL(r *http.Request) (payroll.Period, error) {
	return payroll.ParsePeriodKey(chi.URLParam(r, "period"))
}

// periodFromQuery parses ?month= and ?year=.
func periodFromQuery(r *http.Request) (payroll.Period, error) {
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil {
		return payroll.Period{}, &payroll.ValidationError{Field: "month", Message: "must be an integer"}
	}
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		return payroll.Period{}, &payroll.ValidationError{Field: "year", Message: "must be an integer"}
	}
	return payroll.NewPeriod(time.Month(month), year)
}

func parseDecimalOrZero(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain errors to HTTP statuses. The precondition
// case returns 422 with the full consistency report so the client can
// remediate specific gaps.
func writeDomainError(w http.ResponseWriter, err error) {
	var pf *payroll.PreconditionError
	if errors.As(err, &pf) {
		writeJSON(w, http.StatusUnprocessableEntity, struct {
			Error  string                    `json:"error"`
			Report payroll.ConsistencyReport `json:"report"`
		}{Error: err.Error(), Report: pf.Report})
		return
	}

	var closed *payroll.ClosedPeriodError
	switch {
	case payroll.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case errors.As(err, &closed),
		errors.Is(err, payroll.ErrConcurrentTransition),
		errors.Is(err, payroll.ErrRestoreConflict),
		errors.Is(err, payroll.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "Conflict", err)
	case errors.Is(err, payroll.ErrValidation):
		writeError(w, http.StatusBadRequest, "Validation failed", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

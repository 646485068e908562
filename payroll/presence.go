/*
presence.go - The presence ledger: one status code per employee per day

PURPOSE:
  Append/update store of daily attendance. A record is unique per
  (employee, date); corrections overwrite in place, never duplicate.
  Records live in the open period only: once the period closes they move
  into the archive snapshot and the live rows are purged.

CLOSED-PERIOD RULE:
  Writing into a period whose archive status is Closed or Archived fails
  with a ClosedPeriodError. The period must be explicitly restored first.

BULK ENTRY:
  BulkRecord applies RecordStatus for many employees on one date (the
  "quick mark" flow). Each employee's record is independent: a failure
  for one employee does not roll back rows already written for others.
  The result reports created vs updated counts plus per-employee errors.

SEE ALSO:
  - aggregator.go: Reads these records via QueryPeriod
  - archive.go: Purges and re-materializes them at close/restore
*/
package payroll

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// LEDGER SERVICE
// =============================================================================

// Ledger records and queries daily presence.
type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// RecordStatus upserts the status code for (employee, date).
// Fails with ClosedPeriodError if the date falls inside a closed or
// archived period, and with ErrEmployeeNotFound if the employee does not
// belong to the tenant.
func (l *Ledger) RecordStatus(ctx context.Context, tenant TenantID, employee EmployeeID, date Date, code StatusCode) (PresenceRecord, error) {
	if !code.Valid() {
		return PresenceRecord{}, &ValidationError{Field: "code", Message: "unknown status code: " + string(code)}
	}
	if date.IsZero() {
		return PresenceRecord{}, &ValidationError{Field: "date", Message: "required"}
	}

	if _, err := l.store.GetEmployee(ctx, tenant, employee); err != nil {
		return PresenceRecord{}, err
	}

	if err := l.ensureOpen(ctx, tenant, PeriodOf(date)); err != nil {
		return PresenceRecord{}, err
	}

	now := time.Now().UTC()
	rec := PresenceRecord{
		ID:         uuid.NewString(),
		TenantID:   tenant,
		EmployeeID: employee,
		Date:       date,
		Code:       code,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := l.store.UpsertPresence(ctx, rec); err != nil {
		return PresenceRecord{}, err
	}
	return rec, nil
}

// BulkResult reports the outcome of a quick-mark write.
type BulkResult struct {
	Created int
	Updated int
	// Errors lists employees whose record failed. Successful writes for
	// other employees are NOT rolled back.
	Errors map[EmployeeID]error
}

// BulkRecord applies one status code per employee for a single date.
// Employees are processed in sorted order so the outcome is deterministic.
func (l *Ledger) BulkRecord(ctx context.Context, tenant TenantID, date Date, marks map[EmployeeID]StatusCode) (BulkResult, error) {
	res := BulkResult{Errors: make(map[EmployeeID]error)}

	if date.IsZero() {
		return res, &ValidationError{Field: "date", Message: "required"}
	}
	// One date means one period: gate once, not per employee.
	if err := l.ensureOpen(ctx, tenant, PeriodOf(date)); err != nil {
		return res, err
	}

	ids := make([]EmployeeID, 0, len(marks))
	for id := range marks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	now := time.Now().UTC()
	for _, id := range ids {
		code := marks[id]
		if !code.Valid() {
			res.Errors[id] = &ValidationError{Field: "code", Message: "unknown status code: " + string(code)}
			continue
		}
		if _, err := l.store.GetEmployee(ctx, tenant, id); err != nil {
			res.Errors[id] = err
			continue
		}
		created, err := l.store.UpsertPresence(ctx, PresenceRecord{
			ID:         uuid.NewString(),
			TenantID:   tenant,
			EmployeeID: id,
			Date:       date,
			Code:       code,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		if err != nil {
			res.Errors[id] = err
			continue
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
	}
	return res, nil
}

// QueryPeriod returns the employee's records for the period, ordered by
// date. Stateless and restartable.
func (l *Ledger) QueryPeriod(ctx context.Context, tenant TenantID, employee EmployeeID, p Period) ([]PresenceRecord, error) {
	if !p.Valid() {
		return nil, &ValidationError{Field: "period", Message: "invalid month/year"}
	}
	if _, err := l.store.GetEmployee(ctx, tenant, employee); err != nil {
		return nil, err
	}
	return l.store.PresenceForPeriod(ctx, tenant, employee, p)
}

// ensureOpen rejects writes into closed or archived periods.
func (l *Ledger) ensureOpen(ctx context.Context, tenant TenantID, p Period) error {
	arch, err := l.store.GetArchive(ctx, tenant, p)
	if err != nil {
		return err
	}
	if arch != nil {
		return &ClosedPeriodError{TenantID: tenant, Period: p, Status: arch.Status}
	}
	return nil
}

/*
errors.go - Centralized error types for the payroll engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Nothing in this engine panics: a single tenant's bad state must never
  take down a process shared with other tenants, so every failure is a
  typed, returned error.

ERROR CATEGORIES:
  1. Validation errors - malformed input, editing a closed period
  2. Reference errors  - employee/archive not found
  3. Transition errors - close preconditions, restore conflicts, lock contention

USAGE:
  Callers match with errors.Is / errors.As:

    if errors.Is(err, payroll.ErrPreconditionFailed) {
        var pf *payroll.PreconditionError
        errors.As(err, &pf)
        // pf.Report lists the specific gaps to remediate
    }

SEE ALSO:
  - checker.go: Produces the ConsistencyReport carried by PreconditionError
  - archive.go: Close/restore transitions that raise most of these
*/
package payroll

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned for malformed input, including any attempt
	// to edit presence or overtime inside a closed/archived period.
	ErrValidation = errors.New("validation failed")

	// ErrEmployeeNotFound is returned when an employee does not exist or
	// does not belong to the given tenant.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrArchiveNotFound is returned when no archive row exists for the
	// requested (tenant, month, year).
	ErrArchiveNotFound = errors.New("archive not found")

	// ErrPreconditionFailed is returned when close is attempted on a tenant
	// whose reference data is incoherent. Never auto-resolved by the engine.
	ErrPreconditionFailed = errors.New("close precondition failed")

	// ErrRestoreConflict is returned when restoring a period that already
	// has live transactional rows. Guards against double-restore.
	ErrRestoreConflict = errors.New("restore conflict: live transactional data exists")

	// ErrConcurrentTransition is returned when another caller holds the
	// transition lock for the same (tenant, period), or when a ledger write
	// lands mid-close and the frozen totals would no longer match the
	// snapshot rows. Retryable after backoff.
	ErrConcurrentTransition = errors.New("concurrent transition in progress")

	// ErrInvalidTransition is returned for state-machine edges that do not
	// exist (e.g. archiving an open period).
	ErrInvalidTransition = errors.New("invalid period transition")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError carries the offending field and value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ClosedPeriodError signals a write into a period whose archive status is
// Closed or Archived. The caller must restore the period before editing.
type ClosedPeriodError struct {
	TenantID TenantID
	Period   Period
	Status   PeriodStatus
}

func (e *ClosedPeriodError) Error() string {
	return fmt.Sprintf("validation failed: period %s is %s for tenant %s, reopen it before editing",
		e.Period, e.Status, e.TenantID)
}

func (e *ClosedPeriodError) Unwrap() error { return ErrValidation }

// PreconditionError carries the full consistency report so the caller can
// remediate specific gaps before retrying close.
type PreconditionError struct {
	TenantID TenantID
	Period   Period
	Report   ConsistencyReport
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("close precondition failed for tenant %s period %s: %d missing rate entries, %d incomplete employees",
		e.TenantID, e.Period, len(e.Report.MissingRateEntries), len(e.Report.IncompleteEmployees))
}

func (e *PreconditionError) Unwrap() error { return ErrPreconditionFailed }

// TransitionError describes an illegal state-machine edge.
type TransitionError struct {
	TenantID TenantID
	Period   Period
	From     PeriodStatus
	Action   PeriodAction
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid period transition: cannot %s a %s period (%s, tenant %s)",
		e.Action, e.From, e.Period, e.TenantID)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentTransition)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrRestoreConflict)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrArchiveNotFound)
}

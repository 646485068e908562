/*
store.go - Persistence interfaces for the payroll engine

PURPOSE:
  Defines the boundary between domain logic and the database. The engine
  never touches a global connection; every service takes a Store, so
  SQLite, PostgreSQL, or in-memory implementations are interchangeable.

KEY INTERFACES:
  EmployeeStore: Reference data (roster), soft-deactivate only
  RateStore:     Rate configuration, deactivate-not-delete upserts
  PresenceStore: Daily presence rows (transactional data)
  OvertimeStore: Overtime entries (transactional data)
  ArchiveStore:  Monthly archive snapshots + transition audit events
  Store:         All of the above
  TxStore:       Store + WithTx for atomic multi-table writes

RETENTION RULE:
  Period close purges PresenceStore and OvertimeStore rows for the period
  and never touches EmployeeStore or RateStore. Delete methods exist ONLY
  on the transactional stores.

ATOMICITY:
  The close and restore transitions write several tables (archive row,
  purge/re-materialize rows, audit event). They run inside WithTx so a
  partial archive is never visible.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - payroll/store/memory.go: In-memory for tests

SEE ALSO:
  - archive.go: The only caller of WithTx
*/
package payroll

import "context"

// =============================================================================
// EMPLOYEE STORE - Reference data
// =============================================================================

type EmployeeStore interface {
	// SaveEmployee inserts or updates an employee. The (tenant, matricule)
	// pair is unique; saving a second employee with the same matricule fails.
	SaveEmployee(ctx context.Context, emp Employee) error

	// GetEmployee returns the employee, or ErrEmployeeNotFound if it does
	// not exist or belongs to another tenant.
	GetEmployee(ctx context.Context, tenant TenantID, id EmployeeID) (*Employee, error)

	// ListEmployees returns all employees for the tenant, ordered by matricule.
	ListEmployees(ctx context.Context, tenant TenantID) ([]Employee, error)
}

// =============================================================================
// RATE STORE - Two-tier rate configuration
// =============================================================================

type RateStore interface {
	// ActiveRate returns the single active entry for (tenant, employee, code),
	// or nil if none exists. An empty employee ID selects the tenant default.
	ActiveRate(ctx context.Context, tenant TenantID, employee EmployeeID, code StatusCode) (*RateEntry, error)

	// SetRate activates a new entry for its (tenant, employee, code) key,
	// deactivating any prior active entry in the same write. The prior row
	// is kept for the audit trail, never deleted.
	SetRate(ctx context.Context, entry RateEntry) error

	// ListActiveRates returns every active entry for the tenant, defaults
	// and overrides, ordered by code then employee.
	ListActiveRates(ctx context.Context, tenant TenantID) ([]RateEntry, error)
}

// =============================================================================
// PRESENCE STORE - Transactional data, purged at close
// =============================================================================

type PresenceStore interface {
	// UpsertPresence writes the record, overwriting any existing row for the
	// same (employee, date). Returns true if a new row was created, false if
	// an existing one was overwritten. The write is atomic: there is no
	// read-modify-write window, last writer wins.
	UpsertPresence(ctx context.Context, rec PresenceRecord) (created bool, err error)

	// PresenceForPeriod returns the employee's records inside the period,
	// ordered by date.
	PresenceForPeriod(ctx context.Context, tenant TenantID, employee EmployeeID, p Period) ([]PresenceRecord, error)

	// PresenceForTenantPeriod returns every record of the tenant inside the
	// period, across employees, ordered by employee then date.
	PresenceForTenantPeriod(ctx context.Context, tenant TenantID, p Period) ([]PresenceRecord, error)

	// CountPresenceForPeriod returns how many live rows the tenant has in
	// the period. Used by restore to detect conflicts.
	CountPresenceForPeriod(ctx context.Context, tenant TenantID, p Period) (int, error)

	// DeletePresenceForPeriod purges the tenant's rows for the period.
	// Only the archive state machine calls this, inside WithTx.
	DeletePresenceForPeriod(ctx context.Context, tenant TenantID, p Period) error
}

// =============================================================================
// OVERTIME STORE - Transactional data, purged at close
// =============================================================================

type OvertimeStore interface {
	// SaveOvertime inserts or replaces an overtime entry by ID.
	SaveOvertime(ctx context.Context, entry OvertimeEntry) error

	// OvertimeForPeriod returns the employee's entries inside the period.
	OvertimeForPeriod(ctx context.Context, tenant TenantID, employee EmployeeID, p Period) ([]OvertimeEntry, error)

	// OvertimeForTenantPeriod returns every entry of the tenant inside the period.
	OvertimeForTenantPeriod(ctx context.Context, tenant TenantID, p Period) ([]OvertimeEntry, error)

	// CountOvertimeForPeriod returns how many live entries the tenant has in
	// the period.
	CountOvertimeForPeriod(ctx context.Context, tenant TenantID, p Period) (int, error)

	// DeleteOvertimeForPeriod purges the tenant's entries for the period.
	DeleteOvertimeForPeriod(ctx context.Context, tenant TenantID, p Period) error
}

// =============================================================================
// ARCHIVE STORE - Snapshots and transition audit
// =============================================================================

type ArchiveStore interface {
	// SaveArchive inserts the archive row. Fails if one already exists for
	// the (tenant, month, year) key.
	SaveArchive(ctx context.Context, arch MonthlyArchive) error

	// GetArchive returns the archive, or nil if the period is open.
	GetArchive(ctx context.Context, tenant TenantID, p Period) (*MonthlyArchive, error)

	// ListArchives returns the tenant's archives, newest period first.
	ListArchives(ctx context.Context, tenant TenantID) ([]MonthlyArchive, error)

	// UpdateArchiveStatus flips Closed -> Archived.
	UpdateArchiveStatus(ctx context.Context, tenant TenantID, p Period, status PeriodStatus) error

	// DeleteArchive removes the archive row (restore path only).
	DeleteArchive(ctx context.Context, tenant TenantID, p Period) error

	// AppendEvent records a close/archive/restore transition.
	AppendEvent(ctx context.Context, ev PeriodEvent) error

	// ListEvents returns the tenant's transition history for a period,
	// oldest first.
	ListEvents(ctx context.Context, tenant TenantID, p Period) ([]PeriodEvent, error)
}

// =============================================================================
// COMBINED STORES
// =============================================================================

// Store aggregates every persistence concern of the engine.
type Store interface {
	EmployeeStore
	RateStore
	PresenceStore
	OvertimeStore
	ArchiveStore
}

// TxStore wraps Store with transaction support. The archive state machine
// requires it: snapshot persist + purge + audit event are all-or-nothing.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns an error, the transaction is rolled back.
	WithTx(ctx context.Context, fn func(Store) error) error
}

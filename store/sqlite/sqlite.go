/*
Package sqlite provides a SQLite-backed implementation of payroll.TxStore.

PURPOSE:
  Implements every persistence interface of the payroll engine (employees,
  rates, presence, overtime, archives, events) using SQLite. In production,
  the same patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  employees:        Reference data, unique (tenant_id, matricule)
  rate_entries:     Rate configuration; a partial unique index enforces at
                    most one ACTIVE row per (tenant, employee, code) key
  presence_records: One row per (employee, date); corrections overwrite
  overtime_entries: Overtime hours with weekday/sunday class
  monthly_archives: Period snapshots, unique (tenant_id, year, month)
  period_events:    Close/archive/restore audit trail

RETENTION:
  Employees and rate entries are never deleted. Rates are deactivated when
  replaced, preserving history. DELETE exists only for presence and overtime
  rows (purged inside the close transaction) and for the archive row itself
  (removed inside the restore transaction).

INDEXES:
  - idx_rate_entries_active_key: one active rate per key (hot lookup)
  - idx_presence_employee_date:  enforces one status per employee-day
  - idx_archives_tenant_period:  at most one archive per tenant-month

CONCURRENCY:
  Uses sync.RWMutex for thread-safety plus WAL mode for better read
  concurrency. WithTx wraps the close/restore transitions so a partially
  built archive or a half-purged ledger is never visible.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/guineegest.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - payroll/store.go: Interface definitions
  - payroll/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/Faraleno2022/guineegest-sub000/payroll"
)

// Store implements payroll.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Employees (reference data, never hard-deleted)
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		matricule TEXT NOT NULL,
		name TEXT NOT NULL,
		function TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		base_salary TEXT NOT NULL,
		hourly_rate TEXT,
		overtime_weekday_rate TEXT NOT NULL,
		overtime_sunday_rate TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_employees_tenant_matricule
		ON employees(tenant_id, matricule);
	CREATE INDEX IF NOT EXISTS idx_employees_tenant
		ON employees(tenant_id);

	-- Rate configuration (deactivate, never delete)
	CREATE TABLE IF NOT EXISTS rate_entries (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		employee_id TEXT NOT NULL DEFAULT '',
		code TEXT NOT NULL,
		amount TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		deactivated_at TEXT
	);

	-- CRITICAL: at most one ACTIVE entry per (scope, code) key
	CREATE UNIQUE INDEX IF NOT EXISTS idx_rate_entries_active_key
		ON rate_entries(tenant_id, employee_id, code)
		WHERE active = 1;
	CREATE INDEX IF NOT EXISTS idx_rate_entries_tenant
		ON rate_entries(tenant_id, active);

	-- Presence ledger (transactional data, purged at close)
	CREATE TABLE IF NOT EXISTS presence_records (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		code TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- CRITICAL: one record per (employee, date); corrections overwrite
	CREATE UNIQUE INDEX IF NOT EXISTS idx_presence_employee_date
		ON presence_records(employee_id, date);
	CREATE INDEX IF NOT EXISTS idx_presence_tenant_date
		ON presence_records(tenant_id, date);

	-- Overtime (transactional data, purged at close)
	CREATE TABLE IF NOT EXISTS overtime_entries (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		hours TEXT NOT NULL,
		class TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_overtime_tenant_date
		ON overtime_entries(tenant_id, date);
	CREATE INDEX IF NOT EXISTS idx_overtime_employee_date
		ON overtime_entries(employee_id, date);

	-- Monthly archives (snapshot blobs)
	CREATE TABLE IF NOT EXISTS monthly_archives (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		status TEXT NOT NULL,
		active_employees INTEGER NOT NULL,
		inactive_employees INTEGER NOT NULL,
		gross TEXT NOT NULL,
		deductions TEXT NOT NULL,
		net TEXT NOT NULL,
		snapshot_json TEXT NOT NULL,
		closed_at TEXT NOT NULL,
		archived_at TEXT
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_archives_tenant_period
		ON monthly_archives(tenant_id, year, month);

	-- Transition audit trail
	CREATE TABLE IF NOT EXISTS period_events (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		action TEXT NOT NULL,
		actor TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_period_events_tenant_period
		ON period_events(tenant_id, year, month);
	`

	_, err := s.db.Exec(schema)
	return err
}

// dbtx is satisfied by both *sql.DB and *sql.Tx, so the query helpers below
// serve the plain store and the transactional store alike.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// =============================================================================
// EMPLOYEE STORE (payroll.EmployeeStore interface)
// =============================================================================

func (s *Store) SaveEmployee(ctx context.Context, emp payroll.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveEmployee(ctx, s.db, emp)
}

func saveEmployee(ctx context.Context, q dbtx, emp payroll.Employee) error {
	query := `
		INSERT INTO employees
		(id, tenant_id, matricule, name, function, status, base_salary, hourly_rate,
		 overtime_weekday_rate, overtime_sunday_rate, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			matricule = excluded.matricule,
			name = excluded.name,
			function = excluded.function,
			status = excluded.status,
			base_salary = excluded.base_salary,
			hourly_rate = excluded.hourly_rate,
			overtime_weekday_rate = excluded.overtime_weekday_rate,
			overtime_sunday_rate = excluded.overtime_sunday_rate,
			updated_at = excluded.updated_at
		WHERE employees.tenant_id = excluded.tenant_id
	`

	var hourly *string
	if emp.HourlyRate != nil {
		v := emp.HourlyRate.String()
		hourly = &v
	}
	now := time.Now().UTC().Format(time.RFC3339)
	createdAt := now
	if !emp.CreatedAt.IsZero() {
		createdAt = emp.CreatedAt.UTC().Format(time.RFC3339)
	}

	res, err := q.ExecContext(ctx, query,
		emp.ID, emp.TenantID, emp.Matricule, emp.Name, emp.Function, emp.Status,
		emp.BaseSalary.String(), hourly,
		emp.OvertimeWeekdayRate.String(), emp.OvertimeSundayRate.String(),
		createdAt, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return &payroll.ValidationError{Field: "matricule", Message: "already in use: " + emp.Matricule}
		}
		return fmt.Errorf("failed to save employee: %w", err)
	}
	// The conflict update is tenant-guarded, so a zero-row write means the
	// ID belongs to another tenant.
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	if n == 0 {
		return &payroll.ValidationError{Field: "id", Message: "already in use: " + string(emp.ID)}
	}
	return nil
}

const employeeColumns = `id, tenant_id, matricule, name, function, status, base_salary,
	hourly_rate, overtime_weekday_rate, overtime_sunday_rate, created_at, updated_at`

func (s *Store) GetEmployee(ctx context.Context, tenant payroll.TenantID, id payroll.EmployeeID) (*payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getEmployee(ctx, s.db, tenant, id)
}

func getEmployee(ctx context.Context, q dbtx, tenant payroll.TenantID, id payroll.EmployeeID) (*payroll.Employee, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+employeeColumns+" FROM employees WHERE tenant_id = ? AND id = ?",
		tenant, id,
	)
	emp, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return nil, payroll.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, err
	}
	return emp, nil
}

func (s *Store) ListEmployees(ctx context.Context, tenant payroll.TenantID) ([]payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listEmployees(ctx, s.db, tenant)
}

func listEmployees(ctx context.Context, q dbtx, tenant payroll.TenantID) ([]payroll.Employee, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+employeeColumns+" FROM employees WHERE tenant_id = ? ORDER BY matricule",
		tenant,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []payroll.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, *emp)
	}
	return employees, rows.Err()
}

func scanEmployee(r rowScanner) (*payroll.Employee, error) {
	var (
		emp                payroll.Employee
		baseSalary         string
		hourly             sql.NullString
		weekdayRate        string
		sundayRate         string
		createdAt, updated string
	)
	err := r.Scan(
		&emp.ID, &emp.TenantID, &emp.Matricule, &emp.Name, &emp.Function, &emp.Status,
		&baseSalary, &hourly, &weekdayRate, &sundayRate, &createdAt, &updated,
	)
	if err != nil {
		return nil, err
	}
	emp.BaseSalary = mustDecimal(baseSalary)
	if hourly.Valid {
		v := mustDecimal(hourly.String)
		emp.HourlyRate = &v
	}
	emp.OvertimeWeekdayRate = mustDecimal(weekdayRate)
	emp.OvertimeSundayRate = mustDecimal(sundayRate)
	emp.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	emp.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	return &emp, nil
}

// =============================================================================
// RATE STORE (payroll.RateStore interface)
// =============================================================================

func (s *Store) ActiveRate(ctx context.Context, tenant payroll.TenantID, employee payroll.EmployeeID, code payroll.StatusCode) (*payroll.RateEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return activeRate(ctx, s.db, tenant, employee, code)
}

func activeRate(ctx context.Context, q dbtx, tenant payroll.TenantID, employee payroll.EmployeeID, code payroll.StatusCode) (*payroll.RateEntry, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, tenant_id, employee_id, code, amount, active, created_at, deactivated_at
		FROM rate_entries
		WHERE tenant_id = ? AND employee_id = ? AND code = ? AND active = 1`,
		tenant, employee, code,
	)
	entry, err := scanRateEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// SetRate deactivates the prior active row for the key and inserts the new
// one, in a single transaction so the key never has two active entries.
func (s *Store) SetRate(ctx context.Context, entry payroll.RateEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := setRate(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit()
}

func setRate(ctx context.Context, q dbtx, entry payroll.RateEntry) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := q.ExecContext(ctx, `
		UPDATE rate_entries SET active = 0, deactivated_at = ?
		WHERE tenant_id = ? AND employee_id = ? AND code = ? AND active = 1`,
		now, entry.TenantID, entry.EmployeeID, entry.Code,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate rate entry: %w", err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO rate_entries (id, tenant_id, employee_id, code, amount, active, created_at)
		VALUES (?, ?, ?, ?, ?, 1, ?)`,
		entry.ID, entry.TenantID, entry.EmployeeID, entry.Code,
		entry.Amount.String(), entry.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert rate entry: %w", err)
	}
	return nil
}

func (s *Store) ListActiveRates(ctx context.Context, tenant payroll.TenantID) ([]payroll.RateEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listActiveRates(ctx, s.db, tenant)
}

func listActiveRates(ctx context.Context, q dbtx, tenant payroll.TenantID) ([]payroll.RateEntry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, tenant_id, employee_id, code, amount, active, created_at, deactivated_at
		FROM rate_entries
		WHERE tenant_id = ? AND active = 1
		ORDER BY code, employee_id`,
		tenant,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query rate entries: %w", err)
	}
	defer rows.Close()

	var entries []payroll.RateEntry
	for rows.Next() {
		entry, err := scanRateEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

func scanRateEntry(r rowScanner) (*payroll.RateEntry, error) {
	var (
		entry         payroll.RateEntry
		amount        string
		active        int
		createdAt     string
		deactivatedAt sql.NullString
	)
	err := r.Scan(&entry.ID, &entry.TenantID, &entry.EmployeeID, &entry.Code,
		&amount, &active, &createdAt, &deactivatedAt)
	if err != nil {
		return nil, err
	}
	entry.Amount = mustDecimal(amount)
	entry.Active = active == 1
	entry.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if deactivatedAt.Valid {
		t, _ := time.Parse(time.RFC3339, deactivatedAt.String)
		entry.DeactivatedAt = &t
	}
	return &entry, nil
}

// =============================================================================
// PRESENCE STORE (payroll.PresenceStore interface)
// =============================================================================

func (s *Store) UpsertPresence(ctx context.Context, rec payroll.PresenceRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return upsertPresence(ctx, s.db, rec)
}

func upsertPresence(ctx context.Context, q dbtx, rec payroll.PresenceRecord) (bool, error) {
	// Existence check feeds the created-vs-updated count; the write itself is
	// a single atomic upsert that preserves the original row identity.
	var existing int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM presence_records WHERE employee_id = ? AND date = ?",
		rec.EmployeeID, rec.Date.String(),
	).Scan(&existing)
	if err != nil {
		return false, err
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO presence_records (id, tenant_id, employee_id, date, code, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, date) DO UPDATE SET
			code = excluded.code,
			updated_at = excluded.updated_at`,
		rec.ID, rec.TenantID, rec.EmployeeID, rec.Date.String(), rec.Code,
		rec.CreatedAt.UTC().Format(time.RFC3339), rec.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return false, fmt.Errorf("failed to upsert presence record: %w", err)
	}
	return existing == 0, nil
}

const presenceColumns = "id, tenant_id, employee_id, date, code, created_at, updated_at"

func (s *Store) PresenceForPeriod(ctx context.Context, tenant payroll.TenantID, employee payroll.EmployeeID, p payroll.Period) ([]payroll.PresenceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return presenceForPeriod(ctx, s.db, tenant, employee, p)
}

func presenceForPeriod(ctx context.Context, q dbtx, tenant payroll.TenantID, employee payroll.EmployeeID, p payroll.Period) ([]payroll.PresenceRecord, error) {
	query := `
		SELECT ` + presenceColumns + `
		FROM presence_records
		WHERE tenant_id = ? AND employee_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC`
	return queryPresence(ctx, q, query, tenant, employee, p.Start().String(), p.End().String())
}

func (s *Store) PresenceForTenantPeriod(ctx context.Context, tenant payroll.TenantID, p payroll.Period) ([]payroll.PresenceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return presenceForTenantPeriod(ctx, s.db, tenant, p)
}

func presenceForTenantPeriod(ctx context.Context, q dbtx, tenant payroll.TenantID, p payroll.Period) ([]payroll.PresenceRecord, error) {
	query := `
		SELECT ` + presenceColumns + `
		FROM presence_records
		WHERE tenant_id = ? AND date >= ? AND date <= ?
		ORDER BY employee_id ASC, date ASC`
	return queryPresence(ctx, q, query, tenant, p.Start().String(), p.End().String())
}

func (s *Store) CountPresenceForPeriod(ctx context.Context, tenant payroll.TenantID, p payroll.Period) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return countPresenceForPeriod(ctx, s.db, tenant, p)
}

func countPresenceForPeriod(ctx context.Context, q dbtx, tenant payroll.TenantID, p payroll.Period) (int, error) {
	var count int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM presence_records WHERE tenant_id = ? AND date >= ? AND date <= ?",
		tenant, p.Start().String(), p.End().String(),
	).Scan(&count)
	return count, err
}

func (s *Store) DeletePresenceForPeriod(ctx context.Context, tenant payroll.TenantID, p payroll.Period) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deletePresenceForPeriod(ctx, s.db, tenant, p)
}

func deletePresenceForPeriod(ctx context.Context, q dbtx, tenant payroll.TenantID, p payroll.Period) error {
	_, err := q.ExecContext(ctx,
		"DELETE FROM presence_records WHERE tenant_id = ? AND date >= ? AND date <= ?",
		tenant, p.Start().String(), p.End().String(),
	)
	return err
}

func queryPresence(ctx context.Context, q dbtx, query string, args ...any) ([]payroll.PresenceRecord, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query presence records: %w", err)
	}
	defer rows.Close()

	var records []payroll.PresenceRecord
	for rows.Next() {
		var (
			rec                payroll.PresenceRecord
			date               string
			createdAt, updated string
		)
		if err := rows.Scan(&rec.ID, &rec.TenantID, &rec.EmployeeID, &date, &rec.Code,
			&createdAt, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan presence record: %w", err)
		}
		rec.Date, _ = payroll.ParseDate(date)
		rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		rec.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// =============================================================================
// OVERTIME STORE (payroll.OvertimeStore interface)
// =============================================================================

func (s *Store) SaveOvertime(ctx context.Context, entry payroll.OvertimeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveOvertime(ctx, s.db, entry)
}

func saveOvertime(ctx context.Context, q dbtx, entry payroll.OvertimeEntry) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO overtime_entries (id, tenant_id, employee_id, date, hours, class, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			hours = excluded.hours,
			class = excluded.class`,
		entry.ID, entry.TenantID, entry.EmployeeID, entry.Date.String(),
		entry.Hours.String(), entry.Class, entry.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save overtime entry: %w", err)
	}
	return nil
}

const overtimeColumns = "id, tenant_id, employee_id, date, hours, class, created_at"

func (s *Store) OvertimeForPeriod(ctx context.Context, tenant payroll.TenantID, employee payroll.EmployeeID, p payroll.Period) ([]payroll.OvertimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return overtimeForPeriod(ctx, s.db, tenant, employee, p)
}

func overtimeForPeriod(ctx context.Context, q dbtx, tenant payroll.TenantID, employee payroll.EmployeeID, p payroll.Period) ([]payroll.OvertimeEntry, error) {
	query := `
		SELECT ` + overtimeColumns + `
		FROM overtime_entries
		WHERE tenant_id = ? AND employee_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC`
	return queryOvertime(ctx, q, query, tenant, employee, p.Start().String(), p.End().String())
}

func (s *Store) OvertimeForTenantPeriod(ctx context.Context, tenant payroll.TenantID, p payroll.Period) ([]payroll.OvertimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return overtimeForTenantPeriod(ctx, s.db, tenant, p)
}

func overtimeForTenantPeriod(ctx context.Context, q dbtx, tenant payroll.TenantID, p payroll.Period) ([]payroll.OvertimeEntry, error) {
	query := `
		SELECT ` + overtimeColumns + `
		FROM overtime_entries
		WHERE tenant_id = ? AND date >= ? AND date <= ?
		ORDER BY employee_id ASC, date ASC`
	return queryOvertime(ctx, q, query, tenant, p.Start().String(), p.End().String())
}

func (s *Store) CountOvertimeForPeriod(ctx context.Context, tenant payroll.TenantID, p payroll.Period) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return countOvertimeForPeriod(ctx, s.db, tenant, p)
}

func countOvertimeForPeriod(ctx context.Context, q dbtx, tenant payroll.TenantID, p payroll.Period) (int, error) {
	var count int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM overtime_entries WHERE tenant_id = ? AND date >= ? AND date <= ?",
		tenant, p.Start().String(), p.End().String(),
	).Scan(&count)
	return count, err
}

func (s *Store) DeleteOvertimeForPeriod(ctx context.Context, tenant payroll.TenantID, p payroll.Period) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteOvertimeForPeriod(ctx, s.db, tenant, p)
}

func deleteOvertimeForPeriod(ctx context.Context, q dbtx, tenant payroll.TenantID, p payroll.Period) error {
	_, err := q.ExecContext(ctx,
		"DELETE FROM overtime_entries WHERE tenant_id = ? AND date >= ? AND date <= ?",
		tenant, p.Start().String(), p.End().String(),
	)
	return err
}

func queryOvertime(ctx context.Context, q dbtx, query string, args ...any) ([]payroll.OvertimeEntry, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query overtime entries: %w", err)
	}
	defer rows.Close()

	var entries []payroll.OvertimeEntry
	for rows.Next() {
		var (
			entry     payroll.OvertimeEntry
			date      string
			hours     string
			createdAt string
		)
		if err := rows.Scan(&entry.ID, &entry.TenantID, &entry.EmployeeID, &date,
			&hours, &entry.Class, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan overtime entry: %w", err)
		}
		entry.Date, _ = payroll.ParseDate(date)
		entry.Hours = mustDecimal(hours)
		entry.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// =============================================================================
// ARCHIVE STORE (payroll.ArchiveStore interface)
// =============================================================================

func (s *Store) SaveArchive(ctx context.Context, arch payroll.MonthlyArchive) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveArchive(ctx, s.db, arch)
}

func saveArchive(ctx context.Context, q dbtx, arch payroll.MonthlyArchive) error {
	snapshotJSON, err := json.Marshal(arch.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	var archivedAt *string
	if arch.ArchivedAt != nil {
		v := arch.ArchivedAt.UTC().Format(time.RFC3339)
		archivedAt = &v
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO monthly_archives
		(id, tenant_id, year, month, status, active_employees, inactive_employees,
		 gross, deductions, net, snapshot_json, closed_at, archived_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arch.ID, arch.TenantID, arch.Period.Year, int(arch.Period.Month), arch.Status,
		arch.ActiveEmployees, arch.InactiveEmployees,
		arch.Totals.Gross.String(), arch.Totals.Deductions.String(), arch.Totals.Net.String(),
		string(snapshotJSON), arch.ClosedAt.UTC().Format(time.RFC3339), archivedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return &payroll.ValidationError{Field: "period", Message: "archive already exists for " + arch.Period.Key()}
		}
		return fmt.Errorf("failed to save archive: %w", err)
	}
	return nil
}

const archiveColumns = `id, tenant_id, year, month, status, active_employees, inactive_employees,
	gross, deductions, net, snapshot_json, closed_at, archived_at`

func (s *Store) GetArchive(ctx context.Context, tenant payroll.TenantID, p payroll.Period) (*payroll.MonthlyArchive, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getArchive(ctx, s.db, tenant, p)
}

func getArchive(ctx context.Context, q dbtx, tenant payroll.TenantID, p payroll.Period) (*payroll.MonthlyArchive, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+archiveColumns+" FROM monthly_archives WHERE tenant_id = ? AND year = ? AND month = ?",
		tenant, p.Year, int(p.Month),
	)
	arch, err := scanArchive(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return arch, nil
}

func (s *Store) ListArchives(ctx context.Context, tenant payroll.TenantID) ([]payroll.MonthlyArchive, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listArchives(ctx, s.db, tenant)
}

func listArchives(ctx context.Context, q dbtx, tenant payroll.TenantID) ([]payroll.MonthlyArchive, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+archiveColumns+" FROM monthly_archives WHERE tenant_id = ? ORDER BY year DESC, month DESC",
		tenant,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query archives: %w", err)
	}
	defer rows.Close()

	var archives []payroll.MonthlyArchive
	for rows.Next() {
		arch, err := scanArchive(rows)
		if err != nil {
			return nil, err
		}
		archives = append(archives, *arch)
	}
	return archives, rows.Err()
}

func scanArchive(r rowScanner) (*payroll.MonthlyArchive, error) {
	var (
		arch             payroll.MonthlyArchive
		year, month      int
		gross, deds, net string
		snapshotJSON     string
		closedAt         string
		archivedAt       sql.NullString
	)
	err := r.Scan(&arch.ID, &arch.TenantID, &year, &month, &arch.Status,
		&arch.ActiveEmployees, &arch.InactiveEmployees,
		&gross, &deds, &net, &snapshotJSON, &closedAt, &archivedAt)
	if err != nil {
		return nil, err
	}
	arch.Period = payroll.Period{Month: time.Month(month), Year: year}
	arch.Totals = payroll.ArchiveTotals{
		Gross:      mustDecimal(gross),
		Deductions: mustDecimal(deds),
		Net:        mustDecimal(net),
	}
	if err := json.Unmarshal([]byte(snapshotJSON), &arch.Snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	arch.ClosedAt, _ = time.Parse(time.RFC3339, closedAt)
	if archivedAt.Valid {
		t, _ := time.Parse(time.RFC3339, archivedAt.String)
		arch.ArchivedAt = &t
	}
	return &arch, nil
}

func (s *Store) UpdateArchiveStatus(ctx context.Context, tenant payroll.TenantID, p payroll.Period, status payroll.PeriodStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateArchiveStatus(ctx, s.db, tenant, p, status)
}

func updateArchiveStatus(ctx context.Context, q dbtx, tenant payroll.TenantID, p payroll.Period, status payroll.PeriodStatus) error {
	var archivedAt *string
	if status == payroll.PeriodArchived {
		v := time.Now().UTC().Format(time.RFC3339)
		archivedAt = &v
	}
	res, err := q.ExecContext(ctx,
		"UPDATE monthly_archives SET status = ?, archived_at = ? WHERE tenant_id = ? AND year = ? AND month = ?",
		status, archivedAt, tenant, p.Year, int(p.Month),
	)
	if err != nil {
		return fmt.Errorf("failed to update archive status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return payroll.ErrArchiveNotFound
	}
	return nil
}

func (s *Store) DeleteArchive(ctx context.Context, tenant payroll.TenantID, p payroll.Period) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteArchive(ctx, s.db, tenant, p)
}

func deleteArchive(ctx context.Context, q dbtx, tenant payroll.TenantID, p payroll.Period) error {
	_, err := q.ExecContext(ctx,
		"DELETE FROM monthly_archives WHERE tenant_id = ? AND year = ? AND month = ?",
		tenant, p.Year, int(p.Month),
	)
	return err
}

func (s *Store) AppendEvent(ctx context.Context, ev payroll.PeriodEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendEvent(ctx, s.db, ev)
}

func appendEvent(ctx context.Context, q dbtx, ev payroll.PeriodEvent) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO period_events (id, tenant_id, year, month, action, actor, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.TenantID, ev.Period.Year, int(ev.Period.Month), ev.Action, ev.Actor,
		ev.At.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to append period event: %w", err)
	}
	return nil
}

func (s *Store) ListEvents(ctx context.Context, tenant payroll.TenantID, p payroll.Period) ([]payroll.PeriodEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listEvents(ctx, s.db, tenant, p)
}

func listEvents(ctx context.Context, q dbtx, tenant payroll.TenantID, p payroll.Period) ([]payroll.PeriodEvent, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, tenant_id, year, month, action, actor, created_at
		FROM period_events
		WHERE tenant_id = ? AND year = ? AND month = ?
		ORDER BY created_at ASC, rowid ASC`,
		tenant, p.Year, int(p.Month),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query period events: %w", err)
	}
	defer rows.Close()

	var events []payroll.PeriodEvent
	for rows.Next() {
		var (
			ev          payroll.PeriodEvent
			year, month int
			createdAt   string
		)
		if err := rows.Scan(&ev.ID, &ev.TenantID, &year, &month, &ev.Action, &ev.Actor, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan period event: %w", err)
		}
		ev.Period = payroll.Period{Month: time.Month(month), Year: year}
		ev.At, _ = time.Parse(time.RFC3339, createdAt)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// =============================================================================
// TRANSACTIONAL STORE (payroll.TxStore interface)
// =============================================================================

// WithTx executes fn within a database transaction. The store mutex is held
// for the duration so no other writer observes intermediate state.
func (s *Store) WithTx(ctx context.Context, fn func(payroll.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txStore routes every operation through the open transaction.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) SaveEmployee(ctx context.Context, emp payroll.Employee) error {
	return saveEmployee(ctx, ts.tx, emp)
}

func (ts *txStore) GetEmployee(ctx context.Context, tenant payroll.TenantID, id payroll.EmployeeID) (*payroll.Employee, error) {
	return getEmployee(ctx, ts.tx, tenant, id)
}

func (ts *txStore) ListEmployees(ctx context.Context, tenant payroll.TenantID) ([]payroll.Employee, error) {
	return listEmployees(ctx, ts.tx, tenant)
}

func (ts *txStore) ActiveRate(ctx context.Context, tenant payroll.TenantID, employee payroll.EmployeeID, code payroll.StatusCode) (*payroll.RateEntry, error) {
	return activeRate(ctx, ts.tx, tenant, employee, code)
}

func (ts *txStore) SetRate(ctx context.Context, entry payroll.RateEntry) error {
	return setRate(ctx, ts.tx, entry)
}

func (ts *txStore) ListActiveRates(ctx context.Context, tenant payroll.TenantID) ([]payroll.RateEntry, error) {
	return listActiveRates(ctx, ts.tx, tenant)
}

func (ts *txStore) UpsertPresence(ctx context.Context, rec payroll.PresenceRecord) (bool, error) {
	return upsertPresence(ctx, ts.tx, rec)
}

func (ts *txStore) PresenceForPeriod(ctx context.Context, tenant payroll.TenantID, employee payroll.EmployeeID, p payroll.Period) ([]payroll.PresenceRecord, error) {
	return presenceForPeriod(ctx, ts.tx, tenant, employee, p)
}

func (ts *txStore) PresenceForTenantPeriod(ctx context.Context, tenant payroll.TenantID, p payroll.Period) ([]payroll.PresenceRecord, error) {
	return presenceForTenantPeriod(ctx, ts.tx, tenant, p)
}

func (ts *txStore) CountPresenceForPeriod(ctx context.Context, tenant payroll.TenantID, p payroll.Period) (int, error) {
	return countPresenceForPeriod(ctx, ts.tx, tenant, p)
}

func (ts *txStore) DeletePresenceForPeriod(ctx context.Context, tenant payroll.TenantID, p payroll.Period) error {
	return deletePresenceForPeriod(ctx, ts.tx, tenant, p)
}

func (ts *txStore) SaveOvertime(ctx context.Context, entry payroll.OvertimeEntry) error {
	return saveOvertime(ctx, ts.tx, entry)
}

func (ts *txStore) OvertimeForPeriod(ctx context.Context, tenant payroll.TenantID, employee payroll.EmployeeID, p payroll.Period) ([]payroll.OvertimeEntry, error) {
	return overtimeForPeriod(ctx, ts.tx, tenant, employee, p)
}

func (ts *txStore) OvertimeForTenantPeriod(ctx context.Context, tenant payroll.TenantID, p payroll.Period) ([]payroll.OvertimeEntry, error) {
	return overtimeForTenantPeriod(ctx, ts.tx, tenant, p)
}

func (ts *txStore) CountOvertimeForPeriod(ctx context.Context, tenant payroll.TenantID, p payroll.Period) (int, error) {
	return countOvertimeForPeriod(ctx, ts.tx, tenant, p)
}

func (ts *txStore) DeleteOvertimeForPeriod(ctx context.Context, tenant payroll.TenantID, p payroll.Period) error {
	return deleteOvertimeForPeriod(ctx, ts.tx, tenant, p)
}

func (ts *txStore) SaveArchive(ctx context.Context, arch payroll.MonthlyArchive) error {
	return saveArchive(ctx, ts.tx, arch)
}

func (ts *txStore) GetArchive(ctx context.Context, tenant payroll.TenantID, p payroll.Period) (*payroll.MonthlyArchive, error) {
	return getArchive(ctx, ts.tx, tenant, p)
}

func (ts *txStore) ListArchives(ctx context.Context, tenant payroll.TenantID) ([]payroll.MonthlyArchive, error) {
	return listArchives(ctx, ts.tx, tenant)
}

func (ts *txStore) UpdateArchiveStatus(ctx context.Context, tenant payroll.TenantID, p payroll.Period, status payroll.PeriodStatus) error {
	return updateArchiveStatus(ctx, ts.tx, tenant, p, status)
}

func (ts *txStore) DeleteArchive(ctx context.Context, tenant payroll.TenantID, p payroll.Period) error {
	return deleteArchive(ctx, ts.tx, tenant, p)
}

func (ts *txStore) AppendEvent(ctx context.Context, ev payroll.PeriodEvent) error {
	return appendEvent(ctx, ts.tx, ev)
}

func (ts *txStore) ListEvents(ctx context.Context, tenant payroll.TenantID, p payroll.Period) ([]payroll.PeriodEvent, error) {
	return listEvents(ctx, ts.tx, tenant, p)
}

// =============================================================================
// HELPERS
// =============================================================================

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}

/*
archive.go - Monthly period state machine: Open -> Closed -> Archived

PURPOSE:
  Orchestrates the irreversible-by-default transition from an open working
  period to a closed, snapshotted one, and the explicit reverse edge
  (restore) for corrections.

CLOSE SEQUENCE:
  1. Gate on the consistency checker (PreconditionError carries the report)
  2. Capture the period's presence/overtime rows and price every active
     employee's breakdown from that captured set, in parallel, bounded by
     a worker pool and a timeout; any failure aborts with state still Open
  3. Persist archive row + purge presence/overtime rows + audit event in
     ONE transaction. The live rows are re-read inside it and compared to
     the captured set: drift aborts with ErrConcurrentTransition, so the
     snapshot's totals always match its own rows
  4. Reference data (employees, rate entries) is never touched

IDEMPOTENCE & SERIALIZATION:
  Re-closing a Closed/Archived period returns the existing archive and
  performs no mutation. Concurrent transitions on the same (tenant,
  period) key are serialized with a per-key try-lock: the loser gets
  ErrConcurrentTransition, retryable after backoff.

RESTORE:
  Re-materializes the snapshot's presence and overtime rows into the live
  tables, deletes the archive row, and reopens editing. Fails with
  ErrRestoreConflict if live rows already exist for the period.

SEE ALSO:
  - checker.go: The precondition gate
  - aggregator.go: The per-employee computation fanned out here
*/
package payroll

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// ARCHIVER
// =============================================================================

const (
	defaultCloseWorkers = 8
	defaultCloseTimeout = 2 * time.Minute
)

// Archiver drives the period state machine.
type Archiver struct {
	store      TxStore
	aggregator *Aggregator
	checker    *Checker

	// deductionRate is applied to the gross rollup at close time
	// (net = gross - gross*rate). Zero by default.
	deductionRate decimal.Decimal
	workers       int
	closeTimeout  time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex // one lock per (tenant, period) key
}

// ArchiverOption configures an Archiver.
type ArchiverOption func(*Archiver)

// WithDeductionRate sets the tenant-wide deduction fraction (e.g. 0.05).
func WithDeductionRate(rate decimal.Decimal) ArchiverOption {
	return func(a *Archiver) { a.deductionRate = rate }
}

// WithWorkers bounds the close fan-out pool.
func WithWorkers(n int) ArchiverOption {
	return func(a *Archiver) { a.workers = n }
}

// WithCloseTimeout bounds the close fan-out phase. On expiry close fails
// and the period stays Open.
func WithCloseTimeout(d time.Duration) ArchiverOption {
	return func(a *Archiver) { a.closeTimeout = d }
}

func NewArchiver(store TxStore, opts ...ArchiverOption) *Archiver {
	a := &Archiver{
		store:         store,
		aggregator:    NewAggregator(store),
		checker:       NewChecker(store),
		deductionRate: decimal.Zero,
		workers:       defaultCloseWorkers,
		closeTimeout:  defaultCloseTimeout,
		locks:         make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Status returns the archival state of the period. Open means no archive
// row exists.
func (a *Archiver) Status(ctx context.Context, tenant TenantID, p Period) (PeriodStatus, error) {
	arch, err := a.store.GetArchive(ctx, tenant, p)
	if err != nil {
		return "", err
	}
	if arch == nil {
		return PeriodOpen, nil
	}
	return arch.Status, nil
}

// Events returns the transition audit trail for the period.
func (a *Archiver) Events(ctx context.Context, tenant TenantID, p Period) ([]PeriodEvent, error) {
	return a.store.ListEvents(ctx, tenant, p)
}

// =============================================================================
// CLOSE - Open -> Closed
// =============================================================================

// Close snapshots the period and purges its transactional rows.
// Re-closing an already closed/archived period is an idempotent no-op
// that returns the existing archive.
func (a *Archiver) Close(ctx context.Context, tenant TenantID, p Period, actor string) (*MonthlyArchive, error) {
	if tenant == "" {
		return nil, &ValidationError{Field: "tenant_id", Message: "required"}
	}
	if !p.Valid() {
		return nil, &ValidationError{Field: "period", Message: "invalid month/year"}
	}

	lock := a.lockFor(tenant, p)
	if !lock.TryLock() {
		return nil, ErrConcurrentTransition
	}
	defer lock.Unlock()

	// Idempotent no-op path: duplicate requests observe the existing archive.
	existing, err := a.store.GetArchive(ctx, tenant, p)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	// Precondition gate. Never auto-resolved here.
	report, err := a.checker.CheckReferenceData(ctx, tenant)
	if err != nil {
		return nil, err
	}
	if !report.Coherent {
		return nil, &PreconditionError{TenantID: tenant, Period: p, Report: report}
	}

	employees, err := a.store.ListEmployees(ctx, tenant)
	if err != nil {
		return nil, err
	}
	var active []Employee
	activeCount, inactiveCount := 0, 0
	for _, emp := range employees {
		if emp.IsActive() {
			active = append(active, emp)
			activeCount++
		} else {
			inactiveCount++
		}
	}

	// Capture the row set that the snapshot will freeze. Breakdowns are
	// computed from this exact set, never from a second store read, so the
	// frozen totals always agree with the snapshot's own rows.
	presence, err := a.store.PresenceForTenantPeriod(ctx, tenant, p)
	if err != nil {
		return nil, err
	}
	overtime, err := a.store.OvertimeForTenantPeriod(ctx, tenant, p)
	if err != nil {
		return nil, err
	}

	presenceByEmp := make(map[EmployeeID][]PresenceRecord, len(active))
	for _, rec := range presence {
		presenceByEmp[rec.EmployeeID] = append(presenceByEmp[rec.EmployeeID], rec)
	}
	overtimeByEmp := make(map[EmployeeID][]OvertimeEntry, len(active))
	for _, e := range overtime {
		overtimeByEmp[e.EmployeeID] = append(overtimeByEmp[e.EmployeeID], e)
	}

	breakdowns, err := a.computeAll(ctx, tenant, p, active, presenceByEmp, overtimeByEmp)
	if err != nil {
		return nil, err
	}

	gross := decimal.Zero
	for _, bd := range breakdowns {
		gross = gross.Add(bd.GrandTotal)
	}
	deductions := gross.Mul(a.deductionRate)

	arch := MonthlyArchive{
		ID:                ArchiveID(uuid.NewString()),
		TenantID:          tenant,
		Period:            p,
		Status:            PeriodClosed,
		ActiveEmployees:   activeCount,
		InactiveEmployees: inactiveCount,
		Totals: ArchiveTotals{
			Gross:      gross,
			Deductions: deductions,
			Net:        gross.Sub(deductions),
		},
		ClosedAt: time.Now().UTC(),
	}

	arch.Snapshot = Snapshot{
		Breakdowns: breakdowns,
		Presence:   presence,
		Overtime:   overtime,
	}

	// Archive write, purge, and audit event share one transaction, and the
	// live rows are re-read inside it: a ledger write that landed after the
	// capture aborts the close instead of being purged unpriced.
	err = a.store.WithTx(ctx, func(s Store) error {
		livePresence, err := s.PresenceForTenantPeriod(ctx, tenant, p)
		if err != nil {
			return err
		}
		liveOvertime, err := s.OvertimeForTenantPeriod(ctx, tenant, p)
		if err != nil {
			return err
		}
		if !samePresenceSet(presence, livePresence) || !sameOvertimeSet(overtime, liveOvertime) {
			return ErrConcurrentTransition
		}
		if err := s.SaveArchive(ctx, arch); err != nil {
			return err
		}
		if err := s.DeletePresenceForPeriod(ctx, tenant, p); err != nil {
			return err
		}
		if err := s.DeleteOvertimeForPeriod(ctx, tenant, p); err != nil {
			return err
		}
		return s.AppendEvent(ctx, a.event(tenant, p, ActionClose, actor))
	})
	if err != nil {
		return nil, err
	}
	return &arch, nil
}

// computeAll fans the pricing step out over the active roster, bounded by
// the worker pool and the close timeout. Each worker prices the captured
// rows for its employee. Any failure cancels the rest and leaves the
// period untouched. Results come back in matricule order.
func (a *Archiver) computeAll(ctx context.Context, tenant TenantID, p Period, active []Employee,
	presenceByEmp map[EmployeeID][]PresenceRecord, overtimeByEmp map[EmployeeID][]OvertimeEntry) ([]Breakdown, error) {
	if len(active) == 0 {
		return nil, nil
	}

	sort.Slice(active, func(i, j int) bool { return active[i].Matricule < active[j].Matricule })

	ctx, cancel := context.WithTimeout(ctx, a.closeTimeout)
	defer cancel()

	workers := a.workers
	if workers <= 0 {
		workers = defaultCloseWorkers
	}
	if workers > len(active) {
		workers = len(active)
	}

	results := make([]Breakdown, len(active))
	jobs := make(chan int)

	var wg sync.WaitGroup
	var once sync.Once
	var firstErr error
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				emp := active[i]
				bd, err := a.aggregator.price(ctx, tenant, emp, p, presenceByEmp[emp.ID], overtimeByEmp[emp.ID])
				if err != nil {
					fail(err)
					return
				}
				results[i] = bd
			}
		}()
	}

feed:
	for i := range active {
		select {
		case jobs <- i:
		case <-ctx.Done():
			fail(ctx.Err())
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// samePresenceSet reports whether the live rows still match the captured
// set the breakdowns were priced from. A new row, a deleted row, or an
// overwritten code all count as drift.
func samePresenceSet(captured, live []PresenceRecord) bool {
	if len(captured) != len(live) {
		return false
	}
	codes := make(map[string]StatusCode, len(captured))
	for _, rec := range captured {
		codes[rec.ID] = rec.Code
	}
	for _, rec := range live {
		code, ok := codes[rec.ID]
		if !ok || code != rec.Code {
			return false
		}
	}
	return true
}

func sameOvertimeSet(captured, live []OvertimeEntry) bool {
	if len(captured) != len(live) {
		return false
	}
	ids := make(map[string]struct{}, len(captured))
	for _, e := range captured {
		ids[e.ID] = struct{}{}
	}
	for _, e := range live {
		if _, ok := ids[e.ID]; !ok {
			return false
		}
	}
	return true
}

// =============================================================================
// ARCHIVE - Closed -> Archived
// =============================================================================

// Archive marks a closed snapshot as audit-final. No data change beyond
// the status flip. Archiving an already archived period is a no-op.
func (a *Archiver) Archive(ctx context.Context, tenant TenantID, p Period, actor string) (*MonthlyArchive, error) {
	lock := a.lockFor(tenant, p)
	if !lock.TryLock() {
		return nil, ErrConcurrentTransition
	}
	defer lock.Unlock()

	arch, err := a.store.GetArchive(ctx, tenant, p)
	if err != nil {
		return nil, err
	}
	if arch == nil {
		return nil, &TransitionError{TenantID: tenant, Period: p, From: PeriodOpen, Action: ActionArchive}
	}
	if arch.Status == PeriodArchived {
		return arch, nil
	}

	err = a.store.WithTx(ctx, func(s Store) error {
		if err := s.UpdateArchiveStatus(ctx, tenant, p, PeriodArchived); err != nil {
			return err
		}
		return s.AppendEvent(ctx, a.event(tenant, p, ActionArchive, actor))
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	arch.Status = PeriodArchived
	arch.ArchivedAt = &now
	return arch, nil
}

// =============================================================================
// RESTORE - Closed|Archived -> Open
// =============================================================================

// Restore re-materializes the snapshot's transactional rows into the live
// tables, deletes the archive row, and reopens the period for editing.
func (a *Archiver) Restore(ctx context.Context, tenant TenantID, p Period, actor string) error {
	lock := a.lockFor(tenant, p)
	if !lock.TryLock() {
		return ErrConcurrentTransition
	}
	defer lock.Unlock()

	arch, err := a.store.GetArchive(ctx, tenant, p)
	if err != nil {
		return err
	}
	if arch == nil {
		return &TransitionError{TenantID: tenant, Period: p, From: PeriodOpen, Action: ActionRestore}
	}

	// Live rows for a closed period should not exist; if they do, a
	// previous restore half-happened or data was written out of band.
	// Refuse rather than merge.
	presenceCount, err := a.store.CountPresenceForPeriod(ctx, tenant, p)
	if err != nil {
		return err
	}
	overtimeCount, err := a.store.CountOvertimeForPeriod(ctx, tenant, p)
	if err != nil {
		return err
	}
	if presenceCount > 0 || overtimeCount > 0 {
		return ErrRestoreConflict
	}

	return a.store.WithTx(ctx, func(s Store) error {
		for _, rec := range arch.Snapshot.Presence {
			if _, err := s.UpsertPresence(ctx, rec); err != nil {
				return err
			}
		}
		for _, entry := range arch.Snapshot.Overtime {
			if err := s.SaveOvertime(ctx, entry); err != nil {
				return err
			}
		}
		if err := s.DeleteArchive(ctx, tenant, p); err != nil {
			return err
		}
		return s.AppendEvent(ctx, a.event(tenant, p, ActionRestore, actor))
	})
}

// =============================================================================
// INTERNALS
// =============================================================================

func (a *Archiver) lockFor(tenant TenantID, p Period) *sync.Mutex {
	key := string(tenant) + "|" + p.Key()
	a.mu.Lock()
	defer a.mu.Unlock()
	if l, ok := a.locks[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	a.locks[key] = l
	return l
}

func (a *Archiver) event(tenant TenantID, p Period, action PeriodAction, actor string) PeriodEvent {
	return PeriodEvent{
		ID:       uuid.NewString(),
		TenantID: tenant,
		Period:   p,
		Action:   action,
		Actor:    actor,
		At:       time.Now().UTC(),
	}
}

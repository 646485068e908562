// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Faraleno2022/guineegest-sub000/payroll"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type empKey struct {
	Tenant payroll.TenantID
	ID     payroll.EmployeeID
}

type presKey struct {
	Tenant   payroll.TenantID
	Employee payroll.EmployeeID
	Date     string
}

type rateKey struct {
	Tenant   payroll.TenantID
	Employee payroll.EmployeeID // empty = tenant default
	Code     payroll.StatusCode
}

type archKey struct {
	Tenant payroll.TenantID
	Period string
}

type Memory struct {
	mu sync.RWMutex

	employees   map[empKey]payroll.Employee
	activeRates map[rateKey]payroll.RateEntry
	rateHistory []payroll.RateEntry // deactivated rows, audit trail
	presence    map[presKey]payroll.PresenceRecord
	overtime    map[string]payroll.OvertimeEntry
	archives    map[archKey]payroll.MonthlyArchive
	events      []payroll.PeriodEvent
}

func NewMemory() *Memory {
	return &Memory{
		employees:   make(map[empKey]payroll.Employee),
		activeRates: make(map[rateKey]payroll.RateEntry),
		presence:    make(map[presKey]payroll.PresenceRecord),
		overtime:    make(map[string]payroll.OvertimeEntry),
		archives:    make(map[archKey]payroll.MonthlyArchive),
	}
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (m *Memory) SaveEmployee(_ context.Context, emp payroll.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveEmployeeLocked(emp)
}

func (m *Memory) saveEmployeeLocked(emp payroll.Employee) error {
	// Matricule unique per tenant, ID unique across tenants.
	for k, existing := range m.employees {
		if k.Tenant == emp.TenantID && existing.Matricule == emp.Matricule && k.ID != emp.ID {
			return &payroll.ValidationError{Field: "matricule", Message: "already in use: " + emp.Matricule}
		}
		if k.ID == emp.ID && k.Tenant != emp.TenantID {
			return &payroll.ValidationError{Field: "id", Message: "already in use: " + string(emp.ID)}
		}
	}
	m.employees[empKey{Tenant: emp.TenantID, ID: emp.ID}] = emp
	return nil
}

func (m *Memory) GetEmployee(_ context.Context, tenant payroll.TenantID, id payroll.EmployeeID) (*payroll.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getEmployeeLocked(tenant, id)
}

func (m *Memory) getEmployeeLocked(tenant payroll.TenantID, id payroll.EmployeeID) (*payroll.Employee, error) {
	emp, ok := m.employees[empKey{Tenant: tenant, ID: id}]
	if !ok {
		return nil, payroll.ErrEmployeeNotFound
	}
	out := emp
	return &out, nil
}

func (m *Memory) ListEmployees(_ context.Context, tenant payroll.TenantID) ([]payroll.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listEmployeesLocked(tenant), nil
}

func (m *Memory) listEmployeesLocked(tenant payroll.TenantID) []payroll.Employee {
	var out []payroll.Employee
	for k, emp := range m.employees {
		if k.Tenant == tenant {
			out = append(out, emp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Matricule < out[j].Matricule })
	return out
}

// =============================================================================
// RATES
// =============================================================================

func (m *Memory) ActiveRate(_ context.Context, tenant payroll.TenantID, employee payroll.EmployeeID, code payroll.StatusCode) (*payroll.RateEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeRateLocked(tenant, employee, code)
}

func (m *Memory) activeRateLocked(tenant payroll.TenantID, employee payroll.EmployeeID, code payroll.StatusCode) (*payroll.RateEntry, error) {
	entry, ok := m.activeRates[rateKey{Tenant: tenant, Employee: employee, Code: code}]
	if !ok {
		return nil, nil
	}
	out := entry
	return &out, nil
}

func (m *Memory) SetRate(_ context.Context, entry payroll.RateEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setRateLocked(entry)
}

func (m *Memory) setRateLocked(entry payroll.RateEntry) error {
	k := rateKey{Tenant: entry.TenantID, Employee: entry.EmployeeID, Code: entry.Code}
	if prior, ok := m.activeRates[k]; ok {
		now := time.Now().UTC()
		prior.Active = false
		prior.DeactivatedAt = &now
		m.rateHistory = append(m.rateHistory, prior)
	}
	entry.Active = true
	m.activeRates[k] = entry
	return nil
}

func (m *Memory) ListActiveRates(_ context.Context, tenant payroll.TenantID) ([]payroll.RateEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listActiveRatesLocked(tenant), nil
}

func (m *Memory) listActiveRatesLocked(tenant payroll.TenantID) []payroll.RateEntry {
	var out []payroll.RateEntry
	for k, entry := range m.activeRates {
		if k.Tenant == tenant {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Code != out[j].Code {
			return out[i].Code < out[j].Code
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out
}

// =============================================================================
// PRESENCE
// =============================================================================

func (m *Memory) UpsertPresence(_ context.Context, rec payroll.PresenceRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upsertPresenceLocked(rec)
}

func (m *Memory) upsertPresenceLocked(rec payroll.PresenceRecord) (bool, error) {
	k := presKey{Tenant: rec.TenantID, Employee: rec.EmployeeID, Date: rec.Date.String()}
	prior, exists := m.presence[k]
	if exists {
		// Overwrite in place: keep the original row identity.
		rec.ID = prior.ID
		rec.CreatedAt = prior.CreatedAt
	}
	m.presence[k] = rec
	return !exists, nil
}

func (m *Memory) PresenceForPeriod(_ context.Context, tenant payroll.TenantID, employee payroll.EmployeeID, p payroll.Period) ([]payroll.PresenceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []payroll.PresenceRecord
	for k, rec := range m.presence {
		if k.Tenant == tenant && k.Employee == employee && p.Contains(rec.Date) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *Memory) PresenceForTenantPeriod(_ context.Context, tenant payroll.TenantID, p payroll.Period) ([]payroll.PresenceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.presenceForTenantPeriodLocked(tenant, p), nil
}

func (m *Memory) presenceForTenantPeriodLocked(tenant payroll.TenantID, p payroll.Period) []payroll.PresenceRecord {
	var out []payroll.PresenceRecord
	for k, rec := range m.presence {
		if k.Tenant == tenant && p.Contains(rec.Date) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EmployeeID != out[j].EmployeeID {
			return out[i].EmployeeID < out[j].EmployeeID
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

func (m *Memory) CountPresenceForPeriod(_ context.Context, tenant payroll.TenantID, p payroll.Period) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.presenceForTenantPeriodLocked(tenant, p)), nil
}

func (m *Memory) DeletePresenceForPeriod(_ context.Context, tenant payroll.TenantID, p payroll.Period) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deletePresenceForPeriodLocked(tenant, p)
}

func (m *Memory) deletePresenceForPeriodLocked(tenant payroll.TenantID, p payroll.Period) error {
	for k, rec := range m.presence {
		if k.Tenant == tenant && p.Contains(rec.Date) {
			delete(m.presence, k)
		}
	}
	return nil
}

// =============================================================================
// OVERTIME
// =============================================================================

func (m *Memory) SaveOvertime(_ context.Context, entry payroll.OvertimeEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveOvertimeLocked(entry)
}

func (m *Memory) saveOvertimeLocked(entry payroll.OvertimeEntry) error {
	m.overtime[entry.ID] = entry
	return nil
}

func (m *Memory) OvertimeForPeriod(_ context.Context, tenant payroll.TenantID, employee payroll.EmployeeID, p payroll.Period) ([]payroll.OvertimeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []payroll.OvertimeEntry
	for _, e := range m.overtime {
		if e.TenantID == tenant && e.EmployeeID == employee && p.Contains(e.Date) {
			out = append(out, e)
		}
	}
	sortOvertime(out)
	return out, nil
}

func (m *Memory) OvertimeForTenantPeriod(_ context.Context, tenant payroll.TenantID, p payroll.Period) ([]payroll.OvertimeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.overtimeForTenantPeriodLocked(tenant, p), nil
}

func (m *Memory) overtimeForTenantPeriodLocked(tenant payroll.TenantID, p payroll.Period) []payroll.OvertimeEntry {
	var out []payroll.OvertimeEntry
	for _, e := range m.overtime {
		if e.TenantID == tenant && p.Contains(e.Date) {
			out = append(out, e)
		}
	}
	sortOvertime(out)
	return out
}

func (m *Memory) CountOvertimeForPeriod(_ context.Context, tenant payroll.TenantID, p payroll.Period) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.overtimeForTenantPeriodLocked(tenant, p)), nil
}

func (m *Memory) DeleteOvertimeForPeriod(_ context.Context, tenant payroll.TenantID, p payroll.Period) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteOvertimeForPeriodLocked(tenant, p)
}

func (m *Memory) deleteOvertimeForPeriodLocked(tenant payroll.TenantID, p payroll.Period) error {
	for id, e := range m.overtime {
		if e.TenantID == tenant && p.Contains(e.Date) {
			delete(m.overtime, id)
		}
	}
	return nil
}

func sortOvertime(entries []payroll.OvertimeEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].EmployeeID != entries[j].EmployeeID {
			return entries[i].EmployeeID < entries[j].EmployeeID
		}
		return entries[i].Date.Before(entries[j].Date)
	})
}

// =============================================================================
// ARCHIVES & EVENTS
// =============================================================================

func (m *Memory) SaveArchive(_ context.Context, arch payroll.MonthlyArchive) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveArchiveLocked(arch)
}

func (m *Memory) saveArchiveLocked(arch payroll.MonthlyArchive) error {
	k := archKey{Tenant: arch.TenantID, Period: arch.Period.Key()}
	if _, exists := m.archives[k]; exists {
		return &payroll.ValidationError{Field: "period", Message: "archive already exists for " + arch.Period.Key()}
	}
	m.archives[k] = arch
	return nil
}

func (m *Memory) GetArchive(_ context.Context, tenant payroll.TenantID, p payroll.Period) (*payroll.MonthlyArchive, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getArchiveLocked(tenant, p)
}

func (m *Memory) getArchiveLocked(tenant payroll.TenantID, p payroll.Period) (*payroll.MonthlyArchive, error) {
	arch, ok := m.archives[archKey{Tenant: tenant, Period: p.Key()}]
	if !ok {
		return nil, nil
	}
	out := arch
	return &out, nil
}

func (m *Memory) ListArchives(_ context.Context, tenant payroll.TenantID) ([]payroll.MonthlyArchive, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []payroll.MonthlyArchive
	for k, arch := range m.archives {
		if k.Tenant == tenant {
			out = append(out, arch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period.Key() > out[j].Period.Key() })
	return out, nil
}

func (m *Memory) UpdateArchiveStatus(_ context.Context, tenant payroll.TenantID, p payroll.Period, status payroll.PeriodStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateArchiveStatusLocked(tenant, p, status)
}

func (m *Memory) updateArchiveStatusLocked(tenant payroll.TenantID, p payroll.Period, status payroll.PeriodStatus) error {
	k := archKey{Tenant: tenant, Period: p.Key()}
	arch, ok := m.archives[k]
	if !ok {
		return payroll.ErrArchiveNotFound
	}
	arch.Status = status
	if status == payroll.PeriodArchived {
		now := time.Now().UTC()
		arch.ArchivedAt = &now
	}
	m.archives[k] = arch
	return nil
}

func (m *Memory) DeleteArchive(_ context.Context, tenant payroll.TenantID, p payroll.Period) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteArchiveLocked(tenant, p)
}

func (m *Memory) deleteArchiveLocked(tenant payroll.TenantID, p payroll.Period) error {
	delete(m.archives, archKey{Tenant: tenant, Period: p.Key()})
	return nil
}

func (m *Memory) AppendEvent(_ context.Context, ev payroll.PeriodEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendEventLocked(ev)
}

func (m *Memory) appendEventLocked(ev payroll.PeriodEvent) error {
	m.events = append(m.events, ev)
	return nil
}

func (m *Memory) ListEvents(_ context.Context, tenant payroll.TenantID, p payroll.Period) ([]payroll.PeriodEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []payroll.PeriodEvent
	for _, ev := range m.events {
		if ev.TenantID == tenant && ev.Period == p {
			out = append(out, ev)
		}
	}
	return out, nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// WithTx executes fn within a transaction, simulated with a snapshot plus
// rollback on error. The lock is held for the whole transaction.
func (m *Memory) WithTx(ctx context.Context, fn func(payroll.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshot()
	view := &txView{parent: m}
	if err := fn(view); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

type memorySnapshot struct {
	employees   map[empKey]payroll.Employee
	activeRates map[rateKey]payroll.RateEntry
	rateHistory []payroll.RateEntry
	presence    map[presKey]payroll.PresenceRecord
	overtime    map[string]payroll.OvertimeEntry
	archives    map[archKey]payroll.MonthlyArchive
	events      []payroll.PeriodEvent
}

func (m *Memory) snapshot() memorySnapshot {
	s := memorySnapshot{
		employees:   make(map[empKey]payroll.Employee, len(m.employees)),
		activeRates: make(map[rateKey]payroll.RateEntry, len(m.activeRates)),
		rateHistory: append([]payroll.RateEntry{}, m.rateHistory...),
		presence:    make(map[presKey]payroll.PresenceRecord, len(m.presence)),
		overtime:    make(map[string]payroll.OvertimeEntry, len(m.overtime)),
		archives:    make(map[archKey]payroll.MonthlyArchive, len(m.archives)),
		events:      append([]payroll.PeriodEvent{}, m.events...),
	}
	for k, v := range m.employees {
		s.employees[k] = v
	}
	for k, v := range m.activeRates {
		s.activeRates[k] = v
	}
	for k, v := range m.presence {
		s.presence[k] = v
	}
	for k, v := range m.overtime {
		s.overtime[k] = v
	}
	for k, v := range m.archives {
		s.archives[k] = v
	}
	return s
}

func (m *Memory) restore(s memorySnapshot) {
	m.employees = s.employees
	m.activeRates = s.activeRates
	m.rateHistory = s.rateHistory
	m.presence = s.presence
	m.overtime = s.overtime
	m.archives = s.archives
	m.events = s.events
}

// txView delegates to the parent's locked internals; the parent mutex is
// already held by WithTx.
type txView struct {
	parent *Memory
}

func (tv *txView) SaveEmployee(_ context.Context, emp payroll.Employee) error {
	return tv.parent.saveEmployeeLocked(emp)
}

func (tv *txView) GetEmployee(_ context.Context, tenant payroll.TenantID, id payroll.EmployeeID) (*payroll.Employee, error) {
	return tv.parent.getEmployeeLocked(tenant, id)
}

func (tv *txView) ListEmployees(_ context.Context, tenant payroll.TenantID) ([]payroll.Employee, error) {
	return tv.parent.listEmployeesLocked(tenant), nil
}

func (tv *txView) ActiveRate(_ context.Context, tenant payroll.TenantID, employee payroll.EmployeeID, code payroll.StatusCode) (*payroll.RateEntry, error) {
	return tv.parent.activeRateLocked(tenant, employee, code)
}

func (tv *txView) SetRate(_ context.Context, entry payroll.RateEntry) error {
	return tv.parent.setRateLocked(entry)
}

func (tv *txView) ListActiveRates(_ context.Context, tenant payroll.TenantID) ([]payroll.RateEntry, error) {
	return tv.parent.listActiveRatesLocked(tenant), nil
}

func (tv *txView) UpsertPresence(_ context.Context, rec payroll.PresenceRecord) (bool, error) {
	return tv.parent.upsertPresenceLocked(rec)
}

func (tv *txView) PresenceForPeriod(_ context.Context, tenant payroll.TenantID, employee payroll.EmployeeID, p payroll.Period) ([]payroll.PresenceRecord, error) {
	var out []payroll.PresenceRecord
	for k, rec := range tv.parent.presence {
		if k.Tenant == tenant && k.Employee == employee && p.Contains(rec.Date) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (tv *txView) PresenceForTenantPeriod(_ context.Context, tenant payroll.TenantID, p payroll.Period) ([]payroll.PresenceRecord, error) {
	return tv.parent.presenceForTenantPeriodLocked(tenant, p), nil
}

func (tv *txView) CountPresenceForPeriod(_ context.Context, tenant payroll.TenantID, p payroll.Period) (int, error) {
	return len(tv.parent.presenceForTenantPeriodLocked(tenant, p)), nil
}

func (tv *txView) DeletePresenceForPeriod(_ context.Context, tenant payroll.TenantID, p payroll.Period) error {
	return tv.parent.deletePresenceForPeriodLocked(tenant, p)
}

func (tv *txView) SaveOvertime(_ context.Context, entry payroll.OvertimeEntry) error {
	return tv.parent.saveOvertimeLocked(entry)
}

func (tv *txView) OvertimeForPeriod(_ context.Context, tenant payroll.TenantID, employee payroll.EmployeeID, p payroll.Period) ([]payroll.OvertimeEntry, error) {
	var out []payroll.OvertimeEntry
	for _, e := range tv.parent.overtime {
		if e.TenantID == tenant && e.EmployeeID == employee && p.Contains(e.Date) {
			out = append(out, e)
		}
	}
	sortOvertime(out)
	return out, nil
}

func (tv *txView) OvertimeForTenantPeriod(_ context.Context, tenant payroll.TenantID, p payroll.Period) ([]payroll.OvertimeEntry, error) {
	return tv.parent.overtimeForTenantPeriodLocked(tenant, p), nil
}

func (tv *txView) CountOvertimeForPeriod(_ context.Context, tenant payroll.TenantID, p payroll.Period) (int, error) {
	return len(tv.parent.overtimeForTenantPeriodLocked(tenant, p)), nil
}

func (tv *txView) DeleteOvertimeForPeriod(_ context.Context, tenant payroll.TenantID, p payroll.Period) error {
	return tv.parent.deleteOvertimeForPeriodLocked(tenant, p)
}

func (tv *txView) SaveArchive(_ context.Context, arch payroll.MonthlyArchive) error {
	return tv.parent.saveArchiveLocked(arch)
}

func (tv *txView) GetArchive(_ context.Context, tenant payroll.TenantID, p payroll.Period) (*payroll.MonthlyArchive, error) {
	return tv.parent.getArchiveLocked(tenant, p)
}

func (tv *txView) ListArchives(_ context.Context, tenant payroll.TenantID) ([]payroll.MonthlyArchive, error) {
	var out []payroll.MonthlyArchive
	for k, arch := range tv.parent.archives {
		if k.Tenant == tenant {
			out = append(out, arch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period.Key() > out[j].Period.Key() })
	return out, nil
}

func (tv *txView) UpdateArchiveStatus(_ context.Context, tenant payroll.TenantID, p payroll.Period, status payroll.PeriodStatus) error {
	return tv.parent.updateArchiveStatusLocked(tenant, p, status)
}

func (tv *txView) DeleteArchive(_ context.Context, tenant payroll.TenantID, p payroll.Period) error {
	return tv.parent.deleteArchiveLocked(tenant, p)
}

func (tv *txView) AppendEvent(_ context.Context, ev payroll.PeriodEvent) error {
	return tv.parent.appendEventLocked(ev)
}

func (tv *txView) ListEvents(_ context.Context, tenant payroll.TenantID, p payroll.Period) ([]payroll.PeriodEvent, error) {
	var out []payroll.PeriodEvent
	for _, ev := range tv.parent.events {
		if ev.TenantID == tenant && ev.Period == p {
			out = append(out, ev)
		}
	}
	return out, nil
}

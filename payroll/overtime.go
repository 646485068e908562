package payroll

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// OVERTIME - Distinct record set from presence, same lifecycle
// =============================================================================

// OvertimeBook records extra hours worked. Entries follow the same
// closed-period rule as presence and are purged/restored with the period.
type OvertimeBook struct {
	store Store
}

func NewOvertimeBook(store Store) *OvertimeBook {
	return &OvertimeBook{store: store}
}

// Record adds an overtime entry for (employee, date). The class selects
// which of the employee's two hourly rates the aggregator applies.
func (b *OvertimeBook) Record(ctx context.Context, tenant TenantID, employee EmployeeID, date Date, hours decimal.Decimal, class OvertimeClass) (OvertimeEntry, error) {
	if date.IsZero() {
		return OvertimeEntry{}, &ValidationError{Field: "date", Message: "required"}
	}
	if !class.Valid() {
		return OvertimeEntry{}, &ValidationError{Field: "class", Message: "must be weekday or sunday"}
	}
	if !hours.IsPositive() {
		return OvertimeEntry{}, &ValidationError{Field: "hours", Message: "must be positive"}
	}

	if _, err := b.store.GetEmployee(ctx, tenant, employee); err != nil {
		return OvertimeEntry{}, err
	}

	p := PeriodOf(date)
	arch, err := b.store.GetArchive(ctx, tenant, p)
	if err != nil {
		return OvertimeEntry{}, err
	}
	if arch != nil {
		return OvertimeEntry{}, &ClosedPeriodError{TenantID: tenant, Period: p, Status: arch.Status}
	}

	entry := OvertimeEntry{
		ID:         uuid.NewString(),
		TenantID:   tenant,
		EmployeeID: employee,
		Date:       date,
		Hours:      hours,
		Class:      class,
		CreatedAt:  time.Now().UTC(),
	}
	if err := b.store.SaveOvertime(ctx, entry); err != nil {
		return OvertimeEntry{}, err
	}
	return entry, nil
}

// QueryPeriod returns the employee's overtime entries for the period.
func (b *OvertimeBook) QueryPeriod(ctx context.Context, tenant TenantID, employee EmployeeID, p Period) ([]OvertimeEntry, error) {
	if !p.Valid() {
		return nil, &ValidationError{Field: "period", Message: "invalid month/year"}
	}
	if _, err := b.store.GetEmployee(ctx, tenant, employee); err != nil {
		return nil, err
	}
	return b.store.OvertimeForPeriod(ctx, tenant, employee, p)
}

/*
rates.go - Rate configuration: tenant defaults and per-employee overrides

PURPOSE:
  Resolves the monetary amount for one status code, and maintains the
  two-tier rate configuration. This is the leaf dependency of the whole
  engine: the aggregator prices every exact code through ResolveAmount.

RESOLUTION ORDER:
  1. Active (employee, code) override
  2. Active (tenant, code) default
  3. Zero

  Missing configuration is a VALID state, not an error: ResolveAmount
  returns zero and the consistency checker surfaces the gap as a warning
  before a period can close. An override of zero is a real amount and
  beats a non-zero default.

UPSERT SEMANTICS:
  Setting a new amount deactivates the prior active row rather than
  deleting it, so the configuration history stays auditable. At most one
  active row exists per (scope, code) key; the store enforces it.

SEE ALSO:
  - aggregator.go: The hot caller of ResolveAmount
  - checker.go: Flags status codes with no active tenant default
*/
package payroll

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// RATE SERVICE
// =============================================================================

// Rates resolves and maintains rate configuration entries.
type Rates struct {
	store RateStore
}

func NewRates(store RateStore) *Rates {
	return &Rates{store: store}
}

// ResolveAmount returns the amount to pay for one occurrence of code:
// active override first, else active tenant default, else zero.
// Absent configuration never errors; only store failures do.
func (r *Rates) ResolveAmount(ctx context.Context, tenant TenantID, employee EmployeeID, code StatusCode) (decimal.Decimal, error) {
	if employee != "" {
		override, err := r.store.ActiveRate(ctx, tenant, employee, code)
		if err != nil {
			return decimal.Zero, err
		}
		if override != nil {
			return override.Amount, nil
		}
	}

	def, err := r.store.ActiveRate(ctx, tenant, "", code)
	if err != nil {
		return decimal.Zero, err
	}
	if def != nil {
		return def.Amount, nil
	}

	return decimal.Zero, nil
}

// SetDefault upserts the tenant-level default amount for a status code.
func (r *Rates) SetDefault(ctx context.Context, tenant TenantID, code StatusCode, amount decimal.Decimal) (RateEntry, error) {
	return r.set(ctx, tenant, "", code, amount)
}

// SetOverride upserts a per-employee override amount for a status code.
func (r *Rates) SetOverride(ctx context.Context, tenant TenantID, employee EmployeeID, code StatusCode, amount decimal.Decimal) (RateEntry, error) {
	if employee == "" {
		return RateEntry{}, &ValidationError{Field: "employee_id", Message: "override requires an employee"}
	}
	return r.set(ctx, tenant, employee, code, amount)
}

func (r *Rates) set(ctx context.Context, tenant TenantID, employee EmployeeID, code StatusCode, amount decimal.Decimal) (RateEntry, error) {
	if tenant == "" {
		return RateEntry{}, &ValidationError{Field: "tenant_id", Message: "required"}
	}
	if !code.Valid() {
		return RateEntry{}, &ValidationError{Field: "code", Message: "unknown status code: " + string(code)}
	}

	entry := RateEntry{
		ID:         uuid.NewString(),
		TenantID:   tenant,
		EmployeeID: employee,
		Code:       code,
		Amount:     amount,
		Active:     true,
		CreatedAt:  time.Now().UTC(),
	}
	if err := r.store.SetRate(ctx, entry); err != nil {
		return RateEntry{}, err
	}
	return entry, nil
}

// ListActive returns every active entry for the tenant.
func (r *Rates) ListActive(ctx context.Context, tenant TenantID) ([]RateEntry, error) {
	return r.store.ListActiveRates(ctx, tenant)
}

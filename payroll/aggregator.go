/*
aggregator.go - Presence-to-payroll breakdown computation

PURPOSE:
  ComputeBreakdown is the single source of truth for the aggregation
  formula. Every consumer - the on-demand API, the close fan-out, the
  tests - goes through this one function; there is no inline
  recomputation anywhere else in the repository.

THE EXACT-CODE INVARIANT:
  Records are partitioned by EXACT status code, never by family. Each
  code's count is multiplied by its own resolved rate, and only then are
  subtotals grouped into reporting buckets. Pooling a family before
  pricing (e.g. summing Sunday AM + PM + full-day counts and applying a
  blended rate) produced wrong totals whenever the distribution across
  sub-variants was uneven. Pricing first, grouping after.

PURITY:
  ComputeBreakdown reads current ledger + configuration state and
  computes. No writes, no hidden counters. Calling it twice on the same
  state returns the same result, so calls for different employees are
  safe to run in parallel (the close transition does exactly that).

SEE ALSO:
  - rates.go: ResolveAmount, the pricing step
  - archive.go: Parallel fan-out over active employees at close
*/
package payroll

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AGGREGATOR
// =============================================================================

// Aggregator computes payroll breakdowns from presence, rates, and overtime.
type Aggregator struct {
	store Store
	rates *Rates
}

func NewAggregator(store Store) *Aggregator {
	return &Aggregator{store: store, rates: NewRates(store)}
}

// ComputeBreakdown derives the payroll breakdown for one employee in one
// period. Missing rate configuration prices as zero and never errors;
// ErrEmployeeNotFound is returned if the employee is not in the tenant.
func (a *Aggregator) ComputeBreakdown(ctx context.Context, tenant TenantID, employee EmployeeID, p Period) (Breakdown, error) {
	if !p.Valid() {
		return Breakdown{}, &ValidationError{Field: "period", Message: "invalid month/year"}
	}

	emp, err := a.store.GetEmployee(ctx, tenant, employee)
	if err != nil {
		return Breakdown{}, err
	}

	records, err := a.store.PresenceForPeriod(ctx, tenant, employee, p)
	if err != nil {
		return Breakdown{}, err
	}

	entries, err := a.store.OvertimeForPeriod(ctx, tenant, employee, p)
	if err != nil {
		return Breakdown{}, err
	}

	return a.price(ctx, tenant, *emp, p, records, entries)
}

// price derives the breakdown from rows the caller already holds. The
// close transition uses it directly so the frozen totals are computed
// from the exact row set that lands in the snapshot.
func (a *Aggregator) price(ctx context.Context, tenant TenantID, emp Employee, p Period, records []PresenceRecord, entries []OvertimeEntry) (Breakdown, error) {
	// Step 1: partition by exact code.
	counts := make(map[StatusCode]int)
	for _, rec := range records {
		counts[rec.Code]++
	}

	// Step 2: price each exact code, then group into buckets.
	bd := Breakdown{
		EmployeeID: emp.ID,
		Matricule:  emp.Matricule,
		Period:     p,
		Buckets:    make(map[Family]decimal.Decimal, len(AllFamilies())),
	}
	for _, fam := range AllFamilies() {
		bd.Buckets[fam] = decimal.Zero
	}

	for _, code := range allStatusCodes {
		count := counts[code]
		if count == 0 {
			continue
		}
		rate, err := a.rates.ResolveAmount(ctx, tenant, emp.ID, code)
		if err != nil {
			return Breakdown{}, err
		}
		subtotal := rate.Mul(decimal.NewFromInt(int64(count)))
		bd.Lines = append(bd.Lines, CodeLine{
			Code:     code,
			Count:    count,
			Rate:     rate,
			Subtotal: subtotal,
		})
		fam := code.Family()
		bd.Buckets[fam] = bd.Buckets[fam].Add(subtotal)
	}

	// Step 3: overtime from its own record set, weekday vs Sunday rates.
	bd.OvertimeWeekdayHours = decimal.Zero
	bd.OvertimeSundayHours = decimal.Zero
	for _, e := range entries {
		switch e.Class {
		case OvertimeSunday:
			bd.OvertimeSundayHours = bd.OvertimeSundayHours.Add(e.Hours)
		default:
			bd.OvertimeWeekdayHours = bd.OvertimeWeekdayHours.Add(e.Hours)
		}
	}
	weekdayRate := overtimeRate(emp.OvertimeWeekdayRate, emp.HourlyRate)
	sundayRate := overtimeRate(emp.OvertimeSundayRate, emp.HourlyRate)
	bd.OvertimeTotal = bd.OvertimeWeekdayHours.Mul(weekdayRate).
		Add(bd.OvertimeSundayHours.Mul(sundayRate))

	// Step 4: grand total = bucket totals + overtime.
	bd.GrandTotal = decimal.Zero
	for _, fam := range AllFamilies() {
		bd.GrandTotal = bd.GrandTotal.Add(bd.Buckets[fam])
	}
	bd.GrandTotal = bd.GrandTotal.Add(bd.OvertimeTotal)

	return bd, nil
}

// overtimeRate falls back to the employee's hourly override when the
// dedicated overtime rate is unset.
func overtimeRate(rate decimal.Decimal, hourly *decimal.Decimal) decimal.Decimal {
	if rate.IsZero() && hourly != nil {
		return *hourly
	}
	return rate
}

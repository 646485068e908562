package payroll_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faraleno2022/guineegest-sub000/payroll"
	memstore "github.com/Faraleno2022/guineegest-sub000/payroll/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

const testTenant payroll.TenantID = "acme"

var august = payroll.Period{Month: time.August, Year: 2026}

// aug returns a date in August 2026. The 2nd, 9th, 16th, 23rd and 30th
// are Sundays.
func aug(day int) payroll.Date {
	return payroll.NewDate(2026, time.August, day)
}

func gnf(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func seedEmployee(t *testing.T, s payroll.Store, id, matricule string) payroll.Employee {
	t.Helper()
	emp := payroll.Employee{
		ID:                  payroll.EmployeeID(id),
		TenantID:            testTenant,
		Matricule:           matricule,
		Name:                "Employee " + matricule,
		Function:            "operator",
		Status:              payroll.EmploymentActive,
		BaseSalary:          gnf(500000),
		OvertimeWeekdayRate: gnf(2000),
		OvertimeSundayRate:  gnf(3000),
		CreatedAt:           time.Now().UTC(),
	}
	require.NoError(t, s.SaveEmployee(context.Background(), emp))
	return emp
}

// seedAllDefaults configures a tenant default for every status code so
// the consistency gate passes.
func seedAllDefaults(t *testing.T, rates *payroll.Rates) {
	t.Helper()
	for _, code := range payroll.AllStatusCodes() {
		_, err := rates.SetDefault(context.Background(), testTenant, code, gnf(10000))
		require.NoError(t, err)
	}
}

func mark(t *testing.T, ledger *payroll.Ledger, id string, date payroll.Date, code payroll.StatusCode) {
	t.Helper()
	_, err := ledger.RecordStatus(context.Background(), testTenant, payroll.EmployeeID(id), date, code)
	require.NoError(t, err)
}

// =============================================================================
// EXACT-CODE PRICING TESTS
// =============================================================================

func TestComputeBreakdown_SundayHalfDays_PricedPerExactCode(t *testing.T) {
	// GIVEN: Sunday AM costs 10000, Sunday PM costs 15000
	//        Employee worked 3 Sunday mornings and 3 Sunday afternoons
	//        (on distinct dates)
	// WHEN: Computing the breakdown
	// THEN: The sunday bucket is 3*10000 + 3*15000 = 75000, not any
	//       blended 6-day figure

	s := memstore.NewMemory()
	ctx := context.Background()
	rates := payroll.NewRates(s)
	ledger := payroll.NewLedger(s)
	agg := payroll.NewAggregator(s)

	seedEmployee(t, s, "emp-1", "M001")
	_, err := rates.SetDefault(ctx, testTenant, payroll.StatusSundayAM, gnf(10000))
	require.NoError(t, err)
	_, err = rates.SetDefault(ctx, testTenant, payroll.StatusSundayPM, gnf(15000))
	require.NoError(t, err)

	// Mornings on the 2nd, 9th, 16th; afternoons on the 23rd, 30th plus
	// a weekday date (the code decides pricing, not the calendar).
	mark(t, ledger, "emp-1", aug(2), payroll.StatusSundayAM)
	mark(t, ledger, "emp-1", aug(9), payroll.StatusSundayAM)
	mark(t, ledger, "emp-1", aug(16), payroll.StatusSundayAM)
	mark(t, ledger, "emp-1", aug(23), payroll.StatusSundayPM)
	mark(t, ledger, "emp-1", aug(30), payroll.StatusSundayPM)
	mark(t, ledger, "emp-1", aug(31), payroll.StatusSundayPM)

	bd, err := agg.ComputeBreakdown(ctx, testTenant, "emp-1", august)
	require.NoError(t, err)

	require.Len(t, bd.Lines, 2)
	assert.Equal(t, payroll.StatusSundayAM, bd.Lines[0].Code)
	assert.Equal(t, 3, bd.Lines[0].Count)
	assert.True(t, bd.Lines[0].Subtotal.Equal(gnf(30000)),
		"sunday AM subtotal: got %s", bd.Lines[0].Subtotal)
	assert.Equal(t, payroll.StatusSundayPM, bd.Lines[1].Code)
	assert.Equal(t, 3, bd.Lines[1].Count)
	assert.True(t, bd.Lines[1].Subtotal.Equal(gnf(45000)),
		"sunday PM subtotal: got %s", bd.Lines[1].Subtotal)

	assert.True(t, bd.Buckets[payroll.FamilySunday].Equal(gnf(75000)),
		"sunday bucket: got %s", bd.Buckets[payroll.FamilySunday])
	assert.True(t, bd.GrandTotal.Equal(gnf(75000)))
}

func TestComputeBreakdown_MissingRate_PricesZero(t *testing.T) {
	// GIVEN: No rate configured for present_full_day
	// WHEN: Computing a breakdown with 5 full days
	// THEN: The line appears with count 5 and zero amounts, no error

	s := memstore.NewMemory()
	ledger := payroll.NewLedger(s)
	agg := payroll.NewAggregator(s)

	seedEmployee(t, s, "emp-1", "M001")
	for day := 3; day <= 7; day++ {
		mark(t, ledger, "emp-1", aug(day), payroll.StatusPresentFullDay)
	}

	bd, err := agg.ComputeBreakdown(context.Background(), testTenant, "emp-1", august)
	require.NoError(t, err)

	require.Len(t, bd.Lines, 1)
	assert.Equal(t, 5, bd.Lines[0].Count)
	assert.True(t, bd.Lines[0].Rate.IsZero())
	assert.True(t, bd.Lines[0].Subtotal.IsZero())
	assert.True(t, bd.GrandTotal.IsZero())
}

func TestComputeBreakdown_OverrideBeatsDefault(t *testing.T) {
	// GIVEN: Tenant default 10000 for present_full_day, employee override 12000
	// WHEN: Computing breakdowns for the overridden and a plain employee
	// THEN: The override prices at 12000, the plain employee at 10000

	s := memstore.NewMemory()
	ctx := context.Background()
	rates := payroll.NewRates(s)
	ledger := payroll.NewLedger(s)
	agg := payroll.NewAggregator(s)

	seedEmployee(t, s, "emp-1", "M001")
	seedEmployee(t, s, "emp-2", "M002")
	_, err := rates.SetDefault(ctx, testTenant, payroll.StatusPresentFullDay, gnf(10000))
	require.NoError(t, err)
	_, err = rates.SetOverride(ctx, testTenant, "emp-1", payroll.StatusPresentFullDay, gnf(12000))
	require.NoError(t, err)

	mark(t, ledger, "emp-1", aug(3), payroll.StatusPresentFullDay)
	mark(t, ledger, "emp-2", aug(3), payroll.StatusPresentFullDay)

	bd1, err := agg.ComputeBreakdown(ctx, testTenant, "emp-1", august)
	require.NoError(t, err)
	bd2, err := agg.ComputeBreakdown(ctx, testTenant, "emp-2", august)
	require.NoError(t, err)

	assert.True(t, bd1.Lines[0].Rate.Equal(gnf(12000)))
	assert.True(t, bd2.Lines[0].Rate.Equal(gnf(10000)))
}

func TestComputeBreakdown_ZeroOverrideBeatsNonZeroDefault(t *testing.T) {
	// GIVEN: Tenant default 10000, employee override explicitly 0
	// WHEN: Computing the breakdown
	// THEN: The override wins: the day prices at 0

	s := memstore.NewMemory()
	ctx := context.Background()
	rates := payroll.NewRates(s)
	ledger := payroll.NewLedger(s)
	agg := payroll.NewAggregator(s)

	seedEmployee(t, s, "emp-1", "M001")
	_, err := rates.SetDefault(ctx, testTenant, payroll.StatusPresentFullDay, gnf(10000))
	require.NoError(t, err)
	_, err = rates.SetOverride(ctx, testTenant, "emp-1", payroll.StatusPresentFullDay, decimal.Zero)
	require.NoError(t, err)

	mark(t, ledger, "emp-1", aug(3), payroll.StatusPresentFullDay)

	bd, err := agg.ComputeBreakdown(ctx, testTenant, "emp-1", august)
	require.NoError(t, err)

	require.Len(t, bd.Lines, 1)
	assert.True(t, bd.Lines[0].Rate.IsZero())
	assert.True(t, bd.GrandTotal.IsZero())
}

// =============================================================================
// BUCKET GROUPING TESTS
// =============================================================================

func TestComputeBreakdown_BucketsGroupAfterPricing(t *testing.T) {
	// GIVEN: Rates 10000 for present_am, 20000 for present_full_day,
	//        5000 for sick_paid
	// WHEN: 2 half mornings, 1 full day, 1 paid sick day
	// THEN: presence bucket = 2*10000 + 20000 = 40000
	//       absence bucket = 5000
	//       grand total = 45000

	s := memstore.NewMemory()
	ctx := context.Background()
	rates := payroll.NewRates(s)
	ledger := payroll.NewLedger(s)
	agg := payroll.NewAggregator(s)

	seedEmployee(t, s, "emp-1", "M001")
	_, err := rates.SetDefault(ctx, testTenant, payroll.StatusPresentAM, gnf(10000))
	require.NoError(t, err)
	_, err = rates.SetDefault(ctx, testTenant, payroll.StatusPresentFullDay, gnf(20000))
	require.NoError(t, err)
	_, err = rates.SetDefault(ctx, testTenant, payroll.StatusSickPaid, gnf(5000))
	require.NoError(t, err)

	mark(t, ledger, "emp-1", aug(3), payroll.StatusPresentAM)
	mark(t, ledger, "emp-1", aug(4), payroll.StatusPresentAM)
	mark(t, ledger, "emp-1", aug(5), payroll.StatusPresentFullDay)
	mark(t, ledger, "emp-1", aug(6), payroll.StatusSickPaid)

	bd, err := agg.ComputeBreakdown(ctx, testTenant, "emp-1", august)
	require.NoError(t, err)

	assert.True(t, bd.Buckets[payroll.FamilyPresence].Equal(gnf(40000)),
		"presence bucket: got %s", bd.Buckets[payroll.FamilyPresence])
	assert.True(t, bd.Buckets[payroll.FamilyAbsence].Equal(gnf(5000)),
		"absence bucket: got %s", bd.Buckets[payroll.FamilyAbsence])
	assert.True(t, bd.Buckets[payroll.FamilySunday].IsZero())
	assert.True(t, bd.Buckets[payroll.FamilyLeave].IsZero())
	assert.True(t, bd.GrandTotal.Equal(gnf(45000)))
}

// =============================================================================
// OVERTIME TESTS
// =============================================================================

func TestComputeBreakdown_Overtime_SplitByClass(t *testing.T) {
	// GIVEN: Weekday overtime at 2000/h, Sunday overtime at 3000/h
	// WHEN: 4 weekday hours and 2 Sunday hours are logged
	// THEN: Overtime total = 4*2000 + 2*3000 = 14000

	s := memstore.NewMemory()
	ctx := context.Background()
	book := payroll.NewOvertimeBook(s)
	agg := payroll.NewAggregator(s)

	seedEmployee(t, s, "emp-1", "M001")
	_, err := book.Record(ctx, testTenant, "emp-1", aug(3), decimal.NewFromInt(4), payroll.OvertimeWeekday)
	require.NoError(t, err)
	_, err = book.Record(ctx, testTenant, "emp-1", aug(2), decimal.NewFromInt(2), payroll.OvertimeSunday)
	require.NoError(t, err)

	bd, err := agg.ComputeBreakdown(ctx, testTenant, "emp-1", august)
	require.NoError(t, err)

	assert.True(t, bd.OvertimeWeekdayHours.Equal(decimal.NewFromInt(4)))
	assert.True(t, bd.OvertimeSundayHours.Equal(decimal.NewFromInt(2)))
	assert.True(t, bd.OvertimeTotal.Equal(gnf(14000)),
		"overtime total: got %s", bd.OvertimeTotal)
	assert.True(t, bd.GrandTotal.Equal(gnf(14000)))
}

func TestComputeBreakdown_Overtime_HourlyFallback(t *testing.T) {
	// GIVEN: An employee with no dedicated overtime rates but an hourly
	//        rate of 2500
	// WHEN: 3 weekday overtime hours are logged
	// THEN: The hourly rate prices the overtime

	s := memstore.NewMemory()
	ctx := context.Background()
	book := payroll.NewOvertimeBook(s)
	agg := payroll.NewAggregator(s)

	hourly := gnf(2500)
	emp := payroll.Employee{
		ID:         "emp-1",
		TenantID:   testTenant,
		Matricule:  "M001",
		Name:       "Hourly Worker",
		Function:   "operator",
		Status:     payroll.EmploymentActive,
		BaseSalary: gnf(500000),
		HourlyRate: &hourly,
	}
	require.NoError(t, s.SaveEmployee(ctx, emp))

	_, err := book.Record(ctx, testTenant, "emp-1", aug(4), decimal.NewFromInt(3), payroll.OvertimeWeekday)
	require.NoError(t, err)

	bd, err := agg.ComputeBreakdown(ctx, testTenant, "emp-1", august)
	require.NoError(t, err)
	assert.True(t, bd.OvertimeTotal.Equal(gnf(7500)),
		"overtime total: got %s", bd.OvertimeTotal)
}

// =============================================================================
// ERROR CASES
// =============================================================================

func TestComputeBreakdown_UnknownEmployee(t *testing.T) {
	s := memstore.NewMemory()
	agg := payroll.NewAggregator(s)

	_, err := agg.ComputeBreakdown(context.Background(), testTenant, "ghost", august)
	assert.ErrorIs(t, err, payroll.ErrEmployeeNotFound)
}

func TestComputeBreakdown_WrongTenant(t *testing.T) {
	// Tenancy is a hard boundary: the same employee ID under another
	// tenant is not found.
	s := memstore.NewMemory()
	agg := payroll.NewAggregator(s)

	seedEmployee(t, s, "emp-1", "M001")

	_, err := agg.ComputeBreakdown(context.Background(), "other-tenant", "emp-1", august)
	assert.ErrorIs(t, err, payroll.ErrEmployeeNotFound)
}

func TestComputeBreakdown_InvalidPeriod(t *testing.T) {
	s := memstore.NewMemory()
	agg := payroll.NewAggregator(s)
	seedEmployee(t, s, "emp-1", "M001")

	_, err := agg.ComputeBreakdown(context.Background(), testTenant, "emp-1",
		payroll.Period{Month: 13, Year: 2026})
	assert.ErrorIs(t, err, payroll.ErrValidation)
}

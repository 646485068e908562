package payroll_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faraleno2022/guineegest-sub000/payroll"
	memstore "github.com/Faraleno2022/guineegest-sub000/payroll/store"
)

// =============================================================================
// DAY UNIQUENESS TESTS
// =============================================================================

func TestRecordStatus_SameDay_OverwritesNotDuplicates(t *testing.T) {
	// GIVEN: Employee marked present_am on August 3
	// WHEN: The same day is re-marked present_full_day
	// THEN: One record exists for the day and it carries the second code

	s := memstore.NewMemory()
	ctx := context.Background()
	ledger := payroll.NewLedger(s)

	seedEmployee(t, s, "emp-1", "M001")

	_, err := ledger.RecordStatus(ctx, testTenant, "emp-1", aug(3), payroll.StatusPresentAM)
	require.NoError(t, err)
	_, err = ledger.RecordStatus(ctx, testTenant, "emp-1", aug(3), payroll.StatusPresentFullDay)
	require.NoError(t, err)

	records, err := ledger.QueryPeriod(ctx, testTenant, "emp-1", august)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, payroll.StatusPresentFullDay, records[0].Code)
}

func TestRecordStatus_DifferentEmployees_SameDay_Independent(t *testing.T) {
	s := memstore.NewMemory()
	ctx := context.Background()
	ledger := payroll.NewLedger(s)

	seedEmployee(t, s, "emp-1", "M001")
	seedEmployee(t, s, "emp-2", "M002")

	mark(t, ledger, "emp-1", aug(3), payroll.StatusPresentFullDay)
	mark(t, ledger, "emp-2", aug(3), payroll.StatusAbsent)

	r1, err := ledger.QueryPeriod(ctx, testTenant, "emp-1", august)
	require.NoError(t, err)
	r2, err := ledger.QueryPeriod(ctx, testTenant, "emp-2", august)
	require.NoError(t, err)
	require.Len(t, r1, 1)
	require.Len(t, r2, 1)
	assert.Equal(t, payroll.StatusPresentFullDay, r1[0].Code)
	assert.Equal(t, payroll.StatusAbsent, r2[0].Code)
}

// =============================================================================
// VALIDATION TESTS
// =============================================================================

func TestRecordStatus_UnknownCode_Rejected(t *testing.T) {
	s := memstore.NewMemory()
	ledger := payroll.NewLedger(s)
	seedEmployee(t, s, "emp-1", "M001")

	_, err := ledger.RecordStatus(context.Background(), testTenant, "emp-1", aug(3), "half_present")
	assert.ErrorIs(t, err, payroll.ErrValidation)
}

func TestRecordStatus_UnknownEmployee_Rejected(t *testing.T) {
	s := memstore.NewMemory()
	ledger := payroll.NewLedger(s)

	_, err := ledger.RecordStatus(context.Background(), testTenant, "ghost", aug(3), payroll.StatusPresentAM)
	assert.ErrorIs(t, err, payroll.ErrEmployeeNotFound)
}

func TestRecordStatus_ClosedPeriod_Rejected(t *testing.T) {
	// GIVEN: August is closed
	// WHEN: Marking a status inside August
	// THEN: Rejected with a ClosedPeriodError carrying the period

	s := memstore.NewMemory()
	ctx := context.Background()
	rates := payroll.NewRates(s)
	ledger := payroll.NewLedger(s)
	archiver := payroll.NewArchiver(s)

	seedEmployee(t, s, "emp-1", "M001")
	seedAllDefaults(t, rates)

	_, err := archiver.Close(ctx, testTenant, august, "tester")
	require.NoError(t, err)

	_, err = ledger.RecordStatus(ctx, testTenant, "emp-1", aug(15), payroll.StatusPresentAM)
	require.Error(t, err)

	var closed *payroll.ClosedPeriodError
	require.ErrorAs(t, err, &closed)
	assert.Equal(t, august, closed.Period)
	assert.ErrorIs(t, err, payroll.ErrValidation)

	// Adjacent months stay writable.
	_, err = ledger.RecordStatus(ctx, testTenant, "emp-1",
		payroll.NewDate(2026, time.September, 1), payroll.StatusPresentAM)
	assert.NoError(t, err)
}

// =============================================================================
// BULK QUICK-MARK TESTS
// =============================================================================

func TestBulkRecord_CountsCreatedAndUpdated(t *testing.T) {
	// GIVEN: emp-1 already has a mark for August 3
	// WHEN: Bulk-marking emp-1, emp-2 and a ghost for that date
	// THEN: 1 created, 1 updated, 1 per-employee error; good writes kept

	s := memstore.NewMemory()
	ctx := context.Background()
	ledger := payroll.NewLedger(s)

	seedEmployee(t, s, "emp-1", "M001")
	seedEmployee(t, s, "emp-2", "M002")
	mark(t, ledger, "emp-1", aug(3), payroll.StatusPresentAM)

	result, err := ledger.BulkRecord(ctx, testTenant, aug(3), map[payroll.EmployeeID]payroll.StatusCode{
		"emp-1": payroll.StatusPresentFullDay,
		"emp-2": payroll.StatusPresentFullDay,
		"ghost": payroll.StatusPresentFullDay,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Updated)
	require.Len(t, result.Errors, 1)
	assert.ErrorIs(t, result.Errors["ghost"], payroll.ErrEmployeeNotFound)

	records, err := ledger.QueryPeriod(ctx, testTenant, "emp-2", august)
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestBulkRecord_ClosedPeriod_NothingWritten(t *testing.T) {
	s := memstore.NewMemory()
	ctx := context.Background()
	rates := payroll.NewRates(s)
	ledger := payroll.NewLedger(s)
	archiver := payroll.NewArchiver(s)

	seedEmployee(t, s, "emp-1", "M001")
	seedAllDefaults(t, rates)
	_, err := archiver.Close(ctx, testTenant, august, "tester")
	require.NoError(t, err)

	_, err = ledger.BulkRecord(ctx, testTenant, aug(10), map[payroll.EmployeeID]payroll.StatusCode{
		"emp-1": payroll.StatusPresentFullDay,
	})
	assert.ErrorIs(t, err, payroll.ErrValidation)
}

// =============================================================================
// OVERTIME TESTS
// =============================================================================

func TestOvertimeRecord_Validation(t *testing.T) {
	s := memstore.NewMemory()
	ctx := context.Background()
	book := payroll.NewOvertimeBook(s)
	seedEmployee(t, s, "emp-1", "M001")

	_, err := book.Record(ctx, testTenant, "emp-1", aug(3), gnf(0), payroll.OvertimeWeekday)
	assert.ErrorIs(t, err, payroll.ErrValidation, "zero hours rejected")

	_, err = book.Record(ctx, testTenant, "emp-1", aug(3), gnf(-2), payroll.OvertimeWeekday)
	assert.ErrorIs(t, err, payroll.ErrValidation, "negative hours rejected")

	_, err = book.Record(ctx, testTenant, "emp-1", aug(3), gnf(2), "night")
	assert.ErrorIs(t, err, payroll.ErrValidation, "unknown class rejected")

	_, err = book.Record(ctx, testTenant, "ghost", aug(3), gnf(2), payroll.OvertimeWeekday)
	assert.ErrorIs(t, err, payroll.ErrEmployeeNotFound)
}

func TestOvertimeRecord_ClosedPeriod_Rejected(t *testing.T) {
	s := memstore.NewMemory()
	ctx := context.Background()
	rates := payroll.NewRates(s)
	book := payroll.NewOvertimeBook(s)
	archiver := payroll.NewArchiver(s)

	seedEmployee(t, s, "emp-1", "M001")
	seedAllDefaults(t, rates)
	_, err := archiver.Close(ctx, testTenant, august, "tester")
	require.NoError(t, err)

	_, err = book.Record(ctx, testTenant, "emp-1", aug(3), gnf(2), payroll.OvertimeWeekday)
	assert.ErrorIs(t, err, payroll.ErrValidation)
}

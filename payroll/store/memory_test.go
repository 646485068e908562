package store_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faraleno2022/guineegest-sub000/payroll"
	memstore "github.com/Faraleno2022/guineegest-sub000/payroll/store"
)

func memEmployee(tenant payroll.TenantID, id, matricule string) payroll.Employee {
	return payroll.Employee{
		ID:         payroll.EmployeeID(id),
		TenantID:   tenant,
		Matricule:  matricule,
		Name:       "Employee " + matricule,
		Function:   "operator",
		Status:     payroll.EmploymentActive,
		BaseSalary: decimal.NewFromInt(500000),
	}
}

func TestMemory_Employee_IDOwnedByAnotherTenant_Rejected(t *testing.T) {
	s := memstore.NewMemory()
	ctx := context.Background()

	require.NoError(t, s.SaveEmployee(ctx, memEmployee("tenant-b", "shared-id", "B001")))

	// Same guard as the SQL store: an ID belongs to one tenant only.
	err := s.SaveEmployee(ctx, memEmployee("tenant-a", "shared-id", "A001"))
	assert.ErrorIs(t, err, payroll.ErrValidation)

	got, err := s.GetEmployee(ctx, "tenant-b", "shared-id")
	require.NoError(t, err)
	assert.Equal(t, "B001", got.Matricule)

	_, err = s.GetEmployee(ctx, "tenant-a", "shared-id")
	assert.ErrorIs(t, err, payroll.ErrEmployeeNotFound)
}

/*
checker.go - Reference-data consistency diagnostics

PURPOSE:
  Validates that a tenant's reference data is complete enough to close a
  period: every active employee carries the mandatory fields, and every
  status code has an active tenant-level default rate (overrides are
  optional). Pure read-only; reports gaps, never mutates.

CALLERS:
  Explicitly by the API layer for diagnostics, and internally by the
  archive state machine as the precondition gate for close.
*/
package payroll

import "context"

// =============================================================================
// CONSISTENCY REPORT
// =============================================================================

// EmployeeGap names the mandatory fields an active employee is missing.
type EmployeeGap struct {
	EmployeeID    EmployeeID `json:"employee_id"`
	Matricule     string     `json:"matricule"`
	MissingFields []string   `json:"missing_fields"`
}

// ConsistencyReport lists the reference-data gaps of one tenant.
type ConsistencyReport struct {
	// MissingRateEntries are status codes with no active tenant default.
	// They price as zero until configured.
	MissingRateEntries []StatusCode `json:"missing_rate_entries"`

	// IncompleteEmployees are active employees missing mandatory fields
	// (matricule, function, base salary).
	IncompleteEmployees []EmployeeGap `json:"incomplete_employees"`

	// Coherent is true when both lists are empty; close requires it.
	Coherent bool `json:"coherent"`
}

// =============================================================================
// CHECKER
// =============================================================================

// Checker produces ConsistencyReports.
type Checker struct {
	store Store
}

func NewChecker(store Store) *Checker {
	return &Checker{store: store}
}

// CheckReferenceData inspects the tenant's roster and rate configuration.
func (c *Checker) CheckReferenceData(ctx context.Context, tenant TenantID) (ConsistencyReport, error) {
	report := ConsistencyReport{}

	employees, err := c.store.ListEmployees(ctx, tenant)
	if err != nil {
		return report, err
	}
	for i := range employees {
		emp := &employees[i]
		if !emp.IsActive() {
			continue
		}
		var missing []string
		if emp.Matricule == "" {
			missing = append(missing, "matricule")
		}
		if emp.Function == "" {
			missing = append(missing, "function")
		}
		if emp.BaseSalary.IsZero() {
			missing = append(missing, "base_salary")
		}
		if len(missing) > 0 {
			report.IncompleteEmployees = append(report.IncompleteEmployees, EmployeeGap{
				EmployeeID:    emp.ID,
				Matricule:     emp.Matricule,
				MissingFields: missing,
			})
		}
	}

	rates, err := c.store.ListActiveRates(ctx, tenant)
	if err != nil {
		return report, err
	}
	hasDefault := make(map[StatusCode]bool)
	for _, r := range rates {
		if r.IsDefault() {
			hasDefault[r.Code] = true
		}
	}
	for _, code := range allStatusCodes {
		if !hasDefault[code] {
			report.MissingRateEntries = append(report.MissingRateEntries, code)
		}
	}

	report.Coherent = len(report.MissingRateEntries) == 0 && len(report.IncompleteEmployees) == 0
	return report, nil
}

/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Employee create/list/deactivate
- Rate configuration endpoints
- Presence recording, overwrite, bulk quick-mark
- Breakdown endpoint
- Period close/restore lifecycle and error mapping
*/
package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faraleno2022/guineegest-sub000/api"
	"github.com/Faraleno2022/guineegest-sub000/payroll"
	memstore "github.com/Faraleno2022/guineegest-sub000/payroll/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	handler := api.NewHandler(memstore.NewMemory())
	srv := httptest.NewServer(api.NewRouter(handler))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeInto(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func createEmployee(t *testing.T, srv *httptest.Server, matricule string) api.EmployeeDTO {
	t.Helper()
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/tenants/acme/employees", api.SaveEmployeeRequest{
		Matricule:           matricule,
		Name:                "Employee " + matricule,
		Function:            "operator",
		BaseSalary:          "500000",
		OvertimeWeekdayRate: "2000",
		OvertimeSundayRate:  "3000",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var dto api.EmployeeDTO
	decodeInto(t, resp, &dto)
	return dto
}

func setAllDefaults(t *testing.T, srv *httptest.Server) {
	t.Helper()
	for _, code := range payroll.AllStatusCodes() {
		resp := doJSON(t, http.MethodPost, srv.URL+"/api/tenants/acme/rates", api.SetRateRequest{
			Code:   string(code),
			Amount: "10000",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}
}

func markPresence(t *testing.T, srv *httptest.Server, empID, date, code string) *http.Response {
	t.Helper()
	return doJSON(t, http.MethodPost, srv.URL+"/api/tenants/acme/presence", api.RecordPresenceRequest{
		EmployeeID: empID,
		Date:       date,
		Code:       code,
	})
}

// =============================================================================
// EMPLOYEE ENDPOINT TESTS
// =============================================================================

func TestAPI_EmployeeLifecycle(t *testing.T) {
	srv := newTestServer(t)

	emp := createEmployee(t, srv, "M001")
	assert.NotEmpty(t, emp.ID)
	assert.Equal(t, "active", emp.Status)
	assert.Equal(t, "500000", emp.BaseSalary)

	// List shows it.
	resp, err := http.Get(srv.URL + "/api/tenants/acme/employees")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []api.EmployeeDTO
	decodeInto(t, resp, &list)
	require.Len(t, list, 1)

	// Deactivate keeps the row.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/tenants/acme/employees/"+emp.ID+"/deactivate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var inactive api.EmployeeDTO
	decodeInto(t, resp, &inactive)
	assert.Equal(t, "inactive", inactive.Status)

	resp, err = http.Get(srv.URL + "/api/tenants/acme/employees/" + emp.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Other tenants cannot see it.
	resp, err = http.Get(srv.URL + "/api/tenants/other/employees/" + emp.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestAPI_CreateEmployee_Validation(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/tenants/acme/employees", api.SaveEmployeeRequest{
		Name:       "No Matricule",
		BaseSalary: "500000",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/tenants/acme/employees", api.SaveEmployeeRequest{
		Matricule:  "M001",
		Name:       "Bad Salary",
		BaseSalary: "a lot",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

// =============================================================================
// PRESENCE ENDPOINT TESTS
// =============================================================================

func TestAPI_Presence_RecordAndOverwrite(t *testing.T) {
	srv := newTestServer(t)
	emp := createEmployee(t, srv, "M001")

	resp := markPresence(t, srv, emp.ID, "2026-08-03", "present_am")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = markPresence(t, srv, emp.ID, "2026-08-03", "present_full_day")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp, err := http.Get(fmt.Sprintf("%s/api/tenants/acme/presence?employee_id=%s&month=8&year=2026", srv.URL, emp.ID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var records []payroll.PresenceRecord
	decodeInto(t, resp, &records)
	require.Len(t, records, 1, "same day overwrites")
	assert.Equal(t, payroll.StatusPresentFullDay, records[0].Code)
}

func TestAPI_Presence_UnknownCode_BadRequest(t *testing.T) {
	srv := newTestServer(t)
	emp := createEmployee(t, srv, "M001")

	resp := markPresence(t, srv, emp.ID, "2026-08-03", "half_day")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestAPI_Presence_Bulk(t *testing.T) {
	srv := newTestServer(t)
	e1 := createEmployee(t, srv, "M001")
	e2 := createEmployee(t, srv, "M002")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/tenants/acme/presence/bulk", api.BulkPresenceRequest{
		Date: "2026-08-03",
		Marks: map[string]string{
			e1.ID:    "present_full_day",
			e2.ID:    "absent",
			"ghost": "present_am",
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result api.BulkPresenceResultDTO
	decodeInto(t, resp, &result)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 0, result.Updated)
	assert.Len(t, result.Errors, 1)
}

// =============================================================================
// BREAKDOWN ENDPOINT TESTS
// =============================================================================

func TestAPI_Breakdown(t *testing.T) {
	srv := newTestServer(t)
	emp := createEmployee(t, srv, "M001")
	setAllDefaults(t, srv)

	for _, date := range []string{"2026-08-03", "2026-08-04", "2026-08-05"} {
		resp := markPresence(t, srv, emp.ID, date, "present_full_day")
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp, err := http.Get(fmt.Sprintf("%s/api/tenants/acme/employees/%s/breakdown?month=8&year=2026", srv.URL, emp.ID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var bd struct {
		Lines []struct {
			Code     string `json:"code"`
			Count    int    `json:"count"`
			Subtotal string `json:"subtotal"`
		} `json:"lines"`
		GrandTotal string `json:"grand_total"`
	}
	decodeInto(t, resp, &bd)
	require.Len(t, bd.Lines, 1)
	assert.Equal(t, 3, bd.Lines[0].Count)
	assert.Equal(t, "30000", bd.Lines[0].Subtotal)
	assert.Equal(t, "30000", bd.GrandTotal)
}

// =============================================================================
// PERIOD LIFECYCLE TESTS
// =============================================================================

func TestAPI_CloseRestoreLifecycle(t *testing.T) {
	srv := newTestServer(t)
	emp := createEmployee(t, srv, "M001")
	setAllDefaults(t, srv)

	resp := markPresence(t, srv, emp.ID, "2026-08-03", "present_full_day")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Close.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/tenants/acme/periods/2026-08/close",
		api.TransitionRequest{Actor: "chief"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var arch api.ArchiveDTO
	decodeInto(t, resp, &arch)
	assert.Equal(t, "closed", arch.Status)
	assert.Equal(t, "10000", arch.Totals.Gross)

	// Writes into the closed month are refused.
	resp = markPresence(t, srv, emp.ID, "2026-08-04", "present_full_day")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Status endpoint agrees.
	resp, err := http.Get(srv.URL + "/api/tenants/acme/periods/2026-08")
	require.NoError(t, err)
	var status api.PeriodStatusDTO
	decodeInto(t, resp, &status)
	assert.Equal(t, "closed", status.Status)

	// The archive lists and carries its snapshot on direct GET.
	resp, err = http.Get(srv.URL + "/api/tenants/acme/archives/2026-08")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var full api.ArchiveDTO
	decodeInto(t, resp, &full)
	require.NotNil(t, full.Snapshot)
	assert.Len(t, full.Snapshot.Presence, 1)

	// Restore reopens.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/tenants/acme/periods/2026-08/restore",
		api.TransitionRequest{Actor: "chief"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = markPresence(t, srv, emp.ID, "2026-08-04", "present_full_day")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
}

func TestAPI_Close_PreconditionFailed_422(t *testing.T) {
	// No rate defaults configured: close must refuse with the report.
	srv := newTestServer(t)
	createEmployee(t, srv, "M001")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/tenants/acme/periods/2026-08/close",
		api.TransitionRequest{Actor: "chief"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body struct {
		Error  string `json:"error"`
		Report struct {
			MissingRateEntries []string `json:"missing_rate_entries"`
			Coherent           bool     `json:"coherent"`
		} `json:"report"`
	}
	decodeInto(t, resp, &body)
	assert.False(t, body.Report.Coherent)
	assert.NotEmpty(t, body.Report.MissingRateEntries)
}

func TestAPI_Archive_OpenPeriod_Conflict(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/tenants/acme/periods/2026-08/archive",
		api.TransitionRequest{Actor: "chief"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestAPI_BadPeriodKey_BadRequest(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/tenants/acme/periods/August-2026/close", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

// =============================================================================
// TAXONOMY TESTS
// =============================================================================

func TestAPI_StatusCodes(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/status-codes")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var codes []struct {
		Code   string `json:"code"`
		Family string `json:"family"`
	}
	decodeInto(t, resp, &codes)
	assert.Len(t, codes, 13)
	assert.Equal(t, "present_am", codes[0].Code)
	assert.Equal(t, "presence", codes[0].Family)
}

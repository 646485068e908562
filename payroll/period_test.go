package payroll_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faraleno2022/guineegest-sub000/payroll"
)

func TestPeriod_Bounds(t *testing.T) {
	feb := payroll.Period{Month: time.February, Year: 2026}
	assert.Equal(t, "2026-02-01", feb.Start().String())
	assert.Equal(t, "2026-02-28", feb.End().String())

	leap := payroll.Period{Month: time.February, Year: 2028}
	assert.Equal(t, "2028-02-29", leap.End().String())

	dec := payroll.Period{Month: time.December, Year: 2026}
	assert.Equal(t, payroll.Period{Month: time.January, Year: 2027}, dec.Next())
	jan := payroll.Period{Month: time.January, Year: 2026}
	assert.Equal(t, payroll.Period{Month: time.December, Year: 2025}, jan.Previous())
}

func TestPeriod_KeyRoundTrip(t *testing.T) {
	p := payroll.Period{Month: time.August, Year: 2026}
	assert.Equal(t, "2026-08", p.Key())

	parsed, err := payroll.ParsePeriodKey("2026-08")
	require.NoError(t, err)
	assert.Equal(t, p, parsed)

	_, err = payroll.ParsePeriodKey("08-2026")
	assert.ErrorIs(t, err, payroll.ErrValidation)
	_, err = payroll.ParsePeriodKey("2026-13")
	assert.ErrorIs(t, err, payroll.ErrValidation)
}

func TestPeriod_Validation(t *testing.T) {
	_, err := payroll.NewPeriod(0, 2026)
	assert.ErrorIs(t, err, payroll.ErrValidation)
	_, err = payroll.NewPeriod(13, 2026)
	assert.ErrorIs(t, err, payroll.ErrValidation)
	_, err = payroll.NewPeriod(time.August, 2026)
	assert.NoError(t, err)
}

func TestDate_JSONAndSunday(t *testing.T) {
	d := payroll.NewDate(2026, time.August, 2)
	assert.True(t, d.IsSunday())
	assert.False(t, payroll.NewDate(2026, time.August, 3).IsSunday())

	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2026-08-02"`, string(raw))

	var back payroll.Date
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.True(t, back.Equal(d))
}

func TestPeriodOf(t *testing.T) {
	d := payroll.NewDate(2026, time.August, 31)
	assert.Equal(t, payroll.Period{Month: time.August, Year: 2026}, payroll.PeriodOf(d))
}

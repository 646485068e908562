package payroll

import (
	"encoding/json"
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar day, the grain of the presence ledger
// =============================================================================

// Date is a calendar day in UTC. The engine never needs finer granularity:
// presence is recorded per day, overtime entries are dated per day.
type Date struct {
	Time time.Time
}

// NewDate builds a Date for year/month/day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses "2006-01-02".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// Today returns the current UTC day.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), now.Month(), now.Day())
}

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Comparison
func (d Date) Before(other Date) bool { return d.normalize().Before(other.normalize()) }
func (d Date) Equal(other Date) bool  { return d.normalize().Equal(other.normalize()) }
func (d Date) After(other Date) bool  { return d.normalize().After(other.normalize()) }

// Properties
func (d Date) Year() int          { return d.Time.Year() }
func (d Date) Month() time.Month  { return d.Time.Month() }
func (d Date) Day() int           { return d.Time.Day() }
func (d Date) IsSunday() bool     { return d.Time.Weekday() == time.Sunday }
func (d Date) IsZero() bool       { return d.Time.IsZero() }
func (d Date) AddDays(n int) Date { return Date{Time: d.Time.AddDate(0, 0, n)} }

func (d Date) String() string { return d.normalize().Format("2006-01-02") }

// MarshalJSON encodes the date as "2006-01-02".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes "2006-01-02".
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// PERIOD - One calendar month for one tenant, the unit of archival closing
// =============================================================================

// Period identifies one calendar month. Archival state (open/closed/archived)
// is tracked per (tenant, period).
type Period struct {
	Month time.Month `json:"month"`
	Year  int        `json:"year"`
}

// NewPeriod builds a Period, validating the month range.
func NewPeriod(month time.Month, year int) (Period, error) {
	p := Period{Month: month, Year: year}
	if !p.Valid() {
		return Period{}, fmt.Errorf("%w: invalid period %d/%d", ErrValidation, month, year)
	}
	return p, nil
}

// PeriodOf returns the period containing the given date.
func PeriodOf(d Date) Period {
	return Period{Month: d.Month(), Year: d.Year()}
}

// ParsePeriodKey parses the canonical "YYYY-MM" form produced by Key.
func ParsePeriodKey(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("%w: invalid period %q, want YYYY-MM", ErrValidation, s)
	}
	return NewPeriod(t.Month(), t.Year())
}

// Valid reports whether the period is well-formed.
func (p Period) Valid() bool {
	return p.Month >= time.January && p.Month <= time.December && p.Year > 0
}

// Start returns the first day of the month.
func (p Period) Start() Date { return NewDate(p.Year, p.Month, 1) }

// End returns the last day of the month.
func (p Period) End() Date {
	t := time.Date(p.Year, p.Month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	return Date{Time: t}
}

// Contains reports whether the date falls inside this period.
func (p Period) Contains(d Date) bool {
	return d.Year() == p.Year && d.Month() == p.Month
}

// Next returns the following month.
func (p Period) Next() Period {
	if p.Month == time.December {
		return Period{Month: time.January, Year: p.Year + 1}
	}
	return Period{Month: p.Month + 1, Year: p.Year}
}

// Previous returns the preceding month.
func (p Period) Previous() Period {
	if p.Month == time.January {
		return Period{Month: time.December, Year: p.Year - 1}
	}
	return Period{Month: p.Month - 1, Year: p.Year}
}

// Key returns the canonical "YYYY-MM" form used as a serialization and
// locking key.
func (p Period) Key() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

func (p Period) String() string { return p.Key() }

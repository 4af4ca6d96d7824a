package invoicing

import (
	"fmt"
	"time"
)

// =============================================================================
// BILLING MONTH - Calendar month in the organization's time zone
// =============================================================================

// BillingMonth is a session date truncated to year-month. Truncation happens
// in the organization's configured time zone: a session logged at 11pm on
// the 31st belongs to that month locally, whatever UTC says.
type BillingMonth struct {
	Year  int
	Month time.Month
}

// MonthOf truncates t to its billing month in loc. A nil loc means UTC.
func MonthOf(t time.Time, loc *time.Location) BillingMonth {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return BillingMonth{Year: local.Year(), Month: local.Month()}
}

// ParseBillingMonth parses the "2006-01" form produced by String.
func ParseBillingMonth(s string) (BillingMonth, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return BillingMonth{}, fmt.Errorf("invalid billing month %q: %w", s, err)
	}
	return BillingMonth{Year: t.Year(), Month: t.Month()}, nil
}

func (m BillingMonth) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Start returns the first instant of the month in loc.
func (m BillingMonth) Start(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, loc)
}

func (m BillingMonth) Next() BillingMonth {
	if m.Month == time.December {
		return BillingMonth{Year: m.Year + 1, Month: time.January}
	}
	return BillingMonth{Year: m.Year, Month: m.Month + 1}
}

func (m BillingMonth) Before(o BillingMonth) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

// Contains reports whether t falls inside this month in loc.
func (m BillingMonth) Contains(t time.Time, loc *time.Location) bool {
	return MonthOf(t, loc) == m
}

package invoicing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weberl48/MTApp-sub000/invoicing"
)

func TestBillingMonth_TruncationAcrossTimeZones(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 03:00 UTC on April 1st is still March 31st in New York.
	instant := time.Date(2025, time.April, 1, 3, 0, 0, 0, time.UTC)

	assert.Equal(t, invoicing.BillingMonth{Year: 2025, Month: time.April}, invoicing.MonthOf(instant, time.UTC))
	assert.Equal(t, invoicing.BillingMonth{Year: 2025, Month: time.March}, invoicing.MonthOf(instant, ny))
	assert.Equal(t, invoicing.BillingMonth{Year: 2025, Month: time.April}, invoicing.MonthOf(instant, nil), "nil location defaults to UTC")
}

func TestBillingMonth_StringRoundTrip(t *testing.T) {
	m := invoicing.BillingMonth{Year: 2025, Month: time.March}
	assert.Equal(t, "2025-03", m.String())

	parsed, err := invoicing.ParseBillingMonth("2025-03")
	require.NoError(t, err)
	assert.Equal(t, m, parsed)

	_, err = invoicing.ParseBillingMonth("March 2025")
	assert.Error(t, err)
}

func TestBillingMonth_NextAndOrdering(t *testing.T) {
	dec := invoicing.BillingMonth{Year: 2025, Month: time.December}
	jan := dec.Next()

	assert.Equal(t, invoicing.BillingMonth{Year: 2026, Month: time.January}, jan)
	assert.True(t, dec.Before(jan))
	assert.False(t, jan.Before(dec))
}

func TestBillingMonth_StartAndContains(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	march := invoicing.BillingMonth{Year: 2025, Month: time.March}

	// Start is the first local instant; the month runs up to, not
	// including, the next month's start.
	start := march.Start(ny)
	assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, ny), start)
	assert.True(t, march.Contains(start, ny))
	assert.True(t, march.Contains(march.Next().Start(ny).Add(-time.Second), ny))
	assert.False(t, march.Contains(march.Next().Start(ny), ny))

	// The UTC instant that is still March in New York belongs to March
	// there and to April in UTC.
	instant := time.Date(2025, time.April, 1, 3, 0, 0, 0, time.UTC)
	assert.True(t, march.Contains(instant, ny))
	assert.False(t, march.Contains(instant, time.UTC))

	assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), march.Start(nil), "nil location defaults to UTC")
}

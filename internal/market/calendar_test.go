package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/Pathwatch/internal/model"
)

func mustCalendar(t *testing.T) *Calendar {
	t.Helper()
	c, err := NewCalendar()
	require.NoError(t, err)
	return c
}

func et(t *testing.T, year int, month time.Month, day, hour, minute int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return time.Date(year, month, day, hour, minute, 0, 0, loc)
}

func TestYearFraction(t *testing.T) {
	// One trading year of minutes maps to 1.0
	assert.InDelta(t, 1.0, YearFraction(TradingMinutesPerYear*time.Minute), 1e-12)
	assert.InDelta(t, 1.0/TradingMinutesPerYear, YearFraction(time.Minute), 1e-15)
}

func TestPeriodsPerYear(t *testing.T) {
	assert.InDelta(t, TradingDaysPerYear, PeriodsPerYear(time.Duration(TradingHoursPerDay*float64(time.Hour))), 1e-6)
}

func TestWeeklyOpen(t *testing.T) {
	c := mustCalendar(t)

	tests := []struct {
		name     string
		now      time.Time
		expected time.Time
	}{
		{
			name:     "wednesday maps to monday of same week",
			now:      et(t, 2025, time.March, 5, 14, 0), // Wed
			expected: et(t, 2025, time.March, 3, 9, 30),
		},
		{
			name:     "monday after open maps to same day",
			now:      et(t, 2025, time.March, 3, 10, 0),
			expected: et(t, 2025, time.March, 3, 9, 30),
		},
		{
			name:     "monday before open maps to previous week",
			now:      et(t, 2025, time.March, 3, 8, 0),
			expected: et(t, 2025, time.February, 24, 9, 30),
		},
		{
			name:     "sunday maps to previous monday",
			now:      et(t, 2025, time.March, 2, 12, 0),
			expected: et(t, 2025, time.February, 24, 9, 30),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, c.WeeklyOpen(tt.now).Equal(tt.expected),
				"got %v, want %v", c.WeeklyOpen(tt.now), tt.expected)
		})
	}
}

func TestDailyOpen(t *testing.T) {
	c := mustCalendar(t)

	tests := []struct {
		name     string
		now      time.Time
		expected time.Time
	}{
		{
			name:     "afternoon maps to same day open",
			now:      et(t, 2025, time.March, 5, 14, 0),
			expected: et(t, 2025, time.March, 5, 9, 30),
		},
		{
			name:     "pre-market maps to previous day",
			now:      et(t, 2025, time.March, 5, 8, 0),
			expected: et(t, 2025, time.March, 4, 9, 30),
		},
		{
			name:     "monday pre-market rolls back over the weekend",
			now:      et(t, 2025, time.March, 3, 8, 0),
			expected: et(t, 2025, time.February, 28, 9, 30), // Friday
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, c.DailyOpen(tt.now).Equal(tt.expected),
				"got %v, want %v", c.DailyOpen(tt.now), tt.expected)
		})
	}
}

func TestIsSessionOpen(t *testing.T) {
	c := mustCalendar(t)

	assert.True(t, c.IsSessionOpen(et(t, 2025, time.March, 5, 10, 0)))
	assert.True(t, c.IsSessionOpen(et(t, 2025, time.March, 5, 9, 30)))
	assert.False(t, c.IsSessionOpen(et(t, 2025, time.March, 5, 16, 0)))
	assert.False(t, c.IsSessionOpen(et(t, 2025, time.March, 5, 8, 0)))
	assert.False(t, c.IsSessionOpen(et(t, 2025, time.March, 1, 12, 0))) // Saturday
}

func TestParseStartingPriceMode(t *testing.T) {
	for _, valid := range []string{"weekly-open", "daily-open", "explicit-value"} {
		mode, err := ParseStartingPriceMode(valid)
		assert.NoError(t, err)
		assert.Equal(t, StartingPriceMode(valid), mode)
	}

	_, err := ParseStartingPriceMode("open-sesame")
	var invalid *model.InvalidParameterError
	assert.ErrorAs(t, err, &invalid)
}

func TestResolveStartingPriceExplicit(t *testing.T) {
	c := mustCalendar(t)

	price, err := c.ResolveStartingPrice(ModeExplicitValue, 431.5, model.PriceSeries{})
	require.NoError(t, err)
	assert.Equal(t, 431.5, price)

	_, err = c.ResolveStartingPrice(ModeExplicitValue, 0, model.PriceSeries{})
	assert.Error(t, err)
}

func TestResolveStartingPriceFromSeries(t *testing.T) {
	c := mustCalendar(t)
	anchor := c.WeeklyOpen(time.Now())

	series := model.NewPriceSeries("TEST", time.Minute, []model.PricePoint{
		{Timestamp: anchor.Add(-time.Hour), Price: 95},
		{Timestamp: anchor.Add(time.Minute), Price: 101},
		{Timestamp: anchor.Add(2 * time.Minute), Price: 102},
	})

	price, err := c.ResolveStartingPrice(ModeWeeklyOpen, 0, series)
	require.NoError(t, err)
	assert.Equal(t, 101.0, price, "first price at or after the weekly open")
}

func TestResolveStartingPriceEmptySeries(t *testing.T) {
	c := mustCalendar(t)
	_, err := c.ResolveStartingPrice(ModeWeeklyOpen, 0, model.PriceSeries{})
	assert.Error(t, err)
}

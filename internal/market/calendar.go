package market

import (
	"fmt"
	"time"

	"github.com/Alias1177/Pathwatch/internal/model"
)

// Trading-time constants used to annualize returns and size GBM steps
const (
	TradingDaysPerYear    = 252
	TradingHoursPerDay    = 6.5
	TradingMinutesPerYear = TradingDaysPerYear * TradingHoursPerDay * 60
)

// Market session times (Eastern Time)
const (
	openHour    = 9
	openMinute  = 30
	closeHour   = 16
	closeMinute = 0
)

// YearFraction converts a step duration into a fraction of a trading year
func YearFraction(step time.Duration) float64 {
	return step.Minutes() / TradingMinutesPerYear
}

// PeriodsPerYear returns how many sampling periods of the given interval
// fit into one trading year
func PeriodsPerYear(interval time.Duration) float64 {
	return TradingMinutesPerYear / interval.Minutes()
}

// Calendar resolves session opens for a US-equities style trading week
type Calendar struct {
	loc *time.Location
}

// NewCalendar loads the exchange timezone
func NewCalendar() (*Calendar, error) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return nil, fmt.Errorf("loading market timezone: %w", err)
	}
	return &Calendar{loc: loc}, nil
}

// Now returns the current time in the exchange timezone
func (c *Calendar) Now() time.Time {
	return time.Now().In(c.loc)
}

// DailyOpen returns the most recent session open (09:30 ET) at or before t
func (c *Calendar) DailyOpen(t time.Time) time.Time {
	et := t.In(c.loc)
	open := time.Date(et.Year(), et.Month(), et.Day(), openHour, openMinute, 0, 0, c.loc)
	if et.Before(open) {
		open = open.AddDate(0, 0, -1)
	}
	// Roll back over the weekend
	for open.Weekday() == time.Saturday || open.Weekday() == time.Sunday {
		open = open.AddDate(0, 0, -1)
	}
	return open
}

// WeeklyOpen returns the Monday 09:30 ET open of the week containing t,
// or the previous week's open when t is before Monday's open
func (c *Calendar) WeeklyOpen(t time.Time) time.Time {
	et := t.In(c.loc)
	daysSinceMonday := (int(et.Weekday()) + 6) % 7
	monday := et.AddDate(0, 0, -daysSinceMonday)
	open := time.Date(monday.Year(), monday.Month(), monday.Day(), openHour, openMinute, 0, 0, c.loc)
	if et.Before(open) {
		open = open.AddDate(0, 0, -7)
	}
	return open
}

// IsSessionOpen reports whether t falls inside regular trading hours
func (c *Calendar) IsSessionOpen(t time.Time) bool {
	et := t.In(c.loc)
	if et.Weekday() == time.Saturday || et.Weekday() == time.Sunday {
		return false
	}
	open := time.Date(et.Year(), et.Month(), et.Day(), openHour, openMinute, 0, 0, c.loc)
	close := time.Date(et.Year(), et.Month(), et.Day(), closeHour, closeMinute, 0, 0, c.loc)
	return !et.Before(open) && et.Before(close)
}

// StartingPriceMode selects how the simulation anchor price is chosen
type StartingPriceMode string

const (
	ModeWeeklyOpen    StartingPriceMode = "weekly-open"
	ModeDailyOpen     StartingPriceMode = "daily-open"
	ModeExplicitValue StartingPriceMode = "explicit-value"
)

// ParseStartingPriceMode validates a mode string
func ParseStartingPriceMode(s string) (StartingPriceMode, error) {
	switch StartingPriceMode(s) {
	case ModeWeeklyOpen, ModeDailyOpen, ModeExplicitValue:
		return StartingPriceMode(s), nil
	}
	return "", &model.InvalidParameterError{
		Param:  "starting_price_mode",
		Reason: fmt.Sprintf("unknown mode %q", s),
	}
}

// ResolveStartingPrice picks the simulation anchor price from a historical
// series according to the configured mode. Used only at initialization.
func (c *Calendar) ResolveStartingPrice(mode StartingPriceMode, explicit float64, series model.PriceSeries) (float64, error) {
	switch mode {
	case ModeExplicitValue:
		if explicit <= 0 {
			return 0, &model.InvalidParameterError{
				Param:  "starting_price",
				Reason: "explicit starting price must be positive",
			}
		}
		return explicit, nil
	case ModeWeeklyOpen:
		return c.priceAtOrAfter(series, c.WeeklyOpen(time.Now()))
	case ModeDailyOpen:
		return c.priceAtOrAfter(series, c.DailyOpen(time.Now()))
	}
	return 0, &model.InvalidParameterError{
		Param:  "starting_price_mode",
		Reason: fmt.Sprintf("unknown mode %q", mode),
	}
}

// priceAtOrAfter returns the first series price at or after the anchor
// time, falling back to the last known price when the anchor is beyond
// the series end.
func (c *Calendar) priceAtOrAfter(series model.PriceSeries, anchor time.Time) (float64, error) {
	if series.Len() == 0 {
		return 0, fmt.Errorf("empty price series, cannot resolve starting price")
	}
	for _, p := range series.Points {
		if !p.Timestamp.Before(anchor) {
			return p.Price, nil
		}
	}
	return series.Last().Price, nil
}

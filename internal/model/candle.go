package model

import (
	"sort"
	"time"
)

// Candle represents a single price candle
type Candle struct {
	Datetime string  `json:"datetime"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   int64   `json:"volume,omitempty"`
}

// PricePoint is one (timestamp, price) sample of a historical series
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
}

// PriceSeries is an ordered sequence of price points with strictly
// increasing timestamps. Immutable once built.
type PriceSeries struct {
	Symbol   string
	Interval time.Duration
	Points   []PricePoint
}

// NewPriceSeries builds a series from points, sorting them by timestamp
// and dropping duplicates so the strictly-increasing invariant holds.
func NewPriceSeries(symbol string, interval time.Duration, points []PricePoint) PriceSeries {
	sorted := make([]PricePoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	deduped := sorted[:0]
	for _, p := range sorted {
		if len(deduped) > 0 && !p.Timestamp.After(deduped[len(deduped)-1].Timestamp) {
			continue
		}
		deduped = append(deduped, p)
	}

	return PriceSeries{Symbol: symbol, Interval: interval, Points: deduped}
}

// Len returns the number of points in the series
func (s PriceSeries) Len() int { return len(s.Points) }

// Last returns the most recent point of the series
func (s PriceSeries) Last() PricePoint {
	return s.Points[len(s.Points)-1]
}

// Observation is a single real market tick, read-only to the core
type Observation struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
}

// TwelveResponse represents the time-series API response from Twelve Data
type TwelveResponse struct {
	Meta struct {
		Symbol   string `json:"symbol"`
		Interval string `json:"interval"`
	} `json:"meta"`
	Values []struct {
		Datetime string  `json:"datetime"`
		Open     float64 `json:"open,string"`
		High     float64 `json:"high,string"`
		Low      float64 `json:"low,string"`
		Close    float64 `json:"close,string"`
		Volume   int64   `json:"volume,string,omitempty"`
	} `json:"values"`
	Status string `json:"status"`
}

// TwelvePriceResponse represents the real-time price API response
type TwelvePriceResponse struct {
	Price  float64 `json:"price,string"`
	Status string  `json:"status"`
}

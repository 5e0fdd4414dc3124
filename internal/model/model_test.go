package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewPriceSeriesSortsAndDedupes(t *testing.T) {
	base := time.Date(2025, 3, 3, 9, 30, 0, 0, time.UTC)
	series := NewPriceSeries("TEST", time.Minute, []PricePoint{
		{Timestamp: base.Add(2 * time.Minute), Price: 102},
		{Timestamp: base, Price: 100},
		{Timestamp: base.Add(time.Minute), Price: 101},
		{Timestamp: base.Add(time.Minute), Price: 999}, // duplicate timestamp dropped
	})

	assert.Equal(t, 3, series.Len())
	assert.Equal(t, 100.0, series.Points[0].Price)
	assert.Equal(t, 101.0, series.Points[1].Price)
	assert.Equal(t, 102.0, series.Last().Price)

	for i := 1; i < series.Len(); i++ {
		assert.True(t, series.Points[i].Timestamp.After(series.Points[i-1].Timestamp))
	}
}

func TestZoneGeometry(t *testing.T) {
	z := ReversalZone{PriceLow: 100, PriceHigh: 104}
	assert.Equal(t, 102.0, z.Center())
	assert.Equal(t, 4.0, z.Width())
}

func TestSnapshotSurvivalRate(t *testing.T) {
	snap := &LiveSnapshot{SurvivingPaths: 125, TotalPaths: 500}
	assert.Equal(t, 0.25, snap.SurvivalRate())

	empty := &LiveSnapshot{}
	assert.Zero(t, empty.SurvivalRate())
}

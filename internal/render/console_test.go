package render

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/Pathwatch/internal/model"
)

func sampleSnapshot(status model.SnapshotStatus) *model.LiveSnapshot {
	return &model.LiveSnapshot{
		Symbol:         "QQQ",
		Status:         status,
		Observation:    model.Observation{Timestamp: time.Now(), Price: 431.5},
		Offset:         12,
		SurvivingPaths: 125,
		TotalPaths:     500,
		EliminatedNow:  8,
		Stats:          &model.SurvivorStats{Mean: 431.2, P10: 429.8, P50: 431.1, P90: 432.9},
		Zones: []model.ReversalZone{
			{PriceLow: 430, PriceHigh: 430.5, Type: model.ZoneSupport, PathCount: 40, Probability: 0.32},
		},
		AsOf: time.Now(),
	}
}

func TestConsoleRenderLive(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleTo(&buf)

	require.NoError(t, c.Render(context.Background(), sampleSnapshot(model.StatusLive)))

	out := buf.String()
	assert.Contains(t, out, "LIVE FORECAST [QQQ]")
	assert.Contains(t, out, "125/500 alive")
	assert.Contains(t, out, "support")
	assert.NotContains(t, out, "NO UPDATE THIS TICK")
}

func TestConsoleRenderFlagsStaleAndReseeded(t *testing.T) {
	tests := []struct {
		status model.SnapshotStatus
		marker string
	}{
		{model.StatusStale, "NO UPDATE THIS TICK"},
		{model.StatusReseeded, "ENSEMBLE RESEEDED"},
		{model.StatusStalled, "ALL PATHS ELIMINATED"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		c := NewConsoleTo(&buf)
		require.NoError(t, c.Render(context.Background(), sampleSnapshot(tt.status)))
		assert.Contains(t, buf.String(), tt.marker)
	}
}

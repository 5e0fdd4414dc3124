package twelvedata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(ClientOptions{
		APIKey:          "test-key",
		BaseURL:         server.URL,
		RequestTimeout:  2 * time.Second,
		RequestsPerSec:  100,
		MaxRetryTimeout: time.Second,
	})
}

func TestGetCandlesParsesAndSorts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/time_series", r.URL.Path)
		assert.Equal(t, "QQQ", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{
			"meta": {"symbol": "QQQ", "interval": "1min"},
			"values": [
				{"datetime": "2025-03-03 09:32:00", "open": "101", "high": "102", "low": "100", "close": "101.5", "volume": "900"},
				{"datetime": "2025-03-03 09:30:00", "open": "100", "high": "101", "low": "99", "close": "100.5", "volume": "1000"},
				{"datetime": "2025-03-03 09:31:00", "open": "100.5", "high": "101.5", "low": "100", "close": "101", "volume": "800"}
			],
			"status": "ok"
		}`))
	})

	candles, err := client.GetCandles(context.Background(), "QQQ", "1min", 3)
	require.NoError(t, err)
	require.Len(t, candles, 3)

	// Oldest first
	assert.Equal(t, "2025-03-03 09:30:00", candles[0].Datetime)
	assert.Equal(t, "2025-03-03 09:32:00", candles[2].Datetime)
	assert.Equal(t, 100.5, candles[0].Close)
}

func TestGetCandlesEmptyResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"meta": {}, "values": [], "status": "ok"}`))
	})

	_, err := client.GetCandles(context.Background(), "QQQ", "1min", 10)
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestGetCandlesVendorError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","message":"symbol not found"}`))
	})

	_, err := client.GetCandles(context.Background(), "NOPE", "1min", 10)
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestRateLimitMapping(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.FetchLatest(context.Background(), "QQQ")
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestCreditsExhaustedMapsToRateLimited(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","message":"You have run out of API credits"}`))
	})

	_, err := client.FetchLatest(context.Background(), "QQQ")
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestFetchLatest(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/price", r.URL.Path)
		w.Write([]byte(`{"price": "431.50"}`))
	})

	obs, err := client.FetchLatest(context.Background(), "QQQ")
	require.NoError(t, err)
	assert.Equal(t, 431.5, obs.Price)
	assert.WithinDuration(t, time.Now(), obs.Timestamp, 5*time.Second)
}

func TestFetchHistoryBuildsSeries(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1min", r.URL.Query().Get("interval"))
		w.Write([]byte(`{
			"meta": {"symbol": "QQQ", "interval": "1min"},
			"values": [
				{"datetime": "2025-03-03 09:30:00", "open": "100", "high": "101", "low": "99", "close": "100.5"},
				{"datetime": "2025-03-03 09:31:00", "open": "100.5", "high": "101.5", "low": "100", "close": "101"},
				{"datetime": "2025-03-03 09:32:00", "open": "101", "high": "102", "low": "100", "close": "101.5"}
			],
			"status": "ok"
		}`))
	})

	series, err := client.FetchHistory(context.Background(), "QQQ", time.Minute, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 3, series.Len())
	assert.Equal(t, time.Minute, series.Interval)
	assert.Equal(t, 101.5, series.Last().Price)

	// Strictly increasing timestamps
	for i := 1; i < series.Len(); i++ {
		assert.True(t, series.Points[i].Timestamp.After(series.Points[i-1].Timestamp))
	}
}

func TestFetchHistoryUnsupportedInterval(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := client.FetchHistory(context.Background(), "QQQ", 7*time.Minute, time.Hour)
	assert.Error(t, err)
}

func TestIntervalString(t *testing.T) {
	tests := []struct {
		interval time.Duration
		expected string
	}{
		{time.Minute, "1min"},
		{5 * time.Minute, "5min"},
		{15 * time.Minute, "15min"},
		{time.Hour, "1h"},
		{4 * time.Hour, "4h"},
		{24 * time.Hour, "1day"},
		{7 * 24 * time.Hour, "1week"},
	}

	for _, tt := range tests {
		got, err := intervalString(tt.interval)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, got)
	}
}

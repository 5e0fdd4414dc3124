package twelvedata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Pathwatch/internal/model"
	httpClient "github.com/Alias1177/Pathwatch/internal/platform/http"
)

// ErrDataUnavailable means the vendor returned no usable data for the
// request. Treated as a missed tick in live mode.
var ErrDataUnavailable = errors.New("market data unavailable")

// ErrRateLimited means the vendor rejected the request for quota reasons.
// Treated as a missed tick in live mode.
var ErrRateLimited = errors.New("market data rate limited")

// Client is the TwelveData API client
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new TwelveData client
type ClientOptions struct {
	APIKey          string
	BaseURL         string
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetryTimeout time.Duration
}

// NewClient creates a new TwelveData API client
func NewClient(options ClientOptions) *Client {
	httpOpts := httpClient.ClientOptions{
		Timeout:         options.RequestTimeout,
		RequestsPerSec:  options.RequestsPerSec,
		MaxRetryTimeout: options.MaxRetryTimeout,
	}

	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = "https://api.twelvedata.com"
	}

	return &Client{
		apiKey:     options.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient.NewClient(httpOpts),
		logger:     log.With().Str("component", "twelvedata_client").Logger(),
	}
}

// GetCandles fetches candle data from the Twelve Data time-series endpoint
func (c *Client) GetCandles(ctx context.Context, symbol string, interval string, count int) ([]model.Candle, error) {
	endpoint := fmt.Sprintf(
		"%s/time_series?symbol=%s&interval=%s&outputsize=%d&apikey=%s",
		c.baseURL,
		url.QueryEscape(symbol),
		interval,
		count,
		c.apiKey,
	)

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var data model.TwelveResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Str("response", string(body)).Msg("Error parsing JSON")
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	if len(data.Values) == 0 {
		c.logger.Warn().Str("response", string(body)).Msg("No candles in response")
		return nil, fmt.Errorf("%w: empty time series for %s", ErrDataUnavailable, symbol)
	}

	// Sort candles by datetime (oldest first for proper calculations)
	sort.Slice(data.Values, func(i, j int) bool {
		return data.Values[i].Datetime < data.Values[j].Datetime
	})

	var candles []model.Candle
	for _, v := range data.Values {
		candles = append(candles, model.Candle{
			Datetime: v.Datetime,
			Open:     v.Open,
			High:     v.High,
			Low:      v.Low,
			Close:    v.Close,
			Volume:   v.Volume,
		})
	}

	c.logger.Debug().Int("count", len(candles)).Str("interval", interval).Msg("Fetched candles")
	return candles, nil
}

// FetchHistory fetches closes for the lookback window at the given
// sampling interval and returns them as a price series
func (c *Client) FetchHistory(ctx context.Context, symbol string, interval, lookback time.Duration) (model.PriceSeries, error) {
	apiInterval, err := intervalString(interval)
	if err != nil {
		return model.PriceSeries{}, err
	}

	count := int(lookback / interval)
	if count < 2 {
		count = 2
	}

	candles, err := c.GetCandles(ctx, symbol, apiInterval, count)
	if err != nil {
		return model.PriceSeries{}, err
	}

	points := make([]model.PricePoint, 0, len(candles))
	for _, candle := range candles {
		ts, err := parseDatetime(candle.Datetime)
		if err != nil {
			c.logger.Warn().Str("datetime", candle.Datetime).Msg("Skipping candle with unparseable datetime")
			continue
		}
		points = append(points, model.PricePoint{Timestamp: ts, Price: candle.Close})
	}

	series := model.NewPriceSeries(symbol, interval, points)
	if series.Len() < 2 {
		return model.PriceSeries{}, fmt.Errorf("%w: too few usable candles for %s", ErrDataUnavailable, symbol)
	}
	return series, nil
}

// FetchLatest fetches the current price from the real-time price endpoint
func (c *Client) FetchLatest(ctx context.Context, symbol string) (model.Observation, error) {
	endpoint := fmt.Sprintf(
		"%s/price?symbol=%s&apikey=%s",
		c.baseURL,
		url.QueryEscape(symbol),
		c.apiKey,
	)

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return model.Observation{}, err
	}

	var data model.TwelvePriceResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return model.Observation{}, fmt.Errorf("parsing JSON: %w", err)
	}

	if data.Price <= 0 {
		return model.Observation{}, fmt.Errorf("%w: no price for %s", ErrDataUnavailable, symbol)
	}

	return model.Observation{Timestamp: time.Now(), Price: data.Price}, nil
}

// get performs the request and maps transport failures onto the data
// error taxonomy
func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		var statusErr *httpClient.HTTPStatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if strings.Contains(string(body), `"status":"error"`) {
		c.logger.Error().Str("response", string(body)).Msg("Twelve Data API error")
		if strings.Contains(string(body), "API credits") {
			return nil, fmt.Errorf("%w: out of API credits", ErrRateLimited)
		}
		return nil, fmt.Errorf("%w: API error response", ErrDataUnavailable)
	}

	return body, nil
}

// intervalString maps a sampling duration onto the vendor's interval names
func intervalString(interval time.Duration) (string, error) {
	switch interval {
	case time.Minute:
		return "1min", nil
	case 5 * time.Minute:
		return "5min", nil
	case 15 * time.Minute:
		return "15min", nil
	case 30 * time.Minute:
		return "30min", nil
	case 45 * time.Minute:
		return "45min", nil
	case time.Hour:
		return "1h", nil
	case 2 * time.Hour:
		return "2h", nil
	case 4 * time.Hour:
		return "4h", nil
	case 8 * time.Hour:
		return "8h", nil
	case 24 * time.Hour:
		return "1day", nil
	case 7 * 24 * time.Hour:
		return "1week", nil
	}
	return "", fmt.Errorf("unsupported sampling interval %s", interval)
}

// parseDatetime handles both intraday and daily vendor timestamp formats
func parseDatetime(s string) (time.Time, error) {
	if ts, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02", s)
}

package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// FetchClient pulls daily OHLC data from the external market-data provider's
// chart API. It sits at the system boundary: the scheduled price refresh pass
// uses it to fill the stock_price table, and nothing else touches it.
type FetchClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewFetchClient creates a fetch client against the given provider base URL.
func NewFetchClient(baseURL string) *FetchClient {
	return &FetchClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// chartResponse maps the provider's chart API response format.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency string `json:"currency"`
				Symbol   string `json:"symbol"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open  []float64 `json:"open"`
					Close []float64 `json:"close"`
					High  []float64 `json:"high"`
					Low   []float64 `json:"low"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *string `json:"error"`
	} `json:"chart"`
}

// DailyBar is one trading day's OHLC data for a ticker.
type DailyBar struct {
	Date       time.Time
	PriceOpen  float64
	PriceClose float64
	PriceHigh  float64
	PriceLow   float64
}

// FetchRecentBars fetches the last few trading days of daily bars for a
// ticker, most recent last. Used by the price refresh pass to pick up the
// latest close.
func (c *FetchClient) FetchRecentBars(ctx context.Context, ticker string) ([]DailyBar, error) {
	url := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=5d", c.baseURL, ticker)
	return c.fetchBars(ctx, ticker, url)
}

// FetchBarsByDateRange fetches daily bars for an arbitrary date range,
// used for historical backfills.
func (c *FetchClient) FetchBarsByDateRange(ctx context.Context, ticker string, startDate, endDate time.Time) ([]DailyBar, error) {
	url := fmt.Sprintf(
		"%s/v8/finance/chart/%s?interval=1d&period1=%d&period2=%d",
		c.baseURL,
		ticker,
		startDate.Unix(),
		endDate.Unix(),
	)
	return c.fetchBars(ctx, ticker, url)
}

func (c *FetchClient) fetchBars(ctx context.Context, ticker, url string) ([]DailyBar, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var response chartResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, err
	}

	if response.Chart.Error != nil {
		return nil, fmt.Errorf("market data error for %s: %s", ticker, *response.Chart.Error)
	}
	if len(response.Chart.Result) == 0 {
		return nil, fmt.Errorf("no results returned for ticker %s", ticker)
	}

	result := response.Chart.Result[0]
	if len(result.Timestamp) == 0 {
		return nil, fmt.Errorf("no price data returned for ticker %s", ticker)
	}
	if len(result.Indicators.Quote) == 0 || len(result.Indicators.Quote[0].Close) != len(result.Timestamp) {
		return nil, fmt.Errorf("mismatched data lengths for ticker %s", ticker)
	}

	quote := result.Indicators.Quote[0]
	bars := make([]DailyBar, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		bars[i] = DailyBar{
			Date:       time.Unix(ts, 0).UTC(),
			PriceOpen:  quote.Open[i],
			PriceClose: quote.Close[i],
			PriceHigh:  quote.High[i],
			PriceLow:   quote.Low[i],
		}
	}

	return bars, nil
}

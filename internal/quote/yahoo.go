package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	apperrors "stockwatch/internal/errors"
	"stockwatch/internal/models"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// YahooSource implements Source using the Yahoo Finance chart API. One
// request yields the current price, the latest volume, and the trailing
// average volume over the requested range.
type YahooSource struct {
	client  *http.Client
	baseURL string
}

// NewYahooSource creates a Yahoo Finance quote source.
func NewYahooSource(timeout time.Duration) *YahooSource {
	return &YahooSource{
		client:  &http.Client{Timeout: timeout},
		baseURL: defaultBaseURL,
	}
}

// NewYahooSourceWithBaseURL creates a source against a custom endpoint.
func NewYahooSourceWithBaseURL(baseURL string, timeout time.Duration) *YahooSource {
	return &YahooSource{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// yahooChart is the response structure from the Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// GetQuote fetches the current quote for a symbol.
func (s *YahooSource) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=1mo",
		s.baseURL, url.PathEscape(symbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, apperrors.NewQuoteError(symbol, "building request", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apperrors.NewQuoteError(symbol, "fetch", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewQuoteError(symbol, "reading body", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewQuoteError(symbol, fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, apperrors.NewQuoteError(symbol, "decode", err)
	}
	if chart.Chart.Error != nil {
		return nil, apperrors.NewQuoteError(symbol, chart.Chart.Error.Description, nil)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, apperrors.NewQuoteError(symbol, "no data returned", nil)
	}

	result := chart.Chart.Result[0]
	series := result.Indicators.Quote[0]

	var lastClose float64
	for i := len(series.Close) - 1; i >= 0; i-- {
		if c, ok := toFloat(series.Close[i]); ok && c > 0 {
			lastClose = c
			break
		}
	}

	price := result.Meta.RegularMarketPrice
	if price <= 0 {
		price = lastClose
	}
	if price <= 0 {
		return nil, apperrors.NewQuoteError(symbol, "no price data", nil)
	}

	var volumes []float64
	for _, v := range series.Volume {
		if f, ok := toFloat(v); ok && f > 0 {
			volumes = append(volumes, f)
		}
	}

	var current int64
	var average float64
	if len(volumes) > 0 {
		current = int64(volumes[len(volumes)-1])
		var sum float64
		for _, v := range volumes {
			sum += v
		}
		average = sum / float64(len(volumes))
	}

	return &models.Quote{
		Symbol:        symbol,
		Price:         price,
		Volume:        current,
		AverageVolume: average,
		Timestamp:     time.Now(),
	}, nil
}

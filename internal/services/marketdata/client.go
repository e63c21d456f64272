// Package marketdata implements the upstream collaborator contracts: the
// exchange bond-universe feed and the central-bank key-rate history feed.
// The client does plain HTTP with a request rate limit; resilience (retry,
// breaker, timeout) is the caller's gateway's job.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/bondval/internal/interfaces"
	"github.com/ternarybob/bondval/internal/models"
	"github.com/ternarybob/bondval/internal/services/gateway"
)

var _ interfaces.MarketDataProvider = (*Client)(nil)

const (
	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default request rate (requests per second).
	DefaultRateLimit = 5
)

// Client fetches bond records and key-rate history over HTTP.
type Client struct {
	bondsURL   string
	ratesURL   string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets a custom request rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// NewClient creates a market-data client for the given feed URLs.
func NewClient(bondsURL, ratesURL string, opts ...ClientOption) *Client {
	c := &Client{
		bondsURL: bondsURL,
		ratesURL: ratesURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// get performs a GET request and decodes the JSON response.
func (c *Client) get(ctx context.Context, op, rawURL string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	reqURL := rawURL
	if len(params) > 0 {
		reqURL = fmt.Sprintf("%s?%s", rawURL, params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	if c.logger != nil {
		c.logger.Debug().
			Str("url", rawURL).
			Msg("Market data request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return gateway.NewHTTPError(op, resp.StatusCode,
			fmt.Errorf("unexpected response: %s", string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// bondRow is the wire shape of one bond record; dates arrive as strings.
type bondRow struct {
	Ticker           string  `json:"ticker"`
	Name             string  `json:"name"`
	Price            float64 `json:"price"`
	Coupon           float64 `json:"coupon"`
	CouponPeriodDays int     `json:"coupon_period_days"`
	MaturityDate     string  `json:"maturity_date"`
	Nominal          float64 `json:"nominal"`
	AccruedInterest  float64 `json:"accrued_interest"`
	MarketYTM        float64 `json:"market_ytm"`
	Volume           float64 `json:"volume"`
	Duration         float64 `json:"duration"`
}

// FetchBonds retrieves the current bond universe. Rows with malformed
// maturity dates are dropped rather than failing the whole fetch.
func (c *Client) FetchBonds(ctx context.Context) ([]models.BondRecord, error) {
	var rows []bondRow
	if err := c.get(ctx, "fetch-bonds", c.bondsURL, nil, &rows); err != nil {
		return nil, err
	}

	bonds := make([]models.BondRecord, 0, len(rows))
	for _, row := range rows {
		maturity, err := time.Parse("2006-01-02", row.MaturityDate)
		if err != nil {
			if c.logger != nil {
				c.logger.Warn().
					Str("ticker", row.Ticker).
					Str("maturity", row.MaturityDate).
					Msg("Dropping bond with unparseable maturity date")
			}
			continue
		}
		bonds = append(bonds, models.BondRecord{
			Ticker:           row.Ticker,
			Name:             row.Name,
			Price:            row.Price,
			Coupon:           row.Coupon,
			CouponPeriodDays: row.CouponPeriodDays,
			MaturityDate:     maturity,
			Nominal:          row.Nominal,
			AccruedInterest:  row.AccruedInterest,
			MarketYTM:        row.MarketYTM,
			Volume:           row.Volume,
			Duration:         row.Duration,
		})
	}

	if c.logger != nil {
		c.logger.Info().
			Int("count", len(bonds)).
			Msg("Fetched bond universe")
	}
	return bonds, nil
}

// rateRow is the wire shape of one key-rate observation.
type rateRow struct {
	Date string  `json:"date"`
	Rate float64 `json:"rate"`
}

// FetchRateHistory retrieves key-rate observations sorted newest-first.
func (c *Client) FetchRateHistory(ctx context.Context) ([]models.RatePoint, error) {
	var rows []rateRow
	if err := c.get(ctx, "fetch-rate-history", c.ratesURL, nil, &rows); err != nil {
		return nil, err
	}

	points := make([]models.RatePoint, 0, len(rows))
	for _, row := range rows {
		date, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			if c.logger != nil {
				c.logger.Warn().
					Str("date", row.Date).
					Msg("Dropping rate point with unparseable date")
			}
			continue
		}
		points = append(points, models.RatePoint{Date: date, Rate: row.Rate})
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.After(points[j].Date)
	})

	if c.logger != nil {
		c.logger.Info().
			Int("count", len(points)).
			Msg("Fetched key rate history")
	}
	return points, nil
}

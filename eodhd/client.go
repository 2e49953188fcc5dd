// Package eodhd provides historical exchange rates from the EODHD forex
// end-of-day API.
//
// Rates follow the costbasis convention: the number of units of a currency
// worth one unit of the reference currency on a given day.
package eodhd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/etnz/costbasis"
	"github.com/etnz/costbasis/date"
	"github.com/etnz/costbasis/httpjson"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultBaseURL is the public EODHD API endpoint.
const DefaultBaseURL = "https://eodhd.com/api"

// lookback is the number of days searched before the requested day. Forex
// markets close on weekends and some holidays, the last close is used then.
const lookback = 7

// ErrNoRate is returned when EODHD has no usable quote for the requested day.
var ErrNoRate = errors.New("no rate available")

// Client fetches forex rates from EODHD.
type Client struct {
	apiKey    string
	reference string
	baseURL   string
	http      *http.Client
	log       zerolog.Logger
}

var _ costbasis.RateService = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, mostly for tests.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(base, "/") }
}

// WithHTTPClient sets the http.Client used for requests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithReference sets the reference currency, USD by default.
func WithReference(currency string) Option {
	return func(c *Client) {
		if currency != "" {
			c.reference = strings.ToUpper(currency)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New returns a Client authenticated with apiKey.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:    apiKey,
		reference: "USD",
		baseURL:   DefaultBaseURL,
		http:      http.DefaultClient,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With().Str("component", "eodhd").Logger()
	return c
}

// Reference returns the reference currency of the rates.
func (c *Client) Reference() string { return c.reference }

// ticker returns the EODHD forex ticker quoting currency per reference unit.
func (c *Client) ticker(currency string) string {
	return fmt.Sprintf("%s%s.FOREX", c.reference, currency)
}

// GetRate returns the units of currency worth one reference unit on day.
//
// The close of the last trading day on or before day is used.
func (c *Client) GetRate(ctx context.Context, day date.Date, currency string) (float64, error) {
	currency = strings.ToUpper(currency)
	if currency == c.reference {
		return 1, nil
	}

	// https://eodhd.com/api/eod/USDEUR.FOREX?api_token=demo&fmt=json&from=2024-01-01&to=2024-01-08
	// [
	//	{
	//		"date": "2024-01-08",
	//		"open": 0.9139,
	//		"high": 0.9152,
	//		"low": 0.9118,
	//		"close": 0.9139,
	//		"adjusted_close": 0.9139,
	//		"volume": 0
	//	}
	// ]
	q := url.Values{}
	q.Set("fmt", "json")
	q.Set("api_token", c.apiKey)
	q.Set("from", day.Add(-lookback).String())
	q.Set("to", day.String())
	addr := fmt.Sprintf("%s/eod/%s?%s", c.baseURL, c.ticker(currency), q.Encode())

	type Info struct {
		Date  date.Date       `json:"date"`
		Close decimal.Decimal `json:"close"`
	}
	content := make([]Info, 0)
	if err := httpjson.Get(ctx, c.http, addr, &content); err != nil {
		return 0, fmt.Errorf("cannot get %s rate on %s: %w", currency, day, err)
	}

	var best *Info
	for i := range content {
		info := &content[i]
		if info.Date.After(day) {
			continue
		}
		if best == nil || info.Date.After(best.Date) {
			best = info
		}
	}
	if best == nil {
		return 0, fmt.Errorf("%s on %s: %w", currency, day, ErrNoRate)
	}
	if !best.Close.IsPositive() {
		return 0, fmt.Errorf("%s on %s: close is %s: %w", currency, day, best.Close, ErrNoRate)
	}
	c.log.Debug().
		Str("currency", currency).
		Stringer("day", day).
		Stringer("quoted", best.Date).
		Str("rate", best.Close.String()).
		Msg("fetched rate")
	return best.Close.InexactFloat64(), nil
}

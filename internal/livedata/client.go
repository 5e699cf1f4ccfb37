// Package livedata fetches current financial metrics for a small set of
// well-known companies from an external quote API. The capability is
// optional: with no upstream configured the client reports unavailable and
// every fetch fails fast.
package livedata

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/V1shhnuu7/FinSentinal-V3/internal/ml"
)

// tickerMap covers the companies exposed in the UI picker. Unknown names
// fall back to AAPL, matching the historical behavior.
var tickerMap = map[string]string{
	"Apple Inc.":        "AAPL",
	"Microsoft Corp.":   "MSFT",
	"NVIDIA Corp.":      "NVDA",
	"Meta Platforms":    "META",
	"Amazon.com Inc.":   "AMZN",
	"Tesla Inc.":        "TSLA",
	"Google (Alphabet)": "GOOGL",
	"Netflix Inc.":      "NFLX",
}

const defaultCompany = "Apple Inc."

// Snapshot is the set of live metrics returned for one company.
type Snapshot struct {
	Ticker           string  `json:"ticker"`
	Company          string  `json:"company"`
	CurrentPrice     float64 `json:"current_price"`
	MarketCap        float64 `json:"market_cap"`
	PERatio          float64 `json:"pe_ratio"`
	PBRatio          float64 `json:"pb_ratio"`
	DebtToEquity     float64 `json:"debt_to_equity"`
	CurrentRatio     float64 `json:"current_ratio"`
	QuickRatio       float64 `json:"quick_ratio"`
	ProfitMargin     float64 `json:"profit_margin"`
	OperatingMargin  float64 `json:"operating_margin"`
	ROE              float64 `json:"roe"`
	ROA              float64 `json:"roa"`
	RevenueGrowth    float64 `json:"revenue_growth"`
	EarningsGrowth   float64 `json:"earnings_growth"`
	TotalCash        float64 `json:"total_cash"`
	TotalDebt        float64 `json:"total_debt"`
	TotalRevenue     float64 `json:"total_revenue"`
	EBITDA           float64 `json:"ebitda"`
	FreeCashFlow     float64 `json:"free_cash_flow"`
	Beta             float64 `json:"beta"`
	FiftyTwoWeekHigh float64 `json:"fifty_two_week_high"`
	FiftyTwoWeekLow  float64 `json:"fifty_two_week_low"`
	DebtToRevenue    float64 `json:"debt_to_revenue,omitempty"`
	CashToRevenue    float64 `json:"cash_to_revenue,omitempty"`
	LastUpdated      string  `json:"last_updated"`
	DataSource       string  `json:"data_source"`
}

// quoteResponse mirrors the upstream quote API payload.
type quoteResponse struct {
	Symbol           string  `json:"symbol"`
	CurrentPrice     float64 `json:"currentPrice"`
	MarketCap        float64 `json:"marketCap"`
	TrailingPE       float64 `json:"trailingPE"`
	PriceToBook      float64 `json:"priceToBook"`
	DebtToEquity     float64 `json:"debtToEquity"`
	CurrentRatio     float64 `json:"currentRatio"`
	QuickRatio       float64 `json:"quickRatio"`
	ProfitMargins    float64 `json:"profitMargins"`
	OperatingMargins float64 `json:"operatingMargins"`
	ReturnOnEquity   float64 `json:"returnOnEquity"`
	ReturnOnAssets   float64 `json:"returnOnAssets"`
	RevenueGrowth    float64 `json:"revenueGrowth"`
	EarningsGrowth   float64 `json:"earningsGrowth"`
	TotalCash        float64 `json:"totalCash"`
	TotalDebt        float64 `json:"totalDebt"`
	TotalRevenue     float64 `json:"totalRevenue"`
	EBITDA           float64 `json:"ebitda"`
	FreeCashflow     float64 `json:"freeCashflow"`
	Beta             float64 `json:"beta"`
	FiftyTwoWeekHigh float64 `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow  float64 `json:"fiftyTwoWeekLow"`
}

// Client talks to the configured quote API.
type Client struct {
	base string
	rest *resty.Client
}

// New creates a live data client. An empty base URL yields a client that
// reports unavailable.
func New(base string, timeout time.Duration) *Client {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(10 * time.Second) // default fallback
	}
	return &Client{base: base, rest: r}
}

// Available reports whether an upstream quote API is configured.
func (c *Client) Available() bool { return c.base != "" }

// Companies lists the supported company names.
func (c *Client) Companies() []string {
	out := make([]string, 0, len(tickerMap))
	for name := range tickerMap {
		out = append(out, name)
	}
	return out
}

// Fetch resolves company to a ticker symbol and pulls its current metrics.
// An empty company name uses the default pick; an unknown one falls back to
// the default ticker.
func (c *Client) Fetch(ctx context.Context, company string) (*Snapshot, error) {
	if !c.Available() {
		return nil, ml.ErrLiveDataUnavailable
	}
	if company == "" {
		company = defaultCompany
	}
	ticker, ok := tickerMap[company]
	if !ok {
		ticker = tickerMap[defaultCompany]
	}

	var q quoteResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParam("symbol", ticker).
		SetResult(&q).
		Get(c.base + "/v1/quote")
	if err != nil {
		return nil, fmt.Errorf("fetch quote for %s: %w", ticker, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch quote for %s: upstream status %d", ticker, resp.StatusCode())
	}

	snap := &Snapshot{
		Ticker:           ticker,
		Company:          company,
		CurrentPrice:     q.CurrentPrice,
		MarketCap:        q.MarketCap,
		PERatio:          q.TrailingPE,
		PBRatio:          q.PriceToBook,
		DebtToEquity:     q.DebtToEquity,
		CurrentRatio:     q.CurrentRatio,
		QuickRatio:       q.QuickRatio,
		ProfitMargin:     q.ProfitMargins,
		OperatingMargin:  q.OperatingMargins,
		ROE:              q.ReturnOnEquity,
		ROA:              q.ReturnOnAssets,
		RevenueGrowth:    q.RevenueGrowth,
		EarningsGrowth:   q.EarningsGrowth,
		TotalCash:        q.TotalCash,
		TotalDebt:        q.TotalDebt,
		TotalRevenue:     q.TotalRevenue,
		EBITDA:           q.EBITDA,
		FreeCashFlow:     q.FreeCashflow,
		Beta:             q.Beta,
		FiftyTwoWeekHigh: q.FiftyTwoWeekHigh,
		FiftyTwoWeekLow:  q.FiftyTwoWeekLow,
		LastUpdated:      time.Now().Format(time.RFC3339),
		DataSource:       "quote API",
	}
	if snap.TotalRevenue > 0 {
		snap.DebtToRevenue = snap.TotalDebt / snap.TotalRevenue
		snap.CashToRevenue = snap.TotalCash / snap.TotalRevenue
	}
	return snap, nil
}

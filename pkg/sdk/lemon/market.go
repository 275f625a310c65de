package lemon

import (
	"context"
	"net/url"
	"time"

	"github.com/betbot/golemon/pkg/sdk/errs"
	"github.com/betbot/golemon/pkg/sdk/rest"
)

const (
	minSearchLength = 3
	maxISINs        = 10
)

// MarketData is the read-only market data façade. It holds no state;
// every call is independent.
type MarketData struct {
	endpoint
}

// NewMarketData creates a façade on the data host.
func NewMarketData(requester Requester, tokens TokenSource) (*MarketData, error) {
	if requester == nil || tokens == nil {
		return nil, errs.Invalid("market data", "requester and token source are required")
	}
	return &MarketData{endpoint{requester: requester, tokens: tokens, resource: rest.ResourceData}}, nil
}

// InstrumentQuery filters instrument searches; zero fields are omitted.
type InstrumentQuery struct {
	Search   string // name, ISIN, WKN or symbol, at least 3 characters
	ISINs    []string
	Type     InstrumentType
	Venue    Venue
	Currency string
	Tradable *bool
}

func (q InstrumentQuery) values() (url.Values, error) {
	if q.Search != "" && len([]rune(q.Search)) < minSearchLength {
		return nil, errs.Invalid("search", "needs at least %d characters, got %q", minSearchLength, q.Search)
	}
	if err := checkISINs(q.ISINs, false); err != nil {
		return nil, err
	}
	if q.Type != "" && !q.Type.Valid() {
		return nil, errs.Invalid("type", "unknown instrument type %q", q.Type)
	}
	return rest.NewQuery().
		Set("search", q.Search).
		Add("isin", q.ISINs...).
		Set("type", string(q.Type)).
		Set("mic", string(q.Venue)).
		Set("currency", q.Currency).
		SetBool("tradable", q.Tradable).
		Values(), nil
}

// SearchInstrument lists instruments matching q.
func (m *MarketData) SearchInstrument(ctx context.Context, q InstrumentQuery) ([]Instrument, error) {
	params, err := q.values()
	if err != nil {
		return nil, err
	}
	var out []Instrument
	if err := m.get(ctx, "/instruments/", params, &out); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].market = m
	}
	return out, nil
}

// Instrument looks up a single ISIN.
func (m *MarketData) Instrument(ctx context.Context, isin string) (*Instrument, error) {
	if isin == "" {
		return nil, errs.Invalid("isin", "is empty")
	}
	list, err := m.SearchInstrument(ctx, InstrumentQuery{ISINs: []string{isin}})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNoResults
	}
	return &list[0], nil
}

// TradingVenues lists venues, optionally restricted to one MIC.
func (m *MarketData) TradingVenues(ctx context.Context, mic Venue) ([]TradingVenue, error) {
	var out []TradingVenue
	if err := m.get(ctx, "/venues/", rest.NewQuery().Set("mic", string(mic)).Values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LatestQuotes returns the latest quote of each ISIN.
func (m *MarketData) LatestQuotes(ctx context.Context, isins []string, mic Venue) ([]Quote, error) {
	params, err := latestParams(isins, mic)
	if err != nil {
		return nil, err
	}
	var out []Quote
	if err := m.get(ctx, "/quotes/latest", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LatestQuote returns the latest quote of isin.
func (m *MarketData) LatestQuote(ctx context.Context, isin string, mic Venue) (*Quote, error) {
	quotes, err := m.LatestQuotes(ctx, []string{isin}, mic)
	if err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return nil, ErrNoResults
	}
	return &quotes[0], nil
}

// LatestTrades returns the latest trade of each ISIN.
func (m *MarketData) LatestTrades(ctx context.Context, isins []string, mic Venue) ([]Trade, error) {
	params, err := latestParams(isins, mic)
	if err != nil {
		return nil, err
	}
	var out []Trade
	if err := m.get(ctx, "/trades/latest", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LatestTrade returns the latest trade of isin.
func (m *MarketData) LatestTrade(ctx context.Context, isin string, mic Venue) (*Trade, error) {
	trades, err := m.LatestTrades(ctx, []string{isin}, mic)
	if err != nil {
		return nil, err
	}
	if len(trades) == 0 {
		return nil, ErrNoResults
	}
	return &trades[0], nil
}

// OHLCQuery selects bars; Timespan and at least one ISIN are required.
type OHLCQuery struct {
	ISINs    []string
	Timespan Timespan
	From     time.Time
	To       time.Time
	Venue    Venue
	Sorting  Sorting
}

func (q OHLCQuery) values() (url.Values, error) {
	if !q.Timespan.Valid() {
		return nil, errs.Invalid("timespan", "must be m, h or d, got %q", q.Timespan)
	}
	if err := checkISINs(q.ISINs, true); err != nil {
		return nil, err
	}
	if q.Sorting != "" && !q.Sorting.Valid() {
		return nil, errs.Invalid("sorting", "must be asc or desc, got %q", q.Sorting)
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.To.Before(q.From) {
		return nil, errs.Invalid("to", "before from")
	}
	return rest.NewQuery().
		Add("isin", q.ISINs...).
		Set("from", formatQueryTime(q.From)).
		Set("to", formatQueryTime(q.To)).
		Set("mic", string(q.Venue)).
		Set("sorting", string(q.Sorting)).
		Set("decimals", "false").
		Values(), nil
}

// OHLC returns bars for q.
func (m *MarketData) OHLC(ctx context.Context, q OHLCQuery) ([]OHLC, error) {
	params, err := q.values()
	if err != nil {
		return nil, err
	}
	var out []OHLC
	if err := m.get(ctx, "/ohlc/"+string(q.Timespan)+"1/", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (i *Instrument) marketData() (*MarketData, error) {
	if i.market == nil {
		return nil, errs.Invalid("instrument", "not obtained from market data")
	}
	return i.market, nil
}

// LatestQuote returns the latest quote of the instrument.
func (i *Instrument) LatestQuote(ctx context.Context, mic Venue) (*Quote, error) {
	m, err := i.marketData()
	if err != nil {
		return nil, err
	}
	return m.LatestQuote(ctx, i.ISIN, mic)
}

// LatestTrade returns the latest trade of the instrument.
func (i *Instrument) LatestTrade(ctx context.Context, mic Venue) (*Trade, error) {
	m, err := i.marketData()
	if err != nil {
		return nil, err
	}
	return m.LatestTrade(ctx, i.ISIN, mic)
}

// OHLC returns the instrument's bars between from and to.
func (i *Instrument) OHLC(ctx context.Context, span Timespan, from, to time.Time, mic Venue, sorting Sorting) ([]OHLC, error) {
	m, err := i.marketData()
	if err != nil {
		return nil, err
	}
	return m.OHLC(ctx, OHLCQuery{
		ISINs:    []string{i.ISIN},
		Timespan: span,
		From:     from,
		To:       to,
		Venue:    mic,
		Sorting:  sorting,
	})
}

func latestParams(isins []string, mic Venue) (url.Values, error) {
	if err := checkISINs(isins, true); err != nil {
		return nil, err
	}
	return rest.NewQuery().
		Add("isin", isins...).
		Set("mic", string(mic)).
		Set("decimals", "false").
		Values(), nil
}

func checkISINs(isins []string, required bool) error {
	n := 0
	for _, isin := range isins {
		if isin != "" {
			n++
		}
	}
	if required && n == 0 {
		return errs.Invalid("isin", "at least one ISIN is required")
	}
	if n > maxISINs {
		return errs.Invalid("isin", "at most %d ISINs per request, got %d", maxISINs, n)
	}
	return nil
}

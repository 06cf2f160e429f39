package exchange

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/raykavin/pricealert/pkg/core"
)

// Exchange is the exchange name stored on instruments found in a replay file
const Exchange = "REPLAY"

var (
	ErrInsufficientData = errors.New("insufficient data")
	defaultHeaderMap    = map[string]int{"time": 0, "ticker": 1, "price": 2}
)

type snapshot struct {
	at     time.Time
	prices map[string]decimal.Decimal
}

// CSVSource replays recorded prices. Each call to Prices moves one timestamp
// forward; once the file is exhausted the last prices are repeated.
type CSVSource struct {
	mu         sync.Mutex
	steps      []snapshot
	cursor     int
	last       map[string]decimal.Decimal
	precisions map[string]int32
}

// NewCSVSource reads a file of time,ticker,price rows. Time is either a unix
// timestamp or RFC 3339. The header row is optional.
func NewCSVSource(file string) (*CSVSource, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadCSVSource(f)
}

func ReadCSVSource(r io.Reader) (*CSVSource, error) {
	lines, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrInsufficientData
	}

	headerMap, hasHeader := parseHeaders(lines[0])
	if hasHeader {
		lines = lines[1:]
	}

	source := &CSVSource{
		last:       make(map[string]decimal.Decimal),
		precisions: make(map[string]int32),
	}

	byTime := make(map[time.Time]map[string]decimal.Decimal)
	for i, line := range lines {
		at, ticker, price, err := parseLine(line, headerMap)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}

		if _, ok := byTime[at]; !ok {
			byTime[at] = make(map[string]decimal.Decimal)
		}
		byTime[at][ticker] = price

		if precision := -price.Exponent(); precision > source.precisions[ticker] {
			source.precisions[ticker] = precision
		}
	}

	if len(byTime) == 0 {
		return nil, ErrInsufficientData
	}

	source.steps = lo.MapToSlice(byTime, func(at time.Time, prices map[string]decimal.Decimal) snapshot {
		return snapshot{at: at, prices: prices}
	})
	sort.Slice(source.steps, func(i, j int) bool {
		return source.steps[i].at.Before(source.steps[j].at)
	})

	return source, nil
}

// parseHeaders maps column names to indexes. A first row starting with a
// number is data, not a header.
func parseHeaders(headers []string) (map[string]int, bool) {
	if _, err := strconv.ParseInt(headers[0], 10, 64); err == nil {
		return defaultHeaderMap, false
	}
	if _, err := time.Parse(time.RFC3339, headers[0]); err == nil {
		return defaultHeaderMap, false
	}

	headerMap := make(map[string]int, len(headers))
	for index, header := range headers {
		headerMap[strings.ToLower(strings.TrimSpace(header))] = index
	}
	return headerMap, true
}

func parseLine(line []string, headerMap map[string]int) (time.Time, string, decimal.Decimal, error) {
	column := func(name string) (string, error) {
		index, ok := headerMap[name]
		if !ok || index >= len(line) {
			return "", fmt.Errorf("missing column %q", name)
		}
		return strings.TrimSpace(line[index]), nil
	}

	rawTime, err := column("time")
	if err != nil {
		return time.Time{}, "", decimal.Decimal{}, err
	}
	ticker, err := column("ticker")
	if err != nil {
		return time.Time{}, "", decimal.Decimal{}, err
	}
	rawPrice, err := column("price")
	if err != nil {
		return time.Time{}, "", decimal.Decimal{}, err
	}

	var at time.Time
	if timestamp, err := strconv.ParseInt(rawTime, 10, 64); err == nil {
		at = time.Unix(timestamp, 0).UTC()
	} else if at, err = time.Parse(time.RFC3339, rawTime); err != nil {
		return time.Time{}, "", decimal.Decimal{}, fmt.Errorf("invalid time %q", rawTime)
	}

	price, err := decimal.NewFromString(rawPrice)
	if err != nil {
		return time.Time{}, "", decimal.Decimal{}, fmt.Errorf("invalid price %q", rawPrice)
	}

	return at, core.NormalizeTicker(ticker), price, nil
}

// Prices implements core.PriceSource
func (c *CSVSource) Prices(_ context.Context, instruments []core.Instrument) ([]core.Quote, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cursor < len(c.steps) {
		for ticker, price := range c.steps[c.cursor].prices {
			c.last[ticker] = price
		}
		c.cursor++
	}

	quotes := make([]core.Quote, 0, len(instruments))
	for _, instrument := range instruments {
		quote := core.Quote{Instrument: instrument}
		if price, ok := c.last[instrument.Ticker]; ok {
			quote.Price = decimal.NewNullDecimal(price)
		}
		quotes = append(quotes, quote)
	}
	return quotes, nil
}

// FindInstrument implements core.InstrumentFinder for tickers present in the
// file. Precision is the largest number of fractional digits seen.
func (c *CSVSource) FindInstrument(_ context.Context, ticker string) (core.Instrument, error) {
	ticker = core.NormalizeTicker(ticker)
	precision, ok := c.precisions[ticker]
	if !ok {
		return core.Instrument{}, core.ErrInstrumentNotFound
	}

	return core.Instrument{
		Ticker:    ticker,
		Exchange:  Exchange,
		Kind:      core.InstrumentKindEquity,
		Precision: precision,
	}, nil
}

// Tickers lists every ticker of the file
func (c *CSVSource) Tickers() []string {
	tickers := lo.Keys(c.precisions)
	sort.Strings(tickers)
	return tickers
}

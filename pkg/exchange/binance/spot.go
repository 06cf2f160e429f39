package binance

import (
	"context"
	"fmt"
	"sync"

	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"

	"github.com/raykavin/pricealert/pkg/core"
	"github.com/raykavin/pricealert/pkg/logger"
)

// Spot reads last prices and symbol metadata from the Binance spot market
type Spot struct {
	client *binance.Client
	log    logger.Logger

	apiKey    string
	secretKey string
	testnet   bool
	baseURL   string

	mu      sync.RWMutex
	symbols map[string]int32
}

// SpotOption is a function that configures a Spot client
type SpotOption func(*Spot)

// WithCredentials sets the API credentials for the Spot client
func WithCredentials(key, secret string) SpotOption {
	return func(s *Spot) {
		s.apiKey = key
		s.secretKey = secret
	}
}

// WithTestNet enables the Binance testnet
func WithTestNet() SpotOption {
	return func(s *Spot) {
		s.testnet = true
	}
}

// WithBaseURL points the REST client at another endpoint
func WithBaseURL(url string) SpotOption {
	return func(s *Spot) {
		s.baseURL = url
	}
}

// NewSpot creates a Binance spot client and loads the tradable symbols
func NewSpot(ctx context.Context, log logger.Logger, options ...SpotOption) (*Spot, error) {
	spot := &Spot{
		log:     log,
		symbols: make(map[string]int32),
	}

	for _, option := range options {
		option(spot)
	}

	binance.UseTestnet = spot.testnet
	spot.client = binance.NewClient(spot.apiKey, spot.secretKey)
	if spot.baseURL != "" {
		spot.client.BaseURL = spot.baseURL
	}

	if err := spot.client.NewPingService().Do(ctx); err != nil {
		return nil, fmt.Errorf("binance ping fail: %w", err)
	}

	if err := spot.loadSymbols(ctx); err != nil {
		return nil, err
	}

	log.WithField("symbols", len(spot.symbols)).Info("using Binance spot prices")
	return spot, nil
}

func (s *Spot) loadSymbols(ctx context.Context) error {
	var info *binance.ExchangeInfo
	err := withRetry(ctx, func() error {
		var err error
		info, err = s.client.NewExchangeInfoService().Do(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to get exchange info: %w", err)
	}

	symbols := make(map[string]int32, len(info.Symbols))
	for _, symbol := range info.Symbols {
		if symbol.Status != string(binance.SymbolStatusTypeTrading) {
			continue
		}

		precision := int32(symbol.QuotePrecision)
		for _, filter := range symbol.Filters {
			if typ, ok := filter["filterType"]; ok && typ == string(binance.SymbolFilterTypePriceFilter) {
				if tickSize, ok := filter["tickSize"].(string); ok {
					precision = precisionFromTickSize(tickSize)
				}
			}
		}
		symbols[symbol.Symbol] = precision
	}

	s.mu.Lock()
	s.symbols = symbols
	s.mu.Unlock()
	return nil
}

func (s *Spot) precision(symbol string) (int32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	precision, ok := s.symbols[symbol]
	return precision, ok
}

// FindInstrument implements core.InstrumentFinder for trading spot symbols
func (s *Spot) FindInstrument(_ context.Context, ticker string) (core.Instrument, error) {
	ticker = core.NormalizeTicker(ticker)
	precision, ok := s.precision(ticker)
	if !ok {
		return core.Instrument{}, core.ErrInstrumentNotFound
	}

	return core.Instrument{
		Ticker:    ticker,
		Exchange:  Exchange,
		Kind:      core.InstrumentKindCurrency,
		Precision: precision,
	}, nil
}

// Prices implements core.PriceSource. Instruments that are not Binance
// symbols come back without a price.
func (s *Spot) Prices(ctx context.Context, instruments []core.Instrument) ([]core.Quote, error) {
	var symbols []string
	for _, instrument := range instruments {
		if _, ok := s.precision(instrument.Ticker); ok {
			symbols = append(symbols, instrument.Ticker)
		}
	}

	last := make(map[string]decimal.Decimal, len(symbols))
	if len(symbols) > 0 {
		var prices []*binance.SymbolPrice
		err := withRetry(ctx, func() error {
			var err error
			prices, err = s.client.NewListPricesService().Symbols(symbols).Do(ctx)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list prices: %w", err)
		}

		for _, price := range prices {
			value, err := decimal.NewFromString(price.Price)
			if err != nil {
				s.log.WithError(err).WithField("symbol", price.Symbol).Warn("invalid price")
				continue
			}
			last[price.Symbol] = value
		}
	}

	quotes := make([]core.Quote, 0, len(instruments))
	for _, instrument := range instruments {
		quote := core.Quote{Instrument: instrument}
		if price, ok := last[instrument.Ticker]; ok {
			quote.Price = decimal.NewNullDecimal(price)
		}
		quotes = append(quotes, quote)
	}
	return quotes, nil
}

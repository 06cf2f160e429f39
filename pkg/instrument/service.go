package instrument

import (
	"context"
	"errors"
	"fmt"

	"github.com/raykavin/pricealert/pkg/core"
	"github.com/raykavin/pricealert/pkg/logger"
)

// Service resolves tickers to stored instruments, creating them on first use
// from the configured finders
type Service struct {
	storage core.Storage
	finders []core.InstrumentFinder
	log     logger.Logger
}

func NewService(storage core.Storage, log logger.Logger, finders ...core.InstrumentFinder) *Service {
	return &Service{
		storage: storage,
		finders: finders,
		log:     log,
	}
}

// Lookup returns the stored instrument for ticker without consulting the finders
func (s *Service) Lookup(ctx context.Context, ticker string) (core.Instrument, error) {
	var instrument core.Instrument
	err := s.storage.View(ctx, func(tx core.Tx) error {
		var err error
		instrument, err = tx.InstrumentByTicker(core.NormalizeTicker(ticker))
		return err
	})
	return instrument, err
}

// GetOrCreate returns the stored instrument for ticker. Unknown tickers are
// looked up in each finder in order and the first match is stored.
func (s *Service) GetOrCreate(ctx context.Context, ticker string) (core.Instrument, error) {
	ticker = core.NormalizeTicker(ticker)

	instrument, err := s.Lookup(ctx, ticker)
	if err == nil || !errors.Is(err, core.ErrInstrumentNotFound) {
		return instrument, err
	}

	found, err := s.find(ctx, ticker)
	if err != nil {
		return core.Instrument{}, err
	}

	err = s.storage.Update(ctx, func(tx core.Tx) error {
		existing, err := tx.InstrumentByTicker(ticker)
		if err == nil {
			instrument = existing
			return nil
		}
		if !errors.Is(err, core.ErrInstrumentNotFound) {
			return err
		}

		instrument = found
		instrument.ID = 0
		instrument.Ticker = ticker
		return tx.CreateInstrument(&instrument)
	})
	if err != nil {
		return core.Instrument{}, err
	}

	s.log.WithFields(map[string]any{
		"ticker":    instrument.Ticker,
		"exchange":  instrument.Exchange,
		"precision": instrument.Precision,
	}).Info("instrument created")

	return instrument, nil
}

func (s *Service) find(ctx context.Context, ticker string) (core.Instrument, error) {
	for _, finder := range s.finders {
		instrument, err := finder.FindInstrument(ctx, ticker)
		if err == nil {
			return instrument, nil
		}
		if !errors.Is(err, core.ErrInstrumentNotFound) {
			return core.Instrument{}, fmt.Errorf("find instrument %s: %w", ticker, err)
		}
	}
	return core.Instrument{}, core.ErrInstrumentNotFound
}

package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/stocktrackr/backend/internal/marketdata"
	"github.com/stocktrackr/backend/internal/model"
	"github.com/stocktrackr/backend/internal/repository"
)

// PriceService runs the market-data refresh pass: it pulls recent daily bars
// for every known stock into the stock_price table and derives the benchmark
// return series the beta calculation reads.
type PriceService struct {
	stockRepo     *repository.StockRepository
	priceRepo     *repository.PriceRepository
	benchmarkRepo *repository.BenchmarkRepository
	fetcher       *marketdata.FetchClient
	source        marketdata.Source

	benchmarkSymbol string
}

// NewPriceService creates a new PriceService. Quote reads go through source,
// the same store-backed view the engine revalues against.
func NewPriceService(
	stockRepo *repository.StockRepository,
	priceRepo *repository.PriceRepository,
	benchmarkRepo *repository.BenchmarkRepository,
	fetcher *marketdata.FetchClient,
	source marketdata.Source,
	benchmarkSymbol string,
) *PriceService {
	return &PriceService{
		stockRepo:       stockRepo,
		priceRepo:       priceRepo,
		benchmarkRepo:   benchmarkRepo,
		fetcher:         fetcher,
		source:          source,
		benchmarkSymbol: benchmarkSymbol,
	}
}

// CreateStock registers a new tradable instrument. Its prices arrive on the
// next refresh pass.
func (s *PriceService) CreateStock(ticker, name, exchange, currency string) (model.Stock, error) {
	stock := model.Stock{
		ID:       uuid.NewString(),
		Ticker:   ticker,
		Name:     name,
		Exchange: exchange,
		Currency: currency,
	}
	if err := s.stockRepo.CreateStock(stock); err != nil {
		return model.Stock{}, err
	}
	return stock, nil
}

// GetStocks lists every stock known to the system.
func (s *PriceService) GetStocks() ([]model.Stock, error) {
	return s.stockRepo.GetStocks()
}

// GetQuote resolves a stock's close price from the local store: the most
// recent close on or before onDate, or the latest known close when onDate is
// zero. Returns apperrors.ErrStockNotFound for an unknown stock and
// apperrors.ErrPriceUnavailable when no usable close exists.
func (s *PriceService) GetQuote(stockID string, onDate time.Time) (model.Quote, error) {
	stock, err := s.stockRepo.GetStockOnID(stockID)
	if err != nil {
		return model.Quote{}, err
	}

	var price float64
	if onDate.IsZero() {
		price, err = s.source.CurrentPrice(stockID)
	} else {
		price, err = s.source.CloseOnOrBefore(stockID, onDate)
	}
	if err != nil {
		return model.Quote{}, err
	}

	return model.Quote{
		StockID: stock.ID,
		Ticker:  stock.Ticker,
		Price:   price,
	}, nil
}

// RefreshPrices fetches recent daily bars for every stock and upserts them.
// A fetch failure for one ticker is logged and skipped; the stale close stays
// in place and the next pass retries. Only a failure to list the stocks
// themselves aborts the pass.
//
// When the benchmark symbol is among the stocks, its bars also feed the
// benchmark_return series.
func (s *PriceService) RefreshPrices(ctx context.Context) (int, error) {
	stocks, err := s.stockRepo.GetStocks()
	if err != nil {
		return 0, fmt.Errorf("failed to list stocks: %w", err)
	}

	refreshed := 0
	for _, stock := range stocks {
		if err := ctx.Err(); err != nil {
			return refreshed, err
		}

		bars, err := s.fetcher.FetchRecentBars(ctx, stock.Ticker)
		if err != nil {
			log.Printf("price refresh skipped for %s: %v", stock.Ticker, err)
			continue
		}

		if err := s.storeBars(stock.ID, bars); err != nil {
			log.Printf("price store failed for %s: %v", stock.Ticker, err)
			continue
		}
		refreshed++

		if stock.Ticker == s.benchmarkSymbol {
			s.storeBenchmarkReturns(bars)
		}
	}

	return refreshed, nil
}

// BackfillPrices loads historical bars for one ticker over a date range.
func (s *PriceService) BackfillPrices(ctx context.Context, ticker string, startDate, endDate time.Time) (int, error) {
	stock, err := s.stockRepo.GetStockOnTicker(ticker)
	if err != nil {
		return 0, err
	}

	bars, err := s.fetcher.FetchBarsByDateRange(ctx, ticker, startDate, endDate)
	if err != nil {
		return 0, err
	}

	if err := s.storeBars(stock.ID, bars); err != nil {
		return 0, err
	}
	if ticker == s.benchmarkSymbol {
		s.storeBenchmarkReturns(bars)
	}

	return len(bars), nil
}

func (s *PriceService) storeBars(stockID string, bars []marketdata.DailyBar) error {
	for _, bar := range bars {
		if bar.PriceClose <= 0 {
			continue
		}
		err := s.priceRepo.UpsertPrice(model.StockPrice{
			StockID:    stockID,
			Date:       repository.DateOnly(bar.Date),
			PriceOpen:  bar.PriceOpen,
			PriceClose: bar.PriceClose,
			PriceHigh:  bar.PriceHigh,
			PriceLow:   bar.PriceLow,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// storeBenchmarkReturns converts consecutive closes into day-over-day
// percentage returns and upserts them under the benchmark symbol. Failures
// are logged only: beta degrades to 0 without this series, it never blocks
// the price pass.
func (s *PriceService) storeBenchmarkReturns(bars []marketdata.DailyBar) {
	for i := 1; i < len(bars); i++ {
		prev, curr := bars[i-1], bars[i]
		if prev.PriceClose <= 0 || curr.PriceClose <= 0 {
			continue
		}
		err := s.benchmarkRepo.UpsertReturn(model.BenchmarkReturn{
			Symbol:    s.benchmarkSymbol,
			Date:      repository.DateOnly(curr.Date),
			ReturnPct: percentReturn(curr.PriceClose, prev.PriceClose),
		})
		if err != nil {
			log.Printf("benchmark return store failed for %s: %v", s.benchmarkSymbol, err)
		}
	}
}

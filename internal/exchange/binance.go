package exchange

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"crypto-signal-engine/internal/config"
	"crypto-signal-engine/pkg/logger"
	"crypto-signal-engine/pkg/models"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/jpillora/backoff"
	"go.uber.org/zap"
)

// BinanceClient клиент для взаимодействия с Binance.
// Спот-клиент для свечей и тикеров, фьючерсный для деривативов.
type BinanceClient struct {
	spot    *binance.Client
	futures *futures.Client
	cache   *TickerCache
	timeout time.Duration
	retries int
}

// NewBinanceClient создает новый клиент Binance
func NewBinanceClient(cfg config.BinanceConfig, cache *TickerCache) *BinanceClient {
	return &BinanceClient{
		spot:    binance.NewClient(cfg.APIKey, cfg.APISecret),
		futures: futures.NewClient(cfg.APIKey, cfg.APISecret),
		cache:   cache,
		timeout: time.Duration(cfg.RequestTimeout) * time.Second,
		retries: cfg.RetryAttempts,
	}
}

// GetKlines получает исторические свечи
func (c *BinanceClient) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]models.PriceBar, error) {
	var klines []*binance.Kline
	err := c.withRetry(ctx, "klines", func(reqCtx context.Context) error {
		var err error
		klines, err = c.spot.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			Limit(limit).
			Do(reqCtx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка получения свечей %s %s: %w", symbol, interval, err)
	}

	bars := make([]models.PriceBar, len(klines))
	for i, k := range klines {
		bars[i] = models.PriceBar{
			OpenTime:    time.Unix(k.OpenTime/1000, 0),
			Open:        parseFloat(k.Open),
			High:        parseFloat(k.High),
			Low:         parseFloat(k.Low),
			Close:       parseFloat(k.Close),
			Volume:      parseFloat(k.Volume),
			CloseTime:   time.Unix(k.CloseTime/1000, 0),
			QuoteVolume: parseFloat(k.QuoteAssetVolume),
			TradeCount:  k.TradeNum,
		}
	}

	return bars, nil
}

// GetTicker получает 24-часовую сводку по символу, сначала проверяя кэш
func (c *BinanceClient) GetTicker(ctx context.Context, symbol string) (*models.TickerSnapshot, error) {
	if snapshot, ok := c.cache.Get(symbol); ok {
		return snapshot, nil
	}

	var stats []*binance.PriceChangeStats
	err := c.withRetry(ctx, "ticker24h", func(reqCtx context.Context) error {
		var err error
		stats, err = c.spot.NewListPriceChangeStatsService().Symbol(symbol).Do(reqCtx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка получения тикера %s: %w", symbol, err)
	}
	if len(stats) == 0 {
		return nil, fmt.Errorf("нет данных тикера для %s", symbol)
	}

	snapshot := tickerFromStats(stats[0])
	c.cache.Set(snapshot)
	return snapshot, nil
}

// GetAllTickers получает 24-часовые сводки по всем символам
func (c *BinanceClient) GetAllTickers(ctx context.Context) ([]*models.TickerSnapshot, error) {
	var stats []*binance.PriceChangeStats
	err := c.withRetry(ctx, "ticker24h_all", func(reqCtx context.Context) error {
		var err error
		stats, err = c.spot.NewListPriceChangeStatsService().Do(reqCtx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка тикеров: %w", err)
	}

	snapshots := make([]*models.TickerSnapshot, len(stats))
	for i, s := range stats {
		snapshots[i] = tickerFromStats(s)
	}
	return snapshots, nil
}

// GetDerivatives получает открытый интерес (два последних часовых снимка)
// и текущую ставку финансирования
func (c *BinanceClient) GetDerivatives(ctx context.Context, symbol string) (*models.DerivativesData, error) {
	var oiHist []*futures.OpenInterestStatistic
	err := c.withRetry(ctx, "open_interest_hist", func(reqCtx context.Context) error {
		var err error
		oiHist, err = c.futures.NewOpenInterestStatisticsService().
			Symbol(symbol).
			Period("1h").
			Limit(2).
			Do(reqCtx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка получения истории открытого интереса %s: %w", symbol, err)
	}

	var premium []*futures.PremiumIndex
	err = c.withRetry(ctx, "premium_index", func(reqCtx context.Context) error {
		var err error
		premium, err = c.futures.NewPremiumIndexService().Symbol(symbol).Do(reqCtx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка получения ставки финансирования %s: %w", symbol, err)
	}
	if len(premium) == 0 {
		return nil, fmt.Errorf("нет данных о ставке финансирования для %s", symbol)
	}

	data := &models.DerivativesData{
		FundingRate: parseFloat(premium[0].LastFundingRate),
		Available:   true,
	}

	// История приходит от старых к новым
	if len(oiHist) >= 2 {
		data.PrevOpenInterest = parseFloat(oiHist[0].SumOpenInterest)
		data.OpenInterest = parseFloat(oiHist[1].SumOpenInterest)
	} else if len(oiHist) == 1 {
		data.OpenInterest = parseFloat(oiHist[0].SumOpenInterest)
	}

	return data, nil
}

// withRetry выполняет запрос с ограниченным числом повторов и
// экспоненциальной задержкой; каждый запрос получает свой таймаут
func (c *BinanceClient) withRetry(ctx context.Context, op string, fn func(context.Context) error) error {
	b := &backoff.Backoff{
		Min:    200 * time.Millisecond,
		Max:    3 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	var err error
	for attempt := 1; attempt <= c.retries; attempt++ {
		reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
		err = fn(reqCtx)
		cancel()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		delay := b.Duration()
		logger.Debug("Повтор запроса к бирже",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func tickerFromStats(s *binance.PriceChangeStats) *models.TickerSnapshot {
	return &models.TickerSnapshot{
		Symbol:      s.Symbol,
		Price:       parseFloat(s.LastPrice),
		Change24h:   parseFloat(s.PriceChangePercent),
		High24h:     parseFloat(s.HighPrice),
		Low24h:      parseFloat(s.LowPrice),
		Volume24h:   parseFloat(s.Volume),
		QuoteVolume: parseFloat(s.QuoteVolume),
		TradeCount:  s.Count,
	}
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

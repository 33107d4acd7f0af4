package signal

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"crypto-signal-engine/internal/analysis/classifier"
	"crypto-signal-engine/internal/analysis/confidence"
	"crypto-signal-engine/internal/analysis/confluence"
	"crypto-signal-engine/internal/analysis/indicators"
	"crypto-signal-engine/internal/config"
	"crypto-signal-engine/pkg/logger"
	"crypto-signal-engine/pkg/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// NoSignalSummary текст по умолчанию, когда ни одно правило не сработало
const NoSignalSummary = "Рынок во флэте, ждем четкого сигнала."

// MarketDataSource источник разрешенных рыночных данных.
// Сетевые таймауты и повторы остаются заботой реализации источника.
type MarketDataSource interface {
	GetKlines(ctx context.Context, symbol, interval string, limit int) ([]models.PriceBar, error)
	GetTicker(ctx context.Context, symbol string) (*models.TickerSnapshot, error)
	GetDerivatives(ctx context.Context, symbol string) (*models.DerivativesData, error)
}

// ContextSource источник рыночного контекста референсного актива
type ContextSource interface {
	Current() *models.MarketContext
}

// Generator генерирует сигналы пакетно по списку символов.
// Состояния между вызовами нет: каждый цикл пересчитывается с нуля.
type Generator struct {
	config     config.GeneratorConfig
	analysis   config.AnalysisConfig
	source     MarketDataSource
	contextSrc ContextSource
	calc       *indicators.Calculator
}

// NewGenerator создает новый генератор сигналов
func NewGenerator(cfg config.GeneratorConfig, analysisCfg config.AnalysisConfig, source MarketDataSource, contextSrc ContextSource) *Generator {
	return &Generator{
		config:     cfg,
		analysis:   analysisCfg,
		source:     source,
		contextSrc: contextSrc,
		calc:       indicators.NewCalculator(analysisCfg),
	}
}

// Generate строит сигнал для каждого символа, параллелизм ограничен
// размером пакета. Отказ по одному символу логируется, символ выпадает
// из результата и не прерывает остальных. Порядок результата не
// гарантирован, сортировка остается явным шагом вызывающего.
func (g *Generator) Generate(ctx context.Context, symbols []string) []models.Signal {
	cycleID := uuid.New().String()[:8]
	started := time.Now()

	var mu sync.Mutex
	signals := make([]models.Signal, 0, len(symbols))

	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(g.config.BatchSize)

	for _, symbol := range symbols {
		symbol := symbol
		grp.Go(func() error {
			sig, err := g.generateOne(grpCtx, symbol)
			if err != nil {
				logger.Warn("Сигнал по символу пропущен",
					zap.String("cycle", cycleID),
					zap.String("symbol", symbol),
					zap.Error(err))
				return nil
			}
			mu.Lock()
			signals = append(signals, *sig)
			mu.Unlock()
			return nil
		})
	}
	grp.Wait()

	logger.Info("Цикл генерации завершен",
		zap.String("cycle", cycleID),
		zap.Int("requested", len(symbols)),
		zap.Int("generated", len(signals)),
		zap.Duration("elapsed", time.Since(started)))
	return signals
}

// generateOne считает сигнал по одному символу.
// Паника внутри расчета не должна валить пакет.
func (g *Generator) generateOne(ctx context.Context, symbol string) (sig *models.Signal, err error) {
	defer func() {
		if r := recover(); r != nil {
			sig = nil
			err = fmt.Errorf("паника при расчете %s: %v", symbol, r)
		}
	}()

	ticker, err := g.source.GetTicker(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("тикер: %w", err)
	}

	bars1h, err := g.source.GetKlines(ctx, symbol, g.config.ShortInterval, g.config.KlineLimit)
	if err != nil {
		return nil, fmt.Errorf("свечи %s: %w", g.config.ShortInterval, err)
	}
	bars4h, err := g.source.GetKlines(ctx, symbol, g.config.LongInterval, g.config.KlineLimit)
	if err != nil {
		return nil, fmt.Errorf("свечи %s: %w", g.config.LongInterval, err)
	}

	// Деривативы опциональны: их отсутствие деградирует к нейтральным
	// значениям, а не к отказу по символу
	var deriv *models.DerivativesData
	if g.config.WithDerivatives {
		deriv, err = g.source.GetDerivatives(ctx, symbol)
		if err != nil {
			logger.Debug("Данные деривативов недоступны",
				zap.String("symbol", symbol),
				zap.Error(err))
			deriv = nil
		}
	}

	ind := g.calc.Compute(bars1h, bars4h, deriv)
	mctx := g.currentContext()

	signalType := classifier.Classify(ind)
	result := confluence.Score(ind, signalType, ticker.Change24h, mctx)
	conf := confidence.Map(result, ind, g.analysis.HighScoreLevel)

	return &models.Signal{
		ID:           strings.ToLower(symbol),
		Pair:         FormatPair(symbol),
		Exchange:     g.config.ExchangeLabel,
		Price:        ticker.Price,
		Change24h:    math.Round(ticker.Change24h*100) / 100,
		Type:         signalType,
		Confidence:   conf,
		Timeframe:    Timeframe(ind.VolumeRatio),
		Timestamp:    time.Now(),
		Summary:      Summarize(result.Reasons),
		Volume24h:    ticker.Volume24h,
		RSI:          ind.RSI,
		OpenInterest: ind.OpenInterest,
		FundingRate:  ind.FundingRate,
		Support:      ind.Support,
		Resistance:   ind.Resistance,
	}, nil
}

func (g *Generator) currentContext() *models.MarketContext {
	if g.contextSrc == nil {
		return nil
	}
	return g.contextSrc.Current()
}

// SortByConfidence сортирует сигналы по убыванию уверенности.
// Сортировка стабильная: равные значения сохраняют взаимный порядок.
func SortByConfidence(signals []models.Signal) {
	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].Confidence > signals[j].Confidence
	})
}

// Summarize собирает краткое резюме из первых двух причин.
// Причины не переупорядочиваются по весу.
func Summarize(reasons []string) string {
	if len(reasons) == 0 {
		return NoSignalSummary
	}
	if len(reasons) > 2 {
		reasons = reasons[:2]
	}
	return strings.Join(reasons, ". ") + "."
}

// Timeframe подбирает горизонт удержания: чем выше объем,
// тем быстрее ожидается реакция
func Timeframe(volumeRatio float64) string {
	if volumeRatio > 3.0 {
		return "15m (Скальп)"
	}
	if volumeRatio > 1.5 {
		return "1H (Интрадей)"
	}
	return "4H (Свинг)"
}

// FormatPair превращает символ биржи в человекочитаемую пару
func FormatPair(symbol string) string {
	base := strings.TrimSuffix(symbol, "USDT")
	if base == symbol || base == "" {
		return symbol
	}
	return base + "/USDT"
}

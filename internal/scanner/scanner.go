package scanner

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"crypto-signal-engine/internal/config"
	"crypto-signal-engine/internal/exchange"
	"crypto-signal-engine/pkg/logger"
	"crypto-signal-engine/pkg/models"

	"go.uber.org/zap"
)

// Стейбл-пары и прочий мусор, не интересный для сигналов
var stablePairs = map[string]struct{}{
	"USDCUSDT":  {},
	"FDUSDUSDT": {},
	"TUSDUSDT":  {},
	"DAIUSDT":   {},
	"BUSDUSDT":  {},
	"USDPUSDT":  {},
	"EURUSDT":   {},
}

// Маркеры маржинальных токенов в имени символа
var leveragedMarkers = []string{"UP", "DOWN", "BEAR", "BULL"}

// Scanner отбирает кандидатов для генерации сигналов по ликвидности.
// Префильтр, в скоринге не участвует.
type Scanner struct {
	config config.ScannerConfig
	client *exchange.BinanceClient
	cache  *exchange.TickerCache
}

// NewScanner создает новый сканер рынка
func NewScanner(cfg config.ScannerConfig, client *exchange.BinanceClient, cache *exchange.TickerCache) *Scanner {
	return &Scanner{
		config: cfg,
		client: client,
		cache:  cache,
	}
}

// TopSymbols возвращает топ-N символов по котируемому объему.
// Попутно прогревает кэш тикеров свежими снимками. При полном отказе
// биржи возвращает резервный список вместе с ошибкой, решение о
// состоянии "нет соединения" остается за вызывающим слоем.
func (s *Scanner) TopSymbols(ctx context.Context) ([]string, error) {
	tickers, err := s.client.GetAllTickers(ctx)
	if err != nil {
		logger.Warn("Сканер недоступен, используем резервный список", zap.Error(err))
		return s.config.Fallback, fmt.Errorf("ошибка сканирования рынка: %w", err)
	}

	s.cache.Replace(tickers)

	candidates := make([]*models.TickerSnapshot, 0, len(tickers))
	for _, t := range tickers {
		if s.eligible(t.Symbol) {
			candidates = append(candidates, t)
		}
	}

	// Стабильная сортировка по убыванию ликвидности
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].QuoteVolume > candidates[j].QuoteVolume
	})

	n := s.config.TopN
	if len(candidates) < n {
		n = len(candidates)
	}

	symbols := make([]string, n)
	for i := 0; i < n; i++ {
		symbols[i] = candidates[i].Symbol
	}

	logger.Info("Сканер отобрал кандидатов",
		zap.Int("total", len(tickers)),
		zap.Int("selected", len(symbols)))
	return symbols, nil
}

// eligible проверяет символ по котируемому активу и запретному списку
func (s *Scanner) eligible(symbol string) bool {
	if !strings.HasSuffix(symbol, s.config.QuoteAsset) {
		return false
	}
	if _, ok := stablePairs[symbol]; ok {
		return false
	}
	for _, marker := range leveragedMarkers {
		if strings.Contains(symbol, marker) {
			return false
		}
	}
	return true
}

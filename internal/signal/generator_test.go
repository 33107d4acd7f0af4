package signal

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"crypto-signal-engine/internal/config"
	"crypto-signal-engine/pkg/models"
)

// fakeSource детерминированный источник рыночных данных для тестов.
// Символы из failing возвращают ошибку на первом же запросе.
type fakeSource struct {
	failing map[string]bool
	bars    []models.PriceBar
	deriv   *models.DerivativesData
}

func (f *fakeSource) GetTicker(ctx context.Context, symbol string) (*models.TickerSnapshot, error) {
	if f.failing[symbol] {
		return nil, errors.New("эмуляция отказа биржи")
	}
	return &models.TickerSnapshot{
		Symbol:      symbol,
		Price:       100,
		Change24h:   1.0,
		Volume24h:   1000,
		QuoteVolume: 100000,
	}, nil
}

func (f *fakeSource) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]models.PriceBar, error) {
	if f.failing[symbol] {
		return nil, errors.New("эмуляция отказа биржи")
	}
	return f.bars, nil
}

func (f *fakeSource) GetDerivatives(ctx context.Context, symbol string) (*models.DerivativesData, error) {
	if f.deriv == nil {
		return nil, errors.New("деривативы недоступны")
	}
	return f.deriv, nil
}

type fakeContext struct {
	mctx *models.MarketContext
}

func (f *fakeContext) Current() *models.MarketContext { return f.mctx }

func testBars(n int, close float64) []models.PriceBar {
	bars := make([]models.PriceBar, n)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = models.PriceBar{
			OpenTime:  start.Add(time.Duration(i) * time.Hour),
			Open:      close,
			High:      close,
			Low:       close,
			Close:     close,
			Volume:    100,
			CloseTime: start.Add(time.Duration(i+1) * time.Hour),
		}
	}
	return bars
}

func testGeneratorConfig() config.GeneratorConfig {
	return config.GeneratorConfig{
		BatchSize:       5,
		RefreshSeconds:  60,
		ShortInterval:   "1h",
		LongInterval:    "4h",
		KlineLimit:      50,
		WithDerivatives: false,
		ExchangeLabel:   "Binance Spot",
	}
}

func testAnalysisConfig() config.AnalysisConfig {
	return config.AnalysisConfig{
		RSIPeriod:      14,
		MAShortPeriod:  20,
		MALongPeriod:   50,
		VolumeWindow:   20,
		HighScoreLevel: 6.5,
	}
}

func TestGeneratePartialFailures(t *testing.T) {
	source := &fakeSource{
		failing: map[string]bool{"BADUSDT": true, "WORSEUSDT": true},
		bars:    testBars(50, 100),
	}
	gen := NewGenerator(testGeneratorConfig(), testAnalysisConfig(), source, nil)

	symbols := []string{"BTCUSDT", "BADUSDT", "ETHUSDT", "WORSEUSDT", "SOLUSDT"}
	signals := gen.Generate(context.Background(), symbols)

	if len(signals) != 3 {
		t.Fatalf("получено %d сигналов, ожидалось 3", len(signals))
	}
	for _, sig := range signals {
		if source.failing[strings.ToUpper(sig.ID)] {
			t.Errorf("сигнал по отказавшему символу %s попал в результат", sig.ID)
		}
	}
}

func TestGenerateAllFail(t *testing.T) {
	source := &fakeSource{
		failing: map[string]bool{"AUSDT": true, "BUSDT": true},
		bars:    testBars(50, 100),
	}
	gen := NewGenerator(testGeneratorConfig(), testAnalysisConfig(), source, nil)

	signals := gen.Generate(context.Background(), []string{"AUSDT", "BUSDT"})
	if len(signals) != 0 {
		t.Errorf("получено %d сигналов, ожидался пустой результат", len(signals))
	}
}

func TestGenerateSignalFields(t *testing.T) {
	source := &fakeSource{bars: testBars(50, 100)}
	gen := NewGenerator(testGeneratorConfig(), testAnalysisConfig(), source, nil)

	signals := gen.Generate(context.Background(), []string{"BTCUSDT"})
	if len(signals) != 1 {
		t.Fatalf("получено %d сигналов, ожидался 1", len(signals))
	}

	sig := signals[0]
	if sig.ID != "btcusdt" {
		t.Errorf("ID = %q, ожидалось btcusdt", sig.ID)
	}
	if sig.Pair != "BTC/USDT" {
		t.Errorf("Pair = %q, ожидалось BTC/USDT", sig.Pair)
	}
	if sig.Exchange != "Binance Spot" {
		t.Errorf("Exchange = %q", sig.Exchange)
	}
	if sig.Confidence < 0 || sig.Confidence > 100 {
		t.Errorf("Confidence вне границ: %d", sig.Confidence)
	}
	if sig.Timestamp.IsZero() {
		t.Errorf("пустая метка времени")
	}
	// Плоская серия не дает направления
	if sig.Type != models.SignalNeutral {
		t.Errorf("Type = %s, ожидался нейтральный", sig.Type)
	}
	if sig.Summary != NoSignalSummary {
		t.Errorf("Summary = %q, ожидалось резюме по умолчанию", sig.Summary)
	}
}

func TestGenerateDerivativesDegrade(t *testing.T) {
	cfg := testGeneratorConfig()
	cfg.WithDerivatives = true
	source := &fakeSource{bars: testBars(50, 100)} // deriv == nil, запрос падает
	gen := NewGenerator(cfg, testAnalysisConfig(), source, nil)

	signals := gen.Generate(context.Background(), []string{"BTCUSDT"})
	if len(signals) != 1 {
		t.Fatalf("отказ деривативов уронил символ: %d сигналов", len(signals))
	}
	if signals[0].OpenInterest != "N/A" {
		t.Errorf("OpenInterest = %q, ожидалось N/A", signals[0].OpenInterest)
	}
}

func TestGenerateWithContextSource(t *testing.T) {
	source := &fakeSource{bars: testBars(50, 100)}
	mctx := &fakeContext{mctx: &models.MarketContext{
		Trend:    models.TrendUp,
		Momentum: models.MomentumStrong,
	}}
	gen := NewGenerator(testGeneratorConfig(), testAnalysisConfig(), source, mctx)

	signals := gen.Generate(context.Background(), []string{"BTCUSDT"})
	if len(signals) != 1 {
		t.Fatalf("получено %d сигналов, ожидался 1", len(signals))
	}
}

func TestSortByConfidenceStable(t *testing.T) {
	signals := []models.Signal{
		{Pair: "A", Confidence: 72},
		{Pair: "B", Confidence: 91},
		{Pair: "C", Confidence: 91},
		{Pair: "D", Confidence: 50},
	}

	SortByConfidence(signals)

	wantOrder := []string{"B", "C", "A", "D"}
	for i, want := range wantOrder {
		if signals[i].Pair != want {
			t.Errorf("позиция %d: %s, ожидалось %s", i, signals[i].Pair, want)
		}
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name    string
		reasons []string
		want    string
	}{
		{"пусто", nil, NoSignalSummary},
		{"одна причина", []string{"Покупатели доминируют"}, "Покупатели доминируют."},
		{
			"две причины",
			[]string{"Устойчивый восходящий тренд цены", "Покупатели доминируют"},
			"Устойчивый восходящий тренд цены. Покупатели доминируют.",
		},
		{
			"лишние причины отсекаются",
			[]string{"Первая", "Вторая", "Третья", "Четвертая"},
			"Первая. Вторая.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Summarize(tt.reasons); got != tt.want {
				t.Errorf("Summarize() = %q, ожидалось %q", got, tt.want)
			}
		})
	}
}

func TestTimeframe(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{5.0, "15m (Скальп)"},
		{3.0, "1H (Интрадей)"},
		{2.0, "1H (Интрадей)"},
		{1.5, "4H (Свинг)"},
		{0.5, "4H (Свинг)"},
	}
	for _, tt := range tests {
		if got := Timeframe(tt.ratio); got != tt.want {
			t.Errorf("Timeframe(%f) = %q, ожидалось %q", tt.ratio, got, tt.want)
		}
	}
}

func TestFormatPair(t *testing.T) {
	tests := []struct {
		symbol string
		want   string
	}{
		{"BTCUSDT", "BTC/USDT"},
		{"PEPEUSDT", "PEPE/USDT"},
		{"BTCBUSD", "BTCBUSD"},
		{"USDT", "USDT"},
	}
	for _, tt := range tests {
		if got := FormatPair(tt.symbol); got != tt.want {
			t.Errorf("FormatPair(%q) = %q, ожидалось %q", tt.symbol, got, tt.want)
		}
	}
}

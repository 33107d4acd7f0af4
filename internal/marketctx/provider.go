package marketctx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"crypto-signal-engine/internal/analysis/indicators"
	"crypto-signal-engine/internal/config"
	"crypto-signal-engine/internal/exchange"
	"crypto-signal-engine/pkg/logger"
	"crypto-signal-engine/pkg/models"

	"go.uber.org/zap"
)

// Provider поставляет контекст референсного актива (тренд и импульс BTC
// на старшем таймфрейме) и индекс настроений рынка. Обновляется по
// собственному расписанию; скоринг читает только готовый снимок.
type Provider struct {
	config  config.ContextConfig
	client  *exchange.BinanceClient
	httpcli *http.Client

	mu      sync.RWMutex
	current *models.MarketContext
}

// NewProvider создает новый провайдер рыночного контекста
func NewProvider(cfg config.ContextConfig, client *exchange.BinanceClient) *Provider {
	return &Provider{
		config:  cfg,
		client:  client,
		httpcli: &http.Client{Timeout: 5 * time.Second},
	}
}

// Current возвращает последний снимок контекста либо nil, если данных
// еще нет. Снимок только для чтения.
func (p *Provider) Current() *models.MarketContext {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.current == nil {
		return nil
	}
	snapshot := *p.current
	return &snapshot
}

// Run обновляет контекст по расписанию до отмены контекста
func (p *Provider) Run(ctx context.Context) {
	if err := p.Refresh(ctx); err != nil {
		logger.Warn("Первичное обновление контекста не удалось", zap.Error(err))
	}

	ticker := time.NewTicker(time.Duration(p.config.RefreshSeconds) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := p.Refresh(ctx); err != nil {
				logger.Warn("Ошибка обновления рыночного контекста", zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}

// Refresh пересчитывает контекст: тренд по EMA200 4h, импульс по EMA20
func (p *Provider) Refresh(ctx context.Context) error {
	bars, err := p.client.GetKlines(ctx, p.config.Symbol, "4h", 200)
	if err != nil {
		return fmt.Errorf("ошибка получения свечей контекста: %w", err)
	}
	if len(bars) == 0 {
		return fmt.Errorf("пустая серия свечей для %s", p.config.Symbol)
	}

	closes := indicators.Closes(bars)
	price := closes[len(closes)-1]

	mctx := &models.MarketContext{
		Price:     price,
		EMA20:     indicators.EMA(closes, 20),
		EMA50:     indicators.EMA(closes, 50),
		EMA200:    indicators.EMA(closes, 200),
		RSI:       indicators.RSI(closes, 14),
		UpdatedAt: time.Now(),
	}

	mctx.Trend = models.TrendDown
	if price > mctx.EMA200 {
		mctx.Trend = models.TrendUp
	}
	mctx.Momentum = models.MomentumWeak
	if price > mctx.EMA20 {
		mctx.Momentum = models.MomentumStrong
	}

	// Индекс страха и жадности не критичен: при отказе оставляем нули
	if value, label, err := p.fetchSentiment(ctx); err != nil {
		logger.Debug("Индекс настроений недоступен", zap.Error(err))
	} else {
		mctx.Sentiment = value
		mctx.SentimentLabel = label
	}

	p.mu.Lock()
	p.current = mctx
	p.mu.Unlock()

	logger.Debug("Обновлен рыночный контекст",
		zap.String("symbol", p.config.Symbol),
		zap.String("trend", string(mctx.Trend)),
		zap.String("momentum", string(mctx.Momentum)),
		zap.Int("sentiment", mctx.Sentiment))
	return nil
}

// fearGreedResponse ответ API индекса страха и жадности
type fearGreedResponse struct {
	Data []struct {
		Value          string `json:"value"`
		Classification string `json:"value_classification"`
	} `json:"data"`
}

func (p *Provider) fetchSentiment(ctx context.Context) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.SentimentURL, nil)
	if err != nil {
		return 0, "", err
	}

	resp, err := p.httpcli.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, "", fmt.Errorf("неожиданный статус %d", resp.StatusCode)
	}

	var payload fearGreedResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, "", err
	}
	if len(payload.Data) == 0 {
		return 0, "", fmt.Errorf("пустой ответ индекса настроений")
	}

	value, err := strconv.Atoi(payload.Data[0].Value)
	if err != nil {
		return 0, "", err
	}
	return value, payload.Data[0].Classification, nil
}

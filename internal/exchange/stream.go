package exchange

import (
	"context"
	"encoding/json"
	"time"

	"crypto-signal-engine/pkg/logger"
	"crypto-signal-engine/pkg/models"

	"github.com/gorilla/websocket"
	"github.com/jpillora/backoff"
	"go.uber.org/zap"
)

const miniTickerStreamURL = "wss://stream.binance.com:9443/ws/!miniTicker@arr"

// miniTickerEvent событие мини-тикера из потока Binance
type miniTickerEvent struct {
	Symbol      string `json:"s"`
	Close       string `json:"c"`
	Open        string `json:"o"`
	High        string `json:"h"`
	Low         string `json:"l"`
	Volume      string `json:"v"`
	QuoteVolume string `json:"q"`
}

// TickerStream подписка на поток мини-тикеров, подпитывающая кэш между
// REST-запросами. Потеря соединения не критична: генератор работает
// от REST, поток лишь снижает число исходящих запросов.
type TickerStream struct {
	cache *TickerCache
}

// NewTickerStream создает новую подписку на поток тикеров
func NewTickerStream(cache *TickerCache) *TickerStream {
	return &TickerStream{cache: cache}
}

// Run держит соединение с потоком до отмены контекста,
// переподключаясь с экспоненциальной задержкой
func (s *TickerStream) Run(ctx context.Context) {
	b := &backoff.Backoff{
		Min:    time.Second,
		Max:    time.Minute,
		Factor: 2,
		Jitter: true,
	}

	for ctx.Err() == nil {
		if err := s.consume(ctx); err != nil && ctx.Err() == nil {
			delay := b.Duration()
			logger.Warn("Поток тикеров прерван, переподключение",
				zap.Duration("delay", delay),
				zap.Error(err))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}
			continue
		}
		b.Reset()
	}
}

func (s *TickerStream) consume(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, miniTickerStreamURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	logger.Info("Подключен поток мини-тикеров")

	// Закрываем соединение при отмене контекста, чтобы разблокировать чтение
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var events []miniTickerEvent
		if err := json.Unmarshal(payload, &events); err != nil {
			logger.Debug("Нечитаемое сообщение потока", zap.Error(err))
			continue
		}

		for _, ev := range events {
			open := parseFloat(ev.Open)
			price := parseFloat(ev.Close)
			change := 0.0
			if open > 0 {
				change = (price - open) / open * 100
			}
			s.cache.Set(&models.TickerSnapshot{
				Symbol:      ev.Symbol,
				Price:       price,
				Change24h:   change,
				High24h:     parseFloat(ev.High),
				Low24h:      parseFloat(ev.Low),
				Volume24h:   parseFloat(ev.Volume),
				QuoteVolume: parseFloat(ev.QuoteVolume),
			})
		}
	}
}

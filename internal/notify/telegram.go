package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"crypto-signal-engine/internal/config"
	"crypto-signal-engine/pkg/format"
	"crypto-signal-engine/pkg/logger"
	"crypto-signal-engine/pkg/models"

	"go.uber.org/zap"
)

// TelegramNotifier отправляет алерты по сигналам с уверенностью выше
// порога. Повторная отправка по той же связке пара-направление-таймфрейм
// подавляется до перезапуска.
type TelegramNotifier struct {
	config  config.TelegramConfig
	httpcli *http.Client

	mu   sync.Mutex
	sent map[string]struct{}
}

// NewTelegramNotifier создает новый отправитель алертов
func NewTelegramNotifier(cfg config.TelegramConfig) *TelegramNotifier {
	return &TelegramNotifier{
		config:  cfg,
		httpcli: &http.Client{Timeout: 10 * time.Second},
		sent:    make(map[string]struct{}),
	}
}

// Notify проходит по сигналам и отправляет алерты по подходящим.
// Ошибки доставки только логируются: алертинг не влияет на генерацию.
func (n *TelegramNotifier) Notify(ctx context.Context, signals []models.Signal) {
	if !n.config.Enabled || n.config.BotToken == "" || n.config.ChatID == "" {
		return
	}

	for _, sig := range signals {
		if sig.Confidence < n.config.ConfidenceThreshold || sig.Type == models.SignalNeutral {
			continue
		}

		key := fmt.Sprintf("%s-%s-%s", sig.Pair, sig.Type, sig.Timeframe)
		n.mu.Lock()
		_, already := n.sent[key]
		if !already {
			n.sent[key] = struct{}{}
		}
		n.mu.Unlock()
		if already {
			continue
		}

		if err := n.send(ctx, formatAlert(sig)); err != nil {
			logger.Warn("Не удалось отправить алерт",
				zap.String("pair", sig.Pair),
				zap.Error(err))
			continue
		}
		logger.Info("Отправлен алерт",
			zap.String("pair", sig.Pair),
			zap.String("type", string(sig.Type)),
			zap.Int("confidence", sig.Confidence))
	}
}

// formatAlert собирает сообщение с уровнями входа, стопа и целей.
// Стоп фиксированный 3.5% под фьючерсы x5, цели 4/8/15%.
func formatAlert(sig models.Signal) string {
	long := sig.Type == models.SignalLong

	icon := "🔴"
	direction := "ПРОДАЖА (SHORT)"
	if long {
		icon = "🟢"
		direction = "ПОКУПКА (LONG)"
	}

	level := func(pct float64) string {
		if long {
			return format.Price(sig.Price * (1 + pct))
		}
		return format.Price(sig.Price * (1 - pct))
	}

	stopLoss := level(-0.035)
	tp1 := level(0.04)
	tp2 := level(0.08)
	tp3 := level(0.15)
	dangerZone := level(0.05)

	return fmt.Sprintf(
		"%s *СИГНАЛ (Futures x5): %s*\n"+
			"--------------------------------\n"+
			"🚀 *Направление:* %s\n"+
			"💎 *Уверенность:* %d%%\n"+
			"--------------------------------\n"+
			"🎯 *Вход:* $%s\n"+
			"⛔ *Стоп-лосс:* $%s (-3.5%%)\n"+
			"--------------------------------\n"+
			"💰 *Цель 1:* $%s (4%%)\n"+
			"💰 *Цель 2:* $%s (8%%)\n"+
			"🚀 *Цель 3:* $%s (15%%)\n"+
			"--------------------------------\n"+
			"⚠️ *Зона риска:* за $%s\n"+
			"📝 *Причина:* %s",
		icon, sig.Pair, direction, sig.Confidence,
		format.Price(sig.Price), stopLoss, tp1, tp2, tp3, dangerZone, sig.Summary)
}

// telegramMessage тело запроса sendMessage
type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

func (n *TelegramNotifier) send(ctx context.Context, text string) error {
	payload, err := json.Marshal(telegramMessage{
		ChatID:    n.config.ChatID,
		Text:      text,
		ParseMode: "Markdown",
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", n.config.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpcli.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram вернул статус %d", resp.StatusCode)
	}
	return nil
}

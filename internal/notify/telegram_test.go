package notify

import (
	"strings"
	"testing"

	"crypto-signal-engine/pkg/models"
)

func TestFormatAlertLong(t *testing.T) {
	msg := formatAlert(models.Signal{
		Pair:       "BTC/USDT",
		Type:       models.SignalLong,
		Price:      100,
		Confidence: 88,
		Summary:    "Покупатели доминируют.",
	})

	for _, want := range []string{
		"ПОКУПКА (LONG)",
		"88%",
		"100.00",   // вход
		"96.50",    // стоп 3.5%
		"104.00",   // цель 1
		"108.00",   // цель 2
		"115.00",   // цель 3
		"Покупатели доминируют.",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("в сообщении нет %q:\n%s", want, msg)
		}
	}
}

func TestFormatAlertShort(t *testing.T) {
	msg := formatAlert(models.Signal{
		Pair:       "ETH/USDT",
		Type:       models.SignalShort,
		Price:      100,
		Confidence: 90,
	})

	for _, want := range []string{
		"ПРОДАЖА (SHORT)",
		"103.50", // стоп для шорта выше входа
		"96.00",  // цель 1 ниже входа
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("в сообщении нет %q:\n%s", want, msg)
		}
	}
}

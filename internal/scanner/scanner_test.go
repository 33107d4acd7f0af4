package scanner

import (
	"testing"

	"crypto-signal-engine/internal/config"
)

func TestEligible(t *testing.T) {
	s := &Scanner{config: config.ScannerConfig{QuoteAsset: "USDT"}}

	tests := []struct {
		symbol string
		want   bool
	}{
		{"BTCUSDT", true},
		{"ETHUSDT", true},
		{"PEPEUSDT", true},
		{"BTCBUSD", false},   // чужой котируемый актив
		{"ETHBTC", false},    // чужой котируемый актив
		{"USDCUSDT", false},  // стейбл-пара
		{"FDUSDUSDT", false}, // стейбл-пара
		{"EURUSDT", false},   // фиатная пара из запретного списка
		{"BTCUPUSDT", false}, // маржинальный токен
		{"ETHDOWNUSDT", false},
		{"EOSBEARUSDT", false},
		{"BNBBULLUSDT", false},
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			if got := s.eligible(tt.symbol); got != tt.want {
				t.Errorf("eligible(%q) = %v, ожидалось %v", tt.symbol, got, tt.want)
			}
		})
	}
}

// Маркеры ловят и честные тикеры с совпадающей подстрокой
func TestEligibleMarkerOverreach(t *testing.T) {
	s := &Scanner{config: config.ScannerConfig{QuoteAsset: "USDT"}}
	if s.eligible("JUPUSDT") {
		t.Errorf("символ с подстрокой UP прошел фильтр")
	}
}

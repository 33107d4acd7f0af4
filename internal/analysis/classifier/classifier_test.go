package classifier

import (
	"testing"

	"crypto-signal-engine/pkg/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		ind      models.IndicatorSet
		expected models.SignalType
	}{
		{
			name: "трендовый лонг",
			ind: models.IndicatorSet{
				RSI: 55, CurrentPrice: 105, MA20: 100, VolumeRatio: 1.0,
			},
			expected: models.SignalLong,
		},
		{
			name: "отскок от перепроданности",
			ind: models.IndicatorSet{
				RSI: 25, CurrentPrice: 90, MA20: 100, VolumeRatio: 2.0,
			},
			expected: models.SignalLong,
		},
		{
			name: "перепроданность без объема",
			ind: models.IndicatorSet{
				RSI: 25, CurrentPrice: 90, MA20: 100, VolumeRatio: 1.0,
			},
			expected: models.SignalNeutral,
		},
		{
			name: "трендовый шорт",
			ind: models.IndicatorSet{
				RSI: 45, CurrentPrice: 95, MA20: 100, VolumeRatio: 1.0,
			},
			expected: models.SignalShort,
		},
		{
			name: "разворот от перекупленности",
			ind: models.IndicatorSet{
				RSI: 75, CurrentPrice: 110, MA20: 100, VolumeRatio: 2.0,
			},
			expected: models.SignalShort,
		},
		{
			name: "перекупленность без объема",
			ind: models.IndicatorSet{
				RSI: 75, CurrentPrice: 110, MA20: 100, VolumeRatio: 1.0,
			},
			expected: models.SignalNeutral,
		},
		{
			name: "RSI на нейтральной границе",
			ind: models.IndicatorSet{
				RSI: 40, CurrentPrice: 105, MA20: 100, VolumeRatio: 1.0,
			},
			expected: models.SignalNeutral,
		},
		{
			name: "цена ровно на MA20",
			ind: models.IndicatorSet{
				RSI: 55, CurrentPrice: 100, MA20: 100, VolumeRatio: 1.0,
			},
			expected: models.SignalNeutral,
		},
		{
			name: "нейтральный набор индикаторов",
			ind: models.IndicatorSet{
				RSI: 50, CurrentPrice: 0, MA20: 0, VolumeRatio: 1.0,
			},
			expected: models.SignalNeutral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.ind); got != tt.expected {
				t.Errorf("Classify() = %s, ожидалось %s", got, tt.expected)
			}
		})
	}
}

// Условия LONG и SHORT пересекаются по RSI в зоне 40..60: при цене выше
// MA20 побеждает LONG, при цене ниже побеждает SHORT, оба сразу сработать не могут.
func TestClassifyDirectionsExclusive(t *testing.T) {
	for rsi := 1.0; rsi < 100; rsi += 1 {
		for _, ratio := range []float64{1.0, 2.0} {
			above := Classify(models.IndicatorSet{
				RSI: rsi, CurrentPrice: 110, MA20: 100, VolumeRatio: ratio,
			})
			below := Classify(models.IndicatorSet{
				RSI: rsi, CurrentPrice: 90, MA20: 100, VolumeRatio: ratio,
			})
			if above == models.SignalShort && rsi > 40 && rsi < 65 {
				t.Errorf("цена выше MA20, RSI=%f: неожиданный SHORT", rsi)
			}
			if below == models.SignalLong && rsi > 35 && rsi < 60 && rsi >= 30 {
				t.Errorf("цена ниже MA20, RSI=%f: неожиданный LONG", rsi)
			}
		}
	}
}

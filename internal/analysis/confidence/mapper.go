package confidence

import (
	"math"

	"crypto-signal-engine/pkg/models"
)

// Пороговые значения ступенчатого отображения оценки в проценты
const (
	base          = 50.0
	pointsPerUnit = 5.0
	normalCap     = 85.0
	extendedCap   = 92.0
)

// Map отображает конфлюэнс-оценку в ограниченный целый процент уверенности.
// Ступенчатая схема: база 50, по 5 пунктов за единицу оценки, потолок 85%,
// до 92% только при оценке выше highScoreLevel. Джиттер детерминирован:
// выводится из значения RSI, одинаковые входы дают одинаковый результат.
func Map(result models.ConfluenceResult, ind models.IndicatorSet, highScoreLevel float64) int {
	conf := base + result.Score*pointsPerUnit

	maxCap := normalCap
	if result.Score > highScoreLevel {
		maxCap = extendedCap
	}

	// Косметический сдвиг, чтобы равные оценки не давали байт-в-байт
	// одинаковые проценты
	jitter := math.Mod(ind.RSI*10, 3)

	conf = math.Round(conf + jitter)
	if conf > maxCap {
		conf = maxCap
	}
	if conf < 0 {
		conf = 0
	}
	if conf > 100 {
		conf = 100
	}

	return int(conf)
}

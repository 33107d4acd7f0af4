package confluence

import (
	"fmt"
	"math"

	"crypto-signal-engine/pkg/models"
)

// Score вычисляет конфлюэнс-оценку сигнала: правила применяются независимо
// и аддитивно, каждое срабатывает не более одного раза за цикл. Порядок
// причин равен порядку вычисления правил и не переупорядочивается.
func Score(ind models.IndicatorSet, signalType models.SignalType, change24h float64, mctx *models.MarketContext) models.ConfluenceResult {
	var score float64
	var reasons []string

	fRate := parseRate(ind.FundingRate)

	// 1. Согласованность тренда: цена против MA50 и MA20 против MA50
	switch signalType {
	case models.SignalLong:
		if ind.CurrentPrice > ind.MA50 {
			score += 1.5
			reasons = append(reasons, "Устойчивый восходящий тренд цены")
		}
		if ind.MA20 > ind.MA50 {
			score += 1.0
			reasons = append(reasons, "Покупатели доминируют")
		}
	case models.SignalShort:
		if ind.CurrentPrice < ind.MA50 {
			score += 1.5
			reasons = append(reasons, "Нисходящий тренд цены")
		}
		if ind.MA20 < ind.MA50 {
			score += 1.0
			reasons = append(reasons, "Сильное давление продавцов")
		}
	}

	// 2. Импульс по RSI: здоровая зона дает базовый вклад с детерминированной
	// добавкой от самого значения RSI, экстремальные зоны дают фиксированный бонус
	switch signalType {
	case models.SignalLong:
		if ind.RSI > 40 && ind.RSI < 65 {
			score += 1.0 + math.Mod(ind.RSI, 10)/20
			reasons = append(reasons, "Хороший импульс движения")
		} else if ind.RSI < 30 {
			score += 1.5
			reasons = append(reasons, "Зона перепроданности (отскок от дна)")
		}
	case models.SignalShort:
		if ind.RSI > 35 && ind.RSI < 60 {
			score += 1.0 + math.Mod(ind.RSI, 10)/20
			reasons = append(reasons, "Импульс на снижение")
		} else if ind.RSI > 70 {
			score += 1.5
			reasons = append(reasons, "Зона перекупленности (близка коррекция)")
		}
	}

	// 3. Подтверждение открытым интересом: рост OI дает бонус, падение не штрафуется
	if ind.OITrend == models.TrendUp {
		score += 1.0
		reasons = append(reasons, "Приток открытого интереса (OI)")
	}

	// 4. Перекос фандинга: против толпы бонус, переполненная сделка штрафуется
	if math.Abs(fRate) > 0.05 {
		if (signalType == models.SignalLong && fRate < 0) ||
			(signalType == models.SignalShort && fRate > 0) {
			score += 0.5
			reasons = append(reasons, "Фандинг в пользу сделки")
		} else {
			score -= 0.5
		}
	}

	// 5. Подтверждение объемом, вклад ограничен сверху
	if ind.VolumeRatio > 1.2 {
		score += 1.0 + math.Min(ind.VolumeRatio/5, 0.5)
		reasons = append(reasons, "Сильный приток объема")
	}

	// 6. Крупное суточное движение: только величина, без текста причины
	if math.Abs(change24h) > 2.0 {
		score += 0.5
	}

	// 7. Мягкий бонус за согласие с контекстом референсного актива.
	// Контекст никогда не блокирует сигнал.
	if mctx != nil && mctx.Momentum == models.MomentumStrong {
		if (signalType == models.SignalLong && mctx.Trend == models.TrendUp) ||
			(signalType == models.SignalShort && mctx.Trend == models.TrendDown) {
			score += 0.5
		}
	}

	return models.ConfluenceResult{Score: score, Reasons: reasons}
}

// parseRate парсит строковое представление ставки фандинга ("0.0123%")
func parseRate(rateStr string) float64 {
	var rate float64
	if _, err := fmt.Sscanf(rateStr, "%f", &rate); err != nil {
		return 0
	}
	return rate
}

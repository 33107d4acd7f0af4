package classifier

import (
	"crypto-signal-engine/pkg/models"
)

// Classify определяет направление сигнала по порогам индикаторов.
// Порядок проверки фиксирован: сначала LONG, затем SHORT, иначе NEUTRAL.
// Диапазоны RSI подобраны так, что условия LONG и SHORT не пересекаются.
func Classify(ind models.IndicatorSet) models.SignalType {
	rsi := ind.RSI
	price := ind.CurrentPrice
	ma20 := ind.MA20
	volumeRatio := ind.VolumeRatio

	// Трендовое продолжение либо отскок от перепроданности
	isBullish := (rsi > 40 && rsi < 65 && price > ma20) ||
		(rsi < 30 && volumeRatio > 1.5)

	// Трендовое продолжение вниз либо разворот от перекупленности
	isBearish := (rsi > 35 && rsi < 60 && price < ma20) ||
		(rsi > 70 && volumeRatio > 1.5)

	if isBullish {
		return models.SignalLong
	}
	if isBearish {
		return models.SignalShort
	}
	return models.SignalNeutral
}

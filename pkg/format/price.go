package format

import (
	"github.com/shopspring/decimal"
)

// Price форматирует цену с точностью, зависящей от порядка величины:
// микрокапы вроде PEPE требуют восьми знаков, BTC хватает двух
func Price(price float64) string {
	if price == 0 {
		return "0.00"
	}

	d := decimal.NewFromFloat(price)
	switch {
	case price < 0.0001:
		return d.StringFixed(8)
	case price < 0.01:
		return d.StringFixed(6)
	case price < 1:
		return d.StringFixed(4)
	case price < 10:
		return d.StringFixed(3)
	default:
		return d.StringFixed(2)
	}
}

// Percent форматирует процентное значение с двумя знаками
func Percent(value float64) string {
	return decimal.NewFromFloat(value).StringFixed(2) + "%"
}

package indicators

import (
	"fmt"
	"math"
	"strconv"

	"crypto-signal-engine/internal/config"
	"crypto-signal-engine/pkg/models"

	"github.com/markcheno/go-talib"
)

// OIUnavailable маркер отсутствующих данных открытого интереса
const OIUnavailable = "N/A"

// Calculator реализует расчет технических индикаторов.
// Чистые функции без I/O: данные приходят уже разрешенными.
type Calculator struct {
	config config.AnalysisConfig
}

// NewCalculator создает новый калькулятор индикаторов
func NewCalculator(cfg config.AnalysisConfig) *Calculator {
	return &Calculator{
		config: cfg,
	}
}

// Compute собирает полный набор индикаторов из свечей двух таймфреймов
// и опциональных данных деривативов. При нехватке данных деградирует
// к нейтральным значениям вместо ошибки.
func (c *Calculator) Compute(bars1h, bars4h []models.PriceBar, deriv *models.DerivativesData) models.IndicatorSet {
	if len(bars1h) == 0 {
		return NeutralSet()
	}

	closes1h := Closes(bars1h)
	closes4h := Closes(bars4h)

	set := models.IndicatorSet{
		RSI:          math.Round(RSI(closes1h, c.config.RSIPeriod)),
		MA20:         MA(closes1h, c.config.MAShortPeriod),
		CurrentPrice: closes1h[len(closes1h)-1],
		OpenInterest: OIUnavailable,
		OITrend:      models.TrendNeutral,
		FundingRate:  "0.0000%",
	}

	if len(closes4h) > 0 {
		set.MA50 = MA(closes4h, c.config.MALongPeriod)
	}

	ratio := VolumeRatio(bars1h, c.config.VolumeWindow)
	set.VolumeRatio = math.Round(ratio*100) / 100

	// Фиксированные процентные уровни, не структурные
	set.Support = set.CurrentPrice * 0.96
	set.Resistance = set.CurrentPrice * 1.05

	if deriv != nil && deriv.Available {
		set.OpenInterest = strconv.FormatFloat(deriv.OpenInterest, 'f', 0, 64)
		set.OITrend = ClassifyOITrend(deriv.PrevOpenInterest, deriv.OpenInterest)
		set.FundingRate = fmt.Sprintf("%.4f%%", deriv.FundingRate*100)
	}

	return set
}

// NeutralSet возвращает документированный нейтральный набор.
// Используется, когда данные по символу получить не удалось.
func NeutralSet() models.IndicatorSet {
	return models.IndicatorSet{
		RSI:          50,
		MA20:         0,
		MA50:         0,
		CurrentPrice: 0,
		VolumeRatio:  1,
		OpenInterest: OIUnavailable,
		OITrend:      models.TrendNeutral,
		FundingRate:  "0.0000%",
		Support:      0,
		Resistance:   0,
	}
}

// RSI рассчитывает индекс относительной силы простым скользящим средним
// за окно period (без сглаживания Уайлдера). Если серия короче period+1,
// возвращает нейтральные 50.
func RSI(closes []float64, period int) float64 {
	if len(closes) < period+1 {
		return 50
	}

	var gains, losses float64
	for i := len(closes) - period; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains += change
		} else {
			losses += math.Abs(change)
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		return 100
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// MA рассчитывает простое скользящее среднее последних period закрытий.
// Если данных меньше периода, возвращает последнее закрытие.
func MA(closes []float64, period int) float64 {
	if len(closes) == 0 {
		return 0
	}
	if len(closes) < period {
		return closes[len(closes)-1]
	}

	var sum float64
	for _, price := range closes[len(closes)-period:] {
		sum += price
	}
	return sum / float64(period)
}

// EMA рассчитывает экспоненциальное скользящее среднее: сид простым средним
// первых period значений, далее рекурсия с весом k=2/(period+1)
func EMA(closes []float64, period int) float64 {
	if len(closes) == 0 {
		return 0
	}
	if len(closes) < period {
		return closes[len(closes)-1]
	}

	ema := talib.Ema(closes, period)
	return ema[len(ema)-1]
}

// VolumeRatio отношение объема последней свечи к среднему объему окна.
// Окно включает текущую свечу.
func VolumeRatio(bars []models.PriceBar, window int) float64 {
	if len(bars) == 0 || window <= 0 {
		return 1
	}

	n := window
	if len(bars) < n {
		n = len(bars)
	}

	var sum float64
	for _, bar := range bars[len(bars)-n:] {
		sum += bar.Volume
	}
	avg := sum / float64(n)
	if avg == 0 {
		return 1
	}

	return bars[len(bars)-1].Volume / avg
}

// ClassifyOITrend классифицирует тренд открытого интереса по двум последним
// часовым снимкам: рост более 1% дает UP, падение более 1% дает DOWN, иначе NEUTRAL
func ClassifyOITrend(prev, current float64) models.Trend {
	if prev <= 0 {
		return models.TrendNeutral
	}
	if current > prev*1.01 {
		return models.TrendUp
	}
	if current < prev*0.99 {
		return models.TrendDown
	}
	return models.TrendNeutral
}

// Closes извлекает цены закрытия из серии свечей
func Closes(bars []models.PriceBar) []float64 {
	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}
	return closes
}

package models

import (
	"time"
)

// SignalType направление торгового сигнала
type SignalType string

const (
	SignalLong    SignalType = "LONG"
	SignalShort   SignalType = "SHORT"
	SignalNeutral SignalType = "NEUTRAL"
)

// Trend направление тренда (открытый интерес, референсный актив)
type Trend string

const (
	TrendUp      Trend = "UP"
	TrendDown    Trend = "DOWN"
	TrendNeutral Trend = "NEUTRAL"
)

// Momentum сила импульса референсного актива
type Momentum string

const (
	MomentumStrong Momentum = "STRONG"
	MomentumWeak   Momentum = "WEAK"
)

// PriceBar представляет свечу; серии упорядочены от старых к новым
type PriceBar struct {
	OpenTime    time.Time
	Open        float64
	High        float64
	Low         float64
	Close       float64
	Volume      float64
	CloseTime   time.Time
	QuoteVolume float64
	TradeCount  int64
}

// TickerSnapshot 24-часовая сводка по символу
type TickerSnapshot struct {
	Symbol      string
	Price       float64
	Change24h   float64
	High24h     float64
	Low24h      float64
	Volume24h   float64
	QuoteVolume float64
	TradeCount  int64
}

// DerivativesData данные деривативов: открытый интерес и фандинг
type DerivativesData struct {
	OpenInterest     float64
	PrevOpenInterest float64
	FundingRate      float64
	Available        bool
}

// IndicatorSet набор индикаторов по символу, пересчитывается целиком каждый цикл
type IndicatorSet struct {
	RSI          float64
	MA20         float64
	MA50         float64
	CurrentPrice float64
	VolumeRatio  float64
	OpenInterest string // "N/A", если данные деривативов недоступны
	OITrend      Trend
	FundingRate  string // в процентах, например "0.0123%"
	Support      float64
	Resistance   float64
}

// MarketContext контекст референсного актива (BTC) плюс индекс настроений
type MarketContext struct {
	Price          float64
	EMA20          float64
	EMA50          float64
	EMA200         float64
	RSI            float64
	Trend          Trend
	Momentum       Momentum
	Sentiment      int
	SentimentLabel string
	UpdatedAt      time.Time
}

// ConfluenceResult итог скоринга: величина и причины в порядке вычисления
type ConfluenceResult struct {
	Score   float64
	Reasons []string
}

// Signal итоговый сигнал по торговой паре
type Signal struct {
	ID           string     `json:"id"`
	Pair         string     `json:"pair"`
	Exchange     string     `json:"exchange"`
	Price        float64    `json:"price"`
	Change24h    float64    `json:"change24h"`
	Type         SignalType `json:"type"`
	Confidence   int        `json:"confidence"`
	Timeframe    string     `json:"timeframe"`
	Timestamp    time.Time  `json:"timestamp"`
	Summary      string     `json:"summary"`
	Volume24h    float64    `json:"volume24h"`
	RSI          float64    `json:"rsi"`
	OpenInterest string     `json:"openInterest"`
	FundingRate  string     `json:"fundingRate"`
	Support      float64    `json:"support"`
	Resistance   float64    `json:"resistance"`
}

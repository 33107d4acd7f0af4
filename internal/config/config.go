package config

import (
	"os"

	"crypto-signal-engine/pkg/logger"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// Config представляет полную конфигурацию приложения
type Config struct {
	Binance   BinanceConfig   `yaml:"binance"`
	Scanner   ScannerConfig   `yaml:"scanner"`
	Generator GeneratorConfig `yaml:"generator"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Context   ContextConfig   `yaml:"context"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Storage   StorageConfig   `yaml:"storage"`
}

// BinanceConfig содержит настройки подключения к Binance
type BinanceConfig struct {
	APIKey         string `yaml:"api_key"`
	APISecret      string `yaml:"api_secret"`
	RequestTimeout int    `yaml:"request_timeout_sec"`
	RetryAttempts  int    `yaml:"retry_attempts"`
	TickerCacheTTL int    `yaml:"ticker_cache_ttl_sec"`
	UseStream      bool   `yaml:"use_stream"`
}

// ScannerConfig настройки сканера ликвидности
type ScannerConfig struct {
	QuoteAsset string   `yaml:"quote_asset"`
	TopN       int      `yaml:"top_n"`
	Fallback   []string `yaml:"fallback_symbols"`
}

// GeneratorConfig настройки пакетного генератора сигналов
type GeneratorConfig struct {
	BatchSize       int    `yaml:"batch_size"`
	RefreshSeconds  int    `yaml:"refresh_seconds"`
	ShortInterval   string `yaml:"short_interval"`
	LongInterval    string `yaml:"long_interval"`
	KlineLimit      int    `yaml:"kline_limit"`
	WithDerivatives bool   `yaml:"with_derivatives"`
	ExchangeLabel   string `yaml:"exchange_label"`
}

// AnalysisConfig настройки расчета индикаторов и скоринга
type AnalysisConfig struct {
	RSIPeriod      int     `yaml:"rsi_period"`
	MAShortPeriod  int     `yaml:"ma_short_period"`
	MALongPeriod   int     `yaml:"ma_long_period"`
	VolumeWindow   int     `yaml:"volume_window"`
	HighScoreLevel float64 `yaml:"high_score_level"`
}

// ContextConfig настройки провайдера рыночного контекста
type ContextConfig struct {
	Symbol         string `yaml:"symbol"`
	RefreshSeconds int    `yaml:"refresh_seconds"`
	SentimentURL   string `yaml:"sentiment_url"`
}

// TelegramConfig настройки доставки алертов
type TelegramConfig struct {
	Enabled             bool   `yaml:"enabled"`
	BotToken            string `yaml:"bot_token"`
	ChatID              string `yaml:"chat_id"`
	ConfidenceThreshold int    `yaml:"confidence_threshold"`
}

// StorageConfig настройки хранения истории сигналов
type StorageConfig struct {
	Enabled      bool   `yaml:"enabled"`
	URL          string `yaml:"url"`
	Token        string `yaml:"token"`
	Organization string `yaml:"organization"`
	Bucket       string `yaml:"bucket"`
}

// Load загружает конфигурацию из файла с переопределением секретов из окружения
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Fatal("Ошибка чтения файла конфигурации", zap.Error(err))
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		logger.Fatal("Ошибка разбора файла конфигурации", zap.Error(err))
	}

	// Секреты из окружения имеют приоритет над файлом
	if v := os.Getenv("BINANCE_API_KEY"); v != "" {
		config.Binance.APIKey = v
	}
	if v := os.Getenv("BINANCE_API_SECRET"); v != "" {
		config.Binance.APISecret = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		config.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		config.Telegram.ChatID = v
	}
	if v := os.Getenv("INFLUXDB_TOKEN"); v != "" {
		config.Storage.Token = v
	}

	config.applyDefaults()

	logger.Info("Загружена конфигурация",
		zap.String("path", path),
		zap.Int("top_n", config.Scanner.TopN),
		zap.Int("batch_size", config.Generator.BatchSize))
	return &config, nil
}

// applyDefaults подставляет значения по умолчанию для незаполненных полей
func (c *Config) applyDefaults() {
	if c.Binance.RequestTimeout <= 0 {
		c.Binance.RequestTimeout = 5
	}
	if c.Binance.RetryAttempts <= 0 {
		c.Binance.RetryAttempts = 3
	}
	if c.Binance.TickerCacheTTL <= 0 {
		c.Binance.TickerCacheTTL = 10
	}
	if c.Scanner.QuoteAsset == "" {
		c.Scanner.QuoteAsset = "USDT"
	}
	if c.Scanner.TopN <= 0 {
		c.Scanner.TopN = 50
	}
	if len(c.Scanner.Fallback) == 0 {
		c.Scanner.Fallback = []string{
			"BTCUSDT", "ETHUSDT", "SOLUSDT", "BNBUSDT", "XRPUSDT",
			"DOGEUSDT", "ADAUSDT", "SHIBUSDT", "PEPEUSDT", "LINKUSDT",
		}
	}
	if c.Generator.BatchSize <= 0 {
		c.Generator.BatchSize = 5
	}
	if c.Generator.RefreshSeconds <= 0 {
		c.Generator.RefreshSeconds = 60
	}
	if c.Generator.ShortInterval == "" {
		c.Generator.ShortInterval = "1h"
	}
	if c.Generator.LongInterval == "" {
		c.Generator.LongInterval = "4h"
	}
	if c.Generator.KlineLimit <= 0 {
		c.Generator.KlineLimit = 50
	}
	if c.Generator.ExchangeLabel == "" {
		c.Generator.ExchangeLabel = "Binance Spot"
	}
	if c.Analysis.RSIPeriod <= 0 {
		c.Analysis.RSIPeriod = 14
	}
	if c.Analysis.MAShortPeriod <= 0 {
		c.Analysis.MAShortPeriod = 20
	}
	if c.Analysis.MALongPeriod <= 0 {
		c.Analysis.MALongPeriod = 50
	}
	if c.Analysis.VolumeWindow <= 0 {
		c.Analysis.VolumeWindow = 20
	}
	if c.Analysis.HighScoreLevel <= 0 {
		c.Analysis.HighScoreLevel = 6.5
	}
	if c.Context.Symbol == "" {
		c.Context.Symbol = "BTCUSDT"
	}
	if c.Context.RefreshSeconds <= 0 {
		c.Context.RefreshSeconds = 300
	}
	if c.Context.SentimentURL == "" {
		c.Context.SentimentURL = "https://api.alternative.me/fng/"
	}
	if c.Telegram.ConfidenceThreshold <= 0 {
		c.Telegram.ConfidenceThreshold = 85
	}
}

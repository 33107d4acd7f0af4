package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"crypto-signal-engine/internal/config"
	"crypto-signal-engine/internal/exchange"
	"crypto-signal-engine/internal/marketctx"
	"crypto-signal-engine/internal/notify"
	"crypto-signal-engine/internal/scanner"
	sig "crypto-signal-engine/internal/signal"
	"crypto-signal-engine/internal/storage"
	"crypto-signal-engine/pkg/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	logger.Init()
	defer logger.GetLogger().Sync()

	// Переменные окружения из .env, если он есть
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "путь к файлу конфигурации")
	flag.Parse()

	if _, err := os.Stat(*configPath); os.IsNotExist(err) {
		logger.Fatal("Файл конфигурации не найден", zap.String("path", *configPath))
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("Ошибка загрузки конфигурации", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Обработка сигналов завершения
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nЗавершение работы...")
		cancel()
		time.Sleep(3 * time.Second) // Даем горутинам время на завершение
		os.Exit(0)
	}()

	cache := exchange.NewTickerCache(time.Duration(cfg.Binance.TickerCacheTTL) * time.Second)
	client := exchange.NewBinanceClient(cfg.Binance, cache)

	if cfg.Binance.UseStream {
		stream := exchange.NewTickerStream(cache)
		go stream.Run(ctx)
	}

	contextProvider := marketctx.NewProvider(cfg.Context, client)
	go contextProvider.Run(ctx)

	scan := scanner.NewScanner(cfg.Scanner, client, cache)
	generator := sig.NewGenerator(cfg.Generator, cfg.Analysis, client, contextProvider)
	notifier := notify.NewTelegramNotifier(cfg.Telegram)

	var store storage.SignalStore
	if cfg.Storage.Enabled {
		influx, err := storage.NewInfluxDBStore(cfg.Storage)
		if err != nil {
			logger.Fatal("Ошибка инициализации хранилища", zap.Error(err))
		}
		defer influx.Close()
		store = influx
	}

	// Нумерация циклов: устаревший цикл никогда не перекрывает более свежий
	var cycleSeq, lastApplied atomic.Uint64

	runCycle := func() {
		cycle := cycleSeq.Add(1)
		go func() {
			symbols, scanErr := scan.TopSymbols(ctx)
			if len(symbols) == 0 {
				logger.Error("Нет кандидатов для генерации", zap.Error(scanErr))
				return
			}

			signals := generator.Generate(ctx, symbols)

			// Принимаем результат, только если не успел прийти более новый
			for {
				current := lastApplied.Load()
				if cycle <= current {
					logger.Debug("Результат устаревшего цикла отброшен",
						zap.Uint64("cycle", cycle),
						zap.Uint64("applied", current))
					return
				}
				if lastApplied.CompareAndSwap(current, cycle) {
					break
				}
			}

			if len(signals) == 0 {
				logger.Warn("Цикл не дал ни одного сигнала")
				return
			}

			sig.SortByConfidence(signals)

			for i, s := range signals {
				if i >= 10 {
					break
				}
				logger.Info("Сигнал",
					zap.String("pair", s.Pair),
					zap.String("type", string(s.Type)),
					zap.Int("confidence", s.Confidence),
					zap.String("timeframe", s.Timeframe),
					zap.String("summary", s.Summary))
			}

			notifier.Notify(ctx, signals)

			if store != nil {
				if err := store.SaveSignals(ctx, signals); err != nil {
					logger.Warn("Не удалось сохранить историю сигналов", zap.Error(err))
				}
			}
		}()
	}

	runCycle()

	ticker := time.NewTicker(time.Duration(cfg.Generator.RefreshSeconds) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			runCycle()
		case <-ctx.Done():
			return
		}
	}
}

package storage

import (
	"context"
	"fmt"

	"crypto-signal-engine/internal/config"
	"crypto-signal-engine/pkg/models"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// SignalStore интерфейс хранилища истории сигналов
type SignalStore interface {
	SaveSignals(ctx context.Context, signals []models.Signal) error
	GetSignalHistory(ctx context.Context, symbol string, limit int) ([]models.Signal, error)
	Close()
}

// InfluxDBStore хранит историю сигналов в InfluxDB.
// Ядро от хранилища не зависит: сигналы живут в памяти один цикл,
// запись истории идет в опциональный побочный сток.
type InfluxDBStore struct {
	client   influxdb2.Client
	queryAPI api.QueryAPI
	writeAPI api.WriteAPI
	bucket   string
}

// NewInfluxDBStore создает новое хранилище истории сигналов
func NewInfluxDBStore(cfg config.StorageConfig) (*InfluxDBStore, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	health, err := client.Health(context.Background())
	if err != nil {
		return nil, fmt.Errorf("ошибка соединения с InfluxDB: %w", err)
	}
	if health == nil || health.Status != "pass" {
		return nil, fmt.Errorf("InfluxDB не в состоянии 'pass': %+v", health)
	}

	return &InfluxDBStore{
		client:   client,
		queryAPI: client.QueryAPI(cfg.Organization),
		writeAPI: client.WriteAPI(cfg.Organization, cfg.Bucket),
		bucket:   cfg.Bucket,
	}, nil
}

// Close закрывает соединение с базой данных
func (s *InfluxDBStore) Close() {
	s.writeAPI.Flush()
	s.client.Close()
}

// SaveSignals сохраняет сигналы цикла в базу данных
func (s *InfluxDBStore) SaveSignals(ctx context.Context, signals []models.Signal) error {
	for i := range signals {
		sig := &signals[i]
		point := influxdb2.NewPoint(
			"signals",
			map[string]string{
				"symbol": sig.ID,
				"type":   string(sig.Type),
			},
			map[string]interface{}{
				"pair":       sig.Pair,
				"price":      sig.Price,
				"change24h":  sig.Change24h,
				"confidence": sig.Confidence,
				"rsi":        sig.RSI,
				"timeframe":  sig.Timeframe,
				"summary":    sig.Summary,
			},
			sig.Timestamp,
		)
		s.writeAPI.WritePoint(point)
	}

	s.writeAPI.Flush()
	return nil
}

// GetSignalHistory возвращает последние сигналы по символу
func (s *InfluxDBStore) GetSignalHistory(ctx context.Context, symbol string, limit int) ([]models.Signal, error) {
	query := fmt.Sprintf(`
		from(bucket: "%s")
			|> range(start: -7d)
			|> filter(fn: (r) => r._measurement == "signals")
			|> filter(fn: (r) => r.symbol == "%s")
			|> pivot(rowKey:["_time"], columnKey: ["_field"], valueColumn: "_value")
			|> sort(columns: ["_time"], desc: true)
			|> limit(n: %d)
	`, s.bucket, symbol, limit)

	result, err := s.queryAPI.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса истории сигналов: %w", err)
	}
	defer result.Close()

	var signals []models.Signal
	for result.Next() {
		record := result.Record()
		sig := models.Signal{
			ID:        symbol,
			Timestamp: record.Time(),
		}
		if v, ok := record.ValueByKey("type").(string); ok {
			sig.Type = models.SignalType(v)
		}
		if v, ok := record.ValueByKey("pair").(string); ok {
			sig.Pair = v
		}
		if v, ok := record.ValueByKey("price").(float64); ok {
			sig.Price = v
		}
		if v, ok := record.ValueByKey("change24h").(float64); ok {
			sig.Change24h = v
		}
		if v, ok := record.ValueByKey("confidence").(int64); ok {
			sig.Confidence = int(v)
		}
		if v, ok := record.ValueByKey("rsi").(float64); ok {
			sig.RSI = v
		}
		if v, ok := record.ValueByKey("timeframe").(string); ok {
			sig.Timeframe = v
		}
		if v, ok := record.ValueByKey("summary").(string); ok {
			sig.Summary = v
		}
		signals = append(signals, sig)
	}
	if result.Err() != nil {
		return nil, fmt.Errorf("ошибка чтения результата: %w", result.Err())
	}

	return signals, nil
}

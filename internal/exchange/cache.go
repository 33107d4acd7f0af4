package exchange

import (
	"sync"
	"time"

	"crypto-signal-engine/pkg/models"
)

// TickerCache кэш тикеров с TTL. Снимает лишние запросы внутри одного
// цикла сканирования. Запись идемпотентна: значения в пределах TTL
// практически эквивалентны, побеждает последняя запись.
type TickerCache struct {
	mu      sync.RWMutex
	entries map[string]*models.TickerSnapshot
	updated time.Time
	ttl     time.Duration
}

// NewTickerCache создает новый кэш тикеров
func NewTickerCache(ttl time.Duration) *TickerCache {
	return &TickerCache{
		entries: make(map[string]*models.TickerSnapshot),
		ttl:     ttl,
	}
}

// Get возвращает снимок тикера, если он есть и не просрочен
func (c *TickerCache) Get(symbol string) (*models.TickerSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snapshot, ok := c.entries[symbol]
	if !ok || time.Since(c.updated) > c.ttl {
		return nil, false
	}
	return snapshot, true
}

// Set сохраняет один снимок тикера
func (c *TickerCache) Set(snapshot *models.TickerSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[snapshot.Symbol] = snapshot
	c.updated = time.Now()
}

// Replace целиком заменяет содержимое кэша свежими снимками
func (c *TickerCache) Replace(snapshots []*models.TickerSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*models.TickerSnapshot, len(snapshots))
	for _, s := range snapshots {
		c.entries[s.Symbol] = s
	}
	c.updated = time.Now()
}

// Len возвращает количество записей в кэше
func (c *TickerCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

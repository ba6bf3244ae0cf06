// Package dedup holds the bounded fingerprint set shared by both capture
// pipelines.
package dedup

import (
	"sync"

	"mirror/internal/config"
	"mirror/internal/constants"
	"mirror/internal/message"
	"mirror/pkg/metrics"
)

// Cache remembers fingerprints of forwarded records. When full it is
// emptied in one step, so a record seen just before an overflow may be
// forwarded again afterwards.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]struct{}
	maxEntries int
	hasher     *Hasher
}

func NewCache(cfg config.DeduplicationConfig) *Cache {
	maxEntries := cfg.MaxEntries
	if maxEntries <= 0 {
		maxEntries = constants.DefaultDedupMaxEntries
	}
	return &Cache{
		entries:    make(map[string]struct{}, maxEntries),
		maxEntries: maxEntries,
		hasher:     NewHasher(cfg.HashAlgorithm),
	}
}

// ShouldForward reports whether the record is new, inserting it when it is.
func (c *Cache) ShouldForward(record message.Record) bool {
	key := c.hasher.Key(record.Fingerprint())

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		metrics.DeduplicateMessagesTotal.WithLabelValues("duplicate").Inc()
		return false
	}

	if len(c.entries) >= c.maxEntries {
		c.entries = make(map[string]struct{}, c.maxEntries)
		metrics.DedupCacheResetsTotal.Inc()
	}
	c.entries[key] = struct{}{}

	metrics.DeduplicateMessagesTotal.WithLabelValues("unique").Inc()
	metrics.SetDedupCacheSize(len(c.entries))
	return true
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]struct{}, c.maxEntries)
	metrics.SetDedupCacheSize(0)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

func (c *Cache) MaxEntries() int {
	return c.maxEntries
}

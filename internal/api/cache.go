package api

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/MJE43/arcs-odds/internal/dice"
	"github.com/MJE43/arcs-odds/internal/engine"
	"github.com/MJE43/arcs-odds/internal/metrics"
)

// tableCache keeps recently computed joint tables keyed by pool.
// Tables are never mutated after construction, so entries are shared.
type tableCache struct {
	lru *expirable.LRU[string, *engine.Table]
}

// newTableCache returns nil when size is zero, which disables caching.
func newTableCache(size int, ttl time.Duration) *tableCache {
	if size <= 0 {
		return nil
	}
	return &tableCache{
		lru: expirable.NewLRU[string, *engine.Table](size, nil, ttl),
	}
}

// Table returns the cached table for pool, computing it on a miss.
func (c *tableCache) Table(pool dice.Pool) (*engine.Table, error) {
	if c == nil {
		return compute(pool)
	}

	key := pool.Key()
	if t, ok := c.lru.Get(key); ok {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return t, nil
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	t, err := compute(pool)
	if err != nil {
		return nil, err
	}
	c.lru.Add(key, t)
	return t, nil
}

// Len reports the number of cached tables.
func (c *tableCache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}

func compute(pool dice.Pool) (*engine.Table, error) {
	start := time.Now()
	t, err := engine.JointTable(pool)
	if err != nil {
		return nil, err
	}
	metrics.TablesComputed.Inc()
	metrics.TableComputeDuration.Observe(time.Since(start).Seconds())
	return t, nil
}

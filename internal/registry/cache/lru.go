// Package cache holds read-through caches for policies: a per-process LRU,
// a shared Redis layer and a tiered combination of both.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"policyregistry/internal/registry/models"
	"policyregistry/pkg/domain"
)

// LRU is a size-bounded, TTL-expiring policy cache local to one process.
type LRU struct {
	mu    sync.Mutex // makes Add's check-then-insert atomic
	cache *expirable.LRU[domain.PolicyID, *models.Policy]
}

func NewLRU(size int, ttl time.Duration) *LRU {
	return &LRU{cache: expirable.NewLRU[domain.PolicyID, *models.Policy](size, nil, ttl)}
}

func (c *LRU) Get(_ context.Context, id domain.PolicyID) (*models.Policy, bool) {
	p, ok := c.cache.Get(id)
	if !ok {
		cacheMissesTotal.WithLabelValues(layerLRU).Inc()
		return nil, false
	}
	cacheHitsTotal.WithLabelValues(layerLRU).Inc()
	return p.Clone(), true
}

func (c *LRU) Add(_ context.Context, p *models.Policy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cache.Contains(p.ID) {
		return
	}
	c.cache.Add(p.ID, p.Clone())
}

func (c *LRU) Set(_ context.Context, p *models.Policy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Add(p.ID, p.Clone())
}

func (c *LRU) Len() int {
	return c.cache.Len()
}

package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "policy_registry_cache_hits_total",
		Help: "Policy cache hits by layer",
	}, []string{"layer"})
	cacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "policy_registry_cache_misses_total",
		Help: "Policy cache misses by layer",
	}, []string{"layer"})
	cacheErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "policy_registry_cache_errors_total",
		Help: "Policy cache backend errors by layer and operation",
	}, []string{"layer", "op"})
)

const (
	layerLRU   = "lru"
	layerRedis = "redis"
)

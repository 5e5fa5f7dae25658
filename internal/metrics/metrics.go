// Package metrics содержит счётчики Prometheus сервиса.
// Метрики регистрируются в реестре по умолчанию и отдаются на /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ReadingsTotal — количество выполненных раскладов по видам.
var ReadingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tarot_readings_total",
	Help: "Total number of tarot readings served, by kind.",
}, []string{"kind"})

// RateLimitRejectedTotal — количество запросов, отклонённых лимитером.
var RateLimitRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "tarot_ratelimit_rejected_total",
	Help: "Total number of requests rejected by the rate limiter.",
})

// ResponseCacheTotal — обращения к кешу ответов с результатом hit/miss.
var ResponseCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tarot_response_cache_total",
	Help: "Response cache lookups, by result.",
}, []string{"result"})

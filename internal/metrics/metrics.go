// Package metrics регистрирует счётчики Prometheus, доступные на /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal счётчик HTTP-запросов по маршруту и коду ответа.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "remedyhub",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"path", "code"})

	// EntitlementDenials счётчик отказов в доступе к средствам по причинам.
	EntitlementDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "remedyhub",
		Name:      "entitlement_denials_total",
		Help:      "Total number of denied remedy access resolutions.",
	}, []string{"reason"})

	// FlagsFiled счётчик поданных жалоб по типу контента.
	FlagsFiled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "remedyhub",
		Name:      "flags_filed_total",
		Help:      "Total number of content flags filed.",
	}, []string{"content_type"})

	// ContentDeactivations счётчик деактиваций контента по порогу жалоб.
	ContentDeactivations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "remedyhub",
		Name:      "content_deactivations_total",
		Help:      "Total number of contents deactivated by flag threshold.",
	}, []string{"content_type"})
)

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	MessagesChecked = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "moderation_messages_checked_total",
		Help: "Количество проверенных сообщений",
	})
	ForbiddenLinks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "moderation_forbidden_links_total",
		Help: "Количество сообщений с запрещёнными ссылками",
	})
	WarningsIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "moderation_warnings_issued_total",
		Help: "Количество выданных предупреждений",
	})
	BansIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "moderation_bans_total",
		Help: "Количество исключений за превышение лимита",
	})
	WarningsReset = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "moderation_warnings_reset_total",
		Help: "Количество сбросов счётчика администраторами",
	})
	DeferredDeletes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "moderation_deferred_deletes_total",
		Help: "Количество запланированных отложенных удалений",
	})
	LedgerPersistErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_persist_errors_total",
		Help: "Ошибки записи журнала предупреждений",
	})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: prometheus.DefBuckets,
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		MessagesChecked,
		ForbiddenLinks,
		WarningsIssued,
		BansIssued,
		WarningsReset,
		DeferredDeletes,
		LedgerPersistErrors,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ActionsExecuted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "automation_actions_total",
		Help: "Количество исполненных автоматических действий",
	}, []string{"kind", "status"})

	LoopPassSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "automation_loop_pass_seconds",
		Help:    "Длительность одного прохода цикла по всем пользователям",
		Buckets: prometheus.DefBuckets,
	}, []string{"class"})

	LoopUsersProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "automation_loop_users_total",
		Help: "Количество обработанных пользователей по классам циклов",
	}, []string{"class"})

	LoopUserErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "automation_loop_user_errors_total",
		Help: "Ошибки обработки отдельных пользователей",
	}, []string{"class"})

	BotSendErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_send_errors_total",
		Help: "Ошибки отправки сообщений ботом",
	})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 90, 120},
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		ActionsExecuted,
		LoopPassSeconds,
		LoopUsersProcessed,
		LoopUserErrors,
		BotSendErrors,
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

// ObserveAction записывает результат исполнения действия.
func ObserveAction(kind string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	ActionsExecuted.WithLabelValues(kind, status).Inc()
}

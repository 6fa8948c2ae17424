package metrics

import "github.com/prometheus/client_golang/prometheus"

// Chat and orchestration Prometheus metrics.
var (
	ChatRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "grantix",
			Name:      "chat_requests_total",
			Help:      "Total number of chat completion requests",
		},
		[]string{"provider", "tier", "status"},
	)

	ChatTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "grantix",
			Name:      "chat_tokens_total",
			Help:      "Total chat tokens consumed",
		},
		[]string{"provider", "tier", "type"},
	)

	ToolExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "grantix",
			Name:      "tool_executions_total",
			Help:      "Total tool executions by the orchestrator",
		},
		[]string{"tool", "status"},
	)

	TurnDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "grantix",
			Name:      "turn_duration_seconds",
			Help:      "End-to-end conversation turn duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"intent", "outcome"},
	)

	IntentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "grantix",
			Name:      "intents_total",
			Help:      "Classified query intents",
		},
		[]string{"intent"},
	)

	ChatBudgetTokensRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "grantix",
			Name:      "chat_budget_tokens_remaining",
			Help:      "Remaining chat tokens in budget (-1 = unlimited)",
		},
		[]string{"provider", "period"},
	)
)

var chatMetricsRegistered bool

// RegisterChatMetrics registers Prometheus chat metrics. Must be called once from main.
func RegisterChatMetrics() {
	if chatMetricsRegistered {
		return
	}
	prometheus.MustRegister(ChatRequestsTotal)
	prometheus.MustRegister(ChatTokensTotal)
	prometheus.MustRegister(ToolExecutionsTotal)
	prometheus.MustRegister(TurnDuration)
	prometheus.MustRegister(IntentsTotal)
	prometheus.MustRegister(ChatBudgetTokensRemaining)
	chatMetricsRegistered = true
}

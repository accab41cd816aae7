package metrics

import "github.com/prometheus/client_golang/prometheus"

// Label constants.
const (
	Method  = "method"
	Outcome = "outcome"
	Status  = "status"
	Reason  = "reason"
)

var (
	//nolint:gochecknoglobals // This is how the prometheus magic works.
	// RequestsTotal Total number of JSON-RPC requests dispatched.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcp_requests_total",
			Help: "Total number of JSON-RPC requests dispatched",
		},
		[]string{Method, Outcome},
	)

	//nolint:gochecknoglobals // This is how the prometheus magic works.
	// ToolExecutionsTotal Total number of tool executions.
	ToolExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcp_tool_executions_total",
			Help: "Total number of tool executions",
		},
		[]string{"tool_name", Status},
	)

	//nolint:gochecknoglobals // This is how the prometheus magic works.
	// AuthFailuresTotal Total number of rejected requests by reason.
	AuthFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcp_auth_failures_total",
			Help: "Total number of rejected requests by reason",
		},
		[]string{Reason},
	)

	//nolint:gochecknoglobals // This is how the prometheus magic works.
	// TransportErrorsTotal Total number of transport-level failures.
	TransportErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcp_transport_errors_total",
			Help: "Total number of transport-level failures",
		},
		[]string{Reason},
	)
)

//nolint:gochecknoinits // This is how the prometheus magic works.
func init() {
	_ = prometheus.Register(RequestsTotal)
	_ = prometheus.Register(ToolExecutionsTotal)
	_ = prometheus.Register(AuthFailuresTotal)
	_ = prometheus.Register(TransportErrorsTotal)
}

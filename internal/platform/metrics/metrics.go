package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the onboarding client and the
// sandbox API. A nil *Metrics is valid and records nothing.
type Metrics struct {
	StepOutcomes           *prometheus.CounterVec
	GatewayLatency         *prometheus.HistogramVec
	ResendRequests         *prometheus.CounterVec
	ResendReopened         prometheus.Counter
	TokenWrites            *prometheus.CounterVec
	SandboxAccountsCreated prometheus.Counter
}

// New creates the collectors and registers them with reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		StepOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "viacarona_onboarding_step_outcomes_total",
			Help: "Onboarding step submissions by step and classified result",
		}, []string{"step", "result"}),
		GatewayLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "viacarona_gateway_request_duration_seconds",
			Help:    "Latency of auth API calls by endpoint and outcome",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint", "outcome"}),
		ResendRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "viacarona_verification_resend_total",
			Help: "Verification code resend requests by result",
		}, []string{"result"}),
		ResendReopened: factory.NewCounter(prometheus.CounterOpts{
			Name: "viacarona_verification_resend_reopened_total",
			Help: "Resend windows re-opened early after a transport failure",
		}),
		TokenWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "viacarona_token_writes_total",
			Help: "Session token writes by backend and result",
		}, []string{"backend", "result"}),
		SandboxAccountsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "viacarona_sandbox_accounts_created_total",
			Help: "Accounts registered against the sandbox API",
		}),
	}
}

func (m *Metrics) ObserveStep(step, result string) {
	if m == nil {
		return
	}
	m.StepOutcomes.WithLabelValues(step, result).Inc()
}

func (m *Metrics) ObserveGateway(endpoint, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.GatewayLatency.WithLabelValues(endpoint, outcome).Observe(elapsed.Seconds())
}

func (m *Metrics) IncrementResend(result string) {
	if m == nil {
		return
	}
	m.ResendRequests.WithLabelValues(result).Inc()
}

func (m *Metrics) IncrementResendReopened() {
	if m == nil {
		return
	}
	m.ResendReopened.Inc()
}

func (m *Metrics) IncrementTokenWrites(backend, result string) {
	if m == nil {
		return
	}
	m.TokenWrites.WithLabelValues(backend, result).Inc()
}

// IncrementAccountsCreated increments the sandbox accounts counter by 1
func (m *Metrics) IncrementAccountsCreated() {
	if m == nil {
		return
	}
	m.SandboxAccountsCreated.Inc()
}

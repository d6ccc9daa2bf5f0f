package sempclient

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	apiSempV2      = "semp_v2"
	apiSempV1      = "semp_v1"
	apiSolaceCloud = "solace_cloud"
)

// Metrics counts requests by api, operation and final status code, and the
// retries spent on transient failures.
type Metrics struct {
	Requests *prometheus.CounterVec
	Retries  *prometheus.CounterVec
	Polls    *prometheus.CounterVec
}

// NewMetrics registers the counters with reg. A nil reg leaves them
// unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pubsubplus_topology",
			Name:      "requests_total",
			Help:      "Requests sent to SEMP or the Solace Cloud api, by final status code. Network failures have code 0.",
		}, []string{"api", "op", "code"}),
		Retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pubsubplus_topology",
			Name:      "request_retries_total",
			Help:      "Requests repeated after a transient failure.",
		}, []string{"api", "op"}),
		Polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pubsubplus_topology",
			Name:      "solace_cloud_polls_total",
			Help:      "Status polls of Solace Cloud requests and services.",
		}, []string{"op"}),
	}
	if reg != nil {
		reg.MustRegister(m.Requests, m.Retries, m.Polls)
	}
	return m
}

func (m *Metrics) observeRequest(api, op string, code int) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(api, op, strconv.Itoa(code)).Inc()
}

func (m *Metrics) observeRetry(api, op string) {
	if m == nil {
		return
	}
	m.Retries.WithLabelValues(api, op).Inc()
}

func (m *Metrics) observePoll(op string) {
	if m == nil {
		return
	}
	m.Polls.WithLabelValues(op).Inc()
}

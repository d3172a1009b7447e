package opac

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "libgate_opac_logins_total",
			Help: "OPAC login attempts by outcome",
		},
		[]string{"outcome"},
	)

	sessionExpirations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "libgate_opac_session_expirations_total",
			Help: "Stored sessions the OPAC reported as expired",
		},
	)

	upstreamRequestSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "libgate_opac_request_seconds",
			Help:    "Latency of requests made to the OPAC (per operation and outcome)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op", "outcome"},
	)
)

func observeRequest(op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		if ee, ok := err.(*ExternalSystemError); ok {
			outcome = string(ee.Kind)
		}
	}
	upstreamRequestSeconds.WithLabelValues(op, outcome).Observe(time.Since(start).Seconds())
}

func observeLogin(err error) {
	outcome := "ok"
	if ae, ok := err.(*AuthError); ok {
		outcome = string(ae.Reason)
	} else if err != nil {
		outcome = "error"
	}
	loginAttempts.WithLabelValues(outcome).Inc()
}

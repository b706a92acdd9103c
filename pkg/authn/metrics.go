package authn

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_authn_outcomes_total", Help: "Authentication results by outcome",
	}, []string{"outcome"})
	mRenewals = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blog_authn_renewals_total", Help: "Access tokens silently renewed from a refresh token",
	})
)

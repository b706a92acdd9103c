package httpx

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_uploads_total",
		Help: "Staged uploads by final result (committed, discarded, failed).",
	}, []string{"result"})

	mRateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_http_rate_limited_total",
		Help: "Requests rejected by a rate limit profile.",
	}, []string{"profile"})
)

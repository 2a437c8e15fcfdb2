package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "queryloom_build_info",
		Help: "Build information of queryloom",
	}, []string{"version"})

	Queries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "queryloom_queries_total", Help: "Questions resolved, by answering path.",
	}, []string{"source"})
	Fallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "queryloom_external_fallbacks_total", Help: "External attempts that fell back to the local path.",
	}, []string{"reason"})
	Intents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "queryloom_intents_total", Help: "Locally classified questions, by category.",
	}, []string{"category"})
	EngineFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "queryloom_engine_failures_total", Help: "Engine results without a headline, by category.",
	}, []string{"category"})
	Panics = promauto.NewCounter(prometheus.CounterOpts{
		Name: "queryloom_resolver_panics_total", Help: "Panics recovered inside the resolver pipeline.",
	})

	ResolveDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "queryloom_resolve_duration_seconds",
		Help:    "Time to resolve one question, by answering path.",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"source"})
	ExternalDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "queryloom_external_duration_seconds",
		Help:    "Time spent waiting on the external reasoning service.",
		Buckets: prometheus.DefBuckets,
	})

	SessionsLive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "queryloom_sessions_live", Help: "Datasets currently held in the session store.",
	})
)

package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var classifyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "moderation_classify_duration_sec",
	Help: "Total duration of a classification, all stages included",
})

var stageAttemptCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "moderation_stage_attempts",
	Help: "Number of provider stage invocations",
}, []string{"stage"})

var stageErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "moderation_stage_errors",
	Help: "Number of provider stage failures which fell through to the next stage",
}, []string{"stage"})

var verdictCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "moderation_verdicts",
	Help: "Number of verdicts returned, by producing stage and category",
}, []string{"source", "category", "verdict"})

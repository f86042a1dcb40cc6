package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsOpenedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studio_sessions_opened_total",
		Help: "Studio sessions opened, by source (course or blank).",
	}, []string{"source"})
	editsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studio_edits_total",
		Help: "Applied curriculum edits by operation.",
	}, []string{"operation"})
	savesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studio_saves_total",
		Help: "Course saves sent to the LMS by result.",
	}, []string{"result"})
	saveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "studio_save_duration_seconds",
		Help:    "Time spent waiting for the LMS to store a course.",
		Buckets: prometheus.DefBuckets,
	})
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studio_uploads_total",
		Help: "Video and resource uploads by kind and result.",
	}, []string{"kind", "result"})
)

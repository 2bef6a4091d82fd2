package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "civitas_document_uploads_total",
		Help: "Number of documents ingested through the upload endpoint.",
	})
	generationCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "civitas_generation_calls_total",
		Help: "LLM generation calls by kind.",
	}, []string{"kind"})
	generationFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "civitas_generation_failures_total",
		Help: "Failed LLM generation calls by kind.",
	}, []string{"kind"})
	translationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "civitas_translations_total",
		Help: "Completed document translations, cache hits included.",
	})
)

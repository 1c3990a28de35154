package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Evaluation outcome labels
const (
	resultFound    = "found"
	resultNoPath   = "no_path"
	resultNotReady = "not_ready"
	resultError    = "error"
)

var (
	// evaluationsTotal counts evaluations by outcome
	evaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "astarmaze_evaluations_total",
		Help: "Total path evaluations by result",
	}, []string{"result"})

	// evaluationDuration tracks search latency
	evaluationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "astarmaze_evaluation_duration_seconds",
		Help:    "Path evaluation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10), // 10µs to ~2.6s
	})

	// expandedNodes tracks how many nodes each search expanded
	expandedNodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "astarmaze_expanded_nodes",
		Help:    "Nodes expanded per path evaluation",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})

	// obstacleEditsTotal counts obstacle cells changed by operation
	obstacleEditsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "astarmaze_obstacle_edits_total",
		Help: "Obstacle cells changed by operation",
	}, []string{"op"}) // "add", "remove", "replace", "clear"
)

// Copyright 2026 The GeoDedup Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geodedup_requests_total",
		Help: "HTTP requests by endpoint and status code",
	}, []string{"endpoint", "status"})
	RequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "geodedup_request_duration_ms",
		Help:    "HTTP request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 30000},
	}, []string{"endpoint"})
	ResolverIterations = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "geodedup_resolver_iterations",
		Help:    "Resolver passes per request",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
	})
	PointsDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geodedup_points_dropped_total",
		Help: "Points marked as duplicates",
	})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDurationMs)
	prometheus.MustRegister(ResolverIterations)
	prometheus.MustRegister(PointsDroppedTotal)
}

func metricsHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

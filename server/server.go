// Copyright 2026 The GeoDedup Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes the distance and deduplication operations over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jcodagnone/geodedup/dedup"
	"github.com/jcodagnone/geodedup/spatial"
	"github.com/jcodagnone/geodedup/store"
)

// DefaultMaxPoints bounds the points accepted per request. A matrix holds
// n*n float64 cells, so 2000 points take about 32 MB for every matrix or
// resolver pass a request runs.
const DefaultMaxPoints = 2000

// ServerOptions configures a Server.
type ServerOptions struct {
	// Repo serves the stored points and runs. Optional.
	Repo      store.PointRepository
	MaxPoints int
	Workers   int
	Logger    *log.Logger
}

type Server struct {
	repo      store.PointRepository
	maxPoints int
	workers   int
	logger    *log.Logger
}

func NewServer(opts ServerOptions) *Server {
	maxPoints := opts.MaxPoints
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}

	return &Server{
		repo:      opts.Repo,
		maxPoints: maxPoints,
		workers:   opts.Workers,
		logger:    opts.Logger,
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()
	r.Use(instrument())

	r.GET("/metrics", metricsHandler())
	r.POST("/api/matrix", s.matrix)
	r.POST("/api/nearest", s.nearest)
	r.POST("/api/resolve", s.resolve)

	if s.repo != nil {
		r.GET("/api/points", s.listPoints)
		r.GET("/api/runs", s.listRuns)
		r.GET("/api/runs/:id/drops", s.runDrops)
	}

	return r
}

func (s *Server) Run(addr string) error {
	return s.Router().Run(addr)
}

func instrument() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		ctx.Next()

		endpoint := ctx.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestsTotal.WithLabelValues(endpoint, strconv.Itoa(ctx.Writer.Status())).Inc()
		RequestDurationMs.WithLabelValues(endpoint).Observe(float64(time.Since(start).Milliseconds()))
	}
}

type matrixRequest struct {
	Points []spatial.Point `json:"points"`
	Method dedup.Method    `json:"method"`
	Unit   spatial.Unit    `json:"unit"`
}

type MatrixResponse struct {
	Unit   spatial.Unit `json:"unit"`
	Method dedup.Method `json:"method"`
	Rows   [][]float64  `json:"rows"`
}

type resolveRequest struct {
	Points    []spatial.Point `json:"points"`
	Criteria  []float64       `json:"criteria"`
	Threshold float64         `json:"threshold"`
}

type ResolveResponse struct {
	Drop       []int `json:"drop"`
	Keep       []int `json:"keep"`
	Iterations int   `json:"iterations"`
}

// bind decodes the body and enforces the point limit. It writes the error
// response and returns false when the request must not proceed.
func (s *Server) bind(ctx *gin.Context, req any, points func() int) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %v", err)})

		return false
	}

	if n := points(); n > s.maxPoints {
		ctx.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("too many points: %d (max %d)", n, s.maxPoints),
		})

		return false
	}

	return true
}

func (s *Server) fail(ctx *gin.Context, err error) {
	switch {
	case dedup.TypeOf(err) != dedup.ErrorTypeUnknown:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "type": dedup.TypeOf(err).String()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "request cancelled"})
	default:
		if s.logger != nil {
			s.logger.Printf("%s %s: %v", ctx.Request.Method, ctx.FullPath(), err)
		}

		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (s *Server) matrixOptions(method dedup.Method, unit spatial.Unit) dedup.MatrixOptions {
	return dedup.MatrixOptions{Method: method, Unit: unit, Workers: s.workers}
}

func (s *Server) matrix(ctx *gin.Context) {
	var req matrixRequest
	if !s.bind(ctx, &req, func() int { return len(req.Points) }) {
		return
	}

	m, err := dedup.ComputeMatrix(ctx.Request.Context(), req.Points, s.matrixOptions(req.Method, req.Unit))
	if err != nil {
		s.fail(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, MatrixResponse{Unit: m.Unit(), Method: req.Method, Rows: m.Rows()})
}

func (s *Server) nearest(ctx *gin.Context) {
	var req matrixRequest
	if !s.bind(ctx, &req, func() int { return len(req.Points) }) {
		return
	}

	m, err := dedup.ComputeMatrix(ctx.Request.Context(), req.Points, s.matrixOptions(req.Method, req.Unit))
	if err != nil {
		s.fail(ctx, err)

		return
	}

	neighbors, err := dedup.Nearest(req.Points, m)
	if err != nil {
		s.fail(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, neighbors)
}

func (s *Server) resolve(ctx *gin.Context) {
	var req resolveRequest
	if !s.bind(ctx, &req, func() int { return len(req.Points) }) {
		return
	}

	res, err := dedup.Resolve(ctx.Request.Context(), req.Points, req.Criteria, req.Threshold, dedup.ResolveOptions{
		Workers: s.workers,
		Logger:  s.logger,
	})
	if err != nil {
		s.fail(ctx, err)

		return
	}

	ResolverIterations.Observe(float64(res.Iterations))
	PointsDroppedTotal.Add(float64(len(res.Drop)))

	ctx.JSON(http.StatusOK, ResolveResponse{
		Drop:       res.Drop,
		Keep:       dedup.Keep(len(req.Points), res.Drop),
		Iterations: res.Iterations,
	})
}

func (s *Server) listPoints(ctx *gin.Context) {
	records, err := s.repo.ListPoints()
	if err != nil {
		s.fail(ctx, err)

		return
	}

	if records == nil {
		records = []*store.Record{}
	}

	ctx.JSON(http.StatusOK, records)
}

func (s *Server) listRuns(ctx *gin.Context) {
	runs, err := s.repo.ListRuns()
	if err != nil {
		s.fail(ctx, err)

		return
	}

	if runs == nil {
		runs = []*store.Run{}
	}

	ctx.JSON(http.StatusOK, runs)
}

func (s *Server) runDrops(ctx *gin.Context) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})

		return
	}

	drop, err := s.repo.RunDrops(id)
	if err != nil {
		s.fail(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"run_id": id, "drop": drop})
}

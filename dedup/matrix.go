// Copyright 2026 The GeoDedup Authors
// SPDX-License-Identifier: Apache-2.0

package dedup

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/jcodagnone/geodedup/spatial"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// Method selects the distance function used to fill a DistanceMatrix.
type Method int

const (
	// MethodGeodesic is the ellipsoidal (WGS-84) distance. Accurate, used for reporting.
	MethodGeodesic Method = iota
	// MethodHaversine is the spherical distance on the 6371 km mean radius.
	MethodHaversine
	// MethodResolver is the spherical distance the resolver decides duplicates with.
	MethodResolver
)

var methodNames = map[Method]string{
	MethodGeodesic:  "geodesic",
	MethodHaversine: "haversine",
	MethodResolver:  "resolver",
}

// ParseMethod parses a method name. The empty string means geodesic.
func ParseMethod(s string) (Method, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return MethodGeodesic, nil
	}

	for m, name := range methodNames {
		if name == s {
			return m, nil
		}
	}

	return MethodGeodesic, fmt.Errorf("dedup: unknown distance method %q", s)
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}

	return fmt.Sprintf("Method(%d)", int(m))
}

// MarshalText implements encoding.TextMarshaler.
func (m Method) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Method) UnmarshalText(text []byte) error {
	parsed, err := ParseMethod(string(text))
	if err != nil {
		return err
	}

	*m = parsed

	return nil
}

// distance returns the meters between a and b.
func (m Method) distance(a, b spatial.Point) float64 {
	switch m {
	case MethodHaversine:
		return a.HaversineDistance(&b)
	case MethodResolver:
		return spatial.HaversineWithRadius(a, b, spatial.ResolverEarthRadius)
	default:
		return spatial.GeodesicDistance(a, b)
	}
}

// MatrixOptions configures ComputeMatrix. The zero value computes geodesic
// distances in meters on every CPU without progress reporting.
type MatrixOptions struct {
	Method   Method
	Unit     spatial.Unit
	Workers  int
	Progress Progress
}

// DistanceMatrix is a symmetric N×N matrix of pairwise distances with a zero
// diagonal.
type DistanceMatrix struct {
	n    int
	unit spatial.Unit
	sym  *mat.SymDense
}

// Len returns N.
func (m *DistanceMatrix) Len() int {
	return m.n
}

// Unit returns the unit every entry is expressed in.
func (m *DistanceMatrix) Unit() spatial.Unit {
	return m.unit
}

// At returns the distance between points i and j.
func (m *DistanceMatrix) At(i, j int) float64 {
	return m.sym.At(i, j)
}

// Row returns a copy of row i.
func (m *DistanceMatrix) Row(i int) []float64 {
	row := make([]float64, m.n)
	mat.Row(row, i, m.sym)

	return row
}

// Rows returns a copy of the whole matrix, row by row.
func (m *DistanceMatrix) Rows() [][]float64 {
	rows := make([][]float64, m.n)
	for i := range rows {
		rows[i] = m.Row(i)
	}

	return rows
}

// Symmetric exposes the matrix for gonum consumers. Nil when empty.
func (m *DistanceMatrix) Symmetric() mat.Symmetric {
	if m.sym == nil {
		return nil
	}

	return m.sym
}

// ComputeMatrix validates points and returns their pairwise distance matrix.
// Only the upper triangle is computed; rows are spread across workers and
// every cell is written once. The backing store is still a full n*n float64
// array, 8*n*n bytes, and Resolve allocates one per pass.
func ComputeMatrix(ctx context.Context, points []spatial.Point, opts MatrixOptions) (*DistanceMatrix, error) {
	if err := validatePoints(points); err != nil {
		return nil, err
	}

	return computeMatrix(ctx, points, opts)
}

func computeMatrix(ctx context.Context, points []spatial.Point, opts MatrixOptions) (*DistanceMatrix, error) {
	n := len(points)
	m := &DistanceMatrix{n: n, unit: opts.Unit}

	if n == 0 {
		return m, nil
	}

	m.sym = mat.NewSymDense(n, nil)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	scale := opts.Unit.Meters()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range n {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			for j := i + 1; j < n; j++ {
				m.sym.SetSym(i, j, opts.Method.distance(points[i], points[j])/scale)
			}

			if opts.Progress != nil {
				if err := opts.Progress.Add(1); err != nil {
					return fmt.Errorf("updating progress for row %d: %w", i, err)
				}
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return m, nil
}

// Copyright 2026 The GeoDedup Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		p       Point
		wantErr bool
	}{
		{name: "montevideo", p: Point{Lat: -34.9011, Lng: -56.1645}},
		{name: "mexico city", p: Point{Lat: 19.4407305, Lng: -99.0725447}},
		{name: "north pole", p: Point{Lat: 90, Lng: 0}},
		{name: "antimeridian", p: Point{Lat: 0, Lng: -180}},
		{name: "latitude too high", p: Point{Lat: 91, Lng: 0}, wantErr: true},
		{name: "latitude too low", p: Point{Lat: -90.5, Lng: 0}, wantErr: true},
		{name: "longitude too high", p: Point{Lat: 0, Lng: 181}, wantErr: true},
		{name: "longitude too low", p: Point{Lat: 0, Lng: -180.1}, wantErr: true},
		{name: "NaN latitude", p: Point{Lat: math.NaN(), Lng: 0}, wantErr: true},
		{name: "infinite longitude", p: Point{Lat: 0, Lng: math.Inf(1)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestHaversineDistance(t *testing.T) {
	a := Point{Lat: 0, Lng: 0}
	b := Point{Lat: 0, Lng: 1}

	// One degree of longitude on the equator.
	want := earthRadius * math.Pi / 180
	assert.InDelta(t, want, a.HaversineDistance(&b), 1e-6)
	assert.InDelta(t, a.HaversineDistance(&b), b.HaversineDistance(&a), 1e-9)
	assert.Zero(t, a.HaversineDistance(&a))
}

func TestHaversineWithRadius(t *testing.T) {
	a := Point{Lat: 10, Lng: 20}
	b := Point{Lat: -10, Lng: -160}

	// Antipodal points are half a circumference apart.
	assert.InDelta(t, math.Pi*ResolverEarthRadius, HaversineWithRadius(a, b, ResolverEarthRadius), 1e-3)
	assert.InDelta(t, math.Pi, HaversineWithRadius(a, b, 1), 1e-9)
}

func TestCell(t *testing.T) {
	p := Point{Lat: -34.8822366, Lng: -56.1529602}

	c1, err := p.Cell(9)
	require.NoError(t, err)

	c2, err := p.Cell(9)
	require.NoError(t, err)

	assert.Equal(t, c1, c2)
	assert.Equal(t, 9, c1.Resolution())

	_, err = p.Cell(16)
	assert.Error(t, err)
}

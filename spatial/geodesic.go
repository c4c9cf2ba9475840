// Copyright 2026 The GeoDedup Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import "github.com/tidwall/geodesic"

// GeodesicDistance returns the ellipsoidal distance in meters between a and
// b on WGS-84, solving the inverse problem with Karney's algorithm. It is
// exact for antipodal pairs too.
func GeodesicDistance(a, b Point) float64 {
	if a == b {
		return 0
	}

	var s12 float64
	geodesic.WGS84.Inverse(a.Lat, a.Lng, b.Lat, b.Lng, &s12, nil, nil)

	return s12
}

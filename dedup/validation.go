// Copyright 2026 The GeoDedup Authors
// SPDX-License-Identifier: Apache-2.0

package dedup

import (
	"fmt"
	"math"

	"github.com/jcodagnone/geodedup/spatial"
)

// validatePoints fails on the first out-of-range coordinate.
func validatePoints(points []spatial.Point) error {
	for i, p := range points {
		if err := p.Validate(); err != nil {
			return &InputError{
				Type:    ErrorTypeInvalidCoordinate,
				Index:   i,
				Message: "invalid coordinate",
				Err:     err,
			}
		}
	}

	return nil
}

func validateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) || threshold <= 0 {
		return &InputError{
			Type:    ErrorTypeInvalidThreshold,
			Index:   -1,
			Message: fmt.Sprintf("threshold must be a positive distance in meters (got: %v)", threshold),
		}
	}

	return nil
}

func validateCriteria(n int, criteria []float64) error {
	if len(criteria) != n {
		return &InputError{
			Type:    ErrorTypeLengthMismatch,
			Index:   -1,
			Message: fmt.Sprintf("got %d criterion values for %d points", len(criteria), n),
		}
	}

	for i, c := range criteria {
		if math.IsNaN(c) {
			return &InputError{
				Type:    ErrorTypeInvalidCriterion,
				Index:   i,
				Message: "criterion value is NaN",
			}
		}
	}

	return nil
}

// Copyright 2026 The GeoDedup Authors
// SPDX-License-Identifier: Apache-2.0

package dedup

import (
	"errors"
	"fmt"
)

// InputError reports a caller input defect detected before any pairwise work.
type InputError struct {
	Type ErrorType
	// Index is the offending point, or -1 when the error is not tied to one.
	Index   int
	Message string
	Err     error
}

// ErrorType classifies an InputError.
type ErrorType int

const (
	// ErrorTypeUnknown unclassified error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeInvalidCoordinate latitude or longitude out of range.
	ErrorTypeInvalidCoordinate
	// ErrorTypeInvalidThreshold threshold not strictly positive.
	ErrorTypeInvalidThreshold
	// ErrorTypeLengthMismatch parallel inputs of different sizes.
	ErrorTypeLengthMismatch
	// ErrorTypeInvalidCriterion criterion value is NaN.
	ErrorTypeInvalidCriterion
)

var errorTypeNames = map[ErrorType]string{
	ErrorTypeUnknown:           "unknown",
	ErrorTypeInvalidCoordinate: "invalid_coordinate",
	ErrorTypeInvalidThreshold:  "invalid_threshold",
	ErrorTypeLengthMismatch:    "length_mismatch",
	ErrorTypeInvalidCriterion:  "invalid_criterion",
}

func (t ErrorType) String() string {
	if name, ok := errorTypeNames[t]; ok {
		return name
	}

	return fmt.Sprintf("ErrorType(%d)", int(t))
}

func (e *InputError) Error() string {
	msg := e.Message
	if e.Index >= 0 {
		msg = fmt.Sprintf("point %d: %s", e.Index, msg)
	}

	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}

	return msg
}

func (e *InputError) Unwrap() error {
	return e.Err
}

func errorType(err error) ErrorType {
	var inErr *InputError
	if errors.As(err, &inErr) {
		return inErr.Type
	}

	return ErrorTypeUnknown
}

// TypeOf returns the ErrorType of err, or ErrorTypeUnknown when err is not
// an InputError.
func TypeOf(err error) ErrorType {
	return errorType(err)
}

// IsInvalidCoordinateError reports whether err is an out-of-range coordinate.
func IsInvalidCoordinateError(err error) bool {
	return errorType(err) == ErrorTypeInvalidCoordinate
}

// IsInvalidThresholdError reports whether err is a non-positive threshold.
func IsInvalidThresholdError(err error) bool {
	return errorType(err) == ErrorTypeInvalidThreshold
}

// IsLengthMismatchError reports whether err is a points/criteria size mismatch.
func IsLengthMismatchError(err error) bool {
	return errorType(err) == ErrorTypeLengthMismatch
}

// IsInvalidCriterionError reports whether err is a NaN criterion.
func IsInvalidCriterionError(err error) bool {
	return errorType(err) == ErrorTypeInvalidCriterion
}

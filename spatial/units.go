// Copyright 2026 The GeoDedup Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"fmt"
	"strings"
)

// Unit is the length unit a distance is expressed in.
type Unit int

const (
	// Meters is the default unit.
	Meters Unit = iota
	Kilometers
	Miles
	NauticalMiles
)

var unitNames = map[Unit]string{
	Meters:        "meters",
	Kilometers:    "kilometers",
	Miles:         "miles",
	NauticalMiles: "nautical",
}

var unitAliases = map[string]Unit{
	"":           Meters,
	"m":          Meters,
	"meter":      Meters,
	"meters":     Meters,
	"km":         Kilometers,
	"kilometer":  Kilometers,
	"kilometers": Kilometers,
	"mi":         Miles,
	"mile":       Miles,
	"miles":      Miles,
	"nm":         NauticalMiles,
	"nmi":        NauticalMiles,
	"nautical":   NauticalMiles,
}

// ParseUnit parses a unit name or abbreviation. The empty string means meters.
func ParseUnit(s string) (Unit, error) {
	u, ok := unitAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return Meters, fmt.Errorf("spatial: unknown distance unit %q", s)
	}

	return u, nil
}

func (u Unit) String() string {
	if name, ok := unitNames[u]; ok {
		return name
	}

	return fmt.Sprintf("Unit(%d)", int(u))
}

// Meters returns the size of one u in meters.
func (u Unit) Meters() float64 {
	switch u {
	case Kilometers:
		return 1000
	case Miles:
		return 1609.344
	case NauticalMiles:
		return 1852
	default:
		return 1
	}
}

// FromMeters converts a distance in meters to u.
func (u Unit) FromMeters(d float64) float64 {
	return d / u.Meters()
}

// MarshalText implements encoding.TextMarshaler.
func (u Unit) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *Unit) UnmarshalText(text []byte) error {
	parsed, err := ParseUnit(string(text))
	if err != nil {
		return err
	}

	*u = parsed

	return nil
}

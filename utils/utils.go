// Copyright 2026 The GeoDedup Authors
// SPDX-License-Identifier: Apache-2.0

// Package utils holds small text helpers shared by the CLI and the store.
package utils

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var printer = message.NewPrinter(language.English)

// LowerASCIIFolding normalizes a string by removing accents, lowercasing, and trimming spaces.
func LowerASCIIFolding(s string) string {
	s, _, _ = transform.String(
		transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		),
		strings.TrimSpace(strings.ToLower(s)),
	)

	return s
}

// FormatInt formats an integer with thousands separators.
func FormatInt(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatFloat formats a float with thousands separators and the given decimals.
func FormatFloat(f float64, decimals int) string {
	return printer.Sprintf("%."+strconv.Itoa(decimals)+"f", f)
}

// MatchColumn returns the entry of columns equal to want after folding both
// sides, and whether one was found.
func MatchColumn(columns []string, want string) (string, bool) {
	folded := LowerASCIIFolding(want)
	for _, c := range columns {
		if LowerASCIIFolding(c) == folded {
			return c, true
		}
	}

	return "", false
}

// Copyright 2026 The GeoDedup Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/jcodagnone/geodedup/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}

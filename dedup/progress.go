// Copyright 2026 The GeoDedup Authors
// SPDX-License-Identifier: Apache-2.0

package dedup

import (
	"log"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// Progress receives one Add(1) per completed matrix row. Implementations must
// be safe for concurrent use.
type Progress interface {
	Add(n int) error
}

// NewProgress returns a progress bar on stderr when it is a terminal, and a
// logger that reports every tenth of the rows otherwise.
func NewProgress(total int, description string) Progress {
	if isatty.IsTerminal(os.Stderr.Fd()) {
		return progressbar.NewOptions(total,
			progressbar.OptionSetDescription(description),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	step := max(total/10, 1)

	return &logProgress{total: total, step: step, description: description}
}

type logProgress struct {
	mu          sync.Mutex
	done        int
	total       int
	step        int
	description string
}

func (p *logProgress) Add(n int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done += n
	if p.done%p.step == 0 || p.done == p.total {
		log.Printf("%s - row %d of %d", p.description, p.done, p.total)
	}

	return nil
}

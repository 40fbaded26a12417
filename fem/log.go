// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fem

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// NewLogger returns a structured, colorized logger for step-level
// diagnostics (retries, conservation drift, events). Separate from the
// donor's io.Pf-style human narration, which stays for top-level run
// messages; this one is for per-step machine-parseable detail a DevOps
// pipeline would grep or ship to a collector.
func NewLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

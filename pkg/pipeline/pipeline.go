// Package pipeline runs merges for the CLI and the HTTP server.
//
// # Architecture
//
// A run has two stages per platform:
//
//  1. Merge: build the linkable graph of the platform, compute the merge and
//     turn the result into an [io.PlatformReport]
//  2. Render: draw the report's final-library graph as DOT or SVG
//
// Platforms are independent, so the runner merges them concurrently. The
// first failing platform cancels the run and its error names the platform.
// Reports are cached by the SHA-256 of the canonical configuration and the
// canonical platform graph, which is safe because a merge is a pure
// function of both.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Config:   cfg,
//	    Document: doc,
//	})
//	if err != nil {
//	    return err
//	}
//	return io.WriteMapping(os.Stdout, result.Reports)
package pipeline

import (
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nativemerge/pkg/config"
	"github.com/matzehuels/nativemerge/pkg/errors"
	mio "github.com/matzehuels/nativemerge/pkg/io"
)

// Graph output formats.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
)

// ValidFormats is the set of supported graph formats.
var ValidFormats = map[string]bool{
	FormatDOT: true,
	FormatSVG: true,
}

// ValidateFormat checks that a graph format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: dot, svg)", format)
	}
	return nil
}

// Options contains all configuration for a merge run.
type Options struct {
	// Config is the merge configuration. Required.
	Config *config.Config

	// Document holds the platform graphs. Required.
	Document *mio.Document

	// Platforms selects platforms to merge. Empty means all of them.
	Platforms []string

	// Refresh recomputes every report and overwrites cached entries.
	Refresh bool

	// Logger overrides the runner's logger for this run.
	Logger *log.Logger

	validated bool
}

// ValidateAndSetDefaults checks required fields, validates the
// configuration and resolves the platform selection. Unknown platforms
// are NOT_FOUND errors. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Config == nil {
		return errors.New(errors.ErrCodeInvalidConfig, "merge configuration is required")
	}
	if o.Document == nil {
		return errors.New(errors.ErrCodeInvalidInput, "graph document is required")
	}
	if err := o.Config.Validate(); err != nil {
		return err
	}

	if len(o.Platforms) == 0 {
		o.Platforms = o.Document.PlatformNames()
	} else {
		o.Platforms = slices.Compact(slices.Sorted(slices.Values(o.Platforms)))
	}
	if len(o.Platforms) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "graph document has no platforms")
	}
	for _, p := range o.Platforms {
		if _, err := o.Document.Platform(p); err != nil {
			return err
		}
	}

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// Result contains the outputs of a run.
type Result struct {
	// Reports holds one report per selected platform, sorted by platform.
	Reports []*mio.PlatformReport

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which platforms were served from the cache.
	CacheInfo CacheInfo
}

// Report returns the report of platform.
func (r *Result) Report(platform string) (*mio.PlatformReport, bool) {
	for _, rep := range r.Reports {
		if rep.Platform == platform {
			return rep, true
		}
	}
	return nil, false
}

// Stats contains run statistics summed over platforms.
type Stats struct {
	Platforms int
	Targets   int
	Libraries int
	Merged    int
	Duration  time.Duration
}

// CacheInfo lists the platforms whose report came from the cache.
type CacheInfo struct {
	Hits []string
}

// Hit reports whether platform was served from the cache.
func (c CacheInfo) Hit(platform string) bool {
	return slices.Contains(c.Hits, platform)
}

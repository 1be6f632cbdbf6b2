package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/nativemerge/pkg/errors"
	mio "github.com/matzehuels/nativemerge/pkg/io"
	"github.com/matzehuels/nativemerge/pkg/render/nodelink"
)

// RenderOptions controls graph rendering.
type RenderOptions struct {
	// Formats lists the outputs to produce. Empty means DOT only.
	Formats []string

	// Detailed, Reduce and ClusterModules map to [nodelink.Options].
	Detailed       bool
	Reduce         bool
	ClusterModules bool
}

// Render draws the final-library graph of rep in every requested format.
// The result maps format to bytes.
func Render(ctx context.Context, rep *mio.PlatformReport, opts RenderOptions) (map[string][]byte, error) {
	formats := opts.Formats
	if len(formats) == 0 {
		formats = []string{FormatDOT}
	}
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return nil, err
		}
	}

	dot, err := nodelink.ToDOT(rep.LibraryGraph(), nodelink.Options{
		Detailed:       opts.Detailed,
		Reduce:         opts.Reduce,
		ClusterModules: opts.ClusterModules,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCycleInLibraries, err, "platform %q", rep.Platform)
	}

	artifacts := make(map[string][]byte, len(formats))
	for _, format := range formats {
		switch format {
		case FormatDOT:
			artifacts[format] = []byte(dot)
		case FormatSVG:
			svg, err := nodelink.RenderSVG(ctx, dot)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInternal, fmt.Errorf("render %s: %w", format, err), "platform %q", rep.Platform)
			}
			artifacts[format] = svg
		}
	}
	return artifacts, nil
}

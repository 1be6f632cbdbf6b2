package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nativemerge/pkg/config"
	mio "github.com/matzehuels/nativemerge/pkg/io"
	"github.com/matzehuels/nativemerge/pkg/pipeline"
)

// runFlags are the input flags shared by merge, inspect and graph.
type runFlags struct {
	configPath string
	graphPath  string
	platforms  []string
	output     string
	noCache    bool
	refresh    bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.configPath, "config", "c", "", "merge configuration file (.yaml, .toml or .json, - for stdin)")
	flags.StringVarP(&f.graphPath, "graph", "g", "", "graph document (JSON, - for stdin)")
	flags.StringSliceVarP(&f.platforms, "platform", "p", nil, "platform to merge (repeatable, default all)")
	flags.StringVarP(&f.output, "output", "o", "-", "output file (- for stdout)")
	flags.BoolVar(&f.noCache, "no-cache", false, "disable the result cache")
	flags.BoolVar(&f.refresh, "refresh", false, "recompute and overwrite cached results")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("graph")
	_ = cmd.MarkFlagFilename("config", "yaml", "yml", "toml", "json")
	_ = cmd.MarkFlagFilename("graph", "json")
}

// run loads the inputs named by f and merges every selected platform.
func (c *CLI) run(ctx context.Context, f *runFlags) (*pipeline.Result, error) {
	logger := loggerFromContext(ctx)

	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	doc, err := mio.ImportDocument(f.graphPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("inputs loaded",
		"config", f.configPath,
		"merge_groups", len(cfg.MergeSequence),
		"platforms", len(doc.Platforms))

	runner, err := c.newRunner(ctx, f.noCache)
	if err != nil {
		return nil, err
	}
	defer runner.Close()

	prog := newProgress(logger)
	res, err := runner.Execute(ctx, pipeline.Options{
		Config:    cfg,
		Document:  doc,
		Platforms: f.platforms,
		Refresh:   f.refresh,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	prog.done("merge complete")
	return res, nil
}

// toStdout reports whether path names standard output.
func toStdout(path string) bool {
	return path == "" || path == "-"
}

package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nativemerge/pkg/cache"
	"github.com/matzehuels/nativemerge/pkg/config"
	"github.com/matzehuels/nativemerge/pkg/errors"
	mio "github.com/matzehuels/nativemerge/pkg/io"
	"github.com/matzehuels/nativemerge/pkg/merge"
)

// MergePlatform computes the report of one platform. It does not touch any
// cache. Errors keep their code and are prefixed with the platform name.
func MergePlatform(cfg *config.Config, platform string, pg *mio.PlatformGraph, logger *log.Logger) (*mio.PlatformReport, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	start := time.Now()

	g, modules, err := pg.Build(cfg.RootModule)
	if err != nil {
		return nil, platformError(platform, err)
	}
	seq, err := cfg.Sequence()
	if err != nil {
		return nil, err
	}
	blocklist, err := cfg.BlocklistPatterns()
	if err != nil {
		return nil, err
	}

	res, err := merge.Compute(g, merge.Options{
		Sequence:  seq,
		Blocklist: blocklist,
		Modules:   modules,
		Logger:    logger.With("platform", platform),
	})
	if err != nil {
		return nil, platformError(platform, err)
	}

	rep := mio.NewPlatformReport(platform, res)
	rep.Fingerprint, err = cache.Fingerprint(rep.CanonicalMapping())
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "fingerprint mapping")
	}

	targets, libraries, merged := rep.Summary()
	logger.Info("merged platform",
		"platform", platform,
		"targets", targets,
		"libraries", libraries,
		"merged", merged,
		"fingerprint", rep.Fingerprint,
		"duration", time.Since(start))
	return rep, nil
}

// platformError wraps err under its own code so callers can still
// classify it.
func platformError(platform string, err error) error {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	return errors.Wrap(code, err, "platform %q", platform)
}

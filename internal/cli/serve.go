package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nativemerge/internal/server"
	"github.com/matzehuels/nativemerge/pkg/cache"
	"github.com/matzehuels/nativemerge/pkg/pipeline"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr        string
		cacheSize   int
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve merges over HTTP",
		Long: `Run the HTTP server. Results are cached in memory, or in Redis when
NATIVEMERGE_REDIS_URL is set. The server stops gracefully on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			var cc cache.Cache
			if os.Getenv(envRedisURL) != "" {
				shared, err := c.newCache(ctx, false)
				if err != nil {
					return err
				}
				cc = shared
			} else {
				mem, err := cache.NewMemoryCache(cacheSize)
				if err != nil {
					return err
				}
				cc = mem
			}

			runner := pipeline.NewRunner(cc, newKeyer(), logger)
			runner.Concurrency = concurrency
			defer runner.Close()

			return server.New(addr, runner, logger).ListenAndServe(ctx)
		},
	}

	defaultAddr := os.Getenv(envAddr)
	if defaultAddr == "" {
		defaultAddr = server.DefaultAddr
	}
	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listen address (env NATIVEMERGE_ADDR)")
	cmd.Flags().IntVar(&cacheSize, "cache-size", cache.DefaultMemoryEntries, "in-memory cache entries")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "platforms merged at once per request (0 = unlimited)")
	return cmd
}

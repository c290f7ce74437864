package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/dialoguegraph/pkg/cache"
	"github.com/matzehuels/dialoguegraph/pkg/pipeline"
	"github.com/matzehuels/dialoguegraph/pkg/server"
)

// serveCommand creates the serve command, which runs the HTTP API over the
// configured store.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve saved dialogues over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := c.cfg()
			if addr == "" {
				addr = cfg.Server.Addr
			}

			store, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			cc, err := newCache(noCache)
			if err != nil {
				return err
			}
			// API renders share the CLI cache directory under their own prefix.
			keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "api:"+cfg.Store.Backend+":")
			runner := pipeline.NewRunner(cc, keyer, c.Logger)
			defer runner.Close()

			srv := server.New(store, runner,
				server.WithLogger(c.Logger),
				server.WithFallback(cfg.Editor.Fallback()))

			printInfo("Serving %s store on %s", styleHighlight.Render(cfg.Store.Backend), styleValue.Render(addr))
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, "+server.DefaultAddr+")")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the render cache")
	return cmd
}

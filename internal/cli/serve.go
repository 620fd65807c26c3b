package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/menuboard/internal/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the menu API and the public directory",
		Long: `Serve starts the HTTP API used by the menu editor and the display screens.

The spreadsheet is read on every request, so the server starts even when the
sheet is not configured yet; requests then answer with a configuration error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if err := cfg.RequireSheets(); err != nil {
				logger.Warn("spreadsheet not configured", "err", err)
			}

			runner := c.newRunner(ctx, cfg)
			if err := c.attachStores(ctx, runner, cfg); err != nil {
				return err
			}
			defer runner.Close()

			srv := server.New(server.Config{
				Runner:          runner,
				Addr:            cfg.Addr(),
				PublicDir:       cfg.Assets.PublicDir,
				DefaultSVGURL:   cfg.Assets.DefaultSVGURL,
				MaxBodyBytes:    cfg.Server.MaxBodyBytes,
				ShutdownTimeout: cfg.Server.ShutdownTimeout,
				Logger:          logger,
			})
			return srv.Serve(ctx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 3000, "listen port (overrides PORT)")
	return cmd
}

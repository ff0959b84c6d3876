package cli

import (
	"github.com/spf13/cobra"

	"github.com/sakif/vocapp/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API until interrupted.

Settings come from --config, then environment variables (PORT, DB_PATH,
STORE_DRIVER, DATABASE_URL, JWT_SECRET, GITHUB_CLIENT_ID, ...).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			logger := newLogger(cmd, cfg, rootOpts, false)

			store, err := openStore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			srv, err := server.New(cfg, store, logger)
			if err != nil {
				store.Close()
				return err
			}
			return srv.Start(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "listen port (overrides config)")
	return cmd
}

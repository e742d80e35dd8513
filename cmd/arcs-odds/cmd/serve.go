package cmd

import (
	"github.com/spf13/cobra"

	"github.com/MJE43/arcs-odds/internal/api"
	"github.com/MJE43/arcs-odds/internal/config"
	"github.com/MJE43/arcs-odds/internal/logger"
)

func newServeCmd(o *options) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the odds API. Settings come from .env and ARCS_* environment
variables (ARCS_ADDR, ARCS_LOG_LEVEL, ARCS_LOG_FORMAT, ARCS_ENV,
ARCS_MAX_DICE_PER_TYPE, ARCS_CACHE_SIZE, ARCS_CACHE_TTL,
ARCS_REQUEST_TIMEOUT, ARCS_SCRIPT_TIMEOUT); flags override them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			if o.verbose {
				cfg.LogLevel = "debug"
			}

			lc := logger.DefaultConfig()
			lc.Level = cfg.LogLevel
			lc.Format = cfg.LogFormat
			lc.Environment = cfg.Environment
			lc.Version = api.EngineVersion
			log := logger.Setup(cmd.ErrOrStderr(), lc)

			return api.NewServer(cfg, log).ListenAndServe()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

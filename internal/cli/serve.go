package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/PhucNguyen204/sigma2padas/internal/metrics"
	"github.com/PhucNguyen204/sigma2padas/internal/server"
)

func NewServeCommand(opts *RootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP conversion API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(opts)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTPAddr = addr
			}
			log := opts.logger(cfg)
			conv, err := newConverter(cfg, log)
			if err != nil {
				return err
			}
			metrics.MustRegister()

			deps := server.Deps{Log: log, Converter: conv}
			if cfg.DSN != "" {
				st, db, err := openStore(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				defer db.Close()
				deps.Store = st
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.NewAppServer(deps).Run(ctx, cfg.HTTPAddr)
		},
	}
	cmd.Flags().StringVar(&addr, "http-addr", "", "listen address (default from config, :8080)")
	return cmd
}

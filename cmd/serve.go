package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hero-lab/litscreen/internal/server"
	"github.com/hero-lab/litscreen/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON review API",
	Long: `Serves the filtering and swipe endpoints. With store.database_url
configured, papers come from the catalog store and decisions persist per
reviewer; otherwise the configured dataset file is served session-locally.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var st store.Store
		if cfg.Store.DatabaseURL != "" {
			var err error
			st, err = initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
		} else {
			zap.L().Info("no store configured, serving dataset-only",
				zap.String("dataset", cfg.Dataset.Path),
			)
		}

		srv := server.New(st, cfg.Dataset.Path)
		if n, err := srv.LoadPapers(ctx); err != nil {
			// The catalog can still be (re)loaded later via /api/load.
			zap.L().Warn("initial catalog load failed", zap.Error(err))
		} else {
			zap.L().Info("catalog loaded", zap.Int("papers", n))
		}

		port := servePort
		if port <= 0 {
			port = cfg.Server.Port
		}
		return srv.Start(ctx, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "HTTP port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

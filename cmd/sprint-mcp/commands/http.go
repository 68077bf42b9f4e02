package commands

import (
	"context"
	"errors"
	"net/http"
	"time"

	"sprint-mcp/internal/api"
	"sprint-mcp/internal/jobs"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var httpAddr string

var httpCmd = &cobra.Command{
	Use:   "http",
	Short: "Serve the reports as a JSON HTTP API",
	Long: `Serves the reports over HTTP. When SYNC_CRON is set, the active sprints are
synced on that schedule while the server runs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		a, closeStore, err := newAssembler(ctx, false)
		if err != nil {
			return err
		}
		defer closeStore()

		var router http.Handler
		if cfg.SyncCron != "" && a.Client() != nil {
			cr, err := jobs.NewCron(cfg.SyncCron, cfg.Location, a, cfg.DefaultProject)
			if err != nil {
				return err
			}
			cr.Start()
			defer cr.Stop()
			router = api.NewRouter(a, cfg.Team, cr, verbose)
		} else {
			router = api.NewRouter(a, cfg.Team, nil, verbose)
		}

		addr := httpAddr
		if addr == "" {
			addr = cfg.HTTPAddr
		}
		srv := &http.Server{Addr: addr, Handler: router, ReadHeaderTimeout: 10 * time.Second}

		errc := make(chan error, 1)
		go func() {
			log.Info().Str("addr", addr).Msg("HTTP API listening")
			errc <- srv.ListenAndServe()
		}()

		select {
		case err := <-errc:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info().Msg("Shutting down HTTP API")
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	httpCmd.Flags().StringVar(&httpAddr, "addr", "", "listen address (default HTTP_ADDR)")
	rootCmd.AddCommand(httpCmd)
}

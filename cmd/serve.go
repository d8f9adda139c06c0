package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/buffer-dashboard/internal/config"
	"github.com/sells-group/buffer-dashboard/internal/dashboard"
	"github.com/sells-group/buffer-dashboard/internal/dataset"
	"github.com/sells-group/buffer-dashboard/internal/geometry"
	"github.com/sells-group/buffer-dashboard/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the datasets and serve the dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		dash := buildDashboard(ctx, cfg)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           server.New(dash, cfg.Server),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// buildDashboard loads the datasets once. A load failure does not stop the
// server: the dashboard keeps the error and serves it in every section.
func buildDashboard(ctx context.Context, c *config.Config) *dashboard.Dashboard {
	bundle, err := dataset.Load(ctx, c.Data)
	if err != nil {
		zap.L().Error("dataset load failed", zap.Error(err))
	}
	return dashboard.New(bundle, err, geometry.NewGEOS(), c.Dashboard)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

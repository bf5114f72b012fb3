package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ymkfssy/shuangse-sub001/internal/api"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Runs the HTTP API and the periodic ingestion ticker",
		RunE:  runServeCommand,
	}
}

func runServeCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	cfg := appInstance.Config()
	logger := appInstance.Logger()

	ctx, stop := context.WithCancel(cmd.Context())
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           appInstance.Server().Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go runScheduledIngestion(ctx, cfg.Schedule.Interval, appInstance.Coordinator(), logger)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			stop()
		}
		close(serveErr)
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")

	if err := <-serveErr; err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// runScheduledIngestion runs ingestion immediately and then every interval
// until ctx is done. A non-positive interval disables the ticker.
func runScheduledIngestion(ctx context.Context, interval time.Duration, ing api.Ingester, logger *zap.Logger) {
	if interval <= 0 {
		logger.Info("scheduled ingestion disabled")
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		report := ing.RunIngestion(ctx)
		logger.Info("scheduled ingestion finished",
			zap.Int("new_records", report.NewRecords),
			zap.Int("duplicates", report.Duplicates),
			zap.Bool("synthetic", report.Synthetic),
		)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// This file contains the long-running daemon command: recurring scheduler,
// HTTP control surface, and signal-driven shutdown.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"capscout/internal/browser"
	"capscout/internal/config"
	"capscout/internal/dataset"
	"capscout/internal/history"
	"capscout/internal/orchestrator"
	"capscout/internal/parser"
	"capscout/internal/scheduler"
	"capscout/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the collector daemon (scheduler + HTTP control surface)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	session := browser.NewManager(cfg.Browser, logger.Named("browser"))
	writer := dataset.NewWriter(cfg.DatasetPath)

	hist, err := history.Open(cfg.HistoryPath)
	if err != nil {
		return fmt.Errorf("open run history: %w", err)
	}
	defer hist.Close()

	orch := orchestrator.New(cfg.Run, session, parser.New(), writer, hist, logger.Named("orchestrator"))

	sched, err := scheduler.New(cfg.Schedule.Spec, cfg.Schedule.Timezone, func() {
		res := orch.Run(context.Background())
		if !res.Success {
			logger.Warn("Scheduled run failed", zap.String("run_id", res.RunID), zap.String("error", res.Error))
			return
		}
		logger.Info("Scheduled run finished", zap.String("run_id", res.RunID), zap.Int("records", res.Records))
	}, logger.Named("scheduler"))
	if err != nil {
		return err
	}

	srv := server.New(orch, writer, hist, sched.Next, logger.Named("server"))
	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: srv.Handler()}

	sched.Start()
	go func() {
		logger.Info("Control surface listening", zap.String("addr", cfg.ListenAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("Shutting down")
	<-sched.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", zap.Error(err))
	}

	session.Dispose()
	logger.Info("Shutdown complete")
	return nil
}

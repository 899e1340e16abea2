package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adrikim-mp/mparticle-web-sdk/internal/core/auth"
	"github.com/adrikim-mp/mparticle-web-sdk/internal/core/config"
	"github.com/adrikim-mp/mparticle-web-sdk/internal/core/server"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Start a development collector for gRPC uploads",
	Long: `Starts a gRPC collector that verifies signed uploads against MP_API_SECRET
and appends them to <output-dir>/uploads/YYYY-MM-DD.jsonl.`,
	Args: cobra.NoArgs,
	RunE: runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)
	collectCmd.Flags().String("host", "127.0.0.1", "gRPC server host")
	collectCmd.Flags().Int("port", 50051, "gRPC server port")
	collectCmd.Flags().String("output-dir", "./data", "directory for received uploads")
}

func runCollect(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	keyID, secret, err := config.APISecret()
	if err != nil {
		return fmt.Errorf("failed to load API secret: %w", err)
	}
	if keyID == "" {
		return fmt.Errorf("no API secret configured (set MP_API_SECRET environment variable)")
	}
	verifier := auth.NewVerifier(map[string][]byte{keyID: secret}, cfg.Collector.MaxSkew)

	collector, err := server.NewCollector(cfg.Collector.DataDir, logger)
	if err != nil {
		return fmt.Errorf("failed to create collector: %w", err)
	}

	grpcServer, err := server.NewGRPCServer(&cfg.Collector, collector, verifier)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	logger.Info("Starting collector",
		zap.String("version", Version),
		zap.String("addr", grpcServer.Addr()),
		zap.String("key_id", keyID),
		zap.String("data_dir", cfg.Collector.DataDir))

	ctx := context.Background()
	errChan := make(chan error, 1)
	go func() {
		errChan <- grpcServer.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
		logger.Info("Shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return grpcServer.Shutdown(shutdownCtx)
	}
}

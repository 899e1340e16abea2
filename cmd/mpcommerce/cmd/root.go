package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adrikim-mp/mparticle-web-sdk/internal/core/config"
	"github.com/adrikim-mp/mparticle-web-sdk/internal/core/logging"
)

const Version = "0.1.0"

var (
	configFile string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:          "mpcommerce",
	Short:        "Commerce event pipeline",
	Long:         `mpcommerce assembles commerce events, keeps per-identity carts and uploads events to a collector.`,
	Version:      Version,
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path")
	pf.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.StringVar(&logFormat, "log-format", "json", "log format (json, console)")

	pf.Int("max-products", 20, "cart capacity")
	pf.String("currency-code", "", "ISO 4217 currency code for new events")
	pf.String("storage-url", "memory://", "cart storage URL (memory://, sqlite://path, postgres://..., redis://...)")
	pf.String("transport", config.TransportNone, "upload transport (none, http, grpc)")
	pf.String("upload-url", "", "collector URL (http) or host:port (grpc)")
	pf.String("data-dir", "", "directory for the JSONL forwarder (empty disables it)")
	pf.String("identity", "", "identity whose cart is used")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// setup loads configuration and builds the logger for a command.
func setup(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	logger, err := logging.New(logLevel, logFormat)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.LoadConfig(configFile, cmd.Flags())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, logger, nil
}

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adrikim-mp/mparticle-web-sdk/internal/core/config"
	"github.com/adrikim-mp/mparticle-web-sdk/internal/ecommerce"
	"github.com/adrikim-mp/mparticle-web-sdk/internal/types"
)

var runCmd = &cobra.Command{
	Use:   "run SCRIPT",
	Short: "Replay a commerce script and print the wire payload of every event",
	Long: `Replays the calls of a YAML script through the configured cart storage,
forwarders and upload transport. Each produced event is printed to stdout as
one line of wire JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := json.NewEncoder(cmd.OutOrStdout())
		return replayScript(cmd, args[0], false, func(event *types.CommerceEvent) error {
			return enc.Encode(ecommerce.Serialize(event))
		})
	},
}

var expandCmd = &cobra.Command{
	Use:   "expand SCRIPT",
	Short: "Replay a commerce script and print the legacy fan-out of every event",
	Long: `Like run, but prints the flat legacy events each commerce event expands
to. Nothing is uploaded.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := json.NewEncoder(cmd.OutOrStdout())
		return replayScript(cmd, args[0], true, func(event *types.CommerceEvent) error {
			for _, legacy := range ecommerce.Expand(event) {
				if err := enc.Encode(legacy); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(expandCmd)
}

// replayScript wires the pipeline from configuration and replays the script
// at path. dryRun disables uploads.
func replayScript(cmd *cobra.Command, path string, dryRun bool, emit func(*types.CommerceEvent) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()
	if dryRun {
		cfg.Upload.Transport = config.TransportNone
	}

	script, err := LoadScript(path)
	if err != nil {
		return err
	}

	storage, closeStorage, err := openStorage(ctx, cfg.Storage.URL)
	if err != nil {
		return err
	}
	defer closeStorage()

	uploader, closeTransport, err := openTransport(cfg, logger)
	if err != nil {
		return err
	}
	defer closeTransport()

	registry, err := openForwarders(cfg, logger)
	if err != nil {
		return err
	}

	captured := &capturingDispatcher{next: registry}
	session := ecommerce.NewSession(logger)
	session.SetIdentity(cfg.Identity)
	if cfg.Ecommerce.CurrencyCode != "" {
		session.SetCurrencyCode(cfg.Ecommerce.CurrencyCode)
	}
	deps := ecommerce.AssemblerDeps{
		Session:     session,
		Storage:     storage,
		MaxProducts: cfg.Ecommerce.MaxProducts,
		Dispatcher:  captured,
		Logger:      logger,
	}
	if uploader != nil {
		deps.Transport = uploader
	}
	assembler := ecommerce.NewAssembler(deps)

	count := 0
	err = replay(ctx, script, assembler, captured, func(event *types.CommerceEvent) error {
		count++
		return emit(event)
	})
	logger.Info("Replayed script",
		zap.String("script", path),
		zap.Int("steps", len(script.Steps)),
		zap.Int("events", count),
		zap.String("transport", cfg.Upload.Transport),
		zap.Int("forwarders", registry.Len()))
	if err != nil {
		if errors.Is(err, types.ErrNoEntities) || errors.Is(err, types.ErrInvalidActionType) {
			return fmt.Errorf("script rejected: %w", err)
		}
		return err
	}
	return nil
}

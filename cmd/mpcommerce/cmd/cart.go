package cmd

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Inspect and clear persisted carts",
}

var cartShowCmd = &cobra.Command{
	Use:   "show [IDENTITY]",
	Short: "Print the stored products of a cart as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCartShow,
}

var cartClearCmd = &cobra.Command{
	Use:   "clear [IDENTITY]",
	Short: "Delete a stored cart",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCartClear,
}

var cartListCmd = &cobra.Command{
	Use:   "list",
	Short: "List identities with a stored cart",
	Args:  cobra.NoArgs,
	RunE:  runCartList,
}

func init() {
	rootCmd.AddCommand(cartCmd)
	cartCmd.AddCommand(cartShowCmd, cartClearCmd, cartListCmd)
}

// identityArg prefers the positional argument over the configured identity.
func identityArg(args []string, configured string) string {
	if len(args) == 1 {
		return args[0]
	}
	return configured
}

func runCartShow(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, closeStore, err := openCartStore(cmd.Context(), cfg.Storage.URL)
	if err != nil {
		return err
	}
	defer closeStore()

	products, err := store.ReadCart(cmd.Context(), identityArg(args, cfg.Identity))
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if products == nil {
		return enc.Encode([]any{})
	}
	return enc.Encode(products)
}

func runCartClear(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, closeStore, err := openCartStore(cmd.Context(), cfg.Storage.URL)
	if err != nil {
		return err
	}
	defer closeStore()

	identity := identityArg(args, cfg.Identity)
	if err := store.DeleteCart(cmd.Context(), identity); err != nil {
		return err
	}
	logger.Info("Cleared cart", zap.String("identity", identity))
	return nil
}

func runCartList(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, closeStore, err := openCartStore(cmd.Context(), cfg.Storage.URL)
	if err != nil {
		return err
	}
	defer closeStore()

	identities, err := store.ListIdentities(cmd.Context())
	if err != nil {
		return err
	}
	sort.Strings(identities)
	for _, id := range identities {
		displayID := id
		if displayID == "" {
			displayID = "(anonymous)"
		}
		fmt.Fprintln(cmd.OutOrStdout(), displayID)
	}
	return nil
}

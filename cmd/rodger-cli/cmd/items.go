package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"rodger/internal/services"
)

var itemsCmd = &cobra.Command{
	Use:   "items [query]",
	Short: "List or search registered items",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd.Context(), func(svc *services.LedgerService) error {
			if len(args) == 1 {
				renderItems(cmd.OutOrStdout(), svc.SearchItems(args[0]))
				return nil
			}
			renderItems(cmd.OutOrStdout(), svc.Items())
			return nil
		})
	},
}

var itemAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register an item",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd.Context(), func(svc *services.LedgerService) error {
			added, err := svc.AddItem(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if !added {
				fmt.Fprintln(cmd.OutOrStdout(), "Item already registered")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Item added")
			return nil
		})
	},
}

var itemDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Remove an item and mark its ledger rows as deleted",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.Join(args, " ")
		return withService(cmd.Context(), func(svc *services.LedgerService) error {
			removed, err := svc.DeleteItem(cmd.Context(), name)
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("item %q not found", name)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", name)
			return nil
		})
	},
}

var itemPopulateCmd = &cobra.Command{
	Use:   "populate",
	Short: "Seed an empty registry from item names in the ledger",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd.Context(), func(svc *services.LedgerService) error {
			n, err := svc.PopulateItems(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %d items\n", n)
			return nil
		})
	},
}

func init() {
	itemsCmd.AddCommand(itemAddCmd, itemDeleteCmd, itemPopulateCmd)
}

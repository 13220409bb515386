package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"rodger/internal/core"
	"rodger/internal/services"
)

var sayCmd = &cobra.Command{
	Use:   "say <sentence>",
	Short: "Record a transaction from a sentence",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		return withService(cmd.Context(), func(svc *services.LedgerService) error {
			out, err := svc.Record(cmd.Context(), text)
			if err != nil {
				return err
			}
			if out.Report {
				renderTransactions(cmd.OutOrStdout(), svc.Partition(svc.Today()))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded #%d in %s\n", out.Transaction.Serial, out.Transaction.Date)
			renderTransactions(cmd.OutOrStdout(), []core.Transaction{*out.Transaction})
			return nil
		})
	},
}

var parseCmd = &cobra.Command{
	Use:   "parse <sentence>",
	Short: "Show how a sentence is interpreted without recording it",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd.Context(), func(svc *services.LedgerService) error {
			renderIntent(cmd.OutOrStdout(), svc.Preview(strings.Join(args, " ")))
			return nil
		})
	},
}

var dayCmd = &cobra.Command{
	Use:   "day [DD-MM-YYYY]",
	Short: "List the transactions of one day, today by default",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := services.TodayKey
		if len(args) == 1 {
			if _, err := core.ParsePartitionKey(args[0]); err != nil {
				return err
			}
			key = args[0]
		}
		return withService(cmd.Context(), func(svc *services.LedgerService) error {
			renderTransactions(cmd.OutOrStdout(), svc.Partition(key))
			return nil
		})
	},
}

var (
	rangeFrom     string
	rangeTo       string
	rangeCustomer string
)

var rangeCmd = &cobra.Command{
	Use:   "range",
	Short: "List transactions between two dates with totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd.Context(), func(svc *services.LedgerService) error {
			from, to := rangeFrom, rangeTo
			today, err := core.ParsePartitionKey(svc.Today())
			if err != nil {
				return err
			}
			if from == "" {
				from = today.Format(core.ISOLayout)
			}
			if to == "" {
				to = today.Format(core.ISOLayout)
			}
			res, err := svc.Range(from, to, rangeCustomer)
			if err != nil {
				return err
			}
			renderEntries(cmd.OutOrStdout(), res.Entries, res.Totals)
			return nil
		})
	},
}

var (
	editCustomer string
	editItem     string
	editAmount   float64
	editDue      float64
	editPaid     float64
	editExpense  float64
)

var editCmd = &cobra.Command{
	Use:   "edit <DD-MM-YYYY> <position>",
	Short: "Edit fields of a recorded transaction",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		position, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("%w: invalid position %q", core.ErrValidation, args[1])
		}
		var patch core.TransactionPatch
		flags := cmd.Flags()
		if flags.Changed("customer") {
			patch.CustomerName = &editCustomer
		}
		if flags.Changed("item") {
			patch.ItemName = &editItem
		}
		if flags.Changed("amount") {
			patch.Amount = &editAmount
		}
		if flags.Changed("due") {
			patch.Due = &editDue
		}
		if flags.Changed("paid") {
			patch.Paid = &editPaid
		}
		if flags.Changed("expense") {
			patch.Expense = &editExpense
		}
		return withService(cmd.Context(), func(svc *services.LedgerService) error {
			tx, err := svc.UpdateTransaction(cmd.Context(), args[0], position, patch)
			if err != nil {
				return err
			}
			renderTransactions(cmd.OutOrStdout(), []core.Transaction{tx})
			return nil
		})
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <DD-MM-YYYY> <position>",
	Short: "Delete a transaction and renumber the day",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		position, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("%w: invalid position %q", core.ErrValidation, args[1])
		}
		return withService(cmd.Context(), func(svc *services.LedgerService) error {
			if err := svc.DeleteTransaction(cmd.Context(), args[0], position); err != nil {
				return err
			}
			renderTransactions(cmd.OutOrStdout(), svc.Partition(args[0]))
			return nil
		})
	},
}

func init() {
	rangeCmd.Flags().StringVar(&rangeFrom, "from", "", "start date YYYY-MM-DD (default today)")
	rangeCmd.Flags().StringVar(&rangeTo, "to", "", "end date YYYY-MM-DD (default today)")
	rangeCmd.Flags().StringVar(&rangeCustomer, "customer", "", "case-insensitive customer filter")

	editCmd.Flags().StringVar(&editCustomer, "customer", "", "customer name")
	editCmd.Flags().StringVar(&editItem, "item", "", "item name")
	editCmd.Flags().Float64Var(&editAmount, "amount", 0, "amount")
	editCmd.Flags().Float64Var(&editDue, "due", 0, "due column")
	editCmd.Flags().Float64Var(&editPaid, "paid", 0, "paid column")
	editCmd.Flags().Float64Var(&editExpense, "expense", 0, "expense column")
}

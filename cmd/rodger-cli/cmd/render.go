package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"rodger/internal/core"
)

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func renderTransactions(w io.Writer, txs []core.Transaction) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Customer", "Item", "Amount", "Due", "Paid", "Expense", "Time"})
	for _, tx := range txs {
		table.Append([]string{
			strconv.Itoa(tx.Serial), tx.CustomerName, tx.ItemName,
			money(tx.Amount), money(tx.Due), money(tx.Paid), money(tx.Expense), tx.Time,
		})
	}
	table.Render()
}

func renderEntries(w io.Writer, entries []core.Entry, totals core.Totals) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Date", "#", "Customer", "Item", "Amount", "Due", "Paid", "Expense"})
	for _, e := range entries {
		table.Append([]string{
			e.PartitionKey, strconv.Itoa(e.Serial), e.CustomerName, e.ItemName,
			money(e.Amount), money(e.Due), money(e.Paid), money(e.Expense),
		})
	}
	table.SetFooter([]string{"", "", "", fmt.Sprintf("%d rows", totals.Count),
		totals.Amount.String(), totals.Due.String(), totals.Paid.String(), totals.Expense.String()})
	table.Render()
}

func renderItems(w io.Writer, list []core.Item) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Item", "Added"})
	for _, it := range list {
		table.Append([]string{it.Name, it.Date})
	}
	table.Render()
}

func renderIntent(w io.Writer, in core.Intent) {
	if in.IsReport {
		fmt.Fprintln(w, "report request")
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Field", "Value"})
	table.Append([]string{"Customer", in.CustomerName})
	table.Append([]string{"Amount", money(in.Amount)})
	table.Append([]string{"Type", string(in.Type)})
	table.Append([]string{"Item", in.Item})
	table.Append([]string{"Date", in.DisplayDate})
	table.Append([]string{"Time", in.Time})
	table.Render()
}

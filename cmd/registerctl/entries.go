package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"creditregister/internal/core"
	"creditregister/internal/draft"
	"creditregister/internal/services"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// parseLine reads "amount" or "amount@pct", e.g. "1,000@2.5".
func parseLine(s string) (amount, pct decimal.Decimal, err error) {
	amtStr, pctStr, _ := strings.Cut(s, "@")
	if amount, err = core.ParseAmount(amtStr); err != nil {
		return amount, pct, fmt.Errorf("line %q: %w", s, err)
	}
	if pct, err = core.ParseAmount(pctStr); err != nil {
		return amount, pct, fmt.Errorf("line %q: charge: %w", s, err)
	}
	return amount, pct, nil
}

// fillLines replaces the lines of kind with specs. Values are range-checked here since
// the draft itself clamps out-of-range input.
func fillLines(d *draft.Draft, kind draft.Kind, specs []string) error {
	lines := d.Lines(kind)
	for i, spec := range specs {
		amount, pct, err := parseLine(spec)
		if err != nil {
			return err
		}
		label := fmt.Sprintf("%s line %d", kind, i+1)
		if err := core.ValidateAmount(amount, label+" amount"); err != nil {
			return err
		}
		if err := core.ValidateChargePct(pct, label+" charge"); err != nil {
			return err
		}
		id := 0
		if i > 0 {
			id = lines.Add().ID
		}
		if err := lines.Update(id, &amount, &pct); err != nil {
			return err
		}
	}
	return nil
}

const addExample = `  registerctl add --customer "Asha" --b 1000@2 --b 500@1.5
  registerctl add --customer "Ravi" --type Others --mode UPI --k 2500@1`

func addCommand(app *registerApp) *cobra.Command {
	var (
		customer, customerType, mode, remarks string
		deposits, withdrawals                 []string
	)

	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Record a new entry stamped with the current date and time",
		Example: addExample,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := draft.Default()
			d.CustomerName = customer
			d.CustomerType = core.CustomerType(customerType)
			d.PaymentMode = core.PaymentMode(mode)
			d.Remarks = remarks
			if err := fillLines(d, draft.Deposit, deposits); err != nil {
				return err
			}
			if err := fillLines(d, draft.Withdrawal, withdrawals); err != nil {
				return err
			}

			fields := d.Fields().Normalized()
			id, err := app.ledger.SaveDraft(cmd.Context(), d)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Entry #%d saved for %s. Charges %s.\n",
				id, fields.CustomerName, core.FormatRupees(fields.GrandCharges()))
			return nil
		},
	}
	cmd.Flags().StringVar(&customer, "customer", "", "customer name")
	cmd.Flags().StringVar(&customerType, "type", string(core.CustomerOffice), "customer type (Office or Others)")
	cmd.Flags().StringVar(&mode, "mode", string(core.PaymentCash), "payment mode (Cash or UPI)")
	cmd.Flags().StringVar(&remarks, "remarks", "", "free-text remarks")
	cmd.Flags().StringArrayVar(&deposits, "b", nil, "B deposit line as amount[@charge%], repeatable")
	cmd.Flags().StringArrayVar(&withdrawals, "k", nil, "K withdrawal line as amount[@charge%], repeatable")
	return cmd
}

func todayCommand(app *registerApp) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "List today's entries with totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			today := app.ledger.Today()
			entries, err := app.ledger.ListByDate(cmd.Context(), today)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No entries recorded today.")
				return nil
			}
			var sum core.Summary
			for _, e := range entries {
				sum = sum.Add(e)
			}
			if err := printEntries(out, entries); err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%d entries on %s. Total B %s, charges %s.\n",
				sum.Count, today, core.FormatRupees(sum.TotalB), core.FormatRupees(sum.TotalCharges))
			return nil
		},
	}
}

func listCommand(app *registerApp) *cobra.Command {
	var start, end, customer string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries in a date range, optionally for one customer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			today := app.ledger.Today()
			from, err := dateFlag(start, today.FirstOfMonth())
			if err != nil {
				return err
			}
			to, err := dateFlag(end, today)
			if err != nil {
				return err
			}

			var entries []core.LedgerEntry
			if customer != "" {
				entries, err = app.ledger.ListByCustomer(cmd.Context(), strings.TrimSpace(customer), from, to)
			} else {
				entries, err = app.ledger.ListByRange(cmd.Context(), from, to)
			}
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No entries found.")
				return nil
			}
			return printEntries(cmd.OutOrStdout(), entries)
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "first day, YYYY-MM-DD (default: first of this month)")
	cmd.Flags().StringVar(&end, "end", "", "last day, YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&customer, "customer", "", "exact customer name")
	return cmd
}

func updateCommand(app *registerApp) *cobra.Command {
	var (
		customer, customerType, mode, remarks string
		bAmount, bCharges, kAmount, kCharges  string
	)

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Edit the columns of an existing entry; unset flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := entryID(args[0])
			if err != nil {
				return err
			}
			entry, err := app.ledger.GetEntry(cmd.Context(), id)
			if err != nil {
				return err
			}

			f := entry.Fields()
			flags := cmd.Flags()
			if flags.Changed("customer") {
				f.CustomerName = customer
			}
			if flags.Changed("type") {
				f.CustomerType = core.CustomerType(customerType)
			}
			if flags.Changed("mode") {
				f.PaymentMode = core.PaymentMode(mode)
			}
			if flags.Changed("remarks") {
				f.Remarks = remarks
			}
			amounts := []struct {
				flag string
				val  *string
				dst  *decimal.Decimal
			}{
				{"b-amount", &bAmount, &f.BAmount},
				{"b-charges", &bCharges, &f.BCharges},
				{"k-amount", &kAmount, &f.KAmount},
				{"k-charges", &kCharges, &f.KCharges},
			}
			for _, a := range amounts {
				if !flags.Changed(a.flag) {
					continue
				}
				d, err := core.ParseAmount(*a.val)
				if err != nil {
					return fmt.Errorf("--%s: %w", a.flag, err)
				}
				*a.dst = d
			}

			if err := app.ledger.UpdateEntry(cmd.Context(), id, f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Entry #%d updated.\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&customer, "customer", "", "customer name")
	cmd.Flags().StringVar(&customerType, "type", "", "customer type (Office or Others)")
	cmd.Flags().StringVar(&mode, "mode", "", "payment mode (Cash or UPI)")
	cmd.Flags().StringVar(&remarks, "remarks", "", "free-text remarks")
	cmd.Flags().StringVar(&bAmount, "b-amount", "", "total B amount")
	cmd.Flags().StringVar(&bCharges, "b-charges", "", "B charges")
	cmd.Flags().StringVar(&kAmount, "k-amount", "", "total K amount")
	cmd.Flags().StringVar(&kCharges, "k-charges", "", "K charges")
	return cmd
}

func deleteCommand(app *registerApp) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an entry after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := entryID(args[0])
			if err != nil {
				return err
			}
			entry, err := app.ledger.GetEntry(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			flow := services.NewDeleteFlow(app.ledger)
			flow.Request(id)
			if !yes {
				fmt.Fprintf(out, "Delete entry #%d (%s, %s, charges %s)? [y/N] ",
					entry.ID, entry.CustomerName, entry.Date, core.FormatRupees(entry.GrandCharges))
				if !confirmed(cmd.InOrStdin()) {
					flow.Cancel()
					fmt.Fprintln(out, "Cancelled.")
					return nil
				}
			}

			deleted, err := flow.Confirm(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Entry #%d deleted.\n", deleted)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func confirmed(in io.Reader) bool {
	line, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func entryID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid entry id %q", s)
	}
	return id, nil
}

func dateFlag(v string, def core.Date) (core.Date, error) {
	if strings.TrimSpace(v) == "" {
		return def, nil
	}
	return core.ParseDate(v)
}

func printEntries(out io.Writer, entries []core.LedgerEntry) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "ID\tDate\tTime\tCustomer\tType\tMode\tB Amount\tK Amount\tCharges\tRemarks\t")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			e.ID, e.Date, e.Time, e.CustomerName, e.CustomerType, e.PaymentMode,
			core.FormatAmount(e.BAmount), core.FormatAmount(e.KAmount),
			core.FormatAmount(e.GrandCharges), e.Remarks)
	}
	return tw.Flush()
}

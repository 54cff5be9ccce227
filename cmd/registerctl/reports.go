package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"creditregister/internal/core"
	"creditregister/internal/export"
	"creditregister/internal/report"

	"github.com/spf13/cobra"
)

// conditionFlags turns --start/--end into a report condition. Without --end the report
// covers the single day --start (default today).
func conditionFlags(start, end string, today core.Date) (report.Condition, error) {
	from, err := dateFlag(start, today)
	if err != nil {
		return report.Condition{}, err
	}
	if strings.TrimSpace(end) == "" {
		return report.Daily(from), nil
	}
	to, err := core.ParseDate(end)
	if err != nil {
		return report.Condition{}, err
	}
	return report.Range(from, to), nil
}

func summaryCommand(app *registerApp) *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show totals and the payment mode breakdown for a day or a range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cond, err := conditionFlags(start, end, app.ledger.Today())
			if err != nil {
				return err
			}
			sum, err := app.reports.Summarize(cmd.Context(), cond)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if sum.Count == 0 {
				fmt.Fprintf(out, "No entries for %s.\n", cond.Label())
				return nil
			}
			breakdown, err := app.reports.BreakdownByPaymentMode(cmd.Context(), cond)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Summary for %s\n", cond.Label())
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "Entries\t%d\n", sum.Count)
			fmt.Fprintf(tw, "Total B\t%s\n", core.FormatRupees(sum.TotalB))
			fmt.Fprintf(tw, "Total K\t%s\n", core.FormatRupees(sum.TotalK))
			fmt.Fprintf(tw, "Total charges\t%s\n", core.FormatRupees(sum.TotalCharges))
			fmt.Fprintln(tw)
			fmt.Fprintln(tw, "Mode\tEntries\tCharges")
			for _, b := range breakdown {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", b.Mode, b.Count, core.FormatRupees(b.TotalCharges))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "day or first day, YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&end, "end", "", "last day of a range, YYYY-MM-DD")
	return cmd
}

func exportCommand(app *registerApp) *cobra.Command {
	var start, end, format, dir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the report for a day or a range as xlsx, pdf or both",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cond, err := conditionFlags(start, end, app.ledger.Today())
			if err != nil {
				return err
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}

			var docs []export.Document
			if strings.EqualFold(strings.TrimSpace(format), "all") {
				results, err := app.reports.ExportAll(cmd.Context(), cond)
				if err != nil {
					return err
				}
				// One failing format does not stop the other from being written.
				var firstErr error
				for _, f := range export.Formats() {
					res := results[f]
					if res.Err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "%s export failed: %v\n", f, res.Err)
						if firstErr == nil {
							firstErr = res.Err
						}
						continue
					}
					docs = append(docs, res.Document)
				}
				if err := writeDocuments(cmd, dir, docs); err != nil {
					return err
				}
				return firstErr
			}

			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			doc, err := app.reports.Export(cmd.Context(), cond, f)
			if err != nil {
				return err
			}
			return writeDocuments(cmd, dir, []export.Document{doc})
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "day or first day, YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&end, "end", "", "last day of a range, YYYY-MM-DD")
	cmd.Flags().StringVar(&format, "format", "all", "xlsx, pdf or all")
	cmd.Flags().StringVarP(&dir, "out", "o", ".", "output directory")
	return cmd
}

func writeDocuments(cmd *cobra.Command, dir string, docs []export.Document) error {
	for _, doc := range docs {
		path := filepath.Join(dir, doc.Filename)
		if err := os.WriteFile(path, doc.Data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", path, len(doc.Data))
	}
	return nil
}

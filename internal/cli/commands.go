package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"selfattend/internal/attendance"
)

func init() {
	rootCmd.AddCommand(toggleCmd, statusCmd, listCmd, monthCmd, chartCmd, exportCmd)
	exportCmd.Flags().StringP("output", "o", "", "write to FILE instead of stdout")
}

var toggleCmd = &cobra.Command{
	Use:   "toggle [DATE]",
	Short: "Mark or unmark a day (default today)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, closeFn, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		date, err := dateArg(sc, args)
		if err != nil {
			return err
		}
		outcome, err := sc.Toggle(cmd.Context(), date)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		day := attendance.DayOf(date).String()
		switch outcome {
		case attendance.OutcomeMarked:
			fmt.Fprintf(out, "Marked %s\n", day)
		case attendance.OutcomeUnmarked:
			fmt.Fprintf(out, "Unmarked %s\n", day)
		case attendance.OutcomeRejected:
			fmt.Fprintf(out, "%s is in the future; nothing changed\n", day)
		}
		total, _ := sc.TotalDays()
		fmt.Fprintf(out, "Total Days Present: %d\n", total)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status [DATE]",
	Short: "Show whether a day is marked (default today)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, closeFn, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		date, err := dateArg(sc, args)
		if err != nil {
			return err
		}
		marked, err := sc.IsMarked(date)
		if err != nil {
			return err
		}
		state := "not marked"
		if marked {
			state = "marked"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", attendance.DayOf(date), state)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show attendance history, newest mark first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, closeFn, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		records, err := sc.Records()
		if err != nil {
			return err
		}
		printRecords(cmd, records)
		fmt.Fprintf(cmd.OutOrStdout(), "Total Days Present: %d\n", records.CountDistinctDays())
		return nil
	},
}

var monthCmd = &cobra.Command{
	Use:   "month [YYYY-MM]",
	Short: "Show the records of one month (default current)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, closeFn, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		ym, err := monthArg(sc, args)
		if err != nil {
			return err
		}
		records, err := sc.Month(ym)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ym.Title())
		printRecords(cmd, records)
		fmt.Fprintf(cmd.OutOrStdout(), "Days present: %d\n", len(records))
		return nil
	},
}

var chartCmd = &cobra.Command{
	Use:   "chart [YYYY-MM]",
	Short: "Draw the per-day attendance bars of one month",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, closeFn, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		ym, err := monthArg(sc, args)
		if err != nil {
			return err
		}
		chart, err := sc.Chart(ym)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, chart.Title)
		for i, label := range chart.Labels {
			fmt.Fprintf(out, "%3s %s\n", label, strings.Repeat("#", chart.Series[0].Values[i]))
		}
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the full ledger as CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, closeFn, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		csv, err := sc.ExportCSV()
		if err != nil {
			return err
		}
		path, _ := cmd.Flags().GetString("output")
		if path == "" {
			fmt.Fprintln(cmd.OutOrStdout(), csv)
			return nil
		}
		if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
			return errors.Wrap(err, "write export")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

func printRecords(cmd *cobra.Command, records attendance.Ledger) {
	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, "No attendance records yet.")
		return
	}
	for _, r := range records {
		fmt.Fprintf(out, "%s at %s\n", r.DisplayDate(), r.Time)
	}
}

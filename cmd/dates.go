package cmd

import (
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/kilianp07/firmflex/core/schedule"
	"github.com/kilianp07/firmflex/pkg/export"
)

var datesFlags struct {
	financialYear string
	month         string
}

var datesCmd = &cobra.Command{
	Use:   "dates",
	Short: "Print competition qualification and bidding dates",
	Example: "  firmflex dates --financial-year 2025/26\n" +
		"  firmflex dates --month 2025-04",
	RunE: printDates,
}

func init() {
	f := datesCmd.Flags()
	f.StringVar(&datesFlags.financialYear, "financial-year", "", "financial year as YYYY/YY")
	f.StringVar(&datesFlags.month, "month", "", "single service month as YYYY-MM")
	rootCmd.AddCommand(datesCmd)
}

type monthDatesJSON struct {
	Month        string `json:"month"`
	ServiceMonth string `json:"service_month"`
	schedule.Formatted
}

func printDates(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	switch {
	case datesFlags.financialYear != "":
		table, err := schedule.ForFinancialYear(datesFlags.financialYear)
		if err != nil {
			return err
		}
		rows := lo.Map(table, func(m schedule.MonthDates, _ int) monthDatesJSON {
			return monthDatesJSON{Month: m.Month, ServiceMonth: m.ServiceMonth.Format("2006-01"), Formatted: m.Dates.Format()}
		})
		return export.WriteJSON(out, rows)
	case datesFlags.month != "":
		t, err := time.Parse("2006-01", datesFlags.month)
		if err != nil {
			return fmt.Errorf("invalid --month %q: %w", datesFlags.month, err)
		}
		d := schedule.Generate(t)
		if err := schedule.Validate(d); err != nil {
			return err
		}
		return export.WriteJSON(out, monthDatesJSON{Month: t.Month().String(), ServiceMonth: datesFlags.month, Formatted: d.Format()})
	default:
		return fmt.Errorf("one of --financial-year or --month is required")
	}
}

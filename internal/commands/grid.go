package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"caltodo/internal/dates"
)

func addGrid(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "grid [YYYY-MM]",
		Short: "print the Monday-first grid of a month",
		Example: `
caltodo grid
caltodo grid 2024-09
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := ""
			if len(args) == 1 {
				v = args[0]
			}
			now := time.Now()
			year, month, err := resolveMonth(v, now)
			if err != nil {
				return err
			}
			printGrid(cmd.OutOrStdout(), year, month, dates.FromTime(now))
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}

func printGrid(w io.Writer, year int, month time.Month, today dates.Date) {
	bold := color.New(color.Bold, color.Underline)
	highlight := color.New(color.FgHiYellow, color.Bold)

	tbl := uitable.New()
	tbl.Separator = " "
	header := make([]interface{}, 0, len(dates.WeekdayLabels))
	for _, l := range dates.WeekdayLabels {
		header = append(header, l)
	}
	tbl.AddRow(header...)

	for _, week := range dates.MonthGrid(year, month) {
		if week == [7]int{} {
			continue
		}
		row := make([]interface{}, 0, len(week))
		for _, day := range week {
			switch {
			case day == 0:
				row = append(row, "")
			case dates.New(year, month, day) == today:
				row = append(row, highlight.Sprintf("%2d", day))
			default:
				row = append(row, fmt.Sprintf("%2d", day))
			}
		}
		tbl.AddRow(row...)
	}

	_, _ = fmt.Fprintln(w, bold.Sprint(dates.Title(year, month)))
	_, _ = fmt.Fprintln(w, tbl)
}

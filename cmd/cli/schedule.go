package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var weekdayNames = map[int]string{
	1: "Mon", 2: "Tue", 3: "Wed", 4: "Thu", 5: "Fri", 6: "Sat", 7: "Sun",
}

// scheduleCmd represents the schedule command
var scheduleCmd = &cobra.Command{
	Use:   "schedule <shop>",
	Short: "Show a shop's supplier order schedule",
	Long: `Print the supplier order schedule for a shop: each supplier's order
weekdays and delivery lead time, as parsed from the shop's schedule sheet.`,
	Example: `  catalog-service schedule 7`,
	Args:    cobra.ExactArgs(1),
	RunE:    runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	shop := args[0]

	s, err := buildStack(ctx)
	if err != nil {
		return err
	}

	if err := s.resolver.RefreshNow(ctx); err != nil {
		return fmt.Errorf("failed to build index: %w", err)
	}

	snap := s.resolver.Snapshot()
	if snap == nil {
		return fmt.Errorf("no snapshot published")
	}

	schedules, ok := snap.Schedules[shop]
	if !ok {
		return fmt.Errorf("no schedule table for shop %s", shop)
	}

	codes := make([]string, 0, len(schedules))
	for code := range schedules {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SUPPLIER\tNAME\tORDER DAYS\tLEAD DAYS")
	for _, code := range codes {
		sched := schedules[code]
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n",
			sched.SupplierCode, sched.SupplierName, formatWeekdays(sched.OrderWeekdays), sched.LeadDays)
	}
	return w.Flush()
}

func formatWeekdays(days []int) string {
	names := make([]string, 0, len(days))
	for _, d := range days {
		if name, ok := weekdayNames[d]; ok {
			names = append(names, name)
		}
	}
	return strings.Join(names, ",")
}

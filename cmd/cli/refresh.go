package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// refreshCmd represents the refresh command
var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Build the catalog index and report its stats",
	Long: `Fetch the catalog and per-shop schedule sheets from the backing store,
build the resolution index and print a summary.`,
	Args: cobra.NoArgs,
	RunE: runRefresh,
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	s, err := buildStack(ctx)
	if err != nil {
		return err
	}

	if err := s.resolver.RefreshNow(ctx); err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}

	snap := s.resolver.Snapshot()
	if snap == nil {
		return fmt.Errorf("no snapshot published after refresh")
	}

	fmt.Printf("Index built at %s\n", snap.BuiltAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("  products: %d\n", len(snap.Products))
	fmt.Printf("  shops with schedules: %d\n", len(snap.Schedules))
	if skipped := snap.SkippedCatalogRows + snap.SkippedScheduleRows; skipped > 0 {
		fmt.Printf("  skipped rows: %d (%d catalog, %d schedule)\n",
			skipped, snap.SkippedCatalogRows, snap.SkippedScheduleRows)
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shopbot/catalog-service/internal/resolver"
)

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve <article> <shop>",
	Short: "Resolve an article against a shop's catalog",
	Long: `Resolve an article number within a shop to its product, supplier and the
next order/delivery dates derived from the shop's supplier schedule.`,
	Example: `  catalog-service resolve 12345 7
  catalog-service resolve 00123 9 --config ./config/config.yaml`,
	Args: cobra.ExactArgs(2),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	s, err := buildStack(ctx)
	if err != nil {
		return err
	}

	result, err := s.resolver.Resolve(ctx, args[0], args[1])
	if err != nil {
		if resolver.IsNotFound(err) {
			return fmt.Errorf("article %s not found in shop %s", args[0], args[1])
		}
		return fmt.Errorf("resolution failed: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Article:\t%s\n", result.Article)
	fmt.Fprintf(w, "Shop:\t%s\n", result.Shop)
	fmt.Fprintf(w, "Name:\t%s\n", result.Name)
	if result.Department != "" {
		fmt.Fprintf(w, "Department:\t%s\n", result.Department)
	}
	fmt.Fprintf(w, "Supplier:\t%s\n", formatSupplier(result.SupplierCode, result.SupplierName))
	fmt.Fprintf(w, "Supplier status:\t%s\n", result.Supplier)
	if result.OrderDate != nil {
		fmt.Fprintf(w, "Order date:\t%s\n", result.OrderDate.Format("02.01.2006"))
	}
	if result.DeliveryDate != nil {
		fmt.Fprintf(w, "Delivery date:\t%s\n", result.DeliveryDate.Format("02.01.2006"))
	}
	if result.NeedsReview {
		fmt.Fprintf(w, "Needs review:\tyes (lowest assortment tier)\n")
	}
	if result.FromShop != "" {
		fmt.Fprintf(w, "Found via shop:\t%s\n", result.FromShop)
	}
	return w.Flush()
}

func formatSupplier(code, name string) string {
	switch {
	case code == "" && name == "":
		return "-"
	case name == "":
		return code
	case code == "":
		return name
	default:
		return fmt.Sprintf("%s (%s)", name, code)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shopbot/catalog-service/internal/types"
)

// userCmd represents the user command
var userCmd = &cobra.Command{
	Use:   "user <id>",
	Short: "Look up a user in the staff directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runUser,
}

func init() {
	rootCmd.AddCommand(userCmd)
}

func runUser(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	s, err := buildStack(ctx)
	if err != nil {
		return err
	}

	user, err := s.users.Lookup(ctx, args[0])
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return fmt.Errorf("user %s not found", args[0])
		}
		return fmt.Errorf("directory lookup failed: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%s\n", user.ID)
	if user.Name != "" {
		fmt.Fprintf(w, "Name:\t%s\n", user.Name)
	}
	fmt.Fprintf(w, "Surname:\t%s\n", user.Surname)
	if user.Position != "" {
		fmt.Fprintf(w, "Position:\t%s\n", user.Position)
	}
	if user.Shop != "" {
		fmt.Fprintf(w, "Shop:\t%s\n", user.Shop)
	}
	return w.Flush()
}

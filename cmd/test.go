package cmd

import (
	"fmt"
	"os"

	"github.com/sawantshivaji1997/notionsync/src/config"
	"github.com/spf13/cobra"
)

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Check the token and database access",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel, cfg, err := setup(cmd)
		if err != nil {
			return err
		}
		defer cancel()

		if err := config.TestConnection(ctx, cfg); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Database %s is reachable.\n", cfg.Notion.DatabaseID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(testCmd)
}

package cmd

import (
	"fmt"
	"os"

	"github.com/sawantshivaji1997/notionsync/src/config"
	"github.com/sawantshivaji1997/notionsync/src/report"
	"github.com/spf13/cobra"
)

// previewCmd represents the preview command
var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show the diff a sync would apply to the vault",
	Long: "Run the sync without writing anything and print a unified diff for " +
		"every file that would be created or updated.",
	Args: cobra.NoArgs,
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().StringVar(&pageID, "page", "",
		"UUID of a single page of the database to preview")
	previewCmd.Flags().StringVar(&since, "since", "",
		"Only preview pages edited at or after this time (RFC3339)")
	previewCmd.Flags().BoolVar(&force, "force", false,
		"Ignore the cache and preview every page")
}

func runPreview(cmd *cobra.Command, args []string) error {
	filter, err := parseFilter()
	if err != nil {
		return err
	}

	ctx, cancel, cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cancel()

	result, err := config.PreviewSync(ctx, cfg, config.SyncOptions{Filter: filter, Force: force})
	if result == nil {
		return err
	}

	r := report.Build(cfg.Notion.DatabaseID, result)
	if len(r.Planned) == 0 {
		fmt.Fprintln(os.Stderr, "Nothing to change.")
	}
	fmt.Fprint(os.Stdout, r.Diffs())
	return err
}

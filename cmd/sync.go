package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sawantshivaji1997/notionsync/src/config"
	"github.com/sawantshivaji1997/notionsync/src/orchestrator"
	"github.com/sawantshivaji1997/notionsync/src/report"
	"github.com/spf13/cobra"
)

var pageID string
var since string
var force bool
var dryRun bool
var jsonReport bool

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync the database pages into the vault",
	Long: "Fetch every page of the configured database that changed since the " +
		"last run and write it as a Markdown file into the vault. Use --page to " +
		"sync a single page and --since to only consider recently edited pages.",
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringVar(&pageID, "page", "",
		"UUID of a single page of the database to sync")
	syncCmd.Flags().StringVar(&since, "since", "",
		"Only sync pages edited at or after this time (RFC3339)")
	syncCmd.Flags().BoolVar(&force, "force", false,
		"Ignore the cache and process every page again")
	syncCmd.Flags().BoolVar(&dryRun, "dry-run", false,
		"Compute the changes without writing any file")
	syncCmd.Flags().BoolVar(&jsonReport, "json", false,
		"Print the run report as JSON instead of Markdown")
}

func parseFilter() (orchestrator.Filter, error) {
	filter := orchestrator.Filter{PageID: pageID}
	if since == "" {
		return filter, nil
	}

	modifiedSince, err := time.Parse(time.RFC3339, since)
	if err != nil {
		return filter, errors.Wrapf(err, "invalid --since value %q", since)
	}
	filter.ModifiedSince = modifiedSince
	return filter, nil
}

func runSync(cmd *cobra.Command, args []string) error {
	filter, err := parseFilter()
	if err != nil {
		return err
	}

	ctx, cancel, cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cancel()

	syncOpts := config.SyncOptions{Filter: filter, Force: force}
	var result *orchestrator.SyncResult
	if dryRun {
		result, err = config.PreviewSync(ctx, cfg, syncOpts)
	} else {
		result, err = config.RunSync(ctx, cfg, syncOpts)
	}
	if result == nil {
		return err
	}

	if perr := printReport(report.Build(cfg.Notion.DatabaseID, result)); perr != nil {
		return perr
	}
	if err != nil {
		return err
	}
	if result.Failed > 0 {
		return fmt.Errorf("%d page(s) failed to sync", result.Failed)
	}
	return nil
}

func printReport(r *report.Report) error {
	if jsonReport {
		return r.WriteJSON(os.Stdout)
	}
	_, err := fmt.Fprint(os.Stdout, r.Markdown())
	return err
}

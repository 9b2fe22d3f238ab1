package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/sawantshivaji1997/notionsync/src/config"
	"github.com/spf13/cobra"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or reset the local sync cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the number of cached pages and the last sync time",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel, cfg, err := setup(cmd)
		if err != nil {
			return err
		}
		defer cancel()

		summary, err := config.CacheStats(ctx, cfg)
		if err != nil {
			return err
		}

		lastSynced := "never"
		if !summary.LastSynced.IsZero() {
			lastSynced = summary.LastSynced.Local().Format(time.RFC3339)
		}
		fmt.Fprintf(os.Stdout, "Backend:     %s\n", summary.Backend)
		fmt.Fprintf(os.Stdout, "Path:        %s\n", summary.Path)
		fmt.Fprintf(os.Stdout, "Entries:     %d\n", summary.Entries)
		fmt.Fprintf(os.Stdout, "Last synced: %s\n", lastSynced)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget every cached page so the next sync processes all of them",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel, cfg, err := setup(cmd)
		if err != nil {
			return err
		}
		defer cancel()

		removed, err := config.ClearCache(ctx, cfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Removed %d cache entries.\n", removed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	cachepkg "github.com/vestra-data/signalgate/pkg/cache/sqlite"
	"github.com/vestra-data/signalgate/pkg/config"
)

func newCacheCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the response cache",
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openCache(configPath)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			stats, err := c.Stats()
			if err != nil {
				return err
			}
			fmt.Printf("Entries: %d\nHits:    %d\nMisses:  %d\n", stats.Entries, stats.Hits, stats.Misses)
			return nil
		},
	}

	var retentionDays int
	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete entries older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openCache(configPath)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			if retentionDays == 0 {
				cfg, err := config.LoadOrDefault(configPath)
				if err != nil {
					return err
				}
				retentionDays = cfg.Cache.RetentionDays
			}
			n, err := c.Sweep(retentionDays)
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d entries older than %d days.\n", n, retentionDays)
			return nil
		},
	}
	sweepCmd.Flags().IntVar(&retentionDays, "days", 0, "retention window in days (default from config)")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear all cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openCache(configPath)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			if err := c.Clear(); err != nil {
				return err
			}
			fmt.Println("All cache entries cleared.")
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "signalgate.yaml", "path to config file")
	cmd.AddCommand(statsCmd, sweepCmd, clearCmd)
	return cmd
}

func openCache(configPath string) (*cachepkg.Cache, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, err
	}
	return cachepkg.New(cfg.CacheDBPath)
}

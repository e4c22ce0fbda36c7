package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vestra-data/signalgate/pkg/config"
	"github.com/vestra-data/signalgate/pkg/logging"
	"github.com/vestra-data/signalgate/pkg/storage"
)

func newFetchCmd() *cobra.Command {
	var configPath string
	var dateStr string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download a day's news and rss databases from object storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(configPath)
			if err != nil {
				return err
			}
			logging.Setup(cfg.Log.Level, cfg.Log.Pretty)

			day := time.Now()
			if dateStr != "" {
				day, err = time.Parse("2006-01-02", dateStr)
				if err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
			}

			client, err := storage.New(cfg.Storage)
			if err != nil {
				return err
			}

			for _, kind := range []string{"news", "rss"} {
				path, err := client.DownloadDB(cmd.Context(), kind, day)
				if err != nil {
					if storage.IsNotFound(err) {
						fmt.Printf("%s: not available for %s\n", kind, day.Format("2006-01-02"))
						continue
					}
					return err
				}
				fmt.Printf("%s: %s\n", kind, path)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "signalgate.yaml", "path to config file")
	cmd.Flags().StringVar(&dateStr, "date", "", "day to fetch (YYYY-MM-DD, default today)")
	return cmd
}

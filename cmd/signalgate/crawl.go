package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vestra-data/signalgate/pkg/config"
	"github.com/vestra-data/signalgate/pkg/feed"
	"github.com/vestra-data/signalgate/pkg/logging"
	"github.com/vestra-data/signalgate/pkg/storage"
)

func newCrawlCmd() *cobra.Command {
	var configPath string
	var upload bool

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl the configured RSS feeds into today's database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(configPath)
			if err != nil {
				return err
			}
			logging.Setup(cfg.Log.Level, cfg.Log.Pretty)

			today := time.Now()
			dbPath := feed.DBPath("rss", today)

			crawler := feed.NewCrawler(cfg.Feeds)
			n, err := crawler.Crawl(cmd.Context(), dbPath)
			if err != nil {
				return err
			}
			fmt.Printf("Stored %d new items in %s\n", n, dbPath)

			if upload {
				client, err := storage.New(cfg.Storage)
				if err != nil {
					return err
				}
				if err := client.UploadDB(cmd.Context(), "rss", today, dbPath); err != nil {
					return err
				}
				fmt.Println("Uploaded to object storage.")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "signalgate.yaml", "path to config file")
	cmd.Flags().BoolVar(&upload, "upload", false, "upload the crawled database to object storage")
	return cmd
}

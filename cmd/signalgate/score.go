package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	cachepkg "github.com/vestra-data/signalgate/pkg/cache/sqlite"
	"github.com/vestra-data/signalgate/pkg/config"
	"github.com/vestra-data/signalgate/pkg/gateway"
	"github.com/vestra-data/signalgate/pkg/logging"
	"github.com/vestra-data/signalgate/pkg/pipeline"
	"github.com/vestra-data/signalgate/pkg/storage"
	"github.com/vestra-data/signalgate/pkg/store"
	newssync "github.com/vestra-data/signalgate/pkg/sync"
)

func newScoreCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score today's headlines and publish high-value items",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(configPath)
			if err != nil {
				return err
			}
			logging.Setup(cfg.Log.Level, cfg.Log.Pretty)

			if cfg.Metrics.Listen != "" {
				go func() {
					mux := http.NewServeMux()
					mux.Handle("/metrics", promhttp.Handler())
					if err := http.ListenAndServe(cfg.Metrics.Listen, mux); err != nil {
						log.Warn().Err(err).Msg("metrics listener stopped")
					}
				}()
			}

			var cache gateway.ResponseCache
			if cfg.Cache.Enabled {
				c, err := cachepkg.New(cfg.CacheDBPath)
				if err != nil {
					return err
				}
				defer func() { _ = c.Close() }()
				// Best-effort retention sweep, once per process.
				if _, err := c.Sweep(cfg.Cache.RetentionDays); err != nil {
					log.Warn().Err(err).Msg("cache sweep failed")
				}
				cache = c
			}

			gw := gateway.New(
				gateway.NewOpenRouterTransport(cfg.Gateway),
				cache,
				gateway.NewGuard(cfg.Gateway.FreeOnly, cfg.Gateway.FreeMarker),
				gateway.RetryPolicy{
					MaxRetries:     cfg.Gateway.MaxRetries,
					BaseDelay:      cfg.Gateway.BaseDelay,
					TransientDelay: cfg.Gateway.TransientDelay,
				},
			)

			st, err := store.New(cfg.NewsDBPath)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			var publisher *newssync.Publisher
			publisher, err = newssync.New(cfg.Sync)
			if err != nil {
				if !errors.Is(err, newssync.ErrNotConfigured) {
					return err
				}
				log.Info().Msg("sync not configured, skipping remote publish")
				publisher = nil
			}

			var objstore *storage.Client
			objstore, err = storage.New(cfg.Storage)
			if err != nil {
				if !errors.Is(err, storage.ErrNotConfigured) {
					return err
				}
				log.Info().Msg("object storage not configured, using local databases")
				objstore = nil
			}

			paths := storage.PrepareSources(cmd.Context(), objstore, time.Now())
			if len(paths) == 0 {
				return fmt.Errorf("no news or rss databases found")
			}

			items, err := store.LoadItems(paths, cfg.Scoring.ItemLimit)
			if err != nil {
				return err
			}
			log.Info().Int("items", len(items)).Strs("sources", paths).Msg("starting scoring run")

			p := pipeline.New(gw, st, publisher, cfg.Gateway, cfg.Scoring)
			sum, err := p.Run(cmd.Context(), items)
			if err != nil {
				return err
			}

			fmt.Printf("Processed:  %d\nHigh value: %d\nSynced:     %d\n", sum.Processed, sum.HighValue, sum.Synced)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "signalgate.yaml", "path to config file")
	return cmd
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "signalgate",
		Short:   "Financial news scoring with a cached, free-tier-guarded LLM gateway",
		Version: version,
	}

	root.AddCommand(
		newCrawlCmd(),
		newScoreCmd(),
		newCacheCmd(),
		newFetchCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

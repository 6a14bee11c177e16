// Command scorecard scores, ranks and clusters index constituents from the
// command line.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "scorecard",
		Short: "Score, rank and cluster index constituents",
		Long: `scorecard loads a constituent snapshot (CSV file, SQLite table or S3
object), scores every record on Income, Pricing, Size, Liquidity and
Profit, ranks the working set and groups similar constituents.`,
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "YAML config file (default: $CONFIG_FILE)")
	flags.String("file", "", "constituent CSV; overrides the configured snapshot source")
	flags.String("sector", "", "sector to analyse (default: all sectors)")
	flags.String("metric", "", "metric to sort and rank by (default: Weight)")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	flags.Bool("json", false, "print JSON instead of a table")

	root.AddCommand(newSectorsCmd())
	root.AddCommand(newScoreCmd())
	root.AddCommand(newRankCmd())
	root.AddCommand(newClustersCmd())

	return root
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aristath/scorecard/internal/config"
	"github.com/aristath/scorecard/internal/di"
	"github.com/aristath/scorecard/internal/modules/clustering"
	"github.com/aristath/scorecard/internal/modules/dashboard"
	"github.com/aristath/scorecard/internal/modules/scoring/domain"
	"github.com/aristath/scorecard/pkg/logger"
)

// session is one loaded snapshot plus the selection from flags
type session struct {
	records []domain.RawRecord
	service *dashboard.Service
	req     dashboard.Request
	asJSON  bool
	out     io.Writer
}

// openSession loads the snapshot named by the flags
func openSession(cmd *cobra.Command) (*session, error) {
	configFile, _ := cmd.Flags().GetString("config")
	file, _ := cmd.Flags().GetString("file")
	sector, _ := cmd.Flags().GetString("sector")
	metric, _ := cmd.Flags().GetString("metric")
	level, _ := cmd.Flags().GetString("log-level")
	asJSON, _ := cmd.Flags().GetBool("json")

	if configFile == "" {
		configFile = os.Getenv("CONFIG_FILE")
	}
	cfg, err := config.LoadFrom(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if file != "" {
		cfg.Snapshot.Source = config.SourceFile
		cfg.Snapshot.Path = file
	}

	log := logger.New(logger.Config{
		Level:  level,
		Output: cmd.ErrOrStderr(),
	})

	container, err := di.InitializeDatabases(cfg, log)
	if err != nil {
		return nil, err
	}
	defer container.Close()

	if err := di.InitializeServices(cmd.Context(), container, cfg, log); err != nil {
		return nil, err
	}

	snap, err := container.Store.Reload(cmd.Context())
	if err != nil {
		return nil, err
	}

	return &session{
		records: snap.Records,
		service: container.Service,
		req:     dashboard.Request{Sector: sector, Metric: metric},
		asJSON:  asJSON,
		out:     cmd.OutOrStdout(),
	}, nil
}

func (s *session) writeJSON(v interface{}) error {
	enc := json.NewEncoder(s.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// --- Sectors Command ---

type sectorsOutput struct {
	Sectors []string        `json:"sectors"`
	Metrics []domain.Metric `json:"metrics"`
}

func newSectorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sectors",
		Short: "List the sectors and metrics that can be selected",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}

			out := sectorsOutput{Sectors: dashboard.Sectors(s.records), Metrics: domain.Metrics}
			if s.asJSON {
				return s.writeJSON(out)
			}

			fmt.Fprintln(s.out, "Sectors:")
			for _, sector := range out.Sectors {
				fmt.Fprintf(s.out, "  %s\n", sector)
			}
			fmt.Fprintln(s.out, "Metrics:")
			for _, m := range out.Metrics {
				fmt.Fprintf(s.out, "  %s\n", m)
			}
			return nil
		},
	}
}

// --- Score Command ---

func newScoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score",
		Short: "Print the scored table of the working set",
		Long:  "Print every record of the working set with its factor scores, sorted by --metric (Weight keeps file order).",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}

			table, err := s.service.Table(s.records, s.req)
			if err != nil {
				return err
			}
			if s.asJSON {
				return s.writeJSON(table)
			}

			tw := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "TICKER\tNAME\tSECTOR\tWEIGHT\tINCOME\tPRICING\tSIZE\tLIQUIDITY\tPROFIT\n")
			for _, r := range table.Rows {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\n",
					r.Ticker, r.Name, r.Sector, formatOptional(r.Weight, "%.4f"),
					r.Income, r.Pricing, r.Size, r.Liquidity, r.Profit)
			}
			return tw.Flush()
		},
	}
}

// --- Rank Command ---

func newRankCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Print the top constituents by --metric",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			s.req.TopN, _ = cmd.Flags().GetInt("top")

			ranked, err := s.service.Ranking(s.records, s.req)
			if err != nil {
				return err
			}
			if s.asJSON {
				return s.writeJSON(ranked)
			}

			fmt.Fprintf(s.out, "Top %d by %s (%s)\n", ranked.TopN, ranked.Metric, ranked.Sector)
			tw := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "RANK\tTICKER\tNAME\t%s\tINCOME\tPRICING\tSIZE\tLIQUIDITY\tPROFIT\n", strings.ToUpper(string(ranked.Metric)))
			for _, e := range ranked.Radar {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s", e.Rank, e.Ticker, e.Name, formatOptional(e.Value, "%.4f"))
				for _, p := range e.Points {
					fmt.Fprintf(tw, "\t%.3f", p.Score)
				}
				fmt.Fprintln(tw)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().Int("top", 0, "number of constituents to show (default: configured top N, max 10)")
	return cmd
}

// --- Clusters Command ---

func newClustersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clusters",
		Short: "Project the working set to two axes and group similar constituents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			if err := applyClusterFlags(cmd, &s.req); err != nil {
				return err
			}

			view, err := s.service.Clusters(s.records, s.req)
			if err != nil {
				return err
			}
			if s.asJSON {
				return s.writeJSON(view)
			}

			if !view.Available {
				fmt.Fprintf(s.out, "Similarity map unavailable: %s\n", view.Reason)
				return nil
			}

			fmt.Fprintf(s.out, "Explained variance: PC1 %.1f%%, PC2 %.1f%% (total %.1f%%)\n",
				view.ExplainedVariance[0]*100, view.ExplainedVariance[1]*100, view.TotalExplained*100)
			fmt.Fprintf(s.out, "Clusters: %d, outliers: %d (eps %.2f, min samples %d)\n",
				view.NumClusters, view.NumOutliers, view.Params.Eps, view.Params.MinSamples)

			tw := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "TICKER\tNAME\tSECTOR\tPC1\tPC2\tCLUSTER\n")
			for _, p := range view.Points {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%.3f\t%.3f\t%s\n", p.Ticker, p.Name, p.Sector, p.PC1, p.PC2, p.Label)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().Float64("eps", 0, "neighbourhood radius (default: configured eps)")
	cmd.Flags().Int("min-samples", 0, "neighbours needed for a core point (default: configured value)")
	return cmd
}

// applyClusterFlags copies --eps and --min-samples into req. An explicit
// zero is rejected since the service reads zero as "use the default".
func applyClusterFlags(cmd *cobra.Command, req *dashboard.Request) error {
	if cmd.Flags().Changed("eps") {
		eps, _ := cmd.Flags().GetFloat64("eps")
		if eps == 0 {
			return fmt.Errorf("%w: eps must be positive", clustering.ErrInvalidParams)
		}
		req.Clustering.Eps = eps
	}
	if cmd.Flags().Changed("min-samples") {
		n, _ := cmd.Flags().GetInt("min-samples")
		if n == 0 {
			return fmt.Errorf("%w: min samples must be at least 1", clustering.ErrInvalidParams)
		}
		req.Clustering.MinSamples = n
	}
	return nil
}

func formatOptional(v *float64, format string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}

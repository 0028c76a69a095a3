package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Veraticus/riskflow/internal/cli"
	"github.com/Veraticus/riskflow/internal/frame"
	"github.com/Veraticus/riskflow/internal/ingest"
	"github.com/Veraticus/riskflow/internal/model"
	"github.com/Veraticus/riskflow/internal/rfm"
	"github.com/Veraticus/riskflow/internal/risk"
)

// clusterFlags are the clustering overrides shared by label and trainset.
type clusterFlags struct {
	clusters int
	seed     int64
}

func (c *clusterFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&c.clusters, "clusters", "k", 0, "number of clusters (default from config)")
	cmd.Flags().Int64Var(&c.seed, "seed", 0, "random seed (default from config)")
}

func (a *app) riskConfig(cmd *cobra.Command, c clusterFlags) risk.Config {
	rc := a.cfg.RiskConfig()
	if cmd.Flags().Changed("clusters") {
		rc.Clusters = c.clusters
	}
	if cmd.Flags().Changed("seed") {
		rc.Seed = c.seed
	}
	return rc
}

// labelCustomers summarizes f into RFM and runs the risk labeler on it.
func labelCustomers(cmd *cobra.Command, f *frame.Frame, rc risk.Config) (*model.RFMTable, *risk.Labeler, *risk.Result, error) {
	table, err := rfm.Summarize(f)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("RFM summary failed: %w", err)
	}

	labeler, err := risk.NewLabeler(rc)
	if err != nil {
		return nil, nil, nil, err
	}

	res, err := labeler.Label(table)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("labeling failed: %w", err)
	}

	stderr := cmd.ErrOrStderr()
	for _, w := range res.Warnings {
		fmt.Fprintln(stderr, cli.FormatWarning(w))
	}
	return table, labeler, res, nil
}

func (a *app) labelCmd() *cobra.Command {
	var (
		flags  clusterFlags
		out    string
		save   bool
		fromDB bool
		quiet  bool
	)

	cmd := &cobra.Command{
		Use:   "label [csv]",
		Short: "Assign proxy high-risk labels to customers",
		Long: `Cluster customers on standardized RFM values and label members of the
least engaged cluster as high risk (is_high_risk = 1).

With --from-db the imported transactions are used instead of a file.

Examples:
  riskflow label data.csv --out labels.csv
  riskflow label --from-db --seed 7 --save`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var f *frame.Frame
			switch {
			case fromDB:
				store, err := a.initStorage(ctx)
				if err != nil {
					return err
				}
				defer func() { _ = store.Close() }()
				if f, err = store.LoadTransactions(ctx); err != nil {
					return err
				}
			case len(args) == 1:
				var err error
				if f, err = readTable(ctx, args[0]); err != nil {
					return err
				}
			default:
				return fmt.Errorf("either a CSV file or --from-db is required")
			}

			table, labeler, res, err := labelCustomers(cmd, f, a.riskConfig(cmd, flags))
			if err != nil {
				return err
			}

			if err := writeTo(out, cmd.OutOrStdout(), func(w io.Writer) error {
				return ingest.WriteLabels(w, res.Labels)
			}); err != nil {
				return err
			}

			stderr := cmd.ErrOrStderr()
			if !quiet && len(res.Profiles) > 0 {
				fmt.Fprintln(stderr, cli.FormatTitle("Cluster profiles"))
				if err := cli.RenderProfiles(stderr, res.Profiles); err != nil {
					return err
				}
			}

			if save {
				store, err := a.initStorage(ctx)
				if err != nil {
					return err
				}
				defer func() { _ = store.Close() }()

				run := res.Run(labeler.Config(), table)
				if err := store.SaveLabelingRun(ctx, run); err != nil {
					return fmt.Errorf("failed to save labeling run: %w", err)
				}
				fmt.Fprintln(stderr, cli.FormatInfo("Saved run "+run.ID))
			}

			fmt.Fprintln(stderr, cli.FormatSuccess(fmt.Sprintf(
				"Labeled %d customers, %d high risk", len(res.Labels), res.HighRiskCount())))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", stdio, "output CSV path (- for stdout)")
	cmd.Flags().BoolVar(&save, "save", false, "persist the run to the database")
	cmd.Flags().BoolVar(&fromDB, "from-db", false, "label imported transactions instead of a file")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print cluster profiles")

	return cmd
}

package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Veraticus/riskflow/internal/cli"
	"github.com/Veraticus/riskflow/internal/common"
	"github.com/Veraticus/riskflow/internal/ingest"
)

func (a *app) runsCmd() *cobra.Command {
	list := a.runsListCmd()
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect saved labeling runs",
		Long:  "Inspect saved labeling runs. Without a subcommand the runs are listed.",
		Args:  cobra.NoArgs,
		RunE:  list.RunE,
	}

	cmd.AddCommand(list)
	cmd.AddCommand(a.runsShowCmd())
	cmd.AddCommand(a.runsExportCmd())
	cmd.AddCommand(a.runsDeleteCmd())

	return cmd
}

func (a *app) runsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved labeling runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := a.initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			runs, err := store.ListLabelingRuns(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, cli.InfoStyle.Render("No labeling runs found. Use 'riskflow label --save' to create one."))
				return nil
			}
			return cli.RenderRuns(out, runs)
		},
	}
}

func (a *app) runsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show the cluster profiles of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			run, err := store.GetLabelingRun(ctx, args[0])
			if err != nil {
				return notFound(err, args[0])
			}

			out := cmd.OutOrStdout()
			summary := fmt.Sprintf("  • Customers: %d (%d high risk)\n", run.Customers, run.HighRiskCount()) +
				fmt.Sprintf("  • Clusters: %d, seed %d\n", run.Clusters, run.Seed) +
				fmt.Sprintf("  • Created: %s", run.CreatedAt.Local().Format("2006-01-02 15:04"))
			fmt.Fprintln(out, cli.RenderBox("Run "+run.ID, summary))
			for _, w := range run.Warnings {
				fmt.Fprintln(out, cli.FormatWarning(w))
			}
			if len(run.Profiles) == 0 {
				return nil
			}
			return cli.RenderProfiles(out, run.Profiles)
		},
	}
}

func (a *app) runsExportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write the labels of a run as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if _, err := store.GetLabelingRun(ctx, args[0]); err != nil {
				return notFound(err, args[0])
			}
			labels, err := store.GetRunLabels(ctx, args[0])
			if err != nil {
				return err
			}

			return writeTo(out, cmd.OutOrStdout(), func(w io.Writer) error {
				return ingest.WriteLabels(w, labels)
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", stdio, "output CSV path (- for stdout)")

	return cmd
}

func (a *app) runsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a run and its labels",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteLabelingRun(ctx, args[0]); err != nil {
				return notFound(err, args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted run "+args[0]))
			return nil
		},
	}
}

func notFound(err error, id string) error {
	if errors.Is(err, common.ErrNotFound) {
		return common.NewUserError(fmt.Sprintf("no labeling run with id %s", id), nil)
	}
	return err
}

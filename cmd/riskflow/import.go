package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Veraticus/riskflow/internal/cli"
	"github.com/Veraticus/riskflow/internal/common"
)

func (a *app) importCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import <files...>",
		Short: "Import transactions from CSV or OFX/QFX files",
		Long: `Import transactions into the local database. CSV files must carry the full
raw schema; OFX/QFX statements are mapped onto it with the account as the
customer. Rows already imported are skipped.

Examples:
  riskflow import data/raw/data.csv
  riskflow import ~/Downloads/*.qfx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := expandFiles(args)
			if err != nil {
				return err
			}

			stderr := cmd.ErrOrStderr()
			handler := cli.NewInterruptHandler(stderr, "Import")
			ctx := handler.HandleInterrupts(cmd.Context())
			defer handler.Stop()

			store, err := a.initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			bar := progressbar.NewOptions(len(files),
				progressbar.OptionSetWriter(stderr),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("[cyan][bold]Importing files...[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(stderr)
				}),
			)

			var parsed, inserted, failed int
			for _, path := range files {
				if ctx.Err() != nil {
					break
				}

				txns, err := readTransactions(ctx, path)
				if err != nil {
					failed++
					common.LogError(err, "Failed to import file", common.Fields{"file": filepath.Base(path)})
					_ = bar.Add(1)
					continue
				}
				parsed += len(txns)

				if !dryRun && len(txns) > 0 {
					n, err := store.SaveTransactions(ctx, txns)
					if err != nil {
						return fmt.Errorf("failed to save %s: %w", path, err)
					}
					inserted += n
				}
				if err := bar.Add(1); err != nil {
					slog.Warn("Failed to update progress bar", "error", err)
				}
			}

			summary := fmt.Sprintf("  • Files: %d (%d failed)\n", len(files), failed) +
				fmt.Sprintf("  • Transactions parsed: %d\n", parsed)
			if dryRun {
				summary += "  • Dry run: nothing saved"
			} else {
				summary += fmt.Sprintf("  • New transactions saved: %d", inserted)
			}
			fmt.Fprintln(stderr, cli.RenderBox("Import Complete", summary))

			if failed == len(files) {
				return fmt.Errorf("no files could be imported")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "parse files without saving")

	return cmd
}

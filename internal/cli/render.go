package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/riskflow/internal/model"
)

const timeLayout = "2006-01-02 15:04"

func writeHeader(w io.Writer, widths []int, names ...string) {
	styled := make([]string, len(names))
	rules := make([]string, len(names))
	for i, n := range names {
		styled[i] = TableHeaderStyle.Render(n)
		rules[i] = strings.Repeat("-", widths[i])
	}
	fmt.Fprintln(w, strings.Join(styled, "\t"))
	fmt.Fprintln(w, strings.Join(rules, "\t"))
}

// RenderProfiles writes ranked cluster profiles as a table. The high-risk
// cluster is marked.
func RenderProfiles(out io.Writer, profiles model.ClusterProfiles) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	writeHeader(w, []int{4, 7, 4, 8, 9, 9, 9},
		"Rank", "Cluster", "Size", "Recency", "Frequency", "Monetary", "Risk")

	for _, p := range profiles {
		fmt.Fprintf(w, "%d\t%d\t%d\t%.1f\t%.1f\t%.2f\t%s\n",
			p.Rank, p.Index, p.Size, p.MeanRecency, p.MeanFreq, p.MeanMonetary, RiskBadge(p.HighRisk))
	}
	return w.Flush()
}

// RenderRuns writes labeling run metadata as a table.
func RenderRuns(out io.Writer, runs []model.LabelingRun) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	writeHeader(w, []int{36, 16, 8, 4, 9, 10},
		"ID", "Created", "Clusters", "Seed", "Customers", "Snapshot")

	for _, r := range runs {
		snapshot := SubtleStyle.Render("(none)")
		if !r.Snapshot.IsZero() {
			snapshot = r.Snapshot.UTC().Format("2006-01-02")
		}
		clusters := fmt.Sprint(r.Clusters)
		if r.Degenerate {
			clusters += WarningStyle.Render(" !")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
			r.ID, r.CreatedAt.Local().Format(timeLayout), clusters, r.Seed, r.Customers, snapshot)
	}
	return w.Flush()
}

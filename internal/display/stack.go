package display

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/shayne-snap/llmroof/internal/stack"
)

// Stack prints a stack suggestion: one table per category, then architecture, cost, timeline and risks.
func Stack(out io.Writer, s *stack.Suggestion, useJSON bool) {
	if useJSON {
		writeJSON(out, map[string]interface{}{"suggestion": s})
		return
	}
	title := s.Requirements.ProjectName
	if title == "" {
		title = "LLM Stack"
	}
	fmt.Fprintf(out, "\n=== %s ===\n", title)
	fmt.Fprintf(out, "Aggregate score: %.1f / %d\n", s.AggregateScore, stack.MaxScore)

	for _, cat := range s.Categories {
		fmt.Fprintf(out, "\n--- %s ---\n", cat.Category)
		if len(cat.Recommended) == 0 {
			fmt.Fprintln(out, "No eligible components.")
			continue
		}
		tbl := tablewriter.NewWriter(out)
		tbl.Header("Rank", "Component", "Score", "Maturity", "$/month", "Why")
		for i, sc := range cat.Recommended {
			tbl.Append(componentRow(fmt.Sprintf("%d", i+1), sc))
		}
		for _, sc := range cat.Alternatives {
			tbl.Append(componentRow("alt", sc))
		}
		_ = tbl.Render()
		for _, sc := range cat.Recommended {
			if len(sc.Concerns) > 0 {
				fmt.Fprintf(out, "  %s: %s\n", sc.Component.Name, strings.Join(sc.Concerns, "; "))
			}
		}
	}

	fmt.Fprintf(out, "\nArchitecture: %s\n  %s\n", s.Architecture, s.Architecture.Description())

	fmt.Fprintf(out, "\nEstimated cost: $%s / month (data size x%s)\n", s.Cost.MonthlyUSD.StringFixed(2), s.Cost.Multiplier.String())
	cats := make([]string, 0, len(s.Cost.Breakdown))
	for c := range s.Cost.Breakdown {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	for _, c := range cats {
		fmt.Fprintf(out, "  %-18s $%s\n", c, s.Cost.Breakdown[c].StringFixed(2))
	}

	fmt.Fprintf(out, "\nTimeline: %d weeks\n", s.Timeline.TotalWeeks)
	for _, p := range s.Timeline.Phases {
		fmt.Fprintf(out, "  %-12s %d wk\n", p.Name, p.Weeks)
	}

	if len(s.Risks) > 0 {
		fmt.Fprintln(out, "\nRisks:")
		for _, r := range s.Risks {
			fmt.Fprintf(out, "  - %s\n", r)
		}
	}
	fmt.Fprintln(out)
}

func componentRow(rank string, sc stack.ComponentScore) []string {
	why := "-"
	if len(sc.Reasons) > 0 {
		why = sc.Reasons[0]
		if len(sc.Reasons) > 1 {
			why += fmt.Sprintf(" (+%d)", len(sc.Reasons)-1)
		}
	}
	return []string{
		rank,
		sc.Component.Name,
		fmt.Sprintf("%.1f", sc.Score),
		sc.Component.Maturity,
		fmt.Sprintf("%.0f", sc.Component.MonthlyCostUSD),
		why,
	}
}

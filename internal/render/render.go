// Package render prints the run summary to the terminal, styled when stdout
// is a TTY.
package render

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/AshwaSec21/Threat2PCyA-Deterministic/internal/mapper"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle  = lipgloss.NewStyle().Bold(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	badStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyles = map[mapper.Status]lipgloss.Style{
		mapper.StatusMitigated:     okStyle,
		mapper.StatusPartial:       warnStyle,
		mapper.StatusNotMitigated:  badStyle,
		mapper.StatusNotApplicable: subtleStyle,
	}
)

// StatusCounts tallies results per coverage status in ladder order.
func StatusCounts(results []mapper.Result) map[mapper.Status]int {
	counts := make(map[mapper.Status]int, 4)
	for _, r := range results {
		counts[r.Status]++
	}
	return counts
}

// Summary writes the run summary. When styled is false every style is
// dropped and plain text is written, for pipes and files.
func Summary(w io.Writer, out *mapper.Output, styled bool) {
	style := func(s lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return s.Render(text)
	}

	d := out.Diagnostics
	fmt.Fprintln(w, style(titleStyle, "Threat → PCyA mapping"))
	fmt.Fprintf(w, "  threats %d  rules %d  rows %d  unmapped %d  gate-excluded %d\n",
		d.Stats.Threats, d.Stats.Rules, d.Stats.Results, d.Stats.Unmapped, d.Stats.Exclusions)

	fmt.Fprintln(w, style(headerStyle, "Status"))
	counts := StatusCounts(out.Results)
	for _, st := range []mapper.Status{
		mapper.StatusMitigated, mapper.StatusPartial, mapper.StatusNotMitigated, mapper.StatusNotApplicable,
	} {
		if n := counts[st]; n > 0 {
			fmt.Fprintf(w, "  %s %d\n", style(statusStyles[st], string(st)), n)
		}
	}

	if len(d.StrayThreatIDs) > 0 {
		fmt.Fprintf(w, "%s stray requirement ids on threats: %v\n",
			style(badStyle, "CONTRACT VIOLATION:"), d.StrayThreatIDs)
	}
	if d.Err != nil {
		fmt.Fprintf(w, "%s %v\n", style(warnStyle, "diagnostics failed:"), d.Err)
	}
}

// Diagnostics writes the full diagnostics bundle as plain text.
func Diagnostics(w io.Writer, d *mapper.Diagnostics) {
	fmt.Fprintf(w, "Token alignment: required %d, matrix %d, intersection %d\n",
		d.Alignment.RequiredCount, d.Alignment.MatrixCount, d.Alignment.IntersectionCount)
	writeList(w, "  only required", d.Alignment.OnlyRequired)
	writeList(w, "  only matrix", d.Alignment.OnlyMatrix)
	writeList(w, "  intersection", d.Alignment.Intersection)

	if len(d.Missing) > 0 {
		fmt.Fprintln(w, "Missing controls:")
		for _, mc := range d.Missing {
			if mc.Title != "" {
				fmt.Fprintf(w, "  %s — %s (SL-C %d)\n", mc.Token, mc.Title, mc.Level)
			} else {
				fmt.Fprintf(w, "  %s\n", mc.Token)
			}
		}
	}

	if len(d.Unmapped) > 0 {
		fmt.Fprintln(w, "Unmapped threats (no description-key match):")
		for _, u := range d.Unmapped {
			fmt.Fprintf(w, "  %s %s key=%q\n", u.ThreatID, u.ThreatTitle, u.DescKey)
		}
	}

	if len(d.Exclusions) > 0 {
		fmt.Fprintln(w, "Asset-gate exclusions:")
		for _, ex := range d.Exclusions {
			fmt.Fprintf(w, "  threat %s token %s rid %s required=%v record=%v allocation=%v\n",
				ex.ThreatID, ex.Token, ex.RID, ex.Required, ex.RecordAssets, ex.Allocation)
		}
	}

	if len(d.ThreatKeyPreviews) > 0 {
		fmt.Fprintln(w, "Threat key previews:")
		for _, p := range d.ThreatKeyPreviews {
			fmt.Fprintf(w, "  %s desc=%q title=%q\n", p.ID, p.DescKey, p.TitleKey)
		}
	}
	if len(d.RuleKeyPreviews) > 0 {
		fmt.Fprintln(w, "Rule key previews:")
		for _, p := range d.RuleKeyPreviews {
			fmt.Fprintf(w, "  %q desc=%q\n", p.Title, p.DescKey)
		}
	}

	writeList(w, "Description keys in both", d.DescIntersectionSample)
	writeList(w, "Description keys only in threats", d.DescOnlyThreatsSample)
	writeList(w, "Description keys only in rules", d.DescOnlyRulesSample)
}

func writeList(w io.Writer, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "%s (%d):\n", label, len(items))
	for _, it := range items {
		fmt.Fprintf(w, "    %s\n", it)
	}
}

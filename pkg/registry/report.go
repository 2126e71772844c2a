package registry

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/cyberkunju/NREGA-sub000/pkg/alias"
)

// WriteReport renders a human-readable summary of the artifact: coverage,
// method counts, exclusions grouped by reason, collisions and override
// warnings. Output is deterministic for a given artifact.
func WriteReport(w io.Writer, a *Artifact, warns []alias.Warning) error {
	s := a.Summary
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "District mapping report\n\n")
	fmt.Fprintf(tw, "source regions\t%d\n", s.TotalSource)
	fmt.Fprintf(tw, "target regions\t%d\n", s.TotalTarget)
	fmt.Fprintf(tw, "mapped\t%d\n", s.Mapped)
	fmt.Fprintf(tw, "excluded\t%d\n", s.Excluded)
	fmt.Fprintf(tw, "coverage\t%.2f%%\n", s.CoveragePercent)
	fmt.Fprintf(tw, "collisions\t%d\n", s.Collisions)
	fmt.Fprintf(tw, "targets without data\t%d\n", s.UnmappedTargets)
	if s.InvalidTargets > 0 {
		fmt.Fprintf(tw, "invalid target rows\t%d\n", s.InvalidTargets)
	}
	if s.DuplicateSourceRows > 0 {
		fmt.Fprintf(tw, "merged source rows\t%d\n", s.DuplicateSourceRows)
	}

	if len(s.Methods) > 0 {
		fmt.Fprintf(tw, "\nBy method\n")
		for _, m := range sortedKeys(s.Methods) {
			fmt.Fprintf(tw, "  %s\t%d\n", m, s.Methods[m])
		}
	}

	if len(a.Excluded) > 0 {
		byReason := make(map[string][]string)
		for k, x := range a.Excluded {
			byReason[x.Reason] = append(byReason[x.Reason], k)
		}
		reasons := make([]string, 0, len(byReason))
		for r := range byReason {
			reasons = append(reasons, r)
		}
		sort.Strings(reasons)

		fmt.Fprintf(tw, "\nExcluded\n")
		for _, r := range reasons {
			keys := byReason[r]
			sort.Strings(keys)
			fmt.Fprintf(tw, "  %s (%d)\n", r, len(keys))
			for _, k := range keys {
				fmt.Fprintf(tw, "    %s\t%s\n", k, describeExclusion(a.Excluded[k]))
			}
		}
	}

	if len(a.Collisions) > 0 {
		fmt.Fprintf(tw, "\nCollisions (provisional, need adjudication)\n")
		ids := make([]string, 0, len(a.Collisions))
		for id := range a.Collisions {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			var parts []string
			for _, k := range a.Collisions[id] {
				m := a.Mappings[k]
				parts = append(parts, fmt.Sprintf("%s (%s %.2f)", k, m.Method, m.Confidence))
			}
			fmt.Fprintf(tw, "  %s\t%s\n", id, strings.Join(parts, ", "))
		}
	}

	if len(warns) > 0 {
		fmt.Fprintf(tw, "\nOverride warnings\n")
		for _, wn := range warns {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", wn.Kind, wn.Subject, wn.Message)
		}
	}
	return tw.Flush()
}

func describeExclusion(x ExclusionRecord) string {
	var parts []string
	if x.ParentAggregationTarget != "" {
		parts = append(parts, "parent "+x.ParentAggregationTarget)
	}
	if len(x.Candidates) > 0 {
		ids := make([]string, len(x.Candidates))
		for i, c := range x.Candidates {
			ids[i] = string(c)
		}
		parts = append(parts, "candidates "+strings.Join(ids, ","))
	}
	if x.BestCandidate != "" {
		parts = append(parts, fmt.Sprintf("closest %s at %.4f", x.BestCandidate, x.BestScore))
	}
	if x.Note != "" && x.BestCandidate == "" {
		parts = append(parts, x.Note)
	}
	return strings.Join(parts, "; ")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

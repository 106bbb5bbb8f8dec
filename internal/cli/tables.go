package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/tally/internal/mapping"
	"github.com/Veraticus/tally/internal/model"
)

const maxDescriptionWidth = 48

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}

// RenderTransactions writes one row per transaction.
func RenderTransactions(w io.Writer, txns []model.Transaction) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "DATE\tAMOUNT\tTAG\tCONF\tCATEGORY\tDESCRIPTION")
	for _, txn := range txns {
		category := txn.Category
		if txn.Subcategory != "" {
			category += " / " + txn.Subcategory
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			txn.Date.Format("2006-01-02"),
			model.FormatAmount(txn.Amount),
			FormatTag(txn.Tag),
			FormatConfidence(txn.ClassificationConfidence),
			category,
			truncate(txn.Description, maxDescriptionWidth),
		)
	}
	return tw.Flush()
}

// RenderRules writes one row per learned rule followed by its conditions.
func RenderRules(w io.Writer, rules []model.LearnedRule) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "TAG\tCONF\tASSIGNMENTS\tUSES\tCONDITIONS")
	for _, rule := range rules {
		conditions := make([]string, 0, len(rule.Conditions))
		for _, c := range rule.Conditions {
			conditions = append(conditions, fmt.Sprintf("%s=%q", c.Type, c.Value))
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
			FormatTag(rule.Tag),
			FormatConfidence(rule.Confidence),
			rule.AssignmentsCount,
			rule.UsageCount,
			strings.Join(conditions, ", "),
		)
	}
	return tw.Flush()
}

// RenderMappings writes the mapping table.
func RenderMappings(w io.Writer, entries []mapping.Entry) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "CATEGORY\tSUBCATEGORY\tTAG")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Category, e.Subcategory, FormatTag(e.Tag))
	}
	return tw.Flush()
}

// RenderStatistics renders learning statistics in a box.
func RenderStatistics(stats model.Statistics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Assignments: %d\n", stats.TotalAssignments)

	tags := make([]string, 0, len(stats.AssignmentsByTag))
	for tag := range stats.AssignmentsByTag {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	for _, tag := range tags {
		fmt.Fprintf(&b, "  • %s: %d\n", tag, stats.AssignmentsByTag[tag])
	}

	fmt.Fprintf(&b, "Rules generated: %d\n", stats.RulesGenerated)
	fmt.Fprintf(&b, "Learned rule hits: %d", stats.LearnedRuleHits)
	if stats.LastSynthesisAt != nil {
		fmt.Fprintf(&b, "\nLast synthesis: %s", stats.LastSynthesisAt.Format("2006-01-02 15:04"))
	}

	return RenderBox(ChartIcon+" Learning", b.String())
}

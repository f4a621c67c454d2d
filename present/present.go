// Package present renders warehouse results and batch summaries for the
// CLI: tab-separated rows for a single run, and a debug pretty-printer
// for anything that needs full structural inspection.
package present

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/k0kubun/pp/v3"

	"github.com/dnsdga/lindef/batch"
	"github.com/dnsdga/lindef/util"
	"github.com/dnsdga/lindef/warehouse"
)

// Rows writes one tab-separated line per row.
func Rows(w io.Writer, rows []warehouse.Row) {
	for _, row := range rows {
		parts := util.TransformSlice(row.Values, func(v any) string { return fmt.Sprintf("%v", v) })
		fmt.Fprintln(w, strings.Join(parts, "\t| "))
	}
}

// Debug pretty-prints any value (a parsed rule, a compiled Options, a
// warehouse.Row) for ad hoc troubleshooting.
func Debug(w io.Writer, v any) {
	printer := pp.New()
	printer.SetOutput(w)
	printer.Println(v)
}

// Summary renders a batch.Summary: per-rule timing stats, a grand total,
// and the cross-rule client membership table.
func Summary(w io.Writer, s *batch.Summary) {
	for name, stats := range util.CanonicalMapIter(s.PerRule) {
		fmt.Fprintf(w, "*** RESULTS FOR %s EXECUTION TIME ***\n", name)
		fmt.Fprintf(w, "Max:\t%s\nMin:\t%s\nMean:\t%s\nStd deriv:\t%s\n\n", stats.Max, stats.Min, stats.Mean, stats.StdDev)
	}

	fmt.Fprintln(w, "*** TOTAL EXECUTION TIME ***")
	fmt.Fprintf(w, "Max:\t%s\nMin:\t%s\nMean:\t%s\nStd deriv:\t%s\n\n", s.Total.Max, s.Total.Min, s.Total.Mean, s.Total.StdDev)

	fmt.Fprintf(w, "All results: %d\n", len(s.ClientRules))
	for c, rules := range util.CanonicalMapIter(s.ClientRules) {
		sorted := append([]string(nil), rules...)
		sort.Strings(sorted)
		fmt.Fprintf(w, "%s: %s\n", c, strings.Join(sorted, ", "))
	}
}

package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/heartmarshall/italian-lexicon/internal/app/importer"
)

// printSummary writes one row per phase that ran, in canonical order.
func printSummary(w io.Writer, results map[string]importer.PhaseResult, order []string) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PHASE\tINSERTED\tUPDATED\tSKIPPED\tERRORS\tDURATION\tSTATUS")
	for _, name := range order {
		r, ok := results[name]
		if !ok {
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			name, r.Inserted, r.Updated, r.Skipped, r.Errors, r.Duration.Round(time.Millisecond), status(r))
	}
	_ = tw.Flush()

	for _, name := range order {
		r, ok := results[name]
		if !ok || len(r.Reasons) == 0 {
			continue
		}
		parts := make([]string, 0, len(r.Reasons))
		for _, reason := range slices.Sorted(maps.Keys(r.Reasons)) {
			parts = append(parts, fmt.Sprintf("%s=%d", reason, r.Reasons[reason]))
		}
		fmt.Fprintf(w, "%s skipped: %s\n", name, strings.Join(parts, " "))
	}
}

func status(r importer.PhaseResult) string {
	switch {
	case r.Err != nil:
		return "failed: " + r.Err.Error()
	case r.Errors > 0:
		return "errors"
	}
	return "ok"
}

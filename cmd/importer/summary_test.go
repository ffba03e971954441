package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/heartmarshall/italian-lexicon/internal/app/importer"
)

func TestPrintSummary(t *testing.T) {
	results := map[string]importer.PhaseResult{
		importer.PhaseMorphology: {
			Updated:  4,
			Skipped:  9,
			Reasons:  map[string]int{"verb_pos_excluded": 7, "not_in_lexicon": 2},
			Duration: 1500 * time.Millisecond,
		},
		importer.PhaseLexicon: {Inserted: 30},
		importer.PhaseVerify:  {Errors: 1},
		importer.PhaseFormOf:  {Err: errors.New("precondition failed")},
	}

	var buf bytes.Buffer
	printSummary(&buf, results, importer.AllPhases())
	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")

	if !strings.HasPrefix(lines[0], "PHASE") {
		t.Fatalf("missing header, got %q", lines[0])
	}
	// Canonical order, phases that did not run are absent.
	wantOrder := []string{"lexicon", "morphology", "formof", "verify"}
	for i, name := range wantOrder {
		if !strings.HasPrefix(lines[i+1], name) {
			t.Errorf("row %d = %q, want phase %s", i+1, lines[i+1], name)
		}
	}
	if strings.Contains(out, "orthography") {
		t.Error("summary lists a phase that did not run")
	}
	if !strings.Contains(out, "failed: precondition failed") {
		t.Error("failed phase status missing")
	}
	if !strings.Contains(out, "morphology skipped: not_in_lexicon=2 verb_pos_excluded=7") {
		t.Errorf("reason breakdown missing or unsorted:\n%s", out)
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		r    importer.PhaseResult
		want string
	}{
		{"ok", importer.PhaseResult{Inserted: 1}, "ok"},
		{"errors", importer.PhaseResult{Errors: 2}, "errors"},
		{"failed", importer.PhaseResult{Err: errors.New("boom")}, "failed: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := status(tt.r); got != tt.want {
				t.Errorf("status() = %q, want %q", got, tt.want)
			}
		})
	}
}

// Package wiktextract streams Italian entries out of a Wiktextract JSONL dump.
//
// Each line is one JSON object. Lines with a forms table and no form_of sense
// are lemma entries; lines whose senses declare form_of are inflection
// pointers. Entries of other parts of speech are ignored.
package wiktextract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/heartmarshall/italian-lexicon/internal/app/importer/lines"
	"github.com/heartmarshall/italian-lexicon/internal/domain"
)

const (
	// maxLineSize caps one JSONL entry (16 MB).
	maxLineSize = 16 << 20

	sourceName = "wiktextract"
)

// Malformed-line reasons.
const (
	ReasonInvalidJSON = "invalid_json"
	ReasonMissingWord = "missing_word"
)

// posCodes maps Wiktextract part-of-speech codes onto the stored vocabulary.
var posCodes = map[string]domain.PartOfSpeech{
	"verb": domain.PartOfSpeechVerb,
	"noun": domain.PartOfSpeechNoun,
	"adj":  domain.PartOfSpeechAdjective,
}

// Handlers receive decoded entries. A nil handler skips that kind of entry.
// A non-nil error returned by a handler aborts the read.
type Handlers struct {
	Lemma  func(LemmaEntry) error
	FormOf func(FormOfEntry) error
}

// Stats summarizes one pass over the dump.
type Stats struct {
	TotalLines     int
	MalformedLines int
	OtherPOS       int
	LemmaEntries   int
	FormOfEntries  int
	Malformed      map[string]int
	DroppedForms   map[string]int
}

func newStats() Stats {
	return Stats{Malformed: make(map[string]int), DroppedForms: make(map[string]int)}
}

// ReadFile opens path and streams it through Read.
func ReadFile(ctx context.Context, path string, pos []domain.PartOfSpeech, h Handlers, logger *slog.Logger) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return newStats(), fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	return Read(ctx, f, pos, h, logger)
}

// Read streams the dump, dispatching entries of the requested parts of speech.
// Malformed lines are counted and logged at debug level; they never abort the read.
func Read(ctx context.Context, r io.Reader, pos []domain.PartOfSpeech, h Handlers, logger *slog.Logger) (Stats, error) {
	stats := newStats()
	wanted := make(map[domain.PartOfSpeech]bool, len(pos))
	for _, p := range pos {
		wanted[p] = true
	}

	lr := lines.NewReader(r, maxLineSize)
	for {
		line, tooLong, err := lr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("read line: %w", err)
		}

		stats.TotalLines++
		if stats.TotalLines%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
		}

		if tooLong {
			malformed(logger, &stats, stats.TotalLines, lines.ReasonTooLong)
			continue
		}
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var entry rawEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			malformed(logger, &stats, stats.TotalLines, ReasonInvalidJSON)
			continue
		}
		if strings.TrimSpace(entry.Word) == "" {
			malformed(logger, &stats, stats.TotalLines, ReasonMissingWord)
			continue
		}

		p, ok := posCodes[entry.POS]
		if !ok || !wanted[p] {
			stats.OtherPOS++
			continue
		}

		if entry.hasFormOf() {
			if h.FormOf == nil {
				continue
			}
			for _, fo := range formOfEntries(&entry, p) {
				stats.FormOfEntries++
				if err := h.FormOf(fo); err != nil {
					return stats, err
				}
			}
			continue
		}

		if !isLemmaEntry(&entry) || h.Lemma == nil {
			continue
		}
		le := buildLemmaEntry(&entry, p)
		stats.LemmaEntries++
		for reason, n := range le.Dropped {
			stats.DroppedForms[reason] += n
		}
		if err := h.Lemma(le); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

func malformed(logger *slog.Logger, stats *Stats, line int, reason string) {
	stats.MalformedLines++
	stats.Malformed[reason]++
	if logger != nil {
		logger.Debug("malformed record", slog.Any("error", domain.NewMalformedRecord(sourceName, line, reason)))
	}
}

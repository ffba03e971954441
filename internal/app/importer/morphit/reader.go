// Package morphit reads the Morph-it! morphological lexicon.
// File format: one "form\tlemma\ttags" entry per line, ISO-8859-1 encoded.
package morphit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/heartmarshall/italian-lexicon/internal/app/importer/lines"
	"github.com/heartmarshall/italian-lexicon/internal/domain"
)

const (
	sourceName = "morphit"

	// ReasonFieldCount marks a line without exactly three tab-separated fields.
	ReasonFieldCount = "field_count"

	maxLineSize = 64 * 1024
)

// tagPrefixes maps Morph-it! tag prefixes onto parts of speech.
var tagPrefixes = []struct {
	prefix string
	pos    domain.PartOfSpeech
}{
	{prefix: "VER:", pos: domain.PartOfSpeechVerb},
	{prefix: "NOUN-", pos: domain.PartOfSpeechNoun},
	{prefix: "ADJ:", pos: domain.PartOfSpeechAdjective},
}

// Lexicon maps a normalized key to the attested spelling, per part of speech.
type Lexicon map[domain.PartOfSpeech]map[string]string

// Lookup returns the spelling recorded for key under pos.
func (l Lexicon) Lookup(pos domain.PartOfSpeech, key string) (string, bool) {
	s, ok := l[pos][key]
	return s, ok
}

// Stats holds reader statistics for logging.
type Stats struct {
	TotalLines     int
	MalformedLines int
	OtherPOS       int
	Entries        int
}

func (s *Stats) malformed(logger *slog.Logger, reason string) {
	s.MalformedLines++
	if logger != nil {
		logger.Debug("malformed record", slog.Any("error", domain.NewMalformedRecord(sourceName, s.TotalLines, reason)))
	}
}

// PartOfSpeech maps a Morph-it! tag string to a part of speech.
func PartOfSpeech(tags string) (domain.PartOfSpeech, bool) {
	for _, p := range tagPrefixes {
		if strings.HasPrefix(tags, p.prefix) {
			return p.pos, true
		}
	}
	return "", false
}

// ReadFile opens path and reads it with Read.
func ReadFile(ctx context.Context, path string, logger *slog.Logger) (Lexicon, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	return Read(ctx, f, logger)
}

// Read decodes the lexicon. The first spelling seen for a (pos, key) pair wins.
func Read(ctx context.Context, r io.Reader, logger *slog.Logger) (Lexicon, Stats, error) {
	lex := make(Lexicon, len(tagPrefixes))
	for _, p := range tagPrefixes {
		lex[p.pos] = make(map[string]string)
	}
	var stats Stats

	lr := lines.NewReader(charmap.ISO8859_1.NewDecoder().Reader(r), maxLineSize)
	for {
		raw, tooLong, err := lr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("read line: %w", err)
		}

		stats.TotalLines++
		if stats.TotalLines%100000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}
		}

		if tooLong {
			stats.malformed(logger, lines.ReasonTooLong)
			continue
		}
		line := strings.TrimSpace(string(raw))
		if line == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) != 3 {
			stats.malformed(logger, ReasonFieldCount)
			continue
		}

		pos, ok := PartOfSpeech(fields[2])
		if !ok {
			stats.OtherPOS++
			continue
		}

		key := domain.NormalizeKey(fields[0])
		if _, seen := lex[pos][key]; seen {
			continue
		}
		lex[pos][key] = fields[0]
		stats.Entries++
	}
	return lex, stats, nil
}

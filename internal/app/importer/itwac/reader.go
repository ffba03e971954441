// Package itwac reads ItWaC lemma frequency lists.
// Files are comma-separated, ISO-8859-1 encoded, with a header row
// (Form,Freq,lemma,POS,mode,POS2,fpmw,Zipf). Only lemma and Freq are used.
package itwac

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/encoding/charmap"

	"github.com/heartmarshall/italian-lexicon/internal/domain"
)

const (
	// Corpus is the corpus name stored with every frequency record.
	Corpus = "itwac"

	// DefaultCorpusSize is the ItWaC token count.
	DefaultCorpusSize = 1.9e9

	sourceName = "itwac"
)

// Malformed-row reasons.
const (
	ReasonMissingLemma = "missing_lemma"
	ReasonInvalidFreq  = "invalid_freq"
	ReasonFieldCount   = "field_count"
)

var requiredColumns = []string{"lemma", "Freq"}

// Count is the aggregated frequency of one normalized lemma.
type Count struct {
	Raw  int64
	Zipf float64
}

// Stats holds reader statistics for logging.
type Stats struct {
	TotalRows     int
	MalformedRows int
	Lemmas        int
	Malformed     map[string]int
}

type row struct {
	Lemma string `validate:"required"`
	Freq  int64  `validate:"gte=0"`
}

var validate = validator.New()

// Zipf converts a raw count into a Zipf score: log10 of the per-million
// frequency plus 3. Non-positive counts score 0.
func Zipf(freq int64, corpusSize float64) float64 {
	if freq <= 0 || corpusSize <= 0 {
		return 0
	}
	return math.Log10(float64(freq)*1e6/corpusSize) + 3
}

// ReadFile opens path and reads it with Read.
func ReadFile(ctx context.Context, path string, corpusSize float64, logger *slog.Logger) (map[string]Count, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	return Read(ctx, f, corpusSize, logger)
}

// Read sums Freq per normalized lemma. A header without the lemma or Freq
// column is a fatal error; bad rows are counted and skipped.
func Read(ctx context.Context, r io.Reader, corpusSize float64, logger *slog.Logger) (map[string]Count, Stats, error) {
	stats := Stats{Malformed: make(map[string]int)}

	cr := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(r))
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, stats, fmt.Errorf("%s: empty file", sourceName)
		}
		return nil, stats, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, stats, fmt.Errorf("%s: header missing column %q", sourceName, c)
		}
	}
	lemmaCol, freqCol := cols["lemma"], cols["Freq"]
	width := max(lemmaCol, freqCol) + 1

	sums := make(map[string]int64)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		stats.TotalRows++
		line := stats.TotalRows + 1

		if stats.TotalRows%100000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				malformed(logger, &stats, line, ReasonFieldCount)
				continue
			}
			return nil, stats, fmt.Errorf("read row %d: %w", line, err)
		}
		if len(rec) < width {
			malformed(logger, &stats, line, ReasonFieldCount)
			continue
		}

		freq, perr := strconv.ParseInt(strings.TrimSpace(rec[freqCol]), 10, 64)
		rw := row{Lemma: strings.TrimSpace(rec[lemmaCol]), Freq: freq}
		if rw.Lemma == "" {
			malformed(logger, &stats, line, ReasonMissingLemma)
			continue
		}
		if perr != nil || validate.Struct(rw) != nil {
			malformed(logger, &stats, line, ReasonInvalidFreq)
			continue
		}

		sums[domain.NormalizeKey(rw.Lemma)] += rw.Freq
	}

	out := make(map[string]Count, len(sums))
	for key, total := range sums {
		out[key] = Count{Raw: total, Zipf: Zipf(total, corpusSize)}
	}
	stats.Lemmas = len(out)
	return out, stats, nil
}

func malformed(logger *slog.Logger, stats *Stats, line int, reason string) {
	stats.MalformedRows++
	stats.Malformed[reason]++
	if logger != nil {
		logger.Debug("malformed record", slog.Any("error", domain.NewMalformedRecord(sourceName, line, reason)))
	}
}

// Package tatoeba reads Tatoeba sentence exports and translation links.
// Sentence files are headerless "id\tlang\ttext" TSV; the links file is
// "source_id\ttarget_id". No database dependencies.
package tatoeba

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/italian-lexicon/internal/app/importer/lines"
	"github.com/heartmarshall/italian-lexicon/internal/domain"
)

const (
	LangItalian = "ita"
	LangEnglish = "eng"

	sourceName = "tatoeba"

	maxSentenceLine = 1024 * 1024
	maxLinkLine     = 64 * 1024
)

// Malformed-line reasons.
const (
	ReasonFieldCount = "field_count"
	ReasonInvalidID  = "invalid_id"
)

// Stats holds reader statistics for logging.
type Stats struct {
	TotalLines     int
	MalformedLines int
	OtherLang      int
	SkippedLong    int
	Malformed      map[string]int
}

func newStats() Stats { return Stats{Malformed: make(map[string]int)} }

func (s *Stats) malformed(logger *slog.Logger, file string, line int, reason string) {
	s.MalformedLines++
	s.Malformed[reason]++
	if logger != nil {
		logger.Debug("malformed record", slog.Any("error", domain.NewMalformedRecord(sourceName+"/"+file, line, reason)))
	}
}

// ReadSentences reads a sentence file, keeping rows in lang no longer than
// maxLen runes (0 disables the limit).
func ReadSentences(ctx context.Context, r io.Reader, lang string, maxLen int, logger *slog.Logger) ([]domain.Sentence, Stats, error) {
	stats := newStats()
	var out []domain.Sentence

	lr := lines.NewReader(r, maxSentenceLine)
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
			stats.malformed(logger, lang, stats.TotalLines, lines.ReasonTooLong)
			continue
		}
		line := strings.TrimRight(string(raw), "\r")
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, "\t", 3)
		if len(fields) < 3 {
			stats.malformed(logger, lang, stats.TotalLines, ReasonFieldCount)
			continue
		}
		id, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			stats.malformed(logger, lang, stats.TotalLines, ReasonInvalidID)
			continue
		}
		if fields[1] != lang {
			stats.OtherLang++
			continue
		}
		text := strings.TrimSpace(fields[2])
		if maxLen > 0 && utf8.RuneCountInString(text) > maxLen {
			stats.SkippedLong++
			continue
		}
		out = append(out, domain.Sentence{ID: id, Lang: fields[1], Text: text})
	}
	return out, stats, nil
}

// ReadLinks reads the links file, keeping pairs accepted by keep.
func ReadLinks(ctx context.Context, r io.Reader, keep func(src, dst int64) bool, logger *slog.Logger) ([]domain.TranslationLink, Stats, error) {
	stats := newStats()
	var out []domain.TranslationLink

	lr := lines.NewReader(r, maxLinkLine)
	for {
		raw, tooLong, err := lr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("read line: %w", err)
		}

		stats.TotalLines++
		if stats.TotalLines%1000000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}
		}

		if tooLong {
			stats.malformed(logger, "links", stats.TotalLines, lines.ReasonTooLong)
			continue
		}
		line := strings.TrimRight(string(raw), "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			stats.malformed(logger, "links", stats.TotalLines, ReasonFieldCount)
			continue
		}
		src, err1 := strconv.ParseInt(fields[0], 10, 64)
		dst, err2 := strconv.ParseInt(fields[1], 10, 64)
		if err1 != nil || err2 != nil {
			stats.malformed(logger, "links", stats.TotalLines, ReasonInvalidID)
			continue
		}
		if keep(src, dst) {
			out = append(out, domain.TranslationLink{SourceID: src, TargetID: dst})
		}
	}
	return out, stats, nil
}

// Paths locates the three export files.
type Paths struct {
	Italian string
	English string
	Links   string
}

// Corpus is the Italian sentence set with its English translations.
// English holds only sentences that are the target of a kept link.
type Corpus struct {
	Italian []domain.Sentence
	English []domain.Sentence
	Links   []domain.TranslationLink
	Stats   map[string]Stats
}

// Load reads both sentence files concurrently, then the links file, and
// keeps Italian→English pairs whose two ends were both read.
func Load(ctx context.Context, paths Paths, maxLen int, logger *slog.Logger) (Corpus, error) {
	var (
		ita, eng           []domain.Sentence
		itaStats, engStats Stats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ita, itaStats, err = readSentenceFile(gctx, paths.Italian, LangItalian, maxLen, logger)
		return err
	})
	g.Go(func() error {
		var err error
		eng, engStats, err = readSentenceFile(gctx, paths.English, LangEnglish, 0, logger)
		return err
	})
	if err := g.Wait(); err != nil {
		return Corpus{}, err
	}

	itaIDs := make(map[int64]bool, len(ita))
	for _, s := range ita {
		itaIDs[s.ID] = true
	}
	engByID := make(map[int64]domain.Sentence, len(eng))
	for _, s := range eng {
		engByID[s.ID] = s
	}

	f, err := os.Open(paths.Links)
	if err != nil {
		return Corpus{}, fmt.Errorf("open links: %w", err)
	}
	defer f.Close()

	links, linkStats, err := ReadLinks(ctx, f, func(src, dst int64) bool {
		_, ok := engByID[dst]
		return itaIDs[src] && ok
	}, logger)
	if err != nil {
		return Corpus{}, fmt.Errorf("read links: %w", err)
	}

	linked := make(map[int64]bool, len(links))
	var english []domain.Sentence
	for _, l := range links {
		if linked[l.TargetID] {
			continue
		}
		linked[l.TargetID] = true
		english = append(english, engByID[l.TargetID])
	}

	return Corpus{
		Italian: ita,
		English: english,
		Links:   links,
		Stats:   map[string]Stats{LangItalian: itaStats, LangEnglish: engStats, "links": linkStats},
	}, nil
}

func readSentenceFile(ctx context.Context, path, lang string, maxLen int, logger *slog.Logger) ([]domain.Sentence, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newStats(), fmt.Errorf("open %s sentences: %w", lang, err)
	}
	defer f.Close()

	out, stats, err := ReadSentences(ctx, f, lang, maxLen, logger)
	if err != nil {
		return nil, stats, fmt.Errorf("read %s sentences: %w", lang, err)
	}
	return out, stats, nil
}

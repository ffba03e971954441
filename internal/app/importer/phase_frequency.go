package importer

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/heartmarshall/italian-lexicon/internal/app/importer/itwac"
	"github.com/heartmarshall/italian-lexicon/internal/domain"
)

// Frequency phase skip reasons.
const (
	ReasonLemmaNotFound = "lemma_not_found"
	ReasonNotConfigured = "not_configured"
)

// runFrequency attaches ItWaC lemma frequencies to imported lemmas, one list
// per part of speech. A list whose path is unset is skipped; none set is an error.
func (p *Pipeline) runFrequency(ctx context.Context) PhaseResult {
	var (
		result     PhaseResult
		configured int
	)

	p.observer.PhaseStarted(PhaseFrequency, len(p.cfg.POS()))
	for _, pos := range p.cfg.POS() {
		path := p.cfg.ItWaC.Path(pos)
		if path == "" {
			result.skip(ReasonNotConfigured, 1)
			continue
		}
		configured++

		counts, stats, err := itwac.ReadFile(ctx, path, p.cfg.ItWaC.CorpusSize, p.log)
		if err != nil {
			return PhaseResult{Err: fmt.Errorf("read itwac %s: %w", pos, err)}
		}
		result.skipAll(stats.Malformed)
		p.log.Info("itwac parsed",
			slog.String("pos", string(pos)),
			slog.Int("total_rows", stats.TotalRows),
			slog.Int("lemmas", stats.Lemmas),
			slog.Int("malformed", stats.MalformedRows),
		)

		if p.cfg.DryRun {
			result.skip(ReasonDryRun, len(counts))
			continue
		}

		ids, err := p.repo.LemmaIDs(ctx, pos)
		if err != nil {
			return PhaseResult{Err: fmt.Errorf("lemma ids %s: %w", pos, err)}
		}

		version := p.cfg.ItWaC.Version(pos)
		var records []domain.FrequencyRecord
		for _, key := range slices.Sorted(maps.Keys(counts)) {
			id, ok := ids[key]
			if !ok {
				result.skip(ReasonLemmaNotFound, 1)
				continue
			}
			c := counts[key]
			records = append(records, domain.FrequencyRecord{
				LemmaID:       id,
				Corpus:        itwac.Corpus,
				FreqRaw:       c.Raw,
				FreqZipf:      c.Zipf,
				CorpusVersion: version,
			})
		}

		ins, upd, err := batchUpsert(records, p.cfg.BatchSize, func(batch []domain.FrequencyRecord) (int, int, error) {
			return p.repo.UpsertFrequencies(ctx, batch)
		})
		if err != nil {
			return PhaseResult{Err: fmt.Errorf("upsert frequencies %s: %w", pos, err)}
		}
		result.Inserted += ins
		result.Updated += upd
		result.skip(ReasonUnchanged, len(records)-ins-upd)
		p.observer.PhaseAdvanced(PhaseFrequency, 1)
	}

	if configured == 0 {
		return PhaseResult{Err: fmt.Errorf("itwac paths not configured")}
	}
	return result
}

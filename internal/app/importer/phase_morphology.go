package importer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/italian-lexicon/internal/app/importer/morphit"
	"github.com/heartmarshall/italian-lexicon/internal/domain"
)

// Morphology phase skip reasons.
const (
	ReasonVerbExcluded = "verb_pos_excluded"
	ReasonNotInLexicon = "not_in_lexicon"
)

// runMorphology sets the written spelling of noun and adjective forms from the
// morphological lexicon. Verbs are excluded: the lexicon carries no usable
// spellings for them.
func (p *Pipeline) runMorphology(ctx context.Context) PhaseResult {
	if p.cfg.MorphitPath == "" {
		return PhaseResult{Err: fmt.Errorf("morphit path not configured")}
	}

	lex, stats, err := morphit.ReadFile(ctx, p.cfg.MorphitPath, p.log)
	if err != nil {
		return PhaseResult{Err: fmt.Errorf("read morphit: %w", err)}
	}
	p.log.Info("morphit parsed",
		slog.Int("total_lines", stats.TotalLines),
		slog.Int("entries", stats.Entries),
		slog.Int("malformed", stats.MalformedLines),
	)

	var result PhaseResult
	result.skip(morphit.ReasonFieldCount, stats.MalformedLines)

	if p.cfg.DryRun {
		result.skip(ReasonDryRun, stats.Entries)
		return result
	}

	var pos []domain.PartOfSpeech
	for _, ps := range p.cfg.POS() {
		if ps == domain.PartOfSpeechVerb {
			n, err := p.repo.CountForms(ctx, []domain.PartOfSpeech{ps}, false)
			if err != nil {
				return PhaseResult{Err: fmt.Errorf("count verb forms: %w", err)}
			}
			result.skip(ReasonVerbExcluded, n)
			continue
		}
		pos = append(pos, ps)
	}
	if len(pos) == 0 {
		return result
	}

	forms, err := p.repo.ListForms(ctx, pos, false)
	if err != nil {
		return PhaseResult{Err: fmt.Errorf("list forms: %w", err)}
	}
	p.observer.PhaseStarted(PhaseMorphology, len(forms))

	var updates []domain.WrittenUpdate
	for i := range forms {
		f := &forms[i]
		written, ok := lex.Lookup(f.POS, f.Normalized)
		if !ok {
			result.skip(ReasonNotInLexicon, 1)
			continue
		}
		proposeWritten(&result, f, domain.WrittenProposal{Written: written, Source: domain.WrittenSourceLexicon}, &updates)
	}

	updated, err := batchProcess(updates, p.cfg.BatchSize, func(batch []domain.WrittenUpdate) (int, error) {
		n, err := p.repo.ApplyWritten(ctx, batch)
		p.observer.PhaseAdvanced(PhaseMorphology, len(batch))
		return n, err
	})
	if err != nil {
		return PhaseResult{Err: fmt.Errorf("apply written: %w", err)}
	}
	result.Updated += updated
	result.skip(ReasonWrittenAlreadySet, len(updates)-updated)

	return result
}

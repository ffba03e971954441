package importer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/italian-lexicon/internal/domain"
)

// ReasonOrthographyUnresolved counts forms no derivation rule decides.
const ReasonOrthographyUnresolved = "orthography_unresolved"

// runOrthography fills every written spelling still unset. A non-verb form
// without stress marks is copied as is; anything else is derived from the
// stressed form by the orthography rules. Undecided forms stay unset.
func (p *Pipeline) runOrthography(ctx context.Context) PhaseResult {
	if p.cfg.DryRun {
		return PhaseResult{}
	}
	if p.engine == nil {
		return PhaseResult{Err: fmt.Errorf("orthography engine not configured")}
	}

	forms, err := p.repo.ListForms(ctx, p.cfg.POS(), true)
	if err != nil {
		return PhaseResult{Err: fmt.Errorf("list unset forms: %w", err)}
	}
	p.observer.PhaseStarted(PhaseOrthography, len(forms))

	var (
		result     PhaseResult
		updates    []domain.WrittenUpdate
		unresolved int
	)
	for i := range forms {
		f := &forms[i]

		var prop domain.WrittenProposal
		if f.POS != domain.PartOfSpeechVerb && !p.engine.HasAccent(f.Stressed) {
			prop = domain.WrittenProposal{Written: f.Stressed, Source: domain.WrittenSourceAccentlessCopy}
		} else {
			d := p.engine.Derive(f.Stressed)
			if !d.Resolved {
				unresolved++
				if unresolved <= p.cfg.UnresolvedLogLimit {
					p.log.Warn("orthography unresolved",
						slog.String("stressed", f.Stressed),
						slog.String("pos", string(f.POS)),
						slog.Any("rules", d.Rules),
					)
				}
				result.skip(ReasonOrthographyUnresolved, 1)
				continue
			}
			prop = domain.WrittenProposal{Written: d.Written, Source: d.Source()}
		}
		proposeWritten(&result, f, prop, &updates)
	}

	applied, err := batchProcess(updates, p.cfg.BatchSize, func(batch []domain.WrittenUpdate) (int, error) {
		n, err := p.repo.ApplyWritten(ctx, batch)
		p.observer.PhaseAdvanced(PhaseOrthography, len(batch))
		return n, err
	})
	if err != nil {
		return PhaseResult{Err: fmt.Errorf("apply written: %w", err)}
	}
	result.Updated += applied
	result.skip(ReasonWrittenAlreadySet, len(updates)-applied)

	p.log.Info("orthography derived",
		slog.Int("forms", len(forms)),
		slog.Int("applied", applied),
		slog.Int("unresolved", unresolved),
		slog.Int("distinct_inputs", p.engine.CacheSize()),
	)
	return result
}

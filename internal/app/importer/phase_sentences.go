package importer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/italian-lexicon/internal/app/importer/tatoeba"
	"github.com/heartmarshall/italian-lexicon/internal/domain"
)

// Sentence phase skip reasons.
const (
	ReasonOtherLang     = "other_lang"
	ReasonTooLong       = "too_long"
	ReasonNoFormMatched = "no_form_matched"
)

// runSentences stores Italian sentences with their English translations and
// links each sentence to every form one of its tokens may be. Ambiguous
// tokens link to all candidates.
func (p *Pipeline) runSentences(ctx context.Context) PhaseResult {
	tc := p.cfg.Tatoeba
	if !tc.configured() {
		return PhaseResult{Err: fmt.Errorf("tatoeba paths not configured")}
	}

	corpus, err := tatoeba.Load(ctx, tatoeba.Paths{
		Italian: tc.ItalianPath,
		English: tc.EnglishPath,
		Links:   tc.LinksPath,
	}, tc.MaxSentenceLen, p.log)
	if err != nil {
		return PhaseResult{Err: fmt.Errorf("load tatoeba: %w", err)}
	}

	var result PhaseResult
	for file, st := range corpus.Stats {
		result.skipAll(st.Malformed)
		result.skip(ReasonOtherLang, st.OtherLang)
		result.skip(ReasonTooLong, st.SkippedLong)
		p.log.Info("tatoeba parsed", slog.String("file", file), slog.Int("total_lines", st.TotalLines), slog.Int("malformed", st.MalformedLines))
	}

	if p.cfg.DryRun {
		result.skip(ReasonDryRun, len(corpus.Italian)+len(corpus.English)+len(corpus.Links))
		return result
	}

	p.observer.PhaseStarted(PhaseSentences, len(corpus.Italian))

	for _, sentences := range [][]domain.Sentence{corpus.Italian, corpus.English} {
		ins, upd, err := batchUpsert(sentences, p.cfg.BatchSize, func(batch []domain.Sentence) (int, int, error) {
			return p.repo.UpsertSentences(ctx, batch)
		})
		if err != nil {
			return PhaseResult{Err: fmt.Errorf("upsert sentences: %w", err)}
		}
		result.Inserted += ins
		result.Updated += upd
		result.skip(ReasonUnchanged, len(sentences)-ins-upd)
	}

	n, err := batchProcess(corpus.Links, p.cfg.BatchSize, func(batch []domain.TranslationLink) (int, error) {
		return p.repo.InsertTranslations(ctx, batch)
	})
	if err != nil {
		return PhaseResult{Err: fmt.Errorf("insert translations: %w", err)}
	}
	result.Inserted += n
	result.skip(ReasonUnchanged, len(corpus.Links)-n)

	index, err := p.repo.LookupIndex(ctx)
	if err != nil {
		return PhaseResult{Err: fmt.Errorf("load lookup index: %w", err)}
	}

	links := linkSentences(corpus.Italian, index)
	matched := make(map[int64]bool, len(links))
	for _, l := range links {
		matched[l.SentenceID] = true
	}
	result.skip(ReasonNoFormMatched, len(corpus.Italian)-len(matched))

	n, err = batchProcess(links, p.cfg.BatchSize, func(batch []domain.SentenceFormLink) (int, error) {
		n, err := p.repo.InsertSentenceLinks(ctx, batch)
		p.observer.PhaseAdvanced(PhaseSentences, len(batch))
		return n, err
	})
	if err != nil {
		return PhaseResult{Err: fmt.Errorf("insert sentence links: %w", err)}
	}
	result.Inserted += n
	result.skip(ReasonUnchanged, len(links)-n)

	p.log.Info("sentences linked",
		slog.Int("sentences", len(corpus.Italian)),
		slog.Int("matched", len(matched)),
		slog.Int("links", len(links)),
	)
	return result
}

// linkSentences matches every token of every sentence against the lookup
// index. A form is linked at most once per sentence, with the first token that
// found it.
func linkSentences(sentences []domain.Sentence, index map[string][]domain.LookupHit) []domain.SentenceFormLink {
	var links []domain.SentenceFormLink
	for _, s := range sentences {
		seen := make(map[uuid.UUID]bool)
		for _, tok := range domain.Tokenize(s.Text) {
			for _, hit := range index[domain.NormalizeKey(tok)] {
				if seen[hit.FormID] {
					continue
				}
				seen[hit.FormID] = true
				links = append(links, domain.SentenceFormLink{
					SentenceID: s.ID,
					FormID:     hit.FormID,
					LemmaID:    hit.LemmaID,
					FormFound:  tok,
				})
			}
		}
	}
	return links
}

package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/heartmarshall/italian-lexicon/internal/app/importer/wiktextract"
	"github.com/heartmarshall/italian-lexicon/internal/domain"
)

// Lexicon phase skip reasons.
const (
	ReasonInvalidLemma = "invalid_lemma"
	ReasonOtherPOS     = "other_pos"
)

// lexiconBatch accumulates rows of whole lemma entries until flushed.
type lexiconBatch struct {
	lemmas  []domain.Lemma
	forms   []domain.InflectedForm
	defs    []domain.Definition
	lookups []domain.LookupEntry
}

func (b *lexiconBatch) add(e wiktextract.LemmaEntry) {
	b.lemmas = append(b.lemmas, e.Lemma)
	b.forms = append(b.forms, e.Forms...)
	b.defs = append(b.defs, e.Definitions...)
	for _, f := range e.Forms {
		b.lookups = append(b.lookups, domain.LookupEntry{FormNormalized: f.Normalized, FormID: f.ID, POS: e.Lemma.POS})
	}
}

func (b *lexiconBatch) reset() {
	b.lemmas = b.lemmas[:0]
	b.forms = b.forms[:0]
	b.defs = b.defs[:0]
	b.lookups = b.lookups[:0]
}

// runLexicon streams lemma entries and writes lemmas, forms, the lookup index
// and definitions. Rows are written parent before child within each flush.
func (p *Pipeline) runLexicon(ctx context.Context) PhaseResult {
	if p.cfg.WiktextractPath == "" {
		return PhaseResult{Err: fmt.Errorf("wiktextract path not configured")}
	}

	var (
		result PhaseResult
		batch  lexiconBatch
	)

	flush := func() error {
		if len(batch.lemmas) == 0 {
			return nil
		}
		defer batch.reset()

		ins, upd, err := p.repo.UpsertLemmas(ctx, batch.lemmas)
		if err != nil {
			return fmt.Errorf("upsert lemmas: %w", err)
		}
		result.Inserted += ins
		result.Updated += upd
		result.skip(ReasonUnchanged, len(batch.lemmas)-ins-upd)

		steps := []struct {
			name  string
			total int
			fn    func() (int, error)
		}{
			{"forms", len(batch.forms), func() (int, error) { return p.repo.InsertForms(ctx, batch.forms) }},
			{"lookup", len(batch.lookups), func() (int, error) { return p.repo.InsertLookup(ctx, batch.lookups) }},
			{"definitions", len(batch.defs), func() (int, error) { return p.repo.InsertDefinitions(ctx, batch.defs) }},
		}
		for _, s := range steps {
			n, err := s.fn()
			if err != nil {
				return fmt.Errorf("insert %s: %w", s.name, err)
			}
			result.Inserted += n
			result.skip(ReasonUnchanged, s.total-n)
		}
		return nil
	}

	handlers := wiktextract.Handlers{
		Lemma: func(e wiktextract.LemmaEntry) error {
			if err := e.Lemma.Validate(); err != nil {
				p.log.Debug("invalid lemma", slog.String("word", e.Lemma.Stressed), slog.String("error", err.Error()))
				result.skip(ReasonInvalidLemma, 1)
				return nil
			}
			if p.cfg.DryRun {
				result.skip(ReasonDryRun, 1)
				return nil
			}
			batch.add(e)
			if len(batch.lemmas) >= p.cfg.BatchSize {
				return flush()
			}
			return nil
		},
	}

	stats, err := p.readWiktextract(ctx, PhaseLexicon, handlers)
	if err != nil {
		return PhaseResult{Err: fmt.Errorf("read wiktextract: %w", err)}
	}
	if err := flush(); err != nil {
		return PhaseResult{Err: err}
	}

	result.skipAll(stats.Malformed)
	result.skipAll(stats.DroppedForms)
	result.skip(ReasonOtherPOS, stats.OtherPOS)

	p.log.Info("wiktextract parsed",
		slog.Int("total_lines", stats.TotalLines),
		slog.Int("lemma_entries", stats.LemmaEntries),
		slog.Int("malformed", stats.MalformedLines),
		slog.Any("dropped_forms", stats.DroppedForms),
	)
	return result
}

// readWiktextract streams the Wiktextract dump, reporting bytes read as progress.
func (p *Pipeline) readWiktextract(ctx context.Context, phase string, h wiktextract.Handlers) (wiktextract.Stats, error) {
	f, err := os.Open(p.cfg.WiktextractPath)
	if err != nil {
		return wiktextract.Stats{}, fmt.Errorf("open wiktextract: %w", err)
	}
	defer f.Close()

	var total int
	if info, err := f.Stat(); err == nil {
		total = int(info.Size())
	}
	p.observer.PhaseStarted(phase, total)

	r := &progressReader{r: f, report: func(n int) { p.observer.PhaseAdvanced(phase, n) }}
	return wiktextract.Read(ctx, r, p.cfg.POS(), h, p.log)
}

// progressReader reports the byte count of every read.
type progressReader struct {
	r      io.Reader
	report func(int)
}

func (r *progressReader) Read(b []byte) (int, error) {
	n, err := r.r.Read(b)
	if n > 0 {
		r.report(n)
	}
	return n, err
}

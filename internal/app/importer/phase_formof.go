package importer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/italian-lexicon/internal/app/importer/wiktextract"
	"github.com/heartmarshall/italian-lexicon/internal/domain"
)

// ReasonFormNotFound counts form-of records whose form is not in the store.
const ReasonFormNotFound = "form_not_found"

// formIndex finds stored forms by lemma and normalized surface string.
type formIndex map[uuid.UUID]map[string][]*domain.FormState

func newFormIndex(forms []domain.FormState) formIndex {
	idx := make(formIndex)
	for i := range forms {
		f := &forms[i]
		byKey, ok := idx[f.LemmaID]
		if !ok {
			byKey = make(map[string][]*domain.FormState)
			idx[f.LemmaID] = byKey
		}
		byKey[f.Normalized] = append(byKey[f.Normalized], f)
	}
	return idx
}

func (idx formIndex) find(e wiktextract.FormOfEntry) []*domain.FormState {
	lemmaID := domain.LemmaID(e.POS, domain.NormalizeKey(e.Lemma))
	return idx[lemmaID][domain.NormalizeKey(e.Form)]
}

// runFormOf merges form-of records into matching forms: their usage labels are
// added to the form's labels, and their spelling fills a written field that is
// still unset.
func (p *Pipeline) runFormOf(ctx context.Context) PhaseResult {
	if p.cfg.WiktextractPath == "" {
		return PhaseResult{Err: fmt.Errorf("wiktextract path not configured")}
	}

	var (
		result PhaseResult
		index  formIndex
		forms  []domain.FormState
	)
	if !p.cfg.DryRun {
		var err error
		forms, err = p.repo.ListForms(ctx, p.cfg.POS(), false)
		if err != nil {
			return PhaseResult{Err: fmt.Errorf("list forms: %w", err)}
		}
		index = newFormIndex(forms)
	}

	var (
		written    []domain.WrittenUpdate
		labelled   = make(map[uuid.UUID]bool)
		labelForms []*domain.FormState
	)

	handlers := wiktextract.Handlers{
		FormOf: func(e wiktextract.FormOfEntry) error {
			if p.cfg.DryRun {
				result.skip(ReasonDryRun, 1)
				return nil
			}
			matches := index.find(e)
			if len(matches) == 0 {
				result.skip(ReasonFormNotFound, 1)
				return nil
			}
			for _, f := range matches {
				if merged, changed := domain.MergeLabels(f.Labels, e.Labels); changed {
					f.Labels = merged
					if !labelled[f.ID] {
						labelled[f.ID] = true
						labelForms = append(labelForms, f)
					}
				}
				proposeWritten(&result, f, domain.WrittenProposal{Written: e.Form, Source: domain.WrittenSourceFormOf}, &written)
			}
			return nil
		},
	}

	stats, err := p.readWiktextract(ctx, PhaseFormOf, handlers)
	if err != nil {
		return PhaseResult{Err: fmt.Errorf("read wiktextract: %w", err)}
	}
	result.skipAll(stats.Malformed)
	p.log.Info("form-of records parsed",
		slog.Int("total_lines", stats.TotalLines),
		slog.Int("form_of_entries", stats.FormOfEntries),
	)
	if p.cfg.DryRun {
		return result
	}

	labels := make([]domain.LabelUpdate, len(labelForms))
	for i, f := range labelForms {
		labels[i] = domain.LabelUpdate{FormID: f.ID, Labels: f.Labels}
	}
	relabeled, err := batchProcess(labels, p.cfg.BatchSize, func(batch []domain.LabelUpdate) (int, error) {
		return p.repo.UpdateLabels(ctx, batch)
	})
	if err != nil {
		return PhaseResult{Err: fmt.Errorf("update labels: %w", err)}
	}

	applied, err := batchProcess(written, p.cfg.BatchSize, func(batch []domain.WrittenUpdate) (int, error) {
		return p.repo.ApplyWritten(ctx, batch)
	})
	if err != nil {
		return PhaseResult{Err: fmt.Errorf("apply written: %w", err)}
	}

	result.Updated += relabeled + applied
	result.skip(ReasonWrittenAlreadySet, len(written)-applied)
	p.log.Info("form-of merged",
		slog.Int("forms_indexed", len(forms)),
		slog.Int("labels_updated", relabeled),
		slog.Int("written_applied", applied),
	)
	return result
}

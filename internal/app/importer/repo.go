// Package importer orchestrates the multi-source lexicon import: it runs the
// phases in order, enforces their preconditions and merges every source into
// the store under the written-spelling precedence rules.
package importer

import (
	"context"

	"github.com/google/uuid"

	"github.com/heartmarshall/italian-lexicon/internal/domain"
)

// LexiconRepo defines the store contract consumed by the pipeline.
// All methods use only domain types. Implemented by lexicon.Repo.
type LexiconRepo interface {
	// Phase bookkeeping.
	CompletedPhases(ctx context.Context) (map[string]bool, error)
	MarkPhaseCompleted(ctx context.Context, phase string) error

	// Reads.
	CountLemmas(ctx context.Context, pos ...domain.PartOfSpeech) (int, error)
	CountForms(ctx context.Context, pos []domain.PartOfSpeech, unsetOnly bool) (int, error)
	ListForms(ctx context.Context, pos []domain.PartOfSpeech, unsetOnly bool) ([]domain.FormState, error)
	LemmaIDs(ctx context.Context, pos domain.PartOfSpeech) (map[string]uuid.UUID, error)
	LookupIndex(ctx context.Context) (map[string][]domain.LookupHit, error)

	// Lexicon import. Inserts skip rows already present under their natural key.
	UpsertLemmas(ctx context.Context, lemmas []domain.Lemma) (inserted, updated int, err error)
	InsertForms(ctx context.Context, forms []domain.InflectedForm) (int, error)
	InsertDefinitions(ctx context.Context, defs []domain.Definition) (int, error)
	InsertLookup(ctx context.Context, entries []domain.LookupEntry) (int, error)

	// Enrichment. ApplyWritten never touches a form whose written is set.
	ApplyWritten(ctx context.Context, updates []domain.WrittenUpdate) (int, error)
	UpdateLabels(ctx context.Context, updates []domain.LabelUpdate) (int, error)
	UpsertFrequencies(ctx context.Context, records []domain.FrequencyRecord) (inserted, updated int, err error)

	// Sentences.
	UpsertSentences(ctx context.Context, sentences []domain.Sentence) (inserted, updated int, err error)
	InsertTranslations(ctx context.Context, links []domain.TranslationLink) (int, error)
	InsertSentenceLinks(ctx context.Context, links []domain.SentenceFormLink) (int, error)

	RunChecks(ctx context.Context) ([]domain.CheckResult, error)
}

// TxRunner runs fn in one transaction carried by the context passed to fn.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

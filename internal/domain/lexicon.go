package domain

import (
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Lemma is a canonical dictionary entry, unique per (Normalized, POS).
type Lemma struct {
	ID           uuid.UUID
	Normalized   string
	Stressed     string
	POS          PartOfSpeech
	Gender       *string
	Auxiliary    *Auxiliary
	Transitivity *Transitivity
	IPA          *string
}

// Validate checks the fields every lemma row needs.
func (l Lemma) Validate() error {
	var errs []FieldError
	if l.Normalized == "" {
		errs = append(errs, FieldError{Field: "normalized", Message: "required"})
	}
	if l.Stressed == "" {
		errs = append(errs, FieldError{Field: "stressed", Message: "required"})
	}
	if !l.POS.IsValid() {
		errs = append(errs, FieldError{Field: "pos", Message: "unknown part of speech " + string(l.POS)})
	}
	if len(errs) > 0 {
		return NewValidationErrors(errs)
	}
	return nil
}

// FormFeatures is the decoded grammatical tag-set of an inflected form.
type FormFeatures struct {
	Mood           *string
	Tense          *string
	Person         *int16
	Number         *string
	Gender         *string
	Degree         *string
	IsFormal       bool
	IsNegative     bool
	IsDiminutive   bool
	IsAugmentative bool
}

// InflectedForm is one conjugated or declined surface form of a lemma.
type InflectedForm struct {
	ID            uuid.UUID
	LemmaID       uuid.UUID
	Stressed      string
	Normalized    string
	Written       *string
	WrittenSource *WrittenSource
	Origin        FormOrigin
	Tags          []string
	Features      FormFeatures
	Labels        []string
}

// TagKey returns the canonical key of the form's tag-set.
func (f InflectedForm) TagKey() string { return TagKey(f.Tags) }

// ProvenanceConsistent reports whether written and written-source are set together.
func (f InflectedForm) ProvenanceConsistent() bool {
	return (f.Written == nil) == (f.WrittenSource == nil)
}

// TagKey joins a tag-set in sorted order.
func TagKey(tags []string) string {
	sorted := slices.Clone(tags)
	slices.Sort(sorted)
	return strings.Join(slices.Compact(sorted), ",")
}

// FormState is the subset of an inflected form that the merge phases read.
type FormState struct {
	ID            uuid.UUID      `db:"id"`
	LemmaID       uuid.UUID      `db:"lemma_id"`
	POS           PartOfSpeech   `db:"pos"`
	Stressed      string         `db:"stressed"`
	Normalized    string         `db:"normalized"`
	Written       *string        `db:"written"`
	WrittenSource *WrittenSource `db:"written_source"`
	Labels        []string       `db:"labels"`
}

// State returns the precedence state of the form's written field.
func (f FormState) State() WrittenState { return StateOf(f.WrittenSource) }

// WrittenUpdate sets a form's written spelling. Applied only while written is NULL.
type WrittenUpdate struct {
	FormID  uuid.UUID
	Written string
	Source  WrittenSource
}

// LabelUpdate replaces a form's usage labels with a merged set.
type LabelUpdate struct {
	FormID uuid.UUID
	Labels []string
}

// MergeLabels returns the sorted union of two label sets and whether it differs from current.
func MergeLabels(current, incoming []string) ([]string, bool) {
	merged := slices.Concat(current, incoming)
	slices.Sort(merged)
	merged = slices.Compact(merged)

	before := slices.Clone(current)
	slices.Sort(before)
	before = slices.Compact(before)

	return merged, !slices.Equal(before, merged)
}

// Definition is an English gloss attached to a lemma.
type Definition struct {
	ID       uuid.UUID
	LemmaID  uuid.UUID
	Position int
	Gloss    string
	Tags     []string
}

// FrequencyRecord carries corpus counts for one (lemma, corpus) pair.
type FrequencyRecord struct {
	LemmaID       uuid.UUID
	Corpus        string
	FreqRaw       int64
	FreqZipf      float64
	CorpusVersion string
}

// LookupEntry maps a normalized surface string to a form.
type LookupEntry struct {
	FormNormalized string
	FormID         uuid.UUID
	POS            PartOfSpeech
}

// LookupHit is one candidate form for a normalized token.
type LookupHit struct {
	FormID  uuid.UUID `db:"form_id"`
	LemmaID uuid.UUID `db:"lemma_id"`
}

// Sentence is an entry of the sentence corpus.
type Sentence struct {
	ID   int64
	Lang string
	Text string
}

// TranslationLink pairs an Italian sentence with an English translation.
type TranslationLink struct {
	SourceID int64
	TargetID int64
}

// SentenceFormLink associates a sentence with a matched form.
type SentenceFormLink struct {
	SentenceID int64
	FormID     uuid.UUID
	LemmaID    uuid.UUID
	FormFound  string
}

// CheckResult is the outcome of one store consistency check.
type CheckResult struct {
	Name       string
	Violations int
}

// Passed reports whether the check found no violations.
func (c CheckResult) Passed() bool { return c.Violations == 0 }

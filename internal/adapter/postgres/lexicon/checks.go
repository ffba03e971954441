package lexicon

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/heartmarshall/italian-lexicon/internal/domain"
)

// Names of the consistency checks run by RunChecks.
const (
	CheckProvenance         = "provenance_consistent"
	CheckFormsWithoutLookup = "forms_without_lookup"
	CheckLemmasWithoutForms = "lemmas_without_forms"
	CheckCitationForm       = "citation_form_missing"
	CheckLinksNonItalian    = "sentence_links_non_italian"
	CheckTranslationSource  = "translation_source_not_italian"
	CheckTranslationTarget  = "translation_target_not_english"
)

type check struct {
	name  string
	query squirrel.SelectBuilder
}

func checks() []check {
	count := psql.Select("count(*)")
	return []check{
		{
			name: CheckProvenance,
			query: count.From("inflected_form").
				Where("(written IS NULL) <> (written_source IS NULL)"),
		},
		{
			name: CheckFormsWithoutLookup,
			query: count.From("inflected_form f").
				Where("NOT EXISTS (SELECT 1 FROM form_lookup fl WHERE fl.form_id = f.id)"),
		},
		{
			name: CheckLemmasWithoutForms,
			query: count.From("lemma l").
				Where("NOT EXISTS (SELECT 1 FROM inflected_form f WHERE f.lemma_id = l.id)"),
		},
		{
			// Nouns need a singular form, adjectives a masculine singular one.
			name: CheckCitationForm,
			query: count.From("lemma l").
				Where(squirrel.Or{
					squirrel.And{
						squirrel.Eq{"l.pos": string(domain.PartOfSpeechNoun)},
						squirrel.Expr("NOT EXISTS (SELECT 1 FROM inflected_form f WHERE f.lemma_id = l.id AND f.number = 'singular')"),
					},
					squirrel.And{
						squirrel.Eq{"l.pos": string(domain.PartOfSpeechAdjective)},
						squirrel.Expr("NOT EXISTS (SELECT 1 FROM inflected_form f WHERE f.lemma_id = l.id AND f.number = 'singular' AND f.gender = 'masculine')"),
					},
				}),
		},
		{
			name: CheckLinksNonItalian,
			query: count.From("sentence_form_link sfl").
				Join("sentence s ON s.id = sfl.sentence_id").
				Where(squirrel.NotEq{"s.lang": "ita"}),
		},
		{
			name: CheckTranslationSource,
			query: count.From("translation_link t").
				Join("sentence s ON s.id = t.source_id").
				Where(squirrel.NotEq{"s.lang": "ita"}),
		},
		{
			name: CheckTranslationTarget,
			query: count.From("translation_link t").
				Join("sentence s ON s.id = t.target_id").
				Where(squirrel.NotEq{"s.lang": "eng"}),
		},
	}
}

// RunChecks runs every store consistency check and reports its violation count.
func (r *Repo) RunChecks(ctx context.Context) ([]domain.CheckResult, error) {
	list := checks()
	out := make([]domain.CheckResult, 0, len(list))
	for _, c := range list {
		n, err := r.count(ctx, c.query, c.name)
		if err != nil {
			return out, fmt.Errorf("check %s: %w", c.name, err)
		}
		out = append(out, domain.CheckResult{Name: c.name, Violations: n})
	}
	return out, nil
}

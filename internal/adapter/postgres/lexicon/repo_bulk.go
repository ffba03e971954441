package lexicon

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	postgres "github.com/heartmarshall/italian-lexicon/internal/adapter/postgres"
	"github.com/heartmarshall/italian-lexicon/internal/domain"
)

// ---------------------------------------------------------------------------
// Lexicon import (pgx.Batch API)
// ---------------------------------------------------------------------------

// UpsertLemmas inserts lemmas keyed by (normalized, pos). An existing lemma only
// has its NULL gender, auxiliary, transitivity and ipa filled in; a lemma with
// nothing to fill is left untouched and counted in neither return value.
func (r *Repo) UpsertLemmas(ctx context.Context, lemmas []domain.Lemma) (inserted, updated int, err error) {
	if len(lemmas) == 0 {
		return 0, 0, nil
	}

	batch := &pgx.Batch{}
	for _, l := range lemmas {
		batch.Queue(
			`INSERT INTO lemma (id, normalized, stressed, pos, gender, auxiliary, transitivity, ipa)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (normalized, pos) DO UPDATE SET
			     gender       = COALESCE(lemma.gender, EXCLUDED.gender),
			     auxiliary    = COALESCE(lemma.auxiliary, EXCLUDED.auxiliary),
			     transitivity = COALESCE(lemma.transitivity, EXCLUDED.transitivity),
			     ipa          = COALESCE(lemma.ipa, EXCLUDED.ipa)
			 WHERE (lemma.gender IS NULL AND EXCLUDED.gender IS NOT NULL)
			    OR (lemma.auxiliary IS NULL AND EXCLUDED.auxiliary IS NOT NULL)
			    OR (lemma.transitivity IS NULL AND EXCLUDED.transitivity IS NOT NULL)
			    OR (lemma.ipa IS NULL AND EXCLUDED.ipa IS NOT NULL)
			 RETURNING (xmax = 0)`,
			l.ID, l.Normalized, l.Stressed, string(l.POS),
			l.Gender, (*string)(l.Auxiliary), (*string)(l.Transitivity), l.IPA,
		)
	}

	return r.sendBatchUpsert(ctx, batch, "lemma")
}

// InsertForms inserts inflected forms. Forms already present under the same
// (lemma_id, stressed, tag_key) are skipped. Returns the number inserted.
func (r *Repo) InsertForms(ctx context.Context, forms []domain.InflectedForm) (int, error) {
	if len(forms) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, f := range forms {
		ft := f.Features
		batch.Queue(
			`INSERT INTO inflected_form (
			     id, lemma_id, stressed, normalized, written, written_source, form_origin,
			     tag_key, tags, mood, tense, person, number, gender, degree,
			     is_formal, is_negative, is_diminutive, is_augmentative, labels)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
			 ON CONFLICT DO NOTHING`,
			f.ID, f.LemmaID, f.Stressed, f.Normalized, f.Written, (*string)(f.WrittenSource), string(f.Origin),
			f.TagKey(), nonNil(f.Tags), ft.Mood, ft.Tense, ft.Person, ft.Number, ft.Gender, ft.Degree,
			ft.IsFormal, ft.IsNegative, ft.IsDiminutive, ft.IsAugmentative, nilIfEmpty(f.Labels),
		)
	}

	return r.sendBatchExec(ctx, batch)
}

// InsertDefinitions inserts glosses, skipping (lemma_id, gloss) pairs already present.
func (r *Repo) InsertDefinitions(ctx context.Context, defs []domain.Definition) (int, error) {
	if len(defs) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, d := range defs {
		batch.Queue(
			`INSERT INTO definition (id, lemma_id, position, gloss, tags)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT DO NOTHING`,
			d.ID, d.LemmaID, d.Position, d.Gloss, nilIfEmpty(d.Tags),
		)
	}

	return r.sendBatchExec(ctx, batch)
}

// InsertLookup adds entries to the form lookup index, skipping existing pairs.
func (r *Repo) InsertLookup(ctx context.Context, entries []domain.LookupEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(
			`INSERT INTO form_lookup (form_normalized, form_id, pos)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (form_normalized, form_id) DO NOTHING`,
			e.FormNormalized, e.FormID, string(e.POS),
		)
	}

	return r.sendBatchExec(ctx, batch)
}

// ---------------------------------------------------------------------------
// Enrichment updates
// ---------------------------------------------------------------------------

// ApplyWritten sets written and written_source on forms whose written is still
// NULL. Forms already set are left untouched. Returns the number updated.
func (r *Repo) ApplyWritten(ctx context.Context, updates []domain.WrittenUpdate) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, u := range updates {
		batch.Queue(
			`UPDATE inflected_form SET written = $2, written_source = $3
			 WHERE id = $1 AND written IS NULL`,
			u.FormID, u.Written, string(u.Source),
		)
	}

	return r.sendBatchExec(ctx, batch)
}

// UpdateLabels replaces form labels with merged sets. Rows whose labels already
// equal the new set are not rewritten.
func (r *Repo) UpdateLabels(ctx context.Context, updates []domain.LabelUpdate) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, u := range updates {
		labels := nilIfEmpty(u.Labels)
		batch.Queue(
			`UPDATE inflected_form SET labels = $2
			 WHERE id = $1 AND labels IS DISTINCT FROM $2`,
			u.FormID, labels,
		)
	}

	return r.sendBatchExec(ctx, batch)
}

// UpsertFrequencies writes frequency rows keyed by (lemma_id, corpus). Existing
// rows are rewritten only when a value differs.
func (r *Repo) UpsertFrequencies(ctx context.Context, records []domain.FrequencyRecord) (inserted, updated int, err error) {
	if len(records) == 0 {
		return 0, 0, nil
	}

	batch := &pgx.Batch{}
	for _, f := range records {
		batch.Queue(
			`INSERT INTO frequency (lemma_id, corpus, freq_raw, freq_zipf, corpus_version)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (lemma_id, corpus) DO UPDATE SET
			     freq_raw       = EXCLUDED.freq_raw,
			     freq_zipf      = EXCLUDED.freq_zipf,
			     corpus_version = EXCLUDED.corpus_version
			 WHERE (frequency.freq_raw, frequency.freq_zipf, frequency.corpus_version)
			       IS DISTINCT FROM (EXCLUDED.freq_raw, EXCLUDED.freq_zipf, EXCLUDED.corpus_version)
			 RETURNING (xmax = 0)`,
			f.LemmaID, f.Corpus, f.FreqRaw, f.FreqZipf, f.CorpusVersion,
		)
	}

	return r.sendBatchUpsert(ctx, batch, "frequency")
}

// ---------------------------------------------------------------------------
// Sentences
// ---------------------------------------------------------------------------

// UpsertSentences stores sentences keyed by id. A changed text replaces the stored one.
func (r *Repo) UpsertSentences(ctx context.Context, sentences []domain.Sentence) (inserted, updated int, err error) {
	if len(sentences) == 0 {
		return 0, 0, nil
	}

	batch := &pgx.Batch{}
	for _, s := range sentences {
		batch.Queue(
			`INSERT INTO sentence (id, lang, text) VALUES ($1, $2, $3)
			 ON CONFLICT (id) DO UPDATE SET lang = EXCLUDED.lang, text = EXCLUDED.text
			 WHERE (sentence.lang, sentence.text) IS DISTINCT FROM (EXCLUDED.lang, EXCLUDED.text)
			 RETURNING (xmax = 0)`,
			s.ID, s.Lang, s.Text,
		)
	}

	return r.sendBatchUpsert(ctx, batch, "sentence")
}

// InsertTranslations stores Italian→English links, skipping existing pairs.
func (r *Repo) InsertTranslations(ctx context.Context, links []domain.TranslationLink) (int, error) {
	if len(links) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, l := range links {
		batch.Queue(
			`INSERT INTO translation_link (source_id, target_id) VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`,
			l.SourceID, l.TargetID,
		)
	}

	return r.sendBatchExec(ctx, batch)
}

// InsertSentenceLinks stores sentence-to-form matches, skipping existing pairs.
func (r *Repo) InsertSentenceLinks(ctx context.Context, links []domain.SentenceFormLink) (int, error) {
	if len(links) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, l := range links {
		batch.Queue(
			`INSERT INTO sentence_form_link (sentence_id, form_id, lemma_id, form_found)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (sentence_id, form_id) DO NOTHING`,
			l.SentenceID, l.FormID, l.LemmaID, l.FormFound,
		)
	}

	return r.sendBatchExec(ctx, batch)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// sendBatchExec sends a pgx.Batch and counts affected rows from Exec results.
func (r *Repo) sendBatchExec(ctx context.Context, batch *pgx.Batch) (int, error) {
	results := r.q(ctx).SendBatch(ctx, batch)
	defer results.Close()

	var affected int
	for range batch.Len() {
		tag, err := results.Exec()
		if err != nil {
			return affected, fmt.Errorf("batch exec: %w", postgres.MapError(err, "batch", affected))
		}
		affected += int(tag.RowsAffected())
	}

	return affected, nil
}

// sendBatchUpsert sends a batch of upserts returning (xmax = 0) and splits the
// rows into inserted and updated. A statement returning no row was a no-op.
func (r *Repo) sendBatchUpsert(ctx context.Context, batch *pgx.Batch, entity string) (inserted, updated int, err error) {
	results := r.q(ctx).SendBatch(ctx, batch)
	defer results.Close()

	for i := range batch.Len() {
		var fresh bool
		if err := results.QueryRow().Scan(&fresh); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			return inserted, updated, fmt.Errorf("batch upsert: %w", postgres.MapError(err, entity, i))
		}
		if fresh {
			inserted++
		} else {
			updated++
		}
	}

	return inserted, updated, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}

package testhelper

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/italian-lexicon/internal/domain"
)

// UniqueWord returns base with a short random suffix so parallel tests on
// the shared database never collide on natural keys.
func UniqueWord(base string) string {
	return base + uuid.New().String()[:8]
}

// SeedLemma inserts a lemma with one unset form whose stressed spelling is
// stressed. Returns both rows.
func SeedLemma(t *testing.T, pool *pgxpool.Pool, pos domain.PartOfSpeech, stressed string) (domain.Lemma, domain.InflectedForm) {
	t.Helper()
	ctx := context.Background()

	lemma := domain.Lemma{
		Normalized: domain.NormalizeKey(stressed),
		Stressed:   stressed,
		POS:        pos,
	}
	lemma.ID = domain.LemmaID(pos, lemma.Normalized)

	_, err := pool.Exec(ctx,
		`INSERT INTO lemma (id, normalized, stressed, pos) VALUES ($1, $2, $3, $4)`,
		lemma.ID, lemma.Normalized, lemma.Stressed, string(lemma.POS),
	)
	if err != nil {
		t.Fatalf("testhelper: SeedLemma insert lemma: %v", err)
	}

	tags := []string{"singular"}
	form := domain.InflectedForm{
		LemmaID:    lemma.ID,
		Stressed:   stressed,
		Normalized: lemma.Normalized,
		Origin:     domain.FormOriginExtracted,
		Tags:       tags,
	}
	form.ID = domain.FormID(lemma.ID, stressed, form.TagKey())

	_, err = pool.Exec(ctx,
		`INSERT INTO inflected_form (id, lemma_id, stressed, normalized, form_origin, tag_key, tags, number)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, 'singular')`,
		form.ID, form.LemmaID, form.Stressed, form.Normalized, string(form.Origin), form.TagKey(), form.Tags,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedLemma insert form: %v", err)
	}

	return lemma, form
}

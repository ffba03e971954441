// Package lexicon implements the relational store of the import pipeline
// using PostgreSQL. It is the only write path into the lexicon tables; all
// writes run inside the transaction carried by the context, when present.
package lexicon

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	postgres "github.com/heartmarshall/italian-lexicon/internal/adapter/postgres"
	"github.com/heartmarshall/italian-lexicon/internal/domain"
)

// psql builds Postgres-style ($n) placeholders.
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repo provides lexicon persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new lexicon repository. db is used outside transactions.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

func (r *Repo) q(ctx context.Context) postgres.Querier {
	return postgres.QuerierFromCtx(ctx, r.db)
}

// ---------------------------------------------------------------------------
// Phase bookkeeping
// ---------------------------------------------------------------------------

// CompletedPhases returns the set of phases that have committed at least once.
func (r *Repo) CompletedPhases(ctx context.Context) (map[string]bool, error) {
	rows, err := r.q(ctx).Query(ctx, `SELECT phase FROM import_phase`)
	if err != nil {
		return nil, postgres.MapError(err, "import_phase", "*")
	}
	phases, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, postgres.MapError(err, "import_phase", "*")
	}

	out := make(map[string]bool, len(phases))
	for _, p := range phases {
		out[p] = true
	}
	return out, nil
}

// MarkPhaseCompleted records the first completion of phase. Later calls are no-ops.
func (r *Repo) MarkPhaseCompleted(ctx context.Context, phase string) error {
	_, err := r.q(ctx).Exec(ctx,
		`INSERT INTO import_phase (phase) VALUES ($1) ON CONFLICT (phase) DO NOTHING`,
		phase,
	)
	return postgres.MapError(err, "import_phase", phase)
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

func posStrings(pos []domain.PartOfSpeech) []string {
	out := make([]string, len(pos))
	for i, p := range pos {
		out[i] = string(p)
	}
	return out
}

// CountLemmas counts lemmas of the given parts of speech (all when none given).
func (r *Repo) CountLemmas(ctx context.Context, pos ...domain.PartOfSpeech) (int, error) {
	query := psql.Select("count(*)").From("lemma")
	if len(pos) > 0 {
		query = query.Where(squirrel.Eq{"pos": posStrings(pos)})
	}
	return r.count(ctx, query, "lemma")
}

// CountForms counts forms of lemmas with the given parts of speech.
func (r *Repo) CountForms(ctx context.Context, pos []domain.PartOfSpeech, unsetOnly bool) (int, error) {
	query := formFilter(psql.Select("count(*)"), pos, unsetOnly)
	return r.count(ctx, query, "inflected_form")
}

// ListForms returns the merge state of forms of lemmas with the given parts of
// speech, ordered by id. With unsetOnly only forms whose written is NULL are returned.
func (r *Repo) ListForms(ctx context.Context, pos []domain.PartOfSpeech, unsetOnly bool) ([]domain.FormState, error) {
	query := formFilter(psql.Select(
		"f.id", "f.lemma_id", "l.pos", "f.stressed", "f.normalized",
		"f.written", "f.written_source", "f.labels",
	), pos, unsetOnly).OrderBy("f.id")

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build forms query: %w", err)
	}

	var forms []domain.FormState
	if err := pgxscan.Select(ctx, r.q(ctx), &forms, sql, args...); err != nil {
		return nil, postgres.MapError(err, "inflected_form", posStrings(pos))
	}
	return forms, nil
}

func formFilter(b squirrel.SelectBuilder, pos []domain.PartOfSpeech, unsetOnly bool) squirrel.SelectBuilder {
	b = b.From("inflected_form f").Join("lemma l ON l.id = f.lemma_id")
	if len(pos) > 0 {
		b = b.Where(squirrel.Eq{"l.pos": posStrings(pos)})
	}
	if unsetOnly {
		b = b.Where(squirrel.Eq{"f.written": nil})
	}
	return b
}

// LemmaIDs maps the normalized key of every lemma of pos to its id.
func (r *Repo) LemmaIDs(ctx context.Context, pos domain.PartOfSpeech) (map[string]uuid.UUID, error) {
	rows, err := r.q(ctx).Query(ctx,
		`SELECT normalized, id FROM lemma WHERE pos = $1`, string(pos))
	if err != nil {
		return nil, postgres.MapError(err, "lemma", pos)
	}
	defer rows.Close()

	out := make(map[string]uuid.UUID)
	for rows.Next() {
		var (
			key string
			id  uuid.UUID
		)
		if err := rows.Scan(&key, &id); err != nil {
			return nil, fmt.Errorf("scan lemma id: %w", err)
		}
		out[key] = id
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "lemma", pos)
	}
	return out, nil
}

type lookupRow struct {
	FormNormalized string    `db:"form_normalized"`
	FormID         uuid.UUID `db:"form_id"`
	LemmaID        uuid.UUID `db:"lemma_id"`
}

// LookupIndex loads the whole form lookup index keyed by normalized surface string.
// Hits for one key are ordered by form id.
func (r *Repo) LookupIndex(ctx context.Context) (map[string][]domain.LookupHit, error) {
	var rows []lookupRow
	err := pgxscan.Select(ctx, r.q(ctx), &rows,
		`SELECT fl.form_normalized, fl.form_id, f.lemma_id
		 FROM form_lookup fl
		 JOIN inflected_form f ON f.id = fl.form_id
		 ORDER BY fl.form_normalized, fl.form_id`)
	if err != nil {
		return nil, postgres.MapError(err, "form_lookup", "*")
	}

	out := make(map[string][]domain.LookupHit)
	for _, row := range rows {
		out[row.FormNormalized] = append(out[row.FormNormalized], domain.LookupHit{FormID: row.FormID, LemmaID: row.LemmaID})
	}
	return out, nil
}

func (r *Repo) count(ctx context.Context, b squirrel.SelectBuilder, entity string) (int, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}
	var n int
	if err := r.q(ctx).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, postgres.MapError(err, entity, "count")
	}
	return n, nil
}

package importer

import (
	"context"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/heartmarshall/italian-lexicon/internal/domain"
)

// store is the in-memory table set behind mockRepo.
type store struct {
	phases        map[string]bool
	lemmas        map[uuid.UUID]domain.Lemma
	forms         map[uuid.UUID]domain.InflectedForm
	defs          map[uuid.UUID]domain.Definition
	lookup        map[string]map[uuid.UUID]domain.PartOfSpeech
	freq          map[string]domain.FrequencyRecord
	sentences     map[int64]domain.Sentence
	translations  map[domain.TranslationLink]bool
	sentenceLinks map[string]domain.SentenceFormLink
}

func newStore() store {
	return store{
		phases:        make(map[string]bool),
		lemmas:        make(map[uuid.UUID]domain.Lemma),
		forms:         make(map[uuid.UUID]domain.InflectedForm),
		defs:          make(map[uuid.UUID]domain.Definition),
		lookup:        make(map[string]map[uuid.UUID]domain.PartOfSpeech),
		freq:          make(map[string]domain.FrequencyRecord),
		sentences:     make(map[int64]domain.Sentence),
		translations:  make(map[domain.TranslationLink]bool),
		sentenceLinks: make(map[string]domain.SentenceFormLink),
	}
}

func (s store) clone() store {
	lookup := make(map[string]map[uuid.UUID]domain.PartOfSpeech, len(s.lookup))
	for k, v := range s.lookup {
		lookup[k] = maps.Clone(v)
	}
	return store{
		phases:        maps.Clone(s.phases),
		lemmas:        maps.Clone(s.lemmas),
		forms:         maps.Clone(s.forms),
		defs:          maps.Clone(s.defs),
		lookup:        lookup,
		freq:          maps.Clone(s.freq),
		sentences:     maps.Clone(s.sentences),
		translations:  maps.Clone(s.translations),
		sentenceLinks: maps.Clone(s.sentenceLinks),
	}
}

// mockRepo is an in-memory LexiconRepo with the store's conditional-write
// semantics, a call log and per-method error injection.
type mockRepo struct {
	mu sync.Mutex

	data   store
	errs   map[string]error
	checks []domain.CheckResult

	callLog []string
}

func newMockRepo() *mockRepo {
	return &mockRepo{data: newStore(), errs: make(map[string]error)}
}

func (m *mockRepo) call(name string) error {
	m.callLog = append(m.callLog, name)
	return m.errs[name]
}

func (m *mockRepo) calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.callLog {
		if c == name {
			n++
		}
	}
	return n
}

func (m *mockRepo) snapshot() store {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.clone()
}

func (m *mockRepo) restore(s store) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = s
}

// form returns the stored form of lemma (pos, lemma) spelled stressed with the given tags.
func (m *mockRepo) form(pos domain.PartOfSpeech, lemma, stressed string, tags ...string) (domain.InflectedForm, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lemmaID := domain.LemmaID(pos, domain.NormalizeKey(lemma))
	f, ok := m.data.forms[domain.FormID(lemmaID, stressed, domain.TagKey(tags))]
	return f, ok
}

func (m *mockRepo) formsOf(pos domain.PartOfSpeech, lemma string) []domain.InflectedForm {
	m.mu.Lock()
	defer m.mu.Unlock()
	lemmaID := domain.LemmaID(pos, domain.NormalizeKey(lemma))
	var out []domain.InflectedForm
	for _, f := range m.data.forms {
		if f.LemmaID == lemmaID {
			out = append(out, f)
		}
	}
	slices.SortFunc(out, func(a, b domain.InflectedForm) int { return strings.Compare(a.Stressed, b.Stressed) })
	return out
}

// ---------------------------------------------------------------------------
// Phase bookkeeping
// ---------------------------------------------------------------------------

func (m *mockRepo) CompletedPhases(_ context.Context) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("CompletedPhases"); err != nil {
		return nil, err
	}
	return maps.Clone(m.data.phases), nil
}

func (m *mockRepo) MarkPhaseCompleted(_ context.Context, phase string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("MarkPhaseCompleted"); err != nil {
		return err
	}
	m.data.phases[phase] = true
	return nil
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

func (m *mockRepo) CountLemmas(_ context.Context, pos ...domain.PartOfSpeech) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("CountLemmas"); err != nil {
		return 0, err
	}
	n := 0
	for _, l := range m.data.lemmas {
		if len(pos) == 0 || slices.Contains(pos, l.POS) {
			n++
		}
	}
	return n, nil
}

func (m *mockRepo) CountForms(_ context.Context, pos []domain.PartOfSpeech, unsetOnly bool) (int, error) {
	forms, err := m.listForms("CountForms", pos, unsetOnly)
	return len(forms), err
}

func (m *mockRepo) ListForms(_ context.Context, pos []domain.PartOfSpeech, unsetOnly bool) ([]domain.FormState, error) {
	return m.listForms("ListForms", pos, unsetOnly)
}

func (m *mockRepo) listForms(name string, pos []domain.PartOfSpeech, unsetOnly bool) ([]domain.FormState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call(name); err != nil {
		return nil, err
	}
	var out []domain.FormState
	for _, f := range m.data.forms {
		l := m.data.lemmas[f.LemmaID]
		if len(pos) > 0 && !slices.Contains(pos, l.POS) {
			continue
		}
		if unsetOnly && f.Written != nil {
			continue
		}
		out = append(out, domain.FormState{
			ID:            f.ID,
			LemmaID:       f.LemmaID,
			POS:           l.POS,
			Stressed:      f.Stressed,
			Normalized:    f.Normalized,
			Written:       f.Written,
			WrittenSource: f.WrittenSource,
			Labels:        slices.Clone(f.Labels),
		})
	}
	slices.SortFunc(out, func(a, b domain.FormState) int { return strings.Compare(a.ID.String(), b.ID.String()) })
	return out, nil
}

func (m *mockRepo) LemmaIDs(_ context.Context, pos domain.PartOfSpeech) (map[string]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("LemmaIDs"); err != nil {
		return nil, err
	}
	out := make(map[string]uuid.UUID)
	for _, l := range m.data.lemmas {
		if l.POS == pos {
			out[l.Normalized] = l.ID
		}
	}
	return out, nil
}

func (m *mockRepo) LookupIndex(_ context.Context) (map[string][]domain.LookupHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("LookupIndex"); err != nil {
		return nil, err
	}
	out := make(map[string][]domain.LookupHit)
	for key, ids := range m.data.lookup {
		for _, id := range slices.SortedFunc(maps.Keys(ids), func(a, b uuid.UUID) int { return strings.Compare(a.String(), b.String()) }) {
			out[key] = append(out[key], domain.LookupHit{FormID: id, LemmaID: m.data.forms[id].LemmaID})
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Writes
// ---------------------------------------------------------------------------

func (m *mockRepo) UpsertLemmas(_ context.Context, lemmas []domain.Lemma) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("UpsertLemmas"); err != nil {
		return 0, 0, err
	}
	var ins, upd int
	for _, l := range lemmas {
		cur, ok := m.data.lemmas[l.ID]
		if !ok {
			m.data.lemmas[l.ID] = l
			ins++
			continue
		}
		changed := false
		fill := func(dst **string, src *string) {
			if *dst == nil && src != nil {
				*dst = src
				changed = true
			}
		}
		fill(&cur.Gender, l.Gender)
		fill(&cur.IPA, l.IPA)
		if cur.Auxiliary == nil && l.Auxiliary != nil {
			cur.Auxiliary, changed = l.Auxiliary, true
		}
		if cur.Transitivity == nil && l.Transitivity != nil {
			cur.Transitivity, changed = l.Transitivity, true
		}
		if changed {
			m.data.lemmas[l.ID] = cur
			upd++
		}
	}
	return ins, upd, nil
}

func (m *mockRepo) InsertForms(_ context.Context, forms []domain.InflectedForm) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("InsertForms"); err != nil {
		return 0, err
	}
	n := 0
	for _, f := range forms {
		if !f.ProvenanceConsistent() {
			return n, domain.ErrValidation
		}
		if _, ok := m.data.forms[f.ID]; ok {
			continue
		}
		m.data.forms[f.ID] = f
		n++
	}
	return n, nil
}

func (m *mockRepo) InsertDefinitions(_ context.Context, defs []domain.Definition) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("InsertDefinitions"); err != nil {
		return 0, err
	}
	n := 0
	for _, d := range defs {
		if _, ok := m.data.defs[d.ID]; ok {
			continue
		}
		m.data.defs[d.ID] = d
		n++
	}
	return n, nil
}

func (m *mockRepo) InsertLookup(_ context.Context, entries []domain.LookupEntry) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("InsertLookup"); err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		ids, ok := m.data.lookup[e.FormNormalized]
		if !ok {
			ids = make(map[uuid.UUID]domain.PartOfSpeech)
			m.data.lookup[e.FormNormalized] = ids
		}
		if _, ok := ids[e.FormID]; ok {
			continue
		}
		ids[e.FormID] = e.POS
		n++
	}
	return n, nil
}

func (m *mockRepo) ApplyWritten(_ context.Context, updates []domain.WrittenUpdate) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("ApplyWritten"); err != nil {
		return 0, err
	}
	n := 0
	for _, u := range updates {
		f, ok := m.data.forms[u.FormID]
		if !ok || f.Written != nil {
			continue
		}
		w, src := u.Written, u.Source
		f.Written, f.WrittenSource = &w, &src
		m.data.forms[u.FormID] = f
		n++
	}
	return n, nil
}

func (m *mockRepo) UpdateLabels(_ context.Context, updates []domain.LabelUpdate) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("UpdateLabels"); err != nil {
		return 0, err
	}
	n := 0
	for _, u := range updates {
		f, ok := m.data.forms[u.FormID]
		if !ok || slices.Equal(f.Labels, u.Labels) {
			continue
		}
		f.Labels = slices.Clone(u.Labels)
		m.data.forms[u.FormID] = f
		n++
	}
	return n, nil
}

func (m *mockRepo) UpsertFrequencies(_ context.Context, records []domain.FrequencyRecord) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("UpsertFrequencies"); err != nil {
		return 0, 0, err
	}
	var ins, upd int
	for _, r := range records {
		key := r.LemmaID.String() + "|" + r.Corpus
		cur, ok := m.data.freq[key]
		switch {
		case !ok:
			ins++
		case cur != r:
			upd++
		default:
			continue
		}
		m.data.freq[key] = r
	}
	return ins, upd, nil
}

func (m *mockRepo) UpsertSentences(_ context.Context, sentences []domain.Sentence) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("UpsertSentences"); err != nil {
		return 0, 0, err
	}
	var ins, upd int
	for _, s := range sentences {
		cur, ok := m.data.sentences[s.ID]
		switch {
		case !ok:
			ins++
		case cur != s:
			upd++
		default:
			continue
		}
		m.data.sentences[s.ID] = s
	}
	return ins, upd, nil
}

func (m *mockRepo) InsertTranslations(_ context.Context, links []domain.TranslationLink) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("InsertTranslations"); err != nil {
		return 0, err
	}
	n := 0
	for _, l := range links {
		if m.data.translations[l] {
			continue
		}
		m.data.translations[l] = true
		n++
	}
	return n, nil
}

func (m *mockRepo) InsertSentenceLinks(_ context.Context, links []domain.SentenceFormLink) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("InsertSentenceLinks"); err != nil {
		return 0, err
	}
	n := 0
	for _, l := range links {
		key := strconv.FormatInt(l.SentenceID, 10) + "|" + l.FormID.String()
		if _, ok := m.data.sentenceLinks[key]; ok {
			continue
		}
		m.data.sentenceLinks[key] = l
		n++
	}
	return n, nil
}

func (m *mockRepo) RunChecks(_ context.Context) ([]domain.CheckResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("RunChecks"); err != nil {
		return nil, err
	}
	if m.checks != nil {
		return m.checks, nil
	}

	provenance := 0
	withForms := make(map[uuid.UUID]bool)
	for _, f := range m.data.forms {
		if !f.ProvenanceConsistent() {
			provenance++
		}
		withForms[f.LemmaID] = true
	}
	orphans := 0
	for id := range m.data.lemmas {
		if !withForms[id] {
			orphans++
		}
	}
	return []domain.CheckResult{
		{Name: "provenance_consistent", Violations: provenance},
		{Name: "lemmas_without_forms", Violations: orphans},
	}, nil
}

// ---------------------------------------------------------------------------
// Transactions
// ---------------------------------------------------------------------------

// fakeTx restores the mock store when fn fails, like a rollback.
type fakeTx struct {
	repo       *mockRepo
	begun      int
	committed  int
	rolledBack int
}

func (f *fakeTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.begun++
	snap := f.repo.snapshot()
	if err := fn(ctx); err != nil {
		f.repo.restore(snap)
		f.rolledBack++
		return err
	}
	f.committed++
	return nil
}

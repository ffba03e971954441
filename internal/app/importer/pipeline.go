package importer

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/heartmarshall/italian-lexicon/internal/domain"
	"github.com/heartmarshall/italian-lexicon/internal/orthography"
)

// Phase names in canonical execution order.
const (
	PhaseLexicon     = "lexicon"
	PhaseMorphology  = "morphology"
	PhaseFormOf      = "formof"
	PhaseOrthography = "orthography"
	PhaseFrequency   = "frequency"
	PhaseSentences   = "sentences"
	PhaseVerify      = "verify"
)

// Skip reasons shared by several phases.
const (
	ReasonDryRun            = "dry_run"
	ReasonUnchanged         = "unchanged"
	ReasonWrittenAlreadySet = "written_already_set"
	ReasonInvalidProposal   = "invalid_proposal"
)

type phase struct {
	name        string
	requires    []string
	needsLemmas bool
	run         func(p *Pipeline, ctx context.Context) PhaseResult
}

var phases = []phase{
	{name: PhaseLexicon, run: (*Pipeline).runLexicon},
	{name: PhaseMorphology, requires: []string{PhaseLexicon}, run: (*Pipeline).runMorphology},
	{name: PhaseFormOf, requires: []string{PhaseMorphology}, run: (*Pipeline).runFormOf},
	{name: PhaseOrthography, requires: []string{PhaseFormOf}, run: (*Pipeline).runOrthography},
	{name: PhaseFrequency, requires: []string{PhaseLexicon}, needsLemmas: true, run: (*Pipeline).runFrequency},
	{name: PhaseSentences, requires: []string{PhaseLexicon}, needsLemmas: true, run: (*Pipeline).runSentences},
	{name: PhaseVerify, requires: []string{PhaseLexicon}, run: (*Pipeline).runVerify},
}

// AllPhases returns the phase names in execution order.
func AllPhases() []string {
	out := make([]string, len(phases))
	for i, ph := range phases {
		out[i] = ph.name
	}
	return out
}

// PhaseResult holds the outcome of a single pipeline phase.
type PhaseResult struct {
	Inserted int
	Updated  int
	Skipped  int
	Errors   int
	// Reasons breaks Skipped down by cause.
	Reasons  map[string]int
	Duration time.Duration
	Err      error
}

func (r *PhaseResult) skip(reason string, n int) {
	if n <= 0 {
		return
	}
	if r.Reasons == nil {
		r.Reasons = make(map[string]int)
	}
	r.Reasons[reason] += n
	r.Skipped += n
}

func (r *PhaseResult) skipAll(reasons map[string]int) {
	for reason, n := range reasons {
		r.skip(reason, n)
	}
}

// Observer is notified as phases advance. All calls come from the goroutine
// running the pipeline.
type Observer interface {
	PhaseStarted(phase string, total int)
	PhaseAdvanced(phase string, n int)
	PhaseFinished(phase string, result PhaseResult)
}

type nopObserver struct{}

func (nopObserver) PhaseStarted(string, int)          {}
func (nopObserver) PhaseAdvanced(string, int)         {}
func (nopObserver) PhaseFinished(string, PhaseResult) {}

// Pipeline orchestrates the import phases.
type Pipeline struct {
	log      *slog.Logger
	repo     LexiconRepo
	tx       TxRunner
	engine   *orthography.Engine
	cfg      Config
	observer Observer
	results  map[string]PhaseResult
}

// NewPipeline creates a new Pipeline.
func NewPipeline(log *slog.Logger, repo LexiconRepo, tx TxRunner, engine *orthography.Engine, cfg Config) *Pipeline {
	return &Pipeline{
		log:      log,
		repo:     repo,
		tx:       tx,
		engine:   engine,
		cfg:      cfg,
		observer: nopObserver{},
		results:  make(map[string]PhaseResult),
	}
}

// SetObserver installs o to receive progress notifications.
func (p *Pipeline) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	p.observer = o
}

// Results returns phase results after Run completes.
func (p *Pipeline) Results() map[string]PhaseResult {
	return p.results
}

// HasErrors returns true if any phase recorded errors.
func (p *Pipeline) HasErrors() bool {
	for _, r := range p.results {
		if r.Err != nil || r.Errors > 0 {
			return true
		}
	}
	return false
}

// Run executes the pipeline. If names is non-empty, only the listed phases run,
// still in canonical order. A failed phase does not stop later phases; those
// depending on it fail their precondition check.
func (p *Pipeline) Run(ctx context.Context, names []string) error {
	toRun, err := selectPhases(names)
	if err != nil {
		return err
	}

	for _, ph := range toRun {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		p.log.Info("starting phase", slog.String("phase", ph.name), slog.Bool("dry_run", p.cfg.DryRun))

		result := p.execute(ctx, ph)
		result.Duration = time.Since(start)
		p.results[ph.name] = result
		p.observer.PhaseFinished(ph.name, result)

		if result.Err != nil {
			p.log.Warn("phase failed",
				slog.String("phase", ph.name),
				slog.String("error", result.Err.Error()),
				slog.Duration("duration", result.Duration),
			)
		} else {
			p.log.Info("phase completed",
				slog.String("phase", ph.name),
				slog.Int("inserted", result.Inserted),
				slog.Int("updated", result.Updated),
				slog.Int("skipped", result.Skipped),
				slog.Int("errors", result.Errors),
				slog.Any("reasons", result.Reasons),
				slog.Duration("duration", result.Duration),
			)
		}
	}

	p.log.Info("pipeline completed", slog.Int("phases_run", len(toRun)))
	return nil
}

func selectPhases(names []string) ([]phase, error) {
	if len(names) == 0 {
		return phases, nil
	}

	filter := make(map[string]bool, len(names))
	for _, n := range names {
		filter[n] = true
	}
	var out []phase
	for _, ph := range phases {
		if filter[ph.name] {
			out = append(out, ph)
			delete(filter, ph.name)
		}
	}
	if len(filter) > 0 {
		unknown := slices.Sorted(maps.Keys(filter))
		return nil, fmt.Errorf("unknown phases %v (known: %v)", unknown, AllPhases())
	}
	return out, nil
}

// execute runs one phase in its own transaction and records its completion.
// Dry runs only parse sources and never touch the store.
func (p *Pipeline) execute(ctx context.Context, ph phase) PhaseResult {
	if p.cfg.DryRun {
		return ph.run(p, ctx)
	}

	if err := p.checkPreconditions(ctx, ph); err != nil {
		return PhaseResult{Err: err}
	}

	var result PhaseResult
	err := p.tx.RunInTx(ctx, func(ctx context.Context) error {
		result = ph.run(p, ctx)
		if result.Err != nil {
			return result.Err
		}
		return p.repo.MarkPhaseCompleted(ctx, ph.name)
	})
	if err != nil {
		result.Err = err
	}
	return result
}

func (p *Pipeline) checkPreconditions(ctx context.Context, ph phase) error {
	if len(ph.requires) == 0 {
		return nil
	}

	done, err := p.repo.CompletedPhases(ctx)
	if err != nil {
		return fmt.Errorf("read completed phases: %w", err)
	}
	var missing []string
	for _, req := range ph.requires {
		if !done[req] {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return &domain.PreconditionError{Phase: ph.name, Requires: missing, Detail: "not completed"}
	}

	if ph.needsLemmas {
		n, err := p.repo.CountLemmas(ctx, p.cfg.POS()...)
		if err != nil {
			return fmt.Errorf("count lemmas: %w", err)
		}
		if n == 0 {
			return &domain.PreconditionError{Phase: ph.name, Requires: []string{PhaseLexicon}, Detail: "no lemmas imported"}
		}
	}
	return nil
}

// proposeWritten offers a spelling to f and queues the write when it applies.
// It returns false when the proposal was not applied, after recording why.
func proposeWritten(result *PhaseResult, f *domain.FormState, prop domain.WrittenProposal, queue *[]domain.WrittenUpdate) bool {
	switch domain.DecideWritten(*f, prop) {
	case domain.DecisionApply:
		f.Apply(prop)
		*queue = append(*queue, domain.WrittenUpdate{FormID: f.ID, Written: prop.Written, Source: prop.Source})
		return true
	case domain.DecisionUnchanged:
		result.skip(ReasonUnchanged, 1)
	case domain.DecisionKeep:
		result.skip(ReasonWrittenAlreadySet, 1)
	default:
		result.skip(ReasonInvalidProposal, 1)
	}
	return false
}

// batchProcess splits items into batches and processes each via fn.
func batchProcess[T any](items []T, batchSize int, fn func([]T) (int, error)) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = 500
	}

	total := 0
	for i := 0; i < len(items); i += batchSize {
		end := min(i+batchSize, len(items))
		n, err := fn(items[i:end])
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// batchUpsert is batchProcess for upserts that report inserted and updated rows.
func batchUpsert[T any](items []T, batchSize int, fn func([]T) (int, int, error)) (inserted, updated int, err error) {
	_, err = batchProcess(items, batchSize, func(batch []T) (int, error) {
		ins, upd, err := fn(batch)
		inserted += ins
		updated += upd
		return ins + upd, err
	})
	return inserted, updated, err
}

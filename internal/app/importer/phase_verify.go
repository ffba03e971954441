package importer

import (
	"context"
	"fmt"
	"log/slog"
)

// runVerify runs the store consistency checks. Each failing check counts as one error.
func (p *Pipeline) runVerify(ctx context.Context) PhaseResult {
	if p.cfg.DryRun {
		return PhaseResult{}
	}

	checks, err := p.repo.RunChecks(ctx)
	if err != nil {
		return PhaseResult{Err: fmt.Errorf("run checks: %w", err)}
	}
	p.observer.PhaseStarted(PhaseVerify, len(checks))

	var result PhaseResult
	for _, c := range checks {
		p.observer.PhaseAdvanced(PhaseVerify, 1)
		if c.Passed() {
			p.log.Debug("check passed", slog.String("check", c.Name))
			continue
		}
		result.Errors++
		p.log.Warn("check failed", slog.String("check", c.Name), slog.Int("violations", c.Violations))
	}
	return result
}

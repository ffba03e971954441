package main

import (
	"fmt"
	"sync"

	"github.com/gosuri/uiprogress"

	"github.com/heartmarshall/italian-lexicon/internal/app/importer"
)

// progressObserver renders one bar per phase as the pipeline reports progress.
type progressObserver struct {
	mu       sync.Mutex
	progress *uiprogress.Progress
	bars     map[string]*uiprogress.Bar
}

func newProgressObserver() *progressObserver {
	p := uiprogress.New()
	p.Start()
	return &progressObserver{progress: p, bars: make(map[string]*uiprogress.Bar)}
}

func (o *progressObserver) PhaseStarted(phase string, total int) {
	o.mu.Lock()
	defer o.mu.Unlock()

	bar := o.progress.AddBar(max(total, 1))
	bar.PrependFunc(func(*uiprogress.Bar) string { return fmt.Sprintf("%-12s", phase) })
	bar.PrependElapsed()
	bar.AppendCompleted()
	o.bars[phase] = bar
}

func (o *progressObserver) PhaseAdvanced(phase string, n int) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if bar, ok := o.bars[phase]; ok {
		_ = bar.Set(min(bar.Current()+n, bar.Total))
	}
}

func (o *progressObserver) PhaseFinished(phase string, _ importer.PhaseResult) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if bar, ok := o.bars[phase]; ok {
		_ = bar.Set(bar.Total)
	}
}

// Stop stops rendering. Call it before printing anything else.
func (o *progressObserver) Stop() {
	o.progress.Stop()
}

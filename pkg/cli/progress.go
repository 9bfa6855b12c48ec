package cli

import (
	"io"
	"sync"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Progress draws one bar per stage on a terminal. A nil *Progress is a
// valid no-op.
type Progress struct {
	p *mpb.Progress

	mu  sync.Mutex
	bar *mpb.Bar
}

// NewProgress returns a Progress rendering to w.
func NewProgress(w io.Writer) *Progress {
	return &Progress{p: mpb.New(mpb.WithOutput(w), mpb.WithWidth(40))}
}

// Begin starts a bar for a stage of total steps.
func (pr *Progress) Begin(name string, total int) {
	if pr == nil {
		return
	}
	pr.mu.Lock()
	defer pr.mu.Unlock()
	pr.bar = pr.p.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name(name+": "),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(decor.Percentage()),
	)
}

// Add advances the current bar. It is safe for concurrent use.
func (pr *Progress) Add(n int) {
	if pr == nil {
		return
	}
	pr.mu.Lock()
	bar := pr.bar
	pr.mu.Unlock()
	if bar != nil {
		bar.IncrBy(n)
	}
}

// End completes the current bar.
func (pr *Progress) End() {
	if pr == nil {
		return
	}
	pr.mu.Lock()
	defer pr.mu.Unlock()
	if pr.bar != nil {
		// Stages may end early on cache hits or errors. Bars with a
		// positive total ignore SetTotal, so an unfinished bar is aborted
		// for Wait to return.
		if !pr.bar.Completed() {
			pr.bar.Abort(false)
		}
		pr.bar = nil
	}
}

// Wait flushes the bars. Call it once after the last stage.
func (pr *Progress) Wait() {
	if pr == nil {
		return
	}
	pr.p.Wait()
}

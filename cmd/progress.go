package cmd

import (
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"

	"imagematcher/matcher"
)

// progressObserver renders engine progress as a terminal progress bar
type progressObserver struct {
	mu   sync.Mutex
	out  io.Writer
	bar  *progressbar.ProgressBar
	done int
}

func newProgressObserver(out io.Writer) *progressObserver {
	return &progressObserver{out: out}
}

func (p *progressObserver) OnStage(s matcher.Stage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		p.bar.Describe(s.String())
	}
}

func (p *progressObserver) OnCandidate(done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionSetDescription("Comparing"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("images"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionFullWidth(),
		)
	}
	// workers report out of order
	if done > p.done {
		p.done = done
		_ = p.bar.Set(done)
	}
}

func (p *progressObserver) OnFinish(out *matcher.Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar == nil {
		return
	}
	if out.Abandoned == 0 {
		_ = p.bar.Finish()
	}
	_, _ = io.WriteString(p.out, "\n")
}

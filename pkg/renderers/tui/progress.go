package tui

import (
	"context"
	"sync"

	"github.com/goliatone/go-confgen/pkg/model"
	"github.com/goliatone/go-confgen/pkg/submit"
)

var (
	_ submit.PhaseObserver = (*Progress)(nil)
	_ submit.Notifier      = (*Progress)(nil)
)

// Progress prints the busy caption of each pending phase and the single
// failure notice of a submission through the renderer's driver.
type Progress struct {
	renderer *Renderer
	ctx      context.Context

	mu  sync.Mutex
	err error
}

// Progress returns a phase observer and notifier bound to ctx.
func (r *Renderer) Progress(ctx context.Context) *Progress {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Progress{renderer: r, ctx: ctx}
}

// PhaseChanged prints "Generating..." or "Downloading..." when the pending
// window advances. Other phases are silent.
func (p *Progress) PhaseChanged(_ model.FormType, phase submit.Phase) {
	if !phase.Busy() {
		return
	}
	p.record(p.renderer.info(p.ctx, phase.Label("")))
}

// NotifyError prints the failure notice.
func (p *Progress) NotifyError(message string) {
	p.record(p.renderer.warn(p.ctx, message))
}

// Err returns the first driver error seen while printing.
func (p *Progress) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *Progress) record(err error) {
	if err == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err == nil {
		p.err = err
	}
}

// Package progress renders single-line terminal progress states, redrawing
// in place on a ticker.
package progress

import (
	"bufio"
	"fmt"
	"io"
	"sync"
	"time"
)

type State interface {
	String() string
}

type Progress struct {
	mu sync.Mutex
	// buffer output to minimize flickering on all terminals
	w *bufio.Writer

	ticker *time.Ticker
	state  State
}

func NewProgress(w io.Writer) *Progress {
	p := &Progress{w: bufio.NewWriter(w)}
	go p.start()
	return p
}

// Set replaces the rendered state.
func (p *Progress) Set(state State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state = state
}

func (p *Progress) stop() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ticker != nil {
		p.ticker.Stop()
		p.ticker = nil
		p.renderLocked()
		return true
	}

	return false
}

func (p *Progress) Stop() bool {
	stopped := p.stop()
	if stopped {
		fmt.Fprintln(p.w)
	}

	// show cursor
	fmt.Fprint(p.w, "\033[?25h")
	p.w.Flush()
	return stopped
}

func (p *Progress) StopAndClear() bool {
	stopped := p.stop()
	if stopped {
		// clear the progress line
		fmt.Fprint(p.w, "\033[2K", "\033[1G")
	}

	// show cursor
	fmt.Fprint(p.w, "\033[?25h")
	p.w.Flush()
	return stopped
}

func (p *Progress) render() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.renderLocked()
}

func (p *Progress) renderLocked() {
	if p.state == nil {
		return
	}

	fmt.Fprint(p.w, "\033[1G", p.state.String(), "\033[K")
	p.w.Flush()
}

func (p *Progress) start() {
	p.mu.Lock()
	p.ticker = time.NewTicker(100 * time.Millisecond)
	ticker := p.ticker
	p.mu.Unlock()

	// hide cursor
	fmt.Fprint(p.w, "\033[?25l")
	for range ticker.C {
		p.render()
	}
}

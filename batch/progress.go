package batch

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

// Progress prints a single self-overwriting counter line. The total is
// fixed when the progress is created.
type Progress struct {
	w     io.Writer
	total int
	done  atomic.Int64
	mu    sync.Mutex
}

// NewProgress returns nil when w is nil; a nil *Progress ignores every call.
func NewProgress(w io.Writer, total int) *Progress {
	if w == nil {
		return nil
	}
	return &Progress{w: w, total: total}
}

func (p *Progress) Start() {
	if p == nil {
		return
	}
	p.print("Processing images...")
}

// Step counts one finished page and returns the new count.
func (p *Progress) Step() int {
	if p == nil {
		return 0
	}
	n := p.done.Add(1)
	p.print(fmt.Sprintf("Processing images... %5d/%d", n, p.total))
	return int(n)
}

func (p *Progress) Finish() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, "\rDone!                               ")
}

func (p *Progress) print(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.w, "\r"+line)
}

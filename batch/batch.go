// Package batch drives the page pipelines over whole books: rendering every
// page of a source in parallel, and re-joining double-page spreads in a
// directory of already rendered pages.
package batch

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"slices"
	"sync"
)

// ErrOutputNotDir is returned when the output path exists and is a file.
var ErrOutputNotDir = errors.New("batch: output path is not a directory")

// PageError is the failure of a single page. Other pages are unaffected.
type PageError struct {
	Index int
	Name  string
	Err   error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %d (%s): %v", e.Index+1, e.Name, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

// Report summarizes a run.
type Report struct {
	// Pages is the number of input images.
	Pages int
	// Files is the number of output files written.
	Files int
	// Spreads is the number of page pairs joined into one file.
	Spreads int
	Failed  []*PageError
}

// Err joins the page failures, nil when every page succeeded.
func (r Report) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failed))
	for i, f := range r.Failed {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// failures collects page errors from concurrent workers.
type failures struct {
	mu   sync.Mutex
	list []*PageError
	log  *slog.Logger
}

func (f *failures) add(index int, name string, err error) {
	pe := &PageError{Index: index, Name: name, Err: err}
	f.log.Warn("page failed", "page", index+1, "name", name, "err", err)
	f.mu.Lock()
	f.list = append(f.list, pe)
	f.mu.Unlock()
}

func (f *failures) sorted() []*PageError {
	f.mu.Lock()
	defer f.mu.Unlock()
	slices.SortFunc(f.list, func(a, b *PageError) int { return cmp.Compare(a.Index, b.Index) })
	return f.list
}

func workerCount(n, jobs int) int {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return max(1, min(n, jobs))
}

func loggerOr(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

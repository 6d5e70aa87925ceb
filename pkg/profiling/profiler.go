// Package profiling times nested phases of a vt command and optionally
// writes pprof CPU and heap profiles. Spans are no-ops until Enable is
// called, so library code can open them unconditionally.
package profiling

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// Stopper ends a span.
type Stopper interface {
	Stop()
}

type span struct {
	name     string
	start    time.Time
	duration time.Duration
	children []*span
}

type profiler struct {
	mu      sync.Mutex
	enabled bool
	root    *span
	stack   []*span
}

var global = &profiler{}

// Enable turns span recording on.
func Enable() {
	global.mu.Lock()
	defer global.mu.Unlock()

	if global.enabled {
		return
	}
	global.enabled = true
	global.root = &span{name: "total", start: time.Now()}
	global.stack = []*span{global.root}
}

// Reset discards recorded spans and disables recording.
func Reset() {
	global.mu.Lock()
	defer global.mu.Unlock()

	global.enabled = false
	global.root = nil
	global.stack = nil
}

// Start opens a span nested in the innermost open one. Typical use is
// defer profiling.Start("list sessions").Stop().
func Start(name string) Stopper {
	global.mu.Lock()
	defer global.mu.Unlock()

	if !global.enabled {
		return noopStopper{}
	}

	s := &span{name: name, start: time.Now()}
	parent := global.stack[len(global.stack)-1]
	parent.children = append(parent.children, s)
	global.stack = append(global.stack, s)
	return &stopper{s: s}
}

type stopper struct {
	once sync.Once
	s    *span
}

func (st *stopper) Stop() {
	st.once.Do(func() {
		global.mu.Lock()
		defer global.mu.Unlock()

		st.s.duration = time.Since(st.s.start)
		// Pop this span and anything left open inside it.
		for i := len(global.stack) - 1; i > 0; i-- {
			if global.stack[i] == st.s {
				global.stack = global.stack[:i]
				break
			}
		}
	})
}

// Summarize writes the span tree with each span's share of the total.
func Summarize(w io.Writer) {
	global.mu.Lock()
	defer global.mu.Unlock()

	if !global.enabled || global.root == nil {
		return
	}

	total := time.Since(global.root.start)
	fmt.Fprintf(w, "\n--- Timing (%v) ---\n", total.Round(100*time.Microsecond))
	for _, child := range sortedChildren(global.root) {
		printSpan(w, child, 0, total)
	}
}

func printSpan(w io.Writer, s *span, depth int, total time.Duration) {
	pct := 0.0
	if total > 0 {
		pct = float64(s.duration) / float64(total) * 100
	}
	fmt.Fprintf(w, "%s- %s (%v, %.1f%%)\n", strings.Repeat("  ", depth), s.name, s.duration.Round(100*time.Microsecond), pct)
	for _, child := range sortedChildren(s) {
		printSpan(w, child, depth+1, total)
	}
}

func sortedChildren(s *span) []*span {
	children := append([]*span(nil), s.children...)
	sort.Slice(children, func(i, j int) bool {
		return children[i].start.Before(children[j].start)
	})
	return children
}

type noopStopper struct{}

func (noopStopper) Stop() {}

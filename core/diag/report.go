// Package diag collects recoverable, record-level problems for one source.
//
// Counters are always maintained. Individual issues are retained only when the
// report was created with Verbose set.
package diag

import (
	"fmt"
	"sync"
)

// Kind classifies a recoverable problem.
type Kind int

const (
	KindParse Kind = iota
	KindTransform
	KindMissingKey
	KindCytoband
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindTransform:
		return "transform"
	case KindMissingKey:
		return "missing_key"
	case KindCytoband:
		return "cytoband"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Issue is one recoverable problem.
type Issue struct {
	Kind   Kind
	File   string
	Line   int // 1-based; 0 when not line oriented
	Reason string
}

func (i Issue) String() string {
	switch {
	case i.File != "" && i.Line > 0:
		return fmt.Sprintf("%s: %s:%d: %s", i.Kind, i.File, i.Line, i.Reason)
	case i.File != "":
		return fmt.Sprintf("%s: %s: %s", i.Kind, i.File, i.Reason)
	}
	return fmt.Sprintf("%s: %s", i.Kind, i.Reason)
}

// Report accumulates counts and (optionally) issues. Safe for concurrent use.
type Report struct {
	Verbose bool

	mu       sync.Mutex
	counts   map[Kind]int
	parsed   int
	filtered int
	issues   []Issue
}

// New returns a report; verbose retains individual issues.
func New(verbose bool) *Report {
	return &Report{Verbose: verbose, counts: map[Kind]int{}}
}

// Add counts an issue and keeps it when verbose. A nil report ignores the call.
func (r *Report) Add(i Issue) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = map[Kind]int{}
	}
	r.counts[i.Kind]++
	if r.Verbose {
		r.issues = append(r.issues, i)
	}
}

// Addf is Add with a formatted reason.
func (r *Report) Addf(kind Kind, file string, line int, format string, a ...any) {
	if r == nil {
		return
	}
	r.Add(Issue{Kind: kind, File: file, Line: line, Reason: fmt.Sprintf(format, a...)})
}

// Parsed counts one successfully parsed unit.
func (r *Report) Parsed() {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.parsed++
	r.mu.Unlock()
}

// Filtered counts one record removed by the transformer.
func (r *Report) Filtered() {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.filtered++
	r.mu.Unlock()
}

// Count returns the number of issues of kind k.
func (r *Report) Count(k Kind) int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[k]
}

// Skipped is the number of malformed units skipped by the parser.
func (r *Report) Skipped() int { return r.Count(KindParse) }

// ParsedCount returns the number of parsed units.
func (r *Report) ParsedCount() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.parsed
}

// FilteredCount returns the number of records removed by filters.
func (r *Report) FilteredCount() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filtered
}

// Issues returns a copy of the retained issues.
func (r *Report) Issues() []Issue {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Issue(nil), r.issues...)
}

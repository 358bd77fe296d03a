// Package cytoband labels genomic coordinates with cytogenetic bands.
package cytoband

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"geneannot-core/parse"
)

// Band is one band on a chromosome, 1-based closed coordinates.
type Band struct {
	Start int
	End   int
	Label string
}

// Table holds bands per normalized chromosome, sorted by start. It is
// read-only after construction.
type Table struct {
	bands map[string][]Band
}

// ReferenceError reports a missing or malformed reference file.
type ReferenceError struct {
	Path string
	Line int
	Err  error
}

func (e *ReferenceError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("cytoband reference %s:%d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("cytoband reference %s: %v", e.Path, e.Err)
}

func (e *ReferenceError) Unwrap() error { return e.Err }

// Normalize strips a leading "chr" (any case).
func Normalize(chrom string) string {
	c := strings.TrimSpace(chrom)
	if len(c) > 3 && strings.EqualFold(c[:3], "chr") {
		return c[3:]
	}
	return c
}

// NewTable builds a table from 1-based bands. Input slices are copied.
func NewTable(bands map[string][]Band) *Table {
	t := &Table{bands: make(map[string][]Band, len(bands))}
	for chrom, bs := range bands {
		cp := append([]Band(nil), bs...)
		sort.SliceStable(cp, func(i, j int) bool { return cp[i].Start < cp[j].Start })
		t.bands[Normalize(chrom)] = cp
	}
	return t
}

// Load reads a UCSC cytoBand file. "-" is stdin; gzip is detected as for
// parser inputs.
func Load(path string) (*Table, error) {
	rc, err := parse.Open(path)
	if err != nil {
		return nil, &ReferenceError{Path: path, Err: err}
	}
	defer rc.Close()

	t, err := Read(rc)
	if err != nil {
		if re, ok := err.(*ReferenceError); ok {
			re.Path = path
			return nil, re
		}
		return nil, &ReferenceError{Path: path, Err: err}
	}
	return t, nil
}

// Read parses UCSC format: chrom, chromStart, chromEnd, name, gieStain.
// chromStart is 0-based and chromEnd exclusive.
func Read(r io.Reader) (*Table, error) {
	bands := map[string][]Band{}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" || strings.HasPrefix(text, "#") {
			continue
		}
		cols := strings.Split(text, "\t")
		if len(cols) < 4 {
			return nil, &ReferenceError{Line: line, Err: fmt.Errorf("expected at least 4 columns, found %d", len(cols))}
		}
		start, err := strconv.Atoi(strings.TrimSpace(cols[1]))
		if err != nil {
			return nil, &ReferenceError{Line: line, Err: fmt.Errorf("chromStart: %w", err)}
		}
		end, err := strconv.Atoi(strings.TrimSpace(cols[2]))
		if err != nil {
			return nil, &ReferenceError{Line: line, Err: fmt.Errorf("chromEnd: %w", err)}
		}
		if end <= start {
			return nil, &ReferenceError{Line: line, Err: fmt.Errorf("empty band [%d,%d)", start, end)}
		}
		chrom := Normalize(cols[0])
		bands[chrom] = append(bands[chrom], Band{
			Start: start + 1,
			End:   end,
			Label: chrom + strings.TrimSpace(cols[3]),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, &ReferenceError{Line: line, Err: err}
	}
	if len(bands) == 0 {
		return nil, &ReferenceError{Err: fmt.Errorf("no bands")}
	}
	return NewTable(bands), nil
}

// Resolve returns the band label(s) overlapping [start,end] on chrom,
// joined with "-". positionIndex 0 means the coordinates are 0-based.
func (t *Table) Resolve(chrom string, start, end, positionIndex int) (string, bool) {
	if t == nil {
		return "", false
	}
	if positionIndex == 0 {
		start++
		end++
	}
	if end < start {
		start, end = end, start
	}
	bs := t.bands[Normalize(chrom)]
	i := sort.Search(len(bs), func(i int) bool { return bs[i].End >= start })
	var labels []string
	for ; i < len(bs) && bs[i].Start <= end; i++ {
		labels = append(labels, bs[i].Label)
	}
	if len(labels) == 0 {
		return "", false
	}
	return strings.Join(labels, "-"), true
}

// Chromosomes returns the number of chromosomes in the table.
func (t *Table) Chromosomes() int {
	if t == nil {
		return 0
	}
	return len(t.bands)
}

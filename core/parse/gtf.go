// core/parse/gtf.go
package parse

import (
	"context"
	"io"
	"strings"

	"geneannot-core/diag"
	"geneannot-core/record"
)

// GTFColumns are the nine fixed GTF columns.
var GTFColumns = []string{
	"seqname", "source", "feature", "start", "end",
	"score", "strand", "frame", "attribute",
}

const gtfAttrColumn = "attribute"

// gtf parses GTF: nine tab-separated columns with the attribute column
// flattened into bare-named fields. Repeated attribute keys become lists.
type gtf struct {
	p   Params
	rep *diag.Report
}

func (g *gtf) Parse(ctx context.Context, name string, r io.Reader, emit Emit) error {
	header := GTFColumns
	if len(g.p.Header) > 0 {
		header = g.p.Header
	}
	comment := g.p.comment()
	clean := newCleaner(g.p, ".")

	return scanLines(ctx, r, func(idx int, line string) error {
		if strings.TrimSpace(line) == "" || (comment != "" && strings.HasPrefix(line, comment)) {
			return nil
		}
		cols := strings.Split(line, "\t")
		if len(cols) != len(header) {
			g.rep.Addf(diag.KindParse, name, idx+1, "expected %d columns, found %d", len(header), len(cols))
			return nil
		}
		rec := record.Record{}
		for i, col := range header {
			if col == gtfAttrColumn {
				continue
			}
			if v, ok := clean.value(cols[i]); ok {
				rec[col] = v
			}
		}
		for i, col := range header {
			if col == gtfAttrColumn {
				g.attributes(rec, cols[i], clean)
			}
		}
		if len(rec) == 0 {
			return nil
		}
		g.rep.Parsed()
		return emit(rec)
	})
}

// attributes parses `key "value"; key2 "value2";`.
func (g *gtf) attributes(rec record.Record, raw string, clean cleaner) {
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, val, ok := strings.Cut(part, " ")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		v, keep := clean.value(strings.Trim(strings.TrimSpace(val), `"`))
		if key == "" || !keep {
			continue
		}
		if isGTFColumn(key) {
			key = gtfAttrColumn + "_" + key
		}
		add(rec, key, v)
	}
}

func isGTFColumn(name string) bool {
	for _, c := range GTFColumns {
		if c == name {
			return true
		}
	}
	return false
}

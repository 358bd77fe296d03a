// core/parse/delimited.go
package parse

import (
	"context"
	"io"
	"strings"

	"geneannot-core/diag"
	"geneannot-core/record"
)

// delimited handles TSV and CSV. The header comes from Params.Header, from
// the line at Params.HeaderLine, or from the first non-comment line.
type delimited struct {
	sep string
	p   Params
	rep *diag.Report
}

func (d *delimited) Parse(ctx context.Context, name string, r io.Reader, emit Emit) error {
	var header []string
	if len(d.p.Header) > 0 {
		header = append([]string(nil), d.p.Header...)
	}
	comment := d.p.comment()
	clean := newCleaner(d.p)

	return scanLines(ctx, r, func(idx int, line string) error {
		switch {
		case d.p.HeaderLine != nil && header == nil:
			if idx == *d.p.HeaderLine {
				header = d.header(line, comment)
			}
			return nil
		case comment != "" && strings.HasPrefix(line, comment):
			return nil
		case header == nil:
			header = d.header(line, comment)
			return nil
		case strings.TrimSpace(line) == "":
			return nil
		}

		values := strings.Split(line, d.sep)
		if len(values) < len(header) || !blankTail(values[len(header):]) {
			d.rep.Addf(diag.KindParse, name, idx+1, "expected %d columns, found %d", len(header), len(values))
			return nil
		}
		rec := record.Record{}
		for i, col := range header {
			if col == "" {
				continue
			}
			if v, ok := clean.value(values[i]); ok {
				rec[col] = v
			}
		}
		if len(rec) == 0 {
			return nil
		}
		d.rep.Parsed()
		return emit(rec)
	})
}

func (d *delimited) header(line, comment string) []string {
	line = strings.TrimLeft(line, comment)
	strip := d.p.Strip()
	parts := strings.Split(line, d.sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.Trim(p, strip))
	}
	// trailing separators produce blank names; drop them
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}

func blankTail(vs []string) bool {
	for _, v := range vs {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

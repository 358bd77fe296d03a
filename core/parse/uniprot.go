// core/parse/uniprot.go
package parse

import (
	"context"
	"io"
	"strings"

	"geneannot-core/diag"
	"geneannot-core/record"
)

// UniProtAccessionField holds the accession on every UniProt record.
const UniProtAccessionField = "UniProtKB-AC"

// uniprot parses the three-column idmapping file
// (accession, database, identifier), grouping rows by accession. Isoform
// suffixes ("P12345-2") collapse onto the canonical accession.
type uniprot struct {
	rep *diag.Report
}

type uniprotEntry struct {
	dbs  []string
	ids  map[string][]string
	seen map[string]map[string]bool
}

func (u *uniprot) Parse(ctx context.Context, name string, r io.Reader, emit Emit) error {
	var order []string
	entries := map[string]*uniprotEntry{}

	err := scanLines(ctx, r, func(idx int, line string) error {
		if strings.TrimSpace(line) == "" {
			return nil
		}
		cols := strings.Split(line, "\t")
		if len(cols) != 3 {
			u.rep.Addf(diag.KindParse, name, idx+1, "expected 3 columns, found %d", len(cols))
			return nil
		}
		acc, _, _ := strings.Cut(strings.TrimSpace(cols[0]), "-")
		db := strings.TrimSpace(cols[1])
		id := strings.TrimSpace(cols[2])
		if acc == "" || db == "" || id == "" || id == "-" {
			return nil
		}
		e, ok := entries[acc]
		if !ok {
			e = &uniprotEntry{ids: map[string][]string{}, seen: map[string]map[string]bool{}}
			entries[acc] = e
			order = append(order, acc)
		}
		if e.seen[db] == nil {
			e.seen[db] = map[string]bool{}
			e.dbs = append(e.dbs, db)
		}
		if !e.seen[db][id] {
			e.seen[db][id] = true
			e.ids[db] = append(e.ids[db], id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, acc := range order {
		if err := ctx.Err(); err != nil {
			return err
		}
		e := entries[acc]
		rec := record.Record{UniProtAccessionField: record.List(acc)}
		for _, db := range e.dbs {
			if db == UniProtAccessionField {
				continue
			}
			rec[db] = record.List(e.ids[db]...)
		}
		u.rep.Parsed()
		if err := emit(rec); err != nil {
			return err
		}
	}
	return nil
}

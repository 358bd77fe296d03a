// core/parse/genbank.go
package parse

import (
	"context"
	"io"
	"strings"

	"geneannot-core/diag"
	"geneannot-core/record"
)

// GenBank sections kept, and the field each maps to.
var genbankFields = map[string]string{
	"DEFINITION": "description",
	"ACCESSION":  "name",
	"VERSION":    "id",
	"COMMENT":    "comment",
}

const genbankEnd = "//"

// genbank parses flat-file records terminated by "//". A section starts on
// a line whose first column is not blank; indented lines continue it.
type genbank struct {
	rep *diag.Report
}

func (g *genbank) Parse(ctx context.Context, name string, r io.Reader, emit Emit) error {
	sections := map[string][]string{}
	current := ""
	start := 0

	err := scanLines(ctx, r, func(idx int, line string) error {
		if strings.TrimSpace(line) == "" {
			return nil
		}
		if strings.HasPrefix(line, genbankEnd) {
			rec := genbankRecord(sections)
			sections = map[string][]string{}
			current = ""
			start = idx + 1
			if len(rec) == 0 {
				return nil
			}
			g.rep.Parsed()
			return emit(rec)
		}
		words := strings.Fields(line)
		if line[0] != ' ' && line[0] != '\t' {
			tag := words[0]
			if _, ok := genbankFields[tag]; ok {
				current = tag
				sections[tag] = append(sections[tag], words[1:]...)
			} else {
				current = ""
			}
			return nil
		}
		if current != "" {
			sections[current] = append(sections[current], words...)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if len(sections) > 0 {
		g.rep.Addf(diag.KindParse, name, start+1, "record not terminated by %q", genbankEnd)
	}
	return nil
}

func genbankRecord(sections map[string][]string) record.Record {
	rec := record.Record{}
	for tag, words := range sections {
		if len(words) == 0 {
			continue
		}
		field := genbankFields[tag]
		if tag != "COMMENT" {
			rec[field] = record.Scalar(strings.Join(words, " "))
			continue
		}
		before, after := words, []string(nil)
		for i, w := range words {
			if w == "Summary:" {
				before, after = words[:i], words[i+1:]
				break
			}
		}
		if len(before) > 0 {
			rec["comment"] = record.Scalar(strings.Join(before, " "))
		}
		if len(after) > 0 {
			rec["summary"] = record.Scalar(strings.Join(after, " "))
		}
	}
	return rec
}

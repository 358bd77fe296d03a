// core/cytoband/annotate.go
package cytoband

import (
	"strconv"
	"strings"

	"geneannot-core/diag"
	"geneannot-core/record"
)

// Spec names the coordinate fields of a record. Names are looked up as
// given; callers qualify them with the source prefix beforehand.
type Spec struct {
	Chromosome    string
	Start         string
	End           string
	PositionIndex int
}

// Annotator sets record.CytobandField from a record's coordinates.
type Annotator struct {
	Spec   Spec
	Table  *Table
	Source string
	Report *diag.Report
}

// Annotate adds the cytoband field when the record's coordinates resolve.
// Records with missing or non-numeric coordinates are left unchanged and
// reported. rec is modified in place.
func (a *Annotator) Annotate(rec record.Record) {
	chrom, ok1 := scalar(rec, a.Spec.Chromosome)
	startS, ok2 := scalar(rec, a.Spec.Start)
	endS, ok3 := scalar(rec, a.Spec.End)
	if !ok1 || !ok2 || !ok3 {
		a.Report.Addf(diag.KindCytoband, a.Source, 0, "coordinate fields %q/%q/%q not all present",
			a.Spec.Chromosome, a.Spec.Start, a.Spec.End)
		return
	}
	start, err1 := strconv.Atoi(strings.TrimSpace(startS))
	end, err2 := strconv.Atoi(strings.TrimSpace(endS))
	if err1 != nil || err2 != nil {
		a.Report.Addf(diag.KindCytoband, a.Source, 0, "non-numeric coordinates %q-%q", startS, endS)
		return
	}
	if label, ok := a.Table.Resolve(chrom, start, end, a.Spec.PositionIndex); ok {
		rec[record.CytobandField] = record.Scalar(label)
	}
}

func scalar(rec record.Record, name string) (string, bool) {
	v, ok := rec[name]
	if !ok || v.IsList() {
		return "", false
	}
	return v.String(), true
}

// Package transform normalizes parsed records: cleaning, filtering,
// derived fields, value replacement, projection and namespacing.
package transform

import (
	"strings"

	"geneannot-core/diag"
	"geneannot-core/record"
)

// Split derives Name from the Index-th piece of Field split on Character.
type Split struct {
	Name      string `json:"name" yaml:"name"`
	Character string `json:"character" yaml:"character"`
	Field     string `json:"field" yaml:"field"`
	Index     int    `json:"index,omitempty" yaml:"index,omitempty"`
}

// Options configure a Transformer. Field names are the parser's names,
// before namespacing.
type Options struct {
	Prefix       string
	Strip        string
	EmptyFields  []string
	FilterIn     map[string][]string
	FilterOut    map[string][]string
	Splits       []Split
	Replacements map[string]map[string]string
	Keep         []string
	Drop         []string

	// Source names the records' origin in reported issues.
	Source string
	Report *diag.Report
}

// Transformer applies Options to records. It holds no per-record state and
// is safe for concurrent use.
type Transformer struct {
	opt       Options
	empty     map[string]struct{}
	filterIn  map[string]map[string]struct{}
	filterOut map[string]map[string]struct{}
	keep      map[string]struct{}
	drop      map[string]struct{}
}

func toSet(vs []string) map[string]struct{} {
	m := make(map[string]struct{}, len(vs))
	for _, v := range vs {
		m[v] = struct{}{}
	}
	return m
}

func toSets(m map[string][]string) map[string]map[string]struct{} {
	out := make(map[string]map[string]struct{}, len(m))
	for k, vs := range m {
		out[k] = toSet(vs)
	}
	return out
}

// New prepares a Transformer.
func New(opt Options) *Transformer {
	empty := opt.EmptyFields
	if empty == nil {
		empty = []string{""}
	}
	return &Transformer{
		opt:       opt,
		empty:     toSet(empty),
		filterIn:  toSets(opt.FilterIn),
		filterOut: toSets(opt.FilterOut),
		keep:      toSet(opt.Keep),
		drop:      toSet(opt.Drop),
	}
}

// Transform returns the normalized record, or false when the record is
// filtered out or left without fields. The input is not modified.
func (t *Transformer) Transform(in record.Record) (record.Record, bool) {
	rec := t.clean(in)

	if !t.passes(rec) {
		t.opt.Report.Filtered()
		return nil, false
	}
	t.split(rec)
	t.replace(rec)
	t.project(rec)

	if len(rec) == 0 {
		t.opt.Report.Filtered()
		return nil, false
	}
	if t.opt.Prefix == "" {
		return rec, true
	}
	out := make(record.Record, len(rec))
	for name, v := range rec {
		out[record.Qualify(t.opt.Prefix, name)] = v
	}
	return out, true
}

func (t *Transformer) isEmpty(s string) bool {
	_, ok := t.empty[s]
	return ok
}

// clean strips values and removes empty markers.
func (t *Transformer) clean(in record.Record) record.Record {
	rec := make(record.Record, len(in))
	for name, v := range in {
		if !v.IsList() {
			s := strings.Trim(v.String(), t.opt.Strip)
			if !t.isEmpty(s) {
				rec[name] = record.Scalar(s)
			}
			continue
		}
		var items []string
		for _, it := range v.Items() {
			it = strings.Trim(it, t.opt.Strip)
			if !t.isEmpty(it) {
				items = append(items, it)
			}
		}
		if len(items) > 0 {
			rec[name] = record.List(items...)
		}
	}
	return rec
}

// passes applies filter_in then filter_out.
func (t *Transformer) passes(rec record.Record) bool {
	for field, allowed := range t.filterIn {
		v, ok := rec[field]
		if !ok || !v.Any(func(s string) bool { _, hit := allowed[s]; return hit }) {
			return false
		}
	}
	for field, denied := range t.filterOut {
		v, ok := rec[field]
		if ok && v.Any(func(s string) bool { _, hit := denied[s]; return hit }) {
			return false
		}
	}
	return true
}

func (t *Transformer) split(rec record.Record) {
	for _, sp := range t.opt.Splits {
		v, ok := rec[sp.Field]
		switch {
		case !ok:
			t.issue("split %q: field %q absent", sp.Name, sp.Field)
			continue
		case v.IsList():
			t.issue("split %q: field %q is a list", sp.Name, sp.Field)
			continue
		case sp.Character == "":
			t.issue("split %q: empty split character", sp.Name)
			continue
		}
		pieces := strings.Split(v.String(), sp.Character)
		idx := sp.Index
		if idx < 0 {
			idx += len(pieces)
		}
		if idx < 0 || idx >= len(pieces) {
			t.issue("split %q: %q has no piece %d on %q", sp.Name, v.String(), sp.Index, sp.Character)
			continue
		}
		piece := strings.Trim(pieces[idx], t.opt.Strip)
		if t.isEmpty(piece) {
			continue
		}
		rec[sp.Name] = record.Scalar(piece)
	}
}

func (t *Transformer) replace(rec record.Record) {
	for field, table := range t.opt.Replacements {
		v, ok := rec[field]
		if !ok {
			continue
		}
		rec[field] = v.Map(func(s string) string {
			if r, hit := table[s]; hit {
				return r
			}
			return s
		})
	}
}

// project applies keep, then drop.
func (t *Transformer) project(rec record.Record) {
	if len(t.keep) > 0 {
		for name := range rec {
			if _, ok := t.keep[name]; !ok {
				delete(rec, name)
			}
		}
	}
	for name := range t.drop {
		delete(rec, name)
	}
}

func (t *Transformer) issue(format string, a ...any) {
	t.opt.Report.Addf(diag.KindTransform, t.opt.Source, 0, format, a...)
}

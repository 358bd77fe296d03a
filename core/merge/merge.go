// Package merge joins two record sets on shared key fields under
// one/many cardinality constraints.
//
// The join is a left outer join: every left record appears in the output,
// once per matching right record or once unchanged when nothing matches.
// Right records that match nothing are dropped and counted.
package merge

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"geneannot-core/record"
)

// Side names a merge input.
type Side string

const (
	Left  Side = "left"
	Right Side = "right"
)

// AmbiguityError reports a side declared "one" that still has several
// candidates after disambiguation.
type AmbiguityError struct {
	Side  Side     // side whose cardinality was violated
	Key   []string // key values of the record that saw several candidates
	Count int
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("merge: %d %s records match key %q, expected at most one",
		e.Count, e.Side, strings.Join(e.Key, ","))
}

// MissingKey records a record excluded from the join index because a key
// field was absent.
type MissingKey struct {
	Side  Side
	Index int
	Field string
}

// Report summarizes a merge.
type Report struct {
	Matched      int // left records with at least one partner
	Unmatched    int // left records passed through unchanged
	DroppedRight int // right records with no partner
	Missing      []MissingKey
}

// MissingCount returns the number of missing-key records on side.
func (r Report) MissingCount(side Side) int {
	n := 0
	for _, m := range r.Missing {
		if m.Side == side {
			n++
		}
	}
	return n
}

// Result is the merged set and its report.
type Result struct {
	Records record.Set
	Report  Report
}

// Merge joins right into left. It does not modify its inputs. On an
// AmbiguityError no partial result is returned.
func Merge(left, right record.Set, spec Spec) (*Result, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	var leftKey, rightKey []string
	for _, p := range spec.Primary {
		leftKey = append(leftKey, p.Left...)
		rightKey = append(rightKey, p.Right...)
	}

	res := &Result{}

	index := map[string][]int{}
	for j, rec := range right {
		tuples, missing := keyTuples(rec, rightKey)
		if missing != "" {
			res.Report.Missing = append(res.Report.Missing, MissingKey{Side: Right, Index: j, Field: missing})
			continue
		}
		for _, t := range tuples {
			if ids := index[t]; len(ids) == 0 || ids[len(ids)-1] != j {
				index[t] = append(ids, j)
			}
		}
	}

	cands := make([][]int, len(left))
	for i, rec := range left {
		tuples, missing := keyTuples(rec, leftKey)
		if missing != "" {
			res.Report.Missing = append(res.Report.Missing, MissingKey{Side: Left, Index: i, Field: missing})
			continue
		}
		var c []int
		for _, t := range tuples {
			c = append(c, index[t]...)
		}
		slices.Sort(c)
		cands[i] = slices.Compact(c)
	}

	if spec.Type.Right == One {
		for i, c := range cands {
			if len(c) <= 1 {
				continue
			}
			c = narrow(left[i], c, right, spec.Secondary, true)
			cands[i] = c
			if len(c) > 1 {
				return nil, &AmbiguityError{Side: Right, Key: values(left[i], leftKey), Count: len(c)}
			}
		}
	}

	if spec.Type.Left == One {
		byRight := map[int][]int{}
		for i, c := range cands {
			for _, j := range c {
				byRight[j] = append(byRight[j], i)
			}
		}
		for j := range right {
			ls := byRight[j]
			if len(ls) <= 1 {
				continue
			}
			kept := narrow(right[j], ls, left, spec.Secondary, false)
			for _, i := range ls {
				if !slices.Contains(kept, i) {
					cands[i] = slices.DeleteFunc(cands[i], func(x int) bool { return x == j })
				}
			}
			if len(kept) > 1 {
				return nil, &AmbiguityError{Side: Left, Key: values(right[j], rightKey), Count: len(kept)}
			}
		}
	}

	used := make([]bool, len(right))
	for i, rec := range left {
		if len(cands[i]) == 0 {
			res.Records = append(res.Records, rec.Clone())
			res.Report.Unmatched++
			continue
		}
		res.Report.Matched++
		for _, j := range cands[i] {
			used[j] = true
			res.Records = append(res.Records, rec.Union(right[j]))
		}
	}
	for _, u := range used {
		if !u {
			res.Report.DroppedRight++
		}
	}
	return res, nil
}

// narrow filters candidate indices into other by secondary pairs, in
// order, until at most one remains or the pairs run out. pivotLeft tells
// which side of each pair belongs to pivot. A pair the pivot cannot
// resolve is skipped.
func narrow(pivot record.Record, cands []int, other record.Set, pairs []Pair, pivotLeft bool) []int {
	out := cands
	for _, p := range pairs {
		if len(out) <= 1 {
			break
		}
		pf, cf := p.Left, p.Right
		if !pivotLeft {
			pf, cf = p.Right, p.Left
		}
		want, missing := keyTuples(pivot, pf)
		if missing != "" {
			continue
		}
		var next []int
		for _, c := range out {
			have, missing := keyTuples(other[c], cf)
			if missing == "" && intersects(want, have) {
				next = append(next, c)
			}
		}
		out = next
	}
	return out
}

func intersects(a, b []string) bool {
	for _, x := range a {
		if slices.Contains(b, x) {
			return true
		}
	}
	return false
}

// keyTuples returns the encoded key tuples of rec over fields. List values
// expand into one tuple per element combination. The second result names
// the first missing field.
func keyTuples(rec record.Record, fields []string) ([]string, string) {
	tuples := []string{""}
	for _, f := range fields {
		v, ok := rec[f]
		if !ok {
			return nil, f
		}
		items := v.Items()
		next := make([]string, 0, len(tuples)*len(items))
		for _, t := range tuples {
			for _, it := range items {
				next = append(next, t+strconv.Itoa(len(it))+":"+it)
			}
		}
		tuples = next
	}
	slices.Sort(tuples)
	return slices.Compact(tuples), ""
}

func values(rec record.Record, fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = rec[f].String()
	}
	return out
}

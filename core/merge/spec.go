// core/merge/spec.go
package merge

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FieldKey is one field name or an ordered composite of names. In
// configuration it is written as a string or an array of strings.
type FieldKey []string

func (k *FieldKey) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*k = FieldKey{s}
		return nil
	}
	var l []string
	if err := json.Unmarshal(b, &l); err != nil {
		return fmt.Errorf("merge: field key must be a string or array of strings: %w", err)
	}
	*k = l
	return nil
}

// UnmarshalYAML accepts the same shapes as UnmarshalJSON.
func (k *FieldKey) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err == nil {
		*k = FieldKey{s}
		return nil
	}
	var l []string
	if err := unmarshal(&l); err != nil {
		return fmt.Errorf("merge: field key must be a string or array of strings: %w", err)
	}
	*k = l
	return nil
}

func (k FieldKey) String() string { return strings.Join(k, "+") }

// Pair joins a field key of the accumulated (left) set with one of the
// incoming (right) set. Written as [left, right].
type Pair struct {
	Left  FieldKey
	Right FieldKey
}

func (p *Pair) set(ks []FieldKey) error {
	if len(ks) != 2 {
		return fmt.Errorf("merge: field pair needs exactly 2 entries, got %d", len(ks))
	}
	p.Left, p.Right = ks[0], ks[1]
	return nil
}

func (p *Pair) UnmarshalJSON(b []byte) error {
	var ks []FieldKey
	if err := json.Unmarshal(b, &ks); err != nil {
		return fmt.Errorf("merge: field pair: %w", err)
	}
	return p.set(ks)
}

func (p *Pair) UnmarshalYAML(unmarshal func(any) error) error {
	var ks []FieldKey
	if err := unmarshal(&ks); err != nil {
		return fmt.Errorf("merge: field pair: %w", err)
	}
	return p.set(ks)
}

func (p Pair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2][]string{p.Left, p.Right})
}

// Cardinality is the multiplicity a side may have per shared key.
type Cardinality int

const (
	Many Cardinality = iota
	One
)

func (c Cardinality) String() string {
	if c == One {
		return "one"
	}
	return "many"
}

func (c *Cardinality) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "one":
		*c = One
	case "many":
		*c = Many
	default:
		return fmt.Errorf("merge: cardinality must be one or many, got %q", b)
	}
	return nil
}

func (c Cardinality) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// Kind is the (left, right) cardinality pair. Written as ["one","many"].
type Kind struct {
	Left  Cardinality
	Right Cardinality
}

func (k *Kind) set(cs []Cardinality) error {
	if len(cs) != 2 {
		return fmt.Errorf("merge: type needs exactly 2 entries, got %d", len(cs))
	}
	k.Left, k.Right = cs[0], cs[1]
	return nil
}

func (k *Kind) UnmarshalJSON(b []byte) error {
	var cs []Cardinality
	if err := json.Unmarshal(b, &cs); err != nil {
		return fmt.Errorf("merge: type: %w", err)
	}
	return k.set(cs)
}

func (k *Kind) UnmarshalYAML(unmarshal func(any) error) error {
	var raw []string
	if err := unmarshal(&raw); err != nil {
		return fmt.Errorf("merge: type: %w", err)
	}
	cs := make([]Cardinality, len(raw))
	for i, s := range raw {
		if err := cs[i].UnmarshalText([]byte(s)); err != nil {
			return err
		}
	}
	return k.set(cs)
}

func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]Cardinality{k.Left, k.Right})
}

// Spec configures one merge. The zero Kind is (many, many).
type Spec struct {
	Primary   []Pair `json:"primary_fields" yaml:"primary_fields"`
	Secondary []Pair `json:"secondary_fields,omitempty" yaml:"secondary_fields,omitempty"`
	Type      Kind   `json:"type" yaml:"type"`
}

// Validate checks that every pair has matching arity on both sides.
func (s Spec) Validate() error {
	if len(s.Primary) == 0 {
		return fmt.Errorf("merge: primary_fields is empty")
	}
	check := func(what string, ps []Pair) error {
		for i, p := range ps {
			if len(p.Left) == 0 || len(p.Right) == 0 {
				return fmt.Errorf("merge: %s[%d] has an empty side", what, i)
			}
			if len(p.Left) != len(p.Right) {
				return fmt.Errorf("merge: %s[%d] arity %d != %d", what, i, len(p.Left), len(p.Right))
			}
		}
		return nil
	}
	if err := check("primary_fields", s.Primary); err != nil {
		return err
	}
	return check("secondary_fields", s.Secondary)
}

// MapRight returns a copy of s with fn applied to every right-side name.
func (s Spec) MapRight(fn func(string) string) Spec {
	mp := func(ps []Pair) []Pair {
		out := make([]Pair, len(ps))
		for i, p := range ps {
			r := make(FieldKey, len(p.Right))
			for j, n := range p.Right {
				r[j] = fn(n)
			}
			out[i] = Pair{Left: append(FieldKey(nil), p.Left...), Right: r}
		}
		return out
	}
	return Spec{Primary: mp(s.Primary), Secondary: mp(s.Secondary), Type: s.Type}
}

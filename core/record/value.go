// core/record/value.go
package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Value is a field value: either a scalar string or an ordered list of strings.
// The zero Value is the empty scalar.
type Value struct {
	s      string
	list   []string
	isList bool
}

// Scalar returns a scalar Value.
func Scalar(s string) Value { return Value{s: s} }

// List returns a list Value. The slice is copied.
func List(items ...string) Value {
	return Value{list: append([]string{}, items...), isList: true}
}

// IsList reports whether v holds a list.
func (v Value) IsList() bool { return v.isList }

// String returns the scalar text. Lists are joined with ",".
func (v Value) String() string {
	if v.isList {
		return strings.Join(v.list, ",")
	}
	return v.s
}

// Items returns the list elements, or a single-element slice for scalars.
// The result is a copy.
func (v Value) Items() []string {
	if v.isList {
		return append([]string(nil), v.list...)
	}
	return []string{v.s}
}

// Len is the number of elements (1 for scalars).
func (v Value) Len() int {
	if v.isList {
		return len(v.list)
	}
	return 1
}

// Map applies fn to the scalar or to every list element.
func (v Value) Map(fn func(string) string) Value {
	if !v.isList {
		return Scalar(fn(v.s))
	}
	out := make([]string, len(v.list))
	for i, s := range v.list {
		out[i] = fn(s)
	}
	return Value{list: out, isList: true}
}

// Any reports whether fn holds for the scalar or for at least one list element.
func (v Value) Any(fn func(string) bool) bool {
	if !v.isList {
		return fn(v.s)
	}
	return slices.ContainsFunc(v.list, fn)
}

// Equal compares kind and content.
func (v Value) Equal(o Value) bool {
	if v.isList != o.isList {
		return false
	}
	if v.isList {
		return slices.Equal(v.list, o.list)
	}
	return v.s == o.s
}

// Append adds s to v, promoting a scalar to a two-element list.
func (v Value) Append(s string) Value {
	if v.isList {
		return Value{list: append(append([]string{}, v.list...), s), isList: true}
	}
	return List(v.s, s)
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.isList {
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	}
	return json.Marshal(v.s)
}

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var items []string
		if err := json.Unmarshal(b, &items); err != nil {
			return fmt.Errorf("record: list value: %w", err)
		}
		*v = List(items...)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("record: scalar value: %w", err)
	}
	*v = Scalar(s)
	return nil
}

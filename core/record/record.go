// Package record holds the uniform record model shared by parsers, the
// transformer, the cytoband resolver and the merge engine.
package record

import (
	"maps"
	"slices"
	"strings"
)

// CytobandField is the reserved field name that is never namespaced.
const CytobandField = "cytoband"

// Separator joins a source prefix and a field name.
const Separator = "."

// Record maps field names to values.
type Record map[string]Value

// Set is an ordered sequence of records. Order is significant.
type Set []Record

// Clone returns a shallow copy; Values are immutable so this is a full copy in practice.
func (r Record) Clone() Record {
	return maps.Clone(r)
}

// Get returns the value for name and whether it is present.
func (r Record) Get(name string) (Value, bool) {
	v, ok := r[name]
	return v, ok
}

// Names returns the sorted field names.
func (r Record) Names() []string {
	return slices.Sorted(maps.Keys(r))
}

// Union returns a new record with all fields of r and o. Fields of o win.
func (r Record) Union(o Record) Record {
	out := make(Record, len(r)+len(o))
	maps.Copy(out, r)
	maps.Copy(out, o)
	return out
}

// Equal compares two records field by field.
func (r Record) Equal(o Record) bool {
	return maps.EqualFunc(r, o, Value.Equal)
}

// Qualify returns prefix + "." + name unless prefix is empty or name is the
// reserved cytoband field.
func Qualify(prefix, name string) string {
	if prefix == "" || name == CytobandField {
		return name
	}
	return prefix + Separator + name
}

// HasPrefix reports whether name is namespaced under prefix.
func HasPrefix(name, prefix string) bool {
	return strings.HasPrefix(name, prefix+Separator)
}

// internal/config/update.go
package config

import (
	"errors"
	"fmt"

	"geneannot-core/record"
)

// Update changes an existing annotation: sources named in Remove are
// stripped, sources in Replace are stripped and then folded in again, and
// sources in Add are folded in last.
type Update struct {
	Add     Config   `json:"add,omitempty" yaml:"add,omitempty"`
	Replace Config   `json:"replace,omitempty" yaml:"replace,omitempty"`
	Remove  []string `json:"remove,omitempty" yaml:"remove,omitempty"`
}

// Stripped returns the prefixes removed before anything is folded in:
// Remove followed by the Replace prefixes.
func (u Update) Stripped() []string {
	out := append([]string(nil), u.Remove...)
	for _, s := range u.Replace {
		out = append(out, s.Prefix)
	}
	return out
}

// Sources returns the sources to fold in, replacements first.
func (u Update) Sources() Config {
	out := append(Config(nil), u.Replace...)
	return append(out, u.Add...)
}

// LoadUpdateFile reads an update description as YAML (.yaml/.yml) or JSON,
// validates it and expands file globs.
func LoadUpdateFile(path string) (Update, error) {
	u, err := decodeFile[Update](path)
	if err != nil {
		return Update{}, err
	}
	if err := ValidateUpdate(u); err != nil {
		return Update{}, withPath(path, err)
	}
	if err := expand(path, u.Replace); err != nil {
		return Update{}, err
	}
	if err := expand(path, u.Add); err != nil {
		return Update{}, err
	}
	return u, nil
}

// ValidateUpdate checks an update. Source indexes in errors count
// replacements first, then additions.
func ValidateUpdate(u Update) error {
	if len(u.Add)+len(u.Replace)+len(u.Remove) == 0 {
		return &Error{Source: -1, Err: errors.New("update has nothing to add, replace or remove")}
	}
	seen := map[string]bool{}
	for _, p := range u.Remove {
		switch {
		case p == "" || p == record.CytobandField:
			return &Error{Source: -1, Err: fmt.Errorf("remove: invalid prefix %q", p)}
		case seen[p]:
			return &Error{Source: -1, Err: fmt.Errorf("remove: duplicate prefix %q", p)}
		}
		seen[p] = true
	}
	for _, s := range u.Replace {
		if seen[s.Prefix] {
			return &Error{Source: -1, Err: fmt.Errorf("prefix %q is both removed and replaced", s.Prefix)}
		}
	}
	return validateSources(u.Sources())
}

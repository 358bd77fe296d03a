// core/parse/params.go
package parse

import (
	"fmt"
	"strings"
)

// Type is the closed set of supported source formats.
type Type int

const (
	TSV Type = iota + 1
	CSV
	GTF
	GenBank
	UniProtDAT
	XML
)

var typeNames = map[Type]string{
	TSV:        "TSV",
	CSV:        "CSV",
	GTF:        "GTF",
	GenBank:    "GenBank",
	UniProtDAT: "UniProtDAT",
	XML:        "XML",
}

func (t Type) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ParseType maps a configuration name (case-insensitive) to a Type.
func ParseType(s string) (Type, error) {
	for t, n := range typeNames {
		if strings.EqualFold(n, strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("parse: unknown parser type %q", s)
}

func (t Type) MarshalText() ([]byte, error) {
	if _, ok := typeNames[t]; !ok {
		return nil, fmt.Errorf("parse: invalid type %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(b []byte) error {
	v, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Defaults for optional parameters.
const (
	DefaultCommentCharacters = "#"
	DefaultStripCharacters   = ` '"`
)

// Params are the tuning knobs shared by all parsers. Pointer fields
// distinguish "unset" (use default) from an explicit empty string.
type Params struct {
	Header            []string `json:"header,omitempty" yaml:"header,omitempty"`
	HeaderLine        *int     `json:"header_line,omitempty" yaml:"header_line,omitempty"`
	CommentCharacters *string  `json:"comment_characters,omitempty" yaml:"comment_characters,omitempty"`
	EmptyFields       []string `json:"empty_fields,omitempty" yaml:"empty_fields,omitempty"`
	ListIdentifier    string   `json:"list_identifier,omitempty" yaml:"list_identifier,omitempty"`
	StripCharacters   *string  `json:"strip_characters,omitempty" yaml:"strip_characters,omitempty"`
	RecordPath        string   `json:"record_path,omitempty" yaml:"record_path,omitempty"`
}

func (p Params) comment() string {
	if p.CommentCharacters == nil {
		return DefaultCommentCharacters
	}
	return *p.CommentCharacters
}

// Strip returns the configured strip characters or the default.
func (p Params) Strip() string {
	if p.StripCharacters == nil {
		return DefaultStripCharacters
	}
	return *p.StripCharacters
}

// Empty returns the configured empty markers, or def when none are set.
func (p Params) Empty(def ...string) []string {
	if p.EmptyFields == nil {
		if len(def) == 0 {
			return []string{""}
		}
		return def
	}
	return p.EmptyFields
}

// Validate checks parameters that do not depend on input data.
func (p Params) Validate(t Type) error {
	if p.HeaderLine != nil && *p.HeaderLine < 0 {
		return fmt.Errorf("parse: header_line must be >= 0, got %d", *p.HeaderLine)
	}
	if t == XML {
		if _, err := parseRecordPath(p.RecordPath); err != nil {
			return err
		}
	}
	return nil
}

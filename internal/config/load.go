// internal/config/load.go
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"geneannot-core/record"
)

// Error is a configuration problem, optionally tied to one source.
type Error struct {
	Path   string
	Source int // -1 when not source specific
	Err    error
}

func (e *Error) Error() string {
	if e.Source >= 0 {
		return fmt.Sprintf("config %s: source %d: %v", e.Path, e.Source, e.Err)
	}
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// LoadFile reads path as YAML (.yaml/.yml) or JSON, validates it and
// expands file globs relative to the working directory.
func LoadFile(path string) (Config, error) {
	cfg, err := decodeFile[Config](path)
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, withPath(path, err)
	}
	if err := expand(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func withPath(path string, err error) error {
	var ce *Error
	if errors.As(err, &ce) {
		ce.Path = path
		return ce
	}
	return &Error{Path: path, Source: -1, Err: err}
}

// DecodeJSON decodes a config, rejecting unknown fields.
func DecodeJSON(r io.Reader) (Config, error) { return decodeJSON[Config](r) }

// DecodeYAML decodes a config, rejecting unknown fields.
func DecodeYAML(r io.Reader) (Config, error) { return decodeYAML[Config](r) }

func decodeJSON[T any](r io.Reader) (T, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var v T
	if err := dec.Decode(&v); err != nil {
		return v, fmt.Errorf("json: %w", err)
	}
	return v, nil
}

func decodeYAML[T any](r io.Reader) (T, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var v T
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return v, errors.New("yaml: empty document")
		}
		return v, fmt.Errorf("yaml: %w", err)
	}
	return v, nil
}

// decodeFile picks the decoder by extension.
func decodeFile[T any](path string) (T, error) {
	var zero T
	b, err := os.ReadFile(path)
	if err != nil {
		return zero, &Error{Path: path, Source: -1, Err: err}
	}
	var v T
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		v, err = decodeYAML[T](bytes.NewReader(b))
	default:
		v, err = decodeJSON[T](bytes.NewReader(b))
	}
	if err != nil {
		return zero, &Error{Path: path, Source: -1, Err: err}
	}
	return v, nil
}

// expand replaces file globs in place. Errors carry the source index.
func expand(path string, cfg Config) error {
	for i := range cfg {
		files, err := ExpandFiles(cfg[i].Files)
		if err != nil {
			return &Error{Path: path, Source: i, Err: err}
		}
		cfg[i].Files = files
	}
	return nil
}

// Validate performs the checks the pipeline relies on. Full schema
// validation is out of scope.
func Validate(cfg Config) error {
	if len(cfg) == 0 {
		return &Error{Source: -1, Err: errors.New("no sources")}
	}
	return validateSources(cfg)
}

func validateSources(cfg Config) error {
	seen := map[string]bool{}
	for i, s := range cfg {
		fail := func(format string, a ...any) error {
			return &Error{Source: i, Err: fmt.Errorf(format, a...)}
		}
		switch {
		case s.Prefix == "":
			return fail("prefix is required")
		case s.Prefix == record.CytobandField:
			return fail("prefix %q is reserved", s.Prefix)
		case strings.Contains(s.Prefix, record.Separator):
			return fail("prefix %q must not contain %q", s.Prefix, record.Separator)
		case seen[s.Prefix]:
			return fail("duplicate prefix %q", s.Prefix)
		case len(s.Files) == 0:
			return fail("files is empty")
		case s.Parser.Type == 0:
			return fail("parser.type is required")
		}
		seen[s.Prefix] = true
		if err := s.Parser.Parameters.Params.Validate(s.Parser.Type); err != nil {
			return fail("%v", err)
		}
		if !s.Source && s.Merge == nil {
			return fail("merge is required unless source is set")
		}
		if s.Merge != nil && !s.Source {
			if err := s.Merge.Validate(); err != nil {
				return fail("%v", err)
			}
		}
		if c := s.Cytoband; c != nil {
			if c.Chromosome == "" || c.Start == "" || c.End == "" || c.ReferenceFile == "" {
				return fail("cytoband needs chromosome, start, end and reference_file")
			}
			if idx := c.Index(); idx != 0 && idx != 1 {
				return fail("cytoband position_index must be 0 or 1, got %d", idx)
			}
		}
		for j, sp := range s.Splits() {
			if sp.Name == "" || sp.Field == "" {
				return fail("split_fields[%d] needs name and field", j)
			}
		}
	}
	return nil
}

// ExpandFiles expands glob patterns; plain paths and "-" pass through.
// Matches of one pattern are sorted.
func ExpandFiles(files []string) ([]string, error) {
	var out []string
	for _, f := range files {
		if f == "-" || !strings.ContainsAny(f, "*?[") {
			out = append(out, f)
			continue
		}
		m, err := filepath.Glob(f)
		if err != nil {
			return nil, fmt.Errorf("files: %q: %w", f, err)
		}
		if len(m) == 0 {
			return nil, fmt.Errorf("files: %q matches nothing", f)
		}
		sort.Strings(m)
		out = append(out, m...)
	}
	return out, nil
}

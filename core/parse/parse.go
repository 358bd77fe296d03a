// Package parse turns raw source files into flat annotation records.
//
// Every parser streams: records are handed to an emit callback as soon as a
// unit is complete. Malformed units are skipped and counted on the
// diag.Report; only unreadable input or a failing emit aborts a Parse call.
package parse

import (
	"context"
	"fmt"
	"io"
	"strings"

	"geneannot-core/diag"
	"geneannot-core/record"
)

// Emit receives one parsed record. Returning an error stops parsing.
type Emit func(record.Record) error

// Parser reads one stream and emits its records.
type Parser interface {
	Parse(ctx context.Context, name string, r io.Reader, emit Emit) error
}

// New builds the parser for t. rep may be nil.
func New(t Type, p Params, rep *diag.Report) (Parser, error) {
	if err := p.Validate(t); err != nil {
		return nil, err
	}
	switch t {
	case TSV:
		return &delimited{sep: "\t", p: p, rep: rep}, nil
	case CSV:
		return &delimited{sep: ",", p: p, rep: rep}, nil
	case GTF:
		return &gtf{p: p, rep: rep}, nil
	case GenBank:
		return &genbank{rep: rep}, nil
	case UniProtDAT:
		return &uniprot{rep: rep}, nil
	case XML:
		path, _ := parseRecordPath(p.RecordPath)
		return &xmlParser{p: p, path: path, rep: rep}, nil
	}
	return nil, fmt.Errorf("parse: unsupported type %v", t)
}

// FileError wraps a fatal failure reading one input file.
type FileError struct {
	File string
	Err  error
}

func (e *FileError) Error() string { return fmt.Sprintf("%s: %v", e.File, e.Err) }
func (e *FileError) Unwrap() error { return e.Err }

// Files parses each path in order through p.
func Files(ctx context.Context, p Parser, files []string, emit Emit) error {
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		rc, err := Open(f)
		if err != nil {
			return &FileError{File: f, Err: err}
		}
		err = p.Parse(ctx, f, rc, emit)
		_ = rc.Close()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &FileError{File: f, Err: err}
		}
	}
	return nil
}

// cleaner applies strip, empty-marker removal and list splitting to one raw
// field value.
type cleaner struct {
	strip  string
	empty  map[string]struct{}
	listID string
}

func newCleaner(p Params, defEmpty ...string) cleaner {
	c := cleaner{strip: p.Strip(), listID: p.ListIdentifier, empty: map[string]struct{}{}}
	for _, e := range p.Empty(defEmpty...) {
		c.empty[e] = struct{}{}
	}
	return c
}

// value returns the cleaned value and false when it should be omitted.
func (c cleaner) value(raw string) (record.Value, bool) {
	s := strings.Trim(raw, c.strip)
	if _, ok := c.empty[s]; ok {
		return record.Value{}, false
	}
	if c.listID != "" && strings.Contains(s, c.listID) {
		var items []string
		for _, it := range strings.Split(s, c.listID) {
			it = strings.Trim(it, c.strip)
			if _, ok := c.empty[it]; ok {
				continue
			}
			items = append(items, it)
		}
		if len(items) == 0 {
			return record.Value{}, false
		}
		return record.List(items...), true
	}
	return record.Scalar(s), true
}

// add stores v under name, appending when the name repeats.
func add(rec record.Record, name string, v record.Value) {
	if old, ok := rec[name]; ok {
		for _, it := range v.Items() {
			old = old.Append(it)
		}
		rec[name] = old
		return
	}
	rec[name] = v
}

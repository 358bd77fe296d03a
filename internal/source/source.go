// Package source turns one configured annotation source into a normalized,
// namespaced record set.
package source

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"geneannot-core/cytoband"
	"geneannot-core/diag"
	"geneannot-core/parse"
	"geneannot-core/record"
	"geneannot-core/transform"

	"geneannot/internal/config"
)

// TableLoader returns the cytoband table for a reference path.
type TableLoader func(path string) (*cytoband.Table, error)

// Assembler builds record sets from source configs.
type Assembler struct {
	logger *zap.Logger
	tables TableLoader
}

// New returns an Assembler. A nil loader reads tables with cytoband.Load.
func New(tables TableLoader) *Assembler {
	if tables == nil {
		tables = cytoband.Load
	}
	return &Assembler{logger: zap.NewNop(), tables: tables}
}

// SetLogger sets the logger used for per-source progress and issues.
func (a *Assembler) SetLogger(l *zap.Logger) {
	if l != nil {
		a.logger = l
	}
}

// Result is one assembled source.
type Result struct {
	Prefix  string
	Records record.Set
	Report  *diag.Report
}

var errStop = errors.New("stop")

// Stream parses src and emits each normalized record.
func (a *Assembler) Stream(ctx context.Context, src config.Source, rep *diag.Report, emit func(record.Record) error) error {
	params := src.Parser.Parameters.Params
	p, err := parse.New(src.Parser.Type, params, rep)
	if err != nil {
		return fmt.Errorf("source %s: %w", src.Prefix, err)
	}

	var empty []string
	if src.Parser.Type == parse.GTF {
		empty = params.Empty(".")
	} else {
		empty = params.Empty()
	}
	tr := transform.New(transform.Options{
		Prefix:       src.Prefix,
		Strip:        params.Strip(),
		EmptyFields:  empty,
		FilterIn:     src.FilterIn,
		FilterOut:    src.FilterOut,
		Splits:       src.Splits(),
		Replacements: src.ReplacementFields,
		Keep:         src.Keep,
		Drop:         src.Drop,
		Source:       src.Prefix,
		Report:       rep,
	})

	var ann *cytoband.Annotator
	if c := src.Cytoband; c != nil {
		tab, err := a.tables(c.ReferenceFile)
		if err != nil {
			return fmt.Errorf("source %s: %w", src.Prefix, err)
		}
		ann = &cytoband.Annotator{
			Spec: cytoband.Spec{
				Chromosome:    Qualify(src.Prefix, c.Chromosome),
				Start:         Qualify(src.Prefix, c.Start),
				End:           Qualify(src.Prefix, c.End),
				PositionIndex: c.Index(),
			},
			Table:  tab,
			Source: src.Prefix,
			Report: rep,
		}
	}

	err = parse.Files(ctx, p, src.Files, func(raw record.Record) error {
		rec, ok := tr.Transform(raw)
		if !ok {
			return nil
		}
		if ann != nil {
			ann.Annotate(rec)
		}
		return emit(rec)
	})
	if err != nil {
		return fmt.Errorf("source %s: %w", src.Prefix, err)
	}
	return nil
}

// Assemble materializes src.
func (a *Assembler) Assemble(ctx context.Context, src config.Source) (*Result, error) {
	rep := diag.New(src.Debug)
	res := &Result{Prefix: src.Prefix, Report: rep}
	err := a.Stream(ctx, src, rep, func(r record.Record) error {
		res.Records = append(res.Records, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	a.logger.Info("source assembled",
		zap.String("prefix", src.Prefix),
		zap.Int("files", len(src.Files)),
		zap.Int("records", len(res.Records)),
		zap.Int("parsed", rep.ParsedCount()),
		zap.Int("skipped", rep.Skipped()),
		zap.Int("filtered", rep.FilteredCount()),
		zap.Int("transform_issues", rep.Count(diag.KindTransform)),
		zap.Int("cytoband_issues", rep.Count(diag.KindCytoband)),
	)
	if len(res.Records) == 0 {
		a.logger.Warn("no records produced", zap.String("prefix", src.Prefix))
	}
	a.logIssues(src.Prefix, rep)
	return res, nil
}

// Preview emits up to limit records of src; limit <= 0 means all.
func (a *Assembler) Preview(ctx context.Context, src config.Source, limit int, emit func(record.Record) error) (*diag.Report, error) {
	rep := diag.New(src.Debug)
	n := 0
	err := a.Stream(ctx, src, rep, func(r record.Record) error {
		if err := emit(r); err != nil {
			return err
		}
		n++
		if limit > 0 && n >= limit {
			return errStop
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return rep, err
	}
	a.logIssues(src.Prefix, rep)
	return rep, nil
}

// logIssues logs the issues a debug source retained. They go out at info so
// debug sources are visible without --verbose.
func (a *Assembler) logIssues(prefix string, rep *diag.Report) {
	for _, is := range rep.Issues() {
		a.logger.Info("record issue",
			zap.String("prefix", prefix),
			zap.Stringer("kind", is.Kind),
			zap.String("file", is.File),
			zap.Int("line", is.Line),
			zap.String("reason", is.Reason),
		)
	}
}

// Qualify returns name namespaced under prefix unless it already is.
func Qualify(prefix, name string) string {
	if record.HasPrefix(name, prefix) {
		return name
	}
	return record.Qualify(prefix, name)
}

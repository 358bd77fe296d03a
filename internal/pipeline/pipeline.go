// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"geneannot-core/cytoband"
	"geneannot-core/merge"
	"geneannot-core/record"

	"geneannot/internal/config"
	"geneannot/internal/metrics"
	"geneannot/internal/source"
)

// Annotation is the folded result: metadata keyed by source prefix and the
// final record set.
type Annotation struct {
	Metadata map[string]any
	Records  record.Set
}

// Config controls a run.
type Config struct {
	Threads int // concurrent sources; <= 0 means runtime.NumCPU()
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Pipeline runs configurations. One Pipeline shares its table cache across
// runs.
type Pipeline struct {
	threads   int
	logger    *zap.Logger
	metrics   *metrics.Metrics
	assembler *source.Assembler

	group  singleflight.Group
	mu     sync.Mutex
	tables map[string]*cytoband.Table
	loads  int
}

// New returns a Pipeline reading reference tables with cytoband.Load.
func New(cfg Config) *Pipeline {
	return newWithLoader(cfg, cytoband.Load)
}

func newWithLoader(cfg Config, load source.TableLoader) *Pipeline {
	p := &Pipeline{
		threads: cfg.Threads,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		tables:  map[string]*cytoband.Table{},
	}
	if p.threads <= 0 {
		p.threads = runtime.NumCPU()
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	p.assembler = source.New(func(path string) (*cytoband.Table, error) {
		return p.table(path, load)
	})
	p.assembler.SetLogger(p.logger)
	return p
}

// Assembler exposes the source assembler, sharing this pipeline's table cache.
func (p *Pipeline) Assembler() *source.Assembler { return p.assembler }

func (p *Pipeline) table(path string, load source.TableLoader) (*cytoband.Table, error) {
	p.mu.Lock()
	if t, ok := p.tables[path]; ok {
		p.mu.Unlock()
		return t, nil
	}
	p.mu.Unlock()

	v, err, _ := p.group.Do(path, func() (any, error) {
		p.mu.Lock()
		cached, ok := p.tables[path]
		p.mu.Unlock()
		if ok {
			return cached, nil
		}
		t, err := load(path)
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		p.tables[path] = t
		p.loads++
		p.mu.Unlock()
		p.logger.Debug("cytoband reference loaded",
			zap.String("path", path), zap.Int("chromosomes", t.Chromosomes()))
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*cytoband.Table), nil
}

// Run assembles every source of cfg and folds them onto base, which may be
// nil. base is not modified.
func (p *Pipeline) Run(ctx context.Context, cfg config.Config, base *Annotation) (*Annotation, error) {
	if base == nil && len(cfg) > 0 && !cfg[0].Source {
		return nil, fmt.Errorf("source %s: first source must set source when no annotation is given", cfg[0].Prefix)
	}

	results := make([]*source.Result, len(cfg))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.threads)
	for i, src := range cfg {
		g.Go(func() error {
			res, err := p.assembler.Assemble(gctx, src)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	out := &Annotation{Metadata: map[string]any{}}
	if base != nil {
		maps.Copy(out.Metadata, base.Metadata)
		out.Records = append(record.Set(nil), base.Records...)
	}
	for i, src := range cfg {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res := results[i]
		rep := res.Report
		p.metrics.ObserveSource(src.Prefix, rep.ParsedCount(), rep.Skipped(), rep.FilteredCount())

		start := time.Now()
		if src.Source {
			out.Records = append(out.Records, res.Records...)
			p.logger.Info("source appended",
				zap.String("prefix", src.Prefix), zap.Int("records", len(res.Records)))
		} else {
			merged, err := p.merge(out.Records, res, *src.Merge)
			if err != nil {
				return nil, err
			}
			out.Records = merged
		}
		p.metrics.ObserveMerge(src.Prefix, len(out.Records), time.Since(start))

		if src.Metadata != nil {
			out.Metadata[src.Prefix] = src.Metadata
		}
	}
	return out, nil
}

func (p *Pipeline) merge(acc record.Set, res *source.Result, spec merge.Spec) (record.Set, error) {
	spec = spec.MapRight(func(name string) string { return source.Qualify(res.Prefix, name) })
	m, err := merge.Merge(acc, res.Records, spec)
	if err != nil {
		var amb *merge.AmbiguityError
		if errors.As(err, &amb) {
			p.logger.Error("merge ambiguity",
				zap.String("prefix", res.Prefix),
				zap.String("side", string(amb.Side)),
				zap.Strings("key", amb.Key),
				zap.Int("candidates", amb.Count))
		}
		return nil, fmt.Errorf("merge %s: %w", res.Prefix, err)
	}
	r := m.Report
	p.logger.Info("source merged",
		zap.String("prefix", res.Prefix),
		zap.Int("matched", r.Matched),
		zap.Int("unmatched", r.Unmatched),
		zap.Int("dropped_right", r.DroppedRight),
		zap.Int("missing_key_left", r.MissingCount(merge.Left)),
		zap.Int("missing_key_right", r.MissingCount(merge.Right)),
		zap.Int("records", len(m.Records)))
	if res.Report.Verbose {
		for _, mk := range r.Missing {
			p.logger.Info("merge key missing",
				zap.String("prefix", res.Prefix),
				zap.String("side", string(mk.Side)),
				zap.Int("index", mk.Index),
				zap.String("field", mk.Field))
		}
	}
	return m.Records, nil
}

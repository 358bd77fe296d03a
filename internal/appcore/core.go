// internal/appcore/core.go
package appcore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"geneannot-core/cytoband"
	"geneannot-core/merge"
	"geneannot-core/parse"

	"geneannot/internal/cli"
	"geneannot/internal/config"
	"geneannot/internal/logging"
	"geneannot/internal/metrics"
	"geneannot/internal/output"
	"geneannot/internal/pipeline"
	"geneannot/internal/writers"
)

// Exit codes.
const (
	ExitOK        = 0
	ExitUsage     = 2
	ExitRuntime   = 3
	ExitAmbiguous = 4
	ExitCancelled = 130
)

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	var (
		ue  *cli.UsageError
		ce  *config.Error
		amb *merge.AmbiguityError
	)
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, context.Canceled):
		return ExitCancelled
	case errors.As(err, &ue), errors.As(err, &ce):
		return ExitUsage
	case errors.As(err, &amb):
		return ExitAmbiguous
	}
	return ExitRuntime
}

// Env is the per-invocation runtime: logger, metrics and pipeline.
type Env struct {
	Logger   *zap.Logger
	RunID    string
	Metrics  *metrics.Metrics
	Pipeline *pipeline.Pipeline

	metricsFile string
}

// NewEnv builds the runtime from global options.
func NewEnv(g cli.Options) (*Env, error) {
	logger, runID, err := logging.New(g.Verbose, g.Quiet)
	if err != nil {
		return nil, err
	}
	m := metrics.New()
	return &Env{
		Logger:      logger,
		RunID:       runID,
		Metrics:     m,
		Pipeline:    pipeline.New(pipeline.Config{Threads: g.Threads, Logger: logger, Metrics: m}),
		metricsFile: g.MetricsFile,
	}, nil
}

// Close writes metrics, if requested, and flushes the logger.
func (e *Env) Close() error {
	err := e.Metrics.WriteFile(e.metricsFile)
	if err != nil {
		err = fmt.Errorf("metrics: %w", err)
	}
	_ = e.Logger.Sync()
	return err
}

// LogFailure records err with the category used for the exit code.
func (e *Env) LogFailure(err error) {
	var (
		pe *parse.FileError
		re *cytoband.ReferenceError
	)
	fields := []zap.Field{zap.Error(err), zap.Int("exit_code", ExitCode(err))}
	switch {
	case errors.As(err, &re):
		fields = append(fields, zap.String("reference", re.Path))
	case errors.As(err, &pe):
		fields = append(fields, zap.String("file", pe.File))
	}
	e.Logger.Error("run failed", fields...)
}

// Emit writes ann to path ("-" is stdout) in the named format.
func Emit(stdout io.Writer, path, format string, ann *pipeline.Annotation) error {
	f, err := writers.Lookup(format)
	if err != nil {
		return &cli.UsageError{Err: err}
	}
	if f.NeedsPath && (path == "" || path == "-") {
		return &cli.UsageError{Err: fmt.Errorf("format %q needs --output FILE", format)}
	}
	t, closeOut, err := Output(stdout, path, f.NeedsPath)
	if err != nil {
		return err
	}
	err = writers.Write(format, t, output.ToAPI(ann.Metadata, ann.Records))
	if cerr := closeOut(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// Output returns the writer target for path; "-" is stdout. The returned
// close function must be called once writing is done.
func Output(stdout io.Writer, path string, needsPath bool) (writers.Target, func() error, error) {
	if needsPath {
		return writers.Target{Path: path}, func() error { return nil }, nil
	}
	if path == "" || path == "-" {
		return writers.Target{W: stdout}, func() error { return nil }, nil
	}
	fh, err := os.Create(path)
	if err != nil {
		return writers.Target{}, nil, err
	}
	return writers.Target{W: fh, Path: path}, fh.Close, nil
}

// internal/app/app.go
package app

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"geneannot-core/record"

	"geneannot/internal/appcore"
	"geneannot/internal/cli"
	"geneannot/internal/config"
	"geneannot/internal/output"
	"geneannot/internal/pipeline"
	"geneannot/internal/writers"
)

// RunContext runs geneannot with argv and returns the exit code.
func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	root := cli.NewRootCommand(cli.Handlers{
		Create: func(cmd *cobra.Command, g cli.Options, o cli.CreateOptions) error {
			return withEnv(g, func(env *appcore.Env) error { return runCreate(cmd.Context(), env, stdout, o) })
		},
		Add: func(cmd *cobra.Command, g cli.Options, o cli.AddOptions) error {
			return withEnv(g, func(env *appcore.Env) error { return runAdd(cmd.Context(), env, stdout, o) })
		},
		Update: func(cmd *cobra.Command, g cli.Options, o cli.UpdateOptions) error {
			return withEnv(g, func(env *appcore.Env) error { return runUpdate(cmd.Context(), env, stdout, o) })
		},
		Parse: func(cmd *cobra.Command, g cli.Options, o cli.ParseOptions) error {
			return withEnv(g, func(env *appcore.Env) error { return runParse(cmd.Context(), env, stdout, o) })
		},
	})
	root.SetArgs(argv)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := cli.Usage(root.ExecuteContext(parent))
	if err == nil {
		return appcore.ExitOK
	}
	if parent.Err() != nil {
		return appcore.ExitCancelled
	}
	_, _ = fmt.Fprintln(stderr, "error:", err)
	var ue *cli.UsageError
	if errors.As(err, &ue) {
		_, _ = fmt.Fprintln(stderr, "run 'geneannot --help' for usage")
	}
	return appcore.ExitCode(err)
}

// Run is RunContext with a background context.
func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

func withEnv(g cli.Options, fn func(*appcore.Env) error) error {
	env, err := appcore.NewEnv(g)
	if err != nil {
		return err
	}
	err = fn(env)
	if err != nil {
		env.LogFailure(err)
	}
	if cerr := env.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func runCreate(ctx context.Context, env *appcore.Env, stdout io.Writer, o cli.CreateOptions) error {
	cfg, err := config.LoadFile(o.Config)
	if err != nil {
		return err
	}
	env.Logger.Info("creating annotation",
		zap.String("config", o.Config), zap.Int("sources", len(cfg)), zap.String("format", o.Format))
	ann, err := env.Pipeline.Run(ctx, cfg, nil)
	if err != nil {
		return err
	}
	return finish(env, stdout, o.Output, o.Format, ann)
}

func runAdd(ctx context.Context, env *appcore.Env, stdout io.Writer, o cli.AddOptions) error {
	cfg, err := config.LoadFile(o.Config)
	if err != nil {
		return err
	}
	base, err := readBase(o.Annotation)
	if err != nil {
		return err
	}
	env.Logger.Info("extending annotation",
		zap.String("annotation", o.Annotation), zap.Int("records", len(base.Records)),
		zap.String("config", o.Config), zap.Int("sources", len(cfg)))
	for _, src := range cfg {
		if _, dup := base.Metadata[src.Prefix]; dup {
			env.Logger.Warn("prefix already present in annotation", zap.String("prefix", src.Prefix))
		}
	}
	ann, err := env.Pipeline.Run(ctx, cfg, base)
	if err != nil {
		return err
	}
	return finish(env, stdout, o.Output, o.Format, ann)
}

func runUpdate(ctx context.Context, env *appcore.Env, stdout io.Writer, o cli.UpdateOptions) error {
	u, err := config.LoadUpdateFile(o.Update)
	if err != nil {
		return err
	}
	base, err := readBase(o.Annotation)
	if err != nil {
		return err
	}
	env.Logger.Info("updating annotation",
		zap.String("annotation", o.Annotation), zap.Int("records", len(base.Records)),
		zap.String("update", o.Update),
		zap.Strings("remove", u.Remove), zap.Int("replace", len(u.Replace)), zap.Int("add", len(u.Add)))
	ann, err := env.Pipeline.Update(ctx, u, base)
	if err != nil {
		return err
	}
	return finish(env, stdout, o.Output, o.Format, ann)
}

func readBase(path string) (*pipeline.Annotation, error) {
	doc, err := output.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &pipeline.Annotation{Metadata: doc.Metadata, Records: record.Set(doc.Annotation)}, nil
}

func finish(env *appcore.Env, stdout io.Writer, path, format string, ann *pipeline.Annotation) error {
	if err := appcore.Emit(stdout, path, format, ann); err != nil {
		return err
	}
	env.Logger.Info("annotation written",
		zap.String("output", path), zap.String("format", format), zap.Int("records", len(ann.Records)))
	return nil
}

func runParse(ctx context.Context, env *appcore.Env, stdout io.Writer, o cli.ParseOptions) error {
	cfg, err := config.LoadFile(o.Config)
	if err != nil {
		return err
	}
	limit := cli.PreviewLimit
	if o.All {
		limit = 0
	}
	bw := bufio.NewWriter(stdout)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)

	asm := env.Pipeline.Assembler()
	for _, src := range cfg {
		rep, err := asm.Preview(ctx, src, limit, func(r record.Record) error { return enc.Encode(r) })
		if err != nil {
			return err
		}
		env.Logger.Info("source previewed",
			zap.String("prefix", src.Prefix),
			zap.Int("parsed", rep.ParsedCount()),
			zap.Int("skipped", rep.Skipped()),
			zap.Int("filtered", rep.FilteredCount()))
	}
	if err := bw.Flush(); err != nil && !writers.IsBrokenPipe(err) {
		return err
	}
	return nil
}

// internal/cli/options.go
package cli

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"geneannot/internal/version"
)

// Options are the global flags.
type Options struct {
	Threads     int
	Verbose     bool
	Quiet       bool
	MetricsFile string
}

// CreateOptions are the arguments of `create`.
type CreateOptions struct {
	Config string
	Output string
	Format string
}

// AddOptions are the arguments of `add`.
type AddOptions struct {
	Annotation string
	Config     string
	Output     string
	Format     string
}

// UpdateOptions are the arguments of `update`.
type UpdateOptions struct {
	Annotation string
	Update     string
	Output     string
	Format     string
}

// ParseOptions are the arguments of `parse`.
type ParseOptions struct {
	Config string
	All    bool
}

// PreviewLimit is the number of records `parse` prints per source without --all.
const PreviewLimit = 5

// Handlers run the subcommands. Each receives the parsed global options.
type Handlers struct {
	Create func(cmd *cobra.Command, g Options, o CreateOptions) error
	Add    func(cmd *cobra.Command, g Options, o AddOptions) error
	Update func(cmd *cobra.Command, g Options, o UpdateOptions) error
	Parse  func(cmd *cobra.Command, g Options, o ParseOptions) error
}

// UsageError marks bad flags or arguments.
type UsageError struct{ Err error }

func (e *UsageError) Error() string { return e.Err.Error() }
func (e *UsageError) Unwrap() error { return e.Err }

func usage(err error) error {
	if err == nil {
		return nil
	}
	var ue *UsageError
	if errors.As(err, &ue) {
		return err
	}
	return &UsageError{Err: err}
}

// Usage marks cobra's own command lookup errors as usage errors.
func Usage(err error) error {
	if err != nil && strings.HasPrefix(err.Error(), "unknown command") {
		return &UsageError{Err: err}
	}
	return err
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return usage(cobra.ExactArgs(n)(cmd, args))
	}
}

var formats = map[string]bool{"json": true, "jsonl": true, "sqlite": true}

func checkFormat(f string) error {
	if !formats[f] {
		return &UsageError{Err: fmt.Errorf("--format must be json, jsonl or sqlite, got %q", f)}
	}
	return nil
}

// NewRootCommand builds the geneannot command tree.
func NewRootCommand(h Handlers) *cobra.Command {
	var g Options

	root := &cobra.Command{
		Use:           "geneannot",
		Short:         "Build gene annotation files from heterogeneous sources",
		Long:          "geneannot parses annotation sources (TSV, CSV, GTF, GenBank, UniProt idmapping, XML),\nnormalizes their fields and merges them into one annotation.",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if g.Threads < 0 {
				return &UsageError{Err: fmt.Errorf("--threads must be >= 0, got %d", g.Threads)}
			}
			if g.Threads == 0 {
				g.Threads = runtime.NumCPU()
			}
			return nil
		},
	}
	root.SetVersionTemplate("geneannot version {{.Version}}\n")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usage(err) })

	pf := root.PersistentFlags()
	pf.IntVarP(&g.Threads, "threads", "t", 0, "sources parsed concurrently (0=all CPUs)")
	pf.BoolVar(&g.Verbose, "verbose", false, "debug logging")
	pf.BoolVarP(&g.Quiet, "quiet", "q", false, "only log warnings and errors")
	pf.StringVar(&g.MetricsFile, "metrics-file", "", "write Prometheus text metrics to FILE")

	var co CreateOptions
	create := &cobra.Command{
		Use:   "create <config>",
		Short: "Create a new annotation from a source configuration",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			co.Config = args[0]
			if err := checkFormat(co.Format); err != nil {
				return err
			}
			return h.Create(cmd, g, co)
		},
	}
	create.Flags().StringVarP(&co.Output, "output", "o", "-", "output file ('-' for stdout)")
	create.Flags().StringVarP(&co.Format, "format", "f", "json", "output format: json, jsonl, sqlite")

	var ao AddOptions
	add := &cobra.Command{
		Use:   "add <annotation.json> <config>",
		Short: "Fold additional sources into an existing annotation",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ao.Annotation, ao.Config = args[0], args[1]
			if err := checkFormat(ao.Format); err != nil {
				return err
			}
			return h.Add(cmd, g, ao)
		},
	}
	add.Flags().StringVarP(&ao.Output, "output", "o", "-", "output file ('-' for stdout)")
	add.Flags().StringVarP(&ao.Format, "format", "f", "json", "output format: json, jsonl, sqlite")

	var uo UpdateOptions
	update := &cobra.Command{
		Use:   "update <annotation.json> <update>",
		Short: "Remove, replace or add sources of an existing annotation",
		Long:  "update reads a document with optional \"remove\" (prefixes), \"replace\" and \"add\"\n" +
			"(source lists). Removed and replaced prefixes are stripped first, then replacements\n" +
			"and additions are folded in, in that order.",
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			uo.Annotation, uo.Update = args[0], args[1]
			if err := checkFormat(uo.Format); err != nil {
				return err
			}
			return h.Update(cmd, g, uo)
		},
	}
	update.Flags().StringVarP(&uo.Output, "output", "o", "-", "output file ('-' for stdout)")
	update.Flags().StringVarP(&uo.Format, "format", "f", "json", "output format: json, jsonl, sqlite")

	var po ParseOptions
	parse := &cobra.Command{
		Use:   "parse <config>",
		Short: fmt.Sprintf("Print the first %d normalized records of each source as JSONL", PreviewLimit),
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			po.Config = args[0]
			return h.Parse(cmd, g, po)
		},
	}
	parse.Flags().BoolVar(&po.All, "all", false, "print every record")

	root.AddCommand(create, add, update, parse)
	return root
}

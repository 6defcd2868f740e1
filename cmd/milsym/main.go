// Command milsym decodes structured symbol codes and resolves free-text
// symbol descriptions against a schema directory.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jacoelho/milsym"
)

// config is read from the environment; flags override it.
type config struct {
	SchemaDir string   `env:"MILSYM_SCHEMA_DIR"`
	LogLevel  string   `env:"MILSYM_LOG_LEVEL" envDefault:"warn"`
	Templates []string `env:"MILSYM_TEMPLATES" envSeparator:","`
}

// usageError marks failures caused by bad invocation rather than bad input.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func main() {
	os.Exit(run())
}

func run() int {
	return runWithArgs(os.Args[1:], os.Stdout, os.Stderr)
}

func runWithArgs(args []string, stdout, stderr io.Writer) int {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		_ = writef(stderr, "error: parse env: %v\n", err)
		return 2
	}

	root := newRootCommand(&cfg, stdout, stderr)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		_ = writef(stderr, "error: %v\n", err)
		var ue usageError
		if errors.As(err, &ue) {
			return 2
		}
		return 1
	}
	return 0
}

type app struct {
	cfg     *config
	logger  *zap.Logger
	schema  *milsym.Schema
	stdout  io.Writer
	stderr  io.Writer
	verbose bool
}

func newRootCommand(cfg *config, stdout, stderr io.Writer) *cobra.Command {
	a := &app{cfg: cfg, stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "milsym",
		Short:         "Inspect military symbol codes and descriptions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	flags := root.PersistentFlags()
	flags.StringVar(&cfg.SchemaDir, "schema", cfg.SchemaDir, "schema directory (env MILSYM_SCHEMA_DIR)")
	flags.StringSliceVar(&cfg.Templates, "template", cfg.Templates,
		"template glob relative to the schema directory (env MILSYM_TEMPLATES)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(a.decodeCommand(), a.resolveCommand())
	return root
}

func (a *app) setup() error {
	if a.cfg.SchemaDir == "" {
		return usageError{errors.New("--schema is required")}
	}
	level, err := zapcore.ParseLevel(a.cfg.LogLevel)
	if err != nil {
		return usageError{fmt.Errorf("log level: %w", err)}
	}
	if a.verbose {
		level = zapcore.DebugLevel
	}
	a.logger = newLogger(a.stderr, level)

	patterns := a.cfg.Templates
	if len(patterns) == 0 {
		patterns = []string{milsym.DefaultTemplatePattern}
	}
	opts := milsym.NewLoadOptions().
		WithLogger(a.logger).
		WithTemplatePatterns(patterns...)
	s, err := milsym.LoadWithOptions(os.DirFS(a.cfg.SchemaDir), ".", opts)
	if err != nil {
		return err
	}
	a.schema = s
	return nil
}

// newLogger builds a production-style JSON logger writing to w.
func newLogger(w io.Writer, level zapcore.Level) *zap.Logger {
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	return zap.New(zapcore.NewCore(encoder, zapcore.AddSync(w), level))
}

func (a *app) decodeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <code>",
		Short: "Decode a structured symbol code",
		Args:  exactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			sym, err := a.schema.FromCode(args[0])
			if err != nil {
				return err
			}
			return a.printSymbol(sym, "")
		},
	}
}

func (a *app) resolveCommand() *cobra.Command {
	var (
		explain  bool
		shortest bool
		limitTo  []string
	)
	cmd := &cobra.Command{
		Use:   "resolve <text...>",
		Short: "Resolve a free-text description into a symbol",
		Args:  minArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			opts := milsym.NewResolveOptions().
				WithSymbolSets(limitTo...).
				WithPreferShortest(shortest)
			res, err := a.schema.Explain(strings.Join(args, " "), opts)
			if err != nil {
				return err
			}
			if err := a.printSymbol(res.Symbol, res.Remainder); err != nil {
				return err
			}
			if explain {
				return a.printTrace(res.Trace)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&explain, "explain", false, "print the outcome of every phase")
	cmd.Flags().BoolVar(&shortest, "shortest", false, "prefer the shortest matching name")
	cmd.Flags().StringSliceVar(&limitTo, "limit-to", nil, "restrict entities to these symbol set ids")
	return cmd
}

type named interface {
	ID() string
	Name() string
}

// printSymbol writes one aligned row per field. A non-empty remainder is
// reported as the unmatched row.
func (a *app) printSymbol(sym *milsym.Symbol, remainder string) error {
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	rows := []struct {
		label string
		value named
		ok    bool
	}{
		{"context", sym.Context, sym.Context != nil},
		{"affiliation", sym.Affiliation, sym.Affiliation != nil},
		{"symbol set", sym.SymbolSet, sym.SymbolSet != nil},
		{"status", sym.Status, sym.Status != nil},
		{"hqtfd", sym.HQTFD, sym.HQTFD != nil},
		{"amplifier", sym.Amplifier, sym.Amplifier != nil},
		{"entity", sym.Entity, sym.Entity != nil},
		{"modifier 1", sym.Modifier1, sym.Modifier1 != nil},
		{"modifier 2", sym.Modifier2, sym.Modifier2 != nil},
	}
	if err := writef(tw, "code\t%s\ndescription\t%s\n", sym.Code(), sym.Describe()); err != nil {
		return err
	}
	for _, r := range rows {
		value := "-"
		if r.ok {
			value = r.value.ID() + " " + r.value.Name()
		}
		if err := writef(tw, "%s\t%s\n", r.label, value); err != nil {
			return err
		}
	}
	if remainder != "" {
		if err := writef(tw, "unmatched\t%s\n", remainder); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func (a *app) printTrace(trace []milsym.PhaseResult) error {
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	if err := writef(tw, "\nphase\tmatched\tremainder\n"); err != nil {
		return err
	}
	for _, pr := range trace {
		matched := "-"
		switch {
		case pr.Matched != nil:
			matched = pr.Name
		case pr.Defaulted:
			matched = "(default)"
		}
		if pr.Dropped {
			matched = "(dropped)"
		}
		if err := writef(tw, "%s\t%s\t%s\n", pr.Phase, matched, pr.Remainder); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

func minArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MinimumNArgs(n)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}
